package sensor

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

// BME280 owns the I2C bus handle for the life of the process.
type BME280 struct {
	mu  sync.Mutex
	bus i2c.BusCloser
	dev *bmxx80.Dev
}

// OpenBME280 initialises the host, opens the bus ("" selects the default, usually
// /dev/i2c-1) and probes the device at addr.
func OpenBME280(busName string, addr uint16) (*BME280, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}

	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}

	dev, err := bmxx80.NewI2C(bus, addr, &bmxx80.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, fmt.Errorf("bme280 at %#x: %w", addr, err)
	}

	return &BME280{bus: bus, dev: dev}, nil
}

func (b *BME280) Measure() (Measurement, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var env physic.Env
	if err := b.dev.Sense(&env); err != nil {
		return Measurement{}, fmt.Errorf("sense: %w", err)
	}
	return fromEnv(env), nil
}

func (b *BME280) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	haltErr := b.dev.Halt()
	closeErr := b.bus.Close()
	if haltErr != nil {
		return fmt.Errorf("halt bme280: %w", haltErr)
	}
	return closeErr
}

// fromEnv converts periph fixed-point values: nano-Kelvin, nano-Pascal and 1e-7 RH.
func fromEnv(env physic.Env) Measurement {
	return Measurement{
		Temperature: units.FromPhysic(env.Temperature),
		Pressure:    float64(env.Pressure) / float64(physic.Pascal),
		Humidity:    float64(env.Humidity) / float64(physic.PercentRH),
	}
}
