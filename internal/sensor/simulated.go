package sensor

import (
	"math"
	"sync"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

// Simulated produces a plausible indoor reading that drifts slowly over a day.
// It lets the sender run on a machine without an I2C bus.
type Simulated struct {
	mu  sync.Mutex
	now func() time.Time
}

func NewSimulated() *Simulated {
	return &Simulated{now: time.Now}
}

func (s *Simulated) Measure() (Measurement, error) {
	s.mu.Lock()
	t := s.now()
	s.mu.Unlock()

	// phase in [0, 2π) over 24h
	secs := float64(t.Hour()*3600 + t.Minute()*60 + t.Second())
	phase := 2 * math.Pi * secs / 86400

	return Measurement{
		Temperature: units.NewTemperature(21+1.5*math.Sin(phase), units.Celsius),
		Pressure:    101325 + 150*math.Cos(phase),
		Humidity:    42 + 6*math.Sin(phase+math.Pi/3),
	}, nil
}
