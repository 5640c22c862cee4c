package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/config"
	"github.com/ThatOneShortGuy/thermostat/internal/mqtt"
	"github.com/ThatOneShortGuy/thermostat/internal/sensor"
	"github.com/ThatOneShortGuy/thermostat/internal/transport"
)

// RunSensor opens the sensor and publishes readings until ctx is cancelled.
// A sensor that cannot be opened is fatal; nothing after that is.
func RunSensor(ctx context.Context, cfg config.Sensor, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"transport", cfg.Transport,
		"driver", cfg.Driver,
		"sensorID", cfg.SensorID,
		"pollInterval", cfg.PollInterval,
		"retryDelay", cfg.RetryDelay,
	)

	driver, closeDriver, err := openDriver(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeDriver(); err != nil {
			logger.Error("sensor close", "error", err)
		}
	}()

	var publisher sensor.Publisher
	switch cfg.Transport {
	case "mqtt":
		p := mqtt.NewPublisher(cfg.MQTT, logger)
		connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := p.Connect(connectCtx)
		cancel()
		if err != nil {
			logger.Warn("mqtt connection failed (readings dropped until it recovers)", "error", err)
		}
		defer p.Disconnect()
		publisher = p
	default:
		logger.Info("posting readings", "url", cfg.IngestURL)
		publisher = transport.NewClient(cfg.IngestURL, cfg.HTTPTimeout, logger)
	}

	loop := sensor.NewLoop(driver, publisher, sensor.Options{
		SensorID:     cfg.SensorID,
		PollInterval: cfg.PollInterval,
		RetryDelay:   cfg.RetryDelay,
	}, logger)
	return loop.Run(ctx)
}

func openDriver(cfg config.Sensor) (sensor.Driver, func() error, error) {
	if cfg.Driver == "simulated" {
		return sensor.NewSimulated(), func() error { return nil }, nil
	}
	dev, err := sensor.OpenBME280(cfg.I2CBus, cfg.BME280Address)
	if err != nil {
		return nil, nil, fmt.Errorf("open sensor: %w", err)
	}
	return dev, dev.Close, nil
}
