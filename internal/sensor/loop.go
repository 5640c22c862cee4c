// Package sensor runs the acquisition side: read the environmental sensor on a
// fixed cadence and hand each reading to a publisher exactly once.
package sensor

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

// Measurement is the raw output of one sensor read.
type Measurement struct {
	Temperature units.Temperature
	Pressure    float64 // Pa
	Humidity    float64 // %RH
}

type Driver interface {
	Measure() (Measurement, error)
}

// Publisher delivers a reading. Implementations make a single attempt.
type Publisher interface {
	Send(ctx context.Context, r telemetry.Reading) error
}

type Options struct {
	SensorID     int64
	PollInterval time.Duration
	RetryDelay   time.Duration
}

type Loop struct {
	driver    Driver
	publisher Publisher
	opts      Options
	logger    *slog.Logger
	now       func() time.Time
}

func NewLoop(driver Driver, publisher Publisher, opts Options, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{
		driver:    driver,
		publisher: publisher,
		opts:      opts,
		logger:    logger.With("component", "sensor-loop"),
		now:       time.Now,
	}
}

// Run reads, publishes and sleeps until ctx is cancelled. Read failures are retried
// after RetryDelay; publish failures drop the reading. Neither ends the loop.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("sensor loop started",
		"sensor_id", l.opts.SensorID,
		"poll_interval", l.opts.PollInterval,
		"retry_delay", l.opts.RetryDelay,
	)
	for {
		wait := l.opts.PollInterval
		if !l.cycle(ctx) {
			wait = l.opts.RetryDelay
		}
		if err := sleep(ctx, wait); err != nil {
			l.logger.Info("sensor loop stopped")
			return err
		}
	}
}

// cycle reports false when the sensor read failed and should be retried early.
func (l *Loop) cycle(ctx context.Context) bool {
	m, err := l.driver.Measure()
	if err != nil {
		l.logger.Warn("sensor read failed", "error", err, "retry_in", l.opts.RetryDelay)
		return false
	}

	reading := telemetry.Reading{
		Temperature: m.Temperature,
		Pressure:    m.Pressure,
		Humidity:    m.Humidity,
		CapturedAt:  l.now().UTC(),
		SensorID:    l.opts.SensorID,
	}
	l.logger.Debug("reading captured", "reading", reading.String())

	if err := l.publisher.Send(ctx, reading); err != nil {
		l.logger.Warn("reading dropped", "error", err, "date_time", reading.CapturedAt)
		return true
	}
	l.logger.Debug("reading delivered", "date_time", reading.CapturedAt)
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
