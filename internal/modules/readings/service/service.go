package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ThatOneShortGuy/thermostat/internal/modules/readings/repository"
	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

// Observer is told about every reading that was stored. It must not block.
type Observer interface {
	Observe(ctx context.Context, r telemetry.Reading)
}

type Service struct {
	repository repository.ReadingsRepository
	observers  []Observer
	logger     *slog.Logger
}

func NewService(repository repository.ReadingsRepository, logger *slog.Logger, observers ...Observer) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repository: repository,
		observers:  observers,
		logger:     logger.With("component", "readings"),
	}
}

// Ingest persists one reading. A failed write is not rolled back.
func (s *Service) Ingest(ctx context.Context, r telemetry.Reading) error {
	s.logger.Info("reading received",
		"sensor_id", r.SensorID,
		"humidity_pct", r.Humidity,
		"pressure_pa", r.Pressure,
		"temperature_f", r.Temperature.In(units.Fahrenheit),
	)

	if err := s.repository.StoreReading(ctx, r); err != nil {
		return fmt.Errorf("store reading from sensor %d: %w", r.SensorID, err)
	}

	for _, o := range s.observers {
		o.Observe(ctx, r)
	}
	return nil
}
