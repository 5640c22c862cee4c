package controller

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ThatOneShortGuy/thermostat/internal/modules/readings/repository"
	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
)

type ReadingsController interface {
	RegisterRoutes(mux *http.ServeMux)
}

// Ingester stores a decoded reading.
type Ingester interface {
	Ingest(ctx context.Context, r telemetry.Reading) error
}

type readingsControllerImpl struct {
	ingester   Ingester
	repository repository.ReadingsRepository
	logger     *slog.Logger
}

func NewReadingsController(ingester Ingester, repository repository.ReadingsRepository, logger *slog.Logger) ReadingsController {
	if logger == nil {
		logger = slog.Default()
	}
	return &readingsControllerImpl{
		ingester:   ingester,
		repository: repository,
		logger:     logger.With("component", "readings-http"),
	}
}

func (c *readingsControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /data", c.handleIngest)
	mux.HandleFunc("GET /api/v1/sensors", c.handleSensors)
	mux.HandleFunc("GET /api/v1/sensors/{id}/latest", c.handleLatest)
}
