// Package readings wires the telemetry ingestion feature: HTTP routes, the
// optional MQTT subscription and the storage behind them.
package readings

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/ThatOneShortGuy/thermostat/internal/db"
	"github.com/ThatOneShortGuy/thermostat/internal/modules/readings/controller"
	"github.com/ThatOneShortGuy/thermostat/internal/modules/readings/repository"
	"github.com/ThatOneShortGuy/thermostat/internal/modules/readings/service"
)

// RegisterFeature mounts the routes and, when subscriber is non-nil, the MQTT handler.
func RegisterFeature(mux *http.ServeMux, writer *db.Writer, reader *sql.DB, subscriber service.MQTTSubscriber, logger *slog.Logger, observers ...service.Observer) *service.Service {
	readingsRepository := repository.NewRepository(writer, reader)
	readingsService := service.NewService(readingsRepository, logger, observers...)
	readingsController := controller.NewReadingsController(readingsService, readingsRepository, logger)
	readingsController.RegisterRoutes(mux)

	if subscriber != nil {
		readingsService.RegisterMQTT(subscriber)
	}
	return readingsService
}
