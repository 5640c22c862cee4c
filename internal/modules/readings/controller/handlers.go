package controller

import (
	"errors"
	"net/http"

	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
	"github.com/ThatOneShortGuy/thermostat/internal/utils"
)

const maxBodyBytes = 64 << 10

func (c *readingsControllerImpl) handleIngest(w http.ResponseWriter, r *http.Request) {
	reading, err := telemetry.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.WriteError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		c.logger.Warn("rejected reading", "remote", r.RemoteAddr, "error", err)
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := c.ingester.Ingest(r.Context(), reading); err != nil {
		c.logger.Error("failed to store reading", "sensor_id", reading.SensorID, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to store reading")
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (c *readingsControllerImpl) handleSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := c.repository.ListSensors(r.Context())
	if err != nil {
		c.logger.Error("list sensors failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load sensors")
		return
	}
	utils.WriteJSON(w, http.StatusOK, sensors)
}

func (c *readingsControllerImpl) handleLatest(w http.ResponseWriter, r *http.Request) {
	id, err := parseSensorID(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := parseLatestQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	latest, err := c.repository.LatestReadings(r.Context(), id, limit)
	if err != nil {
		c.logger.Error("latest readings failed", "sensor_id", id, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to load readings")
		return
	}
	utils.WriteJSON(w, http.StatusOK, latest)
}
