// Package influx mirrors stored readings into an InfluxDB bucket for dashboards.
// Writes are batched and asynchronous; failures are logged and never reach the
// ingestion path.
package influx

import (
	"context"
	"log/slog"
	"strconv"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/ThatOneShortGuy/thermostat/internal/config"
	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

const measurement = "house_climate"

type Mirror struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	logger   *slog.Logger
}

func NewMirror(cfg config.Influx, logger *slog.Logger) *Mirror {
	if logger == nil {
		logger = slog.Default()
	}
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(50).
			SetFlushInterval(5000))

	m := &Mirror{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		logger:   logger.With("component", "influx", "bucket", cfg.Bucket),
	}
	go m.logErrors()
	return m
}

// Ping reports whether the server answers; used only for a startup log line.
func (m *Mirror) Ping(ctx context.Context) bool {
	ok, err := m.client.Ping(ctx)
	if err != nil {
		m.logger.Warn("influx ping failed", "error", err)
		return false
	}
	return ok
}

func (m *Mirror) Observe(_ context.Context, r telemetry.Reading) {
	p := influxdb2.NewPoint(measurement,
		map[string]string{"sensor_id": strconv.FormatInt(r.SensorID, 10)},
		map[string]any{
			"temperature_k": r.Temperature.Kelvin(),
			"temperature_f": r.Temperature.In(units.Fahrenheit),
			"pressure_pa":   r.Pressure,
			"humidity_pct":  r.Humidity,
		},
		r.CapturedAt)
	m.writeAPI.WritePoint(p)
}

func (m *Mirror) logErrors() {
	for err := range m.writeAPI.Errors() {
		m.logger.Warn("influx write failed", "error", err)
	}
}

// Close flushes pending points and releases the client.
func (m *Mirror) Close() {
	m.writeAPI.Flush()
	m.client.Close()
}
