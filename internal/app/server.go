package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/config"
	"github.com/ThatOneShortGuy/thermostat/internal/db"
	"github.com/ThatOneShortGuy/thermostat/internal/httpapi"
	"github.com/ThatOneShortGuy/thermostat/internal/influx"
	"github.com/ThatOneShortGuy/thermostat/internal/live"
	"github.com/ThatOneShortGuy/thermostat/internal/modules/readings"
	"github.com/ThatOneShortGuy/thermostat/internal/modules/readings/service"
	"github.com/ThatOneShortGuy/thermostat/internal/mqtt"
)

// RunServer serves ingestion until ctx is cancelled. A store that cannot be opened,
// migrated or seeded is fatal before the listener starts.
func RunServer(ctx context.Context, cfg config.Server, logger *slog.Logger) error {
	ln, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
	}
	return serve(ctx, cfg, ln, logger)
}

func serve(ctx context.Context, cfg config.Server, ln net.Listener, logger *slog.Logger) error {
	logger.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", ln.Addr().String(),
		"sqlitePath", cfg.SQLitePath,
		"busyTimeout", cfg.BusyTimeout,
		"mqttEnabled", cfg.MQTTEnabled,
		"influxEnabled", cfg.Influx.Enabled,
	)

	writer := db.NewWriter(cfg, logger)
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("db writer close", "error", err)
		}
	}()
	if err := Migrate(ctx, writer, cfg, logger); err != nil {
		_ = ln.Close()
		return err
	}

	reader, err := db.OpenReader(ctx, cfg)
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if err := db.Close(reader); err != nil {
			logger.Error("db reader close", "error", err)
		}
	}()
	logger.Info("database ready")

	var observers []service.Observer
	if cfg.Influx.Enabled {
		mirror := influx.NewMirror(cfg.Influx, logger)
		defer mirror.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if mirror.Ping(pingCtx) {
			logger.Info("influx mirror enabled", "url", cfg.Influx.URL)
		}
		cancel()
		observers = append(observers, mirror)
	}

	hub := live.NewHub(logger)
	defer hub.Close()
	observers = append(observers, hub)

	mux := httpapi.NewMux(reader, hub)

	// Set the MQTT handler before Connect so the first (re)subscribe already has it.
	var subscriber *mqtt.Subscriber
	if cfg.MQTTEnabled {
		subscriber = mqtt.NewSubscriber(cfg.MQTT, logger)
		readings.RegisterFeature(mux, writer, reader, subscriber, logger, observers...)
	} else {
		readings.RegisterFeature(mux, writer, reader, nil, logger, observers...)
	}

	if subscriber != nil {
		connectCtx, connectCancel := context.WithTimeout(ctx, 5*time.Second)
		err := subscriber.Connect(connectCtx)
		connectCancel()
		if err != nil {
			// paho keeps retrying in the background
			logger.Warn("mqtt connection failed (continuing without mqtt)", "error", err)
		}
		defer subscriber.Disconnect()
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, mux, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

// Migrate creates the schema and seeds the configured sensor.
func Migrate(ctx context.Context, writer *db.Writer, cfg config.Server, logger *slog.Logger) error {
	if err := writer.Open(ctx); err != nil {
		return err
	}
	if err := db.EnsureSchema(ctx, writer); err != nil {
		return err
	}
	return db.SeedSensors(ctx, writer, logger, db.SensorSeed{
		ID:     cfg.SeedSensorID,
		Name:   cfg.SeedSensorName,
		Active: true,
	})
}
