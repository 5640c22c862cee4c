package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/ThatOneShortGuy/thermostat/internal/db"
	"github.com/ThatOneShortGuy/thermostat/internal/modules/readings/types"
	"github.com/ThatOneShortGuy/thermostat/internal/telemetry"
	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

//go:embed sql/list-sensors.sql
var listSensorsSQL string

//go:embed sql/latest-readings.sql
var latestReadingsSQL string

type ReadingsRepository interface {
	// StoreReading writes humidity, pressure and temperature rows in that order.
	// The first failing insert stops the rest; earlier rows stay committed.
	StoreReading(ctx context.Context, r telemetry.Reading) error
	ListSensors(ctx context.Context) ([]types.Sensor, error)
	LatestReadings(ctx context.Context, sensorID int64, limit int) ([]types.StoredReading, error)
}

type repositoryImpl struct {
	writer *db.Writer
	reader *sql.DB
}

func NewRepository(writer *db.Writer, reader *sql.DB) ReadingsRepository {
	return &repositoryImpl{writer: writer, reader: reader}
}

func (r *repositoryImpl) StoreReading(ctx context.Context, reading telemetry.Reading) error {
	if _, err := (db.HumidityRow{
		SensorID: reading.SensorID,
		Humidity: reading.Humidity,
		DateTime: reading.CapturedAt,
	}).Insert(ctx, r.writer); err != nil {
		return err
	}
	if _, err := (db.PressureRow{
		SensorID: reading.SensorID,
		Pressure: reading.Pressure,
		DateTime: reading.CapturedAt,
	}).Insert(ctx, r.writer); err != nil {
		return err
	}
	if _, err := (db.TemperatureRow{
		SensorID:    reading.SensorID,
		Temperature: reading.Temperature,
		DateTime:    reading.CapturedAt,
	}).Insert(ctx, r.writer); err != nil {
		return err
	}
	return nil
}

func (r *repositoryImpl) ListSensors(ctx context.Context) ([]types.Sensor, error) {
	rows, err := r.reader.QueryContext(ctx, listSensorsSQL)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close sensor rows", "error", err)
		}
	}()
	out := []types.Sensor{}
	for rows.Next() {
		var s types.Sensor
		if err := rows.Scan(&s.ID, &s.Name, &s.Active, &s.CreatedDate); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) LatestReadings(ctx context.Context, sensorID int64, limit int) ([]types.StoredReading, error) {
	rows, err := r.reader.QueryContext(ctx, latestReadingsSQL, sensorID, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close latest readings rows", "error", err)
		}
	}()
	out := []types.StoredReading{}
	for rows.Next() {
		var (
			rec types.StoredReading
			ts  string
		)
		if err := rows.Scan(&rec.SensorID, &ts, &rec.Temperature, &rec.Pressure, &rec.Humidity); err != nil {
			return nil, err
		}
		rec.DateTime, err = db.ParseTime(ts)
		if err != nil {
			return nil, fmt.Errorf("sensor %d: %w", sensorID, err)
		}
		rec.Fahrenheit = rec.Temperature.In(units.Fahrenheit)
		out = append(out, rec)
	}
	return out, rows.Err()
}
