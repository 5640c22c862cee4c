package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/units"
)

// TimeFormat is how date_time is stored. Fixed-width UTC keeps text ordering chronological.
const TimeFormat = "2006-01-02T15:04:05.000000000Z"

func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date_time %q: %w", s, err)
	}
	return t.UTC(), nil
}

type TemperatureRow struct {
	SensorID    int64
	Temperature units.Temperature
	DateTime    time.Time
}

func (r TemperatureRow) Insert(ctx context.Context, w *Writer) (int64, error) {
	return insertMeasurement(ctx, w, TemperatureTable, "temperature", r.SensorID, r.Temperature, r.DateTime)
}

type PressureRow struct {
	SensorID int64
	Pressure float64
	DateTime time.Time
}

func (r PressureRow) Insert(ctx context.Context, w *Writer) (int64, error) {
	return insertMeasurement(ctx, w, PressureTable, "pressure", r.SensorID, r.Pressure, r.DateTime)
}

type HumidityRow struct {
	SensorID int64
	Humidity float64
	DateTime time.Time
}

func (r HumidityRow) Insert(ctx context.Context, w *Writer) (int64, error) {
	return insertMeasurement(ctx, w, HumidityTable, "humidity", r.SensorID, r.Humidity, r.DateTime)
}

func insertMeasurement(ctx context.Context, w *Writer, t Table, col string, sensorID int64, value any, at time.Time) (int64, error) {
	res, err := w.Exec(ctx, t.InsertSQL("sensor_id", col, "date_time"), sensorID, value, FormatTime(at))
	if err != nil {
		return 0, fmt.Errorf("insert %s: %w", t.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert %s: last id: %w", t.Name, err)
	}
	return id, nil
}
