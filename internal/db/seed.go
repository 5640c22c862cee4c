package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

type SensorSeed struct {
	ID     int64
	Name   string
	Active bool
}

// SeedSensors inserts each seed unless a row with the same id or name exists.
// A name already registered under another id is kept as is and logged.
func SeedSensors(ctx context.Context, w *Writer, logger *slog.Logger, seeds ...SensorSeed) error {
	if logger == nil {
		logger = slog.Default()
	}
	insert := "INSERT OR IGNORE INTO sensor (id, name, active) VALUES (?, ?, ?)"
	for _, s := range seeds {
		res, err := w.Exec(ctx, insert, s.ID, s.Name, s.Active)
		if err != nil {
			return fmt.Errorf("seed sensor %d %q: %w", s.ID, s.Name, err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			logger.Info("sensor seeded", "id", s.ID, "name", s.Name)
			continue
		}

		var id int64
		err = w.QueryRow(ctx, "SELECT id FROM sensor WHERE name = ?", []any{s.Name}, &id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// id taken by a sensor with another name
			logger.Warn("seed sensor id already in use by another name", "id", s.ID, "name", s.Name)
		case err != nil:
			return fmt.Errorf("check seed sensor %q: %w", s.Name, err)
		case id != s.ID:
			logger.Warn("seed sensor name registered under a different id", "name", s.Name, "want_id", s.ID, "have_id", id)
		default:
			logger.Debug("sensor already seeded", "id", s.ID, "name", s.Name)
		}
	}
	return nil
}
