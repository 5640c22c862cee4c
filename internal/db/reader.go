package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ThatOneShortGuy/thermostat/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// OpenReader opens a read-only pool on the same file. It never takes the writer
// lock; WAL lets it read while a write is in progress. The file must exist.
func OpenReader(ctx context.Context, cfg config.Server) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", readerDSN(cfg.SQLitePath, cfg.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("db open reader: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping reader: %w", err)
	}
	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}
