package db

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) config.Server {
	t.Helper()
	return config.Server{
		SQLitePath:  filepath.Join(t.TempDir(), "db.sqlite"),
		BusyTimeout: 5 * time.Second,
	}
}

// newTestWriter returns a writer on a fresh file with the schema in place.
func newTestWriter(t *testing.T) (*Writer, config.Server) {
	t.Helper()
	cfg := testConfig(t)
	w := NewWriter(cfg, quietLogger())
	t.Cleanup(func() { _ = w.Close() })

	if err := EnsureSchema(context.Background(), w); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	return w, cfg
}

func countRows(t *testing.T, w *Writer, table string) int {
	t.Helper()
	var n int
	if err := w.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+table, nil, &n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
