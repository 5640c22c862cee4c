// Package db owns the SQLite store: the single serialized write connection, the
// read-only pool, the table definitions and the seed data.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThatOneShortGuy/thermostat/internal/config"
)

var ErrWriterClosed = errors.New("db: writer closed")

// Writer is the only path that modifies the store. All statements run on one
// pinned connection and hold mu for exactly one statement, so concurrent callers
// queue instead of failing with SQLITE_BUSY.
type Writer struct {
	path        string
	busyTimeout time.Duration
	logger      *slog.Logger

	openOnce sync.Once
	openErr  error

	mu     sync.Mutex
	pool   *sql.DB
	conn   *sql.Conn
	closed bool
}

// NewWriter does not touch the file; the connection is opened on first use.
func NewWriter(cfg config.Server, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		path:        cfg.SQLitePath,
		busyTimeout: cfg.BusyTimeout,
		logger:      logger.With("component", "db-writer"),
	}
}

func (w *Writer) open(ctx context.Context) error {
	// The open happens once for the process; a caller that gave up must not poison it.
	ctx = context.WithoutCancel(ctx)
	w.openOnce.Do(func() {
		dsn, err := writerDSN(w.path, w.busyTimeout)
		if err != nil {
			w.openErr = err
			return
		}

		pool := sql.OpenDB(newTracingConnector(dsn, w.logger))
		pool.SetMaxOpenConns(1)
		pool.SetMaxIdleConns(1)
		pool.SetConnMaxLifetime(0)

		conn, err := pool.Conn(ctx)
		if err != nil {
			_ = pool.Close()
			w.openErr = fmt.Errorf("db open %s: %w", w.path, err)
			return
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			_ = pool.Close()
			w.openErr = fmt.Errorf("db ping %s: %w", w.path, err)
			return
		}

		w.pool = pool
		w.conn = conn
		w.logger.Info("writer connection opened", "path", w.path)
	})
	return w.openErr
}

// Open forces the lazy connection open so startup can fail fast.
func (w *Writer) Open(ctx context.Context) error {
	return w.Do(ctx, func(context.Context, *sql.Conn) error { return nil })
}

// Do runs fn with the write connection while holding the write lock. Keep fn to
// a single statement; the lock is process-wide.
func (w *Writer) Do(ctx context.Context, fn func(ctx context.Context, conn *sql.Conn) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	if err := w.open(ctx); err != nil {
		return err
	}
	// A statement that has started runs to completion.
	return fn(context.WithoutCancel(ctx), w.conn)
}

func (w *Writer) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := w.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		res, err = conn.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// QueryRow scans a single row on the write connection, for read-after-write checks.
func (w *Writer) QueryRow(ctx context.Context, query string, args []any, dest ...any) error {
	return w.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		return conn.QueryRowContext(ctx, query, args...).Scan(dest...)
	})
}

// Close waits for the in-flight statement, if any, then releases the connection.
// Later calls return ErrWriterClosed.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.conn == nil {
		return nil
	}
	connErr := w.conn.Close()
	poolErr := w.pool.Close()
	w.logger.Info("writer connection closed")
	return errors.Join(connErr, poolErr)
}
