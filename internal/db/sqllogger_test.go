package db

import (
	"context"
	"database/sql"
	"log/slog"
	"sync"
	"testing"
)

// captureHandler records log records for assertion in tests.
type captureHandler struct {
	mu   sync.Mutex
	recs []map[string]slog.Value
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	m := map[string]slog.Value{"msg": slog.StringValue(r.Message)}
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value
		return true
	})
	h.recs = append(h.recs, m)
	return nil
}

func (h *captureHandler) WithAttrs([]slog.Attr) slog.Handler { return h }

func (h *captureHandler) WithGroup(string) slog.Handler { return h }

func (h *captureHandler) last(t *testing.T, msg string) map[string]slog.Value {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.recs) - 1; i >= 0; i-- {
		if h.recs[i]["msg"].String() == msg {
			return h.recs[i]
		}
	}
	t.Fatalf("no %q record logged", msg)
	return nil
}

func TestTracingConnector_LogsExecAndQuery(t *testing.T) {
	handler := &captureHandler{}
	db := sql.OpenDB(newTracingConnector(":memory:", slog.New(handler)))
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE t (id INTEGER PRIMARY KEY, name TEXT)`); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO t (id, name) VALUES (?, ?)`, 1, "attic"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got := handler.last(t, "sql")
	if got["op"].String() != "exec" {
		t.Errorf("op = %q; want exec", got["op"].String())
	}
	if got["sql"].String() != `INSERT INTO t (id, name) VALUES (?, ?)` {
		t.Errorf("sql = %q", got["sql"].String())
	}
	args, ok := got["args"].Any().([]string)
	if !ok || len(args) != 2 || args[0] != "1" || args[1] != "attic" {
		t.Errorf("args = %v; want [1 attic]", got["args"].Any())
	}

	var name string
	if err := db.QueryRow(`SELECT name FROM t WHERE id = ?`, 1).Scan(&name); err != nil {
		t.Fatalf("query: %v", err)
	}
	got = handler.last(t, "sql")
	if got["op"].String() != "query" {
		t.Errorf("op = %q; want query", got["op"].String())
	}
}

func TestTracingDriver_OpenUnsupported(t *testing.T) {
	if _, err := (tracingDriver{}).Open(":memory:"); err == nil {
		t.Fatal("Open error = nil; want error")
	}
}

func TestFormatArg(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{in: nil, want: "NULL"},
		{in: []byte("raw"), want: "raw"},
		{in: int64(7), want: "7"},
		{in: 295.65, want: "295.65"},
	}
	for _, tt := range tests {
		if got := formatArg(tt.in); got != tt.want {
			t.Errorf("formatArg(%v) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
