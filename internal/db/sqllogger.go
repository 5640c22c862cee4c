package db

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// tracingConnector opens sqlite3 connections whose statements are logged at debug level.
type tracingConnector struct {
	dsn    string
	logger *slog.Logger
}

type tracingConn struct {
	conn   driver.Conn
	logger *slog.Logger
}

type tracingStmt struct {
	stmt   driver.Stmt
	query  string
	logger *slog.Logger
}

func newTracingConnector(dsn string, logger *slog.Logger) driver.Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &tracingConnector{dsn: dsn, logger: logger}
}

func (c *tracingConnector) Driver() driver.Driver {
	return tracingDriver{}
}

func (c *tracingConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := (&sqlite3.SQLiteDriver{}).Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &tracingConn{conn: conn, logger: c.logger}, nil
}

type tracingDriver struct{}

func (tracingDriver) Open(string) (driver.Conn, error) {
	return nil, errors.New("sqlite3-trace: open through sql.OpenDB with a connector")
}

func (c *tracingConn) Prepare(query string) (driver.Stmt, error) {
	return c.PrepareContext(context.Background(), query)
}

func (c *tracingConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	var (
		stmt driver.Stmt
		err  error
	)
	if prep, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err = prep.PrepareContext(ctx, query)
	} else {
		stmt, err = c.conn.Prepare(query)
	}
	if err != nil {
		return nil, err
	}
	return &tracingStmt{stmt: stmt, query: query, logger: c.logger}, nil
}

func (c *tracingConn) Close() error {
	return c.conn.Close()
}

func (c *tracingConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *tracingConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if beginTx, ok := c.conn.(driver.ConnBeginTx); ok {
		return beginTx.BeginTx(ctx, opts)
	}
	//nolint:staticcheck // SA1019 fallback when the conn has no BeginTx
	return c.conn.Begin()
}

func (s *tracingStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.trace("exec", valuesToStrings(args))
	//nolint:staticcheck // SA1019 required by driver.Stmt
	return s.stmt.Exec(args)
}

func (s *tracingStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	s.trace("exec", namedToStrings(args))
	if execCtx, ok := s.stmt.(driver.StmtExecContext); ok {
		return execCtx.ExecContext(ctx, args)
	}
	//nolint:staticcheck // SA1019 fallback when the stmt has no ExecContext
	return s.stmt.Exec(namedToValues(args))
}

func (s *tracingStmt) Query(args []driver.Value) (driver.Rows, error) {
	s.trace("query", valuesToStrings(args))
	//nolint:staticcheck // SA1019 required by driver.Stmt
	return s.stmt.Query(args)
}

func (s *tracingStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	s.trace("query", namedToStrings(args))
	if queryCtx, ok := s.stmt.(driver.StmtQueryContext); ok {
		return queryCtx.QueryContext(ctx, args)
	}
	//nolint:staticcheck // SA1019 fallback when the stmt has no QueryContext
	return s.stmt.Query(namedToValues(args))
}

func (s *tracingStmt) Close() error {
	return s.stmt.Close()
}

func (s *tracingStmt) NumInput() int {
	return s.stmt.NumInput()
}

func (s *tracingStmt) trace(op string, args []string) {
	s.logger.Debug("sql", "op", op, "sql", s.query, "args", args)
}

func namedToStrings(args []driver.NamedValue) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a.Name != "" {
			out[i] = a.Name + "=" + formatArg(a.Value)
		} else {
			out[i] = formatArg(a.Value)
		}
	}
	return out
}

func valuesToStrings(args []driver.Value) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = formatArg(a)
	}
	return out
}

func namedToValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i := range args {
		out[i] = args[i].Value
	}
	return out
}

func formatArg(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
