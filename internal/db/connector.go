package db

import (
	"context"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"time"

	"surfsup-server/internal/metrics"
)

// instrumentedConnector implements driver.Connector by opening the wrapped
// driver and instrumenting every statement on the resulting connections.
type instrumentedConnector struct {
	driver driver.Driver
	dsn    string
	logger *slog.Logger
}

// instrumentedConn wraps driver.Conn so prepared statements are instrumented.
type instrumentedConn struct {
	conn   driver.Conn
	logger *slog.Logger
}

// instrumentedStmt wraps driver.Stmt to log Exec/Query with their args and
// record their duration.
type instrumentedStmt struct {
	stmt   driver.Stmt
	query  string
	logger *slog.Logger
}

// NewInstrumentedConnector returns a driver.Connector that logs every SQL
// statement at debug level and records it in the query metrics.
// Use sql.OpenDB(connector) to get a *sql.DB. If logger is nil, slog.Default() is used.
func NewInstrumentedConnector(drv driver.Driver, dsn string, logger *slog.Logger) driver.Connector {
	if logger == nil {
		logger = slog.Default()
	}
	return &instrumentedConnector{driver: drv, dsn: dsn, logger: logger}
}

// Driver implements driver.Connector.
func (c *instrumentedConnector) Driver() driver.Driver {
	return c.driver
}

// Connect implements driver.Connector.
func (c *instrumentedConnector) Connect(ctx context.Context) (driver.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn, err := c.driver.Open(c.dsn)
	if err != nil {
		return nil, err
	}
	return &instrumentedConn{conn: conn, logger: c.logger}, nil
}

// Prepare implements driver.Conn.
func (c *instrumentedConn) Prepare(query string) (driver.Stmt, error) {
	stmt, err := c.conn.Prepare(query)
	if err != nil {
		return nil, err
	}
	return &instrumentedStmt{stmt: stmt, query: query, logger: c.logger}, nil
}

// PrepareContext implements driver.ConnPrepareContext.
func (c *instrumentedConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if prep, ok := c.conn.(driver.ConnPrepareContext); ok {
		stmt, err := prep.PrepareContext(ctx, query)
		if err != nil {
			return nil, err
		}
		return &instrumentedStmt{stmt: stmt, query: query, logger: c.logger}, nil
	}
	return c.Prepare(query)
}

// Close implements driver.Conn.
func (c *instrumentedConn) Close() error {
	return c.conn.Close()
}

// Begin implements driver.Conn.
func (c *instrumentedConn) Begin() (driver.Tx, error) {
	//nolint:staticcheck // SA1019 – required when underlying conn does not implement ConnBeginTx
	return c.conn.Begin()
}

// BeginTx implements driver.ConnBeginTx.
func (c *instrumentedConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if beginTx, ok := c.conn.(driver.ConnBeginTx); ok {
		return beginTx.BeginTx(ctx, opts)
	}
	//nolint:staticcheck // SA1019 – fallback when underlying conn does not implement ConnBeginTx
	return c.conn.Begin()
}

// Ping implements driver.Pinger.
func (c *instrumentedConn) Ping(ctx context.Context) error {
	if p, ok := c.conn.(driver.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// ResetSession implements driver.SessionResetter.
func (c *instrumentedConn) ResetSession(ctx context.Context) error {
	if r, ok := c.conn.(driver.SessionResetter); ok {
		return r.ResetSession(ctx)
	}
	return nil
}

// IsValid implements driver.Validator.
func (c *instrumentedConn) IsValid() bool {
	if v, ok := c.conn.(driver.Validator); ok {
		return v.IsValid()
	}
	return true
}

// ExecContext implements driver.ExecerContext so multi-statement scripts reach
// drivers that support them; driver.ErrSkip falls back to Prepare.
func (c *instrumentedConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	execer, ok := c.conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	start := time.Now()
	res, err := execer.ExecContext(ctx, query, args)
	if err == driver.ErrSkip {
		return nil, err
	}
	observe(c.logger, "exec", query, namedValuesToSlice(args), start, err)
	return res, err
}

// QueryContext implements driver.QueryerContext.
func (c *instrumentedConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	queryer, ok := c.conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	start := time.Now()
	rows, err := queryer.QueryContext(ctx, query, args)
	if err == driver.ErrSkip {
		return nil, err
	}
	observe(c.logger, "query", query, namedValuesToSlice(args), start, err)
	return rows, err
}

// Exec implements driver.Stmt.
func (s *instrumentedStmt) Exec(args []driver.Value) (driver.Result, error) {
	start := time.Now()
	//nolint:staticcheck // SA1019 – required when underlying stmt does not implement StmtExecContext
	res, err := s.stmt.Exec(args)
	s.observe("exec", args, start, err)
	return res, err
}

// ExecContext implements driver.StmtExecContext.
func (s *instrumentedStmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	start := time.Now()
	var (
		res driver.Result
		err error
	)
	if execCtx, ok := s.stmt.(driver.StmtExecContext); ok {
		res, err = execCtx.ExecContext(ctx, args)
	} else {
		//nolint:staticcheck // SA1019 – fallback when underlying stmt does not implement StmtExecContext
		res, err = s.stmt.Exec(namedValuesToValues(args))
	}
	s.observe("exec", namedValuesToSlice(args), start, err)
	return res, err
}

// Query implements driver.Stmt.
func (s *instrumentedStmt) Query(args []driver.Value) (driver.Rows, error) {
	start := time.Now()
	//nolint:staticcheck // SA1019 – required when underlying stmt does not implement StmtQueryContext
	rows, err := s.stmt.Query(args)
	s.observe("query", args, start, err)
	return rows, err
}

// QueryContext implements driver.StmtQueryContext.
func (s *instrumentedStmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	start := time.Now()
	var (
		rows driver.Rows
		err  error
	)
	if queryCtx, ok := s.stmt.(driver.StmtQueryContext); ok {
		rows, err = queryCtx.QueryContext(ctx, args)
	} else {
		//nolint:staticcheck // SA1019 – fallback when underlying stmt does not implement StmtQueryContext
		rows, err = s.stmt.Query(namedValuesToValues(args))
	}
	s.observe("query", namedValuesToSlice(args), start, err)
	return rows, err
}

// Close implements driver.Stmt.
func (s *instrumentedStmt) Close() error {
	return s.stmt.Close()
}

// NumInput implements driver.Stmt; -1 means unknown.
func (s *instrumentedStmt) NumInput() int {
	return s.stmt.NumInput()
}

func (s *instrumentedStmt) observe(op string, args interface{}, start time.Time, err error) {
	observe(s.logger, op, s.query, args, start, err)
}

func observe(logger *slog.Logger, op string, query string, args interface{}, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.RecordDBQuery(op, elapsed, err)

	attrs := []any{
		"op", op,
		"sql", query,
		"args", args,
		"duration_ms", elapsed.Milliseconds(),
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	logger.Debug("sql", attrs...)
}

func namedValuesToSlice(args []driver.NamedValue) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		if a.Name != "" {
			out[i] = a.Name + "=" + formatArg(a.Value)
		} else {
			out[i] = formatArg(a.Value)
		}
	}
	return out
}

func namedValuesToValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i := range args {
		out[i] = args[i].Value
	}
	return out
}

func formatArg(v interface{}) string {
	if v == nil {
		return "NULL"
	}
	switch t := v.(type) {
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
