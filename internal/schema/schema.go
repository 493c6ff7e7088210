package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"surfsup-server/internal/config"
	"surfsup-server/internal/db"
)

type Reason string

const (
	ReasonUnreachable   Reason = "store unreachable"
	ReasonMissingTable  Reason = "table not found"
	ReasonMissingColumn Reason = "column not found"
)

// SchemaError reports that the store cannot back the API: it could not be
// reached, or an expected table or column is absent.
type SchemaError struct {
	Reason Reason
	Table  string
	Column string
	Err    error
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString("schema: ")
	b.WriteString(string(e.Reason))
	if e.Table != "" {
		b.WriteString(": ")
		b.WriteString(e.Table)
		if e.Column != "" {
			b.WriteString(".")
			b.WriteString(e.Column)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return e.Err }

// Table is a reflected table with its column names in declaration order.
type Table struct {
	Name    string
	Columns []string
}

// Column resolves a column by case-insensitive name and returns its stored spelling.
func (t Table) Column(name string) (string, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}

// Schema is the set of tables discovered in a store.
type Schema struct {
	tables []Table
}

func (s *Schema) TableNames() []string {
	names := make([]string, 0, len(s.tables))
	for _, t := range s.tables {
		names = append(names, t.Name)
	}
	sort.Strings(names)
	return names
}

// Table resolves a table by case-insensitive name.
func (s *Schema) Table(name string) (Table, bool) {
	for _, t := range s.tables {
		if strings.EqualFold(t.Name, name) {
			return t, true
		}
	}
	return Table{}, false
}

func (s *Schema) Tables() []Table {
	out := make([]Table, len(s.tables))
	copy(out, s.tables)
	return out
}

// Reflect lists every table in the store together with its columns.
func Reflect(ctx context.Context, conn *sql.DB, dialect db.Dialect) (*Schema, error) {
	names, err := queryStrings(ctx, conn, dialect.ListTablesSQL())
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}

	s := &Schema{tables: make([]Table, 0, len(names))}
	for _, name := range names {
		cols, err := queryStrings(ctx, conn, dialect.ListColumnsSQL(), name)
		if err != nil {
			return nil, fmt.Errorf("list columns of %s: %w", name, err)
		}
		s.tables = append(s.tables, Table{Name: name, Columns: cols})
	}
	return s, nil
}

func queryStrings(ctx context.Context, conn *sql.DB, query string, args ...any) ([]string, error) {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close catalog rows", "error", err)
		}
	}()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Names selects which reflected tables play the measurement and station roles.
type Names struct {
	Measurement string
	Station     string
}

func NamesFromConfig(cfg config.Config) Names {
	return Names{Measurement: cfg.MeasurementTable, Station: cfg.StationTable}
}

// Store bundles the live connection pool with the bound table handles.
type Store struct {
	DB          *sql.DB
	Dialect     db.Dialect
	Measurement MeasurementTable
	Station     StationTable

	schema *Schema
}

// TableNames lists every table discovered at connect time.
func (s *Store) TableNames() []string {
	return s.schema.TableNames()
}

func (s *Store) Schema() *Schema {
	return s.schema
}

func (s *Store) Close() error {
	return db.Close(s.DB)
}

// Connect opens the configured store read-only, reflects it and binds the
// measurement and station tables. Every failure is a *SchemaError.
func Connect(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Store, error) {
	conn, dialect, err := db.Open(cfg, db.ReadOnly, logger)
	if err != nil {
		return nil, &SchemaError{Reason: ReasonUnreachable, Err: err}
	}
	store, err := Attach(ctx, conn, dialect, NamesFromConfig(cfg))
	if err != nil {
		_ = db.Close(conn)
		return nil, err
	}
	return store, nil
}

// Attach reflects an already opened pool and binds the table handles.
func Attach(ctx context.Context, conn *sql.DB, dialect db.Dialect, names Names) (*Store, error) {
	s, err := Reflect(ctx, conn, dialect)
	if err != nil {
		return nil, &SchemaError{Reason: ReasonUnreachable, Err: err}
	}
	measurement, err := bindMeasurement(s, names.Measurement)
	if err != nil {
		return nil, err
	}
	station, err := bindStation(s, names.Station)
	if err != nil {
		return nil, err
	}
	return &Store{
		DB:          conn,
		Dialect:     dialect,
		Measurement: measurement,
		Station:     station,
		schema:      s,
	}, nil
}
