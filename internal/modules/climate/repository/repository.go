package repository

import (
	"bytes"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"surfsup-server/internal/db"
	"surfsup-server/internal/modules/climate/types"
	"surfsup-server/internal/schema"
)

// The statements are templates over the reflected table and column names;
// they are rendered once per store when the repository is built.
//
//go:embed sql/*.sql
var sqlFS embed.FS

type ClimateRepository interface {
	// MostRecentDate returns the greatest measurement date; ok is false when
	// the measurement table is empty.
	MostRecentDate(ctx context.Context) (date string, ok bool, err error)
	PrecipitationSince(ctx context.Context, since string) ([]types.PrecipitationReading, error)
	StationIDs(ctx context.Context) ([]string, error)
	StationCount(ctx context.Context) (int, error)
	// MostActiveStation returns the station with the most measurement rows.
	// Ties are broken by whatever order the store returns.
	MostActiveStation(ctx context.Context) (activity types.StationActivity, ok bool, err error)
	TemperatureObservations(ctx context.Context, stationID string, since string) ([]float64, error)
	// TemperatureStats aggregates tobs for date >= start and, when end is
	// non-nil, date <= end. Dates are compared as stored, without validation.
	TemperatureStats(ctx context.Context, start string, end *string) (types.TemperatureStats, error)
}

type statements struct {
	mostRecentDate          string
	precipitationSince      string
	stationIDs              string
	stationCount            string
	mostActiveStation       string
	temperatureObservations string
	temperatureStatsFrom    string
	temperatureStatsRange   string
}

type repositoryImpl struct {
	db    *sql.DB
	stmts statements
}

// NewRepository renders the embedded statements for the store's dialect and
// bound tables.
func NewRepository(store *schema.Store) (ClimateRepository, error) {
	stmts, err := renderStatements(store.Dialect, store.Measurement, store.Station)
	if err != nil {
		return nil, err
	}
	return &repositoryImpl{db: store.DB, stmts: stmts}, nil
}

type measurementIdents struct {
	Table   string
	Station string
	Date    string
	Prcp    string
	Tobs    string
}

type stationIdents struct {
	Table   string
	Station string
}

type queryData struct {
	M       measurementIdents
	S       stationIdents
	Bounded bool
}

func renderStatements(d db.Dialect, m schema.MeasurementTable, s schema.StationTable) (statements, error) {
	tmpl, err := template.New("").
		Funcs(template.FuncMap{"arg": d.Placeholder}).
		ParseFS(sqlFS, "sql/*.sql")
	if err != nil {
		return statements{}, fmt.Errorf("parse sql templates: %w", err)
	}

	data := queryData{
		M: measurementIdents{
			Table:   d.QuoteIdent(m.Name),
			Station: d.QuoteIdent(m.Station),
			Date:    d.QuoteIdent(m.Date),
			Prcp:    d.QuoteIdent(m.Prcp),
			Tobs:    d.QuoteIdent(m.Tobs),
		},
		S: stationIdents{
			Table:   d.QuoteIdent(s.Name),
			Station: d.QuoteIdent(s.Station),
		},
	}
	bounded := data
	bounded.Bounded = true

	var out statements
	var errs []error
	render := func(name string, data queryData) string {
		var buf bytes.Buffer
		if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
			errs = append(errs, fmt.Errorf("render %s: %w", name, err))
		}
		return strings.TrimSpace(buf.String())
	}
	out.mostRecentDate = render("most-recent-date.sql", data)
	out.precipitationSince = render("precipitation-since.sql", data)
	out.stationIDs = render("station-ids.sql", data)
	out.stationCount = render("station-count.sql", data)
	out.mostActiveStation = render("most-active-station.sql", data)
	out.temperatureObservations = render("temperature-observations.sql", data)
	out.temperatureStatsFrom = render("temperature-stats.sql", data)
	out.temperatureStatsRange = render("temperature-stats.sql", bounded)
	if err := errors.Join(errs...); err != nil {
		return statements{}, err
	}
	return out, nil
}

func (r *repositoryImpl) MostRecentDate(ctx context.Context) (string, bool, error) {
	var date sql.NullString
	if err := r.db.QueryRowContext(ctx, r.stmts.mostRecentDate).Scan(&date); err != nil {
		return "", false, err
	}
	return date.String, date.Valid, nil
}

func (r *repositoryImpl) PrecipitationSince(ctx context.Context, since string) ([]types.PrecipitationReading, error) {
	rows, err := r.db.QueryContext(ctx, r.stmts.precipitationSince, since)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close precipitation rows", "error", err)
		}
	}()
	out := make([]types.PrecipitationReading, 0)
	for rows.Next() {
		var (
			rec  types.PrecipitationReading
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &prcp); err != nil {
			return nil, err
		}
		if prcp.Valid {
			v := prcp.Float64
			rec.Prcp = &v
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) StationIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, r.stmts.stationIDs)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close stations rows", "error", err)
		}
	}()
	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) StationCount(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, r.stmts.stationCount).Scan(&n)
	return n, err
}

func (r *repositoryImpl) MostActiveStation(ctx context.Context) (types.StationActivity, bool, error) {
	var a types.StationActivity
	err := r.db.QueryRowContext(ctx, r.stmts.mostActiveStation).Scan(&a.StationID, &a.Observations)
	if errors.Is(err, sql.ErrNoRows) {
		return types.StationActivity{}, false, nil
	}
	if err != nil {
		return types.StationActivity{}, false, err
	}
	return a, true, nil
}

func (r *repositoryImpl) TemperatureObservations(ctx context.Context, stationID string, since string) ([]float64, error) {
	rows, err := r.db.QueryContext(ctx, r.stmts.temperatureObservations, stationID, since)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close temperature rows", "error", err)
		}
	}()
	out := make([]float64, 0)
	for rows.Next() {
		var tobs float64
		if err := rows.Scan(&tobs); err != nil {
			return nil, err
		}
		out = append(out, tobs)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) TemperatureStats(ctx context.Context, start string, end *string) (types.TemperatureStats, error) {
	var row *sql.Row
	if end == nil {
		row = r.db.QueryRowContext(ctx, r.stmts.temperatureStatsFrom, start)
	} else {
		row = r.db.QueryRowContext(ctx, r.stmts.temperatureStatsRange, start, *end)
	}

	var minT, avgT, maxT sql.NullFloat64
	if err := row.Scan(&minT, &avgT, &maxT); err != nil {
		return types.TemperatureStats{}, err
	}
	return types.TemperatureStats{
		Min: nullableFloat(minT),
		Avg: nullableFloat(avgT),
		Max: nullableFloat(maxT),
	}, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
