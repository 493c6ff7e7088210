// Package fixtures prepares a climate store with the measurement/station
// layout of the Hawaii dataset plus a small sample of readings.
// Fixture files are named with a 4-digit prefix for order: 0001_schema.sql, 0002_sample.sql.
package fixtures

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
)

//go:embed sql/*.sql
var sqlFS embed.FS

const (
	fixturesDir = "sql"
	tableName   = "fixture_versions"

	// Schema is the version that creates empty measurement and station tables.
	Schema = "0001"
	// Sample is the version that loads the sample stations and readings.
	Sample = "0002"
)

var fixtureFileRe = regexp.MustCompile(`^(\d{4})_(.+)\.sql$`)

type fixture struct {
	version string
	name    string
	body    string
}

// Apply applies every embedded fixture that has not been applied yet.
func Apply(db *sql.DB) error {
	return ApplyUpTo(db, "9999")
}

// ApplyUpTo applies pending fixtures whose version is <= last, in order,
// recording each one in the fixture_versions table.
func ApplyUpTo(db *sql.DB, last string) error {
	if err := ensureVersionsTable(db); err != nil {
		return fmt.Errorf("ensure fixture versions table: %w", err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return fmt.Errorf("list applied fixtures: %w", err)
	}

	pending, err := pendingFixtures(applied, last)
	if err != nil {
		return err
	}

	for _, f := range pending {
		if err := apply(db, f); err != nil {
			return fmt.Errorf("apply %s: %w", f.version+"_"+f.name+".sql", err)
		}
		slog.Info("fixture applied", "version", f.version, "name", f.name)
	}
	return nil
}

func pendingFixtures(applied map[string]bool, last string) ([]fixture, error) {
	entries, err := fs.ReadDir(sqlFS, fixturesDir)
	if err != nil {
		return nil, fmt.Errorf("read fixtures dir: %w", err)
	}

	var pending []fixture
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		version, name, ok := parseFixtureFilename(e.Name())
		if !ok || applied[version] || version > last {
			continue
		}
		body, err := fs.ReadFile(sqlFS, fixturesDir+"/"+e.Name())
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", e.Name(), err)
		}
		pending = append(pending, fixture{version: version, name: name, body: string(body)})
	}

	sort.Slice(pending, func(i, j int) bool { return pending[i].version < pending[j].version })
	return pending, nil
}

func ensureVersionsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			version    TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)
	`)
	return err
}

func appliedVersions(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT version FROM " + tableName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close fixture versions rows", "error", err)
		}
	}()
	out := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, rows.Err()
}

func parseFixtureFilename(filename string) (version, name string, ok bool) {
	m := fixtureFileRe.FindStringSubmatch(filename)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func apply(db *sql.DB, f fixture) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(f.body); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO "+tableName+" (version, name) VALUES (?, ?)",
		f.version, f.name,
	); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
