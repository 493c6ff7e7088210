package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"surfsup-server/internal/config"
	"surfsup-server/internal/metrics"
)

type AccessMode int

const (
	// ReadOnly is used by the API: the store is never written.
	ReadOnly AccessMode = iota
	// ReadWrite is used by operator tooling that prepares a store.
	ReadWrite
)

func Open(cfg config.Config, mode AccessMode, logger *slog.Logger) (*sql.DB, Dialect, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, Dialect{}, err
	}

	dsn, err := buildDSN(cfg, dialect, mode)
	if err != nil {
		return nil, Dialect{}, err
	}

	db := sql.OpenDB(NewInstrumentedConnector(dialect.driver, dsn, logger))

	// Each query borrows its own pooled connection; nothing is shared across requests.
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	// Validate connectivity early
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Dialect{}, fmt.Errorf("db ping: %w", err)
	}

	return db, dialect, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// ReportStats copies the pool statistics into the metrics gauges.
func ReportStats(db *sql.DB) {
	s := db.Stats()
	metrics.UpdateDBConnectionStats(s.OpenConnections, s.InUse, s.Idle)
}

func buildDSN(cfg config.Config, dialect Dialect, mode AccessMode) (string, error) {
	if dialect.Name != SQLite.Name {
		if cfg.DSN == "" {
			return "", fmt.Errorf("%s: empty DSN", dialect.Name)
		}
		return cfg.DSN, nil
	}
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	path := cfg.Path
	if path == "" {
		return "", fmt.Errorf("sqlite: empty path")
	}

	params := []string{"_busy_timeout=5000"}
	if mode == ReadOnly {
		params = append(params, "mode=ro")
	} else {
		params = append(params, "mode=rwc")
	}

	// If caller provided something like "file:/data/hawaii.sqlite?x=y" as Path, don't double-wrap
	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}

	if mode == ReadOnly {
		// The API never creates a store; a missing file must fail loudly.
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("sqlite store %s: %w", path, err)
		}
	} else {
		dir := filepath.Dir(path)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
