package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"surfsup-server/internal/config"
	"surfsup-server/internal/db"
	"surfsup-server/internal/httpapi"
	"surfsup-server/internal/metrics"
	"surfsup-server/internal/modules/climate"
	"surfsup-server/internal/schema"
)

const statsInterval = 15 * time.Second

// Run connects to the store, serves the API until ctx is cancelled and then
// shuts the listener down. A *schema.SchemaError means nothing was served.
func Run(ctx context.Context, cfg config.Config, version string) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"metricsPath", cfg.MetricsPath,
		"dbDriver", cfg.Driver,
		"sqlitePath", cfg.Path,
		"dbMaxOpenConns", cfg.MaxOpenConns,
		"dbMaxIdleConns", cfg.MaxIdleConns,
		"dbConnMaxLifetime", cfg.ConnMaxLifetime,
		"measurementTable", cfg.MeasurementTable,
		"stationTable", cfg.StationTable,
	)

	store, err := schema.Connect(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()
	slog.Info("available tables", "tables", store.TableNames())

	metrics.SetAppInfo(version, cfg.AppEnv)

	mux := httpapi.NewMux(store.DB, cfg)
	if err := climate.RegisterFeature(mux, store); err != nil {
		return err
	}

	statsCtx, stopStats := context.WithCancel(ctx)
	defer stopStats()
	go reportStats(statsCtx, store)

	srv := httpapi.NewServer(cfg, mux)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}

func reportStats(ctx context.Context, store *schema.Store) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	db.ReportStats(store.DB)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			db.ReportStats(store.DB)
		}
	}
}
