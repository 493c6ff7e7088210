package httpapi

import (
	"database/sql"
	"net/http"

	"surfsup-server/internal/config"
	"surfsup-server/internal/metrics"
)

// NewMux returns a mux carrying the operational endpoints. Feature modules
// register their own routes on it.
func NewMux(db *sql.DB, cfg config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	if cfg.MetricsPath != "" {
		mux.Handle("GET "+cfg.MetricsPath, metrics.Handler())
	}
	return mux
}
