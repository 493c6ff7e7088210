package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	// HTTPRequestsTotal counts served requests by matched route pattern.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfsup_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surfsup_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
)

// Database metrics
var (
	// DBQueriesTotal counts statements sent to the store.
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surfsup_db_queries_total",
			Help: "Total number of database statements executed",
		},
		[]string{"op", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surfsup_db_query_duration_seconds",
			Help:    "Duration of database statements in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"op"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "surfsup_db_connections_open",
			Help: "Number of established connections both in use and idle",
		},
	)

	DBConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "surfsup_db_connections_in_use",
			Help: "Number of connections currently in use",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "surfsup_db_connections_idle",
			Help: "Number of idle connections",
		},
	)

	// AppInfo is always 1; the labels carry build information.
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "surfsup_app_info",
			Help: "Application information (always 1)",
		},
		[]string{"version", "env"},
	)
)

func RecordHTTPRequest(route, method string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordDBQuery records a statement execution. op is "query" or "exec".
func RecordDBQuery(op string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	DBQueriesTotal.WithLabelValues(op, status).Inc()
	DBQueryDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(open, inUse, idle int) {
	DBConnectionsOpen.Set(float64(open))
	DBConnectionsInUse.Set(float64(inUse))
	DBConnectionsIdle.Set(float64(idle))
}

func SetAppInfo(version, env string) {
	AppInfo.WithLabelValues(version, env).Set(1)
}

// Handler exposes the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
