// Package metrics provides Prometheus metrics for the API.
package metrics

import (
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts total HTTP requests by method, route, and
	// status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velolog",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "velolog",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// HTTPRequestsInFlight tracks current in-flight requests.
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "velolog",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)

	// StravaSyncsTotal counts sync runs by outcome.
	StravaSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "velolog",
			Subsystem: "strava",
			Name:      "syncs_total",
			Help:      "Total number of Strava sync runs by outcome",
		},
		[]string{"outcome"},
	)

	// StravaRidesImported counts rides created by the Strava sync.
	StravaRidesImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "velolog",
			Subsystem: "strava",
			Name:      "rides_imported_total",
			Help:      "Total number of rides imported from Strava",
		},
	)
)

// DBStatsCollector exports database/sql pool statistics.
type DBStatsCollector struct {
	db *sqlx.DB

	open   *prometheus.Desc
	inUse  *prometheus.Desc
	idle   *prometheus.Desc
	waited *prometheus.Desc
}

// NewDBStatsCollector creates a collector over the given handle.
func NewDBStatsCollector(db *sqlx.DB) *DBStatsCollector {
	return &DBStatsCollector{
		db: db,
		open: prometheus.NewDesc(
			"velolog_db_connections_open",
			"Number of open database connections", nil, nil),
		inUse: prometheus.NewDesc(
			"velolog_db_connections_in_use",
			"Number of database connections currently in use", nil, nil),
		idle: prometheus.NewDesc(
			"velolog_db_connections_idle",
			"Number of idle database connections", nil, nil),
		waited: prometheus.NewDesc(
			"velolog_db_wait_count_total",
			"Total number of connection waits", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *DBStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.open
	ch <- c.inUse
	ch <- c.idle
	ch <- c.waited
}

// Collect implements prometheus.Collector.
func (c *DBStatsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.db.Stats()
	ch <- prometheus.MustNewConstMetric(c.open, prometheus.GaugeValue, float64(stats.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(stats.InUse))
	ch <- prometheus.MustNewConstMetric(c.idle, prometheus.GaugeValue, float64(stats.Idle))
	ch <- prometheus.MustNewConstMetric(c.waited, prometheus.CounterValue, float64(stats.WaitCount))
}

// Register registers the DB collector; double registration is ignored so
// tests can build multiple servers.
func Register(db *sqlx.DB) {
	_ = prometheus.Register(NewDBStatsCollector(db))
}

// Handler returns the /metrics endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
