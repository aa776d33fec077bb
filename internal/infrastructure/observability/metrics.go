// Package observability exposes the Prometheus metrics the service
// reports: HTTP traffic, cache effectiveness and system-of-record load.
package observability

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Singleton guard: avoids duplicate registration when multiple
	// containers are built in one process (tests).
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheErrors    prometheus.Counter
	ViewIncrements prometheus.Counter

	// Repository metrics
	DBOperations *prometheus.CounterVec
	DBDuration   *prometheus.HistogramVec

	// Price-history metrics
	SnapshotsRecorded prometheus.Counter
}

// NewCollector creates (or returns the existing) metrics collector.
func NewCollector(namespace string) *Collector {
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		CacheHits: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
		),
		CacheMisses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
		),
		CacheErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_errors_total",
				Help:      "Total number of cache store errors degraded to misses",
			},
		),
		ViewIncrements: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "product_views_total",
				Help:      "Total number of product view increments",
			},
		),
		DBOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "db_operations_total",
				Help:      "Total number of database operations",
			},
			[]string{"operation", "table"},
		),
		DBDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "db_operation_duration_seconds",
				Help:      "Database operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation", "table"},
		),
		SnapshotsRecorded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "price_snapshots_recorded_total",
				Help:      "Total number of price snapshots recorded",
			},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.CacheHits,
		c.CacheMisses,
		c.CacheErrors,
		c.ViewIncrements,
		c.DBOperations,
		c.DBDuration,
		c.SnapshotsRecorded,
	)

	globalCollector = c
	return c
}

// Handler returns the HTTP handler serving this collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
