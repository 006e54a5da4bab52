package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkvault_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "linkvault_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// BookmarksCreated counts successfully created bookmarks.
	BookmarksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linkvault_bookmarks_created_total",
		Help: "Total number of bookmarks created",
	})

	// MetadataFetches counts metadata fetch outcomes (ok, fallback, cached, skipped).
	MetadataFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkvault_metadata_fetch_total",
		Help: "Metadata fetch attempts by outcome",
	}, []string{"outcome"})

	// MetadataFetchLatency records remote metadata fetch latency.
	MetadataFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linkvault_metadata_fetch_latency_seconds",
		Help:    "Remote metadata fetch latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// AuthEvents counts authentication events by type and result.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linkvault_auth_events_total",
		Help: "Authentication events by type and result",
	}, []string{"event", "result"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}
