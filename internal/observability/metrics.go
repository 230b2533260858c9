// Package observability provides application metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FeedCacheHits counts candidate-cache hits by ranking mode.
	FeedCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_feed_cache_hits_total",
		Help: "Total number of feed candidate cache hits by mode",
	}, []string{"mode"})

	// FeedCacheMisses counts candidate-cache misses by ranking mode.
	FeedCacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ripple_feed_cache_misses_total",
		Help: "Total number of feed candidate cache misses by mode",
	}, []string{"mode"})

	// FeedRankDuration records how long a full candidate selection + scoring
	// pass takes on a cache miss.
	FeedRankDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ripple_feed_rank_duration_seconds",
		Help:    "Candidate selection and scoring duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	// FeedHydrationFallbacks counts pages served with the all-false
	// interaction overlay because hydration lookups failed.
	FeedHydrationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ripple_feed_hydration_fallbacks_total",
		Help: "Total number of timeline pages served with a degraded interaction overlay",
	})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ripple_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

// TrackQuery returns a function that records query latency when called (e.g. defer).
func TrackQuery(operation, table string) func() {
	start := time.Now()
	return func() {
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// ObserveRank records the duration of one ranking pass for the given mode.
func ObserveRank(mode string, start time.Time) {
	FeedRankDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
