// Package metrics defines the Prometheus instrumentation for the
// simulation loop and the article provider. The server exposes these at
// /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikiforce_simulation_ticks_total",
		Help: "Total number of simulation ticks executed.",
	})

	SimulationsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikiforce_simulations_started_total",
		Help: "Total number of simulations initialized from a new graph.",
	})

	SettleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikiforce_settle_duration_seconds",
		Help:    "Wall-clock time from graph load to the stabilized signal.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	SettleTicks = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikiforce_settle_ticks",
		Help:    "Number of ticks from graph load to the stabilized signal.",
		Buckets: []float64{50, 100, 200, 300, 400, 600, 1000},
	})

	FetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wikiforce_provider_fetches_total",
		Help: "Article provider API requests, labelled by outcome.",
	}, []string{"status"})

	FetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wikiforce_provider_fetch_duration_seconds",
		Help:    "Latency of article provider API requests.",
		Buckets: prometheus.DefBuckets,
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikiforce_cache_hits_total",
		Help: "Article fetches served from the sqlite cache.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikiforce_cache_misses_total",
		Help: "Article fetches that missed the sqlite cache.",
	})

	CacheWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wikiforce_cache_write_failures_total",
		Help: "Failed best-effort cache writes after a successful fetch.",
	})
)
