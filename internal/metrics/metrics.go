// Package metrics holds the Prometheus instruments for route building.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcomes
const (
	OutcomeFound  = "found"
	OutcomeNoPath = "no_path"
	OutcomeCapped = "capped"
	OutcomeError  = "error"
)

var (
	PathSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rotationmap_path_searches_total",
			Help: "Total number of path searches by backend and outcome",
		},
		[]string{"backend", "outcome"},
	)

	PathExpansions = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rotationmap_path_expansions",
			Help:    "Grid cells expanded per A* search",
			Buckets: prometheus.ExponentialBuckets(16, 4, 8), // 16 .. 262144
		},
	)

	UnresolvedPorts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rotationmap_unresolved_ports_total",
			Help: "Total number of rotation port names that could not be resolved",
		},
	)

	RouteBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rotationmap_route_build_seconds",
			Help:    "Duration of full rotation geometry builds in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PathCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rotationmap_path_cache_hits_total",
			Help: "Total number of path cache hits",
		},
	)

	PathCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rotationmap_path_cache_misses_total",
			Help: "Total number of path cache misses",
		},
	)
)

// RecordSearch records one path search
func RecordSearch(backend, outcome string, expanded int) {
	PathSearches.WithLabelValues(backend, outcome).Inc()
	if backend == "grid" {
		PathExpansions.Observe(float64(expanded))
	}
}

// RecordRouteBuild records a rotation build and its unresolved port count
func RecordRouteBuild(duration time.Duration, unresolved int) {
	RouteBuildDuration.Observe(duration.Seconds())
	if unresolved > 0 {
		UnresolvedPorts.Add(float64(unresolved))
	}
}
