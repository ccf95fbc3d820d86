package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// searchTotal counts route searches by objective and result.
	// Result labels: "success", "no_path", "limit", "canceled", "invalid", "other"
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackmaster_route_searches_total",
		Help: "Total route searches by objective and result",
	}, []string{"objective", "result"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "trackmaster_route_search_duration_seconds",
		Help:    "Route search duration",
		Buckets: []float64{0.00001, 0.0001, 0.001, 0.01, 0.1, 1},
	}, []string{"objective"})

	searchExplored = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trackmaster_route_search_explored_stations",
		Help:    "Stations settled per route search",
		Buckets: []float64{1, 10, 100, 1000, 10000, 50000},
	})

	cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trackmaster_route_cache_lookups_total",
		Help: "Route cache lookups by tier and outcome",
	}, []string{"tier", "outcome"})

	graphStations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackmaster_graph_stations",
		Help: "Stations in the loaded graph",
	})

	graphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "trackmaster_graph_edges",
		Help: "Directed edges in the loaded graph",
	})
)

// ObserveSearch records one finished search
func ObserveSearch(objective, result string, duration time.Duration, explored int) {
	searchTotal.WithLabelValues(objective, result).Inc()
	searchDuration.WithLabelValues(objective).Observe(duration.Seconds())
	if explored > 0 {
		searchExplored.Observe(float64(explored))
	}
}

// CacheHit records a cache hit on the given tier ("local" or "redis")
func CacheHit(tier string) {
	cacheLookups.WithLabelValues(tier, "hit").Inc()
}

// CacheMiss records a cache miss on the given tier
func CacheMiss(tier string) {
	cacheLookups.WithLabelValues(tier, "miss").Inc()
}

// SetGraphSize publishes the size of the currently loaded graph
func SetGraphSize(stations, edges int) {
	graphStations.Set(float64(stations))
	graphEdges.Set(float64(edges))
}
