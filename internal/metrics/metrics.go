// Package metrics exposes Prometheus collectors for searches, route
// checks, the route cache and the simulation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gravitas-games/freepath/internal/pathfinding"
)

var (
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freepath_search_total",
		Help: "Total number of path searches by kind and outcome",
	}, []string{"kind", "outcome"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freepath_search_duration_seconds",
		Help:    "Duration of path searches",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10us to ~160ms
	}, []string{"kind"})

	routeLength = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "freepath_route_length_steps",
		Help:    "Length of routes found",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	}, []string{"kind"})

	routeChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freepath_route_check_total",
		Help: "Total number of route validations by kind and outcome",
	}, []string{"kind", "outcome"})

	routeCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freepath_route_cache_lookups_total",
		Help: "Route cache lookups by result (hit, miss, stale, error)",
	}, []string{"result"})

	finderWork = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "freepath_finder_operations_total",
		Help: "Low level work done by path finders",
	}, []string{"op"})

	agentsActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "freepath_agents",
		Help: "Number of simulated agents by state",
	}, []string{"state"})

	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "freepath_frames_total",
		Help: "Total number of simulated frames",
	})
)

func outcome(ok bool) string {
	if ok {
		return "found"
	}
	return "not_found"
}

// ObserveSearch records one FindPath call.
func ObserveSearch(kind string, found bool, length int, elapsed time.Duration) {
	searchTotal.WithLabelValues(kind, outcome(found)).Inc()
	searchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	if found {
		routeLength.WithLabelValues(kind).Observe(float64(length))
	}
}

// ObserveRouteCheck records one CheckRoute call.
func ObserveRouteCheck(kind string, valid bool) {
	result := "valid"
	if !valid {
		result = "broken"
	}
	routeChecks.WithLabelValues(kind, result).Inc()
}

// ObserveCacheLookup records a route cache lookup result.
func ObserveCacheLookup(result string) {
	routeCacheLookups.WithLabelValues(result).Inc()
}

// AddFinderStats adds the work counted by a finder since the last call.
func AddFinderStats(delta pathfinding.Stats) {
	finderWork.WithLabelValues("pop").Add(float64(delta.Pops))
	finderWork.WithLabelValues("push").Add(float64(delta.Pushes))
	finderWork.WithLabelValues("rearrange").Add(float64(delta.Rearranges))
	finderWork.WithLabelValues("reject_node").Add(float64(delta.RejectedNodes))
	finderWork.WithLabelValues("reject_edge").Add(float64(delta.RejectedEdges))
}

// SetAgents publishes the number of agents in a state.
func SetAgents(state string, n int) {
	agentsActive.WithLabelValues(state).Set(float64(n))
}

// IncFrames counts a simulated frame.
func IncFrames() { framesTotal.Inc() }
