package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the dedicated Prometheus registry for planner runs
	Registry = prometheus.NewRegistry()

	// RoutesBuilt counts routes created by the capacity-constrained first pass
	RoutesBuilt = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sbrp_routes_built_total", Help: "Routes created by the first pass."},
		[]string{"instance"},
	)
	// UnservedStops counts stops left uncovered when the fleet ran out
	UnservedStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sbrp_unserved_stops_total", Help: "Stops not fully served by the first pass."},
		[]string{"instance"},
	)
	// ReinsertedStops counts unserved stops placed onto existing routes
	ReinsertedStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sbrp_reinserted_stops_total", Help: "Unserved stops placed by re-insertion."},
		[]string{"instance"},
	)
	// UnplaceableStops counts stops the re-inserter gave up on, by reason
	UnplaceableStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sbrp_unplaceable_stops_total", Help: "Stops no route could take."},
		[]string{"instance", "reason"},
	)
	// ReinsertAttempts counts random route draws made by the re-inserter
	ReinsertAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sbrp_reinsert_attempts_total", Help: "Route draws made during re-insertion."},
		[]string{"instance"},
	)
	// SequencerCandidates counts candidate sequences evaluated by the sequencer
	SequencerCandidates = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "sbrp_sequencer_candidates_total", Help: "Candidate visiting sequences evaluated."},
		[]string{"instance"},
	)
	// StageDuration records planner stage durations in seconds
	StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "sbrp_stage_duration_seconds", Help: "Planner stage duration in seconds.", Buckets: prometheus.DefBuckets},
		[]string{"op", "status"},
	)
)

var regOnce sync.Once

// Register adds all collectors to Registry. Safe to call more than once.
func Register() {
	regOnce.Do(func() {
		Registry.MustRegister(RoutesBuilt)
		Registry.MustRegister(UnservedStops)
		Registry.MustRegister(ReinsertedStops)
		Registry.MustRegister(UnplaceableStops)
		Registry.MustRegister(ReinsertAttempts)
		Registry.MustRegister(SequencerCandidates)
		Registry.MustRegister(StageDuration)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// WriteTextfile dumps the registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
