package services

import (
	"context"
	"errors"
	"fmt"
	"school-bus-routing/internal/domain"
	"school-bus-routing/internal/metrics"
	"school-bus-routing/internal/platform/obs"
	"school-bus-routing/internal/ports"

	"github.com/google/uuid"
)

type PlanRoutesRequest struct {
	Instance        string
	Capacities      []int
	MaxAttempts     int
	MaxPermutations int
}

// Plan is the outcome of one planner run over an instance.
type Plan struct {
	RunID    string
	Instance string
	Routes   []domain.RoutePlan
	// Stops left unserved by the first pass, before re-insertion.
	Unserved []domain.NodeID
	// Bus index each unserved stop was re-inserted into.
	Reinserted    map[domain.NodeID]int
	Unplaceable   []Unplaceable
	Allocations   map[domain.NodeID]int
	TotalDistance float64
	TotalDuration float64
}

// PlanRoutes loads an instance from the repository and plans it.
func PlanRoutes(
	ctx context.Context,
	req PlanRoutesRequest,
	repo ports.InstanceRepository,
	rnd RandomSource,
) (_ *Plan, err error) {
	if obs.RunID(ctx) == "" {
		ctx = obs.WithRunID(ctx, uuid.NewString())
	}
	defer obs.Time(ctx, "plan.PlanRoutes")(&err)

	if repo == nil {
		return nil, errors.New("plan routes: instance repository is nil")
	}

	instance, err := repo.LoadInstance(ctx, req.Instance)
	if err != nil {
		return nil, fmt.Errorf("plan routes: load instance %q: %w", req.Instance, err)
	}

	return PlanInstance(ctx, instance, req, rnd)
}

// PlanInstance runs the three planning stages on an already loaded instance:
// the capacity-constrained first pass, sequencing of every built route, and
// re-insertion of the stops the first pass could not cover.
func PlanInstance(
	ctx context.Context,
	instance *domain.Instance,
	req PlanRoutesRequest,
	rnd RandomSource,
) (_ *Plan, err error) {
	runID := obs.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
		ctx = obs.WithRunID(ctx, runID)
	}
	defer obs.Time(ctx, "plan.PlanInstance")(&err)

	if instance == nil {
		return nil, errors.New("plan instance: instance is nil")
	}
	if err := instance.Validate(); err != nil {
		return nil, fmt.Errorf("plan instance: %w", err)
	}

	fleet, err := domain.NewFleet(req.Capacities)
	if err != nil {
		return nil, fmt.Errorf("plan instance: %w", err)
	}

	built := BuildRoutes(instance.Nodes, fleet)
	metrics.RoutesBuilt.WithLabelValues(instance.Name).Add(float64(len(built.Routes)))
	metrics.UnservedStops.WithLabelValues(instance.Name).Add(float64(len(built.Unserved)))

	sequencer := NewSequencer(instance.Nodes.ClusterIDs(), instance.Distances, req.MaxPermutations)
	candidates := 0
	for _, route := range built.Routes {
		stats, err := sequencer.Optimize(route)
		if err != nil {
			return nil, fmt.Errorf("plan instance: %w", err)
		}
		candidates += stats.Candidates
	}

	reinserter := &Reinserter{
		Nodes:       instance.Nodes,
		Fleet:       fleet,
		Sequencer:   sequencer,
		Rand:        rnd,
		MaxAttempts: req.MaxAttempts,
	}
	reinserted, err := reinserter.Reinsert(built.Routes, built.Unserved)
	if err != nil {
		return nil, fmt.Errorf("plan instance: %w", err)
	}
	candidates += reinserted.Candidates

	metrics.SequencerCandidates.WithLabelValues(instance.Name).Add(float64(candidates))
	metrics.ReinsertAttempts.WithLabelValues(instance.Name).Add(float64(reinserted.Attempts))
	metrics.ReinsertedStops.WithLabelValues(instance.Name).Add(float64(len(reinserted.Placed)))
	for _, u := range reinserted.Unplaceable {
		metrics.UnplaceableStops.WithLabelValues(instance.Name, u.Reason).Inc()
	}

	plan := &Plan{
		RunID:       runID,
		Instance:    instance.Name,
		Routes:      make([]domain.RoutePlan, 0, len(built.Routes)),
		Unserved:    built.Unserved,
		Reinserted:  reinserted.Placed,
		Unplaceable: reinserted.Unplaceable,
		Allocations: built.Allocations,
	}

	for _, route := range built.Routes {
		rp, err := measureRoute(instance, route)
		if err != nil {
			return nil, fmt.Errorf("plan instance: %w", err)
		}
		plan.TotalDistance += rp.Distance
		plan.TotalDuration += rp.Duration
		plan.Routes = append(plan.Routes, rp)
	}

	return plan, nil
}

func measureRoute(instance *domain.Instance, route *domain.Route) (domain.RoutePlan, error) {
	rp := domain.RoutePlan{Route: *route.Clone()}

	d, err := instance.Distances.PathLength(route.VisitedNodes)
	if err != nil {
		return rp, fmt.Errorf("measure route: bus %d distance: %w", route.BusIndex, err)
	}
	rp.Distance = d

	if instance.Times != nil {
		t, err := instance.Times.PathLength(route.VisitedNodes)
		if err != nil {
			return rp, fmt.Errorf("measure route: bus %d duration: %w", route.BusIndex, err)
		}
		rp.Duration = t
	}

	return rp, nil
}
