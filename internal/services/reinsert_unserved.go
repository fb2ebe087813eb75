package services

import (
	"errors"
	"fmt"
	"log"
	"school-bus-routing/internal/domain"
	"slices"
)

// Default number of route draws per unserved stop.
const DefaultMaxAttempts = 1000

const (
	ReasonUnknownStop   = "stop not in node table"
	ReasonNoRoutes      = "no routes to insert into"
	ReasonNoRoom        = "no route has room for the stop's demand"
	ReasonAttemptsSpent = "attempt budget exhausted"
)

// RandomSource draws uniform values in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// Unplaceable records a stop the re-inserter could not put on any route.
type Unplaceable struct {
	StopID   domain.NodeID
	Attempts int
	Reason   string
}

type ReinsertResult struct {
	// Bus index each stop was inserted into.
	Placed      map[domain.NodeID]int
	Unplaceable []Unplaceable
	Attempts    int
	Candidates  int
}

// Reinserter places stops left over by BuildRoutes onto existing routes.
//
// Routes are drawn at random with probability proportional to
// 1/(len(VisitedNodes)+1), favouring short routes. A draw succeeds when the
// bus has room for the stop's whole demand; the stop is then inserted right
// after the depot and the route is re-sequenced.
type Reinserter struct {
	Nodes       *domain.NodeTable
	Fleet       *domain.Fleet
	Sequencer   *Sequencer
	Rand        RandomSource
	MaxAttempts int
}

// Reinsert mutates routes in place, one stop at a time in the given order.
func (r *Reinserter) Reinsert(routes []*domain.Route, unserved []domain.NodeID) (ReinsertResult, error) {
	res := ReinsertResult{
		Placed:      map[domain.NodeID]int{},
		Unplaceable: []Unplaceable{},
	}
	if len(unserved) == 0 {
		return res, nil
	}
	if r.Nodes == nil || r.Fleet == nil || r.Sequencer == nil {
		return res, errors.New("reinsert: nodes, fleet and sequencer are required")
	}
	if r.Rand == nil {
		return res, errors.New("reinsert: random source is nil")
	}

	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	// Weights are fixed for the whole call, before any insertion.
	weights := SelectionWeights(routes)

	for _, stopID := range unserved {
		if _, ok := r.Nodes.Node(stopID); !ok {
			res.Unplaceable = append(res.Unplaceable, Unplaceable{StopID: stopID, Reason: ReasonUnknownStop})
			log.Printf("reinsert: unplaceable stop=%d reason=%q", stopID, ReasonUnknownStop)
			continue
		}
		if len(routes) == 0 {
			res.Unplaceable = append(res.Unplaceable, Unplaceable{StopID: stopID, Reason: ReasonNoRoutes})
			log.Printf("reinsert: unplaceable stop=%d reason=%q", stopID, ReasonNoRoutes)
			continue
		}
		if !slices.ContainsFunc(routes, func(route *domain.Route) bool { return r.CanAddStop(route, stopID) }) {
			res.Unplaceable = append(res.Unplaceable, Unplaceable{StopID: stopID, Reason: ReasonNoRoom})
			log.Printf("reinsert: unplaceable stop=%d reason=%q", stopID, ReasonNoRoom)
			continue
		}

		placed := false
		attempts := 0
		for attempts < maxAttempts {
			attempts++
			idx := pickRoute(weights, r.Rand.Float64())
			route := routes[idx]

			if !r.CanAddStop(route, stopID) {
				continue
			}

			r.InsertStop(route, stopID)
			stats, err := r.Sequencer.Optimize(route)
			if err != nil {
				return res, fmt.Errorf("reinsert: stop %d: %w", stopID, err)
			}

			res.Candidates += stats.Candidates
			res.Placed[stopID] = route.BusIndex
			placed = true
			break
		}
		res.Attempts += attempts

		if !placed {
			res.Unplaceable = append(res.Unplaceable, Unplaceable{StopID: stopID, Attempts: attempts, Reason: ReasonAttemptsSpent})
			log.Printf("reinsert: unplaceable stop=%d attempts=%d reason=%q", stopID, attempts, ReasonAttemptsSpent)
		}
	}

	return res, nil
}

// CanAddStop reports whether the route's bus has room for the stop's whole demand.
// Unknown stops and buses outside the fleet are never feasible.
func (r *Reinserter) CanAddStop(route *domain.Route, stopID domain.NodeID) bool {
	stop, ok := r.Nodes.Node(stopID)
	if !ok {
		return false
	}
	capacity, ok := r.Fleet.Capacity(route.BusIndex)
	if !ok {
		return false
	}
	return route.TotalChildren()+stop.Demand.Total() <= capacity
}

// InsertStop puts the stop right after the depot, appends every cluster the
// stop needs and the route does not serve yet, and adds the stop's demand to
// the route's counters. It reports false if the stop is unknown.
func (r *Reinserter) InsertStop(route *domain.Route, stopID domain.NodeID) bool {
	stop, ok := r.Nodes.Node(stopID)
	if !ok {
		return false
	}

	route.VisitedNodes = slices.Insert(route.VisitedNodes, min(1, len(route.VisitedNodes)), stopID)

	for k := 1; k <= domain.ClusterCount; k++ {
		if stop.Demand[k-1] <= 0 || route.Serves(k) {
			continue
		}
		clusterID, ok := r.Nodes.ClusterID(k)
		if !ok {
			log.Printf("reinsert: no cluster row stop=%d cluster=%d children=%d", stopID, k, stop.Demand[k-1])
			continue
		}
		if route.Visits(clusterID) {
			continue
		}
		route.VisitedNodes = append(route.VisitedNodes, clusterID)
	}

	for k := range route.Children {
		route.Children[k] += stop.Demand[k]
	}
	return true
}

// SelectionWeights returns the normalized draw probability of each route,
// proportional to 1/(len(VisitedNodes)+1).
func SelectionWeights(routes []*domain.Route) []float64 {
	weights := make([]float64, len(routes))
	total := 0.0
	for i, route := range routes {
		weights[i] = 1.0 / float64(len(route.VisitedNodes)+1)
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}
	return weights
}

// pickRoute maps a uniform draw u to a route index by cumulative sum.
// Rounding can leave the cumulative total just below 1; such draws land on the last route.
func pickRoute(weights []float64, u float64) int {
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if u <= cumulative {
			return i
		}
	}
	return len(weights) - 1
}
