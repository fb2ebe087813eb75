package domain

import "slices"

// Represents one bus's visiting sequence and the children it carries.
// VisitedNodes always starts at the depot. Children[k-1] counts the
// children the bus takes to cluster k.
type Route struct {
	BusIndex     int
	VisitedNodes []NodeID
	Children     Demand
}

func NewRoute(busIndex int, depot NodeID) *Route {
	return &Route{
		BusIndex:     busIndex,
		VisitedNodes: []NodeID{depot},
	}
}

func (r *Route) TotalChildren() int { return r.Children.Total() }

// Serves reports whether the route already carries children to cluster k (1-based).
func (r *Route) Serves(k int) bool {
	if k < 1 || k > ClusterCount {
		return false
	}
	return r.Children[k-1] > 0
}

func (r *Route) Visits(id NodeID) bool { return slices.Contains(r.VisitedNodes, id) }

func (r *Route) Depot() NodeID { return r.VisitedNodes[0] }

func (r *Route) Clone() *Route {
	return &Route{
		BusIndex:     r.BusIndex,
		VisitedNodes: slices.Clone(r.VisitedNodes),
		Children:     r.Children,
	}
}

// Planned route enriched with metrics from the instance matrices.
type RoutePlan struct {
	Route
	Distance float64
	Duration float64
}
