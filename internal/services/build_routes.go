package services

import (
	"log"
	"school-bus-routing/internal/domain"
)

// Output of the capacity-constrained first pass.
type BuildResult struct {
	Routes []*domain.Route
	// Stops whose demand was not fully covered when the fleet ran out,
	// including stops that received a partial allocation.
	Unserved []domain.NodeID
	// Children allocated per stop across all routes.
	Allocations map[domain.NodeID]int
}

// BuildRoutes assigns buses to bus stops in table order, producing routes
// of the form depot -> stop -> cluster(s).
//
// Buses are consumed in a single pass across the whole fleet: the bus counter
// is never reset between stops. Each new bus takes as much of the stop's
// residual demand as fits, cluster by cluster in first-fit order; the
// cluster that overflows keeps its residual for the next bus.
func BuildRoutes(nodes *domain.NodeTable, fleet *domain.Fleet) BuildResult {
	res := BuildResult{
		Routes:      []*domain.Route{},
		Unserved:    []domain.NodeID{},
		Allocations: map[domain.NodeID]int{},
	}
	if nodes == nil || fleet == nil {
		return res
	}

	stops := nodes.Stops()
	if len(stops) == 0 {
		return res
	}

	depot := nodes.Depot()
	busIndex := 1

	for _, stop := range stops {
		residual := stop.Demand
		totalDemand := residual.Total()
		served := 0

		for served < totalDemand && busIndex <= fleet.Len() {
			capacity, _ := fleet.Capacity(busIndex)

			route := domain.NewRoute(busIndex, depot)
			route.VisitedNodes = append(route.VisitedNodes, stop.ID)
			for k, n := range residual {
				if n <= 0 {
					continue
				}
				clusterID, ok := nodes.ClusterID(k + 1)
				if !ok {
					log.Printf("build routes: no cluster row stop=%d cluster=%d children=%d", stop.ID, k+1, n)
					continue
				}
				route.VisitedNodes = append(route.VisitedNodes, clusterID)
			}

			load := 0
			for k, n := range residual {
				if n <= 0 {
					continue
				}

				remaining := capacity - load
				if n <= remaining {
					route.Children[k] = n
					load += n
					residual[k] = 0
					continue
				}

				// Bus is full; the rest of this cluster waits for the next bus.
				route.Children[k] = remaining
				load += remaining
				residual[k] -= remaining
				break
			}

			busIndex++
			if load == 0 {
				continue
			}

			served += load
			res.Allocations[stop.ID] += load
			res.Routes = append(res.Routes, route)
		}

		if served < totalDemand {
			res.Unserved = append(res.Unserved, stop.ID)
		}
	}

	return res
}
