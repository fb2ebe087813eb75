package report

import (
	"math"
	"school-bus-routing/internal/domain"
	"school-bus-routing/internal/services"
	"sort"
)

type RouteResponse struct {
	BusIndex      int    `json:"bus_index"`
	VisitedNodes  []int  `json:"visited_nodes"`
	Children      [4]int `json:"children_to_cluster"`
	TotalChildren int    `json:"total_children"`
	// Nil when the matrix holds NaN on the path.
	Distance *float64 `json:"distance"`
	Duration *float64 `json:"duration"`
}

type UnplaceableResponse struct {
	StopID   int    `json:"stop_id"`
	Attempts int    `json:"attempts"`
	Reason   string `json:"reason"`
}

type ReinsertedResponse struct {
	StopID   int `json:"stop_id"`
	BusIndex int `json:"bus_index"`
}

type PlanResponse struct {
	RunID         string                `json:"run_id"`
	Instance      string                `json:"instance"`
	Routes        []RouteResponse       `json:"routes"`
	Unserved      []int                 `json:"unserved"`
	Reinserted    []ReinsertedResponse  `json:"reinserted"`
	Unplaceable   []UnplaceableResponse `json:"unplaceable"`
	TotalDistance *float64              `json:"total_distance"`
	TotalDuration *float64              `json:"total_duration"`
}

// FromPlan maps a planner result to its wire representation.
func FromPlan(p *services.Plan) PlanResponse {
	res := PlanResponse{
		RunID:         p.RunID,
		Instance:      p.Instance,
		Routes:        make([]RouteResponse, 0, len(p.Routes)),
		Unserved:      nodeIDs(p.Unserved),
		Reinserted:    make([]ReinsertedResponse, 0, len(p.Reinserted)),
		Unplaceable:   make([]UnplaceableResponse, 0, len(p.Unplaceable)),
		TotalDistance: finite(p.TotalDistance),
		TotalDuration: finite(p.TotalDuration),
	}

	for _, r := range p.Routes {
		res.Routes = append(res.Routes, RouteResponse{
			BusIndex:      r.BusIndex,
			VisitedNodes:  nodeIDs(r.VisitedNodes),
			Children:      r.Children,
			TotalChildren: r.TotalChildren(),
			Distance:      finite(r.Distance),
			Duration:      finite(r.Duration),
		})
	}

	for stop, bus := range p.Reinserted {
		res.Reinserted = append(res.Reinserted, ReinsertedResponse{StopID: int(stop), BusIndex: bus})
	}
	sort.Slice(res.Reinserted, func(i, j int) bool { return res.Reinserted[i].StopID < res.Reinserted[j].StopID })

	for _, u := range p.Unplaceable {
		res.Unplaceable = append(res.Unplaceable, UnplaceableResponse{
			StopID:   int(u.StopID),
			Attempts: u.Attempts,
			Reason:   u.Reason,
		})
	}

	return res
}

func nodeIDs(ids []domain.NodeID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
