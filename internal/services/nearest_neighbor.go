package services

import (
	"fmt"
	"math"
	"school-bus-routing/internal/domain"
	"slices"
)

// greedy orders a route too large for exhaustive search.
//
// Starting from the depot it repeatedly moves to the closest unvisited bus
// stop, then continues from the last stop through the clusters the same way.
// NaN legs count as +Inf.
func (s *Sequencer) greedy(
	route *domain.Route,
	depot domain.NodeID,
	stops []domain.NodeID,
	clusters []domain.NodeID,
) (SequenceStats, error) {
	seq := make([]domain.NodeID, 0, 1+len(stops)+len(clusters))
	seq = append(seq, depot)

	current := depot
	candidates := 0
	for _, group := range [][]domain.NodeID{stops, clusters} {
		remaining := slices.Clone(group)
		for len(remaining) > 0 {
			bestIdx := -1
			minDistance := math.Inf(1)

			// Select next node by minimum leg distance (greedy step).
			for i, id := range remaining {
				d, ok := s.distances.At(current, id)
				if !ok {
					return SequenceStats{}, fmt.Errorf("optimize route: bus %d: missing distance from %d to %d", route.BusIndex, current, id)
				}
				candidates++
				if math.IsNaN(d) {
					d = math.Inf(1)
				}
				// Equal distances go to the smaller id.
				if bestIdx == -1 || d < minDistance || (d == minDistance && id < remaining[bestIdx]) {
					minDistance = d
					bestIdx = i
				}
			}

			current = remaining[bestIdx]
			seq = append(seq, current)
			remaining = slices.Delete(remaining, bestIdx, bestIdx+1)
		}
	}

	total, err := s.distances.PathLength(seq)
	if err != nil {
		return SequenceStats{}, fmt.Errorf("optimize route: bus %d: %w", route.BusIndex, err)
	}
	route.VisitedNodes = seq

	return SequenceStats{Candidates: candidates, Distance: total, Exhaustive: false}, nil
}
