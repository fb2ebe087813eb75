package services

import (
	"errors"
	"fmt"
	"math"
	"school-bus-routing/internal/domain"
	"slices"
)

// Default cap on b!*c! candidates before the sequencer falls back to a greedy order.
const DefaultMaxPermutations = 40320

// Summary of one Optimize call.
type SequenceStats struct {
	Candidates int
	Distance   float64
	Exhaustive bool
}

// Sequencer reorders a route's visiting sequence to minimize travel distance.
//
// The depot stays first; bus stops come before clusters. Within each group
// every ordering is tried, which is exact but O(b!*c!) in the number of stops
// and clusters on the route. Routes above MaxPermutations candidates are
// ordered by nearest neighbour instead.
type Sequencer struct {
	distances       *domain.DistanceMatrix
	clusters        map[domain.NodeID]struct{}
	maxPermutations int
}

func NewSequencer(clusterIDs []domain.NodeID, distances *domain.DistanceMatrix, maxPermutations int) *Sequencer {
	if maxPermutations <= 0 {
		maxPermutations = DefaultMaxPermutations
	}

	clusters := make(map[domain.NodeID]struct{}, len(clusterIDs))
	for _, id := range clusterIDs {
		clusters[id] = struct{}{}
	}

	return &Sequencer{
		distances:       distances,
		clusters:        clusters,
		maxPermutations: maxPermutations,
	}
}

// Optimize replaces route.VisitedNodes with the shortest candidate sequence.
// Ties keep the first candidate in lexicographic enumeration order. If no
// candidate has a comparable distance (all NaN) the route is left unchanged.
func (s *Sequencer) Optimize(route *domain.Route) (SequenceStats, error) {
	if route == nil || len(route.VisitedNodes) == 0 {
		return SequenceStats{}, errors.New("optimize route: route has no depot")
	}
	if s.distances == nil {
		return SequenceStats{}, errors.New("optimize route: distance matrix is nil")
	}

	depot := route.VisitedNodes[0]
	stops := make([]domain.NodeID, 0, len(route.VisitedNodes))
	clusters := make([]domain.NodeID, 0, len(route.VisitedNodes))
	for _, id := range route.VisitedNodes[1:] {
		if _, ok := s.clusters[id]; ok {
			clusters = append(clusters, id)
		} else {
			stops = append(stops, id)
		}
	}

	if permutationCount(len(stops), len(clusters), s.maxPermutations) > s.maxPermutations {
		return s.greedy(route, depot, stops, clusters)
	}

	slices.Sort(stops)
	clusterStart := slices.Clone(clusters)
	slices.Sort(clusterStart)

	best := math.Inf(1)
	var bestSeq []domain.NodeID
	candidates := 0
	candidate := make([]domain.NodeID, 0, len(route.VisitedNodes))

	for {
		copy(clusters, clusterStart)
		for {
			candidate = candidate[:0]
			candidate = append(candidate, depot)
			candidate = append(candidate, stops...)
			candidate = append(candidate, clusters...)

			d, err := s.distances.PathLength(candidate)
			if err != nil {
				return SequenceStats{}, fmt.Errorf("optimize route: bus %d: %w", route.BusIndex, err)
			}
			candidates++

			if d < best {
				best = d
				bestSeq = slices.Clone(candidate)
			}

			if !nextPermutation(clusters) {
				break
			}
		}
		if !nextPermutation(stops) {
			break
		}
	}

	if bestSeq != nil {
		route.VisitedNodes = bestSeq
	} else {
		best, _ = s.distances.PathLength(route.VisitedNodes)
	}

	return SequenceStats{Candidates: candidates, Distance: best, Exhaustive: true}, nil
}

// nextPermutation rearranges p into the next lexicographic permutation and
// reports whether one existed. Duplicates yield distinct permutations only.
func nextPermutation(p []domain.NodeID) bool {
	i := len(p) - 2
	for i >= 0 && p[i] >= p[i+1] {
		i--
	}
	if i < 0 {
		return false
	}

	j := len(p) - 1
	for p[j] <= p[i] {
		j--
	}
	p[i], p[j] = p[j], p[i]
	slices.Reverse(p[i+1:])
	return true
}

// permutationCount returns b!*c!, saturating just above limit.
func permutationCount(b, c, limit int) int {
	count := 1
	for _, n := range []int{b, c} {
		for k := 2; k <= n; k++ {
			count *= k
			if count > limit {
				return limit + 1
			}
		}
	}
	return count
}
