package services

import (
	"math"
	"math/rand"
	"school-bus-routing/internal/domain"
	"testing"
)

func TestSequencerOptimize(t *testing.T) {
	distances := lineMatrix(t, map[domain.NodeID]float64{
		0: 0, 1: 5, 2: 1, 3: 10, 4: 7,
	})
	seq := NewSequencer([]domain.NodeID{3, 4}, distances, 0)

	route := &domain.Route{BusIndex: 1, VisitedNodes: []domain.NodeID{0, 1, 2, 3, 4}}
	stats, err := seq.Optimize(route)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.NodeID{0, 2, 1, 4, 3}
	if !equalIDs(route.VisitedNodes, want) {
		t.Fatalf("visited = %v, want %v", route.VisitedNodes, want)
	}
	if stats.Distance != 10 {
		t.Fatalf("distance = %v, want 10", stats.Distance)
	}
	if stats.Candidates != 4 {
		t.Fatalf("candidates = %d, want 4", stats.Candidates)
	}
	if !stats.Exhaustive {
		t.Fatalf("expected exhaustive search")
	}
}

func TestSequencerTieKeepsFirstCandidate(t *testing.T) {
	// Every node at the same spot: all candidates cost 0.
	distances := lineMatrix(t, map[domain.NodeID]float64{
		0: 0, 1: 0, 2: 0, 3: 0, 4: 0,
	})
	seq := NewSequencer([]domain.NodeID{3, 4}, distances, 0)

	route := &domain.Route{BusIndex: 1, VisitedNodes: []domain.NodeID{0, 4, 2, 3, 1}}
	if _, err := seq.Optimize(route); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.NodeID{0, 1, 2, 3, 4}
	if !equalIDs(route.VisitedNodes, want) {
		t.Fatalf("visited = %v, want %v", route.VisitedNodes, want)
	}
}

func TestSequencerIdempotent(t *testing.T) {
	distances := randomMatrix(t, 8, 7)
	seq := NewSequencer([]domain.NodeID{4, 5, 6}, distances, 0)

	route := &domain.Route{BusIndex: 1, VisitedNodes: []domain.NodeID{0, 6, 2, 4, 1, 5}}
	if _, err := seq.Optimize(route); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := append([]domain.NodeID(nil), route.VisitedNodes...)

	if _, err := seq.Optimize(route); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(first, route.VisitedNodes) {
		t.Fatalf("second run changed sequence: %v -> %v", first, route.VisitedNodes)
	}
}

func TestSequencerNoStrictlyShorterCandidate(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		distances := randomMatrix(t, 8, seed)
		seq := NewSequencer([]domain.NodeID{5, 6, 7}, distances, 0)

		route := &domain.Route{BusIndex: 1, VisitedNodes: []domain.NodeID{0, 7, 1, 5, 3, 6}}
		stats, err := seq.Optimize(route)
		if err != nil {
			t.Fatalf("seed %d: unexpected error: %v", seed, err)
		}

		got, err := distances.PathLength(route.VisitedNodes)
		if err != nil {
			t.Fatalf("seed %d: path length: %v", seed, err)
		}
		if got != stats.Distance {
			t.Fatalf("seed %d: reported distance %v, recomputed %v", seed, stats.Distance, got)
		}

		for _, stops := range allOrders([]domain.NodeID{1, 3}) {
			for _, clusters := range allOrders([]domain.NodeID{5, 6, 7}) {
				cand := append([]domain.NodeID{0}, stops...)
				cand = append(cand, clusters...)
				d, _ := distances.PathLength(cand)
				if d < got {
					t.Fatalf("seed %d: candidate %v (%v) beats winner %v (%v)", seed, cand, d, route.VisitedNodes, got)
				}
			}
		}
	}
}

func TestSequencerNaNLeavesRouteUnchanged(t *testing.T) {
	rows := make([][]float64, 4)
	for i := range rows {
		rows[i] = []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()}
	}
	distances, err := domain.NewDistanceMatrix(rows)
	if err != nil {
		t.Fatalf("new distance matrix: %v", err)
	}
	seq := NewSequencer(nil, distances, 0)

	route := &domain.Route{BusIndex: 1, VisitedNodes: []domain.NodeID{0, 2, 1}}
	stats, err := seq.Optimize(route)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIDs(route.VisitedNodes, []domain.NodeID{0, 2, 1}) {
		t.Fatalf("visited = %v, want unchanged [0 2 1]", route.VisitedNodes)
	}
	if !math.IsNaN(stats.Distance) {
		t.Fatalf("distance = %v, want NaN", stats.Distance)
	}
}

func TestSequencerFallsBackToNearestNeighbor(t *testing.T) {
	distances := lineMatrix(t, map[domain.NodeID]float64{
		0: 0, 1: 5, 2: 1, 3: 10, 4: 7,
	})
	seq := NewSequencer([]domain.NodeID{3, 4}, distances, 1)

	route := &domain.Route{BusIndex: 1, VisitedNodes: []domain.NodeID{0, 1, 2, 3, 4}}
	stats, err := seq.Optimize(route)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Exhaustive {
		t.Fatalf("expected greedy fallback")
	}

	want := []domain.NodeID{0, 2, 1, 4, 3}
	if !equalIDs(route.VisitedNodes, want) {
		t.Fatalf("visited = %v, want %v", route.VisitedNodes, want)
	}
	if stats.Distance != 10 {
		t.Fatalf("distance = %v, want 10", stats.Distance)
	}
}

func TestSequencerUnknownNode(t *testing.T) {
	distances := lineMatrix(t, map[domain.NodeID]float64{0: 0, 1: 1})
	seq := NewSequencer(nil, distances, 0)

	route := &domain.Route{BusIndex: 3, VisitedNodes: []domain.NodeID{0, 99}}
	if _, err := seq.Optimize(route); err == nil {
		t.Fatalf("expected error for node outside the matrix")
	}
}

func TestNextPermutation(t *testing.T) {
	p := []domain.NodeID{1, 2, 3}
	var got [][]domain.NodeID
	for {
		got = append(got, append([]domain.NodeID(nil), p...))
		if !nextPermutation(p) {
			break
		}
	}

	want := [][]domain.NodeID{{1, 2, 3}, {1, 3, 2}, {2, 1, 3}, {2, 3, 1}, {3, 1, 2}, {3, 2, 1}}
	if len(got) != len(want) {
		t.Fatalf("got %d permutations, want %d", len(got), len(want))
	}
	for i := range want {
		if !equalIDs(got[i], want[i]) {
			t.Fatalf("permutation %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPermutationCount(t *testing.T) {
	if got := permutationCount(1, 4, 1000); got != 24 {
		t.Fatalf("count = %d, want 24", got)
	}
	if got := permutationCount(3, 3, 1000); got != 36 {
		t.Fatalf("count = %d, want 36", got)
	}
	if got := permutationCount(20, 20, 100); got != 101 {
		t.Fatalf("count = %d, want saturated 101", got)
	}
}

// randomMatrix builds an asymmetric matrix for node ids 0..n-1.
func randomMatrix(t *testing.T, n int, seed int64) *domain.DistanceMatrix {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	rows := make([][]float64, n+1)
	for i := range rows {
		rows[i] = make([]float64, n+1)
		for j := range rows[i] {
			if i != j {
				rows[i][j] = float64(1 + rng.Intn(100))
			}
		}
	}
	m, err := domain.NewDistanceMatrix(rows)
	if err != nil {
		t.Fatalf("new distance matrix: %v", err)
	}
	return m
}

func allOrders(ids []domain.NodeID) [][]domain.NodeID {
	if len(ids) <= 1 {
		return [][]domain.NodeID{append([]domain.NodeID(nil), ids...)}
	}
	var out [][]domain.NodeID
	for i := range ids {
		rest := make([]domain.NodeID, 0, len(ids)-1)
		rest = append(rest, ids[:i]...)
		rest = append(rest, ids[i+1:]...)
		for _, tail := range allOrders(rest) {
			out = append(out, append([]domain.NodeID{ids[i]}, tail...))
		}
	}
	return out
}
