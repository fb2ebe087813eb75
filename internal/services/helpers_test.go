package services

import (
	"math"
	"school-bus-routing/internal/domain"
	"testing"
)

func mustNodeTable(t *testing.T, nodes []domain.Node) *domain.NodeTable {
	t.Helper()
	table, err := domain.NewNodeTable(nodes)
	if err != nil {
		t.Fatalf("new node table: %v", err)
	}
	return table
}

func mustFleet(t *testing.T, capacities ...int) *domain.Fleet {
	t.Helper()
	fleet, err := domain.NewFleet(capacities)
	if err != nil {
		t.Fatalf("new fleet: %v", err)
	}
	return fleet
}

// lineMatrix places nodes on a line and returns |pos[a]-pos[b]| distances,
// laid out with the leading offset row/column the source data carries.
func lineMatrix(t *testing.T, pos map[domain.NodeID]float64) *domain.DistanceMatrix {
	t.Helper()
	maxID := domain.NodeID(0)
	for id := range pos {
		maxID = max(maxID, id)
	}

	size := int(maxID) + 2
	rows := make([][]float64, size)
	for i := range rows {
		rows[i] = make([]float64, size)
	}
	for a, pa := range pos {
		for b, pb := range pos {
			rows[int(a)+1][int(b)+1] = math.Abs(pa - pb)
		}
	}

	m, err := domain.NewDistanceMatrix(rows)
	if err != nil {
		t.Fatalf("new distance matrix: %v", err)
	}
	return m
}

// fixedRand replays vals in a loop.
type fixedRand struct {
	vals []float64
	i    int
}

func (r *fixedRand) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

func assertCapacityInvariant(t *testing.T, routes []*domain.Route, fleet *domain.Fleet) {
	t.Helper()
	for _, r := range routes {
		capacity, ok := fleet.Capacity(r.BusIndex)
		if !ok {
			t.Fatalf("route references unknown bus %d", r.BusIndex)
		}
		if r.TotalChildren() > capacity {
			t.Fatalf("bus %d carries %d children, capacity %d", r.BusIndex, r.TotalChildren(), capacity)
		}
	}
}

func equalIDs(a, b []domain.NodeID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
