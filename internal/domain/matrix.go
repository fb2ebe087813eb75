package domain

import (
	"errors"
	"fmt"
)

var ErrNotSquare = errors.New("distance matrix: not square")

// DistanceMatrix is a square matrix of travel costs between nodes.
//
// The source matrices carry one extra leading row and column, so node id n
// lives at row/column n+1. At applies that offset; callers always pass raw
// node ids. Values are taken as-is: NaN marks a disconnected pair and
// propagates through sums.
type DistanceMatrix struct {
	rows [][]float64
}

func NewDistanceMatrix(rows [][]float64) (*DistanceMatrix, error) {
	n := len(rows)
	for i, r := range rows {
		if len(r) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrNotSquare, i, len(r), n)
		}
	}

	cp := make([][]float64, n)
	for i, r := range rows {
		cp[i] = append([]float64(nil), r...)
	}
	return &DistanceMatrix{rows: cp}, nil
}

func (m *DistanceMatrix) Size() int { return len(m.rows) }

// Rows returns a copy of the underlying matrix, offset row included.
func (m *DistanceMatrix) Rows() [][]float64 {
	out := make([][]float64, len(m.rows))
	for i, r := range m.rows {
		out[i] = append([]float64(nil), r...)
	}
	return out
}

// At returns the cost of the leg from -> to, or false if either id falls outside the matrix.
func (m *DistanceMatrix) At(from, to NodeID) (float64, bool) {
	i, j := int(from)+1, int(to)+1
	if i < 0 || j < 0 || i >= len(m.rows) || j >= len(m.rows) {
		return 0, false
	}
	return m.rows[i][j], true
}

// PathLength sums the legs between consecutive ids of seq.
func (m *DistanceMatrix) PathLength(seq []NodeID) (float64, error) {
	total := 0.0
	for i := 0; i+1 < len(seq); i++ {
		d, ok := m.At(seq[i], seq[i+1])
		if !ok {
			return 0, fmt.Errorf("path length: leg %d -> %d outside %dx%d matrix", seq[i], seq[i+1], len(m.rows), len(m.rows))
		}
		total += d
	}
	return total, nil
}
