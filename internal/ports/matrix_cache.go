package ports

import "context"

// Raw distance and travel-time matrices of one instance, offset row included.
type Matrices struct {
	Distances [][]float64
	Times     [][]float64
}

// Contract for caching instance matrices in front of a slower data source.
type MatrixCache interface {
	// Return the cached matrices and whether they were present.
	Get(ctx context.Context, instance string) (Matrices, bool, error)
	Put(ctx context.Context, instance string, m Matrices) error
}
