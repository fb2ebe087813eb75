package ports

import (
	"context"
	"school-bus-routing/internal/domain"
)

// Port: a boundary for retrieving problem instances from a data source.
type InstanceRepository interface {
	// Load the node table and matrices of the named instance.
	LoadInstance(ctx context.Context, name string) (*domain.Instance, error)
	// Return the names of all instances available for planning.
	ListInstances(ctx context.Context) ([]string, error)
}
