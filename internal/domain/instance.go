package domain

import (
	"errors"
	"fmt"
)

// Instance is one problem instance as delivered by a data source:
// the node table plus the distance and travel-time matrices.
type Instance struct {
	Name      string
	Nodes     *NodeTable
	Distances *DistanceMatrix
	Times     *DistanceMatrix
}

// Validate checks that every node id is addressable in both matrices.
func (in *Instance) Validate() error {
	if in.Nodes == nil {
		return errors.New("instance: node table is nil")
	}
	if in.Distances == nil {
		return errors.New("instance: distance matrix is nil")
	}

	if in.Times != nil && in.Times.Size() != in.Distances.Size() {
		return fmt.Errorf("instance %q: time matrix size %d, distance matrix size %d", in.Name, in.Times.Size(), in.Distances.Size())
	}

	for _, n := range in.Nodes.All() {
		if _, ok := in.Distances.At(n.ID, n.ID); !ok {
			return fmt.Errorf("instance %q: node %d outside distance matrix (size %d)", in.Name, n.ID, in.Distances.Size())
		}
		if in.Times != nil {
			if _, ok := in.Times.At(n.ID, n.ID); !ok {
				return fmt.Errorf("instance %q: node %d outside time matrix (size %d)", in.Name, n.ID, in.Times.Size())
			}
		}
	}
	return nil
}
