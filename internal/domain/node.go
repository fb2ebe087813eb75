package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Number of destination clusters a bus stop can send children to.
const ClusterCount = 4

var (
	ErrNoDepot        = errors.New("node table: no depot node")
	ErrMultipleDepots = errors.New("node table: more than one depot node")
	ErrDuplicateNode  = errors.New("node table: duplicate node id")
	ErrInvalidDemand  = errors.New("node table: invalid demand")
)

// Identifier of a node; also selects the distance matrix row (see DistanceMatrix).
type NodeID int

type Role int

const (
	RoleOther Role = iota
	RoleDepot
	RoleStop
	RoleCluster
)

// ParseRole maps the node type tag of the source data to a Role.
// The source tables use Italian tags ("deposito", "fermata").
func ParseRole(tag string) Role {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "deposito", "depot":
		return RoleDepot
	case "fermata", "stop":
		return RoleStop
	case "cluster":
		return RoleCluster
	default:
		return RoleOther
	}
}

func (r Role) String() string {
	switch r {
	case RoleDepot:
		return "depot"
	case RoleStop:
		return "stop"
	case RoleCluster:
		return "cluster"
	default:
		return "other"
	}
}

// Children waiting at a bus stop, indexed by destination cluster (cluster k at index k-1).
type Demand [ClusterCount]int

func (d Demand) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

// Represents a single row of the node table.
// Only stops carry demand; the depot and clusters have a zero Demand.
type Node struct {
	ID     NodeID
	Role   Role
	Lat    float64
	Lon    float64
	Demand Demand
}

// NodeTable is the read-only node table of a problem instance.
// Row order is significant: stops are served in table order and clusters
// are addressed by their ordinal among cluster rows.
type NodeTable struct {
	nodes    []Node
	byID     map[NodeID]int
	depot    NodeID
	clusters []NodeID
}

func NewNodeTable(nodes []Node) (*NodeTable, error) {
	t := &NodeTable{
		nodes: make([]Node, len(nodes)),
		byID:  make(map[NodeID]int, len(nodes)),
	}
	copy(t.nodes, nodes)

	depots := 0
	for i, n := range t.nodes {
		if _, ok := t.byID[n.ID]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateNode, n.ID)
		}
		t.byID[n.ID] = i

		if err := checkDemand(n); err != nil {
			return nil, err
		}

		switch n.Role {
		case RoleDepot:
			depots++
			t.depot = n.ID
		case RoleCluster:
			t.clusters = append(t.clusters, n.ID)
		}
	}

	if depots == 0 {
		return nil, ErrNoDepot
	}
	if depots > 1 {
		return nil, ErrMultipleDepots
	}

	return t, nil
}

// Stops carry non-negative counts; the depot and clusters carry none.
func checkDemand(n Node) error {
	for k, c := range n.Demand {
		if c < 0 {
			return fmt.Errorf("%w: node %d has %d children to cluster %d", ErrInvalidDemand, n.ID, c, k+1)
		}
	}
	if (n.Role == RoleDepot || n.Role == RoleCluster) && n.Demand.Total() != 0 {
		return fmt.Errorf("%w: %s node %d carries demand %v", ErrInvalidDemand, n.Role, n.ID, n.Demand)
	}
	return nil
}

func (t *NodeTable) Depot() NodeID { return t.depot }

func (t *NodeTable) Len() int { return len(t.nodes) }

// Return a copy of all rows in table order.
func (t *NodeTable) All() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

func (t *NodeTable) Node(id NodeID) (Node, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Node{}, false
	}
	return t.nodes[i], true
}

// Return the stop rows in table order.
func (t *NodeTable) Stops() []Node {
	out := make([]Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		if n.Role == RoleStop {
			out = append(out, n)
		}
	}
	return out
}

// ClusterID resolves the k-th cluster row (1-based) to its node id.
func (t *NodeTable) ClusterID(k int) (NodeID, bool) {
	if k < 1 || k > len(t.clusters) {
		return 0, false
	}
	return t.clusters[k-1], true
}

func (t *NodeTable) ClusterIDs() []NodeID {
	out := make([]NodeID, len(t.clusters))
	copy(out, t.clusters)
	return out
}

func (t *NodeTable) IsCluster(id NodeID) bool {
	n, ok := t.Node(id)
	return ok && n.Role == RoleCluster
}
