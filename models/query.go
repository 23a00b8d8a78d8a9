package models

import (
	"fmt"
)

// NodeIndex maps node IDs to indices in the Nodes slice. The engine owns
// edge resolution: edges store identifier pairs only and are resolved
// through an index like this one, never through embedded node pointers.
func (g *Graph) NodeIndex() map[string]int {
	idx := make(map[string]int, len(g.Nodes))
	for i := range g.Nodes {
		idx[g.Nodes[i].ID] = i
	}
	return idx
}

// FindNodeByID returns a node by its ID.
func (g *Graph) FindNodeByID(id string) (*Node, error) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], nil
		}
	}
	return nil, fmt.Errorf("node with ID %s not found", id)
}

// Degree returns the number of edges touching a node in either direction.
func (g *Graph) Degree(nodeID string) int {
	n := 0
	for _, edge := range g.Edges {
		if edge.Source == nodeID || edge.Target == nodeID {
			n++
		}
	}
	return n
}
