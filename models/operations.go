package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewGraph creates an empty graph with a unique ID and timestamp.
func NewGraph(title string) *Graph {
	return &Graph{
		ID:        uuid.New().String(),
		Title:     title,
		Nodes:     []Node{},
		Edges:     []Edge{},
		CreatedAt: time.Now(),
	}
}

// NewNode creates a node with default appearance at the origin.
func NewNode(id, label string) *Node {
	return &Node{
		ID:    id,
		Label: label,
		Size:  1.0,
		Color: "#808080",
	}
}

// NewEdge creates an edge between two node IDs.
func NewEdge(source, target string, weight float64) *Edge {
	return &Edge{
		Source: source,
		Target: target,
		Weight: weight,
	}
}

// DefaultParameters returns the simulation defaults used when no preset
// is loaded. Tuned for graphs of tens to low hundreds of nodes.
func DefaultParameters() Parameters {
	return Parameters{
		LinkDistance:      80.0,
		ChargeStrength:    -120.0,
		CollisionRadius:   12.0,
		CollisionStrength: 0.7,
		VelocityDecay:     0.4,
		AlphaDecay:        0.0228, // ~300 ticks to convergence from alpha 1.0
	}
}

// Validate reports whether the parameters are usable by the engine.
func (p Parameters) Validate() error {
	if p.LinkDistance <= 0 {
		return fmt.Errorf("%w: link distance must be positive, got %v", ErrMalformedInput, p.LinkDistance)
	}
	if p.VelocityDecay < 0 || p.VelocityDecay > 1 {
		return fmt.Errorf("%w: velocity decay must be in [0,1], got %v", ErrMalformedInput, p.VelocityDecay)
	}
	if p.AlphaDecay < 0 || p.AlphaDecay >= 1 {
		return fmt.Errorf("%w: alpha decay must be in [0,1), got %v", ErrMalformedInput, p.AlphaDecay)
	}
	if p.CollisionRadius < 0 {
		return fmt.Errorf("%w: collision radius must not be negative, got %v", ErrMalformedInput, p.CollisionRadius)
	}
	if p.CollisionStrength < 0 || p.CollisionStrength > 1 {
		return fmt.Errorf("%w: collision strength must be in [0,1], got %v", ErrMalformedInput, p.CollisionStrength)
	}
	return nil
}

// AddNode adds a node to the graph.
func (g *Graph) AddNode(node *Node) {
	g.Nodes = append(g.Nodes, *node)
}

// AddEdge adds an edge to the graph. Both endpoints must already exist.
func (g *Graph) AddEdge(edge *Edge) error {
	sourceExists, targetExists := false, false
	for i := range g.Nodes {
		if g.Nodes[i].ID == edge.Source {
			sourceExists = true
		}
		if g.Nodes[i].ID == edge.Target {
			targetExists = true
		}
		if sourceExists && targetExists {
			break
		}
	}
	if !sourceExists {
		return fmt.Errorf("%w: edge source %q not in graph", ErrMalformedInput, edge.Source)
	}
	if !targetExists {
		return fmt.Errorf("%w: edge target %q not in graph", ErrMalformedInput, edge.Target)
	}
	g.Edges = append(g.Edges, *edge)
	return nil
}

// Validate checks the graph invariants: non-empty title, unique node IDs,
// and no edge referencing a missing node.
func (g *Graph) Validate() error {
	if g.Title == "" {
		return fmt.Errorf("%w: graph title is empty", ErrMalformedInput)
	}
	seen := make(map[string]struct{}, len(g.Nodes))
	for i := range g.Nodes {
		id := g.Nodes[i].ID
		if id == "" {
			return fmt.Errorf("%w: node %d has empty id", ErrMalformedInput, i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate node id %q", ErrMalformedInput, id)
		}
		seen[id] = struct{}{}
	}
	for i := range g.Edges {
		e := &g.Edges[i]
		if _, ok := seen[e.Source]; !ok {
			return fmt.Errorf("%w: edge %d references missing source %q", ErrMalformedInput, i, e.Source)
		}
		if _, ok := seen[e.Target]; !ok {
			return fmt.Errorf("%w: edge %d references missing target %q", ErrMalformedInput, i, e.Target)
		}
	}
	return nil
}
