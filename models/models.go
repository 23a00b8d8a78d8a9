// Package models provides data structures and interfaces for the wikiforce application.
// It defines the core domain models used throughout the application.
package models

import (
	"errors"
	"time"
)

// ErrMalformedInput marks construction-time failures: an empty article title,
// a duplicate node id, or an edge referencing a node that is not in the graph.
// Errors of this kind never reach the simulation engine.
var ErrMalformedInput = errors.New("malformed input")

// Node represents an article in the link graph.
type Node struct {
	ID     string  `json:"id"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	VX     float64 `json:"vx"`
	VY     float64 `json:"vy"`
	FX     float64 `json:"fx,omitempty"` // Pinned position, valid only while Pinned
	FY     float64 `json:"fy,omitempty"`
	Pinned bool    `json:"pinned,omitempty"`
	Size   float64 `json:"size"`
	Color  string  `json:"color"`
}

// Edge represents a directed link between two articles. Direction records
// provenance (who links to whom); the layout treats every edge as an
// undirected spring.
type Edge struct {
	Source string  `json:"source"` // ID of the linking article
	Target string  `json:"target"` // ID of the linked article
	Weight float64 `json:"weight"`
}

// Graph is the node and edge set for one article query. A graph is built
// once per query and replaced wholesale by the next query; it is never
// mutated incrementally.
type Graph struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"` // Canonical title of the root article
	Nodes     []Node    `json:"nodes"`
	Edges     []Edge    `json:"edges"`
	CreatedAt time.Time `json:"created_at"`
}

// Parameters configures the force simulation. One immutable value per tick,
// replaced wholesale on change; replacing it re-energizes the simulation.
type Parameters struct {
	LinkDistance      float64 `json:"link_distance" yaml:"link_distance"`
	ChargeStrength    float64 `json:"charge_strength" yaml:"charge_strength"` // Negative repels
	CollisionRadius   float64 `json:"collision_radius" yaml:"collision_radius"`
	CollisionStrength float64 `json:"collision_strength" yaml:"collision_strength"`
	VelocityDecay     float64 `json:"velocity_decay" yaml:"velocity_decay"` // Per-tick damping in [0,1)
	AlphaDecay        float64 `json:"alpha_decay" yaml:"alpha_decay"`
}

// Article is the normalized record returned by the article data provider:
// a canonical title and the titles it links to.
type Article struct {
	Title          string   `json:"title"`
	OutboundTitles []string `json:"outbound_titles"`
}
