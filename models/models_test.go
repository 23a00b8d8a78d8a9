package models

import (
	"errors"
	"testing"
)

func TestParametersValidate(t *testing.T) {
	if err := DefaultParameters().Validate(); err != nil {
		t.Fatalf("defaults fail validation: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Parameters)
	}{
		{"zero link distance", func(p *Parameters) { p.LinkDistance = 0 }},
		{"negative link distance", func(p *Parameters) { p.LinkDistance = -1 }},
		{"velocity decay below zero", func(p *Parameters) { p.VelocityDecay = -0.1 }},
		{"velocity decay above one", func(p *Parameters) { p.VelocityDecay = 1.1 }},
		{"alpha decay of one", func(p *Parameters) { p.AlphaDecay = 1 }},
		{"negative collision radius", func(p *Parameters) { p.CollisionRadius = -5 }},
		{"collision strength above one", func(p *Parameters) { p.CollisionStrength = 2 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParameters()
			tc.mutate(&p)
			if err := p.Validate(); !errors.Is(err, ErrMalformedInput) {
				t.Fatalf("error = %v, want ErrMalformedInput", err)
			}
		})
	}
}

func TestGraphValidate(t *testing.T) {
	g := NewGraph("T")
	g.AddNode(NewNode("a", "A"))
	g.AddNode(NewNode("b", "B"))
	if err := g.AddEdge(NewEdge("a", "b", 1)); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	dup := NewGraph("T")
	dup.AddNode(NewNode("a", "A"))
	dup.AddNode(NewNode("a", "A again"))
	if err := dup.Validate(); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("duplicate id error = %v, want ErrMalformedInput", err)
	}

	untitled := NewGraph("")
	if err := untitled.Validate(); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("empty title error = %v, want ErrMalformedInput", err)
	}
}

func TestGraphQueries(t *testing.T) {
	g := NewGraph("T")
	g.AddNode(NewNode("hub", "Hub"))
	g.AddNode(NewNode("a", "A"))
	g.AddNode(NewNode("b", "B"))
	g.AddEdge(NewEdge("hub", "a", 1))
	g.AddEdge(NewEdge("hub", "b", 1))

	if got := g.Degree("hub"); got != 2 {
		t.Errorf("degree of hub = %d, want 2", got)
	}
	if got := g.Degree("a"); got != 1 {
		t.Errorf("degree of a = %d, want 1", got)
	}

	idx := g.NodeIndex()
	if idx["hub"] != 0 || idx["b"] != 2 {
		t.Errorf("index = %v", idx)
	}

	if _, err := g.FindNodeByID("ghost"); err == nil {
		t.Error("expected an error for a missing id")
	}
}
