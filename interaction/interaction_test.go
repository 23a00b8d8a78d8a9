package interaction

import (
	"math"
	"testing"

	"github.com/TFMV/wikiforce/graph"
	"github.com/TFMV/wikiforce/models"
	"github.com/TFMV/wikiforce/physics"
)

func newSim(t *testing.T) (*physics.Simulation, *models.Graph) {
	t.Helper()
	g, err := graph.Build("Root", []string{"A", "B", "C", "D"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	sim := physics.New(models.DefaultParameters(), 42)
	sim.Load(g)
	return sim, g
}

func TestDragLifecycle(t *testing.T) {
	sim, g := newSim(t)
	c := NewController(sim)

	c.BeginDrag("A", 50, 60)
	sim.Tick()
	n, err := g.FindNodeByID("A")
	if err != nil {
		t.Fatal(err)
	}
	if !n.Pinned || n.X != 50 || n.Y != 60 {
		t.Fatalf("after BeginDrag node = %+v, want pinned at (50, 60)", n)
	}

	c.UpdateDrag("A", -20, 35)
	sim.Tick()
	if n.X != -20 || n.Y != 35 {
		t.Fatalf("after UpdateDrag node at (%v, %v), want (-20, 35)", n.X, n.Y)
	}

	c.EndDrag("A")
	sim.Tick()
	if n.Pinned {
		t.Fatal("node still pinned after EndDrag")
	}
}

func TestEndDragAllowsResettle(t *testing.T) {
	sim, _ := newSim(t)
	c := NewController(sim)

	c.BeginDrag("B", 100, 100)
	for i := 0; i < 50; i++ {
		sim.Tick()
	}
	c.EndDrag("B")

	settled := false
	for i := 0; i < 2000; i++ {
		if sim.Tick() {
			settled = true
			break
		}
	}
	if !settled {
		t.Fatal("simulation did not settle after drag ended")
	}
}

func TestViewApply(t *testing.T) {
	v := View{TranslateX: 10, TranslateY: -5, Scale: 2}
	x, y := v.Apply(3, 4)
	if x != 16 || y != 3 {
		t.Fatalf("Apply(3, 4) = (%v, %v), want (16, 3)", x, y)
	}
}

func TestPan(t *testing.T) {
	sim, _ := newSim(t)
	c := NewController(sim)

	c.Pan(12, -7)
	c.Pan(3, 2)
	v := c.View()
	if v.TranslateX != 15 || v.TranslateY != -5 {
		t.Fatalf("view after pans = %+v", v)
	}
	if v.Scale != 1.0 {
		t.Fatalf("pan changed scale to %v", v.Scale)
	}
}

func TestZoomClamped(t *testing.T) {
	sim, _ := newSim(t)
	c := NewController(sim)

	for i := 0; i < 20; i++ {
		c.ZoomAt(2.0, 0, 0)
	}
	if got := c.View().Scale; got != MaxScale {
		t.Fatalf("scale after zooming in = %v, want clamped to %v", got, MaxScale)
	}

	for i := 0; i < 40; i++ {
		c.ZoomAt(0.5, 0, 0)
	}
	if got := c.View().Scale; got != MinScale {
		t.Fatalf("scale after zooming out = %v, want clamped to %v", got, MinScale)
	}
}

func TestZoomKeepsAnchorFixed(t *testing.T) {
	sim, _ := newSim(t)
	c := NewController(sim)

	// A simulation point rendered at the anchor must stay at the anchor
	// through a zoom.
	const anchorX, anchorY = 300.0, 200.0
	v := c.View()
	simX := (anchorX - v.TranslateX) / v.Scale
	simY := (anchorY - v.TranslateY) / v.Scale

	c.ZoomAt(1.5, anchorX, anchorY)

	gotX, gotY := c.View().Apply(simX, simY)
	if math.Abs(gotX-anchorX) > 1e-9 || math.Abs(gotY-anchorY) > 1e-9 {
		t.Fatalf("anchor moved to (%v, %v), want (%v, %v)", gotX, gotY, anchorX, anchorY)
	}
}

func TestZoomDoesNotTouchSimulationCoordinates(t *testing.T) {
	sim, g := newSim(t)
	c := NewController(sim)

	type pos struct{ x, y float64 }
	before := make(map[string]pos)
	for i := range g.Nodes {
		before[g.Nodes[i].ID] = pos{g.Nodes[i].X, g.Nodes[i].Y}
	}

	c.ZoomAt(2.0, 100, 100)
	c.Pan(50, 50)

	for i := range g.Nodes {
		n := &g.Nodes[i]
		if before[n.ID] != (pos{n.X, n.Y}) {
			t.Fatalf("view transform mutated simulation position of %s", n.ID)
		}
	}
}

func TestSetViewClampsScale(t *testing.T) {
	sim, _ := newSim(t)
	c := NewController(sim)

	c.SetView(View{Scale: 100})
	if got := c.View().Scale; got != MaxScale {
		t.Fatalf("scale = %v, want %v", got, MaxScale)
	}
	c.Reset()
	if v := c.View(); v.Scale != 1.0 || v.TranslateX != 0 || v.TranslateY != 0 {
		t.Fatalf("view after reset = %+v", v)
	}
}
