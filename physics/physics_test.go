package physics

import (
	"fmt"
	"math"
	"testing"

	"github.com/TFMV/wikiforce/graph"
	"github.com/TFMV/wikiforce/models"
)

func starGraph(t *testing.T, n int) *models.Graph {
	t.Helper()
	links := make([]string, 0, n-1)
	for i := 1; i < n; i++ {
		links = append(links, fmt.Sprintf("Link %d", i))
	}
	g, err := graph.Build("Root", links)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestLoadInitializesAllNodes(t *testing.T) {
	g := starGraph(t, 15)
	sim := New(models.DefaultParameters(), 42)
	sim.Load(g)

	if got := sim.State(); got != Running {
		t.Fatalf("state after load = %v, want running", got)
	}
	if got := sim.Alpha(); got != 1.0 {
		t.Fatalf("alpha after load = %v, want 1.0", got)
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if math.IsNaN(n.X) || math.IsInf(n.X, 0) || math.IsNaN(n.Y) || math.IsInf(n.Y, 0) {
			t.Errorf("node %s has non-finite position (%v, %v)", n.ID, n.X, n.Y)
		}
		if n.VX != 0 || n.VY != 0 {
			t.Errorf("node %s has nonzero initial velocity (%v, %v)", n.ID, n.VX, n.VY)
		}
	}
}

func TestZeroNodeGraphStaysUninitialized(t *testing.T) {
	sim := New(models.DefaultParameters(), 1)
	sim.Load(models.NewGraph("Empty"))

	if got := sim.State(); got != Uninitialized {
		t.Fatalf("state = %v, want uninitialized", got)
	}
	if sim.Tick() {
		t.Fatal("Tick on an uninitialized simulation reported settled")
	}
	snap := sim.Snapshot()
	if len(snap.Positions) != 0 || snap.Stabilized {
		t.Fatalf("unexpected snapshot for empty graph: %+v", snap)
	}
}

func TestFullDampingCausesNoDrift(t *testing.T) {
	// With all forces zeroed and velocityDecay = 1, positions must not move.
	g, err := graph.Build("Root", []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	g.Edges = nil // no link force

	params := models.Parameters{
		LinkDistance:      50,
		ChargeStrength:    0,
		CollisionRadius:   0,
		CollisionStrength: 0,
		VelocityDecay:     1,
		AlphaDecay:        0.02,
	}
	sim := New(params, 7)
	sim.Load(g)

	before := sim.Snapshot()
	for i := 0; i < 50; i++ {
		sim.Tick()
	}
	after := sim.Snapshot()

	for id, p0 := range before.Positions {
		p1 := after.Positions[id]
		if p0 != p1 {
			t.Errorf("node %s drifted from %+v to %+v", id, p0, p1)
		}
	}
}

func TestSpringConvergesToLinkDistance(t *testing.T) {
	const L = 50.0

	g, err := graph.Build("Root", []string{"Leaf"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	params := models.Parameters{
		LinkDistance:      L,
		ChargeStrength:    0,
		CollisionRadius:   0,
		CollisionStrength: 0,
		VelocityDecay:     0.4,
		AlphaDecay:        0.0228,
	}
	sim := New(params, 42)
	sim.Load(g)

	for i := 0; i < 1000; i++ {
		if sim.Tick() {
			break
		}
	}

	a, b := &g.Nodes[0], &g.Nodes[1]
	dist := math.Hypot(a.X-b.X, a.Y-b.Y)
	if math.Abs(dist-L) > 1.0 {
		t.Fatalf("settled distance = %v, want %v ± 1.0", dist, L)
	}
}

func TestPinnedNodeTracksPointer(t *testing.T) {
	g := starGraph(t, 10)
	sim := New(models.DefaultParameters(), 3)
	sim.Load(g)

	sim.Pin("Root", 10, 20)
	sim.SetAlphaTarget(DragAlphaTarget)
	sim.Tick()

	moves := []struct{ x, y float64 }{
		{15, 25}, {100, -40}, {-3.5, 0.25}, {100, 100},
	}
	for _, m := range moves {
		sim.Pin("Root", m.x, m.y)
		sim.Tick()
		root, err := g.FindNodeByID("Root")
		if err != nil {
			t.Fatal(err)
		}
		if root.X != m.x || root.Y != m.y {
			t.Fatalf("pinned node at (%v, %v), want pointer position (%v, %v)", root.X, root.Y, m.x, m.y)
		}
		if root.VX != 0 || root.VY != 0 {
			t.Fatalf("pinned node has velocity (%v, %v)", root.VX, root.VY)
		}
	}
}

func TestPinnedNodeHoldsThroughOtherMotion(t *testing.T) {
	g := starGraph(t, 12)
	sim := New(models.DefaultParameters(), 9)
	sim.Load(g)

	sim.Pin("Link 3", -30, 40)
	for i := 0; i < 100; i++ {
		sim.Tick()
	}
	n, err := g.FindNodeByID("Link 3")
	if err != nil {
		t.Fatal(err)
	}
	if n.X != -30 || n.Y != 40 {
		t.Fatalf("pinned node moved to (%v, %v)", n.X, n.Y)
	}
}

func TestSettlesWithinBoundedTicks(t *testing.T) {
	g := starGraph(t, 20)
	sim := New(models.DefaultParameters(), 11)
	sim.Load(g)

	settledAt := -1
	for i := 0; i < 2000; i++ {
		if sim.Tick() {
			settledAt = i
			break
		}
	}
	if settledAt < 0 {
		t.Fatal("simulation never settled within 2000 ticks")
	}
	if got := sim.State(); got != Settled {
		t.Fatalf("state = %v, want settled", got)
	}
	if !sim.Snapshot().Stabilized {
		t.Fatal("snapshot does not report stabilized")
	}
}

func TestStabilizedSignalFiresOnce(t *testing.T) {
	g := starGraph(t, 8)
	sim := New(models.DefaultParameters(), 5)
	sim.Load(g)

	fired := 0
	sim.OnStabilize(func() { fired++ })

	for i := 0; i < 2000; i++ {
		sim.Tick()
	}
	if fired != 1 {
		t.Fatalf("stabilized signal fired %d times, want exactly 1", fired)
	}
}

func TestDragResumesSettledSimulation(t *testing.T) {
	g := starGraph(t, 10)
	sim := New(models.DefaultParameters(), 13)
	sim.Load(g)

	for i := 0; i < 2000; i++ {
		if sim.Tick() {
			break
		}
	}
	if sim.State() != Settled {
		t.Fatal("simulation did not settle")
	}

	// Drag start: pin plus a raised alpha target resumes motion.
	sim.Pin("Link 1", 500, 500)
	sim.SetAlphaTarget(DragAlphaTarget)
	if sim.State() != Running {
		t.Fatalf("state after drag start = %v, want running", sim.State())
	}

	for i := 0; i < 20; i++ {
		if sim.Tick() {
			t.Fatal("simulation settled while drag alpha target is held")
		}
	}

	// Drag end relaxes the target; the layout re-settles.
	sim.Unpin("Link 1")
	sim.SetAlphaTarget(0)
	settled := false
	for i := 0; i < 2000; i++ {
		if sim.Tick() {
			settled = true
			break
		}
	}
	if !settled {
		t.Fatal("simulation did not re-settle after drag end")
	}
}

func TestParameterChangeReenergizes(t *testing.T) {
	g := starGraph(t, 10)
	sim := New(models.DefaultParameters(), 17)
	sim.Load(g)

	for i := 0; i < 2000; i++ {
		if sim.Tick() {
			break
		}
	}
	if sim.State() != Settled {
		t.Fatal("simulation did not settle")
	}

	params := models.DefaultParameters()
	params.LinkDistance = 200
	if err := sim.SetParameters(params); err != nil {
		t.Fatalf("SetParameters: %v", err)
	}
	if sim.State() != Running {
		t.Fatalf("state after parameter change = %v, want running", sim.State())
	}
	if sim.Alpha() < 0.5 {
		t.Fatalf("alpha after parameter change = %v, want >= 0.5", sim.Alpha())
	}
}

func TestSetParametersRejectsInvalid(t *testing.T) {
	sim := New(models.DefaultParameters(), 1)
	bad := models.DefaultParameters()
	bad.LinkDistance = -10
	if err := sim.SetParameters(bad); err == nil {
		t.Fatal("expected an error for negative link distance")
	}
}

func TestNewGraphReplacesOldStateWholesale(t *testing.T) {
	sim := New(models.DefaultParameters(), 23)

	first := starGraph(t, 10)
	sim.Load(first)
	for i := 0; i < 2000; i++ {
		if sim.Tick() {
			break
		}
	}
	firstPositions := sim.Snapshot().Positions

	second := starGraph(t, 10)
	sim.Load(second)

	if got := sim.Alpha(); got != 1.0 {
		t.Fatalf("alpha after reload = %v, want 1.0", got)
	}
	if got := sim.State(); got != Running {
		t.Fatalf("state after reload = %v, want running", got)
	}

	snap := sim.Snapshot()
	same := 0
	for id, p := range snap.Positions {
		if prev, ok := firstPositions[id]; ok && prev == p {
			same++
		}
	}
	if same == len(snap.Positions) {
		t.Fatal("reloaded graph reused the previous graph's final positions")
	}
	for id, p := range snap.Positions {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) {
			t.Fatalf("node %s has NaN position after reload", id)
		}
	}
}

func TestTickDeterminism(t *testing.T) {
	run := func() Snapshot {
		g := starGraph(t, 15)
		sim := New(models.DefaultParameters(), 99)
		sim.Load(g)
		for i := 0; i < 200; i++ {
			sim.Tick()
		}
		return sim.Snapshot()
	}

	a, b := run(), run()
	for id, p := range a.Positions {
		if b.Positions[id] != p {
			t.Fatalf("node %s diverged between identical runs: %+v vs %+v", id, p, b.Positions[id])
		}
	}
}

func TestRepulsionSeparatesUnlinkedNodes(t *testing.T) {
	g, err := graph.Build("Root", []string{"A", "B"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	params := models.DefaultParameters()
	sim := New(params, 31)
	sim.Load(g)

	// A and B are not linked to each other; charge should keep them apart.
	for i := 0; i < 2000; i++ {
		if sim.Tick() {
			break
		}
	}
	a, _ := g.FindNodeByID("A")
	b, _ := g.FindNodeByID("B")
	if d := math.Hypot(a.X-b.X, a.Y-b.Y); d < 2*params.CollisionRadius {
		t.Fatalf("unlinked nodes ended up %v apart, want at least %v", d, 2*params.CollisionRadius)
	}
}
