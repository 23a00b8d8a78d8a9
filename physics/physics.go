// Package physics implements the force-directed layout simulation: spring
// forces along edges, many-body charge between all node pairs, and a
// short-range collision force, integrated tick by tick under a decaying
// alpha until the layout settles.
package physics

import (
	"math"
	"math/rand"
	"sync"

	"github.com/TFMV/wikiforce/models"
)

// State identifies where the simulation is in its lifecycle.
type State int

const (
	Uninitialized State = iota
	Running
	Settled
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Settled:
		return "settled"
	default:
		return "uninitialized"
	}
}

const (
	// alphaMin is the convergence threshold: once alpha decays below it the
	// simulation transitions to Settled.
	alphaMin = 0.001

	// reheatAlpha is the energy restored on a parameter change.
	reheatAlpha = 0.5

	// DragAlphaTarget is the alpha target held while a node is dragged so
	// the rest of the layout keeps reacting to the pin.
	DragAlphaTarget = 0.3

	// exactPairwiseLimit is the node count above which the charge force
	// switches from exact pairwise summation to the Barnes-Hut quadtree.
	exactPairwiseLimit = 64

	// springStrength is the stiffness of the link spring force.
	springStrength = 0.1

	minDistance = 1e-3
)

// Position is a point in simulation space.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Snapshot is the per-tick output contract: every node's current position
// plus whether the layout has settled.
type Snapshot struct {
	Positions  map[string]Position `json:"positions"`
	Stabilized bool                `json:"stabilized"`
}

// link is a resolved edge: indices into the node slice. Edges are stored as
// identifier pairs; the engine owns this index and never keeps node pointers
// on edges.
type link struct {
	source int
	target int
	weight float64
}

// pinWrite is a latched drag update. Writes are queued by the interaction
// layer and consumed at the start of the next tick, never mid-integration.
type pinWrite struct {
	index int
	x, y  float64
	unpin bool
}

// Simulation iteratively positions the nodes of one graph. It is discarded,
// never merged, when a new graph arrives: create a fresh Simulation (or call
// Load, which reinitializes everything) per query.
type Simulation struct {
	mu          sync.Mutex
	graph       *models.Graph
	index       map[string]int
	links       []link
	params      models.Parameters
	alpha       float64
	alphaTarget float64
	state       State
	rng         *rand.Rand
	pending     []pinWrite
	onStabilize func()
}

// New creates a simulation with the given parameters and seed. The seed
// drives initial node placement only; every subsequent tick is deterministic
// given the current state.
func New(params models.Parameters, seed int64) *Simulation {
	return &Simulation{
		params: params,
		rng:    rand.New(rand.NewSource(seed)),
		state:  Uninitialized,
	}
}

// Load replaces the current graph wholesale: positions are reseeded, all
// velocities zeroed, alpha reset to 1.0. Nothing survives from a previously
// loaded graph. A zero-node graph leaves the simulation Uninitialized.
func (s *Simulation) Load(g *models.Graph) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.graph = g
	s.pending = nil
	s.alphaTarget = 0

	if g == nil || len(g.Nodes) == 0 {
		s.index = nil
		s.links = nil
		s.alpha = 0
		s.state = Uninitialized
		return
	}

	s.index = g.NodeIndex()

	// Seed positions in a disc sized to the graph so the first ticks do not
	// fling nodes apart from a single point.
	radius := s.params.LinkDistance * math.Sqrt(float64(len(g.Nodes)))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		angle := s.rng.Float64() * 2 * math.Pi
		r := radius * math.Sqrt(s.rng.Float64())
		n.X = r * math.Cos(angle)
		n.Y = r * math.Sin(angle)
		n.VX, n.VY = 0, 0
		n.Pinned = false
		n.FX, n.FY = 0, 0
	}

	s.links = make([]link, 0, len(g.Edges))
	for _, e := range g.Edges {
		si, sok := s.index[e.Source]
		ti, tok := s.index[e.Target]
		if !sok || !tok {
			// Validated at construction; a dangling edge here is a bug in
			// the caller, not something to lay out.
			continue
		}
		s.links = append(s.links, link{source: si, target: ti, weight: e.Weight})
	}

	s.alpha = 1.0
	s.state = Running
}

// SetParameters replaces the parameter set wholesale and re-energizes the
// simulation so the new values visibly take effect on a settled layout.
func (s *Simulation) SetParameters(p models.Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	if s.state != Uninitialized && s.alpha < reheatAlpha {
		s.alpha = reheatAlpha
	}
	if s.state == Settled {
		s.state = Running
	}
	return nil
}

// Parameters returns the active parameter set.
func (s *Simulation) Parameters() models.Parameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// Pin latches a pinned position for a node; the write is applied at the
// start of the next tick. Unknown IDs are ignored.
func (s *Simulation) Pin(id string, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.pending = append(s.pending, pinWrite{index: i, x: x, y: y})
}

// Unpin latches the release of a node's pinned position.
func (s *Simulation) Unpin(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[id]
	if !ok {
		return
	}
	s.pending = append(s.pending, pinWrite{index: i, unpin: true})
}

// SetAlphaTarget adjusts the alpha floor the simulation decays toward. A
// positive target on a settled simulation resumes it.
func (s *Simulation) SetAlphaTarget(target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alphaTarget = target
	if s.state == Settled && target > alphaMin {
		s.state = Running
	}
}

// Alpha returns the current energy level.
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// State returns the current lifecycle state.
func (s *Simulation) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnStabilize registers a callback fired once per Running → Settled
// transition, from inside Tick.
func (s *Simulation) OnStabilize(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onStabilize = fn
}

// Tick advances the simulation by one step and reports whether the layout
// is settled. Latched drag writes are consumed first, then forces are
// summed and integrated for every free node. One call fully completes
// before the next begins; there is no intra-tick concurrency.
func (s *Simulation) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Uninitialized {
		return false
	}

	s.drainPins()

	if s.state == Settled {
		return true
	}

	s.alpha += (s.alphaTarget - s.alpha) * s.params.AlphaDecay

	nodes := s.graph.Nodes
	fx := make([]float64, len(nodes))
	fy := make([]float64, len(nodes))

	s.applyLinkForce(fx, fy)
	s.applyChargeForce(fx, fy)
	s.applyCollisionForce(fx, fy)

	damping := 1.0 - s.params.VelocityDecay
	for i := range nodes {
		n := &nodes[i]
		if n.Pinned {
			n.X, n.Y = n.FX, n.FY
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX = (n.VX + fx[i]) * damping
		n.VY = (n.VY + fy[i]) * damping
		n.X += n.VX * s.alpha
		n.Y += n.VY * s.alpha
	}

	if s.alpha < alphaMin && s.alphaTarget < alphaMin {
		s.state = Settled
		if s.onStabilize != nil {
			fn := s.onStabilize
			s.mu.Unlock()
			fn()
			s.mu.Lock()
		}
		return true
	}
	return false
}

// Snapshot returns the per-tick output: node ID → position, plus the
// stabilized flag.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Positions:  make(map[string]Position),
		Stabilized: s.state == Settled,
	}
	if s.graph == nil {
		return snap
	}
	for i := range s.graph.Nodes {
		n := &s.graph.Nodes[i]
		snap.Positions[n.ID] = Position{X: n.X, Y: n.Y}
	}
	return snap
}

// drainPins applies all latched drag writes. Caller holds the lock.
func (s *Simulation) drainPins() {
	for _, w := range s.pending {
		n := &s.graph.Nodes[w.index]
		if w.unpin {
			n.Pinned = false
			n.FX, n.FY = 0, 0
			continue
		}
		n.Pinned = true
		n.FX, n.FY = w.x, w.y
		n.X, n.Y = w.x, w.y
		n.VX, n.VY = 0, 0
	}
	s.pending = s.pending[:0]
}

// applyLinkForce adds a spring force along every edge, proportional to the
// deviation from the configured rest length.
func (s *Simulation) applyLinkForce(fx, fy []float64) {
	nodes := s.graph.Nodes
	for _, l := range s.links {
		src := &nodes[l.source]
		tgt := &nodes[l.target]

		dx := tgt.X - src.X
		dy := tgt.Y - src.Y
		dist := math.Max(minDistance, math.Hypot(dx, dy))

		f := springStrength * (dist - s.params.LinkDistance) * l.weight
		ux, uy := dx/dist, dy/dist

		fx[l.source] += ux * f / 2
		fy[l.source] += uy * f / 2
		fx[l.target] -= ux * f / 2
		fy[l.target] -= uy * f / 2
	}
}

// applyChargeForce adds the many-body force: every pair of nodes repels
// (negative strength) or attracts (positive) with magnitude inversely
// proportional to their distance. Small graphs use exact pairwise
// summation; larger ones go through the Barnes-Hut quadtree.
func (s *Simulation) applyChargeForce(fx, fy []float64) {
	if s.params.ChargeStrength == 0 {
		return
	}
	nodes := s.graph.Nodes
	if len(nodes) <= exactPairwiseLimit {
		for i := range nodes {
			for j := i + 1; j < len(nodes); j++ {
				dx := nodes[i].X - nodes[j].X
				dy := nodes[i].Y - nodes[j].Y
				d2 := math.Max(minDistance, dx*dx+dy*dy)

				// F = -strength / d along the pair axis; components carry
				// an extra 1/d from normalizing the direction vector.
				f := -s.params.ChargeStrength / d2
				fx[i] += dx * f
				fy[i] += dy * f
				fx[j] -= dx * f
				fy[j] -= dy * f
			}
		}
		return
	}

	qt := buildQuadtree(nodes)
	for i := range nodes {
		ax, ay := qt.accumulate(nodes[i].X, nodes[i].Y, s.params.ChargeStrength)
		fx[i] += ax
		fy[i] += ay
	}
}

// applyCollisionForce pushes apart node pairs closer than twice the
// collision radius, scaled by the collision strength.
func (s *Simulation) applyCollisionForce(fx, fy []float64) {
	r := s.params.CollisionRadius
	if r <= 0 || s.params.CollisionStrength <= 0 {
		return
	}
	minSep := 2 * r
	nodes := s.graph.Nodes
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			dx := nodes[i].X - nodes[j].X
			dy := nodes[i].Y - nodes[j].Y
			dist := math.Max(minDistance, math.Hypot(dx, dy))
			if dist >= minSep {
				continue
			}
			overlap := (minSep - dist) / dist * s.params.CollisionStrength
			fx[i] += dx * overlap / 2
			fy[i] += dy * overlap / 2
			fx[j] -= dx * overlap / 2
			fy[j] -= dy * overlap / 2
		}
	}
}
