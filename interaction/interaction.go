// Package interaction translates pointer input into simulation pins and a
// view transform. Dragging pins a node to the pointer and re-energizes the
// layout; pan and zoom only move the rendered scene, never the simulation
// coordinates.
package interaction

import (
	"math"
	"sync"

	"github.com/TFMV/wikiforce/physics"
)

// Zoom bounds for the view transform scale.
const (
	MinScale = 0.1
	MaxScale = 4.0
)

// View is the affine transform applied to the whole rendered scene:
// translation plus uniform scale.
type View struct {
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Scale      float64 `json:"scale"`
}

// Apply maps a simulation-space point into view space.
func (v View) Apply(x, y float64) (float64, float64) {
	return x*v.Scale + v.TranslateX, y*v.Scale + v.TranslateY
}

// Controller owns the drag lifecycle and the view transform for one
// simulation.
type Controller struct {
	mu   sync.Mutex
	sim  *physics.Simulation
	view View
}

// NewController creates a controller over the given simulation with an
// identity view transform.
func NewController(sim *physics.Simulation) *Controller {
	return &Controller{
		sim:  sim,
		view: View{Scale: 1.0},
	}
}

// BeginDrag pins the node at the pointer position and raises the alpha
// target so the rest of the layout reacts to the pin. On a settled
// simulation this resumes motion.
func (c *Controller) BeginDrag(nodeID string, x, y float64) {
	c.sim.Pin(nodeID, x, y)
	c.sim.SetAlphaTarget(physics.DragAlphaTarget)
}

// UpdateDrag moves the pinned position to the pointer. The write is latched
// and consumed at the start of the next tick, so the dragged node tracks
// the pointer exactly while every other node moves by physics.
func (c *Controller) UpdateDrag(nodeID string, x, y float64) {
	c.sim.Pin(nodeID, x, y)
}

// EndDrag releases the node and relaxes the alpha target back to zero so
// the simulation can re-settle.
func (c *Controller) EndDrag(nodeID string) {
	c.sim.Unpin(nodeID)
	c.sim.SetAlphaTarget(0)
}

// View returns the current view transform.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// Pan shifts the view by a screen-space delta.
func (c *Controller) Pan(dx, dy float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.TranslateX += dx
	c.view.TranslateY += dy
}

// ZoomAt scales the view by factor around a screen-space anchor, keeping
// the point under the anchor fixed. The resulting scale is clamped to
// [MinScale, MaxScale].
func (c *Controller) ZoomAt(factor, anchorX, anchorY float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	scale := clampScale(c.view.Scale * factor)
	applied := scale / c.view.Scale

	c.view.TranslateX = anchorX + (c.view.TranslateX-anchorX)*applied
	c.view.TranslateY = anchorY + (c.view.TranslateY-anchorY)*applied
	c.view.Scale = scale
}

// SetView replaces the view transform, clamping the scale.
func (c *Controller) SetView(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v.Scale = clampScale(v.Scale)
	c.view = v
}

// Reset restores the identity transform.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = View{Scale: 1.0}
}

func clampScale(s float64) float64 {
	return math.Max(MinScale, math.Min(MaxScale, s))
}
