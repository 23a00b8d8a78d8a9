package physics

import (
	"math"

	"github.com/TFMV/wikiforce/models"
	"gonum.org/v1/gonum/spatial/r2"
)

// theta2 is the squared Barnes-Hut opening angle: a cell is treated as a
// single point charge when (cellSize / distance)² < theta2.
const theta2 = 0.81

// quadtree is a Barnes-Hut approximation of the many-body charge force.
// Each internal cell aggregates the centroid and count of the points below
// it, so a far-away cluster contributes one force term instead of one per
// node.
type quadtree struct {
	root *quadCell
}

type quadCell struct {
	// Square region covered by the cell.
	origin r2.Vec
	size   float64

	// Aggregate of all points in the cell.
	centroid r2.Vec
	count    int

	// Leaf payload; a leaf holds exactly one point.
	point r2.Vec

	children [4]*quadCell
}

// buildQuadtree constructs the tree over the current node positions.
func buildQuadtree(nodes []models.Node) *quadtree {
	if len(nodes) == 0 {
		return &quadtree{}
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := range nodes {
		minX = math.Min(minX, nodes[i].X)
		minY = math.Min(minY, nodes[i].Y)
		maxX = math.Max(maxX, nodes[i].X)
		maxY = math.Max(maxY, nodes[i].Y)
	}
	size := math.Max(maxX-minX, maxY-minY)
	if size == 0 {
		size = 1
	}

	qt := &quadtree{root: &quadCell{
		origin: r2.Vec{X: minX, Y: minY},
		size:   size,
	}}
	for i := range nodes {
		qt.root.insert(r2.Vec{X: nodes[i].X, Y: nodes[i].Y}, 0)
	}
	return qt
}

func (c *quadCell) insert(p r2.Vec, depth int) {
	// Running centroid over everything under this cell.
	c.centroid = r2.Scale(1/float64(c.count+1), r2.Add(r2.Scale(float64(c.count), c.centroid), p))
	c.count++

	if c.count == 1 {
		c.point = p
		return
	}

	// Coincident points would recurse forever; past a sane depth the cell
	// just aggregates.
	if depth > 32 {
		return
	}

	if c.count == 2 {
		// Was a leaf; push the resident point down.
		c.childFor(c.point).insert(c.point, depth+1)
	}
	c.childFor(p).insert(p, depth+1)
}

func (c *quadCell) childFor(p r2.Vec) *quadCell {
	half := c.size / 2
	qx, qy := 0, 0
	if p.X >= c.origin.X+half {
		qx = 1
	}
	if p.Y >= c.origin.Y+half {
		qy = 1
	}
	i := qy*2 + qx
	if c.children[i] == nil {
		c.children[i] = &quadCell{
			origin: r2.Vec{
				X: c.origin.X + float64(qx)*half,
				Y: c.origin.Y + float64(qy)*half,
			},
			size: half,
		}
	}
	return c.children[i]
}

// accumulate sums the charge force exerted on a point at (x, y) by every
// other node, approximating distant cells by their aggregate centroid.
func (qt *quadtree) accumulate(x, y float64, strength float64) (float64, float64) {
	if qt.root == nil {
		return 0, 0
	}
	f := qt.root.force(r2.Vec{X: x, Y: y}, strength)
	return f.X, f.Y
}

func (c *quadCell) force(p r2.Vec, strength float64) r2.Vec {
	if c == nil || c.count == 0 {
		return r2.Vec{}
	}

	d := r2.Sub(p, c.centroid)
	d2 := d.X*d.X + d.Y*d.Y

	// Far enough, or a leaf: treat the whole cell as one charge. The point
	// itself contributes nothing (d2 ~ 0 on its own leaf is guarded below).
	if c.count == 1 || (c.size*c.size)/d2 < theta2 {
		if d2 < minDistance {
			return r2.Vec{}
		}
		return r2.Scale(-strength*float64(c.count)/d2, d)
	}

	var sum r2.Vec
	for _, child := range c.children {
		if child != nil {
			sum = r2.Add(sum, child.force(p, strength))
		}
	}
	return sum
}
