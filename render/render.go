// Package render maps simulation positions to drawable output. Renderers
// read the node and edge positions each tick and apply the interaction
// layer's view transform to the whole scene; they carry no layout logic of
// their own.
package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/TFMV/wikiforce/interaction"
	"github.com/TFMV/wikiforce/models"
	opensimplex "github.com/ojrac/opensimplex-go"
)

// OutputOptions controls rendering output.
type OutputOptions struct {
	Format         string
	Width          float64
	Height         float64
	Background     string
	View           interaction.View
	NoiseIntensity float64 // 0 disables the simplex distortion pass
	NoiseSeed      int64
	ShowLabels     bool
}

// NewDefaultOptions returns sensible defaults for the given format.
func NewDefaultOptions(format string) *OutputOptions {
	return &OutputOptions{
		Format:     format,
		Width:      1200,
		Height:     900,
		Background: "#f8f8f8",
		View:       interaction.View{Scale: 1.0},
		ShowLabels: true,
	}
}

// Renderer converts a graph's current positions into bytes in one format.
type Renderer interface {
	Render(graph *models.Graph, options *OutputOptions) ([]byte, error)
	Name() string
}

// GetRenderer returns a renderer by format name.
func GetRenderer(format string) (Renderer, error) {
	switch format {
	case "svg":
		return &SVGRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// Generate renders the graph with default options for the format.
func Generate(graph *models.Graph, format string) ([]byte, error) {
	r, err := GetRenderer(format)
	if err != nil {
		return nil, err
	}
	return r.Render(graph, NewDefaultOptions(format))
}

// scenePoint applies the optional noise distortion and the view transform
// to one simulation-space position, then recenters into the output frame.
func scenePoint(n *models.Node, options *OutputOptions, noise opensimplex.Noise) (float64, float64) {
	x, y := n.X, n.Y
	if noise != nil {
		// Purely cosmetic wobble; simulation coordinates are untouched.
		amount := options.NoiseIntensity * 12.0
		x += noise.Eval2(n.X*0.03, n.Y*0.03) * amount
		y += noise.Eval2(n.X*0.03+100, n.Y*0.03+100) * amount
	}
	x, y = options.View.Apply(x, y)
	return x + options.Width/2, y + options.Height/2
}

func noiseFor(options *OutputOptions) opensimplex.Noise {
	if options.NoiseIntensity <= 0 {
		return nil
	}
	return opensimplex.New(options.NoiseSeed)
}

// SVGRenderer produces a static SVG snapshot of the layout.
type SVGRenderer struct{}

func (r *SVGRenderer) Name() string { return "SVG Renderer" }

func (r *SVGRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	if graph == nil {
		return nil, fmt.Errorf("nil graph")
	}
	noise := noiseFor(options)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">`+"\n",
		options.Width, options.Height, options.Width, options.Height)
	fmt.Fprintf(&buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", options.Background)

	index := graph.NodeIndex()

	// Edges first so nodes draw on top.
	for _, e := range graph.Edges {
		si, sok := index[e.Source]
		ti, tok := index[e.Target]
		if !sok || !tok {
			return nil, fmt.Errorf("%w: edge %s -> %s references missing node", models.ErrMalformedInput, e.Source, e.Target)
		}
		x1, y1 := scenePoint(&graph.Nodes[si], options, noise)
		x2, y2 := scenePoint(&graph.Nodes[ti], options, noise)
		width := math.Max(0.5, e.Weight) * options.View.Scale
		fmt.Fprintf(&buf, `  <line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#999999" stroke-width="%.2f" stroke-opacity="0.6"/>`+"\n",
			x1, y1, x2, y2, width)
	}

	for i := range graph.Nodes {
		n := &graph.Nodes[i]
		x, y := scenePoint(n, options, noise)
		radius := (4 + 4*n.Size) * options.View.Scale
		fmt.Fprintf(&buf, `  <circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s" stroke="#ffffff" stroke-width="1.5"/>`+"\n",
			x, y, radius, n.Color)
		if options.ShowLabels {
			fontSize := 11.0 * options.View.Scale
			fmt.Fprintf(&buf, `  <text x="%.2f" y="%.2f" font-size="%.1f" font-family="Helvetica, Arial, sans-serif" fill="#333333">%s</text>`+"\n",
				x+radius+3, y+4, fontSize, escapeXML(n.Label))
		}
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

// JSONRenderer emits the layout as machine-readable JSON: transformed node
// positions, edge endpoints, and the active view transform.
type JSONRenderer struct{}

func (r *JSONRenderer) Name() string { return "JSON Renderer" }

type jsonNode struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Color string  `json:"color"`
}

type jsonEdge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

type jsonScene struct {
	Title string           `json:"title"`
	Nodes []jsonNode       `json:"nodes"`
	Edges []jsonEdge       `json:"edges"`
	View  interaction.View `json:"view"`
}

func (r *JSONRenderer) Render(graph *models.Graph, options *OutputOptions) ([]byte, error) {
	if graph == nil {
		return nil, fmt.Errorf("nil graph")
	}
	noise := noiseFor(options)

	scene := jsonScene{
		Title: graph.Title,
		Nodes: make([]jsonNode, 0, len(graph.Nodes)),
		Edges: make([]jsonEdge, 0, len(graph.Edges)),
		View:  options.View,
	}
	for i := range graph.Nodes {
		n := &graph.Nodes[i]
		x, y := scenePoint(n, options, noise)
		scene.Nodes = append(scene.Nodes, jsonNode{
			ID:    n.ID,
			Label: n.Label,
			X:     x,
			Y:     y,
			Color: n.Color,
		})
	}
	for _, e := range graph.Edges {
		scene.Edges = append(scene.Edges, jsonEdge{Source: e.Source, Target: e.Target})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(scene); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '&':
			buf.WriteString("&amp;")
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}
