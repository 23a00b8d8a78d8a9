// Package graph builds a models.Graph from an article and its outbound links.
package graph

import (
	"fmt"
	"math"
	"strings"

	"github.com/TFMV/wikiforce/models"
)

// Palette colors cycled across link nodes. The root article always gets
// rootColor.
var (
	rootColor  = "#EA4335"
	linkColors = []string{
		"#4285F4", // Blue
		"#FBBC05", // Yellow
		"#34A853", // Green
		"#673AB7", // Purple
		"#00BCD4", // Cyan
		"#FF5722", // Deep Orange
	}
)

// Build produces a star graph: one node for the article itself, one node per
// distinct linked title, and one edge per (article → linked title) pair.
// Duplicate link titles and self-loops collapse before node construction.
// An empty article title fails with models.ErrMalformedInput.
func Build(articleTitle string, linkedTitles []string) (*models.Graph, error) {
	articleTitle = strings.TrimSpace(articleTitle)
	if articleTitle == "" {
		return nil, fmt.Errorf("%w: empty article title", models.ErrMalformedInput)
	}

	g := models.NewGraph(articleTitle)

	root := models.NewNode(articleTitle, articleTitle)
	root.Color = rootColor
	g.AddNode(root)

	seen := map[string]struct{}{articleTitle: {}}
	for _, title := range linkedTitles {
		title = strings.TrimSpace(title)
		if title == "" {
			continue
		}
		if _, dup := seen[title]; dup {
			continue
		}
		seen[title] = struct{}{}

		node := models.NewNode(title, title)
		node.Color = linkColors[(len(g.Nodes)-1)%len(linkColors)]
		g.AddNode(node)

		if err := g.AddEdge(models.NewEdge(articleTitle, title, 1.0)); err != nil {
			return nil, err
		}
	}

	// Size nodes by connectivity so hubs render larger than leaves.
	for i := range g.Nodes {
		g.Nodes[i].Size = 1.0 + 0.5*math.Sqrt(float64(g.Degree(g.Nodes[i].ID)))
	}

	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// FromArticle is a convenience wrapper over Build for provider records.
func FromArticle(article *models.Article) (*models.Graph, error) {
	if article == nil {
		return nil, fmt.Errorf("%w: nil article", models.ErrMalformedInput)
	}
	return Build(article.Title, article.OutboundTitles)
}
