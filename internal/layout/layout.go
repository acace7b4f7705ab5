// Package layout computes node positions for the graph surface.
//
// Hierarchical, force-directed and circular layouts run on Graphviz (dot,
// fdp and circo). Grid and concentric placements are computed here.
// Every algorithm is deterministic: the same graph and options always yield
// the same positions, so re-running a layout never reshuffles a stable graph.
package layout

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Algorithm names.
const (
	Dagre        = "dagre"
	Cose         = "cose"
	Grid         = "grid"
	Circle       = "circle"
	Concentric   = "concentric"
	Breadthfirst = "breadthfirst"
)

// Default is the layout used when none is chosen.
const Default = Dagre

// ValidLayouts lists the supported layout algorithm names.
var ValidLayouts = []string{Dagre, Cose, Grid, Circle, Concentric, Breadthfirst}

// Point is a position in model coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge is a directed edge between two node ids.
type Edge struct {
	Source string
	Target string
}

// Graph is the input to a layout run. Node order is significant and is used
// to break ties.
type Graph struct {
	Nodes []string
	Edges []Edge
}

// Options tune a layout run.
type Options struct {
	// Roots are placed on the first rank of a breadth-first layout.
	Roots []string

	// Spacing is the distance between neighboring nodes. Zero uses 80.
	Spacing float64
}

// Positions maps node ids to points.
type Positions map[string]Point

// Validate checks if name is a supported layout.
func Validate(name string) error {
	for _, l := range ValidLayouts {
		if l == name {
			return nil
		}
	}
	return fmt.Errorf("invalid layout %q: must be one of %s", name, strings.Join(ValidLayouts, ", "))
}

// Run computes positions for every node of g.
func Run(name string, g Graph, opts Options) (Positions, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}
	if opts.Spacing <= 0 {
		opts.Spacing = 80
	}
	if len(g.Nodes) == 0 {
		return Positions{}, nil
	}
	g = g.clean()

	switch name {
	case Grid:
		return grid(g.Nodes, opts.Spacing), nil
	case Concentric:
		return concentric(g, opts.Spacing), nil
	default:
		return graphvizLayout(context.Background(), name, g, opts)
	}
}

// clean drops duplicate nodes and edges that reference unknown nodes.
func (g Graph) clean() Graph {
	seen := make(map[string]bool, len(g.Nodes))
	var nodes []string
	for _, n := range g.Nodes {
		if !seen[n] {
			seen[n] = true
			nodes = append(nodes, n)
		}
	}
	var edges []Edge
	for _, e := range g.Edges {
		if seen[e.Source] && seen[e.Target] {
			edges = append(edges, e)
		}
	}
	return Graph{Nodes: nodes, Edges: edges}
}

func grid(nodes []string, spacing float64) Positions {
	cols := int(math.Ceil(math.Sqrt(float64(len(nodes)))))
	pos := make(Positions, len(nodes))
	for i, n := range nodes {
		pos[n] = Point{X: float64(i%cols) * spacing, Y: float64(i/cols) * spacing}
	}
	return pos
}

// concentric places high-degree nodes in the center rings.
func concentric(g Graph, spacing float64) Positions {
	degree := make(map[string]int, len(g.Nodes))
	for _, e := range g.Edges {
		degree[e.Source]++
		degree[e.Target]++
	}
	order := append([]string(nil), g.Nodes...)
	sort.SliceStable(order, func(i, j int) bool { return degree[order[i]] > degree[order[j]] })

	pos := make(Positions, len(order))
	var ring []string
	radius := 0.0
	flush := func() {
		if len(ring) == 1 && radius == 0 {
			pos[ring[0]] = Point{}
		} else {
			for i, n := range ring {
				theta := 2*math.Pi*float64(i)/float64(len(ring)) - math.Pi/2
				pos[n] = Point{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
			}
		}
		radius += spacing
		ring = ring[:0]
	}
	for i, n := range order {
		if i > 0 && degree[n] != degree[order[i-1]] {
			flush()
		}
		ring = append(ring, n)
	}
	flush()
	return pos
}
