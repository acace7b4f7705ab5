// Package depgraph computes the element sets served for graph queries:
// projection under collapse flags, bounded traversal from a root, and
// node classification.
package depgraph

import (
	"sort"
	"strings"

	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"

	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/pom"
	"github.com/matsen/depviz/internal/query"
)

// Edge is an atomic dependency between two artifact keys.
type Edge struct {
	From     string
	To       string
	Scope    string
	Optional bool
}

// Request selects what Build returns.
type Request struct {
	RootID    string
	Direction query.Direction
	Collapse  gav.Collapse
	Depth     int
}

// Graph is a directed graph over node ids, kept in first-seen order.
type Graph struct {
	nodes []string
	index map[string]int
	edges []mergedEdge
	pairs map[[2]string]int
}

type mergedEdge struct {
	from, to string
	scopes   map[string]bool
	optional bool
}

func newGraph() *Graph {
	return &Graph{
		index: make(map[string]int),
		pairs: make(map[[2]string]int),
	}
}

func (g *Graph) addNode(id string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.nodes)
	g.nodes = append(g.nodes, id)
}

// addEdge merges parallel edges: scopes are unioned and optional is true if
// any merged edge is. Self-loops are dropped.
func (g *Graph) addEdge(from, to, scope string, optional bool) {
	if from == to {
		return
	}
	g.addNode(from)
	g.addNode(to)
	if scope == "" {
		scope = pom.DefaultScope
	}
	key := [2]string{from, to}
	if i, ok := g.pairs[key]; ok {
		g.edges[i].scopes[scope] = true
		g.edges[i].optional = g.edges[i].optional || optional
		return
	}
	g.pairs[key] = len(g.edges)
	g.edges = append(g.edges, mergedEdge{from: from, to: to, scopes: map[string]bool{scope: true}, optional: optional})
}

// Project builds the graph of nodes and edges projected under c. Every
// atomic node maps to exactly one projected node.
func Project(nodes []string, edges []Edge, c gav.Collapse) *Graph {
	g := newGraph()
	for _, n := range nodes {
		g.addNode(gav.ProjectKey(n, c))
	}
	for _, e := range edges {
		g.addEdge(gav.ProjectKey(e.From, c), gav.ProjectKey(e.To, c), e.Scope, e.Optional)
	}
	return g
}

// Has reports whether id is a node.
func (g *Graph) Has(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// directed returns g as a gonum graph with node ids equal to first-seen
// positions, edges reversed for the reverse direction.
func (g *Graph) directed(dir query.Direction) *simple.DirectedGraph {
	d := simple.NewDirectedGraph()
	for i := range g.nodes {
		d.AddNode(simple.Node(i))
	}
	for _, e := range g.edges {
		from, to := g.index[e.from], g.index[e.to]
		if dir == query.Reverse {
			from, to = to, from
		}
		d.SetEdge(simple.Edge{F: simple.Node(from), T: simple.Node(to)})
	}
	return d
}

// Within returns the nodes reachable from root in direction, at most depth
// hops away. Zero depth is unbounded.
func (g *Graph) Within(root string, dir query.Direction, depth int) map[string]bool {
	seen := map[string]bool{root: true}
	start, ok := g.index[root]
	if !ok {
		return seen
	}
	bf := traverse.BreadthFirst{
		Visit: func(n gonum.Node) { seen[g.nodes[n.ID()]] = true },
	}
	var until func(gonum.Node, int) bool
	if depth > 0 {
		// nodes at depth are visited when their parents expand; stop
		// before expanding them
		until = func(_ gonum.Node, d int) bool { return d >= depth }
	}
	bf.Walk(g.directed(dir), simple.Node(start), until)
	return seen
}

// Ancestors returns every node with a path to id, excluding id.
func (g *Graph) Ancestors(id string) map[string]bool {
	all := g.Within(id, query.Reverse, 0)
	delete(all, id)
	return all
}

// Build answers a graph request. Without a root the whole projected graph
// is returned and depth and direction are ignored. An unknown root yields
// an empty element set.
func Build(nodes []string, edges []Edge, req Request) graph.Elements {
	g := Project(nodes, edges, req.Collapse)

	var root string
	var visible, highlight map[string]bool
	if req.RootID != "" {
		root = gav.ProjectKey(req.RootID, req.Collapse)
		if !g.Has(root) {
			return graph.Elements{}
		}
		visible = g.Within(root, req.Direction, req.Depth)
		if req.Direction == query.Reverse {
			highlight = g.Ancestors(root)
		}
	}

	var out graph.Elements
	for _, id := range g.nodes {
		if visible != nil && !visible[id] {
			continue
		}
		out.Nodes = append(out.Nodes, node(id, id == root, highlight[id]))
	}
	for _, e := range g.edges {
		if visible != nil && (!visible[e.from] || !visible[e.to]) {
			continue
		}
		out.Edges = append(out.Edges, graph.Edge{
			ID:       graph.EdgeID(e.from, e.to),
			Source:   e.from,
			Target:   e.to,
			Scope:    joinScopes(e.scopes),
			Optional: e.optional,
		})
	}
	return out
}

func node(id string, root, highlight bool) graph.Node {
	n := graph.Node{ID: id, Label: gav.Label(id)}
	if r, ok := gav.Parse(id); ok {
		n.GroupID = blankWildcard(r.GroupID)
		n.ArtifactID = blankWildcard(r.ArtifactID)
		n.Version = blankWildcard(r.Version)
	}
	if root {
		n.Classes = append(n.Classes, graph.ClassRoot)
	}
	if highlight {
		n.Classes = append(n.Classes, graph.ClassHighlight)
	}
	if gav.IsProjection(id) {
		n.Classes = append(n.Classes, graph.ClassAggregated)
	}
	return n
}

func blankWildcard(s string) string {
	if s == gav.Wildcard {
		return ""
	}
	return s
}

// joinScopes lists merged scopes sorted and comma separated.
func joinScopes(set map[string]bool) string {
	scopes := make([]string, 0, len(set))
	for s := range set {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return strings.Join(scopes, ", ")
}
