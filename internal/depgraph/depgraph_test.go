package depgraph

import (
	"sort"
	"testing"

	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/query"
)

// fixture: A:a:1 -> B:b:1 -> C:c:1, A:a:2 -> B:b:1, D:d:1 -> A:a:1
func fixture() ([]string, []Edge) {
	nodes := []string{"A:a:1", "B:b:1", "C:c:1", "A:a:2", "D:d:1"}
	edges := []Edge{
		{From: "A:a:1", To: "B:b:1", Scope: "compile"},
		{From: "B:b:1", To: "C:c:1", Scope: "test"},
		{From: "A:a:2", To: "B:b:1", Scope: "runtime", Optional: true},
		{From: "D:d:1", To: "A:a:1", Scope: "compile"},
	}
	return nodes, edges
}

func ids(els graph.Elements) []string {
	out := els.NodeIDs()
	sort.Strings(out)
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuild_WholeGraph(t *testing.T) {
	nodes, edges := fixture()
	els := Build(nodes, edges, Request{Direction: query.Reverse, Depth: 1})
	if len(els.Nodes) != 5 || len(els.Edges) != 4 {
		t.Errorf("whole graph = %d nodes %d edges, want 5 4 (depth and direction ignored)", len(els.Nodes), len(els.Edges))
	}
	for _, n := range els.Nodes {
		if n.HasClass(graph.ClassRoot) || n.HasClass(graph.ClassHighlight) {
			t.Errorf("node %s classified without a root: %v", n.ID, n.Classes)
		}
	}
}

func TestBuild_RootedForward(t *testing.T) {
	nodes, edges := fixture()
	tests := []struct {
		depth int
		want  []string
	}{
		{1, []string{"A:a:1", "B:b:1"}},
		{2, []string{"A:a:1", "B:b:1", "C:c:1"}},
		{0, []string{"A:a:1", "B:b:1", "C:c:1"}},
	}
	for _, tt := range tests {
		els := Build(nodes, edges, Request{RootID: "A:a:1", Direction: query.Forward, Depth: tt.depth})
		if got := ids(els); !equal(got, tt.want) {
			t.Errorf("depth %d: nodes = %v, want %v", tt.depth, got, tt.want)
		}
		if len(els.Edges) != len(tt.want)-1 {
			t.Errorf("depth %d: %d edges, want %d", tt.depth, len(els.Edges), len(tt.want)-1)
		}
		root, _ := els.Node("A:a:1")
		if !root.HasClass(graph.ClassRoot) {
			t.Errorf("root not classified: %v", root.Classes)
		}
	}
}

func TestBuild_RootedReverse(t *testing.T) {
	nodes, edges := fixture()
	els := Build(nodes, edges, Request{RootID: "B:b:1", Direction: query.Reverse, Depth: 1})
	want := []string{"A:a:1", "A:a:2", "B:b:1"}
	if got := ids(els); !equal(got, want) {
		t.Fatalf("nodes = %v, want %v", got, want)
	}
	for _, n := range els.Nodes {
		isAncestor := n.ID != "B:b:1"
		if n.HasClass(graph.ClassHighlight) != isAncestor {
			t.Errorf("node %s highlight = %v, want %v", n.ID, n.HasClass(graph.ClassHighlight), isAncestor)
		}
	}
	if len(els.Edges) != 2 {
		t.Errorf("edges = %v, want only edges between visible nodes", els.Edges)
	}
}

func TestBuild_UnknownRootIsEmpty(t *testing.T) {
	nodes, edges := fixture()
	els := Build(nodes, edges, Request{RootID: "Z:z:9", Direction: query.Forward})
	if !els.IsEmpty() || len(els.Edges) != 0 {
		t.Errorf("unknown root returned %d nodes", len(els.Nodes))
	}
}

func TestBuild_CollapseVersionMerges(t *testing.T) {
	nodes := []string{"A:a:1", "A:a:2", "B:b:1"}
	edges := []Edge{
		{From: "A:a:1", To: "B:b:1", Scope: "compile"},
		{From: "A:a:2", To: "B:b:1", Scope: "test"},
	}
	els := Build(nodes, edges, Request{Collapse: gav.Collapse{Version: true}})

	want := []string{"A:a:*", "B:b:*"}
	if got := ids(els); !equal(got, want) {
		t.Fatalf("nodes = %v, want %v", got, want)
	}
	if len(els.Edges) != 1 {
		t.Fatalf("edges = %+v, want one merged edge", els.Edges)
	}
	e := els.Edges[0]
	if e.Source != "A:a:*" || e.Target != "B:b:*" || e.Scope != "compile, test" || e.ID != "A:a:*__B:b:*" {
		t.Errorf("merged edge = %+v", e)
	}
	n, _ := els.Node("A:a:*")
	if n.Label != "A:a" || !n.HasClass(graph.ClassAggregated) || n.Version != "" {
		t.Errorf("projected node = %+v", n)
	}
}

func TestBuild_MergedScopesSorted(t *testing.T) {
	nodes := []string{"A:a:1", "A:a:2", "B:b:1"}
	edges := []Edge{
		{From: "A:a:1", To: "B:b:1", Scope: "test"},
		{From: "A:a:2", To: "B:b:1", Scope: "runtime"},
		{From: "A:a:2", To: "B:b:1", Scope: "compile"},
		{From: "A:a:1", To: "B:b:1", Scope: "test"},
	}
	els := Build(nodes, edges, Request{Collapse: gav.Collapse{Version: true}})
	if len(els.Edges) != 1 {
		t.Fatalf("edges = %+v, want one merged edge", els.Edges)
	}
	if got := els.Edges[0].Scope; got != "compile, runtime, test" {
		t.Errorf("merged scope = %q, want sorted union", got)
	}
}

func TestGraph_WithinCycleAndDepth(t *testing.T) {
	nodes := []string{"A:a:1", "B:b:1", "C:c:1", "D:d:1"}
	edges := []Edge{
		{From: "A:a:1", To: "B:b:1"},
		{From: "B:b:1", To: "C:c:1"},
		{From: "C:c:1", To: "A:a:1"},
		{From: "C:c:1", To: "D:d:1"},
	}
	g := Project(nodes, edges, gav.Collapse{})

	tests := []struct {
		name  string
		root  string
		dir   query.Direction
		depth int
		want  []string
	}{
		{"forward unbounded", "A:a:1", query.Forward, 0, []string{"A:a:1", "B:b:1", "C:c:1", "D:d:1"}},
		{"forward depth 2", "A:a:1", query.Forward, 2, []string{"A:a:1", "B:b:1", "C:c:1"}},
		{"reverse depth 1", "A:a:1", query.Reverse, 1, []string{"A:a:1", "C:c:1"}},
		{"reverse from leaf", "D:d:1", query.Reverse, 0, []string{"A:a:1", "B:b:1", "C:c:1", "D:d:1"}},
		{"unknown root", "Z:z:1", query.Forward, 0, []string{"Z:z:1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Within(tt.root, tt.dir, tt.depth)
			if len(got) != len(tt.want) {
				t.Fatalf("Within = %v, want %v", got, tt.want)
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("Within missing %s: %v", id, got)
				}
			}
		})
	}
}

func TestBuild_CollapseGroupDropsSelfLoops(t *testing.T) {
	nodes := []string{"g:x:1", "g:y:1", "h:z:1"}
	edges := []Edge{
		{From: "g:x:1", To: "g:y:1"},
		{From: "g:y:1", To: "h:z:1", Optional: true},
	}
	els := Build(nodes, edges, Request{Collapse: gav.Collapse{Group: true}})
	want := []string{"g:*:1", "h:*:1"}
	if got := ids(els); !equal(got, want) {
		t.Fatalf("nodes = %v, want %v", got, want)
	}
	if len(els.Edges) != 1 || !els.Edges[0].Optional || els.Edges[0].Scope != "compile" {
		t.Errorf("edges = %+v", els.Edges)
	}
}

func TestBuild_ProjectedRoot(t *testing.T) {
	nodes, edges := fixture()
	c := gav.Collapse{Version: true}
	// the root is given unprojected; it is projected like every other node
	els := Build(nodes, edges, Request{RootID: "A:a:2", Direction: query.Forward, Depth: 1, Collapse: c})
	want := []string{"A:a:*", "B:b:*"}
	if got := ids(els); !equal(got, want) {
		t.Errorf("nodes = %v, want %v", got, want)
	}
	// a projected root is idempotent
	els2 := Build(nodes, edges, Request{RootID: "A:a:*", Direction: query.Forward, Depth: 1, Collapse: c})
	if els.Fingerprint() != els2.Fingerprint() {
		t.Error("projected and unprojected root disagree")
	}
}

func TestProject_UniqueIDs(t *testing.T) {
	nodes, edges := fixture()
	for _, c := range []gav.Collapse{{}, {Version: true}, {Group: true}, {Group: true, Version: true}} {
		els := Build(nodes, edges, Request{Collapse: c})
		seen := map[string]bool{}
		for _, n := range els.Nodes {
			if seen[n.ID] {
				t.Errorf("collapse %+v: duplicate node %s", c, n.ID)
			}
			seen[n.ID] = true
		}
		for _, e := range els.Edges {
			if !seen[e.Source] || !seen[e.Target] {
				t.Errorf("collapse %+v: dangling edge %s", c, e.ID)
			}
		}
	}
}

func TestRows(t *testing.T) {
	edges := []Edge{
		{From: "com.acme:lib:1", To: "org.slf4j:slf4j-api:2.0.9", Scope: "compile"},
		{From: "com.acme:lib:2", To: "org.slf4j:slf4j-api:2.0.9", Scope: "compile"},
		{From: "com.acme:lib:2", To: "org.junit:junit:4.13", Scope: "test"},
		{From: "com.acme:app:1", To: "com.acme:lib:2", Scope: ""},
	}

	tests := []struct {
		name   string
		filter TableFilter
		want   int
	}{
		{"all", TableFilter{}, 4},
		{"artifact pattern either end", TableFilter{ArtifactPattern: "SLF4J"}, 2},
		{"group pattern", TableFilter{GroupPattern: "junit"}, 1},
		{"scope filter with default", TableFilter{Scopes: []string{"compile"}}, 3},
		{"ignore version dedupes", TableFilter{IgnoreVersion: true}, 3},
		{"limit after dedupe", TableFilter{IgnoreVersion: true, Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Rows(edges, tt.filter)
			if len(rows) != tt.want {
				t.Errorf("got %d rows, want %d: %+v", len(rows), tt.want, rows)
			}
		})
	}

	rows := Rows(edges, TableFilter{IgnoreVersion: true, IgnoreGroup: true})
	if rows[0].FromGAV != "*:lib:*" || rows[0].FromGroup != "" || rows[0].FromVersion != "" {
		t.Errorf("ignored coordinates not blanked: %+v", rows[0])
	}
	if rows[len(rows)-1].Scope != "compile" {
		t.Errorf("empty scope should read as compile")
	}
}
