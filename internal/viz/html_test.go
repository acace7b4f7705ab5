package viz

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/layout"
	"github.com/matsen/depviz/internal/render"
)

func sampleScene() *render.Scene {
	return &render.Scene{
		ID:       "scene-1",
		Layout:   layout.Dagre,
		Width:    800,
		Height:   600,
		Viewport: layout.Viewport{Zoom: 1.5, Pan: layout.Point{X: 10, Y: 20}},
		Nodes: []render.SceneNode{
			{ID: "org.acme:lib:1.0", Label: "lib:1.0", Classes: []string{graph.ClassRoot}, Position: layout.Point{X: 0, Y: 0}},
			{ID: "org.acme:core:*", Label: "core", Position: layout.Point{X: 0, Y: 80}},
		},
		Edges: []graph.Edge{
			{ID: graph.EdgeID("org.acme:lib:1.0", "org.acme:core:*"), Source: "org.acme:lib:1.0", Target: "org.acme:core:*", Scope: "compile", Optional: true},
		},
	}
}

func TestToCytoscapeJSON(t *testing.T) {
	out, err := ToCytoscapeJSON(*sampleScene())
	if err != nil {
		t.Fatalf("ToCytoscapeJSON() error = %v", err)
	}

	var els []element
	if err := json.Unmarshal([]byte(out), &els); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(els) != 3 {
		t.Fatalf("got %d elements, want 3", len(els))
	}

	root := els[0]
	if root.Group != "nodes" || root.Classes != graph.ClassRoot {
		t.Errorf("root element = %+v", root)
	}
	if root.Position == nil {
		t.Fatal("node has no position")
	}
	if root.Data.GroupID != "org.acme" || root.Data.Version != "1.0" {
		t.Errorf("root coordinates = %+v", root.Data)
	}

	collapsed := els[1]
	if collapsed.Data.Version != "" {
		t.Errorf("collapsed version = %q, want blank", collapsed.Data.Version)
	}
	if collapsed.Position.Y != 80 {
		t.Errorf("collapsed position = %+v", collapsed.Position)
	}

	edge := els[2]
	if edge.Group != "edges" || edge.Position != nil {
		t.Errorf("edge element = %+v", edge)
	}
	if !edge.Data.Optional || edge.Data.Scope != "compile" {
		t.Errorf("edge data = %+v", edge.Data)
	}
}

func TestGenerateHTML(t *testing.T) {
	html, err := GenerateHTML(sampleScene(), DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}

	for _, want := range []string{
		"<title>Dependency Graph</title>",
		DefaultCytoscapeURL,
		"name: 'preset'",
		"org.acme:lib:1.0",
		"node.root",
		"edge[?optional]",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
	if !strings.Contains(html, "1.5") || !strings.Contains(html, "minZoom") {
		t.Error("HTML missing the scene viewport")
	}
}

func TestGenerateHTML_EscapesTitle(t *testing.T) {
	html, err := GenerateHTML(sampleScene(), HTMLOptions{Title: "<b>deps</b>"})
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	if strings.Contains(html, "<b>deps</b>") {
		t.Error("title was not escaped")
	}
	if !strings.Contains(html, DefaultCytoscapeURL) {
		t.Error("empty ScriptURL should fall back to the default")
	}
}

func TestGenerateHTML_Empty(t *testing.T) {
	html, err := GenerateHTML(&render.Scene{}, DefaultOptions())
	if err != nil {
		t.Fatalf("GenerateHTML() error = %v", err)
	}
	if !strings.Contains(html, "No graph data") {
		t.Error("empty scene should render the empty state")
	}
	if strings.Contains(html, "cytoscape(") {
		t.Error("empty page should not initialize Cytoscape")
	}
}

func TestGenerateHTML_NilScene(t *testing.T) {
	if _, err := GenerateHTML(nil, DefaultOptions()); err == nil {
		t.Error("expected error for nil scene")
	}
}
