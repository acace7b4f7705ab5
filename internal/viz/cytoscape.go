// Package viz exports rendered scenes as standalone Cytoscape.js pages.
package viz

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/layout"
	"github.com/matsen/depviz/internal/render"
)

// element is one Cytoscape.js element with a preset position.
type element struct {
	Group    string        `json:"group"`
	Data     elementData   `json:"data"`
	Classes  string        `json:"classes,omitempty"`
	Position *layout.Point `json:"position,omitempty"`
}

type elementData struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`

	// Node tooltip fields
	GroupID    string `json:"groupId,omitempty"`
	ArtifactID string `json:"artifactId,omitempty"`
	Version    string `json:"version,omitempty"`

	Source   string `json:"source,omitempty"`
	Target   string `json:"target,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// style is one Cytoscape.js stylesheet entry.
type style struct {
	Selector string            `json:"selector"`
	Style    map[string]string `json:"style"`
}

// sceneElements converts a scene into positioned elements, nodes first.
func sceneElements(s render.Scene) []element {
	out := make([]element, 0, len(s.Nodes)+len(s.Edges))
	for _, n := range s.Nodes {
		pos := n.Position
		data := elementData{ID: n.ID, Label: n.Label}
		if ref, ok := gav.Parse(n.ID); ok {
			data.GroupID = blankWildcard(ref.GroupID)
			data.ArtifactID = ref.ArtifactID
			data.Version = blankWildcard(ref.Version)
		}
		out = append(out, element{
			Group:    "nodes",
			Data:     data,
			Classes:  strings.Join(n.Classes, " "),
			Position: &pos,
		})
	}
	for _, e := range s.Edges {
		out = append(out, element{
			Group: "edges",
			Data: elementData{
				ID:       e.ID,
				Source:   e.Source,
				Target:   e.Target,
				Scope:    e.Scope,
				Optional: e.Optional,
			},
		})
	}
	return out
}

func blankWildcard(s string) string {
	if s == gav.Wildcard {
		return ""
	}
	return s
}

// ToCytoscapeJSON converts a scene to a Cytoscape.js elements array.
func ToCytoscapeJSON(s render.Scene) (string, error) {
	b, err := json.Marshal(sceneElements(s))
	if err != nil {
		return "", fmt.Errorf("marshaling Cytoscape elements to JSON: %w", err)
	}
	return string(b), nil
}

// stylesheetJSON converts the render stylesheet to Cytoscape.js form.
func stylesheetJSON(rules []render.StyleRule) (string, error) {
	out := make([]style, len(rules))
	for i, r := range rules {
		out[i] = style{Selector: r.Selector, Style: r.Properties}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshaling stylesheet to JSON: %w", err)
	}
	return string(b), nil
}
