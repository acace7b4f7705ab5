package graph

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CytoscapeElement is one entry of the Cytoscape.js flat element list.
type CytoscapeElement struct {
	Data    CytoscapeData `json:"data"`
	Classes string        `json:"classes,omitempty"`
}

// CytoscapeData contains the union of node and edge data fields.
// Edges are recognized by a non-empty Source.
type CytoscapeData struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`

	// Node fields
	GroupID    string `json:"group_id,omitempty"`
	ArtifactID string `json:"artifact_id,omitempty"`
	Version    string `json:"version,omitempty"`

	// Edge fields
	Source   string `json:"source,omitempty"`
	Target   string `json:"target,omitempty"`
	Scope    string `json:"scope,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Document is the graph response body.
type Document struct {
	Elements  []CytoscapeElement `json:"elements"`
	NodeCount int                `json:"node_count"`
	EdgeCount int                `json:"edge_count"`
}

// ToCytoscape flattens the element set into Cytoscape.js order: nodes first.
func (e Elements) ToCytoscape() []CytoscapeElement {
	out := make([]CytoscapeElement, 0, len(e.Nodes)+len(e.Edges))
	for _, n := range e.Nodes {
		out = append(out, CytoscapeElement{
			Data: CytoscapeData{
				ID:         n.ID,
				Label:      n.Label,
				GroupID:    n.GroupID,
				ArtifactID: n.ArtifactID,
				Version:    n.Version,
			},
			Classes: strings.Join(n.Classes, " "),
		})
	}
	for _, ed := range e.Edges {
		out = append(out, CytoscapeElement{
			Data: CytoscapeData{
				ID:       ed.ID,
				Source:   ed.Source,
				Target:   ed.Target,
				Scope:    ed.Scope,
				Optional: ed.Optional,
			},
		})
	}
	return out
}

// FromCytoscape normalizes a flat element list. Nodes with a duplicate id keep
// the first occurrence; edges without an id get one derived from their ends.
func FromCytoscape(elements []CytoscapeElement) Elements {
	var out Elements
	seen := make(map[string]bool)
	for _, el := range elements {
		d := el.Data
		if d.Source != "" || d.Target != "" {
			id := d.ID
			if id == "" {
				id = EdgeID(d.Source, d.Target)
			}
			out.Edges = append(out.Edges, Edge{
				ID:       id,
				Source:   d.Source,
				Target:   d.Target,
				Scope:    d.Scope,
				Optional: d.Optional,
			})
			continue
		}
		if d.ID == "" || seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		label := d.Label
		if label == "" {
			label = d.ID
		}
		out.Nodes = append(out.Nodes, Node{
			ID:         d.ID,
			Label:      label,
			Classes:    strings.Fields(el.Classes),
			GroupID:    d.GroupID,
			ArtifactID: d.ArtifactID,
			Version:    d.Version,
		})
	}
	return out
}

// NewDocument wraps the element set in a response body.
func NewDocument(e Elements) Document {
	return Document{
		Elements:  e.ToCytoscape(),
		NodeCount: len(e.Nodes),
		EdgeCount: len(e.Edges),
	}
}

// ToCytoscapeJSON converts the element set to Cytoscape.js JSON.
func (e Elements) ToCytoscapeJSON() (string, error) {
	jsonBytes, err := json.Marshal(e.ToCytoscape())
	if err != nil {
		return "", fmt.Errorf("marshaling Cytoscape elements to JSON: %w", err)
	}
	return string(jsonBytes), nil
}
