// Package graph defines the node/edge element sets exchanged with the data
// server and consumed by the render engine.
package graph

import (
	"encoding/hex"
	"slices"
	"strconv"

	"golang.org/x/crypto/blake2b"
)

// Node classes.
const (
	ClassRoot       = "root"
	ClassHighlight  = "highlight"
	ClassSelected   = "selected"
	ClassAggregated = "aggregated"
)

// Elements is one complete element set. It is replaced wholesale on every
// successful query and never patched.
type Elements struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is an artifact or a collapsed projection of several artifacts.
type Node struct {
	ID      string   `json:"id"`
	Label   string   `json:"label"`
	Classes []string `json:"classes,omitempty"`

	// Coordinates, blank for collapsed parts
	GroupID    string `json:"group_id,omitempty"`
	ArtifactID string `json:"artifact_id,omitempty"`
	Version    string `json:"version,omitempty"`
}

// Edge is a directed dependency between two nodes.
type Edge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Scope    string `json:"scope"`
	Optional bool   `json:"optional"`
}

// EdgeID returns the id used for the edge between source and target.
func EdgeID(source, target string) string {
	return source + "__" + target
}

// HasClass reports whether the node carries class c.
func (n Node) HasClass(c string) bool {
	return slices.Contains(n.Classes, c)
}

// IsEmpty returns true if the element set has no nodes.
func (e Elements) IsEmpty() bool {
	return len(e.Nodes) == 0
}

// Node returns the node with the given id.
func (e Elements) Node(id string) (Node, bool) {
	for _, n := range e.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIDs returns the node ids in element order.
func (e Elements) NodeIDs() []string {
	ids := make([]string, len(e.Nodes))
	for i, n := range e.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Fingerprint returns a stable hash of the element set's content. Two sets
// with the same nodes, edges and classes in the same order share a fingerprint.
func (e Elements) Fingerprint() string {
	h, _ := blake2b.New256(nil)
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(strconv.Itoa(len(p))))
			h.Write([]byte{':'})
			h.Write([]byte(p))
		}
	}
	for _, n := range e.Nodes {
		write("n", n.ID, n.Label)
		write(n.Classes...)
	}
	for _, ed := range e.Edges {
		write("e", ed.ID, ed.Source, ed.Target, ed.Scope, strconv.FormatBool(ed.Optional))
	}
	return hex.EncodeToString(h.Sum(nil))
}
