// Package gav defines artifact coordinates and their collapsed projections.
package gav

import "strings"

// Wildcard replaces a coordinate that has been collapsed away.
const Wildcard = "*"

// UnknownVersion is used for versions that could not be resolved.
const UnknownVersion = "Unknown"

// Ref identifies an artifact by group, artifact and version.
type Ref struct {
	GroupID    string `json:"group_id"`
	ArtifactID string `json:"artifact_id"`
	Version    string `json:"version"`
}

// New returns a Ref built from its three coordinates.
func New(groupID, artifactID, version string) Ref {
	return Ref{GroupID: groupID, ArtifactID: artifactID, Version: version}
}

// String returns the colon-joined GAV key.
func (r Ref) String() string {
	return r.GroupID + ":" + r.ArtifactID + ":" + r.Version
}

// Parse decomposes a GAV key. Missing parts are returned empty and ok is false.
// Anything after the second colon belongs to the version.
func Parse(s string) (Ref, bool) {
	parts := strings.SplitN(s, ":", 3)
	var r Ref
	if len(parts) > 0 {
		r.GroupID = parts[0]
	}
	if len(parts) > 1 {
		r.ArtifactID = parts[1]
	}
	if len(parts) > 2 {
		r.Version = parts[2]
	}
	ok := len(parts) == 3 && r.GroupID != "" && r.ArtifactID != "" && r.Version != ""
	return r, ok
}

// Collapse selects which coordinates are merged when projecting artifacts
// onto graph nodes.
type Collapse struct {
	Group   bool `json:"collapse_group"`
	Version bool `json:"collapse_version"`
}

// None reports whether no coordinate is collapsed.
func (c Collapse) None() bool {
	return !c.Group && !c.Version
}

// Project maps a Ref onto its node id under c.
//
//	neither flag  g:a:v
//	Version       g:a:*
//	Group         g:*:v
//	both          g:*:*
func Project(r Ref, c Collapse) string {
	p := r
	if c.Group {
		p.ArtifactID = Wildcard
	}
	if c.Version {
		p.Version = Wildcard
	}
	return p.String()
}

// ProjectKey parses key and projects it. Keys that do not decompose into a
// full triple are returned unchanged.
func ProjectKey(key string, c Collapse) string {
	r, ok := Parse(key)
	if !ok {
		return key
	}
	return Project(r, c)
}

// Label returns a display label for a projected id.
func Label(id string) string {
	r, ok := Parse(id)
	if !ok {
		return id
	}
	switch {
	case r.ArtifactID == Wildcard && r.Version == Wildcard:
		return r.GroupID
	case r.Version == Wildcard:
		return r.GroupID + ":" + r.ArtifactID
	case r.ArtifactID == Wildcard:
		return r.GroupID + " (" + r.Version + ")"
	default:
		return id
	}
}

// IsProjection reports whether id contains a collapsed coordinate.
func IsProjection(id string) bool {
	r, ok := Parse(id)
	return ok && (r.ArtifactID == Wildcard || r.Version == Wildcard)
}
