// Package pom parses Maven project descriptors into coordinates and
// dependency edges.
package pom

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/matsen/depviz/internal/gav"
)

// Scopes with special meaning.
const (
	DefaultScope = "compile"
	ParentScope  = "parent"
)

// maxResolvePasses bounds nested ${...} substitution.
const maxResolvePasses = 5

var (
	ErrMissingArtifactID = errors.New("missing required <artifactId>")
	ErrMissingGroupID    = errors.New("missing required <groupId> (or parent <groupId>)")
)

// Project is a parsed descriptor.
type Project struct {
	Coordinates  gav.Ref
	Dependencies []Dependency
}

// Dependency is one declared dependency. Optional is nil when the
// descriptor does not say.
type Dependency struct {
	Ref      gav.Ref
	Scope    string
	Optional *bool
}

// EffectiveScope returns the scope, defaulting to compile.
func (d Dependency) EffectiveScope() string {
	if d.Scope == "" {
		return DefaultScope
	}
	return d.Scope
}

type coordinates struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
	Version    string `xml:"version"`
}

type dependencyXML struct {
	coordinates
	Scope    string `xml:"scope"`
	Optional string `xml:"optional"`
}

type projectXML struct {
	XMLName xml.Name `xml:"project"`
	coordinates
	Parent       *coordinates    `xml:"parent"`
	Properties   properties      `xml:"properties"`
	Dependencies []dependencyXML `xml:"dependencies>dependency"`
}

// properties collects the arbitrary children of <properties>.
type properties map[string]string

func (p *properties) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	if *p == nil {
		*p = make(properties)
	}
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return err
			}
			if v = strings.TrimSpace(v); v != "" {
				(*p)[t.Name.Local] = v
			}
		case xml.EndElement:
			return nil
		}
	}
}

// Parse reads one descriptor. The project inherits groupId and version
// from its parent when it declares none; the parent itself becomes a
// dependency with scope "parent".
func Parse(r io.Reader) (Project, error) {
	var px projectXML
	if err := xml.NewDecoder(r).Decode(&px); err != nil {
		return Project{}, fmt.Errorf("parsing descriptor: %w", err)
	}
	px.trim()

	groupID, version := px.GroupID, px.Version
	var parent coordinates
	if px.Parent != nil {
		parent = *px.Parent
	}
	if groupID == "" {
		groupID = parent.GroupID
	}
	if version == "" {
		version = parent.Version
	}
	if px.ArtifactID == "" {
		return Project{}, ErrMissingArtifactID
	}
	if groupID == "" {
		return Project{}, ErrMissingGroupID
	}

	props := px.Properties
	if props == nil {
		props = make(properties)
	}
	effectiveVersion := version
	if effectiveVersion == "" {
		effectiveVersion = gav.UnknownVersion
	}
	for _, prefix := range []string{"project.", "pom.", ""} {
		props[prefix+"groupId"] = groupID
		props[prefix+"artifactId"] = px.ArtifactID
		props[prefix+"version"] = effectiveVersion
	}

	project := Project{
		Coordinates: gav.New(resolve(groupID, props), px.ArtifactID, normalizeVersion(effectiveVersion, props)),
	}

	if parent.GroupID != "" && parent.ArtifactID != "" {
		ref := gav.New(resolve(parent.GroupID, props), parent.ArtifactID, normalizeVersion(parent.Version, props))
		if ref != project.Coordinates {
			project.Dependencies = append(project.Dependencies, Dependency{Ref: ref, Scope: ParentScope})
		}
	}

	for _, d := range px.Dependencies {
		if d.GroupID == "" || d.ArtifactID == "" {
			continue
		}
		project.Dependencies = append(project.Dependencies, Dependency{
			Ref:      gav.New(d.GroupID, d.ArtifactID, normalizeVersion(d.Version, props)),
			Scope:    d.Scope,
			Optional: parseOptional(d.Optional),
		})
	}
	return project, nil
}

func (px *projectXML) trim() {
	px.coordinates.trim()
	if px.Parent != nil {
		px.Parent.trim()
	}
	for i := range px.Dependencies {
		d := &px.Dependencies[i]
		d.coordinates.trim()
		d.Scope = strings.TrimSpace(d.Scope)
		d.Optional = strings.TrimSpace(d.Optional)
	}
}

func (c *coordinates) trim() {
	c.GroupID = strings.TrimSpace(c.GroupID)
	c.ArtifactID = strings.TrimSpace(c.ArtifactID)
	c.Version = strings.TrimSpace(c.Version)
}

var placeholderRE = regexp.MustCompile(`\$\{([^}]+)\}`)

// resolve substitutes known ${key} placeholders, repeating for nested
// references. Unknown placeholders are left in place.
func resolve(value string, props map[string]string) string {
	current := value
	for i := 0; i < maxResolvePasses; i++ {
		changed := false
		next := placeholderRE.ReplaceAllStringFunc(current, func(m string) string {
			key := m[2 : len(m)-1]
			if v, ok := props[key]; ok {
				changed = true
				return v
			}
			return m
		})
		current = next
		if !changed {
			break
		}
	}
	return current
}

// normalizeVersion resolves value and maps empty or still-unresolved
// versions to gav.UnknownVersion.
func normalizeVersion(value string, props map[string]string) string {
	if value == "" {
		return gav.UnknownVersion
	}
	resolved := strings.TrimSpace(resolve(value, props))
	if resolved == "" || placeholderRE.MatchString(resolved) {
		return gav.UnknownVersion
	}
	return resolved
}

func parseOptional(s string) *bool {
	var b bool
	switch strings.ToLower(s) {
	case "true":
		b = true
	case "false":
		b = false
	default:
		return nil
	}
	return &b
}
