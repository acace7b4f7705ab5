package depgraph

import (
	"strings"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/pom"
)

// TableFilter selects dependency rows. Patterns match case-insensitively
// against either end of an edge.
type TableFilter struct {
	ArtifactPattern string
	GroupPattern    string
	Scopes          []string
	IgnoreGroup     bool
	IgnoreVersion   bool
	Limit           int // non-positive means no limit
}

// Rows filters edges into table rows. Ignored coordinates are blanked and
// rows that become identical are reported once.
func Rows(edges []Edge, f TableFilter) []client.Row {
	artifactQ := strings.ToLower(f.ArtifactPattern)
	groupQ := strings.ToLower(f.GroupPattern)
	scopes := make(map[string]bool, len(f.Scopes))
	for _, s := range f.Scopes {
		scopes[s] = true
	}

	seen := make(map[client.Row]bool)
	var rows []client.Row
	for _, e := range edges {
		if f.Limit > 0 && len(rows) >= f.Limit {
			break
		}
		from, _ := gav.Parse(e.From)
		to, _ := gav.Parse(e.To)
		scope := e.Scope
		if scope == "" {
			scope = pom.DefaultScope
		}

		if artifactQ != "" && !containsFold(from.ArtifactID, artifactQ) && !containsFold(to.ArtifactID, artifactQ) {
			continue
		}
		if groupQ != "" && !containsFold(from.GroupID, groupQ) && !containsFold(to.GroupID, groupQ) {
			continue
		}
		if len(scopes) > 0 && !scopes[scope] {
			continue
		}

		if f.IgnoreGroup {
			from.GroupID, to.GroupID = "", ""
		}
		if f.IgnoreVersion {
			from.Version, to.Version = "", ""
		}
		row := client.Row{
			FromGAV:      displayKey(e.From, from, f),
			FromGroup:    from.GroupID,
			FromArtifact: from.ArtifactID,
			FromVersion:  from.Version,
			ToGAV:        displayKey(e.To, to, f),
			ToGroup:      to.GroupID,
			ToArtifact:   to.ArtifactID,
			ToVersion:    to.Version,
			Scope:        scope,
		}
		if seen[row] {
			continue
		}
		seen[row] = true
		rows = append(rows, row)
	}
	return rows
}

// displayKey is the row's artifact key with ignored coordinates replaced by
// the wildcard.
func displayKey(raw string, r gav.Ref, f TableFilter) string {
	if !f.IgnoreGroup && !f.IgnoreVersion {
		return raw
	}
	if f.IgnoreGroup {
		r.GroupID = gav.Wildcard
	}
	if f.IgnoreVersion {
		r.Version = gav.Wildcard
	}
	return r.String()
}

func containsFold(s, lowerSubstr string) bool {
	return strings.Contains(strings.ToLower(s), lowerSubstr)
}
