package query

import (
	"fmt"

	"github.com/matsen/depviz/internal/gav"
)

// Direction is the traversal direction of a rooted graph query.
type Direction string

const (
	// Forward follows dependencies (what the root depends on).
	Forward Direction = "forward"
	// Reverse follows dependents (who uses the root).
	Reverse Direction = "reverse"
)

// ParseDirection validates a direction name.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case Forward, Reverse:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("invalid direction %q: must be forward or reverse", s)
	}
}

// Defaults applied by the Resolve functions.
const (
	DefaultDirection  = Forward
	DefaultTableLimit = 500

	// ScopeSampleLimit bounds the rows sampled to enumerate scope values.
	ScopeSampleLimit = 1000

	// MaxDepth is the deepest bounded depth offered by the rooted view.
	MaxDepth = 3
)

// GraphQuery selects a graph element set. An empty RootID selects the whole
// graph; Depth 0 means unbounded.
type GraphQuery struct {
	RootID    string
	Direction Direction
	Collapse  gav.Collapse
	Depth     int
	Scopes    []string
}

// TableQuery selects dependency rows.
type TableQuery struct {
	ArtifactPattern string
	GroupPattern    string
	Scopes          []string
	Collapse        gav.Collapse
	Limit           int
}

// ResolveGraph fills the explicit defaults of a graph query.
func ResolveGraph(q GraphQuery) GraphQuery {
	if q.Direction == "" {
		q.Direction = DefaultDirection
	}
	return q
}

// ResolveTable fills the explicit defaults of a table query.
func ResolveTable(q TableQuery) TableQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultTableLimit
	}
	return q
}

// BuildGraph returns the parameters for GET /graph/data.
func BuildGraph(q GraphQuery) Params {
	var p Params
	p = p.AddOptional("root_id", q.RootID)
	p = p.AddOptional("direction", string(q.Direction))
	p = p.AddBool("show_group", !q.Collapse.Group)
	p = p.AddBool("show_version", !q.Collapse.Version)
	p = p.AddPositive("depth", q.Depth)
	p = p.AddAll("scope", q.Scopes)
	return p
}

// BuildTable returns the parameters for GET /dependencies/table.
func BuildTable(q TableQuery) Params {
	p := buildTableFilters(q)
	p = p.AddPositive("limit", q.Limit)
	return p
}

// BuildExport returns the parameters for GET /dependencies/export: the table
// filters without a limit.
func BuildExport(q TableQuery) Params {
	return buildTableFilters(q)
}

func buildTableFilters(q TableQuery) Params {
	var p Params
	p = p.AddOptional("q", q.ArtifactPattern)
	p = p.AddOptional("group_q", q.GroupPattern)
	p = p.AddAll("scope", q.Scopes)
	p = p.AddBool("ignore_version", q.Collapse.Version)
	p = p.AddBool("ignore_group", q.Collapse.Group)
	return p
}

// Key returns the canonical encoding of the query, suitable for comparing
// two queries structurally.
func (q GraphQuery) Key() string {
	return BuildGraph(q).Encode()
}

// Key returns the canonical encoding of the query.
func (q TableQuery) Key() string {
	return BuildTable(q).Encode()
}

// Clone returns a copy that shares no slices with q.
func (q GraphQuery) Clone() GraphQuery {
	q.Scopes = append([]string(nil), q.Scopes...)
	return q
}

// Clone returns a copy that shares no slices with q.
func (q TableQuery) Clone() TableQuery {
	q.Scopes = append([]string(nil), q.Scopes...)
	return q
}
