package explore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/query"
	"github.com/matsen/depviz/internal/render"
)

// GraphSnapshot is the observable state of a graph view.
type GraphSnapshot struct {
	Query    query.GraphQuery
	RootID   string // projected root, empty for the global view
	Elements graph.Elements
	Layout   string
	Loading  bool
	Err      *ViewError
	Empty    bool
}

// graphView is the state and request fencing shared by the global and
// rooted views.
type graphView struct {
	mu       sync.Mutex
	fetcher  Fetcher
	opts     options
	nav      render.Navigator
	q        query.GraphQuery // last issued
	applied  query.GraphQuery // last query whose response was applied
	gen      uint64
	elements graph.Elements
	loaded   bool
	loading  bool
	err      *ViewError
}

// load issues q and applies the response if no later request was issued
// in the meantime. Stale responses are dropped without touching state. A
// failed request restores the last applied query, so the query always
// describes what is drawn once loading settles.
func (v *graphView) load(ctx context.Context, q query.GraphQuery) error {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.q = q
	v.loading = true
	v.mu.Unlock()

	els, err := v.fetcher.FetchGraph(ctx, q)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		v.opts.logger.Debug("dropping stale graph response", "generation", gen, "latest", v.gen)
		return nil
	}
	v.loading = false
	if err != nil {
		v.q = v.applied
		v.err = &ViewError{Action: ActionGraph, Err: err}
		v.opts.logger.Debug("graph request failed", "error", err)
		return v.err
	}
	v.err = nil
	v.applied = q
	v.elements = els
	v.loaded = true
	return v.renderLocked()
}

// projectedRoot is the id of the root as it appears in the element set.
func (v *graphView) projectedRoot() string {
	if v.q.RootID == "" {
		return ""
	}
	return gav.ProjectKey(v.q.RootID, v.q.Collapse)
}

func (v *graphView) renderLocked() error {
	if v.opts.engine == nil {
		return nil
	}
	_, err := v.opts.engine.Update(render.Config{
		Elements:  v.elements,
		Layout:    v.opts.layout,
		RootID:    v.projectedRoot(),
		Navigator: v.nav,
	})
	return err
}

func (v *graphView) query() query.GraphQuery {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.q.Clone()
}

func (v *graphView) snapshot() GraphSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return GraphSnapshot{
		Query:    v.q.Clone(),
		RootID:   v.projectedRoot(),
		Elements: v.elements,
		Layout:   v.opts.layout,
		Loading:  v.loading,
		Err:      v.err,
		Empty:    v.loaded && v.elements.IsEmpty(),
	}
}

// DismissError clears the current error.
func (v *graphView) DismissError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = nil
}

// SetLayout switches the layout in place on the current surface.
func (v *graphView) SetLayout(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.opts.engine != nil {
		if h := v.opts.engine.Handle(); h != nil {
			if err := h.Relayout(name); err != nil {
				return err
			}
		}
	}
	v.opts.layout = name
	return nil
}

// Fit fits the current surface to the container.
func (v *graphView) Fit() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.opts.engine == nil {
		return
	}
	if h := v.opts.engine.Handle(); h != nil {
		h.Fit()
	}
}

// GlobalView shows the whole graph. Direction is forward and depth is
// unbounded; only the collapse flags and scopes vary.
type GlobalView struct {
	graphView
}

// NewGlobalView creates a global view. Nothing is fetched until Refresh.
func NewGlobalView(f Fetcher, opts ...Option) *GlobalView {
	v := &GlobalView{}
	v.fetcher = f
	v.opts = buildOptions(opts)
	v.q = query.ResolveGraph(query.GraphQuery{})
	v.applied = v.q.Clone()
	return v
}

// Refresh re-issues the current query.
func (v *GlobalView) Refresh(ctx context.Context) error {
	return v.load(ctx, v.query())
}

// SetCollapse changes the collapse flags and re-queries immediately.
func (v *GlobalView) SetCollapse(ctx context.Context, c gav.Collapse) error {
	q := v.query()
	q.Collapse = c
	return v.load(ctx, q)
}

// SetScopes restricts edges to the given scopes and re-queries.
func (v *GlobalView) SetScopes(ctx context.Context, scopes []string) error {
	q := v.query()
	q.Scopes = slices.Clone(scopes)
	return v.load(ctx, q)
}

// Snapshot returns the current state.
func (v *GlobalView) Snapshot() GraphSnapshot {
	return v.snapshot()
}

// RootedView shows the graph reachable from one artifact.
type RootedView struct {
	graphView
}

// NewRootedView creates a rooted view with no root. The view itself is the
// navigator of the surfaces it renders, so tapping a node re-roots it.
func NewRootedView(f Fetcher, opts ...Option) *RootedView {
	v := &RootedView{}
	v.fetcher = f
	v.opts = buildOptions(opts)
	v.nav = v
	v.q = query.ResolveGraph(query.GraphQuery{})
	v.applied = v.q.Clone()
	return v
}

// SetRoot makes id the root and re-queries. Navigating to the current
// root is a no-op.
func (v *RootedView) SetRoot(ctx context.Context, id string) error {
	q := v.query()
	if id == "" {
		return fmt.Errorf("empty root id")
	}
	if q.RootID == id || gav.ProjectKey(q.RootID, q.Collapse) == id {
		return nil
	}
	q.RootID = id
	return v.load(ctx, q)
}

// SetDirection changes the traversal direction and re-queries.
func (v *RootedView) SetDirection(ctx context.Context, d query.Direction) error {
	if _, err := query.ParseDirection(string(d)); err != nil {
		return err
	}
	q := v.query()
	q.Direction = d
	return v.reload(ctx, q)
}

// SetDepth bounds the traversal. Zero means unbounded.
func (v *RootedView) SetDepth(ctx context.Context, depth int) error {
	if depth < 0 || depth > query.MaxDepth {
		return fmt.Errorf("invalid depth %d: must be between 0 and %d", depth, query.MaxDepth)
	}
	q := v.query()
	q.Depth = depth
	return v.reload(ctx, q)
}

// SetCollapse changes the collapse flags and re-queries.
func (v *RootedView) SetCollapse(ctx context.Context, c gav.Collapse) error {
	q := v.query()
	q.Collapse = c
	return v.reload(ctx, q)
}

// SetScopes restricts edges to the given scopes and re-queries.
func (v *RootedView) SetScopes(ctx context.Context, scopes []string) error {
	q := v.query()
	q.Scopes = slices.Clone(scopes)
	return v.reload(ctx, q)
}

// Refresh re-issues the current query.
func (v *RootedView) Refresh(ctx context.Context) error {
	return v.reload(ctx, v.query())
}

// reload queries only once a root is set; before that it just records q.
func (v *RootedView) reload(ctx context.Context, q query.GraphQuery) error {
	if q.RootID == "" {
		v.mu.Lock()
		v.q = q
		v.applied = q.Clone()
		v.mu.Unlock()
		return nil
	}
	return v.load(ctx, q)
}

// Activate re-roots the view at a tapped node.
func (v *RootedView) Activate(id string) {
	if err := v.SetRoot(v.opts.ctx, id); err != nil {
		v.opts.logger.Debug("activation failed", "node", id, "error", err)
	}
}

// Snapshot returns the current state.
func (v *RootedView) Snapshot() GraphSnapshot {
	return v.snapshot()
}

// Details decomposes the current root into its coordinates. Malformed ids
// yield blank fields.
func (v *RootedView) Details() Details {
	return NewDetails(v.query().RootID)
}

// Details is the coordinate breakdown of an artifact id.
type Details struct {
	ID         string `json:"id"`
	GroupID    string `json:"group_id"`
	ArtifactID string `json:"artifact_id"`
	Version    string `json:"version"`
}

// NewDetails decomposes id. Anything short of a full triple gives blank
// coordinates.
func NewDetails(id string) Details {
	r, ok := gav.Parse(id)
	if !ok {
		return Details{ID: id}
	}
	return Details{ID: id, GroupID: r.GroupID, ArtifactID: r.ArtifactID, Version: r.Version}
}
