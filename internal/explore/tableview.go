package explore

import (
	"context"
	"io"
	"slices"
	"sync"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/debounce"
	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/query"
)

// Debounced text fields of the table view.
const (
	FieldArtifact = "artifact"
	FieldGroup    = "group"
)

// TableSnapshot is the observable state of the table view.
type TableSnapshot struct {
	Query   query.TableQuery
	Rows    []client.Row
	Scopes  []string // known scope values
	Loading bool
	Err     *ViewError
	Empty   bool
}

// TableView lists dependency pairs. Text filters are debounced; scope and
// collapse toggles submit immediately. Every submission carries the full
// filter state.
type TableView struct {
	mu      sync.Mutex
	fetcher Fetcher
	opts    options
	filters *debounce.Controller[query.TableQuery]
	q       query.TableQuery
	gen     uint64
	rows    []client.Row
	scopes  []string
	loaded  bool
	loading bool
	err     *ViewError
}

// NewTableView creates a table view. Nothing is fetched until Refresh or a
// filter change.
func NewTableView(f Fetcher, opts ...Option) *TableView {
	v := &TableView{fetcher: f, opts: buildOptions(opts)}
	initial := query.ResolveTable(query.TableQuery{Limit: v.opts.limit})
	v.q = initial

	dopts := []debounce.Option{
		debounce.WithWindow(v.opts.window),
		debounce.WithLogger(v.opts.logger),
	}
	if v.opts.clock != nil {
		dopts = append(dopts, debounce.WithClock(v.opts.clock))
	}
	v.filters = debounce.New(initial, v.submit, dopts...)
	return v
}

func (v *TableView) submit(q query.TableQuery) {
	// errors are kept in the snapshot
	_ = v.load(v.opts.ctx, q.Clone())
}

func (v *TableView) load(ctx context.Context, q query.TableQuery) error {
	v.mu.Lock()
	v.gen++
	gen := v.gen
	v.q = q
	v.loading = true
	v.mu.Unlock()

	rows, err := v.fetcher.FetchTable(ctx, q)

	v.mu.Lock()
	defer v.mu.Unlock()
	if gen != v.gen {
		v.opts.logger.Debug("dropping stale table response", "generation", gen, "latest", v.gen)
		return nil
	}
	v.loading = false
	if err != nil {
		v.err = &ViewError{Action: ActionTable, Err: err}
		return v.err
	}
	v.err = nil
	v.rows = rows
	v.loaded = true
	return nil
}

// SetArtifactPattern updates the artifact text filter.
func (v *TableView) SetArtifactPattern(s string) {
	v.filters.SetText(FieldArtifact, func(q *query.TableQuery) { q.ArtifactPattern = s })
}

// SetGroupPattern updates the group text filter.
func (v *TableView) SetGroupPattern(s string) {
	v.filters.SetText(FieldGroup, func(q *query.TableQuery) { q.GroupPattern = s })
}

// ToggleScope adds or removes one scope and submits.
func (v *TableView) ToggleScope(scope string) {
	v.filters.SetDiscrete(func(q *query.TableQuery) {
		if i := slices.Index(q.Scopes, scope); i >= 0 {
			q.Scopes = slices.Delete(slices.Clone(q.Scopes), i, i+1)
			return
		}
		q.Scopes = append(slices.Clone(q.Scopes), scope)
	})
}

// SetScopes replaces the scope selection and submits.
func (v *TableView) SetScopes(scopes []string) {
	v.filters.SetDiscrete(func(q *query.TableQuery) { q.Scopes = slices.Clone(scopes) })
}

// SetCollapse changes the collapse flags and submits.
func (v *TableView) SetCollapse(c gav.Collapse) {
	v.filters.SetDiscrete(func(q *query.TableQuery) { q.Collapse = c })
}

// Flush submits pending text input now.
func (v *TableView) Flush() bool {
	return v.filters.Flush()
}

// Refresh submits the current filter state immediately. Pending text
// input is submitted once, through the flush.
func (v *TableView) Refresh(ctx context.Context) error {
	if v.filters.Flush() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.err != nil {
			return v.err
		}
		return nil
	}
	return v.load(ctx, v.filters.State().Clone())
}

// LoadScopes fetches the known scope values for the scope selector.
func (v *TableView) LoadScopes(ctx context.Context) ([]string, error) {
	scopes, err := v.fetcher.FetchScopeValues(ctx)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.err = &ViewError{Action: ActionTable, Err: err}
		return nil, v.err
	}
	v.scopes = scopes
	return slices.Clone(scopes), nil
}

// Export writes the filtered table as CSV, without the row limit.
func (v *TableView) Export(ctx context.Context, w io.Writer) (int64, error) {
	return v.fetcher.ExportDependencies(ctx, v.filters.State().Clone(), w)
}

// Filters returns the accumulated filter state, including text not yet
// submitted.
func (v *TableView) Filters() query.TableQuery {
	return v.filters.State().Clone()
}

// Snapshot returns the state of the last applied response.
func (v *TableView) Snapshot() TableSnapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return TableSnapshot{
		Query:   v.q.Clone(),
		Rows:    v.rows,
		Scopes:  slices.Clone(v.scopes),
		Loading: v.loading,
		Err:     v.err,
		Empty:   v.loaded && len(v.rows) == 0,
	}
}

// DismissError clears the current error.
func (v *TableView) DismissError() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.err = nil
}

// Close cancels pending text input. Later filter changes are ignored.
func (v *TableView) Close() {
	v.filters.Close()
}
