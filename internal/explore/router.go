package explore

import (
	"context"
	"errors"
	"sync"

	"github.com/matsen/depviz/internal/client"
)

// Route names a view.
type Route string

const (
	RouteGlobal Route = "global"
	RouteRooted Route = "rooted"
	RouteTable  Route = "table"
)

// Router connects the views to application events: navigation to an
// artifact and completed uploads.
type Router struct {
	mu      sync.Mutex
	fetcher Fetcher
	opts    options
	global  *GlobalView
	rooted  *RootedView
	table   *TableView
	current Route
	outcome *client.UploadOutcome
	err     *ViewError
}

// NewRouter creates a router over the three views. Activating a node in
// the global view navigates to it.
func NewRouter(f Fetcher, global *GlobalView, rooted *RootedView, table *TableView, opts ...Option) *Router {
	r := &Router{
		fetcher: f,
		opts:    buildOptions(opts),
		global:  global,
		rooted:  rooted,
		table:   table,
		current: RouteGlobal,
	}
	global.mu.Lock()
	global.nav = r
	global.mu.Unlock()
	return r
}

// Global returns the global view.
func (r *Router) Global() *GlobalView { return r.global }

// Rooted returns the rooted view.
func (r *Router) Rooted() *RootedView { return r.rooted }

// Table returns the table view.
func (r *Router) Table() *TableView { return r.table }

// Current returns the active route.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Show switches the active route without fetching.
func (r *Router) Show(route Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = route
}

// Navigate opens the rooted view at id.
func (r *Router) Navigate(ctx context.Context, id string) error {
	r.Show(RouteRooted)
	return r.rooted.SetRoot(ctx, id)
}

// Activate navigates to a node activated in the global view.
func (r *Router) Activate(id string) {
	if err := r.Navigate(r.opts.ctx, id); err != nil {
		r.opts.logger.Debug("navigation failed", "node", id, "error", err)
	}
}

// Upload sends files and reports the outcome. A transport failure is kept
// as an upload error; a rejected or partial batch is an outcome.
func (r *Router) Upload(ctx context.Context, files []client.UploadFile) (client.UploadOutcome, error) {
	outcome, err := r.fetcher.Upload(ctx, files)
	if err != nil {
		verr := &ViewError{Action: ActionUpload, Err: err}
		r.mu.Lock()
		r.err = verr
		r.mu.Unlock()
		return client.UploadOutcome{}, verr
	}
	return outcome, r.UploadComplete(ctx, outcome)
}

// UploadComplete records outcome and, when it succeeded, refreshes the
// graph views that have data.
func (r *Router) UploadComplete(ctx context.Context, outcome client.UploadOutcome) error {
	r.mu.Lock()
	r.outcome = &outcome
	r.err = nil
	r.mu.Unlock()

	if !outcome.Success {
		return nil
	}
	var errs []error
	errs = append(errs, r.global.Refresh(ctx))
	if r.rooted.query().RootID != "" {
		errs = append(errs, r.rooted.Refresh(ctx))
	}
	return errors.Join(errs...)
}

// LastUpload returns the outcome of the most recent upload.
func (r *Router) LastUpload() (client.UploadOutcome, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcome == nil {
		return client.UploadOutcome{}, false
	}
	return *r.outcome, true
}

// Err returns the current upload error.
func (r *Router) Err() *ViewError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// DismissError clears the upload error.
func (r *Router) DismissError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = nil
}

// Close releases timers held by the views.
func (r *Router) Close() {
	r.table.Close()
}
