// Package explore holds the view controllers: the global graph, the graph
// rooted at one artifact, and the dependency table. Views own their filter
// state, build queries from it, fence responses so only the latest one is
// applied, and push element sets into a render engine.
package explore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/debounce"
	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/layout"
	"github.com/matsen/depviz/internal/query"
	"github.com/matsen/depviz/internal/render"
)

// Fetcher is the data access the views need. *client.Client implements it.
type Fetcher interface {
	FetchGraph(ctx context.Context, q query.GraphQuery) (graph.Elements, error)
	FetchTable(ctx context.Context, q query.TableQuery) ([]client.Row, error)
	FetchScopeValues(ctx context.Context) ([]string, error)
	Upload(ctx context.Context, files []client.UploadFile) (client.UploadOutcome, error)
	ExportDependencies(ctx context.Context, q query.TableQuery, w io.Writer) (int64, error)
}

// Action identifies the user action an error belongs to.
type Action string

const (
	ActionUpload Action = "upload"
	ActionGraph  Action = "graph"
	ActionTable  Action = "table"
)

// ViewError is a dismissible error scoped to one action.
type ViewError struct {
	Action Action
	Err    error
}

func (e *ViewError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ViewError) Unwrap() error {
	return e.Err
}

// Option configures a view or router.
type Option func(*options)

type options struct {
	ctx    context.Context
	engine *render.Engine
	layout string
	logger *slog.Logger
	clock  debounce.Clock
	window time.Duration
	limit  int
}

func buildOptions(opts []Option) options {
	o := options{
		ctx:    context.Background(),
		layout: layout.Default,
		logger: slog.New(discardHandler{}),
		window: debounce.DefaultWindow,
		limit:  query.DefaultTableLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithContext sets the context used for requests triggered by events that
// carry none, such as node activation and debounce expiry.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		if ctx != nil {
			o.ctx = ctx
		}
	}
}

// WithEngine renders every accepted element set into e.
func WithEngine(e *render.Engine) Option {
	return func(o *options) {
		o.engine = e
	}
}

// WithLayout sets the initial layout name.
func WithLayout(name string) Option {
	return func(o *options) {
		if name != "" {
			o.layout = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock of the table view's text debounce.
func WithClock(c debounce.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithDebounceWindow sets the table view's text debounce window.
func WithDebounceWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.window = d
		}
	}
}

// WithTableLimit sets the table view's row limit.
func WithTableLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.limit = n
		}
	}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
