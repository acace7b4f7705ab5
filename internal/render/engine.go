// Package render owns the lifecycle of the graph rendering surface: it
// builds a surface for an element set, classifies nodes, runs layouts,
// fits the viewport and turns node taps into navigation.
//
// An Engine rebuilds its surface only when the element set, layout, root or
// navigator changes. Layout switches made through a Handle are applied in
// place.
package render

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/layout"
)

// FitPadding is the padding applied on every automatic and manual fit.
const FitPadding = 50

// ErrClosed is returned by Update after Close.
var ErrClosed = errors.New("render engine closed")

// ErrReleased is returned by a Handle whose surface was torn down.
var ErrReleased = errors.New("render handle released")

// Navigator receives node activations.
type Navigator interface {
	Activate(id string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(id string)

// Activate calls f(id).
func (f NavigatorFunc) Activate(id string) { f(id) }

// Config is the input of one render pass.
type Config struct {
	Elements  graph.Elements
	Layout    string
	RootID    string
	Navigator Navigator
}

// State of an engine.
type State int

const (
	Unrendered State = iota
	Placeholder
	Rendered
	Closed
)

func (s State) String() string {
	switch s {
	case Placeholder:
		return "placeholder"
	case Rendered:
		return "rendered"
	case Closed:
		return "closed"
	default:
		return "unrendered"
	}
}

type lifecycleKey struct {
	fingerprint string
	layout      string
	root        string
	nav         Navigator
}

func (k lifecycleKey) equal(o lifecycleKey) bool {
	return k.fingerprint == o.fingerprint &&
		k.layout == o.layout &&
		k.root == o.root &&
		sameHandler(k.nav, o.nav)
}

// sameHandler compares navigators without panicking on func values.
// Funcs compare by code pointer.
func sameHandler(a, b Navigator) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if va.Kind() == reflect.Func {
		return va.Pointer() == vb.Pointer()
	}
	if !va.Type().Comparable() {
		return false
	}
	return a == b
}

// Option configures an Engine.
type Option func(*Engine)

// WithSurfaceFactory sets how surfaces are created. The default is NewCanvas.
func WithSurfaceFactory(f SurfaceFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.factory = f
		}
	}
}

// WithLogger sets the logger for lifecycle tracing.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// Engine drives one surface in one container.
type Engine struct {
	mu        sync.Mutex
	container *Container
	factory   SurfaceFactory
	logger    *slog.Logger
	surface   Surface
	handle    *Handle
	key       lifecycleKey
	keyed     bool
	state     State
	builds    int
}

// NewEngine binds a new engine to c.
func NewEngine(c *Container, opts ...Option) (*Engine, error) {
	e := &Engine{
		container: c,
		factory:   NewCanvas,
		logger:    slog.New(discardHandler{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := c.bind(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Update renders cfg. The current surface is kept when the lifecycle key
// is unchanged; otherwise it is torn down before the new one is built.
// An empty element set leaves the engine in the placeholder state with no
// surface.
func (e *Engine) Update(cfg Config) (*Handle, error) {
	if cfg.Layout == "" {
		cfg.Layout = layout.Default
	}
	if err := layout.Validate(cfg.Layout); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Closed {
		return nil, ErrClosed
	}

	key := lifecycleKey{
		fingerprint: cfg.Elements.Fingerprint(),
		layout:      cfg.Layout,
		root:        cfg.RootID,
		nav:         cfg.Navigator,
	}
	if e.keyed && e.key.equal(key) {
		return e.handle, nil
	}

	e.teardownLocked()
	e.key = key
	e.keyed = true

	if cfg.Elements.IsEmpty() {
		e.state = Placeholder
		e.handle = &Handle{engine: e}
		e.logger.Debug("placeholder", "reason", "empty element set")
		return e.handle, nil
	}

	s := e.factory(e.container)
	e.build(s, cfg)
	e.surface = s
	e.handle = &Handle{engine: e, surface: s, root: cfg.RootID}
	e.state = Rendered
	e.builds++

	if err := s.RunLayout(cfg.Layout, rootsOf(cfg.RootID)); err != nil {
		e.teardownLocked()
		e.keyed = false
		return nil, err
	}
	e.logger.Debug("surface built", "surface", s.ID(), "nodes", len(cfg.Elements.Nodes),
		"edges", len(cfg.Elements.Edges), "layout", cfg.Layout, "root", cfg.RootID)
	return e.handle, nil
}

// build adds classified elements to s and wires its events.
func (e *Engine) build(s Surface, cfg Config) {
	s.Add(Classify(cfg.Elements, cfg.RootID))

	root := cfg.RootID
	nav := cfg.Navigator
	s.OnTap(func(id string) {
		if id == root {
			return
		}
		for _, n := range s.Scene().WithClass(graph.ClassSelected) {
			s.RemoveClass(n, graph.ClassSelected)
		}
		s.AddClass(id, graph.ClassSelected)
		if nav != nil {
			nav.Activate(id)
		}
	})
	s.OnLayoutStop(func() {
		s.Fit(FitPadding)
	})
}

// Classify returns a copy of els with render-owned classes recomputed:
// root is set on the node whose id equals rootID and nowhere else, and
// selected is cleared.
func Classify(els graph.Elements, rootID string) graph.Elements {
	out := graph.Elements{
		Nodes: make([]graph.Node, len(els.Nodes)),
		Edges: append([]graph.Edge(nil), els.Edges...),
	}
	for i, n := range els.Nodes {
		var classes []string
		for _, c := range n.Classes {
			if c != graph.ClassRoot && c != graph.ClassSelected {
				classes = append(classes, c)
			}
		}
		if rootID != "" && n.ID == rootID {
			classes = append(classes, graph.ClassRoot)
		}
		n.Classes = classes
		out.Nodes[i] = n
	}
	return out
}

func rootsOf(rootID string) []string {
	if rootID == "" {
		return nil
	}
	return []string{rootID}
}

func (e *Engine) teardownLocked() {
	if e.handle != nil {
		e.handle.release()
		e.handle = nil
	}
	if e.surface != nil {
		e.logger.Debug("surface destroyed", "surface", e.surface.ID())
		e.surface.Destroy()
		e.surface = nil
	}
	if e.state != Closed {
		e.state = Unrendered
	}
}

// State returns the engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Handle returns the current handle, or nil before the first Update.
func (e *Engine) Handle() *Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handle
}

// Builds returns how many surfaces the engine has built.
func (e *Engine) Builds() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.builds
}

// Close tears down the surface and frees the container.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Closed {
		return
	}
	e.teardownLocked()
	e.state = Closed
	e.container.unbind(e)
}

// Handle is the imperative control surface of one build. It stays valid
// until the engine tears that build down.
type Handle struct {
	engine   *Engine
	surface  Surface
	root     string
	released bool
}

func (h *Handle) release() {
	h.released = true
}

// Surface returns the underlying surface, or nil for a placeholder.
func (h *Handle) Surface() Surface {
	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()
	if h.released {
		return nil
	}
	return h.surface
}

// Relayout re-runs a layout on the existing surface. Selection and classes
// are kept, and the layout becomes part of the engine's key so an Update
// carrying the same layout does not rebuild.
func (h *Handle) Relayout(name string) error {
	if err := layout.Validate(name); err != nil {
		return err
	}
	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()
	if h.released {
		return ErrReleased
	}
	if h.surface == nil {
		h.engine.key.layout = name
		return nil
	}
	if err := h.surface.RunLayout(name, rootsOf(h.root)); err != nil {
		return err
	}
	h.engine.key.layout = name
	return nil
}

// Fit recomputes the viewport so every node is visible. It is a no-op on a
// placeholder or released handle.
func (h *Handle) Fit() {
	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()
	if h.released || h.surface == nil {
		return
	}
	h.surface.Fit(FitPadding)
}

// Scene returns the current scene. ok is false for a placeholder or
// released handle.
func (h *Handle) Scene() (Scene, bool) {
	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()
	if h.released || h.surface == nil {
		return Scene{}, false
	}
	return h.surface.Scene(), true
}

// Released reports whether the build behind the handle was torn down.
func (h *Handle) Released() bool {
	h.engine.mu.Lock()
	defer h.engine.mu.Unlock()
	return h.released
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
