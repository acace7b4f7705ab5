package debounce

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Option configures a Controller.
type Option func(*options)

type options struct {
	clock  Clock
	window time.Duration
	logger *slog.Logger
}

// WithClock sets the clock used for text windows.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithWindow sets the quiescence window. Non-positive values keep the default.
func WithWindow(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.window = d
		}
	}
}

// WithLogger sets the logger for submission tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Controller owns an accumulated filter state and submits it whole.
// Text fields are debounced per field; discrete changes submit at once.
type Controller[S any] struct {
	mu     sync.Mutex
	state  S
	submit func(S)
	timers map[string]*Timer
	opts   options
	closed bool
}

// New creates a controller holding initial. submit receives the full state
// by value and must not retain references into it that it then mutates.
func New[S any](initial S, submit func(S), opts ...Option) *Controller[S] {
	o := options{
		clock:  RealClock(),
		window: DefaultWindow,
		logger: slog.New(discardHandler{}),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Controller[S]{
		state:  initial,
		submit: submit,
		timers: make(map[string]*Timer),
		opts:   o,
	}
}

// SetText applies mutate and restarts field's window.
func (c *Controller[S]) SetText(field string, mutate func(*S)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	mutate(&c.state)

	t, ok := c.timers[field]
	if !ok {
		t = NewTimer(c.opts.clock, c.opts.window, func() { c.fire(field) })
		c.timers[field] = t
	}
	t.Reset()
}

// SetDiscrete applies mutate, cancels every pending text window and submits
// the full state immediately.
func (c *Controller[S]) SetDiscrete(mutate func(*S)) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	mutate(&c.state)
	c.stopAllLocked()
	s := c.state
	c.mu.Unlock()

	c.opts.logger.Debug("submit", "trigger", "discrete")
	c.submit(s)
}

// Flush submits now if any text window is pending. It reports whether a
// submission happened.
func (c *Controller[S]) Flush() bool {
	c.mu.Lock()
	if c.closed || !c.stopAllLocked() {
		c.mu.Unlock()
		return false
	}
	s := c.state
	c.mu.Unlock()

	c.opts.logger.Debug("submit", "trigger", "flush")
	c.submit(s)
	return true
}

// State returns the accumulated state.
func (c *Controller[S]) State() S {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PendingFields returns the sorted names of fields with a running window.
func (c *Controller[S]) PendingFields() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var fields []string
	for name, t := range c.timers {
		if t.State() == Pending {
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return fields
}

// Close cancels every pending window. Later changes and fires are dropped.
func (c *Controller[S]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for _, t := range c.timers {
		t.Close()
	}
}

func (c *Controller[S]) stopAllLocked() bool {
	stopped := false
	for _, t := range c.timers {
		if t.Stop() {
			stopped = true
		}
	}
	return stopped
}

func (c *Controller[S]) fire(field string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	s := c.state
	c.mu.Unlock()

	c.opts.logger.Debug("submit", "trigger", "text", "field", field)
	c.submit(s)
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }
