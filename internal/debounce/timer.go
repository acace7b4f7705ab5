// Package debounce coalesces bursts of text input into a single submission
// after a quiescence window, while discrete changes submit immediately.
package debounce

import (
	"sync"
	"time"
)

// DefaultWindow is the quiescence window for text input.
const DefaultWindow = 300 * time.Millisecond

// State is the state of one field's timer.
type State int

const (
	Idle State = iota
	Pending
)

func (s State) String() string {
	if s == Pending {
		return "pending"
	}
	return "idle"
}

// Timer is a restartable one-shot timer owned by a single input field.
// Each Reset supersedes the previous schedule; a superseded or stopped
// schedule never fires.
type Timer struct {
	mu     sync.Mutex
	clock  Clock
	window time.Duration
	fn     func()
	cur    Stopper
	gen    uint64
	state  State
	closed bool
}

// NewTimer creates an idle timer that calls fn when a window elapses
// without a further Reset.
func NewTimer(clock Clock, window time.Duration, fn func()) *Timer {
	if clock == nil {
		clock = RealClock()
	}
	return &Timer{clock: clock, window: window, fn: fn}
}

// Reset (re)starts the window. It is a no-op on a closed timer.
func (t *Timer) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	t.cancelLocked()
	t.gen++
	gen := t.gen
	t.state = Pending
	t.cur = t.clock.AfterFunc(t.window, func() { t.fire(gen) })
}

// Stop cancels a pending window. It reports whether one was pending.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelLocked()
}

// Close stops the timer for good.
func (t *Timer) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
	t.closed = true
}

// State returns Pending while a window is running.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Timer) cancelLocked() bool {
	wasPending := t.state == Pending
	if t.cur != nil {
		t.cur.Stop()
		t.cur = nil
	}
	t.gen++
	t.state = Idle
	return wasPending
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if t.closed || gen != t.gen || t.state != Pending {
		t.mu.Unlock()
		return
	}
	t.state = Idle
	t.cur = nil
	t.mu.Unlock()

	t.fn()
}
