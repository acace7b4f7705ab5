package render

import (
	"errors"
	"sync"
)

// ErrContainerBusy is returned when a container already has an engine bound.
var ErrContainerBusy = errors.New("container is bound to another engine")

// Default container dimensions.
const (
	DefaultWidth  = 1200
	DefaultHeight = 800
)

// Container is the display region a surface draws into. At most one engine
// may be bound to it at a time.
type Container struct {
	mu     sync.Mutex
	width  float64
	height float64
	owner  *Engine
}

// NewContainer creates a container. Non-positive dimensions use the defaults.
func NewContainer(width, height float64) *Container {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Container{width: width, height: height}
}

// Size returns the container dimensions.
func (c *Container) Size() (width, height float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// Bound reports whether an engine currently owns the container.
func (c *Container) Bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.owner != nil
}

func (c *Container) bind(e *Engine) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner != nil && c.owner != e {
		return ErrContainerBusy
	}
	c.owner = e
	return nil
}

func (c *Container) unbind(e *Engine) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.owner == e {
		c.owner = nil
	}
}
