package render

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/layout"
)

// Canvas is the in-memory Surface. Layout runs complete synchronously and
// emit their stop event after the positions are applied.
type Canvas struct {
	mu        sync.Mutex
	id        string
	width     float64
	height    float64
	nodes     []graph.Node
	edges     []graph.Edge
	classes   map[string]map[string]bool
	positions layout.Positions
	viewport  layout.Viewport
	layout    string
	onTap     []func(string)
	onStop    []func()
	destroyed bool
	runs      int
	fits      int
}

// NewCanvas creates an empty canvas sized to c.
func NewCanvas(c *Container) Surface {
	w, h := c.Size()
	return &Canvas{
		id:       uuid.NewString(),
		width:    w,
		height:   h,
		classes:  make(map[string]map[string]bool),
		viewport: layout.Viewport{Zoom: 1},
	}
}

func (c *Canvas) ID() string { return c.id }

// Add appends elements. Nodes with an id already on the canvas are skipped.
func (c *Canvas) Add(els graph.Elements) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return
	}
	for _, n := range els.Nodes {
		if _, ok := c.classes[n.ID]; ok {
			continue
		}
		set := make(map[string]bool, len(n.Classes))
		for _, cl := range n.Classes {
			set[cl] = true
		}
		c.classes[n.ID] = set
		n.Classes = nil
		c.nodes = append(c.nodes, n)
	}
	c.edges = append(c.edges, els.Edges...)
}

func (c *Canvas) AddClass(id, class string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if set, ok := c.classes[id]; ok {
		set[class] = true
	}
}

func (c *Canvas) RemoveClass(id, class string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if set, ok := c.classes[id]; ok {
		delete(set, class)
	}
}

func (c *Canvas) HasClass(id, class string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classes[id][class]
}

// RunLayout positions every node and then emits the layout-stop event.
func (c *Canvas) RunLayout(name string, roots []string) error {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return fmt.Errorf("surface %s destroyed", c.id)
	}
	g := layout.Graph{Nodes: make([]string, len(c.nodes))}
	for i, n := range c.nodes {
		g.Nodes[i] = n.ID
	}
	for _, e := range c.edges {
		g.Edges = append(g.Edges, layout.Edge{Source: e.Source, Target: e.Target})
	}
	pos, err := layout.Run(name, g, layout.Options{Roots: roots})
	if err != nil {
		c.mu.Unlock()
		return err
	}
	c.positions = pos
	c.layout = name
	c.runs++
	handlers := append([]func(){}, c.onStop...)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
	return nil
}

// Fit zooms and pans so every node is visible with padding on each side.
func (c *Canvas) Fit(padding float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed || len(c.positions) == 0 {
		return
	}
	c.viewport = layout.Fit(layout.Bounds(c.positions), c.width, c.height, padding)
	c.fits++
}

func (c *Canvas) OnTap(fn func(id string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTap = append(c.onTap, fn)
}

func (c *Canvas) OnLayoutStop(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onStop = append(c.onStop, fn)
}

// Tap delivers a tap on node id to the registered handlers. Taps on a
// destroyed canvas or on unknown ids are dropped.
func (c *Canvas) Tap(id string) {
	c.mu.Lock()
	_, known := c.classes[id]
	if c.destroyed || !known {
		c.mu.Unlock()
		return
	}
	handlers := append([]func(string){}, c.onTap...)
	c.mu.Unlock()

	for _, fn := range handlers {
		fn(id)
	}
}

// Destroy releases the canvas. Handlers are dropped.
func (c *Canvas) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.destroyed = true
	c.onTap = nil
	c.onStop = nil
}

// Destroyed reports whether Destroy was called.
func (c *Canvas) Destroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

// Stats returns how many layout runs and fits the canvas performed.
func (c *Canvas) Stats() (layoutRuns, fits int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs, c.fits
}

func (c *Canvas) Scene() Scene {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Scene{
		ID:       c.id,
		Layout:   c.layout,
		Width:    c.width,
		Height:   c.height,
		Viewport: c.viewport,
		Nodes:    make([]SceneNode, 0, len(c.nodes)),
		Edges:    append([]graph.Edge(nil), c.edges...),
	}
	for _, n := range c.nodes {
		var classes []string
		for cl := range c.classes[n.ID] {
			classes = append(classes, cl)
		}
		sort.Strings(classes)
		s.Nodes = append(s.Nodes, SceneNode{
			ID:       n.ID,
			Label:    n.Label,
			Classes:  classes,
			Position: c.positions[n.ID],
		})
	}
	return s
}
