package render

import (
	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/layout"
)

// Surface is an imperative rendering surface bound to one container.
// Event handlers are invoked without any surface lock held, so they may
// call back into the surface.
type Surface interface {
	ID() string
	Add(els graph.Elements)
	AddClass(id, class string)
	RemoveClass(id, class string)
	HasClass(id, class string) bool
	RunLayout(name string, roots []string) error
	Fit(padding float64)
	OnTap(fn func(id string))
	OnLayoutStop(fn func())
	Scene() Scene
	Destroy()
}

// SurfaceFactory creates a surface for a container.
type SurfaceFactory func(c *Container) Surface

// Scene is a point-in-time view of a surface.
type Scene struct {
	ID       string          `json:"id"`
	Layout   string          `json:"layout"`
	Width    float64         `json:"width"`
	Height   float64         `json:"height"`
	Viewport layout.Viewport `json:"viewport"`
	Nodes    []SceneNode     `json:"nodes"`
	Edges    []graph.Edge    `json:"edges"`
}

// SceneNode is a node with its classes and model position.
type SceneNode struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Classes  []string     `json:"classes,omitempty"`
	Position layout.Point `json:"position"`
}

// Node returns the scene node with the given id.
func (s Scene) Node(id string) (SceneNode, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return SceneNode{}, false
}

// WithClass returns the ids of nodes carrying class, in scene order.
func (s Scene) WithClass(class string) []string {
	var ids []string
	for _, n := range s.Nodes {
		for _, c := range n.Classes {
			if c == class {
				ids = append(ids, n.ID)
				break
			}
		}
	}
	return ids
}
