package layout

import "math"

// NodeRadius is the half extent of a rendered node.
const NodeRadius = 15.0

// Zoom bounds applied by Fit.
const (
	MinZoom = 0.1
	MaxZoom = 3.0
)

// Rect is an axis-aligned box.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns the vertical extent.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// Viewport is a zoom factor and a pan offset in rendered pixels.
type Viewport struct {
	Zoom float64 `json:"zoom"`
	Pan  Point   `json:"pan"`
}

// Bounds returns the box enclosing every node including its extent.
// The zero Rect is returned for no positions.
func Bounds(pos Positions) Rect {
	first := true
	var r Rect
	for _, p := range pos {
		if first {
			r = Rect{p.X, p.Y, p.X, p.Y}
			first = false
			continue
		}
		r.X1 = math.Min(r.X1, p.X)
		r.Y1 = math.Min(r.Y1, p.Y)
		r.X2 = math.Max(r.X2, p.X)
		r.Y2 = math.Max(r.Y2, p.Y)
	}
	if first {
		return Rect{}
	}
	return Rect{r.X1 - NodeRadius, r.Y1 - NodeRadius, r.X2 + NodeRadius, r.Y2 + NodeRadius}
}

// Fit returns the viewport that centers box in a width x height container
// with padding on every side, zoom clamped to [MinZoom, MaxZoom].
func Fit(box Rect, width, height, padding float64) Viewport {
	availW := math.Max(width-2*padding, 1)
	availH := math.Max(height-2*padding, 1)

	zoom := MaxZoom
	if box.Width() > 0 {
		zoom = math.Min(zoom, availW/box.Width())
	}
	if box.Height() > 0 {
		zoom = math.Min(zoom, availH/box.Height())
	}
	zoom = math.Max(MinZoom, math.Min(MaxZoom, zoom))

	cx := (box.X1 + box.X2) / 2
	cy := (box.Y1 + box.Y2) / 2
	return Viewport{
		Zoom: zoom,
		Pan:  Point{X: width/2 - cx*zoom, Y: height/2 - cy*zoom},
	}
}

// ToScreen maps a model point through the viewport.
func (v Viewport) ToScreen(p Point) Point {
	return Point{X: p.X*v.Zoom + v.Pan.X, Y: p.Y*v.Zoom + v.Pan.Y}
}
