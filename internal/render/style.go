package render

import "github.com/matsen/depviz/internal/graph"

// StyleRule is one selector and its visual properties.
type StyleRule struct {
	Selector   string
	Properties map[string]string
}

// Stylesheet returns the node and edge styles, most specific last.
func Stylesheet() []StyleRule {
	return []StyleRule{
		{Selector: "node", Properties: map[string]string{
			"label":            "data(label)",
			"background-color": "#4a90d9",
			"color":            "#333",
			"font-size":        "10px",
			"text-valign":      "bottom",
			"text-margin-y":    "4px",
			"width":            "30px",
			"height":           "30px",
		}},
		{Selector: "edge", Properties: map[string]string{
			"width":              "1.5px",
			"line-color":         "#bbb",
			"target-arrow-color": "#bbb",
			"target-arrow-shape": "triangle",
			"curve-style":        "bezier",
		}},
		{Selector: "edge[?optional]", Properties: map[string]string{
			"line-style": "dashed",
		}},
		{Selector: "node." + graph.ClassHighlight, Properties: map[string]string{
			"background-color": "#f5a623",
		}},
		{Selector: "node." + graph.ClassRoot, Properties: map[string]string{
			"background-color": "#d0021b",
			"width":            "40px",
			"height":           "40px",
			"font-weight":      "bold",
		}},
		{Selector: "node." + graph.ClassSelected, Properties: map[string]string{
			"border-width": "3px",
			"border-color": "#2d2d2d",
		}},
	}
}
