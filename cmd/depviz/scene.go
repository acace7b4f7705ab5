package main

import (
	"fmt"
	"os"

	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/render"
	"github.com/matsen/depviz/internal/viz"
)

// renderScene lays out els off screen and returns the fitted scene.
func renderScene(els graph.Elements, rootID, layoutName string, width, height float64) (render.Scene, error) {
	eng, err := render.NewEngine(render.NewContainer(width, height), render.WithLogger(newLogger()))
	if err != nil {
		return render.Scene{}, err
	}
	defer eng.Close()

	h, err := eng.Update(render.Config{Elements: els, Layout: layoutName, RootID: rootID})
	if err != nil {
		return render.Scene{}, err
	}
	scene, _ := h.Scene()
	return scene, nil
}

// writeSceneHTML writes scene as a standalone page to path, or stdout when
// path is empty.
func writeSceneHTML(scene render.Scene, title, path string) error {
	opts := viz.DefaultOptions()
	if title != "" {
		opts.Title = title
	}
	html, err := viz.GenerateHTML(&scene, opts)
	if err != nil {
		return fmt.Errorf("generating HTML: %w", err)
	}
	if path == "" {
		fmt.Print(html)
		return nil
	}
	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
