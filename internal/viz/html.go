package viz

import (
	"bytes"
	"errors"
	"html/template"

	"github.com/matsen/depviz/internal/render"
)

// compiledTemplate is parsed at init time to fail fast on template errors.
var compiledTemplate *template.Template

func init() {
	compiledTemplate = template.Must(template.New("viz").Parse(htmlTemplate))
}

// DefaultCytoscapeURL is the script loaded by generated pages.
const DefaultCytoscapeURL = "https://unpkg.com/cytoscape@3/dist/cytoscape.min.js"

// HTMLOptions configures HTML generation.
type HTMLOptions struct {
	Title     string
	ScriptURL string
}

// DefaultOptions returns default HTML generation options.
func DefaultOptions() HTMLOptions {
	return HTMLOptions{
		Title:     "Dependency Graph",
		ScriptURL: DefaultCytoscapeURL,
	}
}

// templateData holds data for the HTML template.
type templateData struct {
	Title      string
	ScriptURL  string
	GraphJSON  template.JS
	StyleJSON  template.JS
	Zoom       float64
	PanX, PanY float64
}

// GenerateHTML renders a scene as a self-contained page. Node positions and
// the viewport are taken from the scene, so the page shows exactly what was
// laid out.
func GenerateHTML(scene *render.Scene, opts HTMLOptions) (string, error) {
	if scene == nil {
		return "", errors.New("scene cannot be nil")
	}
	if opts.Title == "" {
		opts.Title = DefaultOptions().Title
	}
	if opts.ScriptURL == "" {
		opts.ScriptURL = DefaultCytoscapeURL
	}

	if len(scene.Nodes) == 0 {
		return generateEmptyHTML(opts.Title)
	}

	graphJSON, err := ToCytoscapeJSON(*scene)
	if err != nil {
		return "", err
	}
	styleJSON, err := stylesheetJSON(render.Stylesheet())
	if err != nil {
		return "", err
	}

	zoom := scene.Viewport.Zoom
	if zoom <= 0 {
		zoom = 1
	}
	data := templateData{
		Title:     opts.Title,
		ScriptURL: opts.ScriptURL,
		GraphJSON: template.JS(graphJSON),
		StyleJSON: template.JS(styleJSON),
		Zoom:      zoom,
		PanX:      scene.Viewport.Pan.X,
		PanY:      scene.Viewport.Pan.Y,
	}

	var buf bytes.Buffer
	if err := compiledTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var emptyTemplate = template.Must(template.New("empty").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.}} - Empty</title>
  <style>
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      display: flex;
      justify-content: center;
      align-items: center;
      height: 100vh;
      margin: 0;
      background: #f5f5f5;
    }
    .empty-state {
      text-align: center;
      color: #666;
    }
    .empty-state code {
      background: #e0e0e0;
      padding: 2px 6px;
      border-radius: 3px;
    }
  </style>
</head>
<body>
  <div class="empty-state">
    <h2>No graph data</h2>
    <p>No dependencies match the current query.</p>
    <p>Upload descriptors using <code>depviz upload</code></p>
  </div>
</body>
</html>`))

// generateEmptyHTML returns HTML for an empty graph state.
func generateEmptyHTML(title string) (string, error) {
	var buf bytes.Buffer
	if err := emptyTemplate.Execute(&buf, title); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <script src="{{.ScriptURL}}"></script>
  <style>
    * {
      box-sizing: border-box;
    }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, Helvetica, Arial, sans-serif;
      margin: 0;
      padding: 0;
      background: #f5f5f5;
    }
    #cy {
      width: 100%;
      height: 100vh;
      background: white;
    }
    #details {
      position: absolute;
      top: 12px;
      right: 12px;
      display: none;
      background: white;
      border: 1px solid #ccc;
      border-radius: 4px;
      padding: 8px 12px;
      box-shadow: 0 2px 8px rgba(0,0,0,0.15);
      font-size: 13px;
      z-index: 1000;
    }
    #details .label {
      font-weight: bold;
      margin-bottom: 4px;
    }
    #details .detail {
      color: #555;
      margin: 2px 0;
    }
  </style>
</head>
<body>
  <div id="cy"></div>
  <div id="details"></div>
  <script>
    (function() {
      const cy = cytoscape({
        container: document.getElementById('cy'),
        elements: {{.GraphJSON}},
        style: {{.StyleJSON}},
        layout: { name: 'preset' },
        zoom: {{.Zoom}},
        pan: { x: {{.PanX}}, y: {{.PanY}} },
        minZoom: 0.1,
        maxZoom: 3
      });

      const details = document.getElementById('details');

      function escapeHtml(str) {
        if (!str) return '';
        return String(str).replace(/&/g, '&amp;')
                          .replace(/</g, '&lt;')
                          .replace(/>/g, '&gt;')
                          .replace(/"/g, '&quot;');
      }

      function row(name, value) {
        return value ? '<div class="detail">' + name + ': ' + escapeHtml(value) + '</div>' : '';
      }

      cy.on('tap', 'node', function(evt) {
        const data = evt.target.data();
        cy.nodes().removeClass('selected');
        evt.target.addClass('selected');
        details.innerHTML = '<div class="label">' + escapeHtml(data.id) + '</div>' +
          row('Group', data.groupId) + row('Artifact', data.artifactId) + row('Version', data.version);
        details.style.display = 'block';
      });

      cy.on('tap', 'edge', function(evt) {
        const data = evt.target.data();
        details.innerHTML = '<div class="label">' + escapeHtml(data.source) + ' → ' + escapeHtml(data.target) + '</div>' +
          row('Scope', data.scope) + (data.optional ? '<div class="detail">optional</div>' : '');
        details.style.display = 'block';
      });

      cy.on('tap', function(evt) {
        if (evt.target === cy) {
          cy.nodes().removeClass('selected');
          details.style.display = 'none';
        }
      });
    })();
  </script>
</body>
</html>`
