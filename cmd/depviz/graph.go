package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/graph"
	"github.com/matsen/depviz/internal/layout"
	"github.com/matsen/depviz/internal/query"
	"github.com/matsen/depviz/internal/render"
	"github.com/matsen/depviz/internal/ui"
)

var (
	graphDirection       string
	graphDepth           int
	graphCollapseGroup   bool
	graphCollapseVersion bool
	graphScopes          []string
	graphLayout          string
	graphHTML            bool
	graphScene           bool
	graphOutput          string
	graphWidth           float64
	graphHeight          float64
)

var graphCmd = &cobra.Command{
	Use:   "graph [root-id]",
	Short: "Query the dependency graph",
	Long: `Query the whole dependency graph, or the part reachable from a root.

Without a root the whole graph is returned and --direction and --depth are
ignored. With a root, forward follows dependencies and reverse follows
dependents; --depth 0 is unbounded.

Examples:
  depviz graph
  depviz graph org.slf4j:slf4j-api:2.0.9 --direction reverse --depth 1
  depviz graph --collapse-version --human
  depviz graph com.acme:app:1.0 --html -o app.html --layout breadthfirst`,
	Args: cobra.MaximumNArgs(1),
	Run:  runGraph,
}

func init() {
	graphCmd.Flags().StringVar(&graphDirection, "direction", string(query.DefaultDirection), "Traversal direction: forward or reverse")
	graphCmd.Flags().IntVar(&graphDepth, "depth", 0, "Maximum hops from the root (0 = unbounded)")
	graphCmd.Flags().BoolVar(&graphCollapseGroup, "collapse-group", false, "Merge artifacts across groups")
	graphCmd.Flags().BoolVar(&graphCollapseVersion, "collapse-version", false, "Merge versions of an artifact")
	graphCmd.Flags().StringSliceVar(&graphScopes, "scope", nil, "Restrict edges to scopes (repeatable)")
	graphCmd.Flags().StringVar(&graphLayout, "layout", "", "Layout: "+strings.Join(layout.ValidLayouts, ", ")+" (default from config)")
	graphCmd.Flags().BoolVar(&graphHTML, "html", false, "Write a standalone HTML page of the laid-out graph")
	graphCmd.Flags().BoolVar(&graphScene, "scene", false, "Output the laid-out scene with node positions")
	graphCmd.Flags().StringVarP(&graphOutput, "output", "o", "", "Output file for --html (default: stdout)")
	graphCmd.Flags().Float64Var(&graphWidth, "width", render.DefaultWidth, "Viewport width for layout")
	graphCmd.Flags().Float64Var(&graphHeight, "height", render.DefaultHeight, "Viewport height for layout")
	graphCmd.RegisterFlagCompletionFunc("layout", fixedCompletion(layout.ValidLayouts...))
	graphCmd.RegisterFlagCompletionFunc("direction", fixedCompletion(string(query.Forward), string(query.Reverse)))
	rootCmd.AddCommand(graphCmd)
}

// GraphResponse is the response for graph queries.
type GraphResponse struct {
	RootID    string         `json:"root_id,omitempty"`
	NodeCount int            `json:"node_count"`
	EdgeCount int            `json:"edge_count"`
	Elements  graph.Elements `json:"elements"`
}

func runGraph(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	dir, err := query.ParseDirection(graphDirection)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if graphDepth < 0 {
		exitWithError(ExitError, "invalid depth %d: must not be negative", graphDepth)
	}
	layoutName := graphLayout
	if layoutName == "" {
		layoutName = cfg.Layout()
	}
	if err := layout.Validate(layoutName); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	q := query.GraphQuery{
		Direction: dir,
		Depth:     graphDepth,
		Collapse:  gav.Collapse{Group: graphCollapseGroup, Version: graphCollapseVersion},
		Scopes:    graphScopes,
	}
	if len(args) == 1 {
		q.RootID = args[0]
	}

	c := newClient(cfg)
	els, err := c.FetchGraph(context.Background(), q)
	exitOnError(err, "fetching graph")
	rootID := ""
	if q.RootID != "" {
		rootID = gav.ProjectKey(q.RootID, q.Collapse)
	}

	if graphHTML || graphScene {
		scene, err := renderScene(els, rootID, layoutName, graphWidth, graphHeight)
		exitOnError(err, "rendering graph")
		if graphScene {
			outputJSON(scene)
			return
		}
		title := "Dependency Graph"
		if rootID != "" {
			title = gav.Label(rootID) + " dependencies"
		}
		exitOnError(writeSceneHTML(scene, title, graphOutput), "writing page")
		if graphOutput != "" {
			if humanOutput {
				fmt.Printf("Wrote %s (%d nodes, %d edges)\n", graphOutput, len(els.Nodes), len(els.Edges))
			} else {
				outputJSON(StatusResponse{Status: "written", Path: graphOutput})
			}
		}
		return
	}

	if !humanOutput {
		outputJSON(GraphResponse{RootID: rootID, NodeCount: len(els.Nodes), EdgeCount: len(els.Edges), Elements: els})
		return
	}
	printGraphHuman(els, rootID)
}

func printGraphHuman(els graph.Elements, rootID string) {
	if els.IsEmpty() {
		if rootID != "" {
			fmt.Printf("No artifact %s in the graph.\n", rootID)
		} else {
			fmt.Println("The graph is empty. Upload descriptors with 'depviz upload'.")
		}
		return
	}
	if rootID != "" {
		ui.Heading(os.Stdout, "%s", rootID)
	}
	fmt.Printf("%d nodes, %d edges\n\n", len(els.Nodes), len(els.Edges))
	rows := make([][]string, len(els.Edges))
	for i, e := range els.Edges {
		optional := ""
		if e.Optional {
			optional = "optional"
		}
		rows[i] = []string{e.Source, e.Target, e.Scope, optional}
	}
	ui.Table(os.Stdout, []string{"FROM", "TO", "SCOPE", ""}, rows)
}
