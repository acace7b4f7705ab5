package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/clipboard"
	"github.com/matsen/depviz/internal/config"
	"github.com/matsen/depviz/internal/explore"
	"github.com/matsen/depviz/internal/gav"
	"github.com/matsen/depviz/internal/layout"
	"github.com/matsen/depviz/internal/query"
	"github.com/matsen/depviz/internal/render"
	"github.com/matsen/depviz/internal/ui"
)

// graphPane is the surface shared by the global and rooted views.
type graphPane interface {
	Refresh(ctx context.Context) error
	SetCollapse(ctx context.Context, c gav.Collapse) error
	SetScopes(ctx context.Context, scopes []string) error
	SetLayout(name string) error
	Fit()
	DismissError()
	Snapshot() explore.GraphSnapshot
}

// session is one interactive exploration over a fetcher.
type session struct {
	ctx     context.Context
	out     io.Writer
	router  *explore.Router
	engines map[explore.Route]*render.Engine
	copy    func(text string) error
}

const sessionHelp = `Commands:
  global                      show the whole graph
  root <id>                   show the graph rooted at an artifact
  dir forward|reverse         traversal direction of the rooted view
  depth all|1|2|3             depth of the rooted view
  collapse [group] [version]  merge coordinates; 'collapse none' to reset
  scope [scope...]            restrict edges to scopes; no args clears
  layout <name>               switch layout in place
  fit                         fit the graph to the viewport
  click <id>                  activate a node (re-roots)
  details                     coordinates of the current root
  copy                        copy the current root's id to the clipboard
  table                       show the dependency table
  filter artifact|group <text>  set a table text filter (debounced)
  flush                       apply pending table filters now
  toggle <scope>              toggle a table scope
  scopes                      list known scopes
  upload <path...>            upload descriptors and refresh
  save <file.html>            write the current graph as a page
  export <file.csv>           export the filtered table
  show                        print the current view
  dismiss                     dismiss the current error
  quit`

func newSession(ctx context.Context, f explore.Fetcher, cfg *config.Config, out io.Writer, logger *slog.Logger) (*session, error) {
	s := &session{ctx: ctx, out: out, engines: make(map[explore.Route]*render.Engine), copy: clipboard.Copy}
	for _, route := range []explore.Route{explore.RouteGlobal, explore.RouteRooted} {
		eng, err := render.NewEngine(render.NewContainer(render.DefaultWidth, render.DefaultHeight), render.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		s.engines[route] = eng
	}

	common := []explore.Option{
		explore.WithContext(ctx),
		explore.WithLogger(logger),
		explore.WithLayout(cfg.Layout()),
	}
	global := explore.NewGlobalView(f, append(common, explore.WithEngine(s.engines[explore.RouteGlobal]))...)
	rooted := explore.NewRootedView(f, append(common, explore.WithEngine(s.engines[explore.RouteRooted]))...)
	table := explore.NewTableView(f, append(common,
		explore.WithDebounceWindow(cfg.DebounceWindow()),
		explore.WithTableLimit(cfg.Limit()))...)
	s.router = explore.NewRouter(f, global, rooted, table, common...)
	return s, nil
}

func (s *session) close() {
	s.router.Close()
	for _, e := range s.engines {
		e.Close()
	}
}

// run executes commands from in until quit or end of input.
func (s *session) run(in io.Reader, prompt bool) error {
	sc := bufio.NewScanner(in)
	for {
		if prompt {
			fmt.Fprintf(s.out, "%s> ", s.router.Current())
		}
		if !sc.Scan() {
			return sc.Err()
		}
		quit, err := s.exec(sc.Text())
		if err != nil {
			ui.Errorf(s.out, "%v", err)
		}
		if quit {
			return nil
		}
	}
}

// pane returns the graph view of the current route, or nil for the table.
func (s *session) pane() graphPane {
	switch s.router.Current() {
	case explore.RouteGlobal:
		return s.router.Global()
	case explore.RouteRooted:
		return s.router.Rooted()
	}
	return nil
}

func (s *session) requirePane() (graphPane, error) {
	p := s.pane()
	if p == nil {
		return nil, errors.New("not available in the table view")
	}
	return p, nil
}

// exec runs one command line. View errors are printed as part of the view;
// returned errors are usage errors.
func (s *session) exec(line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]
	ctx := s.ctx

	switch cmd {
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(s.out, sessionHelp)
		return false, nil
	case "show":
	case "global":
		s.router.Show(explore.RouteGlobal)
		_ = s.router.Global().Refresh(ctx)
	case "root":
		if len(args) != 1 {
			return false, errors.New("usage: root <id>")
		}
		_ = s.router.Navigate(ctx, args[0])
	case "dir":
		if len(args) != 1 {
			return false, errors.New("usage: dir forward|reverse")
		}
		if err := s.router.Rooted().SetDirection(ctx, query.Direction(args[0])); err != nil && !isViewError(err) {
			return false, err
		}
	case "depth":
		if len(args) != 1 {
			return false, errors.New("usage: depth all|1|2|3")
		}
		depth, err := parseDepth(args[0])
		if err != nil {
			return false, err
		}
		if err := s.router.Rooted().SetDepth(ctx, depth); err != nil && !isViewError(err) {
			return false, err
		}
	case "collapse":
		c, err := parseCollapse(args)
		if err != nil {
			return false, err
		}
		if p := s.pane(); p != nil {
			_ = p.SetCollapse(ctx, c)
		} else {
			s.router.Table().SetCollapse(c)
		}
	case "scope":
		if p := s.pane(); p != nil {
			_ = p.SetScopes(ctx, args)
		} else {
			s.router.Table().SetScopes(args)
		}
	case "layout":
		p, err := s.requirePane()
		if err != nil {
			return false, err
		}
		if len(args) != 1 {
			return false, fmt.Errorf("usage: layout %s", strings.Join(layout.ValidLayouts, "|"))
		}
		if err := p.SetLayout(args[0]); err != nil {
			return false, err
		}
	case "fit":
		p, err := s.requirePane()
		if err != nil {
			return false, err
		}
		p.Fit()
	case "click":
		if len(args) != 1 {
			return false, errors.New("usage: click <id>")
		}
		if err := s.click(args[0]); err != nil {
			return false, err
		}
	case "details":
		d := s.router.Rooted().Details()
		fmt.Fprintf(s.out, "id:       %s\ngroup:    %s\nartifact: %s\nversion:  %s\n", d.ID, d.GroupID, d.ArtifactID, d.Version)
		return false, nil
	case "copy":
		id := s.router.Rooted().Details().ID
		if id == "" {
			return false, errors.New("no root selected")
		}
		if err := s.copy(id); err != nil {
			return false, fmt.Errorf("copying %s: %w", id, err)
		}
		fmt.Fprintf(s.out, "Copied %s\n", id)
		return false, nil
	case "table":
		s.router.Show(explore.RouteTable)
		_ = s.router.Table().Refresh(ctx)
	case "filter":
		if len(args) < 1 {
			return false, errors.New("usage: filter artifact|group <text>")
		}
		text := strings.Join(args[1:], " ")
		switch args[0] {
		case "artifact":
			s.router.Table().SetArtifactPattern(text)
		case "group":
			s.router.Table().SetGroupPattern(text)
		default:
			return false, errors.New("usage: filter artifact|group <text>")
		}
		return false, nil
	case "flush":
		s.router.Table().Flush()
	case "toggle":
		if len(args) != 1 {
			return false, errors.New("usage: toggle <scope>")
		}
		s.router.Table().ToggleScope(args[0])
	case "scopes":
		scopes, err := s.router.Table().LoadScopes(ctx)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(s.out, strings.Join(scopes, " "))
		return false, nil
	case "upload":
		return false, s.upload(args)
	case "save":
		if len(args) != 1 {
			return false, errors.New("usage: save <file.html>")
		}
		return false, s.save(args[0])
	case "export":
		if len(args) != 1 {
			return false, errors.New("usage: export <file.csv>")
		}
		return false, s.export(args[0])
	case "dismiss":
		if p := s.pane(); p != nil {
			p.DismissError()
		} else {
			s.router.Table().DismissError()
		}
		s.router.DismissError()
	default:
		return false, fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
	s.print()
	return false, nil
}

func isViewError(err error) bool {
	var verr *explore.ViewError
	return errors.As(err, &verr)
}

func parseDepth(s string) (int, error) {
	if s == "all" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > query.MaxDepth {
		return 0, fmt.Errorf("invalid depth %q: must be all or 1 to %d", s, query.MaxDepth)
	}
	return n, nil
}

func parseCollapse(args []string) (gav.Collapse, error) {
	var c gav.Collapse
	for _, a := range args {
		switch a {
		case "none":
		case "group":
			c.Group = true
		case "version":
			c.Version = true
		default:
			return c, fmt.Errorf("invalid collapse %q: must be group, version or none", a)
		}
	}
	return c, nil
}

// click taps a node on the current surface.
func (s *session) click(id string) error {
	eng, ok := s.engines[s.router.Current()]
	if !ok {
		return errors.New("not available in the table view")
	}
	h := eng.Handle()
	if h == nil || h.Surface() == nil {
		return errors.New("nothing rendered")
	}
	canvas, ok := h.Surface().(*render.Canvas)
	if !ok {
		return errors.New("surface does not accept taps")
	}
	scene, _ := h.Scene()
	if _, ok := scene.Node(id); !ok {
		return fmt.Errorf("no node %s in the current graph", id)
	}
	canvas.Tap(id)
	return nil
}

func (s *session) upload(paths []string) error {
	if len(paths) == 0 {
		return errors.New("usage: upload <path...>")
	}
	files, err := collectDescriptors(paths)
	if err != nil {
		return err
	}
	outcome, err := s.router.Upload(s.ctx, files)
	if err != nil && !isViewError(err) {
		return err
	}
	if verr := s.router.Err(); verr != nil {
		ui.Errorf(s.out, "%v", verr)
		return nil
	}
	s.printOutcome(outcome)
	return nil
}

func (s *session) save(path string) error {
	eng, ok := s.engines[s.router.Current()]
	if !ok {
		return errors.New("not available in the table view")
	}
	var scene render.Scene
	if h := eng.Handle(); h != nil {
		scene, _ = h.Scene()
	}
	if err := writeSceneHTML(scene, "Dependency Graph", path); err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Wrote %s\n", path)
	return nil
}

func (s *session) export(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer f.Close()
	n, err := s.router.Table().Export(s.ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(s.out, "Wrote %s (%d bytes)\n", path, n)
	return nil
}

func (s *session) printOutcome(o client.UploadOutcome) {
	if !o.Success {
		ui.Errorf(s.out, "upload rejected: %s", o.Error)
		return
	}
	fmt.Fprintf(s.out, "%s Parsed %d descriptors: %d new artifacts, %d new edges\n",
		ui.StatusIcon(true), o.Parsed, o.NewArtifacts, o.NewEdges)
	for _, e := range o.Errors {
		fmt.Fprintf(s.out, "%s %s\n", ui.WarnIcon(), e)
	}
}

// print writes the current view.
func (s *session) print() {
	if p := s.pane(); p != nil {
		s.printGraph(p.Snapshot())
		return
	}
	s.printTable(s.router.Table().Snapshot())
}

func (s *session) printGraph(snap explore.GraphSnapshot) {
	q := snap.Query
	if snap.RootID != "" {
		ui.Heading(s.out, "%s (%s, depth %s)", snap.RootID, q.Direction, depthLabel(q.Depth))
	} else if s.router.Current() == explore.RouteRooted {
		fmt.Fprintln(s.out, "No root selected. Use 'root <id>'.")
		return
	} else {
		ui.Heading(s.out, "global graph")
	}
	switch {
	case snap.Err != nil:
		ui.Errorf(s.out, "%v (dismiss with 'dismiss')", snap.Err)
	case snap.Empty:
		fmt.Fprintln(s.out, "No data.")
	default:
		fmt.Fprintf(s.out, "%d nodes, %d edges, layout %s\n", len(snap.Elements.Nodes), len(snap.Elements.Edges), snap.Layout)
		rows := make([][]string, len(snap.Elements.Edges))
		for i, e := range snap.Elements.Edges {
			rows[i] = []string{e.Source, e.Target, e.Scope}
		}
		ui.Table(s.out, []string{"FROM", "TO", "SCOPE"}, rows)
	}
}

func depthLabel(d int) string {
	if d == 0 {
		return "all"
	}
	return strconv.Itoa(d)
}

func (s *session) printTable(snap explore.TableSnapshot) {
	ui.Heading(s.out, "dependency table")
	switch {
	case snap.Err != nil:
		ui.Errorf(s.out, "%v (dismiss with 'dismiss')", snap.Err)
	case snap.Empty:
		fmt.Fprintln(s.out, "No data.")
	default:
		rows := make([][]string, len(snap.Rows))
		for i, r := range snap.Rows {
			rows[i] = []string{r.FromGAV, r.ToGAV, r.Scope}
		}
		ui.Table(s.out, []string{"FROM", "TO", "SCOPE"}, rows)
	}
}
