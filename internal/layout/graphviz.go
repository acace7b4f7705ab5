package layout

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-graphviz"
)

// plainFormat is Graphviz's line-oriented output: one "node name x y ..."
// line per node, coordinates in inches with y growing upward.
const plainFormat graphviz.Format = "plain"

var (
	gvMu sync.Mutex
	gv   *graphviz.Graphviz
)

// engine returns the shared Graphviz instance. Callers hold gvMu.
func engine(ctx context.Context) (*graphviz.Graphviz, error) {
	if gv != nil {
		return gv, nil
	}
	g, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("starting graphviz: %w", err)
	}
	gv = g
	return gv, nil
}

// engineFor maps an algorithm name to the Graphviz layout engine.
func engineFor(name string) graphviz.Layout {
	switch name {
	case Cose:
		return graphviz.FDP
	case Circle:
		return graphviz.CIRCO
	default:
		return graphviz.DOT
	}
}

// dotSource writes g as DOT with nodes named n0, n1, ... in input order.
// With anchor set, the given roots are forced onto the first rank and
// edges into them are left out.
func dotSource(g Graph, anchor []string) []byte {
	ids := make(map[string]int, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[n] = i
	}
	anchored := make(map[string]bool, len(anchor))
	for _, r := range anchor {
		if _, ok := ids[r]; ok {
			anchored[r] = true
		}
	}

	var b bytes.Buffer
	b.WriteString("digraph G {\n")
	b.WriteString("  graph [rankdir=TB, nodesep=0.5, ranksep=0.75];\n")
	b.WriteString("  node [shape=circle, width=0.5, height=0.5, fixedsize=true, label=\"\"];\n")
	for i := range g.Nodes {
		fmt.Fprintf(&b, "  n%d;\n", i)
	}
	if len(anchored) > 0 {
		b.WriteString("  { rank=source;")
		for _, n := range g.Nodes {
			if anchored[n] {
				fmt.Fprintf(&b, " n%d;", ids[n])
			}
		}
		b.WriteString(" }\n")
	}
	for _, e := range g.Edges {
		if e.Source == e.Target || anchored[e.Target] {
			continue
		}
		fmt.Fprintf(&b, "  n%d -> n%d;\n", ids[e.Source], ids[e.Target])
	}
	b.WriteString("}\n")
	return b.Bytes()
}

// graphvizLayout runs a Graphviz engine over g and scales the result so one
// inch of Graphviz output is one spacing unit. Y is flipped so ranks grow
// downward.
func graphvizLayout(ctx context.Context, name string, g Graph, opts Options) (Positions, error) {
	var anchor []string
	if name == Breadthfirst {
		anchor = opts.Roots
	}
	src := dotSource(g, anchor)

	gvMu.Lock()
	defer gvMu.Unlock()

	e, err := engine(ctx)
	if err != nil {
		return nil, err
	}
	parsed, err := graphviz.ParseBytes(src)
	if err != nil {
		return nil, fmt.Errorf("parsing layout graph: %w", err)
	}
	defer parsed.Close()

	e.SetLayout(engineFor(name))
	var out bytes.Buffer
	if err := e.Render(ctx, parsed, plainFormat, &out); err != nil {
		return nil, fmt.Errorf("running %s layout: %w", name, err)
	}
	return readPlain(&out, g.Nodes, opts.Spacing)
}

// readPlain reads node positions from Graphviz plain output. Node names
// are the n<index> names written by dotSource.
func readPlain(out *bytes.Buffer, nodes []string, scale float64) (Positions, error) {
	pos := make(Positions, len(nodes))
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 || fields[0] != "node" {
			continue
		}
		i, err := strconv.Atoi(strings.TrimPrefix(fields[1], "n"))
		if err != nil || i < 0 || i >= len(nodes) {
			return nil, fmt.Errorf("unexpected node %q in layout output", fields[1])
		}
		x, errX := strconv.ParseFloat(fields[2], 64)
		y, errY := strconv.ParseFloat(fields[3], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("bad position for node %q: %s %s", fields[1], fields[2], fields[3])
		}
		pos[nodes[i]] = Point{X: x * scale, Y: -y * scale}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading layout output: %w", err)
	}
	if len(pos) != len(nodes) {
		return nil, fmt.Errorf("layout placed %d of %d nodes", len(pos), len(nodes))
	}
	return pos, nil
}
