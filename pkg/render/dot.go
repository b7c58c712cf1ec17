package render

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/flowlens/pkg/graph"
)

// Options configures DOT generation.
type Options struct {
	// Scale multiplies canvas coordinates. Zero means 1.
	Scale float64

	// Detailed adds the widget type under each node label.
	Detailed bool
}

// ToDOT converts g to Graphviz DOT with every node pinned at its position.
// The output declares layout=neato so the command-line tools honour the
// pins as well.
func ToDOT(g *graph.Graph, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = 1
	}

	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  splines=true;\n")
	buf.WriteString("  overlap=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=14, fontcolor=white, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=11, arrowhead=normal];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := []string{
			fmt.Sprintf("label=%q", nodeLabel(n, opts.Detailed)),
			fmt.Sprintf("fillcolor=%q", n.Data.Color),
			fmt.Sprintf("pos=\"%s,%s!\"", coord(n.Position.X*scale), coord(-n.Position.Y*scale)),
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n graph.Node, detailed bool) string {
	if !detailed || n.Data.DisplayName == "" {
		return n.Data.Label
	}
	return n.Data.Label + "\n" + n.Data.DisplayName
}

func edgeAttrs(e graph.Edge) []string {
	stroke := e.Style.Stroke
	if stroke == "" {
		stroke = graph.ColorEdge
	}
	attrs := []string{
		fmt.Sprintf("id=%q", e.ID),
		fmt.Sprintf("label=%q", e.Label),
		fmt.Sprintf("color=%q", stroke),
		fmt.Sprintf("fontcolor=%q", stroke),
	}
	if e.Style.StrokeWidth > 0 {
		attrs = append(attrs, "penwidth="+coord(e.Style.StrokeWidth))
	}
	switch e.State {
	case graph.EdgeConnected:
		attrs = append(attrs, "style=dashed")
	case graph.EdgeDisconnected:
		attrs = append(attrs, "style=dotted")
	}
	return attrs
}

// coord formats a float without trailing zeros.
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
