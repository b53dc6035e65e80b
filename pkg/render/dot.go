package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/greenroom-ai/traceviz/pkg/compile"
	"github.com/greenroom-ai/traceviz/pkg/graph"
)

// Options configures DOT generation.
type Options struct {
	// Detailed includes node values and confidences in labels.
	// When false, only the stage label is shown.
	Detailed bool
}

// nodeFill maps color categories to palette hex values.
var nodeFill = map[compile.Color]string{
	compile.ColorBlue:   "#3b82f6",
	compile.ColorIndigo: "#6366f1",
	compile.ColorTeal:   "#14b8a6",
	compile.ColorOrange: "#f97316",
	compile.ColorPurple: "#a855f7",
	compile.ColorCyan:   "#06b6d4",
	compile.ColorGreen:  "#22c55e",
	compile.ColorYellow: "#eab308",
	compile.ColorRed:    "#ef4444",
	compile.ColorPink:   "#ec4899",
	compile.ColorGray:   "#9ca3af",
}

// strokeColor maps edge color categories to palette hex values.
var strokeColor = map[graph.StrokeColor]string{
	graph.ColorDefault: "#64748b",
	graph.ColorRed:     "#ef4444",
	graph.ColorPurple:  "#a855f7",
	graph.ColorGreen:   "#22c55e",
	graph.ColorAmber:   "#f59e0b",
	graph.ColorGray:    "#9ca3af",
}

// dotScale converts canvas pixels to Graphviz points.
const dotScale = 0.75

// ToDOT converts a compiled graph to Graphviz DOT format.
// Node positions from the compiler are pinned (pos=...!), so rendering with
// the neato engine reproduces the compiler's layout. The resulting DOT
// string can be rendered with [RenderSVG].
func ToDOT(g graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph decision_trace {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := nodeAttrs(n, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(edgeAttrs(e), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, detailed bool) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", nodeLabel(n, detailed)),
		fmt.Sprintf("fillcolor=%q", nodeFill[compile.NodeColor(n.Kind)]),
		// Graphviz y grows upward, the canvas grows downward.
		fmt.Sprintf("pos=\"%.0f,%.0f!\"", float64(n.Position.X)*dotScale, -float64(n.Position.Y)*dotScale),
	}
	return attrs
}

func nodeLabel(n graph.Node, detailed bool) string {
	if !detailed {
		return n.Label
	}

	parts := []string{n.Label}
	if n.Value != nil {
		parts = append(parts, *n.Value)
	}
	if n.Confidence != nil {
		parts = append(parts, fmt.Sprintf("%.0f%%", *n.Confidence*100))
	}
	return strings.Join(parts, "\n")
}

func edgeAttrs(e graph.Edge) []string {
	attrs := []string{fmt.Sprintf("color=%q", strokeColor[e.StrokeColor])}
	if e.StrokeStyle == graph.StrokeDashed {
		attrs = append(attrs, "style=dashed")
	}
	// Animation has no DOT equivalent; the main flow gets a heavier line.
	if e.Animated {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}
