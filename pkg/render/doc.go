// Package render converts compiled decision graphs to display formats.
//
// The compiler emits a [graph.Graph] with semantic styling tokens (color
// categories, stroke styles) and fixed canvas positions. This package maps
// those tokens onto a concrete palette and produces:
//
//   - DOT via [ToDOT], preserving the compiler's layout through pinned
//     node positions
//   - SVG via [RenderSVG], rasterizing the DOT output with Graphviz
//
// The primary output format of the pipeline is the graph JSON itself; DOT
// and SVG are secondary formats for quick inspection without a frontend.
//
// [graph.Graph]: github.com/greenroom-ai/traceviz/pkg/graph.Graph
package render
