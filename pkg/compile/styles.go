package compile

import "github.com/greenroom-ai/traceviz/pkg/graph"

// =============================================================================
// Node Styling
// =============================================================================

// Color is a semantic color category for a node kind. The rendering layer
// maps categories to concrete palette values.
type Color string

// Node color categories.
const (
	ColorBlue   Color = "blue"
	ColorIndigo Color = "indigo"
	ColorTeal   Color = "teal"
	ColorOrange Color = "orange"
	ColorPurple Color = "purple"
	ColorCyan   Color = "cyan"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorRed    Color = "red"
	ColorPink   Color = "pink"
	ColorGray   Color = "gray"
)

// NodeColor resolves a node kind to its color category. The mapping is
// closed over the known kinds; anything else resolves to the neutral gray
// default. This path never fails.
func NodeColor(kind graph.Kind) Color {
	switch kind {
	case graph.KindQuery:
		return ColorBlue
	case graph.KindModelLoad:
		return ColorIndigo
	case graph.KindRoleSelect:
		return ColorTeal
	case graph.KindOrchestrator:
		return ColorOrange
	case graph.KindIntentDetect:
		return ColorPurple
	case graph.KindLanguageDetect:
		return ColorCyan
	case graph.KindEntity, graph.KindSlangMap:
		return ColorGreen
	case graph.KindProductSearch, graph.KindProductMatch:
		return ColorYellow
	case graph.KindInterfaceLayer:
		return ColorRed
	case graph.KindResponseGen:
		return ColorPink
	default:
		return ColorGray
	}
}

// =============================================================================
// Edge Styling
// =============================================================================

// edgeStyle bundles the visual tokens of an edge semantic.
type edgeStyle struct {
	animated bool
	stroke   graph.StrokeStyle
	color    graph.StrokeColor
}

// Closed mapping from edge semantics to visual tokens. Each entry
// corresponds to one wiring rule of the compiler.
var (
	// styleFlow marks the main data flow between stages.
	styleFlow = edgeStyle{animated: true, stroke: graph.StrokeSolid, color: graph.ColorDefault}

	// styleInterface marks interface-layer participation.
	styleInterface = edgeStyle{animated: false, stroke: graph.StrokeDashed, color: graph.ColorRed}

	// styleFallback marks a stage that ran without usable input.
	styleFallback = edgeStyle{animated: false, stroke: graph.StrokeDashed, color: graph.ColorGray}

	// styleSlang marks the slang normalization side path.
	styleSlang = edgeStyle{animated: false, stroke: graph.StrokeDashed, color: graph.ColorPurple}
)

// ScoreThreshold separates strong product matches (green) from weak ones
// (amber). A score exactly at the threshold is weak.
const ScoreThreshold = 0.7

// styleScore returns the match-strength styling for a product edge.
func styleScore(score float64) edgeStyle {
	color := graph.ColorAmber
	if score > ScoreThreshold {
		color = graph.ColorGreen
	}
	return edgeStyle{animated: true, stroke: graph.StrokeSolid, color: color}
}
