package compile

import (
	"testing"

	"github.com/greenroom-ai/traceviz/pkg/graph"
)

func TestNodeColor(t *testing.T) {
	tests := []struct {
		kind graph.Kind
		want Color
	}{
		{graph.KindQuery, ColorBlue},
		{graph.KindModelLoad, ColorIndigo},
		{graph.KindRoleSelect, ColorTeal},
		{graph.KindOrchestrator, ColorOrange},
		{graph.KindIntentDetect, ColorPurple},
		{graph.KindLanguageDetect, ColorCyan},
		{graph.KindEntity, ColorGreen},
		{graph.KindSlangMap, ColorGreen},
		{graph.KindProductSearch, ColorYellow},
		{graph.KindProductMatch, ColorYellow},
		{graph.KindInterfaceLayer, ColorRed},
		{graph.KindResponseGen, ColorPink},
	}
	for _, tt := range tests {
		if got := NodeColor(tt.kind); got != tt.want {
			t.Errorf("NodeColor(%s) = %s, want %s", tt.kind, got, tt.want)
		}
	}
}

func TestNodeColorUnknownKind(t *testing.T) {
	// Unknown kinds resolve to the neutral default instead of failing.
	if got := NodeColor(graph.Kind("hologram")); got != ColorGray {
		t.Errorf("NodeColor(unknown) = %s, want %s", got, ColorGray)
	}
	if got := NodeColor(graph.Kind("")); got != ColorGray {
		t.Errorf("NodeColor(empty) = %s, want %s", got, ColorGray)
	}
}

func TestStyleScore(t *testing.T) {
	tests := []struct {
		score float64
		want  graph.StrokeColor
	}{
		{0.71, graph.ColorGreen},
		{0.9, graph.ColorGreen},
		{0.7, graph.ColorAmber}, // tie resolves to amber
		{0.5, graph.ColorAmber},
		{0, graph.ColorAmber},
	}
	for _, tt := range tests {
		s := styleScore(tt.score)
		if s.color != tt.want {
			t.Errorf("styleScore(%v) color = %s, want %s", tt.score, s.color, tt.want)
		}
		if !s.animated || s.stroke != graph.StrokeSolid {
			t.Errorf("styleScore(%v) = %+v, want animated solid", tt.score, s)
		}
	}
}
