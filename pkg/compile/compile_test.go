package compile

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/greenroom-ai/traceviz/pkg/graph"
	"github.com/greenroom-ai/traceviz/pkg/trace"
)

func ptr[T any](v T) *T { return &v }

// fullTrace is the Scenario A fixture: known intent, one entity, one
// strong product match, no slang mappings.
func fullTrace() trace.DecisionTrace {
	return trace.DecisionTrace{
		Query:            "got any blue dream?",
		Intent:           ptr("product_inquiry"),
		IntentConfidence: ptr(0.92),
		IntentReasoning:  ptr("query names a strain"),
		Entities: []trace.Entity{
			{Type: "strain", Value: "blue dream", Confidence: 0.88},
		},
		SearchCriteria: map[string]any{"category": "flower"},
		Products: []trace.Product{
			{Name: "Blue Dream 3.5g", Score: 0.81, Reasoning: "direct strain match"},
		},
		Response:           ptr("We have Blue Dream in stock."),
		ResponseConfidence: ptr(0.9),
	}
}

func mustNode(t *testing.T, g graph.Graph, id string) graph.Node {
	t.Helper()
	n, ok := g.Node(id)
	if !ok {
		t.Fatalf("node %q not found", id)
	}
	return n
}

func TestCompileScenarioA(t *testing.T) {
	g := Compile(fullTrace())

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(g.Nodes) != 11 {
		t.Errorf("nodes = %d, want 11", len(g.Nodes))
	}
	if len(g.Edges) != 13 {
		t.Errorf("edges = %d, want 13", len(g.Edges))
	}

	intent := mustNode(t, g, "intent")
	if intent.Value == nil || *intent.Value != "product_inquiry" {
		t.Errorf("intent value = %v", intent.Value)
	}
	if intent.Confidence == nil || *intent.Confidence != 0.92 {
		t.Errorf("intent confidence = %v", intent.Confidence)
	}

	product := mustNode(t, g, "product-0")
	if product.Value == nil || *product.Value != "Blue Dream 3.5g (0.81)" {
		t.Errorf("product value = %v", product.Value)
	}

	var productEdge *graph.Edge
	for i, e := range g.Edges {
		if e.Source == "search" && e.Target == "product-0" {
			productEdge = &g.Edges[i]
		}
	}
	if productEdge == nil {
		t.Fatal("missing search→product-0 edge")
	}
	if productEdge.StrokeColor != graph.ColorGreen {
		t.Errorf("product edge color = %s, want green", productEdge.StrokeColor)
	}
}

func TestCompileScenarioB(t *testing.T) {
	tr := trace.DecisionTrace{
		Query:    "uhh",
		Intent:   ptr("unknown"),
		Products: []trace.Product{{Name: "House Blend", Score: 0.5}},
	}
	g := Compile(tr)

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	intent := mustNode(t, g, "intent")
	if intent.Value == nil || *intent.Value != "Not available" {
		t.Errorf("intent value = %v, want \"Not available\"", intent.Value)
	}
	if intent.Confidence != nil {
		t.Errorf("intent confidence = %v, want nil", intent.Confidence)
	}
	if intent.Reasoning == nil || *intent.Reasoning != "Intent analysis not provided by current model" {
		t.Errorf("intent reasoning = %v", intent.Reasoning)
	}

	incoming := g.Incoming("intent")
	if len(incoming) != 1 {
		t.Fatalf("intent has %d incoming edges, want 1", len(incoming))
	}
	e := incoming[0]
	if e.Source != "language" || e.Animated || e.StrokeStyle != graph.StrokeDashed || e.StrokeColor != graph.ColorGray {
		t.Errorf("intent fallback edge = %+v, want non-animated dashed gray from language", e)
	}

	searchIn := g.Incoming("search")
	if len(searchIn) != 1 || searchIn[0].Source != "intent" {
		t.Errorf("search incoming = %+v, want single edge from intent", searchIn)
	}

	productIn := g.Incoming("product-0")
	if len(productIn) != 1 || productIn[0].StrokeColor != graph.ColorAmber {
		t.Errorf("product edge = %+v, want amber", productIn)
	}
}

func TestCompileScenarioC(t *testing.T) {
	tr := fullTrace()
	tr.Products = nil
	for i := 0; i < 5; i++ {
		tr.Products = append(tr.Products, trace.Product{
			Name:  fmt.Sprintf("Product %d", i),
			Score: 0.9,
		})
	}
	g := Compile(tr)

	matches := 0
	for _, n := range g.Nodes {
		if n.Kind == graph.KindProductMatch {
			matches++
		}
	}
	if matches != 3 {
		t.Errorf("product match nodes = %d, want 3", matches)
	}
	for _, id := range []string{"product-3", "product-4"} {
		if _, ok := g.Node(id); ok {
			t.Errorf("node %s should not exist", id)
		}
		for _, e := range g.Edges {
			if e.Source == id || e.Target == id {
				t.Errorf("edge %s references dropped product", e.ID)
			}
		}
	}
}

func TestCompileScenarioD(t *testing.T) {
	for _, query := range []string{"", "   "} {
		g := Compile(trace.DecisionTrace{Query: query})
		if len(g.Nodes) != 0 || len(g.Edges) != 0 {
			t.Errorf("Compile(query=%q) = %d nodes, %d edges, want empty", query, len(g.Nodes), len(g.Edges))
		}
		if g.Nodes == nil || g.Edges == nil {
			t.Error("empty graph must serialize with [] collections, not null")
		}
	}
}

func TestCompileIdempotent(t *testing.T) {
	tr := fullTrace()
	tr.SlangMappings = []trace.SlangMapping{{Slang: "fire", Formal: "high potency"}}
	tr.SearchCriteria = map[string]any{"category": "flower", "potency": "high", "brand": "any"}

	a := Compile(tr)
	b := Compile(tr)
	if !reflect.DeepEqual(a, b) {
		t.Error("compiling the same trace twice produced different graphs")
	}
}

func TestCompileAlwaysPresentStages(t *testing.T) {
	g := Compile(trace.DecisionTrace{Query: "hi"})

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	want := map[string]graph.Position{
		"query":        {X: 400, Y: 0},
		"model":        {X: 200, Y: 100},
		"role":         {X: 600, Y: 100},
		"orchestrator": {X: 400, Y: 200},
		"language":     {X: 200, Y: 300},
		"interface":    {X: 600, Y: 200}, // drawn at the orchestrator's row
		"intent":       {X: 400, Y: 400},
	}
	for id, pos := range want {
		n := mustNode(t, g, id)
		if n.Position != pos {
			t.Errorf("%s at %+v, want %+v", id, n.Position, pos)
		}
	}

	// Defaults flow into the node values.
	if v := mustNode(t, g, "model").Value; v == nil || *v != trace.DefaultModel {
		t.Errorf("model value = %v, want %q", v, trace.DefaultModel)
	}
	if v := mustNode(t, g, "role").Value; v == nil || *v != trace.DefaultRole {
		t.Errorf("role value = %v, want %q", v, trace.DefaultRole)
	}
}

func TestCompileEntityFanOut(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4} {
		tr := fullTrace()
		tr.Entities = nil
		for i := 0; i < n; i++ {
			tr.Entities = append(tr.Entities, trace.Entity{
				Type: "strain", Value: fmt.Sprintf("s%d", i), Confidence: 0.8,
			})
		}
		g := Compile(tr)

		incoming := g.Incoming("search")
		if len(incoming) != n {
			t.Errorf("n=%d: search has %d incoming edges, want %d", n, len(incoming), n)
		}
		xs := CenterRow(n, EntitySpacing, CenterX)
		for i := 0; i < n; i++ {
			node := mustNode(t, g, fmt.Sprintf("entity-%d", i))
			if node.Position.X != xs[i] {
				t.Errorf("n=%d: entity-%d x = %d, want %d", n, i, node.Position.X, xs[i])
			}
			if incoming[i].Source != fmt.Sprintf("entity-%d", i) {
				t.Errorf("n=%d: incoming[%d] from %s", n, i, incoming[i].Source)
			}
		}
	}
}

func TestCompileRowProgression(t *testing.T) {
	// With entities present the wide step applies after the entity and
	// search stages, pushing later stages down.
	g := Compile(fullTrace())

	rows := map[string]int{
		"entity-0":  500,
		"search":    620,
		"product-0": 740,
		"response":  860,
	}
	for id, y := range rows {
		n := mustNode(t, g, id)
		if n.Position.Y != y {
			t.Errorf("%s y = %d, want %d", id, n.Position.Y, y)
		}
	}

	// Without entities the entity stage does not advance the row.
	tr := fullTrace()
	tr.Entities = nil
	g = Compile(tr)
	if n := mustNode(t, g, "search"); n.Position.Y != 500 {
		t.Errorf("search y = %d, want 500 when no entities", n.Position.Y)
	}
}

func TestCompileSlangOverlapsEntityRow(t *testing.T) {
	tr := fullTrace()
	tr.SlangMappings = []trace.SlangMapping{
		{Slang: "fire", Formal: "high potency"},
		{Slang: "zaza", Formal: "premium flower"},
	}
	g := Compile(tr)

	slang := mustNode(t, g, "slang")
	entity := mustNode(t, g, "entity-0")
	if slang.Position.Y != entity.Position.Y {
		t.Errorf("slang y = %d, want entity row %d", slang.Position.Y, entity.Position.Y)
	}
	if slang.Position.X != 200 {
		t.Errorf("slang x = %d, want 200", slang.Position.X)
	}
	if slang.Value == nil || *slang.Value != "fire → high potency, zaza → premium flower" {
		t.Errorf("slang value = %v", slang.Value)
	}

	in := g.Incoming("slang")
	if len(in) != 1 {
		t.Fatalf("slang incoming = %d, want 1", len(in))
	}
	if e := in[0]; e.Source != "intent" || e.Animated || e.StrokeStyle != graph.StrokeDashed || e.StrokeColor != graph.ColorPurple {
		t.Errorf("slang edge = %+v, want non-animated dashed purple from intent", e)
	}
	// The slang node feeds nothing downstream.
	if out := g.Outgoing("slang"); out != nil {
		t.Errorf("slang outgoing = %+v, want none", out)
	}
}

func TestCompileResponseWiring(t *testing.T) {
	t.Run("WithProducts", func(t *testing.T) {
		g := Compile(fullTrace())
		in := g.Incoming("response")
		if len(in) != 2 {
			t.Fatalf("response incoming = %d, want 2", len(in))
		}
		if in[0].Source != "interface" || in[0].Animated || in[0].StrokeStyle != graph.StrokeDashed || in[0].StrokeColor != graph.ColorRed {
			t.Errorf("interface edge = %+v, want non-animated dashed red", in[0])
		}
		if in[1].Source != "product-0" || !in[1].Animated {
			t.Errorf("product edge = %+v, want animated from product-0", in[1])
		}
	})

	t.Run("WithoutProducts", func(t *testing.T) {
		tr := fullTrace()
		tr.Products = nil
		g := Compile(tr)
		in := g.Incoming("response")
		if len(in) != 2 {
			t.Fatalf("response incoming = %d, want 2", len(in))
		}
		if in[1].Source != "search" {
			t.Errorf("fallback edge from %s, want search", in[1].Source)
		}
	})
}

func TestCompileResponseValue(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "substr"
	}
	tr := fullTrace()
	tr.Response = ptr(long)
	g := Compile(tr)

	resp := mustNode(t, g, "response")
	if resp.Value == nil {
		t.Fatal("response value is nil")
	}
	if got, want := len(*resp.Value), 103; got != want {
		t.Errorf("response value length = %d, want %d (100 chars + ellipsis)", got, want)
	}
	if resp.Reasoning == nil || *resp.Reasoning != "Generated by budtender role in en" {
		t.Errorf("response reasoning = %v", resp.Reasoning)
	}
}

func TestCompileIntentConfidenceClamped(t *testing.T) {
	tr := fullTrace()
	tr.IntentConfidence = ptr(0.0)
	g := Compile(tr)
	if n := mustNode(t, g, "intent"); n.Confidence != nil {
		t.Errorf("intent confidence = %v, want nil for non-positive input", n.Confidence)
	}

	tr.IntentConfidence = ptr(-1.0)
	g = Compile(tr)
	if n := mustNode(t, g, "intent"); n.Confidence != nil {
		t.Errorf("intent confidence = %v, want nil for negative input", n.Confidence)
	}
}

func TestCompileNilIntent(t *testing.T) {
	tr := fullTrace()
	tr.Intent = nil
	g := Compile(tr)

	intent := mustNode(t, g, "intent")
	if intent.Value == nil || *intent.Value != "Not available" {
		t.Errorf("intent value = %v", intent.Value)
	}
	for _, e := range g.Edges {
		if e.Source == "interface" && e.Target == "intent" {
			t.Error("interface→intent edge must not exist without intent")
		}
	}
}
