// Package compile turns a decision trace into a renderable graph.
//
// Compilation is a pure function: it normalizes the trace, walks a fixed
// sequence of pipeline stages, and emits typed nodes with deterministic
// positions plus styled edges. No state is shared between calls, so
// concurrent compilations never interfere. Repeated compilation of the same
// trace yields byte-identical graphs.
package compile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/greenroom-ai/traceviz/pkg/graph"
	"github.com/greenroom-ai/traceviz/pkg/trace"
)

// Node ids are fixed per stage; sibling stages append an index.
const (
	idQuery        = "query"
	idModel        = "model"
	idRole         = "role"
	idOrchestrator = "orchestrator"
	idLanguage     = "language"
	idInterface    = "interface"
	idIntent       = "intent"
	idSlang        = "slang"
	idSearch       = "search"
	idResponse     = "response"
)

// maxProducts caps how many product matches are rendered. Entries beyond
// the cap produce no nodes and no edges.
const maxProducts = 3

// responsePreviewLen is how many characters of the response survive into
// the response node's value before the ellipsis.
const responsePreviewLen = 100

// IntentUnknown is the sentinel intent value treated the same as an absent
// intent.
const IntentUnknown = "unknown"

// Compile converts a decision trace into a graph. The trace is normalized
// first; a trace with no query compiles to an empty graph rather than an
// error. The returned graph is freshly allocated and safe to retain.
func Compile(t trace.DecisionTrace) graph.Graph {
	if t.IsEmpty() {
		return graph.Graph{Nodes: []graph.Node{}, Edges: []graph.Edge{}}
	}

	c := &compiler{trace: trace.Normalize(t)}
	c.run()
	return graph.Graph{Nodes: c.nodes, Edges: c.edges}
}

// compiler accumulates nodes and edges in emission order while walking the
// stage sequence. It lives for a single Compile call.
type compiler struct {
	trace trace.DecisionTrace
	nodes []graph.Node
	edges []graph.Edge
	row   int
}

// run walks the fixed stage sequence. The row cursor only moves forward;
// stages that draw on an earlier row (interface layer, slang mapping)
// compute their y from saved or offset values instead of rewinding it.
func (c *compiler) run() {
	c.stageQuery()
	c.stageModelAndRole()
	orchestratorRow := c.stageOrchestrator()
	c.stageLanguage()
	c.stageInterface(orchestratorRow)
	hasIntent := c.stageIntent()
	entityIDs := c.stageEntities()
	c.stageSlang()
	c.stageSearch(entityIDs, hasIntent)
	productIDs := c.stageProducts()
	c.stageResponse(productIDs)
}

// stageQuery emits the sole root at the top of the graph.
func (c *compiler) stageQuery() {
	c.addNode(graph.Node{
		ID:       idQuery,
		Kind:     graph.KindQuery,
		Label:    "Customer Query",
		Value:    strptr(c.trace.Query),
		Position: graph.Position{X: CenterX, Y: 0},
	})
	c.row = AdvanceRow(c.row, StageStep)
}

// stageModelAndRole emits the model-load and role-select siblings.
func (c *compiler) stageModelAndRole() {
	c.addNode(graph.Node{
		ID:       idModel,
		Kind:     graph.KindModelLoad,
		Label:    "Model Loading",
		Value:    strptr(c.trace.ModelUsed),
		Position: graph.Position{X: 200, Y: c.row},
	})
	c.addNode(graph.Node{
		ID:       idRole,
		Kind:     graph.KindRoleSelect,
		Label:    "Role Selection",
		Value:    strptr(c.trace.RoleSelected),
		Position: graph.Position{X: 600, Y: c.row},
	})
	c.addEdge(idQuery, idModel, styleFlow)
	c.addEdge(idQuery, idRole, styleFlow)
	c.row = AdvanceRow(c.row, StageStep)
}

// stageOrchestrator emits the orchestrator and returns its row so that the
// interface layer can be drawn beside it later.
func (c *compiler) stageOrchestrator() int {
	row := c.row
	c.addNode(graph.Node{
		ID:       idOrchestrator,
		Kind:     graph.KindOrchestrator,
		Label:    "Orchestrator",
		Value:    strptr(c.trace.OrchestratorUsed),
		Position: graph.Position{X: CenterX, Y: row},
	})
	c.addEdge(idModel, idOrchestrator, styleFlow)
	c.addEdge(idRole, idOrchestrator, styleFlow)
	c.row = AdvanceRow(c.row, StageStep)
	return row
}

func (c *compiler) stageLanguage() {
	c.addNode(graph.Node{
		ID:       idLanguage,
		Kind:     graph.KindLanguageDetect,
		Label:    "Language Detection",
		Value:    strptr(c.trace.LanguageDetected),
		Position: graph.Position{X: 200, Y: c.row},
	})
	c.addEdge(idOrchestrator, idLanguage, styleFlow)
}

// stageInterface draws the interface layer at the orchestrator's row, not a
// new row of its own.
func (c *compiler) stageInterface(row int) {
	var value *string
	if len(c.trace.InterfacesUsed) > 0 {
		value = strptr(strings.Join(c.trace.InterfacesUsed, ", "))
	}
	c.addNode(graph.Node{
		ID:       idInterface,
		Kind:     graph.KindInterfaceLayer,
		Label:    "Interface Layer",
		Value:    value,
		Position: graph.Position{X: 600, Y: row},
	})
	c.addEdge(idOrchestrator, idInterface, styleFlow)
}

// stageIntent emits the intent node in one of two shapes: a populated node
// fed by both language detection and the interface layer, or a fallback
// node fed only by language detection. It reports whether intent analysis
// was available. The row advances regardless of branch.
func (c *compiler) stageIntent() bool {
	c.row = AdvanceRow(c.row, StageStep)

	hasIntent := c.trace.Intent != nil && *c.trace.Intent != "" && *c.trace.Intent != IntentUnknown

	node := graph.Node{
		ID:       idIntent,
		Kind:     graph.KindIntentDetect,
		Label:    "Intent Detection",
		Position: graph.Position{X: CenterX, Y: c.row},
	}

	if hasIntent {
		node.Value = strptr(*c.trace.Intent)
		if c.trace.IntentConfidence != nil && *c.trace.IntentConfidence > 0 {
			node.Confidence = c.trace.IntentConfidence
		}
		node.Reasoning = c.trace.IntentReasoning
		c.addNode(node)
		c.addEdge(idLanguage, idIntent, styleFlow)
		c.addEdge(idInterface, idIntent, styleInterface)
	} else {
		node.Value = strptr("Not available")
		node.Reasoning = strptr("Intent analysis not provided by current model")
		c.addNode(node)
		c.addEdge(idLanguage, idIntent, styleFallback)
	}

	c.row = AdvanceRow(c.row, StageStep)
	return hasIntent
}

// stageEntities emits one node per detected entity, horizontally centered.
// The row only advances when at least one entity was drawn.
func (c *compiler) stageEntities() []string {
	n := len(c.trace.Entities)
	if n == 0 {
		return nil
	}

	xs := CenterRow(n, EntitySpacing, CenterX)
	ids := make([]string, n)
	for i, e := range c.trace.Entities {
		id := fmt.Sprintf("entity-%d", i)
		ids[i] = id
		c.addNode(graph.Node{
			ID:         id,
			Kind:       graph.KindEntity,
			Label:      fmt.Sprintf("Entity: %s", e.Type),
			Value:      strptr(e.Value),
			Confidence: floatptr(e.Confidence),
			Position:   graph.Position{X: xs[i], Y: c.row},
		})
		c.addEdge(idIntent, id, styleFlow)
	}

	c.row = AdvanceRow(c.row, WideStageStep)
	return ids
}

// stageSlang emits a single node summarizing all slang mappings. It is
// drawn one wide-stage height above the current row, which overlaps the
// entity row when entities were rendered. The frontend expects this exact
// offset; see DESIGN.md before changing it.
func (c *compiler) stageSlang() {
	if len(c.trace.SlangMappings) == 0 {
		return
	}

	pairs := make([]string, len(c.trace.SlangMappings))
	for i, m := range c.trace.SlangMappings {
		pairs[i] = fmt.Sprintf("%s → %s", m.Slang, m.Formal)
	}

	c.addNode(graph.Node{
		ID:       idSlang,
		Kind:     graph.KindSlangMap,
		Label:    "Slang Normalization",
		Value:    strptr(strings.Join(pairs, ", ")),
		Position: graph.Position{X: 200, Y: c.row - WideStageStep},
	})
	c.addEdge(idIntent, idSlang, styleSlang)
}

// stageSearch emits the product-search node. It receives one edge per
// entity, or a single edge from intent detection when no entities exist.
func (c *compiler) stageSearch(entityIDs []string, hasIntent bool) {
	c.addNode(graph.Node{
		ID:       idSearch,
		Kind:     graph.KindProductSearch,
		Label:    "Product Search",
		Value:    renderCriteria(c.trace.SearchCriteria),
		Position: graph.Position{X: CenterX, Y: c.row},
	})

	if len(entityIDs) > 0 {
		for _, id := range entityIDs {
			c.addEdge(id, idSearch, styleFlow)
		}
	} else {
		c.addEdge(idIntent, idSearch, styleFlow)
	}

	c.row = AdvanceRow(c.row, WideStageStep)
}

// stageProducts emits up to maxProducts match nodes, horizontally centered.
// Products beyond the cap are dropped entirely.
func (c *compiler) stageProducts() []string {
	n := min(len(c.trace.Products), maxProducts)
	if n == 0 {
		return nil
	}

	xs := CenterRow(n, ProductSpacing, CenterX)
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		p := c.trace.Products[i]
		id := fmt.Sprintf("product-%d", i)
		ids[i] = id

		node := graph.Node{
			ID:         id,
			Kind:       graph.KindProductMatch,
			Label:      "Product Match",
			Value:      strptr(fmt.Sprintf("%s (%.2f)", p.Name, p.Score)),
			Confidence: floatptr(p.Score),
			Position:   graph.Position{X: xs[i], Y: c.row},
		}
		if p.Reasoning != "" {
			node.Reasoning = strptr(p.Reasoning)
		}
		c.addNode(node)
		c.addEdge(idSearch, id, styleScore(p.Score))
	}

	c.row = AdvanceRow(c.row, WideStageStep)
	return ids
}

// stageResponse emits the terminal response node. It is fed by every
// rendered product match, or directly by the search node when no products
// matched; the interface layer always contributes a side edge.
func (c *compiler) stageResponse(productIDs []string) {
	node := graph.Node{
		ID:         idResponse,
		Kind:       graph.KindResponseGen,
		Label:      "Response Generation",
		Confidence: c.trace.ResponseConfidence,
		Reasoning: strptr(fmt.Sprintf("Generated by %s role in %s",
			c.trace.RoleSelected, c.trace.LanguageDetected)),
		Position: graph.Position{X: CenterX, Y: c.row},
	}
	if c.trace.Response != nil {
		node.Value = strptr(truncate(*c.trace.Response, responsePreviewLen) + "...")
	}
	c.addNode(node)

	c.addEdge(idInterface, idResponse, styleInterface)
	if len(productIDs) > 0 {
		for _, id := range productIDs {
			c.addEdge(id, idResponse, styleFlow)
		}
	} else {
		c.addEdge(idSearch, idResponse, styleFlow)
	}
}

// =============================================================================
// Builder Helpers
// =============================================================================

func (c *compiler) addNode(n graph.Node) {
	c.nodes = append(c.nodes, n)
}

func (c *compiler) addEdge(source, target string, s edgeStyle) {
	c.edges = append(c.edges, graph.Edge{
		ID:          fmt.Sprintf("e-%s-%s", source, target),
		Source:      source,
		Target:      target,
		Animated:    s.animated,
		StrokeStyle: s.stroke,
		StrokeColor: s.color,
	})
}

// renderCriteria formats the opaque search criteria map with sorted keys so
// identical traces always render identically. An empty map renders as an
// absent value.
func renderCriteria(criteria map[string]any) *string {
	if len(criteria) == 0 {
		return nil
	}
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %v", k, criteria[k])
	}
	return strptr(strings.Join(parts, ", "))
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func strptr(s string) *string     { return &s }
func floatptr(f float64) *float64 { return &f }
