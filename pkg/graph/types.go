package graph

import "fmt"

// =============================================================================
// Node Kinds - Single Source of Truth
// =============================================================================

// Kind identifies the pipeline stage a node represents.
type Kind string

// Node kinds, one per conceptual pipeline stage.
const (
	KindQuery          Kind = "query"
	KindModelLoad      Kind = "model_load"
	KindRoleSelect     Kind = "role_select"
	KindOrchestrator   Kind = "orchestrator"
	KindLanguageDetect Kind = "language_detect"
	KindInterfaceLayer Kind = "interface_layer"
	KindIntentDetect   Kind = "intent_detect"
	KindEntity         Kind = "entity"
	KindSlangMap       Kind = "slang_map"
	KindProductSearch  Kind = "product_search"
	KindProductMatch   Kind = "product_match"
	KindResponseGen    Kind = "response_gen"
)

// =============================================================================
// Edge Styling Tokens
// =============================================================================

// StrokeStyle is the line pattern of an edge.
type StrokeStyle string

// Supported stroke styles.
const (
	StrokeSolid  StrokeStyle = "solid"
	StrokeDashed StrokeStyle = "dashed"
)

// StrokeColor is the semantic color category of an edge.
// The rendering layer maps categories to concrete colors.
type StrokeColor string

// Supported stroke colors.
const (
	ColorDefault StrokeColor = "default"
	ColorRed     StrokeColor = "red"
	ColorPurple  StrokeColor = "purple"
	ColorGreen   StrokeColor = "green"
	ColorAmber   StrokeColor = "amber"
	ColorGray    StrokeColor = "gray"
)

// =============================================================================
// Graph - Compiled Decision Trace
// =============================================================================

// Graph is the compiled form of a decision trace: typed nodes with
// deterministic positions and styled edges, ready for an external
// rendering layer.
//
// A Graph is constructed fresh on every compile and never mutated
// afterwards. Node and edge order is the emission order of the compiler,
// which is stable for identical input.
type Graph struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Position is a node's 2-D layout coordinate in pixels.
type Position struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

// Node is a single pipeline stage in the compiled graph.
//
// Value, Confidence, and Reasoning are pointers because the rendering layer
// distinguishes "absent" (JSON null) from a zero value. They are always
// present in the serialized form.
type Node struct {
	ID         string   `json:"id" bson:"id"`
	Kind       Kind     `json:"kind" bson:"kind"`
	Label      string   `json:"label" bson:"label"`
	Value      *string  `json:"value" bson:"value"`
	Confidence *float64 `json:"confidence" bson:"confidence"`
	Reasoning  *string  `json:"reasoning" bson:"reasoning"`
	Position   Position `json:"position" bson:"position"`
}

// Edge is a styled directed connection between two nodes.
type Edge struct {
	ID          string      `json:"id" bson:"id"`
	Source      string      `json:"source" bson:"source"`
	Target      string      `json:"target" bson:"target"`
	Animated    bool        `json:"animated" bson:"animated"`
	StrokeStyle StrokeStyle `json:"stroke_style" bson:"stroke_style"`
	StrokeColor StrokeColor `json:"stroke_color" bson:"stroke_color"`
}

// IsEmpty reports whether the graph has no nodes. The compiler returns an
// empty graph for a trace with no query.
func (g Graph) IsEmpty() bool {
	return len(g.Nodes) == 0
}

// Node returns the node with the given id, if present.
func (g Graph) Node(id string) (Node, bool) {
	for _, n := range g.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Incoming returns the edges whose target is the given node id,
// in emission order.
func (g Graph) Incoming(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Target == id {
			out = append(out, e)
		}
	}
	return out
}

// Outgoing returns the edges whose source is the given node id,
// in emission order.
func (g Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks the structural invariants of a compiled graph:
// node ids are unique, every edge references existing nodes, the graph is
// acyclic, and a non-empty graph has exactly one query node at y = 0.
func (g Graph) Validate() error {
	if g.IsEmpty() {
		if len(g.Edges) > 0 {
			return fmt.Errorf("graph has %d edges but no nodes", len(g.Edges))
		}
		return nil
	}

	ids := make(map[string]bool, len(g.Nodes))
	queries := 0
	for _, n := range g.Nodes {
		if ids[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
		if n.Kind == KindQuery {
			queries++
			if n.Position.Y != 0 {
				return fmt.Errorf("query node %q at y=%d, want y=0", n.ID, n.Position.Y)
			}
		}
	}
	if queries != 1 {
		return fmt.Errorf("graph has %d query nodes, want exactly 1", queries)
	}

	edgeIDs := make(map[string]bool, len(g.Edges))
	for _, e := range g.Edges {
		if edgeIDs[e.ID] {
			return fmt.Errorf("duplicate edge id %q", e.ID)
		}
		edgeIDs[e.ID] = true
		if !ids[e.Source] {
			return fmt.Errorf("edge %q references unknown source %q", e.ID, e.Source)
		}
		if !ids[e.Target] {
			return fmt.Errorf("edge %q references unknown target %q", e.ID, e.Target)
		}
	}

	if cycle := g.findCycle(); cycle != "" {
		return fmt.Errorf("graph contains a cycle through %q", cycle)
	}
	return nil
}

// findCycle runs Kahn's algorithm and returns the id of a node stuck in a
// cycle, or "" if the graph is acyclic.
func (g Graph) findCycle() string {
	indeg := make(map[string]int, len(g.Nodes))
	adj := make(map[string][]string, len(g.Nodes))
	for _, n := range g.Nodes {
		indeg[n.ID] = 0
	}
	for _, e := range g.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
		indeg[e.Target]++
	}

	var queue []string
	for _, n := range g.Nodes {
		if indeg[n.ID] == 0 {
			queue = append(queue, n.ID)
		}
	}

	visited := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adj[id] {
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited == len(g.Nodes) {
		return ""
	}
	for _, n := range g.Nodes {
		if indeg[n.ID] > 0 {
			return n.ID
		}
	}
	return ""
}
