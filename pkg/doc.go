// Package pkg provides the core libraries for traceviz decision-trace
// visualization.
//
// # Overview
//
// Traceviz renders how an AI recommendation pipeline arrived at its answer
// for a single customer query. The heart of the system is a deterministic
// compiler that turns a decision trace into a directed graph of typed,
// positioned nodes and styled edges.
//
// The typical data flow:
//
//	Analysis Service (analyze-decision endpoint)
//	         ↓
//	    [trace] package (decode + normalize)
//	         ↓
//	    [compile] package (stage walk → layout → styling)
//	         ↓
//	    [graph] package (serialization + validation)
//	         ↓
//	    JSON for the external renderer, or DOT/SVG via [render]
//
// # Main Packages
//
// [trace] - DecisionTrace types, tolerant JSON decoding, and the
// normalizer that substitutes safe defaults for absent fields.
//
// [compile] - The graph compiler: fixed stage sequence, deterministic row
// layout with sibling centering, and the closed node/edge style tables.
// Pure and allocation-fresh on every call.
//
// [graph] - The compiled graph model with JSON/BSON serialization and
// structural validation (unique ids, edge endpoints, acyclicity).
//
// [pipeline] - Fetch → compile → render orchestration with per-stage
// caching, shared by CLI and API.
//
// [render] - Graphviz DOT/SVG export of compiled graphs for debugging.
//
// [integrations/analysis] - Client for the upstream analyze-decision
// endpoint with retry and response caching.
//
// [cache] - Cache interface with file, Redis, and null backends.
//
// [store] - Compiled-graph archive with memory and MongoDB backends.
//
// [trace]: https://pkg.go.dev/github.com/greenroom-ai/traceviz/pkg/trace
// [compile]: https://pkg.go.dev/github.com/greenroom-ai/traceviz/pkg/compile
// [graph]: https://pkg.go.dev/github.com/greenroom-ai/traceviz/pkg/graph
// [pipeline]: https://pkg.go.dev/github.com/greenroom-ai/traceviz/pkg/pipeline
// [render]: https://pkg.go.dev/github.com/greenroom-ai/traceviz/pkg/render
// [integrations/analysis]: https://pkg.go.dev/github.com/greenroom-ai/traceviz/pkg/integrations/analysis
// [cache]: https://pkg.go.dev/github.com/greenroom-ai/traceviz/pkg/cache
// [store]: https://pkg.go.dev/github.com/greenroom-ai/traceviz/pkg/store
package pkg
