// Package graph defines the compiled decision-trace graph: typed nodes with
// deterministic positions and styled edges, plus JSON serialization and
// structural validation.
//
// The Graph type is the canonical interchange format between the compiler
// (pkg/compile), the HTTP API, the graph archive, and the external rendering
// layer. It is designed for round-trip fidelity: compile → export →
// re-import produces an identical graph.
package graph
