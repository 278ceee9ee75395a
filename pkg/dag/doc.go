// Package dag provides the directed graph used by the validation service to
// decide whether a submitted pipeline is acyclic.
//
// # Overview
//
// The graph is built from edge endpoints only. A pipeline node that takes
// part in no edge can never be on a cycle, so it is left out entirely, and
// edges with an empty endpoint are skipped:
//
//	g := dag.FromEdges([]dag.Edge{{From: "in-1", To: "llm-1"}})
//	ok := g.IsAcyclic()
//
// # Algorithms
//
// [Graph.TopologicalSort] uses Kahn's algorithm: repeatedly remove nodes with
// in-degree zero. If some nodes are never removed, the graph contains a
// cycle and [ErrGraphHasCycle] is returned. Ties are broken by insertion
// order, so the result is deterministic.
//
// [Graph.FindCycle] uses depth-first search with white/gray/black coloring
// and returns one concrete cycle for error reporting.
package dag
