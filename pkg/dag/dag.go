package dag

import (
	"errors"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrUnknownNode is returned by [Graph.AddEdge] when an endpoint has not
	// been added.
	ErrUnknownNode = errors.New("unknown node")

	// ErrGraphHasCycle is returned by [Graph.TopologicalSort] when a cycle is
	// detected.
	ErrGraphHasCycle = errors.New("graph contains a cycle")
)

// Edge is a directed connection between two node ids.
type Edge struct {
	From string
	To   string
}

// Graph is a directed graph over string ids. Parallel edges are allowed.
//
// The zero value is not usable; use New or FromEdges.
// Graph is not safe for concurrent use without external synchronization.
type Graph struct {
	order    []string
	index    map[string]int
	outgoing map[string][]string
	incoming map[string][]string
	edges    int
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:    make(map[string]int),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// FromEdges builds a graph from the endpoints of edges. Edges with an empty
// endpoint are skipped.
func FromEdges(edges []Edge) *Graph {
	g := New()
	for _, e := range edges {
		if e.From == "" || e.To == "" {
			continue
		}
		g.ensure(e.From)
		g.ensure(e.To)
		g.link(e.From, e.To)
	}
	return g
}

func (g *Graph) ensure(id string) {
	if _, ok := g.index[id]; ok {
		return
	}
	g.index[id] = len(g.order)
	g.order = append(g.order, id)
}

func (g *Graph) link(from, to string) {
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	g.edges++
}

// AddNode adds a node. Adding an existing id is a no-op.
func (g *Graph) AddNode(id string) error {
	if id == "" {
		return ErrInvalidNodeID
	}
	g.ensure(id)
	return nil
}

// AddEdge adds from→to between two existing nodes.
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.index[from]; !ok {
		return ErrUnknownNode
	}
	if _, ok := g.index[to]; !ok {
		return ErrUnknownNode
	}
	g.link(from, to)
	return nil
}

// Nodes returns node ids in insertion order.
func (g *Graph) Nodes() []string { return slices.Clone(g.order) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges, parallel edges included.
func (g *Graph) EdgeCount() int { return g.edges }

// Children returns the targets of edges leaving id.
func (g *Graph) Children(id string) []string { return slices.Clone(g.outgoing[id]) }

// Parents returns the sources of edges entering id.
func (g *Graph) Parents(id string) []string { return slices.Clone(g.incoming[id]) }

// InDegree returns the number of edges entering id.
func (g *Graph) InDegree(id string) int { return len(g.incoming[id]) }

// OutDegree returns the number of edges leaving id.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// Sources returns the nodes without incoming edges, in insertion order.
func (g *Graph) Sources() []string {
	var out []string
	for _, id := range g.order {
		if len(g.incoming[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// Sinks returns the nodes without outgoing edges, in insertion order.
func (g *Graph) Sinks() []string {
	var out []string
	for _, id := range g.order {
		if len(g.outgoing[id]) == 0 {
			out = append(out, id)
		}
	}
	return out
}

// TopologicalSort orders the nodes so every edge points forward.
// It returns ErrGraphHasCycle together with the nodes it could order.
func (g *Graph) TopologicalSort() ([]string, error) {
	indeg := make(map[string]int, len(g.order))
	for _, id := range g.order {
		indeg[id] = len(g.incoming[id])
	}

	queue := g.Sources()
	sorted := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)
		for _, child := range g.outgoing[id] {
			indeg[child]--
			if indeg[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	if len(sorted) != len(g.order) {
		return sorted, ErrGraphHasCycle
	}
	return sorted, nil
}

// IsAcyclic reports whether the graph has no directed cycle.
func (g *Graph) IsAcyclic() bool {
	_, err := g.TopologicalSort()
	return err == nil
}

// FindCycle returns one cycle as a closed path (first id repeated at the
// end), or nil when the graph is acyclic.
func (g *Graph) FindCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(g.order))
	var stack []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, child := range g.outgoing[id] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				start := slices.Index(stack, child)
				cycle = append(slices.Clone(stack[start:]), child)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range g.order {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}

// IsAcyclic reports whether the edges form a DAG, considering only nodes
// that appear in edges.
func IsAcyclic(edges []Edge) bool {
	return FromEdges(edges).IsAcyclic()
}
