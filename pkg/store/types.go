package store

import (
	"maps"
	"slices"

	"github.com/matzehuels/pipebuilder/pkg/graph"
)

// Position is a canvas coordinate.
type Position = graph.Position

// Node is a placed instance of a template.
type Node struct {
	ID         string
	Kind       string
	Position   Position
	Parameters map[string]any
}

func (n *Node) clone() Node {
	c := *n
	c.Parameters = maps.Clone(n.Parameters)
	return c
}

// Edge connects an output port of Source to an input port of Target.
type Edge struct {
	ID         string
	Source     string
	SourcePort string
	Target     string
	TargetPort string
}

// EdgeID derives the id of the edge with the given endpoints.
// Node ids, kinds and port ids never contain ':' or '>' (the registry and
// graph.Validate reject them), so distinct four-tuples always map to
// distinct ids.
func EdgeID(source, sourcePort, target, targetPort string) string {
	return source + ":" + sourcePort + "->" + target + ":" + targetPort
}

// Touches reports whether the edge has nodeID as an endpoint.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Selection is the set of selected node and edge ids.
type Selection struct {
	Nodes []string
	Edges []string
}

// IsEmpty reports whether nothing is selected.
func (s Selection) IsEmpty() bool {
	return len(s.Nodes) == 0 && len(s.Edges) == 0
}

// DeleteResult reports what a deletion actually removed.
type DeleteResult struct {
	Nodes   int
	Edges   int
	NodeIDs []string
	EdgeIDs []string
}

// IsEmpty reports whether nothing was removed.
func (r DeleteResult) IsEmpty() bool {
	return r.Nodes == 0 && r.Edges == 0
}

func (r *DeleteResult) addNode(id string) {
	r.Nodes++
	r.NodeIDs = append(r.NodeIDs, id)
}

func (r *DeleteResult) addEdge(id string) {
	r.Edges++
	r.EdgeIDs = append(r.EdgeIDs, id)
}

// ToGraphNode converts a node to its wire form.
func (n Node) ToGraphNode() graph.Node {
	return graph.Node{ID: n.ID, Type: n.Kind, Position: n.Position, Data: maps.Clone(n.Parameters)}
}

// ToGraphEdge converts an edge to its wire form.
func (e Edge) ToGraphEdge() graph.Edge {
	return graph.Edge{ID: e.ID, Source: e.Source, SourceHandle: e.SourcePort, Target: e.Target, TargetHandle: e.TargetPort}
}

func removeID(ids []string, id string) []string {
	return slices.DeleteFunc(ids, func(s string) bool { return s == id })
}
