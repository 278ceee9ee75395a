package graph

import (
	"maps"
	"math"
	"slices"
)

// Snapshot is a point-in-time copy of a pipeline.
// Nodes are in creation order; edges in connection order.
type Snapshot struct {
	Nodes []Node `json:"nodes" bson:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" bson:"edges" yaml:"edges"`
}

// Position is a point on the canvas.
type Position struct {
	X float64 `json:"x" bson:"x" yaml:"x"`
	Y float64 `json:"y" bson:"y" yaml:"y"`
}

// Distance returns the Euclidean distance between p and q.
func (p Position) Distance(q Position) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Add returns p shifted by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y}
}

// Node is a placed instance of a template.
type Node struct {
	ID       string         `json:"id" bson:"id" yaml:"id"`
	Type     string         `json:"type" bson:"type" yaml:"type"`
	Position Position       `json:"position" bson:"position" yaml:"position"`
	Data     map[string]any `json:"data" bson:"data" yaml:"data"`
}

// Edge connects an output port of one node to an input port of another.
type Edge struct {
	ID           string `json:"id" bson:"id" yaml:"id"`
	Source       string `json:"source" bson:"source" yaml:"source"`
	SourceHandle string `json:"sourceHandle,omitempty" bson:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	Target       string `json:"target" bson:"target" yaml:"target"`
	TargetHandle string `json:"targetHandle,omitempty" bson:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// IsEmpty reports whether the snapshot has no nodes.
func (s Snapshot) IsEmpty() bool {
	return len(s.Nodes) == 0
}

// Clone returns a deep copy of s. Parameter maps are copied one level deep.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Nodes: make([]Node, len(s.Nodes)),
		Edges: slices.Clone(s.Edges),
	}
	for i, n := range s.Nodes {
		n.Data = maps.Clone(n.Data)
		out.Nodes[i] = n
	}
	if out.Edges == nil {
		out.Edges = []Edge{}
	}
	return out
}

// Node returns the node with the given id.
func (s Snapshot) Node(id string) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// NodeIDs returns the node ids in order.
func (s Snapshot) NodeIDs() []string {
	ids := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}
