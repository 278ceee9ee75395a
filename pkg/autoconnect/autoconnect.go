// Package autoconnect wires a freshly placed or moved node to its nearest
// neighbor.
//
// The heuristic is deliberately simple:
//
//  1. Measure the Euclidean distance from the subject to every other node.
//  2. Keep the nearest one; on equal distances the first in creation order wins.
//  3. Give up if there is no other node or the nearest one is farther than the
//     threshold (220 canvas units by default).
//  4. The node further left is the source. When both share the same x, the
//     neighbor is the source and the subject the target.
//  5. Use the source's first declared output and the target's first declared
//     input. Give up if either list is empty.
//  6. Give up if that exact edge already exists.
//  7. Otherwise connect.
//
// Only ports declared by a template count; ports derived from parameters
// (such as the text node's variables) are never auto-wired. The resolver
// never removes or rewires edges and creates at most one edge per call.
package autoconnect

import (
	"github.com/matzehuels/pipebuilder/pkg/observability"
	"github.com/matzehuels/pipebuilder/pkg/registry"
	"github.com/matzehuels/pipebuilder/pkg/store"
)

// DefaultThreshold is the largest distance at which nodes are auto-wired.
const DefaultThreshold = 220.0

// PortLookup returns the declared ports of a kind in registry order.
// *registry.Registry satisfies it.
type PortLookup interface {
	InputPortsOf(kind string) []registry.Port
	OutputPortsOf(kind string) []registry.Port
}

// Proposal is the edge the heuristic would create.
type Proposal struct {
	Source     string
	SourcePort string
	Target     string
	TargetPort string
	Distance   float64
}

// ConnectFunc issues a connection, normally store.(*Store).Connect.
type ConnectFunc func(source, sourcePort, target, targetPort string) (store.Edge, error)

// Resolve runs steps 1 to 6 against a copy of the graph. nodes must be in
// creation order. It reports false when no edge should be created.
func Resolve(subject store.Node, nodes []store.Node, edges []store.Edge, ports PortLookup, threshold float64) (Proposal, bool) {
	nearest, dist, found := nearestNeighbor(subject, nodes)
	if !found || dist > threshold {
		return Proposal{}, false
	}

	source, target := nearest, subject
	if subject.Position.X < nearest.Position.X {
		source, target = subject, nearest
	}

	outs := ports.OutputPortsOf(source.Kind)
	ins := ports.InputPortsOf(target.Kind)
	if len(outs) == 0 || len(ins) == 0 {
		return Proposal{}, false
	}

	p := Proposal{
		Source:     source.ID,
		SourcePort: outs[0].ID,
		Target:     target.ID,
		TargetPort: ins[0].ID,
		Distance:   dist,
	}
	id := store.EdgeID(p.Source, p.SourcePort, p.Target, p.TargetPort)
	for _, e := range edges {
		if e.ID == id {
			return Proposal{}, false
		}
	}
	return p, true
}

func nearestNeighbor(subject store.Node, nodes []store.Node) (store.Node, float64, bool) {
	var (
		best  store.Node
		bestD float64
		found bool
	)
	for _, n := range nodes {
		if n.ID == subject.ID {
			continue
		}
		d := subject.Position.Distance(n.Position)
		if !found || d < bestD {
			best, bestD, found = n, d, true
		}
	}
	return best, bestD, found
}

// Resolver applies the heuristic with a configurable threshold.
type Resolver struct {
	Threshold float64
	Ports     PortLookup
}

// New returns a resolver with the default threshold.
func New(ports PortLookup) *Resolver {
	return &Resolver{Threshold: DefaultThreshold, Ports: ports}
}

// threshold treats an unset (zero or negative) Threshold as DefaultThreshold.
// Config and scripts reject such values, so only a zero Resolver hits this.
func (r *Resolver) threshold() float64 {
	if r.Threshold <= 0 {
		return DefaultThreshold
	}
	return r.Threshold
}

// Apply resolves a proposal and, if there is one, passes it to connect.
// It reports whether an edge was created.
func (r *Resolver) Apply(subject store.Node, nodes []store.Node, edges []store.Edge, connect ConnectFunc) (store.Edge, bool, error) {
	p, ok := Resolve(subject, nodes, edges, r.Ports, r.threshold())
	if !ok {
		observability.Graph().OnAutoConnect(false)
		return store.Edge{}, false, nil
	}
	e, err := connect(p.Source, p.SourcePort, p.Target, p.TargetPort)
	if err != nil {
		observability.Graph().OnAutoConnect(false)
		return store.Edge{}, false, err
	}
	observability.Graph().OnAutoConnect(true)
	return e, true, nil
}

// Run auto-connects nodeID using the post-mutation state of s. A node that
// no longer exists is ignored.
func (r *Resolver) Run(s *store.Store, nodeID string) (store.Edge, bool, error) {
	subject, ok := s.Node(nodeID)
	if !ok {
		return store.Edge{}, false, nil
	}
	return r.Apply(subject, s.Nodes(), s.Edges(), s.Connect)
}

// Run auto-connects nodeID in s with the default threshold.
func Run(s *store.Store, nodeID string) (store.Edge, bool, error) {
	return New(s.Registry()).Run(s, nodeID)
}
