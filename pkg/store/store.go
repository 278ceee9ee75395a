package store

import (
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pipebuilder/pkg/errors"
	"github.com/matzehuels/pipebuilder/pkg/identity"
	"github.com/matzehuels/pipebuilder/pkg/observability"
	"github.com/matzehuels/pipebuilder/pkg/registry"
)

// Store is the authoritative pipeline state. It is safe for concurrent use;
// all mutations are serialized.
type Store struct {
	mu sync.Mutex

	reg    *registry.Registry
	ids    *identity.Allocator
	strict bool
	logger *log.Logger

	nodes     map[string]*Node
	nodeOrder []string
	edges     map[string]*Edge
	edgeOrder []string
	selNodes  []string
	selEdges  []string

	obs observers
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for debug output.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStrictParameters validates parameter writes against the template's
// field schema.
func WithStrictParameters() Option {
	return func(s *Store) { s.strict = true }
}

// WithAllocator replaces the default identity allocator.
func WithAllocator(a *identity.Allocator) Option {
	return func(s *Store) {
		if a != nil {
			s.ids = a
		}
	}
}

// New creates an empty store backed by reg. A nil registry means the
// built-in one.
func New(reg *registry.Registry, opts ...Option) *Store {
	if reg == nil {
		reg = registry.Builtin()
	}
	s := &Store{
		reg:    reg,
		ids:    identity.New(),
		logger: log.Default(),
		nodes:  make(map[string]*Node),
		edges:  make(map[string]*Edge),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the template registry backing the store.
func (s *Store) Registry() *registry.Registry {
	return s.reg
}

// Subscribe registers fn to receive events after every committed mutation.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.obs.add(fn)
}

// =============================================================================
// Mutations
// =============================================================================

// CreateNode places a new node of kind at pos. Parameters start as the
// template defaults plus the node's id and kind.
func (s *Store) CreateNode(kind string, pos Position) (Node, error) {
	if !s.reg.Has(kind) {
		return Node{}, errors.New(errors.ErrCodeUnknownKind, "unknown node kind %q", kind)
	}

	s.mu.Lock()
	id := s.ids.Next(kind)
	for s.nodes[id] != nil {
		id = s.ids.Next(kind)
	}
	params := s.reg.DefaultParametersOf(kind)
	params[registry.ParamID] = id
	params[registry.ParamKind] = kind
	n := &Node{ID: id, Kind: kind, Position: pos, Parameters: params}
	s.nodes[id] = n
	s.nodeOrder = append(s.nodeOrder, id)
	out := n.clone()
	s.mu.Unlock()

	s.logger.Debug("node created", "id", id, "kind", kind, "x", pos.X, "y", pos.Y)
	observability.Graph().OnNodeCreated(kind)
	s.obs.notify(Event{Type: EventNodeCreated, NodeIDs: []string{id}})
	return out, nil
}

// UpdateNodeParameter sets one parameter on one node. A missing node is a
// no-op. When the parameter drives the node's ports, edges attached to
// ports that disappeared are removed.
func (s *Store) UpdateNodeParameter(id, key string, value any) error {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		s.logger.Debug("ignoring update of missing node", "id", id, "key", key)
		return nil
	}
	if err := s.checkParameter(n.Kind, key, value); err != nil {
		s.mu.Unlock()
		return err
	}

	n.Parameters[key] = value
	var pruned []string
	if param, ok := s.reg.DynamicParam(n.Kind); ok && param == key {
		pruned = s.pruneEdges(n)
	}
	s.mu.Unlock()

	if len(pruned) > 0 {
		s.logger.Debug("pruned edges after port change", "id", id, "edges", pruned)
	}
	s.obs.notify(Event{Type: EventNodeUpdated, NodeIDs: []string{id}, EdgeIDs: pruned, Key: key})
	return nil
}

func (s *Store) checkParameter(kind, key string, value any) error {
	if s.strict {
		return s.reg.ValidateParameter(kind, key, value)
	}
	if key == registry.ParamID || key == registry.ParamKind {
		return errors.New(errors.ErrCodeInvalidParameter, "parameter %q is read-only", key)
	}
	return nil
}

// pruneEdges removes edges of n whose ports n no longer declares.
// Callers hold s.mu.
func (s *Store) pruneEdges(n *Node) []string {
	ins, outs := s.reg.PortsFor(n.Kind, n.ID, n.Parameters)
	var pruned []string
	for _, eid := range slices.Clone(s.edgeOrder) {
		e := s.edges[eid]
		stale := (e.Source == n.ID && !registry.HasPort(outs, e.SourcePort)) ||
			(e.Target == n.ID && !registry.HasPort(ins, e.TargetPort))
		if stale {
			s.removeEdge(eid)
			pruned = append(pruned, eid)
		}
	}
	return pruned
}

// Connect wires sourcePort of source to targetPort of target. Every endpoint
// must exist, otherwise a DANGLING_REFERENCE error is returned and nothing
// changes. Connecting an existing four-tuple returns the existing edge.
func (s *Store) Connect(source, sourcePort, target, targetPort string) (Edge, error) {
	s.mu.Lock()
	if err := s.checkEndpoints(source, sourcePort, target, targetPort); err != nil {
		s.mu.Unlock()
		return Edge{}, err
	}

	id := EdgeID(source, sourcePort, target, targetPort)
	if e, ok := s.edges[id]; ok {
		out := *e
		s.mu.Unlock()
		return out, nil
	}
	e := &Edge{ID: id, Source: source, SourcePort: sourcePort, Target: target, TargetPort: targetPort}
	s.edges[id] = e
	s.edgeOrder = append(s.edgeOrder, id)
	srcKind, tgtKind := s.nodes[source].Kind, s.nodes[target].Kind
	out := *e
	s.mu.Unlock()

	s.logger.Debug("edge connected", "id", id)
	observability.Graph().OnEdgeConnected(srcKind, tgtKind)
	s.obs.notify(Event{Type: EventEdgeConnected, NodeIDs: []string{source, target}, EdgeIDs: []string{id}})
	return out, nil
}

// checkEndpoints validates an edge against invariant 1. Callers hold s.mu.
func (s *Store) checkEndpoints(source, sourcePort, target, targetPort string) error {
	src, ok := s.nodes[source]
	if !ok {
		return errors.New(errors.ErrCodeDanglingReference, "source node %q does not exist", source)
	}
	tgt, ok := s.nodes[target]
	if !ok {
		return errors.New(errors.ErrCodeDanglingReference, "target node %q does not exist", target)
	}
	if _, outs := s.reg.PortsFor(src.Kind, src.ID, src.Parameters); !registry.HasPort(outs, sourcePort) {
		return errors.New(errors.ErrCodeDanglingReference, "node %s has no output port %q", source, sourcePort)
	}
	if ins, _ := s.reg.PortsFor(tgt.Kind, tgt.ID, tgt.Parameters); !registry.HasPort(ins, targetPort) {
		return errors.New(errors.ErrCodeDanglingReference, "node %s has no input port %q", target, targetPort)
	}
	return nil
}

// ApplyPositionDelta moves a node to pos. A missing node is a no-op.
func (s *Store) ApplyPositionDelta(id string, pos Position) {
	s.mu.Lock()
	n, ok := s.nodes[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	n.Position = pos
	s.mu.Unlock()

	s.obs.notify(Event{Type: EventNodeMoved, NodeIDs: []string{id}})
}

// MoveNode is an alias for ApplyPositionDelta.
func (s *Store) MoveNode(id string, pos Position) {
	s.ApplyPositionDelta(id, pos)
}

// SetSelection replaces the selection. Unknown and duplicate ids are
// dropped.
func (s *Store) SetSelection(nodeIDs, edgeIDs []string) {
	s.mu.Lock()
	s.selNodes = filterKnown(nodeIDs, func(id string) bool { return s.nodes[id] != nil })
	s.selEdges = filterKnown(edgeIDs, func(id string) bool { return s.edges[id] != nil })
	sel := Event{Type: EventSelectionChanged, NodeIDs: slices.Clone(s.selNodes), EdgeIDs: slices.Clone(s.selEdges)}
	s.mu.Unlock()

	s.obs.notify(sel)
}

func filterKnown(ids []string, known func(string) bool) []string {
	var out []string
	for _, id := range ids {
		if known(id) && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

// DeleteSelected removes the selected nodes, the selected edges and every
// edge touching a removed node, then clears the selection.
func (s *Store) DeleteSelected() DeleteResult {
	s.mu.Lock()
	res := s.deleteLocked(s.selNodes, s.selEdges)
	s.selNodes, s.selEdges = nil, nil
	s.mu.Unlock()

	s.afterDelete(res)
	return res
}

// DeleteNode removes one node and its edges. A missing node is a no-op.
func (s *Store) DeleteNode(id string) DeleteResult {
	s.mu.Lock()
	res := s.deleteLocked([]string{id}, nil)
	s.mu.Unlock()

	s.afterDelete(res)
	return res
}

// DeleteEdge removes one edge. A missing edge is a no-op.
func (s *Store) DeleteEdge(id string) DeleteResult {
	s.mu.Lock()
	res := s.deleteLocked(nil, []string{id})
	s.mu.Unlock()

	s.afterDelete(res)
	return res
}

func (s *Store) afterDelete(res DeleteResult) {
	if res.IsEmpty() {
		return
	}
	s.logger.Debug("deleted", "nodes", res.Nodes, "edges", res.Edges)
	observability.Graph().OnDeleted(res.Nodes, res.Edges)
	s.obs.notify(Event{Type: EventDeleted, NodeIDs: res.NodeIDs, EdgeIDs: res.EdgeIDs})
}

// deleteLocked removes nodes and edges in creation order. Callers hold s.mu.
func (s *Store) deleteLocked(nodeIDs, edgeIDs []string) DeleteResult {
	var res DeleteResult
	doomed := make(map[string]bool, len(nodeIDs))
	for _, id := range nodeIDs {
		if s.nodes[id] != nil {
			doomed[id] = true
		}
	}
	wanted := make(map[string]bool, len(edgeIDs))
	for _, id := range edgeIDs {
		wanted[id] = true
	}

	for _, eid := range slices.Clone(s.edgeOrder) {
		e := s.edges[eid]
		if wanted[eid] || doomed[e.Source] || doomed[e.Target] {
			s.removeEdge(eid)
			res.addEdge(eid)
		}
	}
	for _, id := range slices.Clone(s.nodeOrder) {
		if doomed[id] {
			delete(s.nodes, id)
			s.nodeOrder = removeID(s.nodeOrder, id)
			s.selNodes = removeID(s.selNodes, id)
			res.addNode(id)
		}
	}
	return res
}

// removeEdge drops an edge and its selection entry. Callers hold s.mu.
func (s *Store) removeEdge(id string) {
	delete(s.edges, id)
	s.edgeOrder = removeID(s.edgeOrder, id)
	s.selEdges = removeID(s.selEdges, id)
}

// ClearAll removes everything and resets the id counters, so the next node
// of each kind is numbered 1 again.
func (s *Store) ClearAll() {
	s.mu.Lock()
	s.nodes = make(map[string]*Node)
	s.edges = make(map[string]*Edge)
	s.nodeOrder, s.edgeOrder = nil, nil
	s.selNodes, s.selEdges = nil, nil
	s.ids.Reset()
	s.mu.Unlock()

	s.logger.Debug("cleared canvas")
	observability.Graph().OnCleared()
	s.obs.notify(Event{Type: EventCleared})
}

// =============================================================================
// Reads
// =============================================================================

// Node returns a copy of the node with the given id.
func (s *Store) Node(id string) (Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Nodes returns copies of all nodes in creation order.
func (s *Store) Nodes() []Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Node, 0, len(s.nodeOrder))
	for _, id := range s.nodeOrder {
		out = append(out, s.nodes[id].clone())
	}
	return out
}

// Edges returns copies of all edges in connection order.
func (s *Store) Edges() []Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Edge, 0, len(s.edgeOrder))
	for _, id := range s.edgeOrder {
		out = append(out, *s.edges[id])
	}
	return out
}

// Edge returns a copy of the edge with the given id.
func (s *Store) Edge(id string) (Edge, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// HasEdge reports whether the given four-tuple is connected.
func (s *Store) HasEdge(source, sourcePort, target, targetPort string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.edges[EdgeID(source, sourcePort, target, targetPort)]
	return ok
}

// Selection returns a copy of the current selection.
func (s *Store) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Selection{Nodes: slices.Clone(s.selNodes), Edges: slices.Clone(s.selEdges)}
}

// Len returns the number of nodes and edges.
func (s *Store) Len() (nodes, edges int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.nodeOrder), len(s.edgeOrder)
}

// Ports returns the full port lists of a node, including dynamic ports.
func (s *Store) Ports(id string) (inputs, outputs []registry.Port, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, found := s.nodes[id]
	if !found {
		return nil, nil, false
	}
	inputs, outputs = s.reg.PortsFor(n.Kind, n.ID, n.Parameters)
	return inputs, outputs, true
}

// =============================================================================
// Invariants
// =============================================================================

// Check verifies the store invariants and returns the first violation.
func (s *Store) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.nodes) != len(s.nodeOrder) {
		return errors.New(errors.ErrCodeInternal, "node index out of sync: %d vs %d", len(s.nodes), len(s.nodeOrder))
	}
	for _, id := range s.nodeOrder {
		n, ok := s.nodes[id]
		if !ok || n.ID != id {
			return errors.New(errors.ErrCodeInternal, "node %s missing from index", id)
		}
		if n.Parameters[registry.ParamID] != id || n.Parameters[registry.ParamKind] != n.Kind {
			return errors.New(errors.ErrCodeInternal, "node %s identity parameters diverged", id)
		}
	}

	if len(s.edges) != len(s.edgeOrder) {
		return errors.New(errors.ErrCodeInternal, "edge index out of sync: %d vs %d", len(s.edges), len(s.edgeOrder))
	}
	for _, id := range s.edgeOrder {
		e, ok := s.edges[id]
		if !ok {
			return errors.New(errors.ErrCodeInternal, "edge %s missing from index", id)
		}
		if id != EdgeID(e.Source, e.SourcePort, e.Target, e.TargetPort) {
			return errors.New(errors.ErrCodeInternal, "edge %s has a non-derived id", id)
		}
		if err := s.checkEndpoints(e.Source, e.SourcePort, e.Target, e.TargetPort); err != nil {
			return err
		}
	}

	for _, id := range s.selNodes {
		if s.nodes[id] == nil {
			return errors.New(errors.ErrCodeInternal, "selected node %s does not exist", id)
		}
	}
	for _, id := range s.selEdges {
		if s.edges[id] == nil {
			return errors.New(errors.ErrCodeInternal, "selected edge %s does not exist", id)
		}
	}
	return nil
}
