// Package controller turns user intents into graph store operations.
//
// Pointer drops and touch releases both end in the same placement path:
// resolve the kind, convert the release point to canvas space, create the
// node, then auto-connect it. Touch releases outside the canvas are rejected
// with OUT_OF_BOUNDS; pointer drops are only delivered over the canvas.
//
// All intents go through [Controller.Dispatch], which applies them one at a
// time in arrival order.
package controller

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/pipebuilder/pkg/autoconnect"
	"github.com/matzehuels/pipebuilder/pkg/errors"
	"github.com/matzehuels/pipebuilder/pkg/store"
)

// Result describes what an intent changed. Nil fields mean nothing of that
// kind happened; Ignored is set when the intent was dropped on purpose.
type Result struct {
	Node    *store.Node
	Edge    *store.Edge
	Deleted *store.DeleteResult
	Ignored bool
}

type touchState struct {
	kind string
	last store.Position
}

// Controller dispatches intents against a store.
type Controller struct {
	mu       sync.Mutex
	store    *store.Store
	auto     *autoconnect.Resolver
	autoOn   bool
	viewport Viewport
	touch    *touchState
	onDelete func(store.DeleteResult)
	logger   *log.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithViewport sets the initial viewport.
func WithViewport(v Viewport) Option {
	return func(c *Controller) { c.viewport = v }
}

// WithThreshold sets the auto-connect distance.
func WithThreshold(t float64) Option {
	return func(c *Controller) { c.auto.Threshold = t }
}

// WithAutoConnect enables or disables auto-connect. It is on by default.
func WithAutoConnect(on bool) Option {
	return func(c *Controller) { c.autoOn = on }
}

// WithDeleteNotifier registers fn to be told about every non-empty deletion.
// fn runs synchronously and must not block.
func WithDeleteNotifier(fn func(store.DeleteResult)) Option {
	return func(c *Controller) { c.onDelete = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a controller for s.
func New(s *store.Store, opts ...Option) *Controller {
	c := &Controller{
		store:  s,
		auto:   autoconnect.New(s.Registry()),
		autoOn: true,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the controlled store.
func (c *Controller) Store() *store.Store {
	return c.store
}

// Viewport returns the current viewport.
func (c *Controller) Viewport() Viewport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewport
}

// Dispatch applies one intent. Unknown kinds and dangling references are
// returned as errors; stale ids are ignored.
func (c *Controller) Dispatch(in Intent) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch in := in.(type) {
	case Drop:
		return c.drop(in)
	case TouchStart:
		c.touch = &touchState{kind: in.Kind, last: in.Client}
		return Result{}, nil
	case TouchMove:
		if c.touch == nil {
			return Result{Ignored: true}, nil
		}
		c.touch.last = in.Client
		return Result{}, nil
	case TouchEnd:
		return c.touchEnd(in)
	case TouchCancel:
		c.touch = nil
		return Result{}, nil
	case Move:
		c.store.ApplyPositionDelta(in.NodeID, in.Position)
		return Result{}, nil
	case DragStop:
		return c.dragStop(in)
	case ConnectPorts:
		e, err := c.store.Connect(in.Source, in.SourcePort, in.Target, in.TargetPort)
		if err != nil {
			return Result{}, err
		}
		return Result{Edge: &e}, nil
	case Select:
		c.store.SetSelection(in.Nodes, in.Edges)
		return Result{}, nil
	case SetParameter:
		return Result{}, c.store.UpdateNodeParameter(in.NodeID, in.Key, in.Value)
	case DeleteSelection:
		return c.deleted(c.store.DeleteSelected()), nil
	case DeleteElement:
		res := c.store.DeleteNode(in.NodeID)
		if in.EdgeID != "" {
			more := c.store.DeleteEdge(in.EdgeID)
			res.Edges += more.Edges
			res.EdgeIDs = append(res.EdgeIDs, more.EdgeIDs...)
		}
		return c.deleted(res), nil
	case Clear:
		c.store.ClearAll()
		return Result{}, nil
	case SetView:
		c.viewport = in.Viewport
		return Result{}, nil
	default:
		return Result{}, errors.New(errors.ErrCodeUnsupported, "unsupported intent %T", in)
	}
}

type dragPayload struct {
	NodeType string `json:"nodeType"`
}

// ParsePayload extracts the node kind from a drag payload. Empty or
// malformed payloads yield "".
func ParsePayload(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var p dragPayload
	if err := json.Unmarshal(data, &p); err != nil {
		return ""
	}
	return p.NodeType
}

// Payload builds the drag payload for kind.
func Payload(kind string) []byte {
	data, _ := json.Marshal(dragPayload{NodeType: kind})
	return data
}

func (c *Controller) drop(in Drop) (Result, error) {
	kind := ParsePayload(in.Payload)
	if kind == "" {
		c.logger.Debug("ignoring drop without node type")
		return Result{Ignored: true}, nil
	}
	return c.place(kind, c.viewport.ScreenToCanvas(in.Client))
}

func (c *Controller) touchEnd(in TouchEnd) (Result, error) {
	t := c.touch
	c.touch = nil
	if t == nil || t.kind == "" {
		return Result{Ignored: true}, nil
	}
	release := t.last
	if in.Client != nil {
		release = *in.Client
	}
	if !c.viewport.Contains(release) {
		return Result{}, errors.New(errors.ErrCodeOutOfBounds,
			"touch released outside the canvas at (%g, %g)", release.X, release.Y)
	}
	return c.place(t.kind, c.viewport.ScreenToCanvas(release))
}

// place creates a node and auto-connects it.
func (c *Controller) place(kind string, pos store.Position) (Result, error) {
	n, err := c.store.CreateNode(kind, pos)
	if err != nil {
		return Result{}, err
	}
	res := Result{Node: &n}
	if e, ok := c.autoConnect(n.ID); ok {
		res.Edge = &e
	}
	return res, nil
}

func (c *Controller) dragStop(in DragStop) (Result, error) {
	c.store.ApplyPositionDelta(in.NodeID, in.Position)
	n, ok := c.store.Node(in.NodeID)
	if !ok {
		return Result{Ignored: true}, nil
	}
	res := Result{Node: &n}
	if e, ok := c.autoConnect(n.ID); ok {
		res.Edge = &e
	}
	return res, nil
}

// autoConnect never fails the triggering intent: the heuristic only
// proposes ports that exist.
func (c *Controller) autoConnect(id string) (store.Edge, bool) {
	if !c.autoOn {
		return store.Edge{}, false
	}
	e, created, err := c.auto.Run(c.store, id)
	if err != nil {
		c.logger.Warn("auto-connect failed", "node", id, "err", err)
		return store.Edge{}, false
	}
	if created {
		c.logger.Debug("auto-connected", "edge", e.ID)
	}
	return e, created
}

func (c *Controller) deleted(res store.DeleteResult) Result {
	if !res.IsEmpty() && c.onDelete != nil {
		c.onDelete(res)
	}
	return Result{Deleted: &res}
}

// String renders a result for logs.
func (r Result) String() string {
	switch {
	case r.Ignored:
		return "ignored"
	case r.Node != nil && r.Edge != nil:
		return fmt.Sprintf("node %s, edge %s", r.Node.ID, r.Edge.ID)
	case r.Node != nil:
		return "node " + r.Node.ID
	case r.Edge != nil:
		return "edge " + r.Edge.ID
	case r.Deleted != nil:
		return fmt.Sprintf("deleted %d nodes, %d edges", r.Deleted.Nodes, r.Deleted.Edges)
	}
	return "ok"
}
