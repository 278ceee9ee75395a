package controller

import "github.com/matzehuels/pipebuilder/pkg/store"

// DragMIME is the data-transfer type carrying drag payloads.
const DragMIME = "application/reactflow"

// Intent is a user action delivered to Controller.Dispatch.
type Intent interface {
	intent()
}

// Drop is a palette item released on the canvas by a pointer. Payload is the
// JSON drag payload {"nodeType": "<kind>"}.
type Drop struct {
	Payload []byte
	Client  store.Position
}

// TouchStart begins a touch drag of a palette item.
type TouchStart struct {
	Kind   string
	Client store.Position
}

// TouchMove tracks the finger during a touch drag.
type TouchMove struct {
	Client store.Position
}

// TouchEnd releases a touch drag. A nil Client uses the last tracked point.
type TouchEnd struct {
	Client *store.Position
}

// TouchCancel aborts a touch drag.
type TouchCancel struct{}

// Move repositions a node while it is dragged.
type Move struct {
	NodeID   string
	Position store.Position
}

// DragStop finishes dragging a node; the node is auto-connected afterwards.
type DragStop struct {
	NodeID   string
	Position store.Position
}

// ConnectPorts is an explicit wiring request.
type ConnectPorts struct {
	Source     string
	SourcePort string
	Target     string
	TargetPort string
}

// Select replaces the selection.
type Select struct {
	Nodes []string
	Edges []string
}

// SetParameter edits one node parameter.
type SetParameter struct {
	NodeID string
	Key    string
	Value  any
}

// DeleteSelection removes the selection.
type DeleteSelection struct{}

// DeleteElement removes a single node or edge.
type DeleteElement struct {
	NodeID string
	EdgeID string
}

// Clear empties the canvas.
type Clear struct{}

// SetView updates the viewport after a resize, pan or zoom.
type SetView struct {
	Viewport Viewport
}

func (Drop) intent()            {}
func (TouchStart) intent()      {}
func (TouchMove) intent()       {}
func (TouchEnd) intent()        {}
func (TouchCancel) intent()     {}
func (Move) intent()            {}
func (DragStop) intent()        {}
func (ConnectPorts) intent()    {}
func (Select) intent()          {}
func (SetParameter) intent()    {}
func (DeleteSelection) intent() {}
func (DeleteElement) intent()   {}
func (Clear) intent()           {}
func (SetView) intent()         {}
