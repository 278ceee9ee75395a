package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/pipebuilder/pkg/controller"
	"github.com/matzehuels/pipebuilder/pkg/store"
)

// Script is an edit script: a recorded sequence of canvas interactions.
//
//	viewport: {x: 0, y: 0, width: 1200, height: 800}
//	steps:
//	  - op: drop
//	    kind: customInput
//	    at: {x: 100, y: 100}
//	  - op: touch
//	    kind: llm
//	    at: {x: 150, y: 120}
//	    release: {x: 220, y: 140}
//	  - op: set
//	    node: llm-1
//	    key: model
//	    value: gpt-4o
type Script struct {
	Viewport    *ScriptViewport `yaml:"viewport,omitempty"`
	AutoConnect *bool           `yaml:"auto_connect,omitempty"`
	Threshold   float64         `yaml:"threshold,omitempty"`
	Steps       []Step          `yaml:"steps"`
}

// ScriptViewport places the canvas on the screen.
type ScriptViewport struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	PanX   float64 `yaml:"pan_x,omitempty"`
	PanY   float64 `yaml:"pan_y,omitempty"`
	Zoom   float64 `yaml:"zoom,omitempty"`
}

// Point is a screen or canvas coordinate in a script.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

func (p Point) position() store.Position { return store.Position{X: p.X, Y: p.Y} }

// Step operations.
const (
	OpDrop    = "drop"
	OpTouch   = "touch"
	OpMove    = "move"
	OpDrag    = "drag"
	OpConnect = "connect"
	OpSelect  = "select"
	OpSet     = "set"
	OpDelete  = "delete"
	OpClear   = "clear"
)

// Step is one interaction.
type Step struct {
	Op string `yaml:"op"`

	// drop, touch
	Kind    string  `yaml:"kind,omitempty"`
	Payload string  `yaml:"payload,omitempty"` // raw drag payload; overrides kind
	At      *Point  `yaml:"at,omitempty"`
	Path    []Point `yaml:"path,omitempty"`    // touch moves
	Release *Point  `yaml:"release,omitempty"` // touch release, defaults to the last point
	Cancel  bool    `yaml:"cancel,omitempty"`  // touch aborted

	// move, drag, set, delete
	Node string `yaml:"node,omitempty"`
	Edge string `yaml:"edge,omitempty"`

	// connect
	Source     string `yaml:"source,omitempty"`
	SourcePort string `yaml:"source_port,omitempty"`
	Target     string `yaml:"target,omitempty"`
	TargetPort string `yaml:"target_port,omitempty"`

	// select
	Nodes []string `yaml:"nodes,omitempty"`
	Edges []string `yaml:"edges,omitempty"`

	// set
	Key   string `yaml:"key,omitempty"`
	Value any    `yaml:"value,omitempty"`
}

// ParseScript decodes a YAML edit script. Unknown keys are rejected.
func ParseScript(r io.Reader) (Script, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Script{}, nil
		}
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	if s.Threshold < 0 {
		return Script{}, fmt.Errorf("threshold must not be negative, got %g", s.Threshold)
	}
	for i, st := range s.Steps {
		if _, err := st.intents(); err != nil {
			return Script{}, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return s, nil
}

// LoadScript reads an edit script file.
func LoadScript(path string) (Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return Script{}, err
	}
	defer f.Close()
	return ParseScript(f)
}

// options converts the script header into controller options.
func (s Script) options() []controller.Option {
	var opts []controller.Option
	if v := s.Viewport; v != nil {
		opts = append(opts, controller.WithViewport(controller.Viewport{
			Bounds: controller.Rect{X: v.X, Y: v.Y, Width: v.Width, Height: v.Height},
			Pan:    store.Position{X: v.PanX, Y: v.PanY},
			Zoom:   v.Zoom,
		}))
	}
	if s.AutoConnect != nil {
		opts = append(opts, controller.WithAutoConnect(*s.AutoConnect))
	}
	if s.Threshold > 0 {
		opts = append(opts, controller.WithThreshold(s.Threshold))
	}
	return opts
}

// intents expands a step into the intents a canvas would emit for it.
func (st Step) intents() ([]controller.Intent, error) {
	need := func(ok bool, what string) error {
		if !ok {
			return fmt.Errorf("%s: missing %s", st.Op, what)
		}
		return nil
	}

	switch st.Op {
	case OpDrop:
		if err := need(st.At != nil, "at"); err != nil {
			return nil, err
		}
		payload := []byte(st.Payload)
		if st.Payload == "" {
			payload = controller.Payload(st.Kind)
		}
		return []controller.Intent{controller.Drop{Payload: payload, Client: st.At.position()}}, nil

	case OpTouch:
		if err := need(st.At != nil, "at"); err != nil {
			return nil, err
		}
		out := []controller.Intent{controller.TouchStart{Kind: st.Kind, Client: st.At.position()}}
		for _, p := range st.Path {
			out = append(out, controller.TouchMove{Client: p.position()})
		}
		switch {
		case st.Cancel:
			out = append(out, controller.TouchCancel{})
		case st.Release != nil:
			p := st.Release.position()
			out = append(out, controller.TouchEnd{Client: &p})
		default:
			out = append(out, controller.TouchEnd{})
		}
		return out, nil

	case OpMove, OpDrag:
		if err := need(st.Node != "" && st.At != nil, "node or at"); err != nil {
			return nil, err
		}
		if st.Op == OpMove {
			return []controller.Intent{controller.Move{NodeID: st.Node, Position: st.At.position()}}, nil
		}
		return []controller.Intent{controller.DragStop{NodeID: st.Node, Position: st.At.position()}}, nil

	case OpConnect:
		return []controller.Intent{controller.ConnectPorts{
			Source: st.Source, SourcePort: st.SourcePort,
			Target: st.Target, TargetPort: st.TargetPort,
		}}, nil

	case OpSelect:
		return []controller.Intent{controller.Select{Nodes: st.Nodes, Edges: st.Edges}}, nil

	case OpSet:
		if err := need(st.Node != "" && st.Key != "", "node or key"); err != nil {
			return nil, err
		}
		return []controller.Intent{controller.SetParameter{NodeID: st.Node, Key: st.Key, Value: st.Value}}, nil

	case OpDelete:
		if st.Node == "" && st.Edge == "" {
			return []controller.Intent{controller.DeleteSelection{}}, nil
		}
		return []controller.Intent{controller.DeleteElement{NodeID: st.Node, EdgeID: st.Edge}}, nil

	case OpClear:
		return []controller.Intent{controller.Clear{}}, nil

	default:
		return nil, fmt.Errorf("unknown op %q", st.Op)
	}
}

// stepReport is the outcome of one step.
type stepReport struct {
	Index  int
	Op     string
	Result controller.Result
	Err    error
}

// runScript dispatches every step. A failing step is reported and, unless
// failFast is set, the script continues; failures never undo earlier steps.
func runScript(ctrl *controller.Controller, s Script, failFast bool) ([]stepReport, error) {
	reports := make([]stepReport, 0, len(s.Steps))
	for i, st := range s.Steps {
		intents, err := st.intents()
		if err != nil {
			return reports, fmt.Errorf("step %d: %w", i+1, err)
		}
		rep := stepReport{Index: i + 1, Op: st.Op}
		for _, in := range intents {
			res, err := ctrl.Dispatch(in)
			if err != nil {
				rep.Err = err
				break
			}
			if !res.Ignored || rep.Result == (controller.Result{}) {
				rep.Result = res
			}
		}
		reports = append(reports, rep)
		if rep.Err != nil && failFast {
			return reports, fmt.Errorf("step %d (%s): %w", rep.Index, rep.Op, rep.Err)
		}
	}
	return reports, nil
}
