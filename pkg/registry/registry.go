package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/matzehuels/pipebuilder/pkg/errors"
)

// DefaultAccent is used for templates that do not declare an accent color.
const DefaultAccent = "#3b82f6"

// Parameter keys every node carries in addition to its template defaults.
const (
	ParamID   = "id"
	ParamKind = "nodeType"
)

// FieldType selects the editor widget for a parameter.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldNumber   FieldType = "number"
)

// Port is a named connection point on a node.
type Port struct {
	ID    string `json:"id" toml:"id"`
	Label string `json:"label,omitempty" toml:"label"`
}

// Field describes one editable parameter.
type Field struct {
	Key         string    `json:"key" toml:"key"`
	Label       string    `json:"label,omitempty" toml:"label"`
	Type        FieldType `json:"type" toml:"type"`
	Options     []string  `json:"options,omitempty" toml:"options"`
	Min         *float64  `json:"min,omitempty" toml:"min"`
	Max         *float64  `json:"max,omitempty" toml:"max"`
	Placeholder string    `json:"placeholder,omitempty" toml:"placeholder"`
	Rows        int       `json:"rows,omitempty" toml:"rows"`
}

// DynamicPorts derives ports from the value of a string parameter.
type DynamicPorts struct {
	Param        string `json:"param" toml:"param"`                 // parameter holding the template text
	InputPrefix  string `json:"input_prefix" toml:"input_prefix"`   // one input per variable: prefix + name
	OutputSuffix string `json:"output_suffix" toml:"output_suffix"` // one output: nodeID + suffix
}

// Template is the static description of a node kind.
type Template struct {
	Kind     string         `json:"kind" toml:"kind"`
	Title    string         `json:"title" toml:"title"`
	Subtitle string         `json:"subtitle,omitempty" toml:"subtitle"`
	Icon     string         `json:"icon,omitempty" toml:"icon"`
	Accent   string         `json:"accent,omitempty" toml:"accent"`
	Defaults map[string]any `json:"defaults,omitempty" toml:"defaults"`
	Fields   []Field        `json:"fields,omitempty" toml:"field"`
	Inputs   []Port         `json:"inputs,omitempty" toml:"input"`
	Outputs  []Port         `json:"outputs,omitempty" toml:"output"`
	Dynamic  *DynamicPorts  `json:"dynamic,omitempty" toml:"dynamic"`
}

// Field returns the schema for key, if the template declares one.
func (t Template) Field(key string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func (t Template) clone() Template {
	c := t
	c.Defaults = maps.Clone(t.Defaults)
	c.Inputs = slices.Clone(t.Inputs)
	c.Outputs = slices.Clone(t.Outputs)
	c.Fields = make([]Field, len(t.Fields))
	for i, f := range t.Fields {
		f.Options = slices.Clone(f.Options)
		c.Fields[i] = f
	}
	if t.Dynamic != nil {
		d := *t.Dynamic
		c.Dynamic = &d
	}
	return c
}

// PaletteEntry is what a palette shows for one kind.
type PaletteEntry struct {
	Kind   string `json:"type"`
	Label  string `json:"label"`
	Icon   string `json:"icon"`
	Accent string `json:"accent"`
}

// Registry is an immutable, ordered set of templates.
type Registry struct {
	templates map[string]Template
	order     []string
}

// New validates templates and builds a registry preserving their order.
func New(templates ...Template) (*Registry, error) {
	r := &Registry{templates: make(map[string]Template, len(templates))}
	for _, t := range templates {
		if err := validateTemplate(t); err != nil {
			return nil, err
		}
		if _, dup := r.templates[t.Kind]; dup {
			return nil, errors.New(errors.ErrCodeInvalidTemplate, "duplicate kind %q", t.Kind)
		}
		if t.Accent == "" {
			t.Accent = DefaultAccent
		}
		r.templates[t.Kind] = t.clone()
		r.order = append(r.order, t.Kind)
	}
	return r, nil
}

// MustNew is like New but panics on invalid templates.
func MustNew(templates ...Template) *Registry {
	r, err := New(templates...)
	if err != nil {
		panic(err)
	}
	return r
}

// With returns a new registry holding r's templates followed by extra.
func (r *Registry) With(extra ...Template) (*Registry, error) {
	all := make([]Template, 0, len(r.order)+len(extra))
	for _, kind := range r.order {
		all = append(all, r.templates[kind])
	}
	return New(append(all, extra...)...)
}

// TemplateOf returns a copy of the template for kind.
func (r *Registry) TemplateOf(kind string) (Template, bool) {
	t, ok := r.templates[kind]
	if !ok {
		return Template{}, false
	}
	return t.clone(), true
}

// Has reports whether kind is registered.
func (r *Registry) Has(kind string) bool {
	_, ok := r.templates[kind]
	return ok
}

// DefaultParametersOf returns a fresh copy of the default parameters for kind.
func (r *Registry) DefaultParametersOf(kind string) map[string]any {
	out := make(map[string]any)
	if t, ok := r.templates[kind]; ok {
		maps.Copy(out, t.Defaults)
	}
	return out
}

// InputPortsOf returns the declared input ports of kind in declaration order.
func (r *Registry) InputPortsOf(kind string) []Port {
	if t, ok := r.templates[kind]; ok && len(t.Inputs) > 0 {
		return slices.Clone(t.Inputs)
	}
	return []Port{}
}

// OutputPortsOf returns the declared output ports of kind in declaration order.
func (r *Registry) OutputPortsOf(kind string) []Port {
	if t, ok := r.templates[kind]; ok && len(t.Outputs) > 0 {
		return slices.Clone(t.Outputs)
	}
	return []Port{}
}

// Kinds returns all registered kinds in registration order.
func (r *Registry) Kinds() []string {
	return slices.Clone(r.order)
}

// Len returns the number of registered kinds.
func (r *Registry) Len() int {
	return len(r.order)
}

// Palette lists every kind the way a drag source presents it.
func (r *Registry) Palette() []PaletteEntry {
	out := make([]PaletteEntry, 0, len(r.order))
	for _, kind := range r.order {
		t := r.templates[kind]
		out = append(out, PaletteEntry{Kind: t.Kind, Label: t.Title, Icon: t.Icon, Accent: t.Accent})
	}
	return out
}

var reservedParams = map[string]bool{ParamID: true, ParamKind: true}

func validateTemplate(t Template) error {
	if err := errors.ValidateKind(t.Kind); err != nil {
		return err
	}
	for key := range t.Defaults {
		if reservedParams[key] {
			return errors.New(errors.ErrCodeInvalidTemplate, "%s: default %q is reserved", t.Kind, key)
		}
	}
	if err := validatePorts(t.Kind, "input", t.Inputs); err != nil {
		return err
	}
	if err := validatePorts(t.Kind, "output", t.Outputs); err != nil {
		return err
	}

	keys := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if f.Key == "" || reservedParams[f.Key] {
			return errors.New(errors.ErrCodeInvalidTemplate, "%s: invalid field key %q", t.Kind, f.Key)
		}
		if keys[f.Key] {
			return errors.New(errors.ErrCodeInvalidTemplate, "%s: duplicate field %q", t.Kind, f.Key)
		}
		keys[f.Key] = true
		switch f.Type {
		case FieldText, FieldTextarea, FieldNumber:
		case FieldSelect:
			if len(f.Options) == 0 {
				return errors.New(errors.ErrCodeInvalidTemplate, "%s: select field %q has no options", t.Kind, f.Key)
			}
		default:
			return errors.New(errors.ErrCodeInvalidTemplate, "%s: field %q has unknown type %q", t.Kind, f.Key, f.Type)
		}
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return errors.New(errors.ErrCodeInvalidTemplate, "%s: field %q has min > max", t.Kind, f.Key)
		}
	}

	if d := t.Dynamic; d != nil {
		if d.Param == "" {
			return errors.New(errors.ErrCodeInvalidTemplate, "%s: dynamic ports need a parameter", t.Kind)
		}
		for _, affix := range []string{d.InputPrefix, d.OutputSuffix} {
			if err := errors.ValidatePortAffix(affix); err != nil {
				return fmt.Errorf("%s dynamic port: %w", t.Kind, err)
			}
		}
	}
	return nil
}

func validatePorts(kind, dir string, ports []Port) error {
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		if err := errors.ValidatePortID(p.ID); err != nil {
			return fmt.Errorf("%s %s port: %w", kind, dir, err)
		}
		if seen[p.ID] {
			return errors.New(errors.ErrCodeInvalidTemplate, "%s: duplicate %s port %q", kind, dir, p.ID)
		}
		seen[p.ID] = true
	}
	return nil
}
