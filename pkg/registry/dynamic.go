package registry

import (
	"fmt"
	"regexp"
	"slices"
)

var variablePattern = regexp.MustCompile(`\{\{\s*([A-Za-z_$][\w$]*)\s*\}\}`)

// Variables returns the distinct {{ name }} variables of text in order of
// first appearance.
func Variables(text string) []string {
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(text, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}
	return names
}

// PortsFor returns the full port lists of a node: declared ports followed by
// any ports derived from its parameters. Unknown kinds have no ports.
func (r *Registry) PortsFor(kind, nodeID string, params map[string]any) (inputs, outputs []Port) {
	t, ok := r.templates[kind]
	if !ok {
		return []Port{}, []Port{}
	}
	inputs = append([]Port{}, t.Inputs...)
	outputs = append([]Port{}, t.Outputs...)
	if t.Dynamic == nil {
		return inputs, outputs
	}

	d := t.Dynamic
	text := dynamicSource(t, params)
	for _, name := range Variables(text) {
		inputs = append(inputs, Port{ID: d.InputPrefix + name, Label: name})
	}
	if d.OutputSuffix != "" {
		outputs = append(outputs, Port{ID: nodeID + d.OutputSuffix, Label: "Output"})
	}
	return inputs, outputs
}

// HasDynamicPorts reports whether the ports of kind depend on its parameters.
func (r *Registry) HasDynamicPorts(kind string) bool {
	t, ok := r.templates[kind]
	return ok && t.Dynamic != nil
}

// DynamicParam returns the parameter that drives the ports of kind, if any.
func (r *Registry) DynamicParam(kind string) (string, bool) {
	t, ok := r.templates[kind]
	if !ok || t.Dynamic == nil {
		return "", false
	}
	return t.Dynamic.Param, true
}

func dynamicSource(t Template, params map[string]any) string {
	v, ok := params[t.Dynamic.Param]
	if !ok || v == nil {
		v = t.Defaults[t.Dynamic.Param]
	}
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

// HasPort reports whether ports contains id.
func HasPort(ports []Port, id string) bool {
	return slices.ContainsFunc(ports, func(p Port) bool { return p.ID == id })
}
