// Package registry describes the node kinds a pipeline can contain.
//
// # Overview
//
// A [Template] declares everything the editor knows about a node kind: its
// display metadata (title, icon, accent color), its default parameters, the
// editable [Field] schema, and its ordered input and output [Port] lists.
// A [Registry] is an immutable set of templates, built once at process start.
//
// # Built-in Kinds
//
// [Builtin] returns the ten kinds shipped with the editor, in palette order:
//
//	customInput, llm, customOutput, http, branch, merge, delay, math, formatter, text
//
// Additional kinds can be loaded from a TOML catalog with [LoadCatalog] and
// merged with [Registry.With]:
//
//	extra, err := registry.LoadCatalog("catalog.toml")
//	reg, err := registry.Builtin().With(extra...)
//
// # Lookups
//
// Not-found is a normal outcome, never an error:
//
//	tmpl, ok := reg.TemplateOf("llm")
//	ins := reg.InputPortsOf("unknown")  // empty, non-nil
//
// # Dynamic Ports
//
// Templates with a [DynamicPorts] block derive extra ports from a parameter.
// The built-in text kind exposes one input "var-<name>" per distinct
// {{ name }} variable of its text parameter, plus an output "<nodeID>-output".
// [Registry.PortsFor] returns static and dynamic ports together. Only the
// static lists count as declared ports for automatic connection.
package registry
