package registry

import (
	"strings"
	"testing"

	"github.com/matzehuels/pipebuilder/pkg/errors"
)

func TestBuiltinKinds(t *testing.T) {
	want := []string{"customInput", "llm", "customOutput", "http", "branch", "merge", "delay", "math", "formatter", "text"}
	got := Builtin().Kinds()
	if len(got) != len(want) {
		t.Fatalf("Kinds() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Kinds()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestBuiltinPorts(t *testing.T) {
	reg := Builtin()
	tests := []struct {
		kind    string
		inputs  []string
		outputs []string
	}{
		{"customInput", nil, []string{"value"}},
		{"llm", []string{"system", "prompt"}, []string{"response"}},
		{"customOutput", []string{"value"}, nil},
		{"http", []string{"body"}, []string{"httpResponse"}},
		{"branch", []string{"input"}, []string{"true", "false"}},
		{"merge", []string{"a", "b"}, []string{"merged"}},
		{"delay", []string{"input"}, []string{"delayed"}},
		{"math", []string{"value"}, []string{"sum"}},
		{"formatter", []string{"data"}, []string{"text"}},
		{"text", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			if got := portIDs(reg.InputPortsOf(tt.kind)); strings.Join(got, ",") != strings.Join(tt.inputs, ",") {
				t.Errorf("InputPortsOf(%s) = %v, want %v", tt.kind, got, tt.inputs)
			}
			if got := portIDs(reg.OutputPortsOf(tt.kind)); strings.Join(got, ",") != strings.Join(tt.outputs, ",") {
				t.Errorf("OutputPortsOf(%s) = %v, want %v", tt.kind, got, tt.outputs)
			}
		})
	}
}

func portIDs(ports []Port) []string {
	var ids []string
	for _, p := range ports {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestUnknownKindLookups(t *testing.T) {
	reg := Builtin()

	if _, ok := reg.TemplateOf("widget"); ok {
		t.Error("TemplateOf(widget) ok = true, want false")
	}
	if p := reg.InputPortsOf("widget"); p == nil || len(p) != 0 {
		t.Errorf("InputPortsOf(widget) = %#v, want empty non-nil", p)
	}
	if p := reg.OutputPortsOf("widget"); p == nil || len(p) != 0 {
		t.Errorf("OutputPortsOf(widget) = %#v, want empty non-nil", p)
	}
	if d := reg.DefaultParametersOf("widget"); d == nil || len(d) != 0 {
		t.Errorf("DefaultParametersOf(widget) = %#v, want empty non-nil", d)
	}
	if d := reg.DefaultParametersOf("merge"); d == nil || len(d) != 0 {
		t.Errorf("DefaultParametersOf(merge) = %#v, want empty non-nil", d)
	}
}

func TestDefaultParametersAreCopies(t *testing.T) {
	reg := Builtin()
	d := reg.DefaultParametersOf("llm")
	if d["model"] != "gpt-4" || d["temperature"] != "0.7" {
		t.Fatalf("DefaultParametersOf(llm) = %v", d)
	}
	d["model"] = "mixtral"
	if got := reg.DefaultParametersOf("llm")["model"]; got != "gpt-4" {
		t.Errorf("defaults mutated through copy: model = %v", got)
	}

	tmpl, _ := reg.TemplateOf("llm")
	tmpl.Inputs[0].ID = "mutated"
	if got := reg.InputPortsOf("llm")[0].ID; got != "system" {
		t.Errorf("template mutated through copy: first input = %s", got)
	}
}

func TestPalette(t *testing.T) {
	p := Builtin().Palette()
	if len(p) != 10 {
		t.Fatalf("Palette() len = %d, want 10", len(p))
	}
	first := p[0]
	if first.Kind != "customInput" || first.Label != "Input" || first.Icon != "IN" || first.Accent != "#0ea5e9" {
		t.Errorf("Palette()[0] = %+v", first)
	}
	last := p[9]
	if last.Kind != "text" || last.Accent != "#f97316" {
		t.Errorf("Palette()[9] = %+v", last)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		tmpl []Template
		code errors.Code
	}{
		{"bad kind", []Template{{Kind: "bad-kind"}}, errors.ErrCodeInvalidTemplate},
		{"duplicate kind", []Template{{Kind: "a"}, {Kind: "a"}}, errors.ErrCodeInvalidTemplate},
		{"duplicate input", []Template{{Kind: "a", Inputs: []Port{{ID: "x"}, {ID: "x"}}}}, errors.ErrCodeInvalidTemplate},
		{"bad port", []Template{{Kind: "a", Outputs: []Port{{ID: "x:y"}}}}, errors.ErrCodeInvalidTemplate},
		{"reserved default", []Template{{Kind: "a", Defaults: map[string]any{"id": "x"}}}, errors.ErrCodeInvalidTemplate},
		{"select without options", []Template{{Kind: "a", Fields: []Field{{Key: "k", Type: FieldSelect}}}}, errors.ErrCodeInvalidTemplate},
		{"unknown field type", []Template{{Kind: "a", Fields: []Field{{Key: "k", Type: "slider"}}}}, errors.ErrCodeInvalidTemplate},
		{"dynamic without param", []Template{{Kind: "a", Dynamic: &DynamicPorts{}}}, errors.ErrCodeInvalidTemplate},
		{"dynamic prefix with colon", []Template{{Kind: "a", Dynamic: &DynamicPorts{Param: "text", InputPrefix: "v:"}}}, errors.ErrCodeInvalidTemplate},
		{"dynamic suffix with arrow", []Template{{Kind: "a", Dynamic: &DynamicPorts{Param: "text", OutputSuffix: "->out"}}}, errors.ErrCodeInvalidTemplate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.tmpl...)
			if !errors.Is(err, tt.code) {
				t.Errorf("New() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestNewSameInputAndOutputID(t *testing.T) {
	// customOutput-style "value" input next to a "value" output is legal.
	_, err := New(Template{Kind: "relay", Inputs: []Port{{ID: "value"}}, Outputs: []Port{{ID: "value"}}})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
}

func TestWith(t *testing.T) {
	reg, err := Builtin().With(Template{Kind: "webhook", Title: "Webhook", Outputs: []Port{{ID: "payload"}}})
	if err != nil {
		t.Fatalf("With() error = %v", err)
	}
	if reg.Len() != 11 {
		t.Errorf("Len() = %d, want 11", reg.Len())
	}
	if Builtin().Has("webhook") {
		t.Error("With() mutated the builtin registry")
	}
	tmpl, ok := reg.TemplateOf("webhook")
	if !ok || tmpl.Accent != DefaultAccent {
		t.Errorf("TemplateOf(webhook) = %+v, %v; want default accent", tmpl, ok)
	}

	if _, err := Builtin().With(Template{Kind: "llm"}); err == nil {
		t.Error("With(duplicate) error = nil, want error")
	}
}
