package nodelink

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/registry"
)

func sample() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "customInput-1", Type: "customInput", Data: map[string]any{"id": "customInput-1", "nodeType": "customInput", "inputName": "question"}},
			{ID: "llm-1", Type: "llm", Position: graph.Position{X: 200}, Data: map[string]any{"id": "llm-1", "nodeType": "llm", "model": "gpt-4"}},
		},
		Edges: []graph.Edge{
			{ID: "customInput-1:value->llm-1:system", Source: "customInput-1", SourceHandle: "value", Target: "llm-1", TargetHandle: "system"},
		},
	}
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(sample(), Options{})

	for _, want := range []string{"digraph G", "rankdir=LR", `"customInput-1"`, `"llm-1"`, `"customInput-1" -> "llm-1";`} {
		if !strings.Contains(dot, want) {
			t.Errorf("ToDOT() output missing %q", want)
		}
	}
	if strings.Contains(dot, "→") {
		t.Error("ToDOT() plain output should not label edges")
	}
}

func TestToDOT_Direction(t *testing.T) {
	tests := []struct {
		dir  string
		want string
	}{
		{"", "rankdir=LR"},
		{DirectionLR, "rankdir=LR"},
		{DirectionTB, "rankdir=TB"},
		{"sideways", "rankdir=LR"},
	}
	for _, tt := range tests {
		if dot := ToDOT(sample(), Options{Direction: tt.dir}); !strings.Contains(dot, tt.want) {
			t.Errorf("ToDOT(Direction=%q) missing %q", tt.dir, tt.want)
		}
	}
}

func TestToDOT_Detailed(t *testing.T) {
	dot := ToDOT(sample(), Options{Detailed: true})

	if !strings.Contains(dot, "model: gpt-4") {
		t.Error("ToDOT() detailed output missing parameters")
	}
	if strings.Contains(dot, "nodeType:") {
		t.Error("ToDOT() detailed output should skip nodeType")
	}
	if !strings.Contains(dot, `[label="value → system"]`) {
		t.Error("ToDOT() detailed output missing edge port label")
	}
}

func TestToDOT_Registry(t *testing.T) {
	s := sample()
	s.Nodes = append(s.Nodes, graph.Node{ID: "ghost-1", Type: "ghost"})
	dot := ToDOT(s, Options{Registry: registry.Builtin()})

	if !strings.Contains(dot, `label="LLM\nllm-1"`) {
		t.Errorf("ToDOT() missing template title in:\n%s", dot)
	}
	if !strings.Contains(dot, `color="#6366f1"`) {
		t.Error("ToDOT() missing accent color")
	}
	if !strings.Contains(dot, "dashed") {
		t.Error("ToDOT() unknown kind should be dashed")
	}
}

func TestFmtLabel_DetailLimit(t *testing.T) {
	n := graph.Node{ID: "x-1", Type: "x", Data: map[string]any{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5}}
	label := fmtLabel(n, Options{Detailed: true})
	if strings.Contains(label, "e: 5") {
		t.Errorf("fmtLabel() = %q, want at most %d parameters", label, detailLimit)
	}
	if !strings.Contains(label, "a: 1") {
		t.Errorf("fmtLabel() = %q, want sorted parameters", label)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	tests := []struct {
		name string
		svg  string
		want string
	}{
		{
			name: "with viewBox",
			svg:  `<svg viewBox="10 20 800 600" xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 800.00 600.00" width="800" height="600">content</svg>`,
		},
		{
			name: "no viewBox",
			svg:  `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
			want: `<svg xmlns="http://www.w3.org/2000/svg">content</svg>`,
		},
		{
			name: "zero dimensions",
			svg:  `<svg viewBox="0 0 0 0">content</svg>`,
			want: `<svg viewBox="0 0 0 0">content</svg>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeViewBox([]byte(tt.svg))
			if string(got) != tt.want {
				t.Errorf("normalizeViewBox() = %q, want %q", string(got), tt.want)
			}
		})
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sample(), Options{Registry: registry.Builtin()}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("RenderSVG() output missing <svg> tag")
	}
}

func TestRenderSVG_InvalidDOT(t *testing.T) {
	if _, err := RenderSVG(context.Background(), `not valid DOT {{{`); err == nil {
		t.Error("RenderSVG() should return error for invalid DOT")
	}
}

func TestRender_Formats(t *testing.T) {
	ctx := context.Background()

	dot, err := Render(ctx, sample(), FormatDOT, Options{})
	if err != nil {
		t.Fatalf("Render(dot) error: %v", err)
	}
	if !strings.HasPrefix(string(dot), "digraph G") {
		t.Errorf("Render(dot) = %q", dot)
	}

	png, err := Render(ctx, sample(), FormatPNG, Options{})
	if err != nil {
		t.Fatalf("Render(png) error: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("Render(png) output is not a PNG")
	}

	if _, err := Render(ctx, sample(), "pdf", Options{}); err == nil {
		t.Error("Render(pdf) should fail")
	}
	if IsFormat("pdf") || !IsFormat(FormatSVG) {
		t.Error("IsFormat() mismatch")
	}
}
