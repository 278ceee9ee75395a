package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/pipebuilder/pkg/cache"
	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/render/nodelink"
)

func TestResolveOutput(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		opts       renderOpts
		wantPath   string
		wantFormat string
		wantErr    bool
	}{
		{"default svg next to input", "flow.json", renderOpts{}, "flow.svg", "svg", false},
		{"format from extension", "flow.json", renderOpts{output: "out.png"}, "out.png", "png", false},
		{"explicit format wins", "flow.json", renderOpts{output: "out.txt", format: "DOT"}, "out.txt", "dot", false},
		{"format without output", "dir/flow.yaml", renderOpts{format: "png"}, "dir/flow.png", "png", false},
		{"unsupported extension", "flow.json", renderOpts{output: "out.pdf"}, "", "", true},
		{"unsupported format", "flow.json", renderOpts{format: "gif"}, "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, format, err := resolveOutput(tt.input, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveOutput() error = %v, wantErr %v", err, tt.wantErr)
			}
			if path != tt.wantPath || format != tt.wantFormat {
				t.Errorf("resolveOutput() = (%q, %q), want (%q, %q)", path, format, tt.wantPath, tt.wantFormat)
			}
		})
	}
}

func TestRenderCached(t *testing.T) {
	ctx := context.Background()
	fc, err := cache.NewFileCache(t.TempDir())
	require.NoError(t, err)

	snap := graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "customInput-1", Type: "customInput", Position: graph.Position{X: 0, Y: 0}},
			{ID: "llm-1", Type: "llm", Position: graph.Position{X: 100, Y: 0}},
		},
		Edges: []graph.Edge{{
			ID: "customInput-1:value->llm-1:prompt", Source: "customInput-1", SourceHandle: "value",
			Target: "llm-1", TargetHandle: "prompt",
		}},
	}
	keyer := cache.NewDefaultKeyer()
	opts := nodelink.Options{Direction: nodelink.DirectionLR}

	first, cached, err := renderCached(ctx, fc, keyer, snap, nodelink.FormatDOT, opts)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Contains(t, string(first), `"customInput-1" -> "llm-1"`)

	second, cached, err := renderCached(ctx, fc, keyer, snap, nodelink.FormatDOT, opts)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, first, second)

	opts.Direction = nodelink.DirectionTB
	_, cached, err = renderCached(ctx, fc, keyer, snap, nodelink.FormatDOT, opts)
	require.NoError(t, err)
	assert.False(t, cached, "a different direction must not hit the cache")
}
