package nodelink_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/matzehuels/pipebuilder/pkg/graph"
	"github.com/matzehuels/pipebuilder/pkg/render/nodelink"
)

func ExampleToDOT() {
	snap := graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "text-1", Type: "text"},
			{ID: "llm-1", Type: "llm"},
		},
		Edges: []graph.Edge{
			{Source: "text-1", SourceHandle: "text-1-output", Target: "llm-1", TargetHandle: "prompt"},
		},
	}

	dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: true})
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "text-1" -> "llm-1" [label="text-1-output → prompt"];
}

func ExampleRenderSVG() {
	dot := `digraph G { "customInput-1" -> "llm-1"; }`

	svg, err := nodelink.RenderSVG(context.Background(), dot)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println(strings.Contains(string(svg), "<svg"))
	// Output: true
}
