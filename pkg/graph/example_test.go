package graph_test

import (
	"bytes"
	"fmt"

	"github.com/matzehuels/pipebuilder/pkg/graph"
)

func ExampleWriteSnapshot() {
	s := graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "merge-1", Type: "merge", Position: graph.Position{X: 10, Y: 20}, Data: map[string]any{"id": "merge-1"}},
		},
	}

	var buf bytes.Buffer
	if err := graph.WriteSnapshot(s, &buf); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Print(buf.String())
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "merge-1",
	//       "type": "merge",
	//       "position": {
	//         "x": 10,
	//         "y": 20
	//       },
	//       "data": {
	//         "id": "merge-1"
	//       }
	//     }
	//   ],
	//   "edges": []
	// }
}

func ExampleSummary() {
	s := graph.Snapshot{
		Nodes: []graph.Node{
			{ID: "math-1", Type: "math", Data: map[string]any{"operand": "10"}},
			{ID: "customOutput-1", Type: "customOutput"},
		},
		Edges: []graph.Edge{
			{Source: "math-1", SourceHandle: "sum", Target: "customOutput-1", TargetHandle: "value"},
		},
	}
	fmt.Println(graph.Summary(s))
	// Output:
	// Pipeline summary
	// Nodes (2)
	// - math-1 (math) | operand: 10
	// - customOutput-1 (customOutput)
	//
	// Edges (1)
	// - math-1:sum -> customOutput-1:value
}
