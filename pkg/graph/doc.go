// Package graph provides the serialization types for pipeline snapshots.
//
// This package defines the canonical wire format for a pipeline: the shape
// sent to the validation service, written to snapshot files, persisted as the
// last submitted pipeline and hashed for cache keys.
//
// # Core Types
//
//   - [Snapshot]: ordered nodes and edges of a pipeline
//   - [Node]: id, kind ("type"), canvas position and parameters ("data")
//   - [Edge]: source/target node ids plus the port ("handle") on each side
//   - [Position]: canvas coordinates
//
// # Wire Format
//
//	{
//	  "nodes": [
//	    {"id": "customInput-1", "type": "customInput", "position": {"x": 0, "y": 0},
//	     "data": {"id": "customInput-1", "nodeType": "customInput", "inputName": "input"}}
//	  ],
//	  "edges": [
//	    {"id": "customInput-1:value->llm-1:system", "source": "customInput-1",
//	     "sourceHandle": "value", "target": "llm-1", "targetHandle": "system"}
//	  ]
//	}
//
// Common operations:
//
//	s, _ := graph.ReadSnapshotFile("pipeline.json")   // File → Snapshot (JSON or YAML)
//	graph.WriteSnapshotFile(s, "pipeline.yaml")       // Snapshot → File
//	data, _ := graph.MarshalSnapshot(s)                // Snapshot → []byte
//	fmt.Println(graph.Summary(s))                      // Human-readable listing
//
// # Concurrency
//
// All functions are safe for concurrent reads but not concurrent writes.
package graph
