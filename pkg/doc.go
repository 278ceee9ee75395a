// Package pkg provides the core libraries of pipebuilder, a node-based
// pipeline editor.
//
// # Overview
//
// A pipeline is a set of nodes placed from a palette of templates and wired
// port to port. The editor core keeps that graph consistent, wires freshly
// placed nodes to their nearest neighbour, and submits the result to a
// validation service that reports counts and whether the graph is acyclic.
//
// The packages fall into four groups:
//
//  1. Domain: [registry] (node templates), [identity] (node ids), [store]
//     (the graph and its observers), [autoconnect] and [controller] (user
//     intents)
//  2. Wire formats: [graph] (snapshots, summaries, hashing) and [dag]
//     (acyclicity and ordering)
//  3. Service: [submit] (client, runner, notices) and [server] (the
//     validation endpoint)
//  4. Infrastructure: [cache], [persist], [httputil], [observability],
//     [errors], [buildinfo] and [render/nodelink]
//
// # Data Flow
//
//	palette drop / touch / drag
//	         ↓
//	    [controller] (screen → canvas, auto-connect)
//	         ↓
//	    [store] (nodes, edges, selection; events to observers)
//	         ↓
//	    [graph.Snapshot]
//	         ↓
//	    [submit] → POST /pipelines/parse → [server] → {num_nodes, num_edges, is_dag}
//
// # Quick Start
//
//	s := store.New(registry.Builtin())
//	ctrl := controller.New(s)
//
//	ctrl.Dispatch(controller.Drop{Payload: controller.Payload("customInput"), Client: store.Position{X: 100, Y: 100}})
//	ctrl.Dispatch(controller.Drop{Payload: controller.Payload("llm"), Client: store.Position{X: 250, Y: 100}})
//
//	fmt.Println(graph.Summary(s.Snapshot()))
//
// The two nodes are 150 units apart, so the second drop also creates the
// edge customInput-1:value->llm-1:system.
package pkg
