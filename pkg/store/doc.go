// Package store holds the authoritative state of a pipeline being edited.
//
// # Overview
//
// A [Store] owns the nodes, the edges and the current selection. Every
// mutation goes through one of its methods and is serialized by a single
// writer lock, so the following invariants hold after each call:
//
//  1. Every edge references existing nodes and ports those nodes declare.
//  2. Node ids are unique and never reissued within a session.
//  3. Deleting a node removes every edge that touches it.
//  4. The selection only contains ids of existing nodes and edges.
//
// [Store.Check] verifies them and is used heavily by tests.
//
// # Identity
//
// Node ids come from an [identity.Allocator]: "<kind>-<n>" with a per-kind
// counter that only [Store.ClearAll] resets. Edge ids are a pure function of
// the connection four-tuple (see [EdgeID]), which makes [Store.Connect]
// idempotent.
//
// # Stale Ids
//
// Updates, moves and single deletions that name a node which no longer
// exists are silent no-ops: they are expected races between delayed UI
// callbacks and deletions. Structural violations, such as connecting to a
// missing port, are returned as errors and never mutate state.
//
// # Observers
//
// [Store.Subscribe] registers a callback that receives an [Event] after each
// committed mutation. Callbacks run after the lock is released, on the
// goroutine that performed the mutation, so they may read the store.
package store
