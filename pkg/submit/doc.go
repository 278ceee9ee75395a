// Package submit sends pipeline snapshots to the validation service.
//
// [Client] speaks the service's HTTP protocol. [Runner] wraps it with the
// editor behavior around a submission: the empty-pipeline guard, result
// caching by snapshot hash, best-effort persistence of the last result, and
// a user-facing [Notice] for every outcome.
//
// Remote failures never touch the graph store. The runner only ever reads a
// snapshot taken at call time, so editing continues while a submission is in
// flight and a failed or timed-out call leaves local state as it was.
package submit
