// Package engine owns the venue registry and serializes every mutation.
//
// Owner operations and reconciliation ticks all go through Engine.mutate,
// which holds the venue's lock while the state machine runs, the
// auto-transition index is updated and the persistence snapshot is queued.
// Transition events are appended to a per-venue outbox under the same lock
// and drained to the dispatcher afterwards under a separate dispatch lock, so
// one venue's events reach the dispatcher in commit order and no I/O happens
// while the state lock is held.
package engine
