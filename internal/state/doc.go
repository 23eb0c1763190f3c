// Package state implements the reconciliation engine.
//
// The Reconciler consumes decoded envelopes from the transport stream and
// maintains the canonical model.Snapshot for the current game: roster and
// competition metadata replaced wholesale on INIT, per-tick deltas folded
// into running accumulators and graph series on DATA, status updates on
// INFO. Envelopes tagged for another game are parked in a bounded backlog
// and replayed, in arrival order, when a matching INIT arrives.
//
// The Reconciler is the snapshot's only writer; each envelope is handled to
// completion before the next. Concurrent readers (gates, health endpoints,
// renderers) are serialized against it with a read-write lock.
package state
