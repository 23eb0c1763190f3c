// Package model defines the shared data types for the simulation viewer.
//
// The root aggregate is Snapshot: the derived in-memory picture of one
// running game, owned and mutated exclusively by the state.Reconciler.
//
// Conventions:
//   - Monetary and energy values: float64, no rounding (formatting is a
//     rendering concern)
//   - Timestamps: time.Time, decoded from millisecond wire values
//   - Graph series: []float64 aligned index-for-index with Snapshot.TimeInstances
//   - Missing price samples: NoValue (NaN), never zero
package model
