package state

import "github.com/powertac/simviewer/internal/model"

// Gate decides whether a consumer may skip redrawing a series this cycle.
//
// Each consumer holds its own Gate: the engine bumps a per-series version on
// every applied tick, and the gate remembers the last version this consumer
// rendered. That keeps skip decisions independent across consumers instead
// of first-reader-wins on a shared dirty flag.
//
// A Gate is meant for one consumer goroutine; it is not safe for concurrent
// use.
type Gate struct {
	r    *Reconciler
	seen map[model.GraphKey]uint64
}

// NewGate returns a fresh gate; its first check of any key reports "render".
func (r *Reconciler) NewGate() *Gate {
	return &Gate{
		r:    r,
		seen: make(map[model.GraphKey]uint64),
	}
}

// ShouldSkip reports whether the series keyed key is unchanged since this
// gate last saw it. A series with no data yet is never skipped, so the first
// paint always happens. Returning false marks the current version as seen.
func (g *Gate) ShouldSkip(key model.GraphKey) bool {
	g.r.mu.RLock()
	version := g.r.versions[key]
	hasData := len(g.r.snap.TimeInstances) > 0
	g.r.mu.RUnlock()

	if !hasData {
		return false
	}
	if seen, ok := g.seen[key]; ok && seen == version {
		return true
	}
	g.seen[key] = version
	return false
}
