package state

import "github.com/powertac/simviewer/internal/envelope"

// backlog holds envelopes for games not yet initialized locally, in strict
// arrival order. It is owned by the Reconciler and only touched under its
// write lock, so it needs no locking of its own.
//
// The backlog is bounded: if a stale game never gets reinitialized the
// oldest entries are evicted rather than growing without limit.
type backlog struct {
	limit int
	items []envelope.Envelope
}

func newBacklog(limit int) *backlog {
	if limit < 1 {
		limit = 1
	}
	return &backlog{limit: limit}
}

// add appends an envelope, evicting the oldest entry when full. Reports
// whether an eviction happened.
func (b *backlog) add(env envelope.Envelope) (evicted bool) {
	if len(b.items) >= b.limit {
		copy(b.items, b.items[1:])
		b.items[len(b.items)-1] = env
		return true
	}
	b.items = append(b.items, env)
	return false
}

// drain empties the backlog and returns its contents in arrival order.
func (b *backlog) drain() []envelope.Envelope {
	items := b.items
	b.items = nil
	return items
}

func (b *backlog) len() int {
	return len(b.items)
}
