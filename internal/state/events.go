package state

import (
	"time"

	"github.com/powertac/simviewer/internal/envelope"
	"github.com/powertac/simviewer/internal/model"
)

// EventKind tags a Reconciler event.
type EventKind string

const (
	// EventGameInitialized fires once the INIT payload itself (roster,
	// competition, bundled snapshots) has been applied, before queued
	// envelopes replay. Consumers rebuild anything bound to the roster.
	EventGameInitialized EventKind = "game_initialized"

	// EventTickApplied fires once per applied timeslot.
	EventTickApplied EventKind = "tick_applied"

	// EventStatusChanged fires on INFO updates and connectivity changes.
	EventStatusChanged EventKind = "status_changed"
)

// Event is one Reconciler notification.
type Event struct {
	Kind         EventKind
	Game         string
	TimeSlot     int
	TimeInstance time.Time
	Status       model.GameStatus
	Tick         *envelope.Tick // set for EventTickApplied
}

type subscriber struct {
	name string
	ch   chan Event
}

// Subscribe registers a named listener. Each subscriber gets its own
// buffered channel; a slow subscriber loses its oldest events rather than
// stalling the engine.
func (r *Reconciler) Subscribe(name string) <-chan Event {
	ch := make(chan Event, r.cfg.EventBuffer)

	r.subsMu.Lock()
	r.subs = append(r.subs, subscriber{name: name, ch: ch})
	r.subsMu.Unlock()

	return ch
}

// publish fans an event out to every subscriber, non-blocking. Called with
// r.mu held (stats are covered by it).
func (r *Reconciler) publish(event Event) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	for _, sub := range r.subs {
		select {
		case sub.ch <- event:
		default:
			// Full: drop the oldest and retry once.
			select {
			case <-sub.ch:
				r.stats.EventsDropped++
				r.logger.Debug("subscriber lagging, dropped oldest event", "subscriber", sub.name)
			default:
			}
			select {
			case sub.ch <- event:
			default:
			}
		}
	}
}

func (r *Reconciler) closeSubscribers() {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()

	for _, sub := range r.subs {
		close(sub.ch)
	}
	r.subs = nil
}
