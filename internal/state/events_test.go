package state

import (
	"testing"
	"time"

	"github.com/powertac/simviewer/internal/envelope"
	"github.com/powertac/simviewer/internal/model"
)

func nextEvent(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case event := <-ch:
		return event
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
		return Event{}
	}
}

func TestReconciler_PublishesEvents(t *testing.T) {
	r := newTestReconciler()
	ch := r.Subscribe("test")

	r.Handle(initEnv("g", envelope.InitPayload{
		Brokers: []envelope.BrokerInit{{ID: 1, Name: "B1"}},
	}))

	event := nextEvent(t, ch)
	if event.Kind != EventGameInitialized {
		t.Errorf("Kind = %q, want %q", event.Kind, EventGameInitialized)
	}
	if event.Game != "g" {
		t.Errorf("Game = %q, want %q", event.Game, "g")
	}

	r.Handle(dataEnv("g", envelope.Tick{
		TimeSlot:     360,
		TimeInstance: time.UnixMilli(1256515200000).UTC(),
		Brokers:      []envelope.BrokerTick{{ID: 1, Cash: 7}},
	}))

	event = nextEvent(t, ch)
	if event.Kind != EventTickApplied {
		t.Errorf("Kind = %q, want %q", event.Kind, EventTickApplied)
	}
	if event.TimeSlot != 360 {
		t.Errorf("TimeSlot = %d, want 360", event.TimeSlot)
	}
	if event.Tick == nil || len(event.Tick.Brokers) != 1 {
		t.Error("tick event is missing its payload")
	}

	r.Handle(infoEnv("g", model.StatusFinished))

	event = nextEvent(t, ch)
	if event.Kind != EventStatusChanged {
		t.Errorf("Kind = %q, want %q", event.Kind, EventStatusChanged)
	}
	if event.Status != model.StatusFinished {
		t.Errorf("Status = %q, want FINISHED", event.Status)
	}
}

// The init event announces the new roster before queued envelopes replay,
// so subscribers see GameInitialized first and the replayed ticks after it.
func TestReconciler_InitEventPrecedesReplayedTicks(t *testing.T) {
	r := newTestReconciler()
	ch := r.Subscribe("test")

	// Queued before the game is known
	r.Handle(dataEnv("g", envelope.Tick{
		TimeSlot: 360,
		Brokers:  []envelope.BrokerTick{{ID: 1, Cash: 10}},
	}))

	r.Handle(initEnv("g", envelope.InitPayload{
		Brokers: []envelope.BrokerInit{{ID: 1, Name: "B1"}},
	}))

	event := nextEvent(t, ch)
	if event.Kind != EventGameInitialized {
		t.Fatalf("first event Kind = %q, want %q", event.Kind, EventGameInitialized)
	}

	event = nextEvent(t, ch)
	if event.Kind != EventTickApplied {
		t.Fatalf("second event Kind = %q, want %q", event.Kind, EventTickApplied)
	}
	if event.TimeSlot != 360 {
		t.Errorf("replayed TimeSlot = %d, want 360", event.TimeSlot)
	}
}

// A lagging subscriber loses oldest events; it never stalls the engine.
func TestReconciler_SlowSubscriberDropsOldest(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EventBuffer = 1
	r := NewReconciler(cfg, nil, nil, nil)

	ch := r.Subscribe("slow")

	r.Handle(initEnv("g", envelope.InitPayload{
		Brokers: []envelope.BrokerInit{{ID: 1, Name: "B1"}},
	}))
	for slot := 360; slot < 363; slot++ {
		r.Handle(dataEnv("g", envelope.Tick{
			TimeSlot: slot,
			Brokers:  []envelope.BrokerTick{{ID: 1}},
		}))
	}

	// Only the newest event survives in the size-1 buffer
	event := nextEvent(t, ch)
	if event.Kind != EventTickApplied || event.TimeSlot != 362 {
		t.Errorf("surviving event = %+v, want tick 362", event)
	}

	if got := r.Stats().EventsDropped; got != 3 {
		t.Errorf("EventsDropped = %d, want 3", got)
	}
}
