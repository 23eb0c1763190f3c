package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/powertac/simviewer/internal/connection"
	"github.com/powertac/simviewer/internal/envelope"
	"github.com/powertac/simviewer/internal/model"
)

// Config holds reconciliation engine settings.
type Config struct {
	BacklogLimit int // max out-of-game envelopes held for replay
	EventBuffer  int // per-subscriber event channel capacity
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BacklogLimit: 1000,
		EventBuffer:  64,
	}
}

// ReconcilerStats are runtime counters for the engine.
type ReconcilerStats struct {
	EnvelopesHandled int64
	DecodeErrors     int64
	TicksApplied     int64
	Queued           int64
	Replayed         int64
	Discarded        int64
	Evicted          int64
	UnknownBrokers   int64
	UnknownCustomers int64
	EventsDropped    int64
}

// Reconciler folds the inbound envelope stream into a Snapshot.
type Reconciler struct {
	cfg    Config
	logger *slog.Logger

	input  <-chan connection.RawMessage
	status <-chan bool

	// mu serializes the single writer (the run loop) against readers.
	mu       sync.RWMutex
	snap     *model.Snapshot
	versions map[model.GraphKey]uint64
	backlog  *backlog
	stats    ReconcilerStats

	subsMu sync.Mutex
	subs   []subscriber

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReconciler creates an engine over the given streams. The engine owns
// its Snapshot; nothing else may mutate it.
func NewReconciler(cfg Config, input <-chan connection.RawMessage, status <-chan bool, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}

	versions := make(map[model.GraphKey]uint64)
	for _, key := range model.BrokerSeriesKeys() {
		versions[key] = 0
	}

	return &Reconciler{
		cfg:      cfg,
		logger:   logger,
		input:    input,
		status:   status,
		snap:     model.NewSnapshot(),
		versions: versions,
		backlog:  newBacklog(cfg.BacklogLimit),
	}
}

// Start begins consuming the input streams.
func (r *Reconciler) Start(ctx context.Context) error {
	r.ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(1)
	go r.run()

	r.logger.Info("reconciler started", "backlog_limit", r.cfg.BacklogLimit)
	return nil
}

// Stop shuts the engine down.
func (r *Reconciler) Stop(ctx context.Context) error {
	if r.cancel != nil {
		r.cancel()
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.logger.Info("reconciler stopped")
	case <-ctx.Done():
		r.logger.Warn("reconciler stop timed out")
	}

	r.closeSubscribers()
	return nil
}

// View runs fn with read access to the snapshot. The snapshot must not be
// retained or mutated by fn.
func (r *Reconciler) View(fn func(*model.Snapshot)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn(r.snap)
}

// Stats returns current counters.
func (r *Reconciler) Stats() ReconcilerStats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.stats
}

// Handle processes one decoded envelope to completion.
func (r *Reconciler) Handle(env envelope.Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handleLocked(env)
}

// run is the single-writer loop: every mutation of the snapshot happens
// here, one envelope at a time.
func (r *Reconciler) run() {
	defer r.wg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return

		case connected, ok := <-r.status:
			if !ok {
				return
			}
			r.mu.Lock()
			r.setConnected(connected)
			r.mu.Unlock()

		case msg, ok := <-r.input:
			if !ok {
				r.logger.Info("input stream closed")
				return
			}
			env, err := envelope.Decode(msg.Data)
			if err != nil {
				// A malformed frame must not kill the stream.
				r.logger.Warn("dropping undecodable frame", "error", err, "len", len(msg.Data))
				r.mu.Lock()
				r.stats.DecodeErrors++
				r.mu.Unlock()
				continue
			}
			r.Handle(env)
		}
	}
}

func (r *Reconciler) handleLocked(env envelope.Envelope) {
	r.stats.EnvelopesHandled++

	if env.Type == envelope.TypeInit {
		r.initGame(env)
		return
	}

	if env.Game != r.snap.GameName {
		if r.backlog.add(env) {
			r.stats.Evicted++
			r.logger.Warn("backlog full, evicted oldest", "game", env.Game)
		}
		r.stats.Queued++
		r.logger.Debug("queued out-of-game envelope", "type", env.Type, "game", env.Game)
		return
	}

	switch env.Type {
	case envelope.TypeInfo:
		r.setStatus(env.Status)
		r.publish(Event{Kind: EventStatusChanged, Game: r.snap.GameName, Status: env.Status})

	case envelope.TypeData:
		r.applyTick(*env.Tick)
		r.publish(Event{
			Kind:         EventTickApplied,
			Game:         r.snap.GameName,
			TimeSlot:     env.Tick.TimeSlot,
			TimeInstance: env.Tick.TimeInstance,
			Tick:         env.Tick,
		})
	}
}

// initGame replaces the whole session: prior broker, customer, and
// competition state for any earlier game is discarded, never merged.
func (r *Reconciler) initGame(env envelope.Envelope) {
	init := env.Init

	r.snap.GameName = env.Game
	r.snap.TimeInstances = nil
	r.snap.LastTimeSlot = 0
	r.setStatus(init.State)

	comp := init.Competition
	r.snap.Competition = &comp

	r.processBrokers(init.Brokers)
	r.processCustomers(init.Customers)

	for _, tick := range init.Snapshots {
		r.applyTick(tick)
	}

	r.logger.Info("game initialized",
		"game", env.Game,
		"brokers", len(r.snap.BrokerOrder),
		"customers", len(r.snap.Customers),
		"aggregates", len(r.snap.AggCustomers),
		"replayed_ticks", len(init.Snapshots),
	)

	r.publish(Event{Kind: EventGameInitialized, Game: env.Game, Status: r.snap.GameStatus})

	// Replay envelopes that arrived before this game was known, in their
	// original order. Envelopes for other games are abandoned.
	for _, queued := range r.backlog.drain() {
		if queued.Game == r.snap.GameName {
			r.stats.Replayed++
			r.handleLocked(queued)
		} else {
			r.stats.Discarded++
			r.logger.Debug("discarding stale envelope", "type", queued.Type, "game", queued.Game)
		}
	}
}

// setStatus records the game status and its display severity.
func (r *Reconciler) setStatus(status model.GameStatus) {
	r.snap.GameStatus = status
	r.snap.StatusSeverity = status.Severity()
}

// setConnected reflects connectivity changes as a status: loss shows as
// OFFLINE, recovery restores the last real status.
func (r *Reconciler) setConnected(connected bool) {
	if connected {
		r.setStatus(r.snap.PreviousStatus)
	} else {
		r.snap.PreviousStatus = r.snap.GameStatus
		r.setStatus(model.StatusOffline)
	}
	r.publish(Event{Kind: EventStatusChanged, Game: r.snap.GameName, Status: r.snap.GameStatus})
}
