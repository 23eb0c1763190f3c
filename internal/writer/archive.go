package writer

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/powertac/simviewer/internal/state"
)

// TickArchive consumes engine events and batch-writes applied ticks.
type TickArchive struct {
	cfg    ArchiveConfig
	logger *slog.Logger

	// Input from the reconciliation engine
	events <-chan state.Event

	// Database
	db *pgxpool.Pool

	// Batching
	batch       []tickRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics ArchiveMetrics
}

// NewTickArchive creates an archive over an engine event stream.
func NewTickArchive(cfg ArchiveConfig, events <-chan state.Event, db *pgxpool.Pool, logger *slog.Logger) *TickArchive {
	if logger == nil {
		logger = slog.Default()
	}
	return &TickArchive{
		cfg:    cfg,
		logger: logger,
		events: events,
		db:     db,
		batch:  make([]tickRow, 0, cfg.BatchSize),
	}
}

// Start begins consuming events and writing batches.
func (a *TickArchive) Start(ctx context.Context) error {
	a.ctx, a.cancel = context.WithCancel(ctx)
	a.flushTicker = time.NewTicker(a.cfg.FlushInterval)

	a.wg.Add(1)
	go a.consumeLoop()

	a.wg.Add(1)
	go a.flushLoop()

	a.logger.Info("tick archive started",
		"batch_size", a.cfg.BatchSize,
		"flush_interval", a.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the archive, flushing what remains.
func (a *TickArchive) Stop(ctx context.Context) error {
	a.logger.Info("stopping tick archive")

	if a.cancel != nil {
		a.cancel()
	}
	if a.flushTicker != nil {
		a.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.logger.Info("tick archive stopped")
	case <-ctx.Done():
		a.logger.Warn("tick archive stop timed out")
	}

	a.flush()
	return nil
}

// Stats returns current metrics.
func (a *TickArchive) Stats() ArchiveMetrics {
	a.batchMu.Lock()
	defer a.batchMu.Unlock()
	return a.metrics
}

func (a *TickArchive) consumeLoop() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case event, ok := <-a.events:
			if !ok {
				return
			}
			a.handleEvent(event)
		}
	}
}

func (a *TickArchive) flushLoop() {
	defer a.wg.Done()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-a.flushTicker.C:
			a.flush()
		}
	}
}

// handleEvent batches tick events; everything else is ignored.
func (a *TickArchive) handleEvent(event state.Event) {
	if event.Kind != state.EventTickApplied || event.Tick == nil {
		return
	}

	row, err := a.transform(event)
	if err != nil {
		a.batchMu.Lock()
		a.metrics.Skipped++
		a.batchMu.Unlock()
		a.logger.Warn("skipping unencodable tick", "time_slot", event.TimeSlot, "error", err)
		return
	}

	a.batchMu.Lock()
	a.batch = append(a.batch, row)
	shouldFlush := len(a.batch) >= a.cfg.BatchSize
	a.batchMu.Unlock()

	if shouldFlush {
		a.flush()
	}
}

// transform converts a tick event to an archive row.
func (a *TickArchive) transform(event state.Event) (tickRow, error) {
	payload, err := json.Marshal(event.Tick)
	if err != nil {
		return tickRow{}, err
	}
	return tickRow{
		Game:               event.Game,
		TimeSlot:           event.TimeSlot,
		TimeInstanceMicros: event.TimeInstance.UnixMicro(),
		Payload:            payload,
	}, nil
}

// flush writes the current batch to the database.
func (a *TickArchive) flush() {
	a.batchMu.Lock()
	if len(a.batch) == 0 {
		a.batchMu.Unlock()
		return
	}
	batch := a.batch
	a.batch = make([]tickRow, 0, a.cfg.BatchSize)
	a.batchMu.Unlock()

	start := time.Now()

	conflicts, err := a.batchInsert(batch)
	if err != nil {
		a.logger.Error("batch insert failed", "error", err, "count", len(batch))
		a.batchMu.Lock()
		a.metrics.Errors++
		a.batchMu.Unlock()
		return
	}

	a.batchMu.Lock()
	a.metrics.Inserts += int64(len(batch) - conflicts)
	a.metrics.Conflicts += int64(conflicts)
	a.metrics.Flushes++
	a.batchMu.Unlock()

	a.logger.Debug("flushed ticks",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (a *TickArchive) batchInsert(rows []tickRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO tick_snapshots (game, time_slot, time_instance, payload)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (game, time_slot) DO NOTHING
		`, r.Game, r.TimeSlot, r.TimeInstanceMicros, r.Payload)
	}

	// Stop's final flush runs after cancel, so a.ctx is unusable here.
	results := a.db.SendBatch(context.Background(), batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
