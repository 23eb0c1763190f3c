package writer

import (
	"time"
)

// ArchiveConfig contains configuration for the tick archive.
type ArchiveConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultArchiveConfig returns sensible defaults.
func DefaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		BatchSize:     100,
		FlushInterval: time.Second,
	}
}

// tickRow represents a row to be inserted into the tick_snapshots table.
type tickRow struct {
	Game               string
	TimeSlot           int
	TimeInstanceMicros int64  // Microseconds
	Payload            []byte // JSONB: the raw tick deltas
}

// ArchiveMetrics holds metrics for the archive.
type ArchiveMetrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
	Skipped   int64
}
