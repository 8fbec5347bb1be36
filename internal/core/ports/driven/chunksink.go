package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
)

// Throughput is a running byte counter for one record.
type Throughput struct {
	Bytes   int64
	Elapsed time.Duration
}

// KBPerSecond returns the processing rate, zero when no time has elapsed.
func (t Throughput) KBPerSecond() float64 {
	if t.Elapsed <= 0 {
		return 0
	}
	return float64(t.Bytes) / 1024 / t.Elapsed.Seconds()
}

// ChunkSink receives the chunks of each processed record.
// Sinks are presentation or output only; they never alter chunks.
type ChunkSink interface {
	// Begin announces a normalised record and the number of chunks that follow.
	Begin(ctx context.Context, doc *domain.Document, chunkCount int) error

	// Chunk is called once per chunk, in order.
	Chunk(ctx context.Context, c domain.Chunk, progress Throughput) error

	// End closes the record.
	End(ctx context.Context, set domain.ChunkSet, progress Throughput) error

	// Commit publishes everything written so far. It is called once, after
	// the last record of a unit succeeded.
	Commit() error

	// Close releases the sink. Output that was not committed is discarded
	// and any previous output stays in place.
	Close() error
}

// ChunkSinkFactory opens a chunk sink for one job unit.
type ChunkSinkFactory interface {
	OpenChunkSink(ctx context.Context, unit domain.JobUnit, mode domain.ChunkMode) (ChunkSink, error)
}
