package driving

import (
	"context"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
)

// JobRunner processes one job unit in a failure-isolated context.
type JobRunner interface {
	// Run processes every matching record of the unit and returns exactly
	// one outcome. It never panics and never returns a partial outcome.
	Run(ctx context.Context, unit domain.JobUnit) domain.JobOutcome
}

// BatchRequest describes which input files to process and how.
type BatchRequest struct {
	// InputDir is searched for wikipedia_en_part_<N>.parquet files.
	InputDir string

	// OutputDir receives per-unit storage and chunk files. Empty means
	// the current directory for storage and no chunk files.
	OutputDir string

	// StartFrom drops units with a part number below it.
	StartFrom int

	// MaxFiles caps the number of units after StartFrom. Zero means no cap.
	MaxFiles int

	// ChunkSize is the chunk byte limit for chunk mode.
	ChunkSize int

	// ExtractInfobox selects field-extraction mode.
	ExtractInfobox bool

	// ExtractLinkGraph selects link-graph mode.
	ExtractLinkGraph bool

	// PageMetaDB is used by link-graph mode to resolve target ids.
	PageMetaDB string
}

// BatchPlan is the filtered, ordered list of units to dispatch.
type BatchPlan struct {
	// Discovered is the number of matching files before filtering.
	Discovered int

	// Units are the units to run, sorted by part number.
	Units []domain.JobUnit
}

// BatchObserver receives presentation events from the collecting loop.
// All calls happen on a single goroutine.
type BatchObserver interface {
	// UnitDone is called once per collected outcome; done counts it.
	UnitDone(outcome domain.JobOutcome, done, total int)

	// Progress is called every N completions.
	Progress(p domain.BatchProgress)

	// Finished is called once with the final tally.
	Finished(s domain.BatchSummary)
}

// BatchOrchestrator plans and runs a batch of job units.
type BatchOrchestrator interface {
	// Plan discovers, sorts and filters the input units.
	Plan(ctx context.Context, req BatchRequest) (*BatchPlan, error)

	// Run dispatches the planned units to the worker pool and collects outcomes.
	// It returns domain.ErrBatchFailed when any unit failed and
	// domain.ErrInterrupted when ctx was cancelled.
	Run(ctx context.Context, plan *BatchPlan, obs BatchObserver) (domain.BatchSummary, error)
}
