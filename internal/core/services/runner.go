package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driving"
	"github.com/custodia-labs/wikichunk/internal/logger"
)

// Ensure JobRunner implements the interface.
var _ driving.JobRunner = (*JobRunner)(nil)

// DefaultTimeout is the wall-clock budget of one job unit.
const DefaultTimeout = 3000 * time.Second

// JobRunner processes every matching record of one input file.
//
// Each unit runs on its own goroutine behind a recover boundary and a
// deadline, so a fault or a hang in one unit only fails that unit.
type JobRunner struct {
	source    driven.RecordSource
	processor driving.RecordProcessor
	sinks     driven.ChunkSinkFactory
	fields    driven.FieldStoreFactory
	links     driven.LinkStoreFactory
	pages     driven.PageLookupFactory
	timeout   time.Duration
}

// NewJobRunner creates a job runner.
// The store factories are only needed by the modes that use them and may be nil
// otherwise. A non-positive timeout selects DefaultTimeout.
func NewJobRunner(
	source driven.RecordSource,
	processor driving.RecordProcessor,
	sinks driven.ChunkSinkFactory,
	fields driven.FieldStoreFactory,
	links driven.LinkStoreFactory,
	pages driven.PageLookupFactory,
	timeout time.Duration,
) *JobRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &JobRunner{
		source:    source,
		processor: processor,
		sinks:     sinks,
		fields:    fields,
		links:     links,
		pages:     pages,
		timeout:   timeout,
	}
}

// Timeout returns the per-unit wall-clock budget.
func (r *JobRunner) Timeout() time.Duration {
	return r.timeout
}

type runResult struct {
	records int
	err     error
}

// Run processes the unit and returns exactly one outcome.
func (r *JobRunner) Run(ctx context.Context, unit domain.JobUnit) domain.JobOutcome {
	start := time.Now()
	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan runResult, 1)
	go func() {
		var res runResult
		defer func() {
			if p := recover(); p != nil {
				res = runResult{err: fmt.Errorf("%w: %v", domain.ErrPanic, p)}
			}
			done <- res
		}()
		res.records, res.err = r.run(runCtx, unit)
	}()

	var res runResult
	select {
	case res = <-done:
	case <-runCtx.Done():
		// The worker goroutine observes the cancelled context and exits
		// without committing; its result is dropped.
		res = runResult{err: runCtx.Err()}
	}

	return r.outcome(ctx, runCtx, unit, res, time.Since(start))
}

// outcome classifies a run result. Cancellation of the parent context is an
// interrupt; expiry of the unit deadline is a timeout.
func (r *JobRunner) outcome(parent, runCtx context.Context, unit domain.JobUnit, res runResult, elapsed time.Duration) domain.JobOutcome {
	out := domain.JobOutcome{Unit: unit, Records: res.records, Elapsed: elapsed}

	err := res.err
	switch {
	case err == nil:
		out.Success = true
		return out
	case parent.Err() != nil:
		err = fmt.Errorf("%w: %w", domain.ErrInterrupted, err)
		out.Message = "interrupted"
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		err = fmt.Errorf("%w: %w", domain.ErrTimeout, err)
		out.Message = fmt.Sprintf("timeout after %s", r.timeout)
	default:
		out.Message = err.Error()
	}

	out.Err = err
	out.Records = 0
	return out
}

// run dispatches on the unit's mode.
func (r *JobRunner) run(ctx context.Context, unit domain.JobUnit) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	logger.Debug("Processing %s (%s mode)", unit.Name(), unit.Mode.Name())

	switch mode := unit.Mode.(type) {
	case domain.ChunkMode:
		return r.runChunks(ctx, unit, mode)
	case domain.FieldExtractionMode:
		return r.runFields(ctx, unit, mode)
	case domain.LinkGraphMode:
		return r.runLinks(ctx, unit, mode)
	default:
		return 0, fmt.Errorf("%w: unsupported mode %T", domain.ErrInvalidInput, unit.Mode)
	}
}

// each reads the unit's records, skipping redirects even if the source
// did not filter them.
func (r *JobRunner) each(ctx context.Context, unit domain.JobUnit, fn func(*domain.Document) error) (int, error) {
	filter := domain.RecordFilter{DocID: unit.DocID, ExcludeRedirects: true}
	records := 0
	err := r.source.Read(ctx, unit.Path, filter, func(rec domain.Record) error {
		if rec.IsRedirect() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		records++
		return fn(r.processor.Normalise(rec))
	})
	return records, err
}

func (r *JobRunner) runChunks(ctx context.Context, unit domain.JobUnit, mode domain.ChunkMode) (records int, err error) {
	if r.sinks == nil {
		return 0, fmt.Errorf("%w: no chunk sink configured", domain.ErrInvalidInput)
	}
	sink, err := r.sinks.OpenChunkSink(ctx, unit, mode)
	if err != nil {
		return 0, fmt.Errorf("open chunk output: %w", err)
	}
	defer func() {
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close chunk output: %w", cerr)
		}
	}()

	records, err = r.each(ctx, unit, func(doc *domain.Document) error {
		_, err := r.processor.Chunk(ctx, doc, mode.MaxBytes, sink)
		return err
	})
	if err != nil {
		return 0, err
	}
	// A unit past its deadline must not publish output.
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := sink.Commit(); err != nil {
		return 0, fmt.Errorf("commit chunk output: %w", err)
	}
	return records, nil
}

func (r *JobRunner) runFields(ctx context.Context, unit domain.JobUnit, mode domain.FieldExtractionMode) (int, error) {
	if r.fields == nil {
		return 0, fmt.Errorf("%w: no field store configured", domain.ErrInvalidInput)
	}

	var fields []domain.ExtractedField
	records, err := r.each(ctx, unit, func(doc *domain.Document) error {
		fields = append(fields, r.processor.ExtractFields(doc)...)
		return nil
	})
	if err != nil {
		return 0, err
	}

	store, err := r.fields.OpenFieldStore(ctx, mode.StorageTarget)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if err := store.SaveFields(ctx, fields); err != nil {
		return 0, err
	}
	logger.Debug("Saved %d fields from %d records to %s", len(fields), records, mode.StorageTarget)
	return records, nil
}

func (r *JobRunner) runLinks(ctx context.Context, unit domain.JobUnit, mode domain.LinkGraphMode) (int, error) {
	if r.links == nil {
		return 0, fmt.Errorf("%w: no link store configured", domain.ErrInvalidInput)
	}

	var links []domain.Link
	records, err := r.each(ctx, unit, func(doc *domain.Document) error {
		links = append(links, r.processor.ExtractLinks(doc)...)
		return nil
	})
	if err != nil {
		return 0, err
	}

	if mode.PageMetaDB != "" {
		if err := r.resolve(ctx, mode.PageMetaDB, links); err != nil {
			return 0, err
		}
	}

	store, err := r.links.OpenLinkStore(ctx, mode.StorageTarget)
	if err != nil {
		return 0, err
	}
	defer store.Close()

	if err := store.SaveLinks(ctx, links); err != nil {
		return 0, err
	}
	logger.Debug("Saved %d links from %d records to %s", len(links), records, mode.StorageTarget)
	return records, nil
}

// resolve fills TargetID for every link whose title the page database knows.
func (r *JobRunner) resolve(ctx context.Context, pageMetaDB string, links []domain.Link) error {
	if r.pages == nil {
		return fmt.Errorf("%w: no page lookup configured", domain.ErrInvalidInput)
	}
	lookup, err := r.pages.OpenPageLookup(ctx, pageMetaDB)
	if err != nil {
		return fmt.Errorf("open page metadata: %w", err)
	}
	defer lookup.Close()

	seen := make(map[string]bool)
	var titles []string
	for _, l := range links {
		if !seen[l.Target] {
			seen[l.Target] = true
			titles = append(titles, l.Target)
		}
	}

	ids, err := lookup.Lookup(ctx, titles)
	if err != nil {
		return err
	}
	for i := range links {
		if id, ok := ids[links[i].Target]; ok {
			links[i].TargetID = &id
		}
	}
	return nil
}
