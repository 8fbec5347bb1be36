package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driving"
	"github.com/custodia-labs/wikichunk/internal/logger"
)

// Ensure BatchOrchestrator implements the interface.
var _ driving.BatchOrchestrator = (*BatchOrchestrator)(nil)

// Batch defaults.
const (
	DefaultParallelism   = 8
	DefaultProgressEvery = 50
)

// BatchOrchestrator fans job units out over a fixed-size worker pool.
// Outcomes are collected by a single loop that owns all counters.
type BatchOrchestrator struct {
	runner        driving.JobRunner
	parallelism   int
	progressEvery int
	limiter       *rate.Limiter
	now           func() time.Time
}

// BatchOption configures a BatchOrchestrator.
type BatchOption func(*BatchOrchestrator)

// WithParallelism sets the worker pool size. Values below 1 are ignored.
func WithParallelism(n int) BatchOption {
	return func(o *BatchOrchestrator) {
		if n >= 1 {
			o.parallelism = n
		}
	}
}

// WithProgressEvery sets the completion interval of progress events.
// Zero disables them.
func WithProgressEvery(n int) BatchOption {
	return func(o *BatchOrchestrator) {
		if n >= 0 {
			o.progressEvery = n
		}
	}
}

// WithRate caps unit submissions per second. Zero means unlimited.
func WithRate(perSecond float64) BatchOption {
	return func(o *BatchOrchestrator) {
		if perSecond > 0 {
			o.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

// WithClock replaces the time source used for elapsed time and rates.
func WithClock(now func() time.Time) BatchOption {
	return func(o *BatchOrchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewBatchOrchestrator creates a batch orchestrator over runner.
func NewBatchOrchestrator(runner driving.JobRunner, opts ...BatchOption) *BatchOrchestrator {
	o := &BatchOrchestrator{
		runner:        runner,
		parallelism:   DefaultParallelism,
		progressEvery: DefaultProgressEvery,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Parallelism returns the worker pool size.
func (o *BatchOrchestrator) Parallelism() int {
	return o.parallelism
}

// Plan discovers, sorts and filters the input units and assigns their modes.
func (o *BatchOrchestrator) Plan(_ context.Context, req driving.BatchRequest) (*driving.BatchPlan, error) {
	logger.Section(string(domain.PhaseDiscovering))
	units, err := Discover(req.InputDir)
	if err != nil {
		return nil, err
	}

	logger.Section(string(domain.PhaseFiltering))
	logger.Debug("Discovered %d units (start_from=%d, max_files=%d)", len(units), req.StartFrom, req.MaxFiles)
	plan := &driving.BatchPlan{Discovered: len(units)}
	for _, u := range FilterUnits(units, req.StartFrom, req.MaxFiles) {
		mode, err := ModeFor(u.Stem(), req)
		if err != nil {
			return nil, err
		}
		u.Mode = mode
		plan.Units = append(plan.Units, u)
	}
	return plan, nil
}

// Run dispatches the planned units and collects one outcome per submitted unit.
// A cancelled ctx stops submission; in-flight units finish or are abandoned.
func (o *BatchOrchestrator) Run(
	ctx context.Context,
	plan *driving.BatchPlan,
	obs driving.BatchObserver,
) (domain.BatchSummary, error) {
	if obs == nil {
		obs = nopObserver{}
	}

	summary := domain.BatchSummary{RunID: uuid.NewString(), Total: len(plan.Units)}
	start := o.now()
	logger.Info("Batch %s: %d units, %d workers", summary.RunID, summary.Total, o.parallelism)

	outcomes := make(chan domain.JobOutcome)
	var started atomic.Int64

	go func() {
		logger.Section(string(domain.PhaseDispatching))
		var g errgroup.Group
		g.SetLimit(o.parallelism)

		for _, unit := range plan.Units {
			if ctx.Err() != nil {
				break
			}
			if o.limiter != nil {
				if err := o.limiter.Wait(ctx); err != nil {
					break
				}
			}
			// g.Go blocks until a worker is free, which may be after an interrupt.
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				started.Add(1)
				outcomes <- o.runUnit(ctx, unit)
				return nil
			})
		}

		_ = g.Wait()
		close(outcomes)
	}()

	logger.Section(string(domain.PhaseCollecting))
	done := 0
	for out := range outcomes {
		if errors.Is(out.Err, domain.ErrInterrupted) {
			summary.Abandoned++
			continue
		}

		done++
		if out.Success {
			summary.Successful++
		} else {
			summary.Failed++
			logger.Debug("Unit %s failed: %v", out.Unit.Name(), out.Err)
		}
		obs.UnitDone(out, done, summary.Total)

		if o.progressEvery > 0 && done%o.progressEvery == 0 {
			obs.Progress(domain.NewBatchProgress(done, summary.Total, o.now().Sub(start)))
		}
	}

	summary.NotStarted = summary.Total - int(started.Load())
	summary.Elapsed = o.now().Sub(start)
	summary.Interrupted = ctx.Err() != nil
	logger.Section(string(domain.PhaseFinalized))
	obs.Finished(summary)

	switch {
	case summary.Interrupted:
		return summary, domain.ErrInterrupted
	case summary.Failed > 0:
		return summary, fmt.Errorf("%w: %d of %d units failed", domain.ErrBatchFailed, summary.Failed, summary.Total)
	}
	return summary, nil
}

// runUnit calls the runner behind a recover boundary so a faulty runner
// still yields one outcome.
func (o *BatchOrchestrator) runUnit(ctx context.Context, unit domain.JobUnit) (out domain.JobOutcome) {
	defer func() {
		if p := recover(); p != nil {
			out = domain.JobOutcome{
				Unit:    unit,
				Err:     fmt.Errorf("%w: %v", domain.ErrPanic, p),
				Message: fmt.Sprintf("internal fault: %v", p),
			}
		}
	}()
	return o.runner.Run(ctx, unit)
}

type nopObserver struct{}

func (nopObserver) UnitDone(domain.JobOutcome, int, int) {}
func (nopObserver) Progress(domain.BatchProgress)        {}
func (nopObserver) Finished(domain.BatchSummary)         {}
