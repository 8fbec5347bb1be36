package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driving"
	"github.com/custodia-labs/wikichunk/internal/logger"
)

// fakeRunner succeeds unless told to fail or panic for a part number.
type fakeRunner struct {
	fail    map[int]bool
	panic   map[int]bool
	block   bool
	started atomic.Int32
	active  atomic.Int32
	peak    atomic.Int32
	delay   time.Duration

	mu    sync.Mutex
	order []int
}

func (r *fakeRunner) Run(ctx context.Context, unit domain.JobUnit) domain.JobOutcome {
	r.started.Add(1)
	n := r.active.Add(1)
	defer r.active.Add(-1)
	for {
		p := r.peak.Load()
		if n <= p || r.peak.CompareAndSwap(p, n) {
			break
		}
	}

	r.mu.Lock()
	r.order = append(r.order, unit.Part)
	r.mu.Unlock()

	if r.panic[unit.Part] {
		panic(fmt.Sprintf("unit %d exploded", unit.Part))
	}
	if r.block {
		<-ctx.Done()
		return domain.JobOutcome{Unit: unit, Err: domain.ErrInterrupted, Message: "interrupted"}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	if r.fail[unit.Part] {
		return domain.JobOutcome{Unit: unit, Err: domain.ErrMalformedInput, Message: "malformed input"}
	}
	return domain.JobOutcome{Unit: unit, Success: true}
}

// recordingObserver captures the collecting loop's events.
type recordingObserver struct {
	done     []domain.JobOutcome
	counts   []int
	progress []domain.BatchProgress
	summary  *domain.BatchSummary
}

func (o *recordingObserver) UnitDone(out domain.JobOutcome, done, _ int) {
	o.done = append(o.done, out)
	o.counts = append(o.counts, done)
}

func (o *recordingObserver) Progress(p domain.BatchProgress) {
	o.progress = append(o.progress, p)
}

func (o *recordingObserver) Finished(s domain.BatchSummary) {
	o.summary = &s
}

func planOf(n int) *driving.BatchPlan {
	plan := &driving.BatchPlan{Discovered: n}
	for i := 1; i <= n; i++ {
		plan.Units = append(plan.Units, domain.JobUnit{
			Path:     fmt.Sprintf("wikipedia_en_part_%03d.parquet", i),
			Part:     i,
			Numbered: true,
			Mode:     domain.ChunkMode{MaxBytes: 512},
		})
	}
	return plan
}

func TestNewBatchOrchestrator_Defaults(t *testing.T) {
	o := NewBatchOrchestrator(&fakeRunner{}, WithParallelism(0), WithProgressEvery(-1))
	assert.Equal(t, DefaultParallelism, o.Parallelism())
	assert.Equal(t, DefaultProgressEvery, o.progressEvery)
	assert.Nil(t, o.limiter)
}

func TestBatchOrchestrator_AllSucceed(t *testing.T) {
	runner := &fakeRunner{}
	obs := &recordingObserver{}
	o := NewBatchOrchestrator(runner, WithParallelism(4), WithProgressEvery(5))

	summary, err := o.Run(context.Background(), planOf(20), obs)

	require.NoError(t, err)
	assert.Equal(t, 20, summary.Total)
	assert.Equal(t, 20, summary.Successful)
	assert.Zero(t, summary.Failed)
	assert.NotEmpty(t, summary.RunID)
	assert.False(t, summary.Interrupted)
	assert.Len(t, obs.done, 20)
	assert.Len(t, obs.progress, 4)
	require.NotNil(t, obs.summary)
	assert.Equal(t, summary, *obs.summary)

	for i, c := range obs.counts {
		assert.Equal(t, i+1, c)
	}
}

func TestBatchOrchestrator_PanicInOneUnitIsIsolated(t *testing.T) {
	runner := &fakeRunner{panic: map[int]bool{7: true}}
	obs := &recordingObserver{}
	o := NewBatchOrchestrator(runner, WithParallelism(3))

	summary, err := o.Run(context.Background(), planOf(20), obs)

	assert.ErrorIs(t, err, domain.ErrBatchFailed)
	assert.Equal(t, 19, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 20, summary.Successful+summary.Failed)
	require.Len(t, obs.done, 20)

	var failed []domain.JobOutcome
	for _, out := range obs.done {
		if !out.Success {
			failed = append(failed, out)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, 7, failed[0].Unit.Part)
	assert.ErrorIs(t, failed[0].Err, domain.ErrPanic)
	assert.Contains(t, failed[0].Message, "unit 7 exploded")
}

func TestBatchOrchestrator_FailuresOnlyLoggedWhenVerbose(t *testing.T) {
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(os.Stderr)

	runner := &fakeRunner{fail: map[int]bool{2: true}}
	o := NewBatchOrchestrator(runner, WithParallelism(1))

	logger.SetVerbose(false)
	_, err := o.Run(context.Background(), planOf(3), &recordingObserver{})
	assert.ErrorIs(t, err, domain.ErrBatchFailed)
	assert.Empty(t, buf.String())

	logger.SetVerbose(true)
	defer logger.SetVerbose(false)
	_, err = o.Run(context.Background(), planOf(3), &recordingObserver{})
	assert.ErrorIs(t, err, domain.ErrBatchFailed)
	assert.Contains(t, buf.String(), "Unit wikipedia_en_part_002.parquet failed")
}

func TestBatchOrchestrator_FailuresAreCounted(t *testing.T) {
	runner := &fakeRunner{fail: map[int]bool{2: true, 4: true}}
	o := NewBatchOrchestrator(runner, WithParallelism(2))

	summary, err := o.Run(context.Background(), planOf(5), nil)

	assert.ErrorIs(t, err, domain.ErrBatchFailed)
	assert.Equal(t, 3, summary.Successful)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, int32(5), runner.started.Load())
}

func TestBatchOrchestrator_RespectsParallelism(t *testing.T) {
	runner := &fakeRunner{delay: 5 * time.Millisecond}
	o := NewBatchOrchestrator(runner, WithParallelism(3))

	_, err := o.Run(context.Background(), planOf(12), nil)

	require.NoError(t, err)
	assert.LessOrEqual(t, runner.peak.Load(), int32(3))
}

func TestBatchOrchestrator_SerialSubmissionOrder(t *testing.T) {
	runner := &fakeRunner{}
	o := NewBatchOrchestrator(runner, WithParallelism(1))

	_, err := o.Run(context.Background(), planOf(6), nil)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, runner.order)
}

func TestBatchOrchestrator_Interrupt(t *testing.T) {
	runner := &fakeRunner{block: true}
	obs := &recordingObserver{}
	o := NewBatchOrchestrator(runner, WithParallelism(2))
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		for runner.started.Load() < 2 {
			time.Sleep(time.Millisecond)
		}
		cancel()
	}()

	summary, err := o.Run(ctx, planOf(10), obs)

	assert.ErrorIs(t, err, domain.ErrInterrupted)
	assert.True(t, summary.Interrupted)
	assert.Zero(t, summary.Successful)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, int32(2), runner.started.Load())
	assert.Equal(t, 2, summary.Abandoned)
	assert.Equal(t, 8, summary.NotStarted)
	assert.Empty(t, obs.done)
	require.NotNil(t, obs.summary)
	assert.Equal(t, summary, *obs.summary)
}

func TestBatchOrchestrator_InterruptStartsNothingQueued(t *testing.T) {
	for _, parallelism := range []int{1, 3} {
		t.Run(fmt.Sprintf("parallelism %d", parallelism), func(t *testing.T) {
			runner := &fakeRunner{block: true}
			o := NewBatchOrchestrator(runner, WithParallelism(parallelism))
			ctx, cancel := context.WithCancel(context.Background())

			go func() {
				for runner.started.Load() < int32(parallelism) {
					time.Sleep(time.Millisecond)
				}
				// Give the dispatcher time to block on the full pool.
				time.Sleep(10 * time.Millisecond)
				cancel()
			}()

			summary, err := o.Run(ctx, planOf(20), &recordingObserver{})

			assert.ErrorIs(t, err, domain.ErrInterrupted)
			assert.Equal(t, int32(parallelism), runner.started.Load())
			assert.Equal(t, parallelism, summary.Abandoned)
			assert.Equal(t, 20-parallelism, summary.NotStarted)
		})
	}
}

func TestBatchOrchestrator_ZeroElapsedProgress(t *testing.T) {
	fixed := time.Unix(1_700_000_000, 0)
	obs := &recordingObserver{}
	o := NewBatchOrchestrator(&fakeRunner{}, WithParallelism(1), WithProgressEvery(2),
		WithClock(func() time.Time { return fixed }))

	summary, err := o.Run(context.Background(), planOf(4), obs)

	require.NoError(t, err)
	require.Len(t, obs.progress, 2)
	for _, p := range obs.progress {
		assert.Zero(t, p.Elapsed)
		assert.Zero(t, p.Rate)
		assert.Zero(t, p.ETA)
	}
	assert.Zero(t, summary.Rate())
}

func TestBatchOrchestrator_Rate(t *testing.T) {
	o := NewBatchOrchestrator(&fakeRunner{}, WithRate(1000))
	require.NotNil(t, o.limiter)

	summary, err := o.Run(context.Background(), planOf(3), nil)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Successful)
}

func TestBatchOrchestrator_EmptyPlan(t *testing.T) {
	obs := &recordingObserver{}
	summary, err := NewBatchOrchestrator(&fakeRunner{}).Run(context.Background(), &driving.BatchPlan{}, obs)

	require.NoError(t, err)
	assert.Zero(t, summary.Total)
	require.NotNil(t, obs.summary)
}

func TestBatchOrchestrator_Plan(t *testing.T) {
	dir := t.TempDir()
	parts := make([]int, 120)
	for i := range parts {
		parts[i] = i + 1
	}
	touchParts(t, dir, parts...)

	o := NewBatchOrchestrator(&fakeRunner{})
	plan, err := o.Plan(context.Background(), driving.BatchRequest{
		InputDir:       dir,
		StartFrom:      50,
		MaxFiles:       10,
		ExtractInfobox: true,
		OutputDir:      "out",
	})

	require.NoError(t, err)
	assert.Equal(t, 120, plan.Discovered)
	require.Len(t, plan.Units, 10)
	assert.Equal(t, 50, plan.Units[0].Part)
	assert.Equal(t, 59, plan.Units[9].Part)
	assert.Equal(t, domain.FieldExtractionMode{StorageTarget: "out/wikipedia_en_part_050_infobox.db"}, plan.Units[0].Mode)
}

func TestBatchOrchestrator_PlanMissingDir(t *testing.T) {
	_, err := NewBatchOrchestrator(&fakeRunner{}).Plan(context.Background(), driving.BatchRequest{InputDir: "/does/not/exist"})
	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}
