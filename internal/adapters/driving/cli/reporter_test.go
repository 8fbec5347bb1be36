package cli

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
)

func TestReporter_UnitDone(t *testing.T) {
	buf := new(bytes.Buffer)
	r := newReporter(buf)
	unit := domain.JobUnit{Path: "in/wikipedia_en_part_007.parquet"}

	r.UnitDone(domain.JobOutcome{Unit: unit, Success: true, Elapsed: 1500 * time.Millisecond}, 7, 120)
	r.UnitDone(domain.JobOutcome{Unit: unit, Err: errors.New("x"), Message: "timeout after 50m0s"}, 8, 120)

	assert.Contains(t, buf.String(), "[   7/120] ✓ wikipedia_en_part_007.parquet (1.5s)")
	assert.Contains(t, buf.String(), "[   8/120] ✗ wikipedia_en_part_007.parquet: timeout after 50m0s")
}

func TestReporter_Progress(t *testing.T) {
	buf := new(bytes.Buffer)
	newReporter(buf).Progress(domain.NewBatchProgress(50, 100, 100*time.Second))

	assert.Contains(t, buf.String(), "Progress: 50/100 (50.0%) | Elapsed: 1m40s | Rate: 0.50 files/sec | ETA: 1m40s")
}

func TestReporter_ProgressZeroElapsed(t *testing.T) {
	buf := new(bytes.Buffer)
	newReporter(buf).Progress(domain.NewBatchProgress(50, 100, 0))

	assert.Contains(t, buf.String(), "Rate: 0.00 files/sec | ETA: 0s")
}

func TestReporter_Finished(t *testing.T) {
	buf := new(bytes.Buffer)
	newReporter(buf).Finished(domain.BatchSummary{
		RunID:      "run-1",
		Total:      1200,
		Successful: 1199,
		Failed:     1,
		Elapsed:    10 * time.Minute,
	})

	out := buf.String()
	assert.Contains(t, out, "Total files:  1,200")
	assert.Contains(t, out, "Successful:   1,199")
	assert.Contains(t, out, "Failed:       1")
	assert.Contains(t, out, "Average rate: 2.00 files/sec")
	assert.NotContains(t, out, "Abandoned")
}

func TestReporter_FinishedInterrupted(t *testing.T) {
	buf := new(bytes.Buffer)
	newReporter(buf).Finished(domain.BatchSummary{Total: 10, Abandoned: 2, NotStarted: 8, Interrupted: true})

	assert.Contains(t, buf.String(), "Abandoned:    2")
	assert.Contains(t, buf.String(), "Not started:  8")
}
