package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobUnit_NameAndStem(t *testing.T) {
	u := JobUnit{Path: "/data/parquet/wikipedia_en_part_007.parquet"}
	assert.Equal(t, "wikipedia_en_part_007.parquet", u.Name())
	assert.Equal(t, "wikipedia_en_part_007", u.Stem())
}

func TestMode_Names(t *testing.T) {
	modes := []Mode{ChunkMode{MaxBytes: 512}, FieldExtractionMode{}, LinkGraphMode{}}
	names := make([]string, 0, len(modes))
	for _, m := range modes {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"chunk", "infobox", "linkgraph"}, names)
}

func TestNewBatchProgress(t *testing.T) {
	t.Run("rate and eta", func(t *testing.T) {
		p := NewBatchProgress(50, 150, 10*time.Second)
		assert.InDelta(t, 5.0, p.Rate, 1e-9)
		assert.Equal(t, 20*time.Second, p.ETA)
	})

	t.Run("zero elapsed", func(t *testing.T) {
		p := NewBatchProgress(50, 150, 0)
		assert.Zero(t, p.Rate)
		assert.Zero(t, p.ETA)
	})

	t.Run("nothing remaining", func(t *testing.T) {
		p := NewBatchProgress(10, 10, time.Second)
		assert.Zero(t, p.ETA)
	})
}

func TestBatchSummary_Rate(t *testing.T) {
	assert.Zero(t, BatchSummary{Successful: 3}.Rate())
	s := BatchSummary{Successful: 3, Failed: 1, Elapsed: 2 * time.Second}
	assert.InDelta(t, 2.0, s.Rate(), 1e-9)
}
