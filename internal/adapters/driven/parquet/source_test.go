package parquet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
)

func writeFixture(t *testing.T, records []domain.Record) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wikipedia_en_part_001.parquet")
	require.NoError(t, WriteFile(path, records))
	return path
}

func collect(t *testing.T, s *Source, path string, filter domain.RecordFilter) ([]domain.Record, error) {
	t.Helper()
	var got []domain.Record
	err := s.Read(context.Background(), path, filter, func(r domain.Record) error {
		got = append(got, r)
		return nil
	})
	return got, err
}

var fixtureRecords = []domain.Record{
	{ID: 1, Title: "Alpha", Text: "Alpha is first."},
	{ID: 2, Title: "Beta", Text: "#REDIRECT [[Alpha]]"},
	{ID: 3, Title: "Gamma", Text: "Gamma is third."},
}

func TestRead_AllRecordsInOrder(t *testing.T) {
	path := writeFixture(t, fixtureRecords)

	got, err := collect(t, New(WithBatchRows(2)), path, domain.RecordFilter{})

	require.NoError(t, err)
	assert.Equal(t, fixtureRecords, got)
}

func TestRead_ExcludeRedirects(t *testing.T) {
	path := writeFixture(t, fixtureRecords)

	got, err := collect(t, New(), path, domain.RecordFilter{ExcludeRedirects: true})

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
}

func TestRead_DocIDFilter(t *testing.T) {
	path := writeFixture(t, fixtureRecords)

	got, err := collect(t, New(), path, domain.RecordFilter{DocID: 3})

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Gamma", got[0].Title)
}

func TestRead_EmptyFile(t *testing.T) {
	path := writeFixture(t, nil)

	got, err := collect(t, New(), path, domain.RecordFilter{})

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := collect(t, New(), filepath.Join(t.TempDir(), "missing.parquet"), domain.RecordFilter{})

	assert.ErrorIs(t, err, domain.ErrFileNotFound)
}

func TestRead_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.parquet")
	require.NoError(t, os.WriteFile(path, []byte("this is not parquet"), 0o600))

	_, err := collect(t, New(), path, domain.RecordFilter{})

	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestRead_CallbackErrorStops(t *testing.T) {
	path := writeFixture(t, fixtureRecords)
	stop := errors.New("stop")

	calls := 0
	err := New().Read(context.Background(), path, domain.RecordFilter{}, func(domain.Record) error {
		calls++
		return stop
	})

	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestRead_CancelledContext(t *testing.T) {
	path := writeFixture(t, fixtureRecords)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().Read(ctx, path, domain.RecordFilter{}, func(domain.Record) error { return nil })

	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithBatchRows_IgnoresNonPositive(t *testing.T) {
	s := New(WithBatchRows(0))
	assert.Equal(t, DefaultBatchRows, s.batchRows)
}
