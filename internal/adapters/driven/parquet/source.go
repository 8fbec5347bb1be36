package parquet

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.RecordSource = (*Source)(nil)

const (
	// DefaultBatchRows is the number of rows decoded per read call.
	DefaultBatchRows = 256
	// readParallelism is the column reader goroutine count per file.
	readParallelism = 1
)

// Row is the on-disk layout of one article row.
type Row struct {
	PageID int64  `parquet:"name=page_id, type=INT64"`
	Title  string `parquet:"name=title, type=BYTE_ARRAY, convertedtype=UTF8"`
	Text   string `parquet:"name=text, type=BYTE_ARRAY, convertedtype=UTF8"`
}

// Source reads article records from local Parquet files.
type Source struct {
	batchRows int
}

// Option configures a Source.
type Option func(*Source)

// WithBatchRows sets the rows decoded per read call.
func WithBatchRows(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.batchRows = n
		}
	}
}

// New creates a Parquet record source.
func New(opts ...Option) *Source {
	s := &Source{batchRows: DefaultBatchRows}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Read streams every row of the file at path through fn, in file order,
// skipping rows rejected by filter. Reading stops at the first error
// returned by fn, which is passed back unchanged.
func (s *Source) Read(ctx context.Context, path string, filter domain.RecordFilter, fn func(domain.Record) error) (err error) {
	if _, statErr := os.Stat(path); statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
		}
		return fmt.Errorf("stat %s: %w", path, statErr)
	}

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer fr.Close()

	// The decoder panics on some corrupt footers instead of returning errors.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", domain.ErrMalformedInput, path, r)
		}
	}()

	pr, err := reader.NewParquetReader(fr, new(Row), readParallelism)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrMalformedInput, path, err)
	}
	defer pr.ReadStop()

	remaining := int(pr.GetNumRows())
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		rows := make([]Row, min(s.batchRows, remaining))
		if err := pr.Read(&rows); err != nil {
			return fmt.Errorf("%w: %s: %v", domain.ErrMalformedInput, path, err)
		}
		if len(rows) == 0 {
			break
		}
		remaining -= len(rows)

		for _, row := range rows {
			rec := domain.Record{ID: row.PageID, Title: row.Title, Text: row.Text}
			if !filter.Matches(rec) {
				continue
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
	}

	return nil
}

// WriteFile writes records to a new Parquet file at path.
func WriteFile(path string, records []domain.Record) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer fw.Close()

	pw, err := writer.NewParquetWriter(fw, new(Row), readParallelism)
	if err != nil {
		return fmt.Errorf("parquet writer: %w", err)
	}

	for _, rec := range records {
		if err := pw.Write(Row{PageID: rec.ID, Title: rec.Title, Text: rec.Text}); err != nil {
			return fmt.Errorf("write row %d: %w", rec.ID, err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return fmt.Errorf("finish %s: %w", path, err)
	}
	return nil
}
