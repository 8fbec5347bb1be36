package driven

import (
	"context"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
)

// RecordSource reads article rows from an input file.
type RecordSource interface {
	// Read streams every row of the file at path that passes filter to fn,
	// in file order. Returning an error from fn stops the read and returns it.
	// A missing file is reported as domain.ErrFileNotFound and an undecodable
	// one as domain.ErrMalformedInput.
	Read(ctx context.Context, path string, filter domain.RecordFilter, fn func(domain.Record) error) error
}
