package output

import (
	"context"
	"io"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Verify interface compliance.
var (
	_ driven.ChunkSinkFactory = (*Factory)(nil)
	_ driven.ChunkSink        = Discard{}
)

// Discard drops every chunk.
type Discard struct{}

func (Discard) Begin(context.Context, *domain.Document, int) error            { return nil }
func (Discard) Chunk(context.Context, domain.Chunk, driven.Throughput) error  { return nil }
func (Discard) End(context.Context, domain.ChunkSet, driven.Throughput) error { return nil }
func (Discard) Commit() error                                                 { return nil }
func (Discard) Close() error                                                  { return nil }

// Factory picks a sink per unit: a JSON-lines file when the mode names an
// output path, otherwise a report on the configured writer, otherwise Discard.
type Factory struct {
	report io.Writer
}

// NewFactory creates a sink factory. A nil report writer discards chunks of
// units that have no output path.
func NewFactory(report io.Writer) *Factory {
	return &Factory{report: report}
}

// OpenChunkSink opens the sink for one unit.
func (f *Factory) OpenChunkSink(_ context.Context, _ domain.JobUnit, mode domain.ChunkMode) (driven.ChunkSink, error) {
	switch {
	case mode.OutputPath != "":
		sink, err := CreateJSONLSink(mode.OutputPath)
		if err != nil {
			return nil, err
		}
		return sink, nil
	case f.report != nil:
		return NewReportSink(f.report), nil
	default:
		return Discard{}, nil
	}
}
