// Package postprocessors turns normalised documents into chunks.
//
// A Pipeline is a fixed chain of driven.PostProcessor values built by a
// Factory from names in a Registry. The first processor of a chain creates
// the chunks; the ones after it receive and may rewrite them.
package postprocessors

import (
	"context"
	"fmt"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Ensure Pipeline implements the interface.
var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs a document through its processors in order.
type Pipeline struct {
	processors []driven.PostProcessor
}

// NewPipeline chains processors in the order given.
func NewPipeline(processors ...driven.PostProcessor) *Pipeline {
	return &Pipeline{processors: processors}
}

// Process returns the chunks produced by the last processor.
func (p *Pipeline) Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", domain.ErrInvalidInput)
	}

	var chunks []domain.Chunk
	for _, proc := range p.processors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		chunks, err = proc.Process(ctx, doc, chunks)
		if err != nil {
			return nil, fmt.Errorf("processor %s on document %d: %w", proc.Name(), doc.ID, err)
		}
	}
	return chunks, nil
}
