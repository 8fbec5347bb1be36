package driving

import (
	"context"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// RecordProcessor turns one record into chunks, infobox fields or links.
type RecordProcessor interface {
	// Normalise parses the record's markup into a document.
	// Malformed markup degrades to best-effort plain text.
	Normalise(rec domain.Record) *domain.Document

	// Chunk splits the document into chunks of at most maxBytes and
	// reports them to sink in order.
	Chunk(ctx context.Context, doc *domain.Document, maxBytes int, sink driven.ChunkSink) (domain.ChunkSet, error)

	// ExtractFields collects the parameters of the document's Infobox
	// templates. Later duplicate keys overwrite earlier ones.
	ExtractFields(doc *domain.Document) []domain.ExtractedField

	// ExtractLinks returns one unresolved link per distinct target.
	ExtractLinks(doc *domain.Document) []domain.Link
}
