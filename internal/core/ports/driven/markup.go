package driven

import "github.com/custodia-labs/wikichunk/internal/core/domain"

// MarkupParser is the markup-normalisation collaborator.
// Parsing is best effort: malformed markup degrades to plain text
// and never produces an error.
type MarkupParser interface {
	// Parse strips markup from raw and returns the plain text,
	// the template blocks and the link targets.
	Parse(raw string) domain.ParsedMarkup
}
