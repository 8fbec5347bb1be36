package postprocessors

import (
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
	"github.com/custodia-labs/wikichunk/internal/postprocessors/chunker"
)

// ChunkerName is the registry name of the sentence chunker.
const ChunkerName = "chunker"

// RegisterDefaults registers the built-in processors.
func RegisterDefaults(r *Registry) {
	r.Register(ChunkerName, buildChunker)
}

func buildChunker(s Settings) (driven.PostProcessor, error) {
	return chunker.New(chunker.WithMaxBytes(s.MaxBytes)), nil
}
