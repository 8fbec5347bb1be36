package memory

import (
	"context"

	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Ensure PageLookup implements the interface.
var _ driven.PageLookup = PageLookup(nil)

// PageLookup is a fixed title to id table.
type PageLookup map[string]int64

// Lookup returns the ids of the known titles.
func (p PageLookup) Lookup(_ context.Context, titles []string) (map[string]int64, error) {
	found := make(map[string]int64)
	for _, t := range titles {
		if id, ok := p[t]; ok {
			found[t] = id
		}
	}
	return found, nil
}

// Close is a no-op.
func (p PageLookup) Close() error {
	return nil
}
