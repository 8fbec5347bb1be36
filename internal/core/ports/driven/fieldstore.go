package driven

import (
	"context"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
)

// FieldStore persists extracted infobox fields for one input file.
// Writes upsert on (document id, key).
type FieldStore interface {
	// SaveFields writes all fields in a single batch.
	SaveFields(ctx context.Context, fields []domain.ExtractedField) error

	// Close releases the store.
	Close() error
}

// FieldStoreFactory opens a FieldStore for a storage target.
// Table creation is idempotent.
type FieldStoreFactory interface {
	OpenFieldStore(ctx context.Context, target string) (FieldStore, error)
}

// LinkStore persists link-graph edges for one input file.
type LinkStore interface {
	// SaveLinks writes all links in a single batch.
	SaveLinks(ctx context.Context, links []domain.Link) error

	// Close releases the store.
	Close() error
}

// LinkStoreFactory opens a LinkStore for a storage target.
type LinkStoreFactory interface {
	OpenLinkStore(ctx context.Context, target string) (LinkStore, error)
}

// PageLookup resolves article titles to document ids.
type PageLookup interface {
	// Lookup returns the ids of the titles it knows; unknown titles are absent.
	Lookup(ctx context.Context, titles []string) (map[string]int64, error)

	// Close releases the lookup.
	Close() error
}

// PageLookupFactory opens a PageLookup over a page metadata database.
type PageLookupFactory interface {
	OpenPageLookup(ctx context.Context, path string) (PageLookup, error)
}
