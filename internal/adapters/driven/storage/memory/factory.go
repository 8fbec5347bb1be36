package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Verify interface compliance.
var (
	_ driven.FieldStoreFactory = (*Factory)(nil)
	_ driven.LinkStoreFactory  = (*Factory)(nil)
	_ driven.PageLookupFactory = (*Factory)(nil)
)

// Factory hands out in-memory stores keyed by storage target.
// Reopening a target returns the same store.
type Factory struct {
	mu      sync.Mutex
	fields  map[string]*FieldStore
	links   map[string]*LinkStore
	pages   map[string]PageLookup
	openErr error
}

// NewFactory creates an empty in-memory store factory.
func NewFactory() *Factory {
	return &Factory{
		fields: make(map[string]*FieldStore),
		links:  make(map[string]*LinkStore),
		pages:  make(map[string]PageLookup),
	}
}

// FailOpen makes subsequent opens return err.
func (f *Factory) FailOpen(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErr = err
}

// AddPages registers a page metadata table under path.
func (f *Factory) AddPages(path string, pages PageLookup) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[path] = pages
}

// OpenFieldStore returns the field store of target, creating it if needed.
func (f *Factory) OpenFieldStore(_ context.Context, target string) (driven.FieldStore, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.FieldStore(target), nil
}

// OpenLinkStore returns the link store of target, creating it if needed.
func (f *Factory) OpenLinkStore(_ context.Context, target string) (driven.LinkStore, error) {
	if err := f.err(); err != nil {
		return nil, err
	}
	return f.LinkStore(target), nil
}

// OpenPageLookup returns the page table registered under path.
func (f *Factory) OpenPageLookup(_ context.Context, path string) (driven.PageLookup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pages, ok := f.pages[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}
	return pages, nil
}

// FieldStore returns the field store of target, creating it if needed.
func (f *Factory) FieldStore(target string) *FieldStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.fields[target]
	if !ok {
		s = NewFieldStore()
		f.fields[target] = s
	}
	return s
}

// LinkStore returns the link store of target, creating it if needed.
func (f *Factory) LinkStore(target string) *LinkStore {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.links[target]
	if !ok {
		s = NewLinkStore()
		f.links[target] = s
	}
	return s
}

func (f *Factory) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.openErr
}
