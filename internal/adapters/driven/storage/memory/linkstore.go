package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Ensure LinkStore implements the interface.
var _ driven.LinkStore = (*LinkStore)(nil)

// LinkStore is an in-memory implementation of driven.LinkStore.
type LinkStore struct {
	mu     sync.RWMutex
	links  []domain.Link
	err    error
	closed bool
}

// NewLinkStore creates a new in-memory link store.
func NewLinkStore() *LinkStore {
	return &LinkStore{}
}

// FailWith makes subsequent saves return err without writing.
func (s *LinkStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SaveLinks appends the links.
func (s *LinkStore) SaveLinks(_ context.Context, links []domain.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.links = append(s.links, links...)
	return nil
}

// Links returns every stored link in write order.
func (s *LinkStore) Links() []domain.Link {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Link, len(s.links))
	copy(result, s.links)
	return result
}

// Closed reports whether Close has been called.
func (s *LinkStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close marks the store closed.
func (s *LinkStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
