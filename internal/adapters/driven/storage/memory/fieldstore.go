package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Ensure FieldStore implements the interface.
var _ driven.FieldStore = (*FieldStore)(nil)

type fieldKey struct {
	docID int64
	key   string
}

// FieldStore is an in-memory implementation of driven.FieldStore.
type FieldStore struct {
	mu     sync.RWMutex
	fields map[fieldKey]string
	order  []fieldKey
	err    error
	closed bool
}

// NewFieldStore creates a new in-memory field store.
func NewFieldStore() *FieldStore {
	return &FieldStore{fields: make(map[fieldKey]string)}
}

// FailWith makes subsequent saves return err without writing.
func (s *FieldStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SaveFields upserts all fields, or none when the store is failing.
func (s *FieldStore) SaveFields(_ context.Context, fields []domain.ExtractedField) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, f := range fields {
		k := fieldKey{docID: f.DocumentID, key: f.Key}
		if _, ok := s.fields[k]; !ok {
			s.order = append(s.order, k)
		}
		s.fields[k] = f.Value
	}
	return nil
}

// Fields returns every stored field in first-write order.
func (s *FieldStore) Fields() []domain.ExtractedField {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ExtractedField, 0, len(s.order))
	for _, k := range s.order {
		result = append(result, domain.ExtractedField{DocumentID: k.docID, Key: k.key, Value: s.fields[k]})
	}
	return result
}

// Closed reports whether Close has been called.
func (s *FieldStore) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close marks the store closed.
func (s *FieldStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
