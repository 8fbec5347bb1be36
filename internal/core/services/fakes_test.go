package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
	"github.com/custodia-labs/wikichunk/internal/normalisers/wikitext"
	"github.com/custodia-labs/wikichunk/internal/postprocessors"
)

func newTestProcessor() *RecordProcessor {
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry)
	pipelines, err := postprocessors.NewFactory(registry)
	if err != nil {
		panic(err)
	}
	return NewRecordProcessor(wikitext.New(), pipelines)
}

// fakeSource serves records per path and can fail, panic or block.
// tailErrs and blockAfter take effect after the records were delivered.
type fakeSource struct {
	records    map[string][]domain.Record
	errs       map[string]error
	tailErrs   map[string]error
	panics     map[string]bool
	block      bool
	blockAfter bool
}

func (s *fakeSource) Read(ctx context.Context, path string, filter domain.RecordFilter, fn func(domain.Record) error) error {
	if s.panics[path] {
		panic("corrupt row group in " + path)
	}
	if err := s.errs[path]; err != nil {
		return err
	}
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}
	recs, ok := s.records[path]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrFileNotFound, path)
	}
	for _, r := range recs {
		if !filter.Matches(r) {
			continue
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := s.tailErrs[path]; err != nil {
		return err
	}
	if s.blockAfter {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

// recordingSink keeps every chunk it receives.
type recordingSink struct {
	mu        sync.Mutex
	docs      []*domain.Document
	chunks    []domain.Chunk
	sets      []domain.ChunkSet
	committed bool
	closed    bool
	err       error
}

func (s *recordingSink) Begin(_ context.Context, doc *domain.Document, _ int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, doc)
	return s.err
}

func (s *recordingSink) Chunk(_ context.Context, c domain.Chunk, _ driven.Throughput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks = append(s.chunks, c)
	return nil
}

func (s *recordingSink) End(_ context.Context, set domain.ChunkSet, _ driven.Throughput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = append(s.sets, set)
	return nil
}

func (s *recordingSink) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed = true
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// sinkFactory hands out one recording sink per unit path.
type sinkFactory struct {
	mu    sync.Mutex
	sinks map[string]*recordingSink
}

func newSinkFactory() *sinkFactory {
	return &sinkFactory{sinks: make(map[string]*recordingSink)}
}

func (f *sinkFactory) OpenChunkSink(_ context.Context, unit domain.JobUnit, _ domain.ChunkMode) (driven.ChunkSink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := &recordingSink{}
	f.sinks[unit.Path] = s
	return s, nil
}

func (f *sinkFactory) sink(path string) *recordingSink {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sinks[path]
}
