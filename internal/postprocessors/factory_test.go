package postprocessors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

func defaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}

func TestFactory_Pipeline(t *testing.T) {
	f, err := NewFactory(defaultRegistry())
	require.NoError(t, err)
	assert.Equal(t, DefaultProcessors, f.names)

	p, err := f.Pipeline(15)
	require.NoError(t, err)

	doc := &domain.Document{ID: 3, Content: "Hello world. This is a test."}
	chunks, err := p.Process(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Hello world.", chunks[0].Content)
	assert.Equal(t, "This is a test.", chunks[1].Content)
	assert.Equal(t, int64(3), chunks[1].DocumentID)
	assert.Equal(t, 1, chunks[1].Position)
}

func TestFactory_Pipeline_InvalidSize(t *testing.T) {
	f, err := NewFactory(defaultRegistry())
	require.NoError(t, err)

	_, err = f.Pipeline(0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNewFactory_UnknownProcessors(t *testing.T) {
	_, err := NewFactory(defaultRegistry(), "chunker", "stemmer", "dedupe")

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "unknown processors stemmer, dedupe (available: chunker)")
}

func TestNewFactory_CustomChain(t *testing.T) {
	r := defaultRegistry()
	r.Register("upper", func(Settings) (driven.PostProcessor, error) {
		return upperProcessor{}, nil
	})

	f, err := NewFactory(r, "chunker", "upper")
	require.NoError(t, err)

	p, err := f.Pipeline(512)
	require.NoError(t, err)
	chunks, err := p.Process(context.Background(), &domain.Document{ID: 1, Content: "Paris is big."})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "PARIS IS BIG.", chunks[0].Content)
}
