package postprocessors

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/wikichunk/internal/core/domain"
	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.PipelineFactory = (*Factory)(nil)

// DefaultProcessors is the processor chain used when none is configured.
var DefaultProcessors = []string{ChunkerName}

// Factory builds pipelines for a validated processor chain.
type Factory struct {
	registry *Registry
	names    []string
}

// NewFactory checks that every name is registered and returns a factory
// chaining them in order. With no names it uses DefaultProcessors.
func NewFactory(r *Registry, names ...string) (*Factory, error) {
	if len(names) == 0 {
		names = DefaultProcessors
	}

	var unknown []string
	for _, name := range names {
		if !r.Has(name) {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("%w: unknown processors %s (available: %s)",
			domain.ErrInvalidInput, strings.Join(unknown, ", "), strings.Join(r.Names(), ", "))
	}

	return &Factory{registry: r, names: append([]string(nil), names...)}, nil
}

// Pipeline builds a pipeline whose chunks are bounded by maxBytes.
func (f *Factory) Pipeline(maxBytes int) (driven.PostProcessorPipeline, error) {
	if maxBytes <= 0 {
		return nil, fmt.Errorf("%w: chunk size must be positive, got %d", domain.ErrInvalidInput, maxBytes)
	}

	settings := Settings{MaxBytes: maxBytes}
	procs := make([]driven.PostProcessor, 0, len(f.names))
	for _, name := range f.names {
		proc, err := f.registry.Build(name, settings)
		if err != nil {
			return nil, err
		}
		procs = append(procs, proc)
	}
	return NewPipeline(procs...), nil
}
