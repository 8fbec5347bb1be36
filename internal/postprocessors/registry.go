package postprocessors

import (
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/wikichunk/internal/core/ports/driven"
)

// Settings are the run values every processor is built with.
type Settings struct {
	// MaxBytes bounds the UTF-8 size of each chunk.
	MaxBytes int
}

// BuilderFunc creates a PostProcessor for one set of settings.
type BuilderFunc func(s Settings) (driven.PostProcessor, error)

// Registry maps the names used by the processors config key to builders.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		builders: make(map[string]BuilderFunc),
	}
}

// Register adds a builder. A later registration under the same name replaces
// the earlier one.
func (r *Registry) Register(name string, builder BuilderFunc) {
	r.builders[name] = builder
}

// Build creates the named processor.
func (r *Registry) Build(name string, s Settings) (driven.PostProcessor, error) {
	builder, ok := r.builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown processor %q (available: %s)", name, strings.Join(r.Names(), ", "))
	}
	return builder(s)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.builders[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.builders))
	for name := range r.builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
