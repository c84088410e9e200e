package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/arbor/pkg/domain"
)

// Factory creates a fresh, unmounted node of one element type.
type Factory func() domain.Node

// Registry is the archive of element types and named elements.
type Registry struct {
	mu       sync.RWMutex
	types    map[string]Factory
	elements map[string]domain.Node
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:    make(map[string]Factory),
		elements: make(map[string]domain.Node),
	}
}

var _ domain.Archive = (*Registry)(nil)

// Register adds an element type to the registry.
// If the type exists, it is overwritten.
func (r *Registry) Register(typ string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[typ] = fn
}

// New creates a node of the given type.
// Returns domain.ErrUnknownElement if the type is not registered.
func (r *Registry) New(typ string) (domain.Node, error) {
	r.mu.RLock()
	fn, ok := r.types[typ]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownElement, typ)
	}
	return fn(), nil
}

// Types returns the registered element types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.types))
	for t := range r.types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// RegisterElement makes a built node addressable by name (e.g. a macro).
func (r *Registry) RegisterElement(name string, n domain.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.elements[name] = n
}

// Element looks up a named element.
func (r *Registry) Element(name string) (domain.Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.elements[name]
	return n, ok
}

// Clone returns a registry with the same element types and no named elements.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c := NewRegistry()
	for t, fn := range r.types {
		c.types[t] = fn
	}
	return c
}
