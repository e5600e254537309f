package cloud

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory opens a provider for a cloud with the given credentials.
type Factory func(ctx context.Context, spec Spec, creds Credentials) (Provider, error)

// Registry maps cloud kinds to the factory that serves them.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for kind
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Kinds returns the registered kinds in sorted order
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// Open builds a provider for spec.
func (r *Registry) Open(ctx context.Context, spec Spec, creds Credentials) (Provider, error) {
	r.mu.RLock()
	f, ok := r.factories[spec.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("cloud kind %q: %w", spec.Kind, ErrNotSupported)
	}
	return f(ctx, spec, creds)
}
