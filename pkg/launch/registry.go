package launch

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

var ErrUnknownHandler = errors.New("unknown launch handler")

// Constructor builds a fresh handler for one launch.
type Constructor func() Handler

// Registry resolves handler names stored on application versions.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Constructor)}
}

// Register adds a constructor under name. A later registration replaces an
// earlier one.
func (r *Registry) Register(name string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = c
}

// Resolve looks name up as given, then by its last dotted segment, so that
// "baselaunch.backend_plugins.base_vm_app.BaseVMAppPlugin" finds a handler
// registered as "BaseVMAppPlugin".
func (r *Registry) Resolve(name string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if c, ok := r.handlers[name]; ok {
		return c(), nil
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		if c, ok := r.handlers[name[i+1:]]; ok {
			return c(), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, name)
}

// Names returns the registered names in order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry knows the built-in handlers under both their Go names and
// the plugin names existing application versions carry.
var DefaultRegistry = func() *Registry {
	r := NewRegistry()
	base := func() Handler { return &BaseAppHandler{} }
	vm := func() Handler { return &BaseVMAppHandler{} }
	r.Register("BaseAppHandler", base)
	r.Register("BaseAppPlugin", base)
	r.Register("BaseVMAppHandler", vm)
	r.Register("BaseVMAppPlugin", vm)
	return r
}()
