package jsonrpc

import (
	"sort"
	"sync"
)

// Router resolves a method path to its descriptor. Unknown paths yield a
// MethodNotFound error.
type Router interface {
	Method(path string) (*Method, error)
}

// Registry is the default Router: a flat map of method paths.
//
// Registration normally happens at startup; lookups may run concurrently
// with each other and with late registrations.
type Registry struct {
	mu      sync.RWMutex
	methods map[string]*Method
}

// NewRegistry creates an empty method registry.
func NewRegistry() *Registry {
	return &Registry{
		methods: make(map[string]*Method),
	}
}

// Register adds m under path. Paths are unique.
func (r *Registry) Register(path string, m *Method) error {
	if path == "" {
		return usageErrorf("empty method path")
	}
	if m == nil {
		return usageErrorf("nil method for %q", path)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.methods[path]; exists {
		return usageErrorf("method name collision: %s", path)
	}
	r.methods[path] = m
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(path string, m *Method) {
	if err := r.Register(path, m); err != nil {
		panic(err)
	}
}

// Method implements Router.
func (r *Registry) Method(path string) (*Method, error) {
	r.mu.RLock()
	m, ok := r.methods[path]
	r.mu.RUnlock()

	if !ok {
		return nil, MethodNotFound("Method not found", path)
	}
	return m, nil
}

// Paths lists registered paths in sorted order.
func (r *Registry) Paths() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	paths := make([]string, 0, len(r.methods))
	for p := range r.methods {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
