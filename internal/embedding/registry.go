package embedding

import (
	"sync"
)

// Registry is the runtime catalog mapping embedding-function names to
// implementations. Implementations must be safe for concurrent use.
type Registry interface {
	// Functions returns the names of all registered embedding functions.
	// The result is a snapshot, not a live view.
	Functions() []string

	// Register inserts or replaces the function under name. Registering the
	// same name twice is last-writer-wins. The in-memory implementation
	// never fails; the error return is reserved for future validation.
	Register(name string, fn Function) error

	// Get returns the function registered under name, or false if absent
	Get(name string) (Function, bool)
}

// MemoryRegistry is a Registry backed by an in-memory map with a
// reader/writer lock: many concurrent readers, exclusive writer. Create one
// at application start and pass it wherever decorators are constructed.
type MemoryRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewMemoryRegistry creates an empty MemoryRegistry
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		functions: make(map[string]Function),
	}
}

// Functions returns a snapshot of the registered names
func (r *MemoryRegistry) Functions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}

	return names
}

// Register inserts or replaces the function under name
func (r *MemoryRegistry) Register(name string, fn Function) error {
	r.mu.Lock()
	r.functions[name] = fn
	r.mu.Unlock()

	return nil
}

// Get returns the function registered under name
func (r *MemoryRegistry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.functions[name]

	return fn, ok
}
