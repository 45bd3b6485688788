package hostfuncs

import (
	"context"
	"fmt"
	"sort"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// Registry is an immutable collection of named host functions.
// Once created via NewRegistry, functions cannot be added or removed.
// This ensures thread safety and lock-free lookups during execution.
type Registry struct {
	functions map[string]Function
	names     []string // sorted for consistent iteration
}

// registryBuilder accumulates configuration during registry construction.
type registryBuilder struct {
	functions  map[string]Function
	middleware []Middleware
	errors     []error
}

// NewRegistry creates an immutable Registry with the given options.
// Returns an error if any function name is registered twice.
//
// Example usage:
//
//	registry, err := NewRegistry(
//	    WithMiddleware(PanicRecoveryMiddleware()),
//	    WithSuite(AllBundles()),
//	)
func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	b := &registryBuilder{
		functions: make(map[string]Function),
	}

	for _, opt := range opts {
		opt(b)
	}

	if len(b.errors) > 0 {
		return nil, b.errors[0] // Return first error
	}

	names := make([]string, 0, len(b.functions))
	for name := range b.functions {
		names = append(names, name)
	}
	sort.Strings(names)

	// Apply middleware chain to all handlers (FIFO order)
	wrapped := make(map[string]Function, len(b.functions))
	for name, f := range b.functions {
		h := f.Handler
		// Apply middleware in reverse order so first middleware wraps outermost
		for i := len(b.middleware) - 1; i >= 0; i-- {
			h = b.middleware[i](h)
		}
		f.Handler = h
		wrapped[name] = f
	}

	return &Registry{
		functions: wrapped,
		names:     names,
	}, nil
}

// Invoke dispatches a host function call by name on behalf of the bundle
// served by suites. Unknown names return ErrUnknown.
func (r *Registry) Invoke(ctx context.Context, suites *Suites, name string, args []uint64) entities.Status {
	f, ok := r.functions[name]
	if !ok {
		return entities.StatErrUnknown
	}
	if len(args) != len(f.Params) {
		return entities.StatErrValue
	}
	return f.Handler(NewHostContext(ctx, name, suites), args)
}

// Function returns the function registered under name, wrapped in the
// registry's middleware.
func (r *Registry) Function(name string) (Function, bool) {
	f, ok := r.functions[name]
	return f, ok
}

// Has returns true if a function with the given name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.functions[name]
	return ok
}

// Names returns a sorted list of all registered function names.
func (r *Registry) Names() []string {
	result := make([]string, len(r.names))
	copy(result, r.names)
	return result
}

// addFunction registers f under its name.
// Returns an error if the name is already registered.
func (b *registryBuilder) addFunction(f Function) error {
	if f.Name == "" {
		return fmt.Errorf("function name cannot be empty")
	}
	if f.Handler == nil {
		return fmt.Errorf("function %q has no handler", f.Name)
	}
	if _, exists := b.functions[f.Name]; exists {
		return fmt.Errorf("duplicate function name: %q", f.Name)
	}
	b.functions[f.Name] = f
	return nil
}

// WithFunction registers a single host function.
func WithFunction(f Function) RegistryOption {
	return func(b *registryBuilder) {
		if err := b.addFunction(f); err != nil {
			b.errors = append(b.errors, err)
		}
	}
}

// WithMiddleware adds middleware to the registry.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(b *registryBuilder) {
		b.middleware = append(b.middleware, mw...)
	}
}
