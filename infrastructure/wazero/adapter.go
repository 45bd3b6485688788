package wazero

import (
	"context"
	"log/slog"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/hostfuncs"
)

// DefaultModuleName is the module guests import host functions from.
const DefaultModuleName = "OfxHost"

// AdapterConfig holds configuration for the wazero adapter.
type AdapterConfig struct {
	// ModuleName is the host module name (default: "OfxHost").
	ModuleName string
}

// AdapterOption configures the adapter.
type AdapterOption func(*AdapterConfig)

// WithModuleName sets the host module name (default: "OfxHost").
func WithModuleName(name string) AdapterOption {
	return func(c *AdapterConfig) {
		c.ModuleName = name
	}
}

// defaultAdapterConfig returns the default adapter configuration.
func defaultAdapterConfig() AdapterConfig {
	return AdapterConfig{
		ModuleName: DefaultModuleName,
	}
}

// Bindings maps guest module names to the suites their calls are served by.
type Bindings struct {
	mu     sync.RWMutex
	suites map[string]*hostfuncs.Suites
}

// NewBindings creates an empty binding table.
func NewBindings() *Bindings {
	return &Bindings{suites: make(map[string]*hostfuncs.Suites)}
}

// Bind routes calls from module to s.
func (b *Bindings) Bind(module string, s *hostfuncs.Suites) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.suites[module] = s
}

// Unbind removes the binding of module.
func (b *Bindings) Unbind(module string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.suites, module)
}

// Lookup returns the suites bound to module.
func (b *Bindings) Lookup(module string) (*hostfuncs.Suites, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.suites[module]
	return s, ok
}

func valueTypes(params []hostfuncs.ValueType) []api.ValueType {
	out := make([]api.ValueType, len(params))
	for i, p := range params {
		switch p {
		case hostfuncs.ValueF64:
			out[i] = api.ValueTypeF64
		default:
			out[i] = api.ValueTypeI32
		}
	}
	return out
}

// RegisterWithRuntime registers every function of a Registry with a wazero
// runtime as one host module (default: "OfxHost").
//
// Each function keeps its declared i32/f64 parameters and returns an i32
// status. A call is served by the suites bound to the calling module; a
// module with nothing bound gets ErrFatal.
//
// Example:
//
//	registry, _ := hostfuncs.DefaultRegistry()
//	bindings := wazero.NewBindings()
//	err := wazero.RegisterWithRuntime(ctx, runtime, registry, bindings)
func RegisterWithRuntime(ctx context.Context, runtime wazero.Runtime, registry *hostfuncs.Registry, bindings *Bindings, opts ...AdapterOption) error {
	cfg := defaultAdapterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	builder := runtime.NewHostModuleBuilder(cfg.ModuleName)

	for _, name := range registry.Names() {
		f, _ := registry.Function(name)
		funcName := name // capture for closure
		arity := len(f.Params)
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				handleRegistryCall(ctx, mod, stack, registry, bindings, funcName, arity)
			}), valueTypes(f.Params), []api.ValueType{api.ValueTypeI32}).
			WithName(funcName).
			Export(funcName)
	}

	_, err := builder.Instantiate(ctx)
	return err
}

// handleRegistryCall serves one host function call from a guest.
func handleRegistryCall(ctx context.Context, mod api.Module, stack []uint64, registry *hostfuncs.Registry, bindings *Bindings, name string, arity int) {
	suites, ok := bindings.Lookup(mod.Name())
	if !ok {
		slog.ErrorContext(ctx, "wazero: call from a module with no suites bound",
			"function", name, "bundle", GetBundleName(ctx, mod))
		stack[0] = api.EncodeI32(int32(entities.StatErrFatal))
		return
	}

	args := make([]uint64, arity)
	copy(args, stack[:arity])
	st := registry.Invoke(ctx, suites, name, args)
	stack[0] = api.EncodeI32(int32(st))
}
