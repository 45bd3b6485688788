package wazero

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/ofxdriver/ofxdriver/hostfuncs"
)

// DefaultMemoryLimitPages caps guest linear memory at 256 MiB.
const DefaultMemoryLimitPages = 4096

// runtimeConfig holds configuration for a Runtime.
type runtimeConfig struct {
	registry         *hostfuncs.Registry
	adapter          []AdapterOption
	memoryLimitPages uint32
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		memoryLimitPages: DefaultMemoryLimitPages,
	}
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*runtimeConfig)

// WithRegistry sets the host functions exported to guests. The default is
// hostfuncs.DefaultRegistry().
func WithRegistry(r *hostfuncs.Registry) RuntimeOption {
	return func(c *runtimeConfig) {
		c.registry = r
	}
}

// WithMemoryLimitPages caps the linear memory of every guest, in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) RuntimeOption {
	return func(c *runtimeConfig) {
		c.memoryLimitPages = pages
	}
}

// WithHostModuleName sets the module name guests import host functions from.
func WithHostModuleName(name string) RuntimeOption {
	return func(c *runtimeConfig) {
		c.adapter = append(c.adapter, WithModuleName(name))
	}
}

// Runtime owns a wazero runtime with the host module instantiated. Bundles
// loaded from it share the host module and are isolated from each other.
type Runtime struct {
	rt       wazero.Runtime
	bindings *Bindings
	seq      atomic.Uint64
}

// NewRuntime creates a runtime and registers the host functions.
func NewRuntime(ctx context.Context, opts ...RuntimeOption) (*Runtime, error) {
	cfg := defaultRuntimeConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.registry == nil {
		reg, err := hostfuncs.DefaultRegistry()
		if err != nil {
			return nil, fmt.Errorf("failed to create default registry: %w", err)
		}
		cfg.registry = reg
	}

	rcfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cfg.memoryLimitPages > 0 {
		rcfg = rcfg.WithMemoryLimitPages(cfg.memoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, rcfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	r := &Runtime{rt: rt, bindings: NewBindings()}
	if err := RegisterWithRuntime(ctx, rt, cfg.registry, r.bindings, cfg.adapter...); err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}
	return r, nil
}

// Close releases the runtime and every bundle loaded from it.
func (r *Runtime) Close(ctx context.Context) error {
	return r.rt.Close(ctx)
}

// Source is a bundle executable to load.
type Source struct {
	Name string
	Path string
	Wasm []byte
	// MemoryLimitPages rejects modules whose initial memory is larger.
	// Zero means no per-bundle limit.
	MemoryLimitPages uint32
}

// Load compiles and instantiates a bundle module and discovers its plugins.
func (r *Runtime) Load(ctx context.Context, src Source) (*Bundle, error) {
	compiled, err := r.rt.CompileModule(ctx, src.Wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	if err := checkModule(compiled, src.MemoryLimitPages); err != nil {
		_ = compiled.Close(ctx)
		return nil, err
	}

	name := fmt.Sprintf("%s#%d", src.Name, r.seq.Add(1))
	mod, err := r.rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions())
	if err != nil {
		_ = compiled.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	ctx = WithBundleName(ctx, src.Name)
	if init := mod.ExportedFunction(exportInitialize); init != nil {
		if _, err := init.Call(ctx); err != nil {
			_ = mod.Close(ctx)
			_ = compiled.Close(ctx)
			return nil, fmt.Errorf("failed to call %s: %w", exportInitialize, err)
		}
	}

	b := &Bundle{
		name:     src.Name,
		path:     src.Path,
		rt:       r,
		compiled: compiled,
		mod:      mod,
		alloc: &guestAllocator{
			allocate:   mod.ExportedFunction(exportAllocate),
			deallocate: mod.ExportedFunction(exportDeallocate),
		},
		actions: make(map[string]uint32),
	}
	if err := b.discover(ctx); err != nil {
		_ = b.Close(ctx)
		return nil, err
	}
	return b, nil
}

func checkModule(compiled wazero.CompiledModule, limitPages uint32) error {
	exports := compiled.ExportedFunctions()
	for _, name := range requiredExports {
		if _, ok := exports[name]; !ok {
			return fmt.Errorf("module is missing export %q", name)
		}
	}
	mems := compiled.ExportedMemories()
	if _, ok := mems["memory"]; !ok {
		return fmt.Errorf("module is missing export %q", "memory")
	}
	if limitPages > 0 {
		for _, m := range mems {
			if m.Min() > limitPages {
				return fmt.Errorf("module needs %d memory pages, limit is %d", m.Min(), limitPages)
			}
		}
	}
	return nil
}
