package wazero

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/hostfuncs"
	"github.com/ofxdriver/ofxdriver/internal/abi"
)

// Guest exports.
const (
	exportInitialize         = "_initialize"
	exportAllocate           = "allocate"
	exportDeallocate         = "deallocate"
	exportGetNumberOfPlugins = "OfxGetNumberOfPlugins"
	exportGetPlugin          = "OfxGetPlugin"
	exportSetHost            = "OfxPluginSetHost"
	exportMainEntry          = "OfxPluginMainEntry"
)

var requiredExports = []string{
	exportAllocate, exportDeallocate,
	exportGetNumberOfPlugins, exportGetPlugin, exportSetHost, exportMainEntry,
}

const (
	// pluginRecordSize is the size of the record OfxGetPlugin points to.
	pluginRecordSize = 20
	// maxPlugins bounds OfxGetNumberOfPlugins.
	maxPlugins = 1024
)

// Bundle is a wasm bundle instantiated in a Runtime. It implements
// ports.Bundle.
type Bundle struct {
	name     string
	path     string
	rt       *Runtime
	compiled wazero.CompiledModule
	mod      api.Module
	alloc    *guestAllocator
	plugins  []ports.Plugin

	mu      sync.Mutex
	actions map[string]uint32
	closed  bool
}

var _ ports.Bundle = (*Bundle)(nil)

// Name returns the bundle name.
func (b *Bundle) Name() string { return b.name }

// Path returns the path the executable was read from.
func (b *Bundle) Path() string { return b.path }

// Plugins returns the plugins the module exports, in index order.
func (b *Bundle) Plugins() []ports.Plugin { return b.plugins }

// Memory returns the module's linear memory.
func (b *Bundle) Memory() ports.Memory { return b.mod.Memory() }

// Allocator allocates in the module's heap through its allocate export.
func (b *Bundle) Allocator() ports.Allocator { return b.alloc }

// ModuleName returns the name the module was instantiated under.
func (b *Bundle) ModuleName() string { return b.mod.Name() }

// BindSuites routes the module's host function calls to s.
func (b *Bundle) BindSuites(s *hostfuncs.Suites) {
	b.rt.bindings.Bind(b.mod.Name(), s)
}

// Close unbinds and closes the module. It is safe to call twice.
func (b *Bundle) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.rt.bindings.Unbind(b.mod.Name())
	return errors.Join(b.mod.Close(ctx), b.compiled.Close(ctx))
}

func (b *Bundle) call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn := b.mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("export %q not found", name)
	}
	return fn.Call(WithBundleName(ctx, b.name), params...)
}

func (b *Bundle) discover(ctx context.Context) error {
	res, err := b.call(ctx, exportGetNumberOfPlugins)
	if err != nil {
		return fmt.Errorf("%s: %w", exportGetNumberOfPlugins, err)
	}
	n := api.DecodeI32(res[0])
	if n < 0 || n > maxPlugins {
		return fmt.Errorf("%s returned %d", exportGetNumberOfPlugins, n)
	}

	mem := b.mod.Memory()
	for i := range uint32(n) {
		res, err := b.call(ctx, exportGetPlugin, api.EncodeU32(i))
		if err != nil {
			return fmt.Errorf("%s(%d): %w", exportGetPlugin, i, err)
		}
		ptr := api.DecodeU32(res[0])
		rec, ok := mem.Read(ptr, pluginRecordSize)
		if ptr == 0 || !ok {
			return fmt.Errorf("%s(%d): invalid plugin record address %#x", exportGetPlugin, i, ptr)
		}
		word := func(k int) uint32 {
			return uint32(rec[4*k]) | uint32(rec[4*k+1])<<8 | uint32(rec[4*k+2])<<16 | uint32(rec[4*k+3])<<24
		}
		apiName, err := abi.ReadString(mem, word(0))
		if err != nil {
			return fmt.Errorf("plugin %d: API name: %w", i, err)
		}
		id, err := abi.ReadString(mem, word(2))
		if err != nil {
			return fmt.Errorf("plugin %d: identifier: %w", i, err)
		}
		b.plugins = append(b.plugins, &plugin{
			bundle:     b,
			index:      i,
			api:        apiName,
			apiVersion: int(int32(word(1))),
			id:         id,
			major:      word(3),
			minor:      word(4),
		})
	}
	return nil
}

// actionString returns the guest copy of an action name, made once per
// bundle.
func (b *Bundle) actionString(ctx context.Context, action string) (uint32, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ptr, ok := b.actions[action]; ok {
		return ptr, nil
	}
	ptr, err := abi.WriteCString(ctx, b.mod.Memory(), b.alloc, []byte(action))
	if err != nil {
		return 0, err
	}
	b.actions[action] = ptr
	return ptr, nil
}

// plugin is one plugin record of a wasm bundle.
type plugin struct {
	bundle     *Bundle
	index      uint32
	api        string
	apiVersion int
	id         string
	major      uint32
	minor      uint32
}

func (p *plugin) API() string                    { return p.api }
func (p *plugin) APIVersion() int                { return p.apiVersion }
func (p *plugin) Identifier() string             { return p.id }
func (p *plugin) Version() (major, minor uint32) { return p.major, p.minor }

// SetHost passes the host property set handle. The guest builds its suite
// tables from host module imports.
func (p *plugin) SetHost(ctx context.Context, host ports.Host) error {
	if _, err := p.bundle.call(ctx, exportSetHost, api.EncodeU32(p.index), api.EncodeU32(host.PropertySet())); err != nil {
		return fmt.Errorf("%s(%s): %w", exportSetHost, p.id, err)
	}
	return nil
}

// MainEntry dispatches an action. A trap is returned as an error.
func (p *plugin) MainEntry(ctx context.Context, action string, effect, inArgs, outArgs ports.Handle) (entities.Status, error) {
	actionPtr, err := p.bundle.actionString(ctx, action)
	if err != nil {
		return entities.StatErrMemory, fmt.Errorf("copy action %s: %w", action, err)
	}
	res, err := p.bundle.call(ctx, exportMainEntry,
		api.EncodeU32(p.index), api.EncodeU32(actionPtr),
		api.EncodeU32(effect), api.EncodeU32(inArgs), api.EncodeU32(outArgs))
	if err != nil {
		return entities.StatErrFatal, fmt.Errorf("%s %s(%s): %w", exportMainEntry, action, p.id, err)
	}
	return entities.Status(api.DecodeI32(res[0])), nil
}

// guestAllocator allocates through the module's allocate and deallocate
// exports.
type guestAllocator struct {
	allocate   api.Function
	deallocate api.Function
}

func (g *guestAllocator) Allocate(ctx context.Context, size uint32) (uint32, error) {
	if size == 0 {
		return 0, fmt.Errorf("wazero: zero-sized allocation")
	}
	res, err := g.allocate.Call(ctx, api.EncodeU32(size))
	if err != nil {
		return 0, fmt.Errorf("failed to call guest allocate: %w", err)
	}
	ptr := api.DecodeU32(res[0])
	if ptr == 0 {
		return 0, fmt.Errorf("guest allocate returned null for %d bytes", size)
	}
	return ptr, nil
}

func (g *guestAllocator) Free(ctx context.Context, ptr uint32) error {
	if _, err := g.deallocate.Call(ctx, api.EncodeU32(ptr)); err != nil {
		return fmt.Errorf("failed to call guest deallocate: %w", err)
	}
	return nil
}
