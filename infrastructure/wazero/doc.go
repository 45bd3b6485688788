// Package wazero runs wasm32 plugin bundles under the wazero runtime.
//
// Every function of a hostfuncs.Registry is exported from a host module
// (default: "OfxHost") that guests import to build their suite tables.
// Calls are routed to the hostfuncs.Suites bound to the calling module, so
// every pointer a guest passes is resolved against its own linear memory.
//
// # Guest ABI
//
// A bundle module exports:
//
//	memory
//	allocate(size i32) i32                    // guest heap, used for host copies
//	deallocate(ptr i32)
//	OfxGetNumberOfPlugins() i32
//	OfxGetPlugin(index i32) i32               // address of a plugin record
//	OfxPluginSetHost(index i32, host i32)
//	OfxPluginMainEntry(index, action, handle, inArgs, outArgs i32) i32
//
// and optionally _initialize, which runs once after instantiation. A plugin
// record is five little-endian u32 words: API name pointer, API version,
// identifier pointer, major version, minor version. Function pointers never
// cross the boundary: the host addresses plugins by index.
//
// # Basic Usage
//
//	rt, err := wazero.NewRuntime(ctx, wazero.WithMemoryLimitPages(4096))
//	if err != nil {
//	    return err
//	}
//	defer rt.Close(ctx)
//
//	b, err := rt.Load(ctx, wazero.Source{Name: "invert", Wasm: wasmBytes})
//	if err != nil {
//	    return err
//	}
//	b.BindSuites(hostfuncs.NewSuites(state, b.Memory(), b.Allocator()))
package wazero
