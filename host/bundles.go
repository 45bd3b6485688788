package host

import (
	"context"

	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/hostfuncs"
)

// suiteBinder is implemented by bundles whose plugins reach the suites
// through imported functions rather than through FetchSuite.
type suiteBinder interface {
	BindSuites(*hostfuncs.Suites)
}

// loadedBundle is an open bundle and the suites its plugins see.
type loadedBundle struct {
	name   string
	bundle ports.Bundle
	suites *hostfuncs.Suites
	// refs counts plugins of this bundle registered with the host.
	refs int
}

// bundleCache opens each bundle once and closes it when its last plugin
// is unloaded.
type bundleCache struct {
	opener  ports.BundleOpener
	state   *hostfuncs.State
	bundles map[string]*loadedBundle
}

func newBundleCache(opener ports.BundleOpener, state *hostfuncs.State) *bundleCache {
	return &bundleCache{
		opener:  opener,
		state:   state,
		bundles: make(map[string]*loadedBundle),
	}
}

// acquire returns the open bundle called name, opening it on first use.
func (c *bundleCache) acquire(ctx context.Context, name string) (*loadedBundle, error) {
	if lb, ok := c.bundles[name]; ok {
		return lb, nil
	}
	b, err := c.opener.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	suites := hostfuncs.NewSuites(c.state, b.Memory(), b.Allocator())
	if binder, ok := b.(suiteBinder); ok {
		binder.BindSuites(suites)
	}
	lb := &loadedBundle{name: name, bundle: b, suites: suites}
	c.bundles[name] = lb
	c.state.Logger().DebugContext(ctx, "bundle opened",
		"bundle", name, "path", b.Path(), "plugins", len(b.Plugins()))
	return lb, nil
}

// releaseIfUnused closes a bundle that no registered plugin references,
// such as one opened only to list its plugins.
func (c *bundleCache) releaseIfUnused(ctx context.Context, name string) error {
	lb, ok := c.bundles[name]
	if !ok || lb.refs > 0 {
		return nil
	}
	delete(c.bundles, name)
	return lb.bundle.Close(ctx)
}

// release drops one plugin reference and closes the bundle at zero.
func (c *bundleCache) release(ctx context.Context, name string) error {
	lb, ok := c.bundles[name]
	if !ok {
		return nil
	}
	if lb.refs > 0 {
		lb.refs--
	}
	return c.releaseIfUnused(ctx, name)
}

// closeAll closes every open bundle and returns the first error.
func (c *bundleCache) closeAll(ctx context.Context) error {
	var first error
	for _, name := range sortedKeys(c.bundles) {
		if err := c.bundles[name].bundle.Close(ctx); err != nil && first == nil {
			first = err
		}
	}
	clear(c.bundles)
	return first
}
