package ports

import (
	"context"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// Handle is an opaque 32-bit handle passed across the plugin boundary.
// Zero is the null handle.
type Handle = uint32

// Host is what a plugin receives from setHost: the host property set and
// the suite lookup.
type Host interface {
	// PropertySet returns the handle of the host property set.
	PropertySet() Handle
	// FetchSuite returns the suite implementation for name and version,
	// or nil if the host does not provide it.
	FetchSuite(name string, version int) any
}

// Plugin is one plugin exported by a bundle.
type Plugin interface {
	API() string
	APIVersion() int
	Identifier() string
	Version() (major, minor uint32)
	// SetHost hands the host to the plugin before any action.
	SetHost(ctx context.Context, host Host) error
	// MainEntry dispatches an action. Handles are zero when an action
	// takes no effect or arguments.
	MainEntry(ctx context.Context, action string, effect, inArgs, outArgs Handle) (entities.Status, error)
}

// Bundle is a loaded plugin bundle.
type Bundle interface {
	Name() string
	Path() string
	Plugins() []Plugin
	// Memory is the linear memory plugins of this bundle dereference
	// pointers in.
	Memory() Memory
	Allocator() Allocator
	Close(ctx context.Context) error
}

// BundleOpener locates and opens bundles by name.
type BundleOpener interface {
	Open(ctx context.Context, name string) (Bundle, error)
}
