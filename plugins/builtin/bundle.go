package builtin

import (
	"context"
	"slices"

	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/internal/abi"
)

// PathPrefix marks the file path of builtin bundles.
const PathPrefix = "builtin:"

// Bundle is a builtin bundle. Its plugins share one arena as their memory.
type Bundle struct {
	name    string
	arena   *abi.Arena
	plugins []ports.Plugin
}

func newBundle(name string, filters ...*filter) *Bundle {
	b := &Bundle{name: name, arena: abi.NewArena()}
	for _, f := range filters {
		b.plugins = append(b.plugins, &Plugin{filter: f, mem: b.arena})
	}
	return b
}

// Name implements ports.Bundle.
func (b *Bundle) Name() string { return b.name }

// Path implements ports.Bundle.
func (b *Bundle) Path() string { return PathPrefix + b.name }

// Plugins implements ports.Bundle.
func (b *Bundle) Plugins() []ports.Plugin { return b.plugins }

// Memory implements ports.Bundle.
func (b *Bundle) Memory() ports.Memory { return b.arena }

// Allocator implements ports.Bundle.
func (b *Bundle) Allocator() ports.Allocator { return b.arena }

// Close implements ports.Bundle.
func (b *Bundle) Close(context.Context) error { return nil }

var catalog = map[string]func() []*filter{
	"identity.ofx": func() []*filter { return []*filter{identityFilter()} },
	"invert.ofx":   func() []*filter { return []*filter{invertFilter()} },
	"gain.ofx":     func() []*filter { return []*filter{gainFilter()} },
	"builtin.ofx": func() []*filter {
		return []*filter{identityFilter(), invertFilter(), gainFilter()}
	},
}

// Catalog returns a fresh builtin bundle called name.
func Catalog(name string) (ports.Bundle, bool) {
	mk, ok := catalog[name]
	if !ok {
		return nil, false
	}
	return newBundle(name, mk()...), true
}

// Names lists the builtin bundle names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
