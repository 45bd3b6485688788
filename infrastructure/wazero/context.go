package wazero

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

// contextKey is a private type for context keys.
type contextKey struct {
	name string
}

var bundleNameKey = &contextKey{name: "bundle_name"}

// WithBundleName adds the bundle name to the context.
// Host functions use it to identify which bundle is calling.
func WithBundleName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, bundleNameKey, name)
}

// BundleNameFromContext retrieves the bundle name from the context.
func BundleNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(bundleNameKey).(string)
	return name, ok
}

// GetBundleName extracts the bundle name from context, falling back to the module name.
func GetBundleName(ctx context.Context, mod api.Module) string {
	if name, ok := BundleNameFromContext(ctx); ok {
		return name
	}
	return mod.Name()
}
