package wazero

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tetratelabs/wazero/api"

	"github.com/ofxdriver/ofxdriver/hostfuncs"
)

func TestDefaultAdapterConfig(t *testing.T) {
	cfg := defaultAdapterConfig()

	if cfg.ModuleName != "OfxHost" {
		t.Errorf("ModuleName = %q, want %q", cfg.ModuleName, "OfxHost")
	}
}

func TestWithModuleName(t *testing.T) {
	cfg := defaultAdapterConfig()
	WithModuleName("custom_module")(&cfg)

	if cfg.ModuleName != "custom_module" {
		t.Errorf("ModuleName = %q, want %q", cfg.ModuleName, "custom_module")
	}
}

func TestValueTypes(t *testing.T) {
	got := valueTypes([]hostfuncs.ValueType{hostfuncs.ValueI32, hostfuncs.ValueF64, hostfuncs.ValueI32})
	assert.Equal(t, []api.ValueType{api.ValueTypeI32, api.ValueTypeF64, api.ValueTypeI32}, got)
	assert.Empty(t, valueTypes(nil))
}

func TestBindings(t *testing.T) {
	b := NewBindings()
	s := &hostfuncs.Suites{}

	_, ok := b.Lookup("mod#1")
	assert.False(t, ok)

	b.Bind("mod#1", s)
	got, ok := b.Lookup("mod#1")
	assert.True(t, ok)
	assert.Same(t, s, got)

	b.Unbind("mod#1")
	_, ok = b.Lookup("mod#1")
	assert.False(t, ok)
}

func TestBundleNameContext(t *testing.T) {
	ctx := context.Background()
	_, ok := BundleNameFromContext(ctx)
	assert.False(t, ok)

	name, ok := BundleNameFromContext(WithBundleName(ctx, "invert"))
	assert.True(t, ok)
	assert.Equal(t, "invert", name)
}
