package builtin_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/hostfuncs"
	"github.com/ofxdriver/ofxdriver/plugins/builtin"
)

type harness struct {
	ctx    context.Context
	state  *hostfuncs.State
	plugin ports.Plugin
}

func newHarness(t *testing.T, bundleName string) *harness {
	t.Helper()
	b, ok := builtin.Catalog(bundleName)
	require.True(t, ok)
	require.Len(t, b.Plugins(), 1)
	state := hostfuncs.NewState(entities.NewPropertySet("host"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	suites := hostfuncs.NewSuites(state, b.Memory(), b.Allocator())
	h := &harness{ctx: context.Background(), state: state, plugin: b.Plugins()[0]}
	require.NoError(t, h.plugin.SetHost(h.ctx, suites))
	return h
}

func (h *harness) call(t *testing.T, action string, effect *entities.Effect, args *entities.PropertySet) entities.Status {
	t.Helper()
	var eh hostfuncs.Handle
	if effect != nil {
		eh = h.state.RegisterEffect(effect)
	}
	ah := h.state.RegisterArgs(args)
	defer h.state.ReleaseArgs(ah)
	st, err := h.plugin.MainEntry(h.ctx, action, eh, ah, 0)
	require.NoError(t, err)
	return st
}

func filterArgs(name string) *entities.PropertySet {
	return entities.NewPropertySet("args",
		entities.Prop(entities.ImageEffectPropContext, entities.String(name)),
	)
}

func TestCatalog(t *testing.T) {
	assert.Equal(t, []string{"builtin.ofx", "gain.ofx", "identity.ofx", "invert.ofx"}, builtin.Names())

	b, ok := builtin.Catalog("builtin.ofx")
	require.True(t, ok)
	assert.Equal(t, "builtin:builtin.ofx", b.Path())
	var ids []string
	for _, p := range b.Plugins() {
		ids = append(ids, p.Identifier())
		assert.Equal(t, entities.ImageEffectPluginAPI, p.API())
		assert.Equal(t, 1, p.APIVersion())
	}
	assert.Equal(t, []string{builtin.IdentityID, builtin.InvertID, builtin.GainID}, ids)

	_, ok = builtin.Catalog("missing.ofx")
	assert.False(t, ok)

	b1, _ := builtin.Catalog("invert.ofx")
	b2, _ := builtin.Catalog("invert.ofx")
	assert.NotSame(t, b1, b2, "every lookup opens a fresh bundle")
}

func TestDescribe(t *testing.T) {
	h := newHarness(t, "invert.ofx")
	desc := entities.NewEffect("desc", nil)

	require.Equal(t, entities.StatOK, h.call(t, entities.ActionLoad, nil, nil))
	require.Equal(t, entities.StatOK, h.call(t, entities.ActionDescribe, desc, nil))

	label, _ := desc.Props.GetString(entities.PropLabel, 0)
	assert.Equal(t, "Invert", label)
	assert.True(t, desc.Props.Contains(entities.ImageEffectPropSupportedContexts, entities.ImageEffectContextFilter))
	assert.True(t, desc.Props.Contains(entities.ImageEffectPropSupportedPixelDepths, entities.BitDepthFloat))
}

func TestDescribeInContext(t *testing.T) {
	h := newHarness(t, "gain.ofx")
	filter := entities.NewEffect("filter", nil)

	require.Equal(t, entities.StatOK, h.call(t, entities.ActionDescribeInContext, filter, filterArgs(entities.ImageEffectContextFilter)))

	_, ok := filter.Clip(entities.ClipSource)
	assert.True(t, ok)
	_, ok = filter.Clip(entities.ClipOutput)
	assert.True(t, ok)

	d, ok := filter.Params.Descriptor("gain")
	require.True(t, ok)
	assert.Equal(t, entities.ParamTypeDouble, d.Type)
	def, st := d.Props.GetDouble(entities.ParamPropDefault, 0)
	require.Equal(t, entities.StatOK, st)
	assert.Equal(t, 1.0, def)
	hint, _ := d.Props.GetString(entities.ParamPropHint, 0)
	assert.Equal(t, "Colour multiplier", hint)
}

func TestDescribeInContext_OtherContext(t *testing.T) {
	h := newHarness(t, "identity.ofx")
	filter := entities.NewEffect("filter", nil)

	st := h.call(t, entities.ActionDescribeInContext, filter, filterArgs("OfxImageEffectContextGenerator"))
	assert.Equal(t, entities.StatErrUnsupported, st)
	assert.Empty(t, filter.Clips())
}

func TestUntrappedAction(t *testing.T) {
	h := newHarness(t, "identity.ofx")
	assert.Equal(t, entities.StatReplyDefault, h.call(t, entities.ActionGetRegionOfDefinition, entities.NewEffect("x", nil), nil))
}

type bareHost struct{}

func (bareHost) PropertySet() ports.Handle  { return 0 }
func (bareHost) FetchSuite(string, int) any { return nil }

func TestSetHost_MissingSuite(t *testing.T) {
	b, _ := builtin.Catalog("identity.ofx")
	p := b.Plugins()[0]

	err := p.SetHost(context.Background(), bareHost{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), entities.PropertySuite)

	st, err := p.MainEntry(context.Background(), entities.ActionLoad, 0, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, entities.StatErrMissingHostFeature, st)
}
