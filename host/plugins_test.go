package host_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/host"
	"github.com/ofxdriver/ofxdriver/hostfuncs"
	"github.com/ofxdriver/ofxdriver/infrastructure/bundle"
	"github.com/ofxdriver/ofxdriver/internal/abi"
	"github.com/ofxdriver/ofxdriver/internal/handles"
	"github.com/ofxdriver/ofxdriver/internal/testutil"
)

const stubID = "net.example.stub"

// stubPlugin is a scriptable filter. Each hook, when set, replaces the
// default reply for its action.
type stubPlugin struct {
	props   *hostfuncs.PropertySuite
	effects *hostfuncs.ImageEffectSuite

	mu      sync.Mutex
	actions []string
	leaked  handles.Handle

	panicOn  string
	statusOn map[string]entities.Status
	leak     bool

	// rod replaces the region of definition; roiPad grows the Source
	// region of interest on every side.
	rod    *entities.RectD
	roiPad float64

	// Captured during the region and render actions.
	sourceRoD    entities.RectD
	renderWindow []int32
	srcBounds    []int32
	dstBounds    []int32
	dstRowBytes  int32
}

func (p *stubPlugin) API() string                    { return entities.ImageEffectPluginAPI }
func (p *stubPlugin) APIVersion() int                { return entities.ImageEffectPluginAPIVersion }
func (p *stubPlugin) Identifier() string             { return stubID }
func (p *stubPlugin) Version() (major, minor uint32) { return 2, 5 }

func (p *stubPlugin) SetHost(_ context.Context, h ports.Host) error {
	p.props, _ = h.FetchSuite(entities.PropertySuite, 1).(*hostfuncs.PropertySuite)
	p.effects, _ = h.FetchSuite(entities.ImageEffectSuite, 1).(*hostfuncs.ImageEffectSuite)
	return nil
}

func (p *stubPlugin) MainEntry(_ context.Context, action string, effect, inArgs, outArgs ports.Handle) (entities.Status, error) {
	p.mu.Lock()
	p.actions = append(p.actions, action)
	p.mu.Unlock()

	if action == p.panicOn {
		panic("stub exploded")
	}
	if st, ok := p.statusOn[action]; ok {
		return st, nil
	}
	switch action {
	case entities.ActionDescribe:
		ph, st := p.effects.GetPropertySet(effect)
		if st != entities.StatOK {
			return st, nil
		}
		p.props.SetString(ph, entities.ImageEffectPropSupportedContexts, 0, []byte(entities.ImageEffectContextFilter))
		p.props.SetString(ph, entities.ImageEffectPropSupportedPixelDepths, 0, []byte(entities.BitDepthFloat))
	case entities.ActionDescribeInContext:
		p.effects.ClipDefine(effect, entities.ClipSource)
		p.effects.ClipDefine(effect, entities.ClipOutput)
	case entities.ActionGetRegionOfDefinition:
		clip, _, _ := p.effects.ClipGetHandle(effect, entities.ClipSource)
		p.sourceRoD, _ = p.effects.ClipGetRegionOfDefinition(clip, 0)
		if p.rod == nil {
			return entities.StatReplyDefault, nil
		}
		return p.props.SetDoubleN(outArgs, entities.ImageEffectPropRegionOfDefinition, []float64{p.rod.X1, p.rod.Y1, p.rod.X2, p.rod.Y2}), nil
	case entities.ActionGetRegionsOfInterest:
		clip, _, _ := p.effects.ClipGetHandle(effect, entities.ClipSource)
		p.sourceRoD, _ = p.effects.ClipGetRegionOfDefinition(clip, 0)
		if p.roiPad == 0 {
			return entities.StatReplyDefault, nil
		}
		r, st := p.props.GetDoubleN(inArgs, entities.ImageEffectPropRegionOfInterest, 4)
		if st != entities.StatOK {
			return st, nil
		}
		d := p.roiPad
		return p.props.SetDoubleN(outArgs, entities.ImageClipPropRoIPrefix+entities.ClipSource, []float64{r[0] - d, r[1] - d, r[2] + d, r[3] + d}), nil
	case entities.ActionRender:
		p.renderWindow, _ = p.props.GetIntN(inArgs, entities.ImageEffectPropRenderWindow, 4)
		p.srcBounds, _ = p.imageProps(effect, entities.ClipSource)
		p.dstBounds, p.dstRowBytes = p.imageProps(effect, entities.ClipOutput)
		if p.leak {
			clip, _, _ := p.effects.ClipGetHandle(effect, entities.ClipSource)
			p.leaked, _ = p.effects.ClipGetImage(clip, 0, nil)
		}
	}
	return entities.StatOK, nil
}

// imageProps reads the bounds and row bytes of the image bound to a clip.
func (p *stubPlugin) imageProps(effect ports.Handle, clipName string) ([]int32, int32) {
	clip, _, _ := p.effects.ClipGetHandle(effect, clipName)
	img, st := p.effects.ClipGetImage(clip, 0, nil)
	if st != entities.StatOK {
		return nil, 0
	}
	defer p.effects.ClipReleaseImage(img)
	bounds, _ := p.props.GetIntN(img, entities.ImagePropBounds, 4)
	rowBytes, _ := p.props.GetInt(img, entities.ImagePropRowBytes, 0)
	return bounds, rowBytes
}

func (p *stubPlugin) seen() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.actions...)
}

type stubBundle struct {
	arena  *abi.Arena
	plugin *stubPlugin
	closed int
}

func (b *stubBundle) Name() string               { return "stub.ofx" }
func (b *stubBundle) Path() string               { return "builtin:stub.ofx" }
func (b *stubBundle) Plugins() []ports.Plugin    { return []ports.Plugin{b.plugin} }
func (b *stubBundle) Memory() ports.Memory       { return b.arena }
func (b *stubBundle) Allocator() ports.Allocator { return b.arena }

func (b *stubBundle) Close(context.Context) error {
	b.closed++
	return nil
}

func newStubHost(t *testing.T, p *stubPlugin, opts ...host.Option) (*host.Host, *stubBundle, *testutil.MemoryCodec) {
	t.Helper()
	b := &stubBundle{arena: abi.NewArena(), plugin: p}
	opener := bundle.NewOpener(bundle.WithCatalog(func(name string) (ports.Bundle, bool) {
		return b, name == b.Name()
	}))
	codec := testutil.NewMemoryCodec()
	base := []host.Option{
		host.WithOpener(opener),
		host.WithCodec(codec),
		host.WithOutput(io.Discard),
		host.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	h := host.New(append(base, opts...)...)
	t.Cleanup(func() { _ = h.Close(context.Background()) })
	return h, b, codec
}

func createStub(t *testing.T, h *host.Host, instance string) {
	t.Helper()
	ctx := context.Background()
	_, err := h.CreatePlugin(ctx, "stub.ofx", stubID)
	require.NoError(t, err)
	_, err = h.CreateFilter(ctx, stubID, instance)
	require.NoError(t, err)
}

func TestLifecycle_ActionOrder(t *testing.T) {
	p := &stubPlugin{}
	h, b, _ := newStubHost(t, p)
	ctx := context.Background()

	createStub(t, h, "a")
	require.NoError(t, h.SetParams(ctx, "a", nil, true))
	require.NoError(t, h.DestroyInstance(ctx, "a"))
	require.NoError(t, h.UnloadPlugin(ctx, stubID))

	assert.Equal(t, []string{
		entities.ActionLoad,
		entities.ActionDescribe,
		entities.ActionDescribeInContext,
		entities.ActionCreateInstance,
		entities.ActionBeginInstanceChanged,
		entities.ActionEndInstanceChanged,
		entities.ActionDestroyInstance,
		entities.ActionUnload,
	}, p.seen())
	assert.Equal(t, 1, b.closed)
}

func TestLifecycle_DescribeFilterIsCached(t *testing.T) {
	p := &stubPlugin{}
	h, _, _ := newStubHost(t, p)
	ctx := context.Background()

	createStub(t, h, "a")
	_, err := h.CreateFilter(ctx, stubID, "b")
	require.NoError(t, err)

	n := 0
	for _, a := range p.seen() {
		if a == entities.ActionDescribeInContext {
			n++
		}
	}
	assert.Equal(t, 1, n)
}

func TestLifecycle_LoadFailure(t *testing.T) {
	p := &stubPlugin{statusOn: map[string]entities.Status{entities.ActionLoad: entities.StatFailed}}
	h, b, _ := newStubHost(t, p)

	_, err := h.CreatePlugin(context.Background(), "stub.ofx", stubID)

	se := testutil.RequireErrorAs[*errors.StatusError](t, err)
	assert.Equal(t, entities.ActionLoad, se.Action)
	assert.False(t, h.Registry().HasPlugin(stubID))
	assert.Equal(t, 1, b.closed, "an unused bundle is closed again")
}

func TestLifecycle_CreateInstanceFailure(t *testing.T) {
	p := &stubPlugin{statusOn: map[string]entities.Status{entities.ActionCreateInstance: entities.StatErrMemory}}
	h, _, _ := newStubHost(t, p)
	ctx := context.Background()
	_, err := h.CreatePlugin(ctx, "stub.ofx", stubID)
	require.NoError(t, err)

	_, err = h.CreateFilter(ctx, stubID, "a")

	se := testutil.RequireErrorAs[*errors.StatusError](t, err)
	assert.Equal(t, entities.StatErrMemory, se.Status)
	_, err = h.Registry().Instance("a")
	testutil.RequireErrorAs[*errors.NotFoundError](t, err)

	p.statusOn = nil
	_, err = h.CreateFilter(ctx, stubID, "a")
	assert.NoError(t, err, "the name is free after a failed create")
}

func TestLifecycle_DestroyFailureStillDeregisters(t *testing.T) {
	p := &stubPlugin{statusOn: map[string]entities.Status{entities.ActionDestroyInstance: entities.StatFailed}}
	h, _, _ := newStubHost(t, p)
	ctx := context.Background()
	createStub(t, h, "a")
	inst, err := h.Registry().Instance("a")
	require.NoError(t, err)

	err = h.DestroyInstance(ctx, "a")

	testutil.RequireErrorAs[*errors.StatusError](t, err)
	assert.Empty(t, h.Registry().InstanceNames())
	assert.Equal(t, handles.KindInvalid, h.State().Handles.KindOf(inst.Handle))
	assert.Equal(t, entities.StateDestroyed, inst.Effect.State())
}

func TestLifecycle_PanicIsDefect(t *testing.T) {
	p := &stubPlugin{panicOn: entities.ActionRender}
	h, _, codec := newStubHost(t, p)
	codec.Put("in.pfm", testutil.GradientImage(2, 2))
	createStub(t, h, "a")

	report := h.Execute(context.Background(), []entities.Command{
		&entities.RenderFilter{InstanceName: "a", InputFile: "in.pfm", OutputFile: "out.pfm"},
		&entities.PrintParams{InstanceName: "a"},
	})

	ce := testutil.RequireCommandError(t, report.Errors, 0, true)
	de := testutil.RequireErrorAs[*errors.DefectError](t, ce)
	assert.Contains(t, de.Error(), "stub exploded")
	assert.True(t, report.Halted)
	_, written := codec.Get("out.pfm")
	assert.False(t, written)
}

func TestRender_ReleasesLeakedImages(t *testing.T) {
	p := &stubPlugin{leak: true}
	h, _, codec := newStubHost(t, p)
	in := testutil.GradientImage(3, 2)
	codec.Put("in.pfm", in)
	createStub(t, h, "a")

	require.NoError(t, h.RenderFilter(context.Background(), "a", "in.pfm", "out.pfm", nil))

	require.NotZero(t, p.leaked)
	assert.Equal(t, handles.KindInvalid, h.State().Handles.KindOf(p.leaked))
	out, ok := codec.Get("out.pfm")
	require.True(t, ok)
	assert.Equal(t, in.Width(), out.Width())
	assert.Equal(t, in.Height(), out.Height())
}

func TestRender_StatusFailureWritesNothing(t *testing.T) {
	p := &stubPlugin{statusOn: map[string]entities.Status{entities.ActionRender: entities.StatFailed}}
	h, _, codec := newStubHost(t, p)
	codec.Put("in.pfm", testutil.GradientImage(2, 2))
	createStub(t, h, "a")

	err := h.RenderFilter(context.Background(), "a", "in.pfm", "out.pfm", nil)

	se := testutil.RequireErrorAs[*errors.StatusError](t, err)
	assert.Equal(t, entities.ActionRender, se.Action)
	assert.Equal(t, "a", se.Target)
	assert.Zero(t, codec.Writes())
}

func TestGuestBundle(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteBundle(t, dir, "guest", testutil.GuestBundle("net.example.guest", int32(entities.StatOK)))
	testutil.WriteBundle(t, dir, "broken", testutil.GuestBundle("net.example.broken", int32(entities.StatFailed)))
	out := &bytes.Buffer{}
	h := host.New(
		host.WithOpener(bundle.NewOpener(bundle.WithSearchPaths(dir))),
		host.WithOutput(out),
		host.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	defer func() { require.NoError(t, h.Close(context.Background())) }()

	report := h.Execute(context.Background(), []entities.Command{
		&entities.ListPlugins{BundleName: "guest"},
		&entities.CreatePlugin{BundleName: "guest", PluginName: "net.example.guest"},
		&entities.UnloadPlugin{PluginName: "net.example.guest"},
		&entities.CreatePlugin{BundleName: "guest", PluginName: "net.example.guest"},
		&entities.CreateFilter{PluginName: "net.example.guest", InstanceName: "g"},
	})

	ce := testutil.RequireCommandError(t, report.Errors, 4, true)
	assert.Contains(t, ce.Error(), "filter context not supported")
	assert.Contains(t, out.String(), "net.example.guest")
	assert.Equal(t, []string{"net.example.guest"}, h.Registry().PluginNames())

	_, err := h.CreatePlugin(context.Background(), "broken", "net.example.broken")
	se := testutil.RequireErrorAs[*errors.StatusError](t, err)
	assert.Equal(t, entities.ActionLoad, se.Action)
	assert.Equal(t, entities.StatFailed, se.Status)
}
