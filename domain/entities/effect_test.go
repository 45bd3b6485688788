package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Monotonic(t *testing.T) {
	e := NewEffect("inst", nil)
	assert.Equal(t, StateDescribed, e.State())

	require.NoError(t, e.Transition(StateCreated))
	require.NoError(t, e.Transition(StateActive))
	assert.Error(t, e.Transition(StateCreated))
	assert.Error(t, e.Transition(StateActive))
	require.NoError(t, e.Transition(StateDestroyed))
	assert.Error(t, e.Transition(StateDestroyed))
	assert.Equal(t, StateDestroyed, e.State())
}

func TestState_ParamAccess(t *testing.T) {
	assert.False(t, StateDescribed.AcceptsParamAccess())
	assert.True(t, StateCreated.AcceptsParamAccess())
	assert.True(t, StateActive.AcceptsParamAccess())
	assert.False(t, StateDestroyed.AcceptsParamAccess())
}

func TestEffect_DefineClipIsIdempotent(t *testing.T) {
	e := NewEffect("desc", nil)
	a := e.DefineClip(ClipSource)
	b := e.DefineClip(ClipSource)
	e.DefineClip(ClipOutput)

	assert.Same(t, a, b)
	require.Len(t, e.Clips(), 2)
	assert.Equal(t, ClipSource, e.Clips()[0].Name)
	assert.Equal(t, ClipOutput, e.Clips()[1].Name)

	depth, st := a.Props.GetString(ImageEffectPropPixelDepth, 0)
	require.Equal(t, StatOK, st)
	assert.Equal(t, BitDepthFloat, depth)
}

func TestEffect_CopyClipsFromIsDeep(t *testing.T) {
	desc := NewEffect("desc", nil)
	desc.DefineClip(ClipSource)

	inst := NewEffect("inst", nil)
	inst.CopyClipsFrom(desc)

	src, _ := desc.Clip(ClipSource)
	require.Equal(t, StatOK, src.Props.Set(PropLabel, 0, String("changed")))

	copied, ok := inst.Clip(ClipSource)
	require.True(t, ok)
	assert.False(t, copied.Props.Has(PropLabel))
}

func TestParamSet_DefineAndInstantiate(t *testing.T) {
	desc := NewParamSet("desc")

	d, st := desc.Define("gain", ParamTypeDouble)
	require.Equal(t, StatOK, st)
	require.Equal(t, StatOK, d.Props.Set(ParamPropDefault, 0, Double(1.5)))

	_, st = desc.Define("gain", ParamTypeDouble)
	assert.Equal(t, StatErrExists, st)

	_, st = desc.Define("bogus", ParamType("OfxParamTypeBogus"))
	assert.Equal(t, StatErrUnknown, st)

	bad, st := desc.Define("mode", ParamTypeInteger)
	require.Equal(t, StatOK, st)
	require.Equal(t, StatOK, bad.Props.Set(ParamPropDefault, 0, String("x")))

	live, coerced, err := desc.Instantiate("inst")
	require.NoError(t, err)
	assert.Equal(t, []string{"mode"}, coerced)

	gain, ok := live.Param("gain")
	require.True(t, ok)
	assert.Equal(t, DoubleValue(1.5), gain.Value())

	// Instance params do not share properties with descriptors.
	require.Equal(t, StatOK, d.Props.Set(PropLabel, 0, String("Gain")))
	assert.False(t, gain.Props.Has(PropLabel))
}

func TestParamSet_InstantiateRejectsRetypedDescriptor(t *testing.T) {
	desc := NewParamSet("desc")
	d, _ := desc.Define("p", ParamTypeDouble)
	d.Props.Define(ParamPropType, String("OfxParamTypeBogus"))

	_, _, err := desc.Instantiate("inst")
	assert.ErrorContains(t, err, "unknown type")
}

func TestParam_SetValueChecksType(t *testing.T) {
	desc := NewParamSet("desc")
	desc.Define("flag", ParamTypeBoolean)
	desc.Define("grp", ParamTypeGroup)
	live, _, err := desc.Instantiate("inst")
	require.NoError(t, err)

	flag, _ := live.Param("flag")
	assert.Equal(t, StatOK, flag.SetValue(BooleanValue(true)))
	assert.Equal(t, StatErrValue, flag.SetValue(IntegerValue(1)))
	assert.Equal(t, BooleanValue(true), flag.Value())

	grp, _ := live.Param("grp")
	assert.Equal(t, StatFailed, grp.SetValue(BooleanValue(true)))
}

func TestParamSet_MarshalJSON(t *testing.T) {
	desc := NewParamSet("desc")
	desc.Define("gain", ParamTypeDouble)
	desc.Define("center", ParamTypeDouble2D)
	live, _, err := desc.Instantiate("inst")
	require.NoError(t, err)

	out, err := json.Marshal(live)
	require.NoError(t, err)
	assert.Equal(t, `{"gain":{"type":"Double","v":0},"center":{"type":"Double2D","v":[0,0]}}`, string(out))
}

func TestRectI(t *testing.T) {
	r := RectI{X1: 0, Y1: 0, X2: 10, Y2: 5}
	assert.Equal(t, 10, r.Width())
	assert.Equal(t, 5, r.Height())
	assert.False(t, r.Empty())
	assert.Equal(t, RectI{X1: 2, Y1: 0, X2: 10, Y2: 3}, r.Crop(RectI{X1: 2, Y1: -1, X2: 20, Y2: 3}))
	assert.True(t, RectI{X1: 3, X2: 3, Y2: 1}.Empty())
}

func TestImage_PixelAccess(t *testing.T) {
	img := NewImage(3, 2)
	assert.Equal(t, 48, img.RowBytes())
	assert.Equal(t, 96, img.ByteSize())

	img.Set(2, 1, [4]float32{0.1, 0.2, 0.3, 1})
	assert.Equal(t, [4]float32{0.1, 0.2, 0.3, 1}, img.At(2, 1))
	assert.Equal(t, [4]float32{}, img.At(0, 0))
}
