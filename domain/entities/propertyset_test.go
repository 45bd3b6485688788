package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPropertySet_GetSet(t *testing.T) {
	s := NewPropertySet("test", Prop(PropLabel, String("Invert")))

	v, st := s.Get(PropLabel, 0)
	require.Equal(t, StatOK, st)
	assert.Equal(t, Bytes("Invert"), v)

	_, st = s.Get(PropLabel, 1)
	assert.Equal(t, StatErrBadIndex, st)

	_, st = s.Get(PropLabel, -1)
	assert.Equal(t, StatErrBadIndex, st)

	_, st = s.Get("OfxPropMissing", 0)
	assert.Equal(t, StatErrUnsupported, st)
}

func TestPropertySet_SetGrowsWithUnset(t *testing.T) {
	s := NewPropertySet("test")

	require.Equal(t, StatOK, s.Set(ImageEffectPropRenderScale, 2, Double(0.5)))

	dim, st := s.Dimension(ImageEffectPropRenderScale)
	require.Equal(t, StatOK, st)
	assert.Equal(t, 3, dim)

	v, st := s.Get(ImageEffectPropRenderScale, 0)
	require.Equal(t, StatOK, st)
	assert.Equal(t, Unset{}, v)

	_, st = s.GetDouble(ImageEffectPropRenderScale, 0)
	assert.Equal(t, StatErrUnsupported, st)

	d, st := s.GetDouble(ImageEffectPropRenderScale, 2)
	require.Equal(t, StatOK, st)
	assert.Equal(t, 0.5, d)
}

func TestPropertySet_SetBoundsIndex(t *testing.T) {
	s := NewPropertySet("test")

	assert.Equal(t, StatErrBadIndex, s.Set("x", MaxDimension, Int(1)))
	dim, st := s.Dimension("x")
	assert.Equal(t, StatErrUnsupported, st)

	require.Equal(t, StatOK, s.Set("x", MaxDimension-1, Int(1)))
	dim, st = s.Dimension("x")
	require.Equal(t, StatOK, st)
	assert.Equal(t, MaxDimension, dim)
}

func TestPropertySet_KindMismatch(t *testing.T) {
	s := NewPropertySet("test", Prop(ImageEffectPropFrameRate, Double(24)))

	assert.Equal(t, StatErrUnsupported, s.Set(ImageEffectPropFrameRate, 0, Int(24)))
	assert.Equal(t, StatErrUnsupported, s.Set(ImageEffectPropFrameRate, 1, String("24")))
	assert.Equal(t, StatOK, s.Set(ImageEffectPropFrameRate, 1, Double(25)))

	_, st := s.GetInt(ImageEffectPropFrameRate, 0)
	assert.Equal(t, StatErrUnsupported, st)
}

func TestPropertySet_RejectedSetDoesNotCreate(t *testing.T) {
	s := NewPropertySet("test")

	assert.Equal(t, StatErrBadIndex, s.Set("OfxPropNew", -1, Int(1)))
	assert.False(t, s.Has("OfxPropNew"))
	assert.Empty(t, s.Names())
}

func TestPropertySet_Dimension(t *testing.T) {
	s := NewPropertySet("test", Prop(PropAPIVersion, Int(1), Int(4)))

	dim, st := s.Dimension(PropAPIVersion)
	require.Equal(t, StatOK, st)
	assert.Equal(t, 2, dim)

	_, st = s.Dimension("OfxPropMissing")
	assert.Equal(t, StatErrUnsupported, st)
}

func TestPropertySet_Reset(t *testing.T) {
	s := NewPropertySet("test",
		Prop(ImagePropBounds, Int(1), Int(2), Int(3), Int(4)),
		Prop(PropLabel, String("x")),
	)

	require.Equal(t, StatOK, s.Reset(ImagePropBounds))
	require.Equal(t, StatOK, s.Reset(PropLabel))
	vals, ok := s.Values(ImagePropBounds)
	require.True(t, ok)
	assert.Equal(t, []Value{Int(0), Int(0), Int(0), Int(0)}, vals)
	label, _ := s.GetString(PropLabel, 0)
	assert.Equal(t, "", label)

	assert.Equal(t, StatErrUnsupported, s.Reset("OfxPropMissing"))
}

func TestPropertySet_CloneIsDeep(t *testing.T) {
	s := NewPropertySet("src", Prop(PropLabel, String("before")))
	c := s.Clone("dst")

	require.Equal(t, StatOK, s.Set(PropLabel, 0, String("after")))

	label, _ := c.GetString(PropLabel, 0)
	assert.Equal(t, "before", label)
	assert.Equal(t, "dst", c.Name())
}

func TestPropertySet_GetReturnsCopy(t *testing.T) {
	s := NewPropertySet("test", Prop(PropLabel, String("abc")))

	b, st := s.GetBytes(PropLabel, 0)
	require.Equal(t, StatOK, st)
	b[0] = 'X'

	label, _ := s.GetString(PropLabel, 0)
	assert.Equal(t, "abc", label)
}

func TestPropertySet_Contains(t *testing.T) {
	s := NewPropertySet("test", Prop(ImageEffectPropSupportedContexts,
		String("OfxImageEffectContextGeneral"), String(ImageEffectContextFilter)))

	assert.True(t, s.Contains(ImageEffectPropSupportedContexts, ImageEffectContextFilter))
	assert.False(t, s.Contains(ImageEffectPropSupportedContexts, "OfxImageEffectContextPaint"))
	assert.False(t, s.Contains("OfxPropMissing", ImageEffectContextFilter))
}

func TestPropertySet_MarshalJSONKeepsOrder(t *testing.T) {
	s := NewPropertySet("test",
		Prop(PropName, String("host")),
		Prop(PropAPIVersion, Int(1), Int(4)),
		Prop(ImagePropPixelAspectRatio, Double(1.5)),
	)
	require.Equal(t, StatOK, s.Set(PropInstanceData, 1, Pointer(16)))

	out, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t,
		`{"OfxPropName":["host"],"OfxPropAPIVersion":[1,4],"OfxImagePropPixelAspectRatio":[1.5],"OfxPropInstanceData":[null,16]}`,
		string(out))
}

func TestPropertySet_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewPropertySet("prop")
		name := rapid.SampledFrom([]string{PropLabel, PropName, ImagePropBounds}).Draw(t, "name")
		index := rapid.IntRange(0, 8).Draw(t, "index")

		var v Value
		switch rapid.IntRange(0, 3).Draw(t, "kind") {
		case 0:
			v = Int(rapid.Int32().Draw(t, "int"))
		case 1:
			v = Double(rapid.Float64Range(-1e12, 1e12).Draw(t, "double"))
		case 2:
			v = Bytes(rapid.SliceOf(rapid.Byte()).Draw(t, "bytes"))
		default:
			v = Pointer(rapid.Uint64().Draw(t, "ptr"))
		}

		if st := s.Set(name, index, v); st != StatOK {
			t.Fatalf("set failed: %s", st)
		}
		got, st := s.Get(name, index)
		if st != StatOK {
			t.Fatalf("get failed: %s", st)
		}
		if FormatValue(got) != FormatValue(v) {
			t.Fatalf("round trip mismatch: set %s got %s", FormatValue(v), FormatValue(got))
		}
		dim, _ := s.Dimension(name)
		if dim != index+1 {
			t.Fatalf("dimension %d, want %d", dim, index+1)
		}
	})
}

func TestBytes_EmbeddedNULSurvives(t *testing.T) {
	s := NewPropertySet("test")
	payload := Bytes{'a', 0, 'b', 0, 0}

	require.Equal(t, StatOK, s.Set(PropLabel, 0, payload))
	got, st := s.GetBytes(PropLabel, 0)
	require.Equal(t, StatOK, st)
	assert.Equal(t, []byte{'a', 0, 'b', 0, 0}, got)
	assert.Len(t, got, 5)
}
