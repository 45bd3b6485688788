package entities

import (
	"encoding/json"
	"fmt"
)

// ParamValue is the typed value of a parameter. Implementations are closed
// and match ParamType one to one.
type ParamValue interface {
	Type() ParamType
	// Components returns the value split into wire components, one per
	// dimension.
	Components() []Value
	isParamValue()
}

type (
	BooleanValue   bool
	ChoiceValue    int32
	CustomValue    []byte
	DoubleValue    float64
	Double2DValue  [2]float64
	Double3DValue  [3]float64
	IntegerValue   int32
	Integer2DValue [2]int32
	Integer3DValue [3]int32
	RGBValue       [3]float64
	RGBAValue      [4]float64
	StringValue    []byte
	// NoValue is held by group, page, push button and parametric params.
	NoValue struct{ Of ParamType }
)

func (BooleanValue) Type() ParamType   { return ParamTypeBoolean }
func (ChoiceValue) Type() ParamType    { return ParamTypeChoice }
func (CustomValue) Type() ParamType    { return ParamTypeCustom }
func (DoubleValue) Type() ParamType    { return ParamTypeDouble }
func (Double2DValue) Type() ParamType  { return ParamTypeDouble2D }
func (Double3DValue) Type() ParamType  { return ParamTypeDouble3D }
func (IntegerValue) Type() ParamType   { return ParamTypeInteger }
func (Integer2DValue) Type() ParamType { return ParamTypeInteger2D }
func (Integer3DValue) Type() ParamType { return ParamTypeInteger3D }
func (RGBValue) Type() ParamType       { return ParamTypeRGB }
func (RGBAValue) Type() ParamType      { return ParamTypeRGBA }
func (StringValue) Type() ParamType    { return ParamTypeString }
func (v NoValue) Type() ParamType      { return v.Of }

func (BooleanValue) isParamValue()   {}
func (ChoiceValue) isParamValue()    {}
func (CustomValue) isParamValue()    {}
func (DoubleValue) isParamValue()    {}
func (Double2DValue) isParamValue()  {}
func (Double3DValue) isParamValue()  {}
func (IntegerValue) isParamValue()   {}
func (Integer2DValue) isParamValue() {}
func (Integer3DValue) isParamValue() {}
func (RGBValue) isParamValue()       {}
func (RGBAValue) isParamValue()      {}
func (StringValue) isParamValue()    {}
func (NoValue) isParamValue()        {}

func (v BooleanValue) Components() []Value { return []Value{Bool(bool(v))} }
func (v ChoiceValue) Components() []Value  { return []Value{Int(v)} }
func (v CustomValue) Components() []Value  { return []Value{cloneValue(Bytes(v))} }
func (v DoubleValue) Components() []Value  { return []Value{Double(v)} }
func (v IntegerValue) Components() []Value { return []Value{Int(v)} }
func (v StringValue) Components() []Value  { return []Value{cloneValue(Bytes(v))} }
func (NoValue) Components() []Value        { return nil }

func (v Double2DValue) Components() []Value  { return doubles(v[:]) }
func (v Double3DValue) Components() []Value  { return doubles(v[:]) }
func (v RGBValue) Components() []Value       { return doubles(v[:]) }
func (v RGBAValue) Components() []Value      { return doubles(v[:]) }
func (v Integer2DValue) Components() []Value { return ints(v[:]) }
func (v Integer3DValue) Components() []Value { return ints(v[:]) }

func doubles(in []float64) []Value {
	out := make([]Value, len(in))
	for i, d := range in {
		out[i] = Double(d)
	}
	return out
}

func ints(in []int32) []Value {
	out := make([]Value, len(in))
	for i, n := range in {
		out[i] = Int(n)
	}
	return out
}

// ParamValueFromComponents rebuilds a typed value from wire components.
// The component count must equal the type's dimension and every component
// must have the type's component kind; anything else is ErrValue.
func ParamValueFromComponents(t ParamType, comps []Value) (ParamValue, Status) {
	if !t.Valid() {
		return nil, StatErrUnknown
	}
	if !t.HasValue() {
		return nil, StatFailed
	}
	if len(comps) != t.Dimension() {
		return nil, StatErrValue
	}
	kind := t.ComponentKind()
	for _, c := range comps {
		if c == nil || c.Kind() != kind {
			return nil, StatErrValue
		}
	}
	switch t {
	case ParamTypeBoolean:
		return BooleanValue(comps[0].(Int) != 0), StatOK
	case ParamTypeChoice:
		return ChoiceValue(comps[0].(Int)), StatOK
	case ParamTypeInteger:
		return IntegerValue(comps[0].(Int)), StatOK
	case ParamTypeDouble:
		return DoubleValue(comps[0].(Double)), StatOK
	case ParamTypeString:
		return StringValue(cloneValue(comps[0]).(Bytes)), StatOK
	case ParamTypeCustom:
		return CustomValue(cloneValue(comps[0]).(Bytes)), StatOK
	case ParamTypeInteger2D:
		return Integer2DValue{int32(comps[0].(Int)), int32(comps[1].(Int))}, StatOK
	case ParamTypeInteger3D:
		return Integer3DValue{int32(comps[0].(Int)), int32(comps[1].(Int)), int32(comps[2].(Int))}, StatOK
	}
	f := make([]float64, len(comps))
	for i, c := range comps {
		f[i] = float64(c.(Double))
	}
	switch t {
	case ParamTypeDouble2D:
		return Double2DValue{f[0], f[1]}, StatOK
	case ParamTypeDouble3D:
		return Double3DValue{f[0], f[1], f[2]}, StatOK
	case ParamTypeRGB:
		return RGBValue{f[0], f[1], f[2]}, StatOK
	case ParamTypeRGBA:
		return RGBAValue{f[0], f[1], f[2], f[3]}, StatOK
	}
	return nil, StatErrUnknown
}

// ZeroParamValue returns the zero value for t.
func ZeroParamValue(t ParamType) ParamValue {
	if !t.HasValue() {
		return NoValue{Of: t}
	}
	comps := make([]Value, t.Dimension())
	for i := range comps {
		comps[i] = zeroOf(t.ComponentKind())
	}
	v, _ := ParamValueFromComponents(t, comps)
	return v
}

// DefaultParamValue reads the default of a parameter from its descriptor
// properties. Missing components fall back to zero. The second result is
// false when a component was present with the wrong kind and was replaced
// by zero.
func DefaultParamValue(t ParamType, props *PropertySet) (ParamValue, bool) {
	if !t.HasValue() {
		return NoValue{Of: t}, true
	}
	clean := true
	comps := make([]Value, t.Dimension())
	for i := range comps {
		comps[i] = zeroOf(t.ComponentKind())
		v, st := props.Get(ParamPropDefault, i)
		if st != StatOK {
			continue
		}
		switch {
		case v.Kind() == t.ComponentKind():
			comps[i] = v
		case v.Kind() == KindUnset:
		default:
			clean = false
		}
	}
	v, _ := ParamValueFromComponents(t, comps)
	return v, clean
}

// paramValueJSON is the command-file encoding {"type": "Double", "v": 1.0}.
type paramValueJSON struct {
	Type string          `json:"type"`
	V    json.RawMessage `json:"v,omitempty"`
}

// MarshalParamValue encodes v in the command-file format. Strings and
// custom values are byte arrays so embedded NULs survive.
func MarshalParamValue(v ParamValue) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("nil parameter value")
	}
	var payload any
	switch x := v.(type) {
	case BooleanValue:
		payload = bool(x)
	case ChoiceValue:
		payload = int32(x)
	case IntegerValue:
		payload = int32(x)
	case DoubleValue:
		payload = float64(x)
	case StringValue:
		payload = byteArray(x)
	case CustomValue:
		payload = byteArray(x)
	case Double2DValue:
		payload = x[:]
	case Double3DValue:
		payload = x[:]
	case RGBValue:
		payload = x[:]
	case RGBAValue:
		payload = x[:]
	case Integer2DValue:
		payload = x[:]
	case Integer3DValue:
		payload = x[:]
	case NoValue:
		return json.Marshal(paramValueJSON{Type: x.Of.Short()})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(paramValueJSON{Type: v.Type().Short(), V: raw})
}

// byteArray marshals as a JSON array of numbers rather than base64.
func byteArray(b []byte) []int {
	out := make([]int, len(b))
	for i, c := range b {
		out[i] = int(c)
	}
	return out
}

// UnmarshalParamValue decodes the command-file format.
func UnmarshalParamValue(data []byte) (ParamValue, error) {
	var raw paramValueJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid parameter value: %w", err)
	}
	t, ok := ParseParamType(raw.Type)
	if !ok {
		return nil, fmt.Errorf("unknown parameter type %q", raw.Type)
	}
	if !t.HasValue() {
		return NoValue{Of: t}, nil
	}
	if len(raw.V) == 0 {
		return nil, fmt.Errorf("parameter value of type %s has no \"v\"", raw.Type)
	}
	var (
		v   ParamValue
		err error
	)
	switch t {
	case ParamTypeBoolean:
		var b bool
		err = json.Unmarshal(raw.V, &b)
		v = BooleanValue(b)
	case ParamTypeChoice:
		var n int32
		err = json.Unmarshal(raw.V, &n)
		v = ChoiceValue(n)
	case ParamTypeInteger:
		var n int32
		err = json.Unmarshal(raw.V, &n)
		v = IntegerValue(n)
	case ParamTypeDouble:
		var d float64
		err = json.Unmarshal(raw.V, &d)
		v = DoubleValue(d)
	case ParamTypeString, ParamTypeCustom:
		var b []uint8
		b, err = unmarshalByteArray(raw.V)
		if t == ParamTypeString {
			v = StringValue(b)
		} else {
			v = CustomValue(b)
		}
	case ParamTypeDouble2D:
		var a [2]float64
		err = unmarshalExact(raw.V, a[:])
		v = Double2DValue(a)
	case ParamTypeDouble3D:
		var a [3]float64
		err = unmarshalExact(raw.V, a[:])
		v = Double3DValue(a)
	case ParamTypeRGB:
		var a [3]float64
		err = unmarshalExact(raw.V, a[:])
		v = RGBValue(a)
	case ParamTypeRGBA:
		var a [4]float64
		err = unmarshalExact(raw.V, a[:])
		v = RGBAValue(a)
	case ParamTypeInteger2D:
		var a [2]int32
		err = unmarshalExact(raw.V, a[:])
		v = Integer2DValue(a)
	case ParamTypeInteger3D:
		var a [3]int32
		err = unmarshalExact(raw.V, a[:])
		v = Integer3DValue(a)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s value: %w", raw.Type, err)
	}
	return v, nil
}

// unmarshalByteArray accepts a JSON array of bytes or, for convenience,
// a plain JSON string.
func unmarshalByteArray(data []byte) ([]byte, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return []byte(s), nil
	}
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return nil, err
	}
	out := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("byte %d out of range: %d", i, n)
		}
		out[i] = byte(n)
	}
	return out, nil
}

func unmarshalExact[T float64 | int32](data []byte, dst []T) error {
	var vals []T
	if err := json.Unmarshal(data, &vals); err != nil {
		return err
	}
	if len(vals) != len(dst) {
		return fmt.Errorf("expected %d components, got %d", len(dst), len(vals))
	}
	copy(dst, vals)
	return nil
}
