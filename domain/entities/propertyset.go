package entities

import (
	"bytes"
	"encoding/json"
)

// Property is a named, ordered list of values. Its dimension is len(Values).
type Property struct {
	Name   string
	Values []Value
}

// Prop builds a Property from its values.
func Prop(name string, values ...Value) Property {
	return Property{Name: name, Values: values}
}

// PropertySet is an ordered mapping from property name to a list of values.
// Insertion order is kept so describe output is stable.
type PropertySet struct {
	name   string
	order  []string
	values map[string][]Value
}

// NewPropertySet creates a property set with the given initial properties.
func NewPropertySet(name string, props ...Property) *PropertySet {
	s := &PropertySet{
		name:   name,
		values: make(map[string][]Value, len(props)),
	}
	for _, p := range props {
		s.Define(p.Name, p.Values...)
	}
	return s
}

// Name returns the diagnostic name of the set.
func (s *PropertySet) Name() string {
	return s.name
}

// Names returns property names in insertion order.
func (s *PropertySet) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Has reports whether the property exists.
func (s *PropertySet) Has(name string) bool {
	_, ok := s.values[name]
	return ok
}

// Define replaces all values of a property, creating it if needed.
// It is the host-side writer and performs no kind checks.
func (s *PropertySet) Define(name string, values ...Value) {
	if _, ok := s.values[name]; !ok {
		s.order = append(s.order, name)
	}
	vals := make([]Value, len(values))
	for i, v := range values {
		vals[i] = cloneValue(v)
	}
	s.values[name] = vals
}

// Values returns a copy of all values of a property.
func (s *PropertySet) Values(name string) ([]Value, bool) {
	vals, ok := s.values[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, len(vals))
	for i, v := range vals {
		out[i] = cloneValue(v)
	}
	return out, true
}

// Get returns the value at index. A missing property is ErrUnsupported and an
// index outside the current dimension is ErrBadIndex.
func (s *PropertySet) Get(name string, index int) (Value, Status) {
	vals, ok := s.values[name]
	if !ok {
		return nil, StatErrUnsupported
	}
	if index < 0 || index >= len(vals) {
		return nil, StatErrBadIndex
	}
	return cloneValue(vals[index]), StatOK
}

// MaxDimension bounds the number of values a single property may hold.
const MaxDimension = 1 << 16

// Set writes the value at index, growing the property with Unset slots when
// index is past the end. An index at or beyond MaxDimension is ErrBadIndex.
// Writing a value whose kind differs from the kind already stored in the
// property is ErrUnsupported.
func (s *PropertySet) Set(name string, index int, v Value) Status {
	if index < 0 || index >= MaxDimension {
		return StatErrBadIndex
	}
	if v == nil {
		return StatErrValue
	}
	vals, ok := s.values[name]
	if k := propertyKind(vals); k != KindUnset && v.Kind() != KindUnset && k != v.Kind() {
		return StatErrUnsupported
	}
	if !ok {
		s.order = append(s.order, name)
	}
	for len(vals) <= index {
		vals = append(vals, Unset{})
	}
	vals[index] = cloneValue(v)
	s.values[name] = vals
	return StatOK
}

// Dimension returns the number of values stored for a property.
func (s *PropertySet) Dimension(name string) (int, Status) {
	vals, ok := s.values[name]
	if !ok {
		return 0, StatErrUnsupported
	}
	return len(vals), StatOK
}

// Reset sets every value of a property back to the zero value of its kind.
func (s *PropertySet) Reset(name string) Status {
	vals, ok := s.values[name]
	if !ok {
		return StatErrUnsupported
	}
	for i, v := range vals {
		vals[i] = zeroOf(v.Kind())
	}
	return StatOK
}

// Clone returns a deep copy of the set under a new name.
func (s *PropertySet) Clone(name string) *PropertySet {
	out := &PropertySet{
		name:   name,
		order:  make([]string, len(s.order)),
		values: make(map[string][]Value, len(s.values)),
	}
	copy(out.order, s.order)
	for k := range s.values {
		out.values[k], _ = s.Values(k)
	}
	return out
}

// Contains reports whether any value of the property equals the given string.
func (s *PropertySet) Contains(name, want string) bool {
	for _, v := range s.values[name] {
		if b, ok := v.(Bytes); ok && string(b) == want {
			return true
		}
	}
	return false
}

// GetInt returns an integer value.
func (s *PropertySet) GetInt(name string, index int) (int32, Status) {
	v, st := s.Get(name, index)
	if st != StatOK {
		return 0, st
	}
	i, ok := v.(Int)
	if !ok {
		return 0, StatErrUnsupported
	}
	return int32(i), StatOK
}

// GetDouble returns a floating point value.
func (s *PropertySet) GetDouble(name string, index int) (float64, Status) {
	v, st := s.Get(name, index)
	if st != StatOK {
		return 0, st
	}
	d, ok := v.(Double)
	if !ok {
		return 0, StatErrUnsupported
	}
	return float64(d), StatOK
}

// GetBytes returns a string value as raw bytes.
func (s *PropertySet) GetBytes(name string, index int) ([]byte, Status) {
	v, st := s.Get(name, index)
	if st != StatOK {
		return nil, st
	}
	b, ok := v.(Bytes)
	if !ok {
		return nil, StatErrUnsupported
	}
	return b, StatOK
}

// GetString returns a string value.
func (s *PropertySet) GetString(name string, index int) (string, Status) {
	b, st := s.GetBytes(name, index)
	return string(b), st
}

// GetPointer returns a pointer value.
func (s *PropertySet) GetPointer(name string, index int) (uint64, Status) {
	v, st := s.Get(name, index)
	if st != StatOK {
		return 0, st
	}
	p, ok := v.(Pointer)
	if !ok {
		return 0, StatErrUnsupported
	}
	return uint64(p), StatOK
}

// MarshalJSON encodes the set as an object keeping insertion order.
func (s *PropertySet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		vals, err := json.Marshal(s.values[name])
		if err != nil {
			return nil, err
		}
		buf.Write(vals)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// propertyKind returns the kind of the first set value, or KindUnset.
func propertyKind(vals []Value) ValueKind {
	for _, v := range vals {
		if k := v.Kind(); k != KindUnset {
			return k
		}
	}
	return KindUnset
}

func zeroOf(k ValueKind) Value {
	switch k {
	case KindInt:
		return Int(0)
	case KindDouble:
		return Double(0)
	case KindBytes:
		return Bytes{}
	case KindPointer:
		return Pointer(0)
	default:
		return Unset{}
	}
}
