package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParamDescriptor is a parameter declared by a plugin during describe.
type ParamDescriptor struct {
	Name  string
	Type  ParamType
	Props *PropertySet
}

// NewParamDescriptor creates a descriptor with its mandatory properties.
func NewParamDescriptor(name string, t ParamType) *ParamDescriptor {
	return &ParamDescriptor{
		Name: name,
		Type: t,
		Props: NewPropertySet("param "+name,
			Prop(PropType, String(TypeParameter)),
			Prop(PropName, String(name)),
			Prop(ParamPropType, String(string(t))),
		),
	}
}

// Param is a live parameter of an effect instance.
type Param struct {
	Name  string
	Type  ParamType
	Props *PropertySet
	value ParamValue
}

// NewParam builds an instance parameter from its descriptor. The type is
// re-read from the descriptor properties, since a plugin may have written
// OfxParamPropType after paramDefine. The second result is false when the
// declared default had the wrong kind and zero was used instead.
func NewParam(d *ParamDescriptor) (*Param, bool, error) {
	tag, st := d.Props.GetString(ParamPropType, 0)
	if st != StatOK {
		return nil, false, fmt.Errorf("param %q: missing %s", d.Name, ParamPropType)
	}
	t, ok := ParseParamType(tag)
	if !ok {
		return nil, false, fmt.Errorf("param %q: unknown type %q", d.Name, tag)
	}
	value, clean := DefaultParamValue(t, d.Props)
	return &Param{
		Name:  d.Name,
		Type:  t,
		Props: d.Props.Clone("param " + d.Name),
		value: value,
	}, clean, nil
}

// Value returns the current value.
func (p *Param) Value() ParamValue {
	return p.value
}

// SetValue replaces the current value. The value's type must equal the
// parameter's declared type.
func (p *Param) SetValue(v ParamValue) Status {
	if v == nil {
		return StatErrValue
	}
	if !p.Type.HasValue() {
		return StatFailed
	}
	if v.Type() != p.Type {
		return StatErrValue
	}
	p.value = v
	return StatOK
}

// Dimension returns the number of components of the parameter value.
func (p *Param) Dimension() int {
	return p.Type.Dimension()
}

// ParamSet holds the parameters of one effect, or the descriptors of one
// effect descriptor.
type ParamSet struct {
	Props       *PropertySet
	descriptors []*ParamDescriptor
	params      []*Param
	byName      map[string]int
}

// NewParamSet creates an empty parameter set.
func NewParamSet(name string) *ParamSet {
	return &ParamSet{
		Props:  NewPropertySet(name + " params"),
		byName: make(map[string]int),
	}
}

// Define declares a new parameter descriptor. An existing name is ErrExists
// and an unknown type is ErrUnknown.
func (s *ParamSet) Define(name string, t ParamType) (*ParamDescriptor, Status) {
	if !t.Valid() {
		return nil, StatErrUnknown
	}
	if _, exists := s.byName[name]; exists {
		return nil, StatErrExists
	}
	d := NewParamDescriptor(name, t)
	s.byName[name] = len(s.descriptors)
	s.descriptors = append(s.descriptors, d)
	return d, StatOK
}

// Descriptor looks up a descriptor by name.
func (s *ParamSet) Descriptor(name string) (*ParamDescriptor, bool) {
	i, ok := s.byName[name]
	if !ok || i >= len(s.descriptors) {
		return nil, false
	}
	return s.descriptors[i], true
}

// Descriptors returns descriptors in definition order.
func (s *ParamSet) Descriptors() []*ParamDescriptor {
	out := make([]*ParamDescriptor, len(s.descriptors))
	copy(out, s.descriptors)
	return out
}

// Instantiate creates a parameter set holding live parameters built from
// the descriptors of s. Names of parameters whose default had the wrong
// kind are returned alongside.
func (s *ParamSet) Instantiate(name string) (*ParamSet, []string, error) {
	out := NewParamSet(name)
	out.Props = s.Props.Clone(name + " params")
	var coerced []string
	for _, d := range s.descriptors {
		p, clean, err := NewParam(d)
		if err != nil {
			return nil, nil, err
		}
		if !clean {
			coerced = append(coerced, d.Name)
		}
		out.byName[p.Name] = len(out.params)
		out.params = append(out.params, p)
	}
	return out, coerced, nil
}

// Param looks up a live parameter by name.
func (s *ParamSet) Param(name string) (*Param, bool) {
	i, ok := s.byName[name]
	if !ok || i >= len(s.params) {
		return nil, false
	}
	return s.params[i], true
}

// Params returns live parameters in definition order.
func (s *ParamSet) Params() []*Param {
	out := make([]*Param, len(s.params))
	copy(out, s.params)
	return out
}

// MarshalJSON encodes live parameters as {"name": {"type": .., "v": ..}}
// in definition order, or descriptors as {"name": {props}} for a
// descriptor set.
func (s *ParamSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(i int, name string, body []byte) {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, _ := json.Marshal(name)
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(body)
	}
	if len(s.params) > 0 {
		for i, p := range s.params {
			body, err := MarshalParamValue(p.value)
			if err != nil {
				return nil, fmt.Errorf("param %q: %w", p.Name, err)
			}
			write(i, p.Name, body)
		}
	} else {
		for i, d := range s.descriptors {
			body, err := json.Marshal(d.Props)
			if err != nil {
				return nil, fmt.Errorf("param %q: %w", d.Name, err)
			}
			write(i, d.Name, body)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
