package hostfuncs

import (
	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/handles"
)

// ParameterSuite defines parameters on descriptors and reads and writes
// the values of live parameters.
type ParameterSuite struct {
	s *Suites
}

func (p *ParameterSuite) paramSet(h Handle) (*entities.ParamSet, *entities.Effect, entities.Status) {
	set, st := handles.Resolve[*entities.ParamSet](p.s.state.Handles, h, handles.KindParamSet)
	if st != entities.StatOK {
		return nil, nil, st
	}
	effect, _, st := p.s.effectOf(h)
	if st != entities.StatOK {
		return nil, nil, st
	}
	return set, effect, entities.StatOK
}

// param resolves a live parameter and checks that its effect accepts
// parameter access.
func (p *ParameterSuite) param(h Handle) (*entities.Param, entities.Status) {
	prm, st := handles.Resolve[*entities.Param](p.s.state.Handles, h, handles.KindParam)
	if st != entities.StatOK {
		return nil, st
	}
	effect, _, st := p.s.effectOf(h)
	if st != entities.StatOK {
		return nil, st
	}
	if !effect.State().AcceptsParamAccess() {
		return nil, entities.StatFailed
	}
	return prm, entities.StatOK
}

// Define declares a parameter on a descriptor's parameter set and returns
// the handle of its property set.
func (p *ParameterSuite) Define(paramSet Handle, paramType, name string) (Handle, entities.Status) {
	set, effect, st := p.paramSet(paramSet)
	if st != entities.StatOK {
		return 0, st
	}
	if effect.State() != entities.StateDescribed {
		return 0, entities.StatErrUnsupported
	}
	d, st := set.Define(name, entities.ParamType(paramType))
	if st != entities.StatOK {
		return 0, st
	}
	t := p.s.state.Handles
	dh := t.Register(handles.KindParamDescriptor, d, paramSet)
	return t.Register(handles.KindPropertySet, d.Props, dh), entities.StatOK
}

// GetHandle looks up a parameter by name. On a descriptor's set it returns
// the descriptor; on an instance's set the live parameter.
func (p *ParameterSuite) GetHandle(paramSet Handle, name string) (Handle, Handle, entities.Status) {
	set, effect, st := p.paramSet(paramSet)
	if st != entities.StatOK {
		return 0, 0, st
	}
	t := p.s.state.Handles
	if effect.State() == entities.StateDescribed {
		d, ok := set.Descriptor(name)
		if !ok {
			return 0, 0, entities.StatErrUnknown
		}
		h := t.Register(handles.KindParamDescriptor, d, paramSet)
		return h, t.Register(handles.KindPropertySet, d.Props, h), entities.StatOK
	}
	prm, ok := set.Param(name)
	if !ok {
		return 0, 0, entities.StatErrUnknown
	}
	h := t.Register(handles.KindParam, prm, paramSet)
	return h, t.Register(handles.KindPropertySet, prm.Props, h), entities.StatOK
}

// SetGetPropertySet returns the property set of a parameter set.
func (p *ParameterSuite) SetGetPropertySet(paramSet Handle) (Handle, entities.Status) {
	set, _, st := p.paramSet(paramSet)
	if st != entities.StatOK {
		return 0, st
	}
	return p.s.state.Handles.Register(handles.KindPropertySet, set.Props, paramSet), entities.StatOK
}

// GetPropertySet returns the property set of a parameter or descriptor.
func (p *ParameterSuite) GetPropertySet(param Handle) (Handle, entities.Status) {
	t := p.s.state.Handles
	switch t.KindOf(param) {
	case handles.KindParam:
		prm, st := handles.Resolve[*entities.Param](t, param, handles.KindParam)
		if st != entities.StatOK {
			return 0, st
		}
		return t.Register(handles.KindPropertySet, prm.Props, param), entities.StatOK
	case handles.KindParamDescriptor:
		d, st := handles.Resolve[*entities.ParamDescriptor](t, param, handles.KindParamDescriptor)
		if st != entities.StatOK {
			return 0, st
		}
		return t.Register(handles.KindPropertySet, d.Props, param), entities.StatOK
	}
	return 0, entities.StatErrBadHandle
}

// Type returns the declared type of a live parameter.
func (p *ParameterSuite) Type(param Handle) (entities.ParamType, entities.Status) {
	prm, st := p.param(param)
	if st != entities.StatOK {
		return "", st
	}
	return prm.Type, entities.StatOK
}

// Dimension returns the declared number of value components of a live
// parameter. Valueless types report 0.
func (p *ParameterSuite) Dimension(param Handle) (int, entities.Status) {
	prm, st := p.param(param)
	if st != entities.StatOK {
		return 0, st
	}
	return prm.Dimension(), entities.StatOK
}

// GetComponents returns the current value split into wire components.
func (p *ParameterSuite) GetComponents(param Handle) ([]entities.Value, entities.Status) {
	prm, st := p.param(param)
	if st != entities.StatOK {
		return nil, st
	}
	if !prm.Type.HasValue() {
		return nil, entities.StatFailed
	}
	return prm.Value().Components(), entities.StatOK
}

// GetValue returns the current typed value.
func (p *ParameterSuite) GetValue(param Handle) (entities.ParamValue, entities.Status) {
	prm, st := p.param(param)
	if st != entities.StatOK {
		return nil, st
	}
	if !prm.Type.HasValue() {
		return nil, entities.StatFailed
	}
	return prm.Value(), entities.StatOK
}

// SetValue writes a typed value. Its type must equal the declared type.
func (p *ParameterSuite) SetValue(param Handle, v entities.ParamValue) entities.Status {
	prm, st := p.param(param)
	if st != entities.StatOK {
		return st
	}
	return prm.SetValue(v)
}

// setTyped writes components to a parameter whose declared type is one of
// accept.
func (p *ParameterSuite) setTyped(param Handle, comps []entities.Value, accept ...entities.ParamType) entities.Status {
	prm, st := p.param(param)
	if st != entities.StatOK {
		return st
	}
	if !prm.Type.HasValue() {
		return entities.StatFailed
	}
	matched := false
	for _, t := range accept {
		if prm.Type == t {
			matched = true
			break
		}
	}
	if !matched {
		return entities.StatErrValue
	}
	v, st := entities.ParamValueFromComponents(prm.Type, comps)
	if st != entities.StatOK {
		return st
	}
	return prm.SetValue(v)
}

// SetBoolean writes a boolean parameter.
func (p *ParameterSuite) SetBoolean(param Handle, v bool) entities.Status {
	return p.setTyped(param, []entities.Value{entities.Bool(v)}, entities.ParamTypeBoolean)
}

// SetInteger writes an integer parameter.
func (p *ParameterSuite) SetInteger(param Handle, v int32) entities.Status {
	return p.setTyped(param, []entities.Value{entities.Int(v)}, entities.ParamTypeInteger)
}

// SetChoice writes the selected option index of a choice parameter.
func (p *ParameterSuite) SetChoice(param Handle, v int32) entities.Status {
	return p.setTyped(param, []entities.Value{entities.Int(v)}, entities.ParamTypeChoice)
}

// SetDouble writes a double parameter.
func (p *ParameterSuite) SetDouble(param Handle, v float64) entities.Status {
	return p.setTyped(param, []entities.Value{entities.Double(v)}, entities.ParamTypeDouble)
}

// SetString writes a string or custom parameter.
func (p *ParameterSuite) SetString(param Handle, v []byte) entities.Status {
	return p.setTyped(param, []entities.Value{entities.Bytes(v)}, entities.ParamTypeString, entities.ParamTypeCustom)
}

// SetDoubleN writes a 2D, 3D, RGB or RGBA parameter.
func (p *ParameterSuite) SetDoubleN(param Handle, v []float64) entities.Status {
	comps := make([]entities.Value, len(v))
	for i, x := range v {
		comps[i] = entities.Double(x)
	}
	return p.setTyped(param, comps,
		entities.ParamTypeDouble2D, entities.ParamTypeDouble3D, entities.ParamTypeRGB, entities.ParamTypeRGBA)
}

// SetIntegerN writes a 2D or 3D integer parameter.
func (p *ParameterSuite) SetIntegerN(param Handle, v []int32) entities.Status {
	comps := make([]entities.Value, len(v))
	for i, x := range v {
		comps[i] = entities.Int(x)
	}
	return p.setTyped(param, comps, entities.ParamTypeInteger2D, entities.ParamTypeInteger3D)
}

// GetNumKeys always reports zero keys. Parameters are not animated.
func (p *ParameterSuite) GetNumKeys(param Handle) (int, entities.Status) {
	if _, st := p.param(param); st != entities.StatOK {
		return 0, st
	}
	return 0, entities.StatOK
}

// GetKeyTime fails with ErrBadIndex, there are no keys.
func (p *ParameterSuite) GetKeyTime(param Handle, nthKey int) (float64, entities.Status) {
	if _, st := p.param(param); st != entities.StatOK {
		return 0, st
	}
	return 0, entities.StatErrBadIndex
}

// GetKeyIndex fails, there are no keys.
func (p *ParameterSuite) GetKeyIndex(param Handle, time float64, direction int) (int, entities.Status) {
	if _, st := p.param(param); st != entities.StatOK {
		return 0, st
	}
	return 0, entities.StatFailed
}

// DeleteKey succeeds trivially.
func (p *ParameterSuite) DeleteKey(param Handle, time float64) entities.Status {
	_, st := p.param(param)
	return st
}

// DeleteAllKeys succeeds trivially.
func (p *ParameterSuite) DeleteAllKeys(param Handle) entities.Status {
	_, st := p.param(param)
	return st
}

// Copy is not supported.
func (p *ParameterSuite) Copy(to, from Handle, dstOffset float64) entities.Status {
	return entities.StatErrUnsupported
}

// EditBegin succeeds trivially.
func (p *ParameterSuite) EditBegin(paramSet Handle, name string) entities.Status {
	_, _, st := p.paramSet(paramSet)
	return st
}

// EditEnd succeeds trivially.
func (p *ParameterSuite) EditEnd(paramSet Handle) entities.Status {
	_, _, st := p.paramSet(paramSet)
	return st
}

// GetDerivative is not supported for unanimated parameters.
func (p *ParameterSuite) GetDerivative(param Handle, time float64) ([]entities.Value, entities.Status) {
	return nil, entities.StatErrUnsupported
}

// GetIntegral is not supported for unanimated parameters.
func (p *ParameterSuite) GetIntegral(param Handle, time1, time2 float64) ([]entities.Value, entities.Status) {
	return nil, entities.StatErrUnsupported
}
