package hostfuncs

import (
	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/handles"
)

// PropertySuite reads and writes property sets by handle. Image handles are
// property sets too.
type PropertySuite struct {
	s *Suites
}

func (p *PropertySuite) lookup(h Handle) (*entities.PropertySet, entities.Status) {
	t := p.s.state.Handles
	switch t.KindOf(h) {
	case handles.KindPropertySet:
		return handles.Resolve[*entities.PropertySet](t, h, handles.KindPropertySet)
	case handles.KindImage:
		return handles.Resolve[*entities.PropertySet](t, h, handles.KindImage)
	}
	return nil, entities.StatErrBadHandle
}

func (p *PropertySuite) set(h Handle, name string, index int, v entities.Value) entities.Status {
	ps, st := p.lookup(h)
	if st != entities.StatOK {
		return st
	}
	return ps.Set(name, index, v)
}

// SetPointer writes a pointer value.
func (p *PropertySuite) SetPointer(h Handle, name string, index int, v uint64) entities.Status {
	return p.set(h, name, index, entities.Pointer(v))
}

// SetString writes a string value. v keeps its length, NULs included.
func (p *PropertySuite) SetString(h Handle, name string, index int, v []byte) entities.Status {
	return p.set(h, name, index, entities.Bytes(v))
}

// SetDouble writes a double value.
func (p *PropertySuite) SetDouble(h Handle, name string, index int, v float64) entities.Status {
	return p.set(h, name, index, entities.Double(v))
}

// SetInt writes an integer value.
func (p *PropertySuite) SetInt(h Handle, name string, index int, v int32) entities.Status {
	return p.set(h, name, index, entities.Int(v))
}

func setN[T any](p *PropertySuite, h Handle, name string, vals []T, wrap func(T) entities.Value) entities.Status {
	ps, st := p.lookup(h)
	if st != entities.StatOK {
		return st
	}
	for i, v := range vals {
		if st := ps.Set(name, i, wrap(v)); st != entities.StatOK {
			return st
		}
	}
	return entities.StatOK
}

// SetPointerN writes values 0..len(v)-1.
func (p *PropertySuite) SetPointerN(h Handle, name string, v []uint64) entities.Status {
	return setN(p, h, name, v, func(x uint64) entities.Value { return entities.Pointer(x) })
}

// SetStringN writes values 0..len(v)-1.
func (p *PropertySuite) SetStringN(h Handle, name string, v [][]byte) entities.Status {
	return setN(p, h, name, v, func(x []byte) entities.Value { return entities.Bytes(x) })
}

// SetDoubleN writes values 0..len(v)-1.
func (p *PropertySuite) SetDoubleN(h Handle, name string, v []float64) entities.Status {
	return setN(p, h, name, v, func(x float64) entities.Value { return entities.Double(x) })
}

// SetIntN writes values 0..len(v)-1.
func (p *PropertySuite) SetIntN(h Handle, name string, v []int32) entities.Status {
	return setN(p, h, name, v, func(x int32) entities.Value { return entities.Int(x) })
}

// GetPointer reads a pointer value.
func (p *PropertySuite) GetPointer(h Handle, name string, index int) (uint64, entities.Status) {
	ps, st := p.lookup(h)
	if st != entities.StatOK {
		return 0, st
	}
	return ps.GetPointer(name, index)
}

// GetString reads a string value.
func (p *PropertySuite) GetString(h Handle, name string, index int) ([]byte, entities.Status) {
	ps, st := p.lookup(h)
	if st != entities.StatOK {
		return nil, st
	}
	return ps.GetBytes(name, index)
}

// GetDouble reads a double value.
func (p *PropertySuite) GetDouble(h Handle, name string, index int) (float64, entities.Status) {
	ps, st := p.lookup(h)
	if st != entities.StatOK {
		return 0, st
	}
	return ps.GetDouble(name, index)
}

// GetInt reads an integer value.
func (p *PropertySuite) GetInt(h Handle, name string, index int) (int32, entities.Status) {
	ps, st := p.lookup(h)
	if st != entities.StatOK {
		return 0, st
	}
	return ps.GetInt(name, index)
}

func getN[T any](p *PropertySuite, h Handle, name string, count int, get func(*entities.PropertySet, int) (T, entities.Status)) ([]T, entities.Status) {
	ps, st := p.lookup(h)
	if st != entities.StatOK {
		return nil, st
	}
	dim, st := ps.Dimension(name)
	if st != entities.StatOK {
		return nil, st
	}
	if count < 0 || count > dim {
		return nil, entities.StatErrBadIndex
	}
	out := make([]T, count)
	for i := range out {
		v, st := get(ps, i)
		if st != entities.StatOK {
			return nil, st
		}
		out[i] = v
	}
	return out, entities.StatOK
}

// GetPointerN reads values 0..count-1.
func (p *PropertySuite) GetPointerN(h Handle, name string, count int) ([]uint64, entities.Status) {
	return getN(p, h, name, count, func(ps *entities.PropertySet, i int) (uint64, entities.Status) {
		return ps.GetPointer(name, i)
	})
}

// GetStringN reads values 0..count-1.
func (p *PropertySuite) GetStringN(h Handle, name string, count int) ([][]byte, entities.Status) {
	return getN(p, h, name, count, func(ps *entities.PropertySet, i int) ([]byte, entities.Status) {
		return ps.GetBytes(name, i)
	})
}

// GetDoubleN reads values 0..count-1.
func (p *PropertySuite) GetDoubleN(h Handle, name string, count int) ([]float64, entities.Status) {
	return getN(p, h, name, count, func(ps *entities.PropertySet, i int) (float64, entities.Status) {
		return ps.GetDouble(name, i)
	})
}

// GetIntN reads values 0..count-1.
func (p *PropertySuite) GetIntN(h Handle, name string, count int) ([]int32, entities.Status) {
	return getN(p, h, name, count, func(ps *entities.PropertySet, i int) (int32, entities.Status) {
		return ps.GetInt(name, i)
	})
}

// Reset sets a property back to the zero value of its kind.
func (p *PropertySuite) Reset(h Handle, name string) entities.Status {
	ps, st := p.lookup(h)
	if st != entities.StatOK {
		return st
	}
	return ps.Reset(name)
}

// GetDimension returns the number of values of a property.
func (p *PropertySuite) GetDimension(h Handle, name string) (int, entities.Status) {
	ps, st := p.lookup(h)
	if st != entities.StatOK {
		return 0, st
	}
	return ps.Dimension(name)
}
