package hostfuncs

import (
	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// PropertySuiteFunctions returns the property suite as wasm host functions.
func PropertySuiteFunctions() []Function {
	return []Function{
		fn("propSetPointer", 4, propSetPointer),
		fn("propSetString", 4, propSetString),
		fnTyped("propSetDouble", []ValueType{ValueI32, ValueI32, ValueI32, ValueF64}, propSetDouble),
		fn("propSetInt", 4, propSetInt),
		fn("propSetPointerN", 4, propSetPointerN),
		fn("propSetStringN", 4, propSetStringN),
		fn("propSetDoubleN", 4, propSetDoubleN),
		fn("propSetIntN", 4, propSetIntN),
		fn("propGetPointer", 4, propGetPointer),
		fn("propGetString", 4, propGetString),
		fn("propGetDouble", 4, propGetDouble),
		fn("propGetInt", 4, propGetInt),
		fn("propGetPointerN", 4, propGetPointerN),
		fn("propGetStringN", 4, propGetStringN),
		fn("propGetDoubleN", 4, propGetDoubleN),
		fn("propGetIntN", 4, propGetIntN),
		fn("propReset", 2, propReset),
		fn("propGetDimension", 3, propGetDimension),
	}
}

// propArgs decodes the (handle, name, index-or-count) prefix shared by
// every property call.
func propArgs(hc HostContext, args []uint64) (*Suites, Handle, string, int32, entities.Status) {
	s := hc.Suites()
	name, st := s.readString(argU32(args, 1))
	if st != entities.StatOK {
		return s, 0, "", 0, st
	}
	var n int32
	if len(args) > 2 {
		n = argI32(args, 2)
	}
	return s, argU32(args, 0), name, n, entities.StatOK
}

func propSetPointer(hc HostContext, args []uint64) entities.Status {
	s, h, name, index, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	return s.Property.SetPointer(h, name, int(index), uint64(argU32(args, 3)))
}

func propSetString(hc HostContext, args []uint64) entities.Status {
	s, h, name, index, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	v, st := s.readString(argU32(args, 3))
	if st != entities.StatOK {
		return st
	}
	return s.Property.SetString(h, name, int(index), []byte(v))
}

func propSetDouble(hc HostContext, args []uint64) entities.Status {
	s, h, name, index, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	return s.Property.SetDouble(h, name, int(index), argF64(args, 3))
}

func propSetInt(hc HostContext, args []uint64) entities.Status {
	s, h, name, index, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	return s.Property.SetInt(h, name, int(index), argI32(args, 3))
}

func propSetPointerN(hc HostContext, args []uint64) entities.Status {
	s, h, name, count, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	n, st := arrayCount(count)
	if st != entities.StatOK {
		return st
	}
	ptrs, st := readArray(s, argU32(args, 3), n, 4, s.mem.ReadUint32Le)
	if st != entities.StatOK {
		return st
	}
	vals := make([]uint64, n)
	for i, p := range ptrs {
		vals[i] = uint64(p)
	}
	return s.Property.SetPointerN(h, name, vals)
}

func propSetStringN(hc HostContext, args []uint64) entities.Status {
	s, h, name, count, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	n, st := arrayCount(count)
	if st != entities.StatOK {
		return st
	}
	vals, st := readStrings(s, argU32(args, 3), n)
	if st != entities.StatOK {
		return st
	}
	return s.Property.SetStringN(h, name, vals)
}

func propSetDoubleN(hc HostContext, args []uint64) entities.Status {
	s, h, name, count, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	n, st := arrayCount(count)
	if st != entities.StatOK {
		return st
	}
	vals, st := readArray(s, argU32(args, 3), n, 8, s.mem.ReadFloat64Le)
	if st != entities.StatOK {
		return st
	}
	return s.Property.SetDoubleN(h, name, vals)
}

func propSetIntN(hc HostContext, args []uint64) entities.Status {
	s, h, name, count, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	n, st := arrayCount(count)
	if st != entities.StatOK {
		return st
	}
	raw, st := readArray(s, argU32(args, 3), n, 4, s.mem.ReadUint32Le)
	if st != entities.StatOK {
		return st
	}
	vals := make([]int32, n)
	for i, v := range raw {
		vals[i] = int32(v)
	}
	return s.Property.SetIntN(h, name, vals)
}

func propGetPointer(hc HostContext, args []uint64) entities.Status {
	s, h, name, index, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	v, st := s.Property.GetPointer(h, name, int(index))
	if st != entities.StatOK {
		return st
	}
	return putU32(s, argU32(args, 3), uint32(v))
}

func propGetString(hc HostContext, args []uint64) entities.Status {
	s, h, name, index, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	v, st := s.Property.GetString(h, name, int(index))
	if st != entities.StatOK {
		return st
	}
	ptr, st := s.pinString(hc, h, name, int(index), v)
	if st != entities.StatOK {
		return st
	}
	return putU32(s, argU32(args, 3), ptr)
}

func propGetDouble(hc HostContext, args []uint64) entities.Status {
	s, h, name, index, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	v, st := s.Property.GetDouble(h, name, int(index))
	if st != entities.StatOK {
		return st
	}
	return putF64(s, argU32(args, 3), v)
}

func propGetInt(hc HostContext, args []uint64) entities.Status {
	s, h, name, index, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	v, st := s.Property.GetInt(h, name, int(index))
	if st != entities.StatOK {
		return st
	}
	return putI32(s, argU32(args, 3), v)
}

func propGetPointerN(hc HostContext, args []uint64) entities.Status {
	s, h, name, count, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	n, st := arrayCount(count)
	if st != entities.StatOK {
		return st
	}
	vals, st := s.Property.GetPointerN(h, name, n)
	if st != entities.StatOK {
		return st
	}
	out := argU32(args, 3)
	if !span(s, out, n, 4) {
		return entities.StatFailed
	}
	for i, v := range vals {
		if st := putU32(s, out+uint32(i*4), uint32(v)); st != entities.StatOK {
			return st
		}
	}
	return entities.StatOK
}

func propGetStringN(hc HostContext, args []uint64) entities.Status {
	s, h, name, count, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	n, st := arrayCount(count)
	if st != entities.StatOK {
		return st
	}
	vals, st := s.Property.GetStringN(h, name, n)
	if st != entities.StatOK {
		return st
	}
	out := argU32(args, 3)
	if !span(s, out, n, 4) {
		return entities.StatFailed
	}
	for i, v := range vals {
		ptr, st := s.pinString(hc, h, name, i, v)
		if st != entities.StatOK {
			return st
		}
		if st := putU32(s, out+uint32(i*4), ptr); st != entities.StatOK {
			return st
		}
	}
	return entities.StatOK
}

func propGetDoubleN(hc HostContext, args []uint64) entities.Status {
	s, h, name, count, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	n, st := arrayCount(count)
	if st != entities.StatOK {
		return st
	}
	vals, st := s.Property.GetDoubleN(h, name, n)
	if st != entities.StatOK {
		return st
	}
	out := argU32(args, 3)
	if !span(s, out, n, 8) {
		return entities.StatFailed
	}
	for i, v := range vals {
		if st := putF64(s, out+uint32(i*8), v); st != entities.StatOK {
			return st
		}
	}
	return entities.StatOK
}

func propGetIntN(hc HostContext, args []uint64) entities.Status {
	s, h, name, count, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	n, st := arrayCount(count)
	if st != entities.StatOK {
		return st
	}
	vals, st := s.Property.GetIntN(h, name, n)
	if st != entities.StatOK {
		return st
	}
	out := argU32(args, 3)
	if !span(s, out, n, 4) {
		return entities.StatFailed
	}
	for i, v := range vals {
		if st := putI32(s, out+uint32(i*4), v); st != entities.StatOK {
			return st
		}
	}
	return entities.StatOK
}

func propReset(hc HostContext, args []uint64) entities.Status {
	s, h, name, _, st := propArgs(hc, args)
	if st != entities.StatOK {
		return st
	}
	return s.Property.Reset(h, name)
}

func propGetDimension(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	name, st := s.readString(argU32(args, 1))
	if st != entities.StatOK {
		return st
	}
	n, st := s.Property.GetDimension(argU32(args, 0), name)
	if st != entities.StatOK {
		return st
	}
	return putI32(s, argU32(args, 2), int32(n))
}
