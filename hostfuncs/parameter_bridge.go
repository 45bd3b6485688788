package hostfuncs

import (
	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/abi"
)

// maxValueArity is the largest component count the variadic value calls
// forward.
const maxValueArity = 4

// ParameterSuiteFunctions returns the parameter suite as wasm host functions.
func ParameterSuiteFunctions() []Function {
	i, d := ValueI32, ValueF64
	return []Function{
		fn("paramDefine", 4, paramDefine),
		fn("paramGetHandle", 4, paramGetHandle),
		fn("paramSetGetPropertySet", 2, paramSetGetPropertySet),
		fn("paramGetPropertySet", 2, paramGetPropertySet),
		fn("paramGetValue", 2, paramGetValue),
		fnTyped("paramGetValueAtTime", []ValueType{i, d, i}, paramGetValueAtTime),
		fnTyped("paramGetDerivative", []ValueType{i, d, i}, paramGetDerivative),
		fnTyped("paramGetIntegral", []ValueType{i, d, d, i}, paramGetIntegral),
		fn("paramSetValue", 2, paramSetValue),
		fnTyped("paramSetValueAtTime", []ValueType{i, d, i}, paramSetValueAtTime),
		fn("paramGetNumKeys", 2, paramGetNumKeys),
		fn("paramGetKeyTime", 3, paramGetKeyTime),
		fnTyped("paramGetKeyIndex", []ValueType{i, d, i, i}, paramGetKeyIndex),
		fnTyped("paramDeleteKey", []ValueType{i, d}, paramDeleteKey),
		fn("paramDeleteAllKeys", 1, paramDeleteAllKeys),
		fnTyped("paramCopy", []ValueType{i, i, d, i}, paramCopy),
		fn("paramEditBegin", 2, paramEditBegin),
		fn("paramEditEnd", 1, paramEditEnd),
	}
}

func paramDefine(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	paramType, st := s.readString(argU32(args, 1))
	if st != entities.StatOK {
		return st
	}
	name, st := s.readString(argU32(args, 2))
	if st != entities.StatOK {
		return st
	}
	props, st := s.Parameter.Define(argU32(args, 0), paramType, name)
	if st != entities.StatOK {
		return st
	}
	if out := argU32(args, 3); out != 0 {
		return putU32(s, out, props)
	}
	return entities.StatOK
}

func paramGetHandle(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	name, st := s.readString(argU32(args, 1))
	if st != entities.StatOK {
		return st
	}
	param, props, st := s.Parameter.GetHandle(argU32(args, 0), name)
	if st != entities.StatOK {
		return st
	}
	if st := putU32(s, argU32(args, 2), param); st != entities.StatOK {
		return st
	}
	if out := argU32(args, 3); out != 0 {
		return putU32(s, out, props)
	}
	return entities.StatOK
}

func paramSetGetPropertySet(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	props, st := s.Parameter.SetGetPropertySet(argU32(args, 0))
	if st != entities.StatOK {
		return st
	}
	return putU32(s, argU32(args, 1), props)
}

func paramGetPropertySet(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	props, st := s.Parameter.GetPropertySet(argU32(args, 0))
	if st != entities.StatOK {
		return st
	}
	return putU32(s, argU32(args, 1), props)
}

// componentCount asks for the declared component count of param. Counts
// outside 1..4 are Failed before any argument is read.
func componentCount(s *Suites, param Handle) (int, entities.Status) {
	n, st := s.dimension(param)
	if st != entities.StatOK {
		return 0, st
	}
	if n < 1 || n > maxValueArity {
		return 0, entities.StatFailed
	}
	return n, entities.StatOK
}

func paramGetValue(hc HostContext, args []uint64) entities.Status {
	return getValueVA(hc, argU32(args, 0), argU32(args, 1))
}

func paramGetValueAtTime(hc HostContext, args []uint64) entities.Status {
	return getValueVA(hc, argU32(args, 0), argU32(args, 2))
}

// getValueVA consumes one out pointer per component from the va_list and
// forwards to the fixed-arity getter.
func getValueVA(hc HostContext, param Handle, vaPtr uint32) entities.Status {
	s := hc.Suites()
	n, st := componentCount(s, param)
	if st != entities.StatOK {
		return st
	}
	va := abi.NewVarArgs(s.mem, vaPtr)
	var out [maxValueArity]uint32
	for i := 0; i < n; i++ {
		p, err := va.Pointer()
		if err != nil {
			return entities.StatErrValue
		}
		out[i] = p
	}
	switch n {
	case 1:
		return getValue1(hc, param, out[0])
	case 2:
		return getValue2(hc, param, out[0], out[1])
	case 3:
		return getValue3(hc, param, out[0], out[1], out[2])
	default:
		return getValue4(hc, param, out[0], out[1], out[2], out[3])
	}
}

func getValue1(hc HostContext, param Handle, a uint32) entities.Status {
	return writeComponents(hc, param, a)
}

func getValue2(hc HostContext, param Handle, a, b uint32) entities.Status {
	return writeComponents(hc, param, a, b)
}

func getValue3(hc HostContext, param Handle, a, b, c uint32) entities.Status {
	return writeComponents(hc, param, a, b, c)
}

func getValue4(hc HostContext, param Handle, a, b, c, d uint32) entities.Status {
	return writeComponents(hc, param, a, b, c, d)
}

// writeComponents stores each value component at its out pointer: ints as
// 4 bytes, doubles as 8 and strings as a pinned pointer.
func writeComponents(hc HostContext, param Handle, outs ...uint32) entities.Status {
	s := hc.Suites()
	comps, st := s.Parameter.GetComponents(param)
	if st != entities.StatOK {
		return st
	}
	if len(comps) != len(outs) {
		return entities.StatFailed
	}
	for i, c := range comps {
		var st entities.Status
		switch v := c.(type) {
		case entities.Int:
			st = putI32(s, outs[i], int32(v))
		case entities.Double:
			st = putF64(s, outs[i], float64(v))
		case entities.Bytes:
			var ptr uint32
			if ptr, st = s.pinString(hc, param, "value", i, v); st == entities.StatOK {
				st = putU32(s, outs[i], ptr)
			}
		default:
			st = entities.StatFailed
		}
		if st != entities.StatOK {
			return st
		}
	}
	return entities.StatOK
}

func paramSetValue(hc HostContext, args []uint64) entities.Status {
	return setValueVA(hc, argU32(args, 0), argU32(args, 1))
}

func paramSetValueAtTime(hc HostContext, args []uint64) entities.Status {
	return setValueVA(hc, argU32(args, 0), argU32(args, 2))
}

// setValueVA consumes the declared number of components from the va_list
// and dispatches on the declared type to the typed setter. A type without
// a setter is Failed and writes nothing.
func setValueVA(hc HostContext, param Handle, vaPtr uint32) entities.Status {
	s := hc.Suites()
	n, st := componentCount(s, param)
	if st != entities.StatOK {
		return st
	}
	t, st := s.Parameter.Type(param)
	if st != entities.StatOK {
		return st
	}
	va := abi.NewVarArgs(s.mem, vaPtr)

	switch t {
	case entities.ParamTypeBoolean, entities.ParamTypeInteger, entities.ParamTypeChoice:
		v, err := va.Int32()
		if err != nil {
			return entities.StatErrValue
		}
		switch t {
		case entities.ParamTypeBoolean:
			return s.Parameter.SetBoolean(param, v != 0)
		case entities.ParamTypeChoice:
			return s.Parameter.SetChoice(param, v)
		}
		return s.Parameter.SetInteger(param, v)

	case entities.ParamTypeDouble:
		v, err := va.Float64()
		if err != nil {
			return entities.StatErrValue
		}
		return s.Parameter.SetDouble(param, v)

	case entities.ParamTypeString, entities.ParamTypeCustom:
		ptr, err := va.Pointer()
		if err != nil {
			return entities.StatErrValue
		}
		b, err := abi.ReadCString(s.mem, ptr, abi.MaxCStringLen)
		if err != nil {
			return entities.StatErrValue
		}
		return s.Parameter.SetString(param, b)

	case entities.ParamTypeDouble2D, entities.ParamTypeDouble3D, entities.ParamTypeRGB, entities.ParamTypeRGBA:
		vals := make([]float64, n)
		for i := range vals {
			v, err := va.Float64()
			if err != nil {
				return entities.StatErrValue
			}
			vals[i] = v
		}
		return s.Parameter.SetDoubleN(param, vals)

	case entities.ParamTypeInteger2D, entities.ParamTypeInteger3D:
		vals := make([]int32, n)
		for i := range vals {
			v, err := va.Int32()
			if err != nil {
				return entities.StatErrValue
			}
			vals[i] = v
		}
		return s.Parameter.SetIntegerN(param, vals)
	}
	return entities.StatFailed
}

func paramGetDerivative(hc HostContext, args []uint64) entities.Status {
	_, st := hc.Suites().Parameter.GetDerivative(argU32(args, 0), argF64(args, 1))
	return st
}

func paramGetIntegral(hc HostContext, args []uint64) entities.Status {
	_, st := hc.Suites().Parameter.GetIntegral(argU32(args, 0), argF64(args, 1), argF64(args, 2))
	return st
}

func paramGetNumKeys(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	n, st := s.Parameter.GetNumKeys(argU32(args, 0))
	if st != entities.StatOK {
		return st
	}
	return putU32(s, argU32(args, 1), uint32(n))
}

func paramGetKeyTime(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	t, st := s.Parameter.GetKeyTime(argU32(args, 0), int(argU32(args, 1)))
	if st != entities.StatOK {
		return st
	}
	return putF64(s, argU32(args, 2), t)
}

func paramGetKeyIndex(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	idx, st := s.Parameter.GetKeyIndex(argU32(args, 0), argF64(args, 1), int(argI32(args, 2)))
	if st != entities.StatOK {
		return st
	}
	return putI32(s, argU32(args, 3), int32(idx))
}

func paramDeleteKey(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().Parameter.DeleteKey(argU32(args, 0), argF64(args, 1))
}

func paramDeleteAllKeys(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().Parameter.DeleteAllKeys(argU32(args, 0))
}

func paramCopy(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().Parameter.Copy(argU32(args, 0), argU32(args, 1), argF64(args, 2))
}

func paramEditBegin(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	name, st := optString(s, argU32(args, 1))
	if st != entities.StatOK {
		return st
	}
	return s.Parameter.EditBegin(argU32(args, 0), name)
}

func paramEditEnd(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().Parameter.EditEnd(argU32(args, 0))
}
