package hostfuncs

import (
	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// ImageEffectSuiteFunctions returns the image effect suite as wasm host
// functions.
func ImageEffectSuiteFunctions() []Function {
	i, d := ValueI32, ValueF64
	return []Function{
		fn("getPropertySet", 2, getPropertySet),
		fn("getParamSet", 2, getParamSet),
		fn("clipDefine", 3, clipDefine),
		fn("clipGetHandle", 4, clipGetHandle),
		fn("clipGetPropertySet", 2, clipGetPropertySet),
		fnTyped("clipGetImage", []ValueType{i, d, i, i}, clipGetImage),
		fn("clipReleaseImage", 1, clipReleaseImage),
		fnTyped("clipGetRegionOfDefinition", []ValueType{i, d, i}, clipGetRegionOfDefinition),
		fn("abort", 1, abortRender),
		fn("imageMemoryAlloc", 3, imageMemoryAlloc),
		fn("imageMemoryFree", 1, imageMemoryFree),
		fn("imageMemoryLock", 2, imageMemoryLock),
		fn("imageMemoryUnlock", 1, imageMemoryUnlock),
	}
}

func getPropertySet(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	h, st := s.ImageEffect.GetPropertySet(argU32(args, 0))
	if st != entities.StatOK {
		return st
	}
	return putU32(s, argU32(args, 1), h)
}

func getParamSet(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	h, st := s.ImageEffect.GetParamSet(argU32(args, 0))
	if st != entities.StatOK {
		return st
	}
	return putU32(s, argU32(args, 1), h)
}

func clipDefine(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	name, st := s.readString(argU32(args, 1))
	if st != entities.StatOK {
		return st
	}
	props, st := s.ImageEffect.ClipDefine(argU32(args, 0), name)
	if st != entities.StatOK {
		return st
	}
	if out := argU32(args, 2); out != 0 {
		return putU32(s, out, props)
	}
	return entities.StatOK
}

func clipGetHandle(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	name, st := s.readString(argU32(args, 1))
	if st != entities.StatOK {
		return st
	}
	clip, props, st := s.ImageEffect.ClipGetHandle(argU32(args, 0), name)
	if st != entities.StatOK {
		return st
	}
	if st := putU32(s, argU32(args, 2), clip); st != entities.StatOK {
		return st
	}
	if out := argU32(args, 3); out != 0 {
		return putU32(s, out, props)
	}
	return entities.StatOK
}

func clipGetPropertySet(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	h, st := s.ImageEffect.ClipGetPropertySet(argU32(args, 0))
	if st != entities.StatOK {
		return st
	}
	return putU32(s, argU32(args, 1), h)
}

func clipGetImage(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	var region *entities.RectD
	if p := argU32(args, 2); p != 0 {
		r, ok := getRect(s, p)
		if !ok {
			return entities.StatErrValue
		}
		region = &r
	}
	img, st := s.ImageEffect.ClipGetImage(argU32(args, 0), argF64(args, 1), region)
	if st != entities.StatOK {
		return st
	}
	if st := putU32(s, argU32(args, 3), img); st != entities.StatOK {
		s.ImageEffect.ClipReleaseImage(img)
		return st
	}
	return entities.StatOK
}

func clipReleaseImage(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().ImageEffect.ClipReleaseImage(argU32(args, 0))
}

func clipGetRegionOfDefinition(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	r, st := s.ImageEffect.ClipGetRegionOfDefinition(argU32(args, 0), argF64(args, 1))
	if st != entities.StatOK {
		return st
	}
	return putRect(s, argU32(args, 2), r)
}

// abortRender returns the C boolean as the raw result, 0 for false.
func abortRender(hc HostContext, args []uint64) entities.Status {
	if hc.Suites().ImageEffect.Abort(argU32(args, 0)) {
		return entities.Status(1)
	}
	return entities.Status(0)
}

func imageMemoryAlloc(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	h, st := s.ImageEffect.ImageMemoryAlloc(hc, argU32(args, 0), argU32(args, 1))
	if st != entities.StatOK {
		return st
	}
	if st := putU32(s, argU32(args, 2), h); st != entities.StatOK {
		s.ImageEffect.ImageMemoryFree(hc, h)
		return st
	}
	return entities.StatOK
}

func imageMemoryFree(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().ImageEffect.ImageMemoryFree(hc, argU32(args, 0))
}

func imageMemoryLock(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	ptr, st := s.ImageEffect.ImageMemoryLock(argU32(args, 0))
	if st != entities.StatOK {
		return st
	}
	return putU32(s, argU32(args, 1), ptr)
}

func imageMemoryUnlock(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().ImageEffect.ImageMemoryUnlock(argU32(args, 0))
}
