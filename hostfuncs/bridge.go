package hostfuncs

import (
	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/abi"
)

// The bridge functions below serve wasm guests. Pointer arguments are
// offsets in the guest's linear memory; a pointer that does not fit the
// memory is reported as a status, never dereferenced.

// maxArrayCount bounds the count argument of the N-ary property calls.
const maxArrayCount = entities.MaxDimension

func putU32(s *Suites, ptr, v uint32) entities.Status {
	if ptr == 0 || !s.mem.WriteUint32Le(ptr, v) {
		return entities.StatFailed
	}
	return entities.StatOK
}

func putI32(s *Suites, ptr uint32, v int32) entities.Status {
	return putU32(s, ptr, uint32(v))
}

func putF64(s *Suites, ptr uint32, v float64) entities.Status {
	if ptr == 0 || !s.mem.WriteFloat64Le(ptr, v) {
		return entities.StatFailed
	}
	return entities.StatOK
}

// span reports whether n elements of width bytes starting at ptr lie in
// plugin memory. Element addresses inside a checked span cannot wrap.
func span(s *Suites, ptr uint32, n, width int) bool {
	if n == 0 {
		return true
	}
	if ptr == 0 {
		return false
	}
	_, ok := s.mem.Read(ptr, uint32(n*width))
	return ok
}

func putRect(s *Suites, ptr uint32, r entities.RectD) entities.Status {
	if !span(s, ptr, 4, 8) {
		return entities.StatFailed
	}
	for i, v := range []float64{r.X1, r.Y1, r.X2, r.Y2} {
		if st := putF64(s, ptr+uint32(i*8), v); st != entities.StatOK {
			return st
		}
	}
	return entities.StatOK
}

func getRect(s *Suites, ptr uint32) (entities.RectD, bool) {
	if !span(s, ptr, 4, 8) {
		return entities.RectD{}, false
	}
	var v [4]float64
	for i := range v {
		x, ok := s.mem.ReadFloat64Le(ptr + uint32(i*8))
		if !ok {
			return entities.RectD{}, false
		}
		v[i] = x
	}
	return entities.RectD{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, true
}

// optString reads a string argument that may be null.
func optString(s *Suites, ptr uint32) (string, entities.Status) {
	if ptr == 0 {
		return "", entities.StatOK
	}
	return s.readString(ptr)
}

// arrayCount validates the count argument of an N-ary call.
func arrayCount(n int32) (int, entities.Status) {
	if n < 0 {
		return 0, entities.StatErrBadIndex
	}
	if n > maxArrayCount {
		return 0, entities.StatErrValue
	}
	return int(n), entities.StatOK
}

// readArray reads n little-endian elements of width bytes starting at ptr.
func readArray[T any](s *Suites, ptr uint32, n, width int, decode func(uint32) (T, bool)) ([]T, entities.Status) {
	if n == 0 {
		return []T{}, entities.StatOK
	}
	if _, ok := s.mem.Read(ptr, uint32(n*width)); !ok {
		return nil, entities.StatErrValue
	}
	out := make([]T, n)
	for i := range out {
		v, ok := decode(ptr + uint32(i*width))
		if !ok {
			return nil, entities.StatErrValue
		}
		out[i] = v
	}
	return out, entities.StatOK
}

func readStrings(s *Suites, ptr uint32, n int) ([][]byte, entities.Status) {
	ptrs, st := readArray(s, ptr, n, 4, s.mem.ReadUint32Le)
	if st != entities.StatOK {
		return nil, st
	}
	out := make([][]byte, n)
	for i, p := range ptrs {
		b, err := abi.ReadCString(s.mem, p, abi.MaxCStringLen)
		if err != nil {
			return nil, entities.StatErrValue
		}
		out[i] = b
	}
	return out, entities.StatOK
}
