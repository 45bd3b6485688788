package abi

import (
	"fmt"
	"math"

	"github.com/ofxdriver/ofxdriver/domain/ports"
)

// VarArgs walks a wasm32 va_list: a packed buffer in guest memory where each
// argument sits at its natural alignment. int32, uint32 and pointers take 4
// bytes; double and int64 take 8 and are 8-byte aligned.
type VarArgs struct {
	mem ports.Memory
	off uint64
}

// NewVarArgs starts a cursor at the va_list pointer ptr.
func NewVarArgs(mem ports.Memory, ptr uint32) *VarArgs {
	return &VarArgs{mem: mem, off: uint64(ptr)}
}

// Offset returns the address of the next unread argument.
func (v *VarArgs) Offset() uint32 {
	return uint32(v.off)
}

// next aligns the cursor to size and returns the address of an argument of
// that size. An argument that would run past the 32-bit address space is
// out of range.
func (v *VarArgs) next(size uint64, kind string) (uint32, error) {
	at := (v.off + size - 1) &^ (size - 1)
	if at+size > math.MaxUint32+1 {
		return 0, fmt.Errorf("%w: va_list %s at 0x%x", ErrOutOfRange, kind, at)
	}
	return uint32(at), nil
}

// Int32 reads the next int argument.
func (v *VarArgs) Int32() (int32, error) {
	u, err := v.Uint32()
	return int32(u), err
}

// Uint32 reads the next 4-byte argument.
func (v *VarArgs) Uint32() (uint32, error) {
	at, err := v.next(4, "int")
	if err != nil {
		return 0, err
	}
	u, ok := v.mem.ReadUint32Le(at)
	if !ok {
		return 0, fmt.Errorf("%w: va_list int at 0x%x", ErrOutOfRange, at)
	}
	v.off = uint64(at) + 4
	return u, nil
}

// Pointer reads the next pointer argument.
func (v *VarArgs) Pointer() (uint32, error) {
	return v.Uint32()
}

// Int64 reads the next long long argument.
func (v *VarArgs) Int64() (int64, error) {
	at, err := v.next(8, "int64")
	if err != nil {
		return 0, err
	}
	u, ok := v.mem.ReadUint64Le(at)
	if !ok {
		return 0, fmt.Errorf("%w: va_list int64 at 0x%x", ErrOutOfRange, at)
	}
	v.off = uint64(at) + 8
	return int64(u), nil
}

// Float64 reads the next double argument. float arguments are promoted to
// double by C varargs, so there is no Float32.
func (v *VarArgs) Float64() (float64, error) {
	at, err := v.next(8, "double")
	if err != nil {
		return 0, err
	}
	f, ok := v.mem.ReadFloat64Le(at)
	if !ok {
		return 0, fmt.Errorf("%w: va_list double at 0x%x", ErrOutOfRange, at)
	}
	v.off = uint64(at) + 8
	return f, nil
}

// VarArgsBuilder lays out a va_list the way a wasm32 C compiler does. It is
// used to build argument buffers for tests and for host-built calls.
type VarArgsBuilder struct {
	buf []byte
}

func (b *VarArgsBuilder) pad(n int) {
	for len(b.buf)%n != 0 {
		b.buf = append(b.buf, 0)
	}
}

// Int32 appends an int argument.
func (b *VarArgsBuilder) Int32(v int32) *VarArgsBuilder {
	return b.Uint32(uint32(v))
}

// Uint32 appends a 4-byte argument.
func (b *VarArgsBuilder) Uint32(v uint32) *VarArgsBuilder {
	b.pad(4)
	b.buf = append(b.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
	return b
}

// Int64 appends a long long argument.
func (b *VarArgsBuilder) Int64(v int64) *VarArgsBuilder {
	b.pad(8)
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b.buf = append(b.buf, byte(u>>(8*i)))
	}
	return b
}

// Float64 appends a double argument.
func (b *VarArgsBuilder) Float64(v float64) *VarArgsBuilder {
	return b.Int64(int64(math.Float64bits(v)))
}

// Bytes returns the encoded buffer. It must be placed at an 8-byte aligned
// address for the offsets to match.
func (b *VarArgsBuilder) Bytes() []byte {
	return b.buf
}
