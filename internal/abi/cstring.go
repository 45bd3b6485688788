package abi

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/ofxdriver/ofxdriver/domain/ports"
)

// MaxCStringLen bounds the scan for the terminating NUL of a guest string.
const MaxCStringLen = 64 * 1024

// scanChunk is how many bytes ReadCString inspects per memory read.
const scanChunk = 256

var (
	// ErrNullPointer is returned for a zero guest pointer.
	ErrNullPointer = errors.New("abi: null pointer")
	// ErrOutOfRange is returned when a guest range falls outside memory.
	ErrOutOfRange = errors.New("abi: pointer out of range")
	// ErrUnterminated is returned when no NUL is found within the limit.
	ErrUnterminated = errors.New("abi: unterminated string")
)

// ReadCString reads a NUL-terminated string at ptr, scanning at most limit
// bytes. The result is a copy and does not alias guest memory.
func ReadCString(mem ports.Memory, ptr uint32, limit int) ([]byte, error) {
	if ptr == 0 {
		return nil, ErrNullPointer
	}
	if limit <= 0 {
		limit = MaxCStringLen
	}
	size := mem.Size()
	if ptr >= size {
		return nil, ErrOutOfRange
	}

	var out []byte
	for off := ptr; len(out) < limit; {
		n := uint32(min(scanChunk, limit-len(out)))
		if rest := size - off; rest < n {
			n = rest
		}
		if n == 0 {
			return nil, ErrOutOfRange
		}
		chunk, ok := mem.Read(off, n)
		if !ok {
			return nil, ErrOutOfRange
		}
		if i := bytes.IndexByte(chunk, 0); i >= 0 {
			return append(out, chunk[:i]...), nil
		}
		out = append(out, chunk...)
		off += n
	}
	return nil, ErrUnterminated
}

// ReadString reads a NUL-terminated string with the default limit.
func ReadString(mem ports.Memory, ptr uint32) (string, error) {
	b, err := ReadCString(mem, ptr, MaxCStringLen)
	return string(b), err
}

// ReadBytes copies length bytes at ptr out of guest memory.
func ReadBytes(mem ports.Memory, ptr, length uint32) ([]byte, error) {
	if length == 0 {
		return []byte{}, nil
	}
	if ptr == 0 {
		return nil, ErrNullPointer
	}
	b, ok := mem.Read(ptr, length)
	if !ok {
		return nil, fmt.Errorf("%w: %d bytes at 0x%x", ErrOutOfRange, length, ptr)
	}
	return bytes.Clone(b), nil
}

// WriteCString allocates len(s)+1 bytes, copies s and a terminating NUL, and
// returns the pointer. The caller owns the block.
func WriteCString(ctx context.Context, mem ports.Memory, alloc ports.Allocator, s []byte) (uint32, error) {
	ptr, err := alloc.Allocate(ctx, uint32(len(s)+1))
	if err != nil {
		return 0, err
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	if !mem.Write(ptr, buf) {
		_ = alloc.Free(ctx, ptr)
		return 0, fmt.Errorf("%w: string of %d bytes at 0x%x", ErrOutOfRange, len(buf), ptr)
	}
	return ptr, nil
}
