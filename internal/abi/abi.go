// Package abi provides host-side access to plugin linear memory: an
// in-process arena for builtin bundles, bounded C string reads, and the
// wasm32 va_list cursor used to adapt variadic suite entries.
package abi

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MaxTotalAllocations is the default cap on memory an Arena hands out.
const MaxTotalAllocations = 256 * 1024 * 1024 // 256 MB

// arenaBase is the first offset handed out. Offsets below it are never
// valid blocks, so zero stays the null pointer.
const arenaBase = 16

// allocAlign is the alignment of every block.
const allocAlign = 16

type block struct {
	ptr, size uint32
}

// Arena is a growable linear memory with a first-fit allocator. It gives
// builtin plugins the same pointer model wasm guests have: offsets into a
// single byte slice, checked on every access.
type Arena struct {
	mu             sync.Mutex
	data           []byte
	limit          uint32
	top            uint32
	ptrs           map[uint32]uint32 // ptr -> size
	free           []block
	totalAllocated int
}

// ArenaOption configures an Arena.
type ArenaOption func(*Arena)

// WithLimit caps the total size of the arena in bytes.
func WithLimit(limit uint32) ArenaOption {
	return func(a *Arena) {
		a.limit = limit
	}
}

// NewArena creates an empty arena.
func NewArena(opts ...ArenaOption) *Arena {
	a := &Arena{
		limit: MaxTotalAllocations,
		top:   arenaBase,
		ptrs:  make(map[uint32]uint32),
		data:  make([]byte, arenaBase),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate reserves size bytes aligned to 16 and zeroes them.
func (a *Arena) Allocate(_ context.Context, size uint32) (uint32, error) {
	if size == 0 {
		return 0, fmt.Errorf("abi: zero-sized allocation")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	rounded := alignUp(uint64(size))
	if rounded > math.MaxUint32 {
		return 0, fmt.Errorf("abi: allocation of %d bytes too large", size)
	}
	need := uint32(rounded)

	for i, b := range a.free {
		if b.size < need {
			continue
		}
		ptr := b.ptr
		if b.size == need {
			a.free = append(a.free[:i], a.free[i+1:]...)
		} else {
			a.free[i] = block{ptr: b.ptr + need, size: b.size - need}
		}
		a.commitLocked(ptr, need)
		return ptr, nil
	}

	end := uint64(a.top) + uint64(need)
	if end > uint64(a.limit) {
		return 0, fmt.Errorf("abi: memory allocation limit exceeded (requested: %d bytes, current: %d bytes, limit: %d bytes)",
			size, a.totalAllocated, a.limit)
	}
	if end > uint64(len(a.data)) {
		grown := make([]byte, end, max(end, uint64(2*len(a.data))))
		copy(grown, a.data)
		a.data = grown
	}
	ptr := a.top
	a.top = uint32(end)
	a.commitLocked(ptr, need)
	return ptr, nil
}

func (a *Arena) commitLocked(ptr, size uint32) {
	clear(a.data[ptr : ptr+size])
	a.ptrs[ptr] = size
	a.totalAllocated += int(size)
}

// Free releases a block. Freeing an untracked pointer is an error and
// leaves the arena untouched.
func (a *Arena) Free(_ context.Context, ptr uint32) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	size, ok := a.ptrs[ptr]
	if !ok {
		return fmt.Errorf("abi: free of untracked pointer 0x%x", ptr)
	}
	delete(a.ptrs, ptr)
	a.totalAllocated -= int(size)

	a.free = append(a.free, block{ptr: ptr, size: size})
	sort.Slice(a.free, func(i, j int) bool { return a.free[i].ptr < a.free[j].ptr })
	merged := a.free[:0]
	for _, b := range a.free {
		if n := len(merged); n > 0 && merged[n-1].ptr+merged[n-1].size == b.ptr {
			merged[n-1].size += b.size
			continue
		}
		merged = append(merged, b)
	}
	a.free = merged
	if n := len(a.free); n > 0 && a.free[n-1].ptr+a.free[n-1].size == a.top {
		a.top = a.free[n-1].ptr
		a.free = a.free[:n-1]
	}
	return nil
}

// Allocated returns the number of bytes currently handed out.
func (a *Arena) Allocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalAllocated
}

// Live returns the number of live blocks.
func (a *Arena) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ptrs)
}

// Size returns the current size of the arena in bytes.
func (a *Arena) Size() uint32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return uint32(len(a.data))
}

func (a *Arena) inBounds(offset, count uint32) bool {
	return uint64(offset)+uint64(count) <= uint64(len(a.data))
}

// Read returns a view of count bytes at offset.
func (a *Arena) Read(offset, count uint32) ([]byte, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.inBounds(offset, count) {
		return nil, false
	}
	return a.data[offset : offset+count : offset+count], true
}

// Write copies v to offset.
func (a *Arena) Write(offset uint32, v []byte) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if uint64(len(v)) > math.MaxUint32 || !a.inBounds(offset, uint32(len(v))) {
		return false
	}
	copy(a.data[offset:], v)
	return true
}

// ReadByte reads one byte.
func (a *Arena) ReadByte(offset uint32) (byte, bool) {
	b, ok := a.Read(offset, 1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

// ReadUint32Le reads a little-endian uint32.
func (a *Arena) ReadUint32Le(offset uint32) (uint32, bool) {
	b, ok := a.Read(offset, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// WriteUint32Le writes a little-endian uint32.
func (a *Arena) WriteUint32Le(offset, v uint32) bool {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return a.Write(offset, b[:])
}

// ReadUint64Le reads a little-endian uint64.
func (a *Arena) ReadUint64Le(offset uint32) (uint64, bool) {
	b, ok := a.Read(offset, 8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b), true
}

// WriteUint64Le writes a little-endian uint64.
func (a *Arena) WriteUint64Le(offset uint32, v uint64) bool {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return a.Write(offset, b[:])
}

// ReadFloat64Le reads a little-endian IEEE 754 double.
func (a *Arena) ReadFloat64Le(offset uint32) (float64, bool) {
	v, ok := a.ReadUint64Le(offset)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(v), true
}

// WriteFloat64Le writes a little-endian IEEE 754 double.
func (a *Arena) WriteFloat64Le(offset uint32, v float64) bool {
	return a.WriteUint64Le(offset, math.Float64bits(v))
}

func alignUp(n uint64) uint64 {
	return (n + allocAlign - 1) &^ (allocAlign - 1)
}
