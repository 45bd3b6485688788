package ports

import "context"

// Memory is bounded access to a plugin's linear memory. Every accessor
// reports ok=false instead of faulting when the range is out of bounds.
// wazero's api.Memory satisfies it directly.
type Memory interface {
	// Size returns the current size of the memory in bytes.
	Size() uint32
	Read(offset, byteCount uint32) ([]byte, bool)
	Write(offset uint32, v []byte) bool
	ReadByte(offset uint32) (byte, bool)
	ReadUint32Le(offset uint32) (uint32, bool)
	WriteUint32Le(offset, v uint32) bool
	ReadUint64Le(offset uint32) (uint64, bool)
	WriteUint64Le(offset uint32, v uint64) bool
	ReadFloat64Le(offset uint32) (float64, bool)
	WriteFloat64Le(offset uint32, v float64) bool
}

// Allocator hands out blocks of a plugin's linear memory.
type Allocator interface {
	// Allocate reserves size bytes and returns their offset. Zero is never
	// a valid block.
	Allocate(ctx context.Context, size uint32) (uint32, error)
	// Free releases a block returned by Allocate.
	Free(ctx context.Context, ptr uint32) error
}
