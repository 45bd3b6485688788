package hostfuncs

import (
	"context"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/handles"
)

// MemorySuite hands out general purpose blocks of plugin memory. Every
// block is tracked, so freeing a pointer the suite did not allocate is
// rejected instead of corrupting the allocator.
type MemorySuite struct {
	s *Suites
}

// Alloc allocates nBytes. handle is the effect the block belongs to, or null.
func (m *MemorySuite) Alloc(ctx context.Context, handle Handle, nBytes uint32) (uint32, entities.Status) {
	if handle != 0 && m.s.state.Handles.KindOf(handle) == handles.KindInvalid {
		return 0, entities.StatErrBadHandle
	}
	if nBytes == 0 {
		return 0, entities.StatErrMemory
	}
	ptr, err := m.s.alloc.Allocate(ctx, nBytes)
	if err != nil {
		m.s.logger().DebugContext(ctx, "memoryAlloc failed", "bytes", nBytes, "error", err)
		return 0, entities.StatErrMemory
	}
	m.s.blocks[ptr] = block{owner: handle}
	return ptr, entities.StatOK
}

// Free releases a block returned by Alloc.
func (m *MemorySuite) Free(ctx context.Context, ptr uint32) entities.Status {
	if b, ok := m.s.blocks[ptr]; !ok || b.image {
		return entities.StatErrBadHandle
	}
	delete(m.s.blocks, ptr)
	if err := m.s.alloc.Free(ctx, ptr); err != nil {
		return entities.StatErrBadHandle
	}
	return entities.StatOK
}
