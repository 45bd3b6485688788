package hostfuncs

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
)

// DefaultMaxMessageSize is the longest formatted plugin message accepted
// (64KB). Longer expansions fail the same way a bad format does.
const DefaultMaxMessageSize = 64 * 1024

var errTooLong = errors.New("printf: output too long")

// boundedBuffer is the sink of vsnprintf. Like a C snprintf destination it
// stores at most its capacity but counts every byte written to it, so a
// zero-capacity buffer measures an expansion without keeping it. Writes
// past DefaultMaxMessageSize fail.
type boundedBuffer struct {
	buffer bytes.Buffer
	limit  int
	total  int
}

// Write implements io.Writer.
func (b *boundedBuffer) Write(p []byte) (int, error) {
	if b.total+len(p) > DefaultMaxMessageSize {
		return 0, errTooLong
	}
	n := len(p)
	b.total += n
	if room := b.limit - b.buffer.Len(); room > 0 {
		if n > room {
			p = p[:room]
		}
		b.buffer.Write(p)
	}
	return n, nil
}

// Total returns the length of the full expansion, stored or not.
func (b *boundedBuffer) Total() int {
	return b.total
}

// Truncated reports whether part of the expansion was not stored.
func (b *boundedBuffer) Truncated() bool {
	return b.total > b.buffer.Len()
}

// Bytes returns the stored bytes. They are only valid until release.
func (b *boundedBuffer) Bytes() []byte {
	return b.buffer.Bytes()
}

func (b *boundedBuffer) reset(limit int) {
	b.buffer.Reset()
	b.limit = limit
	b.total = 0
}

var (
	bufferPool = sync.Pool{
		New: func() any { return new(boundedBuffer) },
	}
	liveBuffers atomic.Int64
)

// acquireBuffer takes a pooled buffer that stores at most size bytes.
// Every acquire must be paired with releaseBuffer.
func acquireBuffer(size int) *boundedBuffer {
	b := bufferPool.Get().(*boundedBuffer)
	b.reset(size)
	b.buffer.Grow(size)
	liveBuffers.Add(1)
	return b
}

func releaseBuffer(b *boundedBuffer) {
	liveBuffers.Add(-1)
	b.reset(0)
	bufferPool.Put(b)
}
