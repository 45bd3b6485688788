package hostfuncs

import (
	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/handles"
)

// MultiThreadSuite is the single-threaded rendition of the threading suite.
// Work runs inline on the calling goroutine and mutexes never contend.
type MultiThreadSuite struct {
	s *Suites
}

type mutex struct {
	count int
}

// ThreadFunc is a unit of work given to MultiThread.
type ThreadFunc func(threadIndex, threadMax uint32)

// MultiThread runs fn once as thread 0 of 1. The wasm bridge answers
// ErrUnsupported instead, since a guest cannot hand over a Go function.
func (m *MultiThreadSuite) MultiThread(fn ThreadFunc, nThreads uint32) entities.Status {
	if fn == nil {
		return entities.StatErrValue
	}
	fn(0, 1)
	return entities.StatOK
}

// NumCPUs is always 1.
func (m *MultiThreadSuite) NumCPUs() uint32 {
	return 1
}

// Index is always 0.
func (m *MultiThreadSuite) Index() uint32 {
	return 0
}

// IsSpawnedThread is always false.
func (m *MultiThreadSuite) IsSpawnedThread() bool {
	return false
}

// MutexCreate creates a mutex handle.
func (m *MultiThreadSuite) MutexCreate(lockCount int) (Handle, entities.Status) {
	return m.s.state.Handles.RegisterNew(handles.KindMutex, &mutex{count: lockCount}, 0), entities.StatOK
}

func (m *MultiThreadSuite) mutex(h Handle) (*mutex, entities.Status) {
	return handles.Resolve[*mutex](m.s.state.Handles, h, handles.KindMutex)
}

// MutexDestroy invalidates a mutex handle.
func (m *MultiThreadSuite) MutexDestroy(h Handle) entities.Status {
	if _, st := m.mutex(h); st != entities.StatOK {
		return st
	}
	m.s.state.Handles.Release(h)
	return entities.StatOK
}

// MutexLock takes a mutex.
func (m *MultiThreadSuite) MutexLock(h Handle) entities.Status {
	mu, st := m.mutex(h)
	if st != entities.StatOK {
		return st
	}
	mu.count++
	return entities.StatOK
}

// MutexUnlock releases a mutex.
func (m *MultiThreadSuite) MutexUnlock(h Handle) entities.Status {
	mu, st := m.mutex(h)
	if st != entities.StatOK {
		return st
	}
	if mu.count > 0 {
		mu.count--
	}
	return entities.StatOK
}

// MutexTryLock takes a mutex. It never fails to acquire.
func (m *MultiThreadSuite) MutexTryLock(h Handle) entities.Status {
	return m.MutexLock(h)
}
