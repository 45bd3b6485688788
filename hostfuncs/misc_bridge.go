package hostfuncs

import (
	"bytes"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/abi"
)

// MemorySuiteFunctions returns the memory suite as wasm host functions.
func MemorySuiteFunctions() []Function {
	return []Function{
		fn("memoryAlloc", 3, memoryAlloc),
		fn("memoryFree", 1, memoryFree),
	}
}

// MessageSuiteFunctions returns the message suite as wasm host functions.
func MessageSuiteFunctions() []Function {
	return []Function{
		fn("message", 5, message),
	}
}

// MultiThreadSuiteFunctions returns the multi-thread suite as wasm host
// functions.
func MultiThreadSuiteFunctions() []Function {
	return []Function{
		fn("multiThread", 3, multiThread),
		fn("multiThreadNumCPUs", 1, multiThreadNumCPUs),
		fn("multiThreadIndex", 1, multiThreadIndex),
		fn("multiThreadIsSpawnedThread", 0, multiThreadIsSpawnedThread),
		fn("mutexCreate", 2, mutexCreate),
		fn("mutexDestroy", 1, mutexDestroy),
		fn("mutexLock", 1, mutexLock),
		fn("mutexUnLock", 1, mutexUnLock),
		fn("mutexTryLock", 1, mutexTryLock),
	}
}

// HostFunctions returns the suite lookup itself.
func HostFunctions() []Function {
	return []Function{
		fn("fetchSuite", 3, fetchSuite),
	}
}

func memoryAlloc(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	ptr, st := s.Memory.Alloc(hc, argU32(args, 0), argU32(args, 1))
	if st != entities.StatOK {
		return st
	}
	if st := putU32(s, argU32(args, 2), ptr); st != entities.StatOK {
		s.Memory.Free(hc, ptr)
		return st
	}
	return entities.StatOK
}

func memoryFree(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().Memory.Free(hc, argU32(args, 0))
}

// message expands the plugin's printf format in two passes: the first
// measures, the second formats into a buffer of exactly that size. The
// buffer goes back to the pool on every path.
func message(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	msgType, st := s.readString(argU32(args, 1))
	if st != entities.StatOK {
		return st
	}
	id, st := optString(s, argU32(args, 2))
	if st != entities.StatOK {
		return st
	}
	return s.Message.Post(hc, argU32(args, 0), msgType, id, formatMessage(s, argU32(args, 3), argU32(args, 4)))
}

// formatMessage returns nil when the format cannot be expanded.
func formatMessage(s *Suites, fmtPtr, vaPtr uint32) []byte {
	format, err := abi.ReadCString(s.mem, fmtPtr, abi.MaxCStringLen)
	if err != nil {
		return nil
	}
	want := measure(s, format, vaPtr)
	if want < 0 {
		return nil
	}
	buf := acquireBuffer(want + 1)
	defer releaseBuffer(buf)
	if n := vsnprintf(buf, s.mem, format, vaPtr); n != want || buf.Truncated() {
		return nil
	}
	return bytes.Clone(buf.Bytes())
}

func measure(s *Suites, format []byte, vaPtr uint32) int {
	buf := acquireBuffer(0)
	defer releaseBuffer(buf)
	return vsnprintf(buf, s.mem, format, vaPtr)
}

func multiThread(hc HostContext, args []uint64) entities.Status {
	return entities.StatErrUnsupported
}

func multiThreadNumCPUs(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	return putU32(s, argU32(args, 0), s.MultiThread.NumCPUs())
}

func multiThreadIndex(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	return putU32(s, argU32(args, 0), s.MultiThread.Index())
}

// multiThreadIsSpawnedThread returns the C boolean as the raw result.
func multiThreadIsSpawnedThread(hc HostContext, args []uint64) entities.Status {
	if hc.Suites().MultiThread.IsSpawnedThread() {
		return entities.Status(1)
	}
	return entities.Status(0)
}

func mutexCreate(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	h, st := s.MultiThread.MutexCreate(int(argI32(args, 1)))
	if st != entities.StatOK {
		return st
	}
	if st := putU32(s, argU32(args, 0), h); st != entities.StatOK {
		s.MultiThread.MutexDestroy(h)
		return st
	}
	return entities.StatOK
}

func mutexDestroy(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().MultiThread.MutexDestroy(argU32(args, 0))
}

func mutexLock(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().MultiThread.MutexLock(argU32(args, 0))
}

func mutexUnLock(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().MultiThread.MutexUnlock(argU32(args, 0))
}

func mutexTryLock(hc HostContext, args []uint64) entities.Status {
	return hc.Suites().MultiThread.MutexTryLock(argU32(args, 0))
}

// fetchSuite reports whether the host provides a suite: OK when it does,
// ErrUnsupported otherwise. Guests call the suite entries as imports.
func fetchSuite(hc HostContext, args []uint64) entities.Status {
	s := hc.Suites()
	if argU32(args, 0) != s.PropertySet() {
		return entities.StatErrBadHandle
	}
	name, st := s.readString(argU32(args, 1))
	if st != entities.StatOK {
		return st
	}
	if s.FetchSuite(name, int(argI32(args, 2))) == nil {
		return entities.StatErrUnsupported
	}
	return entities.StatOK
}
