package hostfuncs

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/internal/abi"
	"github.com/ofxdriver/ofxdriver/internal/handles"
)

// SuiteVersion is the only version of each suite this host provides.
const SuiteVersion = 1

// ImageBinding is a pixel buffer bound to a clip for one render call. Data
// is the buffer's address in the plugin's memory.
type ImageBinding struct {
	Image *entities.Image
	Data  uint32
}

type pinKey struct {
	owner Handle
	name  string
	index int
}

type block struct {
	owner Handle
	image bool
}

type pin struct {
	ptr   uint32
	value []byte
}

// Suites is the host as one bundle sees it. It implements ports.Host and
// carries the bundle's memory, so strings and buffers handed to the plugin
// live where the plugin can dereference them.
type Suites struct {
	state *State
	mem   ports.Memory
	alloc ports.Allocator

	Property    *PropertySuite
	Parameter   *ParameterSuite
	ImageEffect *ImageEffectSuite
	Memory      *MemorySuite
	Message     *MessageSuite
	MultiThread *MultiThreadSuite

	// dimension reports a parameter's component count for the variadic
	// value calls.
	dimension func(Handle) (int, entities.Status)

	pins     map[pinKey][]pin
	bindings map[*entities.Clip]ImageBinding
	blocks   map[uint32]block
}

// NewSuites creates the suites for a bundle whose plugins address mem.
func NewSuites(state *State, mem ports.Memory, alloc ports.Allocator) *Suites {
	s := &Suites{
		state:    state,
		mem:      mem,
		alloc:    alloc,
		pins:     make(map[pinKey][]pin),
		bindings: make(map[*entities.Clip]ImageBinding),
		blocks:   make(map[uint32]block),
	}
	s.Property = &PropertySuite{s: s}
	s.Parameter = &ParameterSuite{s: s}
	s.ImageEffect = &ImageEffectSuite{s: s}
	s.Memory = &MemorySuite{s: s}
	s.Message = &MessageSuite{s: s}
	s.MultiThread = &MultiThreadSuite{s: s}
	s.dimension = s.Parameter.Dimension
	return s
}

// State returns the shared host state.
func (s *Suites) State() *State {
	return s.state
}

// Mem returns the plugin memory the suites dereference pointers in.
func (s *Suites) Mem() ports.Memory {
	return s.mem
}

// Allocator returns the allocator of the plugin memory.
func (s *Suites) Allocator() ports.Allocator {
	return s.alloc
}

func (s *Suites) logger() *slog.Logger {
	return s.state.logger
}

// PropertySet implements ports.Host.
func (s *Suites) PropertySet() ports.Handle {
	return s.state.HostPropertySet()
}

// FetchSuite implements ports.Host. Unknown names and versions other than 1
// return nil.
func (s *Suites) FetchSuite(name string, version int) any {
	if version == SuiteVersion {
		switch name {
		case entities.PropertySuite:
			return s.Property
		case entities.ParameterSuite:
			return s.Parameter
		case entities.ImageEffectSuite:
			return s.ImageEffect
		case entities.MemorySuite:
			return s.Memory
		case entities.MessageSuite:
			return s.Message
		case entities.MultiThreadSuite:
			return s.MultiThread
		}
	}
	s.logger().Debug("fetchSuite: suite not provided", "suite", name, "version", version)
	return nil
}

// BindImage attaches a pixel buffer to a clip until UnbindImages.
func (s *Suites) BindImage(clip *entities.Clip, b ImageBinding) {
	clip.Image = b.Image
	s.bindings[clip] = b
}

// UnbindImages detaches every buffer bound to the clips of effect and
// force-releases image handles the plugin did not release. It returns the
// number of handles released that way.
func (s *Suites) UnbindImages(effectHandle Handle, effect *entities.Effect) int {
	for _, c := range effect.Clips() {
		delete(s.bindings, c)
		c.Image = nil
	}
	leaked := s.state.Handles.Owned(effectHandle, handles.KindImage)
	for _, h := range leaked {
		s.state.Handles.Release(h)
	}
	return len(leaked)
}

// pinString copies value into plugin memory and returns its address. The
// copy stays valid until the owning handle is released and Collect runs,
// so a plugin may keep the pointer. A value that has not changed since it
// was last pinned reuses the existing copy.
func (s *Suites) pinString(ctx context.Context, owner Handle, name string, index int, value []byte) (uint32, entities.Status) {
	key := pinKey{owner: owner, name: name, index: index}
	pins := s.pins[key]
	if n := len(pins); n > 0 && bytes.Equal(pins[n-1].value, value) {
		return pins[n-1].ptr, entities.StatOK
	}
	ptr, err := abi.WriteCString(ctx, s.mem, s.alloc, value)
	if err != nil {
		s.logger().DebugContext(ctx, "pin string failed", "property", name, "error", err)
		return 0, entities.StatErrMemory
	}
	s.pins[key] = append(pins, pin{ptr: ptr, value: bytes.Clone(value)})
	return ptr, entities.StatOK
}

// Collect frees pinned strings and memory suite blocks whose owners no
// longer resolve. It returns the number of blocks freed.
func (s *Suites) Collect(ctx context.Context) int {
	freed := 0
	for key, pins := range s.pins {
		if s.state.Handles.KindOf(key.owner) != handles.KindInvalid {
			continue
		}
		for _, p := range pins {
			if err := s.alloc.Free(ctx, p.ptr); err == nil {
				freed++
			}
		}
		delete(s.pins, key)
	}
	for ptr, b := range s.blocks {
		if b.owner == 0 || s.state.Handles.KindOf(b.owner) != handles.KindInvalid {
			continue
		}
		if err := s.alloc.Free(ctx, ptr); err == nil {
			freed++
		}
		delete(s.blocks, ptr)
	}
	return freed
}

// readString reads a NUL-terminated string argument from plugin memory.
func (s *Suites) readString(ptr uint32) (string, entities.Status) {
	b, err := abi.ReadCString(s.mem, ptr, abi.MaxCStringLen)
	if err != nil {
		return "", entities.StatErrValue
	}
	return string(b), entities.StatOK
}

// effectOf walks owners from h up to the effect that owns it.
func (s *Suites) effectOf(h Handle) (*entities.Effect, Handle, entities.Status) {
	for cur := h; cur != 0; {
		if s.state.Handles.KindOf(cur) == handles.KindEffect {
			e, st := handles.Resolve[*entities.Effect](s.state.Handles, cur, handles.KindEffect)
			return e, cur, st
		}
		owner, ok := s.state.Handles.Owner(cur)
		if !ok {
			break
		}
		cur = owner
	}
	return nil, 0, entities.StatErrBadHandle
}
