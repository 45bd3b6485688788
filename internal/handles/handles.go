// Package handles implements the side table that maps the opaque handles
// given to plugins onto host objects.
//
// Handles are allocated from a monotonically increasing counter and never
// reused, so a handle of a released object can never resolve again. Every
// entry carries a kind tag that is checked on each lookup.
package handles

import (
	"fmt"
	"sync"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	domainerrors "github.com/ofxdriver/ofxdriver/domain/errors"
)

// Handle is an opaque plugin-visible handle. Zero is null.
type Handle = uint32

// Kind tags the type of object a handle refers to.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindEffect
	KindPropertySet
	KindParamSet
	KindParam
	KindParamDescriptor
	KindClip
	KindImage
	KindMemory
	KindMutex
)

func (k Kind) String() string {
	switch k {
	case KindEffect:
		return "effect"
	case KindPropertySet:
		return "property set"
	case KindParamSet:
		return "param set"
	case KindParam:
		return "param"
	case KindParamDescriptor:
		return "param descriptor"
	case KindClip:
		return "clip"
	case KindImage:
		return "image"
	case KindMemory:
		return "memory"
	case KindMutex:
		return "mutex"
	}
	return "invalid"
}

type entry struct {
	obj   any
	kind  Kind
	owner Handle
}

// Table is the handle side table. It is safe for concurrent use although
// the host drives it from a single goroutine.
type Table struct {
	mu      sync.RWMutex
	entries map[Handle]entry
	byObj   map[any]Handle
	next    Handle
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		entries: make(map[Handle]entry),
		byObj:   make(map[any]Handle),
		next:    1,
	}
}

// Register returns the handle of obj, creating one if obj has none yet.
// obj must be a comparable pointer. owner groups handles for ReleaseOwned;
// zero means no owner.
func (t *Table) Register(kind Kind, obj any, owner Handle) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()

	if h, ok := t.byObj[obj]; ok {
		return h
	}
	return t.insertLocked(kind, obj, owner)
}

// RegisterNew always creates a fresh handle, even if obj already has one.
// Used for objects that are handed out once per request, like images.
func (t *Table) RegisterNew(kind Kind, obj any, owner Handle) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.insertLocked(kind, obj, owner)
}

func (t *Table) insertLocked(kind Kind, obj any, owner Handle) Handle {
	if t.next == 0 {
		panic(&domainerrors.DefectError{Message: "handle space exhausted"})
	}
	h := t.next
	t.next++
	t.entries[h] = entry{obj: obj, kind: kind, owner: owner}
	if _, ok := t.byObj[obj]; !ok {
		t.byObj[obj] = h
	}
	return h
}

// Lookup returns the object behind h if it is live and of the given kind.
// A null, unknown, released or wrongly-kinded handle is ErrBadHandle.
func (t *Table) Lookup(h Handle, kind Kind) (any, entities.Status) {
	if h == 0 {
		return nil, entities.StatErrBadHandle
	}
	t.mu.RLock()
	e, ok := t.entries[h]
	t.mu.RUnlock()
	if !ok || e.kind != kind {
		return nil, entities.StatErrBadHandle
	}
	return e.obj, entities.StatOK
}

// KindOf returns the kind of a live handle, or KindInvalid.
func (t *Table) KindOf(h Handle) Kind {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.entries[h].kind
}

// Owner returns the owner recorded for a live handle.
func (t *Table) Owner(h Handle) (Handle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[h]
	return e.owner, ok
}

// HandleOf returns the first handle registered for obj.
func (t *Table) HandleOf(obj any) (Handle, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	h, ok := t.byObj[obj]
	return h, ok
}

// Release invalidates a single handle.
func (t *Table) Release(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.releaseLocked(h)
}

func (t *Table) releaseLocked(h Handle) bool {
	e, ok := t.entries[h]
	if !ok {
		return false
	}
	delete(t.entries, h)
	if t.byObj[e.obj] == h {
		delete(t.byObj, e.obj)
	}
	return true
}

// ReleaseOwned invalidates every handle owned by owner, recursively, and
// owner itself. It returns the number of handles released.
func (t *Table) ReleaseOwned(owner Handle) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	released := 0
	queue := []Handle{owner}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for h, e := range t.entries {
			if e.owner == cur && h != cur {
				queue = append(queue, h)
			}
		}
		if t.releaseLocked(cur) {
			released++
		}
	}
	return released
}

// Owned returns the live handles directly owned by owner.
func (t *Table) Owned(owner Handle, kind Kind) []Handle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []Handle
	for h, e := range t.entries {
		if e.owner == owner && e.kind == kind {
			out = append(out, h)
		}
	}
	return out
}

// Len returns the number of live handles.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Resolve looks up h and asserts the object type. A kind match with the
// wrong Go type breaks the table's invariant and panics with a DefectError.
func Resolve[T any](t *Table, h Handle, kind Kind) (T, entities.Status) {
	var zero T
	obj, st := t.Lookup(h, kind)
	if st != entities.StatOK {
		return zero, st
	}
	v, ok := obj.(T)
	if !ok {
		panic(&domainerrors.DefectError{
			Message: fmt.Sprintf("handle %d tagged %s holds %T", h, kind, obj),
		})
	}
	return v, entities.StatOK
}
