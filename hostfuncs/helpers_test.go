package hostfuncs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/abi"
)

// fixture is a host with one bundle whose plugin memory is an arena.
type fixture struct {
	t      *testing.T
	ctx    context.Context
	state  *State
	arena  *abi.Arena
	suites *Suites
	reg    *Registry
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	host := entities.NewPropertySet("host",
		entities.Prop(entities.PropName, entities.String("ofxdriver")),
	)
	state := NewState(host, slog.New(slog.NewTextHandler(io.Discard, nil)))
	arena := abi.NewArena()
	reg, err := DefaultRegistry()
	require.NoError(t, err)
	return &fixture{
		t:      t,
		ctx:    context.Background(),
		state:  state,
		arena:  arena,
		suites: NewSuites(state, arena, arena),
		reg:    reg,
	}
}

// s32 passes a signed 32-bit argument the way wasm does.
func s32(v int32) uint64 {
	return uint64(uint32(v))
}

// call invokes a wasm host function the way a guest would.
func (f *fixture) call(name string, args ...uint64) entities.Status {
	return f.reg.Invoke(f.ctx, f.suites, name, args)
}

func (f *fixture) alloc(n uint32) uint32 {
	f.t.Helper()
	p, err := f.arena.Allocate(f.ctx, n)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) cstr(s string) uint64 {
	f.t.Helper()
	p, err := abi.WriteCString(f.ctx, f.arena, f.arena, []byte(s))
	require.NoError(f.t, err)
	return uint64(p)
}

func (f *fixture) varargs(b *abi.VarArgsBuilder) uint64 {
	f.t.Helper()
	data := b.Bytes()
	if len(data) == 0 {
		return uint64(f.alloc(8))
	}
	p := f.alloc(uint32(len(data)))
	require.True(f.t, f.arena.Write(p, data))
	return uint64(p)
}

func (f *fixture) u32(ptr uint32) uint32 {
	f.t.Helper()
	v, ok := f.arena.ReadUint32Le(ptr)
	require.True(f.t, ok)
	return v
}

func (f *fixture) f64(ptr uint32) float64 {
	f.t.Helper()
	v, ok := f.arena.ReadFloat64Le(ptr)
	require.True(f.t, ok)
	return v
}

func (f *fixture) str(ptr uint32) string {
	f.t.Helper()
	s, err := abi.ReadString(f.arena, ptr)
	require.NoError(f.t, err)
	return s
}

// describedEffect registers an effect in the Described state.
func (f *fixture) describedEffect(name string) (*entities.Effect, Handle) {
	e := entities.NewEffect(name, nil)
	return e, f.state.RegisterEffect(e)
}

// liveEffect registers a Created instance with one parameter per entry of
// types, declared in the given order.
func (f *fixture) liveEffect(name string, params ...paramDecl) (*entities.Effect, Handle) {
	f.t.Helper()
	desc := entities.NewEffect(name, nil)
	for _, p := range params {
		d, st := desc.Params.Define(p.name, p.typ)
		require.Equal(f.t, entities.StatOK, st)
		if p.setup != nil {
			p.setup(d.Props)
		}
	}
	inst := entities.NewEffect(name, nil)
	set, _, err := desc.Params.Instantiate(name)
	require.NoError(f.t, err)
	inst.Params = set
	inst.DefineClip(entities.ClipSource)
	inst.DefineClip(entities.ClipOutput)
	require.NoError(f.t, inst.Transition(entities.StateCreated))
	return inst, f.state.RegisterEffect(inst)
}

type paramDecl struct {
	name  string
	typ   entities.ParamType
	setup func(*entities.PropertySet)
}

// param returns the live parameter handle for name on effect.
func (f *fixture) param(effect Handle, name string) Handle {
	f.t.Helper()
	ps, st := f.suites.ImageEffect.GetParamSet(effect)
	require.Equal(f.t, entities.StatOK, st)
	h, _, st := f.suites.Parameter.GetHandle(ps, name)
	require.Equal(f.t, entities.StatOK, st)
	return h
}
