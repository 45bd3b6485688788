package handles

import (
	"testing"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	domainerrors "github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestTable_RegisterIsBijective(t *testing.T) {
	tbl := NewTable()
	a := entities.NewPropertySet("a")
	b := entities.NewPropertySet("b")

	ha := tbl.Register(KindPropertySet, a, 0)
	hb := tbl.Register(KindPropertySet, b, 0)
	assert.NotEqual(t, ha, hb)
	assert.Equal(t, ha, tbl.Register(KindPropertySet, a, 0))

	got, st := Resolve[*entities.PropertySet](tbl, ha, KindPropertySet)
	require.Equal(t, entities.StatOK, st)
	assert.Same(t, a, got)

	h, ok := tbl.HandleOf(b)
	require.True(t, ok)
	assert.Equal(t, hb, h)
}

func TestTable_NullAndUnknown(t *testing.T) {
	tbl := NewTable()

	_, st := tbl.Lookup(0, KindEffect)
	assert.Equal(t, entities.StatErrBadHandle, st)

	_, st = tbl.Lookup(12345, KindEffect)
	assert.Equal(t, entities.StatErrBadHandle, st)
}

func TestTable_WrongKindIsBadHandle(t *testing.T) {
	tbl := NewTable()
	h := tbl.Register(KindPropertySet, entities.NewPropertySet("p"), 0)

	_, st := tbl.Lookup(h, KindParam)
	assert.Equal(t, entities.StatErrBadHandle, st)
	assert.Equal(t, KindPropertySet, tbl.KindOf(h))
}

func TestTable_ReleasedHandleNeverResolves(t *testing.T) {
	tbl := NewTable()
	p := entities.NewPropertySet("p")
	h := tbl.Register(KindPropertySet, p, 0)

	require.True(t, tbl.Release(h))
	_, st := tbl.Lookup(h, KindPropertySet)
	assert.Equal(t, entities.StatErrBadHandle, st)
	assert.False(t, tbl.Release(h))

	// Re-registering the same object yields a new handle.
	h2 := tbl.Register(KindPropertySet, p, 0)
	assert.NotEqual(t, h, h2)
	_, st = tbl.Lookup(h, KindPropertySet)
	assert.Equal(t, entities.StatErrBadHandle, st)
}

func TestTable_RegisterNewGivesDistinctHandles(t *testing.T) {
	tbl := NewTable()
	img := entities.NewPropertySet("image")

	h1 := tbl.RegisterNew(KindImage, img, 0)
	h2 := tbl.RegisterNew(KindImage, img, 0)
	assert.NotEqual(t, h1, h2)

	require.True(t, tbl.Release(h1))
	_, st := tbl.Lookup(h2, KindImage)
	assert.Equal(t, entities.StatOK, st)
}

func TestTable_ReleaseOwnedIsRecursive(t *testing.T) {
	tbl := NewTable()
	effect := entities.NewEffect("inst", nil)
	he := tbl.Register(KindEffect, effect, 0)
	hp := tbl.Register(KindPropertySet, effect.Props, he)
	hps := tbl.Register(KindParamSet, effect.Params, he)
	hpp := tbl.Register(KindPropertySet, effect.Params.Props, hps)
	unrelated := tbl.Register(KindPropertySet, entities.NewPropertySet("host"), 0)

	assert.Equal(t, 4, tbl.ReleaseOwned(he))
	for _, h := range []Handle{he, hp, hps, hpp} {
		assert.Equal(t, KindInvalid, tbl.KindOf(h))
	}
	_, st := tbl.Lookup(unrelated, KindPropertySet)
	assert.Equal(t, entities.StatOK, st)
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_Owned(t *testing.T) {
	tbl := NewTable()
	owner := tbl.Register(KindEffect, entities.NewEffect("e", nil), 0)
	img1 := tbl.RegisterNew(KindImage, entities.NewPropertySet("i1"), owner)
	img2 := tbl.RegisterNew(KindImage, entities.NewPropertySet("i2"), owner)
	tbl.Register(KindPropertySet, entities.NewPropertySet("p"), owner)

	assert.ElementsMatch(t, []Handle{img1, img2}, tbl.Owned(owner, KindImage))
}

func TestResolve_TypeMismatchIsDefect(t *testing.T) {
	tbl := NewTable()
	h := tbl.Register(KindEffect, entities.NewPropertySet("not an effect"), 0)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		_, ok := r.(*domainerrors.DefectError)
		assert.True(t, ok)
	}()
	Resolve[*entities.Effect](tbl, h, KindEffect)
}

func TestTable_HandlesNeverReusedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tbl := NewTable()
		live := map[Handle]*entities.PropertySet{}
		dead := map[Handle]bool{}

		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			if len(live) == 0 || rapid.Bool().Draw(t, "register") {
				p := entities.NewPropertySet("p")
				h := tbl.Register(KindPropertySet, p, 0)
				if dead[h] {
					t.Fatalf("handle %d reused", h)
				}
				live[h] = p
				continue
			}
			var victim Handle
			for h := range live {
				victim = h
				break
			}
			tbl.Release(victim)
			delete(live, victim)
			dead[victim] = true
		}

		for h, p := range live {
			got, st := Resolve[*entities.PropertySet](tbl, h, KindPropertySet)
			if st != entities.StatOK || got != p {
				t.Fatalf("live handle %d does not resolve to its object", h)
			}
		}
		for h := range dead {
			if _, st := tbl.Lookup(h, KindPropertySet); st != entities.StatErrBadHandle {
				t.Fatalf("released handle %d still resolves", h)
			}
		}
	})
}

func TestTable_Owner(t *testing.T) {
	tbl := NewTable()
	effect := tbl.Register(KindEffect, entities.NewEffect("e", nil), 0)
	params := tbl.Register(KindParamSet, entities.NewParamSet("e"), effect)

	owner, ok := tbl.Owner(params)
	require.True(t, ok)
	assert.Equal(t, effect, owner)

	tbl.Release(params)
	_, ok = tbl.Owner(params)
	assert.False(t, ok)
}
