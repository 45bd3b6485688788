package hostfuncs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

func okHandler(hc HostContext, args []uint64) entities.Status {
	return entities.StatOK
}

func TestNewRegistry_Empty(t *testing.T) {
	reg, err := NewRegistry()
	require.NoError(t, err)
	require.NotNil(t, reg)
	assert.Empty(t, reg.Names())
}

func TestNewRegistry_WithFunction(t *testing.T) {
	reg, err := NewRegistry(
		WithFunction(fn("echo", 1, okHandler)),
	)
	require.NoError(t, err)

	assert.True(t, reg.Has("echo"))
	assert.False(t, reg.Has("nonexistent"))
	assert.Equal(t, []string{"echo"}, reg.Names())
}

func TestNewRegistry_DuplicateFunction(t *testing.T) {
	_, err := NewRegistry(
		WithFunction(fn("test", 0, okHandler)),
		WithFunction(fn("test", 0, okHandler)), // duplicate
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate function name")
}

func TestNewRegistry_InvalidFunction(t *testing.T) {
	_, err := NewRegistry(WithFunction(fn("", 0, okHandler)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be empty")

	_, err = NewRegistry(WithFunction(Function{Name: "nil"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no handler")
}

func TestRegistry_Invoke(t *testing.T) {
	f := newFixture(t)
	var seen []uint64
	reg, err := NewRegistry(
		WithFunction(fnTyped("sum", []ValueType{ValueI32, ValueF64}, func(hc HostContext, args []uint64) entities.Status {
			seen = args
			assert.Equal(t, "sum", hc.FunctionName())
			assert.Same(t, f.suites, hc.Suites())
			return entities.StatOK
		})),
	)
	require.NoError(t, err)

	t.Run("found function", func(t *testing.T) {
		st := reg.Invoke(f.ctx, f.suites, "sum", []uint64{i32(7), f64(1.5)})
		assert.Equal(t, entities.StatOK, st)
		require.Len(t, seen, 2)
		assert.Equal(t, uint32(7), argU32(seen, 0))
		assert.Equal(t, 1.5, argF64(seen, 1))
	})

	t.Run("unknown function", func(t *testing.T) {
		assert.Equal(t, entities.StatErrUnknown, reg.Invoke(f.ctx, f.suites, "unknown", nil))
	})

	t.Run("wrong arity", func(t *testing.T) {
		assert.Equal(t, entities.StatErrValue, reg.Invoke(f.ctx, f.suites, "sum", []uint64{1}))
	})
}

func TestRegistry_Function(t *testing.T) {
	reg, err := NewRegistry(WithFunction(fnTyped("t", []ValueType{ValueF64}, okHandler)))
	require.NoError(t, err)

	got, ok := reg.Function("t")
	require.True(t, ok)
	assert.Equal(t, []ValueType{ValueF64}, got.Params)
	_, ok = reg.Function("missing")
	assert.False(t, ok)
}

func TestRegistry_NamesReturnsCopy(t *testing.T) {
	reg, err := NewRegistry(
		WithFunction(fn("b", 0, okHandler)),
		WithFunction(fn("a", 0, okHandler)),
	)
	require.NoError(t, err)

	names := reg.Names()
	assert.Equal(t, []string{"a", "b"}, names)
	names[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, reg.Names())
}

func TestAllBundles_ExportsEverySuiteEntry(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	want := []string{
		"fetchSuite",
		"propSetPointer", "propSetString", "propSetDouble", "propSetInt",
		"propSetPointerN", "propSetStringN", "propSetDoubleN", "propSetIntN",
		"propGetPointer", "propGetString", "propGetDouble", "propGetInt",
		"propGetPointerN", "propGetStringN", "propGetDoubleN", "propGetIntN",
		"propReset", "propGetDimension",
		"paramDefine", "paramGetHandle", "paramSetGetPropertySet", "paramGetPropertySet",
		"paramGetValue", "paramGetValueAtTime", "paramGetDerivative", "paramGetIntegral",
		"paramSetValue", "paramSetValueAtTime", "paramGetNumKeys", "paramGetKeyTime",
		"paramGetKeyIndex", "paramDeleteKey", "paramDeleteAllKeys", "paramCopy",
		"paramEditBegin", "paramEditEnd",
		"getPropertySet", "getParamSet", "clipDefine", "clipGetHandle", "clipGetPropertySet",
		"clipGetImage", "clipReleaseImage", "clipGetRegionOfDefinition", "abort",
		"imageMemoryAlloc", "imageMemoryFree", "imageMemoryLock", "imageMemoryUnlock",
		"memoryAlloc", "memoryFree",
		"message",
		"multiThread", "multiThreadNumCPUs", "multiThreadIndex", "multiThreadIsSpawnedThread",
		"mutexCreate", "mutexDestroy", "mutexLock", "mutexUnLock", "mutexTryLock",
	}
	assert.ElementsMatch(t, want, reg.Names())
}

func TestFetchSuite(t *testing.T) {
	f := newFixture(t)

	assert.Same(t, f.suites.Property, f.suites.FetchSuite(entities.PropertySuite, 1))
	assert.Same(t, f.suites.MultiThread, f.suites.FetchSuite(entities.MultiThreadSuite, 1))
	assert.Nil(t, f.suites.FetchSuite(entities.PropertySuite, 2))
	assert.Nil(t, f.suites.FetchSuite("OfxInteractSuite", 1))

	host := uint64(f.suites.PropertySet())
	assert.Equal(t, entities.StatOK, f.call("fetchSuite", host, f.cstr(entities.ParameterSuite), 1))
	assert.Equal(t, entities.StatErrUnsupported, f.call("fetchSuite", host, f.cstr("OfxTimeLineSuite"), 1))
	assert.Equal(t, entities.StatErrBadHandle, f.call("fetchSuite", 0, f.cstr(entities.ParameterSuite), 1))
}
