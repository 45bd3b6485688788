package hostfuncs

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	domainerrors "github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/internal/handles"
)

func TestPanicRecoveryMiddleware(t *testing.T) {
	f := newFixture(t)
	panicHandler := func(hc HostContext, args []uint64) entities.Status {
		panic("test panic")
	}

	wrapped := PanicRecoveryMiddleware()(panicHandler)

	// Should not panic, should record a defect
	st := wrapped(NewHostContext(f.ctx, "boom", f.suites), nil)
	assert.Equal(t, entities.StatFailed, st)

	err := f.state.TakeDefect()
	var defect *domainerrors.DefectError
	require.True(t, errors.As(err, &defect))
	assert.Contains(t, defect.Message, "boom")
	assert.Contains(t, defect.Message, "test panic")
	assert.Nil(t, f.state.TakeDefect(), "defects are consumed")
}

func TestPanicRecoveryMiddleware_KeepsDefectErrors(t *testing.T) {
	f := newFixture(t)
	// A handle tagged as an effect that holds something else.
	bogus := f.state.Handles.Register(handles.KindEffect, "not an effect", 0)

	st := f.call("getPropertySet", uint64(bogus), uint64(f.alloc(4)))
	assert.Equal(t, entities.StatFailed, st)

	var defect *domainerrors.DefectError
	require.True(t, errors.As(f.state.TakeDefect(), &defect))
	assert.Contains(t, defect.Message, "string")
}

func TestPanicRecoveryMiddleware_NoPanic(t *testing.T) {
	f := newFixture(t)
	wrapped := PanicRecoveryMiddleware()(okHandler)

	assert.Equal(t, entities.StatOK, wrapped(NewHostContext(f.ctx, "ok", f.suites), nil))
	assert.NoError(t, f.state.TakeDefect())
}

func TestMiddlewareOrder_FIFO(t *testing.T) {
	f := newFixture(t)
	var callOrder []string

	trace := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(hc HostContext, args []uint64) entities.Status {
				callOrder = append(callOrder, name+"-before")
				st := next(hc, args)
				callOrder = append(callOrder, name+"-after")
				return st
			}
		}
	}

	reg, err := NewRegistry(
		WithMiddleware(trace("mw1"), trace("mw2")),
		WithFunction(fn("test", 0, func(hc HostContext, args []uint64) entities.Status {
			callOrder = append(callOrder, "handler")
			return entities.StatOK
		})),
	)
	require.NoError(t, err)

	reg.Invoke(f.ctx, f.suites, "test", nil)

	assert.Equal(t, []string{"mw1-before", "mw2-before", "handler", "mw2-after", "mw1-after"}, callOrder)
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	state := NewState(entities.NewPropertySet("host"), slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	f := newFixture(t)
	suites := NewSuites(state, f.arena, f.arena)

	failing := LoggingMiddleware()(func(hc HostContext, args []uint64) entities.Status {
		return entities.StatErrBadHandle
	})
	quiet := LoggingMiddleware()(okHandler)

	quiet(NewHostContext(f.ctx, "fine", suites), nil)
	assert.Empty(t, buf.String())

	assert.Equal(t, entities.StatErrBadHandle, failing(NewHostContext(f.ctx, "propGetInt", suites), nil))
	assert.Contains(t, buf.String(), "function=propGetInt")
	assert.Contains(t, buf.String(), "status=ErrBadHandle")
}

func TestHostContext(t *testing.T) {
	f := newFixture(t)
	hc := NewHostContext(f.ctx, "clipGetImage", f.suites)

	assert.Equal(t, "clipGetImage", hc.FunctionName())
	assert.Same(t, f.suites, hc.Suites())
	assert.NoError(t, hc.Err())
}
