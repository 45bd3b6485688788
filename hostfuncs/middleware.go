package hostfuncs

import (
	"fmt"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	domainerrors "github.com/ofxdriver/ofxdriver/domain/errors"
)

// Middleware is a function that wraps a Handler to add cross-cutting behavior.
// Middleware executes in FIFO order (first registered wraps first, onion model).
type Middleware func(next Handler) Handler

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*registryBuilder)

// PanicRecoveryMiddleware returns a middleware that catches panics raised
// while serving a plugin call. The panic is recorded as a defect on the
// host state and the plugin sees Failed; a panic must not unwind through
// the wasm runtime.
func PanicRecoveryMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(hc HostContext, args []uint64) (st entities.Status) {
			defer func() {
				if r := recover(); r != nil {
					err, ok := r.(*domainerrors.DefectError)
					if !ok {
						err = &domainerrors.DefectError{Message: fmt.Sprintf("%s: panic: %v", hc.FunctionName(), r)}
					}
					hc.Suites().State().RecordDefect(err)
					st = entities.StatFailed
				}
			}()
			return next(hc, args)
		}
	}
}

// LoggingMiddleware returns a middleware that logs host function calls that
// do not return OK at debug level.
func LoggingMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(hc HostContext, args []uint64) entities.Status {
			st := next(hc, args)
			if st != entities.StatOK {
				hc.Suites().logger().DebugContext(hc, "host function returned non-OK",
					"function", hc.FunctionName(),
					"status", st.String(),
				)
			}
			return st
		}
	}
}
