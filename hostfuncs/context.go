package hostfuncs

import (
	"context"
)

// HostContext wraps a standard context.Context with host function-specific helpers.
// It carries the invoked function name and the suites of the calling bundle.
type HostContext interface {
	context.Context

	// FunctionName returns the name of the host function being invoked.
	FunctionName() string

	// Suites returns the suites bound to the calling bundle.
	Suites() *Suites
}

// hostContext is the concrete implementation of HostContext.
type hostContext struct {
	context.Context
	suites   *Suites
	funcName string
}

// NewHostContext creates a new HostContext wrapping the given context.
func NewHostContext(ctx context.Context, funcName string, suites *Suites) HostContext {
	return &hostContext{
		Context:  ctx,
		funcName: funcName,
		suites:   suites,
	}
}

// FunctionName returns the name of the host function being invoked.
func (c *hostContext) FunctionName() string {
	return c.funcName
}

// Suites returns the suites bound to the calling bundle.
func (c *hostContext) Suites() *Suites {
	return c.suites
}
