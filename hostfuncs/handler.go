package hostfuncs

import (
	"math"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// ValueType is the wasm type of one host function parameter.
type ValueType byte

const (
	// ValueI32 is a 32-bit integer: a handle, a pointer, an int or a bool.
	ValueI32 ValueType = iota
	// ValueF64 is a double, used for times.
	ValueF64
)

// Handler implements one host function. args holds the raw wasm values in
// declaration order; the result is always a status.
type Handler func(hc HostContext, args []uint64) entities.Status

// Function is a named host function exported to plugins.
type Function struct {
	Handler Handler
	Name    string
	Params  []ValueType
}

// fn declares a function taking only i32 parameters.
func fn(name string, arity int, h Handler) Function {
	params := make([]ValueType, arity)
	return Function{Name: name, Params: params, Handler: h}
}

// fnTyped declares a function with explicit parameter types.
func fnTyped(name string, params []ValueType, h Handler) Function {
	return Function{Name: name, Params: params, Handler: h}
}

func argU32(args []uint64, i int) uint32 {
	return uint32(args[i])
}

func argI32(args []uint64, i int) int32 {
	return int32(uint32(args[i]))
}

func argF64(args []uint64, i int) float64 {
	return math.Float64frombits(args[i])
}

func i32(v uint32) uint64 {
	return uint64(v)
}

func f64(v float64) uint64 {
	return math.Float64bits(v)
}
