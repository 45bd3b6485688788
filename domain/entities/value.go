package entities

import (
	"encoding/json"
	"fmt"
)

// ValueKind identifies the wire type of a property value.
type ValueKind uint8

// Value kinds. KindUnset marks a sparse slot that was never written.
const (
	KindUnset ValueKind = iota
	KindInt
	KindDouble
	KindBytes
	KindPointer
)

func (k ValueKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindBytes:
		return "string"
	case KindPointer:
		return "pointer"
	default:
		return "unset"
	}
}

// Value is a single property value. The set of implementations is closed:
// Int, Double, Bytes, Pointer and Unset.
type Value interface {
	Kind() ValueKind
	isValue()
}

// Int is a 32-bit integer property value. Booleans travel as Int 0 or 1.
type Int int32

// Double is a 64-bit floating point property value.
type Double float64

// Bytes is a string property value. It keeps its explicit length, so
// embedded NUL bytes survive a set/get round trip.
type Bytes []byte

// Pointer is an opaque address in the owning plugin's memory.
type Pointer uint64

// Unset fills indices below a written index that were never set.
type Unset struct{}

func (Int) Kind() ValueKind     { return KindInt }
func (Double) Kind() ValueKind  { return KindDouble }
func (Bytes) Kind() ValueKind   { return KindBytes }
func (Pointer) Kind() ValueKind { return KindPointer }
func (Unset) Kind() ValueKind   { return KindUnset }

func (Int) isValue()     {}
func (Double) isValue()  {}
func (Bytes) isValue()   {}
func (Pointer) isValue() {}
func (Unset) isValue()   {}

// String returns s as a Bytes value.
func String(s string) Bytes { return Bytes(s) }

// Bool returns b as an Int value.
func Bool(b bool) Int {
	if b {
		return 1
	}
	return 0
}

// cloneValue returns a copy of v that shares no memory with it.
func cloneValue(v Value) Value {
	if b, ok := v.(Bytes); ok {
		out := make(Bytes, len(b))
		copy(out, b)
		return out
	}
	return v
}

// MarshalJSON encodes string values as JSON strings.
func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(b))
}

// MarshalJSON encodes an unset slot as null.
func (Unset) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// FormatValue renders a value for logs and error messages.
func FormatValue(v Value) string {
	switch x := v.(type) {
	case Int:
		return fmt.Sprintf("%d", int32(x))
	case Double:
		return fmt.Sprintf("%g", float64(x))
	case Bytes:
		return fmt.Sprintf("%q", []byte(x))
	case Pointer:
		return fmt.Sprintf("0x%x", uint64(x))
	default:
		return "<unset>"
	}
}
