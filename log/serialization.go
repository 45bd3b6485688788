package log

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Record is one JSON log line.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	Source    string    `json:"source,omitempty"`
	Attrs     []Attr    `json:"attrs,omitempty"`
}

// Attr is a single slog attribute with its value rendered as a string.
type Attr struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "bool", "float64", "time", "error", "json", "any"
	Value string `json:"value"` // String representation of the value
}

// toAttrs converts an attribute, flattening groups into dotted keys.
func toAttrs(prefix string, attr slog.Attr) []Attr {
	attr.Value = attr.Value.Resolve()
	key := attr.Key
	if prefix != "" && key != "" {
		key = prefix + "." + key
	} else if key == "" {
		key = prefix
	}
	if attr.Value.Kind() == slog.KindGroup {
		var out []Attr
		for _, a := range attr.Value.Group() {
			out = append(out, toAttrs(key, a)...)
		}
		return out
	}
	if attr.Equal(slog.Attr{}) {
		return nil
	}
	a := toAttr(attr)
	a.Key = key
	return []Attr{a}
}

// toAttr converts a resolved, non-group slog.Attr.
func toAttr(attr slog.Attr) Attr {
	out := Attr{
		Key: attr.Key,
	}
	attr.Value = attr.Value.Resolve()

	switch attr.Value.Kind() {
	case slog.KindString:
		out.Type = "string"
		out.Value = attr.Value.String()
	case slog.KindInt64:
		out.Type = "int64"
		out.Value = fmt.Sprintf("%d", attr.Value.Int64())
	case slog.KindUint64:
		out.Type = "uint64"
		out.Value = fmt.Sprintf("%d", attr.Value.Uint64())
	case slog.KindBool:
		out.Type = "bool"
		out.Value = fmt.Sprintf("%t", attr.Value.Bool())
	case slog.KindFloat64:
		out.Type = "float64"
		out.Value = fmt.Sprintf("%g", attr.Value.Float64())
	case slog.KindTime:
		out.Type = "time"
		out.Value = attr.Value.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		out.Type = "duration"
		out.Value = attr.Value.Duration().String()
	case slog.KindAny:
		v := attr.Value.Any()
		if v == nil {
			out.Type = "any"
			out.Value = "<nil>"
			break
		}
		if err, isErr := v.(error); isErr {
			out.Type = "error"
			out.Value = err.Error()
		} else if s, isStringer := v.(fmt.Stringer); isStringer {
			out.Type = "string"
			out.Value = s.String()
		} else if data, marshalErr := json.Marshal(v); marshalErr == nil {
			out.Type = "json"
			out.Value = string(data)
		} else {
			out.Type = "any"
			out.Value = fmt.Sprintf("%v", v)
		}
	default:
		out.Type = "any"
		out.Value = fmt.Sprintf("%v", attr.Value.Any())
	}
	return out
}
