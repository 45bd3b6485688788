// Package log configures the driver's structured logging (slog).
package log

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"sync"
)

// Output formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// RecordHandler implements slog.Handler by writing one Record per line.
type RecordHandler struct {
	opts   handlerConfig
	mu     *sync.Mutex
	w      io.Writer
	attrs  []Attr
	groups []string
}

// HandlerOption configures the RecordHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     slog.Leveler
	addSource bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// NewHandler creates a RecordHandler writing to w.
func NewHandler(w io.Writer, opts ...HandlerOption) *RecordHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &RecordHandler{opts: cfg, mu: &sync.Mutex{}, w: w}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RecordHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// WithAttrs returns a new RecordHandler that includes the given attributes.
func (h *RecordHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := h.clone()
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		next.attrs = append(next.attrs, toAttrs(prefix, a)...)
	}
	return next
}

// WithGroup returns a new RecordHandler that qualifies later keys with name.
func (h *RecordHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.groups = append(next.groups, name)
	return next
}

func (h *RecordHandler) clone() *RecordHandler {
	next := *h
	next.attrs = append([]Attr(nil), h.attrs...)
	next.groups = append([]string(nil), h.groups...)
	return &next
}

// Handle serializes a slog.Record as a JSON line.
func (h *RecordHandler) Handle(_ context.Context, record slog.Record) error {
	rec := Record{
		Timestamp: record.Time,
		Level:     record.Level.String(),
		Message:   record.Message,
		Attrs:     append([]Attr(nil), h.attrs...),
	}
	if h.opts.addSource && record.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{record.PC})
		f, _ := frames.Next()
		rec.Source = fmt.Sprintf("%s:%d", f.File, f.Line)
	}
	prefix := strings.Join(h.groups, ".")
	record.Attrs(func(attr slog.Attr) bool {
		rec.Attrs = append(rec.Attrs, toAttrs(prefix, attr)...)
		return true
	})

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal log record: %w", err)
	}
	data = append(data, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.w.Write(data)
	return err
}

// ParseLevel maps debug, info, warn and error (any case) to a level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

// New returns a logger writing format to w at level.
func New(w io.Writer, format string, level slog.Level) (*slog.Logger, error) {
	switch format {
	case FormatText, "":
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
	case FormatJSON:
		return slog.New(NewHandler(w, WithLevel(level))), nil
	}
	return nil, fmt.Errorf("unknown log format %q (want %s or %s)", format, FormatText, FormatJSON)
}
