package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToAttr(t *testing.T) {
	tests := []struct {
		name     string
		attr     slog.Attr
		wantType string
		wantVal  string
	}{
		{
			name:     "string",
			attr:     slog.String("key", "value"),
			wantType: "string",
			wantVal:  "value",
		},
		{
			name:     "int64",
			attr:     slog.Int64("key", 123),
			wantType: "int64",
			wantVal:  "123",
		},
		{
			name:     "bool",
			attr:     slog.Bool("key", true),
			wantType: "bool",
			wantVal:  "true",
		},
		{
			name:     "float64",
			attr:     slog.Float64("key", 1.23),
			wantType: "float64",
			wantVal:  "1.23",
		},
		{
			name:     "time",
			attr:     slog.Time("key", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
			wantType: "time",
			wantVal:  "2024-01-01T00:00:00Z",
		},
		{
			name:     "duration",
			attr:     slog.Duration("key", 1*time.Hour),
			wantType: "duration",
			wantVal:  "1h0m0s",
		},
		{
			name:     "error",
			attr:     slog.Any("key", errors.New("test error")),
			wantType: "error",
			wantVal:  "test error",
		},
		{
			name:     "nil",
			attr:     slog.Any("key", nil),
			wantType: "any",
			wantVal:  "<nil>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAttr(tt.attr)
			assert.Equal(t, tt.attr.Key, got.Key)
			assert.Equal(t, tt.wantType, got.Type)
			assert.Equal(t, tt.wantVal, got.Value)
		})
	}
}

func TestToAttr_JSON(t *testing.T) {
	// Test structured object that should be serialized as JSON
	type MyStruct struct {
		Field string `json:"field"`
	}
	obj := MyStruct{Field: "data"}
	attr := slog.Any("key", obj)

	got := toAttr(attr)
	assert.Equal(t, "key", got.Key)
	assert.Equal(t, "json", got.Type)

	var decoded MyStruct
	err := json.Unmarshal([]byte(got.Value), &decoded)
	require.NoError(t, err)
	assert.Equal(t, obj, decoded)
}

func TestToAttr_LogValuer(t *testing.T) {
	// Test types that implement LogValuer
	attr := slog.Any("key", logValuer{val: "resolved"})
	got := toAttr(attr)

	assert.Equal(t, "key", got.Key)
	assert.Equal(t, "string", got.Type)
	assert.Equal(t, "resolved", got.Value)
}

type logValuer struct {
	val string
}

func (l logValuer) LogValue() slog.Value {
	return slog.StringValue(l.val)
}

func TestHandler_WritesRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, WithLevel(slog.LevelDebug)))

	logger.With("bundle", "gain.ofx").WithGroup("render").Debug("rendered", "instance", "g", slog.Group("window", "x1", 0, "x2", 4))

	var rec Record
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "DEBUG", rec.Level)
	assert.Equal(t, "rendered", rec.Message)
	assert.Equal(t, []Attr{
		{Key: "bundle", Type: "string", Value: "gain.ofx"},
		{Key: "render.instance", Type: "string", Value: "g"},
		{Key: "render.window.x1", Type: "int64", Value: "0"},
		{Key: "render.window.x2", Type: "int64", Value: "4"},
	}, rec.Attrs)
	assert.Empty(t, rec.Source)
}

func TestHandler_Level(t *testing.T) {
	h := NewHandler(io.Discard)
	assert.True(t, h.Enabled(context.TODO(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.TODO(), slog.LevelDebug))

	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, WithLevel(slog.LevelWarn), WithSource(true)))
	logger.Info("dropped")
	logger.Warn("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "kept", rec.Message)
	assert.Contains(t, rec.Source, "log_test.go")
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, FormatText, slog.LevelInfo)
	require.NoError(t, err)
	logger.Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello k=v")

	buf.Reset()
	logger, err = New(&buf, FormatJSON, slog.LevelInfo)
	require.NoError(t, err)
	logger.Info("hello")
	assert.True(t, json.Valid(buf.Bytes()))

	_, err = New(&buf, "xml", slog.LevelInfo)
	assert.ErrorContains(t, err, "unknown log format")
}
