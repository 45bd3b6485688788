// Package testutil provides common test utilities and assertions: wasm
// guest assembly, in-memory images and on-disk bundles.
package testutil

import (
	"encoding/json"
	stdErrors "errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
)

// AssertStatus compares statuses by name, so failures read "ErrBadHandle"
// rather than 9.
func AssertStatus(t *testing.T, expected, actual entities.Status, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Equal(t, expected.String(), actual.String(), msgAndArgs...)
}

// AssertJSONEqual compares two JSON strings for equality, ignoring formatting
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) {
	t.Helper()

	var expectedJSON, actualJSON interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expectedJSON), "expected JSON is invalid")
	require.NoError(t, json.Unmarshal([]byte(actual), &actualJSON), "actual JSON is invalid")

	assert.Equal(t, expectedJSON, actualJSON, msgAndArgs...)
}

// AssertImageBits asserts that two images have the same bounds and
// bit-identical pixels, NaN payloads included.
func AssertImageBits(t *testing.T, expected, actual *entities.Image) {
	t.Helper()
	require.NotNil(t, actual)
	require.Equal(t, expected.Bounds, actual.Bounds)
	for y := 0; y < expected.Height(); y++ {
		for x := 0; x < expected.Width(); x++ {
			want, got := expected.At(x, y), actual.At(x, y)
			for c := range want {
				if math.Float32bits(want[c]) != math.Float32bits(got[c]) {
					t.Fatalf("pixel (%d,%d) channel %d: want %v (0x%08x), got %v (0x%08x)",
						x, y, c, want[c], math.Float32bits(want[c]), got[c], math.Float32bits(got[c]))
				}
			}
		}
	}
}

// AssertImageFunc asserts that every channel of actual equals fn applied
// to the same channel of input, within delta.
func AssertImageFunc(t *testing.T, input, actual *entities.Image, delta float64, fn func(channel int, v float32) float32) {
	t.Helper()
	require.NotNil(t, actual)
	require.Equal(t, input.Bounds, actual.Bounds)
	for y := 0; y < input.Height(); y++ {
		for x := 0; x < input.Width(); x++ {
			in, got := input.At(x, y), actual.At(x, y)
			for c := range in {
				require.InDelta(t, fn(c, in[c]), got[c], delta, "pixel (%d,%d) channel %d", x, y, c)
			}
		}
	}
}

// RequireErrorAs asserts that err wraps a T and returns it.
func RequireErrorAs[T error](t *testing.T, err error, msgAndArgs ...interface{}) T {
	t.Helper()
	var target T
	require.Error(t, err, msgAndArgs...)
	require.True(t, stdErrors.As(err, &target), "error %q does not wrap %T", err, target)
	return target
}

// RequireCommandError asserts that errs has exactly one command error at
// index with the given fatality, and returns it.
func RequireCommandError(t *testing.T, errs []*errors.CommandError, index int, fatal bool) *errors.CommandError {
	t.Helper()
	require.Len(t, errs, 1, "command errors: %v", errs)
	require.Equal(t, index, errs[0].Index, "failing command: %v", errs[0])
	require.Equal(t, fatal, errs[0].Fatal, "fatality of: %v", errs[0])
	return errs[0]
}

// RequireNoError is a convenience wrapper for require.NoError
func RequireNoError(t *testing.T, err error, msgAndArgs ...interface{}) {
	t.Helper()
	require.NoError(t, err, msgAndArgs...)
}
