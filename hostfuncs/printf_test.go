package hostfuncs

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/internal/abi"
)

// measureC runs the length pass the way formatMessage does.
func measureC(mem ports.Memory, format []byte, va uint32) int {
	buf := acquireBuffer(0)
	defer releaseBuffer(buf)
	return vsnprintf(buf, mem, format, va)
}

func sprintfC(t *testing.T, f *fixture, format string, args *abi.VarArgsBuilder) (string, int) {
	t.Helper()
	va := uint32(f.varargs(args))
	want := measureC(f.arena, []byte(format), va)
	if want < 0 {
		return "", want
	}
	buf := acquireBuffer(want + 1)
	defer releaseBuffer(buf)
	n := vsnprintf(buf, f.arena, []byte(format), va)
	require.Equal(t, want, n, "measure and format passes disagree")
	return string(buf.Bytes()), n
}

func TestVsnprintf(t *testing.T) {
	f := newFixture(t)
	va := func() *abi.VarArgsBuilder { return new(abi.VarArgsBuilder) }

	tests := []struct {
		format string
		args   *abi.VarArgsBuilder
		want   string
	}{
		{"plain text", va(), "plain text"},
		{"%d items", va().Int32(5), "5 items"},
		{"%i/%d", va().Int32(-3).Int32(4), "-3/4"},
		{"%+d", va().Int32(5), "+5"},
		{"% d", va().Int32(5), " 5"},
		{"%05d", va().Int32(-42), "-0042"},
		{"%8.3d|", va().Int32(7), "     007|"},
		{"%-4d|", va().Int32(7), "7   |"},
		{"%*d", va().Int32(4).Int32(7), "   7"},
		{"%-*d|", va().Int32(3).Int32(7), "7  |"},
		{"%u", va().Int32(-1), "4294967295"},
		{"%+u", va().Int32(1), "1"},
		{"%x %X %o", va().Int32(255).Int32(255).Int32(8), "ff FF 10"},
		{"%#x %#o", va().Int32(255).Int32(8), "0xff 010"},
		{"%#x", va().Int32(0), "0"},
		{"%hhd", va().Int32(300), "44"},
		{"%hu", va().Int32(-1), "65535"},
		{"%ld", va().Int32(-9), "-9"},
		{"%d %lld", va().Int32(1).Int64(-1 << 40), "1 -1099511627776"},
		{"%llx", va().Int64(1 << 36), "1000000000"},
		{"%zu", va().Int32(12), "12"},
		{"%c%c", va().Int32('o').Int32('k'), "ok"},
		{"[%3c]", va().Int32('x'), "[  x]"},
		{"%p", va().Uint32(0x10), "0x10"},
		{"100%%", va(), "100%"},
		{"%f", va().Float64(1.5), "1.500000"},
		{"%5.2f|", va().Float64(3.14159), " 3.14|"},
		{"%08.3f", va().Float64(-1.5), "-001.500"},
		{"%e", va().Float64(1234.5), "1.234500e+03"},
		{"%E", va().Float64(0.00012), "1.200000E-04"},
		{"%g", va().Float64(0.0001), "0.0001"},
		{"%g", va().Float64(1e-5), "1e-05"},
		{"%g", va().Float64(100000), "100000"},
		{"%g", va().Float64(1e6), "1e+06"},
		{"%.3g", va().Float64(3.14159), "3.14"},
		{"%lf", va().Float64(2), "2.000000"},
		{"%d %f", va().Int32(1).Float64(2.5), "1 2.500000"},
		{"%f %F", va().Float64(math.Inf(1)).Float64(math.Inf(-1)), "inf -INF"},
		{"%5f|", va().Float64(math.NaN()), "  nan|"},
		{"%a", va().Float64(1), "0x1p+0"},
		{"%A", va().Float64(-2), "-0X1P+1"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, n := sprintfC(t, f, tt.format, tt.args)
			require.GreaterOrEqual(t, n, 0)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), n)
		})
	}
}

func TestVsnprintf_Strings(t *testing.T) {
	f := newFixture(t)
	abc := uint32(f.cstr("abcdef"))

	tests := []struct {
		format string
		args   *abi.VarArgsBuilder
		want   string
	}{
		{"%s", new(abi.VarArgsBuilder).Uint32(abc), "abcdef"},
		{"[%8s]", new(abi.VarArgsBuilder).Uint32(abc), "[  abcdef]"},
		{"[%-8s]", new(abi.VarArgsBuilder).Uint32(abc), "[abcdef  ]"},
		{"%.3s", new(abi.VarArgsBuilder).Uint32(abc), "abc"},
		{"%.*s", new(abi.VarArgsBuilder).Int32(2).Uint32(abc), "ab"},
		{"%.0s|", new(abi.VarArgsBuilder).Uint32(abc), "|"},
		{"%s", new(abi.VarArgsBuilder).Uint32(0), "(null)"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, n := sprintfC(t, f, tt.format, tt.args)
			require.GreaterOrEqual(t, n, 0)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVsnprintf_PrecisionReadsNoFurtherThanNeeded(t *testing.T) {
	f := newFixture(t)
	// Four bytes with no terminator, right at the end of the block.
	p := f.alloc(16)
	require.True(t, f.arena.Write(p+12, []byte("wxyz")))
	got, n := sprintfC(t, f, "%.4s", new(abi.VarArgsBuilder).Uint32(p+12))
	require.Equal(t, 4, n)
	assert.Equal(t, "wxyz", got)
}

func TestVsnprintf_Failures(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		format string
		args   *abi.VarArgsBuilder
	}{
		{"dangling percent", "50%", new(abi.VarArgsBuilder)},
		{"write-back conversion", "%n", new(abi.VarArgsBuilder).Uint32(16)},
		{"long double", "%Lf", new(abi.VarArgsBuilder).Float64(1)},
		{"unknown conversion", "%y", new(abi.VarArgsBuilder).Int32(1)},
		{"missing conversion", "%5", new(abi.VarArgsBuilder)},
		{"width too large", "%99999d", new(abi.VarArgsBuilder).Int32(1)},
		{"star width too large", "%*d", new(abi.VarArgsBuilder).Int32(1 << 20).Int32(1)},
		{"unreadable string", "%s", new(abi.VarArgsBuilder).Uint32(0xFFFFFF00)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, n := sprintfC(t, f, tt.format, tt.args)
			assert.Equal(t, -1, n)
		})
	}

	t.Run("va_list out of range", func(t *testing.T) {
		assert.Equal(t, -1, measureC(f.arena, []byte("%d"), 0xFFFFFFF0))
	})

	t.Run("expansion too long", func(t *testing.T) {
		s := uint32(f.cstr(string(make([]byte, 0))))
		b := new(abi.VarArgsBuilder)
		format := ""
		for i := 0; i < 20; i++ {
			b.Int32(maxFieldWidth).Uint32(s)
			format += "%*s"
		}
		assert.Equal(t, -1, measureC(f.arena, []byte(format), uint32(f.varargs(b))))
	})
}

func TestTrimHexExponent(t *testing.T) {
	assert.Equal(t, "0x1p+0", trimHexExponent("0x1p+00"))
	assert.Equal(t, "0x1.8p+10", trimHexExponent("0x1.8p+10"))
	assert.Equal(t, "-0X1P-1", trimHexExponent("-0X1P-01"))
	assert.Equal(t, "no exponent", trimHexExponent("no exponent"))
}
