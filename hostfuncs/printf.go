package hostfuncs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/internal/abi"
)

// maxFieldWidth bounds printf widths and precisions.
const maxFieldWidth = 4096

var errFormat = errors.New("printf: unsupported format")

type cSpec struct {
	flags    string
	width    int
	hasWidth bool
	prec     int
	hasPrec  bool
	length   string
	verb     byte
}

func (s *cSpec) has(flag byte) bool {
	return strings.IndexByte(s.flags, flag) >= 0
}

func (s *cSpec) drop(flags string) {
	s.flags = strings.Map(func(r rune) rune {
		if strings.ContainsRune(flags, r) {
			return -1
		}
		return r
	}, s.flags)
}

// goVerb renders the C conversion as a Go fmt directive with the given verb.
func (s *cSpec) goVerb(verb byte) string {
	var sb strings.Builder
	sb.WriteByte('%')
	sb.WriteString(s.flags)
	if s.hasWidth {
		sb.WriteString(strconv.Itoa(s.width))
	}
	if s.hasPrec {
		sb.WriteByte('.')
		sb.WriteString(strconv.Itoa(s.prec))
	}
	sb.WriteByte(verb)
	return sb.String()
}

// vsnprintf expands a C format against a wasm32 va_list into buf, storing
// at most its capacity. With a zero-capacity buf it only measures, like
// vsnprintf(NULL, 0, ...). It returns the length of the full expansion, or
// -1 when the format or an argument cannot be read.
func vsnprintf(buf *boundedBuffer, mem ports.Memory, format []byte, vaPtr uint32) int {
	if err := formatC(buf, abi.NewVarArgs(mem, vaPtr), mem, format); err != nil {
		return -1
	}
	return buf.Total()
}

func formatC(w io.Writer, va *abi.VarArgs, mem ports.Memory, format []byte) error {
	for i := 0; i < len(format); {
		if format[i] != '%' {
			j := bytes.IndexByte(format[i:], '%')
			if j < 0 {
				j = len(format) - i
			}
			if _, err := w.Write(format[i : i+j]); err != nil {
				return err
			}
			i += j
			continue
		}
		i++
		if i >= len(format) {
			return errFormat
		}
		if format[i] == '%' {
			if _, err := w.Write([]byte{'%'}); err != nil {
				return err
			}
			i++
			continue
		}
		spec, next, err := parseSpec(format, i, va)
		if err != nil {
			return err
		}
		i = next
		if err := writeConversion(w, va, mem, spec); err != nil {
			return err
		}
	}
	return nil
}

func parseNumber(format []byte, i int) (int, int, error) {
	n := 0
	for i < len(format) && format[i] >= '0' && format[i] <= '9' {
		n = n*10 + int(format[i]-'0')
		if n > maxFieldWidth {
			return 0, i, errFormat
		}
		i++
	}
	return n, i, nil
}

func parseSpec(format []byte, i int, va *abi.VarArgs) (cSpec, int, error) {
	var s cSpec
	for i < len(format) && strings.IndexByte("-+ #0", format[i]) >= 0 {
		if !s.has(format[i]) {
			s.flags += string(format[i])
		}
		i++
	}
	if i < len(format) && format[i] == '*' {
		v, err := va.Int32()
		if err != nil {
			return s, i, err
		}
		if v < 0 {
			s.flags += "-"
			v = -v
		}
		if v > maxFieldWidth || v < 0 {
			return s, i, errFormat
		}
		s.width, s.hasWidth = int(v), true
		i++
	} else if i < len(format) && format[i] >= '1' && format[i] <= '9' {
		n, next, err := parseNumber(format, i)
		if err != nil {
			return s, i, err
		}
		s.width, s.hasWidth, i = n, true, next
	}
	if i < len(format) && format[i] == '.' {
		i++
		if i < len(format) && format[i] == '*' {
			v, err := va.Int32()
			if err != nil {
				return s, i, err
			}
			if v > maxFieldWidth {
				return s, i, errFormat
			}
			if v >= 0 {
				s.prec, s.hasPrec = int(v), true
			}
			i++
		} else {
			n, next, err := parseNumber(format, i)
			if err != nil {
				return s, i, err
			}
			s.prec, s.hasPrec, i = n, true, next
		}
	}
	for _, l := range []string{"hh", "ll", "h", "l", "j", "z", "t", "L"} {
		if bytes.HasPrefix(format[i:], []byte(l)) {
			s.length = l
			i += len(l)
			break
		}
	}
	if i >= len(format) {
		return s, i, errFormat
	}
	s.verb = format[i]
	return s, i + 1, nil
}

// readInt reads an integer argument sized by the length modifier. wasm32
// has 4-byte int, long, size_t and ptrdiff_t; long long and intmax_t are 8.
func readInt(va *abi.VarArgs, s cSpec, signed bool) (any, error) {
	if s.length == "ll" || s.length == "j" {
		v, err := va.Int64()
		if signed {
			return v, err
		}
		return uint64(v), err
	}
	v, err := va.Int32()
	if err != nil {
		return nil, err
	}
	switch {
	case s.length == "hh" && signed:
		return int8(v), nil
	case s.length == "hh":
		return uint8(v), nil
	case s.length == "h" && signed:
		return int16(v), nil
	case s.length == "h":
		return uint16(v), nil
	case signed:
		return v, nil
	}
	return uint32(v), nil
}

func isZero(v any) bool {
	switch x := v.(type) {
	case uint8:
		return x == 0
	case uint16:
		return x == 0
	case uint32:
		return x == 0
	case uint64:
		return x == 0
	}
	return false
}

func writePadded(w io.Writer, s cSpec, body []byte) error {
	pad := 0
	if s.hasWidth && s.width > len(body) {
		pad = s.width - len(body)
	}
	spaces := bytes.Repeat([]byte{' '}, pad)
	if !s.has('-') {
		if _, err := w.Write(spaces); err != nil {
			return err
		}
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if s.has('-') {
		_, err := w.Write(spaces)
		return err
	}
	return nil
}

func writeConversion(w io.Writer, va *abi.VarArgs, mem ports.Memory, s cSpec) error {
	switch s.verb {
	case 'd', 'i':
		if s.hasPrec {
			s.drop("0")
		}
		v, err := readInt(va, s, true)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, s.goVerb('d'), v)
		return err

	case 'u', 'x', 'X', 'o':
		s.drop("+ ")
		if s.hasPrec {
			s.drop("0")
		}
		v, err := readInt(va, s, false)
		if err != nil {
			return err
		}
		if isZero(v) && s.verb != 'o' {
			s.drop("#")
		}
		verb := s.verb
		if verb == 'u' {
			verb = 'd'
		}
		_, err = fmt.Fprintf(w, s.goVerb(verb), v)
		return err

	case 'c':
		v, err := va.Int32()
		if err != nil {
			return err
		}
		return writePadded(w, s, []byte{byte(v)})

	case 's':
		ptr, err := va.Pointer()
		if err != nil {
			return err
		}
		var str []byte
		switch {
		case ptr == 0:
			str = []byte("(null)")
		case s.hasPrec && s.prec == 0:
			str = []byte{}
		case s.hasPrec:
			// At most prec bytes are read; the array need not be terminated.
			str, err = abi.ReadCString(mem, ptr, s.prec)
			if errors.Is(err, abi.ErrUnterminated) {
				str, err = abi.ReadBytes(mem, ptr, uint32(s.prec))
			}
		default:
			str, err = abi.ReadCString(mem, ptr, abi.MaxCStringLen)
		}
		if err != nil {
			return err
		}
		if s.hasPrec && len(str) > s.prec {
			str = str[:s.prec]
		}
		return writePadded(w, s, str)

	case 'p':
		ptr, err := va.Pointer()
		if err != nil {
			return err
		}
		return writePadded(w, s, []byte(fmt.Sprintf("0x%x", ptr)))

	case 'f', 'F', 'e', 'E', 'g', 'G', 'a', 'A':
		if s.length == "L" {
			return errFormat
		}
		v, err := va.Float64()
		if err != nil {
			return err
		}
		return writeFloat(w, s, v)
	}
	return errFormat
}

func writeFloat(w io.Writer, s cSpec, v float64) error {
	upper := s.verb >= 'A' && s.verb <= 'Z'
	if math.IsInf(v, 0) || math.IsNaN(v) {
		var body string
		switch {
		case math.IsNaN(v):
			body = "nan"
		case v < 0:
			body = "-inf"
		case s.has('+'):
			body = "+inf"
		case s.has(' '):
			body = " inf"
		default:
			body = "inf"
		}
		if upper {
			body = strings.ToUpper(body)
		}
		return writePadded(w, s, []byte(body))
	}

	verb := s.verb
	switch verb {
	case 'F':
		verb = 'f'
	case 'a':
		verb = 'x'
	case 'A':
		verb = 'X'
	}
	if !s.hasPrec && verb != 'x' && verb != 'X' {
		s.prec, s.hasPrec = 6, true
	}
	out := fmt.Sprintf(s.goVerb(verb), v)
	if verb == 'x' || verb == 'X' {
		out = trimHexExponent(out)
	}
	_, err := io.WriteString(w, out)
	return err
}

// trimHexExponent drops the leading zeros Go pads binary exponents with,
// so 0x1p+01 reads 0x1p+1 as C prints it.
func trimHexExponent(s string) string {
	i := strings.LastIndexAny(s, "pP")
	if i < 0 || i+2 >= len(s) {
		return s
	}
	digits := s[i+2:]
	trimmed := strings.TrimLeft(strings.TrimRight(digits, " "), "0")
	if trimmed == "" {
		trimmed = "0"
	}
	tail := digits[len(strings.TrimRight(digits, " ")):]
	return s[:i+2] + trimmed + tail
}
