package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

const (
	exrMagic   = 20000630
	exrVersion = 2
	// exrLongNames allows attribute and channel names up to 255 bytes.
	exrLongNames = 0x400
)

// Channel pixel types.
const (
	exrUint  = 0
	exrHalf  = 1
	exrFloat = 2
)

// exrWritten lists the channels Encode emits, in the alphabetical order
// the file format requires, with the image component each one carries.
var exrWritten = [...]struct {
	name string
	comp int
}{{"A", 3}, {"B", 2}, {"G", 1}, {"R", 0}}

// EXR is OpenEXR restricted to single-part scanline files without
// compression. Encode writes R, G, B and A as 32-bit floats, so pixels
// round-trip bit for bit. Decode also accepts half and uint channels; a
// file without A decodes with alpha 1 and a lone Y channel as grey.
type EXR struct{}

type exrChannel struct {
	name      string
	pixelType int32
	xSampling int32
	ySampling int32
}

func (c exrChannel) size() int {
	if c.pixelType == exrHalf {
		return 2
	}
	return 4
}

// Encode writes an uncompressed file with increasing line order.
func (EXR) Encode(img *entities.Image) ([]byte, error) {
	w, h := img.Width(), img.Height()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("cannot encode empty image %dx%d", w, h)
	}
	le := binary.LittleEndian

	var chlist []byte
	for _, ch := range exrWritten {
		chlist = append(chlist, ch.name...)
		chlist = append(chlist, 0)
		chlist = le.AppendUint32(chlist, exrFloat)
		chlist = append(chlist, 0, 0, 0, 0) // pLinear and reserved
		chlist = le.AppendUint32(chlist, 1)
		chlist = le.AppendUint32(chlist, 1)
	}
	chlist = append(chlist, 0)

	window := make([]byte, 0, 16)
	for _, v := range []int32{0, 0, int32(w - 1), int32(h - 1)} {
		window = le.AppendUint32(window, uint32(v))
	}
	one := le.AppendUint32(nil, math.Float32bits(1))

	var hdr exrHeader
	hdr.Write(le.AppendUint32(nil, exrMagic))
	hdr.Write(le.AppendUint32(nil, exrVersion))
	hdr.attr("channels", "chlist", chlist)
	hdr.attr("compression", "compression", []byte{0})
	hdr.attr("dataWindow", "box2i", window)
	hdr.attr("displayWindow", "box2i", window)
	hdr.attr("lineOrder", "lineOrder", []byte{0})
	hdr.attr("pixelAspectRatio", "float", one)
	hdr.attr("screenWindowCenter", "v2f", make([]byte, 8))
	hdr.attr("screenWindowWidth", "float", one)
	hdr.WriteByte(0)

	lineSize := w * len(exrWritten) * 4
	blockSize := 8 + lineSize
	first := hdr.Len() + h*8
	out := make([]byte, 0, first+h*blockSize)
	out = append(out, hdr.Bytes()...)
	for line := 0; line < h; line++ {
		out = le.AppendUint64(out, uint64(first+line*blockSize))
	}
	// File lines run top to bottom; image rows bottom to top.
	for line := 0; line < h; line++ {
		row := h - 1 - line
		out = le.AppendUint32(out, uint32(line))
		out = le.AppendUint32(out, uint32(lineSize))
		for _, ch := range exrWritten {
			for x := 0; x < w; x++ {
				out = le.AppendUint32(out, math.Float32bits(img.At(x, row)[ch.comp]))
			}
		}
	}
	return out, nil
}

type exrHeader struct {
	bytes.Buffer
}

func (b *exrHeader) attr(name, typ string, value []byte) {
	b.WriteString(name)
	b.WriteByte(0)
	b.WriteString(typ)
	b.WriteByte(0)
	b.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(value))))
	b.Write(value)
}

// Decode parses a single-part uncompressed scanline file.
func (EXR) Decode(data []byte) (*entities.Image, error) {
	r := &exrReader{data: data}
	if r.u32() != exrMagic {
		return nil, errors.New("exr header: bad magic")
	}
	version := r.u32()
	if version&0xff != exrVersion {
		return nil, fmt.Errorf("exr header: unsupported version %d", version&0xff)
	}
	if flags := version &^ (0xff | exrLongNames); flags != 0 {
		return nil, fmt.Errorf("exr header: tiled, deep and multi-part files are not supported (flags 0x%x)", flags)
	}

	var (
		channels    []exrChannel
		window      []int32
		compression = -1
	)
	for {
		name := r.cstring()
		if name == "" || r.err != nil {
			break
		}
		r.cstring() // attribute type
		value := r.bytes(int(r.u32()))
		if r.err != nil {
			break
		}
		var err error
		switch name {
		case "channels":
			channels, err = parseChannels(value)
		case "compression":
			if len(value) != 1 {
				err = errors.New("bad compression attribute")
			} else {
				compression = int(value[0])
			}
		case "dataWindow":
			if len(value) != 16 {
				err = errors.New("bad dataWindow attribute")
			} else {
				window = make([]int32, 4)
				for i := range window {
					window[i] = int32(binary.LittleEndian.Uint32(value[i*4:]))
				}
			}
		}
		if err != nil {
			return nil, fmt.Errorf("exr header: %w", err)
		}
	}
	if r.err != nil {
		return nil, fmt.Errorf("exr header: %w", r.err)
	}
	switch {
	case compression != 0:
		return nil, fmt.Errorf("exr header: compression %d is not supported, only uncompressed files are read", compression)
	case window == nil:
		return nil, errors.New("exr header: missing dataWindow")
	case len(channels) == 0:
		return nil, errors.New("exr header: no channels")
	}
	width := int64(window[2]) - int64(window[0]) + 1
	height := int64(window[3]) - int64(window[1]) + 1
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("exr header: bad size %dx%d", width, height)
	}
	w, h := int(width), int(height)

	lineSize := 0
	for _, ch := range channels {
		if ch.xSampling != 1 || ch.ySampling != 1 {
			return nil, fmt.Errorf("exr header: channel %q is subsampled", ch.name)
		}
		lineSize += w * ch.size()
	}
	if need := int64(lineSize+8) * height; need > int64(len(data)) {
		return nil, fmt.Errorf("exr raster: need %d bytes, file has %d", need, len(data))
	}

	img := entities.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, [entities.ImageComponents]float32{0, 0, 0, 1})
		}
	}
	offsets := make([]uint64, h)
	for i := range offsets {
		offsets[i] = r.u64()
	}
	if r.err != nil {
		return nil, fmt.Errorf("exr offsets: %w", r.err)
	}
	for i, off := range offsets {
		if off > uint64(len(data)) {
			return nil, fmt.Errorf("exr line %d: offset %d past end of file", i, off)
		}
		block := &exrReader{data: data, off: int(off)}
		y := int64(int32(block.u32())) - int64(window[1])
		size := int(block.u32())
		raw := block.bytes(size)
		switch {
		case block.err != nil:
			return nil, fmt.Errorf("exr line %d: %w", i, block.err)
		case y < 0 || y >= height:
			return nil, fmt.Errorf("exr line %d: y %d outside the data window", i, y+int64(window[1]))
		case size != lineSize:
			return nil, fmt.Errorf("exr line %d: %d bytes, want %d", i, size, lineSize)
		}
		decodeLine(img, h-1-int(y), channels, raw)
	}
	return img, nil
}

func decodeLine(img *entities.Image, row int, channels []exrChannel, raw []byte) {
	le := binary.LittleEndian
	w := img.Width()
	for _, ch := range channels {
		n := ch.size()
		for x := 0; x < w; x++ {
			var v float32
			b := raw[x*n:]
			switch ch.pixelType {
			case exrHalf:
				v = halfToFloat32(le.Uint16(b))
			case exrUint:
				v = float32(le.Uint32(b))
			default:
				v = math.Float32frombits(le.Uint32(b))
			}
			px := img.At(x, row)
			switch ch.name {
			case "R":
				px[0] = v
			case "G":
				px[1] = v
			case "B":
				px[2] = v
			case "A":
				px[3] = v
			case "Y":
				px[0], px[1], px[2] = v, v, v
			default:
				continue
			}
			img.Set(x, row, px)
		}
		raw = raw[w*n:]
	}
}

func parseChannels(value []byte) ([]exrChannel, error) {
	r := &exrReader{data: value}
	var out []exrChannel
	for {
		name := r.cstring()
		if name == "" || r.err != nil {
			break
		}
		ch := exrChannel{name: name, pixelType: int32(r.u32())}
		r.bytes(4) // pLinear and reserved
		ch.xSampling = int32(r.u32())
		ch.ySampling = int32(r.u32())
		if ch.pixelType < exrUint || ch.pixelType > exrFloat {
			return nil, fmt.Errorf("channel %q has unknown pixel type %d", name, ch.pixelType)
		}
		out = append(out, ch)
	}
	if r.err != nil {
		return nil, fmt.Errorf("channels: %w", r.err)
	}
	return out, nil
}

// halfToFloat32 widens an IEEE 754 binary16 value.
func halfToFloat32(h uint16) float32 {
	sign := uint32(h>>15) << 31
	exp := uint32(h>>10) & 0x1f
	mant := uint32(h & 0x3ff)
	switch {
	case exp == 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | mant<<13)
	case exp != 0:
		return math.Float32frombits(sign | (exp+112)<<23 | mant<<13)
	case mant == 0:
		return math.Float32frombits(sign)
	}
	// Subnormal: shift the leading bit into the implicit position.
	e := uint32(113)
	for mant&0x400 == 0 {
		mant <<= 1
		e--
	}
	return math.Float32frombits(sign | e<<23 | (mant&0x3ff)<<13)
}

// exrReader decodes little-endian fields and remembers the first error.
type exrReader struct {
	data []byte
	off  int
	err  error
}

var errShort = errors.New("unexpected end of data")

func (r *exrReader) bytes(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || n > len(r.data)-r.off {
		r.err = errShort
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *exrReader) u32() uint32 {
	b := r.bytes(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *exrReader) u64() uint64 {
	b := r.bytes(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// cstring reads a NUL-terminated name of at most 255 bytes.
func (r *exrReader) cstring() string {
	if r.err != nil {
		return ""
	}
	rest := r.data[r.off:]
	end := bytes.IndexByte(rest, 0)
	if end < 0 || end > 255 {
		r.err = errors.New("unterminated name")
		return ""
	}
	r.off += end + 1
	return string(rest[:end])
}
