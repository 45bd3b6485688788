package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// maxDimension bounds decoded image sides.
const maxDimension = 1 << 15

// PFM is the Portable Float Map format. "PF" files carry RGB and "Pf"
// files a single grey channel; alpha is set to 1 on decode and dropped on
// encode. Rows are stored bottom to top, matching entities.Image.
type PFM struct{}

// Decode parses a PFM file.
func (PFM) Decode(data []byte) (*entities.Image, error) {
	r := bufio.NewReader(bytes.NewReader(data))

	var magic string
	var width, height int
	var scale float64
	if _, err := fmt.Fscan(r, &magic, &width, &height, &scale); err != nil {
		return nil, fmt.Errorf("pfm header: %w", err)
	}
	var channels int
	switch magic {
	case "PF":
		channels = 3
	case "Pf":
		channels = 1
	default:
		return nil, fmt.Errorf("pfm header: bad magic %q", magic)
	}
	if width <= 0 || height <= 0 || width > maxDimension || height > maxDimension {
		return nil, fmt.Errorf("pfm header: bad size %dx%d", width, height)
	}
	if scale == 0 || math.IsNaN(scale) {
		return nil, errors.New("pfm header: zero scale")
	}
	// Exactly one whitespace byte separates the header from the raster.
	if _, err := r.ReadByte(); err != nil {
		return nil, fmt.Errorf("pfm header: %w", err)
	}

	var order binary.ByteOrder = binary.BigEndian
	if scale < 0 {
		order = binary.LittleEndian
	}

	need := width * height * channels * 4
	if need > len(data) {
		return nil, fmt.Errorf("pfm raster: need %d bytes, file has %d", need, len(data))
	}
	raster := make([]byte, need)
	if _, err := io.ReadFull(r, raster); err != nil {
		return nil, fmt.Errorf("pfm raster: %w", err)
	}

	img := entities.NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			off := ((y*width + x) * channels) * 4
			var px [entities.ImageComponents]float32
			for c := 0; c < channels; c++ {
				px[c] = math.Float32frombits(order.Uint32(raster[off+c*4:]))
			}
			if channels == 1 {
				px[1], px[2] = px[0], px[0]
			}
			px[3] = 1
			img.Set(x, y, px)
		}
	}
	return img, nil
}

// Encode writes a little-endian "PF" file.
func (PFM) Encode(img *entities.Image) ([]byte, error) {
	w, h := img.Width(), img.Height()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("cannot encode empty image %dx%d", w, h)
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "PF\n%d %d\n-1.0\n", w, h)
	row := make([]byte, w*3*4)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := img.At(x, y)
			for c := 0; c < 3; c++ {
				binary.LittleEndian.PutUint32(row[(x*3+c)*4:], math.Float32bits(px[c]))
			}
		}
		buf.Write(row)
	}
	return buf.Bytes(), nil
}
