package codec

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// PNG decodes any PNG to straight-alpha floats in [0, 1] and encodes as
// 16-bit non-premultiplied RGBA. Values outside [0, 1] are clamped.
type PNG struct{}

// Decode parses a PNG file. PNG rows run top to bottom, so they are
// flipped.
func (PNG) Decode(data []byte) (*entities.Image, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	if b.Dx() > maxDimension || b.Dy() > maxDimension {
		return nil, fmt.Errorf("png: image too large %dx%d", b.Dx(), b.Dy())
	}
	img := entities.NewImage(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			c := color.NRGBA64Model.Convert(src.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
			img.Set(x, b.Dy()-1-y, [entities.ImageComponents]float32{
				float32(c.R) / 0xffff,
				float32(c.G) / 0xffff,
				float32(c.B) / 0xffff,
				float32(c.A) / 0xffff,
			})
		}
	}
	return img, nil
}

// Encode writes img as a 16-bit PNG.
func (PNG) Encode(img *entities.Image) ([]byte, error) {
	w, h := img.Width(), img.Height()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("cannot encode empty image %dx%d", w, h)
	}
	dst := image.NewNRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := img.At(x, h-1-y)
			dst.SetNRGBA64(x, y, color.NRGBA64{
				R: quantize(px[0]),
				G: quantize(px[1]),
				B: quantize(px[2]),
				A: quantize(px[3]),
			})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func quantize(v float32) uint16 {
	if math.IsNaN(float64(v)) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 0xffff
	}
	return uint16(math.Round(float64(v) * 0xffff))
}
