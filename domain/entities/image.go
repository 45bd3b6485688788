package entities

import "math"

// Components per pixel. Every image this host handles is float32 RGBA.
const (
	ImageComponents   = 4
	BytesPerComponent = 4
	BytesPerPixel     = ImageComponents * BytesPerComponent
)

// RectI is an integer rectangle, x1/y1 inclusive and x2/y2 exclusive.
type RectI struct {
	X1 int32 `json:"x1"`
	Y1 int32 `json:"y1"`
	X2 int32 `json:"x2"`
	Y2 int32 `json:"y2"`
}

// Width returns x2 - x1.
func (r RectI) Width() int { return int(r.X2 - r.X1) }

// Height returns y2 - y1.
func (r RectI) Height() int { return int(r.Y2 - r.Y1) }

// Empty reports whether the rectangle has no area.
func (r RectI) Empty() bool { return r.X2 <= r.X1 || r.Y2 <= r.Y1 }

// Values returns the rectangle as four Int property values.
func (r RectI) Values() []Value {
	return []Value{Int(r.X1), Int(r.Y1), Int(r.X2), Int(r.Y2)}
}

// Crop intersects r with other.
func (r RectI) Crop(other RectI) RectI {
	return RectI{
		X1: max(r.X1, other.X1),
		Y1: max(r.Y1, other.Y1),
		X2: min(r.X2, other.X2),
		Y2: min(r.Y2, other.Y2),
	}
}

// Double converts r to canonical coordinates.
func (r RectI) Double() RectD {
	return RectD{X1: float64(r.X1), Y1: float64(r.Y1), X2: float64(r.X2), Y2: float64(r.Y2)}
}

// RectD is a floating point rectangle in canonical coordinates.
type RectD struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Int returns the smallest pixel rectangle covering r.
func (r RectD) Int() RectI {
	return RectI{
		X1: int32(math.Floor(r.X1)),
		Y1: int32(math.Floor(r.Y1)),
		X2: int32(math.Ceil(r.X2)),
		Y2: int32(math.Ceil(r.Y2)),
	}
}

// Values returns the rectangle as four Double property values.
func (r RectD) Values() []Value {
	return []Value{Double(r.X1), Double(r.Y1), Double(r.X2), Double(r.Y2)}
}

// Image is a float32 RGBA pixel buffer. Row 0 is the bottom row, as plugins
// expect; codecs flip rows when reading and writing files.
type Image struct {
	Bounds RectI
	// Stride is the number of pixels per row.
	Stride int
	Pixels []float32
}

// NewImage allocates a zeroed width x height image.
func NewImage(width, height int) *Image {
	return NewImageIn(RectI{X2: int32(width), Y2: int32(height)}, 0)
}

// NewImageIn allocates a zeroed image covering bounds. A rowBytes wider
// than one row of pixels pads each row; a narrower one is ignored.
func NewImageIn(bounds RectI, rowBytes int) *Image {
	w, h := max(bounds.Width(), 0), max(bounds.Height(), 0)
	stride := max(rowBytes/BytesPerPixel, w)
	return &Image{
		Bounds: bounds,
		Stride: stride,
		Pixels: make([]float32, stride*h*ImageComponents),
	}
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.Bounds.Width() }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.Bounds.Height() }

// RowBytes returns the byte distance between rows.
func (img *Image) RowBytes() int { return img.Stride * BytesPerPixel }

// ByteSize returns the size of the pixel buffer in bytes.
func (img *Image) ByteSize() int { return img.RowBytes() * img.Height() }

// At returns the pixel at (x, y) relative to the bounds origin.
func (img *Image) At(x, y int) [ImageComponents]float32 {
	i := (y*img.Stride + x) * ImageComponents
	return [ImageComponents]float32{img.Pixels[i], img.Pixels[i+1], img.Pixels[i+2], img.Pixels[i+3]}
}

// Set writes the pixel at (x, y) relative to the bounds origin.
func (img *Image) Set(x, y int, px [ImageComponents]float32) {
	i := (y*img.Stride + x) * ImageComponents
	copy(img.Pixels[i:i+ImageComponents], px[:])
}

// Crop returns a copy of the part of img inside r. The copy keeps img's
// coordinates, so its bounds are the intersection of both rectangles.
func (img *Image) Crop(r RectI) *Image {
	b := img.Bounds.Crop(r)
	out := NewImageIn(b, 0)
	dx, dy := int(b.X1-img.Bounds.X1), int(b.Y1-img.Bounds.Y1)
	for y := 0; y < out.Height(); y++ {
		for x := 0; x < out.Width(); x++ {
			out.Set(x, y, img.At(x+dx, y+dy))
		}
	}
	return out
}
