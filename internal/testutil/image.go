package testutil

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
)

// GradientImage returns a width x height image whose channels differ per
// pixel and stay inside [0, 1].
func GradientImage(width, height int) *entities.Image {
	img := entities.NewImage(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx := float32(x+1) / float32(width+1)
			fy := float32(y+1) / float32(height+1)
			img.Set(x, y, [entities.ImageComponents]float32{fx, fy, fx * fy, 0.5 + fx/4})
		}
	}
	return img
}

// OddImage returns an image holding values codecs tend to mangle: NaN
// with a payload, infinities, negative zero and subnormals.
func OddImage() *entities.Image {
	img := entities.NewImage(2, 2)
	img.Set(0, 0, [entities.ImageComponents]float32{math.Float32frombits(0x7fc00123), float32(math.Inf(1)), float32(math.Inf(-1)), 1})
	img.Set(1, 0, [entities.ImageComponents]float32{float32(math.Copysign(0, -1)), math.Float32frombits(1), -2.5, 0})
	img.Set(0, 1, [entities.ImageComponents]float32{1e30, -1e-30, 0.1, 0.9})
	img.Set(1, 1, [entities.ImageComponents]float32{0, 0, 0, 0})
	return img
}

// CloneImage deep-copies img.
func CloneImage(img *entities.Image) *entities.Image {
	return &entities.Image{Bounds: img.Bounds, Stride: img.Stride, Pixels: slices.Clone(img.Pixels)}
}

// MemoryCodec is an ImageCodec over a map of paths to images.
type MemoryCodec struct {
	mu     sync.Mutex
	images map[string]*entities.Image
	writes int
}

// NewMemoryCodec creates an empty codec.
func NewMemoryCodec() *MemoryCodec {
	return &MemoryCodec{images: make(map[string]*entities.Image)}
}

// Put stores a copy of img under path.
func (c *MemoryCodec) Put(path string, img *entities.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.images[path] = CloneImage(img)
}

// Get returns the image stored under path.
func (c *MemoryCodec) Get(path string) (*entities.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[path]
	return img, ok
}

// Writes counts Encode calls.
func (c *MemoryCodec) Writes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writes
}

// Decode implements ports.ImageCodec.
func (c *MemoryCodec) Decode(path string) (*entities.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	img, ok := c.images[path]
	if !ok {
		return nil, &errors.CodecError{Operation: "decode", Path: path, Err: fmt.Errorf("no such image")}
	}
	return CloneImage(img), nil
}

// Encode implements ports.ImageCodec.
func (c *MemoryCodec) Encode(img *entities.Image, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	c.images[path] = CloneImage(img)
	return nil
}
