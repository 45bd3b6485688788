package codec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	domainerrors "github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/domain/ports"
)

// Format decodes and encodes one file format.
type Format interface {
	Decode(data []byte) (*entities.Image, error)
	Encode(img *entities.Image) ([]byte, error)
}

// Registry is an ImageCodec that dispatches on the file extension.
type Registry struct {
	formats map[string]Format
}

var _ ports.ImageCodec = (*Registry)(nil)

// Option configures a Registry.
type Option func(*Registry)

// WithFormat registers f for ext, which includes the leading dot.
func WithFormat(ext string, f Format) Option {
	return func(r *Registry) {
		r.formats[strings.ToLower(ext)] = f
	}
}

// New returns a registry with OpenEXR, PFM and PNG support.
func New(opts ...Option) *Registry {
	r := &Registry{formats: map[string]Format{
		".exr": EXR{},
		".pfm": PFM{},
		".png": PNG{},
	}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.formats))
	for ext := range r.formats {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) format(op, path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := r.formats[ext]
	if !ok {
		return nil, &domainerrors.CodecError{
			Operation: op,
			Path:      path,
			Err:       fmt.Errorf("unsupported image extension %q (supported: %s)", ext, strings.Join(r.Extensions(), ", ")),
		}
	}
	return f, nil
}

// Decode reads the image at path.
func (r *Registry) Decode(path string) (*entities.Image, error) {
	f, err := r.format("decode", path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domainerrors.CodecError{Operation: "decode", Path: path, Err: err}
	}
	img, err := f.Decode(data)
	if err != nil {
		return nil, &domainerrors.CodecError{Operation: "decode", Path: path, Err: err}
	}
	return img, nil
}

// Encode writes img to path, replacing any existing file.
func (r *Registry) Encode(img *entities.Image, path string) error {
	f, err := r.format("encode", path)
	if err != nil {
		return err
	}
	data, err := f.Encode(img)
	if err != nil {
		return &domainerrors.CodecError{Operation: "encode", Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &domainerrors.CodecError{Operation: "encode", Path: path, Err: err}
	}
	return nil
}
