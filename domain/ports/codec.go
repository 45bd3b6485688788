package ports

import "github.com/ofxdriver/ofxdriver/domain/entities"

// ImageCodec reads and writes float RGBA image files.
type ImageCodec interface {
	Decode(path string) (*entities.Image, error)
	Encode(img *entities.Image, path string) error
}
