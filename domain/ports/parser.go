package ports

import "github.com/ofxdriver/ofxdriver/domain/entities"

// ManifestParser parses a bundle's Info.yaml.
type ManifestParser interface {
	Parse(data []byte) (*entities.BundleManifest, error)
}

// CommandParser decodes a command file.
type CommandParser interface {
	Parse(data []byte) ([]entities.Command, error)
}

// CommandValidator checks one raw command object before it is decoded.
type CommandValidator interface {
	ValidateRaw(t entities.CommandType, raw []byte) error
	Validate(cmd entities.Command) error
}
