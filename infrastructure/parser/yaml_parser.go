package parser

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/ports"
)

// YamlManifestParser implements ManifestParser for a bundle's Info.yaml.
type YamlManifestParser struct{}

// NewYamlManifestParser creates a new YamlManifestParser.
func NewYamlManifestParser() ports.ManifestParser {
	return &YamlManifestParser{}
}

// Parse unmarshals YAML bytes into a BundleManifest. Unknown keys are
// rejected so a misspelt field does not silently fall back to a default.
func (p *YamlManifestParser) Parse(data []byte) (*entities.BundleManifest, error) {
	var manifest entities.BundleManifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("invalid bundle manifest: %w", err)
	}
	return &manifest, nil
}
