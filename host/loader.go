package host

import (
	"fmt"
	"strings"

	apptemplate "github.com/ofxdriver/ofxdriver/application/template"
	"github.com/ofxdriver/ofxdriver/application/schema"
	"github.com/ofxdriver/ofxdriver/application/validation"
	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/infrastructure/parser"
)

// loaderConfig holds configuration for the Loader.
type loaderConfig struct {
	strictTemplates bool // Fail on missing template keys
}

func defaultLoaderConfig() loaderConfig {
	return loaderConfig{
		strictTemplates: true,
	}
}

// Loader orchestrates the command script loading pipeline: template
// rendering, whole-file validation, then decoding.
type Loader struct {
	templates ports.TemplateEngine
	validator *validation.CommandValidator
	parser    ports.CommandParser
}

// LoaderOption configures the Loader.
type LoaderOption func(*loaderConfig)

// WithStrictTemplates enables/disables strict template mode.
// When enabled (default), template rendering fails if a referenced variable is missing.
func WithStrictTemplates(enabled bool) LoaderOption {
	return func(c *loaderConfig) {
		c.strictTemplates = enabled
	}
}

// NewLoader creates a new Loader with defaults.
func NewLoader(opts ...LoaderOption) *Loader {
	cfg := defaultLoaderConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	v := validation.NewCommandValidator(schema.NewCommandRegistry())
	return &Loader{
		templates: apptemplate.NewGoTemplateEngine(apptemplate.WithStrict(cfg.strictTemplates)),
		validator: v,
		parser:    parser.NewJSONCommandParser(parser.WithValidator(v)),
	}
}

// LoadCommands renders, validates and decodes a command script. Every
// invalid entry is reported, not just the first. All failures are
// ValidationErrors.
func (l *Loader) LoadCommands(raw []byte, vars map[string]any) ([]entities.Command, error) {
	data, err := l.templates.Render(raw, vars)
	if err != nil {
		return nil, &errors.ValidationError{Err: fmt.Errorf("failed to render command file: %w", err)}
	}

	res := l.validator.CheckFile(data)
	if !res.Valid {
		var msg strings.Builder
		msg.WriteString("command file validation failed:")
		for _, e := range res.Errors {
			if e.Field == "" {
				fmt.Fprintf(&msg, "\n- %s", e.Message)
				continue
			}
			fmt.Fprintf(&msg, "\n- %s: %s", e.Field, e.Message)
		}
		return nil, &errors.ValidationError{Err: fmt.Errorf("%s", msg.String())}
	}

	cmds, err := l.parser.Parse(data)
	if err != nil {
		return nil, err
	}
	return cmds, nil
}
