package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/ofxdriver/ofxdriver/domain/ports"
)

// templateConfig holds configuration for the GoTemplateEngine.
type templateConfig struct {
	strict bool // Fail on missing keys
}

func defaultTemplateConfig() templateConfig {
	return templateConfig{
		strict: true,
	}
}

// TemplateOption configures a GoTemplateEngine.
type TemplateOption func(*templateConfig)

// WithStrict enables/disables strict mode for missing keys.
// When enabled (default), template rendering fails if a referenced key is missing.
func WithStrict(enabled bool) TemplateOption {
	return func(c *templateConfig) {
		c.strict = enabled
	}
}

// GoTemplateEngine implements TemplateEngine using standard text/template.
// Scripts reference variables as {{.vars.name}}; the json function quotes
// a value for use inside the JSON document.
type GoTemplateEngine struct {
	config templateConfig
}

// NewGoTemplateEngine creates a new GoTemplateEngine.
func NewGoTemplateEngine(opts ...TemplateOption) ports.TemplateEngine {
	cfg := defaultTemplateConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &GoTemplateEngine{config: cfg}
}

var funcs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
}

// Render processes the raw script bytes with the provided variables.
func (e *GoTemplateEngine) Render(raw []byte, vars map[string]any) ([]byte, error) {
	tmpl := template.New("commands").Funcs(funcs)

	if e.config.strict {
		tmpl = tmpl.Option("missingkey=error")
	}

	tmpl, err := tmpl.Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse command template: %w", err)
	}

	if vars == nil {
		vars = map[string]any{}
	}
	var buf bytes.Buffer
	data := map[string]any{
		"vars": vars,
	}

	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute command template: %w", err)
	}

	return buf.Bytes(), nil
}
