package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/ports"
)

// registryConfig holds configuration for the Registry.
type registryConfig struct {
	strictMode bool // Fail on duplicate registrations
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{
		strictMode: true, // Secure default: prevent accidental overwrites
	}
}

// RegistryOption configures a Registry instance.
type RegistryOption func(*registryConfig)

// WithStrictMode enables/disables strict mode for duplicate registrations.
// Default is true (fail on duplicates).
func WithStrictMode(enabled bool) RegistryOption {
	return func(c *registryConfig) {
		c.strictMode = enabled
	}
}

// Registry holds the JSON schema of each command type. It implements
// ports.SchemaRegistry.
type Registry struct {
	config  registryConfig
	mu      sync.RWMutex
	schemas map[string]*jsonschema.Schema
}

// NewRegistry creates an empty Registry with the given options.
func NewRegistry(opts ...RegistryOption) *Registry {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Registry{config: cfg, schemas: make(map[string]*jsonschema.Schema)}
}

// NewCommandRegistry returns a Registry holding every command type.
func NewCommandRegistry() *Registry {
	r := NewRegistry()
	for _, t := range entities.CommandTypes() {
		model, _ := entities.NewCommand(t)
		if err := r.Register(string(t), model); err != nil {
			panic(err) // command types are unique
		}
	}
	return r
}

var _ ports.SchemaRegistry = (*Registry)(nil)

// Register adds a schema generated from a Go struct. The schema pins the
// "type" property, when the struct has one, to kind.
func (r *Registry) Register(kind string, model interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.strictMode {
		if _, exists := r.schemas[kind]; exists {
			return fmt.Errorf("command type %q already registered", kind)
		}
	}

	s := reflectSchema(model)
	s.Version = ""
	s.ID = ""
	if s.Properties != nil {
		if typ, ok := s.Properties.Get("type"); ok {
			typ.Const = kind
		}
	}
	r.schemas[kind] = s
	return nil
}

// GetSchema retrieves the JSON Schema for a command type.
func (r *Registry) GetSchema(kind string) (string, bool) {
	r.mu.RLock()
	s, ok := r.schemas[kind]
	r.mu.RUnlock()
	if !ok {
		return "", false
	}
	data, err := json.Marshal(s)
	if err != nil {
		return "", false
	}
	return string(data), true
}

// List returns all registered command type names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CommandFileSchema returns the schema of a whole command file: an array
// whose items match exactly one registered command type.
func (r *Registry) CommandFileSchema() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.schemas))
	for k := range r.schemas {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := &jsonschema.Schema{}
	for _, k := range keys {
		items.OneOf = append(items.OneOf, r.schemas[k])
	}
	file := &jsonschema.Schema{
		Version: jsonschema.Version,
		Title:   "ofxdriver command file",
		Type:    "array",
		Items:   items,
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}
