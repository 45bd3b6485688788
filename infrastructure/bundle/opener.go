package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	domainerrors "github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/infrastructure/parser"
	"github.com/ofxdriver/ofxdriver/infrastructure/wazero"
)

// Layout of a bundle directory.
const (
	DirSuffix    = ".bundle"
	ManifestPath = "Contents/Info.yaml"
	WasmDir      = "Contents/Wasm"
)

// Catalog resolves bundle names served in-process. It returns a fresh
// bundle on every call.
type Catalog func(name string) (ports.Bundle, bool)

// ManifestValidator checks a parsed manifest.
type ManifestValidator interface {
	ValidateManifest(m *entities.BundleManifest) error
}

// openerConfig holds configuration for the Opener.
type openerConfig struct {
	searchPaths []string
	catalog     Catalog
	parser      ports.ManifestParser
	validator   ManifestValidator
	runtimeOpts []wazero.RuntimeOption
}

func defaultOpenerConfig() openerConfig {
	return openerConfig{
		parser: parser.NewYamlManifestParser(),
	}
}

// Option configures the Opener.
type Option func(*openerConfig)

// WithSearchPaths appends directories searched for <name>.bundle.
func WithSearchPaths(paths ...string) Option {
	return func(c *openerConfig) {
		for _, p := range paths {
			if p != "" {
				c.searchPaths = append(c.searchPaths, p)
			}
		}
	}
}

// WithCatalog serves the names cat knows before searching the disk.
func WithCatalog(cat Catalog) Option {
	return func(c *openerConfig) {
		c.catalog = cat
	}
}

// WithManifestParser sets a custom manifest parser.
func WithManifestParser(p ports.ManifestParser) Option {
	return func(c *openerConfig) {
		c.parser = p
	}
}

// WithValidator checks every manifest with v.
func WithValidator(v ManifestValidator) Option {
	return func(c *openerConfig) {
		c.validator = v
	}
}

// WithRuntimeOptions configures the wazero runtime bundles load into.
func WithRuntimeOptions(opts ...wazero.RuntimeOption) Option {
	return func(c *openerConfig) {
		c.runtimeOpts = append(c.runtimeOpts, opts...)
	}
}

// Opener implements ports.BundleOpener.
type Opener struct {
	config openerConfig

	mu sync.Mutex
	rt *wazero.Runtime
}

var _ ports.BundleOpener = (*Opener)(nil)

// NewOpener creates an Opener with defaults.
func NewOpener(opts ...Option) *Opener {
	cfg := defaultOpenerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Opener{config: cfg}
}

// SearchPaths returns the configured search paths in lookup order.
func (o *Opener) SearchPaths() []string {
	return append([]string(nil), o.config.searchPaths...)
}

// Open returns the bundle called name. Catalog entries win over bundles on
// disk. A name containing a path separator is opened as a bundle
// directory directly.
func (o *Opener) Open(ctx context.Context, name string) (ports.Bundle, error) {
	if name == "" {
		return nil, &domainerrors.BundleError{Bundle: name, Err: errors.New("empty bundle name")}
	}
	if o.config.catalog != nil {
		if b, ok := o.config.catalog(name); ok {
			return b, nil
		}
	}

	dir, err := o.resolve(name)
	if err != nil {
		return nil, err
	}
	return o.openDir(ctx, name, dir)
}

func (o *Opener) resolve(name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) || strings.ContainsRune(name, '/') {
		if !isDir(name) {
			return "", &domainerrors.NotFoundError{Kind: "bundle", Name: name}
		}
		return name, nil
	}
	for _, p := range o.config.searchPaths {
		dir := filepath.Join(p, name+DirSuffix)
		if isDir(dir) {
			return dir, nil
		}
	}
	return "", &domainerrors.NotFoundError{Kind: "bundle", Name: name}
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// ReadManifest reads and checks the manifest of the bundle directory dir.
func (o *Opener) ReadManifest(dir string) (*entities.BundleManifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestPath))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("missing %s", ManifestPath)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := o.config.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.Executable == "" {
		return nil, errors.New("manifest has no executable")
	}
	if filepath.Base(m.Executable) != m.Executable || m.Executable == ".." {
		return nil, fmt.Errorf("executable %q must be a file name inside %s", m.Executable, WasmDir)
	}
	if o.config.validator != nil {
		if err := o.config.validator.ValidateManifest(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (o *Opener) openDir(ctx context.Context, name, dir string) (ports.Bundle, error) {
	m, err := o.ReadManifest(dir)
	if err != nil {
		return nil, &domainerrors.BundleError{Bundle: name, Err: err}
	}

	exe := filepath.Join(dir, WasmDir, m.Executable)
	wasm, err := os.ReadFile(exe)
	if err != nil {
		return nil, &domainerrors.BundleError{Bundle: name, Err: fmt.Errorf("failed to read executable: %w", err)}
	}

	rt, err := o.runtime(ctx)
	if err != nil {
		return nil, &domainerrors.BundleError{Bundle: name, Err: err}
	}
	b, err := rt.Load(ctx, wazero.Source{
		Name:             name,
		Path:             dir,
		Wasm:             wasm,
		MemoryLimitPages: m.MemoryLimitPages,
	})
	if err != nil {
		return nil, &domainerrors.BundleError{Bundle: name, Err: err}
	}
	return b, nil
}

func (o *Opener) runtime(ctx context.Context) (*wazero.Runtime, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rt != nil {
		return o.rt, nil
	}
	rt, err := wazero.NewRuntime(ctx, o.config.runtimeOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start wasm runtime: %w", err)
	}
	o.rt = rt
	return rt, nil
}

// Close releases the wasm runtime and every bundle loaded from it.
func (o *Opener) Close(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rt == nil {
		return nil
	}
	err := o.rt.Close(ctx)
	o.rt = nil
	return err
}
