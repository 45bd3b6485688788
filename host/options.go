package host

import (
	"io"
	"log/slog"
	"os"

	"github.com/ofxdriver/ofxdriver/domain/ports"
)

// DefaultVersion is reported in the host property set unless WithVersion
// overrides it.
const DefaultVersion = "0.1.0"

// hostConfig holds configuration for a Host.
type hostConfig struct {
	logger  *slog.Logger
	opener  ports.BundleOpener
	codec   ports.ImageCodec
	out     io.Writer
	version string
	strict  bool
}

func defaultHostConfig() hostConfig {
	return hostConfig{
		logger:  slog.Default(),
		out:     os.Stdout,
		version: DefaultVersion,
	}
}

// Option configures a Host.
type Option func(*hostConfig)

// WithLogger sets the logger for host and suite diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *hostConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOpener sets how bundles are located and loaded. The default serves
// the builtin plugins only.
func WithOpener(o ports.BundleOpener) Option {
	return func(c *hostConfig) {
		c.opener = o
	}
}

// WithCodec sets the image codec used by RenderFilter. The default reads
// and writes OpenEXR, PFM and PNG files.
func WithCodec(codec ports.ImageCodec) Option {
	return func(c *hostConfig) {
		c.codec = codec
	}
}

// WithOutput sets where listing and describe commands print.
func WithOutput(w io.Writer) Option {
	return func(c *hostConfig) {
		c.out = w
	}
}

// WithStrict makes every command error fatal.
func WithStrict(strict bool) Option {
	return func(c *hostConfig) {
		c.strict = strict
	}
}

// WithVersion sets the host version advertised to plugins.
func WithVersion(v string) Option {
	return func(c *hostConfig) {
		c.version = v
	}
}
