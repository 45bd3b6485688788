package host

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/hostfuncs"
	"github.com/ofxdriver/ofxdriver/infrastructure/bundle"
	"github.com/ofxdriver/ofxdriver/infrastructure/codec"
	"github.com/ofxdriver/ofxdriver/plugins/builtin"
)

// Host runs plugins on behalf of a command script. A Host is not safe for
// concurrent use; independent Hosts may coexist in one process.
type Host struct {
	config   hostConfig
	logger   *slog.Logger
	state    *hostfuncs.State
	registry *Registry
	bundles  *bundleCache
}

// New creates a host with an empty registry.
func New(opts ...Option) *Host {
	cfg := defaultHostConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.opener == nil {
		cfg.opener = bundle.NewOpener(bundle.WithCatalog(builtin.Catalog))
	}
	if cfg.codec == nil {
		cfg.codec = codec.New()
	}
	state := hostfuncs.NewState(NewHostProperties(cfg.version), cfg.logger)
	return &Host{
		config:   cfg,
		logger:   cfg.logger,
		state:    state,
		registry: NewRegistry(),
		bundles:  newBundleCache(cfg.opener, state),
	}
}

// State returns the state shared by every bundle's suites.
func (h *Host) State() *hostfuncs.State {
	return h.state
}

// Registry returns the plugin and instance registry.
func (h *Host) Registry() *Registry {
	return h.registry
}

// Close closes every open bundle, then the opener if it holds resources.
// Plugins and instances still registered are dropped without actions.
func (h *Host) Close(ctx context.Context) error {
	err := h.bundles.closeAll(ctx)
	if c, ok := h.config.opener.(interface{ Close(context.Context) error }); ok {
		if cerr := c.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	h.registry = NewRegistry()
	return err
}

// callAction runs one action and converts its outcome to an error. A
// defect recorded by a suite during the action takes precedence over the
// plugin's status.
func (h *Host) callAction(ctx context.Context, p ports.Plugin, action, target string, effect hostfuncs.Handle, inArgs *entities.PropertySet) error {
	return h.callActionOut(ctx, p, action, target, effect, inArgs, nil)
}

// callActionOut is callAction for actions that return values in outArgs.
func (h *Host) callActionOut(ctx context.Context, p ports.Plugin, action, target string, effect hostfuncs.Handle, inArgs, outArgs *entities.PropertySet) (err error) {
	in := h.state.RegisterArgs(inArgs)
	defer h.state.ReleaseArgs(in)
	out := h.state.RegisterArgs(outArgs)
	defer h.state.ReleaseArgs(out)
	defer func() {
		if r := recover(); r != nil {
			err = asDefect(r)
		}
	}()

	h.logger.DebugContext(ctx, "action", "action", action, "target", target, "effect", effect)
	st, callErr := p.MainEntry(ctx, action, effect, in, out)
	if defect := h.state.TakeDefect(); defect != nil {
		return defect
	}
	if callErr != nil {
		return fmt.Errorf("%s on %s: %w", action, target, callErr)
	}
	if !st.Succeeded() {
		return &errors.StatusError{Action: action, Target: target, Status: st}
	}
	return nil
}

// asDefect turns a recovered panic value into a DefectError.
func asDefect(r any) error {
	if d, ok := r.(*errors.DefectError); ok {
		return d
	}
	return &errors.DefectError{Message: fmt.Sprintf("panic: %v", r)}
}
