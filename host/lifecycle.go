package host

import (
	"context"
	stdErrors "errors"
	"fmt"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/domain/ports"
)

// CreatePlugin loads bundleName if needed, then loads and describes the
// plugin with the given identifier and registers it under that identifier.
func (h *Host) CreatePlugin(ctx context.Context, bundleName, pluginName string) (*LoadedPlugin, error) {
	if h.registry.HasPlugin(pluginName) {
		return nil, &errors.ExistsError{Kind: "plugin", Name: pluginName}
	}
	lb, err := h.bundles.acquire(ctx, bundleName)
	if err != nil {
		return nil, err
	}
	lp, err := h.loadPlugin(ctx, lb, pluginName)
	if err != nil {
		if rerr := h.bundles.releaseIfUnused(ctx, bundleName); rerr != nil {
			h.logger.WarnContext(ctx, "failed to close bundle", "bundle", bundleName, "error", rerr)
		}
		return nil, err
	}
	if err := h.registry.AddPlugin(lp); err != nil {
		return nil, err
	}
	lb.refs++
	h.logger.InfoContext(ctx, "plugin created", "bundle", bundleName, "plugin", pluginName)
	return lp, nil
}

func findPlugin(b ports.Bundle, id string) (ports.Plugin, bool) {
	for _, p := range b.Plugins() {
		if p.Identifier() == id {
			return p, true
		}
	}
	return nil, false
}

func (h *Host) loadPlugin(ctx context.Context, lb *loadedBundle, pluginName string) (*LoadedPlugin, error) {
	p, ok := findPlugin(lb.bundle, pluginName)
	if !ok {
		return nil, &errors.NotFoundError{Kind: "plugin", Name: pluginName}
	}
	if p.API() != entities.ImageEffectPluginAPI || p.APIVersion() != entities.ImageEffectPluginAPIVersion {
		return nil, &errors.BundleError{
			Bundle: lb.name,
			Err:    fmt.Errorf("plugin %q implements %s v%d, not %s v%d", pluginName, p.API(), p.APIVersion(), entities.ImageEffectPluginAPI, entities.ImageEffectPluginAPIVersion),
		}
	}
	if err := p.SetHost(ctx, lb.suites); err != nil {
		return nil, fmt.Errorf("setHost %s: %w", pluginName, err)
	}
	if err := h.callAction(ctx, p, entities.ActionLoad, pluginName, 0, nil); err != nil {
		return nil, err
	}

	desc := entities.NewEffect(pluginName, entities.NewPropertySet(pluginName,
		entities.Prop(entities.PropType, entities.String(entities.TypeImageEffect)),
		entities.Prop(entities.PluginPropFilePath, entities.String(lb.bundle.Path())),
	))
	dh := h.state.RegisterEffect(desc)
	if err := h.callAction(ctx, p, entities.ActionDescribe, pluginName, dh, nil); err != nil {
		h.state.ReleaseEffect(dh)
		lb.suites.Collect(ctx)
		return nil, err
	}
	return &LoadedPlugin{
		Name:             pluginName,
		Plugin:           p,
		Descriptor:       desc,
		bundle:           lb,
		descriptorHandle: dh,
	}, nil
}

// describeFilter runs DescribeInContext(Filter) once per plugin.
func (h *Host) describeFilter(ctx context.Context, lp *LoadedPlugin) (*entities.Effect, error) {
	if lp.Filter != nil {
		return lp.Filter, nil
	}
	props := lp.Descriptor.Props
	if !props.Contains(entities.ImageEffectPropSupportedContexts, entities.ImageEffectContextFilter) {
		return nil, fmt.Errorf("plugin %q: filter context not supported", lp.Name)
	}
	if !props.Contains(entities.ImageEffectPropSupportedPixelDepths, entities.BitDepthFloat) {
		return nil, fmt.Errorf("plugin %q: %s not supported", lp.Name, entities.BitDepthFloat)
	}

	filter := entities.NewEffect(lp.Name+" filter", entities.NewPropertySet(lp.Name+" filter",
		entities.Prop(entities.PropType, entities.String(entities.TypeImageEffect)),
		entities.Prop(entities.PluginPropFilePath, entities.String(lp.bundle.bundle.Path())),
	))
	fh := h.state.RegisterEffect(filter)
	inArgs := entities.NewPropertySet("describeInContext args",
		entities.Prop(entities.ImageEffectPropContext, entities.String(entities.ImageEffectContextFilter)),
	)
	if err := h.callAction(ctx, lp.Plugin, entities.ActionDescribeInContext, lp.Name, fh, inArgs); err != nil {
		h.state.ReleaseEffect(fh)
		lp.bundle.suites.Collect(ctx)
		return nil, err
	}
	lp.Filter = filter
	lp.filterHandle = fh
	return filter, nil
}

// DescribeFilter returns the filter-context descriptor of a loaded plugin,
// describing it first if needed.
func (h *Host) DescribeFilter(ctx context.Context, pluginName string) (*entities.Effect, error) {
	lp, err := h.registry.Plugin(pluginName)
	if err != nil {
		return nil, err
	}
	return h.describeFilter(ctx, lp)
}

// CreateFilter creates a filter instance of a loaded plugin and runs its
// CreateInstance action. The instance is registered only once it is Active.
func (h *Host) CreateFilter(ctx context.Context, pluginName, instanceName string) (*Instance, error) {
	lp, err := h.registry.Plugin(pluginName)
	if err != nil {
		return nil, err
	}
	if _, err := h.registry.Instance(instanceName); err == nil {
		return nil, &errors.ExistsError{Kind: "instance", Name: instanceName}
	}
	filter, err := h.describeFilter(ctx, lp)
	if err != nil {
		return nil, err
	}

	effect := entities.NewEffect(instanceName, entities.NewPropertySet(instanceName,
		entities.Prop(entities.PropType, entities.String(entities.TypeImageEffectInst)),
		entities.Prop(entities.ImageEffectPropContext, entities.String(entities.ImageEffectContextFilter)),
		entities.Prop(entities.PluginPropFilePath, entities.String(lp.bundle.bundle.Path())),
		entities.Prop(entities.ImageEffectPropFrameRate, entities.Double(24)),
		entities.Prop(entities.ImagePropPixelAspectRatio, entities.Double(1)),
		entities.Prop(entities.ImageEffectInstancePropEffectDuration, entities.Double(1)),
	))
	effect.CopyClipsFrom(filter)
	params, coerced, err := filter.Params.Instantiate(instanceName)
	if err != nil {
		return nil, fmt.Errorf("instance %q: %w", instanceName, err)
	}
	for _, name := range coerced {
		h.logger.WarnContext(ctx, "parameter default has the wrong type, using zero",
			"instance", instanceName, "param", name)
	}
	effect.Params = params
	if err := effect.Transition(entities.StateCreated); err != nil {
		return nil, &errors.DefectError{Message: err.Error()}
	}

	eh := h.state.RegisterEffect(effect)
	if err := h.callAction(ctx, lp.Plugin, entities.ActionCreateInstance, instanceName, eh, nil); err != nil {
		h.state.ReleaseEffect(eh)
		lp.bundle.suites.Collect(ctx)
		_ = effect.Transition(entities.StateDestroyed)
		return nil, err
	}
	if err := effect.Transition(entities.StateActive); err != nil {
		return nil, &errors.DefectError{Message: err.Error()}
	}
	inst := &Instance{Name: instanceName, Plugin: lp, Effect: effect, Handle: eh}
	if err := h.registry.AddInstance(inst); err != nil {
		return nil, err
	}
	h.logger.InfoContext(ctx, "instance created", "plugin", pluginName, "instance", instanceName)
	return inst, nil
}

// SetParams writes parameter values on an instance. Every assignment is
// checked against the declared type before any value is written. With
// notify, the change is bracketed by Begin/EndInstanceChanged and each
// written parameter gets an InstanceChanged, in the given order.
func (h *Host) SetParams(ctx context.Context, instanceName string, values []entities.ParamAssignment, notify bool) error {
	inst, err := h.registry.Instance(instanceName)
	if err != nil {
		return err
	}
	if !inst.Effect.State().AcceptsParamAccess() {
		return &errors.StateError{Operation: "set parameters of", Instance: instanceName, State: inst.Effect.State()}
	}

	params := make([]*entities.Param, len(values))
	for i, a := range values {
		p, ok := inst.Effect.Params.Param(a.Name)
		if !ok {
			return &errors.NotFoundError{Kind: "param", Name: a.Name}
		}
		if a.Value == nil || a.Value.Type() != p.Type {
			return &errors.ValidationError{
				Field: a.Name,
				Err:   fmt.Errorf("value of type %s does not match parameter type %s", valueTypeName(a.Value), p.Type),
			}
		}
		params[i] = p
	}

	reason := entities.NewPropertySet("instanceChanged args",
		entities.Prop(entities.PropChangeReason, entities.String(entities.ChangeUserEdited)),
	)
	if notify {
		if err := h.callAction(ctx, inst.Plugin.Plugin, entities.ActionBeginInstanceChanged, instanceName, inst.Handle, reason); err != nil {
			return err
		}
	}
	for i, a := range values {
		if st := params[i].SetValue(a.Value); st != entities.StatOK {
			return &errors.ValidationError{Field: a.Name, Err: fmt.Errorf("set returned %s", st)}
		}
		if !notify {
			continue
		}
		args := entities.NewPropertySet("instanceChanged args",
			entities.Prop(entities.PropType, entities.String(entities.TypeParameter)),
			entities.Prop(entities.PropName, entities.String(a.Name)),
			entities.Prop(entities.PropChangeReason, entities.String(entities.ChangeUserEdited)),
			entities.Prop(entities.PropTime, entities.Double(0)),
			entities.Prop(entities.ImageEffectPropRenderScale, entities.Double(1), entities.Double(1)),
		)
		if err := h.callAction(ctx, inst.Plugin.Plugin, entities.ActionInstanceChanged, instanceName, inst.Handle, args); err != nil {
			return err
		}
	}
	if notify {
		return h.callAction(ctx, inst.Plugin.Plugin, entities.ActionEndInstanceChanged, instanceName, inst.Handle, reason)
	}
	return nil
}

func valueTypeName(v entities.ParamValue) string {
	if v == nil {
		return "none"
	}
	return string(v.Type())
}

// DestroyInstance runs DestroyInstance and removes the instance. The
// instance is deregistered and its handles invalidated even when the
// action fails; that failure is still returned.
func (h *Host) DestroyInstance(ctx context.Context, instanceName string) error {
	inst, err := h.registry.Instance(instanceName)
	if err != nil {
		return err
	}
	actionErr := h.callAction(ctx, inst.Plugin.Plugin, entities.ActionDestroyInstance, instanceName, inst.Handle, nil)

	h.registry.RemoveInstance(instanceName)
	released := h.state.ReleaseEffect(inst.Handle)
	freed := inst.Plugin.bundle.suites.Collect(ctx)
	if err := inst.Effect.Transition(entities.StateDestroyed); err != nil {
		return &errors.DefectError{Message: err.Error()}
	}
	h.logger.InfoContext(ctx, "instance destroyed", "instance", instanceName,
		"handles", released, "blocks_freed", freed)
	return actionErr
}

// UnloadPlugin runs Unload and removes a plugin with no live instances.
// The bundle is closed once no registered plugin references it. As with
// DestroyInstance, a failing Unload action still removes the plugin.
func (h *Host) UnloadPlugin(ctx context.Context, pluginName string) error {
	lp, err := h.registry.Plugin(pluginName)
	if err != nil {
		return err
	}
	if live := h.registry.LiveInstances(pluginName); len(live) > 0 {
		return fmt.Errorf("plugin %q still has live instances %v", pluginName, live)
	}
	actionErr := h.callAction(ctx, lp.Plugin, entities.ActionUnload, pluginName, 0, nil)

	h.registry.RemovePlugin(pluginName)
	h.state.ReleaseEffect(lp.descriptorHandle)
	if lp.filterHandle != 0 {
		h.state.ReleaseEffect(lp.filterHandle)
	}
	lp.bundle.suites.Collect(ctx)
	closeErr := h.bundles.release(ctx, lp.bundle.name)
	h.logger.InfoContext(ctx, "plugin unloaded", "plugin", pluginName)
	return stdErrors.Join(actionErr, closeErr)
}

// ListPlugins opens a bundle and returns its plugins. A bundle opened only
// for listing is closed again.
func (h *Host) ListPlugins(ctx context.Context, bundleName string) ([]ports.Plugin, error) {
	lb, err := h.bundles.acquire(ctx, bundleName)
	if err != nil {
		return nil, err
	}
	plugins := lb.bundle.Plugins()
	if err := h.bundles.releaseIfUnused(ctx, bundleName); err != nil {
		h.logger.WarnContext(ctx, "failed to close bundle", "bundle", bundleName, "error", err)
	}
	return plugins, nil
}
