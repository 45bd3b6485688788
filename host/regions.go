package host

import (
	"context"
	"fmt"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
)

// activeInstance returns a registered instance that may run render-time
// actions.
func (h *Host) activeInstance(name, operation string) (*Instance, error) {
	inst, err := h.registry.Instance(name)
	if err != nil {
		return nil, err
	}
	if inst.Effect.State() != entities.StateActive {
		return nil, &errors.StateError{Operation: operation, Instance: name, State: inst.Effect.State()}
	}
	return inst, nil
}

// setProject records a project of the given size at the origin.
func setProject(e *entities.Effect, width, height float64) {
	props := e.Props
	props.Define(entities.ImageEffectPropProjectSize, entities.Double(width), entities.Double(height))
	props.Define(entities.ImageEffectPropProjectOffset, entities.Double(0), entities.Double(0))
	props.Define(entities.ImageEffectPropProjectExtent, entities.Double(width), entities.Double(height))
	props.Define(entities.ImageEffectPropProjectPixelAspectRatio, entities.Double(1))
}

// regionArgs builds the in-args of the region actions. Plugins read the
// field and render window here as well, though only time and scale are
// required.
func regionArgs(name string, extent [2]float64, extra ...entities.Property) *entities.PropertySet {
	window := entities.RectI{X2: int32(extent[0]), Y2: int32(extent[1])}
	props := append([]entities.Property{
		entities.Prop(entities.PropTime, entities.Double(0)),
		entities.Prop(entities.ImageEffectPropRenderScale, entities.Double(1), entities.Double(1)),
		entities.Prop(entities.ImageEffectPropFieldToRender, entities.String(entities.ImageFieldNone)),
		entities.Prop(entities.ImageEffectPropRenderWindow, window.Values()...),
	}, extra...)
	return entities.NewPropertySet(name, props...)
}

func rectProp(ps *entities.PropertySet, name string) (entities.RectD, error) {
	var v [4]float64
	for i := range v {
		d, st := ps.GetDouble(name, i)
		if st != entities.StatOK {
			return entities.RectD{}, fmt.Errorf("plugin left %s unreadable: %s", name, st)
		}
		v[i] = d
	}
	return entities.RectD{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, nil
}

// RegionsOfInterest runs the GetRegionsOfInterest action for a render of
// roi in a project of the given extent, with the Source clip covering the
// whole project. It returns the region of Source the plugin needs. A
// plugin that keeps the default asks for roi itself.
func (h *Host) RegionsOfInterest(ctx context.Context, instanceName string, extent [2]float64, roi entities.RectD) (entities.RectD, error) {
	inst, err := h.activeInstance(instanceName, "get regions of interest for")
	if err != nil {
		return entities.RectD{}, err
	}
	project := entities.RectD{X2: extent[0], Y2: extent[1]}
	return h.regionsOfInterest(ctx, inst, extent, project, roi)
}

func (h *Host) regionsOfInterest(ctx context.Context, inst *Instance, extent [2]float64, sourceRoD, roi entities.RectD) (entities.RectD, error) {
	restore, err := overrideSourceRoD(inst, sourceRoD)
	if err != nil {
		return entities.RectD{}, err
	}
	defer restore()
	setProject(inst.Effect, extent[0], extent[1])

	outName := entities.ImageClipPropRoIPrefix + entities.ClipSource
	in := regionArgs("regions of interest args", extent,
		entities.Prop(entities.ImageEffectPropRegionOfInterest, roi.Values()...))
	out := entities.NewPropertySet("regions of interest", entities.Prop(outName, roi.Values()...))
	if err := h.callActionOut(ctx, inst.Plugin.Plugin, entities.ActionGetRegionsOfInterest, inst.Name, inst.Handle, in, out); err != nil {
		return entities.RectD{}, err
	}
	return rectProp(out, outName)
}

// RegionOfDefinition runs the GetRegionOfDefinition action in a project of
// the given extent with the Source clip defined over inputRoD. A plugin
// that keeps the default reports inputRoD.
func (h *Host) RegionOfDefinition(ctx context.Context, instanceName string, extent [2]float64, inputRoD entities.RectD) (entities.RectD, error) {
	inst, err := h.activeInstance(instanceName, "get region of definition for")
	if err != nil {
		return entities.RectD{}, err
	}
	return h.regionOfDefinition(ctx, inst, extent, inputRoD)
}

func (h *Host) regionOfDefinition(ctx context.Context, inst *Instance, extent [2]float64, inputRoD entities.RectD) (entities.RectD, error) {
	restore, err := overrideSourceRoD(inst, inputRoD)
	if err != nil {
		return entities.RectD{}, err
	}
	defer restore()
	setProject(inst.Effect, extent[0], extent[1])

	in := regionArgs("region of definition args", extent)
	out := entities.NewPropertySet("region of definition",
		entities.Prop(entities.ImageEffectPropRegionOfDefinition, inputRoD.Values()...))
	if err := h.callActionOut(ctx, inst.Plugin.Plugin, entities.ActionGetRegionOfDefinition, inst.Name, inst.Handle, in, out); err != nil {
		return entities.RectD{}, err
	}
	return rectProp(out, entities.ImageEffectPropRegionOfDefinition)
}

// overrideSourceRoD makes the Source clip report rod until restore runs.
func overrideSourceRoD(inst *Instance, rod entities.RectD) (restore func(), err error) {
	src, ok := inst.Effect.Clip(entities.ClipSource)
	if !ok {
		return nil, fmt.Errorf("instance %q has no %s clip", inst.Name, entities.ClipSource)
	}
	prev := src.RegionOfDefinition
	src.RegionOfDefinition = &rod
	return func() { src.RegionOfDefinition = prev }, nil
}

func (h *Host) printRegionsOfInterest(ctx context.Context, c *entities.PrintRoIs) error {
	roi, err := h.RegionsOfInterest(ctx, c.InstanceName, c.ProjectExtent, c.RegionOfInterest)
	if err != nil {
		return err
	}
	return h.printJSON(roi)
}

func (h *Host) printRegionOfDefinition(ctx context.Context, c *entities.PrintRoD) error {
	rod, err := h.RegionOfDefinition(ctx, c.InstanceName, c.ProjectExtent, c.InputRoD)
	if err != nil {
		return err
	}
	return h.printJSON(rod)
}
