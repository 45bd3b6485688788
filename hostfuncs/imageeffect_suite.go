package hostfuncs

import (
	"context"

	"github.com/google/uuid"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/internal/handles"
)

// ImageEffectSuite gives plugins access to effects, their clips and the
// images bound to those clips during render.
type ImageEffectSuite struct {
	s *Suites
}

type imageMemory struct {
	ptr   uint32
	size  uint32
	locks int
}

func (e *ImageEffectSuite) effect(h Handle) (*entities.Effect, entities.Status) {
	return handles.Resolve[*entities.Effect](e.s.state.Handles, h, handles.KindEffect)
}

func (e *ImageEffectSuite) registerClip(owner Handle, c *entities.Clip) (Handle, Handle) {
	t := e.s.state.Handles
	ch := t.Register(handles.KindClip, c, owner)
	return ch, t.Register(handles.KindPropertySet, c.Props, ch)
}

// GetPropertySet returns the property set of an effect.
func (e *ImageEffectSuite) GetPropertySet(effect Handle) (Handle, entities.Status) {
	eff, st := e.effect(effect)
	if st != entities.StatOK {
		return 0, st
	}
	return e.s.state.Handles.Register(handles.KindPropertySet, eff.Props, effect), entities.StatOK
}

// GetParamSet returns the parameter set of an effect.
func (e *ImageEffectSuite) GetParamSet(effect Handle) (Handle, entities.Status) {
	eff, st := e.effect(effect)
	if st != entities.StatOK {
		return 0, st
	}
	return e.s.state.Handles.Register(handles.KindParamSet, eff.Params, effect), entities.StatOK
}

// ClipDefine declares a clip on a descriptor and returns its property set.
func (e *ImageEffectSuite) ClipDefine(effect Handle, name string) (Handle, entities.Status) {
	eff, st := e.effect(effect)
	if st != entities.StatOK {
		return 0, st
	}
	if eff.State() != entities.StateDescribed {
		return 0, entities.StatErrUnsupported
	}
	_, props := e.registerClip(effect, eff.DefineClip(name))
	return props, entities.StatOK
}

// ClipGetHandle looks up a clip by name.
func (e *ImageEffectSuite) ClipGetHandle(effect Handle, name string) (Handle, Handle, entities.Status) {
	eff, st := e.effect(effect)
	if st != entities.StatOK {
		return 0, 0, st
	}
	c, ok := eff.Clip(name)
	if !ok {
		return 0, 0, entities.StatErrUnknown
	}
	ch, props := e.registerClip(effect, c)
	return ch, props, entities.StatOK
}

func (e *ImageEffectSuite) clip(h Handle) (*entities.Clip, entities.Status) {
	return handles.Resolve[*entities.Clip](e.s.state.Handles, h, handles.KindClip)
}

// ClipGetPropertySet returns the property set of a clip.
func (e *ImageEffectSuite) ClipGetPropertySet(clip Handle) (Handle, entities.Status) {
	c, st := e.clip(clip)
	if st != entities.StatOK {
		return 0, st
	}
	return e.s.state.Handles.Register(handles.KindPropertySet, c.Props, clip), entities.StatOK
}

// ClipGetImage returns a new image handle for the buffer bound to a clip.
// Each call yields a distinct handle that must be given back with
// ClipReleaseImage. A clip with no bound buffer is Failed.
func (e *ImageEffectSuite) ClipGetImage(clip Handle, time float64, region *entities.RectD) (Handle, entities.Status) {
	c, st := e.clip(clip)
	if st != entities.StatOK {
		return 0, st
	}
	b, ok := e.s.bindings[c]
	if !ok || b.Image == nil {
		return 0, entities.StatFailed
	}
	_, effect, st := e.s.effectOf(clip)
	if st != entities.StatOK {
		return 0, st
	}
	premult, _ := c.Props.GetString(entities.ImageEffectPropPreMultiplication, 0)
	bounds := b.Image.Bounds
	props := entities.NewPropertySet("image "+c.Name,
		entities.Prop(entities.PropType, entities.String(entities.TypeImage)),
		entities.Prop(entities.ImageEffectPropPixelDepth, entities.String(entities.BitDepthFloat)),
		entities.Prop(entities.ImageEffectPropComponents, entities.String(entities.ImageComponentRGBA)),
		entities.Prop(entities.ImageEffectPropPreMultiplication, entities.String(premult)),
		entities.Prop(entities.ImageEffectPropRenderScale, entities.Double(1), entities.Double(1)),
		entities.Prop(entities.ImagePropPixelAspectRatio, entities.Double(1)),
		entities.Prop(entities.ImagePropData, entities.Pointer(b.Data)),
		entities.Prop(entities.ImagePropBounds, bounds.Values()...),
		entities.Prop(entities.ImagePropRegionOfDefinition, bounds.Values()...),
		entities.Prop(entities.ImagePropRowBytes, entities.Int(int32(b.Image.RowBytes()))),
		entities.Prop(entities.ImagePropField, entities.String(entities.ImageFieldNone)),
		entities.Prop(entities.ImagePropUniqueIdentifier, entities.String(uuid.NewString())),
	)
	return e.s.state.Handles.RegisterNew(handles.KindImage, props, effect), entities.StatOK
}

// ClipReleaseImage gives back an image handle.
func (e *ImageEffectSuite) ClipReleaseImage(image Handle) entities.Status {
	if e.s.state.Handles.KindOf(image) != handles.KindImage {
		return entities.StatErrBadHandle
	}
	e.s.state.Handles.Release(image)
	return entities.StatOK
}

// ClipGetRegionOfDefinition returns the clip's region of definition
// override, else the bounds of the bound image, else the project extent.
func (e *ImageEffectSuite) ClipGetRegionOfDefinition(clip Handle, time float64) (entities.RectD, entities.Status) {
	c, st := e.clip(clip)
	if st != entities.StatOK {
		return entities.RectD{}, st
	}
	if c.RegionOfDefinition != nil {
		return *c.RegionOfDefinition, entities.StatOK
	}
	if b, ok := e.s.bindings[c]; ok && b.Image != nil {
		return b.Image.Bounds.Double(), entities.StatOK
	}
	eff, _, st := e.s.effectOf(clip)
	if st != entities.StatOK {
		return entities.RectD{}, st
	}
	w, st1 := eff.Props.GetDouble(entities.ImageEffectPropProjectExtent, 0)
	h, st2 := eff.Props.GetDouble(entities.ImageEffectPropProjectExtent, 1)
	if st1 != entities.StatOK || st2 != entities.StatOK {
		return entities.RectD{}, entities.StatFailed
	}
	return entities.RectD{X2: w, Y2: h}, entities.StatOK
}

// Abort always reports false. Renders are never cancelled.
func (e *ImageEffectSuite) Abort(effect Handle) bool {
	return false
}

// ImageMemoryAlloc allocates a buffer in plugin memory. effect may be null.
func (e *ImageEffectSuite) ImageMemoryAlloc(ctx context.Context, effect Handle, nBytes uint32) (Handle, entities.Status) {
	if effect != 0 {
		if _, st := e.effect(effect); st != entities.StatOK {
			return 0, st
		}
	}
	if nBytes == 0 {
		return 0, entities.StatErrMemory
	}
	ptr, err := e.s.alloc.Allocate(ctx, nBytes)
	if err != nil {
		e.s.logger().DebugContext(ctx, "imageMemoryAlloc failed", "bytes", nBytes, "error", err)
		return 0, entities.StatErrMemory
	}
	m := &imageMemory{ptr: ptr, size: nBytes}
	e.s.blocks[ptr] = block{owner: effect, image: true}
	return e.s.state.Handles.RegisterNew(handles.KindMemory, m, effect), entities.StatOK
}

func (e *ImageEffectSuite) memory(h Handle) (*imageMemory, entities.Status) {
	return handles.Resolve[*imageMemory](e.s.state.Handles, h, handles.KindMemory)
}

// ImageMemoryFree releases a buffer from ImageMemoryAlloc.
func (e *ImageEffectSuite) ImageMemoryFree(ctx context.Context, mem Handle) entities.Status {
	m, st := e.memory(mem)
	if st != entities.StatOK {
		return st
	}
	e.s.state.Handles.Release(mem)
	delete(e.s.blocks, m.ptr)
	if err := e.s.alloc.Free(ctx, m.ptr); err != nil {
		return entities.StatErrBadHandle
	}
	return entities.StatOK
}

// ImageMemoryLock returns the address of a buffer.
func (e *ImageEffectSuite) ImageMemoryLock(mem Handle) (uint32, entities.Status) {
	m, st := e.memory(mem)
	if st != entities.StatOK {
		return 0, st
	}
	m.locks++
	return m.ptr, entities.StatOK
}

// ImageMemoryUnlock undoes one ImageMemoryLock.
func (e *ImageEffectSuite) ImageMemoryUnlock(mem Handle) entities.Status {
	m, st := e.memory(mem)
	if st != entities.StatOK {
		return st
	}
	if m.locks > 0 {
		m.locks--
	}
	return entities.StatOK
}
