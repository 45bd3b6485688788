package builtin

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/ports"
	"github.com/ofxdriver/ofxdriver/hostfuncs"
)

type handle = ports.Handle

type pixel = [entities.ImageComponents]float32

// paramSpec declares one parameter of a filter.
type paramSpec struct {
	name string
	typ  entities.ParamType
	def  entities.Value
	hint string
}

// filter is a per-pixel image effect.
type filter struct {
	id     string
	label  string
	params []paramSpec
	// prepare runs once per render, before any pixel is touched, and
	// returns the pixel function. A nil function copies rows unchanged.
	prepare func(r *renderCall) (func(pixel) pixel, entities.Status)
}

// Plugin adapts a filter to the plugin entry points.
type Plugin struct {
	filter *filter
	mem    ports.Memory

	props   *hostfuncs.PropertySuite
	params  *hostfuncs.ParameterSuite
	effects *hostfuncs.ImageEffectSuite
	msg     *hostfuncs.MessageSuite
}

// API implements ports.Plugin.
func (p *Plugin) API() string { return entities.ImageEffectPluginAPI }

// APIVersion implements ports.Plugin.
func (p *Plugin) APIVersion() int { return entities.ImageEffectPluginAPIVersion }

// Identifier implements ports.Plugin.
func (p *Plugin) Identifier() string { return p.filter.id }

// Version implements ports.Plugin.
func (p *Plugin) Version() (uint32, uint32) { return 1, 0 }

// SetHost fetches every suite the plugin needs.
func (p *Plugin) SetHost(_ context.Context, host ports.Host) error {
	var ok bool
	if p.props, ok = host.FetchSuite(entities.PropertySuite, 1).(*hostfuncs.PropertySuite); !ok {
		return fmt.Errorf("host does not provide %s", entities.PropertySuite)
	}
	if p.params, ok = host.FetchSuite(entities.ParameterSuite, 1).(*hostfuncs.ParameterSuite); !ok {
		return fmt.Errorf("host does not provide %s", entities.ParameterSuite)
	}
	if p.effects, ok = host.FetchSuite(entities.ImageEffectSuite, 1).(*hostfuncs.ImageEffectSuite); !ok {
		return fmt.Errorf("host does not provide %s", entities.ImageEffectSuite)
	}
	if p.msg, ok = host.FetchSuite(entities.MessageSuite, 1).(*hostfuncs.MessageSuite); !ok {
		return fmt.Errorf("host does not provide %s", entities.MessageSuite)
	}
	return nil
}

// MainEntry implements ports.Plugin.
func (p *Plugin) MainEntry(ctx context.Context, action string, effect, inArgs, _ handle) (entities.Status, error) {
	if p.props == nil {
		return entities.StatErrMissingHostFeature, nil
	}
	switch action {
	case entities.ActionLoad, entities.ActionUnload,
		entities.ActionCreateInstance, entities.ActionDestroyInstance:
		return entities.StatOK, nil
	case entities.ActionDescribe:
		return p.describe(effect), nil
	case entities.ActionDescribeInContext:
		return p.describeInContext(effect, inArgs), nil
	case entities.ActionInstanceChanged:
		return p.instanceChanged(ctx, effect, inArgs), nil
	case entities.ActionRender:
		return p.render(ctx, effect, inArgs), nil
	}
	return entities.StatReplyDefault, nil
}

func firstFailure(sts ...entities.Status) entities.Status {
	for _, st := range sts {
		if st != entities.StatOK {
			return st
		}
	}
	return entities.StatOK
}

func (p *Plugin) describe(effect handle) entities.Status {
	ph, st := p.effects.GetPropertySet(effect)
	if st != entities.StatOK {
		return st
	}
	return firstFailure(
		p.props.SetString(ph, entities.PropLabel, 0, []byte(p.filter.label)),
		p.props.SetString(ph, entities.ImageEffectPropSupportedContexts, 0, []byte(entities.ImageEffectContextFilter)),
		p.props.SetString(ph, entities.ImageEffectPropSupportedPixelDepths, 0, []byte(entities.BitDepthFloat)),
	)
}

func (p *Plugin) describeInContext(effect, inArgs handle) entities.Status {
	ctxName, st := p.props.GetString(inArgs, entities.ImageEffectPropContext, 0)
	if st != entities.StatOK {
		return st
	}
	if string(ctxName) != entities.ImageEffectContextFilter {
		return entities.StatErrUnsupported
	}
	for _, clip := range []string{entities.ClipSource, entities.ClipOutput} {
		if _, st := p.effects.ClipDefine(effect, clip); st != entities.StatOK {
			return st
		}
	}
	set, st := p.effects.GetParamSet(effect)
	if st != entities.StatOK {
		return st
	}
	for _, spec := range p.filter.params {
		ph, st := p.params.Define(set, string(spec.typ), spec.name)
		if st != entities.StatOK {
			return st
		}
		if st := p.setDefault(ph, spec.def); st != entities.StatOK {
			return st
		}
		if spec.hint != "" {
			if st := p.props.SetString(ph, entities.ParamPropHint, 0, []byte(spec.hint)); st != entities.StatOK {
				return st
			}
		}
	}
	return entities.StatOK
}

func (p *Plugin) setDefault(ph handle, v entities.Value) entities.Status {
	switch v := v.(type) {
	case entities.Int:
		return p.props.SetInt(ph, entities.ParamPropDefault, 0, int32(v))
	case entities.Double:
		return p.props.SetDouble(ph, entities.ParamPropDefault, 0, float64(v))
	case entities.Bytes:
		return p.props.SetString(ph, entities.ParamPropDefault, 0, v)
	}
	return entities.StatOK
}

// instanceChanged logs the new value of a user-edited parameter.
func (p *Plugin) instanceChanged(ctx context.Context, effect, inArgs handle) entities.Status {
	kind, st := p.props.GetString(inArgs, entities.PropType, 0)
	if st != entities.StatOK || string(kind) != entities.TypeParameter {
		return entities.StatReplyDefault
	}
	name, st := p.props.GetString(inArgs, entities.PropName, 0)
	if st != entities.StatOK {
		return st
	}
	set, st := p.effects.GetParamSet(effect)
	if st != entities.StatOK {
		return st
	}
	ph, _, st := p.params.GetHandle(set, string(name))
	if st != entities.StatOK {
		return st
	}
	v, st := p.params.GetValue(ph)
	if st != entities.StatOK {
		return st
	}
	p.msg.Message(ctx, effect, entities.MessageLog, p.filter.id+".changed", "%s = %v", name, v)
	return entities.StatOK
}

// renderCall is the state of one Render action.
type renderCall struct {
	ctx    context.Context
	plugin *Plugin
	effect handle
	set    handle
}

func (r *renderCall) paramValue(name string) (entities.ParamValue, entities.Status) {
	ph, _, st := r.plugin.params.GetHandle(r.set, name)
	if st != entities.StatOK {
		return nil, st
	}
	return r.plugin.params.GetValue(ph)
}

func (r *renderCall) double(name string) (float64, entities.Status) {
	v, st := r.paramValue(name)
	if st != entities.StatOK {
		return 0, st
	}
	d, ok := v.(entities.DoubleValue)
	if !ok {
		return 0, entities.StatErrValue
	}
	return float64(d), entities.StatOK
}

func (r *renderCall) boolean(name string) (bool, entities.Status) {
	v, st := r.paramValue(name)
	if st != entities.StatOK {
		return false, st
	}
	b, ok := v.(entities.BooleanValue)
	if !ok {
		return false, entities.StatErrValue
	}
	return bool(b), entities.StatOK
}

func (r *renderCall) ask(id, format string, args ...any) entities.Status {
	return r.plugin.msg.Message(r.ctx, r.effect, entities.MessageQuestion, id, format, args...)
}

// view is an image as a plugin sees it through its property set.
type view struct {
	data     uint32
	rowBytes int
	bounds   entities.RectI
}

func (p *Plugin) fetchImage(effect handle, clipName string) (handle, view, entities.Status) {
	clip, _, st := p.effects.ClipGetHandle(effect, clipName)
	if st != entities.StatOK {
		return 0, view{}, st
	}
	img, st := p.effects.ClipGetImage(clip, 0, nil)
	if st != entities.StatOK {
		return 0, view{}, st
	}
	data, st1 := p.props.GetPointer(img, entities.ImagePropData, 0)
	rowBytes, st2 := p.props.GetInt(img, entities.ImagePropRowBytes, 0)
	b, st3 := p.props.GetIntN(img, entities.ImagePropBounds, 4)
	if st := firstFailure(st1, st2, st3); st != entities.StatOK {
		p.effects.ClipReleaseImage(img)
		return 0, view{}, st
	}
	return img, view{
		data:     uint32(data),
		rowBytes: int(rowBytes),
		bounds:   entities.RectI{X1: b[0], Y1: b[1], X2: b[2], Y2: b[3]},
	}, entities.StatOK
}

func (v view) offset(x, y int32) uint32 {
	return v.data + uint32(int(y-v.bounds.Y1)*v.rowBytes) + uint32(x-v.bounds.X1)*entities.BytesPerPixel
}

func (p *Plugin) render(ctx context.Context, effect, inArgs handle) entities.Status {
	w, st := p.props.GetIntN(inArgs, entities.ImageEffectPropRenderWindow, 4)
	if st != entities.StatOK {
		return st
	}
	set, st := p.effects.GetParamSet(effect)
	if st != entities.StatOK {
		return st
	}

	srcImg, src, st := p.fetchImage(effect, entities.ClipSource)
	if st != entities.StatOK {
		return st
	}
	defer p.effects.ClipReleaseImage(srcImg)
	dstImg, dst, st := p.fetchImage(effect, entities.ClipOutput)
	if st != entities.StatOK {
		return st
	}
	defer p.effects.ClipReleaseImage(dstImg)

	var fn func(pixel) pixel
	if p.filter.prepare != nil {
		r := &renderCall{ctx: ctx, plugin: p, effect: effect, set: set}
		if fn, st = p.filter.prepare(r); st != entities.StatOK {
			return st
		}
	}

	window := entities.RectI{X1: w[0], Y1: w[1], X2: w[2], Y2: w[3]}.Crop(src.bounds).Crop(dst.bounds)
	if window.Empty() {
		return entities.StatOK
	}
	rowLen := uint32(window.Width() * entities.BytesPerPixel)
	for y := window.Y1; y < window.Y2; y++ {
		row, ok := p.mem.Read(src.offset(window.X1, y), rowLen)
		if !ok {
			return entities.StatErrBadIndex
		}
		out := make([]byte, rowLen)
		if fn == nil {
			copy(out, row)
		} else {
			for i := 0; i < len(out); i += entities.BytesPerPixel {
				px := fn(decodePixel(row[i:]))
				encodePixel(out[i:], px)
			}
		}
		if !p.mem.Write(dst.offset(window.X1, y), out) {
			return entities.StatErrBadIndex
		}
	}
	return entities.StatOK
}

func decodePixel(b []byte) pixel {
	var px pixel
	for c := range px {
		px[c] = math.Float32frombits(binary.LittleEndian.Uint32(b[c*entities.BytesPerComponent:]))
	}
	return px
}

func encodePixel(b []byte, px pixel) {
	for c, v := range px {
		binary.LittleEndian.PutUint32(b[c*entities.BytesPerComponent:], math.Float32bits(v))
	}
}
