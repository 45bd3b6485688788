package host

import (
	"strconv"
	"strings"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

// HostName is the OfxPropName of this host.
const HostName = "openfx-driver"

// NewHostProperties returns the host property set advertised to plugins:
// Filter context only, float RGBA only, no tiles, overlays or animation.
func NewHostProperties(version string) *entities.PropertySet {
	no := entities.Bool(false)
	return entities.NewPropertySet("host",
		entities.Prop(entities.PropType, entities.String(entities.TypeImageEffectHost)),
		entities.Prop(entities.PropName, entities.String(HostName)),
		entities.Prop(entities.PropLabel, entities.String("OpenFX Driver")),
		entities.Prop(entities.PropVersion, versionValues(version)...),
		entities.Prop(entities.PropVersionLabel, entities.String(version)),
		entities.Prop(entities.PropAPIVersion, entities.Int(1), entities.Int(4)),
		entities.Prop(entities.HostPropIsBackground, no),
		entities.Prop(entities.ImageEffectPropSupportsOverlays, no),
		entities.Prop(entities.ImageEffectPropSupportsMultiResolution, no),
		entities.Prop(entities.ImageEffectPropSupportsTiles, no),
		entities.Prop(entities.ImageEffectPropTemporalClipAccess, no),
		entities.Prop(entities.ImageEffectPropSupportsMultipleClipDepths, no),
		entities.Prop(entities.ImageEffectPropSupportsMultipleClipPARs, no),
		entities.Prop(entities.ImageEffectPropSetableFrameRate, no),
		entities.Prop(entities.ImageEffectPropSetableFielding, no),
		entities.Prop(entities.ImageEffectInstancePropSequentialRender, no),
		entities.Prop(entities.ParamHostPropSupportsStringAnimation, no),
		entities.Prop(entities.ParamHostPropSupportsCustomInteract, no),
		entities.Prop(entities.ParamHostPropSupportsChoiceAnimation, no),
		entities.Prop(entities.ParamHostPropSupportsStrChoiceAnimation, no),
		entities.Prop(entities.ParamHostPropSupportsBooleanAnimation, no),
		entities.Prop(entities.ParamHostPropSupportsCustomAnimation, no),
		entities.Prop(entities.ParamHostPropSupportsParametricAnimation, no),
		// GPU render extensions are queried as "true"/"false" strings.
		entities.Prop(entities.ImageEffectPropOpenCLRenderSupported, entities.String("false")),
		entities.Prop(entities.ImageEffectPropCudaRenderSupported, entities.String("false")),
		entities.Prop(entities.ImageEffectPropCudaStreamSupported, entities.String("false")),
		entities.Prop(entities.ImageEffectPropMetalRenderSupported, entities.String("false")),
		entities.Prop(entities.ImageEffectPropRenderQualityDraft, no),
		entities.Prop(entities.ParamHostPropMaxParameters, entities.Int(-1)),
		entities.Prop(entities.ParamHostPropMaxPages, entities.Int(0)),
		entities.Prop(entities.ParamHostPropPageRowColumnCount, entities.Int(0), entities.Int(0)),
		entities.Prop(entities.ImageEffectPropSupportedComponents, entities.String(entities.ImageComponentRGBA)),
		entities.Prop(entities.ImageEffectPropSupportedContexts, entities.String(entities.ImageEffectContextFilter)),
		entities.Prop(entities.ImageEffectPropSupportedPixelDepths, entities.String(entities.BitDepthFloat)),
	)
}

// versionValues splits "1.2.3" into Int values. Non-numeric components,
// such as a "-dev" suffix, stop the split.
func versionValues(version string) []entities.Value {
	var out []entities.Value
	for _, part := range strings.Split(version, ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out = append(out, entities.Int(int32(n)))
	}
	if len(out) == 0 {
		out = append(out, entities.Int(0))
	}
	return out
}
