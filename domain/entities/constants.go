package entities

// Plugin API implemented by this host.
const (
	ImageEffectPluginAPI        = "OfxImageEffectPluginAPI"
	ImageEffectPluginAPIVersion = 1
)

// Actions.
const (
	ActionLoad                  = "OfxActionLoad"
	ActionUnload                = "OfxActionUnload"
	ActionDescribe              = "OfxActionDescribe"
	ActionCreateInstance        = "OfxActionCreateInstance"
	ActionDestroyInstance       = "OfxActionDestroyInstance"
	ActionBeginInstanceChanged  = "OfxActionBeginInstanceChanged"
	ActionInstanceChanged       = "OfxActionInstanceChanged"
	ActionEndInstanceChanged    = "OfxActionEndInstanceChanged"
	ActionDescribeInContext     = "OfxImageEffectActionDescribeInContext"
	ActionRender                = "OfxImageEffectActionRender"
	ActionGetRegionOfDefinition = "OfxImageEffectActionGetRegionOfDefinition"
	ActionGetRegionsOfInterest  = "OfxImageEffectActionGetRegionsOfInterest"
)

// Suite names.
const (
	PropertySuite    = "OfxPropertySuite"
	ParameterSuite   = "OfxParameterSuite"
	ImageEffectSuite = "OfxImageEffectSuite"
	MemorySuite      = "OfxMemorySuite"
	MessageSuite     = "OfxMessageSuite"
	MultiThreadSuite = "OfxMultiThreadSuite"
)

// Generic properties.
const (
	PropType           = "OfxPropType"
	PropName           = "OfxPropName"
	PropLabel          = "OfxPropLabel"
	PropVersion        = "OfxPropVersion"
	PropVersionLabel   = "OfxPropVersionLabel"
	PropAPIVersion     = "OfxPropAPIVersion"
	PropTime           = "OfxPropTime"
	PropChangeReason   = "OfxPropChangeReason"
	PropInstanceData   = "OfxPropInstanceData"
	PluginPropFilePath = "OfxPluginPropFilePath"
)

// Object type tags stored in OfxPropType.
const (
	TypeImageEffectHost = "OfxTypeImageEffectHost"
	TypeImageEffect     = "OfxTypeImageEffect"
	TypeImageEffectInst = "OfxTypeImageEffectInstance"
	TypeParameter       = "OfxTypeParameter"
	TypeClip            = "OfxTypeClip"
	TypeImage           = "OfxTypeImage"
)

// Change reasons.
const (
	ChangeUserEdited   = "OfxChangeUserEdited"
	ChangePluginEdited = "OfxChangePluginEdited"
)

// Host capability properties.
const (
	HostPropIsBackground                      = "OfxImageEffectHostPropIsBackground"
	ImageEffectPropSupportsOverlays           = "OfxImageEffectPropSupportsOverlays"
	ImageEffectPropSupportsMultiResolution    = "OfxImageEffectPropSupportsMultiResolution"
	ImageEffectPropSupportsTiles              = "OfxImageEffectPropSupportsTiles"
	ImageEffectPropTemporalClipAccess         = "OfxImageEffectPropTemporalClipAccess"
	ImageEffectPropSupportsMultipleClipDepths = "OfxImageEffectPropSupportsMultipleClipDepths"
	ImageEffectPropSupportsMultipleClipPARs   = "OfxImageEffectPropSupportsMultipleClipPARs"
	ImageEffectPropSetableFrameRate           = "OfxImageEffectPropSetableFrameRate"
	ImageEffectPropSetableFielding            = "OfxImageEffectPropSetableFielding"
	ImageEffectInstancePropSequentialRender   = "OfxImageEffectInstancePropSequentialRender"
	ParamHostPropSupportsStringAnimation      = "OfxParamHostPropSupportsStringAnimation"
	ParamHostPropSupportsCustomInteract       = "OfxParamHostPropSupportsCustomInteract"
	ParamHostPropSupportsChoiceAnimation      = "OfxParamHostPropSupportsChoiceAnimation"
	ParamHostPropSupportsStrChoiceAnimation   = "OfxParamHostPropSupportsStrChoiceAnimation"
	ParamHostPropSupportsBooleanAnimation     = "OfxParamHostPropSupportsBooleanAnimation"
	ParamHostPropSupportsCustomAnimation      = "OfxParamHostPropSupportsCustomAnimation"
	ParamHostPropSupportsParametricAnimation  = "OfxParamHostPropSupportsParametricAnimation"
	ParamHostPropMaxParameters                = "OfxParamHostPropMaxParameters"
	ParamHostPropMaxPages                     = "OfxParamHostPropMaxPages"
	ParamHostPropPageRowColumnCount           = "OfxParamHostPropPageRowColumnCount"
	ImageEffectPropOpenCLRenderSupported      = "OfxImageEffectPropOpenCLRenderSupported"
	ImageEffectPropCudaRenderSupported        = "OfxImageEffectPropCudaRenderSupported"
	ImageEffectPropCudaStreamSupported        = "OfxImageEffectPropCudaStreamSupported"
	ImageEffectPropMetalRenderSupported       = "OfxImageEffectPropMetalRenderSupported"
)

// Image effect properties.
const (
	ImageEffectPropContext                 = "OfxImageEffectPropContext"
	ImageEffectPropSupportedContexts       = "OfxImageEffectPropSupportedContexts"
	ImageEffectPropSupportedPixelDepths    = "OfxImageEffectPropSupportedPixelDepths"
	ImageEffectPropSupportedComponents     = "OfxImageEffectPropSupportedComponents"
	ImageEffectPropPixelDepth              = "OfxImageEffectPropPixelDepth"
	ImageEffectPropComponents              = "OfxImageEffectPropComponents"
	ImageEffectPropPreMultiplication       = "OfxImageEffectPropPreMultiplication"
	ImageEffectPropFrameRate               = "OfxImageEffectPropFrameRate"
	ImageEffectPropFrameRange              = "OfxImageEffectPropFrameRange"
	ImageEffectPropRenderScale             = "OfxImageEffectPropRenderScale"
	ImageEffectPropRenderWindow            = "OfxImageEffectPropRenderWindow"
	ImageEffectPropFieldToRender           = "OfxImageEffectPropFieldToRender"
	ImageEffectPropRenderQualityDraft      = "OfxImageEffectPropRenderQualityDraft"
	ImageEffectPropSequentialRenderStatus  = "OfxImageEffectPropSequentialRenderStatus"
	ImageEffectPropInteractiveRenderStatus = "OfxImageEffectPropInteractiveRenderStatus"
	ImageEffectPropProjectSize             = "OfxImageEffectPropProjectSize"
	ImageEffectPropProjectOffset           = "OfxImageEffectPropProjectOffset"
	ImageEffectPropProjectExtent           = "OfxImageEffectPropProjectExtent"
	ImageEffectPropProjectPixelAspectRatio = "OfxImageEffectPropProjectPixelAspectRatio"
	ImageEffectInstancePropEffectDuration  = "OfxImageEffectInstancePropEffectDuration"
	ImageEffectPropRegionOfDefinition      = "OfxImageEffectPropRegionOfDefinition"
	ImageEffectPropRegionOfInterest        = "OfxImageEffectPropRegionOfInterest"
	ImageEffectContextFilter               = "OfxImageEffectContextFilter"
)

// Clip properties and names.
const (
	ImageClipPropConnected          = "OfxImageClipPropConnected"
	ImageClipPropOptional           = "OfxImageClipPropOptional"
	ImageClipPropUnmappedPixelDepth = "OfxImageClipPropUnmappedPixelDepth"
	ImageClipPropUnmappedComponents = "OfxImageClipPropUnmappedComponents"
	ImageClipPropRoIPrefix          = "OfxImageClipPropRoI_"
	ImagePropPixelAspectRatio       = "OfxImagePropPixelAspectRatio"
	ClipSource                      = "Source"
	ClipOutput                      = "Output"
)

// Image properties and enumerations.
const (
	ImagePropData               = "OfxImagePropData"
	ImagePropBounds             = "OfxImagePropBounds"
	ImagePropRegionOfDefinition = "OfxImagePropRegionOfDefinition"
	ImagePropRowBytes           = "OfxImagePropRowBytes"
	ImagePropField              = "OfxImagePropField"
	ImagePropUniqueIdentifier   = "OfxImagePropUniqueIdentifier"
	ImageComponentRGBA          = "OfxImageComponentRGBA"
	BitDepthFloat               = "OfxBitDepthFloat"
	ImagePreMultiplied          = "OfxImageAlphaPremultiplied"
	ImageFieldNone              = "OfxFieldNone"
)

// Parameter properties.
const (
	ParamPropType         = "OfxParamPropType"
	ParamPropDefault      = "OfxParamPropDefault"
	ParamPropHint         = "OfxParamPropHint"
	ParamPropScriptName   = "OfxParamPropScriptName"
	ParamPropChoiceOption = "OfxParamPropChoiceOption"
)

// Message types.
const (
	MessageFatal    = "OfxMessageFatal"
	MessageError    = "OfxMessageError"
	MessageMessage  = "OfxMessageMessage"
	MessageLog      = "OfxMessageLog"
	MessageQuestion = "OfxMessageQuestion"
)
