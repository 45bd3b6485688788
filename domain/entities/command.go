package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// CommandType is the "type" discriminator of a command-file entry.
type CommandType string

const (
	CmdCreatePlugin                   CommandType = "CreatePlugin"
	CmdCreateFilter                   CommandType = "CreateFilter"
	CmdSetParams                      CommandType = "SetParams"
	CmdRenderFilter                   CommandType = "RenderFilter"
	CmdDestroyInstance                CommandType = "DestroyInstance"
	CmdUnloadPlugin                   CommandType = "UnloadPlugin"
	CmdListPlugins                    CommandType = "ListPlugins"
	CmdDescribe                       CommandType = "Describe"
	CmdDescribeFilter                 CommandType = "DescribeFilter"
	CmdPrintParams                    CommandType = "PrintParams"
	CmdConfigureMessageSuiteResponses CommandType = "ConfigureMessageSuiteResponses"
	CmdSetHostProperties              CommandType = "SetHostProperties"
	CmdPrintRoIs                      CommandType = "PrintRoIs"
	CmdPrintRoD                       CommandType = "PrintRoD"
)

// Command is one decoded command-file entry.
type Command interface {
	CommandType() CommandType
}

// NewCommand returns an empty command value for the given type.
func NewCommand(t CommandType) (Command, bool) {
	switch t {
	case CmdCreatePlugin:
		return &CreatePlugin{}, true
	case CmdCreateFilter:
		return &CreateFilter{}, true
	case CmdSetParams:
		return &SetParams{}, true
	case CmdRenderFilter:
		return &RenderFilter{}, true
	case CmdDestroyInstance:
		return &DestroyInstance{}, true
	case CmdUnloadPlugin:
		return &UnloadPlugin{}, true
	case CmdListPlugins:
		return &ListPlugins{}, true
	case CmdDescribe:
		return &Describe{}, true
	case CmdDescribeFilter:
		return &DescribeFilter{}, true
	case CmdPrintParams:
		return &PrintParams{}, true
	case CmdConfigureMessageSuiteResponses:
		return &ConfigureMessageSuiteResponses{}, true
	case CmdSetHostProperties:
		return &SetHostProperties{}, true
	case CmdPrintRoIs:
		return &PrintRoIs{}, true
	case CmdPrintRoD:
		return &PrintRoD{}, true
	}
	return nil, false
}

// CommandTypes lists every command type in documentation order.
func CommandTypes() []CommandType {
	return []CommandType{
		CmdCreatePlugin, CmdCreateFilter, CmdSetParams, CmdRenderFilter,
		CmdDestroyInstance, CmdUnloadPlugin, CmdListPlugins, CmdDescribe,
		CmdDescribeFilter, CmdPrintParams, CmdConfigureMessageSuiteResponses,
		CmdSetHostProperties, CmdPrintRoIs, CmdPrintRoD,
	}
}

// CreatePlugin loads a bundle if needed, then loads and describes one plugin.
type CreatePlugin struct {
	Type       CommandType `json:"type"`
	BundleName string      `json:"bundle_name" validate:"required"`
	PluginName string      `json:"plugin_name" validate:"required"`
}

// CreateFilter describes a plugin in the filter context and creates an
// instance of it.
type CreateFilter struct {
	Type         CommandType `json:"type"`
	PluginName   string      `json:"plugin_name" validate:"required"`
	InstanceName string      `json:"instance_name" validate:"required"`
}

// SetParams writes parameter values on an instance.
type SetParams struct {
	Type                CommandType       `json:"type"`
	InstanceName        string            `json:"instance_name" validate:"required"`
	Values              []ParamAssignment `json:"values" validate:"dive"`
	CallInstanceChanged bool              `json:"call_instance_changed,omitempty"`
}

// RenderFilter renders a single frame through a filter instance.
type RenderFilter struct {
	Type         CommandType   `json:"type"`
	InstanceName string        `json:"instance_name" validate:"required"`
	InputFile    string        `json:"input_file" validate:"required"`
	OutputFile   string        `json:"output_file" validate:"required"`
	Layout       *RenderLayout `json:"layout,omitempty"`
}

// MaxRowBytes bounds RenderLayout.RowBytes.
const MaxRowBytes = 1 << 24

// RenderLayout overrides the geometry RenderFilter derives from the input.
// Without a render window the output covers the plugin's region of
// definition, cropped to the project.
type RenderLayout struct {
	ProjectDims  [2]float64 `json:"project_dims" validate:"dive,gt=0"`
	RenderWindow *RectI     `json:"render_window,omitempty"`
	// RowBytes widens the output stride. Values below one row are ignored.
	RowBytes        int  `json:"rowbytes,omitempty" validate:"min=0,max=16777216"`
	CropInputsToRoI bool `json:"crop_inputs_to_roi,omitempty"`
}

// DestroyInstance destroys an effect instance.
type DestroyInstance struct {
	Type         CommandType `json:"type"`
	InstanceName string      `json:"instance_name" validate:"required"`
}

// UnloadPlugin unloads a plugin that has no live instances.
type UnloadPlugin struct {
	Type       CommandType `json:"type"`
	PluginName string      `json:"plugin_name" validate:"required"`
}

// ListPlugins prints every plugin found in a bundle.
type ListPlugins struct {
	Type       CommandType `json:"type"`
	BundleName string      `json:"bundle_name" validate:"required"`
}

// Describe creates a plugin and prints its descriptor.
type Describe struct {
	Type       CommandType `json:"type"`
	BundleName string      `json:"bundle_name" validate:"required"`
	PluginName string      `json:"plugin_name" validate:"required"`
}

// DescribeFilter creates a plugin and prints its filter-context descriptor.
type DescribeFilter struct {
	Type       CommandType `json:"type"`
	BundleName string      `json:"bundle_name" validate:"required"`
	PluginName string      `json:"plugin_name" validate:"required"`
}

// PrintParams prints the current parameter values of an instance.
type PrintParams struct {
	Type         CommandType `json:"type"`
	InstanceName string      `json:"instance_name" validate:"required"`
}

// ConfigureMessageSuiteResponses sets the replies returned to question
// messages posted by an instance, in order.
type ConfigureMessageSuiteResponses struct {
	Type         CommandType `json:"type"`
	InstanceName string      `json:"instance_name" validate:"required"`
	Responses    []string    `json:"responses" validate:"dive,oneof=OK Yes No Failed"`
}

// PrintRoIs runs the GetRegionsOfInterest action and prints the region of
// the Source clip needed to render RegionOfInterest.
type PrintRoIs struct {
	Type             CommandType `json:"type"`
	InstanceName     string      `json:"instance_name" validate:"required"`
	RegionOfInterest RectD       `json:"region_of_interest"`
	ProjectExtent    [2]float64  `json:"project_extent" validate:"dive,gt=0"`
}

// PrintRoD runs the GetRegionOfDefinition action for a Source clip with
// region InputRoD and prints the result.
type PrintRoD struct {
	Type          CommandType `json:"type"`
	InstanceName  string      `json:"instance_name" validate:"required"`
	InputRoD      RectD       `json:"input_rod"`
	ProjectExtent [2]float64  `json:"project_extent" validate:"dive,gt=0"`
}

// SetHostProperties overrides entries of the host property set.
type SetHostProperties struct {
	Type  CommandType                    `json:"type"`
	Props map[string][]HostPropertyValue `json:"props" validate:"required"`
}

func (*CreatePlugin) CommandType() CommandType    { return CmdCreatePlugin }
func (*CreateFilter) CommandType() CommandType    { return CmdCreateFilter }
func (*SetParams) CommandType() CommandType       { return CmdSetParams }
func (*RenderFilter) CommandType() CommandType    { return CmdRenderFilter }
func (*DestroyInstance) CommandType() CommandType { return CmdDestroyInstance }
func (*UnloadPlugin) CommandType() CommandType    { return CmdUnloadPlugin }
func (*ListPlugins) CommandType() CommandType     { return CmdListPlugins }
func (*Describe) CommandType() CommandType        { return CmdDescribe }
func (*DescribeFilter) CommandType() CommandType  { return CmdDescribeFilter }
func (*PrintParams) CommandType() CommandType     { return CmdPrintParams }
func (*PrintRoIs) CommandType() CommandType       { return CmdPrintRoIs }
func (*PrintRoD) CommandType() CommandType        { return CmdPrintRoD }
func (*SetHostProperties) CommandType() CommandType {
	return CmdSetHostProperties
}
func (*ConfigureMessageSuiteResponses) CommandType() CommandType {
	return CmdConfigureMessageSuiteResponses
}

// MessageResponseStatus maps a configured response name to its status.
func MessageResponseStatus(name string) (Status, bool) {
	switch name {
	case "OK":
		return StatOK, true
	case "Yes":
		return StatReplyYes, true
	case "No":
		return StatReplyNo, true
	case "Failed":
		return StatFailed, true
	}
	return 0, false
}

// ParamAssignment is one ["name", {"type": .., "v": ..}] pair of SetParams.
type ParamAssignment struct {
	Name  string `validate:"required"`
	Value ParamValue
}

// MarshalJSON encodes the pair as a two-element array.
func (a ParamAssignment) MarshalJSON() ([]byte, error) {
	name, err := json.Marshal(a.Name)
	if err != nil {
		return nil, err
	}
	value, err := MarshalParamValue(a.Value)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(name)
	buf.WriteByte(',')
	buf.Write(value)
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a two-element array.
func (a *ParamAssignment) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("parameter assignment must be [name, value], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &a.Name); err != nil {
		return fmt.Errorf("parameter name: %w", err)
	}
	v, err := UnmarshalParamValue(pair[1])
	if err != nil {
		return fmt.Errorf("parameter %q: %w", a.Name, err)
	}
	a.Value = v
	return nil
}

// HostPropertyValue is a string, integer or double in SetHostProperties.
type HostPropertyValue struct {
	Value
}

// UnmarshalJSON maps JSON strings to Bytes, integral numbers to Int and
// other numbers to Double.
func (h *HostPropertyValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		h.Value = Bytes(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("host property value must be a string or number: %w", err)
	}
	if i, err := n.Int64(); err == nil && i >= -1<<31 && i < 1<<31 {
		h.Value = Int(int32(i))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return err
	}
	h.Value = Double(f)
	return nil
}

// MarshalJSON encodes the wrapped value.
func (h HostPropertyValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Value)
}
