package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofxdriver/ofxdriver/domain/entities"
	"github.com/ofxdriver/ofxdriver/domain/errors"
	"github.com/ofxdriver/ofxdriver/host"
	"github.com/ofxdriver/ofxdriver/internal/testutil"
)

func TestLoader_LoadCommands(t *testing.T) {
	loader := host.NewLoader()

	cmds, err := loader.LoadCommands([]byte(`[
		{"type":"CreatePlugin","bundle_name":"gain.ofx","plugin_name":"net.example.gain"},
		{"type":"SetParams","instance_name":"g","values":[["gain",{"type":"Double","v":0.25}],["label",{"type":"String","v":[104,105]}]]}
	]`), nil)

	require.NoError(t, err)
	require.Len(t, cmds, 2)
	assert.Equal(t, &entities.CreatePlugin{
		Type:       entities.CmdCreatePlugin,
		BundleName: "gain.ofx",
		PluginName: "net.example.gain",
	}, cmds[0])
	sp, ok := cmds[1].(*entities.SetParams)
	require.True(t, ok)
	require.Len(t, sp.Values, 2)
	assert.Equal(t, entities.DoubleValue(0.25), sp.Values[0].Value)
	assert.Equal(t, entities.StringValue("hi"), sp.Values[1].Value)
}

func TestLoader_RendersVariables(t *testing.T) {
	loader := host.NewLoader()

	cmds, err := loader.LoadCommands([]byte(`[
		{"type":"RenderFilter","instance_name":"{{.vars.instance}}","input_file":{{json .vars.input}},"output_file":"out.pfm"}
	]`), map[string]any{"instance": "inst1", "input": `frames/"a".pfm`})

	require.NoError(t, err)
	require.Len(t, cmds, 1)
	rf := cmds[0].(*entities.RenderFilter)
	assert.Equal(t, "inst1", rf.InstanceName)
	assert.Equal(t, `frames/"a".pfm`, rf.InputFile)
}

func TestLoader_MissingVariable(t *testing.T) {
	_, err := host.NewLoader().LoadCommands([]byte(`[{"type":"DestroyInstance","instance_name":"{{.vars.name}}"}]`), nil)

	ve := testutil.RequireErrorAs[*errors.ValidationError](t, err)
	assert.Contains(t, ve.Error(), "failed to render command file")
}

func TestLoader_LenientTemplates(t *testing.T) {
	loader := host.NewLoader(host.WithStrictTemplates(false))

	cmds, err := loader.LoadCommands([]byte(`[{"type":"DestroyInstance","instance_name":"{{.vars.name}}"}]`), nil)

	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "<no value>", cmds[0].(*entities.DestroyInstance).InstanceName)
}

func TestLoader_ReportsEveryInvalidEntry(t *testing.T) {
	_, err := host.NewLoader().LoadCommands([]byte(`[
		{"type":"CreatePlugin","bundle_name":"a.ofx","plugin_name":"x"},
		{"type":"Explode"},
		{"type":"RenderFilter","instance_name":"i"},
		{"type":"ConfigureMessageSuiteResponses","instance_name":"i","responses":["Maybe"]}
	]`), nil)

	ve := testutil.RequireErrorAs[*errors.ValidationError](t, err)
	msg := ve.Error()
	assert.Contains(t, msg, "command file validation failed")
	assert.NotContains(t, msg, "- [0]:")
	assert.Contains(t, msg, `[1]: unknown command type "Explode"`)
	assert.Contains(t, msg, "[2]:")
	assert.Contains(t, msg, "[3]:")
}

func TestLoader_NotAnArray(t *testing.T) {
	for name, raw := range map[string]string{
		"object":   `{"type":"CreatePlugin"}`,
		"garbage":  `[{`,
		"no type":  `[{"bundle_name":"a"}]`,
		"bad type": `[{"type":7}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := host.NewLoader().LoadCommands([]byte(raw), nil)
			testutil.RequireErrorAs[*errors.ValidationError](t, err)
		})
	}
}

func TestLoader_RenderLayoutAndRegionCommands(t *testing.T) {
	cmds, err := host.NewLoader().LoadCommands([]byte(`[
		{"type":"RenderFilter","instance_name":"i","input_file":"in.exr","output_file":"out.exr",
		 "layout":{"project_dims":[8,6],"render_window":{"x1":1,"y1":1,"x2":5,"y2":4},"rowbytes":256,"crop_inputs_to_roi":true}},
		{"type":"PrintRoIs","instance_name":"i","region_of_interest":{"x1":0,"y1":0,"x2":4,"y2":4},"project_extent":[8,6]},
		{"type":"PrintRoD","instance_name":"i","input_rod":{"x1":-1,"y1":-1,"x2":9,"y2":7},"project_extent":[8,6]}
	]`), nil)

	require.NoError(t, err)
	require.Len(t, cmds, 3)
	rf := cmds[0].(*entities.RenderFilter)
	require.NotNil(t, rf.Layout)
	assert.Equal(t, entities.RenderLayout{
		ProjectDims:     [2]float64{8, 6},
		RenderWindow:    &entities.RectI{X1: 1, Y1: 1, X2: 5, Y2: 4},
		RowBytes:        256,
		CropInputsToRoI: true,
	}, *rf.Layout)
	assert.Equal(t, entities.RectD{X2: 4, Y2: 4}, cmds[1].(*entities.PrintRoIs).RegionOfInterest)
	assert.Equal(t, entities.RectD{X1: -1, Y1: -1, X2: 9, Y2: 7}, cmds[2].(*entities.PrintRoD).InputRoD)
}

func TestLoader_RejectsBadLayout(t *testing.T) {
	for name, layout := range map[string]string{
		"zero project width": `{"project_dims":[0,6]}`,
		"negative rowbytes":  `{"project_dims":[8,6],"rowbytes":-4}`,
		"huge rowbytes":      `{"project_dims":[8,6],"rowbytes":33554432}`,
	} {
		t.Run(name, func(t *testing.T) {
			raw := `[{"type":"RenderFilter","instance_name":"i","input_file":"a","output_file":"b","layout":` + layout + `}]`
			_, err := host.NewLoader().LoadCommands([]byte(raw), nil)
			testutil.RequireErrorAs[*errors.ValidationError](t, err)
		})
	}
}
