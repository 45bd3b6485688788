package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ofxdriver/ofxdriver/application/schema"
	"github.com/ofxdriver/ofxdriver/application/validation"
	"github.com/ofxdriver/ofxdriver/domain/entities"
	domainerrors "github.com/ofxdriver/ofxdriver/domain/errors"
)

func TestYamlManifestParser(t *testing.T) {
	p := NewYamlManifestParser()

	m, err := p.Parse([]byte(`
name: gain
executable: gain.wasm
version: "1.2"
memory_limit_pages: 512
`))
	require.NoError(t, err)
	assert.Equal(t, &entities.BundleManifest{
		Name:             "gain",
		Executable:       "gain.wasm",
		Version:          "1.2",
		MemoryLimitPages: 512,
	}, m)

	_, err = p.Parse([]byte("name: gain\nexecutible: gain.wasm\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid bundle manifest")

	_, err = p.Parse([]byte("name: [unclosed"))
	require.Error(t, err)
}

const commandFile = `[
	{"type": "CreatePlugin", "bundle_name": "gain", "plugin_name": "net.ofxdriver.gain"},
	{"type": "CreateFilter", "plugin_name": "net.ofxdriver.gain", "instance_name": "g"},
	{"type": "SetParams", "instance_name": "g", "call_instance_changed": true,
	 "values": [["gain", {"type": "Double", "v": 2}], ["label", {"type": "String", "v": "hi"}]]},
	{"type": "RenderFilter", "instance_name": "g", "input_file": "in.pfm", "output_file": "out.pfm"},
	{"type": "ConfigureMessageSuiteResponses", "instance_name": "g", "responses": ["No", "OK"]},
	{"type": "SetHostProperties", "props": {"OfxPropName": ["sample"], "OfxImageEffectHostPropIsBackground": [1]}},
	{"type": "DestroyInstance", "instance_name": "g"}
]`

func TestJSONCommandParser_Parse(t *testing.T) {
	cmds, err := NewJSONCommandParser().Parse([]byte(commandFile))
	require.NoError(t, err)
	require.Len(t, cmds, 7)

	assert.Equal(t, &entities.CreatePlugin{
		Type:       entities.CmdCreatePlugin,
		BundleName: "gain",
		PluginName: "net.ofxdriver.gain",
	}, cmds[0])

	sp, ok := cmds[2].(*entities.SetParams)
	require.True(t, ok)
	assert.True(t, sp.CallInstanceChanged)
	require.Len(t, sp.Values, 2)
	assert.Equal(t, "gain", sp.Values[0].Name)
	assert.Equal(t, entities.DoubleValue(2), sp.Values[0].Value)
	assert.Equal(t, entities.StringValue("hi"), sp.Values[1].Value)

	resp, ok := cmds[4].(*entities.ConfigureMessageSuiteResponses)
	require.True(t, ok)
	assert.Equal(t, []string{"No", "OK"}, resp.Responses)

	hp, ok := cmds[5].(*entities.SetHostProperties)
	require.True(t, ok)
	assert.Equal(t, entities.Bytes("sample"), hp.Props["OfxPropName"][0].Value)
	assert.Equal(t, entities.Int(1), hp.Props["OfxImageEffectHostPropIsBackground"][0].Value)

	assert.Equal(t, entities.CmdDestroyInstance, cmds[6].CommandType())
}

func TestJSONCommandParser_WithValidator(t *testing.T) {
	v := validation.NewCommandValidator(schema.NewCommandRegistry())
	p := NewJSONCommandParser(WithValidator(v))

	cmds, err := p.Parse([]byte(commandFile))
	require.NoError(t, err)
	assert.Len(t, cmds, 7)

	_, err = p.Parse([]byte(`[{"type":"PrintParams","instance_name":"a"},{"type":"CreatePlugin","bundle_name":"b"}]`))
	require.Error(t, err)
	var ve *domainerrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "[1]", ve.Field)
}

func TestJSONCommandParser_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"not json", `[{`, "not valid JSON"},
		{"not array", `{"type":"ListPlugins"}`, "must be a JSON array"},
		{"entry not object", `["ListPlugins"]`, "entry must be an object"},
		{"missing type", `[{"bundle_name":"x"}]`, "no string \"type\""},
		{"unknown type", `[{"type":"Explode"}]`, "unknown command type \"Explode\""},
		{"bad pair", `[{"type":"SetParams","instance_name":"i","values":[["a"]]}]`, "decoding SetParams"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONCommandParser().Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			var ve *domainerrors.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestJSONCommandParser_Empty(t *testing.T) {
	cmds, err := NewJSONCommandParser().Parse([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, cmds)
}
