package template_test

import (
	"testing"

	"github.com/ofxdriver/ofxdriver/application/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoTemplateEngine_Render(t *testing.T) {
	engine := template.NewGoTemplateEngine()

	t.Run("Successful Resolution", func(t *testing.T) {
		raw := []byte(`[{"type":"RenderFilter","instance_name":"i","input_file":"{{.vars.input}}","output_file":"out.pfm"}]`)
		vars := map[string]any{
			"input": "frames/in.pfm",
		}

		out, err := engine.Render(raw, vars)
		require.NoError(t, err)
		assert.Contains(t, string(out), `"input_file":"frames/in.pfm"`)
	})

	t.Run("JSON Quoting", func(t *testing.T) {
		raw := []byte(`{"input_file":{{json .vars.input}}}`)
		vars := map[string]any{
			"input": `dir "a"/in.pfm`,
		}

		out, err := engine.Render(raw, vars)
		require.NoError(t, err)
		assert.Equal(t, `{"input_file":"dir \"a\"/in.pfm"}`, string(out))
	})

	t.Run("Missing Key Fails", func(t *testing.T) {
		raw := []byte(`"{{.vars.missing}}"`)

		_, err := engine.Render(raw, map[string]any{"input": "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "map has no entry for key")
	})

	t.Run("Missing Key Lenient", func(t *testing.T) {
		lenient := template.NewGoTemplateEngine(template.WithStrict(false))
		out, err := lenient.Render([]byte(`"{{.vars.missing}}"`), nil)
		require.NoError(t, err)
		assert.Equal(t, `"<no value>"`, string(out))
	})

	t.Run("Plain Script Unchanged", func(t *testing.T) {
		raw := []byte(`[{"type":"ListPlugins","bundle_name":"invert.ofx"}]`)
		out, err := engine.Render(raw, nil)
		require.NoError(t, err)
		assert.Equal(t, raw, out)
	})

	t.Run("Invalid Template Syntax", func(t *testing.T) {
		_, err := engine.Render([]byte(`"{{.vars.name"`), nil)
		require.Error(t, err)
	})
}
