package host

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ofxdriver/ofxdriver/domain/entities"
)

func TestNewHostProperties(t *testing.T) {
	props := NewHostProperties("1.4.2")

	name, st := props.GetString(entities.PropName, 0)
	assert.Equal(t, entities.StatOK, st)
	assert.Equal(t, HostName, name)

	for i, want := range []int32{1, 4, 2} {
		v, st := props.GetInt(entities.PropVersion, i)
		assert.Equal(t, entities.StatOK, st)
		assert.Equal(t, want, v)
	}

	tiles, _ := props.GetInt(entities.ImageEffectPropSupportsTiles, 0)
	assert.Equal(t, int32(0), tiles)
	cuda, _ := props.GetString(entities.ImageEffectPropCudaRenderSupported, 0)
	assert.Equal(t, "false", cuda)
	maxParams, _ := props.GetInt(entities.ParamHostPropMaxParameters, 0)
	assert.Equal(t, int32(-1), maxParams)
	depth, _ := props.GetString(entities.ImageEffectPropSupportedPixelDepths, 0)
	assert.Equal(t, entities.BitDepthFloat, depth)
}

func TestVersionValues(t *testing.T) {
	tests := []struct {
		in   string
		want []entities.Value
	}{
		{"0.1.0", []entities.Value{entities.Int(0), entities.Int(1), entities.Int(0)}},
		{"2.3-dev", []entities.Value{entities.Int(2)}},
		{"dev", []entities.Value{entities.Int(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, versionValues(tt.in))
		})
	}
}
