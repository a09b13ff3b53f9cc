package sim

import (
	"encoding/json"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestEmitterConfigJSONFillsDefaults(t *testing.T) {
	var cfg EmitterConfig
	require.NoError(t, json.Unmarshal([]byte(`{"emissionRate": 42, "blendMode": "additive", "forces": {"windForce": [1, 0, 0]}}`), &cfg))

	want := DefaultEmitterConfig()
	want.EmissionRate = 42
	want.BlendMode = BlendAdditive
	want.Forces.Wind = mgl32.Vec3{1, 0, 0}
	assert.Equal(t, want, cfg)
}

func TestEmitterConfigYAMLFillsDefaults(t *testing.T) {
	var cfg EmitterConfig
	require.NoError(t, yaml.Unmarshal([]byte("maxParticles: 7\nworldSpaceParticles: true\n"), &cfg))

	want := DefaultEmitterConfig()
	want.MaxParticles = 7
	want.WorldSpaceParticles = true
	assert.Equal(t, want, cfg)
}

func TestEmitterConfigJSONKeepsEveryField(t *testing.T) {
	cfg := DefaultEmitterConfig()
	cfg.Texture = "smoke.png"
	cfg.Seed = 99
	cfg.Forces.Attractor = Attractor{Position: mgl32.Vec3{1, 2, 3}, Strength: -2, Radius: 4}
	cfg.Forces.Turbulence.Source = TurbulencePerlin

	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	var back EmitterConfig
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, cfg, back)
}

func TestBlendModeNormalize(t *testing.T) {
	assert.Equal(t, BlendAdditive, BlendAdditive.Normalize())
	assert.Equal(t, BlendAlpha, BlendMode("").Normalize())
	assert.Equal(t, BlendAlpha, BlendMode("multiply").Normalize())
}
