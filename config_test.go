package sparks

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gekko3d/sparks/rt/render"
	"github.com/gekko3d/sparks/rt/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "points", cfg.Renderer.Representation)
	assert.Equal(t, "global", cfg.Renderer.BlendPolicy)
	assert.Equal(t, sim.BlendAlpha, cfg.Renderer.BlendMode)
	assert.Equal(t, render.MaxParticlesPerDraw, cfg.Renderer.MaxParticlesPerDraw)
	assert.Equal(t, 100*time.Millisecond, cfg.MaxFrameDt())
	assert.False(t, cfg.Telemetry.Enabled)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sparks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadOverlaysUserFile(t *testing.T) {
	path := writeConfig(t, "renderer:\n  representation: billboards\n  blend_mode: additive\nsimulation:\n  seed: 42\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "billboards", cfg.Renderer.Representation)
	assert.Equal(t, sim.BlendAdditive, cfg.Renderer.BlendMode)
	assert.Equal(t, uint64(42), cfg.Simulation.Seed)
	assert.Equal(t, 1280, cfg.Window.Width, "untouched keys keep their defaults")
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "renderer: [not, a, map]\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "renderer:\n  representation: voxels\n"))
	assert.Error(t, err)
}

func TestValidateClamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Window.Width = -5
	cfg.Renderer.MaxParticlesPerDraw = 0
	cfg.Renderer.BillboardScale = -1
	cfg.Renderer.BlendMode = "screen"
	cfg.Simulation.MaxDt = 0
	cfg.Telemetry.EveryFrames = 0

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1, cfg.Window.Width)
	assert.Equal(t, render.MaxParticlesPerDraw, cfg.Renderer.MaxParticlesPerDraw)
	assert.Equal(t, float32(0.01), cfg.Renderer.BillboardScale)
	assert.Equal(t, sim.BlendAlpha, cfg.Renderer.BlendMode)
	assert.Equal(t, 0.1, cfg.Simulation.MaxDt)
	assert.Equal(t, 1, cfg.Telemetry.EveryFrames)
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Renderer.BlendPolicy = "per-mode"
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
