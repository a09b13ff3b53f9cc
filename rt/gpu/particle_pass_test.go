package gpu

import (
	"testing"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/sparks/rt/core"
	"github.com/gekko3d/sparks/rt/sim"
	"github.com/stretchr/testify/assert"
)

func TestLayoutsMatchShaders(t *testing.T) {
	// struct Camera { mat4, mat4, vec4 }
	assert.Equal(t, uint64(144), cameraUniformSize)

	assert.Equal(t, uintptr(36), unsafe.Sizeof(core.ParticleInstance{}))
	assert.Equal(t, uintptr(12), unsafe.Offsetof(core.ParticleInstance{}.Size))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(core.ParticleInstance{}.Color))
	assert.Equal(t, uintptr(32), unsafe.Offsetof(core.ParticleInstance{}.Rotation))

	assert.Equal(t, uintptr(36), unsafe.Sizeof(core.BillboardVertex{}))
	assert.Equal(t, uintptr(12), unsafe.Offsetof(core.BillboardVertex{}.UV))
	assert.Equal(t, uintptr(20), unsafe.Offsetof(core.BillboardVertex{}.Color))
}

func TestBlendStates(t *testing.T) {
	additive := blendState(sim.BlendAdditive)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, additive.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOne, additive.Color.DstFactor)

	alpha := blendState(sim.BlendAlpha)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, alpha.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, alpha.Color.DstFactor)

	assert.Equal(t, alpha, blendState("unknown"))
}
