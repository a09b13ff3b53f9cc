package sim

import (
	"github.com/aquilax/go-perlin"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	noiseAlpha   = 2.0
	noiseBeta    = 2.0
	noiseOctaves = 3
)

// noiseField is a coherent vector field built from three decorrelated
// perlin lookups.
type noiseField struct {
	p *perlin.Perlin
}

func newNoiseField(seed int64) *noiseField {
	return &noiseField{p: perlin.NewPerlin(noiseAlpha, noiseBeta, noiseOctaves, seed)}
}

// Direction returns a unit vector, or zero where the field vanishes.
func (n *noiseField) Direction(pos mgl32.Vec3, scale, phase float32) mgl32.Vec3 {
	x := float64(pos.X() * scale)
	y := float64(pos.Y() * scale)
	z := float64(pos.Z()*scale + phase)
	v := mgl32.Vec3{
		float32(n.p.Noise3D(x, y, z)),
		float32(n.p.Noise3D(x+31.7, y-12.9, z+7.3)),
		float32(n.p.Noise3D(x-5.1, y+47.2, z-23.8)),
	}
	l := v.Len()
	if l <= 1e-6 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}
