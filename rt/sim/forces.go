package sim

import (
	"math"

	"github.com/gekko3d/sparks/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// ForceField collects the per-emitter force configuration. Every force is
// additive and switched off by a zero magnitude.
type ForceField struct {
	Gravity    mgl32.Vec3 `json:"gravity" yaml:"gravity"`
	Wind       mgl32.Vec3 `json:"windForce" yaml:"windForce"`
	Attractor  Attractor  `json:"attractor" yaml:"attractor"`
	Turbulence Turbulence `json:"turbulence" yaml:"turbulence"`
}

// Attractor pulls particles toward Position (Strength > 0) or pushes them
// away (Strength < 0). Position is in world space.
type Attractor struct {
	Position mgl32.Vec3 `json:"position" yaml:"position"`
	Strength float32    `json:"strength" yaml:"strength"`
	Radius   float32    `json:"radius" yaml:"radius"`
}

type TurbulenceSource string

const (
	// TurbulenceRandom draws an independent random direction per particle per tick.
	TurbulenceRandom TurbulenceSource = "random"
	// TurbulencePerlin samples a coherent noise field at the particle position.
	TurbulencePerlin TurbulenceSource = "perlin"
)

type TurbulenceGate string

const (
	// TurbulenceEveryTick applies the impulse on every tick; Frequency only
	// advances the noise phase.
	TurbulenceEveryTick TurbulenceGate = "every-tick"
	// TurbulenceFrequency applies the impulse only on ticks where the
	// 1/Frequency timer wraps.
	TurbulenceFrequency TurbulenceGate = "frequency"
)

type Turbulence struct {
	Strength   float32          `json:"strength" yaml:"strength"`
	Frequency  float32          `json:"frequency" yaml:"frequency"` // updates per second
	Source     TurbulenceSource `json:"source" yaml:"source"`
	Gate       TurbulenceGate   `json:"gate" yaml:"gate"`
	NoiseScale float32          `json:"noiseScale" yaml:"noiseScale"` // perlin only
}

// ConstantAccel is gravity plus wind.
func ConstantAccel(f *ForceField) mgl32.Vec3 {
	return f.Gravity.Add(f.Wind)
}

// AttractorAccel returns the acceleration the attractor applies at pos.
// It is zero outside the radius and at the attractor point itself.
func AttractorAccel(pos mgl32.Vec3, a Attractor) mgl32.Vec3 {
	if a.Strength == 0 || a.Radius <= 0 {
		return mgl32.Vec3{}
	}
	toAttractor := a.Position.Sub(pos)
	dist := toAttractor.Len()
	if dist >= a.Radius || dist <= 1e-6 {
		return mgl32.Vec3{}
	}
	force := a.Strength * (1 - dist/a.Radius)
	return toAttractor.Mul(force / dist)
}

// RandomUnitVector samples the [-1,1] cube and normalizes. A degenerate
// sample yields the zero vector.
func RandomUnitVector(rng *core.Random) mgl32.Vec3 {
	v := rng.RangeVec3(mgl32.Vec3{-1, -1, -1}, mgl32.Vec3{1, 1, 1})
	l := v.Len()
	if l <= 1e-6 {
		return mgl32.Vec3{}
	}
	return v.Mul(1 / l)
}

// attractorField evaluates a world-space attractor for one emitter. The
// radius test always runs on world distances; for local-space particles the
// resulting acceleration is mapped back through the inverse of the
// transform's linear part. A singular transform disables the attractor.
type attractorField struct {
	a       Attractor
	local   bool
	toWorld mgl32.Mat4
	toLocal mgl32.Mat3
}

func newAttractorField(a Attractor, emitterToWorld mgl32.Mat4, local bool) attractorField {
	f := attractorField{a: a, local: local, toWorld: emitterToWorld}
	if !local || a.Strength == 0 {
		return f
	}
	linear := emitterToWorld.Mat3()
	det := linear.Det()
	if det == 0 || math.IsNaN(float64(det)) {
		f.a.Strength = 0
		return f
	}
	f.toLocal = linear.Inv()
	return f
}

// accel returns the acceleration at pos, in the particle's own space.
func (f attractorField) accel(pos mgl32.Vec3) mgl32.Vec3 {
	if f.a.Strength == 0 {
		return mgl32.Vec3{}
	}
	if !f.local {
		return AttractorAccel(pos, f.a)
	}
	world := f.toWorld.Mul4x1(pos.Vec4(1)).Vec3()
	return f.toLocal.Mul3x1(AttractorAccel(world, f.a))
}
