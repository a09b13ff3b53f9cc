package sparks

import (
	"github.com/gekko3d/sparks/rt/core"
	"github.com/gekko3d/sparks/rt/sim"
	"github.com/go-gl/mathgl/mgl32"
)

// FireConfig is a fast additive plume.
func FireConfig() sim.EmitterConfig {
	cfg := sim.DefaultEmitterConfig()
	cfg.EmissionRate = 120
	cfg.MaxParticles = 400
	cfg.LifespanMin, cfg.LifespanMax = 0.6, 1.2
	cfg.VelocityMin = mgl32.Vec3{-0.3, 1.5, -0.3}
	cfg.VelocityMax = mgl32.Vec3{0.3, 3, 0.3}
	cfg.SizeMin, cfg.SizeMax = 120, 220
	cfg.ColorStart = mgl32.Vec4{1, 0.8, 0.2, 1}
	cfg.ColorEnd = mgl32.Vec4{1, 0.4, 0.05, 1}
	cfg.EndColor = mgl32.Vec4{0.6, 0.1, 0, 0}
	cfg.SpawnSpread = 0.2
	cfg.BlendMode = sim.BlendAdditive
	cfg.Forces.Gravity = mgl32.Vec3{0, 0.5, 0}
	cfg.Forces.Turbulence = sim.Turbulence{Strength: 2, Frequency: 4, Source: sim.TurbulencePerlin, Gate: sim.TurbulenceEveryTick, NoiseScale: 0.8}
	return cfg
}

// SmokeConfig is a slow, wind-blown alpha column.
func SmokeConfig() sim.EmitterConfig {
	cfg := sim.DefaultEmitterConfig()
	cfg.EmissionRate = 15
	cfg.MaxParticles = 120
	cfg.LifespanMin, cfg.LifespanMax = 3, 6
	cfg.VelocityMin = mgl32.Vec3{-0.2, 0.6, -0.2}
	cfg.VelocityMax = mgl32.Vec3{0.2, 1.2, 0.2}
	cfg.SizeMin, cfg.SizeMax = 300, 450
	cfg.EndSizeFactor = 2.5
	cfg.ColorStart = mgl32.Vec4{0.35, 0.35, 0.35, 0.6}
	cfg.ColorEnd = mgl32.Vec4{0.5, 0.5, 0.5, 0.6}
	cfg.EndColor = mgl32.Vec4{0.7, 0.7, 0.7, 0}
	cfg.WorldSpaceParticles = true
	cfg.Forces.Gravity = mgl32.Vec3{}
	cfg.Forces.Wind = mgl32.Vec3{0.4, 0, 0}
	cfg.Forces.Turbulence = sim.Turbulence{Strength: 0.6, Frequency: 2, Source: sim.TurbulenceRandom, Gate: sim.TurbulenceFrequency}
	return cfg
}

// FountainConfig throws particles up and pulls them back to a point.
func FountainConfig() sim.EmitterConfig {
	cfg := sim.DefaultEmitterConfig()
	cfg.EmissionRate = 200
	cfg.MaxParticles = 1500
	cfg.LifespanMin, cfg.LifespanMax = 2, 3
	cfg.VelocityMin = mgl32.Vec3{-1, 4, -1}
	cfg.VelocityMax = mgl32.Vec3{1, 6, 1}
	cfg.SizeMin, cfg.SizeMax = 60, 100
	cfg.EndSizeFactor = 0.5
	cfg.ColorStart = mgl32.Vec4{0.3, 0.6, 1, 1}
	cfg.ColorEnd = mgl32.Vec4{0.6, 0.9, 1, 1}
	cfg.EndColor = mgl32.Vec4{1, 1, 1, 0}
	cfg.WorldSpaceParticles = true
	cfg.Forces.Gravity = mgl32.Vec3{0, -4, 0}
	cfg.Forces.Attractor = sim.Attractor{Position: mgl32.Vec3{4, 1, 0}, Strength: 6, Radius: 3}
	return cfg
}

func at(x, y, z float32) core.Transform {
	t := core.NewTransform()
	t.Position = mgl32.Vec3{x, y, z}
	return t
}

// BuildDemoScene fills scene with a rig carrying fire and smoke, a fountain
// and a light. Returns the rig so callers can move it.
func BuildDemoScene(scene *Scene) *Element {
	rig := scene.AddEntity("rig", at(-3, 0, 0), "")
	fire := scene.AddEmitter("fire", at(0, 0, 0), FireConfig())
	smoke := scene.AddEmitter("smoke", at(0, 1.5, 0), SmokeConfig())
	scene.AddEmitter("fountain", at(3, 0, 0), FountainConfig())
	light := scene.AddLight("fire light", at(0, 0.5, 0), Light{
		Type:      LightTypePoint,
		Color:     [3]float32{1, 0.6, 0.2},
		Intensity: 4,
		Range:     6,
	})

	for _, child := range []*Element{fire, smoke, light} {
		// rig is a fresh root; linking cannot fail
		_ = scene.SetParent(child.Id, rig.Id)
	}
	scene.UpdateTransforms()
	return rig
}
