package core

import "github.com/go-gl/mathgl/mgl32"

// Particle is the simulation state of one particle. It lives by value inside
// its emitter's slice and is never shared.
type Particle struct {
	Position mgl32.Vec3
	Velocity mgl32.Vec3

	Color      mgl32.Vec4
	StartColor mgl32.Vec4 // sampled at spawn, interpolation origin
	Size       float32
	StartSize  float32 // sampled at spawn, interpolation origin

	Rotation        float32 // degrees
	AngularVelocity float32 // degrees/sec

	LifeRemaining float32
	TotalLife     float32
}

// LifeRatio returns the normalized age in [0,1].
func (p *Particle) LifeRatio() float32 {
	if p.TotalLife <= 0 {
		return 1
	}
	r := 1 - p.LifeRemaining/p.TotalLife
	if r < 0 {
		return 0
	}
	if r > 1 {
		return 1
	}
	return r
}

// ParticleInstance matches the instance layout in particle_points.wgsl
// struct Instance { pos: vec3f, size: f32, color: vec4f, rotation: f32 }
type ParticleInstance struct {
	Pos      [3]float32
	Size     float32
	Color    [4]float32
	Rotation float32 // radians
}

// BillboardVertex matches the vertex layout in particle_billboard.wgsl.
// pos(3) + uv(2) + color(4)
type BillboardVertex struct {
	Pos   [3]float32
	UV    [2]float32
	Color [4]float32
}

// VerticesPerBillboard is the vertex count of one camera-facing quad (two triangles).
const VerticesPerBillboard = 6
