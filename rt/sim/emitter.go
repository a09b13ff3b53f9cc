package sim

import (
	"math"

	"github.com/gekko3d/sparks/rt/assets"
	"github.com/gekko3d/sparks/rt/core"
	"github.com/go-gl/mathgl/mgl32"
)

// Stats counts what happened in the last tick and over the emitter's lifetime.
type Stats struct {
	Emitted int // spawned during the last tick
	Dropped int // emission requests refused for lack of capacity
	Expired int // removed during the last tick

	TotalEmitted uint64
	TotalDropped uint64
	TotalExpired uint64
}

// Emitter is one CPU-simulated particle system. Its configuration may be
// edited between ticks; changes take effect on the next Tick.
type Emitter struct {
	Config  EmitterConfig
	Enabled bool

	// Transform is the emitter-to-world matrix supplied by the owning scene element.
	Transform mgl32.Mat4
	// Texture is a handle into the texture arena used by billboard rendering.
	Texture assets.TextureId

	Particles []core.Particle
	Stats     Stats

	emissionTimer   float32 // fractional spawns accumulator, in seconds
	turbulenceTimer float32
	turbulencePhase float32

	rng   *core.Random
	noise *noiseField
}

// NewEmitter creates an enabled emitter at the origin. A nil rng is replaced
// by one seeded from cfg.Seed.
func NewEmitter(cfg EmitterConfig, rng *core.Random) *Emitter {
	if rng == nil {
		rng = core.NewRandom(cfg.Seed)
	}
	return &Emitter{
		Config:    cfg,
		Enabled:   true,
		Transform: mgl32.Ident4(),
		Texture:   assets.NoTexture,
		rng:       rng,
	}
}

// Reset drops all live particles and timers.
func (e *Emitter) Reset() {
	e.Particles = e.Particles[:0]
	e.emissionTimer = 0
	e.turbulenceTimer = 0
	e.turbulencePhase = 0
	e.Stats = Stats{}
}

// Origin is the emitter position in world space.
func (e *Emitter) Origin() mgl32.Vec3 {
	return e.Transform.Col(3).Vec3()
}

// WorldPosition resolves a particle position to world space.
func (e *Emitter) WorldPosition(p *core.Particle) mgl32.Vec3 {
	if e.Config.WorldSpaceParticles {
		return p.Position
	}
	return e.Transform.Mul4x1(p.Position.Vec4(1)).Vec3()
}

// Tick advances the emitter by dt seconds: emission, then integration and
// aging of every particle including the ones spawned this tick.
func (e *Emitter) Tick(dt float32) {
	e.Stats.Emitted, e.Stats.Dropped, e.Stats.Expired = 0, 0, 0
	if !e.Enabled || !(dt >= 0) {
		return
	}
	cfg := &e.Config

	capacity := cfg.MaxParticles
	if capacity < 0 {
		capacity = 0
	}
	if len(e.Particles) > capacity {
		e.Stats.Expired += len(e.Particles) - capacity
		e.Particles = e.Particles[:capacity]
	}

	requested := e.accountEmission(dt)
	spawn := requested
	if room := capacity - len(e.Particles); spawn > room {
		spawn = room
	}
	e.Stats.Emitted = spawn
	e.Stats.Dropped = requested - spawn

	origin := e.Origin()
	for i := 0; i < spawn; i++ {
		e.Particles = append(e.Particles, e.spawn(origin))
	}

	turbulence := e.advanceTurbulence(dt)
	attractor := newAttractorField(cfg.Forces.Attractor, e.Transform, !cfg.WorldSpaceParticles)
	constant := ConstantAccel(&cfg.Forces)

	i := 0
	for i < len(e.Particles) {
		p := &e.Particles[i]
		p.LifeRemaining -= dt
		if p.LifeRemaining <= 0 {
			e.killAt(i)
			e.Stats.Expired++
			continue
		}

		accel := constant.Add(attractor.accel(p.Position))
		if turbulence {
			accel = accel.Add(e.turbulenceAccel(p.Position))
		}
		p.Velocity = p.Velocity.Add(accel.Mul(dt))
		p.Position = p.Position.Add(p.Velocity.Mul(dt))
		p.Rotation += p.AngularVelocity * dt

		ratio := p.LifeRatio()
		p.Color = lerpVec4(p.StartColor, cfg.EndColor, ratio)
		p.Size = lerp(p.StartSize, p.StartSize*cfg.EndSizeFactor, ratio)
		i++
	}

	e.Stats.TotalEmitted += uint64(e.Stats.Emitted)
	e.Stats.TotalDropped += uint64(e.Stats.Dropped)
	e.Stats.TotalExpired += uint64(e.Stats.Expired)
}

// accountEmission returns how many particles are due, keeping the
// fractional remainder for the next tick.
func (e *Emitter) accountEmission(dt float32) int {
	rate := e.Config.EmissionRate
	if !(rate > 0) {
		e.emissionTimer = 0
		return 0
	}
	e.emissionTimer += dt
	n := math.Floor(float64(e.emissionTimer) * float64(rate))
	if n <= 0 {
		return 0
	}
	if n > math.MaxInt32 {
		n = math.MaxInt32
	}
	e.emissionTimer -= float32(n) / rate
	return int(n)
}

func (e *Emitter) spawn(origin mgl32.Vec3) core.Particle {
	cfg := &e.Config
	r := e.rng

	life := r.Range(cfg.LifespanMin, cfg.LifespanMax)

	spread := float32(math.Abs(float64(cfg.SpawnSpread)))
	offset := r.RangeVec3(mgl32.Vec3{-spread, -spread, -spread}, mgl32.Vec3{spread, spread, spread})
	pos := offset
	if cfg.WorldSpaceParticles {
		pos = origin.Add(offset)
	}

	vel := r.RangeVec3(cfg.VelocityMin, cfg.VelocityMax)
	size := r.Range(cfg.SizeMin, cfg.SizeMax)
	rot := r.Range(cfg.RotationMin, cfg.RotationMax)
	angular := r.Range(cfg.AngularVelocityMin, cfg.AngularVelocityMax)
	color := lerpVec4(cfg.ColorStart, cfg.ColorEnd, r.Float32())

	return core.Particle{
		Position:        pos,
		Velocity:        vel,
		Color:           color,
		StartColor:      color,
		Size:            size,
		StartSize:       size,
		Rotation:        rot,
		AngularVelocity: angular,
		LifeRemaining:   life,
		TotalLife:       life,
	}
}

// advanceTurbulence steps the turbulence timers and reports whether the
// impulse applies this tick.
func (e *Emitter) advanceTurbulence(dt float32) bool {
	t := &e.Config.Forces.Turbulence
	if !(t.Strength > 0) {
		return false
	}
	wrapped := false
	if t.Frequency > 0 {
		e.turbulencePhase += dt * t.Frequency
		e.turbulenceTimer += dt
		if period := 1 / t.Frequency; e.turbulenceTimer >= period {
			// keep the overshoot so the impulse rate matches Frequency
			e.turbulenceTimer = float32(math.Mod(float64(e.turbulenceTimer), float64(period)))
			wrapped = true
		}
	}
	if t.Gate == TurbulenceFrequency {
		return wrapped
	}
	return true
}

func (e *Emitter) turbulenceAccel(pos mgl32.Vec3) mgl32.Vec3 {
	t := &e.Config.Forces.Turbulence
	var dir mgl32.Vec3
	if t.Source == TurbulencePerlin {
		if e.noise == nil {
			e.noise = newNoiseField(int64(e.rng.Seed()))
		}
		scale := t.NoiseScale
		if scale <= 0 {
			scale = 1
		}
		dir = e.noise.Direction(pos, scale, e.turbulencePhase)
	} else {
		dir = RandomUnitVector(e.rng)
	}
	return dir.Mul(t.Strength)
}

// Swap-remove one particle
func (e *Emitter) killAt(i int) {
	last := len(e.Particles) - 1
	e.Particles[i] = e.Particles[last]
	e.Particles = e.Particles[:last]
}

func lerp(a, b, t float32) float32 { return a + (b-a)*t }

func lerpVec4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}
