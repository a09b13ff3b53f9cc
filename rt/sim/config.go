package sim

import (
	"encoding/json"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// BlendMode selects how an emitter's particles are composited.
type BlendMode string

const (
	// BlendAlpha is (SRC_ALPHA, ONE_MINUS_SRC_ALPHA).
	BlendAlpha BlendMode = "alpha"
	// BlendAdditive is (SRC_ALPHA, ONE).
	BlendAdditive BlendMode = "additive"
)

// Normalize maps unknown values to BlendAlpha.
func (m BlendMode) Normalize() BlendMode {
	if m == BlendAdditive {
		return BlendAdditive
	}
	return BlendAlpha
}

// EmitterConfig is the persisted part of an emitter. The particle array is
// never part of it; loading a config always starts from an empty pool.
type EmitterConfig struct {
	EmissionRate float32 `json:"emissionRate" yaml:"emissionRate"` // particles per second
	MaxParticles int     `json:"maxParticles" yaml:"maxParticles"`

	LifespanMin float32 `json:"particleLifespanMin" yaml:"particleLifespanMin"`
	LifespanMax float32 `json:"particleLifespanMax" yaml:"particleLifespanMax"`

	VelocityMin mgl32.Vec3 `json:"initialVelocityMin" yaml:"initialVelocityMin"`
	VelocityMax mgl32.Vec3 `json:"initialVelocityMax" yaml:"initialVelocityMax"`

	SizeMin       float32 `json:"initialSizeMin" yaml:"initialSizeMin"`
	SizeMax       float32 `json:"initialSizeMax" yaml:"initialSizeMax"`
	EndSizeFactor float32 `json:"endSizeFactor" yaml:"endSizeFactor"`

	RotationMin        float32 `json:"initialRotationMin" yaml:"initialRotationMin"` // degrees
	RotationMax        float32 `json:"initialRotationMax" yaml:"initialRotationMax"`
	AngularVelocityMin float32 `json:"angularVelocityMin" yaml:"angularVelocityMin"` // degrees/sec
	AngularVelocityMax float32 `json:"angularVelocityMax" yaml:"angularVelocityMax"`

	ColorStart mgl32.Vec4 `json:"initialColorStart" yaml:"initialColorStart"`
	ColorEnd   mgl32.Vec4 `json:"initialColorEnd" yaml:"initialColorEnd"`
	EndColor   mgl32.Vec4 `json:"endColor" yaml:"endColor"`

	// SpawnSpread is the half extent of the cube new particles are scattered in.
	SpawnSpread float32 `json:"spawnSpread" yaml:"spawnSpread"`

	WorldSpaceParticles bool `json:"worldSpaceParticles" yaml:"worldSpaceParticles"`

	BlendMode BlendMode `json:"blendMode" yaml:"blendMode"`
	Texture   string    `json:"texture,omitempty" yaml:"texture,omitempty"`

	// Seed of the emitter's generator. Zero lets the owner pick one.
	Seed uint64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	Forces ForceField `json:"forces" yaml:"forces"`
}

// DefaultEmitterConfig matches the editor's "New Particle Emitter".
func DefaultEmitterConfig() EmitterConfig {
	return EmitterConfig{
		EmissionRate:       10,
		MaxParticles:       100,
		LifespanMin:        1,
		LifespanMax:        3,
		VelocityMin:        mgl32.Vec3{-0.5, 1, -0.5},
		VelocityMax:        mgl32.Vec3{0.5, 2, 0.5},
		SizeMin:            250,
		SizeMax:            400,
		EndSizeFactor:      0,
		RotationMin:        0,
		RotationMax:        360,
		AngularVelocityMin: -180,
		AngularVelocityMax: 180,
		ColorStart:         mgl32.Vec4{1, 1, 1, 1},
		ColorEnd:           mgl32.Vec4{1, 1, 1, 1},
		EndColor:           mgl32.Vec4{1, 1, 1, 0},
		SpawnSpread:        0.5,
		BlendMode:          BlendAlpha,
		Forces: ForceField{
			Gravity: mgl32.Vec3{0, -0.98, 0},
			Attractor: Attractor{
				Radius: 5,
			},
			Turbulence: Turbulence{
				Frequency:  1,
				Source:     TurbulenceRandom,
				Gate:       TurbulenceEveryTick,
				NoiseScale: 0.5,
			},
		},
	}
}

// UnmarshalJSON fills fields missing from data with the defaults.
func (c *EmitterConfig) UnmarshalJSON(data []byte) error {
	type plain EmitterConfig
	p := plain(DefaultEmitterConfig())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = EmitterConfig(p)
	return nil
}

// UnmarshalYAML fills fields missing from the node with the defaults.
func (c *EmitterConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain EmitterConfig
	p := plain(DefaultEmitterConfig())
	if err := value.Decode(&p); err != nil {
		return err
	}
	*c = EmitterConfig(p)
	return nil
}
