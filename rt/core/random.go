package core

import (
	"math/rand/v2"

	"github.com/go-gl/mathgl/mgl32"
)

// Random is an explicitly owned generator. Each emitter holds its own so
// that a seed fully determines its particle stream.
type Random struct {
	seed uint64
	rng  *rand.Rand
}

func NewRandom(seed uint64) *Random {
	return &Random{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (r *Random) Seed() uint64 { return r.seed }

// Float32 returns a value in [0,1).
func (r *Random) Float32() float32 {
	return r.rng.Float32()
}

// Range returns a value in [min,max). An empty or inverted range yields min.
func (r *Random) Range(min, max float32) float32 {
	if min >= max {
		return min
	}
	return min + (max-min)*r.rng.Float32()
}

// RangeVec3 samples each axis independently.
func (r *Random) RangeVec3(min, max mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{
		r.Range(min.X(), max.X()),
		r.Range(min.Y(), max.Y()),
		r.Range(min.Z(), max.Z()),
	}
}

// Child derives an independent generator, e.g. one per emitter of a scene.
func (r *Random) Child() *Random {
	return NewRandom(r.rng.Uint64())
}
