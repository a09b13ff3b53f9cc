package render

import (
	"fmt"
	"math"

	"github.com/gekko3d/sparks/rt/assets"
	"github.com/gekko3d/sparks/rt/core"
	"github.com/gekko3d/sparks/rt/shaders"
	"github.com/gekko3d/sparks/rt/sim"
	"github.com/go-gl/mathgl/mgl32"
)

// MaxParticlesPerDraw is the default global cap on particles drawn per frame,
// independent of the per-emitter caps.
const MaxParticlesPerDraw = 100000

// Representation selects the vertex layout and primitive expansion.
type Representation string

const (
	// RepresentationPoints draws one instance record per particle, expanded
	// to a screen-aligned sprite in the vertex shader.
	RepresentationPoints Representation = "points"
	// RepresentationBillboards builds six textured vertices per particle on
	// the CPU, facing the camera.
	RepresentationBillboards Representation = "billboards"
)

func ParseRepresentation(s string) (Representation, error) {
	switch Representation(s) {
	case RepresentationPoints, "":
		return RepresentationPoints, nil
	case RepresentationBillboards:
		return RepresentationBillboards, nil
	}
	return "", fmt.Errorf("unknown particle representation %q", s)
}

// BlendPolicy decides where each draw takes its blend state from.
type BlendPolicy string

const (
	// BlendGlobal draws everything in one batch with the renderer's blend mode.
	BlendGlobal BlendPolicy = "global"
	// BlendLastEmitter draws one batch with the blend mode and texture of the
	// last emitter that contributed particles.
	BlendLastEmitter BlendPolicy = "last-emitter"
	// BlendPerMode groups particles by (blend mode, texture) and draws one
	// batch per group, in the order the groups were first seen.
	BlendPerMode BlendPolicy = "per-mode"
)

func ParseBlendPolicy(s string) (BlendPolicy, error) {
	switch BlendPolicy(s) {
	case BlendGlobal, "":
		return BlendGlobal, nil
	case BlendLastEmitter:
		return BlendLastEmitter, nil
	case BlendPerMode:
		return BlendPerMode, nil
	}
	return "", fmt.Errorf("unknown blend policy %q", s)
}

// DrawBatch is a contiguous run of particles drawn with one pipeline and one
// texture. First and Count are in particles, not vertices.
type DrawBatch struct {
	First   int
	Count   int
	Blend   sim.BlendMode
	Texture assets.TextureId
}

// Uniforms is the per-frame camera block shared by both shader programs.
type Uniforms struct {
	ProjView mgl32.Mat4
	View     mgl32.Mat4
	Viewport [2]float32
}

// Backend owns the GPU side: buffers, pipelines and the draw call.
type Backend interface {
	UploadInstances(instances []core.ParticleInstance) error
	UploadVertices(vertices []core.BillboardVertex) error
	Draw(rep Representation, u Uniforms, batches []DrawBatch) error
	Reload(src shaders.Sources) error
}

// ShaderSource supplies validated shader programs.
type ShaderSource interface {
	Load() (shaders.Sources, error)
}

// Renderer aggregates live particles from many emitters into one capped
// buffer each frame and submits it to the Backend.
type Renderer struct {
	Representation Representation
	Blend          sim.BlendMode
	Policy         BlendPolicy
	MaxParticles   int
	// BillboardScale converts particle size into world units for billboards.
	BillboardScale float32

	// Arena resolves emitter texture handles. Without one, billboard
	// emitters that have no texture are skipped.
	Arena   *assets.TextureArena
	Shaders ShaderSource

	backend Backend
	logger  core.Logger

	// collapses per-frame upload and draw errors
	failures core.Repeats

	instances []core.ParticleInstance
	vertices  []core.BillboardVertex
	scratchI  []core.ParticleInstance
	scratchV  []core.BillboardVertex
	spans     []span
	batches   []DrawBatch
	count     int
	ready     bool
}

type span struct {
	first, count int
	key          batchKey
}

type batchKey struct {
	blend   sim.BlendMode
	texture assets.TextureId
}

func NewRenderer(backend Backend, arena *assets.TextureArena, logger core.Logger) *Renderer {
	return &Renderer{
		Representation: RepresentationPoints,
		Blend:          sim.BlendAlpha,
		Policy:         BlendGlobal,
		MaxParticles:   MaxParticlesPerDraw,
		BillboardScale: 1,
		Arena:          arena,
		Shaders:        shaders.Library{},
		backend:        backend,
		logger:         core.OrNop(logger).With("renderer"),
	}
}

// Count is the number of particles prepared for the current frame.
func (r *Renderer) Count() int { return r.count }

// Batches returns the draw batches prepared for the current frame.
func (r *Renderer) Batches() []DrawBatch { return r.batches }

// Instances returns the prepared point records. Valid until the next PrepareFrame.
func (r *Renderer) Instances() []core.ParticleInstance { return r.instances }

// Vertices returns the prepared billboard vertices. Valid until the next PrepareFrame.
func (r *Renderer) Vertices() []core.BillboardVertex { return r.vertices }

// Ready reports whether the last shader load succeeded.
func (r *Renderer) Ready() bool { return r.ready }

func (r *Renderer) limit() int {
	if r.MaxParticles <= 0 {
		return MaxParticlesPerDraw
	}
	return r.MaxParticles
}

// RefreshShaders reloads, validates and rebuilds the particle programs.
// On failure rendering is skipped until a later reload succeeds.
func (r *Renderer) RefreshShaders() bool {
	src, err := r.Shaders.Load()
	if err != nil {
		r.ready = false
		r.logger.Errorf("particle shaders failed to load: %v", err)
		return false
	}
	if err := r.backend.Reload(src); err != nil {
		r.ready = false
		r.logger.Errorf("particle pipelines failed to build: %v", err)
		return false
	}
	r.ready = true
	r.logger.Debugf("particle shaders reloaded")
	return true
}

// PrepareFrame rebuilds the draw buffer from the emitters' live particles.
// Emitters earlier in the slice win once the global cap is reached.
func (r *Renderer) PrepareFrame(emitters []*sim.Emitter, cam core.FrameCamera) {
	r.instances = r.instances[:0]
	r.vertices = r.vertices[:0]
	r.spans = r.spans[:0]
	r.batches = r.batches[:0]
	r.count = 0

	limit := r.limit()
	billboards := r.Representation == RepresentationBillboards

	for _, em := range emitters {
		if r.count >= limit {
			break
		}
		if em == nil || !em.Enabled || len(em.Particles) == 0 {
			continue
		}
		key := batchKey{blend: em.Config.BlendMode.Normalize()}
		if billboards {
			tex, ok := r.resolveTexture(em.Texture)
			if !ok {
				continue
			}
			key.texture = tex
		}

		first := r.count
		for i := range em.Particles {
			if r.count >= limit {
				break
			}
			p := &em.Particles[i]
			center := em.WorldPosition(p)
			if billboards {
				r.vertices = appendBillboard(r.vertices, center, p, cam, r.BillboardScale)
			} else {
				r.instances = append(r.instances, core.ParticleInstance{
					Pos:      center,
					Size:     p.Size,
					Color:    p.Color,
					Rotation: mgl32.DegToRad(p.Rotation),
				})
			}
			r.count++
		}
		r.spans = append(r.spans, span{first: first, count: r.count - first, key: key})
	}

	if r.count == 0 {
		return
	}
	r.buildBatches(billboards)

	var err error
	if billboards {
		err = r.backend.UploadVertices(r.vertices)
	} else {
		err = r.backend.UploadInstances(r.instances)
	}
	if err != nil {
		r.failures.Errorf(r.logger, "particle upload failed: %v", err)
		r.batches = r.batches[:0]
		r.count = 0
	}
}

func (r *Renderer) resolveTexture(id assets.TextureId) (assets.TextureId, bool) {
	if r.Arena != nil {
		return r.Arena.Resolve(id), true
	}
	return id, id != assets.NoTexture
}

func (r *Renderer) buildBatches(billboards bool) {
	switch r.Policy {
	case BlendPerMode:
		if billboards {
			r.vertices, r.scratchV = regroup(r.vertices, r.scratchV, r.spans, core.VerticesPerBillboard)
		} else {
			r.instances, r.scratchI = regroup(r.instances, r.scratchI, r.spans, 1)
		}
		r.batches = groupBatches(r.batches, r.spans)
	case BlendLastEmitter:
		last := r.spans[len(r.spans)-1].key
		r.batches = append(r.batches, DrawBatch{First: 0, Count: r.count, Blend: last.blend, Texture: last.texture})
	default:
		// Texture still follows the last emitter; only one can be bound.
		last := r.spans[len(r.spans)-1].key
		r.batches = append(r.batches, DrawBatch{First: 0, Count: r.count, Blend: r.Blend.Normalize(), Texture: last.texture})
	}
}

// regroup reorders the per-emitter runs in data so runs sharing a key become
// contiguous, keys in first-seen order. stride is records per particle.
func regroup[T any](data, scratch []T, spans []span, stride int) ([]T, []T) {
	scratch = scratch[:0]
	done := make([]bool, len(spans))
	for i := range spans {
		if done[i] {
			continue
		}
		for j := i; j < len(spans); j++ {
			if done[j] || spans[j].key != spans[i].key {
				continue
			}
			done[j] = true
			scratch = append(scratch, data[spans[j].first*stride:(spans[j].first+spans[j].count)*stride]...)
		}
	}
	return scratch, data
}

func groupBatches(batches []DrawBatch, spans []span) []DrawBatch {
	first := 0
	seen := make(map[batchKey]bool, len(spans))
	for i, s := range spans {
		if seen[s.key] {
			continue
		}
		seen[s.key] = true
		count := 0
		for _, other := range spans[i:] {
			if other.key == s.key {
				count += other.count
			}
		}
		batches = append(batches, DrawBatch{First: first, Count: count, Blend: s.key.blend, Texture: s.key.texture})
		first += count
	}
	return batches
}

// appendBillboard emits two triangles facing the camera, rotated in the
// camera plane by the particle rotation.
func appendBillboard(dst []core.BillboardVertex, center mgl32.Vec3, p *core.Particle, cam core.FrameCamera, scale float32) []core.BillboardVertex {
	half := p.Size * scale * 0.5
	rad := float64(mgl32.DegToRad(p.Rotation))
	sin, cos := float32(math.Sin(rad)), float32(math.Cos(rad))
	right := cam.Right.Mul(cos).Add(cam.Up.Mul(sin)).Mul(half)
	up := cam.Up.Mul(cos).Sub(cam.Right.Mul(sin)).Mul(half)

	bl := center.Sub(right).Sub(up)
	br := center.Add(right).Sub(up)
	tl := center.Sub(right).Add(up)
	tr := center.Add(right).Add(up)

	color := [4]float32(p.Color)
	vertex := func(pos mgl32.Vec3, u, v float32) core.BillboardVertex {
		return core.BillboardVertex{Pos: pos, UV: [2]float32{u, v}, Color: color}
	}
	return append(dst,
		vertex(bl, 0, 1), vertex(br, 1, 1), vertex(tl, 0, 0),
		vertex(tl, 0, 0), vertex(br, 1, 1), vertex(tr, 1, 0),
	)
}

// Render submits the prepared frame. It does nothing when the frame is empty
// or the shaders are not ready.
func (r *Renderer) Render(cam core.FrameCamera) {
	if r.count == 0 || !r.ready || len(r.batches) == 0 {
		return
	}
	u := Uniforms{ProjView: cam.ProjView, View: cam.View, Viewport: cam.Viewport}
	if err := r.backend.Draw(r.Representation, u, r.batches); err != nil {
		r.failures.Errorf(r.logger, "particle draw failed: %v", err)
		return
	}
	r.failures.Clear(r.logger)
}
