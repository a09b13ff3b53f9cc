package sparks

import (
	"fmt"
	"time"

	"github.com/gekko3d/sparks/rt/assets"
	"github.com/gekko3d/sparks/rt/core"
	"github.com/gekko3d/sparks/rt/render"
	"github.com/gekko3d/sparks/rt/shaders"
	"github.com/gekko3d/sparks/telemetry"
)

// Engine runs the per-frame pipeline: clock, scene transforms, simulation,
// aggregation and submission.
type Engine struct {
	Config    *Config
	Scene     *Scene
	Textures  *assets.TextureArena
	Renderer  *render.Renderer
	Camera    *core.CameraState
	Clock     *Clock
	Telemetry *telemetry.Recorder

	width, height int
	frame         uint64
	simTime       float64
	logger        core.Logger
}

// FrameStats describes the frame just produced.
type FrameStats struct {
	Dt      float32
	Elapsed time.Duration
	Totals
	Drawn int
}

// NewEngine builds an engine drawing through backend. The caller owns the
// backend; pass arena nil to let the engine create one.
func NewEngine(cfg *Config, backend render.Backend, arena *assets.TextureArena, logger core.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	logger = core.OrNop(logger)

	rep, _ := render.ParseRepresentation(cfg.Renderer.Representation)
	policy, _ := render.ParseBlendPolicy(cfg.Renderer.BlendPolicy)

	if arena == nil {
		arena = assets.NewTextureArena(logger)
	}
	arena.MaxSize = cfg.Renderer.MaxTextureSize

	r := render.NewRenderer(backend, arena, logger)
	r.Representation = rep
	r.Policy = policy
	r.Blend = cfg.Renderer.BlendMode
	r.MaxParticles = cfg.Renderer.MaxParticlesPerDraw
	r.BillboardScale = cfg.Renderer.BillboardScale
	r.Shaders = shaders.Library{Dir: cfg.Renderer.ShaderDir}

	e := &Engine{
		Config:   cfg,
		Scene:    NewScene(arena, cfg.Simulation.Seed, logger),
		Textures: arena,
		Renderer: r,
		Camera:   core.NewCameraState(),
		Clock:    NewClock(cfg.MaxFrameDt()),
		width:    cfg.Window.Width,
		height:   cfg.Window.Height,
		logger:   logger,
	}

	if cfg.Telemetry.Enabled {
		rec, err := telemetry.Create(cfg.Telemetry.Dir, cfg.Telemetry.EveryFrames)
		if err != nil {
			return nil, err
		}
		e.Telemetry = rec
	}
	return e, nil
}

// SimTime is the total simulated time in seconds.
func (e *Engine) SimTime() float64 { return e.simTime }

func (e *Engine) Resize(width, height int) {
	e.width, e.height = max(width, 1), max(height, 1)
}

func (e *Engine) FrameCamera() core.FrameCamera {
	return e.Camera.FrameCamera(e.width, e.height)
}

// Step advances the simulation by dt seconds without rendering.
func (e *Engine) Step(dt float32) {
	e.Scene.UpdateTransforms()
	e.Scene.Tick(dt)
}

// Frame advances by the measured clock delta and draws.
func (e *Engine) Frame() FrameStats {
	return e.FrameDt(e.Clock.Tick())
}

// FrameDt runs one frame with an explicit delta.
func (e *Engine) FrameDt(dt float32) FrameStats {
	start := time.Now()
	e.Step(dt)
	e.frame++
	e.simTime += float64(dt)

	cam := e.FrameCamera()
	e.Renderer.PrepareFrame(e.Scene.Emitters(), cam)
	e.Renderer.Render(cam)

	stats := FrameStats{
		Dt:      dt,
		Elapsed: time.Since(start),
		Totals:  e.Scene.Totals(),
		Drawn:   e.Renderer.Count(),
	}
	if err := e.Telemetry.Record(telemetry.FrameRecord{
		Frame:    e.frame,
		TimeSec:  e.simTime,
		FrameMs:  float64(stats.Elapsed.Microseconds()) / 1000,
		Emitters: stats.Emitters,
		Alive:    stats.Alive,
		Emitted:  stats.Emitted,
		Dropped:  stats.Dropped,
		Expired:  stats.Expired,
		Drawn:    stats.Drawn,
	}); err != nil {
		e.logger.Warnf("telemetry disabled: %v", err)
		if cerr := e.Telemetry.Close(); cerr != nil {
			e.logger.Warnf("closing telemetry: %v", cerr)
		}
		e.Telemetry = nil
	}
	return stats
}

// ReloadShaders is the hot-reload entry point.
func (e *Engine) ReloadShaders() bool {
	ok := e.Renderer.RefreshShaders()
	if ok {
		e.logger.Infof("particle shaders reloaded")
	}
	return ok
}

// Close flushes telemetry and logs the run summary.
func (e *Engine) Close() error {
	if e.Telemetry == nil {
		return nil
	}
	e.logger.Infof("telemetry: %s", e.Telemetry.Summary())
	err := e.Telemetry.Close()
	e.Telemetry = nil
	return err
}
