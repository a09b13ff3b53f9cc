package app

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/gekko3d/sparks"
	"github.com/gekko3d/sparks/rt/assets"
	"github.com/gekko3d/sparks/rt/core"
	"github.com/gekko3d/sparks/rt/gpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

// App owns the window surface and the GPU device and drives one engine
// frame per Render call.
type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	Settings     *sparks.Config
	Engine       *sparks.Engine
	ParticlePass *gpu.ParticlePass
	Profiler     *Profiler

	MouseCaptured bool
	LastX, LastY  float64
	DebugMode     bool

	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64

	logger core.Logger
}

func NewApp(window *glfw.Window, settings *sparks.Config, logger core.Logger) *App {
	if settings == nil {
		settings = sparks.DefaultConfig()
	}
	return &App{
		Window:   window,
		Settings: settings,
		Profiler: NewProfiler(),
		logger:   core.OrNop(logger).With("app"),
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)

	surface := a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))
	a.Surface = surface

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("request adapter: %w", err)
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return fmt.Errorf("request device: %w", err)
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := surface.GetCapabilities(adapter)
	format := caps.Formats[0]

	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	surface.Configure(adapter, a.Device, a.Config)

	arena := assets.NewTextureArena(a.logger)
	a.ParticlePass, err = gpu.NewParticlePass(a.Device, format, arena)
	if err != nil {
		return fmt.Errorf("particle pass: %w", err)
	}
	a.Engine, err = sparks.NewEngine(a.Settings, a.ParticlePass, arena, a.logger)
	if err != nil {
		return err
	}
	a.Engine.Resize(width, height)

	// Broken shaders leave the renderer idle; F5 can recover after a fix.
	if !a.Engine.Renderer.RefreshShaders() {
		a.logger.Warnf("particle shaders failed to load, nothing will be drawn")
	}
	return nil
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
		a.Engine.Resize(w, h)
	}
}

// Update applies held movement keys to the camera.
func (a *App) Update(dt float32) {
	cam := a.Engine.Camera
	forward := cam.GetForward()
	right := forward.Cross(mgl32.Vec3{0, 1, 0})
	if right.Len() > 0 {
		right = right.Normalize()
	}

	var move mgl32.Vec3
	if a.Window.GetKey(glfw.KeyW) == glfw.Press {
		move = move.Add(forward)
	}
	if a.Window.GetKey(glfw.KeyS) == glfw.Press {
		move = move.Sub(forward)
	}
	if a.Window.GetKey(glfw.KeyD) == glfw.Press {
		move = move.Add(right)
	}
	if a.Window.GetKey(glfw.KeyA) == glfw.Press {
		move = move.Sub(right)
	}
	if a.Window.GetKey(glfw.KeySpace) == glfw.Press {
		move = move.Add(mgl32.Vec3{0, 1, 0})
	}
	if a.Window.GetKey(glfw.KeyLeftShift) == glfw.Press {
		move = move.Sub(mgl32.Vec3{0, 1, 0})
	}
	if move.Len() > 0 {
		cam.Position = cam.Position.Add(move.Normalize().Mul(cam.Speed * dt))
	}
}

// HandleCursor turns mouse motion into camera yaw and pitch while the
// cursor is captured.
func (a *App) HandleCursor(x, y float64) {
	dx, dy := x-a.LastX, y-a.LastY
	a.LastX, a.LastY = x, y
	if !a.MouseCaptured {
		return
	}
	cam := a.Engine.Camera
	cam.Yaw += float32(dx) * cam.Sensitivity
	cam.Pitch -= float32(dy) * cam.Sensitivity
	limit := mgl32.DegToRad(89)
	cam.Pitch = mgl32.Clamp(cam.Pitch, -limit, limit)
}

func (a *App) SetMouseCaptured(captured bool) {
	a.MouseCaptured = captured
	if captured {
		a.Window.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		a.LastX, a.LastY = a.Window.GetCursorPos()
	} else {
		a.Window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	}
}

func (a *App) Render() {
	a.Profiler.BeginScope("acquire")
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.logger.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.logger.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.logger.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}
	defer encoder.Release()
	a.Profiler.EndScope("acquire")

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0.02, G: 0.02, B: 0.04, A: 1},
		}},
	})

	a.Profiler.BeginScope("frame")
	a.ParticlePass.Begin(rPass)
	stats := a.Engine.Frame()
	a.ParticlePass.End()
	a.Profiler.EndScope("frame")

	if err := rPass.End(); err != nil {
		a.logger.Errorf("render pass End failed: %v", err)
	}

	a.Profiler.BeginScope("submit")
	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.logger.Errorf("encoder Finish failed: %v", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()
	a.Profiler.EndScope("submit")

	a.Profiler.SetCount("emitters", stats.Emitters)
	a.Profiler.SetCount("alive", stats.Alive)
	a.Profiler.SetCount("drawn", stats.Drawn)

	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
			a.Window.SetTitle(fmt.Sprintf("%s | %.1f fps", a.Settings.Window.Title, a.FPS))
			if a.DebugMode {
				a.logger.Debugf("%.1f fps | %s", a.FPS, a.Profiler.Line())
			}
		}
	}
	a.LastRenderTime = now
}

// Release tears down GPU objects in reverse creation order.
func (a *App) Release() {
	if a.Engine != nil {
		if err := a.Engine.Close(); err != nil {
			a.logger.Warnf("closing engine: %v", err)
		}
	}
	if a.ParticlePass != nil {
		a.ParticlePass.Release()
	}
	if a.Device != nil {
		a.Device.Release()
	}
	if a.Adapter != nil {
		a.Adapter.Release()
	}
	if a.Surface != nil {
		a.Surface.Release()
	}
	if a.Instance != nil {
		a.Instance.Release()
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
