package main

import (
	"flag"
	"runtime"

	"github.com/gekko3d/sparks"
	"github.com/gekko3d/sparks/rt/app"
	"github.com/gekko3d/sparks/rt/core"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "YAML config file layered over the built-in defaults")
	preset := flag.String("preset", "", "scene preset to load instead of the demo scene")
	savePath := flag.String("save", "sparks_scene.json", "where F6 writes the current scene")
	debug := flag.Bool("debug", false, "Enable debug logging and per-second profiler output")
	flag.Parse()

	logger := core.NewDefaultLogger("sparks", *debug)

	cfg, err := sparks.Load(*configPath)
	if err != nil {
		logger.Errorf("%v", err)
		return
	}
	if *preset != "" {
		cfg.Demo.Preset = *preset
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title, nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg, logger)
	application.DebugMode = *debug
	if err := application.Init(); err != nil {
		panic(err)
	}
	defer application.Release()

	scene := application.Engine.Scene
	if cfg.Demo.Preset != "" {
		ids, err := sparks.LoadScene(scene, cfg.Demo.Preset)
		if err != nil {
			logger.Errorf("loading preset %s: %v", cfg.Demo.Preset, err)
			return
		}
		logger.Infof("loaded %d elements from %s", len(ids), cfg.Demo.Preset)
	} else {
		sparks.BuildDemoScene(scene)
	}

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		application.HandleCursor(xpos, ypos)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyTab:
			application.SetMouseCaptured(!application.MouseCaptured)
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeyF5:
			application.Engine.ReloadShaders()
		case glfw.KeyF6:
			if err := sparks.SaveScene(scene, *savePath); err != nil {
				logger.Errorf("%v", err)
			} else {
				logger.Infof("scene saved to %s", *savePath)
			}
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update(float32(application.Engine.Clock.Dt.Seconds()))
		application.Render()
	}
}
