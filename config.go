package sparks

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/gekko3d/sparks/rt/render"
	"github.com/gekko3d/sparks/rt/sim"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds the engine and demo settings.
type Config struct {
	Window     WindowConfig     `yaml:"window"`
	Renderer   RendererConfig   `yaml:"renderer"`
	Simulation SimulationConfig `yaml:"simulation"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Demo       DemoConfig       `yaml:"demo"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type RendererConfig struct {
	Representation      string        `yaml:"representation"`
	BlendPolicy         string        `yaml:"blend_policy"`
	BlendMode           sim.BlendMode `yaml:"blend_mode"`
	MaxParticlesPerDraw int           `yaml:"max_particles_per_draw"`
	BillboardScale      float32       `yaml:"billboard_scale"`
	MaxTextureSize      int           `yaml:"max_texture_size"`
	ShaderDir           string        `yaml:"shader_dir"`
}

type SimulationConfig struct {
	Seed  uint64  `yaml:"seed"`
	MaxDt float64 `yaml:"max_dt"` // seconds
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Dir         string `yaml:"dir"`
	EveryFrames int    `yaml:"every_frames"`
}

type DemoConfig struct {
	Preset string `yaml:"preset"`
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load reads configuration from a YAML file over the embedded defaults.
// If path is empty, only the defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// only overwrites fields present in the file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values and clamps degenerate numbers.
func (c *Config) Validate() error {
	if _, err := render.ParseRepresentation(c.Renderer.Representation); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	if _, err := render.ParseBlendPolicy(c.Renderer.BlendPolicy); err != nil {
		return fmt.Errorf("renderer: %w", err)
	}
	c.Renderer.BlendMode = c.Renderer.BlendMode.Normalize()

	if c.Window.Width < 1 {
		c.Window.Width = 1
	}
	if c.Window.Height < 1 {
		c.Window.Height = 1
	}
	if c.Renderer.MaxParticlesPerDraw <= 0 {
		c.Renderer.MaxParticlesPerDraw = render.MaxParticlesPerDraw
	}
	if c.Renderer.BillboardScale <= 0 {
		c.Renderer.BillboardScale = 0.01
	}
	if c.Renderer.MaxTextureSize <= 0 {
		c.Renderer.MaxTextureSize = 1024
	}
	if c.Simulation.MaxDt <= 0 {
		c.Simulation.MaxDt = 0.1
	}
	if c.Telemetry.EveryFrames < 1 {
		c.Telemetry.EveryFrames = 1
	}
	return nil
}

func (c *Config) MaxFrameDt() time.Duration {
	return time.Duration(c.Simulation.MaxDt * float64(time.Second))
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
