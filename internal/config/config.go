// Package config loads the demo's settings from a YAML file with OXY_SHADOW_* environment
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. OXY_SHADOW_PIPELINE_RESOLUTION.
const EnvPrefix = "OXY_SHADOW"

// Config is the complete demo configuration.
type Config struct {
	Window   WindowConfig   `mapstructure:"window" yaml:"window"`
	Render   RenderConfig   `mapstructure:"render" yaml:"render"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Driver   DriverConfig   `mapstructure:"driver" yaml:"driver"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// WindowConfig configures the GLFW window.
type WindowConfig struct {
	Title     string `mapstructure:"title" yaml:"title"`
	Width     int    `mapstructure:"width" yaml:"width"`
	Height    int    `mapstructure:"height" yaml:"height"`
	MinWidth  int    `mapstructure:"min_width" yaml:"min_width"`
	MinHeight int    `mapstructure:"min_height" yaml:"min_height"`
	Resizable bool   `mapstructure:"resizable" yaml:"resizable"`
	// DragButton is the mouse button that orbits the camera: left, middle or right.
	DragButton string `mapstructure:"drag_button" yaml:"drag_button"`
}

// RenderConfig configures the renderer and the engine loops.
type RenderConfig struct {
	// Backend is wgpu or software.
	Backend string `mapstructure:"backend" yaml:"backend"`
	// PresentMode is vsync or uncapped.
	PresentMode   string  `mapstructure:"present_mode" yaml:"present_mode"`
	ForceFallback bool    `mapstructure:"force_fallback" yaml:"force_fallback"`
	Workers       int     `mapstructure:"workers" yaml:"workers"`
	TickRate      float64 `mapstructure:"tick_rate" yaml:"tick_rate"`
	FrameLimit    float64 `mapstructure:"frame_limit" yaml:"frame_limit"`
	Profiling     bool    `mapstructure:"profiling" yaml:"profiling"`
	FieldOfView   float32 `mapstructure:"field_of_view" yaml:"field_of_view"`
}

// PipelineConfig configures the shadow graph.
type PipelineConfig struct {
	Resolution      int       `mapstructure:"resolution" yaml:"resolution"`
	DepthResolution int       `mapstructure:"depth_resolution" yaml:"depth_resolution"`
	PlaneHalfExtent float32   `mapstructure:"plane_half_extent" yaml:"plane_half_extent"`
	LightEye        []float32 `mapstructure:"light_eye" yaml:"light_eye"`
	LightSize       float32   `mapstructure:"light_size" yaml:"light_size"`
	ClampInputs     bool      `mapstructure:"clamp_inputs" yaml:"clamp_inputs"`
	ObjectView      bool      `mapstructure:"object_view" yaml:"object_view"`
	ClearColor      []float32 `mapstructure:"clear_color" yaml:"clear_color"`
}

// DriverConfig configures the animated object and the starting tunables.
type DriverConfig struct {
	BlurAmount    float32 `mapstructure:"blur_amount" yaml:"blur_amount"`
	BlurOpacity   float32 `mapstructure:"blur_opacity" yaml:"blur_opacity"`
	PlaneOffset   float32 `mapstructure:"plane_offset" yaml:"plane_offset"`
	RotationSpeed float32 `mapstructure:"rotation_speed" yaml:"rotation_speed"`
	BlurStep      float32 `mapstructure:"blur_step" yaml:"blur_step"`
	OpacityStep   float32 `mapstructure:"opacity_step" yaml:"opacity_step"`
	OffsetStep    float32 `mapstructure:"offset_step" yaml:"offset_step"`
}

// LoggingConfig configures the zerolog logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `mapstructure:"level" yaml:"level"`
	// Format is console or json.
	Format string `mapstructure:"format" yaml:"format"`
	// File, when set, receives the log instead of stderr.
	File string `mapstructure:"file" yaml:"file"`
}

// Default returns the configuration the demo runs with when no file is given.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "oxy-shadow",
			Width:      1280,
			Height:     720,
			MinWidth:   320,
			MinHeight:  240,
			Resizable:  true,
			DragButton: "left",
		},
		Render: RenderConfig{
			Backend:     "wgpu",
			PresentMode: "vsync",
			TickRate:    60,
			FieldOfView: 45,
		},
		Pipeline: PipelineConfig{
			Resolution:      512,
			DepthResolution: 1024,
			PlaneHalfExtent: 5,
			LightEye:        []float32{0, -1, 0.001},
			LightSize:       1,
			ClampInputs:     true,
			ObjectView:      true,
			ClearColor:      []float32{1, 1, 1, 1},
		},
		Driver: DriverConfig{
			BlurAmount:    5,
			BlurOpacity:   0.75,
			RotationSpeed: 1,
			BlurStep:      0.5,
			OpacityStep:   0.05,
			OffsetStep:    0.05,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadFromPath reads the YAML file at path over the defaults and applies environment
// overrides. An empty path loads the defaults and the environment only.
//
// Parameters:
//   - path: the config file, may be empty or start with ~
//
// Returns:
//   - *Config: the loaded configuration, not yet validated
//   - error: if the file cannot be read or decoded
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(expandPath(path))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Logging.File = expandPath(cfg.Logging.File)
	return &cfg, nil
}

// Validate checks ranges and enumerations.
//
// Returns:
//   - error: the first problem found
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	switch c.Window.DragButton {
	case "left", "middle", "right":
	default:
		return fmt.Errorf("invalid drag_button '%s', must be one of: left, middle, right", c.Window.DragButton)
	}

	switch c.Render.Backend {
	case "wgpu", "software":
	default:
		return fmt.Errorf("invalid backend '%s', must be 'wgpu' or 'software'", c.Render.Backend)
	}
	switch c.Render.PresentMode {
	case "vsync", "uncapped":
	default:
		return fmt.Errorf("invalid present_mode '%s', must be 'vsync' or 'uncapped'", c.Render.PresentMode)
	}
	if c.Render.Workers < 0 {
		return fmt.Errorf("workers cannot be negative")
	}
	if c.Render.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive")
	}
	if c.Render.FrameLimit < 0 {
		return fmt.Errorf("frame_limit cannot be negative")
	}
	if c.Render.FieldOfView <= 0 || c.Render.FieldOfView >= 180 {
		return fmt.Errorf("field_of_view must be in (0, 180) degrees")
	}

	if c.Pipeline.Resolution <= 0 || c.Pipeline.DepthResolution <= 0 {
		return fmt.Errorf("pipeline resolutions must be positive")
	}
	if c.Pipeline.PlaneHalfExtent <= 0 || c.Pipeline.LightSize <= 0 {
		return fmt.Errorf("plane_half_extent and light_size must be positive")
	}
	if len(c.Pipeline.LightEye) != 3 {
		return fmt.Errorf("light_eye needs 3 components, got %d", len(c.Pipeline.LightEye))
	}
	if len(c.Pipeline.ClearColor) != 4 {
		return fmt.Errorf("clear_color needs 4 components, got %d", len(c.Pipeline.ClearColor))
	}

	if c.Driver.BlurAmount < 0 {
		return fmt.Errorf("blur_amount cannot be negative")
	}
	if c.Driver.BlurOpacity < 0 || c.Driver.BlurOpacity > 1 {
		return fmt.Errorf("blur_opacity must be within [0, 1]")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s', must be one of: debug, info, warn, error", c.Logging.Level)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid log format '%s', must be 'console' or 'json'", c.Logging.Format)
	}
	return nil
}

// Write stores the configuration as YAML, creating the parent directory.
//
// Parameters:
//   - path: the destination file
//
// Returns:
//   - error: if the directory or file cannot be written
func (c *Config) Write(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// setDefaults registers every key so environment overrides apply even when the file
// omits them.
func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("window.title", d.Window.Title)
	v.SetDefault("window.width", d.Window.Width)
	v.SetDefault("window.height", d.Window.Height)
	v.SetDefault("window.min_width", d.Window.MinWidth)
	v.SetDefault("window.min_height", d.Window.MinHeight)
	v.SetDefault("window.resizable", d.Window.Resizable)
	v.SetDefault("window.drag_button", d.Window.DragButton)

	v.SetDefault("render.backend", d.Render.Backend)
	v.SetDefault("render.present_mode", d.Render.PresentMode)
	v.SetDefault("render.force_fallback", d.Render.ForceFallback)
	v.SetDefault("render.workers", d.Render.Workers)
	v.SetDefault("render.tick_rate", d.Render.TickRate)
	v.SetDefault("render.frame_limit", d.Render.FrameLimit)
	v.SetDefault("render.profiling", d.Render.Profiling)
	v.SetDefault("render.field_of_view", d.Render.FieldOfView)

	v.SetDefault("pipeline.resolution", d.Pipeline.Resolution)
	v.SetDefault("pipeline.depth_resolution", d.Pipeline.DepthResolution)
	v.SetDefault("pipeline.plane_half_extent", d.Pipeline.PlaneHalfExtent)
	v.SetDefault("pipeline.light_eye", d.Pipeline.LightEye)
	v.SetDefault("pipeline.light_size", d.Pipeline.LightSize)
	v.SetDefault("pipeline.clamp_inputs", d.Pipeline.ClampInputs)
	v.SetDefault("pipeline.object_view", d.Pipeline.ObjectView)
	v.SetDefault("pipeline.clear_color", d.Pipeline.ClearColor)

	v.SetDefault("driver.blur_amount", d.Driver.BlurAmount)
	v.SetDefault("driver.blur_opacity", d.Driver.BlurOpacity)
	v.SetDefault("driver.plane_offset", d.Driver.PlaneOffset)
	v.SetDefault("driver.rotation_speed", d.Driver.RotationSpeed)
	v.SetDefault("driver.blur_step", d.Driver.BlurStep)
	v.SetDefault("driver.opacity_step", d.Driver.OpacityStep)
	v.SetDefault("driver.offset_step", d.Driver.OffsetStep)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
