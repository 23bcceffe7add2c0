package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	cfg, err := LoadFromPath("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shadow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline:
  resolution: 256
  clear_color: [0, 0, 0, 1]
driver:
  blur_amount: 2.5
logging:
  format: json
`), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, 256, cfg.Pipeline.Resolution)
	assert.Equal(t, []float32{0, 0, 0, 1}, cfg.Pipeline.ClearColor)
	assert.Equal(t, float32(2.5), cfg.Driver.BlurAmount)
	assert.Equal(t, "json", cfg.Logging.Format)

	// untouched keys keep their defaults
	assert.Equal(t, 1024, cfg.Pipeline.DepthResolution)
	assert.Equal(t, float32(0.75), cfg.Driver.BlurOpacity)
	assert.Equal(t, "wgpu", cfg.Render.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("OXY_SHADOW_PIPELINE_RESOLUTION", "128")
	t.Setenv("OXY_SHADOW_RENDER_BACKEND", "software")
	t.Setenv("OXY_SHADOW_LOGGING_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "shadow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  resolution: 256\n"), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 128, cfg.Pipeline.Resolution, "the environment beats the file")
	assert.Equal(t, "software", cfg.Render.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shadow.yaml")
	cfg := Default()
	cfg.Render.Backend = "software"
	cfg.Pipeline.LightEye = []float32{0, -2, 0.5}

	require.NoError(t, cfg.Write(path))
	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"window size", func(c *Config) { c.Window.Width = 0 }},
		{"drag button", func(c *Config) { c.Window.DragButton = "wheel" }},
		{"backend", func(c *Config) { c.Render.Backend = "vulkan" }},
		{"present mode", func(c *Config) { c.Render.PresentMode = "mailbox" }},
		{"workers", func(c *Config) { c.Render.Workers = -1 }},
		{"tick rate", func(c *Config) { c.Render.TickRate = 0 }},
		{"frame limit", func(c *Config) { c.Render.FrameLimit = -30 }},
		{"field of view", func(c *Config) { c.Render.FieldOfView = 180 }},
		{"resolution", func(c *Config) { c.Pipeline.Resolution = 0 }},
		{"depth resolution", func(c *Config) { c.Pipeline.DepthResolution = -1 }},
		{"plane extent", func(c *Config) { c.Pipeline.PlaneHalfExtent = 0 }},
		{"light eye", func(c *Config) { c.Pipeline.LightEye = []float32{0, 1} }},
		{"clear color", func(c *Config) { c.Pipeline.ClearColor = nil }},
		{"blur amount", func(c *Config) { c.Driver.BlurAmount = -1 }},
		{"blur opacity", func(c *Config) { c.Driver.BlurOpacity = 1.5 }},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }},
		{"log format", func(c *Config) { c.Logging.Format = "text" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
