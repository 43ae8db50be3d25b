package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/viewfinder/internal/imaging"
	"github.com/ironsheep/viewfinder/internal/pipeline"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "/dev/fb0", cfg.Display.Device)
	assert.Equal(t, imaging.RGB565, cfg.Camera.Geometry.Format)
	assert.Equal(t, pipeline.Skip, cfg.Pipeline.OnError)
	assert.Equal(t, time.Second, time.Duration(cfg.Pipeline.ReportInterval))
	assert.Nil(t, cfg.Pipeline.Window)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cfg := Default()
	cfg.Camera.Geometry.Format = imaging.BGR888
	cfg.Display.Geometry.Format = imaging.BGR888
	cfg.Pipeline.Window = &imaging.Rect{Left: 10, Top: 20, Right: 490, Bottom: 500}
	cfg.Pipeline.OnError = pipeline.Halt
	cfg.Pipeline.FrameInterval = Duration(40 * time.Millisecond)
	require.NoError(t, cfg.SaveToFile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"format": "bgr888"`)
	assert.Contains(t, string(raw), `"frame_interval": "40ms"`)

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.NoError(t, loaded.Validate())
}

func TestLoadFromFile_Partial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"display":{"device":"/tmp/fb"}}`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fb", cfg.Display.Device)
	assert.Equal(t, Default().Camera, cfg.Camera)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	tests := map[string]string{
		"syntax":   `{"camera":`,
		"format":   `{"camera":{"geometry":{"format":"nv21"}}}`,
		"duration": `{"pipeline":{"report_interval":"soon"}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(body), 0644))
			_, err := LoadFromFile(path)
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero camera", func(c *Config) { c.Camera.Geometry.Width = 0 }},
		{"no source", func(c *Config) { c.Camera.SourceDir = "" }},
		{"no device", func(c *Config) { c.Display.Device = "" }},
		{"short pitch", func(c *Config) { c.Display.Geometry.Pitch = 100 }},
		{"format mismatch", func(c *Config) { c.Display.Geometry.Format = imaging.RGB888 }},
		{"display too big", func(c *Config) { c.Display.Geometry.Width = 600 }},
		{"window outside", func(c *Config) { c.Pipeline.Window = &imaging.Rect{Left: 100, Top: 0, Right: 580, Bottom: 480} }},
		{"window size", func(c *Config) { c.Pipeline.Window = &imaging.Rect{Left: 0, Top: 0, Right: 100, Bottom: 100} }},
		{"negative interval", func(c *Config) { c.Pipeline.ReportInterval = Duration(-time.Second) }},
		{"negative frames", func(c *Config) { c.Pipeline.MaxFrames = -1 }},
		{"policy", func(c *Config) { c.Pipeline.OnError = "retry" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_DisplayPitch(t *testing.T) {
	cfg := Default()
	cfg.Display.Geometry.Pitch = 512
	assert.ErrorIs(t, cfg.Validate(), imaging.ErrInvalidBuffer)

	// An explicit pitch equal to the width survives a save and load.
	cfg.Display.Geometry.Pitch = cfg.Display.Geometry.Width
	require.NoError(t, cfg.Validate())

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, cfg.SaveToFile(path))
	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 480, loaded.Display.Geometry.Pitch)
	assert.NoError(t, loaded.Validate())
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VIEWFINDER_SOURCE_DIR", "/srv/frames")
	t.Setenv("VIEWFINDER_DISPLAY_DEVICE", "/dev/fb1")
	t.Setenv("VIEWFINDER_MAX_FRAMES", "12")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv())
	assert.Equal(t, "/srv/frames", cfg.Camera.SourceDir)
	assert.Equal(t, "/dev/fb1", cfg.Display.Device)
	assert.Equal(t, 12, cfg.Pipeline.MaxFrames)

	t.Setenv("VIEWFINDER_MAX_FRAMES", "lots")
	assert.Error(t, cfg.ApplyEnv())
}

func TestOptions(t *testing.T) {
	cfg := Default()
	opts := cfg.Options()
	assert.Equal(t, imaging.Rect{}, opts.Window)
	assert.Equal(t, 33*time.Millisecond, opts.FrameInterval)

	cfg.Pipeline.Window = &imaging.Rect{Left: 1, Top: 2, Right: 481, Bottom: 482}
	assert.Equal(t, *cfg.Pipeline.Window, cfg.Options().Window)
}

func TestGetConfigPath(t *testing.T) {
	assert.Equal(t, "config.json", filepath.Base(GetConfigPath()))
}
