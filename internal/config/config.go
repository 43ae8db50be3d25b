// Package config loads the viewfinder's JSON configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/ironsheep/viewfinder/internal/display"
	"github.com/ironsheep/viewfinder/internal/imaging"
	"github.com/ironsheep/viewfinder/internal/pipeline"
)

// Config holds the application configuration
type Config struct {
	Camera   CameraConfig   `json:"camera"`
	Display  DisplayConfig  `json:"display"`
	Pipeline PipelineConfig `json:"pipeline"`
}

// CameraConfig describes the sensor frame and where frames come from.
type CameraConfig struct {
	Geometry  display.Geometry `json:"geometry"`
	SourceDir string           `json:"source_dir"`
}

// DisplayConfig names the framebuffer device and its geometry. The display
// format must match the camera format.
type DisplayConfig struct {
	Device   string           `json:"device"`
	Geometry display.Geometry `json:"geometry"`
}

// PipelineConfig tunes the frame loop
type PipelineConfig struct {
	// Window is the camera region shown; nil centers a display-sized window.
	Window         *imaging.Rect        `json:"window,omitempty"`
	ReportInterval Duration             `json:"report_interval"`
	FrameInterval  Duration             `json:"frame_interval"`
	MaxFrames      int                  `json:"max_frames"`
	OnError        pipeline.ErrorPolicy `json:"on_error"`
}

// Duration is a time.Duration written as a string such as "1s" or "33ms".
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrapf(err, "invalid duration %q", text)
	}
	*d = Duration(v)
	return nil
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Camera: CameraConfig{
			Geometry:  display.Geometry{Width: 560, Height: 560, Format: imaging.RGB565},
			SourceDir: "./frames",
		},
		Display: DisplayConfig{
			Device:   "/dev/fb0",
			Geometry: display.Geometry{Width: 480, Height: 480, Format: imaging.RGB565},
		},
		Pipeline: PipelineConfig{
			ReportInterval: Duration(pipeline.DefaultReportInterval),
			FrameInterval:  Duration(33 * time.Millisecond),
			OnError:        pipeline.Skip,
		},
	}
}

// LoadFromFile loads configuration from a JSON file. Keys missing from the
// file keep their Default values.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	return config, nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(filename string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	return nil
}

// ApplyEnv overrides file settings from VIEWFINDER_SOURCE_DIR,
// VIEWFINDER_DISPLAY_DEVICE and VIEWFINDER_MAX_FRAMES.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("VIEWFINDER_SOURCE_DIR"); v != "" {
		c.Camera.SourceDir = v
	}
	if v := os.Getenv("VIEWFINDER_DISPLAY_DEVICE"); v != "" {
		c.Display.Device = v
	}
	if v := os.Getenv("VIEWFINDER_MAX_FRAMES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(err, "VIEWFINDER_MAX_FRAMES")
		}
		c.Pipeline.MaxFrames = n
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.Camera.Geometry.Validate(); err != nil {
		return errors.Wrap(err, "camera.geometry")
	}
	if c.Camera.SourceDir == "" {
		return errors.New("camera.source_dir cannot be empty")
	}

	if c.Display.Device == "" {
		return errors.New("display.device cannot be empty")
	}
	if err := c.Display.Geometry.Validate(); err != nil {
		return errors.Wrap(err, "display.geometry")
	}
	if p := c.Display.Geometry.Pitch; p != 0 && p != c.Display.Geometry.Width {
		return errors.Wrapf(imaging.ErrInvalidBuffer, "display.geometry.pitch %d must equal width %d",
			p, c.Display.Geometry.Width)
	}
	if c.Display.Geometry.Format != c.Camera.Geometry.Format {
		return errors.Errorf("display format %s must match camera format %s",
			c.Display.Geometry.Format, c.Camera.Geometry.Format)
	}

	cam, disp := c.Camera.Geometry, c.Display.Geometry
	if w := c.Pipeline.Window; w != nil {
		if !w.In(cam.Width, cam.Height) {
			return errors.Errorf("pipeline.window %s outside %dx%d camera frame", w, cam.Width, cam.Height)
		}
		if w.Dx() != disp.Width || w.Dy() != disp.Height {
			return errors.Errorf("pipeline.window %s must be %dx%d to fill the display", w, disp.Width, disp.Height)
		}
	} else if disp.Width > cam.Width || disp.Height > cam.Height {
		return errors.Errorf("display %dx%d larger than camera %dx%d", disp.Width, disp.Height, cam.Width, cam.Height)
	}

	if c.Pipeline.ReportInterval < 0 || c.Pipeline.FrameInterval < 0 {
		return errors.New("pipeline intervals cannot be negative")
	}
	if c.Pipeline.MaxFrames < 0 {
		return errors.New("pipeline.max_frames cannot be negative")
	}
	if _, err := pipeline.ParsePolicy(string(c.Pipeline.OnError)); err != nil {
		return errors.Wrap(err, "pipeline.on_error")
	}

	return nil
}

// Options converts the pipeline section for pipeline.New.
func (c *Config) Options() pipeline.Options {
	opts := pipeline.Options{
		ReportInterval: time.Duration(c.Pipeline.ReportInterval),
		FrameInterval:  time.Duration(c.Pipeline.FrameInterval),
		MaxFrames:      c.Pipeline.MaxFrames,
		OnError:        c.Pipeline.OnError,
	}
	if c.Pipeline.Window != nil {
		opts.Window = *c.Pipeline.Window
	}
	return opts
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "viewfinder", "config.json")
}
