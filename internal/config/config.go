// Package config loads gobim settings from a TOML file
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"

	"github.com/philipparndt/gobim/internal/batch"
	"github.com/philipparndt/gobim/internal/bim"
	"github.com/philipparndt/gobim/internal/orbit"
)

// DefaultPath is read when no explicit path is given
const DefaultPath = "~/.gobim.toml"

// ErrInvalid is returned by Validate
var ErrInvalid = errors.New("invalid config")

// Batch configures the compositor
type Batch struct {
	ColorPrecision int    `toml:"color_precision"`
	Mode           string `toml:"mode"`
}

// Camera configures the orbit controller
type Camera struct {
	FOVDegrees     float64 `toml:"fov_degrees"`
	OrbitSpeed     float64 `toml:"orbit_speed"`
	PanSpeed       float64 `toml:"pan_speed"`
	ZoomFactor     float64 `toml:"zoom_factor"`
	ClickThreshold float64 `toml:"click_threshold"`
	PolarEpsilon   float64 `toml:"polar_epsilon"`
	OrthoScale     float64 `toml:"ortho_scale"`
}

// Panorama configures captures
type Panorama struct {
	FaceResolution int     `toml:"face_resolution"`
	Width          int     `toml:"width"`
	Height         int     `toml:"height"`
	Background     string  `toml:"background"`
	EyeHeight      float64 `toml:"eye_height"`
}

// Align configures alignment
type Align struct {
	PlaneHeight float64 `toml:"plane_height"`
}

// Config is the complete settings file
type Config struct {
	Batch    Batch    `toml:"batch"`
	Camera   Camera   `toml:"camera"`
	Panorama Panorama `toml:"panorama"`
	Align    Align    `toml:"align"`
}

// Defaults returns the built-in settings
func Defaults() Config {
	o := orbit.DefaultOptions()
	return Config{
		Batch: Batch{
			ColorPrecision: batch.DefaultColorPrecision,
			Mode:           batch.ModeBatched.String(),
		},
		Camera: Camera{
			FOVDegrees:     o.FOV,
			OrbitSpeed:     o.OrbitSpeed,
			PanSpeed:       o.PanSpeed,
			ZoomFactor:     o.ZoomFactor,
			ClickThreshold: o.ClickThreshold,
			PolarEpsilon:   o.PolarEpsilon,
			OrthoScale:     o.OrthoScale,
		},
		Panorama: Panorama{
			FaceResolution: 512,
			Width:          2048,
			Height:         1024,
			Background:     "#0f1219",
			EyeHeight:      1.6,
		},
	}
}

// Load reads path on top of the defaults. An empty path reads DefaultPath;
// a missing file yields the defaults. Unknown keys are ignored.
func Load(path string) (Config, error) {
	cfg := Defaults()
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to expand %s: %w", path, err)
	}

	data, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", expanded, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save writes the config as TOML
func Save(path string, cfg Config) error {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return fmt.Errorf("failed to expand %s: %w", path, err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(expanded, data, 0o644)
}

// Validate rejects values the components cannot work with
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.Batch.ColorPrecision >= 0 && c.Batch.ColorPrecision <= batch.MaxColorPrecision,
		"batch.color_precision %d not in 0..%d", c.Batch.ColorPrecision, batch.MaxColorPrecision)
	if _, err := batch.ParseMode(c.Batch.Mode); err != nil {
		check(false, "batch.mode: %v", err)
	}

	check(c.Camera.FOVDegrees > 0 && c.Camera.FOVDegrees < 180, "camera.fov_degrees %v not in (0, 180)", c.Camera.FOVDegrees)
	check(c.Camera.OrbitSpeed > 0, "camera.orbit_speed must be positive")
	check(c.Camera.PanSpeed > 0, "camera.pan_speed must be positive")
	check(c.Camera.ZoomFactor > 1, "camera.zoom_factor must be greater than 1")
	check(c.Camera.ClickThreshold >= 0, "camera.click_threshold must not be negative")
	check(c.Camera.PolarEpsilon > 0 && c.Camera.PolarEpsilon < 0.5, "camera.polar_epsilon %v not in (0, 0.5)", c.Camera.PolarEpsilon)
	check(c.Camera.OrthoScale > 0, "camera.ortho_scale must be positive")

	check(c.Panorama.FaceResolution > 0, "panorama.face_resolution must be positive")
	check(c.Panorama.Width > 0 && c.Panorama.Height > 0, "panorama size %dx%d must be positive", c.Panorama.Width, c.Panorama.Height)
	if _, err := bim.ParseHex(c.Panorama.Background); err != nil {
		check(false, "panorama.background: %v", err)
	}

	return errors.Join(errs...)
}

// Orbit converts the camera section to controller options
func (c Config) Orbit() orbit.Options {
	return orbit.Options{
		FOV:            c.Camera.FOVDegrees,
		OrbitSpeed:     c.Camera.OrbitSpeed,
		PanSpeed:       c.Camera.PanSpeed,
		ZoomFactor:     c.Camera.ZoomFactor,
		ClickThreshold: c.Camera.ClickThreshold,
		PolarEpsilon:   c.Camera.PolarEpsilon,
		OrthoScale:     c.Camera.OrthoScale,
	}
}

// Mode returns the configured compositor mode
func (c Config) Mode() batch.Mode {
	m, _ := batch.ParseMode(c.Batch.Mode)
	return m
}

// Background returns the parsed panorama background color
func (c Config) Background() bim.Color {
	col, err := bim.ParseHex(c.Panorama.Background)
	if err != nil {
		return bim.Opaque(0, 0, 0)
	}
	return col
}
