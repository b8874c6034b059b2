// Package config holds the renderer settings and reads them from TOML files.
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/pelletier/go-toml/v2"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid renderer config")

// DepthConvention selects how depth is stored and compared.
type DepthConvention string

const (
	// DepthLessEqual clears depth to 1 and keeps fragments with less-or-equal depth.
	DepthLessEqual DepthConvention = "less-equal"
	// DepthReversedZ clears depth to 0 and keeps fragments with greater-or-equal depth.
	DepthReversedZ DepthConvention = "reversed-z"
)

// Reversed reports whether the convention is reversed-Z.
func (d DepthConvention) Reversed() bool {
	return d == DepthReversedZ
}

// ClearDepth returns the depth attachments are cleared to.
func (d DepthConvention) ClearDepth() float32 {
	if d.Reversed() {
		return 0
	}
	return 1
}

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode string

const (
	// PresentModeVSync waits for the next vertical blank before presenting.
	PresentModeVSync PresentMode = "vsync"
	// PresentModeUncapped presents frames immediately and may tear.
	PresentModeUncapped PresentMode = "uncapped"
)

// WGPU returns the wgpu present mode.
func (p PresentMode) WGPU() wgpu.PresentMode {
	if p == PresentModeUncapped {
		return wgpu.PresentModeImmediate
	}
	return wgpu.PresentModeFifo
}

// Shadow configures the directional shadow map.
type Shadow struct {
	MapSize uint32 `toml:"map_size"`
	Layers  uint32 `toml:"layers"`
	// DepthBias and DepthBiasSlope are the rasterizer bias of the shadow pipeline.
	DepthBias      int32   `toml:"depth_bias"`
	DepthBiasSlope float32 `toml:"depth_bias_slope"`
	// Bias is the comparison bias applied in the composite shader.
	Bias       float32 `toml:"bias"`
	HalfExtent float32 `toml:"half_extent"`
	Near       float32 `toml:"near"`
	Far        float32 `toml:"far"`
}

// Debug configures the debug texture overlay.
type Debug struct {
	// Texture is the name of the texture shown at startup, "none" for no overlay.
	Texture string `toml:"texture"`
	// Viewport is the fraction of the surface width and height the overlay covers.
	Viewport     float32 `toml:"viewport"`
	LightMarkers bool    `toml:"light_markers"`
}

// Config is the full renderer configuration.
type Config struct {
	Depth        DepthConvention `toml:"depth_convention"`
	PresentMode  PresentMode     `toml:"present_mode"`
	MaxInstances uint32          `toml:"max_instances"`
	MaxLights    uint32          `toml:"max_lights"`
	ClearColor   [4]float64      `toml:"clear_color"`
	Ambient      [3]float32      `toml:"ambient"`
	Workers      int             `toml:"workers"`
	Shadow       Shadow          `toml:"shadow"`
	Debug        Debug           `toml:"debug"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Depth:        DepthLessEqual,
		PresentMode:  PresentModeVSync,
		MaxInstances: 4096,
		MaxLights:    64,
		ClearColor:   [4]float64{0.1, 0.2, 0.3, 1},
		Ambient:      [3]float32{0.05, 0.05, 0.05},
		Workers:      4,
		Shadow: Shadow{
			MapSize:        2048,
			Layers:         1,
			DepthBias:      2,
			DepthBiasSlope: 2.0,
			Bias:           0.005,
			HalfExtent:     40,
			Near:           0.1,
			Far:            200,
		},
		Debug: Debug{
			Texture:  "none",
			Viewport: 0.25,
		},
	}
}

// Parse decodes TOML over the defaults. Keys missing from the input keep their default value.
//
// Parameters:
//   - r: the TOML document
//
// Returns:
//   - Config: the decoded configuration
//   - error: a decode or validation error
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Load reads a TOML file over the defaults.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Config: the configuration
//   - error: an open, decode or validation error
func Load(path string) (Config, error) {
	fp, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer fp.Close()

	cfg, err := Parse(bufio.NewReader(fp))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Write encodes the configuration as TOML.
func (c Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks the configuration for values the renderer cannot run with.
func (c Config) Validate() error {
	switch c.Depth {
	case DepthLessEqual, DepthReversedZ:
	default:
		return fmt.Errorf("%w: depth_convention %q", ErrInvalidConfig, c.Depth)
	}
	switch c.PresentMode {
	case PresentModeVSync, PresentModeUncapped:
	default:
		return fmt.Errorf("%w: present_mode %q", ErrInvalidConfig, c.PresentMode)
	}
	if c.MaxInstances == 0 {
		return fmt.Errorf("%w: max_instances must be positive", ErrInvalidConfig)
	}
	if c.MaxLights == 0 {
		return fmt.Errorf("%w: max_lights must be positive", ErrInvalidConfig)
	}
	if c.Shadow.MapSize == 0 || c.Shadow.Layers == 0 {
		return fmt.Errorf("%w: shadow map %dx%d with %d layers", ErrInvalidConfig, c.Shadow.MapSize, c.Shadow.MapSize, c.Shadow.Layers)
	}
	if c.Shadow.Near >= c.Shadow.Far {
		return fmt.Errorf("%w: shadow near %g not below far %g", ErrInvalidConfig, c.Shadow.Near, c.Shadow.Far)
	}
	if c.Debug.Viewport <= 0 || c.Debug.Viewport > 1 {
		return fmt.Errorf("%w: debug viewport %g outside (0, 1]", ErrInvalidConfig, c.Debug.Viewport)
	}
	return nil
}
