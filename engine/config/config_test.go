package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DepthLessEqual, cfg.Depth)
	assert.Equal(t, float32(1), cfg.Depth.ClearDepth())
	assert.Equal(t, wgpu.PresentModeFifo, cfg.PresentMode.WGPU())
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
depth_convention = "reversed-z"
present_mode = "uncapped"

[shadow]
map_size = 1024

[debug]
texture = "normal"
`))
	require.NoError(t, err)

	assert.True(t, cfg.Depth.Reversed())
	assert.Equal(t, float32(0), cfg.Depth.ClearDepth())
	assert.Equal(t, wgpu.PresentModeImmediate, cfg.PresentMode.WGPU())
	assert.Equal(t, uint32(1024), cfg.Shadow.MapSize)
	assert.Equal(t, "normal", cfg.Debug.Texture)

	// untouched keys keep their defaults
	assert.Equal(t, Default().Shadow.Layers, cfg.Shadow.Layers)
	assert.Equal(t, Default().MaxLights, cfg.MaxLights)
}

func TestParseRejects(t *testing.T) {
	cases := map[string]string{
		"unknown key":      `colour = 1`,
		"depth convention": `depth_convention = "greater"`,
		"present mode":     `present_mode = "mailbox"`,
		"zero instances":   `max_instances = 0`,
		"shadow planes":    "[shadow]\nnear = 10.0\nfar = 1.0",
		"debug viewport":   "[debug]\nviewport = 1.5",
	}
	for name, doc := range cases {
		_, err := Parse(strings.NewReader(doc))
		assert.Error(t, err, name)
	}

	_, err := Parse(strings.NewReader(`max_lights = 0`))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "horizon.toml")
	require.NoError(t, os.WriteFile(path, []byte("workers = 2\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestWriteIsReadable(t *testing.T) {
	cfg := Default()
	cfg.Depth = DepthReversedZ

	var sb strings.Builder
	require.NoError(t, cfg.Write(&sb))
	assert.Contains(t, sb.String(), "reversed-z")

	back, err := Parse(strings.NewReader(sb.String()))
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}
