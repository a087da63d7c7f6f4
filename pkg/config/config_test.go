package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesComponentDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 320, cfg.Sampling.Width)
	assert.Equal(t, 240, cfg.Sampling.Height)
	assert.Equal(t, 3, cfg.Sampling.SamplesX)
	assert.Equal(t, "box", cfg.Sampling.Filter)
	assert.True(t, cfg.Shading.CastShadow)
	assert.Equal(t, 3, cfg.Shading.MaxReflectDepth)
}

func TestLoadOverridesOnlyProvidedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "render.yaml")
	doc := `
scene: cornell
sampling:
  width: 640
  height: 480
  filter: gaussian
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "cornell", cfg.Scene)
	assert.Equal(t, 640, cfg.Sampling.Width)
	assert.Equal(t, 480, cfg.Sampling.Height)
	assert.Equal(t, "gaussian", cfg.Sampling.Filter)
	// Untouched fields keep their Default() values.
	assert.Equal(t, 3, cfg.Sampling.SamplesX)
	assert.Equal(t, 3, cfg.Shading.MaxReflectDepth)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestConversionsRoundTripShapes(t *testing.T) {
	cfg := Default()
	sp := cfg.Sampling.ToSamplingParams()
	assert.Equal(t, cfg.Sampling.Width, sp.Width)
	assert.Equal(t, cfg.Sampling.Height, sp.Height)

	sc := cfg.Shading.ToShadeConfig()
	assert.Equal(t, cfg.Shading.CastShadow, sc.CastShadow)

	cam := cfg.Camera.ToRenderCameraConfig()
	assert.Equal(t, cfg.Camera.VFov, cam.VFov)
}
