package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenray/lumen/pkg/config"
)

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		expectError bool
	}{
		{"default scene", "default", false},
		{"empty scene name falls back to default", "", false},
		{"mirror scene", "mirror", false},
		{"volume scene", "volume", false},
		{"unknown scene", "nonsense", true},
		{"missing ply file", "no-such-file.ply", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Scene = tt.sceneType
			scene, err := createScene(cfg, Options{Accel: "bvh"})
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, scene.Camera)
			assert.NotNil(t, scene.Objects)
			assert.NotEmpty(t, scene.Lights)
		})
	}
}

func TestCreateSceneGridAccelerator(t *testing.T) {
	cfg := config.Default()
	cfg.Scene = "default"
	scene, err := createScene(cfg, Options{Accel: "grid"})
	require.NoError(t, err)
	assert.Len(t, scene.Objects.Surfaces(), 2)
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := config.Default()
	applyFlagOverrides(&cfg, Options{
		SceneType: "volume",
		Output:    "custom.fbuf",
		Width:     640,
		Height:    480,
		Workers:   4,
	})

	assert.Equal(t, "volume", cfg.Scene)
	assert.Equal(t, "custom.fbuf", cfg.Output)
	assert.Equal(t, 640, cfg.Sampling.Width)
	assert.Equal(t, 480, cfg.Sampling.Height)
	assert.Equal(t, 4, cfg.NumWorkers)
	assert.InDelta(t, 640.0/480.0, cfg.Camera.AspectRatio, 1e-9)
}

func TestTo8bitClamps(t *testing.T) {
	assert.Equal(t, uint8(0), to8bit(0))
	assert.Equal(t, uint8(255), to8bit(1))
	assert.Equal(t, uint8(255), to8bit(4)) // HDR values clamp
}
