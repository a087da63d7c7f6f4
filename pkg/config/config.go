// Package config loads the renderer's YAML configuration document: a
// single serializable RenderConfig covering camera, sampling, shading, and
// output settings, read from disk by main.go with CLI flags taking
// precedence over file values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/render"
	"github.com/lumenray/lumen/pkg/sampling"
	"github.com/lumenray/lumen/pkg/shade"
)

// CameraConfig is the YAML form of render.CameraConfig.
type CameraConfig struct {
	Center      [3]float64 `yaml:"center"`
	LookAt      [3]float64 `yaml:"look_at"`
	Up          [3]float64 `yaml:"up"`
	VFov        float64    `yaml:"vfov"`
	AspectRatio float64    `yaml:"aspect_ratio"`
}

// SamplingConfig is the YAML form of render.SamplingParams.
type SamplingConfig struct {
	Width     int     `yaml:"width"`
	Height    int     `yaml:"height"`
	TileSize  int     `yaml:"tile_size"`
	SamplesX  int     `yaml:"samples_x"`
	SamplesY  int     `yaml:"samples_y"`
	Filter    string  `yaml:"filter"` // "box" or "gaussian"
	FilterX   float64 `yaml:"filter_width_x"`
	FilterY   float64 `yaml:"filter_width_y"`
	Jitter    float64 `yaml:"jitter"`
	TimeStart float64 `yaml:"time_start"`
	TimeEnd   float64 `yaml:"time_end"`
	TimeSampling bool `yaml:"time_sampling"`
}

// ShadingConfig is the YAML form of shade.Config.
type ShadingConfig struct {
	CastShadow          bool    `yaml:"cast_shadow"`
	MaxReflectDepth     int     `yaml:"max_reflect_depth"`
	MaxRefractDepth     int     `yaml:"max_refract_depth"`
	OpacityThreshold    float64 `yaml:"opacity_threshold"`
	RaymarchStep        float64 `yaml:"raymarch_step"`
	RaymarchShadowStep  float64 `yaml:"raymarch_shadow_step"`
	RaymarchReflectStep float64 `yaml:"raymarch_reflect_step"`
	RaymarchRefractStep float64 `yaml:"raymarch_refract_step"`
}

// RenderConfig is the top-level document main.go loads.
type RenderConfig struct {
	Scene      string         `yaml:"scene"`
	NumWorkers int            `yaml:"workers"`
	Camera     CameraConfig   `yaml:"camera"`
	Sampling   SamplingConfig `yaml:"sampling"`
	Shading    ShadingConfig  `yaml:"shading"`
	Output     string         `yaml:"output"`
}

// Default returns the built-in RenderConfig, equal to pairing
// render.DefaultSamplingParams with shade.DefaultConfig and a camera
// looking down -Z from z=5.
func Default() RenderConfig {
	dsp := render.DefaultSamplingParams()
	dsh := shade.DefaultConfig()
	return RenderConfig{
		Scene:      "default",
		NumWorkers: 0,
		Camera: CameraConfig{
			Center:      [3]float64{0, 0, 5},
			LookAt:      [3]float64{0, 0, 0},
			Up:          [3]float64{0, 1, 0},
			VFov:        40,
			AspectRatio: float64(dsp.Width) / float64(dsp.Height),
		},
		Sampling: SamplingConfig{
			Width: dsp.Width, Height: dsp.Height,
			TileSize: dsp.TileSize,
			SamplesX: dsp.SamplesX, SamplesY: dsp.SamplesY,
			Filter: "box", FilterX: dsp.Filter.XWidth, FilterY: dsp.Filter.YWidth,
			Jitter:       dsp.Jitter,
			TimeStart:    dsp.TimeStart,
			TimeEnd:      dsp.TimeEnd,
			TimeSampling: dsp.TimeSamplingEnabled,
		},
		Shading: ShadingConfig{
			CastShadow:          dsh.CastShadow,
			MaxReflectDepth:     dsh.MaxReflectDepth,
			MaxRefractDepth:     dsh.MaxRefractDepth,
			OpacityThreshold:    dsh.OpacityThreshold,
			RaymarchStep:        dsh.RaymarchStep,
			RaymarchShadowStep:  dsh.RaymarchShadowStep,
			RaymarchReflectStep: dsh.RaymarchReflectStep,
			RaymarchRefractStep: dsh.RaymarchRefractStep,
		},
		Output: "output.fbuf",
	}
}

// Load reads and parses a RenderConfig document from path, starting from
// Default() so an incomplete document still yields sane values for any
// field it omits.
func Load(path string) (RenderConfig, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// ToRenderCameraConfig converts to render.CameraConfig.
func (c CameraConfig) ToRenderCameraConfig() render.CameraConfig {
	return render.CameraConfig{
		Center:      vec3(c.Center),
		LookAt:      vec3(c.LookAt),
		Up:          vec3(c.Up),
		VFov:        c.VFov,
		AspectRatio: c.AspectRatio,
	}
}

// ToSamplingParams converts to render.SamplingParams, resolving the named
// filter kind to a sampling.Filter value.
func (c SamplingConfig) ToSamplingParams() render.SamplingParams {
	kind := sampling.FilterBox
	if c.Filter == "gaussian" {
		kind = sampling.FilterGaussian
	}
	return render.SamplingParams{
		Width: c.Width, Height: c.Height,
		TileSize: c.TileSize,
		SamplesX: c.SamplesX, SamplesY: c.SamplesY,
		Filter:              sampling.NewFilter(kind, c.FilterX, c.FilterY),
		Jitter:              c.Jitter,
		TimeSamplingEnabled: c.TimeSampling,
		TimeStart:           c.TimeStart,
		TimeEnd:             c.TimeEnd,
	}
}

// ToShadeConfig converts to shade.Config.
func (c ShadingConfig) ToShadeConfig() shade.Config {
	return shade.Config{
		CastShadow:          c.CastShadow,
		MaxReflectDepth:     c.MaxReflectDepth,
		MaxRefractDepth:     c.MaxRefractDepth,
		OpacityThreshold:    c.OpacityThreshold,
		RaymarchStep:        c.RaymarchStep,
		RaymarchShadowStep:  c.RaymarchShadowStep,
		RaymarchReflectStep: c.RaymarchReflectStep,
		RaymarchRefractStep: c.RaymarchRefractStep,
	}
}

func vec3(a [3]float64) core.Vec3 { return core.NewVec3(a[0], a[1], a[2]) }
