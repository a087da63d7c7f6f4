package core

import "log"

// Logger is the sole logging abstraction used across the module. Anything
// with a Printf method plugs in; pkg/render reports tile progress through
// it.
type Logger interface {
	Printf(format string, args ...interface{})
}

// StdLogger adapts the standard library's log.Logger to the Logger
// interface. pkg/render.Renderer does not fall back to it: a nil logger
// there becomes NopLogger.
type StdLogger struct {
	*log.Logger
}

// NewStdLogger returns a StdLogger wrapping the standard library's default
// logger: stderr, no prefix, and the standard date/time flags.
func NewStdLogger() StdLogger {
	return StdLogger{Logger: log.Default()}
}

// NopLogger discards everything; useful for tests and library callers that
// don't want render progress on stderr.
type NopLogger struct{}

func (NopLogger) Printf(string, ...interface{}) {}

// RGBA is a four-channel color sample, the value every trace call returns
// and every framebuffer pixel stores.
type RGBA struct {
	R, G, B, A float64
}

// Over composites src over dst with the front-to-back operator shared by
// the volume-march accumulation and the final volumetric-over-surface
// composite: out.rgb += src.rgb*(1-out.a), out.a += clamp(src.a,0,1)*(1-out.a).
func (dst RGBA) Over(src RGBA) RGBA {
	a := src.A
	if a < 0 {
		a = 0
	} else if a > 1 {
		a = 1
	}
	remaining := 1 - dst.A
	return RGBA{
		R: dst.R + src.R*remaining,
		G: dst.G + src.G*remaining,
		B: dst.B + src.B*remaining,
		A: dst.A + a*remaining,
	}
}

// SurfaceInput carries the world-space shading point and associated data
// passed to a Shader's Evaluate method.
type SurfaceInput struct {
	P, N       Vec3
	Cd         Vec3
	UV         Vec2
	I          Vec3 // incoming ray direction
	DPds, DPdt Vec3
	// Object is the opaque shaded-object handle (a *pkg/object.Instance);
	// typed any here since core cannot import pkg/object without a cycle
	// (pkg/object stores core.Shader/core.Light/core.Volume values).
	Object any
}

// SurfaceOutput is a Shader's result: shaded color and opacity, the latter
// clamped to [0, 1] by the tracing kernel before use.
type SurfaceOutput struct {
	Cs Vec3
	Os float64
}

// Shader evaluates a surface response at a shading point. Implementations
// query lights and cast secondary rays through the ShadingContext they are
// handed, never through the kernel directly.
type Shader interface {
	Evaluate(ctx ShadingContext, in SurfaceInput) SurfaceOutput
}

// LightSample is one sample drawn from a Light, carrying world-space
// position and surface normal.
type LightSample struct {
	P, N Vec3
}

// Light is a sampled light source. Preprocess runs once per render before
// any sample is integrated; importance-sampling tables belong there.
type Light interface {
	SampleCount() int
	GenerateSamples(out []LightSample)
	Illuminate(sample LightSample, shadingPoint Vec3) Vec3
	Preprocess()
}

// Volume yields a scalar density field; density outside the volume's
// bounds must be 0.
type Volume interface {
	Sample(p Vec3) float64
}

// ShadingContext is the single shading-services value passed to every
// Shader.Evaluate call. Implemented by pkg/shade's trace context, which
// closes over the kernel's trace entry point, so shaders depend only on
// this interface and never on the kernel's internals.
type ShadingContext interface {
	// Illuminate generates L-hat/distance to sample from p, clamps to the
	// given cone, evaluates the light's color, and — when the context has
	// shadows enabled — fires a shadow ray and attenuates by 1-occluder
	// alpha.
	Illuminate(light Light, sample LightSample, p Vec3, axis Vec3, cosThetaMax float64, in SurfaceInput) Vec3
	// TraceReflect/TraceRefract cast a secondary ray from p in direction
	// dir through the reflect/refract child context, returning its
	// composited color and t_hit.
	TraceReflect(p, dir Vec3) (RGBA, float64)
	TraceRefract(p, dir Vec3) (RGBA, float64)
	// Time returns the context's current shading time.
	Time() float64
	// CastShadow reports whether shadow rays are enabled for this context.
	CastShadow() bool
}
