// Package shade implements the tracing kernel: the recursive Trace
// function, the shading-services value passed to every shader, and the
// built-in shaders, lights, and uniform volume.
package shade

import (
	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/object"
)

// RayKind tags what launched a trace.
type RayKind int

const (
	Camera RayKind = iota
	Shadow
	Reflect
	Refract
)

// Config is the renderer-wide tracing configuration: everything in a
// trace context except the per-ray depth counters and target group.
type Config struct {
	CastShadow          bool
	MaxReflectDepth     int
	MaxRefractDepth     int
	OpacityThreshold    float64
	RaymarchStep        float64 // camera
	RaymarchShadowStep  float64
	RaymarchReflectStep float64
	RaymarchRefractStep float64
}

// DefaultConfig returns the renderer's built-in defaults: depth 3 for
// both secondary kinds, shadows on, opacity threshold 0.995, raymarch
// steps 0.05 camera and 0.1 for the rest.
func DefaultConfig() Config {
	return Config{
		CastShadow:          true,
		MaxReflectDepth:     3,
		MaxRefractDepth:     3,
		OpacityThreshold:    0.995,
		RaymarchStep:        0.05,
		RaymarchShadowStep:  0.1,
		RaymarchReflectStep: 0.1,
		RaymarchRefractStep: 0.1,
	}
}

const minRaymarchStep = 1e-3

func clampStep(step float64) float64 {
	if step < minRaymarchStep {
		return minRaymarchStep
	}
	return step
}

// stepFor returns the raymarch step size for this context's ray kind.
// The four kinds carry independent step sizes, each floored at 1e-3.
func (c Config) stepFor(kind RayKind) float64 {
	switch kind {
	case Shadow:
		return clampStep(c.RaymarchShadowStep)
	case Reflect:
		return clampStep(c.RaymarchReflectStep)
	case Refract:
		return clampStep(c.RaymarchRefractStep)
	default:
		return clampStep(c.RaymarchStep)
	}
}

// TraceContext is the value threaded through every recursive Trace call.
// Contexts are values, never aliased or mutated in place; every
// child-context constructor returns a new TraceContext.
type TraceContext struct {
	Kind         RayKind
	ReflectDepth int
	RefractDepth int
	Time         float64
	Config       Config

	// Target is what this context's surface/volume queries intersect
	// against; varies per child context when an instance overrides its
	// reflect/refract/shadow target group.
	Target *object.Group

	// Scene is the renderer's top-level all-objects group, the default
	// target for any instance that has not overridden its
	// reflect/refract/shadow targets.
	Scene *object.Group

	// Lights is the scene's full light list, queried by shaders through
	// ShadingContext rather than passed directly.
	Lights []core.Light
}

// NewCameraContext builds the root context a camera ray is traced with.
func NewCameraContext(scene *object.Group, lights []core.Light, cfg Config, time float64) TraceContext {
	return TraceContext{Kind: Camera, Time: time, Config: cfg, Target: scene, Scene: scene, Lights: lights}
}

// reflectChild returns the context a reflection ray launched from
// shadedObj is traced with.
func (ctx TraceContext) reflectChild(shadedObj *object.Instance) TraceContext {
	child := ctx
	child.Kind = Reflect
	child.ReflectDepth++
	child.Target = shadedObj.ReflectTarget(ctx.Scene)
	return child
}

// refractChild returns the context a refraction ray launched from
// shadedObj is traced with.
func (ctx TraceContext) refractChild(shadedObj *object.Instance) TraceContext {
	child := ctx
	child.Kind = Refract
	child.RefractDepth++
	child.Target = shadedObj.RefractTarget(ctx.Scene)
	return child
}

// shadowChild returns the context a shadow ray launched from shadedObj is
// traced with: both depth limits reset to zero so occluders cast no
// secondaries of their own.
func (ctx TraceContext) shadowChild(shadedObj *object.Instance) TraceContext {
	child := ctx
	child.Kind = Shadow
	child.ReflectDepth = 0
	child.RefractDepth = 0
	child.Config.MaxReflectDepth = 0
	child.Config.MaxRefractDepth = 0
	child.Target = shadedObj.ShadowTarget(ctx.Scene)
	return child
}
