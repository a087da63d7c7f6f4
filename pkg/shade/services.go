package shade

import (
	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/object"
)

// shadingServices implements core.ShadingContext, the single shading-
// services value passed to every Shader.Evaluate call. It closes over the
// kernel's Trace function so shaders never import pkg/shade directly.
type shadingServices struct {
	ctx          TraceContext
	shadedObject *object.Instance
}

var _ core.ShadingContext = (*shadingServices)(nil)

// Illuminate generates L-hat and distance from p to sample, clamps to the
// given cone (axis/cosThetaMax), evaluates the light's color, and, when
// the context has shadows enabled, fires a shadow ray and attenuates by
// 1 - occluder alpha.
func (s *shadingServices) Illuminate(light core.Light, sample core.LightSample, p core.Vec3, axis core.Vec3, cosThetaMax float64, in core.SurfaceInput) core.Vec3 {
	toLight := sample.P.Subtract(p)
	dist := toLight.Length()
	if dist < 1e-9 {
		return core.Vec3{}
	}
	lhat := toLight.Multiply(1 / dist)

	if lhat.Dot(axis) < cosThetaMax {
		return core.Vec3{}
	}

	cl := light.Illuminate(sample, p)
	if cl.IsZero() {
		return cl
	}

	if s.ctx.Config.CastShadow {
		shadowCtx := s.ctx.shadowChild(s.shadedObject)
		shadowRay := core.NewRayRange(p, lhat, 1e-4, dist-1e-4)
		occluder, _ := Trace(shadowCtx, shadowRay)
		cl = cl.Multiply(1 - clamp01(occluder.A))
	}

	return cl
}

// TraceReflect casts a secondary ray from p in direction dir through the
// reflect child context.
func (s *shadingServices) TraceReflect(p, dir core.Vec3) (core.RGBA, float64) {
	child := s.ctx.reflectChild(s.shadedObject)
	return Trace(child, core.NewRay(p, dir))
}

// TraceRefract casts a secondary ray from p in direction dir through the
// refract child context.
func (s *shadingServices) TraceRefract(p, dir core.Vec3) (core.RGBA, float64) {
	child := s.ctx.refractChild(s.shadedObject)
	return Trace(child, core.NewRay(p, dir))
}

// Time returns the context's current shading time.
func (s *shadingServices) Time() float64 { return s.ctx.Time }

// CastShadow reports whether shadow rays are enabled for this context.
func (s *shadingServices) CastShadow() bool { return s.ctx.Config.CastShadow }
