package shade

import (
	"github.com/lumenray/lumen/pkg/core"
)

// ConstantShader returns a fixed, fully opaque color regardless of
// lighting.
type ConstantShader struct {
	Color core.Vec3
}

var _ core.Shader = ConstantShader{}

func (s ConstantShader) Evaluate(ctx core.ShadingContext, in core.SurfaceInput) core.SurfaceOutput {
	return core.SurfaceOutput{Cs: s.Color, Os: 1}
}

// LambertShader is a diffuse-only shader: for every light sample,
// Illuminate yields a color Cl, weighted into the diffuse term by
// max(0, dot(N, Ln)) and finally tinted by the shader's diffuse color.
type LambertShader struct {
	Diffuse core.Vec3
}

var _ core.Shader = LambertShader{}

func (s LambertShader) Evaluate(ctx core.ShadingContext, in core.SurfaceInput) core.SurfaceOutput {
	var diffuse core.Vec3

	for _, light := range lightsOf(in) {
		samples := make([]core.LightSample, light.SampleCount())
		light.GenerateSamples(samples)

		for _, sample := range samples {
			toLight := sample.P.Subtract(in.P)
			dist := toLight.Length()
			if dist < 1e-9 {
				continue
			}
			ln := toLight.Multiply(1 / dist)

			cl := ctx.Illuminate(light, sample, in.P, in.N, -1, in)
			kd := in.N.Dot(ln)
			if kd < 0 {
				kd = 0
			}
			diffuse = diffuse.Add(cl.Multiply(kd))
		}
	}

	cs := diffuse.MultiplyVec(s.Diffuse)
	return core.SurfaceOutput{Cs: cs, Os: 1}
}

// ReflectiveShader composites a Lambert diffuse term with a
// Fresnel-weighted mirror reflection traced through the reflect child
// context.
type ReflectiveShader struct {
	Diffuse   core.Vec3
	Reflect   core.Vec3
	IOR       float64
	Roughness float64
}

var _ core.Shader = ReflectiveShader{}

func (s ReflectiveShader) Evaluate(ctx core.ShadingContext, in core.SurfaceInput) core.SurfaceOutput {
	lambert := LambertShader{Diffuse: s.Diffuse}
	out := lambert.Evaluate(ctx, in)

	r := core.Reflect(in.I, in.N).Normalize()
	reflColor, _ := ctx.TraceReflect(in.P, r)

	eta := 1.0
	if s.IOR > 0 {
		eta = 1 / s.IOR
	}
	kr := core.FresnelSchlick(in.I, in.N, eta)

	reflected := core.NewVec3(reflColor.R, reflColor.G, reflColor.B).MultiplyVec(s.Reflect).Multiply(kr)
	out.Cs = out.Cs.Add(reflected)
	return out
}

// lightsOf recovers the shaded object's light list. in.Object is typed any
// at the core layer (to avoid an object->core import cycle), so it is
// asserted against a local Lights() interface, which the *object.Instance
// every SurfaceInput the kernel builds carries satisfies; any other value
// yields no lights.
func lightsOf(in core.SurfaceInput) []core.Light {
	type lightLister interface{ Lights() []core.Light }
	if obj, ok := in.Object.(lightLister); ok {
		return obj.Lights()
	}
	return nil
}
