package shade

import (
	"math"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/object"
)

// noShaderColor is the sentinel a hit instance with a nil shader produces:
// fully opaque lime green, loud enough to spot in a render.
var noShaderColor = core.NewVec3(0.5, 1.0, 0.0)

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Trace is the recursive tracing kernel: given a context and a ray, it
// produces a composited RGBA and the t_hit of the closest surface (or +Inf
// on a surface miss). Reflect and refract contexts past their depth limit
// return transparent black before any intersection work.
func Trace(ctx TraceContext, ray core.Ray) (core.RGBA, float64) {
	if ctx.Kind == Reflect && ctx.ReflectDepth > ctx.Config.MaxReflectDepth {
		return core.RGBA{}, math.Inf(1)
	}
	if ctx.Kind == Refract && ctx.RefractDepth > ctx.Config.MaxRefractDepth {
		return core.RGBA{}, math.Inf(1)
	}

	tHit := math.Inf(1)
	var surface core.RGBA
	workRay := ray

	hit, hasHit := ctx.Target.IntersectSurface(ctx.Time, workRay)
	if hasHit {
		tHit = hit.T
		inst := hit.Instance

		in := core.SurfaceInput{
			P:      hit.P,
			N:      hit.N,
			Cd:     hit.Cd,
			UV:     hit.UV,
			I:      workRay.Direction,
			DPds:   hit.DPds,
			DPdt:   hit.DPdt,
			Object: inst,
		}

		var out core.SurfaceOutput
		if shader := inst.Shader(); shader != nil {
			services := &shadingServices{ctx: ctx, shadedObject: inst}
			out = shader.Evaluate(services, in)
		} else {
			out = core.SurfaceOutput{Cs: noShaderColor, Os: 1}
		}

		opacity := clamp01(out.Os)
		surface = core.RGBA{R: out.Cs.X, G: out.Cs.Y, B: out.Cs.Z, A: opacity}

		if ctx.Kind == Shadow && opacity > ctx.Config.OpacityThreshold {
			return surface, tHit
		}

		workRay = workRay.WithTMax(tHit)
	}

	volume := marchVolume(ctx, workRay)
	return volume.Over(surface), tHit
}

// marchVolume steps through the ray's overlapping volume intervals at the
// context's raymarch step size, front-to-back compositing each step's
// sampled density and color, and stopping early once accumulated alpha
// passes the opacity threshold.
func marchVolume(ctx TraceContext, ray core.Ray) core.RGBA {
	intervals := ctx.Target.IntersectVolumes(ray)
	if intervals.Count() == 0 {
		return core.RGBA{}
	}

	step := ctx.Config.stepFor(ctx.Kind)
	tStart := math.Max(0, intervals.MinT())
	tStart = math.Ceil(tStart/step) * step
	tLimit := math.Min(intervals.MaxT(), ray.TMax)

	// One sample per step start inside [tStart, tLimit); a degenerate or
	// inverted range marches zero times. The bounds padding is discounted
	// from the span so the step count reflects the true geometric interval
	// rather than picking up an extra boundary sample.
	nsteps := int(math.Ceil((tLimit - tStart - 2*core.BoundsPadding) / step))
	if nsteps < 0 {
		nsteps = 0
	}

	var out core.RGBA
	items := intervals.Items()
	for i := 0; i < nsteps; i++ {
		if out.A > ctx.Config.OpacityThreshold {
			break
		}

		t := tStart + float64(i)*step
		p := ray.At(t)
		opacity := 0.0
		var color core.Vec3

		for _, iv := range items {
			if t < iv.TMin || t > iv.TMax {
				continue
			}
			inst, ok := iv.Owner.(*object.Instance)
			if !ok {
				continue
			}

			density := inst.SampleVolume(ctx.Time, p)
			if sampleOpacity := step * density; sampleOpacity > opacity {
				opacity = sampleOpacity
			}

			if ctx.Kind != Shadow {
				if shader := inst.Shader(); shader != nil {
					in := core.SurfaceInput{P: p, I: ray.Direction, Object: inst}
					services := &shadingServices{ctx: ctx, shadedObject: inst}
					shaded := shader.Evaluate(services, in)
					color = color.Add(shaded.Cs.Multiply(opacity))
				}
			}
		}

		sample := core.RGBA{R: color.X, G: color.Y, B: color.Z, A: clamp01(opacity)}
		out = out.Over(sample)
	}

	return out
}
