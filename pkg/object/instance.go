// Package object implements object instances and object groups: a
// transformed, time-sampled wrapper around one surface accelerator or one
// voxel volume, and the two parallel top-level accelerators (surfaces,
// volumes) that aggregate instances into a traceable scene.
package object

import (
	"fmt"
	"sort"

	"github.com/lumenray/lumen/pkg/accel"
	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/primset"
)

// Keyframe is one sample of an Instance's object_to_world transform,
// decomposed into translate/rotate/scale channels that interpolate
// per-channel linearly between keyframes.
type Keyframe struct {
	Time      float64
	Translate core.Vec3
	Rotate    core.Vec3 // Euler angles, radians
	Scale     core.Vec3
	Order     core.RotateOrder
}

// Instance is a transformed, shaded wrapper over a surface accelerator or
// a voxel volume (exclusive). Construct with NewSurfaceInstance or
// NewVolumeInstance, then push keyframes and set the optional
// shader/lights/target groups before the owning Group is finalized.
type Instance struct {
	name string

	keyframes []Keyframe
	// explicitKeyframes is false while keyframes holds only the identity
	// keyframe installed at construction.
	explicitKeyframes bool

	surfaceAccel accel.Accelerator // nil for a volume instance
	volume       core.Volume       // nil for a surface instance
	volumeBounds core.AABB         // object-space bounds; only meaningful when volume != nil

	shader core.Shader
	lights []core.Light

	reflectTarget *Group
	refractTarget *Group
	shadowTarget  *Group

	bounds    core.AABB
	hasBounds bool
}

// NewSurfaceInstance wraps a built-or-buildable surface accelerator (a Grid
// or a BVH) as an object instance.
func NewSurfaceInstance(name string, surfaceAccel accel.Accelerator) *Instance {
	inst := &Instance{name: name, surfaceAccel: surfaceAccel}
	inst.pushIdentityKeyframe()
	return inst
}

// NewVolumeInstance wraps a voxel volume as an object instance. The
// object-space bounds must be passed in because the Volume contract
// exposes only Sample, not its own bounds.
func NewVolumeInstance(name string, volume core.Volume, objectBounds core.AABB) *Instance {
	inst := &Instance{name: name, volume: volume, volumeBounds: objectBounds}
	inst.pushIdentityKeyframe()
	return inst
}

func (inst *Instance) pushIdentityKeyframe() {
	inst.keyframes = []Keyframe{{Time: 0, Scale: core.NewVec3(1, 1, 1)}}
}

func (inst *Instance) Name() string { return inst.name }

// IsVolume reports whether this instance wraps a voxel volume rather than
// a surface accelerator.
func (inst *Instance) IsVolume() bool { return inst.volume != nil }

func (inst *Instance) Volume() core.Volume { return inst.volume }

// VolumeObjectBounds returns the object-space bounds of the wrapped
// volume; only meaningful when IsVolume() is true.
func (inst *Instance) VolumeObjectBounds() core.AABB { return inst.volumeBounds }

// SetShader attaches the instance's shader; nil means unshaded.
func (inst *Instance) SetShader(s core.Shader) { inst.shader = s }
func (inst *Instance) Shader() core.Shader     { return inst.shader }

// SetLights attaches the light list this instance's shader may query,
// borrowed from the scene.
func (inst *Instance) SetLights(lights []core.Light) { inst.lights = lights }
func (inst *Instance) Lights() []core.Light          { return inst.lights }

// SetReflectTarget/SetRefractTarget/SetShadowTarget override the group a
// reflect/refract/shadow ray launched from this instance traces against.
// A target left unset falls back to the scene's all-objects group at
// trace time.
func (inst *Instance) SetReflectTarget(g *Group) { inst.reflectTarget = g }
func (inst *Instance) SetRefractTarget(g *Group) { inst.refractTarget = g }
func (inst *Instance) SetShadowTarget(g *Group)  { inst.shadowTarget = g }

// ReflectTarget/RefractTarget/ShadowTarget resolve the configured target
// against defaultGroup (the scene's all-objects group) when unset.
func (inst *Instance) ReflectTarget(defaultGroup *Group) *Group {
	if inst.reflectTarget != nil {
		return inst.reflectTarget
	}
	return defaultGroup
}

func (inst *Instance) RefractTarget(defaultGroup *Group) *Group {
	if inst.refractTarget != nil {
		return inst.refractTarget
	}
	return defaultGroup
}

func (inst *Instance) ShadowTarget(defaultGroup *Group) *Group {
	if inst.shadowTarget != nil {
		return inst.shadowTarget
	}
	return defaultGroup
}

// PushKeyframe appends a transform keyframe. Keyframes must be pushed in
// monotonically increasing time order; cached bounds are invalidated on
// every push. The identity keyframe installed at construction is replaced
// by the first explicit push.
func (inst *Instance) PushKeyframe(kf Keyframe) error {
	if !inst.explicitKeyframes {
		inst.keyframes[0] = kf
		inst.explicitKeyframes = true
	} else {
		if kf.Time < inst.keyframes[len(inst.keyframes)-1].Time {
			return fmt.Errorf("object: keyframe time %g is not monotonically increasing after %g",
				kf.Time, inst.keyframes[len(inst.keyframes)-1].Time)
		}
		inst.keyframes = append(inst.keyframes, kf)
	}
	sort.SliceStable(inst.keyframes, func(i, j int) bool { return inst.keyframes[i].Time < inst.keyframes[j].Time })
	inst.hasBounds = false
	return nil
}

func defaultKeyframe() Keyframe { return Keyframe{Time: 0, Scale: core.NewVec3(1, 1, 1)} }

// keyframeAt returns the two bracketing keyframes and the interpolation
// parameter u in [0,1] between them for the given time, clamping to the
// first/last keyframe outside the configured range.
func (inst *Instance) keyframeAt(time float64) (a, b Keyframe, u float64) {
	n := len(inst.keyframes)
	if n == 1 || time <= inst.keyframes[0].Time {
		return inst.keyframes[0], inst.keyframes[0], 0
	}
	if time >= inst.keyframes[n-1].Time {
		return inst.keyframes[n-1], inst.keyframes[n-1], 0
	}
	for i := 1; i < n; i++ {
		if time <= inst.keyframes[i].Time {
			a, b = inst.keyframes[i-1], inst.keyframes[i]
			span := b.Time - a.Time
			if span <= 0 {
				return a, b, 0
			}
			return a, b, (time - a.Time) / span
		}
	}
	return inst.keyframes[n-1], inst.keyframes[n-1], 0
}

func lerpVec3(a, b core.Vec3, u float64) core.Vec3 {
	return a.Add(b.Subtract(a).Multiply(u))
}

// ObjectToWorldAt returns the object_to_world transform at time, linearly
// interpolating translate/rotate/scale channels between the bracketing
// keyframes and composing them TRS-style in the declared rotate order.
func (inst *Instance) ObjectToWorldAt(time float64) core.Matrix4 {
	a, b, u := inst.keyframeAt(time)
	translate := lerpVec3(a.Translate, b.Translate, u)
	rotate := lerpVec3(a.Rotate, b.Rotate, u)
	scale := lerpVec3(a.Scale, b.Scale, u)
	return core.Compose(translate, rotate, a.Order, scale)
}

// WorldToObjectAt returns the inverse of ObjectToWorldAt(time).
func (inst *Instance) WorldToObjectAt(time float64) core.Matrix4 {
	return inst.ObjectToWorldAt(time).Inverse()
}

// Bounds returns the padded world-space bounds of the instance: the union
// of its object-space bounds transformed by every keyframe's
// object_to_world. Unioning per-keyframe is a conservative bound over the
// animated range; no true envelope is solved for.
func (inst *Instance) Bounds() core.AABB {
	if inst.hasBounds {
		return inst.bounds
	}

	objBounds := inst.objectBounds()
	corners := cornersOf(objBounds)

	var world core.AABB
	first := true
	for _, kf := range inst.keyframes {
		m := core.Compose(kf.Translate, kf.Rotate, kf.Order, kf.Scale)
		for _, c := range corners {
			p := m.TransformPoint(c)
			if first {
				world = core.NewAABB(p, p)
				first = false
			} else {
				world = world.AddPoint(p)
			}
		}
	}

	inst.bounds = world.Padded()
	inst.hasBounds = true
	return inst.bounds
}

// SampleVolume transforms worldP into this instance's object space at time
// and samples its wrapped volume there. The wrapped Volume returns zero
// density outside its bounds. Panics if called on a surface instance.
func (inst *Instance) SampleVolume(time float64, worldP core.Vec3) float64 {
	if !inst.IsVolume() {
		panic("object: SampleVolume called on a surface instance")
	}
	objP := inst.WorldToObjectAt(time).TransformPoint(worldP)
	return inst.volume.Sample(objP)
}

func (inst *Instance) objectBounds() core.AABB {
	if inst.IsVolume() {
		return inst.volumeBounds
	}
	inst.surfaceAccel.Build()
	return inst.surfaceAccel.Bounds()
}

func cornersOf(b core.AABB) [8]core.Vec3 {
	return [8]core.Vec3{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

// transformRay maps ray into the space defined by m, applying m to the
// origin (translation included) and to the direction (translation
// excluded) without renormalizing. Skipping the renormalize keeps the ray
// parameter t identical between spaces: ray.At(t) in the mapped space
// equals m applied to the original ray.At(t). Only the returned shading
// normal is renormalized, on the way back out.
func transformRay(ray core.Ray, m core.Matrix4) core.Ray {
	return core.Ray{
		Origin:    m.TransformPoint(ray.Origin),
		Direction: m.TransformDirection(ray.Direction),
		TMin:      ray.TMin,
		TMax:      ray.TMax,
	}
}

// IntersectSurface transforms ray into this instance's object space at the
// given time, delegates to its surface accelerator, and transforms the
// result back to world space with the shading normal renormalized. Panics
// if called on a volume instance.
func (inst *Instance) IntersectSurface(time float64, ray core.Ray) (primset.Intersection, bool) {
	if inst.IsVolume() {
		panic("object: IntersectSurface called on a volume instance")
	}

	w2o := inst.WorldToObjectAt(time)
	localRay := transformRay(ray, w2o)

	hit, ok := inst.surfaceAccel.Intersect(time, localRay)
	if !ok {
		return primset.Intersection{}, false
	}

	o2w := inst.ObjectToWorldAt(time)
	hit.P = o2w.TransformPoint(hit.P)
	hit.N = o2w.TransformNormal(hit.N).Normalize()
	hit.DPds = o2w.TransformDirection(hit.DPds)
	hit.DPdt = o2w.TransformDirection(hit.DPdt)
	hit.Owner = inst
	return hit, true
}
