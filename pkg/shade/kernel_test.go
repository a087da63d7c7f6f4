package shade

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenray/lumen/pkg/accel"
	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/object"
	"github.com/lumenray/lumen/pkg/primset"
)

// sphereScene builds a one-instance scene: a unit sphere at the origin
// shaded with a constant white shader.
func sphereScene(t *testing.T) *object.Group {
	t.Helper()
	spheres := primset.NewSphereSet("sphere", []core.Vec3{{}}, []float64{1}, nil)
	bvh := accel.NewBVH(spheres)
	inst := object.NewSurfaceInstance("sphere", bvh)
	inst.SetShader(ConstantShader{Color: core.NewVec3(1, 1, 1)})

	scene := object.NewGroup()
	scene.AddSurface(inst)
	return scene
}

func TestTraceEmptySceneMisses(t *testing.T) {
	// Empty scene: any ray returns transparent black and no hit.
	scene := object.NewGroup()
	ctx := NewCameraContext(scene, nil, DefaultConfig(), 0)

	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	color, tHit := Trace(ctx, ray)

	assert.Equal(t, core.RGBA{}, color)
	assert.True(t, math.IsInf(tHit, 1))
}

func TestTraceSphereCenterHitsEdgeMisses(t *testing.T) {
	// A centre ray hits (alpha=1); a ray aimed well outside the sphere's
	// silhouette misses (alpha=0).
	scene := sphereScene(t)
	ctx := NewCameraContext(scene, nil, DefaultConfig(), 0)

	center, _ := Trace(ctx, core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1)))
	assert.InDelta(t, 1.0, center.A, 1e-9)

	corner, _ := Trace(ctx, core.NewRay(core.NewVec3(5, 5, 5), core.NewVec3(0, 0, -1)))
	assert.Equal(t, 0.0, corner.A)
}

func TestTraceNilShaderSentinel(t *testing.T) {
	// A hit instance with no shader returns the sentinel color
	// {0.5, 1.0, 0.0} with Os = 1.
	spheres := primset.NewSphereSet("sphere", []core.Vec3{{}}, []float64{1}, nil)
	bvh := accel.NewBVH(spheres)
	inst := object.NewSurfaceInstance("sphere", bvh)

	scene := object.NewGroup()
	scene.AddSurface(inst)
	ctx := NewCameraContext(scene, nil, DefaultConfig(), 0)

	color, _ := Trace(ctx, core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1)))
	assert.InDelta(t, 0.5, color.R, 1e-9)
	assert.InDelta(t, 1.0, color.G, 1e-9)
	assert.InDelta(t, 0.0, color.B, 1e-9)
	assert.InDelta(t, 1.0, color.A, 1e-9)
}

func TestTraceReflectDepthGate(t *testing.T) {
	// A Reflect context already past max depth returns transparent black
	// without querying the scene.
	scene := sphereScene(t)
	cfg := DefaultConfig()
	cfg.MaxReflectDepth = 0
	ctx := TraceContext{Kind: Reflect, ReflectDepth: 1, Config: cfg, Target: scene, Scene: scene}

	color, tHit := Trace(ctx, core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1)))
	assert.Equal(t, core.RGBA{}, color)
	assert.True(t, math.IsInf(tHit, 1))
}

func TestTraceUniformVolumeAlpha(t *testing.T) {
	// Uniform-density cubic volume [-1,1]^3, density 1, step 0.1, camera
	// ray through the centre: 20 steps of opacity 0.1 composite to
	// 1-(1-0.1)^20.
	bounds := core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
	vol := UniformVolume{Bounds: bounds, Density: 1}
	inst := object.NewVolumeInstance("vol", vol, bounds)

	scene := object.NewGroup()
	scene.AddVolume(inst)

	cfg := DefaultConfig()
	cfg.RaymarchStep = 0.1
	ctx := NewCameraContext(scene, nil, cfg, 0)

	ray := core.NewRayRange(core.NewVec3(0, 0, -2), core.NewVec3(0, 0, 1), 0, 4)
	color, _ := Trace(ctx, ray)

	want := 1 - math.Pow(1-0.1, 20)
	assert.InDelta(t, want, color.A, 1e-3)
}

func TestTraceShadowAttenuatesLight(t *testing.T) {
	// An occluder between a lit point and a point light should reduce the
	// light's contribution seen via Illuminate to (near) zero.
	occluderSpheres := primset.NewSphereSet("occluder", []core.Vec3{{X: 0, Y: 0, Z: 0}}, []float64{1}, nil)
	occluderBVH := accel.NewBVH(occluderSpheres)
	occluder := object.NewSurfaceInstance("occluder", occluderBVH)
	occluder.SetShader(ConstantShader{Color: core.NewVec3(1, 1, 1)})

	scene := object.NewGroup()
	scene.AddSurface(occluder)

	light := &PointLight{P: core.NewVec3(0, 0, -5), Color: core.NewVec3(1, 1, 1), Intensity: 1}

	cfg := DefaultConfig()
	ctx := NewCameraContext(scene, []core.Light{light}, cfg, 0)
	services := &shadingServices{ctx: ctx, shadedObject: occluder}

	samples := make([]core.LightSample, light.SampleCount())
	light.GenerateSamples(samples)

	shadingPoint := core.NewVec3(0, 0, 5)
	lit := services.Illuminate(light, samples[0], shadingPoint, core.NewVec3(0, 0, 1), -1, core.SurfaceInput{})
	assert.InDelta(t, 0, lit.Length(), 1e-6)
}

func TestTraceVolumeOverSurfaceComposite(t *testing.T) {
	// An opaque white surface at z=0 behind a volume two steps thick with
	// alpha 0.5 per step: the volume contributes 0.5 + 0.25 of its color,
	// the surface shows through the remaining 0.25, and total alpha is 1.
	positions := []core.Vec3{
		{X: -10, Y: -10}, {X: 10, Y: -10}, {X: 10, Y: 10},
		{X: -10, Y: -10}, {X: 10, Y: 10}, {X: -10, Y: 10},
	}
	surfSet, err := primset.NewTriangleSet("wall", positions, nil, nil, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	surf := object.NewSurfaceInstance("wall", accel.NewBVH(surfSet))
	surfColor := core.NewVec3(1, 1, 1)
	surf.SetShader(ConstantShader{Color: surfColor})

	volBounds := core.NewAABB(core.NewVec3(-1, -1, 0.6), core.NewVec3(1, 1, 0.8))
	volColor := core.NewVec3(0.2, 0.4, 0.8)
	vol := object.NewVolumeInstance("fog", UniformVolume{Bounds: volBounds, Density: 5}, volBounds)
	vol.SetShader(ConstantShader{Color: volColor})

	scene := object.NewGroup()
	scene.AddSurface(surf)
	scene.AddVolume(vol)

	cfg := DefaultConfig()
	cfg.RaymarchStep = 0.1 // alpha per step = 0.1 * 5 = 0.5
	ctx := NewCameraContext(scene, nil, cfg, 0)

	color, tHit := Trace(ctx, core.NewRay(core.NewVec3(0, 0, 1), core.NewVec3(0, 0, -1)))

	assert.InDelta(t, 1.0, tHit, 1e-9)
	assert.InDelta(t, 1.0, color.A, 1e-6)
	want := volColor.Multiply(0.75).Add(surfColor.Multiply(0.25))
	assert.InDelta(t, want.X, color.R, 1e-6)
	assert.InDelta(t, want.Y, color.G, 1e-6)
	assert.InDelta(t, want.Z, color.B, 1e-6)
}

func TestVolumeMarchZeroIterationsWhenDegenerate(t *testing.T) {
	// A volume entirely behind the ray's TMax marches zero steps and
	// contributes nothing.
	bounds := core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))
	inst := object.NewVolumeInstance("vol", UniformVolume{Bounds: bounds, Density: 1}, bounds)

	scene := object.NewGroup()
	scene.AddVolume(inst)
	ctx := NewCameraContext(scene, nil, DefaultConfig(), 0)

	// TMax stops the ray before it reaches the volume.
	ray := core.NewRayRange(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1), 0, 1)
	color, _ := Trace(ctx, ray)
	assert.Equal(t, core.RGBA{}, color)
}
