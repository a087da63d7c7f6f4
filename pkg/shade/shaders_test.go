package shade

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenray/lumen/pkg/accel"
	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/object"
	"github.com/lumenray/lumen/pkg/primset"
)

func TestConstantShaderIgnoresLights(t *testing.T) {
	s := ConstantShader{Color: core.NewVec3(0.2, 0.4, 0.6)}
	out := s.Evaluate(nil, core.SurfaceInput{})
	assert.Equal(t, core.NewVec3(0.2, 0.4, 0.6), out.Cs)
	assert.Equal(t, 1.0, out.Os)
}

func TestLambertShaderFacesLight(t *testing.T) {
	spheres := primset.NewSphereSet("sphere", []core.Vec3{{}}, []float64{1}, nil)
	bvh := accel.NewBVH(spheres)
	inst := object.NewSurfaceInstance("sphere", bvh)
	lambert := LambertShader{Diffuse: core.NewVec3(1, 1, 1)}
	inst.SetShader(lambert)

	light := &PointLight{P: core.NewVec3(0, 0, 10), Color: core.NewVec3(1, 1, 1), Intensity: 1}
	inst.SetLights([]core.Light{light})

	scene := object.NewGroup()
	scene.AddSurface(inst)

	cfg := DefaultConfig()
	cfg.CastShadow = false
	ctx := NewCameraContext(scene, []core.Light{light}, cfg, 0)

	// Shading point directly facing the light (+Z pole of the sphere).
	in := core.SurfaceInput{P: core.NewVec3(0, 0, 1), N: core.NewVec3(0, 0, 1), I: core.NewVec3(0, 0, -1), Object: inst}
	services := &shadingServices{ctx: ctx, shadedObject: inst}
	out := lambert.Evaluate(services, in)
	assert.Greater(t, out.Cs.X, 0.0)

	// Shading point facing away from the light (-Z pole) gets zero diffuse.
	inAway := core.SurfaceInput{P: core.NewVec3(0, 0, -1), N: core.NewVec3(0, 0, -1), I: core.NewVec3(0, 0, 1), Object: inst}
	outAway := lambert.Evaluate(services, inAway)
	assert.Equal(t, 0.0, outAway.Cs.X)
}
