package geomkernel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenray/lumen/pkg/core"
)

func TestRayTriangleBasicHit(t *testing.T) {
	v0 := core.NewVec3(-1, -1, 0)
	v1 := core.NewVec3(1, -1, 0)
	v2 := core.NewVec3(0, 1, 0)
	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))

	hit, ok := RayTriangle(ray, v0, v1, v2, false)
	require.True(t, ok)
	assert.InDelta(t, 5.0, hit.T, 1e-9)
	assert.InDelta(t, 0.0, hit.P.X, 1e-9)
	assert.InDelta(t, 0.0, hit.P.Y, 1e-9)
}

func TestRayTriangleBackfaceCulling(t *testing.T) {
	// counter-clockwise as seen from +Z
	v0 := core.NewVec3(-1, -1, 0)
	v1 := core.NewVec3(1, -1, 0)
	v2 := core.NewVec3(0, 1, 0)

	front := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	_, okFront := RayTriangle(front, v0, v1, v2, true)
	assert.True(t, okFront)

	back := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, 1))
	_, okBack := RayTriangle(back, v0, v1, v2, true)
	assert.False(t, okBack)

	_, okBothSides := RayTriangle(back, v0, v1, v2, false)
	assert.True(t, okBothSides)
}

func TestSharedEdgeNeverMisses(t *testing.T) {
	// Two coplanar triangles sharing the edge x=0, y in [-1,1], z=0. The
	// kernel's inclusive barycentric bounds guarantee an orthographic ray
	// at or near the shared edge hits at least one of them; the
	// accelerator's tie-break reduces that to exactly one winner.
	left0 := core.NewVec3(-1, -1, 0)
	left1 := core.NewVec3(0, -1, 0)
	left2 := core.NewVec3(0, 1, 0)

	right0 := core.NewVec3(0, -1, 0)
	right1 := core.NewVec3(1, -1, 0)
	right2 := core.NewVec3(0, 1, 0)

	for _, dx := range []float64{-1e-6, 0, 1e-6} {
		ray := core.NewRay(core.NewVec3(dx, 0, 3), core.NewVec3(0, 0, -1))
		hitL, okL := RayTriangle(ray, left0, left1, left2, false)
		hitR, okR := RayTriangle(ray, right0, right1, right2, false)

		require.True(t, okL || okR, "ray offset %g returned miss", dx)
		if okL {
			assert.InDelta(t, 3.0, hitL.T, 1e-6)
		}
		if okR {
			assert.InDelta(t, 3.0, hitR.T, 1e-6)
		}
	}
}

func TestRaySphereRootSelection(t *testing.T) {
	center := core.NewVec3(0, 0, 0)

	// From outside: nearest root.
	outside := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	hit, ok := RaySphere(outside, center, 1)
	require.True(t, ok)
	assert.InDelta(t, 4.0, hit.T, 1e-9)

	// From inside: the negative root is skipped, the far root accepted.
	inside := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	hit, ok = RaySphere(inside, center, 1)
	require.True(t, ok)
	assert.InDelta(t, 1.0, hit.T, 1e-9)

	// Sphere entirely behind the origin: both roots negative, miss.
	behind := core.NewRay(core.NewVec3(0, 0, -5), core.NewVec3(0, 0, -1))
	_, ok = RaySphere(behind, center, 1)
	assert.False(t, ok)
}

func TestRayAABBInterval(t *testing.T) {
	box := core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))

	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	tMin, tMax, ok := RayAABB(ray, box)
	require.True(t, ok)
	assert.InDelta(t, 4.0, tMin, 1e-9)
	assert.InDelta(t, 6.0, tMax, 1e-9)

	// Disjoint from the ray's valid range.
	short := core.NewRayRange(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1), 0, 3)
	_, _, ok = RayAABB(short, box)
	assert.False(t, ok)
}

func TestRayAABBParallelRay(t *testing.T) {
	box := core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1))

	// Parallel to the Y and Z slabs, inside both: hits.
	inside := core.NewRay(core.NewVec3(-5, 0, 0), core.NewVec3(1, 0, 0))
	tMin, _, ok := RayAABB(inside, box)
	require.True(t, ok)
	assert.InDelta(t, 4.0, tMin, 1e-9)
	assert.False(t, math.IsNaN(tMin))

	// Parallel but outside the Y slab: misses.
	outside := core.NewRay(core.NewVec3(-5, 2, 0), core.NewVec3(1, 0, 0))
	_, _, ok = RayAABB(outside, box)
	assert.False(t, ok)
}

func TestRayBezierStraightSegment(t *testing.T) {
	// A straight "curve" along Y with constant width behaves like a thin
	// cylinder; a perpendicular ray through its middle hits.
	cp := [4]core.Vec3{
		core.NewVec3(0, -1, 0),
		core.NewVec3(0, -0.33, 0),
		core.NewVec3(0, 0.33, 0),
		core.NewVec3(0, 1, 0),
	}
	width := [2]float64{0.1, 0.1}

	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	hit, ok := RayBezier(ray, cp, width, [4]core.Vec3{}, false, 1e-3)
	require.True(t, ok)
	assert.InDelta(t, 5.0, hit.T, 0.15)
	assert.InDelta(t, 0.5, hit.V, 0.1)

	// A ray passing outside the width envelope misses.
	miss := core.NewRay(core.NewVec3(0.5, 0, 5), core.NewVec3(0, 0, -1))
	_, ok = RayBezier(miss, cp, width, [4]core.Vec3{}, false, 1e-3)
	assert.False(t, ok)
}

func TestRayBezierColorInterpolation(t *testing.T) {
	cp := [4]core.Vec3{
		core.NewVec3(0, -1, 0),
		core.NewVec3(0, -0.33, 0),
		core.NewVec3(0, 0.33, 0),
		core.NewVec3(0, 1, 0),
	}
	colors := [4]core.Vec3{
		core.NewVec3(1, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(1, 0, 0),
		core.NewVec3(1, 0, 0),
	}

	ray := core.NewRay(core.NewVec3(0, 0, 5), core.NewVec3(0, 0, -1))
	hit, ok := RayBezier(ray, cp, [2]float64{0.1, 0.1}, colors, true, 1e-3)
	require.True(t, ok)
	require.True(t, hit.HasColor)
	assert.InDelta(t, 1.0, hit.Color.X, 1e-6)
	assert.InDelta(t, 0.0, hit.Color.Y, 1e-6)
}

func TestSplitDepthLimitClamps(t *testing.T) {
	straight := [4]core.Vec3{{}, {X: 1}, {X: 2}, {X: 3}}
	assert.Equal(t, 1, splitDepthLimit(straight, 1e-3))

	wild := [4]core.Vec3{{}, {Y: 100}, {Y: -100}, {}}
	assert.Equal(t, 5, splitDepthLimit(wild, 1e-3))
}
