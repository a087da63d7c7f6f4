package accel

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/primset"
)

// boxSet is a test PrimitiveSet of axis-aligned unit-ish cubes whose
// intersect is the shared slab test, giving an exact analytic reference.
type boxSet struct {
	boxes []core.AABB
}

func (s *boxSet) Name() string { return "boxes" }
func (s *boxSet) Count() int   { return len(s.boxes) }

func (s *boxSet) Bounds() core.AABB {
	b := s.boxes[0]
	for _, box := range s.boxes[1:] {
		b = b.Union(box)
	}
	return b
}

func (s *boxSet) PrimitiveBounds(i int) core.AABB { return s.boxes[i] }

func (s *boxSet) PrimitiveIntersect(i int, _ float64, ray core.Ray) (primset.Intersection, bool) {
	tMin, _, ok := s.boxes[i].HitRange(ray)
	if !ok {
		return primset.Intersection{T: math.Inf(1)}, false
	}
	return primset.Intersection{P: ray.At(tMin), N: core.NewVec3(0, 1, 0), PrimID: i, T: tMin}, true
}

// bruteForceClosest is the linear-scan reference the accelerators are
// checked against.
func bruteForceClosest(s *boxSet, ray core.Ray) (primset.Intersection, bool) {
	var best primset.Intersection
	found := false
	for i := range s.boxes {
		hit, ok := s.PrimitiveIntersect(i, 0, ray)
		if !ok || hit.T < ray.TMin || hit.T > ray.TMax {
			continue
		}
		if !found || hit.T < best.T-1e-6 || (hit.T <= best.T+1e-6 && hit.PrimID < best.PrimID) {
			best = hit
			found = true
		}
	}
	return best, found
}

func randomBoxSet(rng *rand.Rand, n int) *boxSet {
	boxes := make([]core.AABB, n)
	for i := range boxes {
		c := core.NewVec3(rng.Float64()*40-20, rng.Float64()*40-20, rng.Float64()*40-20)
		half := 0.5
		boxes[i] = core.NewAABB(
			c.Subtract(core.NewVec3(half, half, half)),
			c.Add(core.NewVec3(half, half, half)),
		)
	}
	return &boxSet{boxes: boxes}
}

func randomRay(rng *rand.Rand) core.Ray {
	origin := core.NewVec3(rng.Float64()*80-40, rng.Float64()*80-40, rng.Float64()*80-40)
	dir := core.NewVec3(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1)
	for dir.Length() < 1e-6 {
		dir = core.NewVec3(rng.Float64()*2-1, rng.Float64()*2-1, rng.Float64()*2-1)
	}
	return core.NewRay(origin, dir.Normalize())
}

func TestBVHMatchesBruteForceOnRandomScene(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	set := randomBoxSet(rng, 10000)
	bvh := NewBVH(set)
	bvh.Build()

	for i := 0; i < 1000; i++ {
		ray := randomRay(rng)
		want, wantHit := bruteForceClosest(set, ray)
		got, gotHit := bvh.Intersect(0, ray)

		require.Equal(t, wantHit, gotHit, "ray %d hit mismatch", i)
		if wantHit {
			assert.Equal(t, want.PrimID, got.PrimID, "ray %d prim mismatch", i)
			assert.InDelta(t, want.T, got.T, 1e-6, "ray %d t mismatch", i)
		}
	}
}

func TestGridMatchesBruteForceOnRandomScene(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	set := randomBoxSet(rng, 2000)
	grid := NewGrid(set)
	grid.Build()

	for i := 0; i < 500; i++ {
		ray := randomRay(rng)
		want, wantHit := bruteForceClosest(set, ray)
		got, gotHit := grid.Intersect(0, ray)

		require.Equal(t, wantHit, gotHit, "ray %d hit mismatch", i)
		if wantHit {
			assert.InDelta(t, want.T, got.T, 1e-6, "ray %d t mismatch", i)
		}
	}
}

func TestIterativeAndRecursiveBVHAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	set := randomBoxSet(rng, 500)
	iter := NewBVH(set)
	rec := NewBVHRecursive(set)

	for i := 0; i < 200; i++ {
		ray := randomRay(rng)
		a, aHit := iter.Intersect(0, ray)
		b, bHit := rec.Intersect(0, ray)

		require.Equal(t, aHit, bHit, "ray %d", i)
		if aHit {
			assert.Equal(t, a.PrimID, b.PrimID, "ray %d", i)
			assert.InDelta(t, a.T, b.T, 1e-9, "ray %d", i)
		}
	}
}

func TestBVHTraverseTwiceIsIdentical(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	set := randomBoxSet(rng, 100)
	bvh := NewBVH(set)
	ray := core.NewRay(core.NewVec3(-50, 0, 0), core.NewVec3(1, 0, 0))

	first, firstHit := bvh.Intersect(0, ray)
	second, secondHit := bvh.Intersect(0, ray)
	assert.Equal(t, firstHit, secondHit)
	assert.Equal(t, first, second)
}

func TestEmptyPrimitiveSetIsImmediateMiss(t *testing.T) {
	set := &boxSet{}
	// Bounds() would panic on an empty boxSet; the accelerators must miss
	// without ever asking.
	bvh := &BVH{prims: set}
	_, hit := bvh.Intersect(0, core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)))
	assert.False(t, hit)

	grid := &Grid{prims: set}
	_, hit = grid.Intersect(0, core.NewRay(core.Vec3{}, core.NewVec3(0, 0, 1)))
	assert.False(t, hit)
}

func TestGridRayStartingInsideBounds(t *testing.T) {
	set := &boxSet{boxes: []core.AABB{
		core.NewAABB(core.NewVec3(2, -1, -1), core.NewVec3(4, 1, 1)),
		core.NewAABB(core.NewVec3(-4, -1, -1), core.NewVec3(-2, 1, 1)),
	}}
	grid := NewGrid(set)

	// Origin inside the aggregate bounds, aimed at the +X box.
	hit, ok := grid.Intersect(0, core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0)))
	require.True(t, ok)
	assert.Equal(t, 0, hit.PrimID)
	assert.InDelta(t, 2.0, hit.T, 1e-6)
}

func TestGridRayParallelToSlab(t *testing.T) {
	set := &boxSet{boxes: []core.AABB{
		core.NewAABB(core.NewVec3(-1, -1, -1), core.NewVec3(1, 1, 1)),
	}}
	grid := NewGrid(set)

	// Direction has a zero Y and Z component; the DDA must not divide by
	// zero and still finds the box.
	hit, ok := grid.Intersect(0, core.NewRay(core.NewVec3(-5, 0, 0), core.NewVec3(1, 0, 0)))
	require.True(t, ok)
	assert.InDelta(t, 4.0, hit.T, 1e-3)

	// Parallel ray outside the slab misses.
	_, ok = grid.Intersect(0, core.NewRay(core.NewVec3(-5, 3, 0), core.NewVec3(1, 0, 0)))
	assert.False(t, ok)
}

func TestVolumeBVHCollectsOverlappingIntervals(t *testing.T) {
	entries := []VolumeEntry{
		{Bounds: core.NewAABB(core.NewVec3(1, -1, -1), core.NewVec3(3, 1, 1)), Owner: "a"},
		{Bounds: core.NewAABB(core.NewVec3(2, -1, -1), core.NewVec3(5, 1, 1)), Owner: "b"},
		{Bounds: core.NewAABB(core.NewVec3(8, -1, -1), core.NewVec3(9, 1, 1)), Owner: "c"},
	}
	vbvh := NewVolumeBVH(entries)

	list := core.NewIntervalList()
	vbvh.Intersect(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0)), list)

	require.Equal(t, 3, list.Count())
	items := list.Items()
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].TMin, items[i].TMin, "intervals sorted on TMin")
	}
	assert.InDelta(t, 1.0, list.MinT(), 1e-3)
	assert.InDelta(t, 9.0, list.MaxT(), 1e-3)

	// overlap between a and b is preserved, not merged
	assert.Equal(t, "a", items[0].Owner)
	assert.Equal(t, "b", items[1].Owner)
}

func TestVolumeBVHAndBruteForceAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	entries := make([]VolumeEntry, 50)
	for i := range entries {
		c := core.NewVec3(rng.Float64()*20-10, rng.Float64()*20-10, rng.Float64()*20-10)
		entries[i] = VolumeEntry{
			Bounds: core.NewAABB(c.Subtract(core.NewVec3(1, 1, 1)), c.Add(core.NewVec3(1, 1, 1))),
			Owner:  i,
		}
	}

	vbvh := NewVolumeBVH(entries)
	brute := NewBruteForceVolume(entries)

	for i := 0; i < 100; i++ {
		ray := randomRay(rng)
		a := core.NewIntervalList()
		b := core.NewIntervalList()
		vbvh.Intersect(ray, a)
		brute.Intersect(ray, b)

		require.Equal(t, b.Count(), a.Count(), "ray %d interval count", i)
		if a.Count() > 0 {
			assert.InDelta(t, b.MinT(), a.MinT(), 1e-9, "ray %d", i)
			assert.InDelta(t, b.MaxT(), a.MaxT(), 1e-9, "ray %d", i)
		}
	}
}

func TestGridCellsContainOnlyOverlappingPrimitives(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	set := randomBoxSet(rng, 200)
	grid := NewGrid(set)
	grid.Build()

	for z := 0; z < grid.ncells[2]; z++ {
		for y := 0; y < grid.ncells[1]; y++ {
			for x := 0; x < grid.ncells[0]; x++ {
				cellBox := grid.cellBounds([3]int{x, y, z}).Expand(core.BoundsPadding)
				for _, id := range grid.cells[grid.cellIndex(x, y, z)] {
					pb := set.PrimitiveBounds(id)
					overlaps := pb.Min.X <= cellBox.Max.X && pb.Max.X >= cellBox.Min.X &&
						pb.Min.Y <= cellBox.Max.Y && pb.Max.Y >= cellBox.Min.Y &&
						pb.Min.Z <= cellBox.Max.Z && pb.Max.Z >= cellBox.Min.Z
					assert.True(t, overlaps, "cell (%d,%d,%d) holds non-overlapping prim %d", x, y, z, id)
				}
			}
		}
	}
}

func TestSharedEdgeReportsExactlyOneTriangle(t *testing.T) {
	// Two coplanar triangles sharing the edge x=0, y in [-1,1]. A ray
	// aimed at the edge midpoint hits both at the same t; the tie-break
	// reports exactly one winner, the smaller primitive index.
	positions := []core.Vec3{
		{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 0, Y: 1},
		{X: 0, Y: -1}, {X: 1, Y: -1}, {X: 0, Y: 1},
	}
	set, err := primset.NewTriangleSet("edge", positions, nil, nil, nil, false)
	require.NoError(t, err)
	bvh := NewBVH(set)

	ray := core.NewRay(core.NewVec3(0, 0, 3), core.NewVec3(0, 0, -1))
	hit, ok := bvh.Intersect(0, ray)
	require.True(t, ok)
	assert.Equal(t, 0, hit.PrimID)
	assert.InDelta(t, 3.0, hit.T, 1e-6)

	// No ray within 1e-6 of the edge returns a miss.
	for _, dx := range []float64{-1e-6, 1e-6} {
		offRay := core.NewRay(core.NewVec3(dx, 0, 3), core.NewVec3(0, 0, -1))
		_, ok := bvh.Intersect(0, offRay)
		assert.True(t, ok, "ray offset %g missed", dx)
	}
}
