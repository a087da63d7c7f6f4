package core

import "math"

// BoundsPadding is the fixed epsilon every box is expanded by before a ray
// test, guarding against floating-point misses at shared edges.
const BoundsPadding = 1e-4

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points
func NewAABB(min, max Vec3) AABB {
	return AABB{Min: min, Max: max}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}

	min := points[0]
	max := points[0]

	for _, point := range points[1:] {
		min.X = math.Min(min.X, point.X)
		min.Y = math.Min(min.Y, point.Y)
		min.Z = math.Min(min.Z, point.Z)

		max.X = math.Max(max.X, point.X)
		max.Y = math.Max(max.Y, point.Y)
		max.Z = math.Max(max.Z, point.Z)
	}

	return AABB{Min: min, Max: max}
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	min := Vec3{
		X: math.Min(aabb.Min.X, other.Min.X),
		Y: math.Min(aabb.Min.Y, other.Min.Y),
		Z: math.Min(aabb.Min.Z, other.Min.Z),
	}
	max := Vec3{
		X: math.Max(aabb.Max.X, other.Max.X),
		Y: math.Max(aabb.Max.Y, other.Max.Y),
		Z: math.Max(aabb.Max.Z, other.Max.Z),
	}
	return AABB{Min: min, Max: max}
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Size returns the size (extent) of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// IsValid returns true if this is a valid AABB (min <= max for all axes)
func (aabb AABB) IsValid() bool {
	return aabb.Min.X <= aabb.Max.X &&
		aabb.Min.Y <= aabb.Max.Y &&
		aabb.Min.Z <= aabb.Max.Z
}

// Expand returns an AABB expanded by the given amount in all directions
func (aabb AABB) Expand(amount float64) AABB {
	expansion := NewVec3(amount, amount, amount)
	return AABB{
		Min: aabb.Min.Subtract(expansion),
		Max: aabb.Max.Add(expansion),
	}
}

// Padded returns the box expanded by the standard BoundsPadding on every
// side; accelerators pad their aggregate bounds with this before any ray
// test.
func (aabb AABB) Padded() AABB {
	return aabb.Expand(BoundsPadding)
}

// AddPoint grows the box to contain point.
func (aabb AABB) AddPoint(point Vec3) AABB {
	return aabb.Union(AABB{Min: point, Max: point})
}

// ContainsPoint reports whether point lies within the box (inclusive).
// The grid accelerator's DDA uses this to accept only hits whose point
// lies in the current cell.
func (aabb AABB) ContainsPoint(p Vec3) bool {
	return p.X >= aabb.Min.X && p.X <= aabb.Max.X &&
		p.Y >= aabb.Min.Y && p.Y <= aabb.Max.Y &&
		p.Z >= aabb.Min.Z && p.Z <= aabb.Max.Z
}

// HitRange is the slab test used by the grid and BVH accelerators: it
// reports the hit interval [tMin, tMax] rather than just a boolean, needed
// to compute DDA entry points and BVH child-pruning. Slab order per axis
// is resolved by branching on the direction sign rather than swapping.
func (aabb AABB) HitRange(ray Ray) (tMin, tMax float64, hit bool) {
	tMin, tMax = ray.TMin, ray.TMax

	hitAxis := func(lo, hi, origin, dir float64) (float64, float64) {
		if dir >= 0 {
			return (lo - origin) / dir, (hi - origin) / dir
		}
		return (hi - origin) / dir, (lo - origin) / dir
	}

	txMin, txMax := hitAxis(aabb.Min.X, aabb.Max.X, ray.Origin.X, ray.Direction.X)
	if txMin > tMax || txMax < tMin {
		return 0, 0, false
	}
	tMin = math.Max(tMin, txMin)
	tMax = math.Min(tMax, txMax)

	tyMin, tyMax := hitAxis(aabb.Min.Y, aabb.Max.Y, ray.Origin.Y, ray.Direction.Y)
	if tMin > tyMax || tyMin > tMax {
		return 0, 0, false
	}
	tMin = math.Max(tMin, tyMin)
	tMax = math.Min(tMax, tyMax)

	tzMin, tzMax := hitAxis(aabb.Min.Z, aabb.Max.Z, ray.Origin.Z, ray.Direction.Z)
	if tMin > tzMax || tzMin > tMax {
		return 0, 0, false
	}
	tMin = math.Max(tMin, tzMin)
	tMax = math.Min(tMax, tzMax)

	return tMin, tMax, true
}
