// Package geomkernel holds the pure ray-primitive intersection tests:
// ray-triangle, ray-sphere, ray-AABB, and ray-Bézier. Each kernel is a
// free function over plain core types, with no accelerator, primitive-set,
// or shading state.
package geomkernel

import (
	"math"

	"github.com/lumenray/lumen/pkg/core"
)

// Hit is the uniform result of every kernel in this package: parameter t,
// local shading data the caller (a primitive-set implementation) promotes
// into a full core.Intersection.
type Hit struct {
	T        float64
	P        core.Vec3
	N        core.Vec3
	U, V     float64 // barycentric / curve parameter, kernel-specific
	Color    core.Vec3
	HasColor bool
}

// RayTriangle implements Möller-Trumbore with selectable back-face culling
// and a 1e-6 epsilon for the determinant test.
func RayTriangle(ray core.Ray, v0, v1, v2 core.Vec3, cullBackface bool) (Hit, bool) {
	const eps = 1e-6

	edge1 := v1.Subtract(v0)
	edge2 := v2.Subtract(v0)

	h := ray.Direction.Cross(edge2)
	a := edge1.Dot(h)

	if cullBackface {
		if a < eps {
			return Hit{}, false
		}
	} else if a > -eps && a < eps {
		return Hit{}, false
	}

	f := 1.0 / a
	s := ray.Origin.Subtract(v0)
	u := f * s.Dot(h)
	if u < 0.0 || u > 1.0 {
		return Hit{}, false
	}

	q := s.Cross(edge1)
	v := f * ray.Direction.Dot(q)
	if v < 0.0 || u+v > 1.0 {
		return Hit{}, false
	}

	t := f * edge2.Dot(q)
	if t < ray.TMin || t > ray.TMax {
		return Hit{}, false
	}

	n := edge1.Cross(edge2).Normalize()
	return Hit{T: t, P: ray.At(t), N: n, U: u, V: v}, true
}

// RaySphere implements the standard quadratic sphere test, choosing the
// smallest root inside the ray's valid range; returns miss if neither root
// qualifies.
func RaySphere(ray core.Ray, center core.Vec3, radius float64) (Hit, bool) {
	oc := ray.Origin.Subtract(center)
	a := ray.Direction.LengthSquared()
	halfB := oc.Dot(ray.Direction)
	c := oc.LengthSquared() - radius*radius
	disc := halfB*halfB - a*c
	if disc < 0 {
		return Hit{}, false
	}
	sqrtDisc := math.Sqrt(disc)

	root := (-halfB - sqrtDisc) / a
	if root < ray.TMin || root > ray.TMax {
		root = (-halfB + sqrtDisc) / a
		if root < ray.TMin || root > ray.TMax {
			return Hit{}, false
		}
	}

	p := ray.At(root)
	n := p.Subtract(center).Multiply(1.0 / radius)
	u, v := sphereUV(n)
	return Hit{T: root, P: p, N: n, U: u, V: v}, true
}

func sphereUV(n core.Vec3) (u, v float64) {
	theta := math.Acos(-n.Y)
	phi := math.Atan2(-n.Z, n.X) + math.Pi
	return phi / (2 * math.Pi), theta / math.Pi
}

// RayAABB is the slab method, producing [tMin, tMax] of the hit interval;
// miss if disjoint from [ray.TMin, ray.TMax]. Forwards to
// core.AABB.HitRange so the grid, the BVH, and this kernel share one slab
// test.
func RayAABB(ray core.Ray, box core.AABB) (tMin, tMax float64, hit bool) {
	return box.HitRange(ray)
}

// bezier3 is a cubic Bézier curve segment with a linearly-varying width.
type bezier3 struct {
	cp    [4]core.Vec3
	width [2]float64
}

func evalBezier3(cp [4]core.Vec3, t float64) core.Vec3 {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	c := 3 * u * t * t
	d := t * t * t
	return cp[0].Multiply(a).Add(cp[1].Multiply(b)).Add(cp[2].Multiply(c)).Add(cp[3].Multiply(d))
}

func splitBezier3(b bezier3) (left, right bezier3) {
	p01 := mid(b.cp[0], b.cp[1])
	p12 := mid(b.cp[1], b.cp[2])
	p23 := mid(b.cp[2], b.cp[3])
	p012 := mid(p01, p12)
	p123 := mid(p12, p23)
	p0123 := mid(p012, p123)

	left = bezier3{cp: [4]core.Vec3{b.cp[0], p01, p012, p0123}, width: [2]float64{b.width[0], (b.width[0] + b.width[1]) / 2}}
	right = bezier3{cp: [4]core.Vec3{p0123, p123, p23, b.cp[3]}, width: [2]float64{(b.width[0] + b.width[1]) / 2, b.width[1]}}
	return
}

func mid(a, b core.Vec3) core.Vec3 { return a.Add(b).Multiply(0.5) }

func widthAt(b bezier3, t float64) float64 {
	return b.width[0]*(1-t) + b.width[1]*t
}

// splitDepthLimit derives a subdivision depth from the second-difference
// bound of the control polygon, clamped to [1, 5]. The flatness epsilon is
// a parameter because the core has no notion of screen resolution at the
// primitive level.
func splitDepthLimit(cp [4]core.Vec3, epsilon float64) int {
	l0 := secondDiff(cp[0], cp[1], cp[2])
	l1 := secondDiff(cp[1], cp[2], cp[3])
	lMax := math.Max(l0, l1)
	if lMax <= 0 {
		return 1
	}
	// Depth such that the flattening error is below epsilon: each
	// subdivision quarters the second-difference bound.
	depth := int(math.Ceil(math.Log(lMax/epsilon) / math.Log(4)))
	if depth < 1 {
		depth = 1
	}
	if depth > 5 {
		depth = 5
	}
	return depth
}

func secondDiff(a, b, c core.Vec3) float64 {
	d := a.Subtract(b.Multiply(2)).Add(c)
	return math.Max(math.Abs(d.X), math.Max(math.Abs(d.Y), math.Abs(d.Z)))
}

// RayBezier implements the Nakamaru-Ono ray/cubic-Bézier test: recursive
// De Casteljau subdivision to a depth derived from the control polygon's
// second-difference bound, then a closest-approach-to-ray-axis solve within
// the curve's width envelope at the leaf level. The distance-to-axis
// computation is frame-invariant, so no explicit world-to-ray rotation is
// built. Returns t, the curve parameter v in [0,1], and the interpolated
// color.
func RayBezier(ray core.Ray, controlPoints [4]core.Vec3, width [2]float64, colors [4]core.Vec3, hasColor bool, epsilon float64) (Hit, bool) {
	b := bezier3{cp: controlPoints, width: width}
	depth := splitDepthLimit(controlPoints, epsilon)

	best, ok := convergeBezier3(ray, b, 0, 1, depth)
	if !ok {
		return Hit{}, false
	}
	if best.T < ray.TMin || best.T > ray.TMax {
		return Hit{}, false
	}
	if hasColor {
		best.Color = interpColor(colors, best.V)
		best.HasColor = true
	}
	return best, true
}

func interpColor(c [4]core.Vec3, t float64) core.Vec3 {
	u := 1 - t
	return c[0].Multiply(u*u*u).Add(c[1].Multiply(3*u*u*t)).Add(c[2].Multiply(3*u*t*t)).Add(c[3].Multiply(t * t * t))
}

// convergeBezier3 recursively bisects [v0, vn] until depth reaches zero,
// then tests the leaf segment against the ray.
func convergeBezier3(ray core.Ray, b bezier3, v0, vn float64, depth int) (Hit, bool) {
	if depth <= 0 {
		return intersectLeafSegment(ray, b, v0, vn)
	}

	left, right := splitBezier3(b)
	vmid := (v0 + vn) / 2

	hitL, okL := convergeBezier3(ray, left, v0, vmid, depth-1)
	hitR, okR := convergeBezier3(ray, right, vmid, vn, depth-1)

	switch {
	case okL && okR:
		if hitL.T <= hitR.T {
			return hitL, true
		}
		return hitR, true
	case okL:
		return hitL, true
	case okR:
		return hitR, true
	default:
		return Hit{}, false
	}
}

// intersectLeafSegment treats the leaf Bézier segment as a chord from cp[0]
// to cp[3], finding the closest approach of the ray to that chord and
// accepting it when the distance is within the width linearly interpolated
// at that point of the chord.
func intersectLeafSegment(ray core.Ray, b bezier3, v0, vn float64) (Hit, bool) {
	p0, p1 := b.cp[0], b.cp[3]
	axis := p1.Subtract(p0)
	axisLen := axis.Length()
	if axisLen < 1e-12 {
		return Hit{}, false
	}
	axisDir := axis.Multiply(1 / axisLen)

	// Closest approach of two lines: ray(t) vs chord(s).
	w0 := ray.Origin.Subtract(p0)
	a := ray.Direction.Dot(ray.Direction)
	bb := ray.Direction.Dot(axisDir)
	c := axisDir.Dot(axisDir)
	d := ray.Direction.Dot(w0)
	e := axisDir.Dot(w0)
	denom := a*c - bb*bb
	if math.Abs(denom) < 1e-12 {
		return Hit{}, false
	}
	t := (bb*e - c*d) / denom
	s := (a*e - bb*d) / denom

	if s < 0 || s > axisLen {
		return Hit{}, false
	}
	if t < ray.TMin || t > ray.TMax {
		return Hit{}, false
	}

	rayP := ray.At(t)
	chordP := p0.Add(axisDir.Multiply(s))
	dist := rayP.Subtract(chordP).Length()

	vAt := v0 + (vn-v0)*(s/axisLen)
	if dist > widthAt(b, s/axisLen) {
		return Hit{}, false
	}

	n := rayP.Subtract(chordP).Normalize()
	return Hit{T: t, P: chordP, N: n, V: vAt}, true
}
