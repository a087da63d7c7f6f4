package primset

import (
	"math"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/geomkernel"
)

// CurveSet is a PrimitiveSet over a batch of independent cubic Bézier
// segments (hair/fur strands): 4 control points and 2 endpoint widths per
// curve, with optional per-control-point color.
type CurveSet struct {
	name      string
	epsilon   float64 // flatness epsilon for split-depth computation
	points    [][4]core.Vec3
	widths    [][2]float64
	colors    [][4]core.Vec3 // per-control-point color; nil if unused
	bounds    core.AABB
	hasBounds bool
}

// NewCurveSet builds a CurveSet from per-curve control-point quads and
// width pairs. epsilon controls the Bézier subdivision flatness bound; it
// defaults to 1e-3, a typical screen-space tolerance.
func NewCurveSet(name string, points [][4]core.Vec3, widths [][2]float64, colors [][4]core.Vec3, epsilon float64) *CurveSet {
	if epsilon <= 0 {
		epsilon = 1e-3
	}
	return &CurveSet{name: name, epsilon: epsilon, points: points, widths: widths, colors: colors}
}

func (s *CurveSet) Name() string { return s.name }
func (s *CurveSet) Count() int   { return len(s.points) }

func (s *CurveSet) PrimitiveBounds(i int) core.AABB {
	cp := s.points[i]
	w := math.Max(s.widths[i][0], s.widths[i][1])
	pad := core.NewVec3(w, w, w)
	b := core.NewAABBFromPoints(cp[0], cp[1], cp[2], cp[3])
	return core.NewAABB(b.Min.Subtract(pad), b.Max.Add(pad))
}

func (s *CurveSet) Bounds() core.AABB {
	if !s.hasBounds {
		b := s.PrimitiveBounds(0)
		for i := 1; i < s.Count(); i++ {
			b = b.Union(s.PrimitiveBounds(i))
		}
		s.bounds = b
		s.hasBounds = true
	}
	return s.bounds
}

func (s *CurveSet) PrimitiveIntersect(i int, _ float64, ray core.Ray) (Intersection, bool) {
	var colors [4]core.Vec3
	hasColor := s.colors != nil
	if hasColor {
		colors = s.colors[i]
	}
	hit, ok := geomkernel.RayBezier(ray, s.points[i], s.widths[i], colors, hasColor, s.epsilon)
	if !ok {
		return Intersection{T: math.Inf(1)}, false
	}
	return Intersection{P: hit.P, N: hit.N, UV: core.NewVec2(0, hit.V), Cd: hit.Color, HasColor: hit.HasColor, PrimID: i, T: hit.T}, true
}
