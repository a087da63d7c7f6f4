package primset

import (
	"math"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/geomkernel"
)

// SphereSet is a PrimitiveSet over a point cloud rendered as per-point
// spheres, one radius per point (or a single shared radius).
type SphereSet struct {
	name      string
	centers   []core.Vec3
	radii     []float64 // per-point; if len==1, every point shares it
	colors    []core.Vec3
	bounds    core.AABB
	hasBounds bool
}

// NewSphereSet builds a SphereSet. radii may have length 1 (uniform) or
// len(centers). colors may be nil.
func NewSphereSet(name string, centers []core.Vec3, radii []float64, colors []core.Vec3) *SphereSet {
	return &SphereSet{name: name, centers: centers, radii: radii, colors: colors}
}

func (s *SphereSet) Name() string { return s.name }
func (s *SphereSet) Count() int   { return len(s.centers) }

func (s *SphereSet) radius(i int) float64 {
	if len(s.radii) == 1 {
		return s.radii[0]
	}
	return s.radii[i]
}

func (s *SphereSet) PrimitiveBounds(i int) core.AABB {
	r := s.radius(i)
	c := s.centers[i]
	return core.NewAABB(c.Subtract(core.NewVec3(r, r, r)), c.Add(core.NewVec3(r, r, r)))
}

func (s *SphereSet) Bounds() core.AABB {
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

func (s *SphereSet) PrimitiveIntersect(i int, _ float64, ray core.Ray) (Intersection, bool) {
	hit, ok := geomkernel.RaySphere(ray, s.centers[i], s.radius(i))
	if !ok {
		return Intersection{T: math.Inf(1)}, false
	}
	var cd core.Vec3
	hasColor := s.colors != nil
	if hasColor {
		cd = s.colors[i]
	}
	return Intersection{P: hit.P, N: hit.N, UV: core.NewVec2(hit.U, hit.V), Cd: cd, HasColor: hasColor, PrimID: i, T: hit.T}, true
}
