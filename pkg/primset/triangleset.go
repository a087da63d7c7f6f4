package primset

import (
	"fmt"
	"math"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/geomkernel"
)

// TriangleSet is a PrimitiveSet over a triangle soup. It carries no
// spatial index of its own; the owning pkg/object.Instance builds one
// pkg/accel structure over the whole set.
type TriangleSet struct {
	name      string
	positions []core.Vec3 // flattened, 3 per triangle
	normals   []core.Vec3 // optional, 3 per triangle; nil if absent
	uvs       []core.Vec2 // optional, 3 per triangle; nil if absent
	colors    []core.Vec3 // optional, 3 per triangle; nil if absent
	cullBack  bool
	bounds    core.AABB
	hasBounds bool
}

// NewTriangleSet builds a TriangleSet from a flat, 3-per-triangle vertex
// list. normals/uvs/colors may be nil.
func NewTriangleSet(name string, positions []core.Vec3, normals []core.Vec3, uvs []core.Vec2, colors []core.Vec3, cullBackface bool) (*TriangleSet, error) {
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("primset: triangle set %q: positions length %d not a multiple of 3", name, len(positions))
	}
	if normals != nil && len(normals) != len(positions) {
		return nil, fmt.Errorf("primset: triangle set %q: normals count mismatch", name)
	}
	if uvs != nil && len(uvs) != len(positions) {
		return nil, fmt.Errorf("primset: triangle set %q: uv count mismatch", name)
	}
	if colors != nil && len(colors) != len(positions) {
		return nil, fmt.Errorf("primset: triangle set %q: color count mismatch", name)
	}
	return &TriangleSet{name: name, positions: positions, normals: normals, uvs: uvs, colors: colors, cullBack: cullBackface}, nil
}

func (s *TriangleSet) Name() string { return s.name }

func (s *TriangleSet) Count() int { return len(s.positions) / 3 }

func (s *TriangleSet) Bounds() core.AABB {
	if !s.hasBounds {
		n := s.Count()
		b := s.PrimitiveBounds(0)
		for i := 1; i < n; i++ {
			b = b.Union(s.PrimitiveBounds(i))
		}
		s.bounds = b
		s.hasBounds = true
	}
	return s.bounds
}

func (s *TriangleSet) verts(i int) (v0, v1, v2 core.Vec3) {
	base := i * 3
	return s.positions[base], s.positions[base+1], s.positions[base+2]
}

func (s *TriangleSet) PrimitiveBounds(i int) core.AABB {
	v0, v1, v2 := s.verts(i)
	return core.NewAABBFromPoints(v0, v1, v2)
}

func (s *TriangleSet) PrimitiveIntersect(i int, _ float64, ray core.Ray) (Intersection, bool) {
	v0, v1, v2 := s.verts(i)
	hit, ok := geomkernel.RayTriangle(ray, v0, v1, v2, s.cullBack)
	if !ok {
		return Intersection{T: math.Inf(1)}, false
	}

	n := hit.N
	base := i * 3
	if s.normals != nil {
		w := 1 - hit.U - hit.V
		n = s.normals[base].Multiply(w).Add(s.normals[base+1].Multiply(hit.U)).Add(s.normals[base+2].Multiply(hit.V)).Normalize()
	}

	uv := core.NewVec2(hit.U, hit.V)
	if s.uvs != nil {
		w := 1 - hit.U - hit.V
		uv = s.uvs[base].Multiply(w).Add(s.uvs[base+1].Multiply(hit.U)).Add(s.uvs[base+2].Multiply(hit.V))
	}

	var cd core.Vec3
	hasColor := false
	if s.colors != nil {
		w := 1 - hit.U - hit.V
		cd = s.colors[base].Multiply(w).Add(s.colors[base+1].Multiply(hit.U)).Add(s.colors[base+2].Multiply(hit.V))
		hasColor = true
	}

	return Intersection{
		P: hit.P, N: n, Cd: cd, UV: uv,
		DPds: v1.Subtract(v0), DPdt: v2.Subtract(v0),
		PrimID: i, T: hit.T, HasColor: hasColor,
	}, true
}
