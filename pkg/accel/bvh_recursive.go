package accel

import (
	"math"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/primset"
)

// BVHRecursive is a recursive-traversal twin of BVH, built over the exact
// same tree shape, kept only for cross-checking the iterative traversal in
// tests. It is never used by the renderer.
type BVHRecursive struct {
	BVH
}

// NewBVHRecursive constructs (but does not build) a recursive-traversal
// BVH over prims.
func NewBVHRecursive(prims primset.PrimitiveSet) *BVHRecursive {
	return &BVHRecursive{BVH: BVH{prims: prims}}
}

// Intersect mirrors BVH.Intersect's semantics exactly, via unbounded
// recursion rather than an explicit stack.
func (b *BVHRecursive) Intersect(time float64, ray core.Ray) (primset.Intersection, bool) {
	b.Build()
	if b.tree.isEmpty() {
		return primset.Intersection{}, false
	}
	var best primset.Intersection
	found := false
	b.hitNode(0, time, &ray, &best, &found)
	return best, found
}

func (b *BVHRecursive) hitNode(idx int32, time float64, ray *core.Ray, best *primset.Intersection, found *bool) {
	n := b.tree.nodes[idx]
	if _, _, ok := n.bounds.HitRange(*ray); !ok {
		return
	}

	if n.right == -1 {
		hit, ok := b.prims.PrimitiveIntersect(n.primIdx, time, *ray)
		if !ok || hit.T < ray.TMin || hit.T > ray.TMax {
			return
		}
		if !*found || hit.T < best.T-tieBreakEps || (hit.T <= best.T+tieBreakEps && hit.PrimID < best.PrimID) {
			*best = hit
			*found = true
			ray.TMax = math.Min(hit.T+tieBreakEps, ray.TMax)
		}
		return
	}

	b.hitNode(n.left, time, ray, best, found)
	b.hitNode(n.right, time, ray, best, found)
}
