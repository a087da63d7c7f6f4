package accel

import (
	"math"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/primset"
)

// BVH is the surface accelerator: a bounding-volume hierarchy over a
// primset.PrimitiveSet whose leaf query returns the closest
// primset.Intersection. Traversal is iterative with an explicit,
// depth-bounded stack; BVHRecursive keeps the recursive shape around for
// cross-checking in tests.
type BVH struct {
	tree   *tree
	prims  primset.PrimitiveSet
	built  bool
	bounds core.AABB
}

// NewBVH constructs (but does not build) a BVH over prims. Build happens
// on first Intersect call; pkg/object.Instance calls Build once at scene
// finalize time so no two goroutines race the lazy path.
func NewBVH(prims primset.PrimitiveSet) *BVH {
	return &BVH{prims: prims}
}

// Build constructs the tree. Safe to call multiple times; subsequent calls
// are no-ops. Not safe to call concurrently with Intersect from another
// goroutine on the same BVH; accelerators must be fully built before
// tracing starts.
func (b *BVH) Build() {
	if b.built {
		return
	}
	n := b.prims.Count()
	if n == 0 {
		b.tree = &tree{}
		b.built = true
		return
	}
	items := make([]buildInput, n)
	for i := 0; i < n; i++ {
		bounds := b.prims.PrimitiveBounds(i)
		items[i] = buildInput{id: i, bounds: bounds, center: bounds.Center()}
	}
	b.tree = buildTree(items)
	b.bounds = b.prims.Bounds().Padded()
	b.built = true
}

// Bounds returns the accelerator's padded aggregate bounds. Panics if
// called before Build; that ordering is the caller's invariant to keep.
func (b *BVH) Bounds() core.AABB {
	if !b.built {
		panic("accel: BVH.Bounds called before Build")
	}
	return b.bounds
}

// tieBreakEps is the tie-break tolerance: hits within this of each other
// in t are considered equal, and the smaller primitive index wins.
const tieBreakEps = 1e-6

// Intersect finds the closest-hit primitive, building the tree lazily on
// first use. Returns hit=false with an empty Intersection on a miss or an
// empty primitive set.
func (b *BVH) Intersect(time float64, ray core.Ray) (primset.Intersection, bool) {
	b.Build()
	if b.tree.isEmpty() {
		return primset.Intersection{}, false
	}

	type frame struct {
		nodeIdx int32
	}
	var stack [maxStackDepth]frame
	sp := 0

	if _, _, ok := b.tree.nodes[0].bounds.HitRange(ray); !ok {
		return primset.Intersection{}, false
	}
	stack[sp] = frame{nodeIdx: 0}
	sp++

	var best primset.Intersection
	found := false
	workRay := ray

	for sp > 0 {
		sp--
		n := b.tree.nodes[stack[sp].nodeIdx]

		if tMin, _, ok := n.bounds.HitRange(workRay); !ok {
			continue
		} else if found && tMin > best.T+tieBreakEps {
			// slab entry already past the current best hit
			continue
		}

		if n.right == -1 {
			hit, ok := b.prims.PrimitiveIntersect(n.primIdx, time, workRay)
			if !ok {
				continue
			}
			if hit.T < workRay.TMin || hit.T > workRay.TMax {
				continue
			}
			if !found || hit.T < best.T-tieBreakEps ||
				(hit.T <= best.T+tieBreakEps && hit.PrimID < best.PrimID) {
				best = hit
				found = true
				// keep hits up to tieBreakEps farther reachable for the tie-break
				workRay.TMax = math.Min(hit.T+tieBreakEps, workRay.TMax)
			}
			continue
		}

		if sp >= maxStackDepth-2 {
			panic("accel: BVH traversal stack overflow past depth 64")
		}
		stack[sp] = frame{nodeIdx: n.right}
		sp++
		stack[sp] = frame{nodeIdx: n.left}
		sp++
	}

	return best, found
}
