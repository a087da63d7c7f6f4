// Package accel implements two spatial accelerators over a
// pkg/primset.PrimitiveSet: a uniform grid walked by 3-D DDA and a
// bounding-volume hierarchy. One tree shape serves both the surface
// variant (leaf yields the closest primset.Intersection) and the volume
// variant (leaf pushes every overlapping core.Interval).
package accel

import (
	"sort"

	"github.com/lumenray/lumen/pkg/core"
)

// node is one entry of the flat, array-based BVH. Internal nodes index
// their children by offset into the same slice; a leaf (right == -1) holds
// exactly one primitive id in primIdx.
type node struct {
	bounds      core.AABB
	left, right int32 // child node indices; right == -1 for a leaf
	primIdx     int
}

// tree is the flat node array; index 0 is the root.
type tree struct {
	nodes []node
}

// buildInput is one primitive's centroid and bounds, the data the median
// split needs without re-querying the primitive set on every comparison.
type buildInput struct {
	id     int
	bounds core.AABB
	center core.Vec3
}

// buildTree builds by median split, cycling the split axis x, y, z with
// recursion depth. Centroid = 0.5*(bounds.min+bounds.max); the slice is
// sorted by centroid on the current axis and split at the upper median.
// Leaves always hold exactly one primitive.
func buildTree(items []buildInput) *tree {
	t := &tree{}
	if len(items) == 0 {
		return t
	}
	t.build(items, 0)
	return t
}

func (t *tree) build(items []buildInput, depth int) int32 {
	bounds := items[0].bounds
	for _, it := range items[1:] {
		bounds = bounds.Union(it.bounds)
	}

	if len(items) == 1 {
		idx := int32(len(t.nodes))
		t.nodes = append(t.nodes, node{bounds: bounds, left: -1, right: -1, primIdx: items[0].id})
		return idx
	}

	axis := depth % 3
	sort.Slice(items, func(i, j int) bool {
		return axisVal(items[i].center, axis) < axisVal(items[j].center, axis)
	})

	mid := (len(items) + 1) / 2 // ceil((0+len)/2) with 0-based half-open split
	left := items[:mid]
	right := items[mid:]

	idx := int32(len(t.nodes))
	t.nodes = append(t.nodes, node{bounds: bounds}) // placeholder, filled below
	leftIdx := t.build(left, depth+1)
	rightIdx := t.build(right, depth+1)
	t.nodes[idx].left = leftIdx
	t.nodes[idx].right = rightIdx
	return idx
}

func axisVal(v core.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func (t *tree) isEmpty() bool { return len(t.nodes) == 0 }

func (t *tree) rootBounds() core.AABB {
	if t.isEmpty() {
		return core.AABB{}
	}
	return t.nodes[0].bounds
}

// maxStackDepth bounds the explicit traversal stack. A depth-cycled
// median-split tree over any primitive count that fits in memory stays far
// under this; exceeding it is a programmer error, not a runtime condition.
const maxStackDepth = 64
