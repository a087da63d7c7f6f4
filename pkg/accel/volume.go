package accel

import (
	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/primset"
)

// VolumeEntry is one volumetric primitive: bounds plus an owner handle
// pushed onto a core.Interval when its bounds are hit. Unlike the surface
// PrimitiveSet, a volume leaf runs no geometric intersect; the accelerator
// only narrows down to the primitive's bounds interval along the ray, and
// the shading kernel samples density within that interval later.
type VolumeEntry struct {
	Bounds core.AABB
	Owner  any
}

// VolumeBVH shares BVH's tree shape, but every leaf whose bounds overlap
// the ray pushes an Interval to the caller-provided list instead of keeping
// only the closest hit; a single ray may accumulate many overlapping leaf
// intervals.
type VolumeBVH struct {
	tree    *tree
	entries []VolumeEntry
	built   bool
	bounds  core.AABB
}

// NewVolumeBVH constructs (but does not build) a volume BVH over entries.
func NewVolumeBVH(entries []VolumeEntry) *VolumeBVH {
	return &VolumeBVH{entries: entries}
}

// Build constructs the tree; idempotent.
func (v *VolumeBVH) Build() {
	if v.built {
		return
	}
	items := make([]buildInput, len(v.entries))
	for i, e := range v.entries {
		items[i] = buildInput{id: i, bounds: e.Bounds, center: e.Bounds.Center()}
	}
	if len(items) == 0 {
		v.tree = &tree{}
	} else {
		v.tree = buildTree(items)
		v.bounds = v.tree.rootBounds().Padded()
	}
	v.built = true
}

func (v *VolumeBVH) Bounds() core.AABB {
	if !v.built {
		panic("accel: VolumeBVH.Bounds called before Build")
	}
	return v.bounds
}

// Intersect walks every node whose bounds overlap the ray and, at leaves,
// pushes an Interval clipped to [ray.TMin, ray.TMax] onto list whenever
// that intersection is non-empty.
func (v *VolumeBVH) Intersect(ray core.Ray, list *core.IntervalList) {
	v.Build()
	if v.tree.isEmpty() {
		return
	}

	var stack [maxStackDepth]int32
	sp := 0
	stack[sp] = 0
	sp++

	for sp > 0 {
		sp--
		n := v.tree.nodes[stack[sp]]

		tMin, tMax, ok := n.bounds.HitRange(ray)
		if !ok {
			continue
		}

		if n.right == -1 {
			if tMin <= ray.TMax && tMax >= ray.TMin {
				lo, hi := tMin, tMax
				if lo < ray.TMin {
					lo = ray.TMin
				}
				if hi > ray.TMax {
					hi = ray.TMax
				}
				list.Push(core.Interval{TMin: lo, TMax: hi, Owner: v.entries[n.primIdx].Owner})
			}
			continue
		}

		if sp >= maxStackDepth-2 {
			panic("accel: VolumeBVH traversal stack overflow past depth 64")
		}
		stack[sp] = n.right
		sp++
		stack[sp] = n.left
		sp++
	}
}

// BruteForceVolume tests every volume entry's bounds directly with no
// tree, for small entry counts where a BVH isn't worth building.
type BruteForceVolume struct {
	entries []VolumeEntry
}

// NewBruteForceVolume builds a brute-force volume accelerator.
func NewBruteForceVolume(entries []VolumeEntry) *BruteForceVolume {
	return &BruteForceVolume{entries: entries}
}

func (bf *BruteForceVolume) Build() {}

func (bf *BruteForceVolume) Bounds() core.AABB {
	if len(bf.entries) == 0 {
		return core.AABB{}
	}
	b := bf.entries[0].Bounds
	for _, e := range bf.entries[1:] {
		b = b.Union(e.Bounds)
	}
	return b.Padded()
}

func (bf *BruteForceVolume) Intersect(ray core.Ray, list *core.IntervalList) {
	for _, e := range bf.entries {
		tMin, tMax, ok := e.Bounds.HitRange(ray)
		if !ok {
			continue
		}
		lo, hi := tMin, tMax
		if lo < ray.TMin {
			lo = ray.TMin
		}
		if hi > ray.TMax {
			hi = ray.TMax
		}
		if lo > hi {
			continue
		}
		list.Push(core.Interval{TMin: lo, TMax: hi, Owner: e.Owner})
	}
}

// VolumeAccelerator is the common interface pkg/object.Instance and
// pkg/shade's volume march code consume.
type VolumeAccelerator interface {
	Build()
	Bounds() core.AABB
	Intersect(ray core.Ray, list *core.IntervalList)
}

var (
	_ VolumeAccelerator = (*VolumeBVH)(nil)
	_ VolumeAccelerator = (*BruteForceVolume)(nil)
)

// Accelerator is the common interface for the surface accelerators.
type Accelerator interface {
	Build()
	Bounds() core.AABB
	Intersect(time float64, ray core.Ray) (primset.Intersection, bool)
}

var (
	_ Accelerator = (*BVH)(nil)
	_ Accelerator = (*Grid)(nil)
)
