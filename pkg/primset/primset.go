// Package primset defines the primitive-set contract that detaches
// accelerator code from geometry code: a named collection exposing count,
// aggregate bounds, per-primitive bounds, and per-primitive intersect. Any
// type satisfying PrimitiveSet is pluggable into pkg/accel's Grid or BVH;
// the accelerator never holds boxed shape values, only a PrimitiveSet plus
// integer ids.
package primset

import (
	"github.com/lumenray/lumen/pkg/core"
)

// Intersection is the result of intersecting one primitive, promoted to
// world space by the caller (pkg/object.Instance) once the primitive-set's
// own (typically object-space) intersect returns. T = +Inf on miss.
type Intersection struct {
	P, N     core.Vec3
	Cd       core.Vec3
	UV       core.Vec2
	DPds     core.Vec3
	DPdt     core.Vec3
	PrimID   int
	T        float64
	HasColor bool

	// Owner is the owning instance handle (a *pkg/object.Instance), set by
	// the instance layer on its way back to world space; nil for a raw
	// primitive-set query. PrimID stays the primitive's id within that
	// instance.
	Owner any
}

// PrimitiveSet is the contract every primitive collection implements.
// Implementations must be safe for concurrent read; mutating the
// underlying geometry after Bounds() has been called is undefined.
type PrimitiveSet interface {
	// Name identifies the set for diagnostics.
	Name() string
	// Count returns the number of primitives.
	Count() int
	// Bounds returns the aggregate bounds of every primitive.
	Bounds() core.AABB
	// PrimitiveBounds returns bounds that contain every point primitive i
	// may be hit at.
	PrimitiveBounds(i int) core.AABB
	// PrimitiveIntersect tests primitive i against ray at the given time.
	// Returns hit=false and an Intersection with T=+Inf on miss.
	PrimitiveIntersect(i int, time float64, ray core.Ray) (Intersection, bool)
}
