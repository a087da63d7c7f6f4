package object

import (
	"sync"

	"github.com/lumenray/lumen/pkg/accel"
	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/primset"
)

// Intersection pairs a primset.Intersection with the Instance that
// produced it. The pairing lives here rather than on primset.Intersection
// so primset stays free of any object-package dependency.
type Intersection struct {
	primset.Intersection
	Instance *Instance
}

// Group aggregates instances into a traceable scene: two internal object
// lists (surfaces, volumes), each with its own top-level BVH accelerator.
//
// A Group with zero surface instances still satisfies IntersectSurface as
// an immediate miss, and symmetrically for volumes.
type Group struct {
	mu sync.Mutex

	surfaces []*Instance
	volumes  []*Instance

	once         sync.Once
	surfaceAccel *accel.BVH
	volumeAccel  *accel.VolumeBVH
}

// NewGroup returns an empty object group.
func NewGroup() *Group { return &Group{} }

// AddSurface pushes a surface instance to the group's surface list and
// invalidates the lazily-built top-level accelerator. Scene construction
// happens before any trace begins; adding instances concurrently with
// IntersectSurface is not supported.
func (g *Group) AddSurface(inst *Instance) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.surfaces = append(g.surfaces, inst)
	g.once = sync.Once{}
}

// AddVolume pushes a volume instance to the group's volume list, same
// invalidation semantics as AddSurface.
func (g *Group) AddVolume(inst *Instance) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.volumes = append(g.volumes, inst)
	g.once = sync.Once{}
}

// Surfaces/Volumes return the group's instance lists (read-only views for
// preprocessing steps like light collection).
func (g *Group) Surfaces() []*Instance { return g.surfaces }
func (g *Group) Volumes() []*Instance  { return g.volumes }

// Build constructs both top-level accelerators if not already built,
// guarded so concurrent callers block on the same build rather than
// racing. Safe and cheap to call more than once.
func (g *Group) Build() {
	g.once.Do(func() {
		g.surfaceAccel = accel.NewBVH(&instanceSurfaceSet{instances: g.surfaces})
		g.surfaceAccel.Build()

		entries := make([]accel.VolumeEntry, len(g.volumes))
		for i, inst := range g.volumes {
			entries[i] = accel.VolumeEntry{Bounds: inst.Bounds(), Owner: inst}
		}
		g.volumeAccel = accel.NewVolumeBVH(entries)
		g.volumeAccel.Build()
	})
}

// IntersectSurface builds the group's top-level surface accelerator on
// first call and finds the closest-hit instance, transforming the query
// into and the result out of that instance's object space internally
// (Instance.IntersectSurface). Returns a miss for an empty group.
func (g *Group) IntersectSurface(time float64, ray core.Ray) (Intersection, bool) {
	g.Build()
	if len(g.surfaces) == 0 {
		return Intersection{}, false
	}
	hit, ok := g.surfaceAccel.Intersect(time, ray)
	if !ok {
		return Intersection{}, false
	}
	inst, ok := hit.Owner.(*Instance)
	if !ok {
		return Intersection{}, false
	}
	return Intersection{Intersection: hit, Instance: inst}, true
}

// IntersectVolumes builds the group's top-level volume accelerator on
// first call and returns every overlapping interval along ray, each tagged
// with its owning *Instance. Overlap between intervals is preserved.
func (g *Group) IntersectVolumes(ray core.Ray) *core.IntervalList {
	g.Build()
	list := core.NewIntervalList()
	if len(g.volumes) == 0 {
		return list
	}
	g.volumeAccel.Intersect(ray, list)
	return list
}

// instanceSurfaceSet adapts a Group's surface-instance list to the
// primset.PrimitiveSet contract so the group's top-level structure reuses
// pkg/accel.BVH exactly as any other accelerator does; there is no
// separate top-level tree type. Each "primitive" is one instance, and
// PrimitiveIntersect performs the full per-instance
// transform/delegate/transform-back.
type instanceSurfaceSet struct {
	instances []*Instance
	bounds    core.AABB
	hasBounds bool
}

func (s *instanceSurfaceSet) Name() string { return "instances" }
func (s *instanceSurfaceSet) Count() int   { return len(s.instances) }

func (s *instanceSurfaceSet) Bounds() core.AABB {
	if !s.hasBounds {
		if len(s.instances) > 0 {
			b := s.instances[0].Bounds()
			for _, inst := range s.instances[1:] {
				b = b.Union(inst.Bounds())
			}
			s.bounds = b
		}
		s.hasBounds = true
	}
	return s.bounds
}

func (s *instanceSurfaceSet) PrimitiveBounds(i int) core.AABB {
	return s.instances[i].Bounds()
}

func (s *instanceSurfaceSet) PrimitiveIntersect(i int, time float64, ray core.Ray) (primset.Intersection, bool) {
	// PrimID stays the primitive's id within the instance; the instance
	// itself rides along in hit.Owner.
	return s.instances[i].IntersectSurface(time, ray)
}
