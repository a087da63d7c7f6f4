package accel

import (
	"math"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/primset"
)

// gridMaxCellsPerAxis clamps each axis's cell count, bounding the grid to
// at most 512^3 cells.
const gridMaxCellsPerAxis = 512

// Grid is the uniform-grid accelerator, walked by 3-D DDA over a
// primset.PrimitiveSet. Each cell holds the ids of the primitives whose
// bounds overlap it.
type Grid struct {
	prims    primset.PrimitiveSet
	built    bool
	bounds   core.AABB // padded aggregate bounds
	ncells   [3]int
	cellSize [3]float64
	cells    [][]int // flattened ncells[0]*ncells[1]*ncells[2], each a list of primitive ids
}

// NewGrid constructs (but does not build) a grid accelerator over prims.
func NewGrid(prims primset.PrimitiveSet) *Grid {
	return &Grid{prims: prims}
}

func (g *Grid) cellIndex(x, y, z int) int {
	return (z*g.ncells[1]+y)*g.ncells[0] + x
}

// Build pads the aggregate bounds, sizes the cells from the primitive
// count, and registers every primitive with each cell its bounds overlap.
func (g *Grid) Build() {
	if g.built {
		return
	}
	n := g.prims.Count()
	if n == 0 {
		g.bounds = core.AABB{}
		g.built = true
		return
	}

	// 1. Pad aggregate bounds by epsilon.
	g.bounds = g.prims.Bounds().Padded()
	size := g.bounds.Size()
	widths := [3]float64{size.X, size.Y, size.Z}

	// 2. Compute cell counts: 3 * N^(1/3) cells across the widest axis,
	// proportionally fewer across the others.
	base := 3.0 * math.Cbrt(float64(n))
	maxWidth := math.Max(widths[0], math.Max(widths[1], widths[2]))
	cellsPerUnit := base
	if maxWidth > 0 {
		cellsPerUnit = base / maxWidth
	}
	for axis := 0; axis < 3; axis++ {
		count := int(math.Round(widths[axis] * cellsPerUnit))
		if count < 1 {
			count = 1
		}
		if count > gridMaxCellsPerAxis {
			count = gridMaxCellsPerAxis
		}
		g.ncells[axis] = count
		g.cellSize[axis] = widths[axis] / float64(count)
	}

	g.cells = make([][]int, g.ncells[0]*g.ncells[1]*g.ncells[2])

	// 3. For each primitive, compute the half-open cell index range
	// (padded by epsilon/2) and register its id with each covered cell.
	for i := 0; i < n; i++ {
		pb := g.prims.PrimitiveBounds(i).Expand(core.BoundsPadding / 2)

		lo := g.cellCoord(pb.Min, false)
		hi := g.cellCoord(pb.Max, true)

		for z := lo[2]; z < hi[2]; z++ {
			for y := lo[1]; y < hi[1]; y++ {
				for x := lo[0]; x < hi[0]; x++ {
					idx := g.cellIndex(x, y, z)
					// Ascending id order; equal-t candidates resolve to
					// the smaller index during the cell scan.
					g.cells[idx] = append(g.cells[idx], i)
				}
			}
		}
	}

	g.built = true
}

// cellCoord maps a world point to cell-index space, clamped to [0, ncells].
// ceilSide rounds up (used for the high corner of a half-open range).
func (g *Grid) cellCoord(p core.Vec3, ceilSide bool) [3]int {
	var out [3]int
	coords := [3]float64{p.X - g.bounds.Min.X, p.Y - g.bounds.Min.Y, p.Z - g.bounds.Min.Z}
	for axis := 0; axis < 3; axis++ {
		var c int
		if ceilSide {
			c = int(math.Ceil(coords[axis] / g.cellSize[axis]))
		} else {
			c = int(math.Floor(coords[axis] / g.cellSize[axis]))
		}
		if c < 0 {
			c = 0
		}
		if c > g.ncells[axis] {
			c = g.ncells[axis]
		}
		out[axis] = c
	}
	return out
}

func (g *Grid) Bounds() core.AABB {
	if !g.built {
		panic("accel: Grid.Bounds called before Build")
	}
	return g.bounds
}

// Intersect walks the grid with a 3-D DDA, accepting only a candidate
// whose hit point lies inside the cell currently being scanned, which
// guards against counting hits from primitives that also overlap a later
// cell along the ray.
func (g *Grid) Intersect(time float64, ray core.Ray) (primset.Intersection, bool) {
	g.Build()
	if len(g.cells) == 0 {
		return primset.Intersection{}, false
	}

	boxTMin, boxTMax, hit := g.bounds.HitRange(ray)
	if !hit {
		return primset.Intersection{}, false
	}
	tEnd := math.Min(boxTMax, ray.TMax)

	// Entry point: ray origin if inside bounds, else advance to the slab
	// min. start always sits at parameter tStart so the boundary-crossing
	// terms below stay absolute t values.
	tStart := 0.0
	start := ray.Origin
	if !g.bounds.ContainsPoint(ray.Origin) {
		tStart = math.Max(boxTMin, ray.TMin)
		start = ray.At(tStart)
	} else if ray.TMin > 0 {
		tStart = ray.TMin
		start = ray.At(tStart)
	}

	var cellID [3]int
	var tNext, tDelta [3]float64
	var step [3]int
	var cellEnd [3]int

	for axis := 0; axis < 3; axis++ {
		coord := axisVal(start, axis) - axisVal(g.bounds.Min, axis)
		id := int(math.Floor(coord / g.cellSize[axis]))
		if id < 0 {
			id = 0
		}
		if id > g.ncells[axis]-1 {
			id = g.ncells[axis] - 1
		}
		cellID[axis] = id

		dir := axisVal(ray.Direction, axis)
		switch {
		case dir > 0:
			cellMax := axisVal(g.bounds.Min, axis) + float64(id+1)*g.cellSize[axis]
			tNext[axis] = tStart + (cellMax-axisVal(start, axis))/dir
			tDelta[axis] = g.cellSize[axis] / dir
			step[axis] = 1
			cellEnd[axis] = g.ncells[axis]
		case dir < 0:
			cellMin := axisVal(g.bounds.Min, axis) + float64(id)*g.cellSize[axis]
			tNext[axis] = tStart + (cellMin-axisVal(start, axis))/dir
			tDelta[axis] = g.cellSize[axis] / -dir
			step[axis] = -1
			cellEnd[axis] = -1
		default:
			tNext[axis] = math.MaxFloat64
			tDelta[axis] = 0
			step[axis] = 0
			cellEnd[axis] = -1
		}
	}

	for {
		idx := g.cellIndex(cellID[0], cellID[1], cellID[2])
		if prims := g.cells[idx]; len(prims) > 0 {
			cellBox := g.cellBounds(cellID)
			var best primset.Intersection
			found := false
			for _, primID := range prims {
				h, ok := g.prims.PrimitiveIntersect(primID, time, ray)
				if !ok || h.T < ray.TMin || h.T > ray.TMax {
					continue
				}
				if !cellBox.ContainsPoint(h.P) {
					continue
				}
				if !found || h.T < best.T {
					best = h
					found = true
				}
			}
			if found {
				return best, true
			}
		}

		// Advance to the axis with the smallest t_next.
		axis := 0
		if tNext[1] < tNext[axis] {
			axis = 1
		}
		if tNext[2] < tNext[axis] {
			axis = 2
		}

		if tEnd < tNext[axis] {
			return primset.Intersection{}, false
		}

		cellID[axis] += step[axis]
		if cellID[axis] == cellEnd[axis] {
			return primset.Intersection{}, false
		}
		tNext[axis] += tDelta[axis]
	}
}

func (g *Grid) cellBounds(cellID [3]int) core.AABB {
	min := core.Vec3{
		X: g.bounds.Min.X + float64(cellID[0])*g.cellSize[0],
		Y: g.bounds.Min.Y + float64(cellID[1])*g.cellSize[1],
		Z: g.bounds.Min.Z + float64(cellID[2])*g.cellSize[2],
	}
	max := core.Vec3{
		X: min.X + g.cellSize[0],
		Y: min.Y + g.cellSize[1],
		Z: min.Z + g.cellSize[2],
	}
	return core.AABB{Min: min, Max: max}
}
