package shade

import (
	"math"

	"github.com/lumenray/lumen/pkg/core"
)

// UniformVolume is a constant-density volume filling an axis-aligned box in
// object space, zero outside it.
type UniformVolume struct {
	Bounds  core.AABB
	Density float64
}

var _ core.Volume = UniformVolume{}

func (v UniformVolume) Sample(p core.Vec3) float64 {
	if !v.Bounds.ContainsPoint(p) {
		return 0
	}
	return v.Density
}

// VoxelVolume is a dense voxel buffer over an axis-aligned box in object
// space. Sample interpolates trilinearly between the eight surrounding
// voxel centers and returns zero outside the bounds.
type VoxelVolume struct {
	Bounds     core.AABB
	NX, NY, NZ int
	Data       []float32 // len NX*NY*NZ, x-fastest
}

var _ core.Volume = (*VoxelVolume)(nil)

// NewVoxelVolume allocates a zero-filled voxel buffer.
func NewVoxelVolume(bounds core.AABB, nx, ny, nz int) *VoxelVolume {
	return &VoxelVolume{Bounds: bounds, NX: nx, NY: ny, NZ: nz, Data: make([]float32, nx*ny*nz)}
}

// Set writes one voxel; indices outside the buffer are ignored.
func (v *VoxelVolume) Set(x, y, z int, value float64) {
	if x < 0 || x >= v.NX || y < 0 || y >= v.NY || z < 0 || z >= v.NZ {
		return
	}
	v.Data[(z*v.NY+y)*v.NX+x] = float32(value)
}

func (v *VoxelVolume) at(x, y, z int) float64 {
	if x < 0 || x >= v.NX || y < 0 || y >= v.NY || z < 0 || z >= v.NZ {
		return 0
	}
	return float64(v.Data[(z*v.NY+y)*v.NX+x])
}

func (v *VoxelVolume) Sample(p core.Vec3) float64 {
	if !v.Bounds.ContainsPoint(p) {
		return 0
	}
	size := v.Bounds.Size()
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return 0
	}

	// Continuous voxel coordinates with voxel centers at i+0.5.
	fx := (p.X-v.Bounds.Min.X)/size.X*float64(v.NX) - 0.5
	fy := (p.Y-v.Bounds.Min.Y)/size.Y*float64(v.NY) - 0.5
	fz := (p.Z-v.Bounds.Min.Z)/size.Z*float64(v.NZ) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	z0 := int(math.Floor(fz))
	tx := fx - float64(x0)
	ty := fy - float64(y0)
	tz := fz - float64(z0)

	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }

	c00 := lerp(v.at(x0, y0, z0), v.at(x0+1, y0, z0), tx)
	c10 := lerp(v.at(x0, y0+1, z0), v.at(x0+1, y0+1, z0), tx)
	c01 := lerp(v.at(x0, y0, z0+1), v.at(x0+1, y0, z0+1), tx)
	c11 := lerp(v.at(x0, y0+1, z0+1), v.at(x0+1, y0+1, z0+1), tx)

	c0 := lerp(c00, c10, ty)
	c1 := lerp(c01, c11, ty)
	return lerp(c0, c1, tz)
}
