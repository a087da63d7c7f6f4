package meshio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenray/lumen/pkg/core"
)

func TestWriteReadFileRoundTrip(t *testing.T) {
	attrs := []Attribute{
		{Name: "P", Type: ElementVec3, Vec3s: []core.Vec3{
			core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0),
		}},
		{Name: "indices", Type: ElementInt, Ints: []int32{0, 1, 2}},
		{Name: "quality", Type: ElementDouble, Doubles: []float64{0.5, 0.75, 1.0}},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, attrs))

	got, err := ReadFile(&buf)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "P", got[0].Name)
	assert.Equal(t, core.NewVec3(1, 0, 0), got[0].Vec3s[1])
	assert.Equal(t, "indices", got[1].Name)
	assert.Equal(t, int32(2), got[1].Ints[2])
	assert.Equal(t, "quality", got[2].Name) // unknown to LoadTriangleMesh, still decoded
}

func TestLoadTriangleMeshExpandsIndicesToFlatTriangles(t *testing.T) {
	attrs := []Attribute{
		{Name: "P", Type: ElementVec3, Vec3s: []core.Vec3{
			core.NewVec3(0, 0, 0), core.NewVec3(1, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(1, 1, 0),
		}},
		{Name: "indices", Type: ElementInt, Ints: []int32{0, 1, 2, 1, 3, 2}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, attrs))

	ts, err := LoadTriangleMesh("quad", &buf, false)
	require.NoError(t, err)
	assert.Equal(t, 2, ts.Count())
}

func TestLoadTriangleMeshMissingPositionsErrors(t *testing.T) {
	attrs := []Attribute{
		{Name: "indices", Type: ElementInt, Ints: []int32{0, 1, 2}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, attrs))

	_, err := LoadTriangleMesh("bad", &buf, false)
	assert.Error(t, err)
}

func TestLoadCurves(t *testing.T) {
	attrs := []Attribute{
		{Name: "P", Type: ElementVec3, Vec3s: []core.Vec3{
			core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(0, 2, 0), core.NewVec3(0, 3, 0),
		}},
		{Name: "width", Type: ElementDouble, Doubles: []float64{0.1, 0.05}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, attrs))

	cs, err := LoadCurves("hair", &buf, 1e-3)
	require.NoError(t, err)
	assert.Equal(t, 1, cs.Count())
	assert.True(t, cs.Bounds().IsValid())
}

func TestLoadCurvesWidthCountMismatchErrors(t *testing.T) {
	attrs := []Attribute{
		{Name: "P", Type: ElementVec3, Vec3s: []core.Vec3{
			core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0), core.NewVec3(0, 2, 0), core.NewVec3(0, 3, 0),
		}},
		{Name: "width", Type: ElementDouble, Doubles: []float64{0.1}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, attrs))

	_, err := LoadCurves("hair", &buf, 1e-3)
	assert.Error(t, err)
}

func TestLoadPointCloud(t *testing.T) {
	attrs := []Attribute{
		{Name: "P", Type: ElementVec3, Vec3s: []core.Vec3{
			core.NewVec3(0, 0, 0), core.NewVec3(2, 0, 0), core.NewVec3(0, 2, 0),
		}},
		{Name: "radius", Type: ElementDouble, Doubles: []float64{0.5}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFile(&buf, attrs))

	ps, err := LoadPointCloud("points", &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, ps.Count())
}
