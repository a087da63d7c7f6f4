// Package meshio implements the tag-length-value mesh/curve/point-cloud
// file format: a sequence of self-describing named attributes, each
// introduced by a null-terminated name, an element-type byte, a count,
// then packed little-endian payload. Readers decode every attribute
// generically and the loaders act only on the names they understand, so
// unknown attributes are skipped rather than rejected.
package meshio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/primset"
)

var magicMESH = [4]byte{'M', 'E', 'S', 'H'}

const formatVersion = 1

// ElementType tags an attribute's payload element layout.
type ElementType byte

const (
	ElementInt ElementType = iota
	ElementDouble
	ElementVec3
)

func (e ElementType) elemSize() int {
	switch e {
	case ElementInt:
		return 4
	case ElementDouble:
		return 8
	case ElementVec3:
		return 24
	default:
		return 0
	}
}

// Attribute is one decoded named field: Ints/Doubles/Vec3s holds the
// payload in the slice matching Type; the other two are nil.
type Attribute struct {
	Name    string
	Type    ElementType
	Ints    []int32
	Doubles []float64
	Vec3s   []core.Vec3
}

// WriteAttribute appends one TLV attribute to w.
func WriteAttribute(w io.Writer, attr Attribute) error {
	if _, err := io.WriteString(w, attr.Name); err != nil {
		return err
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, byte(attr.Type)); err != nil {
		return err
	}

	var count int32
	switch attr.Type {
	case ElementInt:
		count = int32(len(attr.Ints))
	case ElementDouble:
		count = int32(len(attr.Doubles))
	case ElementVec3:
		count = int32(len(attr.Vec3s))
	}
	if err := binary.Write(w, binary.LittleEndian, count); err != nil {
		return err
	}

	switch attr.Type {
	case ElementInt:
		return binary.Write(w, binary.LittleEndian, attr.Ints)
	case ElementDouble:
		return binary.Write(w, binary.LittleEndian, attr.Doubles)
	case ElementVec3:
		flat := make([]float64, 0, 3*len(attr.Vec3s))
		for _, v := range attr.Vec3s {
			flat = append(flat, v.X, v.Y, v.Z)
		}
		return binary.Write(w, binary.LittleEndian, flat)
	default:
		return fmt.Errorf("meshio: unknown element type %d", attr.Type)
	}
}

// WriteFile writes magic, version, then every attribute in order.
func WriteFile(w io.Writer, attrs []Attribute) error {
	if _, err := w.Write(magicMESH[:]); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(formatVersion)); err != nil {
		return err
	}
	for _, a := range attrs {
		if err := WriteAttribute(w, a); err != nil {
			return err
		}
	}
	return nil
}

// readName reads a null-terminated attribute name.
func readName(r *bufio.Reader) (string, error) {
	name, err := r.ReadString(0)
	if err != nil {
		return "", err
	}
	return name[:len(name)-1], nil
}

// ReadFile reads magic, version, then every attribute until EOF. Every
// attribute is decoded (its length is self-describing) and returned; it is
// the caller's choice which named attributes to act on.
func ReadFile(r io.Reader) ([]Attribute, error) {
	br := bufio.NewReader(r)

	var magic [4]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, err
	}
	if magic != magicMESH {
		return nil, fmt.Errorf("meshio: bad magic %q", magic)
	}
	var version int32
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("meshio: unsupported version %d", version)
	}

	var attrs []Attribute
	for {
		name, err := readName(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		typeByte, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("meshio: reading type of %q: %w", name, err)
		}
		elemType := ElementType(typeByte)

		var count int32
		if err := binary.Read(br, binary.LittleEndian, &count); err != nil {
			return nil, fmt.Errorf("meshio: reading count of %q: %w", name, err)
		}

		attr := Attribute{Name: name, Type: elemType}
		switch elemType {
		case ElementInt:
			attr.Ints = make([]int32, count)
			if err := binary.Read(br, binary.LittleEndian, attr.Ints); err != nil {
				return nil, err
			}
		case ElementDouble:
			attr.Doubles = make([]float64, count)
			if err := binary.Read(br, binary.LittleEndian, attr.Doubles); err != nil {
				return nil, err
			}
		case ElementVec3:
			flat := make([]float64, 3*count)
			if err := binary.Read(br, binary.LittleEndian, flat); err != nil {
				return nil, err
			}
			attr.Vec3s = make([]core.Vec3, count)
			for i := range attr.Vec3s {
				attr.Vec3s[i] = core.NewVec3(flat[3*i], flat[3*i+1], flat[3*i+2])
			}
		default:
			return nil, fmt.Errorf("meshio: attribute %q: unknown element type %d", name, elemType)
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func findVec3(attrs []Attribute, name string) []core.Vec3 {
	for _, a := range attrs {
		if a.Name == name && a.Type == ElementVec3 {
			return a.Vec3s
		}
	}
	return nil
}

func findInts(attrs []Attribute, name string) []int32 {
	for _, a := range attrs {
		if a.Name == name && a.Type == ElementInt {
			return a.Ints
		}
	}
	return nil
}

func findDoubles(attrs []Attribute, name string) []float64 {
	for _, a := range attrs {
		if a.Name == name && a.Type == ElementDouble {
			return a.Doubles
		}
	}
	return nil
}

// LoadTriangleMesh reads a TLV file from r and expands its indexed "P"
// (vertex positions), optional "N" (vertex normals), optional "uv" (vertex
// texture coordinates, packed u0,v0,u1,v1,...), and required "indices"
// (triangle vertex indices, 3 per triangle) attributes into a flat,
// per-triangle primset.TriangleSet; the per-primitive contract has no
// notion of shared vertices.
func LoadTriangleMesh(name string, r io.Reader, cullBackface bool) (*primset.TriangleSet, error) {
	attrs, err := ReadFile(r)
	if err != nil {
		return nil, err
	}

	positions := findVec3(attrs, "P")
	if positions == nil {
		return nil, fmt.Errorf("meshio: %q: missing required \"P\" attribute", name)
	}
	indices := findInts(attrs, "indices")
	if indices == nil {
		return nil, fmt.Errorf("meshio: %q: missing required \"indices\" attribute", name)
	}
	if len(indices)%3 != 0 {
		return nil, fmt.Errorf("meshio: %q: indices count %d not a multiple of 3", name, len(indices))
	}

	normals := findVec3(attrs, "N")
	uv := findDoubles(attrs, "uv")

	ntris := len(indices) / 3
	flatP := make([]core.Vec3, 0, 3*ntris)
	var flatN []core.Vec3
	if normals != nil {
		flatN = make([]core.Vec3, 0, 3*ntris)
	}
	var flatUV []core.Vec2
	if uv != nil {
		flatUV = make([]core.Vec2, 0, 3*ntris)
	}

	for _, idx := range indices {
		vi := int(idx)
		if vi < 0 || vi >= len(positions) {
			return nil, fmt.Errorf("meshio: %q: index %d out of range (nverts=%d)", name, vi, len(positions))
		}
		flatP = append(flatP, positions[vi])
		if flatN != nil {
			flatN = append(flatN, normals[vi])
		}
		if flatUV != nil {
			flatUV = append(flatUV, core.Vec2{X: uv[2*vi], Y: uv[2*vi+1]})
		}
	}

	return primset.NewTriangleSet(name, flatP, flatN, flatUV, nil, cullBackface)
}

// LoadCurves reads a TLV file from r holding "P" (control points, 4 per
// curve), "width" (endpoint widths, 2 per curve), and optional "Cd"
// (per-control-point colors, 4 per curve) into a primset.CurveSet.
func LoadCurves(name string, r io.Reader, epsilon float64) (*primset.CurveSet, error) {
	attrs, err := ReadFile(r)
	if err != nil {
		return nil, err
	}

	cps := findVec3(attrs, "P")
	if cps == nil {
		return nil, fmt.Errorf("meshio: %q: missing required \"P\" attribute", name)
	}
	if len(cps)%4 != 0 {
		return nil, fmt.Errorf("meshio: %q: control point count %d not a multiple of 4", name, len(cps))
	}
	widths := findDoubles(attrs, "width")
	ncurves := len(cps) / 4
	if len(widths) != 2*ncurves {
		return nil, fmt.Errorf("meshio: %q: want %d widths, have %d", name, 2*ncurves, len(widths))
	}

	points := make([][4]core.Vec3, ncurves)
	widthPairs := make([][2]float64, ncurves)
	for i := 0; i < ncurves; i++ {
		copy(points[i][:], cps[4*i:4*i+4])
		widthPairs[i] = [2]float64{widths[2*i], widths[2*i+1]}
	}

	var colors [][4]core.Vec3
	if cd := findVec3(attrs, "Cd"); cd != nil {
		if len(cd) != len(cps) {
			return nil, fmt.Errorf("meshio: %q: want %d colors, have %d", name, len(cps), len(cd))
		}
		colors = make([][4]core.Vec3, ncurves)
		for i := 0; i < ncurves; i++ {
			copy(colors[i][:], cd[4*i:4*i+4])
		}
	}

	return primset.NewCurveSet(name, points, widthPairs, colors, epsilon), nil
}

// LoadPointCloud reads a TLV file from r holding "P" (point positions),
// "radius" (one shared radius or one per point), and optional "Cd"
// (per-point colors) into a primset.SphereSet.
func LoadPointCloud(name string, r io.Reader) (*primset.SphereSet, error) {
	attrs, err := ReadFile(r)
	if err != nil {
		return nil, err
	}

	centers := findVec3(attrs, "P")
	if centers == nil {
		return nil, fmt.Errorf("meshio: %q: missing required \"P\" attribute", name)
	}
	radii := findDoubles(attrs, "radius")
	if len(radii) != 1 && len(radii) != len(centers) {
		return nil, fmt.Errorf("meshio: %q: want 1 or %d radii, have %d", name, len(centers), len(radii))
	}

	colors := findVec3(attrs, "Cd")
	if colors != nil && len(colors) != len(centers) {
		return nil, fmt.Errorf("meshio: %q: want %d colors, have %d", name, len(centers), len(colors))
	}

	return primset.NewSphereSet(name, centers, radii, colors), nil
}
