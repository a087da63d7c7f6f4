// Package loaders imports external geometry files into primitive sets.
// PLY is the interchange format most scanned and sculpted assets arrive
// in; LoadPLY converts one into the flat per-triangle (or per-point)
// layout the accelerators consume.
package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/lumenray/lumen/pkg/core"
	"github.com/lumenray/lumen/pkg/primset"
)

type plyFormat int

const (
	plyASCII plyFormat = iota
	plyBinaryLE
)

type plyProperty struct {
	name     string
	typ      string // float, double, uchar, int, ...
	isList   bool
	listLen  string // count type for list properties
	listElem string // element type for list properties
}

type plyElement struct {
	name  string
	count int
	props []plyProperty
}

type plyHeader struct {
	format   plyFormat
	elements []plyElement
}

// PLYMesh is the decoded contents of a PLY file: positions always, the
// rest optional (nil when the file lacks them). Faces are triangulated
// fans; an empty Faces slice means the file was a bare point cloud.
type PLYMesh struct {
	Positions []core.Vec3
	Normals   []core.Vec3
	Colors    []core.Vec3
	Faces     [][3]int
}

// LoadPLY reads an ASCII or binary-little-endian PLY file.
func LoadPLY(filename string) (*PLYMesh, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("loaders: opening %s: %w", filename, err)
	}
	defer f.Close()
	mesh, err := ReadPLY(f)
	if err != nil {
		return nil, fmt.Errorf("loaders: %s: %w", filename, err)
	}
	return mesh, nil
}

// ReadPLY decodes a PLY stream.
func ReadPLY(r io.Reader) (*PLYMesh, error) {
	br := bufio.NewReader(r)
	hdr, err := parseHeader(br)
	if err != nil {
		return nil, err
	}

	mesh := &PLYMesh{}
	for _, elem := range hdr.elements {
		switch elem.name {
		case "vertex":
			if err := readVertices(br, hdr.format, elem, mesh); err != nil {
				return nil, err
			}
		case "face":
			if err := readFaces(br, hdr.format, elem, mesh); err != nil {
				return nil, err
			}
		default:
			if err := skipElement(br, hdr.format, elem); err != nil {
				return nil, err
			}
		}
	}
	if len(mesh.Positions) == 0 {
		return nil, fmt.Errorf("no vertices")
	}
	return mesh, nil
}

// TriangleSet expands the mesh's indexed faces into a flat per-triangle
// set. Fails if the file had no faces; use SphereSet for point clouds.
func (m *PLYMesh) TriangleSet(name string, cullBackface bool) (*primset.TriangleSet, error) {
	if len(m.Faces) == 0 {
		return nil, fmt.Errorf("loaders: %q has no faces", name)
	}

	flatP := make([]core.Vec3, 0, 3*len(m.Faces))
	var flatN []core.Vec3
	if m.Normals != nil {
		flatN = make([]core.Vec3, 0, 3*len(m.Faces))
	}
	var flatC []core.Vec3
	if m.Colors != nil {
		flatC = make([]core.Vec3, 0, 3*len(m.Faces))
	}

	for _, face := range m.Faces {
		for _, vi := range face {
			if vi < 0 || vi >= len(m.Positions) {
				return nil, fmt.Errorf("loaders: %q: face index %d out of range", name, vi)
			}
			flatP = append(flatP, m.Positions[vi])
			if flatN != nil {
				flatN = append(flatN, m.Normals[vi])
			}
			if flatC != nil {
				flatC = append(flatC, m.Colors[vi])
			}
		}
	}
	return primset.NewTriangleSet(name, flatP, flatN, nil, flatC, cullBackface)
}

// SphereSet renders the mesh's vertices as a point cloud of spheres with
// the given shared radius.
func (m *PLYMesh) SphereSet(name string, radius float64) *primset.SphereSet {
	return primset.NewSphereSet(name, m.Positions, []float64{radius}, m.Colors)
}

func parseHeader(br *bufio.Reader) (*plyHeader, error) {
	line, err := readHeaderLine(br)
	if err != nil {
		return nil, err
	}
	if line != "ply" {
		return nil, fmt.Errorf("not a PLY file")
	}

	hdr := &plyHeader{}
	for {
		line, err = readHeaderLine(br)
		if err != nil {
			return nil, err
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "comment", "obj_info":
		case "format":
			if len(fields) < 2 {
				return nil, fmt.Errorf("malformed format line %q", line)
			}
			switch fields[1] {
			case "ascii":
				hdr.format = plyASCII
			case "binary_little_endian":
				hdr.format = plyBinaryLE
			default:
				return nil, fmt.Errorf("unsupported format %q", fields[1])
			}
		case "element":
			if len(fields) != 3 {
				return nil, fmt.Errorf("malformed element line %q", line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil {
				return nil, fmt.Errorf("element count %q: %w", fields[2], err)
			}
			hdr.elements = append(hdr.elements, plyElement{name: fields[1], count: count})
		case "property":
			if len(hdr.elements) == 0 {
				return nil, fmt.Errorf("property before any element")
			}
			prop, err := parseProperty(fields)
			if err != nil {
				return nil, err
			}
			last := &hdr.elements[len(hdr.elements)-1]
			last.props = append(last.props, prop)
		case "end_header":
			return hdr, nil
		default:
			return nil, fmt.Errorf("unrecognized header line %q", line)
		}
	}
}

func readHeaderLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseProperty(fields []string) (plyProperty, error) {
	if fields[1] == "list" {
		if len(fields) != 5 {
			return plyProperty{}, fmt.Errorf("malformed list property %v", fields)
		}
		return plyProperty{name: fields[4], isList: true, listLen: fields[2], listElem: fields[3]}, nil
	}
	if len(fields) != 3 {
		return plyProperty{}, fmt.Errorf("malformed property %v", fields)
	}
	return plyProperty{name: fields[2], typ: fields[1]}, nil
}

func typeSize(typ string) (int, error) {
	switch typ {
	case "char", "uchar", "int8", "uint8":
		return 1, nil
	case "short", "ushort", "int16", "uint16":
		return 2, nil
	case "int", "uint", "int32", "uint32", "float", "float32":
		return 4, nil
	case "double", "float64":
		return 8, nil
	default:
		return 0, fmt.Errorf("unknown PLY type %q", typ)
	}
}

// readScalar decodes one binary scalar of the given PLY type as float64.
func readScalar(br *bufio.Reader, typ string) (float64, error) {
	size, err := typeSize(typ)
	if err != nil {
		return 0, err
	}
	var buf [8]byte
	if _, err := io.ReadFull(br, buf[:size]); err != nil {
		return 0, err
	}
	switch typ {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(binary.LittleEndian.Uint16(buf[:2]))), nil
	case "ushort", "uint16":
		return float64(binary.LittleEndian.Uint16(buf[:2])), nil
	case "int", "int32":
		return float64(int32(binary.LittleEndian.Uint32(buf[:4]))), nil
	case "uint", "uint32":
		return float64(binary.LittleEndian.Uint32(buf[:4])), nil
	case "float", "float32":
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[:4]))), nil
	default: // double, float64
		return math.Float64frombits(binary.LittleEndian.Uint64(buf[:8])), nil
	}
}

// rowReader yields one element row at a time as named float64 scalars.
type rowReader struct {
	br     *bufio.Reader
	format plyFormat
	props  []plyProperty
}

// next reads the row's scalar properties into vals (keyed by name) and
// returns the row's list payload when a list property is present.
func (rr *rowReader) next(vals map[string]float64) ([]int, error) {
	if rr.format == plyASCII {
		return rr.nextASCII(vals)
	}
	var list []int
	for _, p := range rr.props {
		if p.isList {
			n, err := readScalar(rr.br, p.listLen)
			if err != nil {
				return nil, err
			}
			list = make([]int, int(n))
			for i := range list {
				v, err := readScalar(rr.br, p.listElem)
				if err != nil {
					return nil, err
				}
				list[i] = int(v)
			}
			continue
		}
		v, err := readScalar(rr.br, p.typ)
		if err != nil {
			return nil, err
		}
		vals[p.name] = v
	}
	return list, nil
}

func (rr *rowReader) nextASCII(vals map[string]float64) ([]int, error) {
	line, err := rr.br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return nil, err
	}
	fields := strings.Fields(line)
	idx := 0
	var list []int
	for _, p := range rr.props {
		if idx >= len(fields) {
			return nil, fmt.Errorf("short row %q", strings.TrimSpace(line))
		}
		if p.isList {
			n, err := strconv.Atoi(fields[idx])
			if err != nil {
				return nil, err
			}
			idx++
			list = make([]int, n)
			for i := 0; i < n; i++ {
				list[i], err = strconv.Atoi(fields[idx])
				if err != nil {
					return nil, err
				}
				idx++
			}
			continue
		}
		v, err := strconv.ParseFloat(fields[idx], 64)
		if err != nil {
			return nil, err
		}
		vals[p.name] = v
		idx++
	}
	return list, nil
}

func readVertices(br *bufio.Reader, format plyFormat, elem plyElement, mesh *PLYMesh) error {
	has := func(name string) bool {
		for _, p := range elem.props {
			if p.name == name {
				return true
			}
		}
		return false
	}
	hasNormals := has("nx") && has("ny") && has("nz")
	hasColors := has("red") && has("green") && has("blue")

	mesh.Positions = make([]core.Vec3, 0, elem.count)
	if hasNormals {
		mesh.Normals = make([]core.Vec3, 0, elem.count)
	}
	if hasColors {
		mesh.Colors = make([]core.Vec3, 0, elem.count)
	}

	rr := &rowReader{br: br, format: format, props: elem.props}
	vals := make(map[string]float64, len(elem.props))
	for i := 0; i < elem.count; i++ {
		if _, err := rr.next(vals); err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
		mesh.Positions = append(mesh.Positions, core.NewVec3(vals["x"], vals["y"], vals["z"]))
		if hasNormals {
			mesh.Normals = append(mesh.Normals, core.NewVec3(vals["nx"], vals["ny"], vals["nz"]))
		}
		if hasColors {
			// uchar color channels normalize to [0,1]
			mesh.Colors = append(mesh.Colors, core.NewVec3(vals["red"]/255, vals["green"]/255, vals["blue"]/255))
		}
	}
	return nil
}

func readFaces(br *bufio.Reader, format plyFormat, elem plyElement, mesh *PLYMesh) error {
	rr := &rowReader{br: br, format: format, props: elem.props}
	vals := make(map[string]float64, len(elem.props))
	for i := 0; i < elem.count; i++ {
		indices, err := rr.next(vals)
		if err != nil {
			return fmt.Errorf("face %d: %w", i, err)
		}
		if len(indices) < 3 {
			return fmt.Errorf("face %d: only %d vertices", i, len(indices))
		}
		// fan-triangulate polygons
		for k := 1; k+1 < len(indices); k++ {
			mesh.Faces = append(mesh.Faces, [3]int{indices[0], indices[k], indices[k+1]})
		}
	}
	return nil
}

func skipElement(br *bufio.Reader, format plyFormat, elem plyElement) error {
	rr := &rowReader{br: br, format: format, props: elem.props}
	vals := make(map[string]float64, len(elem.props))
	for i := 0; i < elem.count; i++ {
		if _, err := rr.next(vals); err != nil {
			return fmt.Errorf("skipping %s %d: %w", elem.name, i, err)
		}
	}
	return nil
}
