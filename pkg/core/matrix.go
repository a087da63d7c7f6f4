package core

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix4 is a 4x4 homogeneous transform, backed by gonum's dense matrix
// type so composition and inversion reuse a real linear-algebra library
// instead of hand-rolled 4x4 arithmetic. pkg/object.Instance uses it for
// its object-to-world and world-to-object transforms.
type Matrix4 struct {
	m *mat.Dense
}

// Identity4 returns the 4x4 identity transform.
func Identity4() Matrix4 {
	d := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		d.Set(i, i, 1)
	}
	return Matrix4{m: d}
}

// NewTranslate returns a translation matrix.
func NewTranslate(t Vec3) Matrix4 {
	m := Identity4()
	m.m.Set(0, 3, t.X)
	m.m.Set(1, 3, t.Y)
	m.m.Set(2, 3, t.Z)
	return m
}

// NewScale returns a scale matrix.
func NewScale(s Vec3) Matrix4 {
	m := Identity4()
	m.m.Set(0, 0, s.X)
	m.m.Set(1, 1, s.Y)
	m.m.Set(2, 2, s.Z)
	return m
}

func rotateAxisMatrix(axis int, radians float64) Matrix4 {
	m := Identity4()
	if radians == 0 {
		return m
	}
	c, s := math.Cos(radians), math.Sin(radians)
	switch axis {
	case 0: // X
		m.m.Set(1, 1, c)
		m.m.Set(1, 2, -s)
		m.m.Set(2, 1, s)
		m.m.Set(2, 2, c)
	case 1: // Y
		m.m.Set(0, 0, c)
		m.m.Set(0, 2, s)
		m.m.Set(2, 0, -s)
		m.m.Set(2, 2, c)
	default: // Z
		m.m.Set(0, 0, c)
		m.m.Set(0, 1, -s)
		m.m.Set(1, 0, s)
		m.m.Set(1, 1, c)
	}
	return m
}

// NewRotate builds the rotation matrix for Euler angles (radians) composed
// in the given axis order.
func NewRotate(rotation Vec3, order RotateOrder) Matrix4 {
	var seq [3]int
	switch order {
	case RotateXYZ:
		seq = [3]int{0, 1, 2}
	case RotateXZY:
		seq = [3]int{0, 2, 1}
	case RotateYXZ:
		seq = [3]int{1, 0, 2}
	case RotateYZX:
		seq = [3]int{1, 2, 0}
	case RotateZXY:
		seq = [3]int{2, 0, 1}
	case RotateZYX:
		seq = [3]int{2, 1, 0}
	}
	angle := func(axis int) float64 {
		switch axis {
		case 0:
			return rotation.X
		case 1:
			return rotation.Y
		default:
			return rotation.Z
		}
	}
	result := Identity4()
	// Compose so the first axis in seq is applied first to the vector,
	// i.e. result = R(seq[2]) * R(seq[1]) * R(seq[0]).
	for _, axis := range seq {
		result = rotateAxisMatrix(axis, angle(axis)).Mul(result)
	}
	return result
}

// Mul returns a*b (applying b first, then a, to a column vector).
func (a Matrix4) Mul(b Matrix4) Matrix4 {
	out := mat.NewDense(4, 4, nil)
	out.Mul(a.m, b.m)
	return Matrix4{m: out}
}

// Compose builds the standard TRS matrix (translate * rotate * scale) from
// separate translate/rotate/scale channels.
func Compose(translate, rotate Vec3, order RotateOrder, scale Vec3) Matrix4 {
	return NewTranslate(translate).Mul(NewRotate(rotate, order)).Mul(NewScale(scale))
}

// Inverse returns the matrix inverse. Panics if the matrix is singular,
// which is a scene-authoring error (a zero-scale instance), not a
// recoverable runtime condition.
func (a Matrix4) Inverse() Matrix4 {
	out := mat.NewDense(4, 4, nil)
	if err := out.Inverse(a.m); err != nil {
		panic("core: singular object transform: " + err.Error())
	}
	return Matrix4{m: out}
}

// TransformPoint applies the matrix to a point (implicit w=1), including
// translation.
func (a Matrix4) TransformPoint(p Vec3) Vec3 {
	v := [4]float64{p.X, p.Y, p.Z, 1}
	var out [4]float64
	for i := 0; i < 4; i++ {
		out[i] = a.m.At(i, 0)*v[0] + a.m.At(i, 1)*v[1] + a.m.At(i, 2)*v[2] + a.m.At(i, 3)*v[3]
	}
	return Vec3{out[0], out[1], out[2]}
}

// TransformDirection applies the matrix to a direction (implicit w=0),
// excluding translation.
func (a Matrix4) TransformDirection(d Vec3) Vec3 {
	v := [3]float64{d.X, d.Y, d.Z}
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = a.m.At(i, 0)*v[0] + a.m.At(i, 1)*v[1] + a.m.At(i, 2)*v[2]
	}
	return Vec3{out[0], out[1], out[2]}
}

// TransformNormal applies the inverse-transpose of the matrix to a normal,
// the standard rule for normals under non-uniform scale. Callers normalize
// the result; this method does not.
func (a Matrix4) TransformNormal(n Vec3) Vec3 {
	inv := a.Inverse()
	v := [3]float64{n.X, n.Y, n.Z}
	var out [3]float64
	for i := 0; i < 3; i++ {
		// inverse-transpose: out[i] = sum_j inv[j][i] * v[j]
		out[i] = inv.m.At(0, i)*v[0] + inv.m.At(1, i)*v[1] + inv.m.At(2, i)*v[2]
	}
	return Vec3{out[0], out[1], out[2]}
}
