package math

import (
	gomath "math"
)

const Epsilon float32 = 1.192092896e-07

func ksqrt(x float32) float32 {
	return float32(gomath.Sqrt(float64(x)))
}

func kabs(x float32) float32 {
	return float32(gomath.Abs(float64(x)))
}

/**
 * ------------------------------------------
 * Vector 2
 * ------------------------------------------
 */

func NewVec2(x, y float32) Vec2 {
	return Vec2{X: x, Y: y}
}

func NewVec2Zero() Vec2 {
	return Vec2{}
}

func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

func (v Vec2) MulScalar(scalar float32) Vec2 {
	return Vec2{X: v.X * scalar, Y: v.Y * scalar}
}

/**
 * ------------------------------------------
 * Vector 3
 * ------------------------------------------
 */

func NewVec3(x, y, z float32) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

func NewVec3Zero() Vec3 {
	return Vec3{}
}

func NewVec3One() Vec3 {
	return Vec3{X: 1.0, Y: 1.0, Z: 1.0}
}

func (v Vec3) ToVec4(w float32) Vec4 {
	return Vec4{X: v.X, Y: v.Y, Z: v.Z, W: w}
}

func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

func (v Vec3) MulScalar(scalar float32) Vec3 {
	return Vec3{X: v.X * scalar, Y: v.Y * scalar, Z: v.Z * scalar}
}

func (v Vec3) LengthSquared() float32 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

func (v Vec3) Length() float32 {
	return ksqrt(v.LengthSquared())
}

func (v Vec3) Normalized() Vec3 {
	length := v.Length()
	if length == 0 {
		return v
	}
	return Vec3{X: v.X / length, Y: v.Y / length, Z: v.Z / length}
}

func (v Vec3) Dot(other Vec3) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

func (v Vec3) Cross(other Vec3) Vec3 {
	return Vec3{
		X: v.Y*other.Z - v.Z*other.Y,
		Y: v.Z*other.X - v.X*other.Z,
		Z: v.X*other.Y - v.Y*other.X,
	}
}

func (v Vec3) Compare(other Vec3, tolerance float32) bool {
	if kabs(v.X-other.X) > tolerance {
		return false
	}
	if kabs(v.Y-other.Y) > tolerance {
		return false
	}
	if kabs(v.Z-other.Z) > tolerance {
		return false
	}
	return true
}

func (v Vec3) Min(other Vec3) Vec3 {
	return Vec3{
		X: min(v.X, other.X),
		Y: min(v.Y, other.Y),
		Z: min(v.Z, other.Z),
	}
}

func (v Vec3) Max(other Vec3) Vec3 {
	return Vec3{
		X: max(v.X, other.X),
		Y: max(v.Y, other.Y),
		Z: max(v.Z, other.Z),
	}
}

// Transform multiplies the vector by the matrix, assuming w = 1.
func (v Vec3) Transform(m Mat4) Vec3 {
	d := m.Data
	return Vec3{
		X: v.X*d[0] + v.Y*d[4] + v.Z*d[8] + d[12],
		Y: v.X*d[1] + v.Y*d[5] + v.Z*d[9] + d[13],
		Z: v.X*d[2] + v.Y*d[6] + v.Z*d[10] + d[14],
	}
}

/**
 * ------------------------------------------
 * Vector 4
 * ------------------------------------------
 */

func NewVec4(x, y, z, w float32) Vec4 {
	return Vec4{X: x, Y: y, Z: z, W: w}
}

func NewVec4One() Vec4 {
	return Vec4{X: 1.0, Y: 1.0, Z: 1.0, W: 1.0}
}

func (v Vec4) ToVec3() Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

func (v Vec4) Compare(other Vec4, tolerance float32) bool {
	if kabs(v.X-other.X) > tolerance {
		return false
	}
	if kabs(v.Y-other.Y) > tolerance {
		return false
	}
	if kabs(v.Z-other.Z) > tolerance {
		return false
	}
	if kabs(v.W-other.W) > tolerance {
		return false
	}
	return true
}

/**
 * ------------------------------------------
 * Matrix 4x4
 * ------------------------------------------
 */

func NewMat4Identity() Mat4 {
	m := Mat4{}
	m.Data[0] = 1.0
	m.Data[5] = 1.0
	m.Data[10] = 1.0
	m.Data[15] = 1.0
	return m
}

func (mt Mat4) Mul(other Mat4) Mat4 {
	out := Mat4{}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += mt.Data[k*4+row] * other.Data[col*4+k]
			}
			out.Data[col*4+row] = sum
		}
	}
	return out
}

func NewMat4Transposed(matrix Mat4) Mat4 {
	out := Mat4{}
	for row := 0; row < 4; row++ {
		for col := 0; col < 4; col++ {
			out.Data[row*4+col] = matrix.Data[col*4+row]
		}
	}
	return out
}

func NewMat4Translation(position Vec3) Mat4 {
	m := NewMat4Identity()
	m.Data[12] = position.X
	m.Data[13] = position.Y
	m.Data[14] = position.Z
	return m
}

func NewMat4Scale(scale Vec3) Mat4 {
	m := NewMat4Identity()
	m.Data[0] = scale.X
	m.Data[5] = scale.Y
	m.Data[10] = scale.Z
	return m
}

func NewMat4Perspective(fovRadians, aspectRatio, nearClip, farClip float32) Mat4 {
	halfTanFov := float32(gomath.Tan(float64(fovRadians) * 0.5))
	m := Mat4{}
	m.Data[0] = 1.0 / (aspectRatio * halfTanFov)
	m.Data[5] = 1.0 / halfTanFov
	m.Data[10] = -((farClip + nearClip) / (farClip - nearClip))
	m.Data[11] = -1.0
	m.Data[14] = -((2.0 * farClip * nearClip) / (farClip - nearClip))
	return m
}

func NewMat4Orthographic(left, right, bottom, top, nearClip, farClip float32) Mat4 {
	m := NewMat4Identity()

	lr := 1.0 / (left - right)
	bt := 1.0 / (bottom - top)
	nf := 1.0 / (nearClip - farClip)

	m.Data[0] = -2.0 * lr
	m.Data[5] = -2.0 * bt
	m.Data[10] = 2.0 * nf

	m.Data[12] = (left + right) * lr
	m.Data[13] = (top + bottom) * bt
	m.Data[14] = (farClip + nearClip) * nf
	return m
}

// NewMat4FromColumnMajor builds a matrix from 16 column-major float64
// values, the layout used by glTF node matrices.
func NewMat4FromColumnMajor(values [16]float64) Mat4 {
	m := Mat4{}
	for i, v := range values {
		m.Data[i] = float32(v)
	}
	return m
}

/**
 * ------------------------------------------
 * Quaternion
 * ------------------------------------------
 */

func NewQuatIdentity() Quaternion {
	return Quaternion{W: 1.0}
}

func (q Quaternion) Normal() float32 {
	return ksqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
}

func (q Quaternion) Normalize() Quaternion {
	normal := q.Normal()
	if normal == 0 {
		return NewQuatIdentity()
	}
	return Quaternion{
		X: q.X / normal,
		Y: q.Y / normal,
		Z: q.Z / normal,
		W: q.W / normal,
	}
}

func (q Quaternion) ToMat4() Mat4 {
	m := NewMat4Identity()
	n := q.Normalize()

	m.Data[0] = 1.0 - 2.0*n.Y*n.Y - 2.0*n.Z*n.Z
	m.Data[1] = 2.0*n.X*n.Y + 2.0*n.Z*n.W
	m.Data[2] = 2.0*n.X*n.Z - 2.0*n.Y*n.W

	m.Data[4] = 2.0*n.X*n.Y - 2.0*n.Z*n.W
	m.Data[5] = 1.0 - 2.0*n.X*n.X - 2.0*n.Z*n.Z
	m.Data[6] = 2.0*n.Y*n.Z + 2.0*n.X*n.W

	m.Data[8] = 2.0*n.X*n.Z + 2.0*n.Y*n.W
	m.Data[9] = 2.0*n.Y*n.Z - 2.0*n.X*n.W
	m.Data[10] = 1.0 - 2.0*n.X*n.X - 2.0*n.Y*n.Y

	return m
}

func DegToRad(degrees float32) float32 {
	return degrees * (gomath.Pi / 180.0)
}

func RadToDeg(radians float32) float32 {
	return radians * (180.0 / gomath.Pi)
}

/**
 * ------------------------------------------
 * Extents
 * ------------------------------------------
 */

// NewExtents3D computes the axis-aligned bounds of a set of positions.
func NewExtents3D(positions []Vec3) Extents3D {
	if len(positions) == 0 {
		return Extents3D{}
	}
	e := Extents3D{Min: positions[0], Max: positions[0]}
	for _, p := range positions[1:] {
		e.Min = e.Min.Min(p)
		e.Max = e.Max.Max(p)
	}
	return e
}

func (e Extents3D) Center() Vec3 {
	return e.Min.Add(e.Max).MulScalar(0.5)
}

// Union returns the smallest extents containing both operands.
func (e Extents3D) Union(other Extents3D) Extents3D {
	return Extents3D{
		Min: e.Min.Min(other.Min),
		Max: e.Max.Max(other.Max),
	}
}
