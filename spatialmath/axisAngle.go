package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// See here for a thorough explanation: https://en.wikipedia.org/wiki/Axis%E2%80%93angle_representation
// Basic explanation: Imagine a 3d cartesian grid centered at 0,0,0, and a sphere of radius 1 centered at
// that same point. An orientation can be expressed by first specifying an axis, i.e. a line from the origin
// to a point on that sphere, represented by (rx, ry, rz), and a rotation around that axis, theta.

// R4AA represents an R4 axis angle.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA creates an empty R4AA struct.
func NewR4AA() *R4AA {
	return &R4AA{Theta: 0, RX: 0, RY: 0, RZ: 1}
}

// AxisAngles returns the orientation in axis angle representation.
func (r4 *R4AA) AxisAngles() *R4AA {
	return r4
}

// Quaternion returns orientation in quaternion representation.
func (r4 *R4AA) Quaternion() quat.Number {
	return r4.ToQuat()
}

// EulerAngles returns orientation in Euler angle representation.
func (r4 *R4AA) EulerAngles() *EulerAngles {
	return r4.RotationMatrix().EulerAngles()
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (r4 *R4AA) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(r4.Quaternion())
}

// ToR3 converts an R4 angle axis to R3.
func (r4 *R4AA) ToR3() r3.Vector {
	return r3.Vector{X: r4.RX * r4.Theta, Y: r4.RY * r4.Theta, Z: r4.RZ * r4.Theta}
}

// ToQuat converts an R4 axis angle to a unit quaternion
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/angleToQuaternion/index.htm
func (r4 *R4AA) ToQuat() quat.Number {
	norm := math.Sqrt(r4.RX*r4.RX + r4.RY*r4.RY + r4.RZ*r4.RZ)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	sinA := math.Sin(r4.Theta/2) / norm
	return quat.Number{
		Real: math.Cos(r4.Theta / 2),
		Imag: r4.RX * sinA,
		Jmag: r4.RY * sinA,
		Kmag: r4.RZ * sinA,
	}
}

// RotationBetween returns the smallest rotation taking the direction of from onto the direction of to.
// Antiparallel inputs are resolved with a half turn about an axis orthogonal to from.
func RotationBetween(from, to r3.Vector) *R4AA {
	a := from.Normalize()
	b := to.Normalize()
	cross := a.Cross(b)
	sin := cross.Norm()
	cos := a.Dot(b)
	if sin < 1e-12 {
		if cos > 0 {
			return NewR4AA()
		}
		axis := a.Cross(r3.Vector{X: 1}).Normalize()
		if axis.Norm2() < 0.5 {
			axis = a.Cross(r3.Vector{Y: 1}).Normalize()
		}
		return &R4AA{Theta: math.Pi, RX: axis.X, RY: axis.Y, RZ: axis.Z}
	}
	axis := cross.Mul(1 / sin)
	return &R4AA{Theta: math.Atan2(sin, cos), RX: axis.X, RY: axis.Y, RZ: axis.Z}
}
