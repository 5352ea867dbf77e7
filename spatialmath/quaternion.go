package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

type quaternion quat.Number

// AxisAngles returns the orientation in axis angle representation.
func (q *quaternion) AxisAngles() *R4AA {
	return QuatToR4AA(q.Quaternion())
}

// Quaternion returns orientation in quaternion representation.
func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// EulerAngles returns orientation in Euler angle representation.
func (q *quaternion) EulerAngles() *EulerAngles {
	return QuatToRotationMatrix(q.Quaternion()).EulerAngles()
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (q *quaternion) RotationMatrix() *RotationMatrix {
	return QuatToRotationMatrix(q.Quaternion())
}

// Normalize a quaternion, returning its, w, x, y, z components.
func Normalize(q quat.Number) quat.Number {
	norm := quat.Abs(q)
	if norm == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/norm, q)
}

// QuatToRotationMatrix converts a quat to a Rotation Matrix
// reference: https://github.com/go-gl/mathgl/blob/592312d8590acb0686c14740dcf60e2f32d9c618/mgl64/quat.go#L168
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	q = Normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	x2, y2, z2 := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z
	return &RotationMatrix{[9]float64{
		1 - 2*(y2+z2), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(x2+z2), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(x2+y2),
	}}
}

// QuatToR4AA converts a quat to an R4 axis angle in the same way the C++ Eigen library does.
// https://eigen.tuxfamily.org/dox/AngleAxis_8h_source.html
func QuatToR4AA(q quat.Number) *R4AA {
	denom := math.Sqrt(q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	if denom < 1e-12 {
		return NewR4AA()
	}
	angle := 2 * math.Atan2(denom, math.Abs(q.Real))
	if q.Real < 0 {
		return &R4AA{angle, -q.Imag / denom, -q.Jmag / denom, -q.Kmag / denom}
	}
	return &R4AA{angle, q.Imag / denom, q.Jmag / denom, q.Kmag / denom}
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage, q == -q, and
// this function will *not* account for this. Use OrientationAlmostEqual unless you're certain this is what you want.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Real-b.Real) < tol &&
		math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol &&
		math.Abs(a.Kmag-b.Kmag) < tol
}
