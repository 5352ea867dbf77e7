package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// gimbalLockThreshold is the value of cos(pitch) below which roll and yaw can no longer be
// separated and yaw is pinned to zero.
const gimbalLockThreshold = 1e-7

// EulerAngles are three angles used to represent the rotation of an object in 3D Euclidean space.
// They follow the URDF fixed-axis convention: the frame is rotated about the fixed X axis by Roll,
// then about the fixed Y axis by Pitch, then about the fixed Z axis by Yaw, so that
// R = Rz(Yaw) * Ry(Pitch) * Rx(Roll).
type EulerAngles struct {
	Roll  float64 `json:"roll"`  // phi
	Pitch float64 `json:"pitch"` // theta
	Yaw   float64 `json:"yaw"`   // psi
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{Roll: 0, Pitch: 0, Yaw: 0}
}

// AxisAngles returns the orientation in axis angle representation.
func (ea *EulerAngles) AxisAngles() *R4AA {
	return QuatToR4AA(ea.Quaternion())
}

// Quaternion returns orientation in quaternion representation.
func (ea *EulerAngles) Quaternion() quat.Number {
	cr := math.Cos(ea.Roll / 2)
	sr := math.Sin(ea.Roll / 2)
	cp := math.Cos(ea.Pitch / 2)
	sp := math.Sin(ea.Pitch / 2)
	cy := math.Cos(ea.Yaw / 2)
	sy := math.Sin(ea.Yaw / 2)

	return quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}

// EulerAngles returns orientation in Euler angle representation.
func (ea *EulerAngles) EulerAngles() *EulerAngles {
	return ea
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (ea *EulerAngles) RotationMatrix() *RotationMatrix {
	cr, sr := math.Cos(ea.Roll), math.Sin(ea.Roll)
	cp, sp := math.Cos(ea.Pitch), math.Sin(ea.Pitch)
	cy, sy := math.Cos(ea.Yaw), math.Sin(ea.Yaw)
	return &RotationMatrix{[9]float64{
		cy * cp, cy*sp*sr - sy*cr, cy*sp*cr + sy*sr,
		sy * cp, sy*sp*sr + cy*cr, sy*sp*cr - cy*sr,
		-sp, cp * sr, cp * cr,
	}}
}

// rotationMatrixToEulerAngles decomposes a rotation matrix into fixed-axis XYZ angles.
// In gimbal lock only the sum or difference of roll and yaw is observable; yaw is then set to zero.
func rotationMatrixToEulerAngles(rm *RotationMatrix) *EulerAngles {
	m := rm.mat
	cosPitch := math.Hypot(m[0], m[3])
	pitch := math.Atan2(-m[6], cosPitch)
	if cosPitch > gimbalLockThreshold {
		return &EulerAngles{
			Roll:  math.Atan2(m[7], m[8]),
			Pitch: pitch,
			Yaw:   math.Atan2(m[3], m[0]),
		}
	}
	return &EulerAngles{
		Roll:  math.Atan2(-m[5], m[4]),
		Pitch: pitch,
		Yaw:   0,
	}
}
