package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

// represent a 45 degree rotation around the x axis in all the representations
var (
	th    = math.Pi / 4.
	q45x  = quat.Number{Real: math.Cos(th / 2.), Imag: math.Sin(th / 2.)}
	aa45x = &R4AA{th, 1., 0., 0.}
	ea45x = &EulerAngles{Roll: th, Pitch: 0, Yaw: 0}
	rm45x = &RotationMatrix{[9]float64{
		1, 0, 0,
		0, math.Cos(th), -math.Sin(th),
		0, math.Sin(th), math.Cos(th),
	}}
)

func TestZeroOrientation(t *testing.T) {
	zero := NewZeroOrientation()
	test.That(t, zero.AxisAngles(), test.ShouldResemble, NewR4AA())
	test.That(t, zero.Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, zero.EulerAngles(), test.ShouldResemble, NewEulerAngles())
	test.That(t, zero.RotationMatrix(), test.ShouldResemble, IdentityRotationMatrix())
}

func TestOrientationConversions(t *testing.T) {
	qq45x := quaternion(q45x)
	for name, o := range map[string]Orientation{
		"quaternion":      &qq45x,
		"axis angle":      aa45x,
		"euler angles":    ea45x,
		"rotation matrix": rm45x,
	} {
		t.Run(name, func(t *testing.T) {
			test.That(t, QuaternionAlmostEqual(o.Quaternion(), q45x, 1e-9), test.ShouldBeTrue)
			test.That(t, o.AxisAngles().Theta, test.ShouldAlmostEqual, aa45x.Theta)
			test.That(t, o.AxisAngles().RX, test.ShouldAlmostEqual, aa45x.RX)
			test.That(t, o.AxisAngles().RY, test.ShouldAlmostEqual, aa45x.RY)
			test.That(t, o.AxisAngles().RZ, test.ShouldAlmostEqual, aa45x.RZ)
			test.That(t, o.EulerAngles().Roll, test.ShouldAlmostEqual, ea45x.Roll)
			test.That(t, o.EulerAngles().Pitch, test.ShouldAlmostEqual, ea45x.Pitch)
			test.That(t, o.EulerAngles().Yaw, test.ShouldAlmostEqual, ea45x.Yaw)
			test.That(t, o.RotationMatrix().AlmostEqual(rm45x, 1e-9), test.ShouldBeTrue)
		})
	}
}

func TestEulerAnglesFixedAxisOrder(t *testing.T) {
	// Rolling a quarter turn then yawing a quarter turn sends the local Y axis to +Z and the local Z axis to +X.
	ea := &EulerAngles{Roll: math.Pi / 2, Yaw: math.Pi / 2}
	rm := ea.RotationMatrix()
	test.That(t, R3VectorAlmostEqual(rm.Mul(r3.Vector{X: 1}), r3.Vector{Y: 1}, 1e-12), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(rm.Mul(r3.Vector{Y: 1}), r3.Vector{Z: 1}, 1e-12), test.ShouldBeTrue)
	test.That(t, R3VectorAlmostEqual(rm.Mul(r3.Vector{Z: 1}), r3.Vector{X: 1}, 1e-12), test.ShouldBeTrue)
	test.That(t, rm.IsRotation(1e-12), test.ShouldBeTrue)
}

func TestEulerAnglesRoundTrip(t *testing.T) {
	for _, ea := range []*EulerAngles{
		{Roll: 0.1, Pitch: 0.2, Yaw: 0.3},
		{Roll: -2.9, Pitch: 1.2, Yaw: 3.1},
		{Roll: 1.5, Pitch: -1.4, Yaw: -0.7},
		{Roll: 0, Pitch: 0, Yaw: -math.Pi / 2},
	} {
		got := ea.RotationMatrix().EulerAngles()
		test.That(t, got.Roll, test.ShouldAlmostEqual, ea.Roll)
		test.That(t, got.Pitch, test.ShouldAlmostEqual, ea.Pitch)
		test.That(t, got.Yaw, test.ShouldAlmostEqual, ea.Yaw)
		test.That(t, OrientationAlmostEqual(ea, QuatToRotationMatrix(ea.Quaternion())), test.ShouldBeTrue)
	}
}

func TestEulerAnglesGimbalLock(t *testing.T) {
	for _, pitch := range []float64{math.Pi / 2, -math.Pi / 2} {
		ea := &EulerAngles{Roll: 0.4, Pitch: pitch, Yaw: 0.9}
		got := ea.RotationMatrix().EulerAngles()
		test.That(t, got.Yaw, test.ShouldEqual, 0)
		test.That(t, got.Pitch, test.ShouldAlmostEqual, pitch)
		// only the combined rotation is observable, and it must be preserved
		test.That(t, got.RotationMatrix().AlmostEqual(ea.RotationMatrix(), 1e-9), test.ShouldBeTrue)
	}
}

func TestRotationBetween(t *testing.T) {
	for _, to := range []r3.Vector{
		{Z: 1},
		{Z: -1},
		{X: 1},
		{X: 1, Y: -2, Z: 0.5},
	} {
		rot := RotationBetween(r3.Vector{Z: 1}, to)
		got := rot.RotationMatrix().Mul(r3.Vector{Z: 1})
		test.That(t, R3VectorAlmostEqual(got, to.Normalize(), 1e-9), test.ShouldBeTrue)
	}
}

func TestOrientationBetween(t *testing.T) {
	a := &EulerAngles{Roll: 0.3, Yaw: -0.2}
	b := &R4AA{Theta: 1.1, RX: 0, RY: 1, RZ: 1}
	delta := OrientationBetween(a, b)
	composed := delta.RotationMatrix().MatMul(a.RotationMatrix())
	test.That(t, OrientationAlmostEqual(composed, b), test.ShouldBeTrue)
}

func TestRotationMatrixChecks(t *testing.T) {
	_, err := NewRotationMatrix([]float64{1, 0, 0})
	test.That(t, err, test.ShouldNotBeNil)

	mirror, err := NewRotationMatrix([]float64{-1, 0, 0, 0, 1, 0, 0, 0, 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, mirror.IsRotation(1e-9), test.ShouldBeFalse)
	test.That(t, mirror.Determinant(), test.ShouldAlmostEqual, -1)

	test.That(t, rm45x.Transpose().MatMul(rm45x).AlmostEqual(IdentityRotationMatrix(), 1e-12), test.ShouldBeTrue)
	test.That(t, rm45x.Trace(), test.ShouldAlmostEqual, 1+math.Sqrt2)
}
