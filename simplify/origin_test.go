package simplify

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/collisionsimplify/spatialmath"
)

func TestExtractOriginRoundTrip(t *testing.T) {
	for _, rpy := range []spatialmath.EulerAngles{
		{},
		{Roll: 0.1, Pitch: 0.2, Yaw: 0.3},
		{Roll: -2.9, Pitch: 1.2, Yaw: -0.4},
		{Roll: math.Pi, Pitch: 0, Yaw: math.Pi / 2},
		{Roll: 0.3, Pitch: math.Pi / 2, Yaw: 0.8},
		{Roll: -1, Pitch: -math.Pi / 2, Yaw: 2},
	} {
		want := spatialmath.NewPose(r3.Vector{X: 1, Y: -2, Z: 0.5}, &rpy)
		origin, err := ExtractOrigin(spatialmath.PoseToMatrix(want))
		test.That(t, err, test.ShouldBeNil)
		test.That(t, origin.XYZ, test.ShouldResemble, want.Point())

		got := origin.RPY.RotationMatrix()
		expected := want.Orientation().RotationMatrix()
		for r := 0; r < 3; r++ {
			for c := 0; c < 3; c++ {
				test.That(t, got.At(r, c), test.ShouldAlmostEqual, expected.At(r, c), 1e-6)
			}
		}
		test.That(t, mat.EqualApprox(origin.Matrix(), spatialmath.PoseToMatrix(want), 1e-6), test.ShouldBeTrue)
	}
}

func TestExtractOriginGimbalLockIsDeterministic(t *testing.T) {
	rpy := spatialmath.EulerAngles{Roll: 0.4, Pitch: math.Pi / 2, Yaw: 0.9}
	transform := spatialmath.PoseToMatrix(spatialmath.NewPoseFromOrientation(&rpy))
	first, err := ExtractOrigin(transform)
	test.That(t, err, test.ShouldBeNil)
	second, err := ExtractOrigin(transform)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, second, test.ShouldResemble, first)
	test.That(t, first.RPY.Yaw, test.ShouldEqual, 0)
	test.That(t, first.RPY.Pitch, test.ShouldAlmostEqual, math.Pi/2, 1e-6)
}

func TestExtractOriginRejectsBadTransforms(t *testing.T) {
	_, err := ExtractOrigin(mat.NewDense(3, 3, nil))
	test.That(t, errors.Is(err, ErrNumericInstability), test.ShouldBeTrue)

	scaled := spatialmath.PoseToMatrix(spatialmath.NewZeroPose())
	scaled.Set(0, 0, 2)
	_, err = ExtractOrigin(scaled)
	test.That(t, errors.Is(err, ErrNumericInstability), test.ShouldBeTrue)

	notFinite := spatialmath.PoseToMatrix(spatialmath.NewZeroPose())
	notFinite.Set(1, 3, math.Inf(1))
	_, err = ExtractOrigin(notFinite)
	test.That(t, errors.Is(err, ErrNumericInstability), test.ShouldBeTrue)
}

func TestOriginIsIdentity(t *testing.T) {
	test.That(t, Origin{}.IsIdentity(1e-9), test.ShouldBeTrue)
	test.That(t, Origin{XYZ: r3.Vector{Z: 1e-3}}.IsIdentity(1e-9), test.ShouldBeFalse)
	test.That(t, Origin{RPY: spatialmath.EulerAngles{Yaw: 0.1}}.IsIdentity(1e-9), test.ShouldBeFalse)
}
