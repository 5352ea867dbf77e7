package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// rigidTolerance bounds how far a 4x4 matrix may stray from a rigid transform and still be accepted.
const rigidTolerance = 1e-6

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) and the Orientation() method returns
// the orientation of the local frame relative to its parent.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

type pose struct {
	point    r3.Vector
	rotation *RotationMatrix
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return &pose{rotation: IdentityRotationMatrix()}
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	return &pose{point: p, rotation: o.RotationMatrix()}
}

// NewPoseFromOrientation takes in an orientation and returns a Pose with no translation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	return &pose{point: point, rotation: IdentityRotationMatrix()}
}

// NewPoseFromMatrix converts a 4x4 homogeneous transform into a Pose. The upper left 3x3 block must be a
// proper rotation and the last row must be (0, 0, 0, 1).
func NewPoseFromMatrix(m mat.Matrix) (Pose, error) {
	if r, c := m.Dims(); r != 4 || c != 4 {
		return nil, errors.Errorf("homogeneous transform must be 4x4, got %dx%d", r, c)
	}
	for c, want := range []float64{0, 0, 0, 1} {
		if math.Abs(m.At(3, c)-want) > rigidTolerance {
			return nil, errors.New("homogeneous transform has an invalid last row")
		}
	}
	elems := make([]float64, 0, 9)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			elems = append(elems, m.At(r, c))
		}
	}
	rm, err := NewRotationMatrix(elems)
	if err != nil {
		return nil, err
	}
	if !rm.IsRotation(rigidTolerance) {
		return nil, errors.New("homogeneous transform is not rigid")
	}
	return &pose{point: r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}, rotation: rm}, nil
}

// PoseToMatrix returns the 4x4 homogeneous transform of the pose.
func PoseToMatrix(p Pose) *mat.Dense {
	rm := p.Orientation().RotationMatrix()
	pt := p.Point()
	return mat.NewDense(4, 4, []float64{
		rm.At(0, 0), rm.At(0, 1), rm.At(0, 2), pt.X,
		rm.At(1, 0), rm.At(1, 1), rm.At(1, 2), pt.Y,
		rm.At(2, 0), rm.At(2, 1), rm.At(2, 2), pt.Z,
		0, 0, 0, 1,
	})
}

func (p *pose) Point() r3.Vector {
	return p.point
}

func (p *pose) Orientation() Orientation {
	return p.rotation
}

func (p *pose) String() string {
	ea := p.rotation.EulerAngles()
	return fmt.Sprintf("{X:%.6f Y:%.6f Z:%.6f Roll:%.6f Pitch:%.6f Yaw:%.6f}",
		p.point.X, p.point.Y, p.point.Z, ea.Roll, ea.Pitch, ea.Yaw)
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
func Compose(a, b Pose) Pose {
	ra := a.Orientation().RotationMatrix()
	return &pose{
		point:    a.Point().Add(ra.Mul(b.Point())),
		rotation: ra.MatMul(b.Orientation().RotationMatrix()),
	}
}

// PoseInverse will return the inverse of a pose. So if a given pose p is the pose of A relative to B, PoseInverse(p) will give
// the pose of B relative to A.
func PoseInverse(p Pose) Pose {
	rt := p.Orientation().RotationMatrix().Transpose()
	return &pose{point: rt.Mul(p.Point()).Mul(-1), rotation: rt}
}

// TransformPoint maps a point expressed in the pose's local frame into the parent frame.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return p.Point().Add(p.Orientation().RotationMatrix().Mul(pt))
}

// InverseTransformPoint maps a point expressed in the parent frame into the pose's local frame.
func InverseTransformPoint(p Pose, pt r3.Vector) r3.Vector {
	return p.Orientation().RotationMatrix().MulT(pt.Sub(p.Point()))
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) && OrientationAlmostEqualEps(a.Orientation(), b.Orientation(), epsilon)
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}
