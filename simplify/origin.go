package simplify

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/collisionsimplify/spatialmath"
	"go.viam.com/collisionsimplify/utils"
)

// Origin is a placement in the form URDF expects: a translation and fixed-axis roll, pitch, yaw angles in
// radians. The rotation it describes is Rz(yaw)·Ry(pitch)·Rx(roll).
type Origin struct {
	XYZ r3.Vector
	RPY spatialmath.EulerAngles
}

// ExtractOrigin decomposes a 4x4 rigid homogeneous transform into an Origin. The same transform always
// yields the same angles; at gimbal lock yaw is reported as zero.
func ExtractOrigin(transform mat.Matrix) (Origin, error) {
	if r, c := transform.Dims(); r == 4 && c == 4 {
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				if !utils.IsFinite(transform.At(i, j)) {
					return Origin{}, newError(NumericInstability, fmt.Errorf("transform entry (%d, %d) is not finite", i, j))
				}
			}
		}
	}
	pose, err := spatialmath.NewPoseFromMatrix(transform)
	if err != nil {
		return Origin{}, newError(NumericInstability, err)
	}
	return OriginFromPose(pose), nil
}

// OriginFromPose returns the Origin of a pose.
func OriginFromPose(pose spatialmath.Pose) Origin {
	return Origin{XYZ: pose.Point(), RPY: *pose.Orientation().EulerAngles()}
}

// Pose recomposes the origin into a pose.
func (o Origin) Pose() spatialmath.Pose {
	rpy := o.RPY
	return spatialmath.NewPose(o.XYZ, &rpy)
}

// Matrix recomposes the origin into a 4x4 homogeneous transform.
func (o Origin) Matrix() *mat.Dense {
	return spatialmath.PoseToMatrix(o.Pose())
}

// IsIdentity reports whether the origin is the identity placement within eps.
func (o Origin) IsIdentity(eps float64) bool {
	return spatialmath.PoseAlmostEqualEps(o.Pose(), spatialmath.NewZeroPose(), eps)
}

func (o Origin) String() string {
	return fmt.Sprintf("xyz=(%g %g %g) rpy=(%g %g %g)", o.XYZ.X, o.XYZ.Y, o.XYZ.Z, o.RPY.Roll, o.RPY.Pitch, o.RPY.Yaw)
}
