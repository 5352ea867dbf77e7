package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collisionsimplify/utils"
)

// sphere is a bounding geometry that represents a sphere, it has a pose and a radius that fully define it.
type sphere struct {
	pose   Pose
	radius float64
	label  string
}

// NewSphere instantiates a new sphere Geometry.
func NewSphere(pose Pose, radius float64, label string) (Geometry, error) {
	if radius < 0 {
		return nil, newBadGeometryDimensionsError(&sphere{})
	}
	return &sphere{pose: pose, radius: radius, label: label}, nil
}

// String returns a human readable string that represents the sphere.
func (s *sphere) String() string {
	pt := s.pose.Point()
	return fmt.Sprintf("Type: Sphere | Position: X:%.4f, Y:%.4f, Z:%.4f | Radius: %.4f", pt.X, pt.Y, pt.Z, s.radius)
}

// Label returns the label of this sphere.
func (s *sphere) Label() string {
	return s.label
}

// Pose returns the pose of the sphere.
func (s *sphere) Pose() Pose {
	return s.pose
}

// Volume returns the volume of the sphere.
func (s *sphere) Volume() float64 {
	return 4. / 3. * math.Pi * s.radius * s.radius * s.radius
}

func (s *sphere) ContainsPoint(pt r3.Vector, tol float64) bool {
	return pt.Sub(s.pose.Point()).Norm() <= s.radius+tol
}

// Transform premultiplies the sphere pose with a transform, allowing the sphere to be moved in space.
func (s *sphere) Transform(toPremultiply Pose) Geometry {
	return &sphere{pose: Compose(toPremultiply, s.pose), radius: s.radius, label: s.label}
}

func (s *sphere) toConfig() *GeometryConfig {
	return &GeometryConfig{Type: SphereType, R: s.radius, Label: s.label}
}

func (s *sphere) almostEqual(g Geometry) bool {
	other, ok := g.(*sphere)
	if !ok {
		return false
	}
	return utils.Float64AlmostEqual(s.radius, other.radius, 1e-8) && PoseAlmostEqualEps(s.pose, other.pose, 1e-6)
}
