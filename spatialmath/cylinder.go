package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collisionsimplify/utils"
)

// cylinder is a bounding geometry with a circular cross section of the given radius, extending length/2 to
// either side of its pose along the pose's local Z axis.
type cylinder struct {
	center Pose
	radius float64
	length float64
	label  string
}

// NewCylinder instantiates a new cylinder Geometry.
func NewCylinder(pose Pose, radius, length float64, label string) (Geometry, error) {
	if radius < 0 || length < 0 {
		return nil, newBadGeometryDimensionsError(&cylinder{})
	}
	return &cylinder{center: pose, radius: radius, length: length, label: label}, nil
}

// String returns a human readable string that represents the cylinder.
func (c *cylinder) String() string {
	pt := c.center.Point()
	return fmt.Sprintf("Type: Cylinder | Position: X:%.4f, Y:%.4f, Z:%.4f | Radius: %.4f | Length: %.4f",
		pt.X, pt.Y, pt.Z, c.radius, c.length)
}

// Label returns the label of this cylinder.
func (c *cylinder) Label() string {
	return c.label
}

// Pose returns the pose of the cylinder.
func (c *cylinder) Pose() Pose {
	return c.center
}

// Volume returns the volume of the cylinder.
func (c *cylinder) Volume() float64 {
	return math.Pi * c.radius * c.radius * c.length
}

// Axis returns the direction of the cylinder's axis in the parent frame.
func (c *cylinder) Axis() r3.Vector {
	return c.center.Orientation().RotationMatrix().Col(2)
}

func (c *cylinder) ContainsPoint(pt r3.Vector, tol float64) bool {
	local := InverseTransformPoint(c.center, pt)
	return math.Abs(local.Z) <= c.length/2+tol && math.Hypot(local.X, local.Y) <= c.radius+tol
}

// Transform premultiplies the cylinder pose with a transform, allowing the cylinder to be moved in space.
func (c *cylinder) Transform(toPremultiply Pose) Geometry {
	return &cylinder{
		center: Compose(toPremultiply, c.center),
		radius: c.radius,
		length: c.length,
		label:  c.label,
	}
}

func (c *cylinder) toConfig() *GeometryConfig {
	return &GeometryConfig{Type: CylinderType, R: c.radius, L: c.length, Label: c.label}
}

func (c *cylinder) almostEqual(g Geometry) bool {
	other, ok := g.(*cylinder)
	if !ok {
		return false
	}
	return utils.Float64AlmostEqual(c.radius, other.radius, 1e-8) &&
		utils.Float64AlmostEqual(c.length, other.length, 1e-8) &&
		PoseAlmostEqualEps(c.center, other.center, 1e-6)
}
