package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"

	"go.viam.com/collisionsimplify/utils"
)

// Ordered list of box vertices.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: -1},
}

// box is a bounding geometry that represents a 3D rectangular prism, it has a pose and half size that fully define it.
type box struct {
	center   Pose
	halfSize [3]float64
	label    string
}

// NewBox instantiates a new box Geometry.
func NewBox(pose Pose, dims r3.Vector, label string) (Geometry, error) {
	// Negative dimensions not allowed. Zero dimensions are allowed for bounding boxes of flat point sets.
	if dims.X < 0 || dims.Y < 0 || dims.Z < 0 {
		return nil, newBadGeometryDimensionsError(&box{})
	}
	halfSize := dims.Mul(0.5)
	return &box{
		center:   pose,
		halfSize: [3]float64{halfSize.X, halfSize.Y, halfSize.Z},
		label:    label,
	}, nil
}

// String returns a human readable string that represents the box.
func (b *box) String() string {
	pt := b.center.Point()
	return fmt.Sprintf("Type: Box | Position: X:%.4f, Y:%.4f, Z:%.4f | Dims: X:%.4f, Y:%.4f, Z:%.4f",
		pt.X, pt.Y, pt.Z, 2*b.halfSize[0], 2*b.halfSize[1], 2*b.halfSize[2])
}

// Label returns the label of this box.
func (b *box) Label() string {
	return b.label
}

// Pose returns the pose of the box.
func (b *box) Pose() Pose {
	return b.center
}

// Volume returns the volume of the box.
func (b *box) Volume() float64 {
	return 8 * b.halfSize[0] * b.halfSize[1] * b.halfSize[2]
}

// ContainsPoint checks the point against each half size in the box's own frame.
func (b *box) ContainsPoint(pt r3.Vector, tol float64) bool {
	local := InverseTransformPoint(b.center, pt)
	return local.X <= b.halfSize[0]+tol && -local.X <= b.halfSize[0]+tol &&
		local.Y <= b.halfSize[1]+tol && -local.Y <= b.halfSize[1]+tol &&
		local.Z <= b.halfSize[2]+tol && -local.Z <= b.halfSize[2]+tol
}

// Transform premultiplies the box pose with a transform, allowing the box to be moved in space.
func (b *box) Transform(toPremultiply Pose) Geometry {
	return &box{
		center:   Compose(toPremultiply, b.center),
		halfSize: b.halfSize,
		label:    b.label,
	}
}

// Vertices returns the corners of the box in the parent frame.
func (b *box) Vertices() []r3.Vector {
	verts := make([]r3.Vector, 0, len(boxVertices))
	for _, v := range boxVertices {
		local := r3.Vector{X: v.X * b.halfSize[0], Y: v.Y * b.halfSize[1], Z: v.Z * b.halfSize[2]}
		verts = append(verts, TransformPoint(b.center, local))
	}
	return verts
}

func (b *box) toConfig() *GeometryConfig {
	return &GeometryConfig{
		Type:  BoxType,
		X:     2 * b.halfSize[0],
		Y:     2 * b.halfSize[1],
		Z:     2 * b.halfSize[2],
		Label: b.label,
	}
}

// almostEqual compares the box with another geometry and checks if they are equivalent.
func (b *box) almostEqual(g Geometry) bool {
	other, ok := g.(*box)
	if !ok {
		return false
	}
	for i := 0; i < 3; i++ {
		if !utils.Float64AlmostEqual(b.halfSize[i], other.halfSize[i], 1e-8) {
			return false
		}
	}
	return PoseAlmostEqualEps(b.center, other.center, 1e-6)
}
