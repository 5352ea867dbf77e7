package simplify

import (
	"fmt"

	"go.viam.com/collisionsimplify/spatialmath"
)

// SimplifiedGeometry is the replacement for one collision mesh. Primitive kinds carry the fitted geometry and
// its extracted origin; KindConvexHull carries the hull mesh, expressed in the original mesh frame.
type SimplifiedGeometry struct {
	Kind      Kind
	Primitive spatialmath.Geometry
	Origin    Origin
	Hull      *spatialmath.Mesh
}

// Dimensions returns the values URDF needs for the primitive: box x y z, cylinder radius length, sphere radius.
// A hull has no dimensions.
func (g *SimplifiedGeometry) Dimensions() []float64 {
	if g.Primitive == nil {
		return nil
	}
	cfg := spatialmath.NewGeometryConfig(g.Primitive)
	switch g.Kind {
	case KindBox:
		return []float64{cfg.X, cfg.Y, cfg.Z}
	case KindCylinder:
		return []float64{cfg.R, cfg.L}
	case KindSphere:
		return []float64{cfg.R}
	case KindConvexHull:
		return nil
	default:
		return nil
	}
}

// Volume returns the enclosed volume of the replacement geometry.
func (g *SimplifiedGeometry) Volume() float64 {
	if g.Kind == KindConvexHull {
		if g.Hull == nil {
			return 0
		}
		return g.Hull.Volume()
	}
	if g.Primitive == nil {
		return 0
	}
	return g.Primitive.Volume()
}

func (g *SimplifiedGeometry) String() string {
	if g.Kind == KindConvexHull {
		return fmt.Sprintf("convex_hull(%d vertices, %d faces)", len(g.Hull.Vertices()), len(g.Hull.Faces()))
	}
	return fmt.Sprintf("%s%v %s", g.Kind, g.Dimensions(), g.Origin)
}

func newPrimitiveGeometry(kind Kind, primitive spatialmath.Geometry) (*SimplifiedGeometry, error) {
	origin, err := ExtractOrigin(spatialmath.PoseToMatrix(primitive.Pose()))
	if err != nil {
		return nil, err
	}
	return &SimplifiedGeometry{Kind: kind, Primitive: primitive, Origin: origin}, nil
}
