package spatialmath

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrDegeneratePoints is returned when a point set spans fewer than three dimensions, so that no
// closed convex polyhedron can be built from it.
var ErrDegeneratePoints = errors.New("point set is degenerate")

func newBadGeometryDimensionsError(g Geometry) error {
	return fmt.Errorf("invalid dimension(s) for geometry type %T", g)
}

func newDegeneratePointsError(reason string) error {
	return errors.Wrap(ErrDegeneratePoints, reason)
}

func newBadFaceIndexError(face, index, numVertices int) error {
	return errors.Errorf("face %d references vertex %d but mesh only has %d vertices", face, index, numVertices)
}
