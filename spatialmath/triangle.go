package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Triangle is three points in space with a normal following the right hand rule on p0, p1, p2.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle creates a Triangle from its three corners.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the corners of the triangle in winding order.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit normal of the triangle, or the zero vector for a degenerate triangle.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the area of the triangle.
func (t *Triangle) Area() float64 {
	return t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm() / 2
}

// SignedVolume returns the signed volume of the tetrahedron spanned by the triangle and the origin.
// Summed over a closed, consistently wound surface this gives the enclosed volume.
func (t *Triangle) SignedVolume() float64 {
	return t.p0.Dot(t.p1.Cross(t.p2)) / 6
}

// PlaneNormal returns the unit normal of the plane through three points.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}
