package spatialmath

import (
	"github.com/golang/geo/r3"
)

// GeometryType defines what geometry creator representations are known.
type GeometryType string

// The set of allowed representations for geometry.
const (
	UnknownType  = GeometryType("")
	BoxType      = GeometryType("box")
	CylinderType = GeometryType("cylinder")
	SphereType   = GeometryType("sphere")
)

// Geometry is an entry point with which to access all types of bounding geometries.
type Geometry interface {
	Pose() Pose
	Volume() float64
	// ContainsPoint reports whether the point, expressed in the parent frame, lies inside the geometry or within
	// tol of its surface.
	ContainsPoint(pt r3.Vector, tol float64) bool
	Transform(Pose) Geometry
	Label() string
	String() string
	toConfig() *GeometryConfig
	almostEqual(Geometry) bool
}

// GeometryConfig specifies the dimensions of a geometry and what type it is. Placement is carried separately
// by the geometry's pose.
type GeometryConfig struct {
	Type GeometryType `json:"type"`

	// parameters used for defining a box's rectangular cross section
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`

	// parameters used for defining a sphere or cylinder's circular cross section
	R float64 `json:"r"`

	// length of a cylinder along its local Z axis
	L float64 `json:"l"`

	Label string `json:"label,omitempty"`
}

// NewGeometryConfig returns the config describing the dimensions of the given geometry.
func NewGeometryConfig(g Geometry) *GeometryConfig {
	return g.toConfig()
}

// GeometriesAlmostEqual returns whether two geometries have the same type, dimensions and pose within tolerance.
func GeometriesAlmostEqual(a, b Geometry) bool {
	return a.almostEqual(b)
}
