// Package simplify replaces collision meshes with bounding primitives or convex hulls.
//
// Simplify is a pure function of its mesh and policy: it fits the requested primitive (or all of them,
// keeping the smallest), extracts the URDF origin of the result, and reports diagnostics as data. It holds
// no state between calls, so independent meshes may be simplified concurrently; Batch does exactly that.
package simplify

import (
	"fmt"

	"github.com/pkg/errors"

	"go.viam.com/collisionsimplify/spatialmath"
	"go.viam.com/collisionsimplify/utils"
)

// WarningCode identifies a non-fatal condition found while simplifying.
type WarningCode string

// The warnings Simplify can report.
const (
	// WarningNotWatertight means some mesh edge is not shared by exactly two faces, so the mesh volume and
	// volume ratio are unreliable.
	WarningNotWatertight WarningCode = "not_watertight"
	// WarningFlatMesh means the vertices span no volume. Primitives are still fitted but have zero volume.
	WarningFlatMesh WarningCode = "flat_mesh"
)

// Warning is a non-fatal condition attached to a successful result.
type Warning struct {
	Code    WarningCode
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Code, w.Message)
}

// Candidate records the volume of one primitive considered by the smallest policy.
type Candidate struct {
	Kind   Kind
	Volume float64
}

// Diagnostics describes how a result was reached.
type Diagnostics struct {
	Watertight bool
	Warnings   []Warning
	Chosen     Kind
	Candidates []Candidate
	MeshVolume float64
	// VolumeRatio is the result volume divided by MeshVolume. It is only known for watertight meshes that
	// enclose a positive volume.
	VolumeRatio      float64
	VolumeRatioKnown bool
}

// HasWarning reports whether a warning with the code was raised.
func (d *Diagnostics) HasWarning(code WarningCode) bool {
	for _, w := range d.Warnings {
		if w.Code == code {
			return true
		}
	}
	return false
}

// Result is a successful simplification.
type Result struct {
	Geometry    *SimplifiedGeometry
	Diagnostics Diagnostics
}

// Simplify reduces the mesh according to the policy. Failures are returned as *Error values whose kind
// can be tested with errors.Is against ErrEmptyMesh, ErrDegenerateGeometry, ErrNumericInstability and
// ErrUnsupportedPolicy. An empty mesh fails before any fitting is attempted, whatever the policy.
func Simplify(m *spatialmath.Mesh, policy Policy) (*Result, error) {
	if m == nil || m.IsEmpty() {
		return nil, newError(EmptyMesh, errors.New("mesh has no vertices or faces"))
	}

	diag := Diagnostics{
		Watertight: m.IsWatertight(),
		MeshVolume: m.Volume(),
	}
	if !diag.Watertight {
		diag.Warnings = append(diag.Warnings, Warning{
			Code:    WarningNotWatertight,
			Message: fmt.Sprintf("mesh %q is not watertight; its volume is unreliable", m.Label()),
		})
	}

	var geom *SimplifiedGeometry
	var err error
	switch policy {
	case PolicyConvexHull:
		geom, err = simplifyToHull(m)
	case PolicyBox, PolicyCylinder, PolicySphere:
		geom, err = simplifyToPrimitive(m, policyKind[policy], &diag)
	case PolicySmallest:
		geom, err = simplifyToSmallest(m, &diag)
	default:
		return nil, newError(UnsupportedPolicy, errors.Errorf("policy %d", int(policy)))
	}
	if err != nil {
		return nil, err
	}
	if err := checkFinite(geom); err != nil {
		return nil, err
	}

	diag.Chosen = geom.Kind
	if diag.Watertight {
		diag.VolumeRatio, diag.VolumeRatioKnown = volumeRatio(geom.Volume(), diag.MeshVolume)
	}
	return &Result{Geometry: geom, Diagnostics: diag}, nil
}

var policyKind = map[Policy]Kind{
	PolicyBox:      KindBox,
	PolicyCylinder: KindCylinder,
	PolicySphere:   KindSphere,
}

func simplifyToHull(m *spatialmath.Mesh) (*SimplifiedGeometry, error) {
	for _, v := range m.Vertices() {
		if !spatialmath.IsFinite(v) {
			return nil, newError(NumericInstability, errors.Errorf("mesh %q has a non-finite vertex", m.Label()))
		}
	}
	hull, err := m.ConvexHull()
	if err != nil {
		if errors.Is(err, spatialmath.ErrDegeneratePoints) {
			return nil, newError(DegenerateGeometry, errors.Wrapf(err, "convex hull of %q", m.Label()))
		}
		return nil, newError(NumericInstability, err)
	}
	return &SimplifiedGeometry{Kind: KindConvexHull, Hull: hull}, nil
}

func simplifyToPrimitive(m *spatialmath.Mesh, kind Kind, diag *Diagnostics) (*SimplifiedGeometry, error) {
	in, err := newFitInput(m)
	if err != nil {
		return nil, err
	}
	in.warnFlat(m, diag)
	primitive, err := in.fit(kind, labelFor(m, kind))
	if err != nil {
		return nil, err
	}
	diag.Candidates = []Candidate{{Kind: kind, Volume: primitive.Volume()}}
	return newPrimitiveGeometry(kind, primitive)
}

func simplifyToSmallest(m *spatialmath.Mesh, diag *Diagnostics) (*SimplifiedGeometry, error) {
	in, err := newFitInput(m)
	if err != nil {
		return nil, err
	}
	in.warnFlat(m, diag)
	fits, err := in.fitAll(m)
	if err != nil {
		return nil, err
	}
	for _, f := range fits {
		diag.Candidates = append(diag.Candidates, Candidate{Kind: f.Kind, Volume: f.Geometry.Volume()})
	}
	sel, err := SelectSmallest(fits)
	if err != nil {
		return nil, err
	}
	return newPrimitiveGeometry(sel.Kind, sel.Geometry)
}

// FitAll fits a box, a cylinder and a sphere to the mesh, in that order.
func FitAll(m *spatialmath.Mesh) ([]Fit, error) {
	in, err := newFitInput(m)
	if err != nil {
		return nil, err
	}
	return in.fitAll(m)
}

func (in *fitInput) fitAll(m *spatialmath.Mesh) ([]Fit, error) {
	fits := make([]Fit, 0, 3)
	for _, kind := range []Kind{KindBox, KindCylinder, KindSphere} {
		g, err := in.fit(kind, labelFor(m, kind))
		if err != nil {
			return nil, err
		}
		fits = append(fits, Fit{Kind: kind, Geometry: g})
	}
	return fits, nil
}

func (in *fitInput) fit(kind Kind, label string) (spatialmath.Geometry, error) {
	var (
		g   spatialmath.Geometry
		err error
	)
	switch kind {
	case KindBox:
		g, err = in.box(label)
	case KindCylinder:
		g, err = in.cylinder(label)
	case KindSphere:
		g, err = in.sphere(label)
	case KindConvexHull:
		return nil, newError(UnsupportedPolicy, errors.New("a convex hull is not a fitted primitive"))
	default:
		return nil, newError(UnsupportedPolicy, errors.Errorf("unknown primitive kind %d", int(kind)))
	}
	if err != nil {
		if _, ok := KindOf(err); ok {
			return nil, err
		}
		return nil, newError(NumericInstability, err)
	}
	return g, nil
}

func (in *fitInput) warnFlat(m *spatialmath.Mesh, diag *Diagnostics) {
	if in.hullErr == nil {
		return
	}
	diag.Warnings = append(diag.Warnings, Warning{
		Code:    WarningFlatMesh,
		Message: fmt.Sprintf("mesh %q: %v", m.Label(), in.hullErr),
	})
}

func checkFinite(g *SimplifiedGeometry) error {
	if g.Kind == KindConvexHull {
		if !utils.IsFinite(g.Hull.Volume()) {
			return newError(NumericInstability, errNonFinite("convex hull volume"))
		}
		return nil
	}
	values := append(g.Dimensions(), g.Origin.XYZ.X, g.Origin.XYZ.Y, g.Origin.XYZ.Z,
		g.Origin.RPY.Roll, g.Origin.RPY.Pitch, g.Origin.RPY.Yaw)
	if !utils.IsFinite(values...) {
		return newError(NumericInstability, errNonFinite(g.Kind.String()))
	}
	return nil
}

func errNonFinite(what string) error {
	return errors.Errorf("%s has non-finite values", what)
}

func labelFor(m *spatialmath.Mesh, kind Kind) string {
	if m.Label() == "" {
		return kind.String()
	}
	return m.Label() + "_" + kind.String()
}
