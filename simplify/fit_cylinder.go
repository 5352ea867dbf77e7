package simplify

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collisionsimplify/spatialmath"
)

const (
	// axisSampleCount is the number of evenly spread directions tried as cylinder axes besides the mesh's own
	// face normals and principal axes.
	axisSampleCount = 256
	// The axis refinement starts from steps of refineInitialStep radians and halves them until refineMinStep.
	refineInitialStep = 0.02
	refineMinStep     = 1e-7
	refineMaxIters    = 400
)

type cylinderFit struct {
	axis   r3.Vector
	center r3.Vector
	radius float64
	length float64
}

func (c cylinderFit) volume() float64 {
	return math.Pi * c.radius * c.radius * c.length
}

// FitCylinder returns a bounding cylinder of the mesh. Its axis is chosen by evaluating the mesh's face
// normals, principal axes, oriented box axes and a fixed spread of directions, then refining the best one.
// For a given axis the radius is that of the minimum enclosing circle of the projected vertices.
func FitCylinder(m *spatialmath.Mesh) (spatialmath.Geometry, error) {
	in, err := newFitInput(m)
	if err != nil {
		return nil, err
	}
	return in.cylinder(labelFor(m, KindCylinder))
}

func (in *fitInput) cylinder(label string) (spatialmath.Geometry, error) {
	fit := in.fitCylinder()
	if !spatialmath.IsFinite(fit.center) || !spatialmath.IsFinite(fit.axis) ||
		math.IsNaN(fit.radius) || math.IsInf(fit.radius, 0) || math.IsNaN(fit.length) || math.IsInf(fit.length, 0) {
		return nil, newError(NumericInstability, errNonFinite("cylinder"))
	}
	axis := canonicalAxis(fit.axis)
	pose := spatialmath.NewPose(fit.center, spatialmath.RotationBetween(r3.Vector{Z: 1}, axis))
	return spatialmath.NewCylinder(pose, fit.radius, fit.length, label)
}

func (in *fitInput) fitCylinder() cylinderFit {
	candidates := append([]r3.Vector(nil), in.normals...)
	box := in.fitBox()
	candidates = append(candidates, box.axes[:]...)
	candidates = append(candidates, fibonacciHemisphere(axisSampleCount)...)
	candidates = dedupDirections(candidates)

	best := cylinderFit{radius: math.Inf(1), length: math.Inf(1)}
	bestVolume := math.Inf(1)
	for _, axis := range candidates {
		cand := cylinderAlong(in.points, axis)
		if v := cand.volume(); v < bestVolume*(1-improvementTolerance) || math.IsInf(bestVolume, 1) {
			best, bestVolume = cand, v
		}
	}
	if bestVolume == 0 || math.IsInf(bestVolume, 1) {
		return best
	}
	return in.refineCylinder(best)
}

// refineCylinder runs a compass search over the axis direction in spherical coordinates, keeping a move only
// when it strictly shrinks the cylinder.
func (in *fitInput) refineCylinder(start cylinderFit) cylinderFit {
	best := start
	bestVolume := best.volume()
	theta := math.Acos(math.Max(-1, math.Min(1, best.axis.Z)))
	phi := math.Atan2(best.axis.Y, best.axis.X)

	step := refineInitialStep
	for iter := 0; iter < refineMaxIters && step > refineMinStep; iter++ {
		improved := false
		nextTheta, nextPhi := theta, phi
		for _, delta := range [4][2]float64{{step, 0}, {-step, 0}, {0, step}, {0, -step}} {
			t, p := theta+delta[0], phi+delta[1]
			cand := cylinderAlong(in.points, fromSpherical(t, p))
			if v := cand.volume(); v < bestVolume*(1-improvementTolerance) {
				best, bestVolume = cand, v
				nextTheta, nextPhi = t, p
				improved = true
			}
		}
		if improved {
			theta, phi = nextTheta, nextPhi
		} else {
			step /= 2
		}
	}
	return best
}

// cylinderAlong fits the smallest cylinder with the given axis direction.
func cylinderAlong(points []r3.Vector, axis r3.Vector) cylinderFit {
	u, v, flat, lo, hi := projectAlong(points, axis)
	c := minEnclosingCircle(flat)
	center := u.Mul(c.center.X).Add(v.Mul(c.center.Y)).Add(axis.Mul((lo + hi) / 2))
	return cylinderFit{axis: axis, center: center, radius: c.radius, length: hi - lo}
}

func fromSpherical(theta, phi float64) r3.Vector {
	sinT := math.Sin(theta)
	return r3.Vector{X: sinT * math.Cos(phi), Y: sinT * math.Sin(phi), Z: math.Cos(theta)}
}

// fibonacciHemisphere spreads n directions evenly over the upper hemisphere. A cylinder axis and its
// opposite describe the same cylinder, so the lower half is never needed.
func fibonacciHemisphere(n int) []r3.Vector {
	golden := math.Pi * (3 - math.Sqrt(5))
	dirs := make([]r3.Vector, 0, n)
	for i := 0; i < n; i++ {
		z := 1 - (float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - z*z)
		angle := golden * float64(i)
		dirs = append(dirs, r3.Vector{X: r * math.Cos(angle), Y: r * math.Sin(angle), Z: z})
	}
	return dirs
}

// canonicalAxis flips the axis into the upper hemisphere so the rotation taking +Z onto it is the smaller
// of the two equivalent ones.
func canonicalAxis(axis r3.Vector) r3.Vector {
	axis = axis.Normalize()
	switch {
	case axis.Z < 0, axis.Z == 0 && axis.X < 0, axis.Z == 0 && axis.X == 0 && axis.Y < 0:
		return axis.Mul(-1)
	default:
		return axis
	}
}
