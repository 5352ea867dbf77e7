package simplify

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/collisionsimplify/spatialmath"
)

// boxFit is an oriented box given by three orthonormal axes, the center and the full extent along each axis.
type boxFit struct {
	axes   [3]r3.Vector
	center r3.Vector
	dims   r3.Vector
}

func (b boxFit) volume() float64 {
	return b.dims.X * b.dims.Y * b.dims.Z
}

// FitBox returns the oriented bounding box of the mesh: the smallest box with a face flush against a face of
// the mesh's convex hull (or, for a flat mesh, aligned with its principal axes) that contains every vertex.
func FitBox(m *spatialmath.Mesh) (spatialmath.Geometry, error) {
	in, err := newFitInput(m)
	if err != nil {
		return nil, err
	}
	return in.box(labelFor(m, KindBox))
}

func (in *fitInput) box(label string) (spatialmath.Geometry, error) {
	fit := in.fitBox()
	if !spatialmath.IsFinite(fit.center) || !spatialmath.IsFinite(fit.dims) {
		return nil, newError(NumericInstability, errNonFinite("box"))
	}
	rot, dims := canonicalBoxFrame(fit.axes, fit.dims)
	return spatialmath.NewBox(spatialmath.NewPose(fit.center, rot), dims, label)
}

func (in *fitInput) fitBox() boxFit {
	if in.boxed != nil {
		return *in.boxed
	}
	var best boxFit
	bestVolume := math.Inf(1)
	for _, n := range in.normals {
		cand := boxAlong(in.points, n)
		if v := cand.volume(); v < bestVolume*(1-improvementTolerance) || math.IsInf(bestVolume, 1) {
			best, bestVolume = cand, v
		}
	}
	in.boxed = &best
	return best
}

// boxAlong fits the smallest box that has one pair of faces orthogonal to n.
func boxAlong(points []r3.Vector, n r3.Vector) boxFit {
	u, v, flat, lo, hi := projectAlong(points, n)
	rect := minAreaRectangle(convexHull2D(flat))
	perp := rect.dir.Ortho()
	a1 := u.Mul(rect.dir.X).Add(v.Mul(rect.dir.Y))
	a2 := u.Mul(perp.X).Add(v.Mul(perp.Y))

	center := a1.Mul((rect.minU + rect.maxU) / 2).
		Add(a2.Mul((rect.minV + rect.maxV) / 2)).
		Add(n.Mul((lo + hi) / 2))
	return boxFit{
		axes:   [3]r3.Vector{a1, a2, n},
		center: center,
		dims:   r3.Vector{X: rect.maxU - rect.minU, Y: rect.maxV - rect.minV, Z: hi - lo},
	}
}

var axisPermutations = [6][3]int{{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0}}

// canonicalBoxFrame picks, among the 24 right handed relabelings of the box axes, the one whose rotation is
// closest to the identity. The box is unchanged; only its description is normalized.
func canonicalBoxFrame(axes [3]r3.Vector, dims r3.Vector) (*spatialmath.RotationMatrix, r3.Vector) {
	d := [3]float64{dims.X, dims.Y, dims.Z}
	var bestCols [3]r3.Vector
	var bestDims [3]float64
	bestTrace := math.Inf(-1)
	for _, perm := range axisPermutations {
		for signs := 0; signs < 8; signs++ {
			var cols [3]r3.Vector
			for i := 0; i < 3; i++ {
				s := 1.
				if signs&(1<<i) != 0 {
					s = -1
				}
				cols[i] = axes[perm[i]].Mul(s)
			}
			if cols[0].Dot(cols[1].Cross(cols[2])) <= 0 {
				continue
			}
			if trace := cols[0].X + cols[1].Y + cols[2].Z; trace > bestTrace+1e-12 {
				bestTrace = trace
				bestCols = cols
				bestDims = [3]float64{d[perm[0]], d[perm[1]], d[perm[2]]}
			}
		}
	}
	return spatialmath.NewRotationMatrixFromColumns(bestCols[0], bestCols[1], bestCols[2]),
		r3.Vector{X: bestDims[0], Y: bestDims[1], Z: bestDims[2]}
}
