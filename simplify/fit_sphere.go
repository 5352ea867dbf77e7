package simplify

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/collisionsimplify/spatialmath"
)

type ball struct {
	center r3.Vector
	radius float64
}

func (b ball) contains(p r3.Vector) bool {
	return p.Sub(b.center).Norm() <= b.radius*(1+enclosingTolerance)+enclosingTolerance
}

// FitSphere returns the minimum enclosing sphere of the mesh vertices, placed with an identity rotation.
func FitSphere(m *spatialmath.Mesh) (spatialmath.Geometry, error) {
	in, err := newFitInput(m)
	if err != nil {
		return nil, err
	}
	return in.sphere(labelFor(m, KindSphere))
}

func (in *fitInput) sphere(label string) (spatialmath.Geometry, error) {
	b := minEnclosingBall(in.points)
	if !spatialmath.IsFinite(b.center) || math.IsNaN(b.radius) || math.IsInf(b.radius, 0) {
		return nil, newError(NumericInstability, errNonFinite("sphere"))
	}
	return spatialmath.NewSphere(spatialmath.NewPoseFromPoint(b.center), b.radius, label)
}

// minEnclosingBall is the iterative form of Welzl's algorithm extended to four support points. The points
// are visited in the given order, which the fit input has already shuffled with a fixed seed.
func minEnclosingBall(points []r3.Vector) ball {
	if len(points) == 0 {
		return ball{}
	}
	b := ball{center: points[0]}
	for i := 1; i < len(points); i++ {
		if b.contains(points[i]) {
			continue
		}
		b = ball{center: points[i]}
		for j := 0; j < i; j++ {
			if b.contains(points[j]) {
				continue
			}
			b = ballFrom2(points[i], points[j])
			for k := 0; k < j; k++ {
				if b.contains(points[k]) {
					continue
				}
				b = ballFrom3(points[i], points[j], points[k])
				for l := 0; l < k; l++ {
					if !b.contains(points[l]) {
						b = ballFrom4(points[i], points[j], points[k], points[l])
					}
				}
			}
		}
	}
	// Rounding in the support computations can leave a point a hair outside; grow to cover it.
	for _, p := range points {
		b.radius = math.Max(b.radius, p.Sub(b.center).Norm())
	}
	return b
}

func ballFrom2(a, b r3.Vector) ball {
	return ball{center: a.Add(b).Mul(0.5), radius: a.Sub(b).Norm() / 2}
}

// ballFrom3 is the smallest ball with all three points on its surface: centered on their circumcircle.
func ballFrom3(a, b, c r3.Vector) ball {
	ab, ac := b.Sub(a), c.Sub(a)
	n := ab.Cross(ac)
	n2 := n.Norm2()
	if n2 <= enclosingTolerance*ab.Norm2()*ac.Norm2() {
		best := ballFrom2(a, b)
		for _, cand := range []ball{ballFrom2(a, c), ballFrom2(b, c)} {
			if cand.radius > best.radius {
				best = cand
			}
		}
		return best
	}
	offset := n.Cross(ab).Mul(ac.Norm2()).Add(ac.Cross(n).Mul(ab.Norm2())).Mul(1 / (2 * n2))
	return ball{center: a.Add(offset), radius: offset.Norm()}
}

// ballFrom4 is the circumsphere of a tetrahedron. Flat tetrahedra fall back to the smallest ball spanned by
// a subset of the points that still covers all four.
func ballFrom4(a, b, c, d r3.Vector) ball {
	if center, ok := circumcenter(a, b, c, d); ok {
		return ball{center: center, radius: center.Sub(a).Norm()}
	}
	pts := [4]r3.Vector{a, b, c, d}
	candidates := []ball{
		ballFrom3(a, b, c), ballFrom3(a, b, d), ballFrom3(a, c, d), ballFrom3(b, c, d),
		ballFrom2(a, b), ballFrom2(a, c), ballFrom2(a, d), ballFrom2(b, c), ballFrom2(b, d), ballFrom2(c, d),
	}
	best := ball{radius: math.Inf(1)}
	for _, cand := range candidates {
		if cand.radius >= best.radius {
			continue
		}
		covers := true
		for _, p := range pts {
			if !cand.contains(p) {
				covers = false
				break
			}
		}
		if covers {
			best = cand
		}
	}
	if math.IsInf(best.radius, 1) {
		best = ballFrom3(a, b, c)
		best.radius = math.Max(best.radius, d.Sub(best.center).Norm())
	}
	return best
}

// circumcenter solves for the point equidistant from four points by subtracting the first sphere equation
// from the other three.
func circumcenter(p0, p1, p2, p3 r3.Vector) (r3.Vector, bool) {
	e1, e2, e3 := p1.Sub(p0), p2.Sub(p0), p3.Sub(p0)
	scale := e1.Norm() * e2.Norm() * e3.Norm()
	if scale == 0 || math.Abs(e1.Dot(e2.Cross(e3))) <= 1e-9*scale {
		return r3.Vector{}, false
	}

	a := mat.NewDense(3, 3, []float64{
		2 * e1.X, 2 * e1.Y, 2 * e1.Z,
		2 * e2.X, 2 * e2.Y, 2 * e2.Z,
		2 * e3.X, 2 * e3.Y, 2 * e3.Z,
	})
	b := mat.NewVecDense(3, []float64{e1.Norm2(), e2.Norm2(), e3.Norm2()})
	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return r3.Vector{}, false
	}
	offset := r3.Vector{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}
	if !spatialmath.IsFinite(offset) {
		return r3.Vector{}, false
	}
	return p0.Add(offset), true
}
