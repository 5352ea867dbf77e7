package simplify

import (
	"math"
	"math/rand"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/collisionsimplify/spatialmath"
)

const (
	// shuffleSeed fixes the visiting order of the enclosing circle and sphere searches so fits are reproducible.
	shuffleSeed = 42
	// normalDedupTolerance is how close |n1·n2| must be to one for two candidate directions to be merged.
	normalDedupTolerance = 1e-10
	// improvementTolerance is the relative volume decrease a later candidate needs to replace an earlier one.
	improvementTolerance = 1e-10
	// enclosingTolerance absorbs rounding when testing whether a point lies inside a circle or sphere.
	enclosingTolerance = 1e-12
	// maxHullNormals caps the hull face directions tried as box faces. Directions are ranked by the total
	// hull area facing them, so large flat sides are always tried.
	maxHullNormals = 48
	// normalGrid is the resolution at which nearly equal face normals share a bucket.
	normalGrid = 1e7
)

// fitInput holds the points every fitter works on. Interior points cannot change a bounding primitive, so
// when the mesh has a volumetric hull only the hull vertices are kept.
type fitInput struct {
	points  []r3.Vector
	hull    *spatialmath.Mesh
	hullErr error
	normals []r3.Vector
	// boxed caches the box fit, which the cylinder search also starts from.
	boxed *boxFit
}

func newFitInput(m *spatialmath.Mesh) (*fitInput, error) {
	if m == nil || m.IsEmpty() {
		return nil, newError(EmptyMesh, errors.New("mesh has no vertices or faces"))
	}
	for _, v := range m.Vertices() {
		if !spatialmath.IsFinite(v) {
			return nil, newError(NumericInstability, errors.Errorf("mesh %q has a non-finite vertex", m.Label()))
		}
	}

	in := &fitInput{}
	hull, err := m.ConvexHull()
	switch {
	case err == nil:
		in.hull = hull
		in.points = append([]r3.Vector(nil), hull.Vertices()...)
	case errors.Is(err, spatialmath.ErrDegeneratePoints):
		in.hullErr = err
		in.points = spatialmath.UniquePoints(m.Vertices())
	default:
		return nil, newError(NumericInstability, err)
	}

	//nolint:gosec
	rng := rand.New(rand.NewSource(shuffleSeed))
	rng.Shuffle(len(in.points), func(i, j int) {
		in.points[i], in.points[j] = in.points[j], in.points[i]
	})

	var candidates []r3.Vector
	if in.hull != nil {
		candidates = dominantNormals(in.hull.Triangles(), maxHullNormals)
	}
	pca := principalAxes(in.points)
	candidates = append(candidates, pca[:]...)
	in.normals = dedupDirections(candidates)
	return in, nil
}

// dominantNormals buckets the face normals by direction, ignoring sign, and returns up to limit directions
// ordered by the total area of the faces in their bucket. Equal areas keep the order of first appearance.
func dominantNormals(tris []*spatialmath.Triangle, limit int) []r3.Vector {
	type bucket struct {
		dir  r3.Vector
		area float64
	}
	var buckets []bucket
	index := make(map[[3]int64]int)
	for _, tri := range tris {
		n := tri.Normal()
		if n.Norm2() == 0 || !spatialmath.IsFinite(n) {
			continue
		}
		n = canonicalDirection(n.Normalize())
		key := [3]int64{
			int64(math.Round(n.X * normalGrid)),
			int64(math.Round(n.Y * normalGrid)),
			int64(math.Round(n.Z * normalGrid)),
		}
		i, ok := index[key]
		if !ok {
			i = len(buckets)
			index[key] = i
			buckets = append(buckets, bucket{dir: n})
		}
		buckets[i].area += tri.Area()
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].area > buckets[j].area
	})
	if len(buckets) > limit {
		buckets = buckets[:limit]
	}
	dirs := make([]r3.Vector, len(buckets))
	for i, b := range buckets {
		dirs[i] = b.dir
	}
	return dirs
}

// principalAxes returns the eigenvectors of the covariance of the points, smallest variance first.
func principalAxes(points []r3.Vector) [3]r3.Vector {
	axes := [3]r3.Vector{{X: 1}, {Y: 1}, {Z: 1}}
	if len(points) == 0 {
		return axes
	}
	var centroid r3.Vector
	for _, p := range points {
		centroid = centroid.Add(p)
	}
	centroid = centroid.Mul(1 / float64(len(points)))

	cov := mat.NewSymDense(3, nil)
	for _, p := range points {
		d := p.Sub(centroid)
		c := [3]float64{d.X, d.Y, d.Z}
		for i := 0; i < 3; i++ {
			for j := i; j < 3; j++ {
				cov.SetSym(i, j, cov.At(i, j)+c[i]*c[j])
			}
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(cov, true); !ok {
		return axes
	}
	var vecs mat.Dense
	eig.VectorsTo(&vecs)
	for i := 0; i < 3; i++ {
		v := r3.Vector{X: vecs.At(0, i), Y: vecs.At(1, i), Z: vecs.At(2, i)}
		if v.Norm2() == 0 || !spatialmath.IsFinite(v) {
			continue
		}
		axes[i] = canonicalDirection(v.Normalize())
	}
	return axes
}

// canonicalDirection returns whichever of v and -v has a positive first non-zero component.
func canonicalDirection(v r3.Vector) r3.Vector {
	switch {
	case v.X < 0, v.X == 0 && v.Y < 0, v.X == 0 && v.Y == 0 && v.Z < 0:
		return v.Mul(-1)
	default:
		return v
	}
}

// dedupDirections normalizes the directions and drops those parallel or antiparallel to an earlier one.
func dedupDirections(dirs []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, 0, len(dirs))
	for _, d := range dirs {
		if d.Norm2() == 0 || !spatialmath.IsFinite(d) {
			continue
		}
		d = canonicalDirection(d.Normalize())
		duplicate := false
		for _, seen := range out {
			if math.Abs(seen.Dot(d)) > 1-normalDedupTolerance {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, d)
		}
	}
	return out
}

// perpendicularBasis returns unit vectors u, v such that (u, v, n) is a right handed orthonormal frame.
func perpendicularBasis(n r3.Vector) (r3.Vector, r3.Vector) {
	helper := r3.Vector{X: 1}
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case ay < ax && ay <= az:
		helper = r3.Vector{Y: 1}
	case az < ax && az < ay:
		helper = r3.Vector{Z: 1}
	}
	u := helper.Sub(n.Mul(n.Dot(helper))).Normalize()
	return u, n.Cross(u)
}

// projectAlong splits points into 2D coordinates in the plane orthogonal to n and their extent along n.
func projectAlong(points []r3.Vector, n r3.Vector) (u, v r3.Vector, flat []r2.Point, lo, hi float64) {
	u, v = perpendicularBasis(n)
	flat = make([]r2.Point, len(points))
	lo, hi = math.Inf(1), math.Inf(-1)
	for i, p := range points {
		flat[i] = r2.Point{X: p.Dot(u), Y: p.Dot(v)}
		h := p.Dot(n)
		lo = math.Min(lo, h)
		hi = math.Max(hi, h)
	}
	return u, v, flat, lo, hi
}

// convexHull2D returns the counter-clockwise convex hull of the points using Andrew's monotone chain.
// Collinear boundary points are dropped.
func convexHull2D(points []r2.Point) []r2.Point {
	pts := append([]r2.Point(nil), points...)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})
	unique := pts[:0]
	for i, p := range pts {
		if i == 0 || p != pts[i-1] {
			unique = append(unique, p)
		}
	}
	pts = unique
	if len(pts) < 3 {
		return pts
	}

	turn := func(o, a, b r2.Point) float64 {
		return a.Sub(o).Cross(b.Sub(o))
	}
	hull := make([]r2.Point, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && turn(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// rectangle2D is an oriented rectangle given by a unit direction and the extents of the points along it and
// along its counter-clockwise perpendicular.
type rectangle2D struct {
	dir                    r2.Point
	minU, maxU, minV, maxV float64
}

func (r rectangle2D) area() float64 {
	return (r.maxU - r.minU) * (r.maxV - r.minV)
}

func boundingRectangle(points []r2.Point, dir r2.Point) rectangle2D {
	perp := dir.Ortho()
	r := rectangle2D{dir: dir, minU: math.Inf(1), maxU: math.Inf(-1), minV: math.Inf(1), maxV: math.Inf(-1)}
	for _, p := range points {
		u, v := p.Dot(dir), p.Dot(perp)
		r.minU, r.maxU = math.Min(r.minU, u), math.Max(r.maxU, u)
		r.minV, r.maxV = math.Min(r.minV, v), math.Max(r.maxV, v)
	}
	return r
}

// minAreaRectangle finds the smallest rectangle enclosing a convex polygon given counter-clockwise. One of
// its sides is always flush with an edge of the polygon; rotating calipers visit every edge while the three
// other supporting vertices only move forward, so the search is linear in the polygon size.
func minAreaRectangle(hull []r2.Point) rectangle2D {
	n := len(hull)
	switch n {
	case 0:
		return rectangle2D{dir: r2.Point{X: 1}}
	case 1:
		return boundingRectangle(hull, r2.Point{X: 1})
	case 2:
		if edge := hull[1].Sub(hull[0]); edge.Norm() > 0 {
			return boundingRectangle(hull, edge.Normalize())
		}
		return boundingRectangle(hull, r2.Point{X: 1})
	}

	// advance moves idx forward while the next vertex is at least as far along dir.
	advance := func(idx int, dir r2.Point) int {
		for steps := 0; steps < n && hull[(idx+1)%n].Dot(dir) >= hull[idx].Dot(dir); steps++ {
			idx = (idx + 1) % n
		}
		return idx
	}

	// right, top and left support the rectangle along the edge direction, its inward normal and the
	// opposite of the edge direction; the edge itself is the bottom side.
	var right, top, left int
	var started bool
	var bestDir r2.Point
	bestArea := math.Inf(1)
	for i := 0; i < n; i++ {
		edge := hull[(i+1)%n].Sub(hull[i])
		if edge.Norm() == 0 {
			continue
		}
		dir := edge.Normalize()
		perp := dir.Ortho()
		if !started {
			right, started = advance(i, dir), true
			top = advance(right, perp)
			left = advance(top, dir.Mul(-1))
		} else {
			right = advance(right, dir)
			top = advance(top, perp)
			left = advance(left, dir.Mul(-1))
		}

		width := hull[right].Dot(dir) - hull[left].Dot(dir)
		height := hull[top].Dot(perp) - hull[i].Dot(perp)
		if a := width * height; a < bestArea*(1-improvementTolerance) || math.IsInf(bestArea, 1) {
			bestDir, bestArea = dir, a
		}
	}
	if math.IsInf(bestArea, 1) {
		return boundingRectangle(hull, r2.Point{X: 1})
	}
	// The calipers only choose the direction; the extents are measured over every vertex.
	return boundingRectangle(hull, bestDir)
}

type circle struct {
	center r2.Point
	radius float64
}

func (c circle) contains(p r2.Point) bool {
	return p.Sub(c.center).Norm() <= c.radius*(1+enclosingTolerance)+enclosingTolerance
}

func circleFrom2(a, b r2.Point) circle {
	return circle{center: a.Add(b).Mul(0.5), radius: a.Sub(b).Norm() / 2}
}

func circleFrom3(a, b, c r2.Point) circle {
	ab, ac := b.Sub(a), c.Sub(a)
	d := 2 * ab.Cross(ac)
	if math.Abs(d) <= enclosingTolerance*ab.Norm()*ac.Norm() {
		return widestCircle(a, b, c)
	}
	ab2, ac2 := ab.Dot(ab), ac.Dot(ac)
	offset := r2.Point{X: (ac.Y*ab2 - ab.Y*ac2) / d, Y: (ab.X*ac2 - ac.X*ab2) / d}
	return circle{center: a.Add(offset), radius: offset.Norm()}
}

// widestCircle is the circle on the farthest pair of three collinear points.
func widestCircle(a, b, c r2.Point) circle {
	best := circleFrom2(a, b)
	for _, cand := range []circle{circleFrom2(a, c), circleFrom2(b, c)} {
		if cand.radius > best.radius {
			best = cand
		}
	}
	return best
}

// minEnclosingCircle is Welzl's algorithm in its iterative form. The caller controls the visiting order.
func minEnclosingCircle(points []r2.Point) circle {
	if len(points) == 0 {
		return circle{}
	}
	c := circle{center: points[0]}
	for i := 1; i < len(points); i++ {
		if c.contains(points[i]) {
			continue
		}
		c = circle{center: points[i]}
		for j := 0; j < i; j++ {
			if c.contains(points[j]) {
				continue
			}
			c = circleFrom2(points[i], points[j])
			for k := 0; k < j; k++ {
				if !c.contains(points[k]) {
					c = circleFrom3(points[i], points[j], points[k])
				}
			}
		}
	}
	for _, p := range points {
		c.radius = math.Max(c.radius, p.Sub(c.center).Norm())
	}
	return c
}
