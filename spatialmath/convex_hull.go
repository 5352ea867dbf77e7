package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// hullTolerance is the distance, relative to the diagonal of the point set's bounding box, below which a
// point is considered to lie on a plane rather than in front of it.
const hullTolerance = 1e-9

// compactAfter is the number of discarded faces that triggers dropping them from the working set.
const compactAfter = 1024

type hullFace struct {
	v      [3]int
	normal r3.Vector
	offset float64
	alive  bool
}

func newHullFace(pts []r3.Vector, a, b, c int) hullFace {
	n := PlaneNormal(pts[a], pts[b], pts[c])
	return hullFace{v: [3]int{a, b, c}, normal: n, offset: n.Dot(pts[a]), alive: true}
}

func (f *hullFace) distance(p r3.Vector) float64 {
	return f.normal.Dot(p) - f.offset
}

// NewConvexHull computes the convex hull of a set of points as a closed mesh whose faces are wound with
// outward normals. Points that are collinear or coplanar have no volumetric hull and produce an error
// matching ErrDegeneratePoints.
func NewConvexHull(points []r3.Vector) (*Mesh, error) {
	pts := UniquePoints(points)
	for _, p := range pts {
		if !IsFinite(p) {
			return nil, errors.New("cannot compute convex hull of non-finite points")
		}
	}
	if len(pts) < 4 {
		return nil, newDegeneratePointsError("fewer than four distinct points")
	}
	lo, hi := BoundingBox(pts)
	eps := hullTolerance * hi.Sub(lo).Norm()

	simplex, err := initialSimplex(pts, eps)
	if err != nil {
		return nil, err
	}

	faces := make([]hullFace, 0, 64)
	edgeFace := make(map[[2]int]int)
	addFace := func(a, b, c int) {
		faces = append(faces, newHullFace(pts, a, b, c))
		idx := len(faces) - 1
		for i := 0; i < 3; i++ {
			edgeFace[[2]int{faces[idx].v[i], faces[idx].v[(i+1)%3]}] = idx
		}
	}
	// Discarded faces stay in place so indices in edgeFace remain valid; once they outnumber the live ones
	// they are dropped and the edge index is rebuilt.
	var dead int
	compact := func() {
		live := faces[:0]
		for _, f := range faces {
			if f.alive {
				live = append(live, f)
			}
		}
		faces = live
		edgeFace = make(map[[2]int]int, 3*len(faces))
		for idx, f := range faces {
			for i := 0; i < 3; i++ {
				edgeFace[[2]int{f.v[i], f.v[(i+1)%3]}] = idx
			}
		}
		dead = 0
	}

	// Wind each face of the starting tetrahedron away from the vertex it does not contain.
	for _, tri := range [4][4]int{{0, 1, 2, 3}, {0, 3, 1, 2}, {1, 3, 2, 0}, {0, 2, 3, 1}} {
		a, b, c, opposite := simplex[tri[0]], simplex[tri[1]], simplex[tri[2]], simplex[tri[3]]
		f := newHullFace(pts, a, b, c)
		if f.distance(pts[opposite]) > 0 {
			b, c = c, b
		}
		addFace(a, b, c)
	}

	used := map[int]bool{simplex[0]: true, simplex[1]: true, simplex[2]: true, simplex[3]: true}
	for pi, p := range pts {
		if used[pi] {
			continue
		}
		if dead > compactAfter && dead > len(faces)-dead {
			compact()
		}
		visible := make(map[int]bool)
		for fi := range faces {
			if faces[fi].alive && faces[fi].distance(p) > eps {
				visible[fi] = true
			}
		}
		if len(visible) == 0 {
			continue
		}

		var horizon [][2]int
		for fi := range faces {
			if !visible[fi] {
				continue
			}
			for i := 0; i < 3; i++ {
				a, b := faces[fi].v[i], faces[fi].v[(i+1)%3]
				if neighbor, ok := edgeFace[[2]int{b, a}]; !ok || !visible[neighbor] {
					horizon = append(horizon, [2]int{a, b})
				}
			}
		}
		for fi := range faces {
			if !visible[fi] {
				continue
			}
			faces[fi].alive = false
			dead++
			for i := 0; i < 3; i++ {
				delete(edgeFace, [2]int{faces[fi].v[i], faces[fi].v[(i+1)%3]})
			}
		}
		for _, e := range horizon {
			addFace(e[0], e[1], pi)
		}
	}

	remap := make(map[int]int)
	var vertices []r3.Vector
	var hullFaces [][3]int
	for _, f := range faces {
		if !f.alive {
			continue
		}
		var out [3]int
		for i, idx := range f.v {
			mapped, ok := remap[idx]
			if !ok {
				mapped = len(vertices)
				remap[idx] = mapped
				vertices = append(vertices, pts[idx])
			}
			out[i] = mapped
		}
		hullFaces = append(hullFaces, out)
	}
	return &Mesh{vertices: vertices, faces: hullFaces}, nil
}

// initialSimplex picks four points spanning a tetrahedron of maximal extent, failing when the points
// are coincident, collinear or coplanar within eps.
func initialSimplex(pts []r3.Vector, eps float64) ([4]int, error) {
	var s [4]int
	for i, p := range pts {
		if p.X < pts[s[0]].X {
			s[0] = i
		}
	}
	best := -1.
	for i, p := range pts {
		if d := p.Sub(pts[s[0]]).Norm(); d > best {
			best, s[1] = d, i
		}
	}
	if best <= eps {
		return s, newDegeneratePointsError("all points coincide")
	}

	dir := pts[s[1]].Sub(pts[s[0]]).Normalize()
	best = -1
	for i, p := range pts {
		if d := p.Sub(pts[s[0]]).Cross(dir).Norm(); d > best {
			best, s[2] = d, i
		}
	}
	if best <= eps {
		return s, newDegeneratePointsError("all points are collinear")
	}

	normal := PlaneNormal(pts[s[0]], pts[s[1]], pts[s[2]])
	best = -1
	for i, p := range pts {
		if d := math.Abs(normal.Dot(p.Sub(pts[s[0]]))); d > best {
			best, s[3] = d, i
		}
	}
	if best <= eps {
		return s, newDegeneratePointsError("all points are coplanar")
	}
	return s, nil
}
