package simplify

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/collisionsimplify/spatialmath"
)

// boxFaces winds the 12 triangles of a box whose corner i has sign bits (x, y, z) = (i&4, i&2, i&1).
var boxFaces = [][3]int{
	{0, 1, 3}, {0, 3, 2},
	{4, 6, 7}, {4, 7, 5},
	{0, 4, 5}, {0, 5, 1},
	{2, 3, 7}, {2, 7, 6},
	{0, 2, 6}, {0, 6, 4},
	{1, 5, 7}, {1, 7, 3},
}

func makeBoxMesh(t *testing.T, dims r3.Vector, pose spatialmath.Pose) *spatialmath.Mesh {
	t.Helper()
	verts := make([]r3.Vector, 0, 8)
	for i := 0; i < 8; i++ {
		local := r3.Vector{X: -dims.X / 2, Y: -dims.Y / 2, Z: -dims.Z / 2}
		if i&4 != 0 {
			local.X = dims.X / 2
		}
		if i&2 != 0 {
			local.Y = dims.Y / 2
		}
		if i&1 != 0 {
			local.Z = dims.Z / 2
		}
		verts = append(verts, spatialmath.TransformPoint(pose, local))
	}
	m, err := spatialmath.NewMesh(verts, boxFaces, "box")
	test.That(t, err, test.ShouldBeNil)
	return m
}

func makeUnitCube(t *testing.T) *spatialmath.Mesh {
	t.Helper()
	return makeBoxMesh(t, r3.Vector{X: 1, Y: 1, Z: 1}, spatialmath.NewZeroPose())
}

// makeCylinderMesh builds a closed prism with the given number of sides around the local Z axis.
func makeCylinderMesh(t *testing.T, radius, length float64, sides int, pose spatialmath.Pose) *spatialmath.Mesh {
	t.Helper()
	verts := make([]r3.Vector, 0, 2*sides+2)
	for _, z := range []float64{-length / 2, length / 2} {
		for i := 0; i < sides; i++ {
			a := 2 * math.Pi * float64(i) / float64(sides)
			verts = append(verts, r3.Vector{X: radius * math.Cos(a), Y: radius * math.Sin(a), Z: z})
		}
	}
	verts = append(verts, r3.Vector{Z: -length / 2}, r3.Vector{Z: length / 2})
	for i := range verts {
		verts[i] = spatialmath.TransformPoint(pose, verts[i])
	}
	bottomCenter, topCenter := 2*sides, 2*sides+1
	var faces [][3]int
	for i := 0; i < sides; i++ {
		next := (i + 1) % sides
		b0, b1, t0, t1 := i, next, sides+i, sides+next
		faces = append(faces,
			[3]int{b0, b1, t1}, [3]int{b0, t1, t0},
			[3]int{bottomCenter, b1, b0}, [3]int{topCenter, t0, t1},
		)
	}
	m, err := spatialmath.NewMesh(verts, faces, "cylinder")
	test.That(t, err, test.ShouldBeNil)
	return m
}

// makeBlobMesh is the convex hull of a fixed cloud of points, an irregular closed mesh.
func makeBlobMesh(t *testing.T) *spatialmath.Mesh {
	t.Helper()
	//nolint:gosec
	rng := rand.New(rand.NewSource(7))
	pts := make([]r3.Vector, 0, 60)
	for i := 0; i < 60; i++ {
		pts = append(pts, r3.Vector{X: 0.3 + rng.Float64()*1.2, Y: -0.5 + rng.Float64()*0.6, Z: rng.Float64() * 0.9})
	}
	m, err := spatialmath.NewConvexHull(pts)
	test.That(t, err, test.ShouldBeNil)
	return m
}

// makeFlatMesh is a 3x3 grid of quads in the z=0 plane, one vertex lifted by far less than the hull tolerance.
func makeFlatMesh(t *testing.T) *spatialmath.Mesh {
	t.Helper()
	var verts []r3.Vector
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			verts = append(verts, r3.Vector{X: float64(x) * 0.1, Y: float64(y) * 0.1})
		}
	}
	verts[5].Z = 1e-14
	var faces [][3]int
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			i := y*4 + x
			faces = append(faces, [3]int{i, i + 1, i + 5}, [3]int{i, i + 5, i + 4})
		}
	}
	m, err := spatialmath.NewMesh(verts, faces, "flat")
	test.That(t, err, test.ShouldBeNil)
	return m
}

// makeOpenBox is a box missing its top two faces.
func makeOpenBox(t *testing.T) *spatialmath.Mesh {
	t.Helper()
	closed := makeUnitCube(t)
	m, err := spatialmath.NewMesh(closed.Vertices(), closed.Faces()[:10], "open")
	test.That(t, err, test.ShouldBeNil)
	return m
}

func assertContainsVertices(t *testing.T, g spatialmath.Geometry, m *spatialmath.Mesh) {
	t.Helper()
	for _, v := range m.Vertices() {
		test.That(t, g.ContainsPoint(v, 1e-6), test.ShouldBeTrue)
	}
}

// makeSphereMesh is the convex hull of n points spread evenly over the unit sphere, so every point is a hull
// vertex.
func makeSphereMesh(t *testing.T, n int) *spatialmath.Mesh {
	t.Helper()
	golden := math.Pi * (3 - math.Sqrt(5))
	pts := make([]r3.Vector, 0, n)
	for i := 0; i < n; i++ {
		z := 1 - 2*(float64(i)+0.5)/float64(n)
		r := math.Sqrt(1 - z*z)
		pts = append(pts, r3.Vector{X: r * math.Cos(golden*float64(i)), Y: r * math.Sin(golden*float64(i)), Z: z})
	}
	m, err := spatialmath.NewConvexHull(pts)
	test.That(t, err, test.ShouldBeNil)
	return m
}
