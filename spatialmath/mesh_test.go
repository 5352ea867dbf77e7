package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

// unit cube corners, indexed by sign bits (x, y, z) = (i&4, i&2, i&1)
func cubeVertices(size float64) []r3.Vector {
	verts := make([]r3.Vector, 8)
	for i := range verts {
		v := r3.Vector{X: -size / 2, Y: -size / 2, Z: -size / 2}
		if i&4 != 0 {
			v.X = size / 2
		}
		if i&2 != 0 {
			v.Y = size / 2
		}
		if i&1 != 0 {
			v.Z = size / 2
		}
		verts[i] = v
	}
	return verts
}

var cubeFaces = [][3]int{
	{0, 1, 3}, {0, 3, 2},
	{4, 6, 7}, {4, 7, 5},
	{0, 4, 5}, {0, 5, 1},
	{2, 3, 7}, {2, 7, 6},
	{0, 2, 6}, {0, 6, 4},
	{1, 5, 7}, {1, 7, 3},
}

func makeCube(t *testing.T, size float64) *Mesh {
	t.Helper()
	m, err := NewMesh(cubeVertices(size), cubeFaces, "cube")
	test.That(t, err, test.ShouldBeNil)
	return m
}

func TestNewMesh(t *testing.T) {
	m := makeCube(t, 2)
	test.That(t, m.Label(), test.ShouldEqual, "cube")
	test.That(t, m.Vertices(), test.ShouldHaveLength, 8)
	test.That(t, m.Faces(), test.ShouldHaveLength, 12)
	test.That(t, m.Triangles(), test.ShouldHaveLength, 12)
	test.That(t, m.IsEmpty(), test.ShouldBeFalse)
	test.That(t, m.String(), test.ShouldContainSubstring, "Faces: 12")

	lo, hi := m.Bounds()
	test.That(t, lo, test.ShouldResemble, r3.Vector{X: -1, Y: -1, Z: -1})
	test.That(t, hi, test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1})

	t.Run("bad face index", func(t *testing.T) {
		_, err := NewMesh(cubeVertices(1), [][3]int{{0, 1, 8}}, "")
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "references vertex 8")
	})

	t.Run("empty", func(t *testing.T) {
		m, err := NewMesh(nil, nil, "")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, m.IsEmpty(), test.ShouldBeTrue)
		test.That(t, m.IsWatertight(), test.ShouldBeFalse)
		test.That(t, m.Volume(), test.ShouldEqual, 0)

		noFaces, err := NewMesh(cubeVertices(1), nil, "")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, noFaces.IsEmpty(), test.ShouldBeTrue)
	})
}

func TestNewMeshFromTrianglesWelds(t *testing.T) {
	cube := makeCube(t, 1)
	welded := NewMeshFromTriangles(cube.Triangles(), "soup")
	test.That(t, welded.Vertices(), test.ShouldHaveLength, 8)
	test.That(t, welded.Faces(), test.ShouldHaveLength, 12)
	test.That(t, welded.IsWatertight(), test.ShouldBeTrue)
	test.That(t, welded.Volume(), test.ShouldAlmostEqual, 1.0)
}

func TestMeshWatertight(t *testing.T) {
	cube := makeCube(t, 1)
	test.That(t, cube.IsWatertight(), test.ShouldBeTrue)

	open, err := NewMesh(cube.Vertices(), cube.Faces()[:11], "open")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, open.IsWatertight(), test.ShouldBeFalse)

	// a face used twice makes its edges shared by three faces
	doubled, err := NewMesh(cube.Vertices(), append(append([][3]int{}, cube.Faces()...), cube.Faces()[0]), "doubled")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, doubled.IsWatertight(), test.ShouldBeFalse)

	collapsed, err := NewMesh(cube.Vertices(), [][3]int{{0, 0, 1}}, "collapsed")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, collapsed.IsWatertight(), test.ShouldBeFalse)
}

func TestMeshVolume(t *testing.T) {
	cube := makeCube(t, 2)
	test.That(t, cube.Volume(), test.ShouldAlmostEqual, 8.0)

	// volume does not depend on where the mesh is
	moved := cube.Transform(NewPose(r3.Vector{X: 10, Y: -3, Z: 2}, &EulerAngles{Roll: 0.4, Yaw: 1.2}))
	test.That(t, moved.Volume(), test.ShouldAlmostEqual, 8.0, 1e-9)
	test.That(t, moved.IsWatertight(), test.ShouldBeTrue)
	test.That(t, moved.Label(), test.ShouldEqual, "cube")

	var sum float64
	for _, tri := range cube.Triangles() {
		sum += tri.SignedVolume()
	}
	test.That(t, sum, test.ShouldAlmostEqual, 8.0)
}

func TestMeshScale(t *testing.T) {
	cube := makeCube(t, 1)
	scaled := cube.Scale(r3.Vector{X: 2, Y: 3, Z: 0.5})
	test.That(t, scaled.Volume(), test.ShouldAlmostEqual, 3.0)
	lo, hi := scaled.Bounds()
	test.That(t, hi.Sub(lo), test.ShouldResemble, r3.Vector{X: 2, Y: 3, Z: 0.5})

	t.Run("mirroring keeps normals outward", func(t *testing.T) {
		mirrored := cube.Scale(r3.Vector{X: -1, Y: 1, Z: 1})
		for _, tri := range mirrored.Triangles() {
			pts := tri.Points()
			centroid := pts[0].Add(pts[1]).Add(pts[2]).Mul(1. / 3)
			test.That(t, tri.Normal().Dot(centroid), test.ShouldBeGreaterThan, 0)
		}
		// the original is untouched
		test.That(t, cube.Faces()[0], test.ShouldResemble, [3]int{0, 1, 3})
	})
}

func TestTriangle(t *testing.T) {
	pts := []r3.Vector{{X: 0, Y: 0, Z: 0}, {X: 3, Y: 0, Z: 0}, {X: 0, Y: 3, Z: 0}}
	tri := NewTriangle(pts[0], pts[1], pts[2])
	test.That(t, tri.Points(), test.ShouldResemble, pts)
	test.That(t, tri.Normal(), test.ShouldResemble, r3.Vector{Z: 1})
	test.That(t, tri.Area(), test.ShouldEqual, 4.5)
	test.That(t, tri.SignedVolume(), test.ShouldEqual, 0)

	lifted := NewTriangle(r3.Vector{Z: 1}, r3.Vector{X: 1, Z: 1}, r3.Vector{Y: 1, Z: 1})
	test.That(t, lifted.SignedVolume(), test.ShouldAlmostEqual, 1./6)

	flipped := NewTriangle(pts[0], pts[2], pts[1])
	test.That(t, flipped.Normal(), test.ShouldResemble, r3.Vector{Z: -1})

	test.That(t, NewTriangle(pts[0], pts[0], pts[1]).Normal(), test.ShouldResemble, r3.Vector{})
}
