package simplify

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/collisionsimplify/spatialmath"
)

func sortedDims(g spatialmath.Geometry) []float64 {
	cfg := spatialmath.NewGeometryConfig(g)
	dims := []float64{cfg.X, cfg.Y, cfg.Z}
	sort.Float64s(dims)
	return dims
}

func TestFitBox(t *testing.T) {
	t.Run("unit cube is returned in its own frame", func(t *testing.T) {
		cube := makeUnitCube(t)
		box, err := FitBox(cube)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, box.Volume(), test.ShouldAlmostEqual, 1.0)
		cfg := spatialmath.NewGeometryConfig(box)
		test.That(t, cfg.X, test.ShouldAlmostEqual, 1.0)
		test.That(t, cfg.Y, test.ShouldAlmostEqual, 1.0)
		test.That(t, cfg.Z, test.ShouldAlmostEqual, 1.0)
		test.That(t, spatialmath.PoseAlmostEqual(box.Pose(), spatialmath.NewZeroPose()), test.ShouldBeTrue)
		test.That(t, box.Label(), test.ShouldEqual, "box_box")
	})

	t.Run("rotated box is recovered", func(t *testing.T) {
		pose := spatialmath.NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, &spatialmath.EulerAngles{Roll: 0.3, Pitch: -0.2, Yaw: 0.5})
		mesh := makeBoxMesh(t, r3.Vector{X: 0.4, Y: 1, Z: 2}, pose)
		box, err := FitBox(mesh)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, box.Volume(), test.ShouldAlmostEqual, 0.8, 1e-9)
		dims := sortedDims(box)
		test.That(t, dims[0], test.ShouldAlmostEqual, 0.4, 1e-9)
		test.That(t, dims[1], test.ShouldAlmostEqual, 1.0, 1e-9)
		test.That(t, dims[2], test.ShouldAlmostEqual, 2.0, 1e-9)
		test.That(t, spatialmath.R3VectorAlmostEqual(box.Pose().Point(), pose.Point(), 1e-9), test.ShouldBeTrue)
		assertContainsVertices(t, box, mesh)
	})

	t.Run("flat mesh gets a zero thickness box", func(t *testing.T) {
		flat := makeFlatMesh(t)
		box, err := FitBox(flat)
		test.That(t, err, test.ShouldBeNil)
		dims := sortedDims(box)
		test.That(t, dims[0], test.ShouldAlmostEqual, 0, 1e-9)
		test.That(t, dims[1], test.ShouldAlmostEqual, 0.3, 1e-9)
		test.That(t, dims[2], test.ShouldAlmostEqual, 0.3, 1e-9)
		assertContainsVertices(t, box, flat)
	})

	t.Run("empty mesh", func(t *testing.T) {
		_, err := FitBox(&spatialmath.Mesh{})
		test.That(t, errors.Is(err, ErrEmptyMesh), test.ShouldBeTrue)
	})
}

func TestFitCylinder(t *testing.T) {
	pose := spatialmath.NewPose(r3.Vector{X: -1, Y: 0.5, Z: 2}, &spatialmath.EulerAngles{Roll: 0.7, Pitch: 0.1})
	mesh := makeCylinderMesh(t, 0.1, 1.5, 48, pose)
	cyl, err := FitCylinder(mesh)
	test.That(t, err, test.ShouldBeNil)

	cfg := spatialmath.NewGeometryConfig(cyl)
	test.That(t, cfg.R, test.ShouldAlmostEqual, 0.1, 1e-6)
	test.That(t, cfg.L, test.ShouldAlmostEqual, 1.5, 1e-6)
	test.That(t, spatialmath.R3VectorAlmostEqual(cyl.Pose().Point(), pose.Point(), 1e-6), test.ShouldBeTrue)

	// The fitted axis is the prism axis, up to sign.
	axis := cyl.Pose().Orientation().RotationMatrix().Col(2)
	want := pose.Orientation().RotationMatrix().Col(2)
	test.That(t, math.Abs(axis.Dot(want)), test.ShouldAlmostEqual, 1, 1e-9)
	test.That(t, axis.Z, test.ShouldBeGreaterThanOrEqualTo, 0)
	assertContainsVertices(t, cyl, mesh)
}

func TestFitSphere(t *testing.T) {
	t.Run("cube circumsphere", func(t *testing.T) {
		cube := makeUnitCube(t)
		sphere, err := FitSphere(cube)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatialmath.NewGeometryConfig(sphere).R, test.ShouldAlmostEqual, math.Sqrt(3)/2, 1e-9)
		test.That(t, spatialmath.R3VectorAlmostEqual(sphere.Pose().Point(), r3.Vector{}, 1e-9), test.ShouldBeTrue)
		test.That(t, spatialmath.OrientationAlmostEqual(sphere.Pose().Orientation(), spatialmath.NewZeroOrientation()),
			test.ShouldBeTrue)
	})

	t.Run("long box is bounded by its diagonal", func(t *testing.T) {
		mesh := makeBoxMesh(t, r3.Vector{X: 4, Y: 1, Z: 1}, spatialmath.NewPoseFromPoint(r3.Vector{X: 10}))
		sphere, err := FitSphere(mesh)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, spatialmath.NewGeometryConfig(sphere).R, test.ShouldAlmostEqual, math.Sqrt(18)/2, 1e-9)
		test.That(t, spatialmath.R3VectorAlmostEqual(sphere.Pose().Point(), r3.Vector{X: 10}, 1e-9), test.ShouldBeTrue)
		assertContainsVertices(t, sphere, mesh)
	})
}

func TestFitAllContainsEveryVertex(t *testing.T) {
	for _, tc := range []struct {
		name string
		mesh *spatialmath.Mesh
	}{
		{"cube", makeUnitCube(t)},
		{"blob", makeBlobMesh(t)},
		{"cylinder", makeCylinderMesh(t, 0.3, 0.2, 16, spatialmath.NewPoseFromPoint(r3.Vector{Y: 4}))},
		{"open box", makeOpenBox(t)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fits, err := FitAll(tc.mesh)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, fits, test.ShouldHaveLength, 3)
			test.That(t, fits[0].Kind, test.ShouldEqual, KindBox)
			test.That(t, fits[1].Kind, test.ShouldEqual, KindCylinder)
			test.That(t, fits[2].Kind, test.ShouldEqual, KindSphere)

			hull, err := tc.mesh.ConvexHull()
			test.That(t, err, test.ShouldBeNil)
			for _, fit := range fits {
				assertContainsVertices(t, fit.Geometry, tc.mesh)
				test.That(t, hull.Volume(), test.ShouldBeLessThanOrEqualTo, fit.Geometry.Volume()+1e-9)
			}
		})
	}
}

func TestMinEnclosingCircle(t *testing.T) {
	square := []r2.Point{{X: 1, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: -1}, {X: 1, Y: -1}, {X: 0, Y: 0.5}}
	c := minEnclosingCircle(square)
	test.That(t, c.radius, test.ShouldAlmostEqual, math.Sqrt2)
	test.That(t, c.center.Norm(), test.ShouldAlmostEqual, 0)

	collinear := []r2.Point{{X: 0}, {X: 1}, {X: 3}, {X: 2}}
	c = minEnclosingCircle(collinear)
	test.That(t, c.radius, test.ShouldAlmostEqual, 1.5)
	test.That(t, c.center.X, test.ShouldAlmostEqual, 1.5)

	test.That(t, minEnclosingCircle(nil).radius, test.ShouldEqual, 0)
}

func TestMinAreaRectangle(t *testing.T) {
	// A unit square rotated by 30 degrees.
	var pts []r2.Point
	for _, p := range []r2.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}} {
		s, c := math.Sin(math.Pi/6), math.Cos(math.Pi/6)
		pts = append(pts, r2.Point{X: c*p.X - s*p.Y, Y: s*p.X + c*p.Y})
	}
	hull := convexHull2D(append(pts, r2.Point{X: 0.1, Y: 0.5}))
	test.That(t, hull, test.ShouldHaveLength, 4)
	rect := minAreaRectangle(hull)
	test.That(t, rect.area(), test.ShouldAlmostEqual, 1.0)

	// Irregular polygons agree with trying every edge direction on its own.
	//nolint:gosec
	rng := rand.New(rand.NewSource(11))
	for trial := 0; trial < 20; trial++ {
		cloud := make([]r2.Point, 0, 300)
		for i := 0; i < 300; i++ {
			a := rng.Float64() * 2 * math.Pi
			r := math.Sqrt(rng.Float64())
			cloud = append(cloud, r2.Point{X: 3 * r * math.Cos(a), Y: r * math.Sin(a)})
		}
		poly := convexHull2D(cloud)
		brute := math.Inf(1)
		for i := range poly {
			edge := poly[(i+1)%len(poly)].Sub(poly[i])
			brute = math.Min(brute, boundingRectangle(poly, edge.Normalize()).area())
		}
		rect := minAreaRectangle(poly)
		test.That(t, rect.area(), test.ShouldAlmostEqual, brute, 1e-9)
		for _, p := range poly {
			u, v := p.Dot(rect.dir), p.Dot(rect.dir.Ortho())
			test.That(t, u, test.ShouldBeBetweenOrEqual, rect.minU, rect.maxU)
			test.That(t, v, test.ShouldBeBetweenOrEqual, rect.minV, rect.maxV)
		}
	}

	segment := minAreaRectangle([]r2.Point{{X: 0, Y: 0}, {X: 3, Y: 4}})
	test.That(t, segment.area(), test.ShouldAlmostEqual, 0)
	test.That(t, segment.maxU-segment.minU, test.ShouldAlmostEqual, 5)
}

func TestDominantNormals(t *testing.T) {
	slab := makeBoxMesh(t, r3.Vector{X: 4, Y: 2, Z: 1}, spatialmath.NewZeroPose())
	dirs := dominantNormals(slab.Triangles(), maxHullNormals)
	// Opposite faces share a direction; the largest faces come first.
	test.That(t, dirs, test.ShouldHaveLength, 3)
	test.That(t, math.Abs(dirs[0].Z), test.ShouldAlmostEqual, 1)
	test.That(t, math.Abs(dirs[1].Y), test.ShouldAlmostEqual, 1)
	test.That(t, math.Abs(dirs[2].X), test.ShouldAlmostEqual, 1)

	test.That(t, dominantNormals(slab.Triangles(), 2), test.ShouldHaveLength, 2)
	test.That(t, dominantNormals(makeSphereMesh(t, 2000).Triangles(), maxHullNormals), test.ShouldHaveLength, maxHullNormals)
}

func TestCanonicalBoxFrame(t *testing.T) {
	axes := [3]r3.Vector{{Y: 1}, {X: -1}, {Z: 1}}
	rot, dims := canonicalBoxFrame(axes, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, rot.AlmostEqual(spatialmath.IdentityRotationMatrix(), 1e-12), test.ShouldBeTrue)
	test.That(t, dims, test.ShouldResemble, r3.Vector{X: 2, Y: 1, Z: 3})
}

func TestCanonicalAxis(t *testing.T) {
	test.That(t, canonicalAxis(r3.Vector{Z: -2}), test.ShouldResemble, r3.Vector{Z: 1})
	test.That(t, canonicalAxis(r3.Vector{X: -1}), test.ShouldResemble, r3.Vector{X: 1})
	test.That(t, canonicalAxis(r3.Vector{Y: 1}), test.ShouldResemble, r3.Vector{Y: 1})
}
