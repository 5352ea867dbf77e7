package utils

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestRadToDeg(t *testing.T) {
	test.That(t, RadToDeg(math.Pi), test.ShouldAlmostEqual, 180)
	test.That(t, RadToDeg(-math.Pi/2), test.ShouldAlmostEqual, -90)
}

func TestFloatComparisons(t *testing.T) {
	test.That(t, Float64AlmostEqual(1, 1+1e-10, 1e-9), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.1, 1e-9), test.ShouldBeFalse)

	test.That(t, Float64RelativelyEqual(1e9, 1e9+0.5, 1e-9), test.ShouldBeTrue)
	test.That(t, Float64RelativelyEqual(1e-9, 2e-9, 1e-9), test.ShouldBeFalse)
	test.That(t, Float64RelativelyEqual(0, 0, 0), test.ShouldBeTrue)

	test.That(t, IsFinite(), test.ShouldBeTrue)
	test.That(t, IsFinite(1, -2, 0), test.ShouldBeTrue)
	test.That(t, IsFinite(1, math.NaN()), test.ShouldBeFalse)
	test.That(t, IsFinite(math.Inf(-1)), test.ShouldBeFalse)
}

func TestSafeJoinDir(t *testing.T) {
	joined, err := SafeJoinDir("/pkg", "meshes/collision")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joined, test.ShouldEqual, filepath.Join("/pkg", "meshes", "collision"))

	_, err = SafeJoinDir("/pkg", "../other")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = SafeJoinDir("/pkg", "meshes/../../other")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "robot.urdf")
	test.That(t, WriteFileAtomic(path, []byte("first"), 0o600), test.ShouldBeNil)
	test.That(t, WriteFileAtomic(path, []byte("second"), 0o640), test.ShouldBeNil)

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "second")
	info, err := os.Stat(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Mode().Perm(), test.ShouldEqual, os.FileMode(0o640))

	entries, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, entries, test.ShouldHaveLength, 1)

	err = WriteFileAtomic(filepath.Join(dir, "missing", "robot.urdf"), []byte("x"), 0o600)
	test.That(t, err, test.ShouldNotBeNil)
}
