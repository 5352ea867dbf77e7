package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// IsFinite reports whether every component of the vector is a finite number.
func IsFinite(v r3.Vector) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}

// BoundingBox returns the axis aligned minimum and maximum corners of a set of points.
func BoundingBox(points []r3.Vector) (r3.Vector, r3.Vector) {
	if len(points) == 0 {
		return r3.Vector{}, r3.Vector{}
	}
	lo, hi := points[0], points[0]
	for _, p := range points[1:] {
		lo = r3.Vector{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y), Z: math.Min(lo.Z, p.Z)}
		hi = r3.Vector{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y), Z: math.Max(hi.Z, p.Z)}
	}
	return lo, hi
}

// UniquePoints returns the points with exact duplicates removed, keeping first occurrences in order.
func UniquePoints(points []r3.Vector) []r3.Vector {
	seen := make(map[r3.Vector]struct{}, len(points))
	out := make([]r3.Vector, 0, len(points))
	for _, p := range points {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
