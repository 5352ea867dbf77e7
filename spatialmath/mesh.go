package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

// Mesh is an indexed triangle mesh. Faces reference vertices by index and are wound so that their
// normals follow the right hand rule. A Mesh is never modified after construction; every operation
// that changes geometry returns a new Mesh.
type Mesh struct {
	vertices []r3.Vector
	faces    [][3]int
	label    string
}

// NewMesh creates a mesh from vertex and face buffers. Every face index must reference a vertex.
func NewMesh(vertices []r3.Vector, faces [][3]int, label string) (*Mesh, error) {
	for i, f := range faces {
		for _, idx := range f {
			if idx < 0 || idx >= len(vertices) {
				return nil, newBadFaceIndexError(i, idx, len(vertices))
			}
		}
	}
	return &Mesh{
		vertices: append([]r3.Vector(nil), vertices...),
		faces:    append([][3]int(nil), faces...),
		label:    label,
	}, nil
}

// NewMeshFromTriangles builds an indexed mesh out of a triangle soup, welding corners that share
// exactly the same coordinates into a single vertex.
func NewMeshFromTriangles(triangles []*Triangle, label string) *Mesh {
	index := make(map[r3.Vector]int, len(triangles))
	m := &Mesh{faces: make([][3]int, 0, len(triangles)), label: label}
	for _, t := range triangles {
		var face [3]int
		for i, p := range t.Points() {
			idx, ok := index[p]
			if !ok {
				idx = len(m.vertices)
				index[p] = idx
				m.vertices = append(m.vertices, p)
			}
			face[i] = idx
		}
		m.faces = append(m.faces, face)
	}
	return m
}

// Label returns the label of the mesh, usually the file it was loaded from.
func (m *Mesh) Label() string {
	return m.label
}

// Vertices returns the vertex buffer of the mesh. It must not be modified.
func (m *Mesh) Vertices() []r3.Vector {
	return m.vertices
}

// Faces returns the face buffer of the mesh. It must not be modified.
func (m *Mesh) Faces() [][3]int {
	return m.faces
}

// Triangles returns the faces of the mesh as triangles.
func (m *Mesh) Triangles() []*Triangle {
	tris := make([]*Triangle, 0, len(m.faces))
	for _, f := range m.faces {
		tris = append(tris, NewTriangle(m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]))
	}
	return tris
}

// IsEmpty returns true if the mesh has no vertices or no faces.
func (m *Mesh) IsEmpty() bool {
	return len(m.vertices) == 0 || len(m.faces) == 0
}

// IsWatertight returns true when every undirected edge of the mesh is shared by exactly two faces.
func (m *Mesh) IsWatertight() bool {
	if m.IsEmpty() {
		return false
	}
	edges := make(map[[2]int]int, 3*len(m.faces)/2)
	for _, f := range m.faces {
		for i := 0; i < 3; i++ {
			a, b := f[i], f[(i+1)%3]
			if a == b {
				return false
			}
			if a > b {
				a, b = b, a
			}
			edges[[2]int{a, b}]++
		}
	}
	for _, count := range edges {
		if count != 2 {
			return false
		}
	}
	return true
}

// Volume returns the volume enclosed by the mesh, computed with the divergence theorem.
// The result is only meaningful for watertight, consistently wound meshes.
func (m *Mesh) Volume() float64 {
	var vol float64
	for _, f := range m.faces {
		a, b, c := m.vertices[f[0]], m.vertices[f[1]], m.vertices[f[2]]
		vol += a.Dot(b.Cross(c))
	}
	vol /= 6
	if vol < 0 {
		return -vol
	}
	return vol
}

// Bounds returns the axis aligned minimum and maximum corners of the mesh.
func (m *Mesh) Bounds() (r3.Vector, r3.Vector) {
	return BoundingBox(m.vertices)
}

// Transform returns a copy of the mesh with every vertex mapped through the given pose.
func (m *Mesh) Transform(p Pose) *Mesh {
	verts := make([]r3.Vector, len(m.vertices))
	for i, v := range m.vertices {
		verts[i] = TransformPoint(p, v)
	}
	return &Mesh{vertices: verts, faces: m.faces, label: m.label}
}

// Scale returns a copy of the mesh with vertices scaled per axis about the origin. A scale with an odd
// number of negative components mirrors the mesh, so faces are rewound to keep normals outward.
func (m *Mesh) Scale(s r3.Vector) *Mesh {
	verts := make([]r3.Vector, len(m.vertices))
	for i, v := range m.vertices {
		verts[i] = r3.Vector{X: v.X * s.X, Y: v.Y * s.Y, Z: v.Z * s.Z}
	}
	faces := m.faces
	if s.X*s.Y*s.Z < 0 {
		faces = make([][3]int, len(m.faces))
		for i, f := range m.faces {
			faces[i] = [3]int{f[0], f[2], f[1]}
		}
	}
	return &Mesh{vertices: verts, faces: faces, label: m.label}
}

// ConvexHull returns the convex hull of the mesh vertices as a new closed mesh.
func (m *Mesh) ConvexHull() (*Mesh, error) {
	hull, err := NewConvexHull(m.vertices)
	if err != nil {
		return nil, err
	}
	hull.label = m.label
	return hull, nil
}

// String returns a human readable string that represents the mesh.
func (m *Mesh) String() string {
	return fmt.Sprintf("Type: Mesh | Label: %s | Vertices: %d | Faces: %d", m.label, len(m.vertices), len(m.faces))
}
