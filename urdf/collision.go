package urdf

import (
	"encoding/xml"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/collisionsimplify/simplify"
	"go.viam.com/collisionsimplify/spatialmath"
)

// ErrMalformedCollision is returned for a collision element that does not have exactly one mesh and exactly
// one origin.
var ErrMalformedCollision = errors.New("malformed collision entry")

// CollisionsForMesh returns every collision element, at any depth, whose geometry references the mesh
// filename exactly as written in the document.
func (d *Document) CollisionsForMesh(filename string) []*Element {
	root := d.Root()
	if root == nil {
		return nil
	}
	var out []*Element
	for _, c := range root.Descendants("collision") {
	geometries:
		for _, g := range c.Elements("geometry") {
			for _, m := range g.Elements("mesh") {
				if f, ok := m.AttrValue("filename"); ok && f == filename {
					out = append(out, c)
					break geometries
				}
			}
		}
	}
	return out
}

// MeshFilenames returns the distinct filenames referenced by collision meshes, in document order.
func (d *Document) MeshFilenames() []string {
	root := d.Root()
	if root == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, c := range root.Descendants("collision") {
		for _, g := range c.Elements("geometry") {
			for _, m := range g.Elements("mesh") {
				if f, ok := m.AttrValue("filename"); ok && !seen[f] {
					seen[f] = true
					out = append(out, f)
				}
			}
		}
	}
	return out
}

// CollisionEntry is a validated collision element whose mesh can be replaced.
type CollisionEntry struct {
	element  *Element
	geometry *Element
	mesh     *Element
	origin   *Element
}

// NewCollisionEntry validates a collision element. It must contain exactly one mesh, which must sit directly
// in a geometry child, and exactly one direct origin child.
func NewCollisionEntry(el *Element) (*CollisionEntry, error) {
	meshes := el.Descendants("mesh")
	if len(meshes) != 1 {
		return nil, errors.Wrapf(ErrMalformedCollision, "expected exactly one mesh, found %d", len(meshes))
	}
	origins := el.Elements("origin")
	if len(origins) != 1 {
		return nil, errors.Wrapf(ErrMalformedCollision, "expected exactly one origin, found %d", len(origins))
	}
	geometry := meshes[0].Parent()
	if geometry == nil || !geometry.Is("geometry") || geometry.Parent() != el {
		return nil, errors.Wrap(ErrMalformedCollision, "mesh is not inside the collision geometry")
	}
	return &CollisionEntry{element: el, geometry: geometry, mesh: meshes[0], origin: origins[0]}, nil
}

// Element returns the collision element.
func (c *CollisionEntry) Element() *Element {
	return c.element
}

// MeshFilename returns the filename of the mesh the entry currently references.
func (c *CollisionEntry) MeshFilename() string {
	f, _ := c.mesh.AttrValue("filename")
	return f
}

// Scale returns the mesh scale attribute, or (1, 1, 1) when there is none.
func (c *CollisionEntry) Scale() (r3.Vector, error) {
	s, ok := c.mesh.AttrValue("scale")
	if !ok {
		return r3.Vector{X: 1, Y: 1, Z: 1}, nil
	}
	return parseVector(s)
}

// OriginPose returns the current placement of the collision geometry in its link.
func (c *CollisionEntry) OriginPose() (spatialmath.Pose, error) {
	xyz, rpy := r3.Vector{}, r3.Vector{}
	var err error
	if s, ok := c.origin.AttrValue("xyz"); ok {
		if xyz, err = parseVector(s); err != nil {
			return nil, errors.Wrap(err, "origin xyz")
		}
	}
	if s, ok := c.origin.AttrValue("rpy"); ok {
		if rpy, err = parseVector(s); err != nil {
			return nil, errors.Wrap(err, "origin rpy")
		}
	}
	return spatialmath.NewPose(xyz, &spatialmath.EulerAngles{Roll: rpy.X, Pitch: rpy.Y, Yaw: rpy.Z}), nil
}

// ApplyOptions control how a simplified geometry is written into a collision entry.
type ApplyOptions struct {
	// HullFilename is the filename the new mesh element references. Required for convex hulls.
	HullFilename string
	// ComposeOrigin composes the primitive pose with the existing origin instead of overwriting it.
	// Only meaningful when the existing origin is not the identity.
	ComposeOrigin bool
}

// Apply replaces the entry's mesh with the simplified geometry. A primitive takes the mesh's place inside the
// geometry element and its origin replaces the entry's xyz and rpy. A convex hull becomes a new mesh element
// referencing opts.HullFilename, and the origin is left alone since the hull shares the mesh's frame.
func (c *CollisionEntry) Apply(geom *simplify.SimplifiedGeometry, opts ApplyOptions) error {
	if geom == nil {
		return errors.New("no geometry to apply")
	}
	if geom.Kind == simplify.KindConvexHull {
		if opts.HullFilename == "" {
			return errors.New("a convex hull needs a filename to reference")
		}
		c.replaceMesh(NewElement("mesh", attr("filename", opts.HullFilename)))
		return nil
	}

	dims := geom.Dimensions()
	var replacement *Element
	//nolint:exhaustive
	switch geom.Kind {
	case simplify.KindBox:
		replacement = NewElement("box", attr("size", formatFloats(dims...)))
	case simplify.KindCylinder:
		replacement = NewElement("cylinder", attr("radius", formatFloats(dims[0])), attr("length", formatFloats(dims[1])))
	case simplify.KindSphere:
		replacement = NewElement("sphere", attr("radius", formatFloats(dims[0])))
	default:
		return errors.Errorf("cannot write geometry of kind %s", geom.Kind)
	}

	origin := geom.Origin
	if opts.ComposeOrigin {
		existing, err := c.OriginPose()
		if err != nil {
			return err
		}
		origin = simplify.OriginFromPose(spatialmath.Compose(existing, origin.Pose()))
	}
	c.replaceMesh(replacement)
	c.origin.SetAttr("xyz", formatFloats(origin.XYZ.X, origin.XYZ.Y, origin.XYZ.Z))
	c.origin.SetAttr("rpy", formatFloats(origin.RPY.Roll, origin.RPY.Pitch, origin.RPY.Yaw))
	return nil
}

func (c *CollisionEntry) replaceMesh(replacement *Element) {
	c.geometry.ReplaceChild(c.mesh, replacement)
	c.mesh = replacement
}

// HullFilename returns the file name a convex hull of meshFile is written to: the base name with a _simple
// suffix, keeping an STL extension as written and using .stl for every other format.
func HullFilename(meshFile string) string {
	ext := filepath.Ext(meshFile)
	base := strings.TrimSuffix(meshFile, ext)
	if !strings.EqualFold(ext, ".stl") {
		ext = ".stl"
	}
	return base + "_simple" + ext
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// formatFloats writes the shortest representation of each value that parses back to it, space separated.
func formatFloats(values ...float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		if v == 0 {
			v = 0 // drop the sign of negative zero
		}
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

// parseVector reads three space delimited floats.
func parseVector(s string) (r3.Vector, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return r3.Vector{}, errors.Errorf("expected three values, got %q", s)
	}
	var v [3]float64
	for i, f := range fields {
		parsed, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return r3.Vector{}, errors.Errorf("invalid number %q", f)
		}
		v[i] = parsed
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}
