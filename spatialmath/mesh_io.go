package spatialmath

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50
	stlHeader       = "collisionsimplify binary STL"
)

// NewMeshFromFile loads a mesh file, picking the decoder from the file extension (.stl or .ply).
func NewMeshFromFile(path string) (*Mesh, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".stl":
		return NewMeshFromSTLFile(path)
	case ".ply":
		return NewMeshFromPLYFile(path)
	default:
		return nil, errors.Errorf("unsupported mesh file format: %s (must be .stl or .ply)", ext)
	}
}

// NewMeshFromSTLFile reads a binary or ASCII STL file into a mesh labelled with the file path.
func NewMeshFromSTLFile(path string) (*Mesh, error) {
	//nolint:gosec
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open STL file")
	}
	defer goutils.UncheckedErrorFunc(file.Close)
	m, err := ReadSTL(file, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read STL file %s", path)
	}
	return m, nil
}

// ReadSTL decodes STL data. Binary files are recognized by their triangle count matching the data length,
// anything else starting with "solid" is parsed as ASCII.
func ReadSTL(r io.Reader, label string) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(data) >= stlHeaderSize+4 {
		count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
		if uint64(len(data)) == uint64(stlHeaderSize+4)+uint64(count)*stlTriangleSize {
			return NewMeshFromTriangles(decodeBinarySTL(data[stlHeaderSize+4:], int(count)), label), nil
		}
	}
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("solid")) {
		tris, err := decodeASCIISTL(data)
		if err != nil {
			return nil, err
		}
		return NewMeshFromTriangles(tris, label), nil
	}
	return nil, errors.New("data is neither binary nor ASCII STL")
}

func decodeBinarySTL(data []byte, count int) []*Triangle {
	readVec := func(b []byte) r3.Vector {
		return r3.Vector{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[0:]))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[4:]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(b[8:]))),
		}
	}
	tris := make([]*Triangle, 0, count)
	for i := 0; i < count; i++ {
		// skip the stored normal, it is recomputed from the winding
		rec := data[i*stlTriangleSize+12:]
		tris = append(tris, NewTriangle(readVec(rec[0:]), readVec(rec[12:]), readVec(rec[24:])))
	}
	return tris
}

func decodeASCIISTL(data []byte) ([]*Triangle, error) {
	var tris []*Triangle
	var corners []r3.Vector
	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "vertex" {
			continue
		}
		if len(fields) != 4 {
			return nil, errors.Errorf("line %d: vertex needs three coordinates", line)
		}
		var coords [3]float64
		for i := range coords {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			coords[i] = v
		}
		corners = append(corners, r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
		if len(corners) == 3 {
			tris = append(tris, NewTriangle(corners[0], corners[1], corners[2]))
			corners = corners[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(corners) != 0 {
		return nil, errors.New("facet with fewer than three vertices")
	}
	return tris, nil
}

// BinarySTLSize is the number of bytes WriteSTL produces for the mesh.
func (m *Mesh) BinarySTLSize() int {
	return stlHeaderSize + 4 + stlTriangleSize*len(m.faces)
}

// WriteSTL encodes the mesh as binary STL.
func (m *Mesh) WriteSTL(w io.Writer) error {
	bw := bufio.NewWriter(w)
	header := make([]byte, stlHeaderSize)
	copy(header, stlHeader)
	if _, err := bw.Write(header); err != nil {
		return err
	}
	var buf [stlTriangleSize]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(m.faces)))
	if _, err := bw.Write(buf[:4]); err != nil {
		return err
	}
	putVec := func(b []byte, v r3.Vector) {
		binary.LittleEndian.PutUint32(b[0:], math.Float32bits(float32(v.X)))
		binary.LittleEndian.PutUint32(b[4:], math.Float32bits(float32(v.Y)))
		binary.LittleEndian.PutUint32(b[8:], math.Float32bits(float32(v.Z)))
	}
	for _, t := range m.Triangles() {
		pts := t.Points()
		putVec(buf[0:], t.Normal())
		putVec(buf[12:], pts[0])
		putVec(buf[24:], pts[1])
		putVec(buf[36:], pts[2])
		buf[48], buf[49] = 0, 0
		if _, err := bw.Write(buf[:]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteSTLFile writes the mesh as binary STL to the given path, replacing any existing file.
func (m *Mesh) WriteSTLFile(path string) (err error) {
	//nolint:gosec
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create STL file")
	}
	defer func() {
		if closeErr := file.Close(); err == nil {
			err = closeErr
		}
	}()
	return m.WriteSTL(file)
}

// NewMeshFromPLYFile reads an ASCII PLY file into a mesh labelled with the file path.
func NewMeshFromPLYFile(path string) (*Mesh, error) {
	//nolint:gosec
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open PLY file")
	}
	defer goutils.UncheckedErrorFunc(file.Close)
	m, err := ReadPLY(file, path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read PLY file %s", path)
	}
	return m, nil
}

// ReadPLY decodes ASCII PLY data. Polygonal faces are triangulated as fans around their first vertex.
// Binary PLY is rejected.
func ReadPLY(r io.Reader, label string) (*Mesh, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if err := checkPLYHeader(data); err != nil {
		return nil, err
	}
	plyReader, err := parsePLY(data)
	if err != nil {
		return nil, err
	}
	vertexElems := plyReader.Elements("vertex")
	faceElems := plyReader.Elements("face")

	vertices := make([]r3.Vector, 0, len(vertexElems))
	for i, v := range vertexElems {
		var coords [3]float64
		for j, key := range []string{"x", "y", "z"} {
			val, err := plyNumber(v[key])
			if err != nil {
				return nil, errors.Wrapf(err, "vertex %d property %s", i, key)
			}
			coords[j] = val
		}
		vertices = append(vertices, r3.Vector{X: coords[0], Y: coords[1], Z: coords[2]})
	}

	faces := make([][3]int, 0, len(faceElems))
	for i, f := range faceElems {
		raw, ok := f["vertex_indices"]
		if !ok {
			raw, ok = f["vertex_index"]
		}
		if !ok {
			return nil, errors.Errorf("face %d has no vertex indices", i)
		}
		list, ok := raw.([]interface{})
		if !ok || len(list) < 3 {
			return nil, errors.Errorf("face %d has an invalid vertex index list", i)
		}
		idx := make([]int, len(list))
		for j, item := range list {
			val, err := plyNumber(item)
			if err != nil {
				return nil, errors.Wrapf(err, "face %d", i)
			}
			idx[j] = int(val)
		}
		for j := 1; j+1 < len(idx); j++ {
			faces = append(faces, [3]int{idx[0], idx[j], idx[j+1]})
		}
	}
	return NewMesh(vertices, faces, label)
}

// checkPLYHeader verifies the magic line and that the format is one the decoder handles.
func checkPLYHeader(data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	if !scanner.Scan() || strings.TrimSpace(scanner.Text()) != "ply" {
		return errors.New("missing ply magic line")
	}
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return errors.New("PLY format line has no format")
			}
			if fields[1] != "ascii" {
				return errors.Errorf("PLY format %s is not supported, only ascii", fields[1])
			}
			return nil
		case "end_header":
			return errors.New("PLY header has no format line")
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errors.New("PLY header is not terminated")
}

// parsePLY runs the goply decoder, which reports malformed input by panicking.
func parsePLY(data []byte) (ply *goply.Ply, err error) {
	defer func() {
		if r := recover(); r != nil {
			ply, err = nil, errors.Errorf("malformed PLY data: %v", r)
		}
	}()
	return goply.New(bytes.NewReader(data)), nil
}

func plyNumber(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case int8:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, errors.Errorf("unsupported PLY property type %T", v)
	}
}
