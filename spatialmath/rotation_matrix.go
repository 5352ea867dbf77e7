package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a slice of 9 values in row major order.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.New("input slice to create a rotation matrix must have length 9")
	}
	var mat [9]float64
	copy(mat[:], m)
	return &RotationMatrix{mat}, nil
}

// NewRotationMatrixFromColumns builds the matrix whose columns are the given axes. The axes of a frame
// expressed in the parent frame form exactly the rotation from that frame into its parent.
func NewRotationMatrixFromColumns(x, y, z r3.Vector) *RotationMatrix {
	return &RotationMatrix{[9]float64{
		x.X, y.X, z.X,
		x.Y, y.Y, z.Y,
		x.Z, y.Z, z.Z,
	}}
}

// IdentityRotationMatrix returns the rotation matrix which signifies no rotation.
func IdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{[9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}}
}

// AxisAngles returns the orientation in axis angle representation.
func (rm *RotationMatrix) AxisAngles() *R4AA {
	return QuatToR4AA(rm.Quaternion())
}

// Quaternion returns orientation in quaternion representation.
// reference: http://www.euclideanspace.com/maths/geometry/rotations/conversions/matrixToQuaternion/index.htm
func (rm *RotationMatrix) Quaternion() quat.Number {
	m := rm.mat
	var q quat.Number
	switch tr := m[0] + m[4] + m[8]; {
	case tr > 0:
		s := 0.5 / math.Sqrt(tr+1)
		q = quat.Number{Real: 0.25 / s, Imag: (m[7] - m[5]) * s, Jmag: (m[2] - m[6]) * s, Kmag: (m[3] - m[1]) * s}
	case m[0] > m[4] && m[0] > m[8]:
		s := 2 * math.Sqrt(1+m[0]-m[4]-m[8])
		q = quat.Number{Real: (m[7] - m[5]) / s, Imag: 0.25 * s, Jmag: (m[1] + m[3]) / s, Kmag: (m[2] + m[6]) / s}
	case m[4] > m[8]:
		s := 2 * math.Sqrt(1+m[4]-m[0]-m[8])
		q = quat.Number{Real: (m[2] - m[6]) / s, Imag: (m[1] + m[3]) / s, Jmag: 0.25 * s, Kmag: (m[5] + m[7]) / s}
	default:
		s := 2 * math.Sqrt(1+m[8]-m[0]-m[4])
		q = quat.Number{Real: (m[3] - m[1]) / s, Imag: (m[2] + m[6]) / s, Jmag: (m[5] + m[7]) / s, Kmag: 0.25 * s}
	}
	return Normalize(q)
}

// EulerAngles returns orientation in Euler angle representation.
func (rm *RotationMatrix) EulerAngles() *EulerAngles {
	return rotationMatrixToEulerAngles(rm)
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (rm *RotationMatrix) RotationMatrix() *RotationMatrix {
	return rm
}

// At returns the float corresponding to the element at the specified location.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[row*3+col]
}

// Row returns the a 3 element vector corresponding to the specified row.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[row*3], Y: rm.mat[row*3+1], Z: rm.mat[row*3+2]}
}

// Col returns the a 3 element vector corresponding to the specified col.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.At(0, col), Y: rm.At(1, col), Z: rm.At(2, col)}
}

// Mul returns the product of the rotation matrix with an r3 Vector.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{X: rm.Row(0).Dot(v), Y: rm.Row(1).Dot(v), Z: rm.Row(2).Dot(v)}
}

// MulT returns the product of the transposed rotation matrix with an r3 Vector, i.e. the inverse rotation.
func (rm *RotationMatrix) MulT(v r3.Vector) r3.Vector {
	return r3.Vector{X: rm.Col(0).Dot(v), Y: rm.Col(1).Dot(v), Z: rm.Col(2).Dot(v)}
}

// MatMul returns the product rm * other.
func (rm *RotationMatrix) MatMul(other *RotationMatrix) *RotationMatrix {
	var out [9]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[3*r+c] = rm.Row(r).Dot(other.Col(c))
		}
	}
	return &RotationMatrix{out}
}

// Transpose returns the transpose of the matrix, which for a rotation is its inverse.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	m := rm.mat
	return &RotationMatrix{[9]float64{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}}
}

// Trace returns the sum of the diagonal elements.
func (rm *RotationMatrix) Trace() float64 {
	return rm.mat[0] + rm.mat[4] + rm.mat[8]
}

// Determinant returns the determinant of the matrix.
func (rm *RotationMatrix) Determinant() float64 {
	return rm.Col(0).Dot(rm.Col(1).Cross(rm.Col(2)))
}

// IsRotation returns whether the matrix is orthonormal with a determinant of +1 within the given tolerance.
func (rm *RotationMatrix) IsRotation(tol float64) bool {
	prod := rm.MatMul(rm.Transpose())
	if !prod.AlmostEqual(IdentityRotationMatrix(), tol) {
		return false
	}
	return math.Abs(rm.Determinant()-1) <= tol
}

// AlmostEqual compares every element of the two matrices against the given epsilon.
func (rm *RotationMatrix) AlmostEqual(other *RotationMatrix, epsilon float64) bool {
	for i := range rm.mat {
		if math.Abs(rm.mat[i]-other.mat[i]) > epsilon {
			return false
		}
	}
	return true
}

func (rm *RotationMatrix) String() string {
	m := rm.mat
	return fmt.Sprintf("[%.4f %.4f %.4f; %.4f %.4f %.4f; %.4f %.4f %.4f]", m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8])
}
