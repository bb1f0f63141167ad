package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/num/quat"
)

// QuaternionMethod selects how a rotation matrix is turned into a quaternion.
type QuaternionMethod string

const (
	// QuaternionMethodSigned takes the clamped magnitudes of every component and then resolves their
	// signs from the off-diagonal terms of the largest one. This is exact for every proper rotation.
	QuaternionMethodSigned QuaternionMethod = "signed"
	// QuaternionMethodClamped keeps the non-negative root of every component. Only rotations whose
	// quaternion has no negative component survive the conversion unchanged.
	QuaternionMethodClamped QuaternionMethod = "clamped"
)

// Validate returns an error for an unknown method. The empty method is accepted.
func (m QuaternionMethod) Validate() error {
	switch m {
	case "", QuaternionMethodSigned, QuaternionMethodClamped:
		return nil
	default:
		return errors.Errorf("unknown quaternion method %q, expected %q or %q", m, QuaternionMethodSigned, QuaternionMethodClamped)
	}
}

// RotationMatrix is a 3x3 matrix in row major order.
// m[3*r + c] is the element in the r'th row and c'th column.
type RotationMatrix struct {
	mat [9]float64
}

// NewRotationMatrix creates the rotation matrix from a 9 element slice in row major order.
func NewRotationMatrix(m []float64) (*RotationMatrix, error) {
	if len(m) != 9 {
		return nil, errors.New("input slice representing rotation matrix was not of length 9")
	}
	var mat [9]float64
	copy(mat[:], m)
	return &RotationMatrix{mat: mat}, nil
}

// At returns the float corresponding to the element at the specified location.
func (rm *RotationMatrix) At(row, col int) float64 {
	return rm.mat[3*row+col]
}

// Row returns the specified row of the matrix.
func (rm *RotationMatrix) Row(row int) r3.Vector {
	return r3.Vector{X: rm.mat[3*row], Y: rm.mat[3*row+1], Z: rm.mat[3*row+2]}
}

// Col returns the specified column of the matrix.
func (rm *RotationMatrix) Col(col int) r3.Vector {
	return r3.Vector{X: rm.mat[col], Y: rm.mat[3+col], Z: rm.mat[6+col]}
}

// Mul returns the product rm * v.
func (rm *RotationMatrix) Mul(v r3.Vector) r3.Vector {
	return r3.Vector{X: rm.Row(0).Dot(v), Y: rm.Row(1).Dot(v), Z: rm.Row(2).Dot(v)}
}

func (rm *RotationMatrix) String() string {
	return fmt.Sprintf("%.6f %.6f %.6f\n%.6f %.6f %.6f\n%.6f %.6f %.6f",
		rm.mat[0], rm.mat[1], rm.mat[2],
		rm.mat[3], rm.mat[4], rm.mat[5],
		rm.mat[6], rm.mat[7], rm.mat[8])
}

// clampedHalfRoot is sqrt(max(0, num)) / 2. Rounding can push a candidate slightly below zero even
// for an orthonormal input, and the root of a negative number must never be taken.
func clampedHalfRoot(num float64) float64 {
	return math.Sqrt(math.Max(0, num)) / 2
}

// ClampedQuaternion converts the matrix with the branch free trace method: every component is the
// non-negative root of its clamped candidate. The result is always finite with components in
// [0, 1], but the signs are never resolved, so rotations that need a negative component come back
// as a different rotation.
// http://www.euclideanspace.com/maths/geometry/rotations/conversions/matrixToQuaternion/
func (rm *RotationMatrix) ClampedQuaternion() quat.Number {
	m00, m11, m22 := rm.At(0, 0), rm.At(1, 1), rm.At(2, 2)
	return quat.Number{
		Real: clampedHalfRoot(1 + m00 + m11 + m22),
		Imag: clampedHalfRoot(1 + m00 - m11 - m22),
		Jmag: clampedHalfRoot(1 - m00 + m11 - m22),
		Kmag: clampedHalfRoot(1 - m00 - m11 + m22),
	}
}

// Quaternion converts the matrix to a unit quaternion with a non-negative real part. The clamped
// magnitudes are computed as in ClampedQuaternion, then the largest component is kept positive and
// the other three are recovered from the off-diagonal terms divided by it.
func (rm *RotationMatrix) Quaternion() quat.Number {
	mags := rm.ClampedQuaternion()
	m := rm.At

	var q quat.Number
	switch largest := math.Max(math.Max(mags.Real, mags.Imag), math.Max(mags.Jmag, mags.Kmag)); largest {
	case 0:
		// Only reachable for a degenerate input matrix.
		return quat.Number{Real: 1}
	case mags.Real:
		s := 4 * largest
		q = quat.Number{
			Real: largest,
			Imag: (m(2, 1) - m(1, 2)) / s,
			Jmag: (m(0, 2) - m(2, 0)) / s,
			Kmag: (m(1, 0) - m(0, 1)) / s,
		}
	case mags.Imag:
		s := 4 * largest
		q = quat.Number{
			Real: (m(2, 1) - m(1, 2)) / s,
			Imag: largest,
			Jmag: (m(0, 1) + m(1, 0)) / s,
			Kmag: (m(0, 2) + m(2, 0)) / s,
		}
	case mags.Jmag:
		s := 4 * largest
		q = quat.Number{
			Real: (m(0, 2) - m(2, 0)) / s,
			Imag: (m(0, 1) + m(1, 0)) / s,
			Jmag: largest,
			Kmag: (m(1, 2) + m(2, 1)) / s,
		}
	default:
		s := 4 * largest
		q = quat.Number{
			Real: (m(1, 0) - m(0, 1)) / s,
			Imag: (m(0, 2) + m(2, 0)) / s,
			Jmag: (m(1, 2) + m(2, 1)) / s,
			Kmag: largest,
		}
	}

	if q.Real < 0 {
		q = Flip(q)
	}
	return Normalize(q)
}

// QuaternionBy converts the matrix using the requested method. The empty method is QuaternionMethodSigned.
func (rm *RotationMatrix) QuaternionBy(method QuaternionMethod) quat.Number {
	if method == QuaternionMethodClamped {
		return rm.ClampedQuaternion()
	}
	return rm.Quaternion()
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (rm *RotationMatrix) RotationMatrix() *RotationMatrix {
	return rm
}

// AxisAngles returns the orientation in axis angle representation.
func (rm *RotationMatrix) AxisAngles() *R4AA {
	return QuatToR4AA(rm.Quaternion())
}

// OrientationVectorRadians returns orientation as an orientation vector (in radians).
func (rm *RotationMatrix) OrientationVectorRadians() *OrientationVector {
	return QuatToOV(rm.Quaternion())
}

// OrientationVectorDegrees returns orientation as an orientation vector (in degrees).
func (rm *RotationMatrix) OrientationVectorDegrees() *OrientationVectorDegrees {
	return QuatToOVD(rm.Quaternion())
}

// QuatToRotationMatrix converts a quat to a Rotation Matrix
// reference: https://www.euclideanspace.com/maths/geometry/rotations/conversions/quaternionToMatrix/index.htm
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	q = Normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return &RotationMatrix{[9]float64{
		1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y),
		2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x),
		2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y),
	}}
}
