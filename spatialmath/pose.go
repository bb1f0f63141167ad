package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	commonpb "go.viam.com/api/common/v1"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, with respect to the origin.
// The Point() method returns the position in (x,y,z) and Orientation() returns the orientation.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose takes in a position and orientation and returns a Pose. A nil orientation means no rotation.
func NewPose(point r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(point)
	}
	q := newDualQuaternion()
	q.Real = Normalize(o.Quaternion())
	q.SetTranslation(point)
	return q
}

// NewPoseFromOrientation takes in an orientation and returns a Pose with no translation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	q := newDualQuaternion()
	q.SetTranslation(point)
	return q
}

// NewPoseFromMatrix3x4 builds a pose from a 3x4 [R|t] matrix: the left 3x3 block is the rotation
// and the last column the translation. The rotation is converted with the given method.
func NewPoseFromMatrix3x4(m mat.Matrix, method QuaternionMethod) (Pose, error) {
	if m == nil {
		return nil, errors.New("cannot make a pose from a nil matrix")
	}
	if r, c := m.Dims(); r != 3 || c != 4 {
		return nil, errors.Errorf("expected a 3x4 pose matrix, got %dx%d", r, c)
	}
	if err := method.Validate(); err != nil {
		return nil, err
	}
	rot := make([]float64, 0, 9)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rot = append(rot, m.At(r, c))
		}
	}
	rm, err := NewRotationMatrix(rot)
	if err != nil {
		return nil, err
	}
	q := Quaternion(rm.QuaternionBy(method))
	return NewPose(r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}, &q), nil
}

// PoseToMatrix3x4 returns the [R|t] matrix of a pose.
func PoseToMatrix3x4(p Pose) *mat.Dense {
	rm := p.Orientation().RotationMatrix()
	pt := p.Point()
	return mat.NewDense(3, 4, []float64{
		rm.At(0, 0), rm.At(0, 1), rm.At(0, 2), pt.X,
		rm.At(1, 0), rm.At(1, 1), rm.At(1, 2), pt.Y,
		rm.At(2, 0), rm.At(2, 1), rm.At(2, 2), pt.Z,
	})
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// It converts the poses to dual quaternions and multiplies them together, normalizes the result
// and returns a new Pose. Order matters: if a is the pose of frame B in frame A and b is the pose
// of x in frame B, the result is the pose of x in frame A.
func Compose(a, b Pose) Pose {
	result := &dualQuaternion{dualquat.Mul(newDualQuaternionFromPose(a).Number, newDualQuaternionFromPose(b).Number)}

	// Normalization
	if vecLen := 1. / quat.Abs(result.Real); vecLen != 1 {
		result.Real = quat.Scale(vecLen, result.Real)
		result.Dual = quat.Scale(vecLen, result.Dual)
	}
	return result
}

// PoseBetween returns the difference between two poses, i.e. the pose of b in the frame of a.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseInverse will return the inverse of a pose. So if a given pose p is the pose of A relative to B,
// PoseInverse(p) will give the pose of B relative to A.
func PoseInverse(p Pose) Pose {
	q := newDualQuaternionFromPose(p)
	return &dualQuaternion{dualquat.Number{Real: quat.Conj(q.Real), Dual: quat.Conj(q.Dual)}}
}

// Interpolate will return a new Pose that has been interpolated the set amount between two poses.
// Note that position and orientation are interpolated separately, then the two are combined.
// Note that slerp(q1, q2) != slerp(q2, q1).
// p1 and p2 are the two poses to interpolate between, by is a float representing the amount to interpolate between them.
// by == 0 will return p1, by == 1 will return p2, and by == 0.5 will return the pose halfway between them.
func Interpolate(p1, p2 Pose, by float64) Pose {
	pt := p1.Point().Add(p2.Point().Sub(p1.Point()).Mul(by))
	q := Quaternion(Slerp(p1.Orientation().Quaternion(), p2.Orientation().Quaternion(), by))
	return NewPose(pt, &q)
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-6)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same
// with a given translation epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return PoseAlmostCoincidentEps(a, b, epsilon) && OrientationAlmostEqual(a.Orientation(), b.Orientation())
}

// PoseAlmostCoincident will return a bool describing whether 2 poses approximately are at the same 3D coordinate location.
// This uses the same epsilon as the default value for the Viam IK solver.
func PoseAlmostCoincident(a, b Pose) bool {
	return PoseAlmostCoincidentEps(a, b, 1e-6)
}

// PoseAlmostCoincidentEps will return a bool describing whether 2 poses approximately are at the same 3D coordinate location.
func PoseAlmostCoincidentEps(a, b Pose, epsilon float64) bool {
	return a.Point().ApproxEqual(b.Point()) || a.Point().Sub(b.Point()).Norm() < epsilon
}

// PoseToProtobuf converts a pose to the pose format protobuf expects (which is as OrientationVectorDegrees).
func PoseToProtobuf(p Pose) *commonpb.Pose {
	final := &commonpb.Pose{}
	pt := p.Point()
	final.X = pt.X
	final.Y = pt.Y
	final.Z = pt.Z
	poseOV := p.Orientation().OrientationVectorDegrees()
	final.Theta = poseOV.Theta
	final.OX = poseOV.OX
	final.OY = poseOV.OY
	final.OZ = poseOV.OZ
	return final
}

// NewPoseFromProtobuf creates a new pose from a protobuf pose.
func NewPoseFromProtobuf(pos *commonpb.Pose) Pose {
	return NewPose(
		r3.Vector{X: pos.GetX(), Y: pos.GetY(), Z: pos.GetZ()},
		&OrientationVectorDegrees{pos.GetTheta(), pos.GetOX(), pos.GetOY(), pos.GetOZ()},
	)
}

// PoseString formats a pose as its position and quaternion for logs.
func PoseString(p Pose) string {
	pt := p.Point()
	q := p.Orientation().Quaternion()
	return fmt.Sprintf("{X:%.6f Y:%.6f Z:%.6f qX:%.6f qY:%.6f qZ:%.6f qW:%.6f}",
		pt.X, pt.Y, pt.Z, q.Imag, q.Jmag, q.Kmag, q.Real)
}

// dualQuaternion defines functions to perform rigid dualQuaternion transformations in 3D.
// The real part is the rotation and the dual part is half the translation times the rotation.
type dualQuaternion struct {
	dualquat.Number
}

// newDualQuaternion returns a pointer to a new dualQuaternion object whose Quaternion is an identity Quaternion.
// Since the real part of a dual quaternion should be a unit quaternion, not all zeroes, this should be used
// instead of &dualQuaternion{}.
func newDualQuaternion() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// newDualQuaternionFromPose takes any pose, checks if it is already a DQ and returns that if so, otherwise creates a
// new one.
func newDualQuaternionFromPose(p Pose) *dualQuaternion {
	if q, ok := p.(*dualQuaternion); ok {
		return q
	}
	q := newDualQuaternion()
	q.Real = Normalize(p.Orientation().Quaternion())
	q.SetTranslation(p.Point())
	return q
}

// SetTranslation correctly sets the translation quaternion against the rotation.
func (q *dualQuaternion) SetTranslation(pt r3.Vector) {
	q.Dual = quat.Mul(quat.Number{Real: 0, Imag: pt.X / 2, Jmag: pt.Y / 2, Kmag: pt.Z / 2}, q.Real)
}

// Point multiplies the dual quaternion by its own conjugate to give a dq where the real is the identity quat,
// and the dual is the translation.
func (q *dualQuaternion) Point() r3.Vector {
	t := quat.Scale(2, quat.Mul(q.Dual, quat.Conj(q.Real)))
	return r3.Vector{X: t.Imag, Y: t.Jmag, Z: t.Kmag}
}

// Orientation returns the rotation quaternion as an Orientation.
func (q *dualQuaternion) Orientation() Orientation {
	o := Quaternion(q.Real)
	return &o
}

// IsFinite reports whether the pose contains no NaN or infinite components.
func IsFinite(p Pose) bool {
	pt := p.Point()
	q := p.Orientation().Quaternion()
	for _, v := range []float64{pt.X, pt.Y, pt.Z, q.Real, q.Imag, q.Jmag, q.Kmag} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
