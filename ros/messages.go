package ros

import (
	"math"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/odombridge/spatialmath"
)

// Time is a ROS time stamp.
type Time struct {
	Secs  uint32 `json:"secs"`
	Nsecs uint32 `json:"nsecs"`
}

// NewTime converts a time.Time to a ROS time stamp.
func NewTime(t time.Time) Time {
	if t.IsZero() || t.Unix() < 0 {
		return Time{}
	}
	return Time{Secs: uint32(t.Unix()), Nsecs: uint32(t.Nanosecond())}
}

// Time converts the stamp back to a time.Time in UTC.
func (t Time) Time() time.Time {
	return time.Unix(int64(t.Secs), int64(t.Nsecs)).UTC()
}

// Seconds returns the stamp as floating point seconds.
func (t Time) Seconds() float64 {
	return float64(t.Secs) + float64(t.Nsecs)/1e9
}

// Header is std_msgs/Header.
type Header struct {
	Seq     uint32 `json:"seq"`
	Stamp   Time   `json:"stamp"`
	FrameID string `json:"frame_id"`
}

// Vector3 is geometry_msgs/Vector3 and geometry_msgs/Point.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Quaternion is geometry_msgs/Quaternion.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// Pose is geometry_msgs/Pose.
type Pose struct {
	Position    Vector3    `json:"position"`
	Orientation Quaternion `json:"orientation"`
}

// Transform is geometry_msgs/Transform.
type Transform struct {
	Translation Vector3    `json:"translation"`
	Rotation    Quaternion `json:"rotation"`
}

// TransformStamped is geometry_msgs/TransformStamped: the pose of ChildFrameID in Header.FrameID.
type TransformStamped struct {
	Header       Header    `json:"header"`
	ChildFrameID string    `json:"child_frame_id"`
	Transform    Transform `json:"transform"`
}

// TFMessage is tf2_msgs/TFMessage, the type of the /tf and /tf_static topics.
type TFMessage struct {
	Transforms []TransformStamped `json:"transforms"`
}

// PoseStamped is geometry_msgs/PoseStamped.
type PoseStamped struct {
	Header Header `json:"header"`
	Pose   Pose   `json:"pose"`
}

// PoseWithCovariance is geometry_msgs/PoseWithCovariance.
type PoseWithCovariance struct {
	Pose       Pose        `json:"pose"`
	Covariance [36]float64 `json:"covariance"`
}

// Twist is geometry_msgs/Twist.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// TwistWithCovariance is geometry_msgs/TwistWithCovariance.
type TwistWithCovariance struct {
	Twist      Twist       `json:"twist"`
	Covariance [36]float64 `json:"covariance"`
}

// Odometry is nav_msgs/Odometry.
type Odometry struct {
	Header       Header              `json:"header"`
	ChildFrameID string              `json:"child_frame_id"`
	Pose         PoseWithCovariance  `json:"pose"`
	Twist        TwistWithCovariance `json:"twist"`
}

func vectorFromR3(v r3.Vector) Vector3 {
	return Vector3{X: v.X, Y: v.Y, Z: v.Z}
}

func (v Vector3) r3() r3.Vector {
	return r3.Vector{X: v.X, Y: v.Y, Z: v.Z}
}

func quaternionFromQuat(q quat.Number) Quaternion {
	return Quaternion{X: q.Imag, Y: q.Jmag, Z: q.Kmag, W: q.Real}
}

func (q Quaternion) orientation() spatialmath.Orientation {
	o := spatialmath.Quaternion(quat.Number{Real: q.W, Imag: q.X, Jmag: q.Y, Kmag: q.Z})
	return &o
}

// NewPose converts a pose to its ROS form.
func NewPose(p spatialmath.Pose) Pose {
	return Pose{Position: vectorFromR3(p.Point()), Orientation: quaternionFromQuat(p.Orientation().Quaternion())}
}

// Spatial converts the ROS pose back to a spatialmath.Pose.
func (p Pose) Spatial() spatialmath.Pose {
	return spatialmath.NewPose(p.Position.r3(), p.Orientation.orientation())
}

// NewTransform converts a pose to a ROS transform.
func NewTransform(p spatialmath.Pose) Transform {
	return Transform{Translation: vectorFromR3(p.Point()), Rotation: quaternionFromQuat(p.Orientation().Quaternion())}
}

// Spatial converts the ROS transform back to a spatialmath.Pose.
func (t Transform) Spatial() spatialmath.Pose {
	return spatialmath.NewPose(t.Translation.r3(), t.Rotation.orientation())
}

// Valid reports whether every component is finite and the rotation is not all zeros.
func (t Transform) Valid() bool {
	for _, v := range []float64{
		t.Translation.X, t.Translation.Y, t.Translation.Z,
		t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return t.Rotation != Quaternion{}
}
