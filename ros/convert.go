package ros

import (
	"github.com/pkg/errors"

	"go.viam.com/odombridge/odometry"
	"go.viam.com/odombridge/output"
	"go.viam.com/odombridge/referenceframe"
	"go.viam.com/odombridge/spatialmath"
)

// NewTransformStamped converts a stamped transform to its ROS form.
func NewTransformStamped(st referenceframe.StampedTransform) TransformStamped {
	return TransformStamped{
		Header:       Header{Stamp: NewTime(st.Time), FrameID: st.Parent},
		ChildFrameID: st.Child,
		Transform:    NewTransform(st.Pose),
	}
}

// StampedTransform converts the ROS transform to a referenceframe.StampedTransform.
func (ts TransformStamped) StampedTransform() (referenceframe.StampedTransform, error) {
	if !ts.Transform.Valid() {
		return referenceframe.StampedTransform{}, errors.Errorf("invalid transform %q -> %q", ts.Header.FrameID, ts.ChildFrameID)
	}
	return referenceframe.StampedTransform{
		Parent: stripSlash(ts.Header.FrameID),
		Child:  stripSlash(ts.ChildFrameID),
		Time:   ts.Header.Stamp.Time(),
		Pose:   ts.Transform.Spatial(),
	}, nil
}

// NewOdometry converts an odometry record to nav_msgs/Odometry. The twist is left empty.
func NewOdometry(rec odometry.Record, seq uint32) Odometry {
	return Odometry{
		Header: Header{Seq: seq, Stamp: NewTime(rec.Time), FrameID: rec.FrameID},
		Pose:   PoseWithCovariance{Pose: NewPose(rec.Pose)},
	}
}

// FrameShell converts a stamped camera pose to the shell the reporter consumes. The frame id is
// the position of the pose in its stream.
func (ps PoseStamped) FrameShell(id int) (*output.FrameShell, error) {
	return output.NewFrameShell(id, int(ps.Header.Seq), ps.Header.Stamp.Seconds(), spatialmath.PoseToMatrix3x4(ps.Pose.Spatial()))
}

// tf2 frame ids must not start with a slash but tf1 bags often contain them.
func stripSlash(frame string) string {
	if len(frame) > 0 && frame[0] == '/' {
		return frame[1:]
	}
	return frame
}
