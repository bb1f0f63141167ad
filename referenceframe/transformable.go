package referenceframe

import (
	commonpb "go.viam.com/api/common/v1"

	"go.viam.com/odombridge/spatialmath"
)

// PoseInFrame is a data structure that packages a pose with the name of the
// frame in which it was observed.
type PoseInFrame struct {
	frame string
	pose  spatialmath.Pose
}

// NewPoseInFrame generates a new PoseInFrame.
func NewPoseInFrame(frame string, pose spatialmath.Pose) *PoseInFrame {
	return &PoseInFrame{
		frame: frame,
		pose:  pose,
	}
}

// Parent returns the name of the frame in which the pose was observed.
func (pF *PoseInFrame) Parent() string {
	return pF.frame
}

// Pose returns the pose that was observed.
func (pF *PoseInFrame) Pose() spatialmath.Pose {
	return pF.pose
}

// Transform re-expresses the pose in the parent frame of tf, where tf is the pose of this pose's
// frame in that parent.
func (pF *PoseInFrame) Transform(tf *PoseInFrame) *PoseInFrame {
	return NewPoseInFrame(tf.frame, spatialmath.Compose(tf.pose, pF.pose))
}

// AlmostEqual reports whether both poses are in the same frame and approximately equal.
func (pF *PoseInFrame) AlmostEqual(other *PoseInFrame) bool {
	return pF.Parent() == other.Parent() && spatialmath.PoseAlmostEqual(pF.Pose(), other.Pose())
}

// PoseInFrameToProtobuf converts a PoseInFrame struct to a
// PoseInFrame message as specified in common.proto.
func PoseInFrameToProtobuf(framedPose *PoseInFrame) *commonpb.PoseInFrame {
	return &commonpb.PoseInFrame{
		ReferenceFrame: framedPose.frame,
		Pose:           spatialmath.PoseToProtobuf(framedPose.pose),
	}
}

// ProtobufToPoseInFrame converts a PoseInFrame message as specified in
// common.proto to a PoseInFrame struct.
func ProtobufToPoseInFrame(proto *commonpb.PoseInFrame) *PoseInFrame {
	return NewPoseInFrame(proto.GetReferenceFrame(), spatialmath.NewPoseFromProtobuf(proto.GetPose()))
}
