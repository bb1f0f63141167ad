package odometry

import "go.viam.com/odombridge/spatialmath"

// ComposedOdometry is the camera pose re-expressed through the robot's frame chain.
type ComposedOdometry struct {
	// PoseInBase is the camera pose with the camera mounting removed: P * inverse(B).
	PoseInBase spatialmath.Pose
	// PoseInOdom additionally removes the base's pose in the odometry frame: PoseInBase * inverse(O).
	PoseInOdom spatialmath.Pose
}

// Compose chains the engine's camera pose with the two resolved transforms. cameraInBase is the
// pose of the camera in the base frame and baseInOdom the pose of the base in the odometry frame,
// as returned by lookups of base<-camera and odom<-base. Order matters.
func Compose(camPose, cameraInBase, baseInOdom spatialmath.Pose) ComposedOdometry {
	poseInBase := spatialmath.Compose(camPose, spatialmath.PoseInverse(cameraInBase))
	return ComposedOdometry{
		PoseInBase: poseInBase,
		PoseInOdom: spatialmath.Compose(poseInBase, spatialmath.PoseInverse(baseInOdom)),
	}
}
