// Package referenceframe holds named coordinate frames and the transforms between them. Its
// Buffer is a time-indexed transform tree that other parts of a robot publish into and that the
// odometry reporter queries with a bounded wait.
package referenceframe

import (
	"context"
	"time"

	"go.viam.com/odombridge/spatialmath"
)

// StampedTransform is the pose of the Child frame expressed in the Parent frame at a given time.
type StampedTransform struct {
	Parent string
	Child  string
	Time   time.Time
	Pose   spatialmath.Pose
}

// PoseInFrame returns the transform as the pose of the child observed in the parent frame.
func (st *StampedTransform) PoseInFrame() *PoseInFrame {
	return NewPoseInFrame(st.Parent, st.Pose)
}

// Inverse returns the same relationship seen from the child, i.e. the pose of Parent in Child.
func (st *StampedTransform) Inverse() *StampedTransform {
	return &StampedTransform{
		Parent: st.Child,
		Child:  st.Parent,
		Time:   st.Time,
		Pose:   spatialmath.PoseInverse(st.Pose),
	}
}

// A TransformDirectory answers queries for the pose of one named frame in another.
type TransformDirectory interface {
	// LookupTransform returns the pose of `source` expressed in `target` at time `at`. The zero time
	// means the latest data available. If the transform cannot be resolved yet the call waits up to
	// `timeout` for it to become available and then fails with a TransformUnavailableError.
	LookupTransform(ctx context.Context, target, source string, at time.Time, timeout time.Duration) (*StampedTransform, error)
}
