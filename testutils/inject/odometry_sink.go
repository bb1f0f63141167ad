package inject

import (
	"context"

	"go.viam.com/odombridge/odometry"
	"go.viam.com/odombridge/referenceframe"
)

// OdometrySink is an injected odometry sink.
type OdometrySink struct {
	odometry.OdometrySink
	PublishOdometryFunc func(ctx context.Context, rec odometry.Record) error
}

// PublishOdometry calls the injected PublishOdometry or the real version.
func (s *OdometrySink) PublishOdometry(ctx context.Context, rec odometry.Record) error {
	if s.PublishOdometryFunc == nil {
		return s.OdometrySink.PublishOdometry(ctx, rec)
	}
	return s.PublishOdometryFunc(ctx, rec)
}

// TransformBroadcaster is an injected transform broadcaster.
type TransformBroadcaster struct {
	odometry.TransformBroadcaster
	BroadcastTransformFunc func(ctx context.Context, tf referenceframe.StampedTransform) error
}

// BroadcastTransform calls the injected BroadcastTransform or the real version.
func (b *TransformBroadcaster) BroadcastTransform(ctx context.Context, tf referenceframe.StampedTransform) error {
	if b.BroadcastTransformFunc == nil {
		return b.TransformBroadcaster.BroadcastTransform(ctx, tf)
	}
	return b.BroadcastTransformFunc(ctx, tf)
}
