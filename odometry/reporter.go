package odometry

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/odombridge/logging"
	"go.viam.com/odombridge/output"
	"go.viam.com/odombridge/referenceframe"
	"go.viam.com/odombridge/spatialmath"
)

// A TransformBroadcaster publishes named transforms for other consumers of the frame tree.
type TransformBroadcaster interface {
	BroadcastTransform(ctx context.Context, tf referenceframe.StampedTransform) error
}

// An OdometrySink receives odometry records.
type OdometrySink interface {
	PublishOdometry(ctx context.Context, rec Record) error
}

// Record is a timestamped pose labeled with the frame it is reported in.
type Record struct {
	Time    time.Time
	FrameID string
	Pose    spatialmath.Pose
}

// PoseInFrame returns the record's pose together with its frame label.
func (rec Record) PoseInFrame() *referenceframe.PoseInFrame {
	return referenceframe.NewPoseInFrame(rec.FrameID, rec.Pose)
}

// State is where an update ended up.
type State int

// The states an update moves through.
const (
	StateResolving State = iota
	StateComposedAndPublished
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "RESOLVING"
	case StateComposedAndPublished:
		return "COMPOSED_AND_PUBLISHED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Outcome describes a single update.
type Outcome struct {
	State State
	// Composed is set once composition succeeded.
	Composed *ComposedOdometry
	// Err is why the update failed.
	Err error
	// PublishErr holds the errors of any publish that failed after composition.
	PublishErr error
}

// Reporter publishes odometry for every camera pose the engine reports. It holds no state between
// updates besides its configuration.
type Reporter struct {
	output.NoopWrapper

	conf        Config
	resolver    resolver
	broadcaster TransformBroadcaster
	sink        OdometrySink
	clock       clock.Clock
	logger      logging.Logger
}

// NewReporter returns a reporter that resolves frames from dir and publishes to broadcaster and sink.
func NewReporter(
	conf *Config,
	dir referenceframe.TransformDirectory,
	broadcaster TransformBroadcaster,
	sink OdometrySink,
	clk clock.Clock,
	logger logging.Logger,
) (*Reporter, error) {
	if conf == nil {
		conf = NewDefaultConfig()
	}
	if err := conf.Validate("odometry"); err != nil {
		return nil, err
	}
	if dir == nil {
		return nil, errors.New("a transform directory is required")
	}
	if broadcaster == nil || sink == nil {
		return nil, errors.New("both a transform broadcaster and an odometry sink are required")
	}
	if clk == nil {
		clk = clock.New()
	}
	method := conf.QuaternionMethod
	if method == "" {
		method = DefaultQuaternionMethod
	}

	r := &Reporter{
		conf:        *conf,
		resolver:    resolver{dir: dir, timeout: conf.TransformTimeout()},
		broadcaster: broadcaster,
		sink:        sink,
		clock:       clk,
		logger:      logger,
	}
	r.conf.QuaternionMethod = method
	logger.Infow("odometry reporter created",
		"dso_frame", r.conf.DSOFrameID,
		"camera_frame", r.conf.CameraFrameID,
		"odom_frame", r.conf.OdomFrameID,
		"base_frame", r.conf.BaseFrameID,
		"quaternion_method", r.conf.QuaternionMethod,
	)
	return r, nil
}

// Config returns the reporter's configuration.
func (r *Reporter) Config() Config {
	return r.conf
}

// PublishCamPose runs an update for the frame. Failures are logged, never returned to the engine.
func (r *Reporter) PublishCamPose(ctx context.Context, frame *output.FrameShell) {
	r.Update(ctx, frame)
}

// Update resolves odom<-base and then base<-camera, composes them with the frame's camera pose and
// publishes the result. If either lookup fails nothing is published and the failure is logged once.
func (r *Reporter) Update(ctx context.Context, frame *output.FrameShell) Outcome {
	if frame == nil {
		return r.fail(frame, errors.New("no frame to publish"))
	}
	now := r.clock.Now()

	baseInOdom, err := r.resolver.resolve(ctx, r.conf.OdomFrameID, r.conf.BaseFrameID, now)
	if err != nil {
		return r.fail(frame, err)
	}
	cameraInBase, err := r.resolver.resolve(ctx, r.conf.BaseFrameID, r.conf.CameraFrameID, now)
	if err != nil {
		return r.fail(frame, err)
	}

	camPose, err := spatialmath.NewPoseFromMatrix3x4(frame.CamToWorld, r.conf.QuaternionMethod)
	if err != nil {
		return r.fail(frame, errors.Wrap(err, "invalid camera pose"))
	}

	composed := Compose(camPose, cameraInBase, baseInOdom)
	return Outcome{
		State:      StateComposedAndPublished,
		Composed:   &composed,
		PublishErr: r.publish(ctx, composed),
	}
}

func (r *Reporter) fail(frame *output.FrameShell, err error) Outcome {
	kv := []interface{}{"from", r.conf.OdomFrameID, "to", r.conf.CameraFrameID, "error", err}
	if frame != nil {
		kv = append(kv, "frame_id", frame.ID, "incoming_id", frame.IncomingID)
	}
	if referenceframe.IsTransformUnavailable(err) {
		r.logger.Errorw("failed to retrieve transform, skipping pose", kv...)
	} else {
		r.logger.Errorw("failed to compose pose, skipping", kv...)
	}
	return Outcome{State: StateFailed, Err: err}
}

// publish makes one attempt at each output. A failing output does not stop the other.
func (r *Reporter) publish(ctx context.Context, composed ComposedOdometry) error {
	now := r.clock.Now()

	var errs error
	err := r.broadcaster.BroadcastTransform(ctx, referenceframe.StampedTransform{
		Parent: r.conf.DSOFrameID,
		Child:  r.conf.OdomFrameID,
		Time:   now,
		Pose:   composed.PoseInBase,
	})
	if err != nil {
		r.logger.Warnw("failed to broadcast transform", "parent", r.conf.DSOFrameID, "child", r.conf.OdomFrameID, "error", err)
		errs = multierr.Combine(errs, errors.Wrap(err, "broadcast transform"))
	} else {
		r.logger.Debugw("transform broadcast", "parent", r.conf.DSOFrameID, "child", r.conf.OdomFrameID,
			"pose", spatialmath.PoseString(composed.PoseInBase))
	}

	err = r.sink.PublishOdometry(ctx, Record{Time: now, FrameID: r.conf.DSOFrameID, Pose: composed.PoseInBase})
	if err != nil {
		r.logger.Warnw("failed to publish odometry", "frame", r.conf.DSOFrameID, "error", err)
		errs = multierr.Combine(errs, errors.Wrap(err, "publish odometry"))
	}
	return errs
}
