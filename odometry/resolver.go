package odometry

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/odombridge/referenceframe"
	"go.viam.com/odombridge/spatialmath"
)

// resolver fetches single transforms from a directory with a bounded wait.
type resolver struct {
	dir     referenceframe.TransformDirectory
	timeout time.Duration
}

// resolve returns the pose of source in target at `at`. Any failure, including a directory that
// misbehaves by returning nothing, is reported as a TransformUnavailableError.
func (r *resolver) resolve(ctx context.Context, target, source string, at time.Time) (spatialmath.Pose, error) {
	tf, err := r.dir.LookupTransform(ctx, target, source, at, r.timeout)
	if err != nil {
		if referenceframe.IsTransformUnavailable(err) {
			return nil, err
		}
		return nil, referenceframe.NewTransformUnavailableError(target, source, err)
	}
	if tf == nil || tf.Pose == nil {
		return nil, referenceframe.NewTransformUnavailableError(target, source, errors.New("directory returned no transform"))
	}
	return tf.Pose, nil
}
