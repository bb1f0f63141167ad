package inject

import (
	"context"
	"time"

	"go.viam.com/odombridge/referenceframe"
)

// TransformDirectory is an injected transform directory.
type TransformDirectory struct {
	referenceframe.TransformDirectory
	LookupTransformFunc func(
		ctx context.Context,
		target, source string,
		at time.Time,
		timeout time.Duration,
	) (*referenceframe.StampedTransform, error)
}

// LookupTransform calls the injected LookupTransform or the real version.
func (d *TransformDirectory) LookupTransform(
	ctx context.Context,
	target, source string,
	at time.Time,
	timeout time.Duration,
) (*referenceframe.StampedTransform, error) {
	if d.LookupTransformFunc == nil {
		return d.TransformDirectory.LookupTransform(ctx, target, source, at, timeout)
	}
	return d.LookupTransformFunc(ctx, target, source, at, timeout)
}
