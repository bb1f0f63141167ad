package referenceframe

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrUnknownFrame means no transform mentioning the frame has been published yet.
	ErrUnknownFrame = errors.New("frame does not exist")
	// ErrNoConnectingPath means both frames exist but in disconnected trees.
	ErrNoConnectingPath = errors.New("frames are not connected")
	// ErrExtrapolationFuture means the request is newer than the newest data on the path.
	ErrExtrapolationFuture = errors.New("lookup would require extrapolation into the future")
	// ErrExtrapolationPast means the request is older than the oldest data still held on the path.
	ErrExtrapolationPast = errors.New("lookup would require extrapolation into the past")
)

// TransformUnavailableError is returned when the transform between two frames could not be
// resolved within the allowed wait.
type TransformUnavailableError struct {
	Target string
	Source string
	Cause  error
}

// NewTransformUnavailableError returns an error for a failed lookup of `source` in `target`.
func NewTransformUnavailableError(target, source string, cause error) error {
	return &TransformUnavailableError{Target: target, Source: source, Cause: cause}
}

func (e *TransformUnavailableError) Error() string {
	return fmt.Sprintf("transform from %q to %q unavailable: %v", e.Source, e.Target, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *TransformUnavailableError) Unwrap() error {
	return e.Cause
}

// IsTransformUnavailable reports whether any error in err's chain is a TransformUnavailableError.
func IsTransformUnavailable(err error) bool {
	var tue *TransformUnavailableError
	return errors.As(err, &tue)
}

// retryable reports whether a failed lookup may succeed once more data arrives.
func retryable(err error) bool {
	return !errors.Is(err, ErrExtrapolationPast)
}

// NewParentFrameMissingError returns an error indicating that a transform has no parent frame.
func NewParentFrameMissingError() error {
	return errors.New("parent frame is empty")
}
