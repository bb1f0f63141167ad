// Package output defines the reporting surface an odometry engine calls into once it has computed
// poses, keyframes and depth predictions, along with the data those calls carry.
package output

import (
	"context"
	"image"
	"math"
	"time"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// FrameShell is the engine's summary of one processed input frame.
type FrameShell struct {
	// ID is the engine's internal frame id.
	ID int
	// IncomingID is the sequence number of the input image the frame was made from.
	IncomingID int
	// Timestamp is the capture time of the input image in seconds.
	Timestamp float64
	// CamToWorld is the 3x4 pose of the camera in the engine's world frame.
	CamToWorld *mat.Dense
}

// NewFrameShell returns a shell after checking that camToWorld is 3x4.
func NewFrameShell(id, incomingID int, timestamp float64, camToWorld *mat.Dense) (*FrameShell, error) {
	if camToWorld == nil {
		return nil, errors.New("camera pose matrix is nil")
	}
	if r, c := camToWorld.Dims(); r != 3 || c != 4 {
		return nil, errors.Errorf("camera pose matrix must be 3x4, got %dx%d", r, c)
	}
	return &FrameShell{ID: id, IncomingID: incomingID, Timestamp: timestamp, CamToWorld: camToWorld}, nil
}

// Time returns the capture time as a time.Time.
func (fs *FrameShell) Time() time.Time {
	sec, frac := math.Modf(fs.Timestamp)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// Point is an active point of a keyframe.
type Point struct {
	U, V float64
	// IDepthScaled is the point's inverse depth.
	IDepthScaled float64
	// IDepthHessian is the information of the inverse depth estimate.
	IDepthHessian    float64
	NumGoodResiduals int
}

// IDepthStdDev is the standard deviation of the inverse depth estimate.
func (p *Point) IDepthStdDev() float64 {
	return math.Sqrt(1 / p.IDepthHessian)
}

// Keyframe is a frame the engine keeps in its optimization window.
type Keyframe struct {
	FrameID           int
	Shell             *FrameShell
	ActivePoints      []Point
	NumMarginalized   int
	NumImmaturePoints int
}

// ResidualCounts holds the number of active and marginalized residuals between two keyframes.
type ResidualCounts struct {
	Active       int
	Marginalized int
}

// Connectivity is the keyframe graph, keyed by EdgeKey(host, target).
type Connectivity map[int64]ResidualCounts

// EdgeKey packs a host and target keyframe id into a Connectivity key.
func EdgeKey(host, target int) int64 {
	return int64(host)<<32 | int64(uint32(target))
}

// SplitEdgeKey returns the host and target keyframe ids packed in key.
func SplitEdgeKey(key int64) (host, target int) {
	return int(key >> 32), int(int32(key))
}

// DepthImage is a row-major image of predicted inverse depths; non-positive values have no estimate.
type DepthImage struct {
	Width, Height int
	Pix           []float32
}

// NewDepthImage returns a zeroed depth image.
func NewDepthImage(width, height int) *DepthImage {
	return &DepthImage{Width: width, Height: height, Pix: make([]float32, width*height)}
}

// At returns the inverse depth at pixel (x, y).
func (di *DepthImage) At(x, y int) float32 {
	return di.Pix[y*di.Width+x]
}

// Set sets the inverse depth at pixel (x, y).
func (di *DepthImage) Set(x, y int, v float32) {
	di.Pix[y*di.Width+x] = v
}

// A Wrapper receives results from the odometry engine. Calls are synchronous hooks: they return
// before the engine continues and never report errors back to it.
type Wrapper interface {
	// PublishGraph is called with the current keyframe connectivity.
	PublishGraph(ctx context.Context, graph Connectivity)
	// PublishKeyframes is called with keyframes that changed; final is set once they are marginalized.
	PublishKeyframes(ctx context.Context, frames []*Keyframe, final bool)
	// PublishCamPose is called once per tracked frame with the newest camera pose.
	PublishCamPose(ctx context.Context, frame *FrameShell)
	// PushLiveFrame is called with every new frame.
	PushLiveFrame(ctx context.Context, frame *Keyframe)
	// PushDepthImage is called with an RGB rendering of the current depth map.
	PushDepthImage(ctx context.Context, img image.Image)
	// NeedPushDepthImage reports whether PushDepthImage and PushDepthImageFloat should be called.
	NeedPushDepthImage() bool
	// PushDepthImageFloat is called with the predicted inverse depth of a keyframe.
	PushDepthImageFloat(ctx context.Context, img *DepthImage, kf *Keyframe)
	// Close releases any resources held by the wrapper.
	Close(ctx context.Context) error
}

// NoopWrapper can be embedded by wrappers that only care about some hooks.
type NoopWrapper struct{}

// PublishGraph does nothing.
func (NoopWrapper) PublishGraph(ctx context.Context, graph Connectivity) {}

// PublishKeyframes does nothing.
func (NoopWrapper) PublishKeyframes(ctx context.Context, frames []*Keyframe, final bool) {}

// PublishCamPose does nothing.
func (NoopWrapper) PublishCamPose(ctx context.Context, frame *FrameShell) {}

// PushLiveFrame does nothing.
func (NoopWrapper) PushLiveFrame(ctx context.Context, frame *Keyframe) {}

// PushDepthImage does nothing.
func (NoopWrapper) PushDepthImage(ctx context.Context, img image.Image) {}

// NeedPushDepthImage returns false.
func (NoopWrapper) NeedPushDepthImage() bool { return false }

// PushDepthImageFloat does nothing.
func (NoopWrapper) PushDepthImageFloat(ctx context.Context, img *DepthImage, kf *Keyframe) {}

// Close does nothing.
func (NoopWrapper) Close(ctx context.Context) error { return nil }
