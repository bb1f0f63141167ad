package output

import (
	"context"
	"image"

	"go.uber.org/multierr"
)

// Multi forwards every call to each of its wrappers in order, the way the engine keeps a list of
// output wrappers.
type Multi []Wrapper

// PublishGraph forwards to every wrapper.
func (m Multi) PublishGraph(ctx context.Context, graph Connectivity) {
	for _, w := range m {
		w.PublishGraph(ctx, graph)
	}
}

// PublishKeyframes forwards to every wrapper.
func (m Multi) PublishKeyframes(ctx context.Context, frames []*Keyframe, final bool) {
	for _, w := range m {
		w.PublishKeyframes(ctx, frames, final)
	}
}

// PublishCamPose forwards to every wrapper.
func (m Multi) PublishCamPose(ctx context.Context, frame *FrameShell) {
	for _, w := range m {
		w.PublishCamPose(ctx, frame)
	}
}

// PushLiveFrame forwards to every wrapper.
func (m Multi) PushLiveFrame(ctx context.Context, frame *Keyframe) {
	for _, w := range m {
		w.PushLiveFrame(ctx, frame)
	}
}

// PushDepthImage forwards to the wrappers that asked for depth images.
func (m Multi) PushDepthImage(ctx context.Context, img image.Image) {
	for _, w := range m {
		if w.NeedPushDepthImage() {
			w.PushDepthImage(ctx, img)
		}
	}
}

// NeedPushDepthImage is true if any wrapper wants depth images.
func (m Multi) NeedPushDepthImage() bool {
	for _, w := range m {
		if w.NeedPushDepthImage() {
			return true
		}
	}
	return false
}

// PushDepthImageFloat forwards to the wrappers that asked for depth images.
func (m Multi) PushDepthImageFloat(ctx context.Context, img *DepthImage, kf *Keyframe) {
	for _, w := range m {
		if w.NeedPushDepthImage() {
			w.PushDepthImageFloat(ctx, img, kf)
		}
	}
}

// Close closes every wrapper and returns all of their errors.
func (m Multi) Close(ctx context.Context) error {
	var errs error
	for _, w := range m {
		errs = multierr.Combine(errs, w.Close(ctx))
	}
	return errs
}
