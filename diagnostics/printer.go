// Package diagnostics logs a human readable sample of what the odometry engine reports.
package diagnostics

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"go.viam.com/odombridge/logging"
	"go.viam.com/odombridge/output"
)

// MaxExamples is how many edges, points or pixels are logged per call.
const MaxExamples = 5

// Printer is an output.Wrapper that logs the keyframe graph, keyframes and depth predictions.
type Printer struct {
	output.NoopWrapper
	logger logging.Logger
}

// NewPrinter returns a Printer logging to logger.
func NewPrinter(logger logging.Logger) *Printer {
	return &Printer{logger: logger}
}

// PublishGraph logs the number of edges and a few of them.
func (p *Printer) PublishGraph(ctx context.Context, graph output.Connectivity) {
	p.logger.Debugf("got graph with %d edges", len(graph))

	keys := make([]int64, 0, len(graph))
	for key := range graph {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	if len(keys) > MaxExamples {
		keys = keys[:MaxExamples]
	}
	for _, key := range keys {
		host, target := output.SplitEdgeKey(key)
		counts := graph[key]
		p.logger.Debugf("example edge %d -> %d has %d active and %d marg residuals",
			host, target, counts.Active, counts.Marginalized)
	}
}

// PublishKeyframes logs a summary and a few points of every keyframe.
func (p *Printer) PublishKeyframes(ctx context.Context, frames []*output.Keyframe, final bool) {
	status := "non-final"
	if final {
		status = "final"
	}
	for _, kf := range frames {
		if kf == nil {
			continue
		}
		kv := []interface{}{"kf", kf.FrameID, "status", status}
		if kf.Shell != nil {
			kv = append(kv, "incoming_id", kf.Shell.IncomingID, "time", kf.Shell.Timestamp)
		}
		kv = append(kv,
			"active", len(kf.ActivePoints),
			"marginalized", kf.NumMarginalized,
			"immature", kf.NumImmaturePoints,
		)
		p.logger.Debugw("keyframe", kv...)
		p.logger.Debugf("camera to world:\n%s", formatPose(kf.Shell))

		points := kf.ActivePoints
		if len(points) > MaxExamples {
			points = points[:MaxExamples]
		}
		for i := range points {
			pt := &points[i]
			p.logger.Debugf("example point x=%.1f, y=%.1f, idepth=%f, idepth std.dev. %f, %d inlier-residuals",
				pt.U, pt.V, pt.IDepthScaled, pt.IDepthStdDev(), pt.NumGoodResiduals)
		}
	}
}

// NeedPushDepthImage returns true so depth predictions are sampled.
func (p *Printer) NeedPushDepthImage() bool {
	return true
}

// PushDepthImageFloat logs the keyframe a depth prediction belongs to and the first few pixels,
// in row-major order, that have an estimate.
func (p *Printer) PushDepthImageFloat(ctx context.Context, img *output.DepthImage, kf *output.Keyframe) {
	if img == nil || kf == nil {
		return
	}
	if kf.Shell == nil {
		p.logger.Debugf("predicted depth for KF %d (no frame)", kf.FrameID)
	} else {
		p.logger.Debugf("predicted depth for KF %d (id %d, time %f, internal frame-ID %d)",
			kf.FrameID, kf.Shell.IncomingID, kf.Shell.Timestamp, kf.Shell.ID)
	}
	p.logger.Debugf("camera to world:\n%s", formatPose(kf.Shell))

	written := 0
	for y := 0; y < img.Height && written < MaxExamples; y++ {
		for x := 0; x < img.Width && written < MaxExamples; x++ {
			v := img.At(x, y)
			if v <= 0 {
				continue
			}
			p.logger.Debugf("example idepth at pixel (%d,%d): %f", x, y, v)
			written++
		}
	}
}

func formatPose(fs *output.FrameShell) string {
	if fs == nil || fs.CamToWorld == nil {
		return "<none>"
	}
	return fmt.Sprintf("%v", mat.Formatted(fs.CamToWorld, mat.Squeeze()))
}
