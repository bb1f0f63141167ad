package referenceframe

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"go.viam.com/odombridge/spatialmath"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func stamped(parent, child string, at time.Time, pose spatialmath.Pose) StampedTransform {
	return StampedTransform{Parent: parent, Child: child, Time: at, Pose: pose}
}

func TestLookupIdentityForSameFrame(t *testing.T) {
	b := NewBuffer(clock.NewMock(), 0)
	test.That(t, b.SetTransform(stamped("odom", "base_link", t0, spatialmath.NewPoseFromPoint(r3.Vector{X: 1})), false), test.ShouldBeNil)

	tf, err := b.LookupTransform(context.Background(), "odom", "odom", time.Time{}, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(tf.Pose, spatialmath.NewZeroPose()), test.ShouldBeTrue)
}

func TestLookupUnknownFrame(t *testing.T) {
	b := NewBuffer(clock.NewMock(), 0)
	_, err := b.LookupTransform(context.Background(), "odom", "base_link", time.Time{}, 0)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, IsTransformUnavailable(err), test.ShouldBeTrue)
	test.That(t, errors.Is(err, ErrUnknownFrame), test.ShouldBeTrue)
}

func TestLookupDisconnectedTrees(t *testing.T) {
	b := NewBuffer(clock.NewMock(), 0)
	test.That(t, b.SetTransform(stamped("odom", "base_link", t0, spatialmath.NewZeroPose()), true), test.ShouldBeNil)
	test.That(t, b.SetTransform(stamped("map", "dso_odom", t0, spatialmath.NewZeroPose()), true), test.ShouldBeNil)

	err := b.CanTransform("odom", "dso_odom", time.Time{})
	test.That(t, errors.Is(err, ErrNoConnectingPath), test.ShouldBeTrue)
}

func TestLookupThroughCommonAncestor(t *testing.T) {
	b := NewBuffer(clock.NewMock(), 0)
	// base_link is 1m forward of odom and rotated 90 degrees about z.
	base := spatialmath.NewPose(r3.Vector{X: 1}, &spatialmath.R4AA{Theta: math.Pi / 2, RZ: 1})
	// camera is 0.5m forward of base_link.
	camera := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.5})
	// lidar is mounted 2m above odom.
	lidar := spatialmath.NewPoseFromPoint(r3.Vector{Z: 2})

	test.That(t, b.SetTransform(stamped("odom", "base_link", t0, base), false), test.ShouldBeNil)
	test.That(t, b.SetTransform(stamped("base_link", "camera", t0, camera), true), test.ShouldBeNil)
	test.That(t, b.SetTransform(stamped("odom", "lidar", t0, lidar), true), test.ShouldBeNil)

	tf, err := b.LookupTransform(context.Background(), "odom", "camera", time.Time{}, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tf.Parent, test.ShouldEqual, "odom")
	test.That(t, tf.Child, test.ShouldEqual, "camera")
	test.That(t, tf.Time, test.ShouldEqual, t0)
	test.That(t, spatialmath.PoseAlmostCoincident(tf.Pose, spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 0.5})), test.ShouldBeTrue)

	tf, err = b.LookupTransform(context.Background(), "lidar", "camera", time.Time{}, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostCoincident(tf.Pose, spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 0.5, Z: -2})), test.ShouldBeTrue)

	// The reverse lookup is the inverse.
	rev, err := b.LookupTransform(context.Background(), "camera", "lidar", time.Time{}, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(rev.Pose, spatialmath.PoseInverse(tf.Pose)), test.ShouldBeTrue)
}

func TestLookupInterpolates(t *testing.T) {
	b := NewBuffer(clock.NewMock(), 0)
	test.That(t, b.SetTransform(stamped("odom", "base_link", t0, spatialmath.NewZeroPose()), false), test.ShouldBeNil)
	end := spatialmath.NewPose(r3.Vector{X: 2}, &spatialmath.R4AA{Theta: math.Pi / 2, RZ: 1})
	test.That(t, b.SetTransform(stamped("odom", "base_link", t0.Add(2*time.Second), end), false), test.ShouldBeNil)

	tf, err := b.LookupTransform(context.Background(), "odom", "base_link", t0.Add(time.Second), 0)
	test.That(t, err, test.ShouldBeNil)
	expected := spatialmath.NewPose(r3.Vector{X: 1}, &spatialmath.R4AA{Theta: math.Pi / 4, RZ: 1})
	test.That(t, spatialmath.PoseAlmostEqual(tf.Pose, expected), test.ShouldBeTrue)

	// Exact hits return the stored sample.
	tf, err = b.LookupTransform(context.Background(), "odom", "base_link", t0.Add(2*time.Second), 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(tf.Pose, end), test.ShouldBeTrue)
}

func TestSetTransformRejectsBadInput(t *testing.T) {
	b := NewBuffer(clock.NewMock(), 0)
	test.That(t, b.SetTransform(stamped("", "base_link", t0, spatialmath.NewZeroPose()), false), test.ShouldNotBeNil)
	test.That(t, b.SetTransform(stamped("odom", "", t0, spatialmath.NewZeroPose()), false), test.ShouldNotBeNil)
	test.That(t, b.SetTransform(stamped("odom", "odom", t0, spatialmath.NewZeroPose()), false), test.ShouldNotBeNil)
	test.That(t, b.SetTransform(stamped("odom", "base_link", t0, nil), false), test.ShouldNotBeNil)
	test.That(t, b.SetTransform(stamped("odom", "base_link", t0, spatialmath.NewPoseFromPoint(r3.Vector{X: math.NaN()})), false),
		test.ShouldNotBeNil)

	test.That(t, b.SetTransform(stamped("odom", "base_link", t0, spatialmath.NewZeroPose()), false), test.ShouldBeNil)
	test.That(t, b.SetTransform(stamped("base_link", "camera", t0, spatialmath.NewZeroPose()), false), test.ShouldBeNil)
	err := b.SetTransform(stamped("camera", "odom", t0, spatialmath.NewZeroPose()), false)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cycle")
}

func TestReparent(t *testing.T) {
	b := NewBuffer(clock.NewMock(), 0)
	test.That(t, b.SetTransform(stamped("odom", "base_link", t0, spatialmath.NewZeroPose()), false), test.ShouldBeNil)
	test.That(t, b.SetTransform(stamped("map", "base_link", t0, spatialmath.NewZeroPose()), false), test.ShouldBeNil)

	parent, ok := b.Parent("base_link")
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, parent, test.ShouldEqual, "map")
	test.That(t, b.FrameNames(), test.ShouldResemble, []string{"base_link", "map"})
}

func TestCachePruning(t *testing.T) {
	b := NewBuffer(clock.NewMock(), time.Second)
	for i := 0; i < 5; i++ {
		at := t0.Add(time.Duration(i) * time.Second)
		test.That(t, b.SetTransform(stamped("odom", "base_link", at, spatialmath.NewPoseFromPoint(r3.Vector{X: float64(i)})), false),
			test.ShouldBeNil)
	}

	// Data older than a second before the newest sample is gone, and asking for it fails without waiting.
	_, err := b.LookupTransform(context.Background(), "odom", "base_link", t0.Add(time.Second), time.Hour)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.Is(err, ErrExtrapolationPast), test.ShouldBeTrue)

	tf, err := b.LookupTransform(context.Background(), "odom", "base_link", t0.Add(3500*time.Millisecond), 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tf.Pose.Point().X, test.ShouldAlmostEqual, 3.5)
}

func TestLookupWaitIsBounded(t *testing.T) {
	b := NewBuffer(clock.New(), 0)
	maxWait := 50 * time.Millisecond

	start := time.Now()
	_, err := b.LookupTransform(context.Background(), "odom", "base_link", time.Time{}, maxWait)
	elapsed := time.Since(start)

	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, IsTransformUnavailable(err), test.ShouldBeTrue)
	test.That(t, elapsed, test.ShouldBeGreaterThanOrEqualTo, maxWait)
	test.That(t, elapsed, test.ShouldBeLessThan, maxWait+time.Second)
}

func TestLookupWaitsForFutureData(t *testing.T) {
	b := NewBuffer(clock.New(), 0)
	test.That(t, b.SetTransform(stamped("odom", "base_link", t0, spatialmath.NewZeroPose()), false), test.ShouldBeNil)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = b.BroadcastTransform(context.Background(),
			stamped("odom", "base_link", t0.Add(2*time.Second), spatialmath.NewPoseFromPoint(r3.Vector{X: 2})))
	}()

	tf, err := b.LookupTransform(context.Background(), "odom", "base_link", t0.Add(time.Second), 5*time.Second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tf.Pose.Point().X, test.ShouldAlmostEqual, 1)
}

func TestLookupWithMockClockTimeout(t *testing.T) {
	clk := clock.NewMock()
	b := NewBuffer(clk, 0)

	errCh := make(chan error, 1)
	go func() {
		_, err := b.LookupTransform(context.Background(), "odom", "base_link", time.Time{}, 10*time.Second)
		errCh <- err
	}()

	// Keep advancing until the lookup's timer has been registered and fires.
	for {
		select {
		case err := <-errCh:
			test.That(t, IsTransformUnavailable(err), test.ShouldBeTrue)
			test.That(t, err.Error(), test.ShouldContainSubstring, "timed out")
			return
		default:
			clk.Add(time.Second)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestLookupCancelled(t *testing.T) {
	b := NewBuffer(clock.New(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.LookupTransform(ctx, "odom", "base_link", time.Time{}, time.Hour)
	test.That(t, errors.Is(err, context.Canceled), test.ShouldBeTrue)
}

func TestLoadStatic(t *testing.T) {
	b := NewBuffer(clock.NewMock(), 0)
	links := []LinkConfig{
		{
			Parent:      "base_link",
			Child:       "camera",
			Translation: Translation{X: 0.1, Z: 0.3},
			Orientation: &spatialmath.OrientationVectorDegrees{OZ: 1, Theta: 90},
		},
		{Parent: "base_link"},
		{Parent: "odom", Child: "odom"},
	}
	err := LoadStatic(b, links)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "static_transforms.1")
	test.That(t, err.Error(), test.ShouldContainSubstring, "static_transforms.2")

	tf, err := b.LookupTransform(context.Background(), "base_link", "camera", t0, 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostCoincident(tf.Pose, spatialmath.NewPoseFromPoint(r3.Vector{X: 0.1, Z: 0.3})), test.ShouldBeTrue)
	test.That(t, spatialmath.OrientationAlmostEqual(tf.Pose.Orientation(), &spatialmath.R4AA{Theta: math.Pi / 2, RZ: 1}),
		test.ShouldBeTrue)
}
