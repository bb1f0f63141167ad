package ros

import (
	"bytes"
	"context"
	"math"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/odombridge/odometry"
	"go.viam.com/odombridge/referenceframe"
	"go.viam.com/odombridge/spatialmath"
)

const tfLines = `{"meta": {"secs":100,"nsecs":0}, "data":{"transforms":[{"header":{"seq":1,"stamp":{"secs":100,"nsecs":0},"frame_id":"/odom"},"child_frame_id":"base_link","transform":{"translation":{"x":1,"y":0,"z":0},"rotation":{"x":0,"y":0,"z":0,"w":1}}}]}}
{"meta": {"secs":101,"nsecs":0}, "data":{"transforms":[{"header":{"seq":2,"stamp":{"secs":101,"nsecs":0},"frame_id":"odom"},"child_frame_id":"base_link","transform":{"translation":{"x":2,"y":0,"z":0},"rotation":{"x":0,"y":0,"z":0,"w":1}}},{"header":{"seq":3,"stamp":{"secs":101,"nsecs":0},"frame_id":"odom"},"child_frame_id":"broken","transform":{"translation":{"x":0,"y":0,"z":0},"rotation":{"x":0,"y":0,"z":0,"w":0}}}]}}
`

const poseLines = `{"meta": {"secs":100,"nsecs":500000000}, "data":{"header":{"seq":7,"stamp":{"secs":0,"nsecs":0},"frame_id":"world"},"pose":{"position":{"x":1,"y":2,"z":3},"orientation":{"x":0,"y":0,"z":0.7071067811865476,"w":0.7071067811865476}}}}
{"meta": {"secs":101,"nsecs":0}, "data":{"header":{"seq":8,"stamp":{"secs":101,"nsecs":250000000},"frame_id":"world"},"pose":{"position":{"x":0,"y":0,"z":0},"orientation":{"x":0,"y":0,"z":0,"w":1}}}}
`

func TestTopicKey(t *testing.T) {
	test.That(t, topicKey("/tf_static"), test.ShouldEqual, "tf_static")
	test.That(t, topicKey("/Camera/Pose"), test.ShouldEqual, "camera_pose")
}

func TestAddTransforms(t *testing.T) {
	msgs, err := decodeMessages[TFMessage](bytes.NewBufferString(tfLines))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, msgs, test.ShouldHaveLength, 2)
	test.That(t, msgs[0].Meta.Secs, test.ShouldEqual, uint32(100))

	buf := referenceframe.NewBuffer(clock.NewMock(), 0)
	loaded, err := AddTransforms(buf, msgs, false)
	test.That(t, loaded, test.ShouldEqual, 2)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "broken")

	tf, err := buf.LookupTransform(context.Background(), "odom", "base_link", time.Unix(100, 500000000), 0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, tf.Pose.Point().X, test.ShouldAlmostEqual, 1.5)
}

func TestFrameShells(t *testing.T) {
	msgs, err := decodeMessages[PoseStamped](bytes.NewBufferString(poseLines))
	test.That(t, err, test.ShouldBeNil)

	frames, err := frameShells(msgs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, frames, test.ShouldHaveLength, 2)

	// A missing header stamp falls back to the recording time.
	test.That(t, frames[0].ID, test.ShouldEqual, 0)
	test.That(t, frames[0].IncomingID, test.ShouldEqual, 7)
	test.That(t, frames[0].Timestamp, test.ShouldAlmostEqual, 100.5)
	test.That(t, frames[1].Timestamp, test.ShouldAlmostEqual, 101.25)

	m := frames[0].CamToWorld
	test.That(t, m.At(0, 3), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(1, 3), test.ShouldAlmostEqual, 2)
	test.That(t, m.At(2, 3), test.ShouldAlmostEqual, 3)
	// 90 degrees about z.
	test.That(t, m.At(0, 1), test.ShouldAlmostEqual, -1)
	test.That(t, m.At(1, 0), test.ShouldAlmostEqual, 1)
}

func TestDecodeMessagesRejectsGarbage(t *testing.T) {
	_, err := decodeMessages[PoseStamped](bytes.NewBufferString("{\"meta\": \n"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestConversions(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 125, time.UTC)
	pose := spatialmath.NewPose(r3.Vector{X: 1, Y: 2, Z: 3}, &spatialmath.R4AA{Theta: math.Pi / 3, RX: 1})

	ts := NewTransformStamped(referenceframe.StampedTransform{Parent: "dso_odom", Child: "odom", Time: at, Pose: pose})
	test.That(t, ts.Header.FrameID, test.ShouldEqual, "dso_odom")
	test.That(t, ts.ChildFrameID, test.ShouldEqual, "odom")
	test.That(t, ts.Header.Stamp.Time(), test.ShouldEqual, at)

	back, err := ts.StampedTransform()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqual(back.Pose, pose), test.ShouldBeTrue)

	odom := NewOdometry(odometry.Record{Time: at, FrameID: "dso_odom", Pose: pose}, 4)
	test.That(t, odom.Header.Seq, test.ShouldEqual, uint32(4))
	test.That(t, odom.Header.FrameID, test.ShouldEqual, "dso_odom")
	test.That(t, odom.ChildFrameID, test.ShouldEqual, "")
	test.That(t, spatialmath.PoseAlmostEqual(odom.Pose.Pose.Spatial(), pose), test.ShouldBeTrue)

	test.That(t, NewTime(time.Time{}), test.ShouldResemble, Time{})
}
