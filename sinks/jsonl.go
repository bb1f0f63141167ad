package sinks

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"
	commonpb "go.viam.com/api/common/v1"
	"google.golang.org/protobuf/encoding/protojson"

	"go.viam.com/odombridge/odometry"
	"go.viam.com/odombridge/referenceframe"
	"go.viam.com/odombridge/ros"
)

// Format is the shape of a JSONL line.
type Format string

// Known line formats.
const (
	// FormatROS writes nav_msgs/Odometry and tf2_msgs/TFMessage shaped objects.
	FormatROS Format = "ros"
	// FormatViam writes viam common.v1 PoseInFrame and Transform messages.
	FormatViam Format = "viam"
)

// Validate returns an error for an unknown format. The empty format means ros.
func (f Format) Validate() error {
	switch f {
	case "", FormatROS, FormatViam:
		return nil
	default:
		return errors.Errorf("unknown jsonl format %q, expected %q or %q", f, FormatROS, FormatViam)
	}
}

// Topics that ros formatted lines are labeled with.
const (
	OdometryTopic = "/odom"
	TFTopic       = ros.TFTopic
)

type rosLine struct {
	Topic string      `json:"topic"`
	Msg   interface{} `json:"msg"`
}

type viamLine struct {
	Kind string          `json:"kind"`
	Time time.Time       `json:"time"`
	Msg  json.RawMessage `json:"msg"`
}

// JSONL writes one JSON object per line for every publish.
type JSONL struct {
	format Format

	mu     sync.Mutex
	enc    *json.Encoder
	closer io.Closer
	seq    uint32
}

// NewJSONL returns a JSONL sink writing to w. If w is an io.Closer it is closed by Close.
func NewJSONL(w io.Writer, format Format) (*JSONL, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatROS
	}
	j := &JSONL{format: format, enc: json.NewEncoder(w)}
	if c, ok := w.(io.Closer); ok {
		j.closer = c
	}
	return j, nil
}

// OpenJSONL appends to the file at path, creating it if needed. "-" writes to stdout.
func OpenJSONL(path string, format Format) (*JSONL, error) {
	if path == "-" {
		// Hide Close so stdout stays open.
		return NewJSONL(struct{ io.Writer }{os.Stdout}, format)
	}
	//nolint:gosec
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return NewJSONL(f, format)
}

// PublishOdometry writes the record.
func (j *JSONL) PublishOdometry(ctx context.Context, rec odometry.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.enc == nil {
		return ErrClosed
	}
	j.seq++
	if j.format == FormatROS {
		return j.enc.Encode(rosLine{Topic: OdometryTopic, Msg: ros.NewOdometry(rec, j.seq)})
	}
	msg, err := protojson.Marshal(referenceframe.PoseInFrameToProtobuf(rec.PoseInFrame()))
	if err != nil {
		return err
	}
	return j.enc.Encode(viamLine{Kind: "odometry", Time: rec.Time, Msg: msg})
}

// BroadcastTransform writes the transform.
func (j *JSONL) BroadcastTransform(ctx context.Context, tf referenceframe.StampedTransform) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.enc == nil {
		return ErrClosed
	}
	if j.format == FormatROS {
		return j.enc.Encode(rosLine{Topic: TFTopic, Msg: ros.TFMessage{Transforms: []ros.TransformStamped{ros.NewTransformStamped(tf)}}})
	}
	msg, err := protojson.Marshal(&commonpb.Transform{
		ReferenceFrame:      tf.Child,
		PoseInObserverFrame: referenceframe.PoseInFrameToProtobuf(tf.PoseInFrame()),
	})
	if err != nil {
		return err
	}
	return j.enc.Encode(viamLine{Kind: "transform", Time: tf.Time, Msg: msg})
}

// Close closes the underlying writer, if it can be closed.
func (j *JSONL) Close(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.enc == nil {
		return nil
	}
	j.enc = nil
	if j.closer == nil {
		return nil
	}
	return j.closer.Close()
}
