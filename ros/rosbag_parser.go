// Package ros implements functionality that bridges the gap between odombridge and ROS: reading
// poses and transforms out of rosbags and the ROS message shapes used for output.
package ros

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/odombridge/logging"
	"go.viam.com/odombridge/output"
	"go.viam.com/odombridge/referenceframe"
)

// Topics transforms are read from.
const (
	TFTopic       = "/tf"
	TFStaticTopic = "/tf_static"
)

// ErrNoMessages is returned when a bag has no messages on the requested topic.
var ErrNoMessages = errors.New("no messages for topic")

// BagMessage is one message read out of a bag along with the time it was recorded.
type BagMessage[T any] struct {
	Meta Time `json:"meta"`
	Data T    `json:"data"`
}

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()

	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag, error")
	}

	return rb, nil
}

// topicKey is the key gobag files parsed messages of a topic under.
func topicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

type lineReader interface {
	ReadBytes(delim byte) ([]byte, error)
}

// MessagesForTopic returns all messages for a specific topic in the ros bag, decoded as T.
func MessagesForTopic[T any](rb *rosbag.RosBag, topic string) ([]BagMessage[T], error) {
	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return t == topic },
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "error while parsing bag to JSON")
	}

	msgs, ok := rb.TopicsAsJSON[topicKey(topic)]
	if !ok || msgs == nil {
		return nil, errors.Wrap(ErrNoMessages, topic)
	}
	return decodeMessages[T](msgs)
}

func decodeMessages[T any](msgs lineReader) ([]BagMessage[T], error) {
	all := []BagMessage[T]{}
	for {
		data, err := msgs.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if len(bytes.TrimSpace(data)) > 0 {
			var message BagMessage[T]
			if err := json.Unmarshal(data, &message); err != nil {
				return nil, err
			}
			all = append(all, message)
		}
		if err != nil {
			return all, nil
		}
	}
}

// LoadTransforms adds every transform on the /tf and /tf_static topics of the bag to the buffer.
// A missing topic is not an error; invalid transforms are skipped and reported together.
func LoadTransforms(rb *rosbag.RosBag, buf *referenceframe.Buffer, logger logging.Logger) (int, error) {
	var (
		loaded int
		errs   error
	)
	for _, source := range []struct {
		topic  string
		static bool
	}{
		{TFStaticTopic, true},
		{TFTopic, false},
	} {
		msgs, err := MessagesForTopic[TFMessage](rb, source.topic)
		if errors.Is(err, ErrNoMessages) {
			logger.Debugw("bag has no transforms", "topic", source.topic)
			continue
		}
		if err != nil {
			return loaded, err
		}
		n, err := AddTransforms(buf, msgs, source.static)
		loaded += n
		errs = multierr.Combine(errs, err)
	}
	logger.Infow("loaded transforms from bag", "count", loaded)
	return loaded, errs
}

// AddTransforms adds the transforms of tf messages to the buffer, as static or dynamic edges. Invalid
// transforms are skipped and reported together.
func AddTransforms(buf *referenceframe.Buffer, msgs []BagMessage[TFMessage], static bool) (int, error) {
	var (
		loaded int
		errs   error
	)
	for _, msg := range msgs {
		for _, ts := range msg.Data.Transforms {
			st, err := ts.StampedTransform()
			if err == nil {
				err = buf.SetTransform(st, static)
			}
			if err != nil {
				errs = multierr.Combine(errs, err)
				continue
			}
			loaded++
		}
	}
	return loaded, errs
}

// CameraPoses reads geometry_msgs/PoseStamped camera poses from a topic, in recording order.
func CameraPoses(rb *rosbag.RosBag, topic string) ([]*output.FrameShell, error) {
	msgs, err := MessagesForTopic[PoseStamped](rb, topic)
	if err != nil {
		return nil, err
	}
	return frameShells(msgs)
}

func frameShells(msgs []BagMessage[PoseStamped]) ([]*output.FrameShell, error) {
	frames := make([]*output.FrameShell, 0, len(msgs))
	for i, msg := range msgs {
		ps := msg.Data
		if ps.Header.Stamp == (Time{}) {
			ps.Header.Stamp = msg.Meta
		}
		fs, err := ps.FrameShell(i)
		if err != nil {
			return nil, errors.Wrapf(err, "pose %d", i)
		}
		frames = append(frames, fs)
	}
	return frames, nil
}
