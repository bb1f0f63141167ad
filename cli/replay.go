package cli

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/odombridge/config"
	"go.viam.com/odombridge/diagnostics"
	"go.viam.com/odombridge/logging"
	"go.viam.com/odombridge/odometry"
	"go.viam.com/odombridge/output"
	"go.viam.com/odombridge/referenceframe"
	"go.viam.com/odombridge/sinks"
	"go.viam.com/odombridge/spatialmath"
)

// channelCapacity is how many records the replay's in-process sink buffers before dropping.
const channelCapacity = 1024

// replayer drives recorded camera poses through the same output fan-out a live engine would call.
type replayer struct {
	buffer   *referenceframe.Buffer
	clock    *clock.Mock
	opened   sinks.Multi
	channel  *sinks.Channel
	reporter *odometry.Reporter
	wrapper  output.Wrapper
	logger   logging.Logger

	drained chan struct{}
	last    *odometry.Record
}

// replaySummary is what a replay did.
type replaySummary struct {
	Frames    int
	Published int
	Last      *odometry.Record
	Channel   sinks.ChannelStats
}

// replayCache returns how much transform history a replay keeps. A bag's transforms are all loaded
// before the first frame, so unless the config sets a duration a bag replay keeps everything.
func replayCache(conf *config.Config, fromBag bool) time.Duration {
	if fromBag && conf.TransformCacheSec == nil {
		return 0
	}
	return conf.TransformCache()
}

// newReplayer builds the transform buffer, sinks, reporter and diagnostics for conf. The buffer
// keeps cacheDuration of history and waits on the wall clock while the reporter's notion of now
// follows the replayed frames.
func newReplayer(
	ctx context.Context,
	conf *config.Config,
	cacheDuration time.Duration,
	logger logging.Logger,
) (*replayer, error) {
	buffer := referenceframe.NewBuffer(clock.New(), cacheDuration)
	if err := referenceframe.LoadStatic(buffer, conf.StaticTransforms); err != nil {
		return nil, errors.Wrap(err, "cannot load static transforms")
	}

	opened, err := sinks.Open(ctx, conf.Sinks)
	if err != nil {
		return nil, err
	}
	channel := sinks.NewChannel(channelCapacity)
	fanOut := sinks.Multi{sinks.TransformOnly(buffer)}
	fanOut = append(fanOut, opened...)
	fanOut = append(fanOut, channel)

	mock := clock.NewMock()
	reporter, err := odometry.NewReporter(
		conf.ConvertedOdometry, buffer, fanOut, fanOut, mock, logger.Sublogger("odometry"))
	if err != nil {
		return nil, multierr.Combine(err, opened.Close(ctx), channel.Close(ctx))
	}

	r := &replayer{
		buffer:   buffer,
		clock:    mock,
		opened:   opened,
		channel:  channel,
		reporter: reporter,
		wrapper:  output.Multi{reporter, diagnostics.NewPrinter(logger.Sublogger("diagnostics"))},
		logger:   logger,
		drained:  make(chan struct{}),
	}
	utils.PanicCapturingGo(r.drain)
	return r, nil
}

// drain empties the channel sink until it is closed, remembering the last record.
func (r *replayer) drain() {
	defer close(r.drained)
	records, transforms := r.channel.Records(), r.channel.Transforms()
	for records != nil || transforms != nil {
		select {
		case rec, ok := <-records:
			if !ok {
				records = nil
				continue
			}
			r.last = &rec
		case _, ok := <-transforms:
			if !ok {
				transforms = nil
			}
		}
	}
}

// run publishes every frame with the clock set to the frame's capture time.
func (r *replayer) run(ctx context.Context, frames []*output.FrameShell) error {
	for _, frame := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.clock.Set(frame.Time())
		r.wrapper.PublishCamPose(ctx, frame)
	}
	return nil
}

// Close closes every sink and returns what the replay published.
func (r *replayer) Close(ctx context.Context, frames int) (replaySummary, error) {
	err := multierr.Combine(r.wrapper.Close(ctx), r.opened.Close(ctx), r.channel.Close(ctx))
	<-r.drained
	stats := r.channel.Stats()
	return replaySummary{
		Frames:    frames,
		Published: int(stats.RecordsSent + stats.RecordsDropped),
		Last:      r.last,
		Channel:   stats,
	}, err
}

func (s replaySummary) logTo(logger logging.Logger) {
	fields := []interface{}{
		"frames", s.Frames,
		"published", s.Published,
		"skipped", s.Frames - s.Published,
		"records_dropped", s.Channel.RecordsDropped,
		"transforms_dropped", s.Channel.TransformsDropped,
	}
	if s.Last != nil {
		fields = append(fields,
			"last_time", s.Last.Time.Format(time.RFC3339Nano),
			"last_pose", spatialmath.PoseString(s.Last.Pose))
	}
	logger.Infow("replay finished", fields...)
}
