package cli

import (
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.viam.com/utils"

	"go.viam.com/odombridge/config"
	"go.viam.com/odombridge/logging"
	"go.viam.com/odombridge/output"
	"go.viam.com/odombridge/ros"
	"go.viam.com/odombridge/spatialmath"
)

const loggerName = "odombridge"

// BeforeAction switches every logger to debug when the debug flag is set.
func BeforeAction(c *cli.Context) error {
	if c.Bool(debugFlag) {
		logging.GlobalLogLevel.Set(logging.DEBUG)
	}
	return nil
}

// newLogger returns the command's logger, also writing to the log file flag's file when set. The
// returned func closes that file.
func newLogger(c *cli.Context) (logging.Logger, func()) {
	logger := logging.NewLogger(loggerName)
	path := c.Path(logFileFlag)
	if path == "" {
		return logger, func() {}
	}
	appender, closer := logging.NewFileAppender(path)
	logger.AddAppender(appender)
	return logger, func() { utils.UncheckedError(closer.Close()) }
}

// readConfig reads the config named by the config flag. Without one, every default applies.
func readConfig(c *cli.Context, logger logging.Logger) (*config.Config, error) {
	path := c.String(configFlag)
	if path == "" {
		conf := &config.Config{}
		if err := conf.Ensure(logger); err != nil {
			return nil, err
		}
		return conf, nil
	}
	return config.Read(path, logger)
}

// CheckConfigAction reads and validates the config file.
func CheckConfigAction(c *cli.Context) error {
	path := c.String(configFlag)
	if path == "" {
		return errors.Errorf("the --%s flag is required", configFlag)
	}
	logger, closeLog := newLogger(c)
	defer closeLog()
	conf, err := config.Read(path, logger)
	if err != nil {
		return err
	}
	odom := conf.ConvertedOdometry
	printf(c.App.Writer, "%s is valid", path)
	printf(c.App.Writer, "odometry labeled %s, camera %s on base %s in %s",
		odom.DSOFrameID, odom.CameraFrameID, odom.BaseFrameID, odom.OdomFrameID)
	printf(c.App.Writer, "%d static transforms, %d sinks", len(conf.StaticTransforms), len(conf.Sinks))
	return nil
}

// ReplayAction replays recorded camera poses through the reporter and diagnostics.
func ReplayAction(c *cli.Context) error {
	kittiPath, bagPath := c.Path(kittiFlag), c.Path(bagFlag)
	switch {
	case kittiPath == "" && bagPath == "":
		return errors.Errorf("one of --%s or --%s is required", kittiFlag, bagFlag)
	case kittiPath != "" && bagPath != "":
		return errors.Errorf("--%s and --%s cannot be used together", kittiFlag, bagFlag)
	case bagPath != "" && c.String(poseTopicFlag) == "":
		return errors.Errorf("--%s is required with --%s", poseTopicFlag, bagFlag)
	}

	logger, closeLog := newLogger(c)
	defer closeLog()
	conf, err := readConfig(c, logger)
	if err != nil {
		return err
	}
	if err := conf.ApplyLogConfig(logger); err != nil {
		return err
	}
	if timeout := c.Float64(transformTimeoutFlag); timeout >= 0 {
		conf.ConvertedOdometry.TransformTimeoutSec = timeout
	}

	ctx := c.Context
	r, err := newReplayer(ctx, conf, replayCache(conf, bagPath != ""), logger)
	if err != nil {
		return err
	}

	var frames []*output.FrameShell
	if kittiPath != "" {
		frames, err = readKITTIFiles(kittiPath, c.Path(timesFlag), c.Float64(rateFlag))
	} else {
		frames, err = loadBag(bagPath, c.String(poseTopicFlag), r, logger)
	}
	if err == nil {
		if len(frames) == 0 {
			warningf(c.App.ErrWriter, "no camera poses to replay")
		}
		err = r.run(ctx, frames)
	}

	summary, closeErr := r.Close(ctx, len(frames))
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	summary.logTo(logger)
	printf(c.App.Writer, "published %d of %d poses", summary.Published, summary.Frames)
	if summary.Last != nil {
		printf(c.App.Writer, "last pose in %s: %s", summary.Last.FrameID, spatialmath.PoseString(summary.Last.Pose))
	}
	return nil
}

// loadBag loads the bag's transforms into the replayer's buffer and returns its camera poses.
func loadBag(path, poseTopic string, r *replayer, logger logging.Logger) ([]*output.FrameShell, error) {
	rb, err := ros.ReadBag(path)
	if err != nil {
		return nil, err
	}
	if _, err := ros.LoadTransforms(rb, r.buffer, logger); err != nil {
		return nil, err
	}
	return ros.CameraPoses(rb, poseTopic)
}

// VersionAction prints the version of the binary.
func VersionAction(c *cli.Context) error {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return errors.New("error reading build info")
	}
	if c.Bool(debugFlag) {
		printf(c.App.Writer, "%s", info.String())
	}
	settings := make(map[string]string, len(info.Settings))
	for _, setting := range info.Settings {
		settings[setting.Key] = setting.Value
	}
	version := "?"
	if rev, ok := settings["vcs.revision"]; ok && len(rev) >= 8 {
		version = rev[:8]
		if settings["vcs.modified"] == "true" {
			version += "+"
		}
	}
	printf(c.App.Writer, "odombridge Git=%s Go=%s", version, info.GoVersion)
	return nil
}
