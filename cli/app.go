// Package cli contains the odombridge command line tool.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"
)

const (
	// Flags.
	configFlag           = "config"
	debugFlag            = "debug"
	logFileFlag          = "log-file"
	kittiFlag            = "kitti"
	timesFlag            = "times"
	rateFlag             = "rate"
	bagFlag              = "bag"
	poseTopicFlag        = "pose-topic"
	transformTimeoutFlag = "transform-timeout-sec"
)

var app = &cli.App{
	Name:            "odombridge",
	Usage:           "publish visual odometry camera poses as robot odometry",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    configFlag,
			Aliases: []string{"c"},
			Usage:   "load configuration from `FILE`",
		},
		&cli.BoolFlag{
			Name:    debugFlag,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.PathFlag{
			Name:  logFileFlag,
			Usage: "also write logs to a size-rotated `FILE`",
		},
	},
	Before: BeforeAction,
	Commands: []*cli.Command{
		{
			Name:      "replay",
			Usage:     "replay recorded camera poses through the odometry reporter",
			UsageText: "odombridge --config config.json replay (--kitti poses.txt | --bag run.bag --pose-topic /dso/pose)",
			Flags: []cli.Flag{
				&cli.PathFlag{
					Name:  kittiFlag,
					Usage: "KITTI pose file with one 3x4 camera to world matrix per line",
				},
				&cli.PathFlag{
					Name:  timesFlag,
					Usage: "KITTI times file with one timestamp in seconds per line",
				},
				&cli.Float64Flag{
					Name:  rateFlag,
					Value: 10,
					Usage: "frame rate used to stamp KITTI poses when no times file is given",
				},
				&cli.PathFlag{
					Name:  bagFlag,
					Usage: "rosbag to read /tf, /tf_static and camera poses from",
				},
				&cli.StringFlag{
					Name:  poseTopicFlag,
					Usage: "geometry_msgs/PoseStamped topic holding camera poses in the bag",
				},
				&cli.Float64Flag{
					Name:  transformTimeoutFlag,
					Value: -1,
					Usage: "override how long each transform lookup may wait, in seconds",
				},
			},
			Action: ReplayAction,
		},
		{
			Name:   "check-config",
			Usage:  "read and validate a config file",
			Action: CheckConfigAction,
		},
		{
			Name:   "version",
			Usage:  "print version info for this program",
			Action: VersionAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
