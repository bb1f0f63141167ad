// Package odometry turns camera poses from the odometry engine into published odometry. For every
// camera pose it resolves the robot's frame chain from a transform directory, re-expresses the pose
// in the robot base frame and publishes it as a transform broadcast and an odometry record.
package odometry

import (
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/odombridge/logging"
	"go.viam.com/odombridge/spatialmath"
)

// Defaults for every attribute of Config.
const (
	DefaultDSOFrameID          = "dso_odom"
	DefaultCameraFrameID       = "camera"
	DefaultOdomFrameID         = "odom"
	DefaultBaseFrameID         = "base_link"
	DefaultTransformTimeoutSec = 10.0
	DefaultQuaternionMethod    = spatialmath.QuaternionMethodSigned
)

// Config names the frames the reporter works with.
type Config struct {
	// DSOFrameID is the frame the published pose is labeled with.
	DSOFrameID string `json:"dso_frame_id"`
	// CameraFrameID is the frame of the camera the engine tracks.
	CameraFrameID string `json:"camera_frame_id"`
	// OdomFrameID is the odometry reference frame of the robot.
	OdomFrameID string `json:"odom_frame_id"`
	// BaseFrameID is the robot base frame.
	BaseFrameID string `json:"base_frame_id"`
	// TransformTimeoutSec bounds how long each transform lookup may wait.
	TransformTimeoutSec float64 `json:"transform_timeout_sec"`
	// QuaternionMethod selects how camera rotations are converted.
	QuaternionMethod spatialmath.QuaternionMethod `json:"quaternion_method"`
}

// NewDefaultConfig returns a config with every attribute at its default.
func NewDefaultConfig() *Config {
	return &Config{
		DSOFrameID:          DefaultDSOFrameID,
		CameraFrameID:       DefaultCameraFrameID,
		OdomFrameID:         DefaultOdomFrameID,
		BaseFrameID:         DefaultBaseFrameID,
		TransformTimeoutSec: DefaultTransformTimeoutSec,
		QuaternionMethod:    DefaultQuaternionMethod,
	}
}

// NewConfigFromAttributes decodes an attribute map. Every attribute that is absent is logged and
// left at its default; unknown attributes are logged and ignored.
func NewConfigFromAttributes(attrs map[string]interface{}, logger logging.Logger) (*Config, error) {
	conf := NewDefaultConfig()
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: conf, Metadata: &md})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(attrs); err != nil {
		return nil, errors.Wrap(err, "cannot decode odometry attributes")
	}

	for _, param := range []struct {
		name  string
		value interface{}
	}{
		{"dso_frame_id", conf.DSOFrameID},
		{"camera_frame_id", conf.CameraFrameID},
		{"odom_frame_id", conf.OdomFrameID},
		{"base_frame_id", conf.BaseFrameID},
		{"transform_timeout_sec", conf.TransformTimeoutSec},
		{"quaternion_method", conf.QuaternionMethod},
	} {
		if _, ok := attrs[param.name]; !ok {
			logger.Warnw("No param named "+param.name+" found, using default", "default", param.value)
		}
	}
	for _, key := range md.Unused {
		logger.Warnw("ignoring unknown odometry attribute", "name", key)
	}
	return conf, nil
}

// Validate ensures every frame is named and the timeout is usable.
func (conf *Config) Validate(path string) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"dso_frame_id", conf.DSOFrameID},
		{"camera_frame_id", conf.CameraFrameID},
		{"odom_frame_id", conf.OdomFrameID},
		{"base_frame_id", conf.BaseFrameID},
	} {
		if field.value == "" {
			return utils.NewConfigValidationFieldRequiredError(path, field.name)
		}
	}
	if conf.TransformTimeoutSec < 0 {
		return utils.NewConfigValidationError(path, errors.New("transform_timeout_sec cannot be negative"))
	}
	if err := conf.QuaternionMethod.Validate(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	return nil
}

// TransformTimeout returns TransformTimeoutSec as a duration.
func (conf *Config) TransformTimeout() time.Duration {
	return time.Duration(conf.TransformTimeoutSec * float64(time.Second))
}
