// Package config defines the on-disk configuration of an odombridge process.
package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/odombridge/logging"
	"go.viam.com/odombridge/odometry"
	"go.viam.com/odombridge/referenceframe"
	"go.viam.com/odombridge/sinks"
)

// AttributeMap is a loosely typed block of attributes decoded by the component that owns it.
type AttributeMap map[string]interface{}

// Config is the whole process configuration.
type Config struct {
	ConfigFilePath string `json:"-"`

	// Odometry holds the reporter's attributes; see odometry.Config.
	Odometry AttributeMap `json:"odometry"`
	// StaticTransforms are loaded into the transform buffer before anything runs.
	StaticTransforms []referenceframe.LinkConfig `json:"static_transforms,omitempty"`
	// TransformCacheSec is how much dynamic transform history is kept. Zero keeps everything.
	TransformCacheSec *float64 `json:"transform_cache_sec,omitempty"`
	// Sinks are where odometry and transforms are written besides the transform buffer.
	Sinks     []sinks.Config                `json:"sinks,omitempty"`
	LogConfig []logging.LoggerPatternConfig `json:"log,omitempty"`

	// ConvertedOdometry is set by Ensure from Odometry.
	ConvertedOdometry *odometry.Config `json:"-"`
}

// Ensure decodes the odometry attributes and validates every section.
func (c *Config) Ensure(logger logging.Logger) error {
	odomConf, err := odometry.NewConfigFromAttributes(c.Odometry, logger)
	if err != nil {
		return utils.NewConfigValidationError("odometry", err)
	}
	if err := odomConf.Validate("odometry"); err != nil {
		return err
	}
	c.ConvertedOdometry = odomConf

	for idx := range c.StaticTransforms {
		if err := c.StaticTransforms[idx].Validate(fmt.Sprintf("static_transforms.%d", idx)); err != nil {
			return err
		}
	}
	if c.TransformCacheSec != nil && *c.TransformCacheSec < 0 {
		return utils.NewConfigValidationError("transform_cache_sec", errors.New("cannot be negative"))
	}
	for idx := range c.Sinks {
		if err := c.Sinks[idx].Validate(fmt.Sprintf("sinks.%d", idx)); err != nil {
			return err
		}
	}
	for idx, pattern := range c.LogConfig {
		if !logging.ValidatePattern(pattern.Pattern) {
			return utils.NewConfigValidationError(fmt.Sprintf("log.%d", idx), errors.Errorf("invalid logger pattern %q", pattern.Pattern))
		}
		if _, err := logging.LevelFromString(pattern.Level); err != nil {
			return utils.NewConfigValidationError(fmt.Sprintf("log.%d", idx), err)
		}
	}
	return nil
}

// TransformCache returns how much history the transform buffer keeps.
func (c *Config) TransformCache() time.Duration {
	if c.TransformCacheSec == nil {
		return referenceframe.DefaultCacheDuration
	}
	return time.Duration(*c.TransformCacheSec * float64(time.Second))
}
