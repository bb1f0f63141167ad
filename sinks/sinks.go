// Package sinks contains the places published odometry and transforms can be written to.
package sinks

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/odombridge/odometry"
	"go.viam.com/odombridge/referenceframe"
)

// ErrClosed is returned when publishing to a closed sink.
var ErrClosed = errors.New("sink is closed")

// A Sink receives both kinds of output the reporter produces.
type Sink interface {
	odometry.TransformBroadcaster
	odometry.OdometrySink
	Close(ctx context.Context) error
}

// Type names a kind of sink in configuration.
type Type string

// Known sink types.
const (
	TypeJSONL  Type = "jsonl"
	TypeSQLite Type = "sqlite"
)

// Config configures one sink.
type Config struct {
	Type Type `json:"type"`
	// Path is the file to write to. For jsonl, "-" means stdout.
	Path string `json:"path"`
	// Format is the jsonl line format, ros or viam. Defaults to ros.
	Format Format `json:"format,omitempty"`
}

// Validate ensures the sink can be built.
func (conf *Config) Validate(path string) error {
	if conf.Path == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "path")
	}
	switch conf.Type {
	case TypeJSONL:
		if err := conf.Format.Validate(); err != nil {
			return utils.NewConfigValidationError(path, err)
		}
	case TypeSQLite:
		if conf.Format != "" {
			return utils.NewConfigValidationError(path, errors.New("format only applies to jsonl sinks"))
		}
	case "":
		return utils.NewConfigValidationFieldRequiredError(path, "type")
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown sink type %q", conf.Type))
	}
	return nil
}

// Open builds every configured sink. If any fails the ones already opened are closed.
func Open(ctx context.Context, confs []Config) (Multi, error) {
	var opened Multi
	for idx, conf := range confs {
		if err := conf.Validate(fmt.Sprintf("sinks.%d", idx)); err != nil {
			return nil, multierr.Combine(err, opened.Close(ctx))
		}
		var (
			s   Sink
			err error
		)
		switch conf.Type {
		case TypeJSONL:
			s, err = OpenJSONL(conf.Path, conf.Format)
		case TypeSQLite:
			s, err = OpenSQLite(ctx, conf.Path)
		}
		if err != nil {
			return nil, multierr.Combine(errors.Wrapf(err, "cannot open %s sink %q", conf.Type, conf.Path), opened.Close(ctx))
		}
		opened = append(opened, s)
	}
	return opened, nil
}

// Multi fans every publish out to several sinks. Every sink is attempted even if an earlier one fails.
type Multi []Sink

// BroadcastTransform publishes to every sink.
func (m Multi) BroadcastTransform(ctx context.Context, tf referenceframe.StampedTransform) error {
	var errs error
	for _, s := range m {
		errs = multierr.Combine(errs, s.BroadcastTransform(ctx, tf))
	}
	return errs
}

// PublishOdometry publishes to every sink.
func (m Multi) PublishOdometry(ctx context.Context, rec odometry.Record) error {
	var errs error
	for _, s := range m {
		errs = multierr.Combine(errs, s.PublishOdometry(ctx, rec))
	}
	return errs
}

// Close closes every sink.
func (m Multi) Close(ctx context.Context) error {
	var errs error
	for _, s := range m {
		errs = multierr.Combine(errs, s.Close(ctx))
	}
	return errs
}

// transformOnly adapts a broadcaster, such as a referenceframe.Buffer, into a Sink that ignores odometry.
type transformOnly struct {
	odometry.TransformBroadcaster
}

// TransformOnly returns a Sink that forwards transforms to b and drops odometry records.
func TransformOnly(b odometry.TransformBroadcaster) Sink {
	return transformOnly{b}
}

func (transformOnly) PublishOdometry(ctx context.Context, rec odometry.Record) error { return nil }

func (transformOnly) Close(ctx context.Context) error { return nil }
