package referenceframe

import (
	"fmt"

	"github.com/golang/geo/r3"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/odombridge/spatialmath"
)

// Translation is the offset of a child frame's origin in its parent, in meters.
type Translation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// LinkConfig describes a fixed transform between two frames, typically a sensor mounted on the robot.
type LinkConfig struct {
	Parent      string                                `json:"parent"`
	Child       string                                `json:"child"`
	Translation Translation                           `json:"translation"`
	Orientation *spatialmath.OrientationVectorDegrees `json:"orientation,omitempty"`
}

// Validate ensures both frames are named and distinct.
func (cfg *LinkConfig) Validate(path string) error {
	if cfg.Parent == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "parent")
	}
	if cfg.Child == "" {
		return utils.NewConfigValidationFieldRequiredError(path, "child")
	}
	if cfg.Parent == cfg.Child {
		return utils.NewConfigValidationError(path, fmt.Errorf("frame %q cannot be its own parent", cfg.Child))
	}
	return nil
}

// StampedTransform returns the link as a transform valid at any time.
func (cfg *LinkConfig) StampedTransform() StampedTransform {
	var o spatialmath.Orientation = spatialmath.NewZeroOrientation()
	if cfg.Orientation != nil {
		o = cfg.Orientation
	}
	return StampedTransform{
		Parent: cfg.Parent,
		Child:  cfg.Child,
		Pose:   spatialmath.NewPose(r3.Vector{X: cfg.Translation.X, Y: cfg.Translation.Y, Z: cfg.Translation.Z}, o),
	}
}

// LoadStatic validates every link and adds the valid ones to the buffer as static transforms.
func LoadStatic(b *Buffer, links []LinkConfig) error {
	var errs error
	for idx := range links {
		link := &links[idx]
		if err := link.Validate(fmt.Sprintf("static_transforms.%d", idx)); err != nil {
			errs = multierr.Combine(errs, err)
			continue
		}
		errs = multierr.Combine(errs, b.SetTransform(link.StampedTransform(), true))
	}
	return errs
}
