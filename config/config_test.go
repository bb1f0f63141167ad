package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"go.viam.com/odombridge/logging"
	"go.viam.com/odombridge/odometry"
	"go.viam.com/odombridge/referenceframe"
	"go.viam.com/odombridge/sinks"
	"go.viam.com/odombridge/spatialmath"
)

const fullConfig = `{
	"odometry": {
		"dso_frame_id": "dso_odom",
		"camera_frame_id": "camera",
		"odom_frame_id": "odom",
		"base_frame_id": "base_link",
		"transform_timeout_sec": 2.5,
		"quaternion_method": "clamped"
	},
	"static_transforms": [
		{"parent": "base_link", "child": "camera", "translation": {"x": 0.1, "y": 0, "z": 0.2}, "orientation": {"x": 0, "y": 0, "z": 1, "th": 0}}
	],
	"transform_cache_sec": 30,
	"sinks": [
		{"type": "jsonl", "path": "${ODOMBRIDGE_TEST_DIR}/odom.jsonl", "format": "viam"},
		{"type": "sqlite", "path": "odom.db"}
	],
	"log": [{"pattern": "odombridge.diagnostics", "level": "debug"}]
}`

func TestRead(t *testing.T) {
	logger := logging.NewTestLogger(t)
	dir := t.TempDir()
	t.Setenv("ODOMBRIDGE_TEST_DIR", dir)
	path := filepath.Join(dir, "config.json")
	test.That(t, os.WriteFile(path, []byte(fullConfig), 0o600), test.ShouldBeNil)

	cfg, err := Read(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConfigFilePath, test.ShouldEqual, path)
	test.That(t, cfg.ConvertedOdometry, test.ShouldResemble, &odometry.Config{
		DSOFrameID:          "dso_odom",
		CameraFrameID:       "camera",
		OdomFrameID:         "odom",
		BaseFrameID:         "base_link",
		TransformTimeoutSec: 2.5,
		QuaternionMethod:    spatialmath.QuaternionMethodClamped,
	})
	test.That(t, cfg.StaticTransforms, test.ShouldResemble, []referenceframe.LinkConfig{{
		Parent:      "base_link",
		Child:       "camera",
		Translation: referenceframe.Translation{X: 0.1, Z: 0.2},
		Orientation: &spatialmath.OrientationVectorDegrees{OZ: 1},
	}})
	test.That(t, cfg.TransformCache(), test.ShouldEqual, 30*time.Second)
	test.That(t, cfg.Sinks, test.ShouldHaveLength, 2)
	test.That(t, cfg.Sinks[0].Path, test.ShouldEqual, filepath.Join(dir, "odom.jsonl"))
	test.That(t, cfg.Sinks[0].Format, test.ShouldEqual, sinks.FormatViam)
	test.That(t, cfg.LogConfig, test.ShouldResemble, []logging.LoggerPatternConfig{{Pattern: "odombridge.diagnostics", Level: "debug"}})
}

func TestFromReaderDefaults(t *testing.T) {
	logger, logs := logging.NewObservedTestLogger(t)
	cfg, err := FromReader("", strings.NewReader(`{}`), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, cfg.ConvertedOdometry, test.ShouldResemble, odometry.NewDefaultConfig())
	test.That(t, cfg.TransformCache(), test.ShouldEqual, referenceframe.DefaultCacheDuration)
	test.That(t, logs.FilterMessageSnippet("No param named").Len(), test.ShouldEqual, 6)
}

func TestFromReaderInvalid(t *testing.T) {
	logger := logging.NewTestLogger(t)
	for _, tc := range []struct {
		name, conf, err string
	}{
		{"unknown field", `{"odom": {}}`, "unknown field"},
		{"bad json", `{`, "decode"},
		{"bad odometry", `{"odometry": {"odom_frame_id": ""}}`, "odom_frame_id"},
		{"bad method", `{"odometry": {"quaternion_method": "euler"}}`, "euler"},
		{"bad static", `{"static_transforms": [{"parent": "base_link"}]}`, "static_transforms.0"},
		{"bad cache", `{"transform_cache_sec": -1}`, "transform_cache_sec"},
		{"bad sink", `{"sinks": [{"type": "kafka", "path": "x"}]}`, "sinks.0"},
		{"bad pattern", `{"log": [{"pattern": "a..b", "level": "debug"}]}`, "a..b"},
		{"bad level", `{"log": [{"pattern": "odombridge", "level": "loud"}]}`, "log.0"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := FromReader("", strings.NewReader(tc.conf), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.err)
		})
	}
}
