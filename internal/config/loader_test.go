package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/ayusman/repsense/internal/config"
)

func clearConfigEnvVars() {
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, "REPSENSE_") {
			_ = os.Unsetenv(name)
		}
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "repsense.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.Source, convey.ShouldEqual, config.SourceSynthetic)
				convey.So(cfg.FPS, convey.ShouldEqual, 30)
				convey.So(cfg.Assessment.DetectionConfidence, convey.ShouldEqual, 0.7)
				convey.So(cfg.Assessment.MinimumPushupDuration, convey.ShouldEqual, 300*time.Millisecond)
				convey.So(cfg.Assessment.MaxSessionDuration, convey.ShouldEqual, 5*time.Minute)
				convey.So(cfg.Assessment.RequiredKeypoints, convey.ShouldHaveLength, 6)
				convey.So(cfg.Assessment.EnableFormValidation, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("REPSENSE_ADDR", ":9999")
			_ = os.Setenv("REPSENSE_FPS", "15")
			_ = os.Setenv("REPSENSE_TRAY", "true")
			_ = os.Setenv("REPSENSE_ASSESSMENT_DETECTION_CONFIDENCE", "0.8")
			_ = os.Setenv("REPSENSE_ASSESSMENT_MINIMUM_PUSHUP_DURATION", "450ms")
			_ = os.Setenv("REPSENSE_SYNTHETIC_MIN_ANGLE", "70")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9999")
				convey.So(cfg.FPS, convey.ShouldEqual, 15)
				convey.So(cfg.Tray, convey.ShouldBeTrue)
				convey.So(cfg.Assessment.DetectionConfidence, convey.ShouldEqual, 0.8)
				convey.So(cfg.Assessment.MinimumPushupDuration, convey.ShouldEqual, 450*time.Millisecond)
				convey.So(cfg.Synthetic.MinAngle, convey.ShouldEqual, 70.0)
				convey.So(cfg.Synthetic.MaxAngle, convey.ShouldEqual, 180.0)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			path := writeConfigFile(t, `
addr: "127.0.0.1:7000"
source: replay
replay_path: /tmp/session.jsonl
assessment:
  max_session_duration: 2m
  required_keypoints: [left_elbow, right_elbow]
  enable_form_validation: false
`)
			_ = os.Setenv("REPSENSE_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "127.0.0.1:7000")
				convey.So(cfg.Source, convey.ShouldEqual, config.SourceReplay)
				convey.So(cfg.ReplayPath, convey.ShouldEqual, "/tmp/session.jsonl")
				convey.So(cfg.Assessment.MaxSessionDuration, convey.ShouldEqual, 2*time.Minute)
				convey.So(cfg.Assessment.RequiredKeypoints, convey.ShouldResemble, []string{"left_elbow", "right_elbow"})
				convey.So(cfg.Assessment.EnableFormValidation, convey.ShouldBeFalse)
				convey.So(cfg.Assessment.DetectionConfidence, convey.ShouldEqual, 0.7)
			})

			convey.Convey("And env vars take precedence over the file", func() {
				_ = os.Setenv("REPSENSE_ADDR", ":7001")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7001")
			})
		})

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("REPSENSE_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

			_, err := config.Load(ctx)

			convey.Convey("Then ErrLoadConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the loaded config is invalid", func() {
			_ = os.Setenv("REPSENSE_SOURCE", "webcam")

			_, err := config.Load(ctx)

			convey.Convey("Then ErrInvalidConfig is returned", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "webcam")
			})
		})
	})
}
