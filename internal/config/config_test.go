package config

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValidate(t *testing.T) {
	Convey("Given a default config", t, func() {
		cfg := New()

		Convey("It should be valid", func() {
			So(cfg.Validate(), ShouldBeNil)
		})

		cases := []struct {
			name   string
			mutate func(*Config)
		}{
			{"unknown log level", func(c *Config) { c.LogLevel = "loud" }},
			{"empty addr", func(c *Config) { c.Addr = "" }},
			{"empty db path", func(c *Config) { c.DBPath = "" }},
			{"unknown source", func(c *Config) { c.Source = "kinect" }},
			{"replay without path", func(c *Config) { c.Source = SourceReplay }},
			{"zero fps", func(c *Config) { c.FPS = 0 }},
			{"negative camera", func(c *Config) { c.CameraID = -1 }},
			{"confidence above one", func(c *Config) { c.Assessment.DetectionConfidence = 1.5 }},
			{"zero hold", func(c *Config) { c.Assessment.MinimumPushupDuration = 0 }},
			{"zero max session", func(c *Config) { c.Assessment.MaxSessionDuration = 0 }},
			{"unknown joint", func(c *Config) { c.Assessment.RequiredKeypoints = []string{"left_thumb"} }},
			{"inverted synthetic range", func(c *Config) { c.Synthetic.MinAngle = 190 }},
		}

		for _, tc := range cases {
			Convey("When "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()

				Convey("Then ErrInvalidConfig is returned", func() {
					So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
				})
			})
		}
	})
}

func TestConversions(t *testing.T) {
	Convey("Given a customised config", t, func() {
		cfg := New()
		cfg.FPS = 24
		cfg.Assessment.MinimumPushupDuration = 500 * time.Millisecond
		cfg.Assessment.EnableFormValidation = false
		cfg.Synthetic.Seed = 9

		Convey("PushupConfig carries the assessment section", func() {
			pc := cfg.PushupConfig()
			So(pc.MinimumPushupDuration, ShouldEqual, 500*time.Millisecond)
			So(pc.EnableFormValidation, ShouldBeFalse)
			So(pc.RequiredKeypoints, ShouldResemble, cfg.Assessment.RequiredKeypoints)

			pc.RequiredKeypoints[0] = "nose"
			So(cfg.Assessment.RequiredKeypoints[0], ShouldNotEqual, "nose")
		})

		Convey("SyntheticConfig uses the loop fps", func() {
			sc := cfg.SyntheticConfig()
			So(sc.FPS, ShouldEqual, 24)
			So(sc.Seed, ShouldEqual, int64(9))
			So(sc.Period, ShouldEqual, 2*time.Second)
		})

		Convey("FrameInterval follows fps", func() {
			So(cfg.FrameInterval(), ShouldEqual, time.Second/24)
			cfg.FPS = 0
			So(cfg.FrameInterval(), ShouldEqual, time.Second/30)
		})
	})
}

func TestEnvKey(t *testing.T) {
	Convey("Environment names map to koanf keys", t, func() {
		So(envKey("REPSENSE_FPS"), ShouldEqual, "fps")
		So(envKey("REPSENSE_DB_PATH"), ShouldEqual, "db_path")
		So(envKey("REPSENSE_ASSESSMENT_DETECTION_CONFIDENCE"), ShouldEqual, "assessment.detection_confidence")
		So(envKey("REPSENSE_SYNTHETIC_OCCLUSION_EVERY"), ShouldEqual, "synthetic.occlusion_every")
	})
}
