// Package config defines repsense configuration and how it is loaded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/internal/pushup"
)

// Keypoint sources.
const (
	SourceSynthetic = "synthetic"
	SourceReplay    = "replay"
	SourceCamera    = "camera"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath is the SQLite database holding session history.
	DBPath string `koanf:"db_path"`

	// StaticDir is served at / when set.
	StaticDir string `koanf:"static_dir"`

	// Source selects where keypoints come from: synthetic, replay or camera.
	Source string `koanf:"source"`

	// ReplayPath is the JSON Lines recording used by the replay source.
	ReplayPath string `koanf:"replay_path"`

	// ReplayLoop restarts the recording when it ends.
	ReplayLoop bool `koanf:"replay_loop"`

	// RecordPath, when set, receives every frame as JSON Lines.
	RecordPath string `koanf:"record_path"`

	// CameraID is the capture device index for the camera source.
	CameraID int `koanf:"camera_id"`

	// FPS is the frame loop rate.
	FPS int `koanf:"fps"`

	// Tray shows the system tray icon.
	Tray bool `koanf:"tray"`

	// MetricsEnabled exposes Prometheus metrics at /metrics.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	Assessment Assessment `koanf:"assessment"`
	Synthetic  Synthetic  `koanf:"synthetic"`
}

// Assessment mirrors pushup.Config.
type Assessment struct {
	DetectionConfidence   float64       `koanf:"detection_confidence"`
	MinimumPushupDuration time.Duration `koanf:"minimum_pushup_duration"`
	MaxSessionDuration    time.Duration `koanf:"max_session_duration"`
	RequiredKeypoints     []string      `koanf:"required_keypoints"`
	EnableFormValidation  bool          `koanf:"enable_form_validation"`
}

// Synthetic tunes the simulated keypoint source.
type Synthetic struct {
	Period         time.Duration `koanf:"period"`
	MinAngle       float64       `koanf:"min_angle"`
	MaxAngle       float64       `koanf:"max_angle"`
	Confidence     float64       `koanf:"confidence"`
	Jitter         float64       `koanf:"jitter"`
	Seed           int64         `koanf:"seed"`
	OcclusionEvery int           `koanf:"occlusion_every"`
}

// New returns a Config with defaults.
func New() *Config {
	assessment := pushup.DefaultConfig()
	synthetic := pose.DefaultSyntheticConfig()

	return &Config{
		LogLevel:       "info",
		Addr:           ":8080",
		DBPath:         defaultDBPath(),
		Source:         SourceSynthetic,
		FPS:            synthetic.FPS,
		Tray:           false,
		MetricsEnabled: true,
		Assessment: Assessment{
			DetectionConfidence:   assessment.DetectionConfidence,
			MinimumPushupDuration: assessment.MinimumPushupDuration,
			MaxSessionDuration:    assessment.MaxSessionDuration,
			RequiredKeypoints:     assessment.RequiredKeypoints,
			EnableFormValidation:  assessment.EnableFormValidation,
		},
		Synthetic: Synthetic{
			Period:     synthetic.Period,
			MinAngle:   synthetic.MinAngle,
			MaxAngle:   synthetic.MaxAngle,
			Confidence: synthetic.Confidence,
		},
	}
}

// defaultDBPath is ~/.repsense/repsense.db, or a relative file if there is no home.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "repsense.db"
	}
	return filepath.Join(home, ".repsense", "repsense.db")
}

// PushupConfig converts the assessment section.
func (c *Config) PushupConfig() pushup.Config {
	return pushup.Config{
		DetectionConfidence:   c.Assessment.DetectionConfidence,
		MinimumPushupDuration: c.Assessment.MinimumPushupDuration,
		MaxSessionDuration:    c.Assessment.MaxSessionDuration,
		RequiredKeypoints:     append([]string(nil), c.Assessment.RequiredKeypoints...),
		EnableFormValidation:  c.Assessment.EnableFormValidation,
	}
}

// SyntheticConfig converts the synthetic section, using the loop FPS.
func (c *Config) SyntheticConfig() pose.SyntheticConfig {
	return pose.SyntheticConfig{
		FPS:            c.FPS,
		Period:         c.Synthetic.Period,
		MinAngle:       c.Synthetic.MinAngle,
		MaxAngle:       c.Synthetic.MaxAngle,
		Confidence:     c.Synthetic.Confidence,
		Jitter:         c.Synthetic.Jitter,
		Seed:           c.Synthetic.Seed,
		OcclusionEvery: c.Synthetic.OcclusionEvery,
	}
}

// FrameInterval is the time between two frame loop ticks.
func (c *Config) FrameInterval() time.Duration {
	if c.FPS <= 0 {
		return time.Second / time.Duration(pose.DefaultSyntheticConfig().FPS)
	}
	return time.Second / time.Duration(c.FPS)
}

// Validate reports the first problem found, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("unknown log_level %q", c.LogLevel)
	}
	if c.Addr == "" {
		return invalid("addr must not be empty")
	}
	if c.DBPath == "" {
		return invalid("db_path must not be empty")
	}

	switch c.Source {
	case SourceSynthetic, SourceCamera:
	case SourceReplay:
		if c.ReplayPath == "" {
			return invalid("replay source needs replay_path")
		}
	default:
		return invalid("unknown source %q", c.Source)
	}

	if c.FPS <= 0 || c.FPS > 120 {
		return invalid("fps must be in 1..120, got %d", c.FPS)
	}
	if c.CameraID < 0 {
		return invalid("camera_id must not be negative")
	}

	a := c.Assessment
	if a.DetectionConfidence <= 0 || a.DetectionConfidence > 1 {
		return invalid("assessment.detection_confidence must be in (0, 1], got %v", a.DetectionConfidence)
	}
	if a.MinimumPushupDuration <= 0 {
		return invalid("assessment.minimum_pushup_duration must be positive")
	}
	if a.MaxSessionDuration <= 0 {
		return invalid("assessment.max_session_duration must be positive")
	}
	for _, name := range a.RequiredKeypoints {
		if !pose.IsJoint(name) {
			return invalid("assessment.required_keypoints: unknown joint %q", name)
		}
	}

	s := c.Synthetic
	if s.MinAngle >= s.MaxAngle {
		return invalid("synthetic.min_angle must be below synthetic.max_angle")
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return invalid("synthetic.confidence must be in [0, 1]")
	}
	return nil
}
