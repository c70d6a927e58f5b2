// Package pushup counts pushup repetitions and scores their form from body keypoints.
package pushup

import (
	"time"

	"github.com/ayusman/repsense/internal/pose"
)

// Tuned thresholds. These values come from empirical testing and are not meant
// to be configurable per session.
const (
	// DownAngleThreshold is the average elbow angle below which arms count as bent.
	DownAngleThreshold = 140.0
	// UpAngleThreshold is the average elbow angle above which arms count as extended.
	UpAngleThreshold = 170.0
	// SymmetryThreshold is the largest acceptable left/right angle difference.
	SymmetryThreshold = 15.0
	// MinVisibility is the keypoint confidence below which only framing feedback is given.
	MinVisibility = 0.5
	// CaloriesPerRep is the estimated energy cost of one pushup in kcal.
	CaloriesPerRep = 0.32
)

// Config holds the assessment settings for one session.
type Config struct {
	// DetectionConfidence is the minimum confidence every required joint needs.
	DetectionConfidence float64
	// MinimumPushupDuration is how long a phase must hold before it is confirmed.
	MinimumPushupDuration time.Duration
	// MaxSessionDuration is advisory; the frame loop enforces it.
	MaxSessionDuration time.Duration
	// RequiredKeypoints lists the joints that must be present in a frame.
	RequiredKeypoints []string
	// EnableFormValidation turns coaching feedback on.
	EnableFormValidation bool
}

// DefaultConfig returns the standard assessment settings.
func DefaultConfig() Config {
	return Config{
		DetectionConfidence:   0.7,
		MinimumPushupDuration: 300 * time.Millisecond,
		MaxSessionDuration:    5 * time.Minute,
		RequiredKeypoints:     pose.ArmJoints(),
		EnableFormValidation:  true,
	}
}

// withDefaults fills zero values from DefaultConfig. EnableFormValidation is
// taken as given.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.DetectionConfidence <= 0 {
		c.DetectionConfidence = def.DetectionConfidence
	}
	if c.MinimumPushupDuration <= 0 {
		c.MinimumPushupDuration = def.MinimumPushupDuration
	}
	if c.MaxSessionDuration <= 0 {
		c.MaxSessionDuration = def.MaxSessionDuration
	}
	if len(c.RequiredKeypoints) == 0 {
		c.RequiredKeypoints = def.RequiredKeypoints
	} else {
		c.RequiredKeypoints = append([]string(nil), c.RequiredKeypoints...)
	}
	return c
}
