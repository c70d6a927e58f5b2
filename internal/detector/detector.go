// Package detector turns video frames into body keypoints. It is the only
// package that depends on OpenCV; the counting core sees keypoints only.
package detector

import (
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/repsense/internal/pose"
)

// Detector turns a video frame into body keypoints.
type Detector interface {
	// Detect returns the keypoints of the most prominent person in frame,
	// or an empty slice when nobody is visible.
	Detect(frame *gocv.Mat) ([]pose.Keypoint, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds tuning for the pose model.
type Config struct {
	// MinDetectionConf is the minimum person detection confidence (0.0-1.0).
	MinDetectionConf float64

	// MinTrackingConf is the minimum landmark tracking confidence (0.0-1.0).
	MinTrackingConf float64

	// IdleTimeout stops the model process after this long without frames.
	IdleTimeout time.Duration
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MinDetectionConf: 0.5,
		MinTrackingConf:  0.5,
		IdleTimeout:      30 * time.Second,
	}
}
