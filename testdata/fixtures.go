// Package testdata builds keypoint recordings for end-to-end tests.
package testdata

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ayusman/repsense/internal/pose"
)

// FPS is the frame rate of generated recordings.
const FPS = 30

// PushupRecording renders cycles full pushups (2s each, 80° to 180° elbows) as
// JSON Lines, followed by a second at the top so the last rep is confirmed.
func PushupRecording(cycles int) ([]byte, error) {
	if cycles < 0 {
		return nil, fmt.Errorf("negative cycle count %d", cycles)
	}

	src := pose.NewSyntheticSource(pose.SyntheticConfig{
		FPS:       FPS,
		MaxFrames: cycles*2*FPS + FPS/3,
	})

	var buf bytes.Buffer
	rec := pose.NewRecorder(&buf)
	for {
		keypoints, err := src.Next()
		if errors.Is(err, pose.ErrSourceExhausted) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := rec.Record(keypoints); err != nil {
			return nil, fmt.Errorf("record frame: %w", err)
		}
	}

	return buf.Bytes(), nil
}

// LoadRecording returns a non-looping replay of cycles pushups.
func LoadRecording(cycles int) (*pose.ReplaySource, error) {
	data, err := PushupRecording(cycles)
	if err != nil {
		return nil, err
	}
	return pose.NewReplaySource(bytes.NewReader(data), false)
}
