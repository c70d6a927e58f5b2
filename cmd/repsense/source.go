package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ayusman/repsense/internal/capture"
	"github.com/ayusman/repsense/internal/config"
	"github.com/ayusman/repsense/internal/detector"
	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/pkg/logger"
)

// keypointSource is the configured source plus what it needs at start and exit.
type keypointSource struct {
	Source  pose.Source
	Warmup  func(ctx context.Context) error
	closers []func() error
}

// Close releases the camera, model process and recording file.
func (s *keypointSource) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// openSource builds the keypoint source selected by cfg.Source. The camera
// source leaves Source nil when no pose model is installed, which makes every
// session manual.
func openSource(cfg *config.Config, log logger.Logger) (*keypointSource, error) {
	src := &keypointSource{}
	ctx := context.Background()

	switch cfg.Source {
	case config.SourceSynthetic:
		src.Source = pose.NewSyntheticSource(cfg.SyntheticConfig())

	case config.SourceReplay:
		replay, err := pose.OpenReplay(cfg.ReplayPath, cfg.ReplayLoop)
		if err != nil {
			return nil, err
		}
		log.Info(ctx, "replaying recording", logger.String("path", cfg.ReplayPath), logger.Int("frames", replay.Len()))
		src.Source = replay

	case config.SourceCamera:
		model, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), log)
		if err != nil {
			log.Warn(ctx, "pose model not available", logger.Error(err))
			return src, nil
		}
		camera := detector.NewCameraSource(capture.NewCamera(capture.Config{
			DeviceID: cfg.CameraID,
			FPS:      cfg.FPS,
		}), model)
		src.Source = camera
		src.Warmup = func(ctx context.Context) error {
			if err := camera.Open(); err != nil {
				return fmt.Errorf("open camera %d: %w", cfg.CameraID, err)
			}
			return model.Warmup(ctx)
		}
		src.closers = append(src.closers, camera.Close)

	default:
		return nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, cfg.Source)
	}

	if cfg.RecordPath != "" && src.Source != nil {
		f, err := os.Create(cfg.RecordPath)
		if err != nil {
			src.Close()
			return nil, fmt.Errorf("create recording: %w", err)
		}
		src.closers = append(src.closers, f.Close)
		src.Source = pose.RecordingSource{Source: src.Source, Recorder: pose.NewRecorder(f)}
		log.Info(ctx, "recording keypoints", logger.String("path", cfg.RecordPath))
	}

	return src, nil
}
