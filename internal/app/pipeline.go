package app

import (
	"context"
	"errors"
	"time"

	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/pkg/logger"
)

// runPipeline is the frame loop of one session. It pulls a frame from the
// source on every tick and hands it to the engine until the session is
// stopped, the source runs dry or the session reaches its maximum duration.
func (a *App) runPipeline(stopCh <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ctx := context.Background()
	ticker := time.NewTicker(a.config.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if reason, stop := a.tick(ctx); stop {
				a.expire(ctx, reason)
				return
			}
		}
	}
}

// tick processes a single frame. It reports whether the session should end.
func (a *App) tick(ctx context.Context) (reason string, stop bool) {
	if a.engine.State().Paused {
		return "", false
	}

	keypoints, err := a.config.Source.Next()
	switch {
	case errors.Is(err, pose.ErrSourceExhausted):
		return "source exhausted", true
	case err != nil:
		a.log.Warn(ctx, "failed to read frame", logger.Error(err))
		a.config.Metrics.RecordError("source", "read_frame")
		return "", false
	}

	if m := a.engine.ProcessFrame(keypoints); m != nil {
		a.publish(Update{
			Kind:    UpdateFrame,
			Count:   a.engine.State().CurrentCount,
			Metrics: m,
		})
	}

	limit := a.engine.Config().MaxSessionDuration
	if stats := a.engine.SessionStats(); stats.SessionDurationSeconds >= limit.Seconds() {
		return "max session duration reached", true
	}
	return "", false
}
