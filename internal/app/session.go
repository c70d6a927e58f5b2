package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/repsense/internal/pushup"
	"github.com/ayusman/repsense/internal/store"
	"github.com/ayusman/repsense/pkg/logger"
)

// Start begins a new session. When the engine is not initialized the session
// is counted manually through AddManualRep.
func (a *App) Start(ctx context.Context) (*store.Session, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.active {
		return nil, ErrSessionActive
	}

	manual := false
	if err := a.engine.StartDetection(a.onRep); err != nil {
		if !errors.Is(err, pushup.ErrNotInitialized) {
			return nil, fmt.Errorf("start detection: %w", err)
		}
		manual = true
	}

	session := &store.Session{
		Source:    a.config.SourceName,
		Manual:    manual,
		StartedAt: a.clock.Now(),
	}
	if a.config.Store != nil {
		if err := a.config.Store.Sessions().Create(session); err != nil {
			if !manual {
				a.engine.StopDetection()
			}
			a.config.Metrics.RecordError("store", "create_session")
			return nil, fmt.Errorf("create session: %w", err)
		}
	} else {
		session.ID = fmt.Sprintf("session-%d", session.StartedAt.UnixNano())
	}

	a.active = true
	a.stopping = false
	a.manual = manual
	a.paused = false
	a.session = session
	a.manualCount = 0
	a.pausedAt = time.Time{}
	a.pausedTotal = 0

	if manual {
		a.config.Metrics.SessionStarted()
	} else {
		a.stopCh = make(chan struct{})
		a.done = make(chan struct{})
		go a.runPipeline(a.stopCh, a.done)
	}

	a.log.Info(ctx, "session started",
		logger.String("session_id", session.ID),
		logger.Bool("manual", manual),
	)
	a.publish(Update{Kind: UpdateSession, Status: statusPtr(a.statusLocked())})

	snapshot := *session
	return &snapshot, nil
}

// Pause freezes the session clock and rep counting.
func (a *App) Pause(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active || a.stopping {
		return ErrNoSession
	}
	if a.paused {
		return nil
	}

	a.paused = true
	a.pausedAt = a.clock.Now()
	if !a.manual {
		a.engine.PauseDetection()
	}

	a.log.Info(ctx, "session paused", logger.String("session_id", a.session.ID))
	a.publish(Update{Kind: UpdateSession, Status: statusPtr(a.statusLocked())})
	return nil
}

// Resume continues a paused session.
func (a *App) Resume(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.active || a.stopping {
		return ErrNoSession
	}
	if !a.paused {
		return nil
	}

	a.pausedTotal += a.clock.Since(a.pausedAt)
	a.pausedAt = time.Time{}
	a.paused = false
	if !a.manual {
		a.engine.ResumeDetection()
	}

	a.log.Info(ctx, "session resumed", logger.String("session_id", a.session.ID))
	a.publish(Update{Kind: UpdateSession, Status: statusPtr(a.statusLocked())})
	return nil
}

// Stop ends the session, waits for the frame loop to exit and saves the final
// stats. It returns the finished session.
func (a *App) Stop(ctx context.Context) (*store.Session, error) {
	a.mu.Lock()
	if !a.active || a.stopping {
		a.mu.Unlock()
		return nil, ErrNoSession
	}
	a.stopping = true
	stopCh, done := a.stopCh, a.done
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-done
	}

	return a.finish(ctx, "stopped"), nil
}

// AddManualRep counts one rep in a manual session and returns the new count.
func (a *App) AddManualRep(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case !a.active || a.stopping:
		return 0, ErrNoSession
	case !a.manual:
		return 0, ErrNotManual
	case a.paused:
		return 0, ErrSessionPaused
	}

	a.manualCount++
	rep := store.Rep{
		SessionID:   a.session.ID,
		Number:      a.manualCount,
		CompletedAt: a.clock.Now(),
	}
	a.saveRep(ctx, &rep)
	a.publish(Update{Kind: UpdateRep, Count: a.manualCount, Rep: &rep})

	return a.manualCount, nil
}

// expire ends the session from inside the frame loop.
func (a *App) expire(ctx context.Context, reason string) {
	a.mu.Lock()
	if !a.active || a.stopping {
		a.mu.Unlock()
		return
	}
	a.stopping = true
	a.mu.Unlock()

	a.finish(ctx, reason)
}

// finish stops the engine, stores the final stats and releases the session.
// The caller must have set a.stopping.
func (a *App) finish(ctx context.Context, reason string) *store.Session {
	if !a.manual {
		a.engine.StopDetection()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.clock.Now()
	if a.paused {
		a.pausedTotal += now.Sub(a.pausedAt)
		a.paused = false
	}

	session := a.session
	session.EndedAt = &now
	stats := a.statsLocked()
	session.DurationSeconds = stats.SessionDurationSeconds
	session.TotalPushups = stats.TotalPushups
	session.AvgFormScore = stats.AvgFormScore
	session.BestFormScore = stats.BestFormScore
	session.CaloriesBurned = stats.CaloriesBurned

	if a.manual {
		a.config.Metrics.SessionFinished(time.Duration(stats.SessionDurationSeconds * float64(time.Second)))
	}
	if a.config.Store != nil {
		if err := a.config.Store.Sessions().Finish(session); err != nil {
			a.log.Error(ctx, "failed to save session", logger.String("session_id", session.ID), logger.Error(err))
			a.config.Metrics.RecordError("store", "finish_session")
		}
	}

	a.active = false
	a.stopping = false
	a.stopCh = nil
	a.done = nil

	a.log.Info(ctx, "session finished",
		logger.String("session_id", session.ID),
		logger.String("reason", reason),
		logger.Int("pushups", session.TotalPushups),
		logger.Float64("avg_form_score", session.AvgFormScore),
	)
	a.publish(Update{Kind: UpdateSession, Count: session.TotalPushups, Status: statusPtr(a.statusLocked())})

	snapshot := *session
	return &snapshot
}

// onRep is the engine's rep handler. It runs on the frame loop goroutine.
func (a *App) onRep(count int, m pushup.Metrics) {
	score := m.FormScore
	if scores := a.engine.RepScores(); count <= len(scores) {
		score = scores[count-1]
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return
	}
	rep := store.Rep{
		SessionID:   a.session.ID,
		Number:      count,
		FormScore:   score,
		Angle:       m.Angle,
		Symmetry:    m.Symmetry,
		CompletedAt: a.clock.Now(),
	}
	ctx := context.Background()
	a.saveRep(ctx, &rep)
	a.log.Debug(ctx, "rep counted", logger.Int("count", count), logger.Float64("form_score", score))
	a.publish(Update{Kind: UpdateRep, Count: count, Metrics: &m, Rep: &rep})
}

func (a *App) saveRep(ctx context.Context, rep *store.Rep) {
	if a.config.Store == nil {
		return
	}
	if err := a.config.Store.Reps().Add(rep); err != nil {
		a.log.Error(ctx, "failed to save rep", logger.Int("number", rep.Number), logger.Error(err))
		a.config.Metrics.RecordError("store", "add_rep")
	}
}

func statusPtr(s Status) *Status {
	return &s
}
