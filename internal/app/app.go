// Package app runs workout sessions: it drives the pushup engine from a
// keypoint source, persists sessions and reps, and fans updates out to
// subscribers.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/internal/pushup"
	"github.com/ayusman/repsense/internal/store"
	"github.com/ayusman/repsense/internal/timeutil"
	"github.com/ayusman/repsense/pkg/logger"
	"github.com/ayusman/repsense/pkg/metrics"
)

// DefaultFrameInterval is used when Config.FrameInterval is zero (~30 FPS).
const DefaultFrameInterval = time.Second / 30

// Config holds configuration options for the application.
type Config struct {
	// Store persists sessions and reps. Nil keeps history in memory only.
	Store *store.Store

	// Source feeds the frame loop. Nil forces manual counting.
	Source pose.Source

	// SourceName is recorded with each session, e.g. "camera".
	SourceName string

	// Engine configures rep detection.
	Engine pushup.Config

	// FrameInterval is the time between two frame loop ticks.
	FrameInterval time.Duration

	// Warmup runs once in Initialize, typically loading the pose model.
	Warmup func(ctx context.Context) error

	Clock   timeutil.Clock
	Logger  logger.Logger
	Metrics *metrics.Manager
}

// App is the main application that orchestrates sessions.
type App struct {
	config Config
	engine *pushup.Engine
	clock  timeutil.Clock
	log    logger.Logger

	mu          sync.Mutex
	active      bool
	stopping    bool
	manual      bool
	paused      bool
	session     *store.Session
	manualCount int
	pausedAt    time.Time
	pausedTotal time.Duration
	stopCh      chan struct{}
	done        chan struct{}

	subMu   sync.RWMutex
	subs    map[int]*subscriber
	nextSub int
}

// New creates a new App instance with the given configuration.
func New(config Config) *App {
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultFrameInterval
	}
	if config.Clock == nil {
		config.Clock = timeutil.RealClock{}
	}
	if config.Logger == nil {
		config.Logger = logger.Nop()
	}

	engine := pushup.NewEngine(config.Engine,
		pushup.WithClock(config.Clock),
		pushup.WithLogger(config.Logger.Named("engine")),
		pushup.WithMetrics(config.Metrics),
		pushup.WithWarmup(config.Warmup),
	)

	return &App{
		config: config,
		engine: engine,
		clock:  config.Clock,
		log:    config.Logger,
		subs:   make(map[int]*subscriber),
	}
}

// Initialize prepares the engine. On false every session is counted manually.
func (a *App) Initialize(ctx context.Context) bool {
	if a.config.Source == nil {
		a.log.Warn(ctx, "no keypoint source configured, reps must be counted manually")
		return false
	}
	return a.engine.Initialize(ctx)
}

// Engine returns the pushup engine.
func (a *App) Engine() *pushup.Engine {
	return a.engine
}

// Store returns the configured store, which may be nil.
func (a *App) Store() *store.Store {
	return a.config.Store
}

// Status is a snapshot of the current or most recent session.
type Status struct {
	SessionID   string              `json:"sessionId,omitempty"`
	Source      string              `json:"source,omitempty"`
	Active      bool                `json:"active"`
	Paused      bool                `json:"paused"`
	Manual      bool                `json:"manual"`
	Initialized bool                `json:"initialized"`
	StartedAt   *time.Time          `json:"startedAt,omitempty"`
	Stats       pushup.SessionStats `json:"stats"`
}

// Status returns the state of the current or most recent session.
func (a *App) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statusLocked()
}

func (a *App) statusLocked() Status {
	st := Status{
		Active:      a.active && !a.stopping,
		Paused:      a.paused,
		Manual:      a.manual,
		Initialized: a.engine.State().Initialized,
		Source:      a.config.SourceName,
	}
	if a.session != nil {
		started := a.session.StartedAt
		st.SessionID = a.session.ID
		st.StartedAt = &started
	}
	st.Stats = a.statsLocked()
	return st
}

func (a *App) statsLocked() pushup.SessionStats {
	if !a.manual {
		return a.engine.SessionStats()
	}
	if a.session == nil {
		return pushup.SessionStats{}
	}

	end := a.clock.Now()
	switch {
	case a.session.EndedAt != nil:
		end = *a.session.EndedAt
	case a.paused:
		end = a.pausedAt
	}
	duration := end.Sub(a.session.StartedAt) - a.pausedTotal
	if duration < 0 {
		duration = 0
	}

	return pushup.SessionStats{
		TotalPushups:           a.manualCount,
		SessionDurationSeconds: duration.Seconds(),
		CaloriesBurned:         float64(a.manualCount) * pushup.CaloriesPerRep,
	}
}

// Close stops any running session.
func (a *App) Close(ctx context.Context) error {
	if _, err := a.Stop(ctx); err != nil && !errors.Is(err, ErrNoSession) {
		return err
	}
	return nil
}
