package pushup

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/internal/timeutil"
	"github.com/ayusman/repsense/pkg/logger"
	"github.com/ayusman/repsense/pkg/metrics"
)

// Metrics is the evaluation of one frame.
type Metrics struct {
	Angle      float64  `json:"angle"`
	FormScore  float64  `json:"formScore"`
	State      Phase    `json:"state"`
	Visibility float64  `json:"visibility"`
	Symmetry   float64  `json:"symmetry"`
	Feedback   []string `json:"feedback"`
}

// DetectionState is a snapshot of the engine. Zero times mean "not yet".
type DetectionState struct {
	Initialized         bool            `json:"initialized"`
	Detecting           bool            `json:"detecting"`
	Paused              bool            `json:"paused"`
	CurrentCount        int             `json:"currentCount"`
	SessionStart        time.Time       `json:"sessionStart"`
	LastDetection       time.Time       `json:"lastDetection"`
	DetectionConfidence float64         `json:"detectionConfidence"`
	BodyKeypoints       []pose.Keypoint `json:"bodyKeypoints"`
}

// RepHandler is called once per confirmed repetition with the new count and
// the metrics of the confirming frame.
type RepHandler func(count int, m Metrics)

// Engine turns a stream of keypoint frames into rep counts, form scores and
// feedback. Frames are expected from a single driver; the mutex only lets
// other goroutines read snapshots and drive the lifecycle.
type Engine struct {
	cfg     Config
	clock   timeutil.Clock
	log     logger.Logger
	metrics *metrics.Manager
	warmup  func(ctx context.Context) error

	mu          sync.Mutex
	state       DetectionState
	counter     *RepCounter
	onRep       RepHandler
	repScores   []float64
	cycleScores []float64
	pausedAt    time.Time
	pausedTotal time.Duration
	stoppedAt   time.Time
}

// NewEngine creates an engine. Zero config fields take their defaults.
func NewEngine(cfg Config, opts ...Option) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:   cfg,
		clock: timeutil.RealClock{},
		log:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.counter = NewRepCounter(cfg.MinimumPushupDuration)
	e.state.DetectionConfidence = cfg.DetectionConfidence
	return e
}

// Config returns the settings the engine runs with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Initialize runs the warm-up hook. It reports false instead of failing so
// callers can fall back to manual counting.
func (e *Engine) Initialize(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error(ctx, "engine warm-up panicked", logger.Any("panic", r))
			ok = false
		}
	}()

	if e.warmup != nil {
		if err := e.warmup(ctx); err != nil {
			e.log.Warn(ctx, "engine warm-up failed", logger.Error(err))
			return false
		}
	}

	e.mu.Lock()
	e.state.Initialized = true
	e.mu.Unlock()

	e.log.Info(ctx, "engine initialized")
	return true
}

// StartDetection begins a new session. Count, score history and the state
// machine are reset and onRep replaces any previous handler.
func (e *Engine) StartDetection(onRep RepHandler) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Initialized {
		return ErrNotInitialized
	}

	if !e.state.Detecting {
		e.metrics.SessionStarted()
	}

	now := e.clock.Now()
	e.state.Detecting = true
	e.state.Paused = false
	e.state.CurrentCount = 0
	e.state.SessionStart = now
	e.state.LastDetection = time.Time{}
	e.state.BodyKeypoints = nil
	e.onRep = onRep
	e.repScores = nil
	e.cycleScores = nil
	e.pausedAt = time.Time{}
	e.pausedTotal = 0
	e.stoppedAt = time.Time{}
	e.counter.Reset()

	e.log.Info(context.Background(), "detection started")
	return nil
}

// PauseDetection freezes the state machine and the session clock.
func (e *Engine) PauseDetection() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Detecting || e.state.Paused {
		return
	}
	e.state.Paused = true
	e.pausedAt = e.clock.Now()
	e.counter.Interrupt()
}

// ResumeDetection continues a paused session.
func (e *Engine) ResumeDetection() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Detecting || !e.state.Paused {
		return
	}
	e.pausedTotal += e.clock.Since(e.pausedAt)
	e.pausedAt = time.Time{}
	e.state.Paused = false
	e.counter.Interrupt()
}

// StopDetection ends the session and drops the handler. Stats stay readable.
func (e *Engine) StopDetection() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Detecting {
		return
	}

	now := e.clock.Now()
	if e.state.Paused {
		e.pausedTotal += now.Sub(e.pausedAt)
		e.pausedAt = time.Time{}
	}
	e.stoppedAt = now
	e.state.Detecting = false
	e.state.Paused = false
	e.onRep = nil
	e.counter.Interrupt()

	duration := e.durationLocked()
	e.metrics.SessionFinished(duration)
	e.log.Info(context.Background(), "detection stopped",
		logger.Int("count", e.state.CurrentCount),
		logger.Duration("duration", duration),
	)
}

// Reset zeroes the count and score history. Initialization is kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.state.CurrentCount = 0
	e.repScores = nil
	e.cycleScores = nil
	e.counter.Reset()
}

// State returns a snapshot of the detection state.
func (e *Engine) State() DetectionState {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.state
	snapshot.BodyKeypoints = pose.Clone(e.state.BodyKeypoints)
	return snapshot
}

// SessionStats returns partial stats during a session and final stats after it.
func (e *Engine) SessionStats() SessionStats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return summarize(e.state.CurrentCount, e.repScores, e.durationLocked().Seconds())
}

// RepScores returns the form score of every rep so far, in order.
func (e *Engine) RepScores() []float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]float64(nil), e.repScores...)
}

func (e *Engine) durationLocked() time.Duration {
	if e.state.SessionStart.IsZero() {
		return 0
	}

	end := e.clock.Now()
	switch {
	case !e.stoppedAt.IsZero():
		end = e.stoppedAt
	case e.state.Paused:
		end = e.pausedAt
	}

	d := end.Sub(e.state.SessionStart) - e.pausedTotal
	if d < 0 {
		return 0
	}
	return d
}

// ProcessFrame evaluates one frame. It returns nil when no session is active,
// the session is paused or keypoints is empty. A frame missing required joints
// or below the confidence threshold yields low-visibility metrics, keeps the
// confirmed phase and cancels any pending transition. A confirmed rep calls the handler before
// ProcessFrame returns.
func (e *Engine) ProcessFrame(keypoints []pose.Keypoint) (result *Metrics) {
	start := e.clock.Now()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error(context.Background(), "frame processing panicked", logger.Any("panic", r))
			e.metrics.RecordError("engine", "panic")
			_ = e.metrics.RecordFrame(metrics.FrameError, e.clock.Since(start))
			result = nil
		}
	}()

	out := e.evaluate(keypoints)
	if out.metrics == nil {
		return nil
	}

	frameResult := metrics.FrameDetected
	if !out.detected {
		frameResult = metrics.FrameNoDetection
	}
	if err := e.metrics.RecordFrame(frameResult, e.clock.Since(start)); err != nil {
		e.log.Debug(context.Background(), "record frame metric", logger.Error(err))
	}

	if out.rep && out.handler != nil {
		out.handler(out.count, copyMetrics(*out.metrics))
	}
	return out.metrics
}

type frameOutcome struct {
	metrics  *Metrics
	detected bool
	rep      bool
	count    int
	handler  RepHandler
}

func (e *Engine) evaluate(keypoints []pose.Keypoint) frameOutcome {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Detecting || e.state.Paused || len(keypoints) == 0 {
		return frameOutcome{}
	}

	now := e.clock.Now()
	idx := pose.Index(keypoints)
	visibility, complete := e.visibility(idx)

	e.state.BodyKeypoints = pose.Clone(keypoints)
	e.state.LastDetection = now

	if !complete || visibility < e.cfg.DetectionConfidence {
		// A hold must be observed end to end; an unseen gap restarts it.
		e.counter.Interrupt()
		return frameOutcome{metrics: &Metrics{
			State:      e.counter.State(),
			Visibility: visibility,
			Feedback:   []string{MsgPositionInFrame},
		}}
	}

	left, right := elbowAngles(idx)
	avg := (left + right) / 2
	symmetry := Symmetry(left, right)
	phase := phaseFor(avg, e.counter.State())

	m := &Metrics{
		Angle:      avg,
		FormScore:  CalculateFormScore(left, right, phase),
		State:      phase,
		Visibility: visibility,
		Symmetry:   symmetry,
	}
	if e.cfg.EnableFormValidation {
		m.Feedback = GenerateFeedback(left, right, symmetry, visibility)
	}

	e.cycleScores = append(e.cycleScores, m.FormScore)
	if !e.counter.Update(avg, now) {
		return frameOutcome{metrics: m, detected: true}
	}

	repScore := stat.Mean(e.cycleScores, nil)
	e.cycleScores = nil
	e.repScores = append(e.repScores, repScore)
	e.state.CurrentCount++
	e.metrics.RecordRep(repScore)

	e.log.Debug(context.Background(), "rep confirmed",
		logger.Int("count", e.state.CurrentCount),
		logger.Float64("form_score", repScore),
	)

	return frameOutcome{
		metrics:  m,
		detected: true,
		rep:      true,
		count:    e.state.CurrentCount,
		handler:  e.onRep,
	}
}

// visibility is the minimum confidence over the required and arm joints.
// complete is false if any of them is missing.
func (e *Engine) visibility(idx map[string]pose.Keypoint) (float64, bool) {
	minConf := math.Inf(1)
	complete := true

	check := func(name string) {
		k, ok := idx[name]
		if !ok {
			complete = false
			minConf = 0
			return
		}
		minConf = math.Min(minConf, k.Confidence)
	}
	for _, name := range e.cfg.RequiredKeypoints {
		check(name)
	}
	for _, name := range pose.ArmJoints() {
		check(name)
	}

	return math.Max(0, math.Min(1, minConf)), complete
}

func copyMetrics(m Metrics) Metrics {
	m.Feedback = append([]string(nil), m.Feedback...)
	return m
}

// String implements fmt.Stringer for log output.
func (m Metrics) String() string {
	return fmt.Sprintf("angle=%.1f score=%.1f state=%s visibility=%.2f symmetry=%.1f",
		m.Angle, m.FormScore, m.State, m.Visibility, m.Symmetry)
}
