package pose

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

// SyntheticConfig controls the simulated pushup motion.
type SyntheticConfig struct {
	// FPS is the simulated frame rate (default: 30).
	FPS int

	// Period is the duration of one full up-down-up cycle (default: 2s).
	Period time.Duration

	// MinAngle and MaxAngle bound the elbow angle in degrees (defaults: 80, 180).
	MinAngle float64
	MaxAngle float64

	// Confidence is reported for every joint (default: 0.95).
	Confidence float64

	// Jitter is the maximum random offset added to each coordinate.
	Jitter float64

	// Seed makes jitter reproducible.
	Seed int64

	// OcclusionEvery drops both wrists from every Nth frame when > 0.
	OcclusionEvery int

	// MaxFrames ends the stream with ErrSourceExhausted when > 0.
	MaxFrames int
}

// DefaultSyntheticConfig returns a SyntheticConfig with sensible default values.
func DefaultSyntheticConfig() SyntheticConfig {
	return SyntheticConfig{
		FPS:        30,
		Period:     2 * time.Second,
		MinAngle:   80,
		MaxAngle:   180,
		Confidence: 0.95,
	}
}

// Body proportions in normalized frame coordinates (side-on view, y grows downward).
const (
	upperArmLength = 0.15
	forearmLength  = 0.14
	shoulderY      = 0.40
	shoulderSpread = 0.08
)

// SyntheticSource is a deterministic Source simulating a person doing pushups.
// The elbow angle follows a cosine between MaxAngle and MinAngle, starting at the top.
type SyntheticSource struct {
	config SyntheticConfig
	rng    *rand.Rand
	frame  int
	mu     sync.Mutex
}

// NewSyntheticSource creates a SyntheticSource. Zero fields fall back to defaults.
func NewSyntheticSource(config SyntheticConfig) *SyntheticSource {
	def := DefaultSyntheticConfig()
	if config.FPS <= 0 {
		config.FPS = def.FPS
	}
	if config.Period <= 0 {
		config.Period = def.Period
	}
	if config.MinAngle == 0 && config.MaxAngle == 0 {
		config.MinAngle, config.MaxAngle = def.MinAngle, def.MaxAngle
	}
	if config.Confidence <= 0 {
		config.Confidence = def.Confidence
	}

	return &SyntheticSource{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Next returns the keypoints for the next simulated frame.
func (s *SyntheticSource) Next() ([]Keypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.MaxFrames > 0 && s.frame >= s.config.MaxFrames {
		return nil, ErrSourceExhausted
	}

	elapsed := time.Duration(float64(s.frame) / float64(s.config.FPS) * float64(time.Second))
	angle := s.AngleAt(elapsed)
	occluded := s.config.OcclusionEvery > 0 && (s.frame+1)%s.config.OcclusionEvery == 0
	s.frame++

	return s.body(angle, occluded), nil
}

// AngleAt returns the simulated elbow angle at the given offset into the stream.
func (s *SyntheticSource) AngleAt(elapsed time.Duration) float64 {
	mid := (s.config.MaxAngle + s.config.MinAngle) / 2
	amp := (s.config.MaxAngle - s.config.MinAngle) / 2
	phase := 2 * math.Pi * float64(elapsed) / float64(s.config.Period)
	return mid + amp*math.Cos(phase)
}

// FrameInterval returns the time between two simulated frames.
func (s *SyntheticSource) FrameInterval() time.Duration {
	return time.Second / time.Duration(s.config.FPS)
}

// Reset restarts the motion from the first frame.
func (s *SyntheticSource) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frame = 0
	s.rng = rand.New(rand.NewSource(s.config.Seed))
}

func (s *SyntheticSource) body(elbowAngle float64, occluded bool) []Keypoint {
	keypoints := make([]Keypoint, 0, len(Joints))
	add := func(name string, x, y float64) {
		keypoints = append(keypoints, Keypoint{
			Name:       name,
			X:          x + s.jitter(),
			Y:          y + s.jitter(),
			Confidence: s.config.Confidence,
		})
	}

	// Head and lower body stay put; only the torso height follows the arms.
	drop := (s.config.MaxAngle - elbowAngle) / 180 * 0.1
	add(Nose, 0.30, shoulderY-0.05+drop)
	add(LeftEye, 0.29, shoulderY-0.06+drop)
	add(RightEye, 0.31, shoulderY-0.06+drop)
	add(LeftEar, 0.33, shoulderY-0.06+drop)
	add(RightEar, 0.33, shoulderY-0.05+drop)

	for _, side := range []struct {
		shoulder, elbow, wrist, hip, knee, ankle string
		dir                                      float64
	}{
		{LeftShoulder, LeftElbow, LeftWrist, LeftHip, LeftKnee, LeftAnkle, -1},
		{RightShoulder, RightElbow, RightWrist, RightHip, RightKnee, RightAnkle, 1},
	} {
		sx := 0.40 + side.dir*shoulderSpread
		sy := shoulderY + drop

		// Upper arm hangs straight down; the forearm opens by elbowAngle from it.
		ex, ey := sx, sy+upperArmLength
		rad := elbowAngle * math.Pi / 180
		wx := ex + side.dir*forearmLength*math.Sin(rad)
		wy := ey - forearmLength*math.Cos(rad)

		add(side.shoulder, sx, sy)
		add(side.elbow, ex, ey)
		if !occluded {
			add(side.wrist, wx, wy)
		}
		add(side.hip, 0.60+side.dir*0.04, sy+0.05)
		add(side.knee, 0.75+side.dir*0.04, shoulderY+0.12)
		add(side.ankle, 0.90+side.dir*0.04, shoulderY+0.16)
	}

	return keypoints
}

func (s *SyntheticSource) jitter() float64 {
	if s.config.Jitter <= 0 {
		return 0
	}
	return (s.rng.Float64()*2 - 1) * s.config.Jitter
}

// ArmKeypoints returns the six arm joints posed with the given left and right
// elbow angles and confidence. Useful for building fixtures.
func ArmKeypoints(leftAngle, rightAngle, confidence float64) []Keypoint {
	var out []Keypoint
	for _, side := range []struct {
		shoulder, elbow, wrist string
		dir, angle             float64
	}{
		{LeftShoulder, LeftElbow, LeftWrist, -1, leftAngle},
		{RightShoulder, RightElbow, RightWrist, 1, rightAngle},
	} {
		sx := 0.40 + side.dir*shoulderSpread
		ex, ey := sx, shoulderY+upperArmLength
		rad := side.angle * math.Pi / 180
		out = append(out,
			Keypoint{Name: side.shoulder, X: sx, Y: shoulderY, Confidence: confidence},
			Keypoint{Name: side.elbow, X: ex, Y: ey, Confidence: confidence},
			Keypoint{Name: side.wrist, X: ex + side.dir*forearmLength*math.Sin(rad), Y: ey - forearmLength*math.Cos(rad), Confidence: confidence},
		)
	}
	return out
}
