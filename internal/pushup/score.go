package pushup

import "math"

// Phase is the arm position of a frame or of the rep state machine.
type Phase string

const (
	// Up means arms extended.
	Up Phase = "up"
	// Down means arms bent.
	Down Phase = "down"
)

// Ideal average elbow angles and the score lost per degree away from them.
const (
	idealDownAngle = 90.0
	idealUpAngle   = 180.0
	downPenalty    = 2.0
	upPenalty      = 1.0
)

// CalculateFormScore scores the average elbow angle against the ideal for phase.
// The result is in [0, 100].
func CalculateFormScore(leftAngle, rightAngle float64, phase Phase) float64 {
	avg := (leftAngle + rightAngle) / 2

	var score float64
	if phase == Down {
		score = 100 - math.Abs(avg-idealDownAngle)*downPenalty
	} else {
		score = 100 - math.Abs(avg-idealUpAngle)*upPenalty
	}
	return math.Max(0, math.Min(100, score))
}

// Symmetry returns the absolute difference between the two elbow angles.
func Symmetry(leftAngle, rightAngle float64) float64 {
	return math.Abs(leftAngle - rightAngle)
}

// phaseFor classifies an average angle, keeping current inside the hysteresis band.
func phaseFor(avg float64, current Phase) Phase {
	switch {
	case avg < DownAngleThreshold:
		return Down
	case avg > UpAngleThreshold:
		return Up
	default:
		return current
	}
}
