package pushup

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// SessionStats summarises a session so far.
type SessionStats struct {
	TotalPushups           int     `json:"totalPushups"`
	AvgFormScore           float64 `json:"avgFormScore"`
	BestFormScore          float64 `json:"bestFormScore"`
	SessionDurationSeconds float64 `json:"sessionDurationSeconds"`
	CaloriesBurned         float64 `json:"caloriesBurned"`
}

// summarize builds stats from per-rep scores.
func summarize(count int, repScores []float64, durationSeconds float64) SessionStats {
	stats := SessionStats{
		TotalPushups:           count,
		SessionDurationSeconds: durationSeconds,
		CaloriesBurned:         float64(count) * CaloriesPerRep,
	}
	if len(repScores) > 0 {
		stats.AvgFormScore = stat.Mean(repScores, nil)
		stats.BestFormScore = floats.Max(repScores)
	}
	return stats
}
