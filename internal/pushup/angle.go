package pushup

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/repsense/internal/pose"
)

// degenerateNorm is the vector length under which an angle is undefined.
const degenerateNorm = 1e-9

// CalculateAngle returns the angle at vertex b formed by a-b-c, in degrees.
// Overlapping points yield 180.
func CalculateAngle(a, b, c pose.Point) float64 {
	vertex := r2.Vec{X: b.X, Y: b.Y}
	ba := r2.Sub(r2.Vec{X: a.X, Y: a.Y}, vertex)
	bc := r2.Sub(r2.Vec{X: c.X, Y: c.Y}, vertex)

	normBA, normBC := r2.Norm(ba), r2.Norm(bc)
	if normBA < degenerateNorm || normBC < degenerateNorm {
		return 180
	}

	cos := r2.Dot(ba, bc) / (normBA * normBC)
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * 180 / math.Pi
}

// elbowAngles measures both elbows. Callers must have checked the arm joints exist.
func elbowAngles(idx map[string]pose.Keypoint) (left, right float64) {
	left = CalculateAngle(
		idx[pose.LeftShoulder].Point(),
		idx[pose.LeftElbow].Point(),
		idx[pose.LeftWrist].Point(),
	)
	right = CalculateAngle(
		idx[pose.RightShoulder].Point(),
		idx[pose.RightElbow].Point(),
		idx[pose.RightWrist].Point(),
	)
	return left, right
}
