package pushup

// Coaching messages, in priority order.
const (
	MsgPositionInFrame = "Position yourself clearly in frame"
	MsgKeepSymmetric   = "Keep both arms moving equally"
	MsgBendMore        = "Try bending your arms more"
	MsgGoLower         = "Go lower for full pushup"
	MsgExtendFully     = "Extend arms fully at the top"
	MsgGreatForm       = "Great form! Keep it up!"
)

// Angle above which the arms are considered locked straight for the whole rep.
const straightArmAngle = 175.0

// GenerateFeedback returns coaching messages for one frame. Poor visibility
// suppresses every other check.
func GenerateFeedback(leftAngle, rightAngle, symmetry, visibility float64) []string {
	if visibility < MinVisibility {
		return []string{MsgPositionInFrame}
	}

	var feedback []string
	if symmetry > SymmetryThreshold {
		feedback = append(feedback, MsgKeepSymmetric)
	}

	avg := (leftAngle + rightAngle) / 2
	if avg > straightArmAngle {
		feedback = append(feedback, MsgBendMore)
	} else if avg > 0 && avg < 90 {
		feedback = append(feedback, MsgGoLower)
	}

	if avg < UpAngleThreshold {
		feedback = append(feedback, MsgExtendFully)
	}

	if len(feedback) == 0 {
		return []string{MsgGreatForm}
	}
	return feedback
}
