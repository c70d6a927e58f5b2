package pushup

import "time"

// RepCounter is the debounced up/down state machine. A phase change is
// confirmed only once its threshold has been crossed continuously for the hold
// time; a confirmed return to Up after Down is one repetition.
type RepCounter struct {
	hold time.Duration

	state        Phase
	pending      Phase
	pendingSince time.Time
}

// NewRepCounter creates a counter in the Up state.
func NewRepCounter(hold time.Duration) *RepCounter {
	return &RepCounter{hold: hold, state: Up}
}

// State returns the confirmed phase.
func (c *RepCounter) State() Phase {
	return c.state
}

// Pending reports the phase awaiting confirmation, if any.
func (c *RepCounter) Pending() (Phase, bool) {
	return c.pending, c.pending != ""
}

// Update feeds one average elbow angle observed at now and reports whether a
// repetition completed.
func (c *RepCounter) Update(avgAngle float64, now time.Time) bool {
	var target Phase
	switch {
	case c.state == Up && avgAngle < DownAngleThreshold:
		target = Down
	case c.state == Down && avgAngle > UpAngleThreshold:
		target = Up
	}

	if target == "" {
		c.pending = ""
		return false
	}

	if c.pending != target {
		c.pending = target
		c.pendingSince = now
	}

	if now.Sub(c.pendingSince) < c.hold {
		return false
	}

	c.state = target
	c.pending = ""
	return target == Up
}

// Interrupt drops any pending transition.
func (c *RepCounter) Interrupt() {
	c.pending = ""
	c.pendingSince = time.Time{}
}

// Reset returns to Up with nothing pending.
func (c *RepCounter) Reset() {
	c.state = Up
	c.Interrupt()
}
