package app

import "errors"

var (
	// ErrSessionActive is returned by Start while a session is running.
	ErrSessionActive = errors.New("app: session already active")

	// ErrNoSession is returned when an operation needs a running session.
	ErrNoSession = errors.New("app: no active session")

	// ErrNotManual is returned by AddManualRep while the engine counts reps.
	ErrNotManual = errors.New("app: session is counted automatically")

	// ErrSessionPaused is returned by AddManualRep while the session is paused.
	ErrSessionPaused = errors.New("app: session is paused")
)
