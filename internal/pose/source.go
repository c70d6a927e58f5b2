package pose

import "errors"

// ErrSourceExhausted is returned by Next when a finite source has no more frames.
var ErrSourceExhausted = errors.New("keypoint source exhausted")

// Source produces one set of keypoints per video frame.
type Source interface {
	// Next returns the keypoints for the next frame. An empty slice means
	// nobody was detected in the frame.
	Next() ([]Keypoint, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func() ([]Keypoint, error)

// Next calls f.
func (f SourceFunc) Next() ([]Keypoint, error) {
	return f()
}
