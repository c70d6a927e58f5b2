package detector

import (
	"sync"

	"gocv.io/x/gocv"

	"github.com/ayusman/repsense/internal/pose"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	keypoints []pose.Keypoint
	err       error
	calls     int
	closed    bool
	mu        sync.Mutex
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetKeypoints sets the keypoints that will be returned by Detect.
func (m *MockDetector) SetKeypoints(keypoints []pose.Keypoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keypoints = keypoints
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Detect returns the pre-configured keypoints or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]pose.Keypoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return pose.Clone(m.keypoints), nil
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Closed reports whether Close was called.
func (m *MockDetector) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close marks the detector closed.
func (m *MockDetector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
