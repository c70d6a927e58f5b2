package detector

import (
	"fmt"

	"github.com/ayusman/repsense/internal/capture"
	"github.com/ayusman/repsense/internal/pose"
)

// CameraSource reads webcam frames and runs them through a Detector. It
// implements pose.Source.
type CameraSource struct {
	camera   capture.Camera
	detector Detector
}

// NewCameraSource pairs a camera with a detector.
func NewCameraSource(camera capture.Camera, detector Detector) *CameraSource {
	return &CameraSource{camera: camera, detector: detector}
}

// Open opens the underlying camera.
func (s *CameraSource) Open() error {
	return s.camera.Open()
}

// Next captures one frame and returns the detected keypoints.
func (s *CameraSource) Next() ([]pose.Keypoint, error) {
	frame, err := s.camera.ReadFrame()
	if err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	keypoints, err := s.detector.Detect(frame)
	if err != nil {
		return nil, fmt.Errorf("detect pose: %w", err)
	}
	return keypoints, nil
}

// Close releases the camera and the detector.
func (s *CameraSource) Close() error {
	camErr := s.camera.Close()
	detErr := s.detector.Close()
	if camErr != nil {
		return camErr
	}
	return detErr
}
