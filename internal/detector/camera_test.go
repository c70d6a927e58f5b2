package detector

import (
	"errors"
	"testing"

	"gocv.io/x/gocv"

	"github.com/ayusman/repsense/internal/capture"
	"github.com/ayusman/repsense/internal/pose"
)

// fakeCamera hands out blank frames without touching a device.
type fakeCamera struct {
	open    bool
	readErr error
	reads   int
}

func (c *fakeCamera) Open() error  { c.open = true; return nil }
func (c *fakeCamera) Close() error { c.open = false; return nil }
func (c *fakeCamera) SetFPS(int)   {}
func (c *fakeCamera) FPS() int     { return capture.DefaultFPS }
func (c *fakeCamera) IsOpen() bool { return c.open }

func (c *fakeCamera) ReadFrame() (*gocv.Mat, error) {
	if !c.open {
		return nil, capture.ErrCameraNotOpen
	}
	if c.readErr != nil {
		return nil, c.readErr
	}
	c.reads++
	mat := gocv.NewMatWithSize(capture.DefaultHeight, capture.DefaultWidth, gocv.MatTypeCV8UC3)
	return &mat, nil
}

func TestCameraSource(t *testing.T) {
	t.Run("implements Source", func(t *testing.T) {
		var _ pose.Source = (*CameraSource)(nil)
	})

	t.Run("returns detector output per frame", func(t *testing.T) {
		cam := &fakeCamera{}
		det := NewMockDetector()
		det.SetKeypoints(pose.ArmKeypoints(120, 125, 0.85))
		src := NewCameraSource(cam, det)

		if err := src.Open(); err != nil {
			t.Fatalf("Open() error = %v", err)
		}

		keypoints, err := src.Next()
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if len(keypoints) != 6 {
			t.Errorf("expected 6 keypoints, got %d", len(keypoints))
		}
		if cam.reads != 1 || det.Calls() != 1 {
			t.Errorf("expected one read and one detection, got %d and %d", cam.reads, det.Calls())
		}
	})

	t.Run("camera errors are wrapped", func(t *testing.T) {
		src := NewCameraSource(&fakeCamera{}, NewMockDetector())

		_, err := src.Next()
		if !errors.Is(err, capture.ErrCameraNotOpen) {
			t.Errorf("expected ErrCameraNotOpen, got %v", err)
		}
	})

	t.Run("detector errors are wrapped", func(t *testing.T) {
		boom := errors.New("inference failed")
		det := NewMockDetector()
		det.SetError(boom)
		src := NewCameraSource(&fakeCamera{open: true}, det)

		if _, err := src.Next(); !errors.Is(err, boom) {
			t.Errorf("expected wrapped detector error, got %v", err)
		}
	})

	t.Run("Close releases camera and detector", func(t *testing.T) {
		cam := &fakeCamera{open: true}
		det := NewMockDetector()
		src := NewCameraSource(cam, det)

		if err := src.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if cam.IsOpen() || !det.Closed() {
			t.Error("expected camera and detector to be closed")
		}
	})
}
