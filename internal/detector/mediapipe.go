package detector

import (
	"bufio"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/repsense/internal/pose"
	"github.com/ayusman/repsense/pkg/logger"
)

// ErrServiceNotFound is returned when the pose service script cannot be located.
var ErrServiceNotFound = errors.New("pose_service.py not found")

// blazePoseJoints maps MediaPipe BlazePose landmark indices onto the COCO vocabulary.
var blazePoseJoints = map[int]string{
	0:  pose.Nose,
	2:  pose.LeftEye,
	5:  pose.RightEye,
	7:  pose.LeftEar,
	8:  pose.RightEar,
	11: pose.LeftShoulder,
	12: pose.RightShoulder,
	13: pose.LeftElbow,
	14: pose.RightElbow,
	15: pose.LeftWrist,
	16: pose.RightWrist,
	23: pose.LeftHip,
	24: pose.RightHip,
	25: pose.LeftKnee,
	26: pose.RightKnee,
	27: pose.LeftAnkle,
	28: pose.RightAnkle,
}

// MediaPipeDetector implements Detector using a Python MediaPipe Pose subprocess.
// Frames go out as length-prefixed JPEG; one JSON line comes back per frame.
type MediaPipeDetector struct {
	config     Config
	scriptPath string
	python     string
	log        logger.Logger
	cmd        *exec.Cmd
	stdin      io.WriteCloser
	stdout     *bufio.Reader
	mu         sync.Mutex
	started    bool
	idleTimer  *time.Timer
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started by Warmup or lazily on first detection.
func NewMediaPipeDetector(config Config, log logger.Logger) (*MediaPipeDetector, error) {
	scriptPath := findPoseScript()
	if scriptPath == "" {
		return nil, ErrServiceNotFound
	}
	if log == nil {
		log = logger.Nop()
	}

	python := findVenvPython()
	if python == "" {
		python = "python3"
	}

	return &MediaPipeDetector{
		config:     config,
		scriptPath: scriptPath,
		python:     python,
		log:        log.Named("mediapipe"),
	}, nil
}

// Warmup starts the model process so the first frame does not pay for loading.
func (d *MediaPipeDetector) Warmup(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return d.ensureStarted()
}

// Detect encodes frame, sends it to the service and parses the landmarks.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]pose.Keypoint, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ensureStarted(); err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := d.stdin.Write(length); err != nil {
		return nil, d.restartAfter(fmt.Errorf("write length: %w", err))
	}
	if _, err := d.stdin.Write(data); err != nil {
		return nil, d.restartAfter(fmt.Errorf("write data: %w", err))
	}

	line, err := d.stdout.ReadBytes('\n')
	if err != nil {
		return nil, d.restartAfter(fmt.Errorf("read response: %w", err))
	}

	keypoints, err := parsePoseResponse(line, frame.Cols(), frame.Rows())
	if err != nil {
		return nil, err
	}

	d.resetIdleTimer()

	return keypoints, nil
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shutdown()
}

func (d *MediaPipeDetector) ensureStarted() error {
	if d.started {
		return nil
	}

	d.cmd = exec.Command(d.python, d.scriptPath,
		"--min-detection-confidence", strconv.FormatFloat(d.config.MinDetectionConf, 'f', 2, 64),
		"--min-tracking-confidence", strconv.FormatFloat(d.config.MinTrackingConf, 'f', 2, 64),
	)

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	d.cmd.Stderr = os.Stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("start pose service: %w", err)
	}

	d.stdin = stdin
	d.stdout = bufio.NewReader(stdout)
	d.started = true
	d.log.Info(context.Background(), "pose service started", logger.String("python", d.python))

	return nil
}

func (d *MediaPipeDetector) shutdown() error {
	if !d.started {
		return nil
	}

	if d.idleTimer != nil {
		d.idleTimer.Stop()
		d.idleTimer = nil
	}

	if d.stdin != nil {
		d.stdin.Close()
	}

	err := d.cmd.Wait()
	d.started = false
	d.cmd = nil
	d.stdin = nil
	d.stdout = nil

	return err
}

// restartAfter tears down a broken service so the next Detect launches a new one.
func (d *MediaPipeDetector) restartAfter(cause error) error {
	if err := d.shutdown(); err != nil {
		d.log.Warn(context.Background(), "pose service exited", logger.Error(err))
	}
	return cause
}

func (d *MediaPipeDetector) resetIdleTimer() {
	if d.config.IdleTimeout <= 0 {
		return
	}
	if d.idleTimer != nil {
		d.idleTimer.Stop()
	}
	d.idleTimer = time.AfterFunc(d.config.IdleTimeout, func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if err := d.shutdown(); err != nil {
			d.log.Warn(context.Background(), "pose service exited", logger.Error(err))
		}
	})
}

type poseResponse struct {
	Landmarks []poseLandmark `json:"landmarks"`
	Error     string         `json:"error,omitempty"`
}

// poseLandmark coordinates are normalized to [0,1] by MediaPipe.
type poseLandmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// parsePoseResponse converts one service reply into pixel-space keypoints.
func parsePoseResponse(line []byte, width, height int) ([]pose.Keypoint, error) {
	var resp poseResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("pose service: %s", resp.Error)
	}

	keypoints := make([]pose.Keypoint, 0, len(blazePoseJoints))
	for i, lm := range resp.Landmarks {
		name, ok := blazePoseJoints[i]
		if !ok {
			continue
		}
		keypoints = append(keypoints, pose.Keypoint{
			Name:       name,
			X:          lm.X * float64(width),
			Y:          lm.Y * float64(height),
			Confidence: clamp01(lm.Visibility),
		})
	}

	return keypoints, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func findPoseScript() string {
	return firstExisting(
		"scripts/pose_service.py",
		"../scripts/pose_service.py",
		filepath.Join(executableDir(), "scripts/pose_service.py"),
		filepath.Join(os.Getenv("HOME"), ".repsense/scripts/pose_service.py"),
	)
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	return firstExisting(
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(executableDir(), "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".repsense/venv/bin/python"),
	)
}

func executableDir() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Dir(execPath)
}

func firstExisting(candidates ...string) string {
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			if abs, err := filepath.Abs(path); err == nil {
				return abs
			}
			return path
		}
	}
	return ""
}
