package pose

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
)

// ReplaySource plays back keypoint frames recorded as JSON Lines, one JSON
// array of keypoints per line.
type ReplaySource struct {
	frames [][]Keypoint
	index  int
	loop   bool
	mu     sync.Mutex
}

// NewReplaySource reads every frame from r.
func NewReplaySource(r io.Reader, loop bool) (*ReplaySource, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var frames [][]Keypoint
	line := 0
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}

		var frame []Keypoint
		if err := json.Unmarshal(data, &frame); err != nil {
			return nil, fmt.Errorf("parse frame on line %d: %w", line, err)
		}
		frames = append(frames, frame)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read recording: %w", err)
	}

	return &ReplaySource{frames: frames, loop: loop}, nil
}

// OpenReplay loads a recording from disk.
func OpenReplay(path string, loop bool) (*ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	return NewReplaySource(f, loop)
}

// Next returns the next recorded frame.
func (s *ReplaySource) Next() ([]Keypoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.frames) == 0 {
		return nil, ErrSourceExhausted
	}

	if s.index >= len(s.frames) {
		if !s.loop {
			return nil, ErrSourceExhausted
		}
		s.index = 0
	}

	frame := Clone(s.frames[s.index])
	s.index++
	return frame, nil
}

// Len returns the number of recorded frames.
func (s *ReplaySource) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// Recorder writes keypoint frames in the format ReplaySource reads.
type Recorder struct {
	enc *json.Encoder
	mu  sync.Mutex
}

// NewRecorder creates a Recorder writing to w.
func NewRecorder(w io.Writer) *Recorder {
	return &Recorder{enc: json.NewEncoder(w)}
}

// Record appends one frame.
func (r *Recorder) Record(keypoints []Keypoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if keypoints == nil {
		keypoints = []Keypoint{}
	}
	return r.enc.Encode(keypoints)
}

// RecordingSource wraps a Source and records every frame it yields.
type RecordingSource struct {
	Source   Source
	Recorder *Recorder
}

// Next forwards to the wrapped source and records the result.
func (s RecordingSource) Next() ([]Keypoint, error) {
	keypoints, err := s.Source.Next()
	if err != nil {
		return nil, err
	}
	if err := s.Recorder.Record(keypoints); err != nil {
		return nil, fmt.Errorf("record frame: %w", err)
	}
	return keypoints, nil
}
