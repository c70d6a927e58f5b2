package pose

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestOpenReplay(t *testing.T) {
	src, err := OpenReplay("testdata/short_recording.jsonl", false)
	if err != nil {
		t.Fatalf("OpenReplay() error = %v", err)
	}

	if src.Len() != 3 {
		t.Fatalf("expected 3 frames (blank lines skipped), got %d", src.Len())
	}

	first, _ := src.Next()
	if len(first) != 3 || first[1].Name != LeftElbow {
		t.Errorf("unexpected first frame: %+v", first)
	}

	empty, err := src.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty frame, got %+v", empty)
	}

	src.Next()
	if _, err := src.Next(); !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("expected ErrSourceExhausted after last frame, got %v", err)
	}
}

func TestOpenReplay_MissingFile(t *testing.T) {
	if _, err := OpenReplay("testdata/does_not_exist.jsonl", false); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReplaySource_Loop(t *testing.T) {
	src, err := NewReplaySource(strings.NewReader(`[{"name":"nose","x":1,"y":2,"confidence":1}]`+"\n"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		frame, err := src.Next()
		if err != nil {
			t.Fatalf("iteration %d: unexpected error: %v", i, err)
		}
		if frame[0].Name != Nose {
			t.Errorf("iteration %d: unexpected frame %+v", i, frame)
		}
	}
}

func TestReplaySource_Empty(t *testing.T) {
	src, err := NewReplaySource(strings.NewReader(""), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := src.Next(); !errors.Is(err, ErrSourceExhausted) {
		t.Errorf("expected ErrSourceExhausted for empty loop, got %v", err)
	}
}

func TestReplaySource_BadLine(t *testing.T) {
	_, err := NewReplaySource(strings.NewReader("[]\n{not json}\n"), false)
	if err == nil {
		t.Fatal("expected parse error")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected error to name line 2, got %v", err)
	}
}

func TestRecorder_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	synthetic := NewSyntheticSource(SyntheticConfig{MaxFrames: 5})
	recording := RecordingSource{Source: synthetic, Recorder: NewRecorder(&buf)}

	var want [][]Keypoint
	for {
		frame, err := recording.Next()
		if errors.Is(err, ErrSourceExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want = append(want, frame)
	}

	replay, err := NewReplaySource(&buf, false)
	if err != nil {
		t.Fatalf("NewReplaySource() error = %v", err)
	}
	if replay.Len() != len(want) {
		t.Fatalf("expected %d frames, got %d", len(want), replay.Len())
	}

	for i := range want {
		got, _ := replay.Next()
		for j := range want[i] {
			if got[j] != want[i][j] {
				t.Fatalf("frame %d keypoint %d: got %+v, want %+v", i, j, got[j], want[i][j])
			}
		}
	}
}

func TestRecorder_NilFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := NewRecorder(&buf).Record(nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := buf.String(); got != "[]\n" {
		t.Errorf("expected empty array line, got %q", got)
	}
}
