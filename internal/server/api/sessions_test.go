package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/ayusman/repsense/internal/store"
)

// newTestStore creates a new Store with a temporary database for testing.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// seed stores a finished session with the given rep scores.
func seed(t *testing.T, s *store.Store, id string, started time.Time, scores ...float64) {
	t.Helper()

	session := &store.Session{ID: id, Source: "synthetic", StartedAt: started}
	if err := s.Sessions().Create(session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	for i, score := range scores {
		rep := &store.Rep{SessionID: id, Number: i + 1, FormScore: score, CompletedAt: started.Add(time.Duration(i+1) * 2 * time.Second)}
		if err := s.Reps().Add(rep); err != nil {
			t.Fatalf("failed to add rep: %v", err)
		}
	}
	ended := started.Add(time.Minute)
	session.EndedAt = &ended
	session.TotalPushups = len(scores)
	if err := s.Sessions().Finish(session); err != nil {
		t.Fatalf("failed to finish session: %v", err)
	}
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestSessionHandler_List(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 5, 4, 6, 0, 0, 0, time.UTC)
	seed(t, s, "monday", base, 90)
	seed(t, s, "tuesday", base.Add(24*time.Hour), 80, 85)
	seed(t, s, "wednesday", base.Add(48*time.Hour))
	handler := NewSessionHandler(s)

	t.Run("newest first", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected Content-Type application/json, got %s", ct)
		}

		var response listSessionsResponse
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}

		var ids []string
		for _, session := range response.Sessions {
			ids = append(ids, session.ID)
		}
		if diff := cmp.Diff([]string{"wednesday", "tuesday", "monday"}, ids); diff != "" {
			t.Errorf("session order mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("limit", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions?limit=1")

		var response listSessionsResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if len(response.Sessions) != 1 || response.Sessions[0].ID != "wednesday" {
			t.Errorf("expected only the newest session, got %+v", response.Sessions)
		}
	})

	t.Run("invalid limit", func(t *testing.T) {
		for _, target := range []string{"/api/sessions?limit=abc", "/api/sessions?limit=-1", "/api/sessions?limit=0"} {
			if rec := serve(handler, http.MethodGet, target); rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected status %d, got %d", target, http.StatusBadRequest, rec.Code)
			}
		}
	})

	t.Run("empty store returns an empty list", func(t *testing.T) {
		rec := serve(NewSessionHandler(newTestStore(t)), http.MethodGet, "/api/sessions")
		if diff := cmp.Diff(`{"sessions":[]}`+"\n", rec.Body.String()); diff != "" {
			t.Errorf("body mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rejects writes", func(t *testing.T) {
		if rec := serve(handler, http.MethodPost, "/api/sessions"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestSessionHandler_Get(t *testing.T) {
	s := newTestStore(t)
	started := time.Date(2026, 5, 4, 6, 0, 0, 0, time.UTC)
	seed(t, s, "morning", started, 92.5, 88)
	handler := NewSessionHandler(s)

	t.Run("includes reps", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions/morning")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response struct {
			ID           string      `json:"id"`
			TotalPushups int         `json:"totalPushups"`
			Reps         []store.Rep `json:"reps"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if response.ID != "morning" || response.TotalPushups != 2 {
			t.Errorf("unexpected session: %+v", response)
		}

		var scores []float64
		for _, rep := range response.Reps {
			scores = append(scores, rep.FormScore)
		}
		if diff := cmp.Diff([]float64{92.5, 88}, scores); diff != "" {
			t.Errorf("rep scores mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("reps sub-resource", func(t *testing.T) {
		rec := serve(handler, http.MethodGet, "/api/sessions/morning/reps")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}

		var response listRepsResponse
		json.NewDecoder(rec.Body).Decode(&response)
		if len(response.Reps) != 2 || response.Reps[1].Number != 2 {
			t.Errorf("unexpected reps: %+v", response.Reps)
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		for _, target := range []string{"/api/sessions/evening", "/api/sessions/evening/reps"} {
			rec := serve(handler, http.MethodGet, target)
			if rec.Code != http.StatusNotFound {
				t.Errorf("%s: expected status %d, got %d", target, http.StatusNotFound, rec.Code)
			}
			if diff := cmp.Diff(`{"error":"Session not found"}`+"\n", rec.Body.String()); diff != "" {
				t.Errorf("%s: body mismatch (-want +got):\n%s", target, diff)
			}
		}
	})

	t.Run("unknown sub-resource", func(t *testing.T) {
		if rec := serve(handler, http.MethodGet, "/api/sessions/morning/frames"); rec.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		if rec := serve(handler, http.MethodPut, "/api/sessions/morning"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
		if rec := serve(handler, http.MethodDelete, "/api/sessions/morning/reps"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
		}
	})
}

func TestSessionHandler_Delete(t *testing.T) {
	s := newTestStore(t)
	seed(t, s, "morning", time.Date(2026, 5, 4, 6, 0, 0, 0, time.UTC), 90)
	handler := NewSessionHandler(s)

	if rec := serve(handler, http.MethodDelete, "/api/sessions/morning"); rec.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	if _, err := s.Sessions().GetByID("morning"); err != store.ErrNotFound {
		t.Errorf("expected session to be gone, got %v", err)
	}
	if rec := serve(handler, http.MethodDelete, "/api/sessions/morning"); rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestStatsHandler(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 5, 4, 6, 0, 0, 0, time.UTC)
	seed(t, s, "a", base, 90, 80)
	seed(t, s, "b", base.Add(time.Hour), 70)
	handler := NewStatsHandler(s)

	rec := serve(handler, http.MethodGet, "/api/stats")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var got store.Totals
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := store.Totals{Sessions: 2, Pushups: 3}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("totals mismatch (-want +got):\n%s", diff)
	}

	if rec := serve(handler, http.MethodPost, "/api/stats"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}
