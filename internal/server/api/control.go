package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/ayusman/repsense/internal/app"
	"github.com/ayusman/repsense/internal/store"
)

// Controller drives the live session. *app.App implements it.
type Controller interface {
	Status() app.Status
	Start(ctx context.Context) (*store.Session, error)
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) (*store.Session, error)
	AddManualRep(ctx context.Context) (int, error)
}

// ControlHandler serves /api/session and its actions.
type ControlHandler struct {
	ctrl Controller
}

// NewControlHandler creates a new ControlHandler.
func NewControlHandler(ctrl Controller) *ControlHandler {
	return &ControlHandler{ctrl: ctrl}
}

type manualRepResponse struct {
	Count int `json:"count"`
}

// ServeHTTP handles GET /api/session and POST /api/session/{start,pause,resume,stop,rep}.
func (h *ControlHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/session"), "/")

	if action == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, h.ctrl.Status())
		return
	}

	switch action {
	case "start", "pause", "resume", "stop", "rep":
	default:
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	var err error
	switch action {
	case "start":
		var session *store.Session
		if session, err = h.ctrl.Start(ctx); err == nil {
			writeJSON(w, http.StatusCreated, session)
			return
		}
	case "pause":
		err = h.ctrl.Pause(ctx)
	case "resume":
		err = h.ctrl.Resume(ctx)
	case "stop":
		var session *store.Session
		if session, err = h.ctrl.Stop(ctx); err == nil {
			writeJSON(w, http.StatusOK, session)
			return
		}
	case "rep":
		var count int
		if count, err = h.ctrl.AddManualRep(ctx); err == nil {
			writeJSON(w, http.StatusOK, manualRepResponse{Count: count})
			return
		}
	}

	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.ctrl.Status())
}

// statusFor maps session errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrSessionActive),
		errors.Is(err, app.ErrNoSession),
		errors.Is(err, app.ErrNotManual),
		errors.Is(err, app.ErrSessionPaused):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
