package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/repsense/internal/app"
	"github.com/ayusman/repsense/pkg/logger"
)

const (
	writeWait      = 5 * time.Second
	liveBufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Subscriber is the part of *app.App the live stream needs.
type Subscriber interface {
	Subscribe(buffer int) (<-chan app.Update, func())
	Status() app.Status
}

// LiveHandler streams session updates (frame metrics, reps and lifecycle
// changes) to WebSocket clients as JSON messages.
type LiveHandler struct {
	source Subscriber
	log    logger.Logger
}

// NewLiveHandler creates a new LiveHandler.
func NewLiveHandler(source Subscriber, log logger.Logger) *LiveHandler {
	return &LiveHandler{source: source, log: log}
}

// ServeHTTP upgrades the request and forwards updates until the client leaves.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(r.Context(), "websocket upgrade error", logger.Error(err))
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.source.Subscribe(liveBufferSize)
	defer unsubscribe()

	// Reading is only used to notice the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	status := h.source.Status()
	if err := h.write(conn, app.Update{Kind: app.UpdateSession, Count: status.Stats.TotalPushups, Status: &status}); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if err := h.write(conn, u); err != nil {
				h.log.Debug(context.Background(), "live client write failed", logger.Error(err))
				return
			}
		}
	}
}

func (h *LiveHandler) write(conn *websocket.Conn, u app.Update) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(u)
}
