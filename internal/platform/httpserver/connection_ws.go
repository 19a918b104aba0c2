package httpserver

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// upgrader accepts any origin; this process sits behind an authenticated
// edge that already validated the caller's session before reaching here.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	wsHeartbeatInterval = 30 * time.Second
	wsPongWait          = 90 * time.Second
)

// handleUserWebSocket upgrades the connection, registers this server as one
// of the user's live connections for multi-server presence tracking, and
// keeps the registry entry alive with periodic heartbeats
// for as long as the socket stays open. The connection carries no message
// protocol of its own here — delivery of conversation/cycle push events
// rides this same upgrade in a fuller deployment, but presence tracking is
// the concern this endpoint owns.
func (s *Server) handleUserWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user_id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed",
			"event", "ws_upgrade_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"user_id", userID,
			"error", err.Error(),
		)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	if err := s.ConnectionRegistry.Register(ctx, userID, s.ServerID); err != nil {
		s.logger.Error("connection registry register failed",
			"event", "connection_register_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"user_id", userID,
			"error", err.Error(),
		)
		return
	}
	defer func() {
		_ = s.ConnectionRegistry.Unregister(ctx, userID, s.ServerID)
	}()

	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := s.ConnectionRegistry.Heartbeat(ctx, userID, s.ServerID); err != nil {
				s.logger.Warn("connection registry heartbeat failed",
					"event", "connection_heartbeat_failed",
					"module", "internal/platform/httpserver",
					"layer", "platform",
					"user_id", userID,
					"error", err.Error(),
				)
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
