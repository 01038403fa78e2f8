package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/hireloop/interview-backend-go/internal/domain/session"
)

const (
	// pongWait bounds how long we keep a silent connection; the client
	// must answer pings (or send heartbeat frames) within it.
	pongWait   = 60 * time.Second
	pingPeriod = 25 * time.Second
	writeWait  = 10 * time.Second
)

// LiveHandler carries a candidate's live connection during an active
// session. Every frame the client sends refreshes the session heartbeat;
// the periodic evaluators retire the session once frames stop arriving.
type LiveHandler struct {
	sessionService session.SessionService
	upgrader       websocket.Upgrader
}

func NewLiveHandler(sessionService session.SessionService, allowedOrigin string) *LiveHandler {
	return &LiveHandler{
		sessionService: sessionService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// Serve upgrades the connection for the session identified by its token
func (h *LiveHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		http.Error(w, "token is required", http.StatusBadRequest)
		return
	}

	sess, err := h.sessionService.GetByToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to resolve session", http.StatusInternalServerError)
		return
	}

	if sess.Status != session.StatusActive {
		http.Error(w, "session is not active", http.StatusConflict)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("WebSocket upgrade failed", "session_id", sess.ID, "error", err)
		return
	}

	slog.Info("Live connection opened", "session_id", sess.ID)
	go h.pingLoop(conn, sess.ID)
	h.readLoop(conn, sess.ID)
}

// readLoop refreshes the session heartbeat for every inbound frame and
// closes once the session leaves the active status
func (h *LiveHandler) readLoop(conn *websocket.Conn, sessionID string) {
	defer func() {
		conn.Close()
		slog.Info("Live connection closed", "session_id", sessionID)
	}()

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("Live connection read error", "session_id", sessionID, "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := h.sessionService.Heartbeat(ctx, sessionID)
		cancel()
		if err != nil {
			if errors.Is(err, session.ErrSessionNotActive) {
				deadline := time.Now().Add(writeWait)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended"),
					deadline)
				return
			}
			slog.Error("Failed to record heartbeat", "session_id", sessionID, "error", err)
		}
	}
}

// pingLoop keeps the connection alive from the server side
func (h *LiveHandler) pingLoop(conn *websocket.Conn, sessionID string) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for range ticker.C {
		deadline := time.Now().Add(writeWait)
		if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			return
		}
	}
}
