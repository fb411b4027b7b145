package stream

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/kiqmontajes/quotechat/internal/session"
)

// WebSocketHandler upgrades feed connections and replays the current
// transcript before streaming live updates.
type WebSocketHandler struct {
	hub           *Hub
	sessions      *session.Manager
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates the feed handler.
func NewWebSocketHandler(hub *Hub, sessions *session.Manager, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		sessions:      sessions,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		http.Error(w, "session_id required", http.StatusBadRequest)
		return
	}

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	sess, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to load session for feed", "session_id", sessionID, "error", err)
		http.Error(w, "session lookup failed", http.StatusInternalServerError)
		return
	}
	if sess == nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	conn := h.hub.Register(sessionID, ws)
	defer h.hub.Unregister(sessionID, conn)

	// Live updates flow through the transcript listener from here on.
	sess.Transcript().SetListener(h.hub.Listener(sessionID))

	// Replay the transcript so a reconnecting client resumes mid-wizard.
	for _, msg := range sess.Transcript().Messages() {
		m := msg
		if err := conn.writeJSON(Event{Type: "message", Message: &m}); err != nil {
			return
		}
	}
	if opts := sess.Transcript().Options(); len(opts) > 0 {
		if err := conn.writeJSON(Event{Type: "options", Options: opts}); err != nil {
			return
		}
	}

	h.readLoop(r.Context(), ws, sessionID)
}

// readLoop drains client frames until the connection closes. The feed
// is one-directional; inputs arrive over the REST surface.
func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, sessionID string) {
	for {
		if _, _, err := ws.Read(ctx); err != nil {
			slog.Debug("Feed read loop ended", "session_id", sessionID, "error", err)
			return
		}
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	return origin == h.allowedOrigin
}
