// Package stream pushes transcript updates to the hosting page over
// WebSocket.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/kiqmontajes/quotechat/internal/domain"
)

// Event is one frame of the transcript feed.
type Event struct {
	Type    string          `json:"type"`
	Message *domain.Message `json:"message,omitempty"`
	Options []domain.Option `json:"options,omitempty"`
}

// Conn wraps a websocket connection with a write lock, since frames
// originate from both the read-side snapshot and transcript listeners.
type Conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *Conn) writeJSON(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.Write(context.Background(), websocket.MessageText, payload)
}

// Hub manages the active feed connection per session. It doubles as
// the session notifier: engine-level notifications become frames.
type Hub struct {
	mu     sync.RWMutex
	active map[string]*Conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{active: make(map[string]*Conn)}
}

// Register adds a feed connection for a session, replacing any
// previous one.
func (h *Hub) Register(sessionID string, ws *websocket.Conn) *Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.active[sessionID]; ok && existing.ws != ws {
		_ = existing.ws.Close(websocket.StatusNormalClosure, "session replaced")
	}
	c := &Conn{ws: ws}
	h.active[sessionID] = c
	slog.Info("Feed connected", "session_id", sessionID)
	return c
}

// Unregister removes a feed connection if it is still the active one.
func (h *Hub) Unregister(sessionID string, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.active[sessionID]; ok && current == c {
		delete(h.active, sessionID)
		slog.Info("Feed disconnected", "session_id", sessionID)
	}
}

// CloseSession terminates the feed for a session, for TTL cleanup.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.active[sessionID]; ok {
		_ = c.ws.Close(websocket.StatusNormalClosure, "session closed")
		delete(h.active, sessionID)
	}
}

func (h *Hub) send(sessionID string, ev Event) {
	h.mu.RLock()
	c, ok := h.active[sessionID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	if err := c.writeJSON(ev); err != nil {
		slog.Debug("Feed write failed", "session_id", sessionID, "error", err)
	}
}

// OpenFilePicker implements session.Notifier.
func (h *Hub) OpenFilePicker(sessionID string) {
	h.send(sessionID, Event{Type: "open_file_picker"})
}

// PublishSuccess implements session.Notifier.
func (h *Hub) PublishSuccess(sessionID string) {
	h.send(sessionID, Event{Type: "publish_success"})
}

// TranscriptReset implements session.Notifier.
func (h *Hub) TranscriptReset(sessionID string) {
	h.send(sessionID, Event{Type: "restart"})
}

// Listener returns a transcript listener that forwards mutations of
// one session's transcript to its feed.
func (h *Hub) Listener(sessionID string) *TranscriptListener {
	return &TranscriptListener{hub: h, sessionID: sessionID}
}

// TranscriptListener forwards transcript mutations as feed frames.
type TranscriptListener struct {
	hub       *Hub
	sessionID string
}

// MessageAppended implements transcript.Listener.
func (l *TranscriptListener) MessageAppended(msg domain.Message) {
	l.hub.send(l.sessionID, Event{Type: "message", Message: &msg})
}

// OptionsChanged implements transcript.Listener.
func (l *TranscriptListener) OptionsChanged(opts []domain.Option) {
	l.hub.send(l.sessionID, Event{Type: "options", Options: opts})
}
