package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiqmontajes/quotechat/internal/domain"
	"github.com/kiqmontajes/quotechat/internal/engine"
	"github.com/kiqmontajes/quotechat/internal/session"
)

// Upload limits for the image intake endpoint.
const (
	maxImageCount = 6
	maxImageBytes = 5 << 20
)

// ChatHandler exposes the conversation engine over REST.
type ChatHandler struct {
	sessions *session.Manager
}

// NewChatHandler creates the REST handler for conversations.
func NewChatHandler(sessions *session.Manager) *ChatHandler {
	return &ChatHandler{sessions: sessions}
}

// RegisterRoutes registers conversation routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", h.CreateSession)
		r.Get("/{sessionID}", h.GetSession)
		r.Post("/{sessionID}/message", h.PostMessage)
		r.Post("/{sessionID}/option", h.PostOption)
		r.Post("/{sessionID}/images", h.PostImages)
		r.Post("/{sessionID}/restart", h.Restart)
	})
}

// sessionView is the response shape shared by all conversation routes.
type sessionView struct {
	SessionID string           `json:"session_id"`
	Stage     string           `json:"stage"`
	Messages  []domain.Message `json:"messages"`
	Options   []domain.Option  `json:"options"`
}

func viewOf(s *session.Session) sessionView {
	return sessionView{
		SessionID: s.ID,
		Stage:     string(s.State().Stage),
		Messages:  s.Transcript().Messages(),
		Options:   s.Transcript().Options(),
	}
}

type createSessionRequest struct {
	Mode            string `json:"mode"`
	InitialUserName string `json:"initial_user_name"`
	InitialPrompt   string `json:"initial_prompt"`
	Token           string `json:"token"`
}

// CreateSession starts a new conversation.
func (h *ChatHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	mode := domain.Mode(req.Mode)
	switch mode {
	case "", domain.ModePublic, domain.ModeAuthenticated:
	default:
		Error(w, http.StatusBadRequest, "invalid mode")
		return
	}

	s, err := h.sessions.Create(r.Context(), session.CreateParams{
		Mode:            mode,
		InitialUserName: req.InitialUserName,
		InitialPrompt:   req.InitialPrompt,
		Token:           req.Token,
	})
	if err != nil {
		slog.Error("Failed to create session", "error", err)
		Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	JSON(w, http.StatusCreated, viewOf(s))
}

// GetSession returns the current transcript and stage.
func (h *ChatHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, viewOf(s))
}

type textRequest struct {
	Text string `json:"text"`
}

// PostMessage submits free-text input.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	h.handle(w, r, s, engine.TextSubmitted{Text: req.Text})
}

type optionRequest struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// PostOption submits a quick-reply click. The click is only accepted
// when the option is among those currently offered.
func (h *ChatHandler) PostOption(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req optionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	offered := false
	for _, opt := range s.Transcript().Options() {
		if opt.Value == req.Value {
			offered = true
			if req.Label == "" {
				req.Label = opt.Label
			}
			break
		}
	}
	if !offered {
		Error(w, http.StatusConflict, "option not currently offered")
		return
	}

	h.handle(w, r, s, engine.OptionSelected{Option: domain.Option{Label: req.Label, Value: req.Value}})
}

// PostImages delivers files chosen in the file picker. An empty upload
// reports the picker was abandoned, which changes nothing.
func (h *ChatHandler) PostImages(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxImageCount * maxImageBytes); err != nil {
		Error(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	files := r.MultipartForm.File["imagen"]
	if len(files) == 0 {
		h.handle(w, r, s, engine.FilePickerCancelled{})
		return
	}
	if len(files) > maxImageCount {
		Error(w, http.StatusBadRequest, "too many images")
		return
	}

	images := make([]domain.ImageUpload, 0, len(files))
	for _, fh := range files {
		if fh.Size > maxImageBytes {
			Error(w, http.StatusBadRequest, "image too large")
			return
		}
		f, err := fh.Open()
		if err != nil {
			Error(w, http.StatusBadRequest, "unreadable image")
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, maxImageBytes+1))
		_ = f.Close()
		if err != nil || int64(len(data)) > maxImageBytes {
			Error(w, http.StatusBadRequest, "unreadable image")
			return
		}
		images = append(images, domain.ImageUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	h.handle(w, r, s, engine.ImagesAttached{Images: images})
}

// Restart resets the wizard to its initial greeting from any stage.
func (h *ChatHandler) Restart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.handle(w, r, s, engine.RestartRequested{})
}

func (h *ChatHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := chi.URLParam(r, "sessionID")
	s, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to load session", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "session lookup failed")
		return nil, false
	}
	if s == nil {
		Error(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func (h *ChatHandler) handle(w http.ResponseWriter, r *http.Request, s *session.Session, ev engine.Event) {
	if err := s.Handle(r.Context(), ev); err != nil {
		slog.Error("Failed to apply event", "session_id", s.ID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to process input")
		return
	}
	JSON(w, http.StatusOK, viewOf(s))
}
