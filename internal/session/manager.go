package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiqmontajes/quotechat/internal/domain"
	"github.com/kiqmontajes/quotechat/internal/engine"
	"github.com/kiqmontajes/quotechat/internal/shared"
	"github.com/kiqmontajes/quotechat/internal/store"
	"github.com/kiqmontajes/quotechat/internal/transcript"
)

// CreateParams is the engine's construction surface, provided by the
// hosting page when a session is created.
type CreateParams struct {
	Mode            domain.Mode
	InitialUserName string
	InitialPrompt   string
	Token           string
}

// Manager owns every live session and the dependencies their effect
// execution needs.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	quotes     QuoteService
	identities IdentityService
	repo       store.Repository
	notifier   Notifier
	maxTyping  time.Duration
}

// NewManager creates a session manager. repo and notifier may be nil;
// maxTyping caps the cosmetic typing pauses (0 disables them).
func NewManager(quotes QuoteService, identities IdentityService, repo store.Repository, maxTyping time.Duration) *Manager {
	return &Manager{
		sessions:   make(map[string]*Session),
		quotes:     quotes,
		identities: identities,
		repo:       repo,
		maxTyping:  maxTyping,
	}
}

// SetNotifier registers the presentation-layer notifier.
func (m *Manager) SetNotifier(n Notifier) {
	m.notifier = n
}

// Create starts a new conversation and runs its greeting.
func (m *Manager) Create(ctx context.Context, params CreateParams) (*Session, error) {
	if params.Mode == "" {
		params.Mode = domain.ModePublic
	}

	state, effects := engine.Init(engine.Config{
		Mode:            params.Mode,
		InitialUserName: params.InitialUserName,
		InitialPrompt:   params.InitialPrompt,
	})
	state.Token = params.Token

	s := &Session{
		ID:         uuid.NewString(),
		state:      state,
		transcript: transcript.New(),
		mgr:        m,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	if err := s.start(ctx, effects); err != nil {
		return nil, err
	}
	slog.Info("Session created", "session_id", s.ID, "mode", params.Mode)
	return s, nil
}

// Get returns the live session, resuming it from the repository if the
// process restarted since it was last touched.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if ok {
		return s, nil
	}
	return m.resume(ctx, sessionID)
}

func (m *Manager) resume(ctx context.Context, sessionID string) (*Session, error) {
	if m.repo == nil {
		return nil, nil
	}

	snap, err := m.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", sessionID, err)
	}
	if snap == nil {
		return nil, nil
	}

	var state engine.State
	if err := json.Unmarshal([]byte(snap.StateJSON), &state); err != nil {
		return nil, fmt.Errorf("decode session state %s: %w", sessionID, err)
	}
	tr := transcript.New()
	if err := tr.Restore([]byte(snap.TranscriptJSON)); err != nil {
		return nil, fmt.Errorf("decode transcript %s: %w", sessionID, err)
	}

	s := &Session{ID: sessionID, state: state, transcript: tr, mgr: m}

	m.mu.Lock()
	// Another request may have resumed it concurrently; keep the winner.
	if existing, ok := m.sessions[sessionID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.sessions[sessionID] = s
	m.mu.Unlock()

	slog.Info("Session resumed from store", "session_id", sessionID, "stage", snap.Stage)
	return s, nil
}

// Remove drops a session from the registry and the repository.
func (m *Manager) Remove(ctx context.Context, sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if m.repo != nil {
		if err := m.repo.DeleteSession(ctx, sessionID); err != nil {
			slog.Warn("Failed to delete session snapshot", "session_id", sessionID, "error", err)
		}
	}
}

// typingPause sleeps for the cosmetic typing delay, capped by the
// configured maximum. It never gates correctness.
func (m *Manager) typingPause(ctx context.Context, d time.Duration) {
	if m.maxTyping <= 0 {
		return
	}
	if d > m.maxTyping {
		d = m.maxTyping
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

// upsertWithRetry persists a snapshot with exponential backoff to
// handle SQLITE_BUSY under concurrent sessions.
func upsertWithRetry(ctx context.Context, repo store.Repository, snap *domain.SessionSnapshot) error {
	maxRetries := 3
	baseDelay := 50 * time.Millisecond

	var err error
	for i := 0; i < maxRetries; i++ {
		err = repo.UpsertSession(ctx, snap)
		if err == nil {
			return nil
		}
		if !shared.IsSQLiteConflictError(err) {
			return err
		}
		if i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("Session upsert hit SQLITE_BUSY, retrying",
				"session_id", snap.SessionID,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
		}
	}
	return err
}
