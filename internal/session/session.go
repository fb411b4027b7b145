package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kiqmontajes/quotechat/internal/domain"
	"github.com/kiqmontajes/quotechat/internal/engine"
	"github.com/kiqmontajes/quotechat/internal/transcript"
)

// Session is one live conversation. All event application is
// serialized through its mutex: the engine's single-threaded event
// model holds because a second submission blocks until the first,
// including its network call, has completed.
type Session struct {
	ID string

	mu         sync.Mutex
	state      engine.State
	transcript *transcript.Store
	mgr        *Manager
}

// State returns a copy of the current engine state.
func (s *Session) State() engine.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcript returns the session's transcript store.
func (s *Session) Transcript() *transcript.Store {
	return s.transcript
}

// Handle applies one event and executes every effect it produces,
// including the follow-up events of synchronous network calls.
func (s *Session) Handle(ctx context.Context, ev engine.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.apply(ctx, ev)
	return s.persist(ctx)
}

// start runs the initial greeting effects for a fresh session.
func (s *Session) start(ctx context.Context, effects []engine.Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.execute(ctx, effects)
	return s.persist(ctx)
}

func (s *Session) apply(ctx context.Context, ev engine.Event) {
	next, effects := engine.Reduce(s.state, ev)
	s.state = next
	s.execute(ctx, effects)
}

//nolint:gocyclo // One arm per effect kind keeps the executor flat and auditable.
func (s *Session) execute(ctx context.Context, effects []engine.Effect) {
	for _, effect := range effects {
		switch ef := effect.(type) {
		case engine.AppendBot:
			s.mgr.typingPause(ctx, ef.Delay)
			msg := domain.Message{Kind: domain.MessageBot, Text: ef.Text}
			if s.transcript.HasPendingLoading() {
				s.transcript.ReplaceLastLoading(msg)
			} else {
				s.transcript.Append(msg)
			}

		case engine.AppendUser:
			s.transcript.Append(domain.Message{Kind: domain.MessageUser, Text: ef.Text})

		case engine.ShowLoading:
			s.transcript.Append(domain.Message{Kind: domain.MessageLoading, Text: ef.Text})

		case engine.AppendAnalysisCard:
			s.transcript.Append(domain.Message{
				Kind:     domain.MessageAnalysisCard,
				ImageURL: ef.ImageURL,
				Labels:   ef.Labels,
			})

		case engine.SetOptions:
			s.transcript.SetOptions(ef.Options)

		case engine.ClearOptions:
			s.transcript.ClearOptions()

		case engine.ResetTranscript:
			s.transcript.Reset()
			if s.mgr.notifier != nil {
				s.mgr.notifier.TranscriptReset(s.ID)
			}

		case engine.CallAnalysis:
			s.apply(ctx, s.callAnalysis(ctx, ef))

		case engine.CallPricing:
			s.apply(ctx, s.callPricing(ctx, ef))

		case engine.CheckEmail:
			s.apply(ctx, s.checkEmail(ctx, ef.Email))

		case engine.RegisterAndPublish:
			s.apply(ctx, s.register(ctx, ef.Password))

		case engine.LoginAndPublish:
			s.apply(ctx, s.login(ctx, ef.Password))

		case engine.PublishAuthenticated:
			s.apply(ctx, s.publishAuthenticated(ctx))

		case engine.OpenFilePicker:
			if s.mgr.notifier != nil {
				s.mgr.notifier.OpenFilePicker(s.ID)
			}

		case engine.NotifyPublishSuccess:
			if s.mgr.notifier != nil {
				s.mgr.notifier.PublishSuccess(s.ID)
			}
		}
	}
}

func (s *Session) callAnalysis(ctx context.Context, ef engine.CallAnalysis) engine.Event {
	result, clarification, err := s.mgr.quotes.SubmitForAnalysis(ctx, ef.Description, s.state.ClientName, ef.Images)
	switch {
	case err != nil:
		slog.Warn("analysis call failed", "session_id", s.ID, "error", err)
		return engine.AnalysisFailed{}
	case clarification != nil:
		return engine.AnalysisAmbiguous{Clarification: *clarification}
	default:
		return engine.AnalysisSucceeded{
			Analysis:    result.Analysis,
			ImageURLs:   result.ImageURLs,
			ImageLabels: result.ImageLabels,
		}
	}
}

func (s *Session) callPricing(ctx context.Context, ef engine.CallPricing) engine.Event {
	priced, err := s.mgr.quotes.SubmitAddress(ctx, ef.Analysis, ef.Address, ef.ImageURLs, ef.ImageLabels)
	if err != nil {
		slog.Warn("pricing call failed", "session_id", s.ID, "error", err)
		return engine.PricingFailed{}
	}
	return engine.PricingSucceeded{TotalPrice: priced.TotalPrice, Breakdown: priced.Breakdown}
}

func (s *Session) checkEmail(ctx context.Context, email string) engine.Event {
	existing, err := s.mgr.identities.CheckEmail(ctx, email)
	if err != nil {
		slog.Warn("email check failed", "session_id", s.ID, "error", err)
		return engine.EmailCheckFailed{Reason: err.Error()}
	}
	return engine.EmailChecked{Existing: existing}
}

func (s *Session) register(ctx context.Context, password string) engine.Event {
	token, err := s.mgr.identities.RegisterAndPublish(ctx, s.state.ClientName, s.state.Email, password, s.state.Draft())
	if err != nil {
		slog.Warn("register hand-off failed", "session_id", s.ID, "error", err)
		return engine.PublishFailed{Reason: err.Error()}
	}
	return engine.PublishSucceeded{Token: token}
}

func (s *Session) login(ctx context.Context, password string) engine.Event {
	token, err := s.mgr.identities.LoginAndPublish(ctx, s.state.Email, password, s.state.Draft())
	if err != nil {
		slog.Warn("login hand-off failed", "session_id", s.ID, "error", err)
		return engine.PublishFailed{Reason: err.Error()}
	}
	return engine.PublishSucceeded{Token: token}
}

func (s *Session) publishAuthenticated(ctx context.Context) engine.Event {
	if err := s.mgr.quotes.PublishJob(ctx, s.state.Token, s.state.Draft()); err != nil {
		slog.Warn("authenticated publish failed", "session_id", s.ID, "error", err)
		return engine.PublishFailed{Reason: err.Error()}
	}
	return engine.PublishSucceeded{}
}

func (s *Session) persist(ctx context.Context) error {
	if s.mgr.repo == nil {
		return nil
	}

	stateJSON, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	transcriptJSON, err := s.transcript.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	now := time.Now()
	snap := &domain.SessionSnapshot{
		SessionID:      s.ID,
		Stage:          string(s.state.Stage),
		StateJSON:      string(stateJSON),
		TranscriptJSON: string(transcriptJSON),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := upsertWithRetry(ctx, s.mgr.repo, snap); err != nil {
		return fmt.Errorf("persist session %s: %w", s.ID, err)
	}
	return nil
}
