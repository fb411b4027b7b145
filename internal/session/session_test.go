package session

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kiqmontajes/quotechat/internal/domain"
	"github.com/kiqmontajes/quotechat/internal/engine"
	"github.com/kiqmontajes/quotechat/internal/quote"
	"github.com/kiqmontajes/quotechat/internal/store"
)

// stubQuotes returns canned analysis and pricing results.
type stubQuotes struct {
	analysis      *quote.AnalysisResult
	clarification *domain.ClarificationRequest
	analysisErr   error
	priced        *quote.PricedQuote
	pricedErr     error
	publishErr    error

	analysisCalls int
	publishCalls  int
}

func (s *stubQuotes) SubmitForAnalysis(ctx context.Context, description, clientName string, images []domain.ImageUpload) (*quote.AnalysisResult, *domain.ClarificationRequest, error) {
	s.analysisCalls++
	return s.analysis, s.clarification, s.analysisErr
}

func (s *stubQuotes) SubmitAddress(ctx context.Context, analysis *domain.Analysis, address string, imageURLs, imageLabels []string) (*quote.PricedQuote, error) {
	return s.priced, s.pricedErr
}

func (s *stubQuotes) PublishJob(ctx context.Context, token string, draft domain.JobDraft) error {
	s.publishCalls++
	return s.publishErr
}

type stubIdentities struct {
	existing    bool
	checkErr    error
	token       string
	registerErr error
	loginErr    error

	registeredName string
	loggedInEmail  string
}

func (s *stubIdentities) CheckEmail(ctx context.Context, email string) (bool, error) {
	return s.existing, s.checkErr
}

func (s *stubIdentities) RegisterAndPublish(ctx context.Context, name, email, password string, draft domain.JobDraft) (string, error) {
	s.registeredName = name
	return s.token, s.registerErr
}

func (s *stubIdentities) LoginAndPublish(ctx context.Context, email, password string, draft domain.JobDraft) (string, error) {
	s.loggedInEmail = email
	return s.token, s.loginErr
}

type stubNotifier struct {
	filePickers int
	published   []string
	resets      []string
}

func (n *stubNotifier) OpenFilePicker(sessionID string) { n.filePickers++ }
func (n *stubNotifier) PublishSuccess(sessionID string) { n.published = append(n.published, sessionID) }
func (n *stubNotifier) TranscriptReset(sessionID string) { n.resets = append(n.resets, sessionID) }

func newTestManager(quotes QuoteService, identities IdentityService) (*Manager, *stubNotifier) {
	m := NewManager(quotes, identities, nil, 0)
	n := &stubNotifier{}
	m.SetNotifier(n)
	return m, n
}

func TestCreateRunsGreeting(t *testing.T) {
	m, _ := newTestManager(&stubQuotes{}, &stubIdentities{})

	s, err := m.Create(context.Background(), CreateParams{})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if s.ID == "" {
		t.Error("Expected a minted session ID")
	}
	if s.State().Stage != engine.StageAskName {
		t.Errorf("Stage = %v, want %v", s.State().Stage, engine.StageAskName)
	}

	msgs := s.Transcript().Messages()
	if len(msgs) != 1 || msgs[0].Kind != domain.MessageBot {
		t.Fatalf("Transcript = %v, want one bot greeting", msgs)
	}

	got, err := m.Get(context.Background(), s.ID)
	if err != nil || got != s {
		t.Errorf("Get returned (%v, %v), want the live session", got, err)
	}
}

func TestGetUnknownSessionWithoutStore(t *testing.T) {
	m, _ := newTestManager(&stubQuotes{}, &stubIdentities{})

	s, err := m.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Expected a clean miss, got error: %v", err)
	}
	if s != nil {
		t.Errorf("Expected nil for an unknown session, got %v", s)
	}
}

func TestLoadingLifecycleAroundAnalysis(t *testing.T) {
	quotes := &stubQuotes{analysis: &quote.AnalysisResult{Analysis: &domain.Analysis{NeedsAnchoring: true}}}
	m, _ := newTestManager(quotes, &stubIdentities{})

	s, err := m.Create(context.Background(), CreateParams{})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	ctx := context.Background()
	if err := s.Handle(ctx, engine.TextSubmitted{Text: "Laura"}); err != nil {
		t.Fatalf("Failed to submit name: %v", err)
	}
	if err := s.Handle(ctx, engine.TextSubmitted{Text: "armario de 2 puertas"}); err != nil {
		t.Fatalf("Failed to submit description: %v", err)
	}
	if err := s.Handle(ctx, engine.OptionSelected{Option: domain.Option{Label: "No, continuar solo con texto", Value: "no_photo"}}); err != nil {
		t.Fatalf("Failed to decline the photo: %v", err)
	}

	if quotes.analysisCalls != 1 {
		t.Errorf("Analysis calls = %d, want 1", quotes.analysisCalls)
	}
	if s.State().Stage != engine.StageAskAnchoring {
		t.Errorf("Stage = %v, want %v", s.State().Stage, engine.StageAskAnchoring)
	}

	// The placeholder must be gone: replaced by the anchoring question.
	tr := s.Transcript()
	if tr.HasPendingLoading() {
		t.Error("Expected no pending loading entry after the call resolved")
	}
	if got := tr.LoadingCount(); got != 0 {
		t.Errorf("Loading entries = %d, want 0", got)
	}
	if opts := tr.Options(); len(opts) != 2 || opts[0].Value != "si" {
		t.Errorf("Options = %v, want the anchoring choice", opts)
	}
}

func TestAnalysisFailureReplacesLoadingWithApology(t *testing.T) {
	quotes := &stubQuotes{analysisErr: quote.ErrUnavailable}
	m, _ := newTestManager(quotes, &stubIdentities{})

	s, _ := m.Create(context.Background(), CreateParams{Mode: domain.ModeAuthenticated, InitialUserName: "Ana"})
	ctx := context.Background()
	s.Handle(ctx, engine.TextSubmitted{Text: "armario"})
	s.Handle(ctx, engine.OptionSelected{Option: domain.Option{Label: "No, continuar solo con texto", Value: "no_photo"}})

	if s.State().Stage != engine.StageDescribe {
		t.Errorf("Stage = %v, want a reset to %v", s.State().Stage, engine.StageDescribe)
	}
	tr := s.Transcript()
	if tr.HasPendingLoading() {
		t.Error("Expected the placeholder replaced by the apology")
	}
	if opts := tr.Options(); len(opts) != 1 || opts[0].Value != "restart" {
		t.Errorf("Options = %v, want the restart button", opts)
	}
}

func TestFilePickerNotification(t *testing.T) {
	m, notifier := newTestManager(&stubQuotes{}, &stubIdentities{})

	s, _ := m.Create(context.Background(), CreateParams{Mode: domain.ModeAuthenticated, InitialUserName: "Ana"})
	ctx := context.Background()
	s.Handle(ctx, engine.TextSubmitted{Text: "armario"})
	s.Handle(ctx, engine.OptionSelected{Option: domain.Option{Label: "Sí, añadir foto", Value: "yes_photo"}})

	if notifier.filePickers != 1 {
		t.Errorf("File picker notifications = %d, want 1", notifier.filePickers)
	}
}

func TestAuthenticatedPublishNotifies(t *testing.T) {
	quotes := &stubQuotes{
		analysis: &quote.AnalysisResult{Analysis: &domain.Analysis{}},
		priced:   &quote.PricedQuote{TotalPrice: 45},
	}
	m, notifier := newTestManager(quotes, &stubIdentities{})

	s, _ := m.Create(context.Background(), CreateParams{Mode: domain.ModeAuthenticated, InitialUserName: "Ana", Token: "tok"})
	ctx := context.Background()
	s.Handle(ctx, engine.TextSubmitted{Text: "una mesa"})
	s.Handle(ctx, engine.OptionSelected{Option: domain.Option{Label: "No, continuar solo con texto", Value: "no_photo"}})
	s.Handle(ctx, engine.TextSubmitted{Text: "29010"})

	if s.State().Stage != engine.StageConfirmPublishLoggedIn {
		t.Fatalf("Stage = %v, want %v", s.State().Stage, engine.StageConfirmPublishLoggedIn)
	}

	s.Handle(ctx, engine.OptionSelected{Option: domain.Option{Label: "Guardar en mi Panel", Value: "confirm_yes"}})

	if quotes.publishCalls != 1 {
		t.Errorf("Publish calls = %d, want 1", quotes.publishCalls)
	}
	if s.State().Stage != engine.StageDone {
		t.Errorf("Stage = %v, want %v", s.State().Stage, engine.StageDone)
	}
	if len(notifier.published) != 1 || notifier.published[0] != s.ID {
		t.Errorf("Publish notifications = %v, want the session ID once", notifier.published)
	}
}

func TestRegisterHandOffUsesAccumulatedDraft(t *testing.T) {
	quotes := &stubQuotes{
		analysis: &quote.AnalysisResult{Analysis: &domain.Analysis{}},
		priced:   &quote.PricedQuote{TotalPrice: 45},
	}
	identities := &stubIdentities{token: "tok-new"}
	m, _ := newTestManager(quotes, identities)

	s, _ := m.Create(context.Background(), CreateParams{})
	ctx := context.Background()
	s.Handle(ctx, engine.TextSubmitted{Text: "Laura"})
	s.Handle(ctx, engine.TextSubmitted{Text: "una mesa"})
	s.Handle(ctx, engine.OptionSelected{Option: domain.Option{Label: "No, continuar solo con texto", Value: "no_photo"}})
	s.Handle(ctx, engine.TextSubmitted{Text: "29010"})
	s.Handle(ctx, engine.OptionSelected{Option: domain.Option{Label: "Aceptar y Continuar", Value: "open_register_modal"}})
	s.Handle(ctx, engine.TextSubmitted{Text: "laura@example.com"})
	s.Handle(ctx, engine.TextSubmitted{Text: "secret12"})

	if identities.registeredName != "Laura" {
		t.Errorf("Registered name = %q, want Laura", identities.registeredName)
	}
	if s.State().Stage != engine.StageDone {
		t.Errorf("Stage = %v, want %v", s.State().Stage, engine.StageDone)
	}
	if s.State().Token != "tok-new" {
		t.Errorf("Token = %q, want the issued one", s.State().Token)
	}
}

func TestRestartResetsTranscriptAndNotifies(t *testing.T) {
	m, notifier := newTestManager(&stubQuotes{}, &stubIdentities{})

	s, _ := m.Create(context.Background(), CreateParams{})
	ctx := context.Background()
	s.Handle(ctx, engine.TextSubmitted{Text: "Laura"})
	s.Handle(ctx, engine.RestartRequested{})

	if s.State().Stage != engine.StageAskName {
		t.Errorf("Stage = %v, want %v", s.State().Stage, engine.StageAskName)
	}
	msgs := s.Transcript().Messages()
	if len(msgs) != 1 || msgs[0].Kind != domain.MessageBot {
		t.Errorf("Transcript = %v, want only the fresh greeting", msgs)
	}
	if len(notifier.resets) != 1 {
		t.Errorf("Reset notifications = %d, want 1", len(notifier.resets))
	}
}

func TestSessionResumesFromStore(t *testing.T) {
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ctx := context.Background()
	m1 := NewManager(&stubQuotes{}, &stubIdentities{}, repo, 0)

	s, err := m1.Create(ctx, CreateParams{})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	if err := s.Handle(ctx, engine.TextSubmitted{Text: "Laura"}); err != nil {
		t.Fatalf("Failed to submit name: %v", err)
	}

	// A fresh manager simulates a process restart.
	m2 := NewManager(&stubQuotes{}, &stubIdentities{}, repo, 0)
	resumed, err := m2.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Failed to resume session: %v", err)
	}
	if resumed == nil {
		t.Fatal("Expected the session resumed from the store")
	}

	if resumed.State().Stage != engine.StageDescribe {
		t.Errorf("Resumed stage = %v, want %v", resumed.State().Stage, engine.StageDescribe)
	}
	if resumed.State().ClientName != "Laura" {
		t.Errorf("Resumed client name = %q, want Laura", resumed.State().ClientName)
	}
	if got := len(resumed.Transcript().Messages()); got != 3 {
		t.Errorf("Resumed transcript length = %d, want 3", got)
	}
}

func TestRemoveDropsSession(t *testing.T) {
	m, _ := newTestManager(&stubQuotes{}, &stubIdentities{})

	s, _ := m.Create(context.Background(), CreateParams{})
	m.Remove(context.Background(), s.ID)

	got, err := m.Get(context.Background(), s.ID)
	if err != nil || got != nil {
		t.Errorf("Expected the session gone, got (%v, %v)", got, err)
	}
}
