package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/kiqmontajes/quotechat/internal/domain"
	"github.com/kiqmontajes/quotechat/internal/engine"
	"github.com/kiqmontajes/quotechat/internal/quote"
	"github.com/kiqmontajes/quotechat/internal/session"
)

type fakeQuotes struct{}

func (fakeQuotes) SubmitForAnalysis(ctx context.Context, description, clientName string, images []domain.ImageUpload) (*quote.AnalysisResult, *domain.ClarificationRequest, error) {
	return &quote.AnalysisResult{Analysis: &domain.Analysis{}}, nil, nil
}

func (fakeQuotes) SubmitAddress(ctx context.Context, analysis *domain.Analysis, address string, imageURLs, imageLabels []string) (*quote.PricedQuote, error) {
	return &quote.PricedQuote{TotalPrice: 45}, nil
}

func (fakeQuotes) PublishJob(ctx context.Context, token string, draft domain.JobDraft) error {
	return nil
}

type fakeIdentities struct{}

func (fakeIdentities) CheckEmail(ctx context.Context, email string) (bool, error) {
	return false, nil
}

func (fakeIdentities) RegisterAndPublish(ctx context.Context, name, email, password string, draft domain.JobDraft) (string, error) {
	return "tok", nil
}

func (fakeIdentities) LoginAndPublish(ctx context.Context, email, password string, draft domain.JobDraft) (string, error) {
	return "tok", nil
}

func readEvent(ctx context.Context, t *testing.T, ws *websocket.Conn) Event {
	t.Helper()
	_, payload, err := ws.Read(ctx)
	if err != nil {
		t.Fatalf("Failed to read feed frame: %v", err)
	}
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		t.Fatalf("Failed to decode feed frame: %v", err)
	}
	return ev
}

func TestFeedReplaysAndStreams(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mgr := session.NewManager(fakeQuotes{}, fakeIdentities{}, nil, 0)
	hub := NewHub()
	mgr.SetNotifier(hub)

	sess, err := mgr.Create(ctx, session.CreateParams{})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	srv := httptest.NewServer(NewWebSocketHandler(hub, mgr, "*", true))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?session_id=" + sess.ID
	ws, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial feed: %v", err)
	}
	defer ws.Close(websocket.StatusNormalClosure, "test done")

	// The greeting is replayed on connect.
	ev := readEvent(ctx, t, ws)
	if ev.Type != "message" || ev.Message == nil || ev.Message.Kind != domain.MessageBot {
		t.Fatalf("Replay frame = %+v, want the bot greeting", ev)
	}

	// A submitted name streams the user echo and the follow-up question.
	if err := sess.Handle(ctx, engine.TextSubmitted{Text: "Laura"}); err != nil {
		t.Fatalf("Failed to submit name: %v", err)
	}

	ev = readEvent(ctx, t, ws)
	if ev.Type != "message" || ev.Message == nil || ev.Message.Kind != domain.MessageUser || ev.Message.Text != "Laura" {
		t.Errorf("Frame = %+v, want the user echo", ev)
	}
	ev = readEvent(ctx, t, ws)
	if ev.Type != "message" || ev.Message == nil || ev.Message.Kind != domain.MessageBot {
		t.Errorf("Frame = %+v, want the bot follow-up", ev)
	}

	// Engine notifications arrive as typed frames.
	hub.PublishSuccess(sess.ID)
	ev = readEvent(ctx, t, ws)
	if ev.Type != "publish_success" {
		t.Errorf("Frame type = %q, want publish_success", ev.Type)
	}
}

func TestFeedStreamsOptions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mgr := session.NewManager(fakeQuotes{}, fakeIdentities{}, nil, 0)
	hub := NewHub()
	mgr.SetNotifier(hub)

	sess, err := mgr.Create(ctx, session.CreateParams{Mode: domain.ModeAuthenticated, InitialUserName: "Ana"})
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}

	srv := httptest.NewServer(NewWebSocketHandler(hub, mgr, "*", true))
	defer srv.Close()

	ws, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?session_id="+sess.ID, nil)
	if err != nil {
		t.Fatalf("Failed to dial feed: %v", err)
	}
	defer ws.Close(websocket.StatusNormalClosure, "test done")

	// Skip the replayed greeting.
	readEvent(ctx, t, ws)

	if err := sess.Handle(ctx, engine.TextSubmitted{Text: "un armario"}); err != nil {
		t.Fatalf("Failed to submit description: %v", err)
	}

	var gotOptions []domain.Option
	for i := 0; i < 4; i++ {
		ev := readEvent(ctx, t, ws)
		if ev.Type == "options" {
			gotOptions = ev.Options
			break
		}
	}
	if len(gotOptions) != 2 || gotOptions[0].Value != "yes_photo" {
		t.Errorf("Options frame = %v, want the photo choice", gotOptions)
	}
}

func TestFeedRejectsMissingSession(t *testing.T) {
	mgr := session.NewManager(fakeQuotes{}, fakeIdentities{}, nil, 0)
	hub := NewHub()

	srv := httptest.NewServer(NewWebSocketHandler(hub, mgr, "*", true))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?session_id=nope")
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400 without a session_id, got %d", resp.StatusCode)
	}
}
