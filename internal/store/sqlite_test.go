package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/kiqmontajes/quotechat/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	snap := &domain.SessionSnapshot{
		SessionID:      "s-1",
		Stage:          "ask_address",
		StateJSON:      `{"stage":"ask_address","client_name":"Laura"}`,
		TranscriptJSON: `{"messages":[{"kind":"bot","text":"hola"}]}`,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.UpsertSession(ctx, snap); err != nil {
		t.Fatalf("Failed to upsert session: %v", err)
	}

	got, err := repo.GetSession(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got == nil {
		t.Fatal("Expected a snapshot, got nil")
	}
	if got.Stage != "ask_address" {
		t.Errorf("Stage = %q, want ask_address", got.Stage)
	}
	if got.StateJSON != snap.StateJSON || got.TranscriptJSON != snap.TranscriptJSON {
		t.Error("Payload columns did not round-trip")
	}
}

func TestGetMissingSessionReturnsNil(t *testing.T) {
	repo := newTestStore(t)

	got, err := repo.GetSession(context.Background(), "absent")
	if err != nil {
		t.Fatalf("Expected a clean miss, got error: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil, got %+v", got)
	}
}

func TestUpsertUpdatesExistingSession(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	snap := &domain.SessionSnapshot{
		SessionID: "s-1", Stage: "describe",
		StateJSON: `{}`, TranscriptJSON: `{}`,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.UpsertSession(ctx, snap); err != nil {
		t.Fatalf("Failed first upsert: %v", err)
	}

	snap.Stage = "done"
	snap.StateJSON = `{"stage":"done"}`
	snap.UpdatedAt = now.Add(time.Minute)
	if err := repo.UpsertSession(ctx, snap); err != nil {
		t.Fatalf("Failed second upsert: %v", err)
	}

	got, err := repo.GetSession(ctx, "s-1")
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if got.Stage != "done" {
		t.Errorf("Stage = %q, want the updated value", got.Stage)
	}
}

func TestDeleteSession(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	snap := &domain.SessionSnapshot{
		SessionID: "s-1", Stage: "describe",
		StateJSON: `{}`, TranscriptJSON: `{}`,
		CreatedAt: now, UpdatedAt: now,
	}
	if err := repo.UpsertSession(ctx, snap); err != nil {
		t.Fatalf("Failed to upsert session: %v", err)
	}
	if err := repo.DeleteSession(ctx, "s-1"); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}

	got, err := repo.GetSession(ctx, "s-1")
	if err != nil || got != nil {
		t.Errorf("Expected the session gone, got (%+v, %v)", got, err)
	}

	// Deleting an absent session is not an error.
	if err := repo.DeleteSession(ctx, "s-1"); err != nil {
		t.Errorf("Expected idempotent delete, got %v", err)
	}
}

func TestExpiredSessions(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	now := time.Now()
	stale := &domain.SessionSnapshot{
		SessionID: "stale", Stage: "describe",
		StateJSON: `{}`, TranscriptJSON: `{}`,
		CreatedAt: now.Add(-2 * time.Hour), UpdatedAt: now.Add(-2 * time.Hour),
	}
	fresh := &domain.SessionSnapshot{
		SessionID: "fresh", Stage: "describe",
		StateJSON: `{}`, TranscriptJSON: `{}`,
		CreatedAt: now, UpdatedAt: now,
	}
	for _, snap := range []*domain.SessionSnapshot{stale, fresh} {
		if err := repo.UpsertSession(ctx, snap); err != nil {
			t.Fatalf("Failed to upsert %s: %v", snap.SessionID, err)
		}
	}

	ids, err := repo.GetExpiredSessions(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Failed to query expired sessions: %v", err)
	}
	if len(ids) != 1 || ids[0] != "stale" {
		t.Errorf("Expired IDs = %v, want only the stale one", ids)
	}

	deleted, err := repo.DeleteExpiredSessions(ctx, time.Hour)
	if err != nil {
		t.Fatalf("Failed to delete expired sessions: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Deleted = %d, want 1", deleted)
	}

	if got, _ := repo.GetSession(ctx, "fresh"); got == nil {
		t.Error("Expected the fresh session untouched")
	}
	if got, _ := repo.GetSession(ctx, "stale"); got != nil {
		t.Error("Expected the stale session removed")
	}
}
