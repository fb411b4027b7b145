package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/kiqmontajes/quotechat/internal/store"
)

const sweepInterval = 5 * time.Minute

// CleanupCallback is called for each session removed by the sweeper.
type CleanupCallback func(sessionID string)

// StartSweeper runs a background goroutine that periodically removes
// sessions idle longer than ttl, both from the registry and the store.
func (m *Manager) StartSweeper(ctx context.Context, repo store.Repository, ttl time.Duration, onCleanup CleanupCallback) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				m.sweep(ctx, repo, ttl, onCleanup)
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func (m *Manager) sweep(ctx context.Context, repo store.Repository, ttl time.Duration, onCleanup CleanupCallback) {
	expired, err := repo.GetExpiredSessions(ctx, ttl)
	if err != nil {
		slog.Error("Session sweeper failed to get expired sessions", "error", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	slog.Info("Session sweeper found expired sessions", "count", len(expired))

	for _, id := range expired {
		m.mu.Lock()
		delete(m.sessions, id)
		m.mu.Unlock()

		if onCleanup != nil {
			onCleanup(id)
		}
	}

	if deleted, err := repo.DeleteExpiredSessions(ctx, ttl); err != nil {
		slog.Error("Session sweeper failed to delete expired sessions", "error", err)
	} else if deleted > 0 {
		slog.Info("Session sweeper cleanup completed", "deleted", deleted)
	}
}
