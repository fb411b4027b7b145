// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/kiqmontajes/quotechat/internal/domain"
)

// Repository defines the interface for persisting session snapshots.
type Repository interface {
	// GetSession retrieves a session snapshot, or nil if absent.
	GetSession(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error)

	// UpsertSession creates or updates a session snapshot.
	UpsertSession(ctx context.Context, snap *domain.SessionSnapshot) error

	// DeleteSession removes a session snapshot.
	DeleteSession(ctx context.Context, sessionID string) error

	// GetExpiredSessions retrieves the IDs of sessions idle longer than ttl.
	GetExpiredSessions(ctx context.Context, ttl time.Duration) ([]string, error)

	// DeleteExpiredSessions removes sessions idle longer than ttl and
	// returns the number removed.
	DeleteExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
