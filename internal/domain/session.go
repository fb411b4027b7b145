package domain

import "time"

// Mode selects how the engine was embedded by the hosting page.
type Mode string

const (
	// ModePublic is the anonymous landing-page embedding.
	ModePublic Mode = "public"
	// ModeAuthenticated is the client-panel embedding with a signed-in user.
	ModeAuthenticated Mode = "authenticated"
)

// SessionSnapshot is the persisted form of a conversation, written
// after every transition so a session survives reconnects and
// restarts. State and transcript are stored as JSON documents; the
// stage is duplicated as a column for observability.
type SessionSnapshot struct {
	SessionID      string
	Stage          string
	StateJSON      string
	TranscriptJSON string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
