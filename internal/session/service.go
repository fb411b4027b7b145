// Package session hosts live conversations: it owns the per-session
// state, applies events through the engine reducer, and executes the
// resulting effects (network calls, transcript mutations, notifications).
package session

import (
	"context"

	"github.com/kiqmontajes/quotechat/internal/domain"
	"github.com/kiqmontajes/quotechat/internal/quote"
)

// QuoteService is the analysis/pricing surface the driver depends on.
type QuoteService interface {
	SubmitForAnalysis(ctx context.Context, description, clientName string, images []domain.ImageUpload) (*quote.AnalysisResult, *domain.ClarificationRequest, error)
	SubmitAddress(ctx context.Context, analysis *domain.Analysis, address string, imageURLs, imageLabels []string) (*quote.PricedQuote, error)
	PublishJob(ctx context.Context, token string, draft domain.JobDraft) error
}

// IdentityService is the account hand-off surface the driver depends on.
type IdentityService interface {
	CheckEmail(ctx context.Context, email string) (bool, error)
	RegisterAndPublish(ctx context.Context, name, email, password string, draft domain.JobDraft) (string, error)
	LoginAndPublish(ctx context.Context, email, password string, draft domain.JobDraft) (string, error)
}

// Notifier receives engine-level notifications for the hosting page.
// All methods are advisory; a nil notifier is valid.
type Notifier interface {
	// OpenFilePicker asks the hosting page to open its file picker.
	OpenFilePicker(sessionID string)
	// PublishSuccess corresponds to the engine's publish callback.
	PublishSuccess(sessionID string)
	// TranscriptReset reports a wizard restart.
	TranscriptReset(sessionID string)
}
