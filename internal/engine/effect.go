package engine

import (
	"time"

	"github.com/kiqmontajes/quotechat/internal/domain"
)

// Effect describes a side effect for the session driver to execute.
// The reducer itself never performs I/O.
type Effect interface {
	isEffect()
}

// AppendBot delivers a bot message, replacing any pending loading
// placeholder. Delay simulates typing and is purely cosmetic.
type AppendBot struct {
	Text  string
	Delay time.Duration
}

// AppendUser echoes accepted user input into the transcript.
type AppendUser struct {
	Text string
}

// ShowLoading appends the loading placeholder for an outstanding call.
type ShowLoading struct {
	Text string
}

// AppendAnalysisCard appends the image-analysis card.
type AppendAnalysisCard struct {
	ImageURL string
	Labels   []string
}

// SetOptions replaces the offered quick replies. Delay is cosmetic.
type SetOptions struct {
	Options []domain.Option
	Delay   time.Duration
}

// ClearOptions drops the offered quick replies.
type ClearOptions struct{}

// ResetTranscript discards the transcript for a wizard restart.
type ResetTranscript struct{}

// CallAnalysis submits the description and any attached photos to the
// analysis service.
type CallAnalysis struct {
	Description string
	Images      []domain.ImageUpload
}

// CallPricing submits the finalized address with the stored analysis.
type CallPricing struct {
	Analysis    *domain.Analysis
	Address     string
	ImageURLs   []string
	ImageLabels []string
}

// CheckEmail asks the identity service whether the email is taken.
type CheckEmail struct {
	Email string
}

// RegisterAndPublish creates the account and saves the draft.
type RegisterAndPublish struct {
	Password string
}

// LoginAndPublish authenticates and saves the draft.
type LoginAndPublish struct {
	Password string
}

// PublishAuthenticated saves the draft under the existing session token.
type PublishAuthenticated struct{}

// OpenFilePicker asks the hosting page to open the file picker. The
// wizard suspends until files arrive or the picker is abandoned.
type OpenFilePicker struct{}

// NotifyPublishSuccess fires the hosting page's publish callback.
type NotifyPublishSuccess struct{}

func (AppendBot) isEffect()            {}
func (AppendUser) isEffect()           {}
func (ShowLoading) isEffect()          {}
func (AppendAnalysisCard) isEffect()   {}
func (SetOptions) isEffect()           {}
func (ClearOptions) isEffect()         {}
func (ResetTranscript) isEffect()      {}
func (CallAnalysis) isEffect()         {}
func (CallPricing) isEffect()          {}
func (CheckEmail) isEffect()           {}
func (RegisterAndPublish) isEffect()   {}
func (LoginAndPublish) isEffect()      {}
func (PublishAuthenticated) isEffect() {}
func (OpenFilePicker) isEffect()       {}
func (NotifyPublishSuccess) isEffect() {}
