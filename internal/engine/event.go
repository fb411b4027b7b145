package engine

import "github.com/kiqmontajes/quotechat/internal/domain"

// Event is a discrete input to the reducer: user activity or the
// completion of an asynchronous call.
type Event interface {
	isEvent()
}

// TextSubmitted is free-text input accepted from the user.
type TextSubmitted struct {
	Text string
}

// OptionSelected is a quick-reply click.
type OptionSelected struct {
	Option domain.Option
}

// ImagesAttached delivers files chosen in the file picker.
type ImagesAttached struct {
	Images []domain.ImageUpload
}

// FilePickerCancelled reports the picker was abandoned with no files.
// It causes no stage change.
type FilePickerCancelled struct{}

// AnalysisSucceeded delivers a completed analysis result.
type AnalysisSucceeded struct {
	Analysis    *domain.Analysis
	ImageURLs   []string
	ImageLabels []string
}

// AnalysisAmbiguous delivers the semantic 422 clarification payload.
type AnalysisAmbiguous struct {
	Clarification domain.ClarificationRequest
}

// AnalysisFailed reports a transport or server failure during analysis.
type AnalysisFailed struct{}

// PricingSucceeded delivers the priced quote.
type PricingSucceeded struct {
	TotalPrice float64
	Breakdown  *domain.Breakdown
}

// PricingFailed reports a transport or server failure during pricing.
type PricingFailed struct{}

// EmailChecked delivers the identity service's email lookup result.
type EmailChecked struct {
	Existing bool
}

// EmailCheckFailed reports a transport failure during the email lookup.
type EmailCheckFailed struct {
	Reason string
}

// PublishSucceeded reports the draft was durably saved. Token is set
// for the register and login hand-off paths.
type PublishSucceeded struct {
	Token string
}

// PublishFailed carries the typed error text to redisplay verbatim.
type PublishFailed struct {
	Reason string
}

// RestartRequested restarts the wizard from any stage.
type RestartRequested struct{}

func (TextSubmitted) isEvent()       {}
func (OptionSelected) isEvent()      {}
func (ImagesAttached) isEvent()      {}
func (FilePickerCancelled) isEvent() {}
func (AnalysisSucceeded) isEvent()   {}
func (AnalysisAmbiguous) isEvent()   {}
func (AnalysisFailed) isEvent()      {}
func (PricingSucceeded) isEvent()    {}
func (PricingFailed) isEvent()       {}
func (EmailChecked) isEvent()        {}
func (EmailCheckFailed) isEvent()    {}
func (PublishSucceeded) isEvent()    {}
func (PublishFailed) isEvent()       {}
func (RestartRequested) isEvent()    {}
