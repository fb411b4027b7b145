// Package domain contains core domain types for the quote conversation engine.
package domain

// MessageKind discriminates transcript entries.
type MessageKind string

const (
	// MessageBot is a message authored by the assistant.
	MessageBot MessageKind = "bot"
	// MessageUser is a message authored by the user.
	MessageUser MessageKind = "user"
	// MessageLoading is the placeholder shown while a network call is outstanding.
	MessageLoading MessageKind = "loading"
	// MessageSummaryCard is a structured budget-summary card.
	MessageSummaryCard MessageKind = "summary"
	// MessageAnalysisCard is the image-analysis card shown after pricing.
	MessageAnalysisCard MessageKind = "analysis"
)

// Message is a single transcript entry. Entries are immutable once
// appended; the only mutation the transcript permits is replacing the
// most recent loading placeholder.
type Message struct {
	Kind     MessageKind `json:"kind"`
	Text     string      `json:"text"`
	ImageURL string      `json:"image_url,omitempty"`
	Labels   []string    `json:"labels,omitempty"`
}

// Option is a quick-reply offered to the user. The current set is
// replaced wholesale on every transition that offers choices and
// cleared as soon as any input is accepted.
type Option struct {
	Label        string `json:"label"`
	Value        string `json:"value"`
	ExternalLink string `json:"external_link,omitempty"`
}
