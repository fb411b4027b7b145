package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kiqmontajes/quotechat/internal/domain"
)

// Typing-delay defaults for bot message pacing. All delays are
// cosmetic; drivers may execute them with zero wait.
const (
	delayDefault = 1000 * time.Millisecond
	delayShort   = 600 * time.Millisecond
	delayMedium  = 800 * time.Millisecond
	delayOptions = 1200 * time.Millisecond
)

// Config is the engine's construction surface, provided by the
// hosting page when a session is created.
type Config struct {
	Mode            domain.Mode
	InitialUserName string
	InitialPrompt   string
}

// State is the complete session state. It is treated as a value: every
// Reduce call returns a new State, never mutating its input.
type State struct {
	Stage         Stage                        `json:"stage"`
	Mode          domain.Mode                  `json:"mode"`
	Authenticated bool                         `json:"authenticated"`
	Token         string                       `json:"token,omitempty"`
	ClientName    string                       `json:"client_name,omitempty"`
	Description   string                       `json:"description,omitempty"`
	PendingImages []domain.ImageUpload         `json:"pending_images,omitempty"`
	ImageURLs     []string                     `json:"image_urls,omitempty"`
	ImageLabels   []string                     `json:"image_labels,omitempty"`
	Analysis      *domain.Analysis             `json:"analysis,omitempty"`
	Clarification *domain.ClarificationRequest `json:"clarification,omitempty"`
	Summary       []domain.BudgetDetail        `json:"summary,omitempty"`
	Address       string                       `json:"address,omitempty"`
	PriceBase     float64                      `json:"price_base,omitempty"`
	Breakdown     *domain.Breakdown            `json:"breakdown,omitempty"`
	Email         string                       `json:"email,omitempty"`
	DoorType      string                       `json:"door_type,omitempty"`
	DoorCount     int                          `json:"door_count,omitempty"`
}

// Draft renders the accumulated job draft for the hand-off calls.
func (s State) Draft() domain.JobDraft {
	return domain.JobDraft{
		ClientName:          s.ClientName,
		FreeTextDescription: s.Description,
		ImageRefs:           s.ImageNames(),
		ImageLabels:         s.ImageLabels,
		Anchoring:           s.anchoringAnswer(),
		Address:             s.Address,
		PriceBase:           s.PriceBase,
		Breakdown:           s.Breakdown,
		Analysis:            s.Analysis,
		DoorType:            s.DoorType,
		DoorCount:           s.DoorCount,
		Summary:             s.Summary,
	}
}

// ImageNames returns the uploaded image URLs, which double as the
// draft's ordered image references.
func (s State) ImageNames() []string {
	return s.ImageURLs
}

func (s State) anchoringAnswer() string {
	for _, d := range s.Summary {
		if d.Label == textAnchoringLabel {
			return d.Value
		}
	}
	return ""
}

var greetingPrefixes = []string{"hola", "buenos", "buenas", "hey", "que tal"}

// isGreeting reports whether a prompt is a bare salutation rather than
// a description: short and starting with a greeting word.
func isGreeting(prompt string) bool {
	if prompt == "" || len(prompt) >= 15 {
		return false
	}
	lower := strings.ToLower(prompt)
	for _, g := range greetingPrefixes {
		if strings.HasPrefix(lower, g) {
			return true
		}
	}
	return false
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

var nonDigits = regexp.MustCompile(`\D`)

// parseQuantity accepts any text containing digits, stripping the
// non-digit characters before parsing.
func parseQuantity(text string) (int, bool) {
	digits := nonDigits.ReplaceAllString(text, "")
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func formatPrice(total float64) string {
	return fmt.Sprintf("€%s - €%s",
		strconv.FormatFloat(total, 'f', -1, 64),
		strconv.FormatFloat(total+20, 'f', -1, 64))
}

// Init builds the initial state and greeting for a new session.
func Init(cfg Config) (State, []Effect) {
	s := State{
		Stage: StageStart,
		Mode:  cfg.Mode,
	}

	prompt := strings.TrimSpace(cfg.InitialPrompt)
	if prompt != "" && !isGreeting(prompt) {
		s.Description = prompt
	}

	if cfg.Mode == domain.ModeAuthenticated && cfg.InitialUserName != "" {
		s.Authenticated = true
		s.ClientName = cfg.InitialUserName
		s.Stage = StageDescribe
		return s, []Effect{
			AppendBot{Text: fmt.Sprintf(textWelcomeBack, cfg.InitialUserName), Delay: delayMedium},
		}
	}

	s.Stage = StageAskName
	if s.Description != "" {
		return s, []Effect{
			AppendBot{Text: fmt.Sprintf(textWelcomeWithPrompt, prompt), Delay: delayShort},
		}
	}
	return s, []Effect{AppendBot{Text: textWelcomeName, Delay: delayMedium}}
}

// Restart re-initializes the wizard keeping only the session identity.
func Restart(s State) (State, []Effect) {
	cfg := Config{Mode: s.Mode}
	if s.Authenticated {
		cfg.InitialUserName = s.ClientName
	}
	next, effects := Init(cfg)
	next.Authenticated = s.Authenticated
	next.Token = s.Token
	return next, append([]Effect{ResetTranscript{}}, effects...)
}

// Reduce is the stage controller: given the current state and one
// event it returns the next state and the effects to execute. It is
// the only place stage transitions happen.
func Reduce(s State, ev Event) (State, []Effect) {
	switch e := ev.(type) {
	case RestartRequested:
		return Restart(s)
	case TextSubmitted:
		return reduceText(s, strings.TrimSpace(e.Text))
	case OptionSelected:
		return reduceOption(s, e.Option)
	case ImagesAttached:
		return reduceImages(s, e.Images)
	case FilePickerCancelled:
		return s, nil
	case AnalysisSucceeded:
		return reduceAnalysis(s, e)
	case AnalysisAmbiguous:
		return reduceAmbiguity(s, e.Clarification)
	case AnalysisFailed:
		return analysisFailure(s)
	case PricingSucceeded:
		return reducePriced(s, e)
	case PricingFailed:
		s.Stage = StageDescribe
		s.PendingImages = nil
		return s, []Effect{
			AppendBot{Text: textPricingError, Delay: delayDefault},
			SetOptions{Options: []domain.Option{{Label: textRestartButton, Value: "restart"}}, Delay: delayOptions},
		}
	case EmailChecked:
		return reduceEmailChecked(s, e.Existing)
	case EmailCheckFailed:
		return s, []Effect{
			AppendBot{Text: fmt.Sprintf("Hubo un error: %s.", e.Reason), Delay: delayDefault},
		}
	case PublishSucceeded:
		return reducePublished(s, e.Token)
	case PublishFailed:
		return reducePublishFailed(s, e.Reason)
	default:
		return s, nil
	}
}

func reduceText(s State, text string) (State, []Effect) {
	// An empty submit is only meaningful right after a photo upload,
	// where the description is optional.
	if text == "" && s.Stage != StageAwaitingDescription {
		return s, nil
	}

	switch s.Stage {
	case StageAskName:
		return reduceName(s, text)

	case StageDescribe:
		s.Description = text
		s.Stage = StageAwaitingPhotoOption
		return s, []Effect{
			AppendUser{Text: text},
			AppendBot{Text: textAskForPhoto, Delay: delayDefault},
			SetOptions{Options: photoOptions(), Delay: delayOptions},
		}

	case StageAwaitingDescription:
		s.Description = text
		return submitAnalysis(s, text, textProcessingImage, AppendUser{Text: text})

	case StageAwaitingClarification:
		return reduceClarificationText(s, text)

	case StageAskAddress:
		s.Address = text
		return s, []Effect{
			AppendUser{Text: text},
			ShowLoading{Text: textProcessingAddress},
			CallPricing{Analysis: s.Analysis, Address: text, ImageURLs: s.ImageURLs, ImageLabels: s.ImageLabels},
		}

	case StageAskEmail:
		if !isValidEmail(text) {
			return s, []Effect{
				AppendUser{Text: text},
				AppendBot{Text: textEmailInvalid, Delay: delayDefault},
			}
		}
		s.Email = text
		return s, []Effect{
			AppendUser{Text: text},
			ShowLoading{Text: textCheckingEmail},
			CheckEmail{Email: text},
		}

	case StageAskPassword:
		return s, []Effect{
			AppendUser{Text: maskPassword(text)},
			ShowLoading{Text: textPublishing},
			RegisterAndPublish{Password: text},
		}

	case StageAskLoginPassword:
		return s, []Effect{
			AppendUser{Text: maskPassword(text)},
			ShowLoading{Text: textPublishingLite},
			LoginAndPublish{Password: text},
		}

	default:
		// Stages driven by quick replies or already terminal ignore
		// free text.
		return s, nil
	}
}

func reduceName(s State, name string) (State, []Effect) {
	s.ClientName = name

	// A description captured from the initiating prompt lets the
	// wizard skip straight past the describe stage.
	if s.Description != "" {
		s.Stage = StageAwaitingPhotoOption
		return s, []Effect{
			AppendUser{Text: name},
			AppendBot{Text: fmt.Sprintf(textNiceToMeetYouNoted, name, s.Description), Delay: delayDefault},
			AppendBot{Text: textAskForPhoto, Delay: delayMedium},
			SetOptions{Options: photoOptions(), Delay: delayOptions},
		}
	}

	s.Stage = StageDescribe
	return s, []Effect{
		AppendUser{Text: name},
		AppendBot{Text: fmt.Sprintf(textNiceToMeetYouAsk, name), Delay: delayDefault},
	}
}

func reduceClarificationText(s State, text string) (State, []Effect) {
	if s.Clarification == nil {
		return s, nil
	}

	var newDescription string
	if s.Clarification.Missing(domain.FieldDoorType) {
		// Door type redefines the item: synthesize the canonical phrase.
		newDescription = fmt.Sprintf("armario de puertas %s", strings.ToLower(text))
		s.DoorType = strings.ToLower(text)
	} else {
		quantity, ok := parseQuantity(text)
		if !ok {
			return s, []Effect{
				AppendUser{Text: text},
				AppendBot{Text: textInvalidQuantity, Delay: delayDefault},
			}
		}
		if s.Clarification.ProbableItemKind == domain.ItemWardrobe {
			// Door count qualifies the item: append so the earlier
			// door-type phrase is preserved.
			newDescription = fmt.Sprintf("%s de %d puertas", s.Description, quantity)
			s.DoorCount = quantity
		} else {
			itemName := strings.ReplaceAll(s.Clarification.ProbableItemKind, "_", " ")
			newDescription = fmt.Sprintf("%d %s", quantity, itemName)
		}
	}

	s.Clarification = nil
	s.Description = newDescription
	// The answer may come typed while quick replies are still offered.
	return submitAnalysis(s, newDescription, textProcessingDescription,
		AppendUser{Text: text}, ClearOptions{})
}

func reduceOption(s State, opt domain.Option) (State, []Effect) {
	if opt.Value == "restart" {
		return Restart(s)
	}

	// Clarify answers are only valid while their question is pending; a
	// stale click after the loop resolved must not touch the description.
	if s.Stage == StageAwaitingClarification {
		switch {
		case strings.HasPrefix(opt.Value, "clarify_type_"):
			doorType := strings.TrimPrefix(opt.Value, "clarify_type_")
			s.DoorType = doorType
			s.Clarification = nil
			s.Description = fmt.Sprintf("armario de puertas %s", doorType)
			return submitAnalysis(s, s.Description, textProcessingDescription,
				AppendUser{Text: opt.Label}, ClearOptions{})

		case opt.Value == "clarify_doors_more":
			return s, []Effect{
				AppendUser{Text: opt.Label},
				ClearOptions{},
				AppendBot{Text: textAskExactDoors, Delay: delayDefault},
			}

		case strings.HasPrefix(opt.Value, "clarify_doors_"):
			count, ok := parseQuantity(strings.TrimPrefix(opt.Value, "clarify_doors_"))
			if !ok {
				return s, nil
			}
			s.DoorCount = count
			s.Clarification = nil
			s.Description = fmt.Sprintf("%s de %d puertas", s.Description, count)
			return submitAnalysis(s, s.Description, textProcessingDescription,
				AppendUser{Text: opt.Label}, ClearOptions{})
		}
	}

	switch s.Stage {
	case StageAwaitingPhotoOption:
		if opt.Value == "yes_photo" {
			return s, []Effect{
				AppendUser{Text: opt.Label},
				ClearOptions{},
				OpenFilePicker{},
			}
		}
		return submitAnalysis(s, s.Description, textProcessingDescription,
			AppendUser{Text: opt.Label}, ClearOptions{})

	case StageAskAnchoring:
		s.Summary = append(s.Summary, domain.BudgetDetail{Label: textAnchoringLabel, Value: opt.Label})
		s.Stage = StageAskAddress
		return s, []Effect{
			AppendUser{Text: opt.Label},
			ClearOptions{},
			AppendBot{Text: textAskAddress, Delay: delayDefault},
		}

	case StageConfirmPublishLoggedIn:
		if opt.Value == "confirm_yes" {
			return s, []Effect{
				AppendUser{Text: opt.Label},
				ClearOptions{},
				ShowLoading{Text: textPublishingLite},
				PublishAuthenticated{},
			}
		}
		return Restart(s)

	case StageModalOpen:
		if opt.Value == "open_register_modal" {
			s.Stage = StageAskEmail
			return s, []Effect{
				AppendUser{Text: opt.Label},
				ClearOptions{},
				AppendBot{Text: fmt.Sprintf(textAskEmail, s.ClientName, formatPrice(s.PriceBase)), Delay: delayDefault},
			}
		}
		return s, nil

	default:
		return s, nil
	}
}

func reduceImages(s State, images []domain.ImageUpload) (State, []Effect) {
	if len(images) == 0 {
		return s, nil
	}

	switch s.Stage {
	case StageDescribe, StageAwaitingPhotoOption:
	default:
		return s, nil
	}

	s.PendingImages = images
	names := make([]string, len(images))
	for i, img := range images {
		names[i] = img.Filename
	}
	uploaded := AppendUser{Text: fmt.Sprintf(textFilesUploaded, strings.Join(names, ", "))}

	if s.Description != "" {
		return submitAnalysis(s, s.Description, textProcessingImage, uploaded, ClearOptions{})
	}

	s.Stage = StageAwaitingDescription
	return s, []Effect{
		uploaded,
		ClearOptions{},
		AppendBot{Text: textAskDescriptionAfterPhoto, Delay: delayDefault},
	}
}

// submitAnalysis wraps the analysis call with its loading placeholder.
func submitAnalysis(s State, description, loadingText string, before ...Effect) (State, []Effect) {
	effects := append(before,
		ShowLoading{Text: loadingText},
		CallAnalysis{Description: description, Images: s.PendingImages},
	)
	return s, effects
}

func reduceAnalysis(s State, e AnalysisSucceeded) (State, []Effect) {
	s.Analysis = e.Analysis
	s.ImageURLs = e.ImageURLs
	s.ImageLabels = e.ImageLabels
	s.Clarification = nil

	if e.Analysis != nil && e.Analysis.NeedsAnchoring {
		s.Stage = StageAskAnchoring
		return s, []Effect{
			AppendBot{Text: textFinalQuestion, Delay: delayDefault},
			SetOptions{Options: []domain.Option{
				{Label: textYes, Value: "si"},
				{Label: textNo, Value: "no"},
			}, Delay: delayOptions},
		}
	}

	s.Summary = append(s.Summary, domain.BudgetDetail{Label: textAnchoringLabel, Value: textNo})
	s.Stage = StageAskAddress
	return s, []Effect{AppendBot{Text: textAskAddress, Delay: delayDefault}}
}

func reduceAmbiguity(s State, c domain.ClarificationRequest) (State, []Effect) {
	switch c.ProbableItemKind {
	case domain.ItemGreeting:
		s.Stage = StageDescribe
		s.Description = ""
		s.PendingImages = nil
		s.Clarification = nil
		return s, []Effect{AppendBot{Text: textGreetingDetected, Delay: delayDefault}}

	case domain.ItemUnknown:
		s.Stage = StageDescribe
		s.Description = ""
		s.PendingImages = nil
		s.Clarification = nil
		return s, []Effect{AppendBot{Text: textUnknownItem, Delay: delayDefault}}
	}

	s.Clarification = &c
	s.Stage = StageAwaitingClarification

	if c.ProbableItemKind == domain.ItemWardrobe {
		// Sequenced follow-ups: door type first, then door count. The
		// loop re-enters here once per remaining field.
		if c.Missing(domain.FieldDoorType) {
			return s, []Effect{
				AppendBot{Text: textAskDoorType, Delay: delayDefault},
				SetOptions{Options: []domain.Option{
					{Label: "Batientes (Abatibles)", Value: "clarify_type_batientes"},
					{Label: "Correderas", Value: "clarify_type_correderas"},
				}, Delay: delayOptions},
			}
		}
		if c.Missing(domain.FieldDoorCount) {
			return s, []Effect{
				AppendBot{Text: textAskDoorCount, Delay: delayDefault},
				SetOptions{Options: []domain.Option{
					{Label: "1 Puerta", Value: "clarify_doors_1"},
					{Label: "2 Puertas", Value: "clarify_doors_2"},
					{Label: "3 Puertas", Value: "clarify_doors_3"},
					{Label: "4 Puertas", Value: "clarify_doors_4"},
					{Label: "Más de 4", Value: "clarify_doors_more"},
				}, Delay: delayOptions},
			}
		}
	}

	itemName := strings.ReplaceAll(c.ProbableItemKind, "_", " ")
	return s, []Effect{AppendBot{Text: fmt.Sprintf(textAskQuantity, itemName), Delay: delayDefault}}
}

func analysisFailure(s State) (State, []Effect) {
	s.Stage = StageDescribe
	s.PendingImages = nil
	return s, []Effect{
		AppendBot{Text: textAnalysisError, Delay: delayDefault},
		SetOptions{Options: []domain.Option{{Label: textRestartButton, Value: "restart"}}, Delay: delayOptions},
	}
}

func reducePriced(s State, e PricingSucceeded) (State, []Effect) {
	s.PriceBase = e.TotalPrice
	s.Breakdown = e.Breakdown

	var effects []Effect
	if len(s.ImageURLs) > 0 && len(s.ImageLabels) > 0 {
		effects = append(effects, AppendAnalysisCard{ImageURL: s.ImageURLs[0], Labels: s.ImageLabels})
	}

	priceText := formatPrice(e.TotalPrice)
	if s.Authenticated {
		s.Stage = StageConfirmPublishLoggedIn
		return s, append(effects,
			AppendBot{Text: fmt.Sprintf(textConfirmPublish, priceText), Delay: delayDefault},
			SetOptions{Options: []domain.Option{
				{Label: textSaveToPanel, Value: "confirm_yes"},
				{Label: textCancel, Value: "cancel"},
			}, Delay: delayOptions},
		)
	}

	s.Stage = StageModalOpen
	return s, append(effects,
		AppendBot{Text: fmt.Sprintf(textPreRegister, s.ClientName, priceText), Delay: delayDefault},
		SetOptions{Options: []domain.Option{
			{Label: textAcceptContinue, Value: "open_register_modal"},
		}, Delay: delayOptions},
	)
}

func reduceEmailChecked(s State, existing bool) (State, []Effect) {
	if s.Stage != StageAskEmail {
		return s, nil
	}
	if existing {
		s.Stage = StageAskLoginPassword
		return s, []Effect{
			AppendBot{Text: fmt.Sprintf(textEmailExists, s.ClientName), Delay: delayDefault},
		}
	}
	s.Stage = StageAskPassword
	return s, []Effect{AppendBot{Text: textAskPassword, Delay: delayDefault}}
}

func reducePublished(s State, token string) (State, []Effect) {
	if token != "" {
		s.Token = token
	}

	successText := textPublishSuccessLite
	if s.Stage == StageAskPassword {
		successText = textPublishSuccess
	}

	s.Stage = StageDone
	return s, []Effect{
		AppendBot{Text: successText, Delay: delayDefault},
		NotifyPublishSuccess{},
	}
}

func reducePublishFailed(s State, reason string) (State, []Effect) {
	effects := []Effect{
		AppendBot{Text: fmt.Sprintf(textPublishError, reason), Delay: delayDefault},
	}
	// The confirm stage is driven by quick replies, so they must be
	// re-offered for the retry.
	if s.Stage == StageConfirmPublishLoggedIn {
		effects = append(effects, SetOptions{Options: []domain.Option{
			{Label: textSaveToPanel, Value: "confirm_yes"},
			{Label: textCancel, Value: "cancel"},
		}, Delay: delayOptions})
	}
	return s, effects
}

func photoOptions() []domain.Option {
	return []domain.Option{
		{Label: textYesAddPhoto, Value: "yes_photo"},
		{Label: textNoContinue, Value: "no_photo"},
	}
}

func maskPassword(text string) string {
	return strings.Repeat("•", len([]rune(text)))
}
