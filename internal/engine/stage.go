// Package engine implements the quote conversation stage controller as
// a pure reducer over session state. All side effects are described as
// Effect values executed by the session driver.
package engine

// Stage is the discrete wizard state. It is the sole discriminant for
// which inputs are accepted and which quick replies are valid.
type Stage string

const (
	StageStart                  Stage = "start"
	StageAskName                Stage = "ask_name"
	StageDescribe               Stage = "describe"
	StageAwaitingPhotoOption    Stage = "awaiting_photo_option"
	StageAwaitingDescription    Stage = "awaiting_description_after_photo"
	StageAwaitingClarification  Stage = "awaiting_clarification_quantity"
	StageAskAnchoring           Stage = "ask_anchoring"
	StageAskAddress             Stage = "ask_address"
	StageConfirmPublishLoggedIn Stage = "confirm_publish_loggedin"
	StageModalOpen              Stage = "modal_open"
	StageAskEmail               Stage = "ask_email"
	StageAskPassword            Stage = "ask_password"
	StageAskLoginPassword       Stage = "ask_login_password"
	StageDone                   Stage = "done"
)
