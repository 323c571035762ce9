package telegram

type State string

const (
	StateIdle                State = "IDLE"
	StateWaitingLogin        State = "WAITING_LOGIN"
	StateWaitingSignup       State = "WAITING_SIGNUP"
	StateWaitingResetEmail   State = "WAITING_RESET_EMAIL"
	StateWaitingSearch       State = "WAITING_SEARCH"
	StateWaitingEntityDraft  State = "WAITING_ENTITY_DRAFT"
	StateWaitingRatingDraft  State = "WAITING_RATING_DRAFT"
	StateWaitingFlagReason   State = "WAITING_FLAG_REASON"
	StateWaitingPolicyDraft  State = "WAITING_POLICY_DRAFT"
	StateWaitingPolicySearch State = "WAITING_POLICY_SEARCH"
	StateWaitingVaultDraft   State = "WAITING_VAULT_DRAFT"
	StateWaitingUploadNote   State = "WAITING_UPLOAD_NOTE"
	StateWaitingForumPost    State = "WAITING_FORUM_POST"
	StateWaitingComment      State = "WAITING_COMMENT"
	StateWaitingTOTPCode     State = "WAITING_TOTP_CODE"
)
