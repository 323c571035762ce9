package ui

import (
	"fmt"

	"civiclens_bot/internal/domain/enums"
)

const (
	MsgGenericFailure = "Something went wrong. Please try again."
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgNotAdmin       = "This section is for administrators."
	MsgQueueEmpty     = "Nothing is waiting for review."
	MsgActionBusy     = "This item is already being processed."
	MsgStaleItem      = "This item could not be processed. It may have been handled in another session."
	MsgPasswordReset  = "If that account exists, a reset link has been sent."
)

func StartMessage(role enums.Role) string {
	switch role {
	case enums.RoleNone:
		return "CivicLens: log in or sign up to rate officials, post testimony and join discussions."
	case enums.RoleAdmin:
		return "CivicLens: administrator tools are enabled."
	default:
		return fmt.Sprintf("CivicLens: signed in as %s.", role)
	}
}

// SubmittedForReview is the distinct acknowledgment for drafts that entered
// the review pipeline, as opposed to a plain success.
func SubmittedForReview(what string) string {
	return fmt.Sprintf("Your %s was submitted and is under review. It will appear publicly once approved.", what)
}

func Created(what string) string {
	return fmt.Sprintf("Your %s was created.", what)
}

// FailureText prefers the server's detail message and falls back to the
// generic one.
func FailureText(detail string) string {
	if detail == "" {
		return MsgGenericFailure
	}
	return detail
}
