package enums

import "strings"

type ApprovalStatus string

const (
	ApprovalStatusPending     ApprovalStatus = "pending"
	ApprovalStatusUnderReview ApprovalStatus = "under_review"
	ApprovalStatusApproved    ApprovalStatus = "approved"
	ApprovalStatusRejected    ApprovalStatus = "rejected"
)

func ParseApprovalStatus(raw string) ApprovalStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved":
		return ApprovalStatusApproved
	case "rejected":
		return ApprovalStatusRejected
	case "under_review":
		return ApprovalStatusUnderReview
	default:
		return ApprovalStatusPending
	}
}

// NeedsReview reports whether the item is still waiting on an admin
// decision. Rejection is terminal and rejected items are never resurfaced.
func (s ApprovalStatus) NeedsReview() bool {
	return s == ApprovalStatusPending || s == ApprovalStatusUnderReview
}

func (s ApprovalStatus) IsPublic() bool {
	return s == ApprovalStatusApproved
}
