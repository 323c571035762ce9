package model

import (
	"time"

	"civiclens_bot/internal/domain/enums"
)

type Policy struct {
	ID                int64
	Title             string
	Summary           string
	JurisdictionLevel enums.JurisdictionLevel
	StateCode         string
	GoverningBody     string
	RatedEntityID     *int64
	Status            string
	CreatedAt         time.Time
}

type PolicyStatusRequest struct {
	ID                int64
	PolicyID          int64
	PolicyTitle       string
	RequestedStatusID int64
	RequestedStatus   string
	SourceLink        string
	Note              string
	Status            enums.ApprovalStatus
	CreatedAt         time.Time
}

type PolicyStatusRequestDraft struct {
	PolicyID          int64
	RequestedStatusID int64
	SourceLink        string
	Note              string
}
