package model

import (
	"time"

	"civiclens_bot/internal/domain/enums"
)

type Entity struct {
	ID              int64
	Name            string
	Type            enums.EntityType
	Category        string
	Jurisdiction    string
	State           string
	County          string
	ReputationScore *float64
	ApprovalStatus  enums.ApprovalStatus
	CreatedAt       time.Time
}

type EntityDraft struct {
	Name         string
	Type         enums.EntityType
	Category     string
	Jurisdiction string
	State        string
	County       string
}
