package model

import (
	"time"

	"civiclens_bot/internal/domain/enums"
)

type RatingScores struct {
	Integrity      int
	Transparency   int
	Fairness       int
	Respectfulness int
	Accountability int
}

type Rating struct {
	ID             int64
	EntityID       int64
	Scores         RatingScores
	Comment        string
	ViolatedRights []enums.RightCode
	Verified       bool
	Flagged        bool
	FlagReason     string
	CreatedAt      time.Time
}

type RatingDraft struct {
	EntityID       int64
	Scores         RatingScores
	Comment        string
	ViolatedRights []enums.RightCode
}
