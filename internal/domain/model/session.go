package model

import (
	"time"

	"civiclens_bot/internal/domain/enums"
)

// Session is the locally persisted state for one chat: the API bearer token
// plus the role claim decoded from it. The decoded role drives menu
// branching only; admin surfaces re-validate against the API.
type Session struct {
	Token     string
	UserID    int64
	Username  string
	Role      enums.Role
	ExpiresAt time.Time
}

func (s Session) IsZero() bool {
	return s.Token == ""
}

func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

type AuditRecord struct {
	ID         string
	ActorTgID  int64
	ActorRole  enums.Role
	Domain     string
	TargetID   int64
	Decision   string
	Reason     string
	DurationMS int64
	CreatedAt  time.Time
}
