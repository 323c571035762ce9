package model

import (
	"time"

	"civiclens_bot/internal/domain/enums"
)

// User is the admin-facing view of an account on the remote API.
type User struct {
	ID              int64
	Username        string
	Email           string
	Role            enums.Role
	IsVerified      bool
	IsEmailVerified bool
	IsAnonymous     bool
	CreatedAt       time.Time
}

// BotUser tracks a Telegram account that talked to the bot.
type BotUser struct {
	TgID       int64
	Username   string
	FirstName  string
	LastName   string
	LastSeenAt time.Time
}
