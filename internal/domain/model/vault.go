package model

import (
	"time"

	"civiclens_bot/internal/domain/enums"
)

type VaultEntry struct {
	ID          int64
	EntityID    int64
	Testimony   string
	IsPublic    bool
	PublishedAt *time.Time
	CreatedAt   time.Time
}

type VaultEntryDraft struct {
	EntityID  int64
	Testimony string
	IsPublic  bool
}

type Evidence struct {
	ID           int64
	VaultEntryID int64
	BlobURL      string
	BlobKey      string
	ContentType  string
	Description  string
	Tags         []string
	Location     string
	CreatedAt    time.Time
}

func (e Evidence) MediaKind() enums.MediaKind {
	ref := e.BlobURL
	if ref == "" {
		ref = e.BlobKey
	}
	return enums.ClassifyMedia(e.ContentType, ref)
}

// FeedItem is a vault entry joined with its entity and evidence as returned
// by the public feed endpoint.
type FeedItem struct {
	Entry      VaultEntry
	EntityName string
	State      string
	County     string
	Evidence   []Evidence
}
