package vault

import "civiclens_bot/internal/domain/model"

// MediaViewer pages through one feed item's evidence. Navigation is bounded
// by the list ends; there is no wraparound.
type MediaViewer struct {
	items []model.Evidence
	index int
}

func NewMediaViewer(items []model.Evidence) *MediaViewer {
	return &MediaViewer{items: items}
}

func (v *MediaViewer) Current() (model.Evidence, bool) {
	if v == nil || len(v.items) == 0 {
		return model.Evidence{}, false
	}
	return v.items[v.index], true
}

func (v *MediaViewer) Position() (int, int) {
	if v == nil {
		return 0, 0
	}
	return v.index + 1, len(v.items)
}

func (v *MediaViewer) HasNext() bool {
	return v != nil && v.index < len(v.items)-1
}

func (v *MediaViewer) HasPrev() bool {
	return v != nil && v.index > 0
}

func (v *MediaViewer) Next() bool {
	if !v.HasNext() {
		return false
	}
	v.index++
	return true
}

func (v *MediaViewer) Prev() bool {
	if !v.HasPrev() {
		return false
	}
	v.index--
	return true
}
