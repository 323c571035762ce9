package enums

import (
	"path"
	"strings"
)

type MediaKind string

const (
	MediaKindImage MediaKind = "IMAGE"
	MediaKindVideo MediaKind = "VIDEO"
	MediaKindOther MediaKind = "OTHER"
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".gif": {}, ".webp": {}, ".bmp": {}, ".heic": {},
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mov": {}, ".webm": {}, ".mkv": {}, ".avi": {}, ".m4v": {},
}

// ClassifyMedia prefers the server-supplied content type and falls back to
// extension sniffing on the blob URL only when no content type is available.
func ClassifyMedia(contentType, blobURL string) MediaKind {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	switch {
	case strings.HasPrefix(ct, "image/"):
		return MediaKindImage
	case strings.HasPrefix(ct, "video/"):
		return MediaKindVideo
	case ct != "" && ct != "application/octet-stream":
		return MediaKindOther
	}
	return classifyByExtension(blobURL)
}

func classifyByExtension(blobURL string) MediaKind {
	trimmed := strings.TrimSpace(blobURL)
	if trimmed == "" {
		return MediaKindOther
	}
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	ext := strings.ToLower(path.Ext(trimmed))
	if _, ok := imageExtensions[ext]; ok {
		return MediaKindImage
	}
	if _, ok := videoExtensions[ext]; ok {
		return MediaKindVideo
	}
	return MediaKindOther
}
