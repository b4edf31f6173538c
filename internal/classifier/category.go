package classifier

import (
	"strings"

	"github.com/aleister1102/mediascout/internal/models"
)

func extSet(exts ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		set[ext] = struct{}{}
	}
	return set
}

// CategoryRules is the immutable table used to categorize untyped candidates.
type CategoryRules struct {
	Extensions map[models.Category]map[string]struct{}
	// ExtensionOrder fixes the lookup order of Extensions.
	ExtensionOrder    []models.Category
	VideoPathMarkers  []string
	VideoKeywords     []string
	DocumentMimeTypes map[string]struct{}
	KeywordFallback   bool
}

// DefaultCategoryRules returns the built-in extension sets and heuristics.
func DefaultCategoryRules(keywordFallback bool) *CategoryRules {
	return &CategoryRules{
		Extensions: map[models.Category]map[string]struct{}{
			models.CategoryImage: extSet(".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".svg", ".ico", ".tiff", ".heic", ".avif"),
			models.CategoryVideo: extSet(".mp4", ".avi", ".mov", ".wmv", ".flv", ".webm", ".mkv", ".m4v", ".3gp", ".ogv",
				".mpg", ".mpeg", ".ts", ".mts", ".m3u8", ".mpd"),
			models.CategoryAudio:    extSet(".mp3", ".wav", ".flac", ".aac", ".ogg", ".wma", ".m4a", ".opus", ".aiff", ".au"),
			models.CategoryDocument: extSet(".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".rtf", ".odt", ".ods", ".odp"),
		},
		ExtensionOrder: []models.Category{
			models.CategoryImage,
			models.CategoryVideo,
			models.CategoryAudio,
			models.CategoryDocument,
		},
		VideoPathMarkers: []string{
			"/video/", "/media/", "/stream/", "/assets/", "/cdn/", "/uploads/", "/content/",
			".mp4", ".webm", ".avi", ".mov", ".m3u8", ".mpd",
		},
		VideoKeywords: []string{"video", "stream", "media", "mp4", "webm", "avi", "mov"},
		DocumentMimeTypes: map[string]struct{}{
			"application/pdf":    {},
			"application/msword": {},
			"text/plain":         {},
		},
		KeywordFallback: keywordFallback,
	}
}

// Categorize picks the category of an untyped URL. ext is the lowercase
// extension of the filename (with dot, possibly empty). The boolean is false
// when the URL carries no signal and no extension, meaning discard.
func (r *CategoryRules) Categorize(resolvedURL, ext string) (models.Category, bool) {
	if ext != "" {
		for _, category := range r.ExtensionOrder {
			if _, ok := r.Extensions[category][ext]; ok {
				return category, true
			}
		}
	}

	lowerURL := strings.ToLower(resolvedURL)
	for _, marker := range r.VideoPathMarkers {
		if strings.Contains(lowerURL, marker) {
			return models.CategoryVideo, true
		}
	}

	if mimeType := MimeTypeByExtension(ext); mimeType != "" {
		if category, ok := r.categoryFromMime(mimeType); ok {
			return category, true
		}
	}

	if r.KeywordFallback {
		for _, keyword := range r.VideoKeywords {
			if strings.Contains(lowerURL, keyword) {
				return models.CategoryVideo, true
			}
		}
	}

	if ext != "" {
		return models.CategoryOther, true
	}
	return "", false
}

func (r *CategoryRules) categoryFromMime(mimeType string) (models.Category, bool) {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return models.CategoryImage, true
	case strings.HasPrefix(mimeType, "video/"):
		return models.CategoryVideo, true
	case strings.HasPrefix(mimeType, "audio/"):
		return models.CategoryAudio, true
	}
	if _, ok := r.DocumentMimeTypes[mimeType]; ok {
		return models.CategoryDocument, true
	}
	return "", false
}
