package models

import "strings"

// Category is the fixed asset classification bucket.
type Category string

const (
	CategoryImage    Category = "image"
	CategoryVideo    Category = "video"
	CategoryAudio    Category = "audio"
	CategoryDocument Category = "document"
	CategoryOther    Category = "other"
)

// Categories lists every valid category in presentation order.
var Categories = []Category{
	CategoryImage,
	CategoryVideo,
	CategoryAudio,
	CategoryDocument,
	CategoryOther,
}

// IsValid reports whether c is one of the five fixed categories.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts a stored category string, returning false for unknown values.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	return c, c.IsValid()
}

// UnknownFilename is used when a URL path has no usable last segment.
const UnknownFilename = "unknown_file"

// AssetDescriptor is the final, classified view of one discovered asset.
// ResolvedURL is the deduplication key within an analysis run.
type AssetDescriptor struct {
	Filename         string     `json:"filename"`
	ResolvedURL      string     `json:"resolved_url"`
	Category         Category   `json:"category"`
	MimeType         string     `json:"mime_type,omitempty"`
	SizeBytes        *int64     `json:"size_bytes,omitempty"`
	PreviewReference string     `json:"preview_reference,omitempty"`
	PosterURL        string     `json:"poster_url,omitempty"`
	IsExternalEmbed  bool       `json:"is_external_embed"`
	Source           SourceHint `json:"source"`
}

// GroupedAssets buckets descriptors by category, preserving their relative order.
type GroupedAssets map[Category][]AssetDescriptor

// GroupByCategory builds the five fixed buckets used for presentation. Every
// category key is present even when its bucket is empty.
func GroupByCategory(descriptors []AssetDescriptor) GroupedAssets {
	grouped := make(GroupedAssets, len(Categories))
	for _, c := range Categories {
		grouped[c] = []AssetDescriptor{}
	}
	for _, d := range descriptors {
		grouped[d.Category] = append(grouped[d.Category], d)
	}
	return grouped
}

// Count returns the total number of descriptors across all buckets.
func (g GroupedAssets) Count() int {
	total := 0
	for _, bucket := range g {
		total += len(bucket)
	}
	return total
}
