package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func int64Ptr(v int64) *int64 { return &v }

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name     string
		size     *int64
		expected string
	}{
		{name: "nil size", size: nil, expected: "Unknown"},
		{name: "zero size", size: int64Ptr(0), expected: "Unknown"},
		{name: "bytes", size: int64Ptr(512), expected: "512.0 B"},
		{name: "kilobytes", size: int64Ptr(1536), expected: "1.5 KB"},
		{name: "megabytes", size: int64Ptr(5 * 1024 * 1024), expected: "5.0 MB"},
		{name: "gigabytes", size: int64Ptr(3 * 1024 * 1024 * 1024), expected: "3.0 GB"},
		{name: "terabytes", size: int64Ptr(2 * 1024 * 1024 * 1024 * 1024), expected: "2.0 TB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatSize(tt.size))
		})
	}
}

func TestGroupByCategory(t *testing.T) {
	descriptors := []AssetDescriptor{
		{ResolvedURL: "https://a/1.jpg", Category: CategoryImage},
		{ResolvedURL: "https://a/2.mp4", Category: CategoryVideo},
		{ResolvedURL: "https://a/3.png", Category: CategoryImage},
		{ResolvedURL: "https://a/4.bin", Category: CategoryOther},
	}

	grouped := GroupByCategory(descriptors)

	assert.Len(t, grouped, len(Categories))
	assert.Equal(t, 4, grouped.Count())
	assert.Equal(t, "https://a/1.jpg", grouped[CategoryImage][0].ResolvedURL)
	assert.Equal(t, "https://a/3.png", grouped[CategoryImage][1].ResolvedURL)
	assert.Empty(t, grouped[CategoryAudio])
	assert.NotNil(t, grouped[CategoryDocument])
}

func TestParseCategory(t *testing.T) {
	c, ok := ParseCategory(" Video ")
	assert.True(t, ok)
	assert.Equal(t, CategoryVideo, c)

	_, ok = ParseCategory("unknown")
	assert.False(t, ok)
}
