package config

import "time"

// PreviewConfig controls image thumbnail generation.
type PreviewConfig struct {
	MaxDimension   int    `json:"max_dimension,omitempty" yaml:"max_dimension,omitempty" validate:"min=16,max=4096"`
	JPEGQuality    int    `json:"jpeg_quality,omitempty" yaml:"jpeg_quality,omitempty" validate:"min=1,max=100"`
	MaxSourceMB    int    `json:"max_source_mb,omitempty" yaml:"max_source_mb,omitempty" validate:"min=1"`
	MaxPixels      int64  `json:"max_pixels,omitempty" yaml:"max_pixels,omitempty" validate:"min=0"` // 0 disables the check
	TimeoutSecs    int    `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"min=1"`
	FilenamePrefix string `json:"filename_prefix,omitempty" yaml:"filename_prefix,omitempty"`
}

// NewDefaultPreviewConfig creates default preview configuration
func NewDefaultPreviewConfig() PreviewConfig {
	return PreviewConfig{
		MaxDimension:   DefaultPreviewMaxDimension,
		JPEGQuality:    DefaultPreviewJPEGQuality,
		MaxSourceMB:    DefaultPreviewMaxSourceMB,
		MaxPixels:      DefaultPreviewMaxPixels,
		TimeoutSecs:    DefaultPreviewTimeoutSecs,
		FilenamePrefix: DefaultPreviewFilenamePrefix,
	}
}

// Timeout returns the preview fetch timeout.
func (c PreviewConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// MaxSourceBytes returns the largest source image that will be fetched.
func (c PreviewConfig) MaxSourceBytes() int64 {
	return int64(c.MaxSourceMB) * 1024 * 1024
}
