package config

import "time"

// DownloadConfig controls asset byte retrieval and ZIP bundling.
type DownloadConfig struct {
	TimeoutSecs  int    `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"min=1"`
	MaxAttempts  int    `json:"max_attempts,omitempty" yaml:"max_attempts,omitempty" validate:"min=1,max=10"`
	MinFreeMB    int    `json:"min_free_mb,omitempty" yaml:"min_free_mb,omitempty" validate:"min=0"`
	Concurrency  int    `json:"concurrency,omitempty" yaml:"concurrency,omitempty" validate:"min=1,max=64"`
	BundlePrefix string `json:"bundle_prefix,omitempty" yaml:"bundle_prefix,omitempty"`
}

// NewDefaultDownloadConfig creates default download configuration
func NewDefaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		TimeoutSecs:  DefaultDownloadTimeoutSecs,
		MaxAttempts:  DefaultDownloadMaxAttempts,
		MinFreeMB:    DefaultDownloadMinFreeMB,
		Concurrency:  DefaultDownloadConcurrency,
		BundlePrefix: DefaultDownloadBundlePrefix,
	}
}

// Timeout returns the per-download timeout.
func (c DownloadConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}
