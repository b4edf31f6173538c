package config

import "time"

// DiscoveryConfig tunes candidate classification and the metadata probe fan-out.
type DiscoveryConfig struct {
	EnableProbe      bool `json:"enable_probe" yaml:"enable_probe"`
	ProbeTimeoutSecs int  `json:"probe_timeout_secs,omitempty" yaml:"probe_timeout_secs,omitempty" validate:"min=1"`
	ProbeConcurrency int  `json:"probe_concurrency,omitempty" yaml:"probe_concurrency,omitempty" validate:"min=1,max=256"`
	EnablePreviews   bool `json:"enable_previews" yaml:"enable_previews"`
	// VideoKeywordFallback classifies any URL containing words like "video"
	// or "stream" as video when nothing else matched. Permissive.
	VideoKeywordFallback bool `json:"video_keyword_fallback" yaml:"video_keyword_fallback"`
	MaxJSONLDDepth       int  `json:"max_jsonld_depth,omitempty" yaml:"max_jsonld_depth,omitempty" validate:"min=1"`
	RawScanMinLength     int  `json:"raw_scan_min_length,omitempty" yaml:"raw_scan_min_length,omitempty" validate:"min=0"`
	EnableJSluice        bool `json:"enable_jsluice" yaml:"enable_jsluice"`
}

// NewDefaultDiscoveryConfig creates default discovery configuration
func NewDefaultDiscoveryConfig() DiscoveryConfig {
	return DiscoveryConfig{
		EnableProbe:          true,
		ProbeTimeoutSecs:     DefaultDiscoveryProbeTimeoutSecs,
		ProbeConcurrency:     DefaultDiscoveryProbeConcurrency,
		EnablePreviews:       true,
		VideoKeywordFallback: DefaultDiscoveryVideoKeywordCheck,
		MaxJSONLDDepth:       DefaultDiscoveryMaxJSONLDDepth,
		RawScanMinLength:     DefaultDiscoveryRawScanMinLength,
		EnableJSluice:        true,
	}
}

// ProbeTimeout returns the per-probe timeout.
func (c DiscoveryConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSecs) * time.Second
}
