package config

import "time"

// FetcherConfig controls how target pages and assets are requested.
type FetcherConfig struct {
	UserAgent             string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	RequestTimeoutSecs    int               `json:"request_timeout_secs,omitempty" yaml:"request_timeout_secs,omitempty" validate:"min=1"`
	MaxRedirects          int               `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"min=0"`
	MaxContentLengthMB    int               `json:"max_content_length_mb,omitempty" yaml:"max_content_length_mb,omitempty" validate:"min=1"`
	InsecureSkipTLSVerify bool              `json:"insecure_skip_tls_verify,omitempty" yaml:"insecure_skip_tls_verify,omitempty"`
	EnableHTTP2           bool              `json:"enable_http2,omitempty" yaml:"enable_http2,omitempty"`
	Proxy                 string            `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	CustomHeaders         map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`
}

// NewDefaultFetcherConfig creates default fetcher configuration
func NewDefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		UserAgent:          DefaultFetcherUserAgent,
		RequestTimeoutSecs: DefaultFetcherRequestTimeoutSecs,
		MaxRedirects:       DefaultFetcherMaxRedirects,
		MaxContentLengthMB: DefaultFetcherMaxContentLengthMB,
		EnableHTTP2:        true,
		CustomHeaders:      map[string]string{},
	}
}

// RequestTimeout returns the page request timeout as a duration.
func (c FetcherConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSecs) * time.Second
}

// MaxContentBytes returns the page body cap in bytes.
func (c FetcherConfig) MaxContentBytes() int {
	return c.MaxContentLengthMB * 1024 * 1024
}
