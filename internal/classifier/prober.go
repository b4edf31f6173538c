package classifier

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ProbeResult is the outcome of a metadata probe. When OK is false, Reason
// says why and the other fields are empty.
type ProbeResult struct {
	OK            bool
	ContentLength *int64
	ContentType   string
	Reason        string
}

// ProbeFailure builds a failed result.
func ProbeFailure(format string, args ...interface{}) ProbeResult {
	return ProbeResult{Reason: fmt.Sprintf(format, args...)}
}

// Prober fetches cheap metadata about an absolute URL.
type Prober interface {
	Probe(ctx context.Context, absoluteURL string) ProbeResult
}

// HTTPProber issues a HEAD request with its own timeout.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
	logger  zerolog.Logger
}

// NewHTTPProber creates a prober on client. A non-positive timeout leaves the
// deadline to the caller's context.
func NewHTTPProber(client *http.Client, timeout time.Duration, logger zerolog.Logger) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProber{
		client:  client,
		timeout: timeout,
		logger:  logger.With().Str("component", "HTTPProber").Logger(),
	}
}

// Probe never returns an error; every failure is folded into the result.
func (p *HTTPProber) Probe(ctx context.Context, absoluteURL string) ProbeResult {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, absoluteURL, nil)
	if err != nil {
		return ProbeFailure("build request: %v", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return ProbeFailure("timeout after %s", p.timeout)
		}
		return ProbeFailure("request failed: %v", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			p.logger.Debug().Err(closeErr).Str("url", absoluteURL).Msg("Failed to close probe response body")
		}
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		return ProbeFailure("status %d", resp.StatusCode)
	}

	result := ProbeResult{
		OK:          true,
		ContentType: strings.TrimSpace(resp.Header.Get("Content-Type")),
	}
	if raw := strings.TrimSpace(resp.Header.Get("Content-Length")); raw != "" {
		if size, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil && size >= 0 {
			result.ContentLength = &size
		}
	}
	return result
}
