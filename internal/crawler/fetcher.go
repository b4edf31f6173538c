package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/config"
	"github.com/aleister1102/mediascout/internal/urlhandler"
	"github.com/gocolly/colly/v2"
	"github.com/rs/zerolog"
)

// Page is a fetched target page.
type Page struct {
	URL         *url.URL // as requested
	BaseURL     *url.URL // final URL after redirects
	Markup      string
	RawText     string
	StatusCode  int
	ContentType string
}

// Fetcher retrieves target pages with a colly collector.
type Fetcher struct {
	cfg       config.FetcherConfig
	transport http.RoundTripper
	logger    zerolog.Logger
}

// NewFetcher creates a fetcher sharing transport with the other HTTP users.
func NewFetcher(cfg config.FetcherConfig, transport http.RoundTripper, logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		cfg:       cfg,
		transport: transport,
		logger:    logger.With().Str("component", "Fetcher").Logger(),
	}
}

// createCollector creates a single-page collector bound to ctx.
func (f *Fetcher) createCollector(ctx context.Context) *colly.Collector {
	collectorOptions := []colly.CollectorOption{
		colly.UserAgent(f.cfg.UserAgent),
		colly.MaxBodySize(f.cfg.MaxContentBytes()),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.DetectCharset(),
		colly.StdlibContext(ctx),
	}

	collector := colly.NewCollector(collectorOptions...)
	collector.SetRequestTimeout(f.cfg.RequestTimeout())
	collector.ParseHTTPErrorResponse = true
	if f.transport != nil {
		collector.WithTransport(f.transport)
	}
	collector.SetRedirectHandler(common.RedirectPolicy(f.cfg.MaxRedirects))

	return collector
}

// Fetch retrieves targetURL. Non-2xx statuses, transport failures and
// disallowed schemes are errors; no partial page is returned.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*Page, error) {
	target, err := urlhandler.ParseTargetURL(targetURL)
	if err != nil {
		return nil, err
	}

	var (
		page     *Page
		fetchErr error
	)

	collector := f.createCollector(ctx)

	collector.OnResponse(func(r *colly.Response) {
		if r.StatusCode < 200 || r.StatusCode >= 300 {
			fetchErr = common.NewHTTPErrorWithURL(r.StatusCode, http.StatusText(r.StatusCode), r.Request.URL.String())
			return
		}
		contentType := ""
		if r.Headers != nil {
			contentType = r.Headers.Get("Content-Type")
		}
		body := string(r.Body)
		page = &Page{
			URL:         target,
			BaseURL:     r.Request.URL,
			Markup:      body,
			RawText:     body,
			StatusCode:  r.StatusCode,
			ContentType: contentType,
		}
	})

	collector.OnError(func(r *colly.Response, e error) {
		if fetchErr == nil {
			fetchErr = f.classifyError(target.String(), e)
		}
	})

	start := time.Now()
	if err := collector.Visit(target.String()); err != nil && fetchErr == nil {
		fetchErr = f.classifyError(target.String(), err)
	}

	if fetchErr != nil {
		f.logger.Warn().Str("url", target.String()).Err(fetchErr).Msg("Page fetch failed")
		return nil, fetchErr
	}
	if page == nil {
		return nil, common.NewNetworkError(target.String(), "no response received", nil)
	}

	f.logger.Info().
		Str("url", target.String()).
		Str("final_url", page.BaseURL.String()).
		Int("status", page.StatusCode).
		Int("bytes", len(page.Markup)).
		Dur("duration", time.Since(start)).
		Msg("Page fetched")

	return page, nil
}

func (f *Fetcher) classifyError(targetURL string, err error) error {
	if errors.Is(err, common.ErrUnsupportedScheme) {
		return common.WrapErrorf(err, "fetch '%s'", targetURL)
	}
	var httpErr *common.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}
	return common.NewNetworkError(targetURL, "page fetch failed", err)
}
