package discovery

import (
	"context"
	"net/url"
	"time"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/aleister1102/mediascout/internal/crawler"
	"github.com/aleister1102/mediascout/internal/extractor"
	"github.com/aleister1102/mediascout/internal/metrics"
	"github.com/aleister1102/mediascout/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// PageFetcher retrieves the target page.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) (*crawler.Page, error)
}

// Classifier is the subset of classifier.Classifier used by the service.
type Classifier interface {
	Resolve(candidate models.CandidateReference, base *url.URL) (models.AssetDescriptor, bool)
	Enrich(ctx context.Context, descriptor models.AssetDescriptor) models.AssetDescriptor
}

// RunStore persists analysis runs.
type RunStore interface {
	CreateRun(ctx context.Context, targetURL string) (*models.AnalysisRun, error)
	CompleteRun(ctx context.Context, runID, baseURL string, descriptors []models.AssetDescriptor) error
	FailRun(ctx context.Context, runID, message string) error
}

// Service runs the full discovery pipeline for a target URL.
type Service struct {
	fetcher     PageFetcher
	extractor   *extractor.Extractor
	classifier  Classifier
	store       RunStore
	metrics     *metrics.Metrics
	concurrency int
	logger      zerolog.Logger
}

// NewService wires the pipeline. store and m may be nil; concurrency below one
// means sequential enrichment.
func NewService(
	fetcher PageFetcher,
	ext *extractor.Extractor,
	classifier Classifier,
	store RunStore,
	m *metrics.Metrics,
	concurrency int,
	logger zerolog.Logger,
) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		fetcher:     fetcher,
		extractor:   ext,
		classifier:  classifier,
		store:       store,
		metrics:     m,
		concurrency: concurrency,
		logger:      logger.With().Str("component", "DiscoveryService").Logger(),
	}
}

// Analyze fetches targetURL once and returns the completed run. A fetch failure
// is recorded as an error run and returned; no partial descriptors are kept.
func (s *Service) Analyze(ctx context.Context, targetURL string) (*models.AnalysisRun, error) {
	run, err := s.createRun(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("run_id", run.ID).Str("target_url", targetURL).Msg("Starting analysis")
	startTime := time.Now()

	page, err := s.fetcher.Fetch(ctx, targetURL)
	if err != nil {
		s.fail(run, err)
		return nil, common.WrapErrorf(err, "analysis of '%s' failed", targetURL)
	}

	descriptors, base := s.Discover(ctx, page)
	if err := ctx.Err(); err != nil {
		s.fail(run, err)
		return nil, err
	}

	baseURL := ""
	if base != nil {
		baseURL = base.String()
	}
	if s.store != nil {
		if err := s.store.CompleteRun(ctx, run.ID, baseURL, descriptors); err != nil {
			err = common.WrapError(err, "failed to persist run")
			s.fail(run, err)
			return nil, err
		}
	}

	now := time.Now()
	run.BaseURL = baseURL
	run.Status = models.RunStatusCompleted
	run.CompletedAt = &now
	run.Assets = descriptors
	s.metrics.RecordRun(string(models.RunStatusCompleted))

	s.logger.Info().
		Str("run_id", run.ID).
		Int("assets", len(descriptors)).
		Dur("duration", time.Since(startTime)).
		Msg("Analysis completed")
	return run, nil
}

func (s *Service) createRun(ctx context.Context, targetURL string) (*models.AnalysisRun, error) {
	if s.store == nil {
		return &models.AnalysisRun{
			TargetURL: targetURL,
			Status:    models.RunStatusPending,
			CreatedAt: time.Now(),
		}, nil
	}
	run, err := s.store.CreateRun(ctx, targetURL)
	if err != nil {
		return nil, common.WrapError(err, "failed to create run")
	}
	return run, nil
}

func (s *Service) fail(run *models.AnalysisRun, cause error) {
	s.metrics.RecordRun(string(models.RunStatusError))
	s.logger.Error().Err(cause).Str("run_id", run.ID).Msg("Analysis failed")
	if s.store == nil {
		return
	}
	// The caller's context may already be cancelled.
	persistCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.FailRun(persistCtx, run.ID, cause.Error()); err != nil {
		s.logger.Error().Err(err).Str("run_id", run.ID).Msg("Failed to record run failure")
	}
}

// Discover extracts, resolves, deduplicates and enriches the page's assets. It
// returns the descriptors in first-seen order and the base they were resolved
// against.
func (s *Service) Discover(ctx context.Context, page *crawler.Page) ([]models.AssetDescriptor, *url.URL) {
	result := s.extractor.Extract(extractor.Page{
		Markup:  page.Markup,
		RawText: page.RawText,
		BaseURL: page.BaseURL,
	})
	s.recordCandidates(result.Candidates)

	resolved := make([]models.AssetDescriptor, 0, len(result.Candidates))
	for _, candidate := range result.Candidates {
		if descriptor, ok := s.classifier.Resolve(candidate, result.BaseURL); ok {
			resolved = append(resolved, descriptor)
		}
	}
	unique := Dedup(resolved)

	s.logger.Debug().
		Int("candidates", len(result.Candidates)).
		Int("resolved", len(resolved)).
		Int("unique", len(unique)).
		Msg("Candidates resolved")

	enriched := s.enrich(ctx, unique)
	for _, d := range enriched {
		s.metrics.RecordAsset(string(d.Category))
	}
	return enriched, result.BaseURL
}

// enrich probes descriptors with at most s.concurrency in flight. Enrichment
// never fails, so one slow or broken asset cannot cancel its siblings.
func (s *Service) enrich(ctx context.Context, descriptors []models.AssetDescriptor) []models.AssetDescriptor {
	out := make([]models.AssetDescriptor, len(descriptors))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, d := range descriptors {
		g.Go(func() error {
			out[i] = s.classifier.Enrich(ctx, d)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (s *Service) recordCandidates(candidates []models.CandidateReference) {
	if s.metrics == nil {
		return
	}
	counts := make(map[models.SourceHint]int, len(models.SourceHints))
	for _, c := range candidates {
		counts[c.SourceHint]++
	}
	for hint, n := range counts {
		s.metrics.RecordCandidates(string(hint), n)
	}
}

// Dedup keeps the first descriptor for each resolved URL, preserving order.
// Later duplicates are dropped without merging any of their fields.
func Dedup(descriptors []models.AssetDescriptor) []models.AssetDescriptor {
	seen := make(map[string]struct{}, len(descriptors))
	out := make([]models.AssetDescriptor, 0, len(descriptors))
	for _, d := range descriptors {
		if _, dup := seen[d.ResolvedURL]; dup {
			continue
		}
		seen[d.ResolvedURL] = struct{}{}
		out = append(out, d)
	}
	return out
}

// GroupByCategory buckets descriptors into the five fixed categories.
func GroupByCategory(descriptors []models.AssetDescriptor) models.GroupedAssets {
	return models.GroupByCategory(descriptors)
}
