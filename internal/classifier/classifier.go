package classifier

import (
	"context"
	"net/url"
	"strings"

	"github.com/aleister1102/mediascout/internal/models"
	"github.com/aleister1102/mediascout/internal/urlhandler"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	embedFilenameExt    = ".mp4"
	embedMimeType       = "video/mp4"
	embedPlaceholderTag = "video_"
)

// PreviewGenerator turns an image URL into an opaque preview reference.
type PreviewGenerator interface {
	Generate(ctx context.Context, imageURL, filenameBasis string) (string, error)
}

// Classifier resolves candidates into descriptors and enriches them with
// probe metadata and image previews.
type Classifier struct {
	rules    *CategoryRules
	prober   Prober
	previews PreviewGenerator
	logger   zerolog.Logger
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithProber enables the metadata probe.
func WithProber(p Prober) ClassifierOption {
	return func(c *Classifier) { c.prober = p }
}

// WithPreviewGenerator enables image previews.
func WithPreviewGenerator(g PreviewGenerator) ClassifierOption {
	return func(c *Classifier) { c.previews = g }
}

// NewClassifier creates a classifier. Without a prober or preview generator the
// matching enrichment step is skipped.
func NewClassifier(rules *CategoryRules, logger zerolog.Logger, opts ...ClassifierOption) *Classifier {
	if rules == nil {
		rules = DefaultCategoryRules(true)
	}
	c := &Classifier{
		rules:  rules,
		logger: logger.With().Str("component", "Classifier").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Classify resolves and enriches one candidate. The boolean is false when the
// candidate is discarded.
func (c *Classifier) Classify(ctx context.Context, candidate models.CandidateReference, base *url.URL) (models.AssetDescriptor, bool) {
	descriptor, ok := c.Resolve(candidate, base)
	if !ok {
		return models.AssetDescriptor{}, false
	}
	return c.Enrich(ctx, descriptor), true
}

// Resolve is the pure part of classification: URL resolution, filename and
// category. It performs no I/O.
func (c *Classifier) Resolve(candidate models.CandidateReference, base *url.URL) (models.AssetDescriptor, bool) {
	resolved, err := urlhandler.ResolveURL(candidate.RawURL, base)
	if err != nil {
		c.logger.Debug().Err(err).Str("raw_url", candidate.RawURL).Msg("Discarding unresolvable candidate")
		return models.AssetDescriptor{}, false
	}
	parsed, err := url.Parse(resolved)
	if err != nil || !urlhandler.IsHTTPScheme(parsed.Scheme) {
		return models.AssetDescriptor{}, false
	}

	if candidate.ExternalEmbed {
		return models.AssetDescriptor{
			Filename:        embedFilename(candidate.FilenameHint, resolved),
			ResolvedURL:     resolved,
			Category:        models.CategoryVideo,
			MimeType:        embedMimeType,
			IsExternalEmbed: true,
			Source:          candidate.SourceHint,
		}, true
	}

	filename := urlhandler.FilenameFromURL(parsed)
	if filename == "" {
		filename = models.UnknownFilename
	}
	ext := ""
	if filename != models.UnknownFilename {
		ext = urlhandler.Extension(filename)
	}

	category := candidate.SuggestedType
	if !category.IsValid() {
		var keep bool
		category, keep = c.rules.Categorize(resolved, ext)
		if !keep {
			return models.AssetDescriptor{}, false
		}
	}

	descriptor := models.AssetDescriptor{
		Filename:    filename,
		ResolvedURL: resolved,
		Category:    category,
		Source:      candidate.SourceHint,
	}
	if candidate.Auxiliary != nil && candidate.Auxiliary.PosterURL != "" {
		if poster, posterErr := urlhandler.ResolveURL(candidate.Auxiliary.PosterURL, base); posterErr == nil {
			descriptor.PosterURL = poster
		}
	}
	return descriptor, true
}

// Enrich adds probe metadata and, for images, a preview. Failures only leave
// fields empty. External embeds are returned untouched.
func (c *Classifier) Enrich(ctx context.Context, descriptor models.AssetDescriptor) models.AssetDescriptor {
	if descriptor.IsExternalEmbed {
		return descriptor
	}

	if c.prober != nil {
		result := c.prober.Probe(ctx, descriptor.ResolvedURL)
		descriptor = applyProbe(descriptor, result)
		if !result.OK {
			c.logger.Debug().Str("url", descriptor.ResolvedURL).Str("reason", result.Reason).Msg("Metadata probe failed")
		}
	} else {
		descriptor.MimeType = MimeTypeByExtension(urlhandler.Extension(descriptor.Filename))
	}

	if descriptor.Category == models.CategoryImage && c.previews != nil {
		reference, err := c.previews.Generate(ctx, descriptor.ResolvedURL, descriptor.Filename)
		if err != nil {
			c.logger.Debug().Err(err).Str("url", descriptor.ResolvedURL).Msg("Preview generation failed")
		} else {
			descriptor.PreviewReference = reference
		}
	}

	return descriptor
}

func applyProbe(descriptor models.AssetDescriptor, result ProbeResult) models.AssetDescriptor {
	if !result.OK {
		descriptor.SizeBytes = nil
		descriptor.MimeType = MimeTypeByExtension(urlhandler.Extension(descriptor.Filename))
		return descriptor
	}
	descriptor.SizeBytes = result.ContentLength
	descriptor.MimeType = result.ContentType
	if descriptor.MimeType == "" {
		descriptor.MimeType = MimeTypeByExtension(urlhandler.Extension(descriptor.Filename))
	}
	return descriptor
}

// embedFilename names an external embed after its title or link text. Without
// one, a placeholder derived from the URL keeps the name stable across runs.
func embedFilename(hint, resolvedURL string) string {
	basis := strings.TrimSpace(hint)
	if basis == "" {
		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(resolvedURL)).String()
		basis = embedPlaceholderTag + id[:8]
	}
	return basis + embedFilenameExt
}
