package classifier

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aleister1102/mediascout/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProber struct {
	result ProbeResult
	calls  []string
}

func (s *stubProber) Probe(_ context.Context, absoluteURL string) ProbeResult {
	s.calls = append(s.calls, absoluteURL)
	return s.result
}

type stubPreviews struct {
	reference string
	err       error
}

func (s *stubPreviews) Generate(_ context.Context, _, filenameBasis string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reference + filenameBasis, nil
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestResolve(t *testing.T) {
	base := mustParse(t, "https://example.com/gallery/")

	tests := []struct {
		name         string
		candidate    models.CandidateReference
		keep         bool
		wantURL      string
		wantFilename string
		wantCategory models.Category
	}{
		{
			name:         "relative image",
			candidate:    models.CandidateReference{RawURL: "photo.jpg", SuggestedType: models.CategoryImage},
			keep:         true,
			wantURL:      "https://example.com/gallery/photo.jpg",
			wantFilename: "photo.jpg",
			wantCategory: models.CategoryImage,
		},
		{
			name:         "document by extension",
			candidate:    models.CandidateReference{RawURL: "/files/report.pdf"},
			keep:         true,
			wantURL:      "https://example.com/files/report.pdf",
			wantFilename: "report.pdf",
			wantCategory: models.CategoryDocument,
		},
		{
			name:         "video by extension",
			candidate:    models.CandidateReference{RawURL: "https://EXAMPLE.com/clip.mkv#t=10"},
			keep:         true,
			wantURL:      "https://example.com/clip.mkv",
			wantFilename: "clip.mkv",
			wantCategory: models.CategoryVideo,
		},
		{
			name:      "orphan link discarded",
			candidate: models.CandidateReference{RawURL: "https://example.com/about"},
			keep:      false,
		},
		{
			name:         "video path marker",
			candidate:    models.CandidateReference{RawURL: "https://example.com/uploads/abc"},
			keep:         true,
			wantURL:      "https://example.com/uploads/abc",
			wantFilename: "abc",
			wantCategory: models.CategoryVideo,
		},
		{
			name:         "unrecognized extension is other",
			candidate:    models.CandidateReference{RawURL: "/about.html"},
			keep:         true,
			wantURL:      "https://example.com/about.html",
			wantFilename: "about.html",
			wantCategory: models.CategoryOther,
		},
		{
			name:         "trailing slash keeps placeholder filename",
			candidate:    models.CandidateReference{RawURL: "https://example.com/stream/", SuggestedType: models.CategoryVideo},
			keep:         true,
			wantURL:      "https://example.com/stream/",
			wantFilename: models.UnknownFilename,
			wantCategory: models.CategoryVideo,
		},
		{
			name:      "non http scheme discarded",
			candidate: models.CandidateReference{RawURL: "ftp://example.com/clip.mp4", SuggestedType: models.CategoryVideo},
			keep:      false,
		},
	}

	c := NewClassifier(DefaultCategoryRules(true), zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Resolve(tt.candidate, base)
			require.Equal(t, tt.keep, ok)
			if !tt.keep {
				return
			}
			assert.Equal(t, tt.wantURL, got.ResolvedURL)
			assert.Equal(t, tt.wantFilename, got.Filename)
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.NotEmpty(t, got.Filename)
			assert.True(t, got.Category.IsValid())
		})
	}
}

func TestResolve_KeywordFallback(t *testing.T) {
	candidate := models.CandidateReference{RawURL: "https://example.com/videos"}

	withFallback := NewClassifier(DefaultCategoryRules(true), zerolog.Nop())
	got, ok := withFallback.Resolve(candidate, nil)
	require.True(t, ok)
	assert.Equal(t, models.CategoryVideo, got.Category)

	withoutFallback := NewClassifier(DefaultCategoryRules(false), zerolog.Nop())
	_, ok = withoutFallback.Resolve(candidate, nil)
	assert.False(t, ok)
}

func TestClassify_ExternalEmbed(t *testing.T) {
	prober := &stubProber{result: ProbeResult{OK: true}}
	c := NewClassifier(nil, zerolog.Nop(), WithProber(prober))

	got, ok := c.Classify(context.Background(), models.CandidateReference{
		RawURL:        "https://www.youtube.com/embed/abc",
		SourceHint:    models.SourceEmbedIframe,
		SuggestedType: models.CategoryVideo,
		ExternalEmbed: true,
		FilenameHint:  "My Clip",
	}, nil)

	require.True(t, ok)
	assert.Equal(t, "My Clip.mp4", got.Filename)
	assert.Equal(t, models.CategoryVideo, got.Category)
	assert.True(t, got.IsExternalEmbed)
	assert.Nil(t, got.SizeBytes)
	assert.Empty(t, prober.calls)
}

func TestEmbedFilenamePlaceholderIsStable(t *testing.T) {
	first := embedFilename("", "https://vimeo.com/video/1")
	second := embedFilename("  ", "https://vimeo.com/video/1")
	other := embedFilename("", "https://vimeo.com/video/2")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.True(t, strings.HasPrefix(first, "video_"))
	assert.True(t, strings.HasSuffix(first, ".mp4"))
	assert.Len(t, first, len("video_")+8+len(".mp4"))
}

func TestClassify_ProbeFailureKeepsAsset(t *testing.T) {
	prober := &stubProber{result: ProbeFailure("connection refused")}
	c := NewClassifier(nil, zerolog.Nop(), WithProber(prober))

	got, ok := c.Classify(context.Background(), models.CandidateReference{RawURL: "https://example.com/a/clip.webm"}, nil)

	require.True(t, ok)
	assert.Equal(t, models.CategoryVideo, got.Category)
	assert.Equal(t, "video/webm", got.MimeType)
	assert.Nil(t, got.SizeBytes)
	assert.Equal(t, []string{"https://example.com/a/clip.webm"}, prober.calls)
}

func TestClassify_ProbeSuccess(t *testing.T) {
	size := int64(2048)
	prober := &stubProber{result: ProbeResult{OK: true, ContentLength: &size, ContentType: "application/pdf"}}
	c := NewClassifier(nil, zerolog.Nop(), WithProber(prober))

	got, ok := c.Classify(context.Background(), models.CandidateReference{RawURL: "https://example.com/report.pdf"}, nil)

	require.True(t, ok)
	require.NotNil(t, got.SizeBytes)
	assert.Equal(t, int64(2048), *got.SizeBytes)
	assert.Equal(t, "application/pdf", got.MimeType)
}

func TestClassify_ProbeWithoutContentType(t *testing.T) {
	size := int64(512)
	prober := &stubProber{result: ProbeResult{OK: true, ContentLength: &size}}
	c := NewClassifier(nil, zerolog.Nop(), WithProber(prober))

	got, ok := c.Classify(context.Background(), models.CandidateReference{RawURL: "https://example.com/song.mp3"}, nil)

	require.True(t, ok)
	require.NotNil(t, got.SizeBytes)
	assert.Equal(t, int64(512), *got.SizeBytes)
	assert.Equal(t, "audio/mpeg", got.MimeType)
}

func TestClassify_Previews(t *testing.T) {
	candidate := models.CandidateReference{RawURL: "https://example.com/photo.png"}

	ok := NewClassifier(nil, zerolog.Nop(), WithPreviewGenerator(&stubPreviews{reference: "preview_"}))
	got, kept := ok.Classify(context.Background(), candidate, nil)
	require.True(t, kept)
	assert.Equal(t, "preview_photo.png", got.PreviewReference)
	assert.Equal(t, "image/png", got.MimeType)

	failing := NewClassifier(nil, zerolog.Nop(), WithPreviewGenerator(&stubPreviews{err: errors.New("decode failed")}))
	got, kept = failing.Classify(context.Background(), candidate, nil)
	require.True(t, kept)
	assert.Empty(t, got.PreviewReference)

	video := models.CandidateReference{RawURL: "https://example.com/clip.mp4"}
	got, kept = ok.Classify(context.Background(), video, nil)
	require.True(t, kept)
	assert.Empty(t, got.PreviewReference)
}

func TestClassify_PosterResolved(t *testing.T) {
	c := NewClassifier(nil, zerolog.Nop())
	got, ok := c.Classify(context.Background(), models.CandidateReference{
		RawURL:        "intro.mp4",
		SuggestedType: models.CategoryVideo,
		Auxiliary:     &models.Auxiliary{PosterURL: "poster.jpg"},
	}, mustParse(t, "https://example.com/v/"))

	require.True(t, ok)
	assert.Equal(t, "https://example.com/v/poster.jpg", got.PosterURL)
}

func TestHTTPProber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		switch r.URL.Path {
		case "/ok.mp4":
			w.Header().Set("Content-Type", "video/mp4")
			w.Header().Set("Content-Length", "1234")
			w.WriteHeader(http.StatusOK)
		case "/slow.mp4":
			time.Sleep(200 * time.Millisecond)
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	prober := NewHTTPProber(server.Client(), 50*time.Millisecond, zerolog.Nop())

	result := prober.Probe(context.Background(), server.URL+"/ok.mp4")
	require.True(t, result.OK)
	require.NotNil(t, result.ContentLength)
	assert.Equal(t, int64(1234), *result.ContentLength)
	assert.Equal(t, "video/mp4", result.ContentType)

	result = prober.Probe(context.Background(), server.URL+"/missing.mp4")
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "404")

	result = prober.Probe(context.Background(), server.URL+"/slow.mp4")
	assert.False(t, result.OK)
	assert.NotEmpty(t, result.Reason)
}

func TestMimeTypeByExtension(t *testing.T) {
	assert.Equal(t, "image/jpeg", MimeTypeByExtension(".jpg"))
	assert.Equal(t, "application/pdf", MimeTypeByExtension(".pdf"))
	assert.Equal(t, "", MimeTypeByExtension(""))
}
