package urlhandler

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/aleister1102/mediascout/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestResolveURL(t *testing.T) {
	base := mustParse(t, "https://example.com/gallery/")

	tests := []struct {
		name     string
		href     string
		expected string
		wantErr  bool
	}{
		{name: "relative file", href: "photo.jpg", expected: "https://example.com/gallery/photo.jpg"},
		{name: "root relative", href: "/media/clip.mp4", expected: "https://example.com/media/clip.mp4"},
		{name: "protocol relative", href: "//cdn.example.net/a.png", expected: "https://cdn.example.net/a.png"},
		{name: "absolute with fragment", href: "https://Other.COM/x.pdf#page=2", expected: "https://other.com/x.pdf"},
		{name: "query kept", href: "v.mp4?token=abc", expected: "https://example.com/gallery/v.mp4?token=abc"},
		{name: "empty href", href: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveURL(tt.href, base)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolveURL_NoBase(t *testing.T) {
	_, err := ResolveURL("photo.jpg", nil)
	assert.Error(t, err)

	got, err := ResolveURL("https://example.com/a.png", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a.png", got)
}

func TestParseTargetURL(t *testing.T) {
	_, err := ParseTargetURL("ftp://example.com/file")
	assert.True(t, errors.Is(err, common.ErrUnsupportedScheme))

	_, err = ParseTargetURL("")
	var validationErr *common.ValidationError
	assert.True(t, errors.As(err, &validationErr))

	u, err := ParseTargetURL(" https://example.com/page ")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.Host)
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{raw: "https://example.com/files/report.pdf", expected: "report.pdf"},
		{raw: "https://example.com/files/my%20clip.mp4?x=1", expected: "my clip.mp4"},
		{raw: "https://example.com/", expected: ""},
		{raw: "https://example.com", expected: ""},
		{raw: "https://example.com/about", expected: "about"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, FilenameFromURL(mustParse(t, tt.raw)))
		})
	}
}

func TestSafeFilename(t *testing.T) {
	assert.Equal(t, "a_b_c_d_.txt", SafeFilename(`a<b>c:d?.txt`))
	assert.Equal(t, "download", SafeFilename(""))

	long := strings.Repeat("x", 250) + ".jpeg"
	safe := SafeFilename(long)
	assert.Len(t, safe, MaxFilenameLength)
	assert.True(t, strings.HasSuffix(safe, ".jpeg"))
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "example.com_a_b.png", SanitizeFilename("https://example.com/a b.png"))
	assert.Equal(t, "sanitized_empty_input", SanitizeFilename("https://"))
}

func TestWithCollisionSuffix(t *testing.T) {
	assert.Equal(t, "clip_1.mp4", WithCollisionSuffix("clip.mp4", 1))
	assert.Equal(t, "README_2", WithCollisionSuffix("README", 2))
}

func TestHostSlug(t *testing.T) {
	assert.Equal(t, "www_example_com", HostSlug("https://www.example.com/page"))
	assert.Equal(t, "localhost_8080", HostSlug("http://localhost:8080/"))
	assert.Equal(t, "unknown", HostSlug("::bad"))
}
