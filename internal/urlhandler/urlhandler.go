package urlhandler

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/aleister1102/mediascout/internal/common"
)

// Regex for cleaning preview/archive names
var (
	unsafeFilenameCharsRegex = regexp.MustCompile(`[^a-zA-Z0-9_.-]+`)
	multipleUnderscoresRegex = regexp.MustCompile(`_+`)
)

// reservedFilenameChars are replaced when storing downloaded files.
const reservedFilenameChars = `<>:"/\|?*`

// MaxFilenameLength caps stored download filenames, extension included.
const MaxFilenameLength = 200

// NormalizeURL normalizes a URL string: lowercase scheme and host, no fragment.
func NormalizeURL(rawURL string) (string, error) {
	trimmedURL := strings.TrimSpace(rawURL)
	if trimmedURL == "" {
		return "", errors.New("URL is empty or only whitespace")
	}

	parsedURL, err := url.Parse(trimmedURL)
	if err != nil {
		return "", fmt.Errorf("could not parse URL '%s': %w", trimmedURL, err)
	}

	if parsedURL.Host == "" {
		return "", errors.New("URL lacks a valid hostname")
	}

	parsedURL.Scheme = strings.ToLower(parsedURL.Scheme)
	parsedURL.Host = strings.ToLower(parsedURL.Host)
	parsedURL.Fragment = ""
	parsedURL.RawFragment = ""

	return parsedURL.String(), nil
}

// ResolveURL resolves a (possibly relative) URL string against a base URL.
// The returned URL is also normalized.
func ResolveURL(href string, base *url.URL) (string, error) {
	trimmedHref := strings.TrimSpace(href)
	if trimmedHref == "" {
		return "", fmt.Errorf("href is empty")
	}

	var resolvedURL *url.URL

	if base == nil {
		parsedHref, parseErr := url.Parse(trimmedHref)
		if parseErr != nil {
			return "", fmt.Errorf("error parsing base-less href '%s': %w", trimmedHref, parseErr)
		}
		if !parsedHref.IsAbs() {
			return "", fmt.Errorf("cannot process relative URL '%s' without a base URL", trimmedHref)
		}
		resolvedURL = parsedHref
	} else {
		resolved, resolveErr := base.Parse(trimmedHref)
		if resolveErr != nil {
			return "", fmt.Errorf("error resolving href '%s' with base '%s': %w", trimmedHref, base.String(), resolveErr)
		}
		resolvedURL = resolved
	}

	return NormalizeURL(resolvedURL.String())
}

// IsHTTPScheme reports whether scheme is http or https.
func IsHTTPScheme(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https":
		return true
	default:
		return false
	}
}

// ParseTargetURL validates a user supplied page URL. Only absolute http(s)
// URLs with a host are accepted.
func ParseTargetURL(rawURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, common.NewValidationError("url", rawURL, "URL is empty")
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, common.WrapErrorf(common.ErrInvalidInput, "could not parse URL '%s': %v", trimmed, err)
	}
	if !IsHTTPScheme(parsed.Scheme) {
		return nil, common.WrapErrorf(common.ErrUnsupportedScheme, "'%s'", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, common.NewValidationError("url", rawURL, "URL lacks a valid hostname")
	}
	return parsed, nil
}

// FilenameFromURL returns the last path segment of an absolute URL, unescaped.
// It returns an empty string when the path ends in a slash or is empty.
func FilenameFromURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		return ""
	}
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// Extension returns the lowercase extension of a filename including the dot.
func Extension(filename string) string {
	return strings.ToLower(path.Ext(filename))
}

// SafeFilename replaces characters that are reserved on common filesystems and
// caps the name length while keeping the extension.
func SafeFilename(filename string) string {
	safe := filename
	for _, ch := range reservedFilenameChars {
		safe = strings.ReplaceAll(safe, string(ch), "_")
	}

	if len(safe) > MaxFilenameLength {
		ext := path.Ext(safe)
		if len(ext) >= MaxFilenameLength {
			ext = ""
		}
		safe = safe[:MaxFilenameLength-len(ext)] + ext
	}

	if strings.TrimSpace(safe) == "" {
		return "download"
	}
	return safe
}

// SanitizeFilename creates a conservative filename from any input string.
// It removes the protocol, replaces unsafe characters with underscores and cleans up underscores.
func SanitizeFilename(input string) string {
	name := input
	if i := strings.Index(name, "://"); i != -1 {
		name = name[i+3:]
	}

	name = unsafeFilenameCharsRegex.ReplaceAllString(name, "_")
	name = multipleUnderscoresRegex.ReplaceAllString(name, "_")
	name = strings.Trim(name, "_")

	if name == "" {
		return "sanitized_empty_input"
	}

	return name
}

// WithCollisionSuffix inserts "_<n>" before the extension: clip.mp4 -> clip_1.mp4.
func WithCollisionSuffix(filename string, n int) string {
	ext := path.Ext(filename)
	base := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}

// HostSlug turns a URL host into a filename-friendly slug: www.example.com -> www_example_com.
func HostSlug(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return strings.NewReplacer(".", "_", ":", "_").Replace(parsed.Host)
}
