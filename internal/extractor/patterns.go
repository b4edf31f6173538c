package extractor

import (
	"regexp"

	"github.com/rs/zerolog"
)

// videoExtAlternation is the extension group shared by the script and raw text patterns.
const videoExtAlternation = `mp4|webm|avi|mov|flv|mkv|m4v|3gp|ogv|mpg|mpeg|ts|mts|m3u8`

var defaultScriptPatterns = []string{
	`(?i)["'](https?://[^"']+\.(?:` + videoExtAlternation + `)[^"']*)["']`,
	`(?i)["'](https?://[^"']*video[^"']*\.(?:` + videoExtAlternation + `)[^"']*)["']`,
	`(?i)(?:src|url|file|source|href):\s*["'](https?://[^"']+\.(?:` + videoExtAlternation + `)[^"']*)["']`,
	`(?i)["'](https?://[^"']*\.m3u8[^"']*)["']`,
	`(?i)["'](https?://[^"']*stream[^"']*)["']`,
	`(?i)["'](https?://[^"']*manifest[^"']*)["']`,
	`(?i)["'](https?://[^"']*cdn[^"']*\.(?:mp4|webm|avi|mov)[^"']*)["']`,
	`(?i)["'](https?://[^"']*media[^"']*\.(?:mp4|webm|avi|mov)[^"']*)["']`,
	`(?i)["'](https?://[^"']*assets[^"']*\.(?:mp4|webm|avi|mov)[^"']*)["']`,
}

var defaultRawTextPatterns = []string{
	`(?i)(https?://[^\s"'<>]+\.(?:` + videoExtAlternation + `)(?:\?[^\s"'<>]*)?)`,
	`(?i)(https?://[^\s"'<>]*(?:video|stream|media|cdn|assets)[^\s"'<>]*\.(?:mp4|webm|avi|mov)(?:\?[^\s"'<>]*)?)`,
	`(?i)(https?://[^\s"'<>]*\.m3u8(?:\?[^\s"'<>]*)?)`,
	`(?i)(https?://[^\s"'<>]*(?:manifest|playlist)\.m3u8(?:\?[^\s"'<>]*)?)`,
}

// PatternTable is the immutable set of markers, patterns and limits the
// strategies read. Build it once and share it between extractors.
type PatternTable struct {
	EmbedMarkers []string // iframe src substrings of known player platforms
	WatchMarkers []string // anchor href substrings of platform watch pages

	ScriptPatterns  []*regexp.Regexp // capture group 1 is the URL
	RawTextPatterns []*regexp.Regexp // capture group 1 is the URL

	JSONLDKeys       map[string]struct{} // lowercase keys holding media URLs
	JSONLDVideoExts  []string
	DataAttrExts     []string
	ScriptURLExts    []string // extensions accepted from jsluice results
	RejectedPrefixes []string // pseudo-schemes never worth a candidate
	RawRejectMarkers []string

	RawScanMinLength int
	MaxJSONLDDepth   int
}

// CompileRegexes compiles a slice of regex patterns into a slice of *regexp.Regexp
func CompileRegexes(patterns []string, logger zerolog.Logger) []*regexp.Regexp {
	var compiledRegexes []*regexp.Regexp
	for _, pattern := range patterns {
		if re, err := regexp.Compile(pattern); err == nil {
			compiledRegexes = append(compiledRegexes, re)
		} else {
			logger.Warn().
				Str("pattern", pattern).
				Err(err).
				Msg("Failed to compile regex, skipping")
		}
	}
	return compiledRegexes
}

// NewPatternTable builds the default table with the given limits. Non-positive
// limits fall back to the defaults.
func NewPatternTable(maxJSONLDDepth, rawScanMinLength int, logger zerolog.Logger) *PatternTable {
	if maxJSONLDDepth <= 0 {
		maxJSONLDDepth = 32
	}
	if rawScanMinLength <= 0 {
		rawScanMinLength = 11
	}

	return &PatternTable{
		EmbedMarkers: []string{"youtube.com/embed", "vimeo.com/video", "dailymotion.com/embed", "twitch.tv"},
		WatchMarkers: []string{"youtube.com/watch", "youtu.be/", "vimeo.com/", "twitch.tv/"},

		ScriptPatterns:  CompileRegexes(defaultScriptPatterns, logger),
		RawTextPatterns: CompileRegexes(defaultRawTextPatterns, logger),

		JSONLDKeys: map[string]struct{}{
			"contenturl": {},
			"url":        {},
			"embedurl":   {},
		},
		JSONLDVideoExts:  []string{".mp4", ".webm", ".avi", ".mov"},
		DataAttrExts:     []string{".mp4", ".webm", ".avi", ".mov", ".flv", ".mkv", ".m4v"},
		ScriptURLExts:    []string{".mp4", ".webm", ".avi", ".mov", ".flv", ".mkv", ".m4v", ".3gp", ".ogv", ".mpg", ".mpeg", ".m3u8", ".mpd"},
		RejectedPrefixes: []string{"data:", "javascript:", "mailto:", "tel:", "blob:", "about:"},
		RawRejectMarkers: []string{"javascript:", "data:", "blob:"},

		RawScanMinLength: rawScanMinLength,
		MaxJSONLDDepth:   maxJSONLDDepth,
	}
}

// DefaultPatternTable returns the table with default limits.
func DefaultPatternTable() *PatternTable {
	return NewPatternTable(0, 0, zerolog.Nop())
}
