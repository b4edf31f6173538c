package extractor

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/mediascout/internal/models"
)

// rawText sweeps the unparsed page text with URL-shaped patterns. It also
// covers JSON-escaped URLs (https:\/\/...) found in bundled state blobs.
func (e *Extractor) rawText(_ *goquery.Document, page Page) []models.CandidateReference {
	text := page.RawText
	if text == "" {
		text = page.Markup
	}

	sources := []string{text}
	if strings.Contains(text, `\/`) {
		sources = append(sources, strings.ReplaceAll(text, `\/`, `/`))
	}

	var candidates []models.CandidateReference
	for _, source := range sources {
		for _, re := range e.table.RawTextPatterns {
			for _, match := range re.FindAllStringSubmatch(source, -1) {
				if len(match) < 2 {
					continue
				}
				raw := html.UnescapeString(match[1])
				if !e.passesRawFilter(raw) {
					continue
				}
				candidates = append(candidates, models.CandidateReference{
					RawURL:        raw,
					SourceHint:    models.SourceRawText,
					SuggestedType: models.CategoryVideo,
				})
			}
		}
	}

	return candidates
}

func (e *Extractor) passesRawFilter(raw string) bool {
	if len(raw) < e.table.RawScanMinLength {
		return false
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http") {
		return false
	}
	return !containsAny(lower, e.table.RawRejectMarkers)
}
