package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/mediascout/internal/models"
)

// embedIframes picks up player iframes of the known video platforms.
func (e *Extractor) embedIframes(doc *goquery.Document, _ Page) []models.CandidateReference {
	var candidates []models.CandidateReference

	doc.Find("iframe[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if !e.isUsableRef(src) || !containsAny(strings.ToLower(src), e.table.EmbedMarkers) {
			return
		}
		title, _ := sel.Attr("title")
		candidates = append(candidates, models.CandidateReference{
			RawURL:        strings.TrimSpace(src),
			SourceHint:    models.SourceEmbedIframe,
			SuggestedType: models.CategoryVideo,
			ExternalEmbed: true,
			FilenameHint:  collapseSpace(title),
		})
	})

	return candidates
}

// watchLinks picks up anchors pointing at platform watch pages. The link
// text becomes the filename basis.
func (e *Extractor) watchLinks(doc *goquery.Document, _ Page) []models.CandidateReference {
	var candidates []models.CandidateReference

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !e.isUsableRef(href) || !containsAny(strings.ToLower(href), e.table.WatchMarkers) {
			return
		}
		candidates = append(candidates, models.CandidateReference{
			RawURL:        strings.TrimSpace(href),
			SourceHint:    models.SourceAnchorLink,
			SuggestedType: models.CategoryVideo,
			ExternalEmbed: true,
			FilenameHint:  collapseSpace(sel.Text()),
		})
	})

	return candidates
}

// anchors emits every link as an untyped candidate; the classifier decides
// whether it names an asset.
func (e *Extractor) anchors(doc *goquery.Document, _ Page) []models.CandidateReference {
	var candidates []models.CandidateReference

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if !e.isUsableRef(href) {
			return
		}
		candidates = append(candidates, models.CandidateReference{
			RawURL:     strings.TrimSpace(href),
			SourceHint: models.SourceAnchorLink,
		})
	})

	return candidates
}
