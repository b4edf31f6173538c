package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/mediascout/internal/models"
	"golang.org/x/net/html"
)

// dataAttributes inspects every data-* attribute on every element for values
// that mention a video file.
func (e *Extractor) dataAttributes(doc *goquery.Document, _ Page) []models.CandidateReference {
	var candidates []models.CandidateReference

	for _, node := range doc.Find("*").Nodes {
		if node.Type != html.ElementNode {
			continue
		}
		for _, attr := range node.Attr {
			if !strings.HasPrefix(strings.ToLower(attr.Key), "data-") {
				continue
			}
			value := strings.TrimSpace(attr.Val)
			if !e.isUsableRef(value) || !containsAny(strings.ToLower(value), e.table.DataAttrExts) {
				continue
			}
			candidates = append(candidates, models.CandidateReference{
				RawURL:        value,
				SourceHint:    models.SourceDataAttribute,
				SuggestedType: models.CategoryVideo,
			})
		}
	}

	return candidates
}
