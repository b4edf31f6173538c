package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/mediascout/internal/models"
)

// mediaTags walks img, video and audio elements in document order. Video
// sources carry the poster of their element.
func (e *Extractor) mediaTags(doc *goquery.Document, _ Page) []models.CandidateReference {
	var candidates []models.CandidateReference

	doc.Find("img, video, audio, picture").Each(func(_ int, sel *goquery.Selection) {
		switch goquery.NodeName(sel) {
		case "img":
			candidates = append(candidates, e.imageCandidates(sel)...)
		case "video":
			candidates = append(candidates, e.playableCandidates(sel, models.CategoryVideo)...)
		case "audio":
			candidates = append(candidates, e.playableCandidates(sel, models.CategoryAudio)...)
		case "picture":
			sel.ChildrenFiltered("source[srcset]").Each(func(_ int, source *goquery.Selection) {
				srcset, _ := source.Attr("srcset")
				for _, raw := range parseSrcset(srcset) {
					candidates = e.appendTyped(candidates, raw, models.CategoryImage, nil)
				}
			})
		}
	})

	return candidates
}

func (e *Extractor) imageCandidates(sel *goquery.Selection) []models.CandidateReference {
	var candidates []models.CandidateReference
	if src, ok := sel.Attr("src"); ok {
		candidates = e.appendTyped(candidates, src, models.CategoryImage, nil)
	}
	if srcset, ok := sel.Attr("srcset"); ok {
		for _, raw := range parseSrcset(srcset) {
			candidates = e.appendTyped(candidates, raw, models.CategoryImage, nil)
		}
	}
	return candidates
}

func (e *Extractor) playableCandidates(sel *goquery.Selection, category models.Category) []models.CandidateReference {
	var aux *models.Auxiliary
	if category == models.CategoryVideo {
		if poster, ok := sel.Attr("poster"); ok && e.isUsableRef(poster) {
			aux = &models.Auxiliary{PosterURL: strings.TrimSpace(poster)}
		}
	}

	var candidates []models.CandidateReference
	if src, ok := sel.Attr("src"); ok {
		candidates = e.appendTyped(candidates, src, category, aux)
	}
	sel.Find("source[src]").Each(func(_ int, source *goquery.Selection) {
		src, _ := source.Attr("src")
		candidates = e.appendTyped(candidates, src, category, aux)
	})
	return candidates
}

func (e *Extractor) appendTyped(candidates []models.CandidateReference, raw string, category models.Category, aux *models.Auxiliary) []models.CandidateReference {
	if !e.isUsableRef(raw) {
		return candidates
	}
	return append(candidates, models.CandidateReference{
		RawURL:        strings.TrimSpace(raw),
		SourceHint:    models.SourceTagAttribute,
		SuggestedType: category,
		Auxiliary:     aux,
	})
}

// parseSrcset extracts URLs from a srcset attribute value
// Example: "image1.jpg 1x, image2.jpg 2x" -> ["image1.jpg", "image2.jpg"]
func parseSrcset(srcset string) []string {
	var urls []string
	for _, part := range strings.Split(srcset, ",") {
		trimmedPart := strings.TrimSpace(part)
		if trimmedPart == "" {
			continue
		}
		fields := strings.Fields(trimmedPart)
		if len(fields) > 0 {
			urls = append(urls, fields[0])
		}
	}
	return urls
}
