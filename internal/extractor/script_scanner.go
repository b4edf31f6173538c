package extractor

import (
	"strings"

	"github.com/BishopFox/jsluice"
	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/mediascout/internal/models"
)

var javascriptTypes = map[string]struct{}{
	"":                       {},
	"text/javascript":        {},
	"application/javascript": {},
	"module":                 {},
	"text/ecmascript":        {},
	"application/ecmascript": {},
}

// inlineScripts runs the script pattern table over every inline script body,
// then lets jsluice pull string URLs out of the JavaScript ones. All matches
// are typed video.
func (e *Extractor) inlineScripts(doc *goquery.Document, _ Page) []models.CandidateReference {
	var candidates []models.CandidateReference

	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		if _, external := sel.Attr("src"); external {
			return
		}
		body := sel.Text()
		if strings.TrimSpace(body) == "" {
			return
		}

		candidates = append(candidates, e.scanScriptPatterns(body)...)

		scriptType, _ := sel.Attr("type")
		if _, isJS := javascriptTypes[strings.ToLower(strings.TrimSpace(scriptType))]; isJS && e.options.EnableJSluice {
			candidates = append(candidates, e.analyzeJavaScript(body)...)
		}
	})

	return candidates
}

func (e *Extractor) scanScriptPatterns(body string) []models.CandidateReference {
	var candidates []models.CandidateReference
	for _, re := range e.table.ScriptPatterns {
		for _, match := range re.FindAllStringSubmatch(body, -1) {
			if len(match) < 2 || match[1] == "" {
				continue
			}
			candidates = append(candidates, models.CandidateReference{
				RawURL:        match[1],
				SourceHint:    models.SourceInlineScript,
				SuggestedType: models.CategoryVideo,
			})
		}
	}
	return candidates
}

// analyzeJavaScript keeps jsluice URLs that name a video file or manifest.
func (e *Extractor) analyzeJavaScript(body string) []models.CandidateReference {
	analyzer := jsluice.NewAnalyzer([]byte(body))
	results := analyzer.GetURLs()

	var candidates []models.CandidateReference
	for _, res := range results {
		if res == nil || !e.isUsableRef(res.URL) {
			continue
		}
		if !containsAny(strings.ToLower(res.URL), e.table.ScriptURLExts) {
			continue
		}
		e.logger.Debug().
			Str("url", res.URL).
			Str("type", res.Type).
			Msg("Added video URL from jsluice")
		candidates = append(candidates, models.CandidateReference{
			RawURL:        strings.TrimSpace(res.URL),
			SourceHint:    models.SourceInlineScript,
			SuggestedType: models.CategoryVideo,
		})
	}
	return candidates
}
