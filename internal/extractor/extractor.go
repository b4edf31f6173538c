package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/mediascout/internal/models"
	"github.com/rs/zerolog"
)

// Page is the extractor input: the markup as parsed by the DOM strategies, the
// unparsed text for the full sweep and the base the page was served from.
type Page struct {
	Markup  string
	RawText string
	BaseURL *url.URL
}

// Result holds the candidates in strategy order and the effective base URL
// they should be resolved against.
type Result struct {
	Candidates []models.CandidateReference
	BaseURL    *url.URL
}

// Options toggles the optional parts of the extractor.
type Options struct {
	EnableJSluice bool
}

// Extractor runs every strategy over a page. It performs no I/O and keeps no
// per-call state, so one instance can serve concurrent callers.
type Extractor struct {
	table   *PatternTable
	options Options
	logger  zerolog.Logger
}

// NewExtractor creates an extractor over table. A nil table selects the defaults.
func NewExtractor(table *PatternTable, options Options, logger zerolog.Logger) *Extractor {
	if table == nil {
		table = DefaultPatternTable()
	}
	return &Extractor{
		table:   table,
		options: options,
		logger:  logger.With().Str("component", "Extractor").Logger(),
	}
}

type strategy struct {
	name string
	run  func(doc *goquery.Document, page Page) []models.CandidateReference
}

// Extract returns every candidate reference found in the page. Strategies run
// unconditionally and their outputs are concatenated in a fixed order;
// duplicates are expected and left to the caller.
func (e *Extractor) Extract(page Page) Result {
	result := Result{BaseURL: page.BaseURL}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.Markup))
	if err != nil {
		e.logger.Debug().Err(err).Msg("Markup could not be parsed, only the raw text sweep runs")
		doc = nil
	}

	if doc != nil {
		result.BaseURL = documentBase(doc, page.BaseURL)
	}

	strategies := []strategy{
		{name: "media_tags", run: e.mediaTags},
		{name: "embeds", run: e.embedIframes},
		{name: "watch_links", run: e.watchLinks},
		{name: "anchors", run: e.anchors},
		{name: "inline_scripts", run: e.inlineScripts},
		{name: "json_ld", run: e.structuredData},
		{name: "data_attributes", run: e.dataAttributes},
	}

	for _, s := range strategies {
		if doc == nil {
			break
		}
		found := e.safeRun(s, doc, page)
		result.Candidates = append(result.Candidates, found...)
	}

	result.Candidates = append(result.Candidates, e.safeRun(strategy{name: "raw_text", run: e.rawText}, doc, page)...)

	e.logger.Debug().
		Int("candidate_count", len(result.Candidates)).
		Msg("Extraction completed")

	return result
}

// safeRun isolates a strategy so a panic in one parser never loses the others.
func (e *Extractor) safeRun(s strategy, doc *goquery.Document, page Page) (found []models.CandidateReference) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn().
				Str("strategy", s.name).
				Str("panic", fmt.Sprint(r)).
				Msg("Extraction strategy aborted")
			found = nil
		}
	}()

	found = s.run(doc, page)
	e.logger.Debug().Str("strategy", s.name).Int("count", len(found)).Msg("Strategy finished")
	return found
}

// documentBase applies a <base href> element on top of the serving URL.
func documentBase(doc *goquery.Document, served *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return served
	}
	href = strings.TrimSpace(href)
	if href == "" {
		return served
	}

	var (
		parsed *url.URL
		err    error
	)
	if served != nil {
		parsed, err = served.Parse(href)
	} else {
		parsed, err = url.Parse(href)
	}
	if err != nil || !parsed.IsAbs() {
		return served
	}
	return parsed
}

// isUsableRef rejects empty values, bare fragments and pseudo-scheme references.
func (e *Extractor) isUsableRef(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, prefix := range e.table.RejectedPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return false
		}
	}
	return true
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// collapseSpace trims and folds runs of whitespace into single spaces.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
