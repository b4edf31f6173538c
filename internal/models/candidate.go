package models

// SourceHint records which extraction strategy produced a candidate.
type SourceHint string

const (
	SourceTagAttribute  SourceHint = "tag-attribute"
	SourceEmbedIframe   SourceHint = "embed-iframe"
	SourceAnchorLink    SourceHint = "anchor-link"
	SourceInlineScript  SourceHint = "inline-script"
	SourceStructured    SourceHint = "structured-data"
	SourceDataAttribute SourceHint = "data-attribute"
	SourceRawText       SourceHint = "raw-text-scan"
)

// SourceHints lists all hints in strategy order.
var SourceHints = []SourceHint{
	SourceTagAttribute,
	SourceEmbedIframe,
	SourceAnchorLink,
	SourceInlineScript,
	SourceStructured,
	SourceDataAttribute,
	SourceRawText,
}

// Auxiliary carries side data discovered next to a candidate.
type Auxiliary struct {
	// PosterURL is the raw (unresolved) poster attribute of a video tag.
	PosterURL string
}

// CandidateReference is an unresolved mention of a possible asset.
// RawURL is exactly what appeared in the page; resolution happens in the classifier.
type CandidateReference struct {
	RawURL        string
	SourceHint    SourceHint
	SuggestedType Category // empty when the strategy has no type opinion
	Auxiliary     *Auxiliary

	// ExternalEmbed marks third-party player pages. FilenameHint is the
	// basis for the descriptor filename (iframe title or link text).
	ExternalEmbed bool
	FilenameHint  string
}
