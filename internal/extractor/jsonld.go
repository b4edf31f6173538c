package extractor

import (
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/aleister1102/mediascout/internal/models"
)

// jsonKind tags the variant held by a jsonNode.
type jsonKind int

const (
	jsonScalar jsonKind = iota
	jsonString
	jsonObject
	jsonArray
	jsonTruncated
)

type jsonMember struct {
	key   string
	value *jsonNode
}

// jsonNode is a JSON value that keeps object member order, so the walk emits
// candidates in document order.
type jsonNode struct {
	kind    jsonKind
	str     string
	members []jsonMember
	items   []*jsonNode
}

var errUnexpectedDelim = errors.New("unexpected JSON delimiter")

// parseJSONTree decodes the first JSON value of data. Containers nested deeper
// than maxDepth are consumed but not built; they become jsonTruncated nodes.
func parseJSONTree(data string, maxDepth int) (*jsonNode, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	return decodeNode(dec, 0, maxDepth)
}

func decodeNode(dec *json.Decoder, depth, maxDepth int) (*jsonNode, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch v := tok.(type) {
	case json.Delim:
		switch v {
		case '{', '[':
			if depth >= maxDepth {
				if err := skipContainer(dec); err != nil {
					return nil, err
				}
				return &jsonNode{kind: jsonTruncated}, nil
			}
			if v == '{' {
				return decodeObject(dec, depth+1, maxDepth)
			}
			return decodeArray(dec, depth+1, maxDepth)
		default:
			return nil, errUnexpectedDelim
		}
	case string:
		return &jsonNode{kind: jsonString, str: v}, nil
	default:
		return &jsonNode{kind: jsonScalar}, nil
	}
}

func decodeObject(dec *json.Decoder, depth, maxDepth int) (*jsonNode, error) {
	node := &jsonNode{kind: jsonObject}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errUnexpectedDelim
		}
		value, err := decodeNode(dec, depth, maxDepth)
		if err != nil {
			return nil, err
		}
		node.members = append(node.members, jsonMember{key: key, value: value})
	}
	// closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

func decodeArray(dec *json.Decoder, depth, maxDepth int) (*jsonNode, error) {
	node := &jsonNode{kind: jsonArray}
	for dec.More() {
		item, err := decodeNode(dec, depth, maxDepth)
		if err != nil {
			return nil, err
		}
		node.items = append(node.items, item)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return node, nil
}

// skipContainer consumes tokens until the container whose opening delimiter
// was just read is closed.
func skipContainer(dec *json.Decoder) error {
	open := 1
	for open > 0 {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				open++
			case '}', ']':
				open--
			}
		}
	}
	return nil
}

// structuredData walks every JSON-LD block for media URL keys. Malformed
// blocks are skipped.
func (e *Extractor) structuredData(doc *goquery.Document, _ Page) []models.CandidateReference {
	var candidates []models.CandidateReference

	doc.Find("script[type]").Each(func(_ int, sel *goquery.Selection) {
		scriptType, _ := sel.Attr("type")
		if strings.ToLower(strings.TrimSpace(scriptType)) != "application/ld+json" {
			return
		}
		body := strings.TrimSpace(sel.Text())
		if body == "" {
			return
		}

		root, err := parseJSONTree(body, e.table.MaxJSONLDDepth)
		if err != nil {
			e.logger.Debug().Err(err).Msg("Skipping malformed JSON-LD block")
			return
		}
		candidates = e.walkJSONLD(root, candidates)
	})

	return candidates
}

func (e *Extractor) walkJSONLD(node *jsonNode, candidates []models.CandidateReference) []models.CandidateReference {
	switch node.kind {
	case jsonObject:
		for _, m := range node.members {
			if e.isMediaMember(m) {
				candidates = append(candidates, models.CandidateReference{
					RawURL:        strings.TrimSpace(m.value.str),
					SourceHint:    models.SourceStructured,
					SuggestedType: models.CategoryVideo,
				})
				continue
			}
			candidates = e.walkJSONLD(m.value, candidates)
		}
	case jsonArray:
		for _, item := range node.items {
			candidates = e.walkJSONLD(item, candidates)
		}
	}
	return candidates
}

func (e *Extractor) isMediaMember(m jsonMember) bool {
	if m.value.kind != jsonString {
		return false
	}
	if _, ok := e.table.JSONLDKeys[strings.ToLower(m.key)]; !ok {
		return false
	}
	return containsAny(strings.ToLower(m.value.str), e.table.JSONLDVideoExts)
}
