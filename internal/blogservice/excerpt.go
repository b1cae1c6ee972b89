package blogservice

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

var ErrInvalidTagFormat = errors.New("invalid tag format")

var (
	markupTagRX  = regexp.MustCompile(`<[^>]+>`)
	whitespaceRX = regexp.MustCompile(`\s+`)
)

const (
	excerptMaxLen   = 300
	excerptCutLen   = 297
	excerptEllipsis = "..."
)

// deriveExcerpt produces the list-view excerpt. An explicit excerpt wins;
// otherwise the content is stripped of markup-like tags and collapsed to
// single spaces. Either way the result is capped at 300 characters, the
// ellipsis marker included only when something was actually cut off.
func deriveExcerpt(explicit, content string) string {
	source := strings.TrimSpace(explicit)
	if source == "" {
		source = markupTagRX.ReplaceAllString(content, " ")
		source = whitespaceRX.ReplaceAllString(source, " ")
		source = strings.TrimSpace(source)
	}

	return truncateExcerpt(source)
}

func truncateExcerpt(s string) string {
	runes := []rune(s)
	if len(runes) <= excerptMaxLen {
		return s
	}

	return string(runes[:excerptCutLen]) + excerptEllipsis
}

// ParseTags accepts the tag field of a multipart form: either empty, or a
// JSON-serialized array of strings. Anything else is a malformed
// serialization and rejects the whole request.
func ParseTags(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, ErrInvalidTagFormat
	}

	return tags, nil
}
