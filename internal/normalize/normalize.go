// Package normalize cleans user-supplied listing data before it is stored
// or queried.
//
// The server and the Go client both call SplitTags, so a comma-separated tag
// string normalizes the same way on either side of the wire.
package normalize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// SplitTags splits a comma-separated tag string.
// Each piece is trimmed and empty pieces are dropped. Order and duplicates
// are preserved. The result is never nil.
func SplitTags(s string) []string {
	tags := []string{}
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tags = append(tags, part)
	}
	return tags
}

// Tags normalizes the raw "tags" value of a submission body.
//
// A JSON string is split with SplitTags. A JSON array of strings is returned
// as sent, without trimming its elements. null, an absent value, or any other
// JSON type yields an empty list. An array holding a non-string element is
// rejected.
func Tags(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return []string{}, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode tags string: %w", err)
		}
		return SplitTags(s), nil

	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode tags array: %w", err)
		}
		tags := make([]string, 0, len(items))
		for i, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				return nil, fmt.Errorf("tags[%d] is not a string", i)
			}
			tags = append(tags, s)
		}
		return tags, nil

	default:
		return []string{}, nil
	}
}

// Query prepares a free-text search query: surrounding whitespace is trimmed,
// null bytes are removed and the text is put into Unicode NFC form so that
// composed and decomposed input match the same stored text.
func Query(raw string) string {
	return norm.NFC.String(strings.TrimSpace(sanitizeString(raw)))
}

// Text trims a free-text field and strips null bytes.
func Text(raw string) string {
	return strings.TrimSpace(sanitizeString(raw))
}

var (
	slugSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	slugInvalidRe   = regexp.MustCompile(`[^a-z0-9-]`)
	slugDashesRe    = regexp.MustCompile(`-+`)
)

// TagSlug maps a tag to the key the search index facets and filters on,
// so "Slow Burn", "slow_burn" and "SLOW-BURN" are one tag there.
// Listings keep their tags exactly as submitted.
//
//	"Next.js"     → "nextjs"
//	"  web  api " → "web-api"
//	"🐉 Bots!"    → "bots"
func TagSlug(tag string) string {
	s := strings.ToLower(strings.TrimSpace(tag))
	s = slugSeparatorRe.ReplaceAllString(s, "-")
	s = slugInvalidRe.ReplaceAllString(s, "")
	s = slugDashesRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// TagSlugs slugs every tag, dropping tags that slug to nothing and
// duplicate slugs.
func TagSlugs(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		slug := TagSlug(t)
		if slug == "" || slices.Contains(out, slug) {
			continue
		}
		out = append(out, slug)
	}
	return out
}

// sanitizeString removes null bytes, which some drivers reject in TEXT
// columns.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
