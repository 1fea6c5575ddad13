// Package trigram implements a naive n-gram search index: normalise text,
// extract every 1/2/3-code-point contiguous substring at write time, and
// derive a single search prefix from a query at read time. It trades
// recall for simplicity — the index degenerates to a prefix match, and the
// caller is expected to run a linear post-filter over candidates.
package trigram

import (
	"strings"
)

// Normalize lowercases, trims, and removes whitespace, '-', '_' and '&'.
// Operates on Unicode code points throughout, not bytes.
func Normalize(text string) string {
	s := strings.ToLower(text)
	s = strings.TrimSpace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '-' || r == '_' || r == '&':
			continue
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Extract returns the deduplicated set of 1-, 2- and 3-code-point
// contiguous substrings of the normalised text. An empty input yields an
// empty list; input shorter than 3 code points yields the normalised
// string as its sole element.
func Extract(text string) []string {
	clean := []rune(Normalize(text))
	if len(clean) == 0 {
		return nil
	}
	if len(clean) < 3 {
		return []string{string(clean)}
	}

	seen := make(map[string]struct{})
	for i := range clean {
		seen[string(clean[i:i+1])] = struct{}{}
		if i > 0 {
			seen[string(clean[i-1:i+1])] = struct{}{}
		}
		if i > 1 {
			seen[string(clean[i-2:i+1])] = struct{}{}
		}
	}

	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	return out
}

// SearchBound derives the range-scan anchor for a query: empty input
// yields "" with ok=false (no bound — caller falls back to the full
// index), input shorter than 3 code points yields the normalised query,
// otherwise its first 3 code points.
func SearchBound(query string) (string, bool) {
	clean := []rune(Normalize(query))
	if len(clean) == 0 {
		return "", false
	}
	if len(clean) < 3 {
		return string(clean), true
	}
	return string(clean[:3]), true
}
