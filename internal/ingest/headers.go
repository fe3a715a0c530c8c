package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

// stripHeaderBOM removes a UTF-8 BOM from the first header cell if present.
func stripHeaderBOM(headers []string) []string {
	if len(headers) > 0 && strings.HasPrefix(headers[0], utf8BOM) {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers
}

// NormalizeHeader trims and lowercases a header cell. With ascii set it also
// folds accents (NFD, drop Mn, NFC) and reduces the name to [a-z0-9_], turning
// runs of space, dash and dot into a single underscore.
func NormalizeHeader(s string, ascii bool) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if !ascii {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	prevUnderscore := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}

// uniqueHeaders fills empty names with column_<i> and suffixes repeats with _2, _3...
func uniqueHeaders(names []string) []string {
	out := make([]string, len(names))
	taken := make(map[string]bool, len(names))
	for i, n := range names {
		if n == "" {
			n = fmt.Sprintf("column_%d", i)
		}
		cand := n
		for k := 2; taken[cand]; k++ {
			cand = fmt.Sprintf("%s_%d", n, k)
		}
		taken[cand] = true
		out[i] = cand
	}
	return out
}
