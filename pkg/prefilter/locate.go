package prefilter

import (
	"bytes"
	"sort"

	"github.com/cloudflare/ahocorasick"

	"github.com/praetorian-inc/disclose/pkg/search"
	"github.com/praetorian-inc/disclose/pkg/types"
)

// Locate finds `"key": value` occurrences for the last segment of each keypath without
// parsing. It is the fallback for received transcripts the grammar rejects.
//
// Only the region between the first '{' and the last '}' is searched. Each match runs
// from the key's opening quote to the end of its value: a string including its closing
// quote, a bracketed value including its closer, or a bare scalar up to the next
// ',', '}', ']' or whitespace. Matches are labelled with the full keypath and returned
// in offset order.
func Locate(content []byte, keypaths []string) []search.Match {
	start := bytes.IndexByte(content, '{')
	end := bytes.LastIndexByte(content, '}')
	if start < 0 || end < start {
		return nil
	}
	region := content[start : end+1]

	keywords := Keywords(keypaths)
	if len(keywords) == 0 {
		return nil
	}
	byKeyword := make(map[string][]string)
	for _, kp := range keypaths {
		k := `"` + search.LastSegment(kp) + `"`
		byKeyword[k] = append(byKeyword[k], kp)
	}

	matcher := ahocorasick.NewStringMatcher(keywords)
	var matches []search.Match
	for _, hit := range matcher.Match(region) {
		keyword := keywords[hit]
		for _, offset := range indexAll(region, []byte(keyword)) {
			valueEnd, ok := scanEntry(region, offset+len(keyword))
			if !ok {
				continue
			}
			span := types.Span(start+offset, start+valueEnd)
			for _, kp := range byKeyword[keyword] {
				matches = append(matches, search.Match{Kind: types.KindFallback, Field: kp, Span: span})
			}
		}
	}

	sortMatches(matches)
	return matches
}

// scanEntry expects `\s*:\s*value` at pos and returns the offset just past the value.
func scanEntry(b []byte, pos int) (int, bool) {
	pos = skipSpace(b, pos)
	if pos >= len(b) || b[pos] != ':' {
		return 0, false
	}
	pos = skipSpace(b, pos+1)
	if pos >= len(b) {
		return 0, false
	}

	switch b[pos] {
	case '"':
		return scanString(b, pos)
	case '{', '[':
		return scanBracketed(b, pos)
	default:
		end := pos
		for end < len(b) && bytes.IndexByte([]byte(",}] \t\r\n"), b[end]) < 0 {
			end++
		}
		return end, end > pos
	}
}

// scanString returns the offset just past the string starting at pos.
func scanString(b []byte, pos int) (int, bool) {
	for i := pos + 1; i < len(b); i++ {
		switch b[i] {
		case '\\':
			i++
		case '"':
			return i + 1, true
		}
	}
	return 0, false
}

// scanBracketed returns the offset just past the object or array starting at pos.
func scanBracketed(b []byte, pos int) (int, bool) {
	depth := 0
	for i := pos; i < len(b); i++ {
		switch b[i] {
		case '"':
			end, ok := scanString(b, i)
			if !ok {
				return 0, false
			}
			i = end - 1
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return 0, false
}

func skipSpace(b []byte, pos int) int {
	for pos < len(b) && (b[pos] == ' ' || b[pos] == '\t' || b[pos] == '\r' || b[pos] == '\n') {
		pos++
	}
	return pos
}

func indexAll(b, sep []byte) []int {
	var out []int
	for off := 0; off < len(b); {
		i := bytes.Index(b[off:], sep)
		if i < 0 {
			break
		}
		out = append(out, off+i)
		off += i + len(sep)
	}
	return out
}

func sortMatches(matches []search.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Span.Start < matches[j].Span.Start
	})
}
