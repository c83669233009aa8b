// Package search computes the byte ranges that disclose a set of keypaths and header
// names from a parsed message.
package search

import (
	"sort"
	"strings"

	"github.com/praetorian-inc/disclose/pkg/types"
)

// Searchable is a parsed message whose fields can be located by keypath.
type Searchable interface {
	// Headers maps header names, as they appeared, to header lines.
	Headers() map[string]types.RangedHeader
	// Content returns the body value, or nil when there is none.
	Content() types.RangedValue
	// AdditionalRanges are always disclosed.
	AdditionalRanges() []types.OffsetSpan
}

// AdditionalMatcher is implemented by messages that can label their additional ranges.
type AdditionalMatcher interface {
	AdditionalMatches() []Match
}

// Match is one located field.
type Match struct {
	Kind  types.DisclosureKind
	Field string
	Span  types.OffsetSpan
}

// RangesForKeypaths returns every range needed to disclose keypaths and headers from s.
// The result is in traversal order and may contain overlapping ranges; see Canonicalize.
func RangesForKeypaths(s Searchable, keypaths, headers []string) []types.OffsetSpan {
	matches := MatchesForKeypaths(s, keypaths, headers)
	spans := make([]types.OffsetSpan, len(matches))
	for i, m := range matches {
		spans[i] = m.Span
	}
	return spans
}

// MatchesForKeypaths is RangesForKeypaths with each range labelled by what selected it.
//
// Additional ranges come first, then headers in name order, then body matches in
// depth-first order with object keys visited in sorted order. A keypath that does not
// occur contributes nothing.
func MatchesForKeypaths(s Searchable, keypaths, headers []string) []Match {
	var matches []Match

	if am, ok := s.(AdditionalMatcher); ok {
		matches = append(matches, am.AdditionalMatches()...)
	} else {
		for _, span := range s.AdditionalRanges() {
			matches = append(matches, Match{Kind: types.KindAdditional, Span: span})
		}
	}

	wanted := toSet(headers)
	hs := s.Headers()
	for _, name := range sortedKeys(hs) {
		if _, ok := wanted[name]; ok {
			matches = append(matches, Match{Kind: types.KindHeader, Field: name, Span: hs[name].Range})
		}
	}

	if content := s.Content(); content != nil && len(keypaths) > 0 {
		w := &walker{keypaths: toSet(keypaths)}
		w.walk(content, "")
		matches = append(matches, w.matches...)
	}

	return matches
}

type walker struct {
	keypaths map[string]struct{}
	matches  []Match
}

func (w *walker) walk(v types.RangedValue, path string) {
	switch v := v.(type) {
	case *types.Object:
		for _, key := range sortedKeys(v.Fields) {
			child := v.Fields[key]
			childPath := key
			if path != "" {
				childPath = path + "." + key
			}

			if _, ok := w.keypaths[childPath]; ok {
				if span, ok := entrySpan(v, key, child); ok {
					w.matches = append(w.matches, Match{Kind: types.KindKeypath, Field: childPath, Span: span})
				}
			}
			w.walk(child, childPath)
		}
	case *types.Array:
		for _, item := range v.Items {
			w.walk(item, path)
		}
	}
}

// entrySpan returns the span of the `"key":value` entry for key. Grammar-built objects
// record it directly. Otherwise it is derived from the value's span assuming the
// compact rendering `"key":` immediately before the value.
func entrySpan(obj *types.Object, key string, value types.RangedValue) (types.OffsetSpan, bool) {
	if span, ok := obj.EntrySpan(key); ok {
		return span, true
	}
	if value.Kind() == types.KindNull {
		return types.OffsetSpan{}, false
	}

	r := value.Range()
	start := r.Start - int64(len(key)+3)
	if start < 0 {
		start = 0
	}
	return types.OffsetSpan{Start: start, End: r.End}, true
}

// Canonicalize sorts spans and merges those that overlap or touch. Empty spans are dropped.
func Canonicalize(spans []types.OffsetSpan) []types.OffsetSpan {
	sorted := make([]types.OffsetSpan, 0, len(spans))
	for _, s := range spans {
		if !s.IsEmpty() {
			sorted = append(sorted, s)
		}
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	var out []types.OffsetSpan
	for _, s := range sorted {
		if n := len(out); n > 0 && s.Start <= out[n-1].End {
			if s.End > out[n-1].End {
				out[n-1].End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// LastSegment returns the final key of a dotted keypath.
func LastSegment(keypath string) string {
	if i := strings.LastIndexByte(keypath, '.'); i >= 0 {
		return keypath[i+1:]
	}
	return keypath
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
