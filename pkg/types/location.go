package types

import (
	"bytes"
	"fmt"
)

// OffsetSpan is byte range [Start, End) - half-open interval.
type OffsetSpan struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Span builds an OffsetSpan from int offsets.
func Span(start, end int) OffsetSpan {
	return OffsetSpan{Start: int64(start), End: int64(end)}
}

// Len returns End - Start.
func (s OffsetSpan) Len() int64 {
	return s.End - s.Start
}

// IsEmpty reports whether the span covers no bytes.
func (s OffsetSpan) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains reports whether other lies entirely inside s.
func (s OffsetSpan) Contains(other OffsetSpan) bool {
	return s.Start <= other.Start && other.End <= s.End
}

// Valid reports whether the span is well formed for a source of the given length.
func (s OffsetSpan) Valid(sourceLen int) bool {
	return s.Start >= 0 && s.Start <= s.End && s.End <= int64(sourceLen)
}

// Slice returns the bytes of src covered by the span.
// Out-of-range spans are clipped to src.
func (s OffsetSpan) Slice(src []byte) []byte {
	start, end := s.Start, s.End
	if start < 0 {
		start = 0
	}
	if end > int64(len(src)) {
		end = int64(len(src))
	}
	if start >= end {
		return nil
	}
	return src[start:end]
}

// String renders the span as start..end.
func (s OffsetSpan) String() string {
	return fmt.Sprintf("%d..%d", s.Start, s.End)
}

// SourcePoint is line:column position (1-based).
type SourcePoint struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// SourceSpan is start-end line:column range.
type SourceSpan struct {
	Start SourcePoint `json:"start"`
	End   SourcePoint `json:"end"`
}

// Location combines byte offsets and source positions.
type Location struct {
	Offset OffsetSpan `json:"offset"`
	Source SourceSpan `json:"source"`
}

// LocationOf computes the line:column positions of span within content.
func LocationOf(content []byte, span OffsetSpan) Location {
	startLine, startCol := ComputeLineColumn(content, int(span.Start))
	endLine, endCol := ComputeLineColumn(content, int(span.End))
	return Location{
		Offset: span,
		Source: SourceSpan{
			Start: SourcePoint{Line: startLine, Column: startCol},
			End:   SourcePoint{Line: endLine, Column: endCol},
		},
	}
}

// ComputeLineColumn computes 1-based line and column numbers for a byte offset.
// Offsets past the end of content are clamped to len(content).
func ComputeLineColumn(content []byte, byteOffset int) (line, column int) {
	if byteOffset > len(content) {
		byteOffset = len(content)
	}
	if byteOffset < 0 {
		byteOffset = 0
	}
	prefix := content[:byteOffset]
	line = bytes.Count(prefix, []byte{'\n'}) + 1
	column = byteOffset - (bytes.LastIndexByte(prefix, '\n') + 1) + 1
	return line, column
}
