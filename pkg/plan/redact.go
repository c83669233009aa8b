package plan

import "github.com/praetorian-inc/disclose/pkg/types"

// Redact returns a copy of data in which every byte outside ranges is replaced by
// mask. A mask of 0 produces the form verifiers receive.
func Redact(data []byte, ranges []types.OffsetSpan, mask byte) []byte {
	out := make([]byte, len(data))
	for i := range out {
		out[i] = mask
	}
	for _, r := range ranges {
		if !r.Valid(len(data)) {
			continue
		}
		copy(out[r.Start:r.End], data[r.Start:r.End])
	}
	return out
}

// Hidden returns the complement of ranges within [0, size). ranges must be canonical.
func Hidden(size int, ranges []types.OffsetSpan) []types.OffsetSpan {
	var out []types.OffsetSpan
	var pos int64
	for _, r := range ranges {
		if r.Start > pos {
			out = append(out, types.OffsetSpan{Start: pos, End: r.Start})
		}
		if r.End > pos {
			pos = r.End
		}
	}
	if pos < int64(size) {
		out = append(out, types.OffsetSpan{Start: pos, End: int64(size)})
	}
	return out
}
