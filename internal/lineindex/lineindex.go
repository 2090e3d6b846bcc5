// Package lineindex is the per-document ordered sequence of byte offsets
// marking the start of each physical line. It grows incrementally as the
// BlockRing is read further, and supports the binary search the design
// calls for when mapping an arbitrary byte offset back to "which physical
// line contains this".
//
// The binary-search shape follows the teacher's byterange.go, which keeps a
// slice ordered by offset and uses slices.BinarySearchFunc rather than any
// tree structure -- appropriate here too, since offsets only ever grow and
// are never removed or reordered.
package lineindex

import (
	"fmt"
	"slices"

	"github.com/dgouders/lsp/internal/fatal"
)

// Index is the append-only list of physical-line start offsets for one
// document. offsets[0] is always 0.
type Index struct {
	offsets []int64
}

// New returns an Index with the mandatory first entry (offset 0) already
// present.
func New() *Index {
	return &Index{offsets: []int64{0}}
}

// Count returns the number of physical lines recorded so far. An empty
// file's Index (see ResetEmpty) reports 0.
func (x *Index) Count() int { return len(x.offsets) }

// Offset returns the start offset of physical line i (0-based).
func (x *Index) Offset(i int) int64 { return x.offsets[i] }

// Last returns the start offset of the most recently recorded line.
func (x *Index) Last() int64 { return x.offsets[len(x.offsets)-1] }

// Append records the start offset of the next physical line. It must be
// strictly greater than the previous entry; a violation is a fatal
// invariant break, since it can only mean the scanner that drives Append
// walked backwards or re-scanned a line it already indexed.
func (x *Index) Append(offset int64) *fatal.Error {
	if len(x.offsets) > 0 && offset <= x.offsets[len(x.offsets)-1] {
		return fatal.Newf("lineindex.Append",
			"non-monotonic line offset: %d after %d", offset, x.offsets[len(x.offsets)-1])
	}
	x.offsets = append(x.offsets, offset)
	return nil
}

// LineContaining returns the index of the physical line whose range
// [Offset(i), Offset(i+1)) contains pos (the last line's range is open-
// ended). pos must be >= 0.
func (x *Index) LineContaining(pos int64) int {
	i, hit := slices.BinarySearch(x.offsets, pos)
	if hit {
		return i
	}
	return i - 1
}

// Reset discards everything except the mandatory offset-0 entry.
func (x *Index) Reset() {
	x.offsets = x.offsets[:1]
}

// ResetEmpty clears even the offset-0 entry, for the documented empty-file
// special case where lines_count == 0.
func (x *Index) ResetEmpty() {
	x.offsets = x.offsets[:0]
}

// String is for debug logging only.
func (x *Index) String() string {
	return fmt.Sprintf("lineindex(n=%d)", len(x.offsets))
}
