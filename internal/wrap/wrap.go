// Package wrap partitions a physical line into window lines for a given
// terminal width, simulating cell output the way the design's hidden
// off-screen test surface would: tabs expand to the next stop, a bare
// carriage return displays as the two cells "^M", and SGR/overstrike
// control bytes are zero-width.
package wrap

import (
	"unicode/utf8"

	"github.com/dgouders/lsp/internal/lineread"
	"github.com/mattn/go-runewidth"
)

// DefaultTabWidth is the tab stop used unless overridden.
const DefaultTabWidth = 8

// Options controls how a line is partitioned.
type Options struct {
	Width    int
	TabWidth int  // 0 means DefaultTabWidth
	KeepCR   bool // when true, '\r' is not expanded to "^M"
}

// Partition returns wlines: raw-byte offsets within raw marking the start
// of each window line, always beginning with 0. When opts.Width <= 0
// (chop-lines mode, or a not-yet-known width) the whole line is one window
// line.
func Partition(raw []byte, opts Options) []int {
	if opts.Width <= 0 {
		return []int{0}
	}
	tabWidth := opts.TabWidth
	if tabWidth <= 0 {
		tabWidth = DefaultTabWidth
	}

	wlines := []int{0}
	col := 0
	for _, st := range lineread.Walk(raw) {
		if len(st.Bytes) == 0 {
			continue // control run with nothing emitted (trailing SGR/overstrike)
		}
		if st.Bytes[0] == '\n' {
			continue // never wraps, never itself starts a trailing window line
		}

		w := CellWidth(st.Bytes, col, tabWidth, opts.KeepCR)

		if col+w > opts.Width && col > 0 {
			wlines = append(wlines, st.RawStart)
			col = 0
		}
		col += w
	}
	return wlines
}

// CellWidth reports how many terminal columns b (one emitted payload
// character) occupies starting at column col, the same accounting the
// Renderer uses so wrap boundaries and drawn cells always agree.
func CellWidth(b []byte, col, tabWidth int, keepCR bool) int {
	switch {
	case len(b) == 1 && b[0] == '\t':
		return tabWidth - (col % tabWidth)
	case len(b) == 1 && b[0] == '\r' && !keepCR:
		return 2 // displayed as "^M"
	default:
		r, _ := utf8.DecodeRune(b)
		if w := runewidth.RuneWidth(r); w > 0 {
			return w
		}
		return 1
	}
}

// Count returns the number of window lines raw partitions into at width,
// without allocating the full offset slice beyond what Partition already
// returns.
func Count(raw []byte, opts Options) int {
	return len(Partition(raw, opts))
}

// PackOpts flattens the parts of Options besides Width that affect a
// partition result, for callers that cache Partition's output keyed on
// something flatter than Options itself (Width already distinguishes
// chop-lines mode, since it is passed as 0).
func PackOpts(o Options) int64 {
	v := int64(o.TabWidth) << 1
	if o.KeepCR {
		v |= 1
	}
	return v
}
