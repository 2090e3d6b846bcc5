// Package render implements the Renderer of §4.7: turning one physical
// line's raw bytes into the window-line rows of display cells, layering
// SGR state, overstrike attributes, match highlighting, and the
// line-number gutter exactly the way the design specifies.
package render

import (
	"github.com/dgouders/lsp/internal/lineread"
	"github.com/dgouders/lsp/internal/sgr"
	"github.com/dgouders/lsp/internal/wrap"
	"github.com/dgouders/lsp/internal/wrapcache"
)

// Highlight distinguishes why a cell is drawn specially, independent of
// its underlying SGR attribute.
type Highlight int

const (
	HighlightNone Highlight = iota
	HighlightMatch          // standout, for a normal search hit
	HighlightRef            // underline, for a refs-mode hit
	HighlightTOC            // the active TOC cursor row
)

// Cell is one drawn terminal cell.
type Cell struct {
	Ch        rune
	Attr      sgr.State
	Highlight Highlight
}

// GutterWidth is the fixed width of the "%7ld|" line-number column (§4.7).
const GutterWidth = 8

// Options controls one line's rendering.
type Options struct {
	Width       int // full terminal columns; effectiveWidth subtracts the gutter when LineNumbers is set
	TabWidth    int
	KeepCR      bool
	ChopLines   bool
	LineNumbers bool
	Shift       int // horizontal shift; cells with column < Shift are suppressed

	// Cache, DocID and LinePos front the wrap partition with wrapcache.
	// Cache == nil just means every call recomputes.
	Cache   *wrapcache.Cache
	DocID   int64
	LinePos int64
}

// effectiveWidth is opts.Width minus the gutter, if enabled.
func (o Options) effectiveWidth() int {
	if o.LineNumbers {
		return o.Width - GutterWidth
	}
	return o.Width
}

// partition is wrap.Partition fronted by opts.Cache, keyed on the line's
// document, start offset and wrap geometry.
func (o Options) partition(raw []byte, partWidth int) []int {
	wopts := wrap.Options{Width: partWidth, TabWidth: o.TabWidth, KeepCR: o.KeepCR}
	if o.Cache == nil {
		return wrap.Partition(raw, wopts)
	}
	key := wrapcache.Key{Doc: o.DocID, Pos: o.LinePos, Width: wopts.Width, Opts: wrap.PackOpts(wopts)}
	if wlines, ok := o.Cache.Get(key); ok {
		return wlines
	}
	wlines := wrap.Partition(raw, wopts)
	o.Cache.Set(key, wlines)
	return wlines
}

// Match is a line-local raw-byte match span, or the zero value's Valid
// field false when there is no match on this line.
type Match struct {
	So, Eo int
	Valid  bool
	Ref    bool // highlight style: ref (underline) vs search (standout)
}

// Result is the outcome of rendering one physical line.
type Result struct {
	Rows      [][]Cell
	EndState  sgr.State // SGR state in effect at the end of the line, for the next line's preload
	CMatchRow int       // row of the cell just after the current match, -1 if none
	CMatchCol int
}

// Line renders raw (one physical line, including its trailing '\n' if
// present) into window-line rows at the given width, applying m as the
// highlighted match (if any is Valid) and starting from startState (the
// SGR state preloaded from any prefix already passed on an earlier page,
// per §4.7's "scan the already-passed prefix" rule).
func Line(raw []byte, startState sgr.State, opts Options, m Match) Result {
	width := opts.effectiveWidth()

	partWidth := width
	if opts.ChopLines {
		partWidth = 0 // single window line; overflow is truncated with '>', not wrapped
	}
	wlines := opts.partition(raw, partWidth)

	res := Result{EndState: startState, CMatchRow: -1, CMatchCol: -1}
	row := make([]Cell, 0, max(width, 0))
	truncated := false

	state := startState
	col := 0
	wlineIdx := 0
	tabWidth := opts.TabWidth
	if tabWidth <= 0 {
		tabWidth = wrap.DefaultTabWidth
	}

	flushRow := func() {
		if opts.ChopLines && truncated && width > 0 && len(row) >= width {
			row[width-1] = Cell{Ch: '>', Attr: sgr.DefaultState()}
		}
		res.Rows = append(res.Rows, row)
		row = make([]Cell, 0, max(width, 0))
		truncated = false
	}

	for _, st := range lineread.Walk(raw) {
		// advance to the window line this step belongs to
		for wlineIdx+1 < len(wlines) && st.RawStart >= wlines[wlineIdx+1] {
			flushRow()
			col = 0
			wlineIdx++
		}

		for _, params := range st.SGR {
			state = sgr.Apply(state, params, nil)
		}

		if len(st.Bytes) == 0 {
			continue
		}
		if st.Bytes[0] == '\n' {
			continue
		}

		hl := HighlightNone
		if m.Valid && st.RawStart >= m.So && st.RawStart < m.Eo {
			if m.Ref {
				hl = HighlightRef
			} else {
				hl = HighlightMatch
			}
		}
		if m.Valid && st.RawEnd == m.Eo {
			res.CMatchRow = len(res.Rows)
			res.CMatchCol = col + attrCellWidth(st, col, tabWidth, opts.KeepCR)
		}

		cellAttr := state
		cellAttr.Attr |= overstrikeBits(st.Overstrike)

		w := attrCellWidth(st, col, tabWidth, opts.KeepCR)
		ch, extra := displayChars(st, opts.KeepCR)
		emit := func(r rune) {
			switch {
			case width > 0 && len(row) >= width:
				truncated = true
			case col >= opts.Shift:
				row = append(row, Cell{Ch: r, Attr: cellAttr, Highlight: hl})
			default:
				row = append(row, Cell{})
			}
			col++
		}
		emit(ch)
		for i := 1; i < w; i++ {
			if extra != 0 && i == 1 {
				emit(extra)
			} else {
				emit(' ')
			}
		}
	}
	flushRow()
	res.EndState = state
	return res
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// attrCellWidth mirrors wrap.CellWidth but operating on a lineread.Step.
func attrCellWidth(st lineread.Step, col, tabWidth int, keepCR bool) int {
	return wrap.CellWidth(st.Bytes, col, tabWidth, keepCR)
}

// displayChars returns the rune(s) actually drawn for one step: a tab
// emits a blank first cell (the remaining tab-stop cells are filled by
// the caller's loop), a bare CR not being kept emits "^M" across two
// cells, anything else is the literal rune.
func displayChars(st lineread.Step, keepCR bool) (first rune, second rune) {
	if len(st.Bytes) == 1 && st.Bytes[0] == '\t' {
		return ' ', 0
	}
	if len(st.Bytes) == 1 && st.Bytes[0] == '\r' && !keepCR {
		return '^', 'M'
	}
	r := []rune(string(st.Bytes))
	if len(r) == 0 {
		return ' ', 0
	}
	return r[0], 0
}

func overstrikeBits(k lineread.OverstrikeKind) sgr.Attr {
	switch k {
	case lineread.OverstrikeBold:
		return sgr.Bold
	case lineread.OverstrikeItalicUnderline:
		return sgr.Italic | sgr.Underline
	case lineread.OverstrikeBoldItalic:
		return sgr.Bold | sgr.Italic
	default:
		return 0
	}
}
