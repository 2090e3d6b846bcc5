// Package nav implements the Navigator: the window-line and physical-line
// motion primitives of §4.3 (wline_fw, wline_bw, goto_last_wpage), the
// less-family motion aliases and marks the spec's supplemental expansion
// adds on top of them, and the TOC cursor's own up/down rules from §4.5.
package nav

import (
	"io"
	"sort"

	"github.com/dgouders/lsp/internal/docring"
	"github.com/dgouders/lsp/internal/fatal"
	"github.com/dgouders/lsp/internal/toc"
	"github.com/dgouders/lsp/internal/wrap"
	"github.com/dgouders/lsp/internal/wrapcache"
)

// Navigator holds the current layout geometry; it owns no document state
// itself, per the design notes' "pass the active document explicitly"
// guidance -- every method takes the *docring.Document to operate on.
type Navigator struct {
	Width     int
	TabWidth  int
	KeepCR    bool
	ChopLines bool

	// Cache, if set, bounds the cost of repartitioning the same physical
	// lines into window lines as WLineFw/WLineBw/GotoLastWPage step back
	// and forth across them. A nil Cache just means every call recomputes.
	Cache *wrapcache.Cache
}

func (n *Navigator) wrapOpts() wrap.Options {
	w := n.Width
	if n.ChopLines {
		w = 0
	}
	return wrap.Options{Width: w, TabWidth: n.TabWidth, KeepCR: n.KeepCR}
}

// partition is wrap.Partition fronted by Cache, keyed on the line's
// document and start offset alongside the current wrap geometry.
func (n *Navigator) partition(doc *docring.Document, lineStart int64, raw []byte) []int {
	opts := n.wrapOpts()
	if n.Cache == nil {
		return wrap.Partition(raw, opts)
	}
	key := wrapcache.Key{Doc: doc.ID, Pos: lineStart, Width: opts.Width, Opts: wrap.PackOpts(opts)}
	if wlines, ok := n.Cache.Get(key); ok {
		return wlines
	}
	wlines := wrap.Partition(raw, opts)
	n.Cache.Set(key, wlines)
	return wlines
}

// WLineFw advances pos forward by count window lines, per wline_fw: it
// materializes the current physical line, partitions it, consumes window
// lines against count, and crosses physical-line boundaries as needed. It
// stops at EOF if count runs out of document before it runs out of lines.
func (n *Navigator) WLineFw(doc *docring.Document, pos int64, count int) (int64, *fatal.Error) {
	for count > 0 {
		lineStart, ferr := doc.LineStart(pos)
		if ferr != nil {
			return pos, ferr
		}
		line, err := doc.GetLine(lineStart)
		if err == io.EOF {
			return pos, nil
		}
		if err != nil {
			return pos, fatal.Wrap("nav.WLineFw", err)
		}

		wlines := n.partition(doc, lineStart, line.Raw)
		idx := windowLineIndex(wlines, int(pos-lineStart))

		remaining := len(wlines) - idx - 1
		if count <= remaining {
			return lineStart + int64(wlines[idx+count]), nil
		}
		count -= remaining + 1
		pos = lineStart + int64(len(line.Raw))
	}
	return pos, nil
}

// WLineBw positions pos backward by count window lines, per wline_bw.
func (n *Navigator) WLineBw(doc *docring.Document, pos int64, count int) (int64, *fatal.Error) {
	for count > 0 {
		lineStart, ferr := doc.LineStart(pos)
		if ferr != nil {
			return pos, ferr
		}
		line, err := doc.GetLine(lineStart)
		if err != nil && err != io.EOF {
			return pos, fatal.Wrap("nav.WLineBw", err)
		}

		var wlines []int
		if err == nil {
			wlines = n.partition(doc, lineStart, line.Raw)
		} else {
			wlines = []int{0}
		}
		idx := windowLineIndex(wlines, int(pos-lineStart))

		if count <= idx {
			return lineStart + int64(wlines[idx-count]), nil
		}
		if lineStart == 0 {
			return 0, nil
		}
		count -= idx + 1
		if _, ferr := doc.LineStart(lineStart - 1); ferr != nil {
			return pos, ferr
		}
		pos = lineStart - 1
	}
	return pos, nil
}

// windowLineIndex returns the index i such that wlines[i] <= localPos <
// wlines[i+1] (or the last index if localPos is past the final boundary).
func windowLineIndex(wlines []int, localPos int) int {
	i := sort.Search(len(wlines), func(i int) bool { return wlines[i] > localPos })
	return i - 1
}

// GotoTop returns offset 0.
func (n *Navigator) GotoTop() int64 { return 0 }

// GotoLastWPage implements goto_last_wpage: force the document fully
// read, then walk backward by physical lines, summing window-line counts,
// until the sum reaches maxRows (maxy-1), returning the start of the line
// at which the threshold was crossed.
func (n *Navigator) GotoLastWPage(doc *docring.Document, maxRows int) (int64, *fatal.Error) {
	if maxRows <= 0 {
		maxRows = 1
	}
	if err := doc.Ring.ReadAll(); err != nil {
		return 0, fatal.Wrap("nav.GotoLastWPage", err)
	}
	size := doc.Ring.Size()
	if ferr := doc.EnsureIndexThrough(size); ferr != nil {
		return 0, ferr
	}

	sum := 0
	for i := doc.Lines.Count() - 1; i >= 0; i-- {
		lineStart := doc.Lines.Offset(i)
		line, err := doc.GetLine(lineStart)
		if err == io.EOF {
			continue
		}
		if err != nil {
			return 0, fatal.Wrap("nav.GotoLastWPage", err)
		}
		sum += len(n.partition(doc, lineStart, line.Raw))
		if sum >= maxRows {
			return lineStart, nil
		}
	}
	return 0, nil
}

// PageForward/PageBackward/HalfPageForward/HalfPageBackward are the
// less-family b/f/Ctrl-B/Ctrl-F/d/u aliases; they resolve to WLineFw/WLineBw
// with no new primitive, per the supplemental-features expansion.
func (n *Navigator) PageForward(doc *docring.Document, pos int64, maxRows int) (int64, *fatal.Error) {
	return n.WLineFw(doc, pos, maxRows)
}

func (n *Navigator) PageBackward(doc *docring.Document, pos int64, maxRows int) (int64, *fatal.Error) {
	return n.WLineBw(doc, pos, maxRows)
}

func (n *Navigator) HalfPageForward(doc *docring.Document, pos int64, maxRows int) (int64, *fatal.Error) {
	return n.WLineFw(doc, pos, maxRows/2)
}

func (n *Navigator) HalfPageBackward(doc *docring.Document, pos int64, maxRows int) (int64, *fatal.Error) {
	return n.WLineBw(doc, pos, maxRows/2)
}

// AlignMatch implements the match-alignment policy: with matchTop (doc's
// persistent preference) XOR invert (a one-shot flip for the current
// CTRL_L press) in effect, the match's line becomes the top line; otherwise
// the three-way rule applies against the page currently on screen
// (doc.PageFirst/doc.PageLast): a match on the page's last line scrolls
// forward half a window, a match on the page but not its last line doesn't
// scroll at all, and a match off the page scrolls so it lands half a
// window below the new top.
func (n *Navigator) AlignMatch(doc *docring.Document, matchPos int64, rows int, matchTop, invert bool) (int64, *fatal.Error) {
	if matchTop != invert {
		return matchPos, nil
	}

	onPage := doc.PageLast > doc.PageFirst && matchPos >= doc.PageFirst && matchPos < doc.PageLast
	if !onPage {
		return n.HalfPageBackward(doc, matchPos, rows)
	}

	lastLineStart, ferr := doc.LineStart(doc.PageLast - 1)
	if ferr != nil {
		return doc.PageFirst, ferr
	}
	matchLineStart, ferr := doc.LineStart(matchPos)
	if ferr != nil {
		return doc.PageFirst, ferr
	}
	if matchLineStart == lastLineStart {
		return n.HalfPageForward(doc, doc.PageFirst, rows)
	}
	return doc.PageFirst, nil
}

// SetMark records pos under letter on doc, per the supplemental "m<letter>"
// command.
func SetMark(doc *docring.Document, letter byte, pos int64) {
	if doc.Marks == nil {
		doc.Marks = make(map[byte]int64)
	}
	doc.Marks[letter] = pos
}

// GotoMark returns the position recorded under letter, per "`<letter>"`.
func GotoMark(doc *docring.Document, letter byte) (int64, bool) {
	pos, ok := doc.Marks[letter]
	return pos, ok
}

// ShiftRight and ShiftLeft adjust the horizontal-shift counter. The source
// keeps lsp_shift as an 8-bit counter whose overflow behavior the design
// notes leave unspecified; this implementation chooses the literal
// consequence of that representation, wrapping modulo 256, as the most
// faithful reading of "it's a uint8" rather than clamping or growing it.
func ShiftRight(shift uint8, cols uint8) uint8 { return shift + cols }
func ShiftLeft(shift uint8, cols uint8) uint8  { return shift - cols }

// TOCCursor tracks the active row within the currently displayed TOC page.
type TOCCursor struct {
	FirstVisible int // index into the visible-entries slice of the page's top row
	Row          int // row offset from FirstVisible
}

// Down moves the cursor to the next entry, scrolling by half a window and
// recentering when it would fall off the bottom of the page -- except on
// the last page, where it simply ascends within the remaining rows
// instead of scrolling past the end, per §4.5.
func (c *TOCCursor) Down(total, pageRows int) {
	next := c.FirstVisible + c.Row + 1
	if next >= total {
		return
	}
	if c.Row+1 < pageRows {
		c.Row++
		return
	}
	if c.FirstVisible+pageRows >= total {
		// last page: no more room to scroll, just ascend.
		c.Row++
		return
	}
	step := pageRows / 2
	if step < 1 {
		step = 1
	}
	c.FirstVisible += step
	c.Row = next - c.FirstVisible
}

// Up moves the cursor to the previous entry. At the top row it scrolls the
// page up by one entry, not by half a window, and leaves the cursor on the
// top row.
func (c *TOCCursor) Up() {
	if c.Row > 0 {
		c.Row--
		return
	}
	if c.FirstVisible == 0 {
		return
	}
	shift := c.FirstVisible
	if shift > 0 {
		c.FirstVisible -= min(shift, 1)
	}
	c.Row = 0
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// TOCVisible is a thin convenience wrapping toc.List.Visible for callers
// that already hold a *toc.List; it exists so Navigator's TOC-mode callers
// don't need to import the toc package themselves for this one call.
func TOCVisible(list *toc.List, level int) []toc.Entry { return list.Visible(level) }
