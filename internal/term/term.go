// Package term wraps gdamore/tcell/v2 behind the cell-oriented terminal
// abstraction the design notes call for: attribute bitmask, color-pair
// allocation, wide-character cell writes, key/mouse/resize events, and a
// hidden off-screen cell surface that is never drawn.
package term

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dgouders/lsp/internal/fatal"
	"github.com/dgouders/lsp/internal/sgr"
)

// Screen owns the live terminal. It is acquired once at startup and must
// be released (via End) before any exit path, fatal or not, per the
// concurrency model's "guaranteed cleanup" requirement.
type Screen struct {
	s tcell.Screen

	pairs *sgr.Allocator
}

// maxColorPairs bounds color-pair allocation; beyond it the design's
// documented fallback is the default pair plus a status message, not a
// fatal error.
const maxColorPairs = 256

// Open acquires and initializes the controlling terminal.
func Open() (*Screen, *fatal.Error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fatal.Wrap("term.Open", err)
	}
	if err := s.Init(); err != nil {
		return nil, fatal.Wrap("term.Open", err)
	}
	s.HideCursor()
	return &Screen{s: s, pairs: sgr.NewAllocator(maxColorPairs)}, nil
}

// End releases the terminal. Safe to call more than once.
func (sc *Screen) End() {
	if sc.s != nil {
		sc.s.Fini()
	}
}

// Size returns (maxy, maxx): rows, then columns, matching the design's
// ordering for cmd_resize.
func (sc *Screen) Size() (maxy, maxx int) {
	w, h := sc.s.Size()
	return h, w
}

// Clear blanks the visible surface.
func (sc *Screen) Clear() { sc.s.Clear() }

// Show flushes pending cell writes to the terminal.
func (sc *Screen) Show() { sc.s.Show() }

// SetCell writes one display cell at (row, col) with the given rune and
// attribute state. Wide runes occupy the following cell as a continuation
// automatically (tcell's SetContent handles this).
func (sc *Screen) SetCell(row, col int, r rune, attr sgr.State) {
	sc.s.SetContent(col, row, r, nil, sc.style(attr))
}

// style converts an sgr.State into a tcell.Style, allocating (or reusing)
// a color pair for the (fg, bg) combination. Pair exhaustion degrades to
// the default pair rather than erroring, per §7's recoverable taxonomy.
func (sc *Screen) style(attr sgr.State) tcell.Style {
	st := tcell.StyleDefault
	if attr.Attr&sgr.Bold != 0 {
		st = st.Bold(true)
	}
	if attr.Attr&sgr.Underline != 0 {
		st = st.Underline(true)
	}
	if attr.Attr&sgr.Reverse != 0 {
		st = st.Reverse(true)
	}
	if attr.Attr&sgr.Blink != 0 {
		st = st.Blink(true)
	}
	if attr.Attr&sgr.Dim != 0 {
		st = st.Dim(true)
	}
	if attr.Attr&sgr.Italic != 0 {
		st = st.Italic(true)
	}

	if _, ok := sc.pairs.Pair(attr.FG, attr.BG); ok {
		if attr.FG >= 0 {
			st = st.Foreground(tcell.PaletteColor(attr.FG))
		}
		if attr.BG >= 0 {
			st = st.Background(tcell.PaletteColor(attr.BG))
		}
	}
	return st
}

// Event is the normalized shape of one terminal event: a key, a resize,
// or a mouse action, mirroring the three event kinds the design notes
// require the terminal layer to surface.
type Event struct {
	Kind    EventKind
	Key     tcell.Key
	Rune    rune
	Mod     tcell.ModMask
	MouseX  int
	MouseY  int
	Buttons tcell.ButtonMask
}

type EventKind int

const (
	EventKey EventKind = iota
	EventResize
	EventMouse
)

// PollEvent blocks for the next terminal event, the single suspension
// point in the whole engine per the concurrency model.
func (sc *Screen) PollEvent() Event {
	switch ev := sc.s.PollEvent().(type) {
	case *tcell.EventKey:
		return Event{Kind: EventKey, Key: ev.Key(), Rune: ev.Rune(), Mod: ev.Modifiers()}
	case *tcell.EventResize:
		return Event{Kind: EventResize}
	case *tcell.EventMouse:
		x, y := ev.Position()
		return Event{Kind: EventMouse, MouseX: x, MouseY: y, Buttons: ev.Buttons()}
	default:
		return Event{Kind: EventResize}
	}
}

// HasPendingEvent reports whether another event is already queued, used
// by the resize-storm mitigation's non-blocking drain.
func (sc *Screen) HasPendingEvent() bool { return sc.s.HasPendingEvent() }

// Surface is a hidden off-screen cell buffer, never drawn, backed by
// tcell.CellBuffer: a detached grid with the same SetContent/GetContent
// shape as the live screen. The Wrapper does not use it; wrap.Partition
// computes window-line boundaries from rune widths directly.
type Surface struct {
	buf  tcell.CellBuffer
	w, h int
}

// NewSurface returns a Surface sized w by h.
func NewSurface(w, h int) *Surface {
	s := &Surface{w: w, h: h}
	s.buf.Resize(w, h)
	return s
}

func (s *Surface) Resize(w, h int) {
	s.w, s.h = w, h
	s.buf.Resize(w, h)
}

func (s *Surface) SetCell(row, col int, r rune) {
	if row < 0 || row >= s.h || col < 0 || col >= s.w {
		return
	}
	s.buf.SetContent(col, row, r, nil, tcell.StyleDefault)
}
