// Package workhorse implements the event loop of §4.9: reading one
// terminal event, dispatching it against the mode bitset's state table,
// and redrawing. It is the one place, besides cmd/lsp, that is allowed to
// touch every other engine package at once -- everything below it stays
// ignorant of keys and screens.
package workhorse

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/dgouders/lsp/internal/blockring"
	"github.com/dgouders/lsp/internal/docring"
	"github.com/dgouders/lsp/internal/fatal"
	"github.com/dgouders/lsp/internal/gref"
	"github.com/dgouders/lsp/internal/nav"
	"github.com/dgouders/lsp/internal/refresolve"
	"github.com/dgouders/lsp/internal/reload"
	"github.com/dgouders/lsp/internal/render"
	"github.com/dgouders/lsp/internal/search"
	"github.com/dgouders/lsp/internal/sgr"
	"github.com/dgouders/lsp/internal/term"
	"github.com/dgouders/lsp/internal/toc"
	"github.com/dgouders/lsp/internal/wrapcache"
)

// wrapCacheCapacity bounds how many (document, line, width) partitions
// Workhorse keeps cached across redraws and scrolls.
const wrapCacheCapacity = 4096

// tocState is the per-document TOC state the source keeps on the Document
// itself (toc, toc_cursor); it is kept here instead, since building and
// walking a TOC is workhorse/Navigator business, not paging-state business.
type tocState struct {
	list   *toc.List
	cursor nav.TOCCursor
}

// Workhorse owns everything needed to run the event loop: the open
// documents, the terminal, the navigation/search/reload collaborators,
// and the transient UI state (status line, TOC, chop-lines/line-numbers
// toggles) that spans redraws.
type Workhorse struct {
	Ring   *docring.Ring
	Screen *term.Screen
	Log    *slog.Logger

	Nav      nav.Navigator
	Resolver *refresolve.Resolver
	Refs     *gref.Cache
	Loader   *reload.Loader

	ChopLines   bool
	LineNumbers bool
	NoColor     bool
	KeepCR      bool
	ICase       bool
	ManCase     bool
	Shift       uint8

	re *search.Engine // the last compiled search pattern, or nil

	toc map[*docring.Document]*tocState

	wrapCache *wrapcache.Cache

	status      string
	statusAt    time.Time
	helpDoc     *docring.Document
	ctrlLArmed  bool // true after a CTRL_L that has only temporarily inverted alignment
	quit        bool
}

// New builds a Workhorse over an already-open ring and screen.
func New(ring *docring.Ring, screen *term.Screen, refs *gref.Cache, resolver *refresolve.Resolver, loader *reload.Loader, log *slog.Logger) *Workhorse {
	wrapCache := wrapcache.New(wrapCacheCapacity)
	w := &Workhorse{
		Ring:      ring,
		Screen:    screen,
		Refs:      refs,
		Resolver:  resolver,
		Loader:    loader,
		Log:       log,
		toc:       make(map[*docring.Document]*tocState),
		wrapCache: wrapCache,
	}
	w.Nav.Cache = wrapCache
	return w
}

// setStatus records a transient status-line message, cleared on the next
// key that is not itself status-producing, per the supplemental
// status-line history feature.
func (w *Workhorse) setStatus(format string, args ...any) {
	w.status = fmt.Sprintf(format, args...)
	w.statusAt = time.Now()
}

// Run is the event loop: poll, dispatch, redraw, until a 'q' with nothing
// left to leave quits the process. It returns a *fatal.Error only for
// conditions §7 classifies as fatal; everything else is absorbed into a
// status message.
func (w *Workhorse) Run(ctx context.Context) *fatal.Error {
	w.redraw()
	for !w.quit {
		ev := w.Screen.PollEvent()
		switch ev.Kind {
		case term.EventResize:
			w.drainResizes()
			if ferr := w.handleResize(); ferr != nil {
				return ferr
			}
		case term.EventKey:
			if ferr := w.dispatch(ctx, ev); ferr != nil {
				return ferr
			}
		case term.EventMouse:
			w.dispatchMouse(ev)
		}
		if !w.quit {
			w.redraw()
		}
	}
	return nil
}

// drainResizes implements the resize-storm mitigation: pause briefly,
// then swallow any further resize events already queued, so a drag-resize
// triggers exactly one reflow instead of one per intermediate size.
func (w *Workhorse) drainResizes() {
	time.Sleep(200 * time.Millisecond)
	for w.Screen.HasPendingEvent() {
		if ev := w.Screen.PollEvent(); ev.Kind != term.EventResize {
			break
		}
	}
}

func (w *Workhorse) handleResize() *fatal.Error {
	doc := w.Ring.Current()
	if doc == nil {
		return nil
	}
	_, maxx := w.Screen.Size()
	if !reload.NeedsReload(w.Nav.Width, maxx) {
		return nil
	}
	w.Nav.Width = maxx
	if reload.AutoReloadable(doc) {
		doc.DoReload = true
	}
	delete(w.toc, doc)
	return nil
}

// dispatch implements the §4.9 state table plus the supplemental
// less-family aliases, marks, help screen, and TOC cycling.
func (w *Workhorse) dispatch(ctx context.Context, ev term.Event) *fatal.Error {
	doc := w.Ring.Current()
	if doc == nil {
		w.quit = true
		return nil
	}
	statusBefore := w.status

	switch {
	case ev.Key == tcell.KeyCtrlL:
		maxy, maxx := w.Screen.Size()
		w.Nav.Width = maxx
		w.toggleMatchAlignment(doc, maxy-1)
	case ev.Rune == 'q':
		w.handleQuit(doc)
	case doc.Mode&docring.ModeTOC != 0:
		w.dispatchTOC(doc, ev)
	case ev.Rune == '/' || ev.Rune == '?':
		w.runSearch(doc, ev.Rune == '/')
	case ev.Key == tcell.KeyTab || ev.Key == tcell.KeyBacktab:
		w.runRefs(ctx, doc, ev.Key == tcell.KeyTab)
	case ev.Key == tcell.KeyEnter && doc.Mode&docring.ModeRefs != 0 && doc.Mode&docring.ModeHighlight != 0:
		w.openReference(ctx, doc)
	case ev.Rune == 'T':
		w.enterTOC(doc)
	case ev.Rune == 'm':
		w.armMark(doc)
	case ev.Rune == '`':
		w.armGotoMark(doc)
	case ev.Rune == 'h' && doc.Mode&docring.ModeRefs == 0:
		w.openHelp()
	default:
		w.dispatchMotion(doc, ev)
	}

	if doc.Mode&docring.ModeRefs != 0 {
		switch {
		case ev.Key == tcell.KeyTab, ev.Key == tcell.KeyBacktab, ev.Key == tcell.KeyEnter:
		default:
			doc.Mode &^= docring.ModeRefs | docring.ModeHighlight
		}
	}

	if ev.Key != tcell.KeyCtrlL {
		w.ctrlLArmed = false
	}

	if w.status == statusBefore && ev.Rune != 0 {
		w.status = ""
	}
	return nil
}

func (w *Workhorse) dispatchMouse(ev term.Event) {
	doc := w.Ring.Current()
	if doc == nil {
		return
	}
	switch ev.Buttons {
	case tcell.WheelUp:
		pos, _ := w.Nav.WLineBw(doc, doc.PageFirst, 3)
		doc.Pos = pos
	case tcell.WheelDown:
		pos, _ := w.Nav.WLineFw(doc, doc.PageFirst, 3)
		doc.Pos = pos
	}
}

func (w *Workhorse) handleQuit(doc *docring.Document) {
	switch {
	case doc.Mode&docring.ModeTOC != 0:
		doc.Mode &^= docring.ModeTOC
	case doc == w.helpDoc:
		w.Ring.Kill(doc)
		w.helpDoc = nil
	default:
		w.quit = true
	}
}

// toggleMatchAlignment implements CTRL_L's double-press policy: the first
// press inverts the alignment policy for this one redraw only; a second
// press, right after the first, instead flips doc's persistent preference
// and leaves the current screen alone.
func (w *Workhorse) toggleMatchAlignment(doc *docring.Document, rows int) {
	if !doc.CurrentMatch.Valid {
		return
	}
	if w.ctrlLArmed {
		doc.MatchTop = !doc.MatchTop
		w.ctrlLArmed = false
		w.setStatus("match alignment: %v", doc.MatchTop)
		return
	}
	w.ctrlLArmed = true
	pos, ferr := w.Nav.AlignMatch(doc, doc.CurrentMatch.So, rows, doc.MatchTop, true)
	if ferr != nil {
		w.Log.Error("alignFailed", "op", ferr.Op, "err", ferr.Err)
		return
	}
	doc.Pos = pos
	w.setStatus("aligned to current match")
}

// dispatchMotion resolves every navigation key, including the
// supplemental less-family aliases, to Navigator primitives.
func (w *Workhorse) dispatchMotion(doc *docring.Document, ev term.Event) {
	maxy, maxx := w.Screen.Size()
	rows := maxy - 1
	w.Nav.Width = maxx
	w.Nav.ChopLines = w.ChopLines
	w.Nav.KeepCR = w.KeepCR

	var pos int64
	var ferr *fatal.Error
	switch {
	case ev.Rune == 'j', ev.Key == tcell.KeyDown, ev.Key == tcell.KeyEnter:
		pos, ferr = w.Nav.WLineFw(doc, doc.Pos, 1)
	case ev.Rune == 'k', ev.Key == tcell.KeyUp:
		pos, ferr = w.Nav.WLineBw(doc, doc.Pos, 1)
	case ev.Rune == 'f', ev.Key == tcell.KeyCtrlF, ev.Key == tcell.KeyPgDn:
		pos, ferr = w.Nav.PageForward(doc, doc.Pos, rows)
	case ev.Rune == 'b', ev.Key == tcell.KeyCtrlB, ev.Key == tcell.KeyPgUp:
		pos, ferr = w.Nav.PageBackward(doc, doc.Pos, rows)
	case ev.Rune == 'd':
		pos, ferr = w.Nav.HalfPageForward(doc, doc.Pos, rows)
	case ev.Rune == 'u':
		pos, ferr = w.Nav.HalfPageBackward(doc, doc.Pos, rows)
	case ev.Rune == 'g':
		pos = w.Nav.GotoTop()
	case ev.Rune == 'G':
		pos, ferr = w.Nav.GotoLastWPage(doc, rows)
	case ev.Rune == 'L':
		w.Shift = nav.ShiftRight(w.Shift, 8)
		return
	case ev.Rune == 'H':
		w.Shift = nav.ShiftLeft(w.Shift, 8)
		return
	case ev.Rune == 'c':
		w.Ring.Kill(doc)
		return
	case ev.Rune == 'n':
		w.repeatSearch(doc, true)
		return
	case ev.Rune == 'p':
		w.repeatSearch(doc, false)
		return
	default:
		return
	}
	if ferr != nil {
		w.Log.Error("motionFailed", "op", ferr.Op, "err", ferr.Err)
		return
	}
	doc.Pos = pos
}

func (w *Workhorse) armMark(doc *docring.Document) {
	ev := w.Screen.PollEvent()
	if ev.Kind != term.EventKey || ev.Rune == 0 {
		return
	}
	nav.SetMark(doc, byte(ev.Rune), doc.Pos)
	w.setStatus("mark %c set", ev.Rune)
}

func (w *Workhorse) armGotoMark(doc *docring.Document) {
	ev := w.Screen.PollEvent()
	if ev.Kind != term.EventKey || ev.Rune == 0 {
		return
	}
	pos, ok := nav.GotoMark(doc, byte(ev.Rune))
	if !ok {
		w.setStatus("no mark %c", ev.Rune)
		return
	}
	doc.Pos = pos
}

// runSearch implements "/" and "?": reads a pattern from the status line
// (here, a single blocking read of terminal input is simplified to one
// line of runes terminated by Enter), compiles it, and runs one
// forward/backward search, enabling HIGHLIGHT on a hit.
func (w *Workhorse) runSearch(doc *docring.Document, forward bool) {
	pattern := w.readStatusLine(map[bool]string{true: "/", false: "?"}[forward])
	if pattern == "" {
		return
	}
	eng, err := search.Compile(pattern, w.ICase)
	if err != nil {
		w.setStatus("regex error: %v", err)
		return
	}
	w.re = eng
	doc.Mode &^= docring.ModeRefs
	doc.Regex = nil

	maxy, maxx := w.Screen.Size()
	w.Nav.Width = maxx

	var m search.Match
	var ok bool
	var ferr *fatal.Error
	if forward {
		m, ok, ferr = eng.Forward(doc, doc.Pos)
	} else {
		m, ok, ferr = eng.Backward(doc, doc.Pos)
	}
	w.applySearchResult(doc, m, ok, ferr, maxy-1)
}

// InitialSearch runs a forward search for pattern from the start of the
// current document, for the "--search-string" startup flag.
func (w *Workhorse) InitialSearch(pattern string) {
	doc := w.Ring.Current()
	if doc == nil {
		return
	}
	eng, err := search.Compile(pattern, w.ICase)
	if err != nil {
		w.setStatus("regex error: %v", err)
		return
	}
	w.re = eng
	maxy, maxx := w.Screen.Size()
	w.Nav.Width = maxx
	m, ok, ferr := eng.Forward(doc, 0)
	w.applySearchResult(doc, m, ok, ferr, maxy-1)
}

func (w *Workhorse) repeatSearch(doc *docring.Document, sameDirection bool) {
	if w.re == nil {
		w.setStatus("no previous search")
		return
	}
	forward := sameDirection
	maxy, maxx := w.Screen.Size()
	w.Nav.Width = maxx
	var m search.Match
	var ok bool
	var ferr *fatal.Error
	if forward {
		m, ok, ferr = w.re.Forward(doc, doc.Pos)
	} else {
		m, ok, ferr = w.re.Backward(doc, doc.Pos)
	}
	w.applySearchResult(doc, m, ok, ferr, maxy-1)
}

// applySearchResult records a search hit and aligns the page to it per the
// three-way scroll policy (AlignMatch), with no inversion since this is not
// a CTRL_L press.
func (w *Workhorse) applySearchResult(doc *docring.Document, m search.Match, ok bool, ferr *fatal.Error, rows int) {
	if ferr != nil {
		w.Log.Error("searchFailed", "op", ferr.Op, "err", ferr.Err)
		w.setStatus("search error")
		return
	}
	if !ok {
		w.setStatus("Pattern not found")
		return
	}
	doc.CurrentMatch = docring.Match{So: m.So, Eo: m.Eo, Valid: true}
	doc.Mode |= docring.ModeHighlight
	pos, aerr := w.Nav.AlignMatch(doc, m.So, rows, doc.MatchTop, false)
	if aerr != nil {
		w.Log.Error("alignFailed", "op", aerr.Op, "err", aerr.Err)
		doc.Pos = m.So
		return
	}
	doc.Pos = pos
}

// runRefs implements TAB/Shift-TAB: search the built-in reference pattern
// forward from doc.Pos, filtering by validation through the resolver.
// Shift-TAB runs the same forward search; there is no backward reference
// search.
func (w *Workhorse) runRefs(ctx context.Context, doc *docring.Document, forward bool) {
	doc.Mode |= docring.ModeRefs
	if !forward {
		w.setStatus("backward refs search is not supported; searching forward")
	}
	rm, ok, ferr := search.ForwardRefs(doc, doc.Pos, w.Resolver)
	if ferr != nil {
		w.Log.Error("refsFailed", "op", ferr.Op, "err", ferr.Err)
		return
	}
	if !ok {
		w.setStatus("no valid reference found")
		doc.Mode &^= docring.ModeRefs
		return
	}
	doc.CurrentMatch = docring.Match{So: rm.Match.So, Eo: rm.Match.Eo, Valid: true}
	doc.Mode |= docring.ModeHighlight
	doc.Pos = rm.Match.So
}

// openReference implements ENTER on a REFS+HIGHLIGHT match: invoke the
// loader for the ref under the cursor and switch the current document to
// the freshly loaded one.
func (w *Workhorse) openReference(ctx context.Context, doc *docring.Document) {
	if !doc.CurrentMatch.Valid {
		return
	}
	line, err := doc.GetLine(doc.CurrentMatch.So)
	if err != nil {
		return
	}
	raw := line.Raw[doc.CurrentMatch.So-line.Pos : doc.CurrentMatch.Eo-line.Pos]
	name, section := refresolve.Parse(string(raw))
	if name == "" {
		return
	}
	if existing := w.Ring.Find(fmt.Sprintf("%s(%s)", name, section)); existing != nil {
		w.Ring.MoveToFront(existing)
		return
	}

	maxy, maxx := w.Screen.Size()
	res, ferr := w.Loader.Load(ctx, name, section, maxy, maxx)
	if ferr != nil {
		w.setStatus("unable to load %s(%s)", name, section)
		w.Log.Error("loadFailed", "name", name, "section", section, "err", ferr.Err)
		return
	}
	newDoc := docring.New(res.PageName, res.Ring, docring.FTypeLSPLoadedManpage, w.Log)
	w.Ring.Add(newDoc)
}

// enterTOC builds (if needed) and enters TOC mode for doc, per "T".
func (w *Workhorse) enterTOC(doc *docring.Document) {
	if doc.IsEmpty() {
		w.setStatus("No TOC for empty files")
		return
	}
	st := w.toc[doc]
	if st == nil {
		list, ferr := toc.Build(doc)
		if ferr != nil {
			w.Log.Error("tocBuildFailed", "op", ferr.Op, "err", ferr.Err)
			return
		}
		st = &tocState{list: list}
		w.toc[doc] = st
	}
	doc.Mode |= docring.ModeTOC
}

// dispatchTOC handles keys while ModeTOC is set: cycling the visible
// level, cursor motion, and ENTER to jump.
func (w *Workhorse) dispatchTOC(doc *docring.Document, ev term.Event) {
	st := w.toc[doc]
	if st == nil {
		doc.Mode &^= docring.ModeTOC
		return
	}
	maxy, _ := w.Screen.Size()
	pageRows := maxy - 1

	switch {
	case ev.Rune == 'T':
		doc.TOCLevelVisible = (doc.TOCLevelVisible + 1) % 3
		st.cursor = nav.TOCCursor{}
	case ev.Key == tcell.KeyEnter:
		visible := nav.TOCVisible(st.list, doc.TOCLevelVisible)
		idx := st.cursor.FirstVisible + st.cursor.Row
		if idx >= 0 && idx < len(visible) {
			doc.Pos = int64(visible[idx].Pos)
		}
		doc.Mode &^= docring.ModeTOC
	case ev.Rune == 'j', ev.Key == tcell.KeyDown:
		visible := nav.TOCVisible(st.list, doc.TOCLevelVisible)
		st.cursor.Down(len(visible), pageRows)
	case ev.Rune == 'k', ev.Key == tcell.KeyUp:
		st.cursor.Up()
	}
}

// redrawTOC renders the visible TOC entries as one line each, with
// st.cursor's row drawn in reverse video, per §4.5.
func (w *Workhorse) redrawTOC(doc *docring.Document, st *tocState, maxy, maxx int) {
	rows := maxy - 1
	visible := nav.TOCVisible(st.list, doc.TOCLevelVisible)
	state := sgr.DefaultState()

	for row := 0; row < rows; row++ {
		idx := st.cursor.FirstVisible + row
		if idx < 0 || idx >= len(visible) {
			break
		}
		entry := visible[idx]
		line, err := doc.GetLine(entry.Pos)
		if err != nil {
			break
		}
		res := render.Line(line.Raw, state, render.Options{
			Width:     maxx,
			ChopLines: true,
		}, render.Match{})
		if len(res.Rows) == 0 {
			continue
		}
		cells := res.Rows[0]
		if row == st.cursor.Row {
			for i := range cells {
				cells[i].Highlight = render.HighlightTOC
			}
		}
		col := 0
		for _, c := range cells {
			cst := c.Attr
			if w.NoColor {
				cst.FG, cst.BG = -1, -1
			}
			if c.Highlight == render.HighlightTOC {
				cst.Attr |= sgr.Reverse
			}
			w.Screen.SetCell(row, col, displayRune(c.Ch), cst)
			col++
		}
	}
}

func (w *Workhorse) openHelp() {
	if w.helpDoc != nil {
		w.Ring.MoveToFront(w.helpDoc)
		return
	}
	w.helpDoc = buildHelpDoc(w.Log)
	w.Ring.Add(w.helpDoc)
}

// redraw renders the current document's page into the terminal.
func (w *Workhorse) redraw() {
	doc := w.Ring.Current()
	if doc == nil {
		return
	}
	maxy, maxx := w.Screen.Size()
	w.Screen.Clear()

	if doc.Mode&docring.ModeTOC != 0 {
		if st := w.toc[doc]; st != nil {
			w.redrawTOC(doc, st, maxy, maxx)
			w.drawStatusLine(maxy-1, maxx)
			w.Screen.Show()
			return
		}
		doc.Mode &^= docring.ModeTOC
	}

	rows := maxy - 1
	pos := doc.Pos
	row := 0
	state := sgr.DefaultState()
	for row < rows {
		line, err := doc.GetLine(pos)
		if err != nil {
			break
		}
		m := render.Match{}
		if doc.Mode&docring.ModeHighlight != 0 && doc.CurrentMatch.Valid {
			m = render.Match{
				So:    int(doc.CurrentMatch.So - line.Pos),
				Eo:    int(doc.CurrentMatch.Eo - line.Pos),
				Valid: true,
				Ref:   doc.Mode&docring.ModeRefs != 0,
			}
		}
		res := render.Line(line.Raw, state, render.Options{
			Width:       maxx,
			ChopLines:   w.ChopLines,
			LineNumbers: w.LineNumbers,
			KeepCR:      w.KeepCR,
			Shift:       int(w.Shift),
			Cache:       w.wrapCache,
			DocID:       doc.ID,
			LinePos:     pos,
		}, m)
		state = res.EndState
		for _, wrow := range res.Rows {
			if row >= rows {
				break
			}
			col := 0
			if w.LineNumbers {
				fmt.Fprintf(lineNumberWriter{w.Screen, row}, "%7d|", lineNumber(doc, pos))
				col = render.GutterWidth
			}
			for _, c := range wrow {
				st := c.Attr
				if w.NoColor {
					st.FG, st.BG = -1, -1
				}
				if c.Highlight == render.HighlightMatch {
					st.Attr |= sgr.Reverse
				} else if c.Highlight == render.HighlightRef {
					st.Attr |= sgr.Underline
				}
				w.Screen.SetCell(row, col, displayRune(c.Ch), st)
				col++
			}
			row++
		}
		pos += int64(len(line.Raw))
		if len(line.Raw) == 0 {
			break
		}
	}
	doc.PageFirst = doc.Pos
	doc.PageLast = pos

	w.drawStatusLine(maxy-1, maxx)
	w.Screen.Show()
}

func displayRune(r rune) rune {
	if r == 0 {
		return ' '
	}
	return r
}

func lineNumber(doc *docring.Document, pos int64) int {
	return doc.Lines.LineContaining(pos) + 1
}

type lineNumberWriter struct {
	s   *term.Screen
	row int
}

func (lw lineNumberWriter) Write(p []byte) (int, error) {
	for i, r := range string(p) {
		lw.s.SetCell(lw.row, i, r, sgr.DefaultState())
	}
	return len(p), nil
}

func (w *Workhorse) drawStatusLine(row, maxx int) {
	msg := w.status
	if msg == "" {
		doc := w.Ring.Current()
		if doc != nil {
			msg = doc.Name
		}
	}
	for i := 0; i < maxx; i++ {
		r := rune(' ')
		if i < len(msg) {
			r = rune(msg[i])
		}
		w.Screen.SetCell(row, i, r, sgr.State{Attr: sgr.Reverse})
	}
}

// readStatusLine reads a line of input on the status row, with prompt as
// its leading character (the "/" or "?" the user just pressed).
func (w *Workhorse) readStatusLine(prompt string) string {
	var buf []rune
	maxy, maxx := w.Screen.Size()
	for {
		row := maxy - 1
		line := prompt + string(buf)
		for i := 0; i < maxx; i++ {
			r := rune(' ')
			if i < len(line) {
				r = rune(line[i])
			}
			w.Screen.SetCell(row, i, r, sgr.DefaultState())
		}
		w.Screen.Show()

		ev := w.Screen.PollEvent()
		if ev.Kind != term.EventKey {
			continue
		}
		switch ev.Key {
		case tcell.KeyEnter:
			return string(buf)
		case tcell.KeyEsc:
			return ""
		case tcell.KeyBackspace, tcell.KeyBackspace2:
			if len(buf) > 0 {
				buf = buf[:len(buf)-1]
			}
		default:
			if ev.Rune != 0 {
				buf = append(buf, ev.Rune)
			}
		}
	}
}

// buildHelpDoc renders the supplemental in-pager help screen as a
// synthetic, non-file document.
func buildHelpDoc(log *slog.Logger) *docring.Document {
	text := "" +
		"lsp key reference\n\n" +
		"/ ?        search forward / backward\n" +
		"n p        repeat last search forward / backward\n" +
		"TAB        next reference   Shift-TAB  next reference too\n" +
		"ENTER      open reference under cursor (while in refs+highlight)\n" +
		"T          build/enter TOC; T again cycles visible level\n" +
		"j k        down / up one window line\n" +
		"f b / d u  page / half-page forward / backward\n" +
		"g G        top / end\n" +
		"H L        shift view left / right\n" +
		"m<letter>  set mark     `<letter>  go to mark\n" +
		"c          kill current document\n" +
		"h          this help screen\n" +
		"q          quit (or leave TOC / close help)\n"

	ring := blockring.New(strings.NewReader(text), nil, len(text), blockring.Unknown, nil)
	return docring.New("*help*", ring, docring.FTypeRegular, log)
}
