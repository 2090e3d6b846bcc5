package workhorse

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/dgouders/lsp/internal/blockring"
	"github.com/dgouders/lsp/internal/docring"
	"github.com/dgouders/lsp/internal/search"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestDoc(content string) *docring.Document {
	ring := blockring.New(strings.NewReader(content), nil, 64, blockring.Unknown, nil)
	return docring.New("test", ring, docring.FTypeRegular, nil)
}

func newTestWorkhorse() *Workhorse {
	return &Workhorse{Log: discardLogger(), toc: make(map[*docring.Document]*tocState)}
}

func TestApplySearchResultSetsHighlightOnHit(t *testing.T) {
	w := newTestWorkhorse()
	// "line1\n" (0-6) "line2 hello world\n" (6-24) "line3\n" (24-30): the
	// whole document is the current page, and the match (in line2) is not
	// on its last line, so the no-scroll branch of the alignment policy
	// applies and Pos stays at the page's top.
	doc := newTestDoc("line1\nline2 hello world\nline3\n")
	doc.PageFirst = 0
	doc.PageLast = 30
	w.applySearchResult(doc, search.Match{So: 12, Eo: 17}, true, nil, 10)
	if !doc.CurrentMatch.Valid || doc.CurrentMatch.So != 12 || doc.CurrentMatch.Eo != 17 {
		t.Fatalf("CurrentMatch = %+v", doc.CurrentMatch)
	}
	if doc.Mode&docring.ModeHighlight == 0 {
		t.Fatalf("expected ModeHighlight set")
	}
	if doc.Pos != doc.PageFirst {
		t.Fatalf("Pos = %d, want unchanged PageFirst %d (match on page, not its last line)", doc.Pos, doc.PageFirst)
	}
}

func TestApplySearchResultScrollsForwardWhenMatchOnLastLine(t *testing.T) {
	w := newTestWorkhorse()
	doc := newTestDoc("line1\nline2 hello world\nline3\n")
	doc.PageFirst = 0
	doc.PageLast = 30
	// The match at offset 25 lies in "line3" (24-30), the page's last line.
	w.applySearchResult(doc, search.Match{So: 25, Eo: 30}, true, nil, 10)
	want, ferr := w.Nav.HalfPageForward(doc, 0, 10)
	if ferr != nil {
		t.Fatalf("HalfPageForward: %v", ferr)
	}
	if doc.Pos != want {
		t.Fatalf("Pos = %d, want %d (HalfPageForward from PageFirst)", doc.Pos, want)
	}
}

func TestApplySearchResultScrollsBackHalfWindowWhenMatchOffPage(t *testing.T) {
	w := newTestWorkhorse()
	doc := newTestDoc("line1\nline2 hello world\nline3\n")
	doc.PageFirst = 0
	doc.PageLast = 6 // only "line1\n" is on screen
	w.applySearchResult(doc, search.Match{So: 12, Eo: 17}, true, nil, 10)
	want, ferr := w.Nav.HalfPageBackward(doc, 12, 10)
	if ferr != nil {
		t.Fatalf("HalfPageBackward: %v", ferr)
	}
	if doc.Pos != want {
		t.Fatalf("Pos = %d, want %d (HalfPageBackward from the match)", doc.Pos, want)
	}
}

func TestApplySearchResultReportsMiss(t *testing.T) {
	w := newTestWorkhorse()
	doc := newTestDoc("hello world\n")
	w.applySearchResult(doc, search.Match{}, false, nil, 10)
	if w.status != "Pattern not found" {
		t.Fatalf("status = %q", w.status)
	}
	if doc.CurrentMatch.Valid {
		t.Fatalf("CurrentMatch should remain invalid on a miss")
	}
}

func TestToggleMatchAlignmentFirstPressInvertsAlignment(t *testing.T) {
	w := newTestWorkhorse()
	doc := newTestDoc("line1\nline2 hello world\nline3\n")
	doc.PageFirst = 0
	doc.PageLast = 31
	doc.CurrentMatch = docring.Match{So: 12, Eo: 17, Valid: true}
	w.toggleMatchAlignment(doc, 10)
	if !w.ctrlLArmed {
		t.Fatalf("expected ctrlLArmed after the first press")
	}
	// MatchTop (false) XOR invert (true) is true: the match's line becomes
	// the top line, i.e. Pos lands exactly on the match.
	if doc.Pos != 12 {
		t.Fatalf("Pos = %d, want 12 (match-top alignment)", doc.Pos)
	}
}

func TestToggleMatchAlignmentSecondPressTogglesPersistentMatchTop(t *testing.T) {
	w := newTestWorkhorse()
	doc := newTestDoc("hello world\n")
	doc.CurrentMatch = docring.Match{So: 6, Eo: 11, Valid: true}
	w.ctrlLArmed = true
	w.toggleMatchAlignment(doc, 10)
	if w.ctrlLArmed {
		t.Fatalf("expected ctrlLArmed cleared after the second press")
	}
	if !doc.MatchTop {
		t.Fatalf("expected MatchTop toggled to true")
	}
}

func TestToggleMatchAlignmentNoopWithoutMatch(t *testing.T) {
	w := newTestWorkhorse()
	doc := newTestDoc("hello world\n")
	doc.Pos = 3
	w.toggleMatchAlignment(doc, 10)
	if doc.Pos != 3 {
		t.Fatalf("Pos changed without a current match")
	}
	if w.ctrlLArmed {
		t.Fatalf("should not arm ctrlLArmed without a current match")
	}
}

func TestHandleQuitLeavesTOCBeforeExiting(t *testing.T) {
	w := newTestWorkhorse()
	doc := newTestDoc("hello\n")
	doc.Mode |= docring.ModeTOC
	w.handleQuit(doc)
	if doc.Mode&docring.ModeTOC != 0 {
		t.Fatalf("expected ModeTOC cleared")
	}
	if w.quit {
		t.Fatalf("should not quit while leaving TOC")
	}
}

func TestHandleQuitExitsWithNoSpecialState(t *testing.T) {
	w := newTestWorkhorse()
	doc := newTestDoc("hello\n")
	w.handleQuit(doc)
	if !w.quit {
		t.Fatalf("expected quit to be requested")
	}
}

func TestEnterTOCRefusesEmptyDocument(t *testing.T) {
	w := newTestWorkhorse()
	doc := newTestDoc("")
	doc.Ring.ReadAll()
	w.enterTOC(doc)
	if doc.Mode&docring.ModeTOC != 0 {
		t.Fatalf("ModeTOC should not be set for an empty document")
	}
	if w.status != "No TOC for empty files" {
		t.Fatalf("status = %q", w.status)
	}
}

func TestLineNumberIsOneBased(t *testing.T) {
	doc := newTestDoc("one\ntwo\nthree\n")
	doc.EnsureIndexThrough(14)
	if n := lineNumber(doc, 4); n != 2 {
		t.Fatalf("lineNumber(4) = %d, want 2", n)
	}
}

func TestDisplayRuneBlanksZero(t *testing.T) {
	if displayRune(0) != ' ' {
		t.Fatalf("displayRune(0) should be a space")
	}
	if displayRune('x') != 'x' {
		t.Fatalf("displayRune('x') should pass through")
	}
}
