package nav

import (
	"strings"
	"testing"

	"github.com/dgouders/lsp/internal/blockring"
	"github.com/dgouders/lsp/internal/docring"
	"github.com/dgouders/lsp/internal/wrap"
	"github.com/dgouders/lsp/internal/wrapcache"
)

func newTestDoc(content string) *docring.Document {
	ring := blockring.New(strings.NewReader(content), nil, 64, blockring.Unknown, nil)
	return docring.New("test", ring, docring.FTypeRegular, nil)
}

func TestWLineFwS5(t *testing.T) {
	doc := newTestDoc("abcdefghijklmno\n")
	n := &Navigator{Width: 10}
	pos, ferr := n.WLineFw(doc, 0, 1)
	if ferr != nil {
		t.Fatalf("WLineFw: %v", ferr)
	}
	if pos != 10 {
		t.Fatalf("pos = %d, want 10", pos)
	}
}

func TestWLineFwThenBwRoundTrips(t *testing.T) {
	doc := newTestDoc("abcdefghijklmno\nsecond line here\n")
	n := &Navigator{Width: 10}
	fwd, ferr := n.WLineFw(doc, 0, 2)
	if ferr != nil {
		t.Fatalf("WLineFw: %v", ferr)
	}
	back, ferr := n.WLineBw(doc, fwd, 2)
	if ferr != nil {
		t.Fatalf("WLineBw: %v", ferr)
	}
	if back != 0 {
		t.Fatalf("round trip = %d, want 0", back)
	}
}

func TestWLineFwStopsAtEOF(t *testing.T) {
	doc := newTestDoc("short\n")
	n := &Navigator{Width: 80}
	pos, ferr := n.WLineFw(doc, 0, 5)
	if ferr != nil {
		t.Fatalf("WLineFw: %v", ferr)
	}
	if pos != 6 {
		t.Fatalf("pos = %d, want 6 (end of document)", pos)
	}
}

func TestMarksSetAndGoto(t *testing.T) {
	doc := newTestDoc("one\ntwo\nthree\n")
	SetMark(doc, 'a', 4)
	pos, ok := GotoMark(doc, 'a')
	if !ok || pos != 4 {
		t.Fatalf("GotoMark = (%d,%v), want (4,true)", pos, ok)
	}
	if _, ok := GotoMark(doc, 'z'); ok {
		t.Fatalf("unset mark should report ok=false")
	}
}

func TestGotoLastWPage(t *testing.T) {
	doc := newTestDoc("one\ntwo\nthree\nfour\nfive\n")
	n := &Navigator{Width: 80}
	pos, ferr := n.GotoLastWPage(doc, 2)
	if ferr != nil {
		t.Fatalf("GotoLastWPage: %v", ferr)
	}
	// with maxRows=2, the last two physical lines ("four\n","five\n")
	// should be the page; its top is the start of "four".
	want := int64(len("one\ntwo\nthree\n"))
	if pos != want {
		t.Fatalf("pos = %d, want %d", pos, want)
	}
}

func TestShiftWrapsModulo256(t *testing.T) {
	var s uint8 = 250
	s = ShiftRight(s, 10)
	if s != 4 {
		t.Fatalf("ShiftRight wraparound = %d, want 4", s)
	}
}

func TestAlignMatchNoScrollWhenOnPageNotLastLine(t *testing.T) {
	doc := newTestDoc("line1\nline2 hello world\nline3\n")
	doc.PageFirst = 0
	doc.PageLast = 31
	n := &Navigator{Width: 80}
	pos, ferr := n.AlignMatch(doc, 12, 10, false, false)
	if ferr != nil {
		t.Fatalf("AlignMatch: %v", ferr)
	}
	if pos != doc.PageFirst {
		t.Fatalf("pos = %d, want unchanged PageFirst %d", pos, doc.PageFirst)
	}
}

func TestAlignMatchScrollsForwardWhenOnPageLastLine(t *testing.T) {
	doc := newTestDoc("line1\nline2 hello world\nline3\n")
	doc.PageFirst = 0
	doc.PageLast = 30
	n := &Navigator{Width: 80}
	pos, ferr := n.AlignMatch(doc, 25, 10, false, false)
	if ferr != nil {
		t.Fatalf("AlignMatch: %v", ferr)
	}
	want, ferr := n.HalfPageForward(doc, doc.PageFirst, 10)
	if ferr != nil {
		t.Fatalf("HalfPageForward: %v", ferr)
	}
	if pos != want {
		t.Fatalf("pos = %d, want %d", pos, want)
	}
}

func TestAlignMatchScrollsBackHalfWindowWhenOffPage(t *testing.T) {
	doc := newTestDoc("line1\nline2 hello world\nline3\n")
	doc.PageFirst = 0
	doc.PageLast = 6
	n := &Navigator{Width: 80}
	pos, ferr := n.AlignMatch(doc, 12, 10, false, false)
	if ferr != nil {
		t.Fatalf("AlignMatch: %v", ferr)
	}
	want, ferr := n.HalfPageBackward(doc, 12, 10)
	if ferr != nil {
		t.Fatalf("HalfPageBackward: %v", ferr)
	}
	if pos != want {
		t.Fatalf("pos = %d, want %d", pos, want)
	}
}

func TestAlignMatchTopAlignsExactlyOnMatch(t *testing.T) {
	doc := newTestDoc("line1\nline2 hello world\nline3\n")
	doc.PageFirst = 0
	doc.PageLast = 31
	n := &Navigator{Width: 80}
	pos, ferr := n.AlignMatch(doc, 12, 10, true, false)
	if ferr != nil {
		t.Fatalf("AlignMatch: %v", ferr)
	}
	if pos != 12 {
		t.Fatalf("pos = %d, want 12", pos)
	}
}

func TestAlignMatchInvertFlipsPolicyForOnePress(t *testing.T) {
	doc := newTestDoc("line1\nline2 hello world\nline3\n")
	doc.PageFirst = 0
	doc.PageLast = 31
	n := &Navigator{Width: 80}
	// matchTop=true, invert=true cancel out back to the normal policy.
	pos, ferr := n.AlignMatch(doc, 12, 10, true, true)
	if ferr != nil {
		t.Fatalf("AlignMatch: %v", ferr)
	}
	if pos != doc.PageFirst {
		t.Fatalf("pos = %d, want unchanged PageFirst %d", pos, doc.PageFirst)
	}
}

func TestWrapCacheSpeedsUpRepeatedPartition(t *testing.T) {
	doc := newTestDoc("abcdefghijklmno\n")
	n := &Navigator{Width: 10, Cache: wrapcache.New(16)}
	first, ferr := n.WLineFw(doc, 0, 1)
	if ferr != nil {
		t.Fatalf("WLineFw: %v", ferr)
	}
	second, ferr := n.WLineFw(doc, 0, 1)
	if ferr != nil {
		t.Fatalf("WLineFw: %v", ferr)
	}
	if first != second || first != 10 {
		t.Fatalf("WLineFw with a cache = (%d,%d), want (10,10)", first, second)
	}
	if _, ok := n.Cache.Get(wrapcache.Key{Doc: doc.ID, Pos: 0, Width: 10, Opts: wrap.PackOpts(n.wrapOpts())}); !ok {
		t.Fatalf("expected the partition to have been cached")
	}
}

func TestTOCCursorDownRecentersAtPageBoundary(t *testing.T) {
	c := &TOCCursor{}
	pageRows := 4
	total := 20
	for i := 0; i < pageRows-1; i++ {
		c.Down(total, pageRows)
	}
	if c.Row != pageRows-1 {
		t.Fatalf("Row = %d, want %d before hitting the boundary", c.Row, pageRows-1)
	}
	c.Down(total, pageRows)
	if c.FirstVisible == 0 {
		t.Fatalf("expected FirstVisible to scroll past the first page")
	}
}
