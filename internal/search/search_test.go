package search

import (
	"strings"
	"testing"

	"github.com/dgouders/lsp/internal/blockring"
	"github.com/dgouders/lsp/internal/docring"
	"github.com/dgouders/lsp/internal/gref"
	"github.com/dgouders/lsp/internal/refresolve"
)

func newTestDoc(content string) *docring.Document {
	ring := blockring.New(strings.NewReader(content), nil, 64, blockring.Unknown, nil)
	return docring.New("test", ring, docring.FTypeRegular, nil)
}

func TestForwardFindsSGRMatch(t *testing.T) {
	doc := newTestDoc("Hello \x1b[1mworld\x1b[m\n")
	e, err := Compile("orl", false)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	m, ok, ferr := e.Forward(doc, 0)
	if ferr != nil {
		t.Fatalf("Forward: %v", ferr)
	}
	if !ok {
		t.Fatalf("expected a match")
	}
	if m.So != 11 || m.Eo != 14 {
		t.Fatalf("match = (%d,%d), want (11,14)", m.So, m.Eo)
	}
}

func TestForwardSkipsGrottyOverstrike(t *testing.T) {
	doc := newTestDoc("b\bbo\bol\bld\n")
	e, err := Compile("bold", false)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	m, ok, ferr := e.Forward(doc, 0)
	if ferr != nil {
		t.Fatalf("Forward: %v", ferr)
	}
	if !ok {
		t.Fatalf("expected a match")
	}
	if m.So != 0 || m.Eo != 10 {
		t.Fatalf("match = (%d,%d), want (0,10)", m.So, m.Eo)
	}
}

func TestForwardNotFound(t *testing.T) {
	doc := newTestDoc("no match here\n")
	e, _ := Compile("zzz", false)
	_, ok, ferr := e.Forward(doc, 0)
	if ferr != nil {
		t.Fatalf("Forward: %v", ferr)
	}
	if ok {
		t.Fatalf("expected no match")
	}
}

func TestBackwardFindsLastMatchOnLine(t *testing.T) {
	doc := newTestDoc("aXbXcXd\n")
	e, _ := Compile("X", false)
	m, ok, ferr := e.Backward(doc, 7)
	if ferr != nil {
		t.Fatalf("Backward: %v", ferr)
	}
	if !ok {
		t.Fatalf("expected a match")
	}
	// three X's at raw offsets 1, 3, 5; the last one wins.
	if m.So != 5 || m.Eo != 6 {
		t.Fatalf("match = (%d,%d), want (5,6)", m.So, m.Eo)
	}
}

func TestBackwardStepsToPreviousLine(t *testing.T) {
	doc := newTestDoc("Xfirst\nsecond\n")
	e, _ := Compile("X", false)
	m, ok, ferr := e.Backward(doc, 13)
	if ferr != nil {
		t.Fatalf("Backward: %v", ferr)
	}
	if !ok || m.So != 0 {
		t.Fatalf("got (%v,%v), want match at offset 0", m, ok)
	}
}

func TestICaseMatching(t *testing.T) {
	doc := newTestDoc("HELLO\n")
	e, err := Compile("hello", true)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	_, ok, _ := e.Forward(doc, 0)
	if !ok {
		t.Fatalf("case-insensitive search should have matched")
	}
	e2, _ := Compile("hello", false)
	_, ok2, _ := e2.Forward(doc, 0)
	if ok2 {
		t.Fatalf("case-sensitive search should not have matched")
	}
}

func TestExtendZeroLengthWidensMatch(t *testing.T) {
	doc := newTestDoc("abc\n")
	line, err := doc.GetLine(0)
	if err != nil {
		t.Fatalf("GetLine: %v", err)
	}
	widened := ExtendZeroLength(line, Match{So: 0, Eo: 0})
	if widened.Eo != widened.So+1 {
		t.Fatalf("ExtendZeroLength = %v, want a one-byte-wide span", widened)
	}
}

func TestExtendZeroLengthLeavesNonEmptyMatchAlone(t *testing.T) {
	doc := newTestDoc("abc\n")
	line, err := doc.GetLine(0)
	if err != nil {
		t.Fatalf("GetLine: %v", err)
	}
	m := Match{So: 0, Eo: 1}
	if got := ExtendZeroLength(line, m); got != m {
		t.Fatalf("ExtendZeroLength = %v, want unchanged %v", got, m)
	}
}

// TestForwardWidensZeroLengthMatch checks that Forward itself applies
// ExtendZeroLength to its result, not just that the pure function works in
// isolation -- a zero-length match returned raw would stall a repeat search.
func TestForwardWidensZeroLengthMatch(t *testing.T) {
	doc := newTestDoc("abc\n")
	e, _ := Compile("x*", false)
	m, ok, ferr := e.Forward(doc, 0)
	if ferr != nil || !ok {
		t.Fatalf("Forward: ok=%v err=%v", ok, ferr)
	}
	if m.So == m.Eo {
		t.Fatalf("Forward returned an unwidened zero-length match: %v", m)
	}
	if m.Eo != m.So+1 {
		t.Fatalf("match = %v, want a one-byte-wide span", m)
	}
}

// TestForwardRepeatedZeroLengthMatchesAdvance regression-tests that chaining
// Forward calls from each match's own Eo makes forward progress across the
// whole line instead of re-finding the same zero-length point forever.
func TestForwardRepeatedZeroLengthMatchesAdvance(t *testing.T) {
	doc := newTestDoc("abc\n")
	e, _ := Compile("x*", false)

	var positions []int64
	pos := int64(0)
	for i := 0; i < 4; i++ {
		m, ok, ferr := e.Forward(doc, pos)
		if ferr != nil {
			t.Fatalf("Forward: %v", ferr)
		}
		if !ok {
			break
		}
		positions = append(positions, m.So)
		pos = m.Eo
	}
	for i := 1; i < len(positions); i++ {
		if positions[i] <= positions[i-1] {
			t.Fatalf("repeat search did not advance: positions = %v", positions)
		}
	}
	if len(positions) < 2 {
		t.Fatalf("expected at least two advancing zero-length matches, got %v", positions)
	}
}

func TestForwardRefsSkipsInvalidCandidate(t *testing.T) {
	doc := newTestDoc("See lsp(1) and printf(3).\n")
	cache := gref.NewCache()
	cache.MarkValid("lsp", "1", false)
	resolver := &refresolve.Resolver{Cache: cache, UseApropos: true}

	m, ok, ferr := ForwardRefs(doc, 0, resolver)
	if ferr != nil {
		t.Fatalf("ForwardRefs: %v", ferr)
	}
	if !ok {
		t.Fatalf("expected a valid reference match")
	}
	if m.Match.So != 4 || m.Match.Eo != 10 {
		t.Fatalf("match = %v, want (4,10) for lsp(1)", m.Match)
	}
	if m.Ref.Canonical() != "lsp(1)" {
		t.Fatalf("Ref = %v, want lsp(1)", m.Ref.Canonical())
	}

	// printf(3) is not in the apropos snapshot, so a second search from
	// the end of the first match must skip past it entirely.
	_, ok2, ferr2 := ForwardRefs(doc, m.Match.Eo, resolver)
	if ferr2 != nil {
		t.Fatalf("ForwardRefs: %v", ferr2)
	}
	if ok2 {
		t.Fatalf("printf(3) should have been skipped as invalid")
	}
}
