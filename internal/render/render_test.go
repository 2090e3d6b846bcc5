package render

import (
	"testing"

	"github.com/dgouders/lsp/internal/sgr"
)

func flatten(rows [][]Cell) string {
	out := make([]rune, 0)
	for i, row := range rows {
		if i > 0 {
			out = append(out, '|')
		}
		for _, c := range row {
			if c.Ch == 0 {
				out = append(out, ' ')
			} else {
				out = append(out, c.Ch)
			}
		}
	}
	return string(out)
}

func TestLinePlainText(t *testing.T) {
	res := Line([]byte("hello\n"), sgr.DefaultState(), Options{Width: 80}, Match{})
	if flatten(res.Rows) != "hello" {
		t.Fatalf("got %q", flatten(res.Rows))
	}
}

func TestLineSGRBoldAttribute(t *testing.T) {
	raw := []byte("Hello \x1b[1mworld\x1b[m\n")
	res := Line(raw, sgr.DefaultState(), Options{Width: 80}, Match{})
	var cells []Cell
	for _, row := range res.Rows {
		cells = append(cells, row...)
	}
	if len(cells) != 11 {
		t.Fatalf("len(cells) = %d, want 11 (%q)", len(cells), flatten(res.Rows))
	}
	for i := 0; i < 6; i++ {
		if cells[i].Attr.Attr&sgr.Bold != 0 {
			t.Fatalf("cell %d should not be bold", i)
		}
	}
	for i := 6; i < 11; i++ {
		if cells[i].Attr.Attr&sgr.Bold == 0 {
			t.Fatalf("cell %d should be bold", i)
		}
	}
}

func TestLineOverstrikeBold(t *testing.T) {
	res := Line([]byte("b\bbo\bol\bld\bd\n"), sgr.DefaultState(), Options{Width: 80}, Match{})
	var cells []Cell
	for _, row := range res.Rows {
		cells = append(cells, row...)
	}
	if flatten(res.Rows) != "bold" {
		t.Fatalf("got %q", flatten(res.Rows))
	}
	for i, c := range cells {
		if c.Attr.Attr&sgr.Bold == 0 {
			t.Fatalf("cell %d not bold", i)
		}
	}
}

func TestLineMatchHighlight(t *testing.T) {
	raw := []byte("foo bar baz\n")
	res := Line(raw, sgr.DefaultState(), Options{Width: 80}, Match{So: 4, Eo: 7, Valid: true})
	var cells []Cell
	for _, row := range res.Rows {
		cells = append(cells, row...)
	}
	for i := 4; i < 7; i++ {
		if cells[i].Highlight != HighlightMatch {
			t.Fatalf("cell %d Highlight = %v, want HighlightMatch", i, cells[i].Highlight)
		}
	}
	if cells[0].Highlight != HighlightNone {
		t.Fatalf("cell 0 should not be highlighted")
	}
	if res.CMatchCol != 7 || res.CMatchRow != 0 {
		t.Fatalf("CMatch = (%d,%d), want (0,7)", res.CMatchRow, res.CMatchCol)
	}
}

func TestLineWrapsAcrossRows(t *testing.T) {
	res := Line([]byte("abcdefghijklmno\n"), sgr.DefaultState(), Options{Width: 10}, Match{})
	if len(res.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(res.Rows))
	}
	if flatten(res.Rows) != "abcdefghij|klmno" {
		t.Fatalf("got %q", flatten(res.Rows))
	}
}

func TestLineChopTruncatesWithMarker(t *testing.T) {
	res := Line([]byte("abcdefghijklmno\n"), sgr.DefaultState(), Options{Width: 10, ChopLines: true}, Match{})
	if len(res.Rows) != 1 {
		t.Fatalf("chop-lines should produce exactly one row, got %d", len(res.Rows))
	}
	if flatten(res.Rows) != "abcdefghi>" {
		t.Fatalf("got %q", flatten(res.Rows))
	}
}

func TestLineChopDoesNotMarkShortLines(t *testing.T) {
	res := Line([]byte("abc\n"), sgr.DefaultState(), Options{Width: 10, ChopLines: true}, Match{})
	if flatten(res.Rows) != "abc" {
		t.Fatalf("got %q", flatten(res.Rows))
	}
}

func TestLineHorizontalShiftSuppressesCells(t *testing.T) {
	res := Line([]byte("abcdef\n"), sgr.DefaultState(), Options{Width: 80, Shift: 3}, Match{})
	cells := res.Rows[0]
	for i := 0; i < 3; i++ {
		if cells[i].Ch != 0 {
			t.Fatalf("cell %d should be suppressed by shift, got %q", i, cells[i].Ch)
		}
	}
	if cells[3].Ch != 'd' {
		t.Fatalf("cell 3 = %q, want 'd'", cells[3].Ch)
	}
}

func TestLineNumbersReducesEffectiveWidth(t *testing.T) {
	opts := Options{Width: 20, LineNumbers: true}
	if got := opts.effectiveWidth(); got != 20-GutterWidth {
		t.Fatalf("effectiveWidth() = %d, want %d", got, 20-GutterWidth)
	}
}

func TestLineTabExpansion(t *testing.T) {
	res := Line([]byte("a\tb\n"), sgr.DefaultState(), Options{Width: 80}, Match{})
	got := flatten(res.Rows)
	if got != "a       b" {
		t.Fatalf("got %q, want %d spaces between a and b", got, 7)
	}
}
