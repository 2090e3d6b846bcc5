// Package toc builds and navigates the three-level folding table of
// contents described in §4.5: a heuristic scan of a document's normalized
// lines classifies each as level 0 (a section heading), level 1 (indented
// exactly three spaces), or level 2 (indented exactly seven, with a deeper
// successor), keeping only entries in strictly ascending offset order.
//
// The design notes call the source's circular doubly-linked list of TOC
// nodes out as a place to prefer a plain growable structure; since entries
// are only ever appended during construction and then walked by index, a
// slice serves exactly as well and is what's used here.
package toc

import (
	"io"

	"github.com/dgouders/lsp/internal/docring"
	"github.com/dgouders/lsp/internal/fatal"
)

// Entry is one heading found in the scan.
type Entry struct {
	Pos   int64
	Level int // 0, 1, or 2
}

// List is the ordered, ascending sequence of Entry values for one document.
type List struct {
	entries []Entry
}

// Len reports how many entries were found.
func (l *List) Len() int { return len(l.entries) }

// Entries returns the backing slice directly; callers must not mutate it.
func (l *List) Entries() []Entry { return l.entries }

// At returns the i'th entry.
func (l *List) At(i int) Entry { return l.entries[i] }

// Build scans doc from offset 0 and classifies every physical line,
// returning the resulting List. An empty document yields an empty, valid
// List (§8: "No TOC for empty files" is a Workhorse-level message, not an
// error here).
func Build(doc *docring.Document) (*List, *fatal.Error) {
	l := &List{}
	if doc.IsEmpty() {
		return l, nil
	}

	var pos, prevPos int64
	var prevNormalized []byte
	havePrev := false

	for {
		line, err := doc.GetLine(pos)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fatal.Wrap("toc.Build", err)
		}

		if havePrev {
			classify(l, prevNormalized, line.Normalized, prevPos)
		}
		prevNormalized = line.Normalized
		prevPos = pos
		havePrev = true

		pos += int64(len(line.Raw))
	}
	// Classify the final buffered line against a synthetic empty successor
	// (end of file counts as a non-deep successor for level-2 detection).
	if havePrev {
		classifyLast(l, prevNormalized, pos-lastLineLen(doc, pos))
	}
	return l, nil
}

// lastLineLen recovers the length of the physical line ending at pos (its
// absolute start is pos-length) so classifyLast can report the right
// offset; doc's line index already covers it since Build just read through
// it via GetLine.
func lastLineLen(doc *docring.Document, endPos int64) int64 {
	i := doc.Lines.LineContaining(endPos - 1)
	if i < 0 {
		return endPos
	}
	return endPos - doc.Lines.Offset(i)
}

// classify looks at consecutive normalized lines (prev, which starts at
// prevPos, and its successor cur) and appends any Entry that prev's
// classification resolves to now that its successor is known. The scan is
// effectively one line behind so level-2's one-line lookahead is free.
func classify(l *List, prev, cur []byte, prevPos int64) {
	lvl, ok := classifyLine(prev, cur)
	if ok {
		appendEntry(l, prevPos, lvl)
	}
}

// classifyLast classifies the final buffered line, for which there is no
// successor to peek at (level-2 detection then fails its lookahead, as the
// design leaves underspecified for lines sharing the 7-space prefix whose
// successor is EOF: here it is simply not promoted to level 2).
func classifyLast(l *List, prev []byte, prevPos int64) {
	lvl, ok := classifyLine(prev, nil)
	if ok {
		appendEntry(l, prevPos, lvl)
	}
}

func appendEntry(l *List, pos int64, level int) {
	l.entries = append(l.entries, Entry{Pos: pos, Level: level})
}

// classifyLine applies the §4.5 heuristic to one line (its normalized
// bytes) given its successor (for the level-2 lookahead), or a nil
// successor at end of file.
func classifyLine(line, next []byte) (level int, ok bool) {
	if len(line) == 0 {
		return 0, false
	}

	c := line[0]
	if c != ' ' && c != '\t' && c != '{' && c != '}' && c != '\n' {
		return 0, true
	}

	if hasPrefixSpaces(line, 3) && !hasPrefixSpaces(line, 4) {
		return 1, true
	}

	if hasPrefixSpaces(line, 7) && !hasPrefixSpaces(line, 8) {
		if next != nil && hasPrefixSpaces(next, 11) {
			return 2, true
		}
		return 0, false
	}

	return 0, false
}

// hasPrefixSpaces reports whether line begins with at least n literal space
// characters (not tabs).
func hasPrefixSpaces(line []byte, n int) bool {
	if len(line) < n {
		return false
	}
	for i := 0; i < n; i++ {
		if line[i] != ' ' {
			return false
		}
	}
	return true
}

// Bw returns the index of the nearest entry at or before the entry at idx
// (exclusive) whose level is <= visible, stepping backward, or -1 if none.
func (l *List) Bw(idx, visible int) int {
	for i := idx - 1; i >= 0; i-- {
		if l.entries[i].Level <= visible {
			return i
		}
	}
	return -1
}

// Fw returns the index of the nearest entry after idx (exclusive) whose
// level is <= visible, stepping forward, or -1 if none.
func (l *List) Fw(idx, visible int) int {
	for i := idx + 1; i < len(l.entries); i++ {
		if l.entries[i].Level <= visible {
			return i
		}
	}
	return -1
}

// Rewind returns the index of the entry whose Pos equals pos, or -1 if
// none (including when pos == -1, per the design's "or to end when
// argument is -1").
func (l *List) Rewind(pos int64) int {
	if pos < 0 {
		return -1
	}
	for i, e := range l.entries {
		if e.Pos == pos {
			return i
		}
	}
	return -1
}

// PosToEntry returns the index of the entry whose Pos equals the start of
// the physical line containing pos and whose level is visible at the given
// level, or -1.
func (l *List) PosToEntry(lineStart int64, visible int) int {
	for i, e := range l.entries {
		if e.Pos == lineStart && e.Level <= visible {
			return i
		}
	}
	return -1
}

// Visible returns the entries visible at the given level, in order.
func (l *List) Visible(visible int) []Entry {
	var out []Entry
	for _, e := range l.entries {
		if e.Level <= visible {
			out = append(out, e)
		}
	}
	return out
}
