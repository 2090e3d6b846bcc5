// Package search implements the SearchEngine of §4.4: compiling the user
// and references regexes, matching against the normalized view, and
// translating hits back to raw document offsets.
//
// The design's REG_STARTEND/REG_NOTBOL/REG_NOTEOL are a POSIX regex
// engine's way to search a byte window in place without rescanning or
// copying. Go's regexp package has no direct equivalent, so this package
// emulates STARTEND by slicing the normalized line at the resume offset
// before matching (see DESIGN.md for the one case this approximation
// does not cover: a pattern anchored with a literal ^ that must not match
// at the resume point).
package search

import (
	"io"
	"regexp"
	"regexp/syntax"

	"github.com/dgouders/lsp/internal/docring"
	"github.com/dgouders/lsp/internal/fatal"
	"github.com/dgouders/lsp/internal/gref"
	"github.com/dgouders/lsp/internal/lineread"
	"github.com/dgouders/lsp/internal/refresolve"
	"github.com/dgouders/lsp/internal/toc"
)

// Match is a raw-offset span in a document's byte stream, [So, Eo).
type Match struct {
	So, Eo int64
}

// Valid reports whether m denotes a real (possibly zero-length) match as
// opposed to the zero value.
func (m Match) Valid() bool { return m.Eo > 0 || m.So > 0 }

// refsPattern is the fixed reference-token regex from §4.4.
const refsPattern = `[A-Za-z0-9.:_+-]+\((n|[0-9])[^)]{0,8}\)`

var refsRe = regexp.MustCompile(refsPattern)

// Engine wraps a compiled user pattern. REG_EXTENDED|REG_NEWLINE is Go
// regexp's default behavior for a pattern compiled without "(?s)"; REG_ICASE
// is case folding set on the parsed POSIX syntax tree (see Compile).
type Engine struct {
	re *regexp.Regexp
}

// Compile compiles pattern with POSIX extended-regex semantics
// (leftmost-longest matching, as REG_EXTENDED mandates), case-insensitive
// when icase is set.
func Compile(pattern string, icase bool) (*Engine, error) {
	if !icase {
		re, err := regexp.CompilePOSIX(pattern)
		if err != nil {
			return nil, err
		}
		return &Engine{re: re}, nil
	}
	// CompilePOSIX accepts no flag syntax, so case folding is applied to
	// the POSIX parse tree, which is then compiled leftmost-longest.
	sre, err := syntax.Parse(pattern, syntax.POSIX|syntax.FoldCase)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(sre.String())
	if err != nil {
		return nil, err
	}
	re.Longest()
	return &Engine{re: re}, nil
}

// RefsEngine returns an Engine wrapping the fixed references regex.
func RefsEngine() *Engine { return &Engine{re: refsRe} }

// findInWindow runs e against normalized[nStart:], translating a hit back
// to absolute raw offsets using line's Raw/Pos. It returns false if there
// is no match in the window.
func (e *Engine) findInWindow(line *lineread.Line, nStart int) (Match, bool) {
	if nStart > len(line.Normalized) {
		return Match{}, false
	}
	loc := e.re.FindIndex(line.Normalized[nStart:])
	if loc == nil {
		return Match{}, false
	}
	so := nStart + loc[0]
	eo := nStart + loc[1]
	rawSo := line.Pos + int64(lineread.NormalizeCount(line.Raw, so))
	rawEo := line.Pos + int64(lineread.NormalizeCount(line.Raw, eo))
	return Match{So: rawSo, Eo: rawEo}, true
}

// findAllInLine returns every non-overlapping match in the full line,
// left to right, for the backward-search "collect all, take the last"
// algorithm. Zero-length matches advance by one normalized byte to avoid
// stalling.
func (e *Engine) findAllInLine(line *lineread.Line) []Match {
	var out []Match
	n := 0
	for n <= len(line.Normalized) {
		loc := e.re.FindIndex(line.Normalized[n:])
		if loc == nil {
			break
		}
		so := n + loc[0]
		eo := n + loc[1]
		rawSo := line.Pos + int64(lineread.NormalizeCount(line.Raw, so))
		rawEo := line.Pos + int64(lineread.NormalizeCount(line.Raw, eo))
		out = append(out, Match{So: rawSo, Eo: rawEo})
		if eo == so {
			n = eo + 1
		} else {
			n = eo
		}
	}
	return out
}

// rawPrefixNormalizedLen is the length, in normalized bytes, that the raw
// prefix line.Raw[:rawPrefixLen] collapses to -- used to seat the search
// window's start when resuming mid-line.
func rawPrefixNormalizedLen(line *lineread.Line, rawPrefixLen int) int {
	if rawPrefixLen <= 0 {
		return 0
	}
	if rawPrefixLen >= len(line.Raw) {
		return len(line.Normalized)
	}
	return len(lineread.Normalize(line.Raw[:rawPrefixLen]))
}

// ExtendZeroLength implements the §4.4 zero-length-match rule: when a
// match's So equals its Eo, the stored match is widened by one payload
// character (plus whatever control run precedes it) so that stepping n/p
// again makes forward progress instead of re-finding the same point.
func ExtendZeroLength(line *lineread.Line, m Match) Match {
	if m.So != m.Eo {
		return m
	}
	nSo := rawPrefixNormalizedLen(line, int(m.So-line.Pos))
	if nSo >= len(line.Normalized) {
		return m
	}
	rawEo := line.Pos + int64(lineread.NormalizeCount(line.Raw, nSo+1))
	return Match{So: m.So, Eo: rawEo}
}

// Forward implements file_search_next: starting at pos, scan forward line
// by line until EOF, returning the first match.
func (e *Engine) Forward(doc *docring.Document, pos int64) (Match, bool, *fatal.Error) {
	for {
		lineStart, ferr := doc.LineStart(pos)
		if ferr != nil {
			return Match{}, false, ferr
		}
		line, err := doc.GetLine(lineStart)
		if err == io.EOF {
			return Match{}, false, nil
		}
		if err != nil {
			return Match{}, false, fatal.Wrap("search.Forward", err)
		}

		nStart := rawPrefixNormalizedLen(line, int(pos-lineStart))
		if m, ok := e.findInWindow(line, nStart); ok {
			return ExtendZeroLength(line, m), true, nil
		}
		pos = lineStart + int64(len(line.Raw))
		if len(line.Raw) == 0 {
			return Match{}, false, nil
		}
	}
}

// Backward implements line_get_last_match: scan the line containing pos
// (truncated to end at pos, so an in-progress match never re-finds
// itself), take the last of all its matches; if there is none, step to
// the previous physical line and repeat, until offset 0 is passed.
func (e *Engine) Backward(doc *docring.Document, pos int64) (Match, bool, *fatal.Error) {
	lineStart, ferr := doc.LineStart(pos)
	if ferr != nil {
		return Match{}, false, ferr
	}

	for {
		line, err := doc.GetLine(lineStart)
		if err != nil && err != io.EOF {
			return Match{}, false, fatal.Wrap("search.Backward", err)
		}
		if err == nil {
			truncated := line
			if lineStart+int64(len(line.Raw)) > pos {
				cut := int(pos - lineStart)
				if cut < 0 {
					cut = 0
				}
				if cut > len(line.Raw) {
					cut = len(line.Raw)
				}
				truncated = &lineread.Line{
					Pos:        line.Pos,
					Raw:        line.Raw[:cut],
					Normalized: lineread.Normalize(line.Raw[:cut]),
				}
			}
			matches := e.findAllInLine(truncated)
			if len(matches) > 0 {
				return ExtendZeroLength(truncated, matches[len(matches)-1]), true, nil
			}
		}

		if lineStart == 0 {
			return Match{}, false, nil
		}
		prevStart, ferr := doc.LineStart(lineStart - 1)
		if ferr != nil {
			return Match{}, false, ferr
		}
		pos = lineStart
		lineStart = prevStart
	}
}

// RefMatch is a reference candidate found by refs search, paired with its
// resolved GRef.
type RefMatch struct {
	Match Match
	Ref   *gref.GRef
}

// ForwardRefs wraps Forward with the fixed refs engine and GRef
// validation: invalid candidates are skipped and the scan resumes from
// the candidate's end offset, per §4.4.
func ForwardRefs(doc *docring.Document, pos int64, resolver *refresolve.Resolver) (RefMatch, bool, *fatal.Error) {
	e := RefsEngine()
	for {
		m, ok, ferr := e.Forward(doc, pos)
		if ferr != nil || !ok {
			return RefMatch{}, false, ferr
		}
		spelling, rerr := refSpelling(doc, m)
		if rerr != nil {
			return RefMatch{}, false, fatal.Wrap("search.ForwardRefs", rerr)
		}
		g := resolver.Resolve(spelling)
		if g.State == gref.Valid {
			return RefMatch{Match: m, Ref: g}, true, nil
		}
		pos = m.Eo
	}
}

// refSpelling reads the raw bytes of a ref candidate's match span,
// normalizing them to get the plain "name(section)" text to resolve.
func refSpelling(doc *docring.Document, m Match) (string, error) {
	raw := make([]byte, 0, m.Eo-m.So)
	for i := m.So; i < m.Eo; i++ {
		b, err := doc.Ring.Get(i)
		if err != nil {
			return "", err
		}
		raw = append(raw, b)
	}
	return string(lineread.Normalize(raw)), nil
}

// ForwardTOC and BackwardTOC restrict the scan to TOC-visible lines (§4.4
// "TOC search"): identical matching logic, but only the lines named by
// toc-List entries at or below the visible level are considered.
func (e *Engine) ForwardTOC(doc *docring.Document, list *toc.List, visible int, pos int64) (Match, bool, *fatal.Error) {
	for _, entry := range list.Visible(visible) {
		if entry.Pos <= pos {
			continue
		}
		line, err := doc.GetLine(entry.Pos)
		if err != nil {
			if err == io.EOF {
				continue
			}
			return Match{}, false, fatal.Wrap("search.ForwardTOC", err)
		}
		if m, ok := e.findInWindow(line, 0); ok {
			return ExtendZeroLength(line, m), true, nil
		}
	}
	return Match{}, false, nil
}

func (e *Engine) BackwardTOC(doc *docring.Document, list *toc.List, visible int, pos int64) (Match, bool, *fatal.Error) {
	entries := list.Visible(visible)
	for i := len(entries) - 1; i >= 0; i-- {
		entry := entries[i]
		if entry.Pos >= pos {
			continue
		}
		line, err := doc.GetLine(entry.Pos)
		if err != nil {
			if err == io.EOF {
				continue
			}
			return Match{}, false, fatal.Wrap("search.BackwardTOC", err)
		}
		matches := e.findAllInLine(line)
		if len(matches) > 0 {
			return ExtendZeroLength(line, matches[len(matches)-1]), true, nil
		}
	}
	return Match{}, false, nil
}
