// Package lineread extracts physical lines from a BlockRing and normalizes
// them: stripping SGR sequences and grotty backspace-overstrike prefixes to
// produce the byte sequence search and the TOC heuristics operate on, while
// keeping the raw bytes the Renderer needs for attribute-accurate display.
package lineread

import (
	"unicode/utf8"

	"github.com/dgouders/lsp/internal/sgr"
)

// OverstrikeKind classifies a grotty overstrike sequence immediately
// preceding an emitted character, for the Renderer's attribute choice.
type OverstrikeKind int

const (
	NoOverstrike OverstrikeKind = iota
	OverstrikeBold
	OverstrikeItalicUnderline
	OverstrikeBoldItalic
)

// Step is one emitted character plus everything (SGR sequences, overstrike
// prefixes) that preceded it in raw and is not itself displayed.
type Step struct {
	SGR        [][]int // SGR parameter lists seen in this control run, in order
	Overstrike OverstrikeKind
	Bytes      []byte // the emitted payload (a slice of the original raw buffer)
	RawStart   int    // offset of the control run's first byte
	RawEnd     int    // offset just past Bytes (start of the next step)
}

// Walk decodes raw into a sequence of Steps. It is the single pass that
// backs Normalize, NormalizeCount, and the Renderer's cell-by-cell
// attribute tracking, so that all three agree on exactly where control runs
// begin and end.
func Walk(raw []byte) []Step {
	var steps []Step
	i := 0
	for i < len(raw) {
		start := i
		var sgrs [][]int
		for {
			n, params, ok := sgr.Scan(raw, i)
			if !ok {
				break
			}
			sgrs = append(sgrs, params)
			i += n
		}

		var skipped [][]byte
		for i < len(raw) {
			clen := runeLen(raw, i)
			if i+clen < len(raw) && raw[i+clen] == '\b' && raw[i] != '\t' &&
				!(len(skipped) == 0 && i > 0 && raw[i-1] == '\b') {
				skipped = append(skipped, raw[i:i+clen])
				i += clen + 1
				continue
			}
			break
		}

		if i >= len(raw) {
			// Trailing control run (or trailing overstrike skip) with
			// nothing left to emit: record it so RawEnd accounting stays
			// exact, but contribute no payload bytes.
			steps = append(steps, Step{SGR: sgrs, RawStart: start, RawEnd: i})
			break
		}

		clen := runeLen(raw, i)
		emitted := raw[i : i+clen]
		i += clen

		steps = append(steps, Step{
			SGR:        sgrs,
			Overstrike: overstrikeKind(skipped),
			Bytes:      emitted,
			RawStart:   start,
			RawEnd:     i,
		})
	}
	return steps
}

func overstrikeKind(skipped [][]byte) OverstrikeKind {
	switch len(skipped) {
	case 0:
		return NoOverstrike
	case 1:
		if len(skipped[0]) == 1 && skipped[0][0] == '_' {
			return OverstrikeItalicUnderline
		}
		return OverstrikeBold
	default:
		return OverstrikeBoldItalic
	}
}

// runeLen reports the byte length of the character starting at raw[i]. An
// invalid or incomplete multibyte sequence degrades to one byte, per the
// design's soft-error policy for encoding problems.
func runeLen(raw []byte, i int) int {
	r, size := utf8.DecodeRune(raw[i:])
	if r == utf8.RuneError && size <= 1 {
		return 1
	}
	return size
}
