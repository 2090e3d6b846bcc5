// Package docring implements the per-document paging state and the ring of
// open documents (§3, §4.1 DocumentRing). The ring itself is a slice
// addressed by index, per the design notes' "arena-allocated nodes
// addressed by indices" guidance, rather than the source's circular
// doubly-linked list of cf pointers; there is still exactly one "current"
// document, tracked as an index into the slice instead of a global cf.
package docring

import (
	"io"
	"log/slog"
	"regexp"
	"sync/atomic"

	"github.com/dgouders/lsp/internal/blockring"
	"github.com/dgouders/lsp/internal/fatal"
	"github.com/dgouders/lsp/internal/lineindex"
	"github.com/dgouders/lsp/internal/lineread"
)

// nextID hands out the process-unique Document.ID values New assigns;
// wrapcache keys off it instead of a pointer so its cache keys stay plain
// comparable values.
var nextID int64

// Mode is the bitset over {REFS, SEARCH, TOC, HIGHLIGHT} from §3.
type Mode uint8

const (
	ModeRefs Mode = 1 << iota
	ModeSearch
	ModeTOC
	ModeHighlight
)

// FType classifies the kind of input backing a document.
type FType uint8

const (
	FTypeManpage FType = 1 << iota
	FTypeLSPLoadedManpage
	FTypeStdin
	FTypeRegular
)

// Match is a byte-offset range in the owning document's raw stream. A
// "no match" state is represented by the zero value with Valid == false.
type Match struct {
	So, Eo int64
	Valid  bool
}

// Cell is a (row, col) window position, or "invalid" when Valid is false.
type Cell struct {
	Row, Col int
	Valid    bool
}

// Document is one open, lazily-paged input with its own paging state.
type Document struct {
	ID              int64
	Name            string
	ReplacementName string

	Ring  *blockring.Ring
	Lines *lineindex.Index

	Pos        int64
	Unaligned  bool
	PageFirst  int64
	PageLast   int64

	Mode  Mode
	FType FType

	CurrentMatch Match
	MatchCell    Cell
	Regex        *regexp.Regexp

	// MatchTop is the persistent "always scroll the current match to the
	// top line" alignment preference, toggled by a second CTRL_L press
	// (§4.4's alignment policy).
	MatchTop bool

	TOCLevelVisible int

	DoReload bool

	Marks map[byte]int64

	Log *slog.Logger
}

// New creates a Document backed by ring, with an empty line index. name
// must be unique within its DocumentRing.
func New(name string, ring *blockring.Ring, ftype FType, logger *slog.Logger) *Document {
	if logger == nil {
		logger = slog.Default()
	}
	return &Document{
		ID:    atomic.AddInt64(&nextID, 1),
		Name:  name,
		Ring:  ring,
		Lines: lineindex.New(),
		FType: ftype,
		Marks: make(map[byte]int64),
		Log:   logger,
	}
}

// EnsureIndexThrough grows the line index, reading as far as necessary from
// Ring, until it covers pos (or the document hits EOF). It is the one place
// physical lines get registered into the LineIndex, matching the design's
// "grown incrementally as blocks are read".
func (d *Document) EnsureIndexThrough(pos int64) *fatal.Error {
	for d.Lines.Last() <= pos {
		cur := d.Lines.Last()
		line, err := lineread.GetLineHere(d.Ring, cur)
		if err == io.EOF {
			if cur == 0 && d.Lines.Count() == 1 && d.Ring.Size() == 0 {
				d.Lines.ResetEmpty()
			}
			return nil
		}
		if err != nil {
			return fatal.Wrap("document.EnsureIndexThrough", err)
		}
		next := cur + int64(len(line.Raw))
		if ferr := d.Lines.Append(next); ferr != nil {
			return ferr
		}
	}
	return nil
}

// GetLine materializes the physical line starting at pos, growing the line
// index as a side effect if pos extends past what had been indexed.
func (d *Document) GetLine(pos int64) (*lineread.Line, error) {
	if ferr := d.EnsureIndexThrough(pos); ferr != nil {
		return nil, ferr
	}
	return lineread.GetLineHere(d.Ring, pos)
}

// LineStart returns the start offset of the physical line containing pos,
// growing the index through pos first if necessary.
func (d *Document) LineStart(pos int64) (int64, *fatal.Error) {
	if ferr := d.EnsureIndexThrough(pos); ferr != nil {
		return 0, ferr
	}
	i := d.Lines.LineContaining(pos)
	if i < 0 {
		return 0, nil
	}
	return d.Lines.Offset(i), nil
}

// AtEOF reports whether pos is at or past the document's known end. It
// forces the document fully read when the size is still unknown (as the
// design's goto-end and last-page operations require).
func (d *Document) AtEOF(pos int64) (bool, error) {
	if d.Ring.Size() == blockring.Unknown {
		if err := d.Ring.ReadAll(); err != nil {
			return false, err
		}
	}
	return pos >= d.Ring.Size(), nil
}

// IsEmpty reports the documented empty-file special case.
func (d *Document) IsEmpty() bool {
	return d.Ring.Size() == 0 && d.Ring.EOF()
}

// ClearMatch drops the current match and its cursor cell.
func (d *Document) ClearMatch() {
	d.CurrentMatch = Match{}
	d.MatchCell = Cell{}
}
