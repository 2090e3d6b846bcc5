package lineread

import (
	"io"

	"github.com/dgouders/lsp/internal/blockring"
)

// Line is a materialized view of one physical line: raw bytes exactly as
// received (including the terminating newline, if any) plus the normalized
// payload. Lines are transient -- created, consumed, and discarded within a
// single operation, never cached on the document.
type Line struct {
	Pos        int64 // absolute offset of the first raw byte
	Raw        []byte
	Normalized []byte
}

func (l *Line) Len() int  { return len(l.Raw) }
func (l *Line) NLen() int { return len(l.Normalized) }

// GetLineHere reads the physical line starting at pos from ring, through
// EOF or a terminating '\n' inclusive. It returns (nil, io.EOF) if pos is
// already at end of stream, matching "if the first byte is EOF return
// none" from the design.
func GetLineHere(ring *blockring.Ring, pos int64) (*Line, error) {
	first, err := ring.Get(pos)
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, err
	}

	raw := []byte{first}
	i := pos + 1
	if first != '\n' {
		for {
			b, err := ring.Get(i)
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			raw = append(raw, b)
			i++
			if b == '\n' {
				break
			}
		}
	}

	return &Line{
		Pos:        pos,
		Raw:        raw,
		Normalized: Normalize(raw),
	}, nil
}
