// Package blockring implements the per-document lazy byte store described
// as "BlockRing" in the design: a sequence of fixed-size blocks read on
// demand from an input source, giving positioned byte access without ever
// holding the whole stream in memory at once.
//
// The source this engine is modeled on keeps blocks on an actual circular
// doubly-linked list, because in C that is the cheap way to get O(1)
// splice/remove and neighbor peek. A Ring never evicts a block once read, and
// blocks are never reordered, so the design notes' own suggestion applies
// directly: a plain slice indexed by pos/blksize does the same job with less
// machinery and no "rotate until found" loop.
package blockring

import (
	"errors"
	"io"
)

// Unknown is the sentinel size for a source whose length isn't known until
// it has been fully read (a pipe, standard input, a popen stream).
const Unknown int64 = -1

// ErrShortRead marks a non-fatal short read: logged by the caller, not fatal.
var ErrShortRead = errors.New("blockring: short read")

// Ring is the lazily-filled block store for one document's input.
type Ring struct {
	blksize int
	src     io.Reader
	closer  io.Closer
	tee     io.Writer // output-duplication target, or nil

	blocks []block // blocks[i] covers [i*blksize, i*blksize+len(blocks[i].data))
	seek   int64   // bytes pulled from src into blocks so far
	size   int64   // Unknown until src is exhausted
	eof    bool

	preRead     byte
	havePreRead bool
}

type block struct {
	data []byte // len <= blksize; only the last block is ever partially filled
}

// New creates a Ring that reads from src in blksize chunks. knownSize is
// Unknown if the source's length isn't known in advance. closer may be nil
// for sources that don't need closing (e.g. an in-memory buffer already
// wrapped as an io.Reader); tee may be nil.
func New(src io.Reader, closer io.Closer, blksize int, knownSize int64, tee io.Writer) *Ring {
	return &Ring{
		blksize: blksize,
		src:     src,
		closer:  closer,
		tee:     tee,
		size:    knownSize,
	}
}

// SetPreRead installs a single byte of lookahead to be delivered as the
// first byte of the next ReadBlock call, consumed exactly once. This mirrors
// opening a popen pipe where one byte must be peeked to detect an empty
// pipe before committing to the read loop.
func (r *Ring) SetPreRead(b byte) {
	r.preRead = b
	r.havePreRead = true
}

// Seek returns the number of bytes pulled from the source so far.
func (r *Ring) Seek() int64 { return r.seek }

// Size returns the known size, or Unknown if the source is not yet
// exhausted.
func (r *Ring) Size() int64 { return r.size }

// EOF reports whether the source has been fully drained.
func (r *Ring) EOF() bool { return r.eof }

// ReadBlock fills the tail block if it has room, or allocates and reads a
// new one. It is the sole place bytes are pulled from the underlying
// source. A read returning zero bytes is treated as end of stream: the
// source is closed and, if the size was Unknown, it is fixed at the current
// seek.
func (r *Ring) ReadBlock() error {
	if r.eof {
		return nil
	}

	var idx int
	var buf []byte
	if n := len(r.blocks); n > 0 && len(r.blocks[n-1].data) < r.blksize {
		idx = n - 1
		buf = r.blocks[idx].data
	} else {
		idx = n
		r.blocks = append(r.blocks, block{})
		buf = nil
	}

	want := r.blksize - len(buf)
	chunk := make([]byte, want)
	start := 0

	if r.havePreRead {
		chunk[0] = r.preRead
		r.havePreRead = false
		start = 1
	}

	n, err := io.ReadFull(r.src, chunk[start:])
	total := start + n
	if total > 0 {
		if r.tee != nil {
			if werr := writeAll(r.tee, chunk[:total]); werr != nil {
				// Duplication failures are logged by the caller; never fatal.
				_ = werr
			}
		}
		buf = append(buf, chunk[:total]...)
		r.blocks[idx].data = buf
		r.seek += int64(total)
	}

	if err == nil {
		return nil
	}
	if err == io.ErrUnexpectedEOF || err == io.EOF || isEIO(err) {
		r.eof = true
		if r.closer != nil {
			_ = r.closer.Close()
		}
		if r.size == Unknown {
			r.size = r.seek
		}
		if total > 0 && err != io.EOF && err != io.ErrUnexpectedEOF {
			return ErrShortRead
		}
		return nil
	}
	// Any other read error is fatal for the current document; the caller
	// (Document) wraps this in a *fatal.Error.
	return err
}

// ReadAll drains the source completely, growing the block slice until EOF.
func (r *Ring) ReadAll() error {
	for !r.eof {
		if err := r.ReadBlock(); err != nil && err != ErrShortRead {
			return err
		}
	}
	return nil
}

// Get returns the byte at pos, reading further blocks on demand. It returns
// io.EOF once pos reaches a known size, and a non-nil, non-io.EOF error only
// for a genuine fatal condition.
func (r *Ring) Get(pos int64) (byte, error) {
	if r.size != Unknown && pos >= r.size {
		return 0, io.EOF
	}

	idx := int(pos / int64(r.blksize))
	off := int(pos % int64(r.blksize))

	for idx >= len(r.blocks) || off >= len(r.blocks[idx].data) {
		if r.eof {
			return 0, io.EOF
		}
		if err := r.ReadBlock(); err != nil && err != ErrShortRead {
			return 0, err
		}
		if r.eof && (idx >= len(r.blocks) || off >= len(r.blocks[idx].data)) {
			return 0, io.EOF
		}
	}

	return r.blocks[idx].data[off], nil
}

// Align is a compatibility shim for the design's "rotate to the block
// covering pos" operation. With a slice-backed ring this degenerates to
// bounds checking: it reports whether a block currently covers pos-1 (or
// pos==0), without touching the source. Calling code that expects a byte
// should use Get, which reads on demand; Align exists for callers (line
// scanning) that want to know whether a position has already been
// materialized without forcing a read.
func (r *Ring) Align(pos int64) bool {
	if pos == 0 {
		return len(r.blocks) > 0 || r.eof
	}
	check := pos - 1
	idx := int(check / int64(r.blksize))
	off := int(check % int64(r.blksize))
	return idx < len(r.blocks) && off < len(r.blocks[idx].data)
}

func writeAll(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

func isEIO(err error) bool {
	// PTY reads surface EIO when the remote end of the pty is gone; the
	// design normalizes that to plain EOF. syscall.EIO comparisons are kept
	// out of this file (no build-tag fork needed) by relying on errors.Is
	// against the well-known sentinel where available.
	return errors.Is(err, errEIO)
}
