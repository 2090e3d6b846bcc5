package docring

import "fmt"

// Ring owns every open Document and tracks which one is current. It
// replaces the source's global "cf" pointer and circular doubly-linked list
// with a slice and an index, per the design notes: callers pass the active
// document (via Current) explicitly rather than reaching for global state.
type Ring struct {
	docs    []*Document
	current int // index into docs; -1 when empty
}

// NewRing returns an empty Ring.
func NewRing() *Ring {
	return &Ring{current: -1}
}

// Len reports how many documents are open.
func (r *Ring) Len() int { return len(r.docs) }

// Current returns the active document, or nil if the ring is empty.
func (r *Ring) Current() *Document {
	if r.current < 0 {
		return nil
	}
	return r.docs[r.current]
}

// Add appends doc and makes it current. It is an error -- the caller's
// bug, not a recoverable runtime condition -- to add a name that already
// exists; callers should Find first.
func (r *Ring) Add(doc *Document) {
	r.docs = append(r.docs, doc)
	r.current = len(r.docs) - 1
}

// Find returns the document with the given name, or nil.
func (r *Ring) Find(name string) *Document {
	for _, d := range r.docs {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// MoveToFront makes doc current. doc must already be in the ring.
func (r *Ring) MoveToFront(doc *Document) error {
	for i, d := range r.docs {
		if d == doc {
			r.current = i
			return nil
		}
	}
	return fmt.Errorf("docring: document %q not in ring", doc.Name)
}

// Next returns the document after the current one, wrapping around. It
// does not change Current.
func (r *Ring) Next() *Document {
	if len(r.docs) == 0 {
		return nil
	}
	return r.docs[(r.current+1)%len(r.docs)]
}

// Names returns every open document's name, in ring order.
func (r *Ring) Names() []string {
	names := make([]string, len(r.docs))
	for i, d := range r.docs {
		names[i] = d.Name
	}
	return names
}

// Kill removes doc from the ring. If doc was current, the document that
// follows it becomes current (wrapping to the previous one if doc was
// last); killing the last remaining document leaves the ring empty with no
// current document.
func (r *Ring) Kill(doc *Document) {
	idx := -1
	for i, d := range r.docs {
		if d == doc {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}

	wasCurrent := idx == r.current
	r.docs = append(r.docs[:idx], r.docs[idx+1:]...)

	switch {
	case len(r.docs) == 0:
		r.current = -1
	case !wasCurrent:
		if idx < r.current {
			r.current--
		}
	default:
		if idx >= len(r.docs) {
			r.current = len(r.docs) - 1
		} else {
			r.current = idx
		}
	}
}
