// Package gref implements the process-wide reference cache described in
// §4.6: a canonicalized man-page reference spelling maps to a single GRef
// value shared by every open document, memoizing validation so the same
// name is never re-verified twice.
//
// The source keeps this table with the libc hsearch family behind a pile
// of global state. The design notes call that out directly ("replace with
// a first-class map type owned by the application and passed explicitly"),
// so Cache here is an ordinary value the caller constructs and threads
// through -- no package-level table, no init-time hcreate.
package gref

import "strings"

// State is a GRef's validation state.
type State int

const (
	Unknown State = iota
	Valid
	Invalid
)

// GRef is one canonicalized reference spelling, shared by every caller
// that resolves the same name.
type GRef struct {
	Name    string // canonical name, e.g. "printf"
	Section string // canonical section, e.g. "3"; may be empty
	State   State
}

// Canonical returns the cache key for this GRef: "name(section)", or just
// "name" when Section is empty.
func (g *GRef) Canonical() string {
	if g.Section == "" {
		return g.Name
	}
	return g.Name + "(" + g.Section + ")"
}

// Cache is the process-wide table of interned GRefs. The zero value is
// ready to use.
type Cache struct {
	table map[string]*GRef
}

// NewCache returns an empty Cache.
func NewCache() *Cache {
	return &Cache{table: make(map[string]*GRef)}
}

// Key canonicalizes (name, section) into the cache's lookup key. Folding
// is lower-case unless manCase is set, per §4.6; section is always folded
// since man sections are case-insensitive by convention in every accepted
// spelling.
func Key(name, section string, manCase bool) string {
	if !manCase {
		name = strings.ToLower(name)
	}
	section = strings.ToLower(section)
	if section == "" {
		return name
	}
	return name + "(" + section + ")"
}

// Find returns the existing GRef for (name, section), or nil if none has
// been interned yet. It never creates an entry.
func (c *Cache) Find(name, section string, manCase bool) *GRef {
	return c.table[Key(name, section, manCase)]
}

// Search returns the GRef for (name, section), creating and interning a
// fresh Unknown-state entry on first use. Per §8 invariant 8,
// Find(name) == Search(name) after the first call: both key off the same
// canonical spelling and Search never replaces an existing entry.
func (c *Cache) Search(name, section string, manCase bool) *GRef {
	key := Key(name, section, manCase)
	if g, ok := c.table[key]; ok {
		return g
	}
	canonName := name
	if !manCase {
		canonName = strings.ToLower(name)
	}
	g := &GRef{Name: canonName, Section: strings.ToLower(section)}
	c.table[key] = g
	return g
}

// Len reports how many distinct references have been interned.
func (c *Cache) Len() int { return len(c.table) }

// MarkValid interns (if necessary) and marks the reference valid. Used by
// the apropos pseudo-document loader to pre-populate the cache (§4.6).
func (c *Cache) MarkValid(name, section string, manCase bool) *GRef {
	g := c.Search(name, section, manCase)
	g.State = Valid
	return g
}
