// Package wrapcache bounds the memory cost of repeatedly partitioning the
// same physical lines into window lines as the user scrolls back and forth
// across a page boundary. Unlike BlockRing data, a wrap partition is always
// cheaply recomputable from a Line and a width, so it is safe -- and, for
// very wide TOCs or very long lines, desirable -- to evict entries under
// memory pressure.
//
// This mirrors the teacher's internal/spinner block cache, which also
// fronts a recomputable read path with a github.com/dgryski/go-tinylfu
// cache keyed by a hash of a composite key (there, (Opener, offset); here,
// (document id, line offset, width)).
package wrapcache

import (
	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-tinylfu"
)

// Key identifies one cached partition result. Opts packs whatever other
// wrap.Options fields (tab width, CR handling) also affect the result at a
// fixed width -- see wrap.PackOpts.
type Key struct {
	Doc   int64
	Pos   int64
	Width int
	Opts  int64
}

func hashKey(k Key) uint64 {
	var buf [32]byte
	putInt64(buf[0:8], k.Doc)
	putInt64(buf[8:16], k.Pos)
	putInt64(buf[16:24], int64(k.Width))
	putInt64(buf[24:32], k.Opts)
	return xxhash.Sum64(buf[:])
}

func putInt64(b []byte, v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
}

// Cache bounds the number of cached partitions. New treats a capacity of 0
// or less as 1, so caching is never fully disabled; callers always
// recompute on a miss and call Set.
type Cache struct {
	c *tinylfu.T[Key, []int]
}

// New creates a Cache holding up to capacity entries.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = 1
	}
	return &Cache{c: tinylfu.New[Key, []int](capacity, capacity*10, hashKey)}
}

// Get returns the cached wlines slice for key, if present.
func (c *Cache) Get(key Key) ([]int, bool) {
	return c.c.Get(key)
}

// Set remembers wlines for key.
func (c *Cache) Set(key Key, wlines []int) {
	c.c.Add(key, wlines)
}
