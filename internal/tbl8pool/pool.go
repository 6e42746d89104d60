// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package tbl8pool implements the fixed-capacity free list of equal-size
// tbl8 pages described in §4.2: a stack of free page indices carved from
// one contiguous arena, handed out LIFO but starting in natural order.
package tbl8pool

import (
	"errors"

	"github.com/bits-and-blooms/bitset"

	"github.com/tpelkonen/fib6trie/internal/store"
)

// PageEntries is the fixed size of a tbl8 page: one entry per possible
// byte value.
const PageEntries = 256

// ErrNoSpace is returned by Alloc when the pool is exhausted
// (tbl8_pool_pos == num_tbl8, in trie.c's terms).
var ErrNoSpace = errors.New("tbl8pool: no free tbl8 page")

// Pool hands out and recovers tbl8 page indices in [0, capacity) backed by
// a single arena array of capacity+1 pages (the +1 guard page is the
// arena owner's concern, not the pool's).
type Pool struct {
	arena *store.Array
	free  []uint32 // free[pos:capacity] are available; free[:pos] is unused scratch
	pos   int
	live  *bitset.BitSet
}

// New creates a pool of the given capacity backed by arena. The arena
// must have room for at least capacity pages of PageEntries entries each;
// the caller (Table) is responsible for sizing it with the guard page.
func New(arena *store.Array, capacity int) *Pool {
	free := make([]uint32, capacity)
	for i := range free {
		free[i] = uint32(i)
	}
	return &Pool{arena: arena, free: free, live: bitset.New(uint(capacity))}
}

// Capacity returns num_tbl8, the total number of pages this pool manages.
func (p *Pool) Capacity() int {
	return len(p.free)
}

// InUse returns the number of pages currently allocated (not free).
func (p *Pool) InUse() int {
	return p.pos
}

// Alloc pops the next free page index, fills all PageEntries entries of
// that page with fillVal (already shifted into entry form by the
// caller), and returns the index. Returns ErrNoSpace if the pool is
// exhausted.
func (p *Pool) Alloc(fillVal uint64) (uint32, error) {
	if p.pos == len(p.free) {
		return 0, ErrNoSpace
	}
	idx := p.free[p.pos]
	p.pos++

	p.arena.Put(idx*PageEntries, fillVal, PageEntries)
	p.live.Set(uint(idx))
	return idx, nil
}

// Free pushes idx back onto the free stack. The caller must not
// double-free an index; Pool does not detect it (matching §4.2's
// contract).
func (p *Pool) Free(idx uint32) {
	p.pos--
	p.free[p.pos] = idx
	p.live.Clear(uint(idx))
}

// LiveBitmap returns a bitset with one bit set per currently-allocated
// page index. It exists purely for diagnostics and invariant checks
// (§8: "live pages = num_tbl8 - pool_pos_free_count") since the free
// stack alone only answers that in O(num_tbl8).
func (p *Pool) LiveBitmap() *bitset.BitSet {
	return p.live.Clone()
}

// PageBase returns the base entry index of page idx within the arena,
// i.e. where its PageEntries consecutive entries begin.
func PageBase(idx uint32) uint32 {
	return idx * PageEntries
}
