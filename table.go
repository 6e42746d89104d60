// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie6

import (
	"github.com/tpelkonen/fib6trie/internal/ribtree"
	"github.com/tpelkonen/fib6trie/internal/store"
	"github.com/tpelkonen/fib6trie/internal/tbl8pool"
)

const tbl24Entries = 1 << 24

// Config describes a Table's fixed shape at creation time, mirroring
// the lifecycle parameters of §6: the packed entry width, the size of
// the tbl8 pool, and the next-hop that applies wherever no prefix has
// been installed.
type Config struct {
	// NHSize selects the packed entry width (2, 4, or 8 bytes).
	NHSize NHSize
	// NumTbl8 is the number of tbl8 pages the pool manages. Must be in
	// (0, maxNH(NHSize)].
	NumTbl8 uint32
	// DefaultNextHop is installed across the whole address space at
	// creation, and restored under a prefix whenever it and everything
	// covering it are deleted. Must fit NHSize.
	DefaultNextHop uint64
	// CPU reports which vectorized lookup implementations the host
	// supports. Defaults to a golang.org/x/sys/cpu-backed detector if
	// nil.
	CPU CPUFeatures
}

func (c Config) validate() error {
	if !c.NHSize.Valid() {
		return ErrInvalidArgument
	}
	if c.NumTbl8 == 0 || uint64(c.NumTbl8) > maxNH(c.NHSize) {
		return ErrInvalidArgument
	}
	if c.DefaultNextHop > maxNH(c.NHSize) {
		return ErrInvalidArgument
	}
	return nil
}

// Table is a single IPv6 longest-prefix-match forwarding table: a
// direct-indexed tbl24 backed by a pool of tbl8 pages, plus the RIB
// that drives Modify's range-carving. A Table supports any number of
// concurrent lookups against a stable table, but Modify itself is not
// safe to call concurrently with another Modify or a Close — callers
// needing that must serialize their own writer, per §1's Non-goals.
type Table struct {
	cfg Config

	tbl24 *store.Array
	arena *store.Array
	pool  *tbl8pool.Pool
	rib   *ribtree.Tree

	rsvdTbl8s uint32
	closed    bool
}

// Create builds a new Table per cfg, installing DefaultNextHop across
// the entire tbl24. Grounded on trie_create.
func Create(cfg Config) (*Table, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.CPU == nil {
		cfg.CPU = defaultCPUFeatures{}
	}

	tbl24 := store.New(tbl24Entries, cfg.NHSize)
	tbl24.Put(0, encodeTerminal(cfg.DefaultNextHop), tbl24Entries)

	arena := store.New((int(cfg.NumTbl8)+1)*tbl8pool.PageEntries, cfg.NHSize)
	pool := tbl8pool.New(arena, int(cfg.NumTbl8))

	return &Table{
		cfg:   cfg,
		tbl24: tbl24,
		arena: arena,
		pool:  pool,
		rib:   ribtree.New(),
	}, nil
}

// Close releases the Table's backing arrays. Further calls to Modify or
// GetLookupFn return ErrClosed, and Tbl8InUse and Tbl8Capacity return 0;
// Lookup and previously obtained LookupFns have no error result and
// panic on a closed Table. Close is idempotent.
// Grounded on trie_free; since this package never holds memory outside
// the Go heap, Close exists for API symmetry with the lifecycle of
// §6 and to let large arenas be reclaimed before the Table itself goes
// out of scope.
func (t *Table) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.tbl24 = nil
	t.arena = nil
	t.pool = nil
	t.rib = nil
	return nil
}

// NHSize returns the table's configured entry width.
func (t *Table) NHSize() NHSize { return t.cfg.NHSize }

// DefaultNextHop returns the table's configured default next-hop.
func (t *Table) DefaultNextHop() uint64 { return t.cfg.DefaultNextHop }

// Tbl8InUse returns the number of tbl8 pages currently allocated.
func (t *Table) Tbl8InUse() int {
	if t.closed {
		return 0
	}
	return t.pool.InUse()
}

// Tbl8Capacity returns the configured number of tbl8 pages.
func (t *Table) Tbl8Capacity() int {
	if t.closed {
		return 0
	}
	return t.pool.Capacity()
}
