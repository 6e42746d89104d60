// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie6

import (
	"net/netip"

	"golang.org/x/sys/cpu"

	"github.com/tpelkonen/fib6trie/internal/tbl8pool"
)

// LookupType selects which lookup implementation GetLookupFn returns,
// mirroring get_scalar_fn/get_vector_fn/trie_get_lookup_fn from §5.
type LookupType int

const (
	// LookupScalar walks tbl24/tbl8 one key at a time.
	LookupScalar LookupType = iota
	// LookupVectorAVX512 requests the AVX-512 bulk routine. It is only
	// ever satisfied on hosts CPU reports as capable, and this package
	// carries no such routine itself (see ErrUnavailable).
	LookupVectorAVX512
	// LookupDefault asks for the best implementation available,
	// falling back to LookupScalar.
	LookupDefault
)

// LookupFn looks up every key in keys against the table it was bound
// to, writing the resulting next-hops to dst in the same order.
// len(dst) must be >= len(keys).
type LookupFn func(dst []uint64, keys []netip.Addr)

// CPUFeatures reports which vectorized lookup paths a host supports.
// Table.GetLookupFn consults it to decide whether LookupVectorAVX512
// can be satisfied at all; it never affects LookupScalar.
type CPUFeatures interface {
	HasAVX512() bool
}

// defaultCPUFeatures backs Config.CPU when the caller doesn't supply
// one, reporting the running host's actual capability via
// golang.org/x/sys/cpu.
type defaultCPUFeatures struct{}

func (defaultCPUFeatures) HasAVX512() bool {
	return cpu.X86.HasAVX512F
}

// GetLookupFn returns a bound lookup function of the requested kind.
// LookupVectorAVX512 returns ErrUnavailable unconditionally: detecting
// host support is wired to a real CPUFeatures implementation, but the
// AVX-512 bulk routine itself is an external collaborator this package
// does not implement (see SPEC_FULL.md's domain-stack notes). Grounded
// on trie_get_lookup_fn.
func (t *Table) GetLookupFn(typ LookupType) (LookupFn, error) {
	if t.closed {
		return nil, ErrClosed
	}
	switch typ {
	case LookupScalar:
		return t.scalarLookup, nil
	case LookupVectorAVX512:
		if !t.cfg.CPU.HasAVX512() {
			return nil, ErrUnavailable
		}
		return nil, ErrUnavailable
	case LookupDefault:
		if fn, err := t.GetLookupFn(LookupVectorAVX512); err == nil {
			return fn, nil
		}
		return t.GetLookupFn(LookupScalar)
	default:
		return nil, ErrInvalidArgument
	}
}

// Lookup resolves a single address. It is a convenience wrapper around
// the same scalar walk GetLookupFn(LookupScalar) returns.
func (t *Table) Lookup(addr netip.Addr) uint64 {
	return t.lookupOne(addr)
}

func (t *Table) scalarLookup(dst []uint64, keys []netip.Addr) {
	for i, k := range keys {
		dst[i] = t.lookupOne(k)
	}
}

// lookupOne walks tbl24, then chains through at most 13 further tbl8
// pages (one per remaining address byte), matching §2's "bounded,
// data-independent number of memory accesses: one tbl24 read, then at
// most one tbl8 read per remaining byte of the key."
func (t *Table) lookupOne(addr netip.Addr) uint64 {
	a := addr.As16()
	v := t.tbl24.Get(idx3(a))
	for b := 3; b < 16 && isExt(v); b++ {
		v = t.arena.Get(tbl8pool.PageBase(extPage(v)) + uint32(a[b]))
	}
	return nextHopOf(v)
}
