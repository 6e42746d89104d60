// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package tbl8pool

import (
	"errors"
	"testing"

	"github.com/tpelkonen/fib6trie/internal/store"
)

func newTestPool(capacity int) *Pool {
	arena := store.New((capacity+1)*PageEntries, store.Width4)
	return New(arena, capacity)
}

func TestAllocFreeLIFO(t *testing.T) {
	p := newTestPool(4)

	a, err := p.Alloc(0)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	b, err := p.Alloc(0)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if a != 0 || b != 1 {
		t.Fatalf("expected sequential allocation 0,1; got %d,%d", a, b)
	}
	if p.InUse() != 2 {
		t.Fatalf("InUse() = %d, want 2", p.InUse())
	}

	p.Free(b)
	if p.InUse() != 1 {
		t.Fatalf("InUse() after Free = %d, want 1", p.InUse())
	}

	c, err := p.Alloc(0)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if c != b {
		t.Fatalf("expected LIFO reuse of %d, got %d", b, c)
	}
}

func TestAllocExhaustion(t *testing.T) {
	p := newTestPool(2)
	if _, err := p.Alloc(0); err != nil {
		t.Fatalf("Alloc 1: %v", err)
	}
	if _, err := p.Alloc(0); err != nil {
		t.Fatalf("Alloc 2: %v", err)
	}
	if _, err := p.Alloc(0); !errors.Is(err, ErrNoSpace) {
		t.Fatalf("Alloc 3 error = %v, want ErrNoSpace", err)
	}
}

func TestAllocFillsPage(t *testing.T) {
	p := newTestPool(1)
	idx, err := p.Alloc(0x2A)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	for i := uint32(0); i < PageEntries; i++ {
		if got := p.arena.Get(PageBase(idx) + i); got != 0x2A {
			t.Fatalf("entry %d = %#x, want 0x2A", i, got)
		}
	}
}

func TestLiveBitmap(t *testing.T) {
	p := newTestPool(3)
	a, _ := p.Alloc(0)
	_, _ = p.Alloc(0)
	p.Free(a)

	live := p.LiveBitmap()
	if live.Count() != 1 {
		t.Fatalf("live count = %d, want 1", live.Count())
	}
	if live.Test(uint(a)) {
		t.Fatalf("freed page %d reported live", a)
	}
}

func TestPageBase(t *testing.T) {
	if PageBase(3) != 3*PageEntries {
		t.Fatalf("PageBase(3) = %d", PageBase(3))
	}
}
