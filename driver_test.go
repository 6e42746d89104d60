// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie6

import (
	"net/netip"
	"testing"
)

func TestMaskAddr(t *testing.T) {
	ip := [16]byte{0xFF, 0xFF, 0xFF, 0xFF}
	got := maskAddr(ip, 20)
	want := [16]byte{0xFF, 0xFF, 0xF0}
	if got != want {
		t.Fatalf("maskAddr(/20) = %x, want %x", got, want)
	}

	got = maskAddr(ip, 24)
	want = [16]byte{0xFF, 0xFF, 0xFF}
	if got != want {
		t.Fatalf("maskAddr(/24) = %x, want %x", got, want)
	}

	got = maskAddr(ip, 0)
	if got != ([16]byte{}) {
		t.Fatalf("maskAddr(/0) = %x, want all zero", got)
	}
}

func TestNextNetSimple(t *testing.T) {
	ip := [16]byte{0x20, 0x01}
	got, wrapped := nextNet(ip, 16)
	want := [16]byte{0x20, 0x02}
	if wrapped {
		t.Fatalf("nextNet unexpectedly wrapped")
	}
	if got != want {
		t.Fatalf("nextNet(/16) = %x, want %x", got, want)
	}
}

func TestNextNetCarries(t *testing.T) {
	ip := [16]byte{0x20, 0xFF}
	got, wrapped := nextNet(ip, 16)
	want := [16]byte{0x21, 0x00}
	if wrapped {
		t.Fatalf("nextNet unexpectedly wrapped")
	}
	if got != want {
		t.Fatalf("nextNet(/16) with carry = %x, want %x", got, want)
	}
}

// TestNextNetWrapsAtTopOfSpace exercises the deliberate deviation from a
// literal get_nxt_net port: advancing the all-ones address by a /0-sized
// step must report wrapped=true, not silently return unchanged bytes.
func TestNextNetWrapsAtTopOfSpace(t *testing.T) {
	var ip [16]byte
	for i := range ip {
		ip[i] = 0xFF
	}
	got, wrapped := nextNet(ip, 0)
	if !wrapped {
		t.Fatalf("nextNet(/0) from all-ones must report wrapped=true")
	}
	if got != ip {
		t.Fatalf("nextNet(/0) bytes changed unexpectedly: %x", got)
	}
}

func TestAlignCeilFloor8(t *testing.T) {
	cases := []struct{ x, ceil, floor int }{
		{0, 0, 0},
		{1, 8, 0},
		{8, 8, 8},
		{9, 16, 8},
		{128, 128, 128},
	}
	for _, c := range cases {
		if got := alignCeil8(c.x); got != c.ceil {
			t.Errorf("alignCeil8(%d) = %d, want %d", c.x, got, c.ceil)
		}
		if got := alignFloor8(c.x); got != c.floor {
			t.Errorf("alignFloor8(%d) = %d, want %d", c.x, got, c.floor)
		}
	}
}

// TestTbl8RecyclesOnUniformDelete drives a /32 child underneath a /24
// parent (forcing at least one tbl8 page to be allocated), then deletes
// the child and confirms the page count drops back down once the page
// becomes uniform again, per tbl8_recycle.
func TestTbl8RecyclesOnUniformDelete(t *testing.T) {
	tbl := mustCreate(t, Config{NHSize: NH4, NumTbl8: 16, DefaultNextHop: 0})
	pfx6(t, tbl, Add, "2001:db8::/24", 0x1)

	before := tbl.Tbl8InUse()
	pfx6(t, tbl, Add, "2001:db8:ff::/32", 0x2)
	if got := tbl.Tbl8InUse(); got <= before {
		t.Fatalf("installing a /32 under a /24 should allocate at least one tbl8 page: before=%d after=%d", before, got)
	}

	pfx6(t, tbl, Del, "2001:db8:ff::/32", 0)
	if got := tbl.Tbl8InUse(); got != before {
		t.Fatalf("deleting the /32 should recycle the page back to %d, got %d", before, got)
	}
	if got := lookup(t, tbl, "2001:db8:ff::1"); got != 0x1 {
		t.Errorf("after recycle: got %d, want covering /24's 0x1", got)
	}
}

// TestNoSpaceWhenTbl8PoolExhausted confirms the admission gate in add()
// rejects a prefix that would need a page beyond the pool's capacity,
// leaving the table's state unchanged.
func TestNoSpaceWhenTbl8PoolExhausted(t *testing.T) {
	tbl := mustCreate(t, Config{NHSize: NH4, NumTbl8: 2, DefaultNextHop: 0})
	pfx6(t, tbl, Add, "2001:db8::/32", 0x1)

	// A fresh /40 needs two more reserved pages (tbl24 -> tbl8 -> tbl8),
	// but only one of the pool's two pages remains unreserved.
	p := addr6("2001:db9::1")
	err := tbl.Modify(Add, p, 40, 0x2)
	if err != ErrNoSpace {
		t.Fatalf("Modify with exhausted pool = %v, want ErrNoSpace", err)
	}
	if got := lookup(t, tbl, "2001:db9::1"); got != 0 {
		t.Errorf("rejected add must leave the dataplane unchanged, got %d", got)
	}
}

func addr6(s string) [16]byte {
	return netip.MustParseAddr(s).As16()
}

// TestAddMatchingParentNextHopDoesNotReserveTbl8 covers the add() branch
// where a new, more-specific prefix shares its RIB parent's next-hop: the
// dataplane is left untouched (the parent's existing entries already read
// back as nh), so no tbl8 page is actually consumed and rsvdTbl8s must not
// be bumped either. Grounded on trie_modify's ADD branch, which returns
// immediately after its own par_nh == next_hop check without touching
// dp->rsvd_tbl8s.
func TestAddMatchingParentNextHopDoesNotReserveTbl8(t *testing.T) {
	tbl := mustCreate(t, Config{NHSize: NH4, NumTbl8: 3, DefaultNextHop: 0})
	pfx6(t, tbl, Add, "2001:db8::/24", 0x1)

	before := tbl.Tbl8InUse()
	pfx6(t, tbl, Add, "2001:db8:ff::/32", 0x1)
	if got := tbl.Tbl8InUse(); got != before {
		t.Fatalf("adding a more-specific prefix with the same next-hop as its parent allocated a page: before=%d after=%d", before, got)
	}

	// A subsequent add that genuinely needs a tbl8 page must still be
	// admitted: rsvdTbl8s must not have been inflated by the no-op above.
	p := addr6("2001:db9::1")
	if err := tbl.Modify(Add, p, 40, 0x2); err != nil {
		t.Fatalf("Modify(Add, 2001:db9::1/40) = %v, want nil (pool should not be spuriously exhausted)", err)
	}
}
