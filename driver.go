// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie6

import "github.com/tpelkonen/fib6trie/internal/ribtree"

// Op selects the operation Modify performs.
type Op int

const (
	// Add inserts or replaces the next-hop for a prefix.
	Add Op = iota
	// Del removes a prefix, restoring whatever next-hop its covering
	// ancestor (or the table default) provides underneath it.
	Del
)

// Modify applies a single RIB change and reconciles the dataplane to
// match it, per §4.4 and trie_modify. depth must be in [0, 128]; nh
// must fit the table's configured width.
func (t *Table) Modify(op Op, ip [16]byte, depth int, nh uint64) error {
	if t.closed {
		return ErrClosed
	}
	if depth < 0 || depth > 128 || nh > maxNH(t.cfg.NHSize) {
		return ErrInvalidArgument
	}
	masked := maskAddr(ip, depth)
	diff := t.depthDiff(ip, masked, depth)

	switch op {
	case Add:
		return t.add(masked, depth, nh, diff)
	case Del:
		return t.del(masked, depth, diff)
	default:
		return ErrInvalidArgument
	}
}

func (t *Table) add(ip [16]byte, depth int, nh uint64, diff int) error {
	if existing := t.rib.LookupExact(ip, depth); existing != nil {
		if existing.NextHop() == nh {
			return nil
		}
		if err := t.modifyDP(ip, depth, nh); err != nil {
			return err
		}
		existing.SetNextHop(nh)
		return nil
	}

	if depth > 24 && t.rsvdTbl8s >= uint32(t.pool.Capacity())-uint32(diff) {
		return ErrNoSpace
	}

	node := t.rib.Insert(ip, depth, nh)
	if parent := node.Parent(); parent != nil && parent.NextHop() == nh {
		return nil
	}

	if err := t.modifyDP(ip, depth, nh); err != nil {
		t.rib.Remove(ip, depth)
		return err
	}
	t.rsvdTbl8s += uint32(diff)
	return nil
}

func (t *Table) del(ip [16]byte, depth int, diff int) error {
	existing := t.rib.LookupExact(ip, depth)
	if existing == nil {
		return ErrNotFound
	}

	if parent := existing.Parent(); parent != nil {
		if parent.NextHop() != existing.NextHop() {
			if err := t.modifyDP(ip, depth, parent.NextHop()); err != nil {
				return err
			}
		}
	} else if err := t.modifyDP(ip, depth, t.cfg.DefaultNextHop); err != nil {
		return err
	}

	t.rib.Remove(ip, depth)
	t.rsvdTbl8s -= uint32(diff)
	return nil
}

// depthDiff estimates how many additional tbl8 pages a prefix at depth
// could need beyond whatever already exists along ip's current
// longest-match path, gating admission before the pool is touched.
// Grounded on trie_modify's depth_diff computation: zero whenever a
// more specific prefix already reaches this deep (its pages already
// exist), otherwise the byte-aligned distance between depth and the
// deepest existing ancestor (or tbl24, whichever is deeper).
func (t *Table) depthDiff(ip, masked [16]byte, depth int) int {
	if depth <= 24 {
		return 0
	}
	if t.rib.NextCovered(masked, alignFloor8(depth), nil) != nil {
		return 0
	}
	parentDepth := 24
	if found := t.rib.Lookup(ip); found != nil {
		if d := int(found.Depth()); d > parentDepth {
			parentDepth = d
		}
	}
	return (alignCeil8(depth) - alignCeil8(parentDepth)) >> 3
}

func alignCeil8(x int) int  { return (x + 7) &^ 7 }
func alignFloor8(x int) int { return x &^ 7 }

// modifyDP reconciles the dataplane for the range (ip, depth) covers,
// while (ip, depth) itself is registered in the RIB (add calls it after
// Insert; del and the next-hop replace path call it before Remove or
// SetNextHop): it walks every currently-registered prefix inside that
// range (the RIB's "next covered" iterator) and installs nh into each
// gap between them, then installs nh into whatever tail remains.
// Grounded on trie.c's modify_dp.
func (t *Table) modifyDP(ip [16]byte, depth int, nh uint64) error {
	ledge := ip
	var cursor *ribtree.Node

	for {
		covered := t.rib.NextCovered(ip, depth, cursor)
		if covered == nil {
			redge, wrapped := nextNet(ip, uint8(depth))
			if !wrapped && ledge == redge {
				return nil
			}
			return t.installRange(ledge, redge, nh)
		}
		cursor = covered

		coveredDepth := int(covered.Depth())
		if coveredDepth == depth {
			continue
		}

		redge := covered.Addr()
		if ledge == redge {
			next, wrapped := nextNet(ledge, uint8(coveredDepth))
			if wrapped {
				// The covered prefix runs to the top of the space: no tail.
				return nil
			}
			ledge = next
			continue
		}

		if err := t.installRange(ledge, redge, nh); err != nil {
			return err
		}
		next, wrapped := nextNet(redge, uint8(coveredDepth))
		if wrapped {
			return nil
		}
		ledge = next
	}
}

// maskAddr zeroes every bit of ip beyond depth.
func maskAddr(ip [16]byte, depth int) [16]byte {
	full := depth / 8
	rem := depth % 8
	if rem != 0 {
		ip[full] &= 0xFF << (8 - rem)
		full++
	}
	for i := full; i < 16; i++ {
		ip[i] = 0
	}
	return ip
}

// nextNet advances ip by 2^(128-depth), the width of a depth-bit
// prefix, with big-endian carry into shallower bytes. wrapped reports
// whether the add overflowed past the top of the address space (always
// the case at depth 0, otherwise only when ip is the last depth-bit
// prefix of the space); callers must treat that case as "the end of the
// space", not as "no change", even though at depth 0 the returned bytes
// equal ip unchanged. Grounded on trie.c's get_nxt_net.
func nextNet(ip [16]byte, depth uint8) (out [16]byte, wrapped bool) {
	if depth == 0 {
		return ip, true
	}
	i := 0
	partDepth := depth
	for partDepth > 8 {
		partDepth -= 8
		i++
	}

	prev := ip[i]
	ip[i] += 1 << (8 - partDepth)
	if ip[i] < prev {
		for i > 0 {
			i--
			ip[i]++
			if ip[i] != 0 {
				return ip, false
			}
		}
		return ip, true
	}
	return ip, false
}
