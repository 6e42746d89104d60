// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package ribtree implements the RIB collaborator §1 calls out as
// external to the trie core: the authoritative prefix set with
// parent/child containment relationships. It offers exactly the
// operations the core's modify driver needs from a RIB — exact lookup,
// insert/remove, nearest-covering-ancestor ("parent") lookup, and a
// "next covered" walk used to carve an installation range into the
// sub-ranges not shadowed by any more specific registered prefix — and
// nothing else (no enumeration API, no persistence; see spec.md's
// Non-goals).
//
// A Tree is a tree of registered prefixes ordered by containment, not a
// bit-at-a-time trie: each Node's children are exactly the prefixes whose
// nearest more-general registered ancestor is that Node. This makes
// NextCovered — "the maximal sub-prefixes of a range not shadowed by a
// still-more-specific prefix" — a direct child scan instead of a filtered
// walk over the whole subtree.
package ribtree

import "sort"

// Node is one registered prefix. The zero value is not meaningful;
// Nodes are only constructed by Tree.Insert.
type Node struct {
	addr     [16]byte
	depth    int // 0..128
	nextHop  uint64
	parent   *Node
	children []*Node // kept sorted by addr
}

// Addr returns the node's network address (already masked to Depth bits).
func (n *Node) Addr() [16]byte { return n.addr }

// Depth returns the node's prefix length.
func (n *Node) Depth() uint8 { return uint8(n.depth) }

// NextHop returns the node's currently installed next-hop.
func (n *Node) NextHop() uint64 { return n.nextHop }

// SetNextHop updates the node's next-hop in place. It does not touch the
// dataplane; callers rewrite the trie separately before or after calling
// this, per the modify driver's ordering in §4.4.
func (n *Node) SetNextHop(nh uint64) { n.nextHop = nh }

// Parent returns the node's nearest covering ancestor, or nil if none is
// registered (the caller should fall back to the table's default
// next-hop in that case).
func (n *Node) Parent() *Node {
	if n.parent == nil || n.parent.depth < 0 {
		return nil
	}
	return n.parent
}

// Tree is a RIB: a set of IPv6 prefixes with next-hops, ordered by
// containment. The zero value is not ready to use; construct with New.
type Tree struct {
	root Node // sentinel, depth -1, "covers everything"
}

// New returns an empty RIB.
func New() *Tree {
	return &Tree{root: Node{depth: -1}}
}

// LookupExact returns the node registered at exactly (ip, depth), or nil
// if none exists. ip must already be masked to depth bits.
func (t *Tree) LookupExact(ip [16]byte, depth int) *Node {
	n := t.descend(ip, depth)
	if n != &t.root && n.depth == depth && n.addr == ip {
		return n
	}
	return nil
}

// Lookup returns the deepest registered prefix containing ip (an
// ordinary longest-prefix-match lookup over the RIB itself, as opposed
// to the trie), or nil if none is registered.
func (t *Tree) Lookup(ip [16]byte) *Node {
	n := t.descend(ip, 128)
	if n == &t.root {
		return nil
	}
	return n
}

// LookupCoveringAncestor returns the deepest registered node that covers
// (ip, depth) — i.e. the RIB parent a new node at (ip, depth) would get
// if inserted now — or nil if none is registered (meaning the table's
// default next-hop applies).
func (t *Tree) LookupCoveringAncestor(ip [16]byte, depth int) *Node {
	n := t.descend(ip, depth)
	if n == &t.root {
		return nil
	}
	return n
}

// Insert adds a new node at (ip, depth) with next-hop nh. The caller
// must have already verified no exact node exists there (via
// LookupExact); Insert does not check. Any currently-registered node
// that falls inside the new prefix is reparented under it.
func (t *Tree) Insert(ip [16]byte, depth int, nh uint64) *Node {
	parent := t.descend(ip, depth)

	n := &Node{addr: ip, depth: depth, nextHop: nh, parent: parent}

	remaining := parent.children[:0:0]
	for _, c := range parent.children {
		if containsPrefix(ip, depth, c.addr, c.depth) {
			c.parent = n
			n.children = append(n.children, c) // parent.children was sorted, order is preserved
			continue
		}
		remaining = append(remaining, c)
	}
	parent.children = insertSorted(remaining, n)

	return n
}

// Remove deletes the exact node at (ip, depth), reparenting its
// children onto its own parent. Returns false if no such node exists.
func (t *Tree) Remove(ip [16]byte, depth int) bool {
	n := t.LookupExact(ip, depth)
	if n == nil {
		return false
	}

	parent := n.parent
	idx := -1
	for i, c := range parent.children {
		if c == n {
			idx = i
			break
		}
	}
	parent.children = append(parent.children[:idx], parent.children[idx+1:]...)

	for _, c := range n.children {
		c.parent = parent
		parent.children = insertSorted(parent.children, c)
	}
	return true
}

// NextCovered returns the next node, in ascending address order, whose
// prefix is strictly more specific than (ip, depth) and contained
// within it, resuming after cursor (nil to start from the beginning).
// It returns only the *maximal* such prefixes: a node nested inside
// another already-returned one is never produced, matching §4.4's
// "carve into maximal sub-ranges not shadowed by a more specific
// prefix".
func (t *Tree) NextCovered(ip [16]byte, depth int, cursor *Node) *Node {
	base := t.descend(ip, depth)

	start := 0
	if cursor != nil {
		for i, k := range base.children {
			if k == cursor {
				start = i + 1
				break
			}
		}
	}
	for i := start; i < len(base.children); i++ {
		k := base.children[i]
		if k.depth > depth && maskEqual(ip, k.addr, uint8(depth)) {
			return k
		}
	}
	return nil
}

// descend walks from the root through the chain of registered nodes
// that cover (ip, depth), returning the deepest one (or &t.root if none
// cover it at all).
func (t *Tree) descend(ip [16]byte, depth int) *Node {
	cur := &t.root
	for {
		next := cur.matchingChild(ip, depth)
		if next == nil {
			return cur
		}
		cur = next
	}
}

func (n *Node) matchingChild(ip [16]byte, depth int) *Node {
	for _, c := range n.children {
		if c.depth <= depth && maskEqual(ip, c.addr, uint8(c.depth)) {
			return c
		}
	}
	return nil
}

// containsPrefix reports whether (candIP, candDepth) is a strict subnet
// of (baseIP, baseDepth).
func containsPrefix(baseIP [16]byte, baseDepth int, candIP [16]byte, candDepth int) bool {
	return candDepth > baseDepth && maskEqual(candIP, baseIP, uint8(baseDepth))
}

// maskEqual reports whether a and b agree on their first depth bits.
func maskEqual(a, b [16]byte, depth uint8) bool {
	full := depth / 8
	for i := uint8(0); i < full; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	if rem := depth % 8; rem != 0 {
		shift := 8 - rem
		return a[full]>>shift == b[full]>>shift
	}
	return true
}

func insertSorted(list []*Node, n *Node) []*Node {
	i := sort.Search(len(list), func(i int) bool {
		return cmpAddr(list[i].addr, n.addr) >= 0
	})
	list = append(list, nil)
	copy(list[i+1:], list[i:])
	list[i] = n
	return list
}

func cmpAddr(a, b [16]byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
