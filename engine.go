// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie6

import (
	"github.com/tpelkonen/fib6trie/internal/store"
	"github.com/tpelkonen/fib6trie/internal/tbl8pool"
)

// edgeSide selects which trimming rule write_edge applies once it
// reaches the bottom of the common prefix: the left edge fills
// everything *after* its own byte within each page it descends
// through, the right edge fills everything *before* it.
type edgeSide int

const (
	ledgeSide edgeSide = iota
	redgeSide
)

// tableRef is a handle to "the table currently being indexed": either
// tbl24 itself (base 0) or a single tbl8 page (base = page*256). It is
// the Go shape of trie.c's install_to_dp loop variable that is first
// dp->tbl24 and later dp->tbl8 + an offset — unifying them removes the
// need to carry that distinction through every call site.
type tableRef struct {
	arr  *store.Array
	base uint32
}

func (r tableRef) ptrAt(idx uint32) store.Ptr { return r.arr.PtrAt(r.base + idx) }

func (r tableRef) fill(idx uint32, val uint64, n int) {
	if n <= 0 {
		return
	}
	r.arr.Put(r.base+idx, val, n)
}

// idx3 combines the first three bytes of ip into a tbl24 index.
func idx3(ip [16]byte) uint32 {
	return uint32(ip[0])<<16 | uint32(ip[1])<<8 | uint32(ip[2])
}

// installRange writes nh across every address in [ledge, r), where r is
// exclusive (it may be the all-zero wraparound of the top of the address
// space). It is the Go shape of install_to_dp: find the deepest table
// both edges share (the common root), then write the two edges with
// write_edge and fill everything strictly between them directly.
func (t *Table) installRange(ledge [16]byte, r [16]byte, nh uint64) error {
	redge := r
	for i := 15; i >= 0; i-- {
		redge[i]--
		if redge[i] != 0xFF {
			break
		}
	}

	commonBytes := 0
	for commonBytes < 15 && ledge[commonBytes] == redge[commonBytes] {
		commonBytes++
	}

	root, chain, err := t.buildCommonRoot(ledge, commonBytes)
	if err != nil {
		return err
	}

	firstTbl8Byte := commonBytes
	if firstTbl8Byte < 3 {
		firstTbl8Byte = 3
	}

	llen := trailingRunLen(ledge, firstTbl8Byte, 0x00)
	rlen := trailingRunLen(redge, firstTbl8Byte, 0xFF)
	if commonBytes < 3 {
		llen++
		rlen++
	}

	leftIdx := edgeIndex(ledge, commonBytes)
	rightIdx := edgeIndex(redge, commonBytes)

	tailStart := firstTbl8Byte
	if commonBytes >= 3 {
		tailStart++
	}

	if err := t.writeEdge(ledge[tailStart:], nh, llen, ledgeSide, root.ptrAt(leftIdx)); err != nil {
		return err
	}

	if rightIdx > leftIdx+1 {
		root.fill(leftIdx+1, encodeTerminal(nh), int(rightIdx-(leftIdx+1)))
	}

	if err := t.writeEdge(redge[tailStart:], nh, rlen, redgeSide, root.ptrAt(rightIdx)); err != nil {
		return err
	}

	t.recycleRootPath(chain)
	return nil
}

// edgeIndex is the Go shape of get_idx as install_to_dp actually calls
// it: a 3-byte combined tbl24 index when the common prefix is shorter
// than 3 bytes, or a single byte within the common root page otherwise.
func edgeIndex(ip [16]byte, commonBytes int) uint32 {
	if commonBytes < 3 {
		return idx3(ip)
	}
	return uint32(ip[commonBytes])
}

// trailingRunLen skips the run of value v at the tail of ip, scanning
// back no further than floor+1, and returns how far past floor the last
// byte before that run lies (0 if every byte after floor is v). It is
// install_to_dp's llen/rlen loop, used to trim
// write_edge's recursion to only the bytes that actually need writing.
func trailingRunLen(ip [16]byte, floor int, v byte) int {
	i := 15
	for i > floor {
		if ip[i] != v {
			break
		}
		i--
	}
	return i - floor
}

// buildCommonRoot descends from tbl24 through the bytes of ledge common
// to both edges, allocating a tbl8 page at any terminal entry it finds
// along the way, and returns a reference to the deepest shared table
// (tbl24 itself if commonBytes < 3) plus the chain of entry pointers it
// passed through on the way down, shallowest first. The chain is later
// replayed in reverse by recycleRootPath. Grounded on trie.c's
// build_common_root.
func (t *Table) buildCommonRoot(ledge [16]byte, commonBytes int) (tableRef, []store.Ptr, error) {
	idx24 := idx3(ledge)
	tbl24Ptr := t.tbl24.PtrAt(idx24)
	chain := []store.Ptr{tbl24Ptr}

	if commonBytes < 3 {
		return tableRef{arr: t.tbl24}, chain, nil
	}

	ref, err := t.descendInto(tbl24Ptr)
	if err != nil {
		return tableRef{}, nil, err
	}
	for b := 3; b < commonBytes; b++ {
		p := ref.ptrAt(uint32(ledge[b]))
		chain = append(chain, p)
		ref, err = t.descendInto(p)
		if err != nil {
			return tableRef{}, nil, err
		}
	}
	return ref, chain, nil
}

// descendInto reads the entry p refers to. If it is already an
// extension entry it returns a reference to the page it points at;
// otherwise it allocates a fresh page filled with the entry's own
// terminal value and rewrites p to point at it, matching tbl8_alloc's
// use inside build_common_root and write_edge.
func (t *Table) descendInto(p store.Ptr) (tableRef, error) {
	v := p.Get()
	if isExt(v) {
		return tableRef{arr: t.arena, base: tbl8pool.PageBase(extPage(v))}, nil
	}
	page, err := t.pool.Alloc(encodeTerminal(nextHopOf(v)))
	if err != nil {
		return tableRef{}, ErrNoSpace
	}
	p.Put(encodeExt(page))
	return tableRef{arr: t.arena, base: tbl8pool.PageBase(page)}, nil
}

// writeEdge writes nh to the single entry ent, first descending length
// levels deeper along ipTail (allocating pages as needed) and filling
// the rest of each page it passes through per edge's trimming rule.
// Once the recursion unwinds, it offers the page it just finished
// writing to tbl8Recycle, which collapses it back into a terminal entry
// if every slot ended up equal. Grounded on trie.c's write_edge.
func (t *Table) writeEdge(ipTail []byte, nh uint64, length int, edge edgeSide, ent store.Ptr) error {
	val := encodeTerminal(nh)

	if length != 0 {
		cur := ent.Get()
		var page uint32
		if isExt(cur) {
			page = extPage(cur)
		} else {
			var err error
			page, err = t.pool.Alloc(cur)
			if err != nil {
				return ErrNoSpace
			}
			cur = encodeExt(page)
		}
		val = cur

		b := ipTail[0]
		child := t.arena.PtrAt(tbl8pool.PageBase(page) + uint32(b))
		if err := t.writeEdge(ipTail[1:], nh, length-1, edge, child); err != nil {
			return err
		}

		base := tbl8pool.PageBase(page)
		if edge == ledgeSide {
			t.arena.Put(base+uint32(b)+1, encodeTerminal(nh), 255-int(b))
		} else {
			t.arena.Put(base, encodeTerminal(nh), int(b))
		}

		if newVal, recycled := t.tbl8Recycle(page); recycled {
			val = newVal
		}
	}

	ent.Put(val)
	return nil
}

// tbl8Recycle inspects the page at pageIdx: if its first entry is not
// itself an extension and all 256 entries equal it, the page has become
// uniform and collapses back into a single terminal entry — it is
// zeroed and freed, and (value, true) is returned for the caller to
// write into the parent slot. Otherwise the page stays live and
// (0, false) is returned. Grounded on trie.c's tbl8_recycle.
func (t *Table) tbl8Recycle(pageIdx uint32) (uint64, bool) {
	base := tbl8pool.PageBase(pageIdx)
	first := t.arena.Get(base)
	if isExt(first) {
		return 0, false
	}
	for i := uint32(1); i < tbl8pool.PageEntries; i++ {
		if t.arena.Get(base+i) != first {
			return 0, false
		}
	}
	t.arena.Put(base, 0, int(tbl8pool.PageEntries))
	t.pool.Free(pageIdx)
	return first, true
}

// recycleRootPath re-examines the chain of entries build_common_root
// descended through, deepest first, collapsing each page that became
// uniform as a side effect of the range just installed. It stops at the
// first entry (from the top) that is no longer an extension, since
// nothing can be collapsed beneath an already-terminal slot. Grounded
// on trie.c's recycle_root_path, flattened from recursion into an
// explicit two-pass walk.
func (t *Table) recycleRootPath(chain []store.Ptr) {
	n := 0
	for n < len(chain) {
		if !isExt(chain[n].Get()) {
			break
		}
		n++
	}
	for i := n - 1; i >= 0; i-- {
		p := chain[i]
		page := extPage(p.Get())
		if newVal, recycled := t.tbl8Recycle(page); recycled {
			p.Put(newVal)
		}
	}
}
