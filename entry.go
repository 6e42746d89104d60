// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie6

import "github.com/tpelkonen/fib6trie/internal/store"

// NHSize selects the packed entry width used by a Table. It is an alias
// of the underlying store width so callers of this package never import
// the internal/store package directly.
type NHSize = store.Width

// The three supported next-hop widths, matching §3's W ∈ {2, 4, 8}.
const (
	NH2 NHSize = store.Width2
	NH4 NHSize = store.Width4
	NH8 NHSize = store.Width8
)

// maxNH returns the largest representable next-hop for width w:
// (1 << (8*w - 1)) - 1, since bit 0 of every entry is the EXT flag.
func maxNH(w NHSize) uint64 {
	return (uint64(1) << (8*uint(w) - 1)) - 1
}

// extBit is bit 0 of every packed entry, set when the remaining bits
// encode a tbl8 page index rather than a terminal next-hop.
const extBit uint64 = 1

// encodeTerminal packs a next-hop value as a non-extension entry.
func encodeTerminal(nh uint64) uint64 {
	return nh << 1
}

// encodeExt packs a tbl8 page index as an extension entry.
func encodeExt(pageIdx uint32) uint64 {
	return (uint64(pageIdx) << 1) | extBit
}

// isExt reports whether a packed entry value is an extension (pointer)
// entry rather than a terminal next-hop.
func isExt(v uint64) bool {
	return v&extBit == extBit
}

// extPage extracts the tbl8 page index from an extension entry. The
// caller must have already established isExt(v).
func extPage(v uint64) uint32 {
	return uint32(v >> 1)
}

// nextHopOf extracts the next-hop value from a terminal entry. The
// caller must have already established !isExt(v).
func nextHopOf(v uint64) uint64 {
	return v >> 1
}
