// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie6

import "testing"

func TestEncodeDecodeTerminal(t *testing.T) {
	for _, nh := range []uint64{0, 1, 42, maxNH(NH4)} {
		v := encodeTerminal(nh)
		if isExt(v) {
			t.Fatalf("encodeTerminal(%d) set the ext bit", nh)
		}
		if got := nextHopOf(v); got != nh {
			t.Fatalf("nextHopOf(encodeTerminal(%d)) = %d", nh, got)
		}
	}
}

func TestEncodeDecodeExt(t *testing.T) {
	for _, page := range []uint32{0, 1, 255, 1 << 20} {
		v := encodeExt(page)
		if !isExt(v) {
			t.Fatalf("encodeExt(%d) did not set the ext bit", page)
		}
		if got := extPage(v); got != page {
			t.Fatalf("extPage(encodeExt(%d)) = %d", page, got)
		}
	}
}

func TestMaxNH(t *testing.T) {
	cases := map[NHSize]uint64{
		NH2: 1<<15 - 1,
		NH4: 1<<31 - 1,
		NH8: 1<<63 - 1,
	}
	for w, want := range cases {
		if got := maxNH(w); got != want {
			t.Errorf("maxNH(%v) = %d, want %d", w, got, want)
		}
	}
}
