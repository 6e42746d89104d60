// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package golden

import (
	"fmt"
	"math/rand/v2"
	"net/netip"
)

//nolint:gochecknoglobals
var mpp = func(s string) netip.Prefix {
	pfx := netip.MustParsePrefix(s)
	if pfx == pfx.Masked() {
		return pfx
	}
	panic(fmt.Sprintf("%s is not canonicalized as %s", s, pfx.Masked()))
}

// RandomPrefix returns a randomly generated IPv6 prefix, masked.
func RandomPrefix(prng *rand.Rand) netip.Prefix {
	bits := prng.IntN(129)
	return netip.PrefixFrom(RandomAddr(prng), bits).Masked()
}

// RandomAddr returns a randomly generated IPv6 address.
func RandomAddr(prng *rand.Rand) netip.Addr {
	var b [16]byte
	for i := range b {
		b[i] = byte(prng.UintN(256))
	}
	return netip.AddrFrom16(b)
}

// RandomRealWorldPrefixes returns n distinct IPv6 prefixes shaped like
// real global-unicast allocations (depth in [16,56], within 2000::/3),
// useful for property tests that want plausible rather than
// uniformly-random prefix lengths.
func RandomRealWorldPrefixes(prng *rand.Rand, n int) []netip.Prefix {
	set := make(map[netip.Prefix]struct{})
	pfxs := make([]netip.Prefix, 0, n)

	for len(set) < n {
		pfx := RandomPrefix(prng)

		if pfx.Bits() < 16 || pfx.Bits() > 56 {
			continue
		}
		if !pfx.Overlaps(mpp("2000::/3")) {
			continue
		}
		if pfx.Addr().Compare(mpp("2c0f::/16").Addr()) == 1 {
			continue
		}

		if _, ok := set[pfx]; !ok {
			set[pfx] = struct{}{}
			pfxs = append(pfxs, pfx)
		}
	}

	prng.Shuffle(len(pfxs), func(i, j int) {
		pfxs[i], pfxs[j] = pfxs[j], pfxs[i]
	})
	return pfxs
}
