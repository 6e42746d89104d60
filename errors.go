// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie6

import "errors"

// Sentinel errors returned by Create, Modify, and GetLookupFn. The first
// four correspond one-to-one with the error kinds of §7: invalid
// argument, not found, out of space, and unavailable; ErrClosed covers
// use of a Table after Close.
var (
	// ErrInvalidArgument is returned for an invalid Config, a depth
	// outside [0, 128], a next-hop above the configured width's
	// representable range, an unrecognized Op, or an unrecognized
	// LookupType.
	ErrInvalidArgument = errors.New("trie6: invalid argument")

	// ErrNotFound is returned by Modify(DEL) when no exact prefix/depth
	// entry exists in the RIB.
	ErrNotFound = errors.New("trie6: prefix not found")

	// ErrNoSpace is returned when the tbl8 pool is exhausted, either by
	// the admission pre-check in Add or by a page allocation during
	// install.
	ErrNoSpace = errors.New("trie6: tbl8 pool exhausted")

	// ErrUnavailable is returned by GetLookupFn when the requested
	// lookup implementation is not available on this build/host.
	ErrUnavailable = errors.New("trie6: lookup implementation unavailable")

	// ErrClosed is returned by Modify and GetLookupFn on a Table after
	// Close.
	ErrClosed = errors.New("trie6: table is closed")
)
