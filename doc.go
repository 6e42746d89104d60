// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package trie6 implements the data-plane core of an IPv6 longest-prefix
// match forwarding table: a multi-level stride trie generalized from the
// DIR-24-8 algorithm to 128-bit keys.
//
// The trie is a direct-indexed 24-bit top level (tbl24) backed by a pool
// of 256-entry "tbl8" pages for anything deeper than /24. Entries are
// packed at a runtime-chosen width of 2, 4, or 8 bytes: the low bit marks
// whether the remaining bits hold a next-hop value or a tbl8 page index.
//
// Table owns exactly one writer at a time (see Modify); concurrent
// lookups against an unchanging table are safe, but this package does not
// synchronize a lookup against an in-progress Modify — layer an RCU-style
// table swap on top if that is required.
package trie6
