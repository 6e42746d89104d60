// Copyright (c) 2025 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Command fib6demo builds a trie6.Table from a route file and reports
// lookups for a list of addresses. It exists to exercise the package
// end to end from the command line, the way bart's own cmd does for
// its table types.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"net/netip"
	"os"
	"strconv"
	"strings"

	"github.com/tpelkonen/fib6trie"
)

func main() {
	var (
		nhSize  = flag.Uint("nh-size", 4, "packed entry width in bytes: 2, 4, or 8")
		numTbl8 = flag.Uint("num-tbl8", 4096, "number of tbl8 pages reserved in the pool")
		defNH   = flag.Uint64("default-nh", 0, "next-hop that applies where no prefix matches")
		routes  = flag.String("routes", "", "path to a route file (lines: 'add <prefix> <nh>' or 'del <prefix>')")
		lookups = flag.String("lookup", "", "comma-separated list of addresses to look up after loading routes")
	)
	flag.Parse()

	width, err := widthFromFlag(*nhSize)
	if err != nil {
		log.Fatalf("fib6demo: %v", err)
	}

	t, err := trie6.Create(trie6.Config{
		NHSize:         width,
		NumTbl8:        uint32(*numTbl8),
		DefaultNextHop: *defNH,
	})
	if err != nil {
		log.Fatalf("fib6demo: create table: %v", err)
	}
	defer t.Close()

	if *routes != "" {
		if err := loadRoutes(t, *routes); err != nil {
			log.Fatalf("fib6demo: %v", err)
		}
	}

	if *lookups == "" {
		return
	}
	for _, s := range strings.Split(*lookups, ",") {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		addr, err := netip.ParseAddr(s)
		if err != nil || !addr.Is6() {
			log.Printf("fib6demo: skipping invalid IPv6 address %q", s)
			continue
		}
		fmt.Printf("%s -> %d\n", addr, t.Lookup(addr))
	}
}

func widthFromFlag(n uint) (trie6.NHSize, error) {
	switch n {
	case 2:
		return trie6.NH2, nil
	case 4:
		return trie6.NH4, nil
	case 8:
		return trie6.NH8, nil
	default:
		return 0, fmt.Errorf("nh-size must be 2, 4, or 8, got %d", n)
	}
}

// loadRoutes applies one directive per non-empty, non-comment line of
// path to t: "add <prefix> <nh>" or "del <prefix>".
func loadRoutes(t *trie6.Table, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fmt.Errorf("routes:%d: malformed line %q", lineNo, line)
		}

		pfx, err := netip.ParsePrefix(fields[1])
		if err != nil {
			return fmt.Errorf("routes:%d: %w", lineNo, err)
		}
		addr := pfx.Masked().Addr().As16()

		switch fields[0] {
		case "add":
			if len(fields) != 3 {
				return fmt.Errorf("routes:%d: add requires a next-hop", lineNo)
			}
			nh, err := strconv.ParseUint(fields[2], 10, 64)
			if err != nil {
				return fmt.Errorf("routes:%d: %w", lineNo, err)
			}
			if err := t.Modify(trie6.Add, addr, pfx.Bits(), nh); err != nil {
				return fmt.Errorf("routes:%d: add %s: %w", lineNo, pfx, err)
			}
		case "del":
			if err := t.Modify(trie6.Del, addr, pfx.Bits(), 0); err != nil {
				return fmt.Errorf("routes:%d: del %s: %w", lineNo, pfx, err)
			}
		default:
			return fmt.Errorf("routes:%d: unknown directive %q", lineNo, fields[0])
		}
	}
	return scanner.Err()
}
