// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package statseq

import (
	"fmt"
)

// CheckInvariants verifies that every index agrees with the slot chain.
//
// Description:
//
//	Walks the chain once and compares it against the location index, the
//	frequency map and mode cursor, the order-statistics multiset, both
//	median halves and the random pool. Cost is O(n log n); intended for
//	tests and debug builds.
//
// Outputs:
//   - error: nil when consistent, otherwise wraps ErrInvariantViolated.
func (s *Sequence) CheckInvariants() error {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvariantViolated, fmt.Sprintf(format, args...))
	}

	counts := make(map[int]int)
	n := 0
	prev := nilHandle
	for h := s.arena.head; h != nilHandle; h = s.arena.next(h) {
		sl := s.arena.slots[h]
		if !sl.live {
			return fail("dead slot %d reachable from head", h)
		}
		if sl.prev != prev {
			return fail("slot %d prev=%d, want %d", h, sl.prev, prev)
		}
		counts[sl.value]++
		prev = h
		n++
		if n > len(s.arena.slots) {
			return fail("cycle in slot chain")
		}
	}
	if prev != s.arena.tail {
		return fail("tail=%d, last reachable slot=%d", s.arena.tail, prev)
	}
	if n != s.arena.live {
		return fail("chain length %d, live count %d", n, s.arena.live)
	}

	// Location index.
	located := 0
	for v, set := range s.locs {
		if len(set) == 0 {
			return fail("empty location set for %d", v)
		}
		for h := range set {
			if int(h) >= len(s.arena.slots) || !s.arena.slots[h].live {
				return fail("location index holds dead handle %d for %d", h, v)
			}
			if got := s.arena.value(h); got != v {
				return fail("location index maps %d to slot %d holding %d", v, h, got)
			}
		}
		if len(set) != counts[v] {
			return fail("location set size %d for %d, want %d", len(set), v, counts[v])
		}
		located += len(set)
	}
	if located != n {
		return fail("location index holds %d handles, want %d", located, n)
	}

	// Frequencies and mode.
	if len(s.freq.counts) != len(counts) {
		return fail("frequency map has %d values, want %d", len(s.freq.counts), len(counts))
	}
	wantMode, wantCount := 0, 0
	for v, c := range counts {
		if s.freq.counts[v] != c {
			return fail("frequency of %d is %d, want %d", v, s.freq.counts[v], c)
		}
		if c > wantCount || (c == wantCount && v < wantMode) {
			wantMode, wantCount = v, c
		}
	}
	if s.freq.modeCount != wantCount || (wantCount > 0 && s.freq.modeValue != wantMode) {
		return fail("mode cursor (%d x%d), want (%d x%d)",
			s.freq.modeValue, s.freq.modeCount, wantMode, wantCount)
	}

	// Order-statistics multiset.
	if err := checkMultiset("order-statistics", s.all, counts, n); err != nil {
		return err
	}

	// Median halves.
	lo, hi := s.med.lower.len(), s.med.upper.len()
	if lo+hi != n {
		return fail("median halves hold %d values, want %d", lo+hi, n)
	}
	if d := lo - hi; d < 0 || d > 1 {
		return fail("median halves sized %d/%d", lo, hi)
	}
	if lmax, ok := s.med.lower.max(); ok {
		if umin, ok := s.med.upper.min(); ok && lmax > umin {
			return fail("median boundary %d > %d", lmax, umin)
		}
	}
	halves := make(map[int]int, len(counts))
	s.med.lower.each(func(v, c int) { halves[v] += c })
	s.med.upper.each(func(v, c int) { halves[v] += c })
	if len(halves) != len(counts) {
		return fail("median halves hold %d distinct values, want %d", len(halves), len(counts))
	}
	for v, c := range counts {
		if halves[v] != c {
			return fail("median halves hold %d x%d, want x%d", v, halves[v], c)
		}
	}

	// Random pool.
	if s.pool.Len() != n {
		return fail("random pool holds %d handles, want %d", s.pool.Len(), n)
	}
	for i := 0; i < s.pool.Len(); i++ {
		h := s.pool.At(i)
		if int(h) >= len(s.arena.slots) || !s.arena.slots[h].live {
			return fail("random pool holds dead handle %d", h)
		}
	}
	return nil
}

func checkMultiset(name string, m *multiset, counts map[int]int, n int) error {
	if m.len() != n {
		return fmt.Errorf("%w: %s multiset holds %d values, want %d", ErrInvariantViolated, name, m.len(), n)
	}
	total := 0
	first := true
	var wantMin, wantMax int
	var err error
	m.each(func(v, c int) {
		if err != nil {
			return
		}
		if counts[v] != c {
			err = fmt.Errorf("%w: %s multiset holds %d x%d, want x%d", ErrInvariantViolated, name, v, c, counts[v])
		}
		if first {
			wantMin = v
			first = false
		}
		wantMax = v
		total += c
	})
	if err != nil {
		return err
	}
	if total != n {
		return fmt.Errorf("%w: %s multiset total %d, want %d", ErrInvariantViolated, name, total, n)
	}
	if n > 0 {
		lo, _ := m.min()
		hi, _ := m.max()
		if lo != wantMin || hi != wantMax {
			return fmt.Errorf("%w: %s cached extremes [%d,%d], want [%d,%d]",
				ErrInvariantViolated, name, lo, hi, wantMin, wantMax)
		}
	}
	return nil
}
