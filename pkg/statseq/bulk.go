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
	"cmp"
	"slices"
)

// -----------------------------------------------------------------------------
// Bulk rewrites
//
// Each rewrite copies the values out, transforms the copy, writes values
// back into the existing slots in chain order and rebuilds every index.
// Slot handles and positions never change; only stored values do.
// -----------------------------------------------------------------------------

// rewrite applies fn to a copy of the values and writes the result back.
func (s *Sequence) rewrite(fn func(vals []int) bool) bool {
	vals := s.arena.values()
	ok := fn(vals)
	s.arena.writeBack(vals)
	s.rebuildIndices()
	return ok
}

// SortAscending sorts the values in non-decreasing order.
func (s *Sequence) SortAscending() {
	if s.Len() <= 1 {
		return
	}
	s.rewrite(func(vals []int) bool {
		slices.Sort(vals)
		return true
	})
}

// SortDescending sorts the values in non-increasing order.
func (s *Sequence) SortDescending() {
	if s.Len() <= 1 {
		return
	}
	s.rewrite(func(vals []int) bool {
		slices.SortFunc(vals, func(a, b int) int {
			return cmp.Compare(b, a)
		})
		return true
	})
}

// NextPermutation advances to the next lexicographic permutation.
//
// Description:
//
//	When the sequence is already the last permutation (non-increasing),
//	it wraps to the first one (non-decreasing) and returns false.
//	Sequences of length 0 or 1 are left unchanged and return false.
func (s *Sequence) NextPermutation() bool {
	if s.Len() <= 1 {
		return false
	}
	return s.rewrite(nextPermutation)
}

// PrevPermutation steps back to the previous lexicographic permutation.
//
// Description:
//
//	When the sequence is already the first permutation (non-decreasing),
//	it wraps to the last one (non-increasing) and returns false.
//	Sequences of length 0 or 1 are left unchanged and return false.
func (s *Sequence) PrevPermutation() bool {
	if s.Len() <= 1 {
		return false
	}
	return s.rewrite(prevPermutation)
}

// RemoveDuplicates keeps the first occurrence of each value and removes
// every later one, preserving relative order. Returns the number removed.
func (s *Sequence) RemoveDuplicates() int {
	seen := make(map[int]struct{}, s.Distinct())
	removed := 0
	for h := s.arena.head; h != nilHandle; {
		next := s.arena.next(h)
		v := s.arena.value(h)
		if _, dup := seen[v]; dup {
			s.drop(h)
			removed++
		} else {
			seen[v] = struct{}{}
		}
		h = next
	}
	return removed
}

// Unique returns each distinct value once, in unspecified order.
func (s *Sequence) Unique() []int {
	out := make([]int, 0, len(s.freq.counts))
	for v := range s.freq.counts {
		out = append(out, v)
	}
	return out
}

// -----------------------------------------------------------------------------
// Lexicographic stepping
// -----------------------------------------------------------------------------

// nextPermutation rearranges a into its lexicographic successor. On the
// last permutation it produces the first and returns false.
func nextPermutation(a []int) bool {
	i := len(a) - 2
	for i >= 0 && a[i] >= a[i+1] {
		i--
	}
	if i < 0 {
		slices.Reverse(a)
		return false
	}
	j := len(a) - 1
	for a[j] <= a[i] {
		j--
	}
	a[i], a[j] = a[j], a[i]
	slices.Reverse(a[i+1:])
	return true
}

// prevPermutation rearranges a into its lexicographic predecessor. On the
// first permutation it produces the last and returns false.
func prevPermutation(a []int) bool {
	i := len(a) - 2
	for i >= 0 && a[i] <= a[i+1] {
		i--
	}
	if i < 0 {
		slices.Reverse(a)
		return false
	}
	j := len(a) - 1
	for a[j] >= a[i] {
		j--
	}
	a[i], a[j] = a[j], a[i]
	slices.Reverse(a[i+1:])
	return true
}
