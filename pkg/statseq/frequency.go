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

// frequencies counts occurrences per value and tracks the mode.
//
// Description:
//
//	The mode cursor (modeValue, modeCount) always names the most frequent
//	value, the smallest one on a tie. Increments update it in O(1).
//	Decrementing any value other than the mode cannot change the mode, so
//	the O(d) rescan runs only when the mode's own count drops.
//
// Invariants:
//   - counts[v] > 0 for every key; absent means zero
//   - modeCount == max(counts), modeValue == min{v : counts[v] == modeCount}
//   - modeCount == 0 iff counts is empty
type frequencies struct {
	counts    map[int]int
	modeValue int
	modeCount int
	rescans   uint64
}

func newFrequencies() frequencies {
	return frequencies{counts: make(map[int]int)}
}

func (f *frequencies) inc(v int) {
	c := f.counts[v] + 1
	f.counts[v] = c
	if c > f.modeCount || (c == f.modeCount && v < f.modeValue) {
		f.modeValue, f.modeCount = v, c
	}
}

func (f *frequencies) dec(v int) {
	c, ok := f.counts[v]
	if !ok {
		return
	}
	if c == 1 {
		delete(f.counts, v)
	} else {
		f.counts[v] = c - 1
	}
	if v == f.modeValue {
		f.rescan()
	}
}

// rescan recomputes the mode cursor from every distinct value.
func (f *frequencies) rescan() {
	f.rescans++
	f.modeValue, f.modeCount = 0, 0
	for v, c := range f.counts {
		if c > f.modeCount || (c == f.modeCount && v < f.modeValue) {
			f.modeValue, f.modeCount = v, c
		}
	}
}

func (f *frequencies) count(v int) int {
	return f.counts[v]
}

func (f *frequencies) mode() (int, bool) {
	return f.modeValue, f.modeCount > 0
}

func (f *frequencies) distinct() int {
	return len(f.counts)
}

func (f *frequencies) reset() {
	clear(f.counts)
	f.modeValue, f.modeCount = 0, 0
}
