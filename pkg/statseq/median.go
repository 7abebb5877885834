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

// medianHalves splits all values into a lower and an upper multiset.
//
// Invariants:
//   - 0 <= lower.len() - upper.len() <= 1
//   - max(lower) <= min(upper) when both are non-empty
type medianHalves struct {
	lower *multiset
	upper *multiset
}

func newMedianHalves() medianHalves {
	return medianHalves{lower: newMultiset(), upper: newMultiset()}
}

func (m *medianHalves) add(v int) {
	if hi, ok := m.lower.max(); !ok || v <= hi {
		m.lower.insert(v)
	} else {
		m.upper.insert(v)
	}
	m.rebalance()
}

// remove erases one instance of v from the half the boundary implies,
// falling back to the other half.
func (m *medianHalves) remove(v int) bool {
	first, second := m.upper, m.lower
	if hi, ok := m.lower.max(); ok && v <= hi {
		first, second = m.lower, m.upper
	}
	removed := first.erase(v) || second.erase(v)
	m.rebalance()
	return removed
}

// rebalance moves at most one value across the boundary.
func (m *medianHalves) rebalance() {
	switch {
	case m.lower.len() > m.upper.len()+1:
		v, _ := m.lower.popMax()
		m.upper.insert(v)
	case m.upper.len() > m.lower.len():
		v, _ := m.upper.popMin()
		m.lower.insert(v)
	}
}

// median returns the middle value, or the mean of the two middle values
// for an even count.
func (m *medianHalves) median() (float64, bool) {
	lo, ok := m.lower.max()
	if !ok {
		return 0, false
	}
	if m.lower.len() > m.upper.len() {
		return float64(lo), true
	}
	hi, _ := m.upper.min()
	return (float64(lo) + float64(hi)) / 2, true
}

func (m *medianHalves) len() int {
	return m.lower.len() + m.upper.len()
}

func (m *medianHalves) clear() {
	m.lower.clear()
	m.upper.clear()
}
