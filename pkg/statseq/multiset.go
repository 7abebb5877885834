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
	"github.com/emirpasic/gods/trees/redblacktree"
)

// multiset is an ordered, duplicate-permitting collection of ints.
//
// Description:
//
//	Distinct values are keys of a red-black tree; the node value is the
//	multiplicity. The extremes are cached so Min and Max are O(1); they
//	are refreshed from the tree only when an extreme key disappears.
//
// Performance:
//
//	| Operation   | Complexity |
//	|-------------|------------|
//	| insert      | O(log d)   |
//	| erase       | O(log d)   |
//	| min / max   | O(1)       |
//	| popMin/Max  | O(log d)   |
//
// where d is the number of distinct values.
type multiset struct {
	tree *redblacktree.Tree
	n    int
	lo   int
	hi   int
}

func newMultiset() *multiset {
	return &multiset{tree: redblacktree.NewWithIntComparator()}
}

func (m *multiset) insert(v int) {
	if c, ok := m.tree.Get(v); ok {
		m.tree.Put(v, c.(int)+1)
	} else {
		m.tree.Put(v, 1)
	}
	if m.n == 0 {
		m.lo, m.hi = v, v
	} else {
		m.lo = min(m.lo, v)
		m.hi = max(m.hi, v)
	}
	m.n++
}

// erase removes one instance of v. Returns false if v is absent.
func (m *multiset) erase(v int) bool {
	c, ok := m.tree.Get(v)
	if !ok {
		return false
	}
	m.n--
	if c.(int) > 1 {
		m.tree.Put(v, c.(int)-1)
		return true
	}
	m.tree.Remove(v)
	if m.n == 0 {
		m.lo, m.hi = 0, 0
		return true
	}
	if v == m.lo {
		m.lo = m.tree.Left().Key.(int)
	}
	if v == m.hi {
		m.hi = m.tree.Right().Key.(int)
	}
	return true
}

func (m *multiset) count(v int) int {
	if c, ok := m.tree.Get(v); ok {
		return c.(int)
	}
	return 0
}

func (m *multiset) len() int {
	return m.n
}

func (m *multiset) min() (int, bool) {
	return m.lo, m.n > 0
}

func (m *multiset) max() (int, bool) {
	return m.hi, m.n > 0
}

func (m *multiset) popMin() (int, bool) {
	if m.n == 0 {
		return 0, false
	}
	v := m.lo
	m.erase(v)
	return v, true
}

func (m *multiset) popMax() (int, bool) {
	if m.n == 0 {
		return 0, false
	}
	v := m.hi
	m.erase(v)
	return v, true
}

// each visits distinct values in ascending order with their multiplicity.
func (m *multiset) each(fn func(v, count int)) {
	it := m.tree.Iterator()
	for it.Next() {
		fn(it.Key().(int), it.Value().(int))
	}
}

func (m *multiset) clear() {
	m.tree.Clear()
	m.n = 0
	m.lo, m.hi = 0, 0
}
