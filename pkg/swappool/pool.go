// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package swappool provides a dense pool of distinct items supporting O(1)
// insertion, O(1) removal and O(1) uniform sampling.
//
// Items are kept in a slice with a reverse index from item to slot. Removal
// moves the last item into the vacated slot, so item order is not stable.
package swappool

// Intner is the subset of a random source the pool needs for sampling.
//
// Both *golang.org/x/exp/rand.Rand and *math/rand.Rand satisfy it.
type Intner interface {
	Intn(n int) int
}

// Pool is a set of distinct items with O(1) uniform sampling.
//
// Description:
//
//	Pool keeps items densely packed in a slice so that a uniform index
//	draw selects a uniform item. A reverse index (item -> position) makes
//	removal O(1) by swapping the removed item with the last one.
//
// Performance:
//
//	| Operation | Complexity |
//	|-----------|------------|
//	| Add       | O(1) avg   |
//	| Remove    | O(1) avg   |
//	| Contains  | O(1) avg   |
//	| Sample    | O(1)       |
//	| Clear     | O(1)       |
//	| Items     | O(n)       |
//
// Thread Safety: NOT safe for concurrent use.
type Pool[T comparable] struct {
	items []T
	pos   map[T]int
}

// New creates an empty pool with room for capacity items.
func New[T comparable](capacity int) *Pool[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Pool[T]{
		items: make([]T, 0, capacity),
		pos:   make(map[T]int, capacity),
	}
}

// Add inserts item. Returns false if the item was already present.
func (p *Pool[T]) Add(item T) bool {
	if _, ok := p.pos[item]; ok {
		return false
	}
	p.pos[item] = len(p.items)
	p.items = append(p.items, item)
	return true
}

// Remove deletes item by swapping it with the last item.
//
// Outputs:
//   - bool: False if the item was not present.
func (p *Pool[T]) Remove(item T) bool {
	idx, ok := p.pos[item]
	if !ok {
		return false
	}
	last := len(p.items) - 1
	if idx != last {
		moved := p.items[last]
		p.items[idx] = moved
		p.pos[moved] = idx
	}
	var zero T
	p.items[last] = zero
	p.items = p.items[:last]
	delete(p.pos, item)
	return true
}

// Contains reports whether item is in the pool.
func (p *Pool[T]) Contains(item T) bool {
	_, ok := p.pos[item]
	return ok
}

// At returns the item stored at position i. Panics if i is out of range,
// matching slice indexing.
func (p *Pool[T]) At(i int) T {
	return p.items[i]
}

// Len returns the number of items.
func (p *Pool[T]) Len() int {
	return len(p.items)
}

// Sample returns a uniformly chosen item.
//
// Outputs:
//   - T: The chosen item (zero value when the pool is empty).
//   - bool: False when the pool is empty.
func (p *Pool[T]) Sample(r Intner) (T, bool) {
	if len(p.items) == 0 {
		var zero T
		return zero, false
	}
	return p.items[r.Intn(len(p.items))], true
}

// Clear removes every item, keeping allocated capacity.
func (p *Pool[T]) Clear() {
	clear(p.items)
	p.items = p.items[:0]
	clear(p.pos)
}

// Items returns a copy of the pool contents in storage order.
func (p *Pool[T]) Items() []T {
	out := make([]T, len(p.items))
	copy(out, p.items)
	return out
}
