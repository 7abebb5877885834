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
	"iter"
	"time"

	"golang.org/x/exp/rand"

	"github.com/AleutianAI/statseq/pkg/swappool"
)

// =============================================================================
// Options
// =============================================================================

// Option configures a Sequence at construction.
type Option func(*options)

type options struct {
	rng      *rand.Rand
	seed     uint64
	seeded   bool
	capacity int
}

// WithSeed makes Random deterministic for a given seed.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.seeded = true
	}
}

// WithRand supplies the generator used by Random. Takes precedence over WithSeed.
func WithRand(r *rand.Rand) Option {
	return func(o *options) {
		o.rng = r
	}
}

// WithCapacity preallocates room for n elements.
func WithCapacity(n int) Option {
	return func(o *options) {
		o.capacity = n
	}
}

// =============================================================================
// Sequence
// =============================================================================

// Sequence is an ordered, duplicate-permitting sequence of ints with O(1)
// min, max, median, mode and uniform random element.
//
// Description:
//
//	Values are kept in insertion-defined order in a doubly linked slot
//	chain. Five indices mirror the chain: a location index (value -> slot
//	handles), a frequency map with a mode cursor, an order-statistics
//	multiset, two median halves and a swap-remove random pool.
//
//	All single-element mutations funnel through addIndices and
//	removeIndices, so the indices can never drift from the chain.
//
// Performance:
//
//	| Operation                         | Complexity          |
//	|-----------------------------------|---------------------|
//	| PushBack/PushFront/Pop*           | O(log n)            |
//	| Front/Back/Len                    | O(1)                |
//	| Contains/Frequency                | O(1) avg            |
//	| Min/Max/Median/Mode/Random        | O(1)                |
//	| Delete/Update                     | O(log n) avg        |
//	| Kth/Reverse/Rotate                | O(n)                |
//	| Sort*                             | O(n log n)          |
//	| Next/PrevPermutation, dedup       | O(n log n)          |
//	| Merge                             | O(m log(n+m))       |
//	| Split                             | O(n log n)          |
//
// Mutations that remove the last occurrence of the current mode pay an
// extra O(d) rescan over distinct values.
//
// Thread Safety: NOT safe for concurrent use.
type Sequence struct {
	arena arena
	locs  map[int]map[Handle]struct{}
	freq  frequencies
	all   *multiset
	med   medianHalves
	pool  *swappool.Pool[Handle]
	rng   *rand.Rand
	opts  options
}

// New creates an empty Sequence.
//
// Inputs:
//   - opts: Optional settings (WithSeed, WithRand, WithCapacity).
//
// Outputs:
//   - *Sequence: The empty sequence. Never nil.
//
// Example:
//
//	seq := statseq.New(statseq.WithSeed(42))
//	seq.PushBack(3)
//	seq.PushFront(5)
//	if m, ok := seq.Median(); ok {
//	    fmt.Println(m) // 4
//	}
func New(opts ...Option) *Sequence {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	rng := o.rng
	if rng == nil {
		seed := o.seed
		if !o.seeded {
			seed = uint64(time.Now().UnixNano())
		}
		rng = rand.New(rand.NewSource(seed))
	}
	return &Sequence{
		arena: newArena(o.capacity),
		locs:  make(map[int]map[Handle]struct{}),
		freq:  newFrequencies(),
		all:   newMultiset(),
		med:   newMedianHalves(),
		pool:  swappool.New[Handle](o.capacity),
		rng:   rng,
		opts:  o,
	}
}

// -----------------------------------------------------------------------------
// Index integration
// -----------------------------------------------------------------------------

// addIndices registers slot h holding v with every index.
func (s *Sequence) addIndices(v int, h Handle) {
	set, ok := s.locs[v]
	if !ok {
		set = make(map[Handle]struct{}, 1)
		s.locs[v] = set
	}
	set[h] = struct{}{}
	s.freq.inc(v)
	s.all.insert(v)
	s.med.add(v)
	s.pool.Add(h)
}

// removeIndices unregisters slot h holding v from every index. The slot
// itself is left alone.
func (s *Sequence) removeIndices(v int, h Handle) {
	if set, ok := s.locs[v]; ok {
		delete(set, h)
		if len(set) == 0 {
			delete(s.locs, v)
		}
	}
	s.freq.dec(v)
	s.all.erase(v)
	s.med.remove(v)
	s.pool.Remove(h)
}

// resetIndices empties every index without touching the chain.
func (s *Sequence) resetIndices() {
	clear(s.locs)
	s.freq.reset()
	s.all.clear()
	s.med.clear()
	s.pool.Clear()
}

// rebuildIndices recomputes every index from one pass over the chain.
func (s *Sequence) rebuildIndices() {
	s.resetIndices()
	for h := s.arena.head; h != nilHandle; h = s.arena.next(h) {
		s.addIndices(s.arena.value(h), h)
	}
}

// anyHandle returns some slot currently holding v.
func (s *Sequence) anyHandle(v int) (Handle, bool) {
	for h := range s.locs[v] {
		return h, true
	}
	return nilHandle, false
}

// drop detaches, unindexes and frees h, returning its value.
func (s *Sequence) drop(h Handle) int {
	v := s.arena.value(h)
	s.arena.unlink(h)
	s.removeIndices(v, h)
	s.arena.release(h)
	return v
}

// -----------------------------------------------------------------------------
// Size
// -----------------------------------------------------------------------------

// Len returns the number of elements.
func (s *Sequence) Len() int {
	return s.arena.live
}

// IsEmpty reports whether the sequence has no elements.
func (s *Sequence) IsEmpty() bool {
	return s.arena.live == 0
}

// -----------------------------------------------------------------------------
// Ends
// -----------------------------------------------------------------------------

// PushBack appends v.
func (s *Sequence) PushBack(v int) {
	h := s.arena.alloc(v)
	s.arena.linkBack(h)
	s.addIndices(v, h)
}

// PushFront prepends v.
func (s *Sequence) PushFront(v int) {
	h := s.arena.alloc(v)
	s.arena.linkFront(h)
	s.addIndices(v, h)
}

// PopBack removes and returns the last element. Returns false when empty.
func (s *Sequence) PopBack() (int, bool) {
	if s.arena.tail == nilHandle {
		return 0, false
	}
	return s.drop(s.arena.tail), true
}

// PopFront removes and returns the first element. Returns false when empty.
func (s *Sequence) PopFront() (int, bool) {
	if s.arena.head == nilHandle {
		return 0, false
	}
	return s.drop(s.arena.head), true
}

// Front returns the first element.
func (s *Sequence) Front() (int, bool) {
	if s.arena.head == nilHandle {
		return 0, false
	}
	return s.arena.value(s.arena.head), true
}

// Back returns the last element.
func (s *Sequence) Back() (int, bool) {
	if s.arena.tail == nilHandle {
		return 0, false
	}
	return s.arena.value(s.arena.tail), true
}

// Top is an alias for Back, for stack-style use.
func (s *Sequence) Top() (int, bool) {
	return s.Back()
}

// Kth returns the element at 0-indexed position k in O(n).
func (s *Sequence) Kth(k int) (int, bool) {
	if k < 0 || k >= s.arena.live {
		return 0, false
	}
	return s.arena.value(s.arena.at(k)), true
}

// -----------------------------------------------------------------------------
// Lookups
// -----------------------------------------------------------------------------

// Contains reports whether v occurs at least once.
func (s *Sequence) Contains(v int) bool {
	return s.freq.count(v) > 0
}

// Frequency returns how many times v occurs.
func (s *Sequence) Frequency(v int) int {
	return s.freq.count(v)
}

// Min returns the smallest value.
func (s *Sequence) Min() (int, bool) {
	return s.all.min()
}

// Max returns the largest value.
func (s *Sequence) Max() (int, bool) {
	return s.all.max()
}

// Median returns the middle value, or the mean of the two middle values
// when Len is even.
func (s *Sequence) Median() (float64, bool) {
	return s.med.median()
}

// Mode returns the most frequent value, the smallest one on a tie.
func (s *Sequence) Mode() (int, bool) {
	return s.freq.mode()
}

// ModeCount returns the frequency of the mode, 0 when empty.
func (s *Sequence) ModeCount() int {
	return s.freq.modeCount
}

// ModeRescans returns how many times the mode had to be recomputed from
// scratch since construction.
func (s *Sequence) ModeRescans() uint64 {
	return s.freq.rescans
}

// Distinct returns the number of distinct values.
func (s *Sequence) Distinct() int {
	return s.freq.distinct()
}

// Random returns a uniformly chosen element.
func (s *Sequence) Random() (int, bool) {
	h, ok := s.pool.Sample(s.rng)
	if !ok {
		return 0, false
	}
	return s.arena.value(h), true
}

// -----------------------------------------------------------------------------
// Delete / update by value
// -----------------------------------------------------------------------------

// Delete removes one occurrence of v. Which occurrence is unspecified.
//
// Outputs:
//   - bool: False if v is not present.
func (s *Sequence) Delete(v int) bool {
	h, ok := s.anyHandle(v)
	if !ok {
		return false
	}
	s.drop(h)
	return true
}

// DeleteAll removes every occurrence of v and returns how many were removed.
func (s *Sequence) DeleteAll(v int) int {
	n := 0
	for h, ok := s.anyHandle(v); ok; h, ok = s.anyHandle(v) {
		s.drop(h)
		n++
	}
	return n
}

// Update rewrites one occurrence of oldVal to newVal in place. The slot
// keeps its position in the sequence.
//
// Outputs:
//   - bool: False if oldVal is not present.
func (s *Sequence) Update(oldVal, newVal int) bool {
	h, ok := s.anyHandle(oldVal)
	if !ok {
		return false
	}
	s.removeIndices(oldVal, h)
	s.arena.setValue(h, newVal)
	s.addIndices(newVal, h)
	return true
}

// -----------------------------------------------------------------------------
// Order
// -----------------------------------------------------------------------------

// Reverse reverses the element order in O(n). Indices are unaffected.
func (s *Sequence) Reverse() {
	s.arena.reverse()
}

// Rotate rotates right by k: the last k elements move to the front.
// Negative k rotates left. k is reduced modulo Len.
func (s *Sequence) Rotate(k int) {
	n := s.arena.live
	if n == 0 {
		return
	}
	k %= n
	if k < 0 {
		k += n
	}
	if k == 0 {
		return
	}
	s.arena.rotateRight(k)
}

// -----------------------------------------------------------------------------
// Traversal
// -----------------------------------------------------------------------------

// Traverse calls fn for each value from front to back. Traversal stops
// early when fn returns false. fn must not mutate the sequence.
func (s *Sequence) Traverse(fn func(v int) bool) {
	for h := s.arena.head; h != nilHandle; h = s.arena.next(h) {
		if !fn(s.arena.value(h)) {
			return
		}
	}
}

// All returns an iterator over the values from front to back.
func (s *Sequence) All() iter.Seq[int] {
	return func(yield func(int) bool) {
		s.Traverse(yield)
	}
}

// Values returns a copy of the values from front to back.
func (s *Sequence) Values() []int {
	return s.arena.values()
}

// -----------------------------------------------------------------------------
// Teardown
// -----------------------------------------------------------------------------

// Clear releases every slot and empties every index. The sequence remains
// usable and Clear may be called any number of times.
func (s *Sequence) Clear() {
	s.arena.reset()
	s.resetIndices()
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// Snapshot is a point-in-time summary of a sequence's statistics.
//
// The Has* flags are false when the sequence is empty; the matching value
// fields are then zero and meaningless.
type Snapshot struct {
	Len       int
	Distinct  int
	Min       int
	Max       int
	Median    float64
	Mode      int
	ModeCount int
	HasStats  bool
}

// Stats returns a Snapshot of the current statistics.
func (s *Sequence) Stats() Snapshot {
	snap := Snapshot{
		Len:       s.Len(),
		Distinct:  s.Distinct(),
		ModeCount: s.ModeCount(),
	}
	if s.IsEmpty() {
		return snap
	}
	snap.HasStats = true
	snap.Min, _ = s.Min()
	snap.Max, _ = s.Max()
	snap.Median, _ = s.Median()
	snap.Mode, _ = s.Mode()
	return snap
}
