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

// Merge appends every element of other after this sequence's tail and
// leaves other empty.
//
// Description:
//
//	Ownership of other's elements moves to s. Because each sequence owns
//	its own slot arena, slots are re-created in s's arena in order and
//	folded into s's indices one by one; other is then cleared. Merging
//	nil, an empty sequence, or s into itself is a no-op.
//
// Inputs:
//   - other: The donor sequence. Empty on return.
func (s *Sequence) Merge(other *Sequence) {
	if other == nil || other == s || other.IsEmpty() {
		return
	}
	for h := other.arena.head; h != nilHandle; h = other.arena.next(h) {
		v := other.arena.value(h)
		nh := s.arena.alloc(v)
		s.arena.linkBack(nh)
		s.addIndices(v, nh)
	}
	other.Clear()
}

// Split keeps the first k elements in s and returns a new sequence holding
// the rest, in order.
//
// Description:
//
//	Both sequences are rebuilt from their chains afterwards.
//	k >= Len leaves s unchanged and returns an empty sequence; k <= 0 moves
//	every element into the returned sequence. A split that moves elements
//	seeds the returned sequence's random source with one draw from s's; a
//	no-op split draws nothing and reuses s's construction seed, if any.
//
// Inputs:
//   - k: Number of leading elements that stay in s.
//
// Outputs:
//   - *Sequence: The tail part. Never nil.
func (s *Sequence) Split(k int) *Sequence {
	if k >= s.Len() {
		// Nothing moves, so s's generator is left untouched.
		var opts []Option
		if s.opts.seeded {
			opts = append(opts, WithSeed(s.opts.seed))
		}
		return New(opts...)
	}
	right := New(WithSeed(s.rng.Uint64()), WithCapacity(s.Len()-max(k, 0)))
	if k <= 0 {
		right.Merge(s)
		return right
	}

	boundary := s.arena.at(k)
	for h := boundary; h != nilHandle; h = s.arena.next(h) {
		nh := right.arena.alloc(s.arena.value(h))
		right.arena.linkBack(nh)
	}

	// Detach the tail from s and free its slots.
	for h := s.arena.tail; ; {
		prev := s.arena.slots[h].prev
		s.arena.unlink(h)
		s.arena.release(h)
		if h == boundary {
			break
		}
		h = prev
	}

	s.rebuildIndices()
	right.rebuildIndices()
	return right
}
