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

// Handle identifies one slot in a sequence's arena.
//
// A handle stays valid until its slot is removed. Handles of removed slots
// are recycled, so they must not be retained outside the owning sequence.
type Handle int32

// nilHandle terminates the chain in both directions.
const nilHandle Handle = -1

// slot is one occurrence of a value at one position in the chain.
type slot struct {
	value int
	prev  Handle
	next  Handle
	live  bool
}

// arena owns every slot of a sequence and keeps them doubly linked in
// sequence order.
//
// Thread Safety: NOT safe for concurrent use.
type arena struct {
	slots []slot
	free  []Handle
	head  Handle
	tail  Handle
	live  int
}

func newArena(capacity int) arena {
	if capacity < 0 {
		capacity = 0
	}
	return arena{
		slots: make([]slot, 0, capacity),
		head:  nilHandle,
		tail:  nilHandle,
	}
}

// alloc creates an unlinked slot holding v, reusing a freed handle when
// one is available.
func (a *arena) alloc(v int) Handle {
	var h Handle
	if n := len(a.free); n > 0 {
		h = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		h = Handle(len(a.slots))
		a.slots = append(a.slots, slot{})
	}
	a.slots[h] = slot{value: v, prev: nilHandle, next: nilHandle, live: true}
	a.live++
	return h
}

// release frees an unlinked slot.
func (a *arena) release(h Handle) {
	a.slots[h] = slot{prev: nilHandle, next: nilHandle}
	a.free = append(a.free, h)
	a.live--
}

func (a *arena) linkBack(h Handle) {
	s := &a.slots[h]
	s.prev = a.tail
	s.next = nilHandle
	if a.tail == nilHandle {
		a.head = h
	} else {
		a.slots[a.tail].next = h
	}
	a.tail = h
}

func (a *arena) linkFront(h Handle) {
	s := &a.slots[h]
	s.prev = nilHandle
	s.next = a.head
	if a.head == nilHandle {
		a.tail = h
	} else {
		a.slots[a.head].prev = h
	}
	a.head = h
}

// unlink detaches h from the chain without freeing it.
func (a *arena) unlink(h Handle) {
	s := &a.slots[h]
	if s.prev != nilHandle {
		a.slots[s.prev].next = s.next
	} else {
		a.head = s.next
	}
	if s.next != nilHandle {
		a.slots[s.next].prev = s.prev
	} else {
		a.tail = s.prev
	}
	s.prev, s.next = nilHandle, nilHandle
}

func (a *arena) value(h Handle) int {
	return a.slots[h].value
}

func (a *arena) setValue(h Handle, v int) {
	a.slots[h].value = v
}

func (a *arena) next(h Handle) Handle {
	return a.slots[h].next
}

// at walks to the k-th slot (0-indexed), starting from whichever end is
// closer. The caller guarantees 0 <= k < live.
func (a *arena) at(k int) Handle {
	if k <= a.live/2 {
		h := a.head
		for ; k > 0; k-- {
			h = a.slots[h].next
		}
		return h
	}
	h := a.tail
	for k = a.live - 1 - k; k > 0; k-- {
		h = a.slots[h].prev
	}
	return h
}

// reverse flips every link in O(n).
func (a *arena) reverse() {
	for h := a.head; h != nilHandle; {
		s := &a.slots[h]
		s.prev, s.next = s.next, s.prev
		h = s.prev
	}
	a.head, a.tail = a.tail, a.head
}

// rotateRight moves the last k slots to the front. 0 < k < live.
func (a *arena) rotateRight(k int) {
	newTail := a.at(a.live - k - 1)
	newHead := a.slots[newTail].next

	a.slots[a.tail].next = a.head
	a.slots[a.head].prev = a.tail
	a.slots[newTail].next = nilHandle
	a.slots[newHead].prev = nilHandle

	a.head, a.tail = newHead, newTail
}

// values returns the chain's values in order.
func (a *arena) values() []int {
	out := make([]int, 0, a.live)
	for h := a.head; h != nilHandle; h = a.slots[h].next {
		out = append(out, a.slots[h].value)
	}
	return out
}

// writeBack overwrites slot values in chain order. len(vals) == live.
func (a *arena) writeBack(vals []int) {
	i := 0
	for h := a.head; h != nilHandle; h = a.slots[h].next {
		a.slots[h].value = vals[i]
		i++
	}
}

// reset drops every slot.
func (a *arena) reset() {
	clear(a.slots)
	a.slots = a.slots[:0]
	a.free = a.free[:0]
	a.head, a.tail = nilHandle, nilHandle
	a.live = 0
}
