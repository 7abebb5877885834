// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package statseq provides Sequence, an ordered, duplicate-permitting
// sequence of integers with constant-time access to derived statistics.
//
// # Views
//
// Besides front/back access and in-order traversal, a Sequence answers the
// following in O(1):
//
//   - Min and Max of all values
//   - Median (average of the two middle values for even length)
//   - Mode (most frequent value, smallest value on a tie)
//   - Random (uniformly chosen element)
//   - Contains and Frequency of any value
//
// # Architecture
//
// One aggregate owns six cooperating structures:
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                          Sequence                            │
//	│  ┌──────────────┐   handles   ┌───────────────────────────┐  │
//	│  │ slot arena + │ ──────────▶ │ location index            │  │
//	│  │ linked order │             │ frequency + mode cursor   │  │
//	│  └──────────────┘             │ order-statistics multiset │  │
//	│                               │ median halves (lo / hi)   │  │
//	│                               │ random pool (swap-remove) │  │
//	│                               └───────────────────────────┘  │
//	└──────────────────────────────────────────────────────────────┘
//
// Slots live in an arena and are addressed by stable integer handles. The
// indices store handles, never slot pointers, so equal values stay
// individually addressable and freed slots cannot be reached by stale
// references.
//
// Every single-element mutation goes through one add routine and one
// remove routine that update all indices together. Bulk transformations
// (sort, permutation stepping, split) rewrite the slot chain and then
// rebuild every index from one linear scan.
//
// # Absence
//
// Queries that are undefined on an empty sequence return (value, false).
// No value is reserved as a sentinel.
//
// # Thread Safety
//
// Sequence is NOT safe for concurrent use. Even read-only queries read
// several indices, so callers sharing a Sequence must guard every call
// with a single lock. See services/statseq/store for a guarded wrapper.
package statseq
