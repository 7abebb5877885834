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

import "errors"

// Sentinel errors for sequence operations.
//
// Sequence methods report absence with a boolean; these sentinels are for
// callers that translate absence into errors, and for CheckInvariants.
var (
	// ErrEmpty is returned when a statistic is requested from an empty sequence.
	ErrEmpty = errors.New("sequence is empty")

	// ErrNotFound is returned when a value to delete or update is not present.
	ErrNotFound = errors.New("value not found")

	// ErrOutOfRange is returned when a position is outside [0, Len()).
	ErrOutOfRange = errors.New("position out of range")

	// ErrInvariantViolated is returned by CheckInvariants when the indices
	// disagree with the slot chain.
	ErrInvariantViolated = errors.New("invariant violated")
)

// OpError wraps a sentinel error with the operation that produced it.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return "statseq." + e.Op + ": " + e.Err.Error()
}

// Unwrap allows errors.Is and errors.As to see the wrapped sentinel.
func (e *OpError) Unwrap() error {
	return e.Err
}
