// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package store serves a statseq.Sequence to concurrent callers.
//
// A Store owns one sequence behind a mutex and turns every call into an
// observable operation: an OTel span named "store.Store.<Method>",
// Prometheus counters and latency histograms, OTel instruments, and
// structured logs for rare paths. Absent results become errors wrapping
// statseq.ErrEmpty, statseq.ErrNotFound or statseq.ErrOutOfRange, so
// callers branch with errors.Is.
package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/statseq/pkg/logging"
	"github.com/AleutianAI/statseq/pkg/statseq"
	"github.com/AleutianAI/statseq/services/statseq/telemetry"
)

// =============================================================================
// Options
// =============================================================================

// Option configures a Store.
type Option func(*settings)

type settings struct {
	logger          *logging.Logger
	checkInvariants bool
	seqOpts         []statseq.Option
}

// WithLogger sets the logger. Default: logging.Nop().
func WithLogger(l *logging.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCheckInvariants verifies every index after each mutation.
func WithCheckInvariants(on bool) Option {
	return func(s *settings) {
		s.checkInvariants = on
	}
}

// WithSequenceOptions forwards options to statseq.New.
func WithSequenceOptions(opts ...statseq.Option) Option {
	return func(s *settings) {
		s.seqOpts = append(s.seqOpts, opts...)
	}
}

// =============================================================================
// Store
// =============================================================================

// Store is a concurrency-safe, instrumented statseq.Sequence.
//
// Description:
//
//	All methods serialize on one mutex and check ctx before touching the
//	sequence. Mutations that hit the rare mode-rescan path increment the
//	mode_rescans_total counter and log at Debug.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	id       uuid.UUID
	seq      *statseq.Sequence
	settings settings
	logger   *logging.Logger

	// lastLen is the size last reported to the elements gauge.
	lastLen int
}

// New creates an empty Store.
//
// Example:
//
//	st := store.New(store.WithLogger(logger), store.WithSequenceOptions(statseq.WithSeed(1)))
//	_ = st.PushBack(ctx, 3, 1, 2)
//	med, err := st.Median(ctx)
func New(opts ...Option) *Store {
	cfg := settings{logger: logging.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return wrap(statseq.New(cfg.seqOpts...), cfg)
}

func wrap(seq *statseq.Sequence, cfg settings) *Store {
	id := uuid.New()
	s := &Store{
		id:       id,
		seq:      seq,
		settings: cfg,
		logger:   cfg.logger.With("store_id", id.String()),
	}
	s.syncGauge()
	s.logger.Debug("store created", "len", seq.Len())
	return s
}

// ID returns the store's unique identifier.
func (s *Store) ID() string {
	return s.id.String()
}

// Len returns the number of elements. Not instrumented.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq.Len()
}

// -----------------------------------------------------------------------------
// Instrumentation core
// -----------------------------------------------------------------------------

// run executes fn under the lock inside a span, records metrics and
// wraps the returned error in *statseq.OpError.
func (s *Store) run(ctx context.Context, op string, mutates bool, fn func(seq *statseq.Sequence) error) error {
	ctx, span := getTracer().Start(ctx, "store.Store."+spanName(op),
		trace.WithAttributes(
			attribute.String("store.id", s.id.String()),
			attribute.String("store.op", op),
		),
	)
	defer span.End()

	start := time.Now()
	if err := ctx.Err(); err != nil {
		return s.finish(ctx, span, op, start, &statseq.OpError{Op: op, Err: err})
	}

	s.mu.Lock()
	rescansBefore := s.seq.ModeRescans()
	err := fn(s.seq)
	if err == nil && mutates && s.settings.checkInvariants {
		if ierr := s.seq.CheckInvariants(); ierr != nil {
			invariantViolations.Inc()
			s.logger.Error("invariant check failed", "op", op, "error", ierr)
			err = ierr
		}
	}
	rescans := s.seq.ModeRescans() - rescansBefore
	n := s.seq.Len()
	s.syncGaugeLocked()
	s.mu.Unlock()

	if rescans > 0 {
		modeRescans.Add(float64(rescans))
		s.logger.Debug("mode rescanned", "op", op, "rescans", rescans)
		span.AddEvent("mode_rescan", trace.WithAttributes(attribute.Int64("rescans", int64(rescans))))
	}
	span.SetAttributes(attribute.Int("store.len", n))

	if err != nil {
		var opErr *statseq.OpError
		if !errors.As(err, &opErr) {
			err = &statseq.OpError{Op: op, Err: err}
		}
	}
	return s.finish(ctx, span, op, start, err)
}

func (s *Store) finish(ctx context.Context, span trace.Span, op string, start time.Time, err error) error {
	elapsed := time.Since(start)
	status := statusOf(err)
	opsTotal.WithLabelValues(op, status).Inc()
	opDuration.WithLabelValues(op).Observe(elapsed.Seconds())
	getMetrics().RecordOp(ctx, op, status, elapsed)

	switch status {
	case "ok":
		telemetry.SetSpanOK(span)
	case "absent":
		// Absence is a normal answer; keep the span status unset.
		span.SetAttributes(attribute.Bool("store.absent", true))
	default:
		telemetry.RecordError(span, err)
	}
	return err
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, statseq.ErrEmpty), errors.Is(err, statseq.ErrNotFound), errors.Is(err, statseq.ErrOutOfRange):
		return "absent"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// spanName converts snake_case op names to the exported method name.
func spanName(op string) string {
	out := make([]byte, 0, len(op))
	upper := true
	for i := 0; i < len(op); i++ {
		c := op[i]
		if c == '_' {
			upper = true
			continue
		}
		if upper && c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		upper = false
		out = append(out, c)
	}
	return string(out)
}

func (s *Store) syncGauge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncGaugeLocked()
}

func (s *Store) syncGaugeLocked() {
	n := s.seq.Len()
	if d := n - s.lastLen; d != 0 {
		elements.Add(float64(d))
		s.lastLen = n
	}
}

// -----------------------------------------------------------------------------
// Ends
// -----------------------------------------------------------------------------

// PushBack appends vals in order.
func (s *Store) PushBack(ctx context.Context, vals ...int) error {
	return s.run(ctx, "push_back", true, func(seq *statseq.Sequence) error {
		for _, v := range vals {
			seq.PushBack(v)
		}
		return nil
	})
}

// PushFront prepends vals so that the sequence starts with vals in the
// given order.
func (s *Store) PushFront(ctx context.Context, vals ...int) error {
	return s.run(ctx, "push_front", true, func(seq *statseq.Sequence) error {
		for _, v := range slices.Backward(vals) {
			seq.PushFront(v)
		}
		return nil
	})
}

// PopBack removes and returns the last element.
func (s *Store) PopBack(ctx context.Context) (int, error) {
	return s.intOp(ctx, "pop_back", true, statseq.ErrEmpty, (*statseq.Sequence).PopBack)
}

// PopFront removes and returns the first element.
func (s *Store) PopFront(ctx context.Context) (int, error) {
	return s.intOp(ctx, "pop_front", true, statseq.ErrEmpty, (*statseq.Sequence).PopFront)
}

// Front returns the first element.
func (s *Store) Front(ctx context.Context) (int, error) {
	return s.intOp(ctx, "front", false, statseq.ErrEmpty, (*statseq.Sequence).Front)
}

// Back returns the last element.
func (s *Store) Back(ctx context.Context) (int, error) {
	return s.intOp(ctx, "back", false, statseq.ErrEmpty, (*statseq.Sequence).Back)
}

// Kth returns the element at 0-indexed position k.
func (s *Store) Kth(ctx context.Context, k int) (int, error) {
	return s.intOp(ctx, "kth", false, statseq.ErrOutOfRange, func(seq *statseq.Sequence) (int, bool) {
		return seq.Kth(k)
	})
}

func (s *Store) intOp(ctx context.Context, op string, mutates bool, absent error, fn func(*statseq.Sequence) (int, bool)) (int, error) {
	var out int
	err := s.run(ctx, op, mutates, func(seq *statseq.Sequence) error {
		v, ok := fn(seq)
		if !ok {
			return absent
		}
		out = v
		return nil
	})
	return out, err
}

// -----------------------------------------------------------------------------
// Lookups
// -----------------------------------------------------------------------------

// Contains reports whether v is present.
func (s *Store) Contains(ctx context.Context, v int) (bool, error) {
	var out bool
	err := s.run(ctx, "contains", false, func(seq *statseq.Sequence) error {
		out = seq.Contains(v)
		return nil
	})
	return out, err
}

// Frequency returns the number of occurrences of v.
func (s *Store) Frequency(ctx context.Context, v int) (int, error) {
	var out int
	err := s.run(ctx, "frequency", false, func(seq *statseq.Sequence) error {
		out = seq.Frequency(v)
		return nil
	})
	return out, err
}

// Min returns the smallest element.
func (s *Store) Min(ctx context.Context) (int, error) {
	return s.intOp(ctx, "min", false, statseq.ErrEmpty, (*statseq.Sequence).Min)
}

// Max returns the largest element.
func (s *Store) Max(ctx context.Context) (int, error) {
	return s.intOp(ctx, "max", false, statseq.ErrEmpty, (*statseq.Sequence).Max)
}

// Mode returns the most frequent element, the smallest on a tie.
func (s *Store) Mode(ctx context.Context) (int, error) {
	return s.intOp(ctx, "mode", false, statseq.ErrEmpty, (*statseq.Sequence).Mode)
}

// Random returns a uniformly chosen element.
func (s *Store) Random(ctx context.Context) (int, error) {
	return s.intOp(ctx, "random", false, statseq.ErrEmpty, (*statseq.Sequence).Random)
}

// Median returns the median; the mean of the middle two for even sizes.
func (s *Store) Median(ctx context.Context) (float64, error) {
	var out float64
	err := s.run(ctx, "median", false, func(seq *statseq.Sequence) error {
		m, ok := seq.Median()
		if !ok {
			return statseq.ErrEmpty
		}
		out = m
		return nil
	})
	return out, err
}

// -----------------------------------------------------------------------------
// Delete / update
// -----------------------------------------------------------------------------

// Delete removes one occurrence of v.
func (s *Store) Delete(ctx context.Context, v int) error {
	return s.run(ctx, "delete", true, func(seq *statseq.Sequence) error {
		if !seq.Delete(v) {
			return statseq.ErrNotFound
		}
		return nil
	})
}

// DeleteAll removes every occurrence of v and returns the count removed.
// Removing nothing is not an error.
func (s *Store) DeleteAll(ctx context.Context, v int) (int, error) {
	var n int
	err := s.run(ctx, "delete_all", true, func(seq *statseq.Sequence) error {
		n = seq.DeleteAll(v)
		return nil
	})
	return n, err
}

// Update rewrites one occurrence of oldVal to newVal in place.
func (s *Store) Update(ctx context.Context, oldVal, newVal int) error {
	return s.run(ctx, "update", true, func(seq *statseq.Sequence) error {
		if !seq.Update(oldVal, newVal) {
			return statseq.ErrNotFound
		}
		return nil
	})
}

// -----------------------------------------------------------------------------
// Bulk
// -----------------------------------------------------------------------------

// SortAscending sorts in non-decreasing order.
func (s *Store) SortAscending(ctx context.Context) error {
	return s.run(ctx, "sort_ascending", true, func(seq *statseq.Sequence) error {
		seq.SortAscending()
		return nil
	})
}

// SortDescending sorts in non-increasing order.
func (s *Store) SortDescending(ctx context.Context) error {
	return s.run(ctx, "sort_descending", true, func(seq *statseq.Sequence) error {
		seq.SortDescending()
		return nil
	})
}

// NextPermutation advances to the next lexicographic permutation. False
// means the sequence wrapped to ascending order.
func (s *Store) NextPermutation(ctx context.Context) (bool, error) {
	return s.boolOp(ctx, "next_permutation", (*statseq.Sequence).NextPermutation)
}

// PrevPermutation steps to the previous lexicographic permutation. False
// means the sequence wrapped to descending order.
func (s *Store) PrevPermutation(ctx context.Context) (bool, error) {
	return s.boolOp(ctx, "prev_permutation", (*statseq.Sequence).PrevPermutation)
}

func (s *Store) boolOp(ctx context.Context, op string, fn func(*statseq.Sequence) bool) (bool, error) {
	var out bool
	err := s.run(ctx, op, true, func(seq *statseq.Sequence) error {
		out = fn(seq)
		return nil
	})
	return out, err
}

// RemoveDuplicates keeps the first occurrence of each value and returns
// how many elements were removed.
func (s *Store) RemoveDuplicates(ctx context.Context) (int, error) {
	var n int
	err := s.run(ctx, "remove_duplicates", true, func(seq *statseq.Sequence) error {
		n = seq.RemoveDuplicates()
		return nil
	})
	return n, err
}

// Unique returns the distinct values in ascending order.
func (s *Store) Unique(ctx context.Context) ([]int, error) {
	var out []int
	err := s.run(ctx, "unique", false, func(seq *statseq.Sequence) error {
		out = seq.Unique()
		slices.Sort(out)
		return nil
	})
	return out, err
}

// Reverse reverses element order.
func (s *Store) Reverse(ctx context.Context) error {
	return s.run(ctx, "reverse", true, func(seq *statseq.Sequence) error {
		seq.Reverse()
		return nil
	})
}

// Rotate rotates right by k; negative k rotates left.
func (s *Store) Rotate(ctx context.Context, k int) error {
	return s.run(ctx, "rotate", true, func(seq *statseq.Sequence) error {
		seq.Rotate(k)
		return nil
	})
}

// -----------------------------------------------------------------------------
// Merge / split
// -----------------------------------------------------------------------------

// Merge moves every element of other to the end of s, leaving other empty.
//
// Description:
//
//	Both stores are locked in ID order so that concurrent a.Merge(b) and
//	b.Merge(a) cannot deadlock. Merging a store into itself or merging nil
//	is a no-op.
func (s *Store) Merge(ctx context.Context, other *Store) error {
	if other == nil || other == s {
		return s.run(ctx, "merge", false, func(*statseq.Sequence) error { return nil })
	}

	ctx, span := getTracer().Start(ctx, "store.Store.Merge",
		trace.WithAttributes(
			attribute.String("store.id", s.id.String()),
			attribute.String("store.other_id", other.id.String()),
		),
	)
	defer span.End()

	start := time.Now()
	if err := ctx.Err(); err != nil {
		return s.finish(ctx, span, "merge", start, &statseq.OpError{Op: "merge", Err: err})
	}

	first, second := s, other
	if other.id.String() < s.id.String() {
		first, second = other, s
	}
	first.mu.Lock()
	second.mu.Lock()

	moved := other.seq.Len()
	s.seq.Merge(other.seq)

	var err error
	if s.settings.checkInvariants {
		if ierr := s.seq.CheckInvariants(); ierr != nil {
			invariantViolations.Inc()
			s.logger.Error("invariant check failed", "op", "merge", "error", ierr)
			err = &statseq.OpError{Op: "merge", Err: ierr}
		}
	}
	s.syncGaugeLocked()
	other.syncGaugeLocked()
	n := s.seq.Len()

	second.mu.Unlock()
	first.mu.Unlock()

	getMetrics().RecordMoved(ctx, "merge", moved)
	span.SetAttributes(attribute.Int("store.len", n), attribute.Int("store.moved", moved))
	s.logger.Debug("merged", "other_id", other.ID(), "moved", moved, "len", n)
	return s.finish(ctx, span, "merge", start, err)
}

// Split keeps the first k elements in s and returns a new Store holding
// the rest. The new store inherits s's logger and invariant checking.
func (s *Store) Split(ctx context.Context, k int) (*Store, error) {
	var right *statseq.Sequence
	err := s.run(ctx, "split", true, func(seq *statseq.Sequence) error {
		right = seq.Split(k)
		return nil
	})
	// An invariant failure still returns the right part; its elements have
	// already left s.
	if right == nil {
		return nil, err
	}
	out := wrap(right, s.settings)
	getMetrics().RecordMoved(ctx, "split", right.Len())
	s.logger.Debug("split", "k", k, "right_id", out.ID(), "moved", right.Len())
	return out, err
}

// -----------------------------------------------------------------------------
// Snapshot
// -----------------------------------------------------------------------------

// Values returns a copy of the elements front to back.
func (s *Store) Values(ctx context.Context) ([]int, error) {
	var out []int
	err := s.run(ctx, "values", false, func(seq *statseq.Sequence) error {
		out = seq.Values()
		return nil
	})
	return out, err
}

// Stats returns a snapshot of every statistic.
func (s *Store) Stats(ctx context.Context) (statseq.Snapshot, error) {
	var out statseq.Snapshot
	err := s.run(ctx, "stats", false, func(seq *statseq.Sequence) error {
		out = seq.Stats()
		return nil
	})
	return out, err
}

// Clear removes every element. The store stays usable.
func (s *Store) Clear(ctx context.Context) error {
	return s.run(ctx, "clear", true, func(seq *statseq.Sequence) error {
		seq.Clear()
		return nil
	})
}

// Close empties the store and removes its elements from the gauge.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq.Clear()
	s.syncGaugeLocked()
	s.logger.Debug("store closed")
	return nil
}

// String implements fmt.Stringer for log output.
func (s *Store) String() string {
	return fmt.Sprintf("store(%s, len=%d)", s.id.String()[:8], s.Len())
}
