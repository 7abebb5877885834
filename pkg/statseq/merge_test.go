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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence_MergeEmptyIsNoop(t *testing.T) {
	s := newFrom(t, 1, 2, 3)
	other := New()

	s.Merge(other)
	assert.Equal(t, []int{1, 2, 3}, s.Values())
	assert.True(t, other.IsEmpty())
	require.NoError(t, s.CheckInvariants())

	s.Merge(nil)
	s.Merge(s)
	assert.Equal(t, []int{1, 2, 3}, s.Values())
}

func TestSequence_MergeAppendsAndEmptiesDonor(t *testing.T) {
	s := newFrom(t, 1, 5)
	other := newFrom(t, 3, 5, 7)

	s.Merge(other)

	assert.Equal(t, []int{1, 5, 3, 5, 7}, s.Values())
	assert.Equal(t, 0, other.Len())
	assert.True(t, other.IsEmpty())
	_, ok := other.Min()
	assert.False(t, ok, "donor statistics must be cleared")
	require.NoError(t, other.CheckInvariants())
	require.NoError(t, s.CheckInvariants())

	mode, _ := s.Mode()
	assert.Equal(t, 5, mode)
	med, _ := s.Median()
	assert.Equal(t, 5.0, med)

	t.Run("donor is reusable", func(t *testing.T) {
		other.PushBack(11)
		assert.Equal(t, []int{11}, other.Values())
		require.NoError(t, other.CheckInvariants())
	})
}

func TestSequence_MergeIntoEmpty(t *testing.T) {
	s := New()
	other := newFrom(t, 4, 2)

	s.Merge(other)
	assert.Equal(t, []int{4, 2}, s.Values())
	front, _ := s.Front()
	back, _ := s.Back()
	assert.Equal(t, 4, front)
	assert.Equal(t, 2, back)
	require.NoError(t, s.CheckInvariants())
}

func TestSequence_Split(t *testing.T) {
	tests := []struct {
		name      string
		k         int
		wantLeft  []int
		wantRight []int
	}{
		{"middle", 2, []int{1, 2}, []int{3, 4, 5}},
		{"one", 1, []int{1}, []int{2, 3, 4, 5}},
		{"all but one", 4, []int{1, 2, 3, 4}, []int{5}},
		{"k equals size", 5, []int{1, 2, 3, 4, 5}, []int{}},
		{"k beyond size", 9, []int{1, 2, 3, 4, 5}, []int{}},
		{"zero moves everything", 0, []int{}, []int{1, 2, 3, 4, 5}},
		{"negative moves everything", -3, []int{}, []int{1, 2, 3, 4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newFrom(t, 1, 2, 3, 4, 5)
			right := s.Split(tt.k)
			require.NotNil(t, right)

			assert.Equal(t, tt.wantLeft, s.Values())
			assert.Equal(t, tt.wantRight, right.Values())
			assert.Equal(t, len(tt.wantLeft), s.Len())
			assert.Equal(t, len(tt.wantRight), right.Len())
			require.NoError(t, s.CheckInvariants())
			require.NoError(t, right.CheckInvariants())
		})
	}
}

func TestSequence_SplitStatistics(t *testing.T) {
	s := newFrom(t, 9, 1, 8, 2, 7, 3)
	right := s.Split(3)

	minL, _ := s.Min()
	maxL, _ := s.Max()
	assert.Equal(t, 1, minL)
	assert.Equal(t, 9, maxL)

	minR, _ := right.Min()
	maxR, _ := right.Max()
	assert.Equal(t, 2, minR)
	assert.Equal(t, 7, maxR)

	medR, _ := right.Median()
	assert.Equal(t, 3.0, medR)
}

func TestSequence_SplitThenMergeRestores(t *testing.T) {
	s := newFrom(t, 6, 5, 4, 3, 2, 1)
	right := s.Split(4)
	s.Merge(right)
	assert.Equal(t, []int{6, 5, 4, 3, 2, 1}, s.Values())
	require.NoError(t, s.CheckInvariants())

	s.PushBack(0)
	s.PopFront()
	assert.Equal(t, []int{5, 4, 3, 2, 1, 0}, s.Values())
	require.NoError(t, s.CheckInvariants())
}

func TestSequence_NoOpSplitKeepsRandomStream(t *testing.T) {
	a := New(WithSeed(11))
	b := New(WithSeed(11))
	for v := range 10 {
		a.PushBack(v)
		b.PushBack(v)
	}

	right := a.Split(a.Len())
	assert.True(t, right.IsEmpty())
	right = a.Split(a.Len() + 5)
	assert.True(t, right.IsEmpty())

	for range 20 {
		got, _ := a.Random()
		want, _ := b.Random()
		require.Equal(t, want, got)
	}
}
