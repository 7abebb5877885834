// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package swappool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestPool_AddRemove(t *testing.T) {
	p := New[int](4)

	assert.True(t, p.Add(1))
	assert.True(t, p.Add(2))
	assert.True(t, p.Add(3))
	assert.False(t, p.Add(2), "duplicate add should be rejected")
	assert.Equal(t, 3, p.Len())

	t.Run("remove middle moves last into its slot", func(t *testing.T) {
		require.True(t, p.Remove(1))
		assert.Equal(t, 2, p.Len())
		assert.False(t, p.Contains(1))
		assert.ElementsMatch(t, []int{2, 3}, p.Items())
		assert.Equal(t, 3, p.At(0))
	})

	t.Run("remove missing", func(t *testing.T) {
		assert.False(t, p.Remove(42))
	})

	t.Run("remove last", func(t *testing.T) {
		require.True(t, p.Remove(2))
		assert.Equal(t, []int{3}, p.Items())
	})
}

func TestPool_ReverseIndexConsistent(t *testing.T) {
	p := New[int](0)
	for i := 0; i < 100; i++ {
		p.Add(i)
	}
	for i := 0; i < 100; i += 3 {
		require.True(t, p.Remove(i))
	}
	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, i, p.pos[p.At(i)], "reverse index for %d", p.At(i))
	}
	assert.Equal(t, len(p.pos), p.Len())
}

func TestPool_Sample(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	t.Run("empty", func(t *testing.T) {
		p := New[string](0)
		_, ok := p.Sample(r)
		assert.False(t, ok)
	})

	t.Run("covers every item", func(t *testing.T) {
		p := New[string](3)
		p.Add("a")
		p.Add("b")
		p.Add("c")
		seen := map[string]int{}
		for i := 0; i < 3000; i++ {
			v, ok := p.Sample(r)
			require.True(t, ok)
			seen[v]++
		}
		require.Len(t, seen, 3)
		for k, n := range seen {
			assert.Greater(t, n, 700, "item %s drawn too rarely", k)
		}
	})
}

func TestPool_Clear(t *testing.T) {
	p := New[int](2)
	p.Add(5)
	p.Add(6)
	p.Clear()
	assert.Equal(t, 0, p.Len())
	assert.False(t, p.Contains(5))
	assert.True(t, p.Add(5), "pool usable after clear")
}
