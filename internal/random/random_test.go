package random

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roach88/ticketwar/internal/testutil"
)

func TestRange_Bounds(t *testing.T) {
	assert.Equal(t, 0.2, Range(testutil.ConstSource(0), 0.2, 0.35))
	assert.InDelta(t, 0.275, Range(testutil.ConstSource(0.5), 0.2, 0.35), 1e-9)
}

func TestIntRange_FloorSemantics(t *testing.T) {
	assert.Equal(t, 3000, IntRange(testutil.ConstSource(0), 3000, 60000))
	assert.Equal(t, 59999, IntRange(testutil.ConstSource(0.9999999999), 3000, 60000))
	assert.Equal(t, 4, IntRange(testutil.ConstSource(1.0), 0, 5), "1.0 clamps into range")
	assert.Equal(t, 7, IntRange(testutil.ConstSource(0.5), 7, 7), "empty range returns a")
}

func TestChance_Edges(t *testing.T) {
	src := testutil.NewSequenceSource(0.5)

	assert.False(t, Chance(src, 0))
	assert.True(t, Chance(src, 1))
	assert.Equal(t, 0, src.Consumed(), "degenerate probabilities do not draw")

	assert.True(t, Chance(testutil.ConstSource(0.1), 0.2))
	assert.False(t, Chance(testutil.ConstSource(0.2), 0.2))
}

func TestSign(t *testing.T) {
	assert.Equal(t, -1, Sign(testutil.ConstSource(0.49)))
	assert.Equal(t, 1, Sign(testutil.ConstSource(0.5)))
}

func TestShuffle_ConstantSourceIsDeterministic(t *testing.T) {
	items := []string{"A1", "A2", "A3"}
	Shuffle(testutil.ConstSource(0), items)

	// j == 0 at every step: [A1 A2 A3] -> [A3 A2 A1] -> [A2 A3 A1]
	assert.Equal(t, []string{"A2", "A3", "A1"}, items)
}

func TestShuffle_Uniform(t *testing.T) {
	// Every permutation of three items should appear with roughly equal frequency.
	src := NewSeeded(42)
	counts := make(map[string]int)
	const rounds = 60000

	for i := 0; i < rounds; i++ {
		items := []int{1, 2, 3}
		Shuffle(src, items)
		counts[fmt.Sprint(items)]++
	}

	require.Len(t, counts, 6)
	for perm, n := range counts {
		assert.InDelta(t, rounds/6, n, rounds/6*0.1, "permutation %s is biased", perm)
	}
}

func TestProperty_ShuffleIsPermutation(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := rapid.SliceOf(rapid.IntRange(0, 1000)).Draw(t, "items")
		seed := rapid.Uint64().Draw(t, "seed")

		shuffled := append([]int(nil), items...)
		Shuffle(NewSeeded(seed), shuffled)

		before := make(map[int]int)
		for _, v := range items {
			before[v]++
		}
		for _, v := range shuffled {
			before[v]--
		}
		for v, n := range before {
			if n != 0 {
				t.Fatalf("value %d count changed by %d", v, n)
			}
		}
	})
}

func TestProperty_IntRangeStaysInBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.IntRange(-1000, 1000).Draw(t, "a")
		width := rapid.IntRange(1, 1000).Draw(t, "width")
		u := rapid.Float64Range(0, 1).Draw(t, "u")

		n := IntRange(testutil.ConstSource(u), a, a+width)
		if n < a || n >= a+width {
			t.Fatalf("IntRange(%v, %d, %d) = %d", u, a, a+width, n)
		}
	})
}
