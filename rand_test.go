package orderedindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomLevelWithinBounds(t *testing.T) {
	r := newRNG(1)
	for i := 0; i < 10_000; i++ {
		lvl := r.randomLevel(16)
		assert.GreaterOrEqual(t, lvl, 1)
		assert.LessOrEqual(t, lvl, 16)
	}
}

func TestRandomLevelDistributionSkewsLow(t *testing.T) {
	r := newRNG(42)
	const maxLevel = 20
	const trials = 200_000
	counts := make([]int, maxLevel+1)
	for i := 0; i < trials; i++ {
		counts[r.randomLevel(maxLevel)]++
	}

	// A p=0.5 geometric draw should put roughly half the mass at level 1.
	assert.InDelta(t, trials/2, counts[1], float64(trials)/20)
	assert.Greater(t, counts[1], counts[maxLevel/2])
	assert.Greater(t, counts[maxLevel/2], counts[maxLevel])
}

func TestRandomLevelWithMaxOne(t *testing.T) {
	r := newRNG(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, 1, r.randomLevel(1))
	}
}

func TestRngNextIsSafeForConcurrentUse(t *testing.T) {
	r := newRNG(99)
	done := make(chan struct{})
	for g := 0; g < 8; g++ {
		go func() {
			for i := 0; i < 10_000; i++ {
				r.next()
			}
			done <- struct{}{}
		}()
	}
	for g := 0; g < 8; g++ {
		<-done
	}
}
