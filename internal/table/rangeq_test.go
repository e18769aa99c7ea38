package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRangeDivisibleBy_BelowCeiling(t *testing.T) {
	assert.Equal(t, []int{16, 8, 0}, RangeDivisibleBy(8, 20, 0, Below(40)))
}

func TestRangeDivisibleBy_CeilingCutsMax(t *testing.T) {
	assert.Equal(t, []int{32, 24, 16, 8, 0}, RangeDivisibleBy(8, 100, 0, Below(40)))
	assert.Equal(t, []int{32}, RangeDivisibleBy(8, 40, 32, Below(40)))
}

func TestRangeDivisibleBy_AboveFloor(t *testing.T) {
	assert.Equal(t, []int{18, 15, 12}, RangeDivisibleBy(3, 20, 1, Above(10)))
	assert.Equal(t, []int{36, 33, 30, 27, 24, 21, 18, 15, 12}, RangeDivisibleBy(3, 36, 1, Above(10)))
}

func TestRangeDivisibleBy_NothingQualifies(t *testing.T) {
	got := RangeDivisibleBy(3, 10, 1, Above(10))
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRangeDivisibleBy_NoBounds(t *testing.T) {
	assert.Equal(t, []int{10, 5, 0, -5}, RangeDivisibleBy(5, 10, -5))
}

func TestRangeDivisibleBy_MaxBelowMinIsEmpty(t *testing.T) {
	got := RangeDivisibleBy(2, 0, 10)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRangeDivisibleBy_ZeroDivisor(t *testing.T) {
	got := RangeDivisibleBy(0, 10, 0)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRangeDivisibleBy_NegativeDivisor(t *testing.T) {
	assert.Equal(t, []int{6, 3, 0}, RangeDivisibleBy(-3, 7, 0))
}

func TestRangeDivisibleBy_BothBounds(t *testing.T) {
	assert.Equal(t, []int{30, 20}, RangeDivisibleBy(10, 50, 0, Below(40), Above(10)))
}

func TestRangeDivisibleBy_MinIntDoesNotWrap(t *testing.T) {
	got := RangeDivisibleBy(1, math.MinInt+2, math.MinInt)
	assert.Equal(t, []int{math.MinInt + 2, math.MinInt + 1, math.MinInt}, got)
}

func TestRangeDivisibleBy_Properties(t *testing.T) {
	for d := 1; d <= 9; d++ {
		for max := -12; max <= 12; max++ {
			for min := -12; min <= 12; min++ {
				got := RangeDivisibleBy(d, max, min)
				if max < min {
					assert.Empty(t, got)
					continue
				}
				for i, v := range got {
					assert.Zero(t, v%d)
					assert.LessOrEqual(t, v, max)
					assert.GreaterOrEqual(t, v, min)
					if i > 0 {
						assert.Less(t, v, got[i-1], "must be strictly descending")
					}
				}
			}
		}
	}
}
