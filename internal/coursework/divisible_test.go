package coursework

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDivisibleByEightBelow(t *testing.T) {
	assert.Equal(t, []int{16, 8, 0}, DivisibleByEightBelow(20, 0, 40))
}

func TestDivisibleByThreeAbove(t *testing.T) {
	tests := []struct {
		name     string
		max, min int
		want     []int
	}{
		{"20 to 1", 20, 1, []int{18, 15, 12}},
		{"36 to 1", 36, 1, []int{36, 33, 30, 27, 24, 21, 18, 15, 12}},
		{"nothing above 10", 10, 1, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DivisibleByThreeAbove(tt.max, tt.min, 10))
		})
	}
}
