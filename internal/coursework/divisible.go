package coursework

import "github.com/roach88/tabula/internal/table"

// DivisibleByEightBelow lists multiples of 8 from max down to min that are
// strictly below ceiling. The exercise used a ceiling of 40.
func DivisibleByEightBelow(max, min, ceiling int) []int {
	return table.RangeDivisibleBy(8, max, min, table.Below(ceiling))
}

// DivisibleByThreeAbove lists multiples of 3 from max down to min that are
// strictly above floor. The exercise used a floor of 10.
func DivisibleByThreeAbove(max, min, floor int) []int {
	return table.RangeDivisibleBy(3, max, min, table.Above(floor))
}
