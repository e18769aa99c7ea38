package table

// RangeOption narrows the integers RangeDivisibleBy keeps.
type RangeOption func(*rangeBounds)

type rangeBounds struct {
	below    int
	hasBelow bool
	above    int
	hasAbove bool
}

// Below keeps only integers strictly less than n.
func Below(n int) RangeOption {
	return func(b *rangeBounds) {
		b.below = n
		b.hasBelow = true
	}
}

// Above keeps only integers strictly greater than n.
func Above(n int) RangeOption {
	return func(b *rangeBounds) {
		b.above = n
		b.hasAbove = true
	}
}

// RangeDivisibleBy enumerates the integers from max down to min inclusive
// that are evenly divisible by divisor and satisfy every option.
//
// The result is descending and never nil. It is empty when max < min (the
// bounds are not swapped) and when divisor is 0.
func RangeDivisibleBy(divisor, max, min int, opts ...RangeOption) []int {
	var b rangeBounds
	for _, opt := range opts {
		opt(&b)
	}

	out := []int{}
	if divisor == 0 {
		return out
	}
	for i := max; i >= min; i-- {
		if b.keep(i, divisor) {
			out = append(out, i)
		}
		if i == min {
			break // i-- would wrap at math.MinInt
		}
	}
	return out
}

func (b rangeBounds) keep(i, divisor int) bool {
	if i%divisor != 0 {
		return false
	}
	if b.hasBelow && i >= b.below {
		return false
	}
	if b.hasAbove && i <= b.above {
		return false
	}
	return true
}
