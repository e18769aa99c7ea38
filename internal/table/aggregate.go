package table

import "math"

// Reducer folds the values of one group into a single number.
// Every Reducer returns 0 for an empty group.
type Reducer func(values []float64) float64

// Average is the arithmetic mean, or 0 for an empty group.
func Average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return Sum(values) / float64(len(values))
}

// Sum adds the values of a group.
func Sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

// Count is the number of records in a group.
func Count(values []float64) float64 {
	return float64(len(values))
}

// Max is the largest value, or 0 for an empty group.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := math.Inf(-1)
	for _, v := range values {
		if v > m {
			m = v
		}
	}
	return m
}

// Min is the smallest value, or 0 for an empty group.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := math.Inf(1)
	for _, v := range values {
		if v < m {
			m = v
		}
	}
	return m
}

// AggregateBy reduces the value of every record into its group.
//
// groups is the closed set of valid group values: the result holds exactly
// one entry per declared group, and groups no record fell into still get
// reduce(nil). Records whose group is not declared are ignored.
func AggregateBy[R any, G comparable](
	records []R,
	group func(R) G,
	value func(R) float64,
	groups []G,
	reduce Reducer,
) map[G]float64 {
	buckets := make(map[G][]float64, len(groups))
	for _, g := range groups {
		buckets[g] = nil
	}

	for _, r := range records {
		g := group(r)
		vals, declared := buckets[g]
		if !declared {
			continue
		}
		buckets[g] = append(vals, value(r))
	}

	out := make(map[G]float64, len(buckets))
	for g, vals := range buckets {
		out[g] = reduce(vals)
	}
	return out
}

// AverageBy is AggregateBy with Average: an empty group averages to 0.
func AverageBy[R any, G comparable](
	records []R,
	group func(R) G,
	value func(R) float64,
	groups []G,
) map[G]float64 {
	return AggregateBy(records, group, value, groups, Average)
}
