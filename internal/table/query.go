package table

import "fmt"

// FindOne returns the first record whose key equals value.
//
// Records are scanned in order. The result is absent when no record matches,
// including when records is empty.
func FindOne[R any, K comparable](records []R, key func(R) K, value K) Optional[R] {
	for _, r := range records {
		if key(r) == value {
			return Some(r)
		}
	}
	return None[R]()
}

// FilterBy returns every record whose key equals value, in input order.
//
// The result is empty (never nil) when nothing matches.
func FilterBy[R any, K comparable](records []R, key func(R) K, value K) []R {
	return Where(records, func(r R) bool { return key(r) == value })
}

// Where returns every record satisfying keep, in input order.
func Where[R any](records []R, keep func(R) bool) []R {
	out := make([]R, 0, len(records))
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// TransformEach applies fn to every record in order.
//
// The result has the same length as records and is never nil.
func TransformEach[R, T any](records []R, fn func(R) T) []T {
	out := make([]T, len(records))
	for i, r := range records {
		out[i] = fn(r)
	}
	return out
}

// TryTransformEach is TransformEach for transforms that can fail.
// It stops at the first failing record and reports its index.
func TryTransformEach[R, T any](records []R, fn func(R) (T, error)) ([]T, error) {
	out := make([]T, len(records))
	for i, r := range records {
		v, err := fn(r)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
