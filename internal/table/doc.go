// Package table provides generic, stateless query and aggregation functions
// over ordered sequences of uniformly-shaped records.
//
// Records are ordinary Go values. Callers supply key-extraction and transform
// functions, so field names are checked at compile time while the functions
// here stay agnostic of the record shape:
//
//	book := table.FindOne(books, func(b Book) string { return b.Title }, "Dom Quixote")
//	if b, ok := book.Get(); ok {
//	    fmt.Println(b.Author)
//	}
//
// # Guarantees
//
// Every function is a pure function of its arguments:
//   - Inputs are never mutated; results are freshly allocated.
//   - Input order is preserved unless the operation defines its own order
//     (RangeDivisibleBy is descending).
//   - Collection results are never nil, so an empty result encodes as [] in JSON.
//   - A single-record lookup reports "no result" with Optional, never with an
//     error and never with an empty collection.
//
// Functions share no state and are safe for concurrent use.
package table
