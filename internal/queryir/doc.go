// Package queryir provides the query intermediate representation (IR) shared
// by every front end (CUE query files, CLI flags, harness scenarios) and every
// backend (in-memory tables, SQLite).
//
// ARCHITECTURE:
//
//	[CUE queries] ─┐                  ┌→ [memory backend] (package table)
//	[CLI flags]   ─┼→ [Query IR] → engine
//	[scenarios]   ─┘                  └→ [SQL backend] (querysql + store)
//
// QUERIES:
//
//   - Find(from, where)                    - first matching record, or absent
//   - Filter(from, where)                  - all matching records, in order
//   - Aggregate(from, groupBy, value, ...) - one number per declared group
//   - Transform(from, fn)                  - one value per record, in order
//   - Range(divisor, max, min, bounds)     - descending divisible integers
//
// PREDICATES:
//
//   - Equals(field, value) - strict equality; values of different kinds never match
//   - And(predicates...)   - conjunction; empty And matches every record
//   - nil                  - matches every record
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed with marker methods, so backends can switch
// exhaustively:
//
//	switch q := queryir.Deref(query).(type) {
//	case queryir.Find:
//	case queryir.Filter:
//	case queryir.Aggregate:
//	case queryir.Transform:
//	case queryir.Range:
//	}
//
// Both value and pointer forms satisfy the interfaces; Deref and DerefPredicate
// normalize to the value form.
package queryir
