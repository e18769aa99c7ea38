package queryir

import (
	"fmt"

	"github.com/roach88/tabula/internal/record"
)

// Kind names a query type.
type Kind string

const (
	KindFind      Kind = "find"
	KindFilter    Kind = "filter"
	KindAggregate Kind = "aggregate"
	KindTransform Kind = "transform"
	KindRange     Kind = "range"
)

// Query is a sealed interface over the query node types.
type Query interface {
	// Kind returns the query type.
	Kind() Kind
	// Source returns the dataset the query reads, or "" for Range.
	Source() string

	queryNode() // Marker method - seals interface to this package
}

// Predicate is a sealed interface over record filter conditions.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Find selects the first record matching Where, in dataset order.
// No match is a valid, absent result.
type Find struct {
	From  string
	Where Predicate // nil = any record
}

func (Find) queryNode()       {}
func (Find) Kind() Kind       { return KindFind }
func (q Find) Source() string { return q.From }

// Filter selects every record matching Where, in dataset order.
type Filter struct {
	From  string
	Where Predicate // nil = every record
}

func (Filter) queryNode()       {}
func (Filter) Kind() Kind       { return KindFilter }
func (q Filter) Source() string { return q.From }

// AggFunc names the reducer of an Aggregate.
type AggFunc string

const (
	AggAvg   AggFunc = "avg"
	AggSum   AggFunc = "sum"
	AggCount AggFunc = "count"
	AggMin   AggFunc = "min"
	AggMax   AggFunc = "max"
)

// AggFuncs lists the supported reducers.
var AggFuncs = []AggFunc{AggAvg, AggSum, AggCount, AggMin, AggMax}

// OrDefault returns f, or AggAvg when f is empty.
func (f AggFunc) OrDefault() AggFunc {
	if f == "" {
		return AggAvg
	}
	return f
}

// Valid reports whether f names a supported reducer (empty means avg).
func (f AggFunc) Valid() bool {
	for _, known := range AggFuncs {
		if f.OrDefault() == known {
			return true
		}
	}
	return false
}

// Aggregate reduces Value per group of GroupBy.
//
// Groups is the closed, caller-declared group domain: the result holds one
// entry per group, in declaration order, and a group no record falls into
// reduces to 0. Records in undeclared groups are ignored.
type Aggregate struct {
	From    string
	GroupBy string
	Value   string // numeric field; unused by count
	Groups  []record.Value
	Func    AggFunc // empty = avg
}

func (Aggregate) queryNode()       {}
func (Aggregate) Kind() Kind       { return KindAggregate }
func (q Aggregate) Source() string { return q.From }

// Transformer maps one record to one value. Implementations must not
// modify the record.
type Transformer interface {
	Apply(rec record.Record) (record.Value, error)
}

// TransformFunc adapts a function to Transformer.
type TransformFunc func(rec record.Record) (record.Value, error)

// Apply calls f(rec).
func (f TransformFunc) Apply(rec record.Record) (record.Value, error) {
	return f(rec)
}

// Transform applies Fn to every record of From, in order.
type Transform struct {
	From string
	Fn   Transformer
}

func (Transform) queryNode()       {}
func (Transform) Kind() Kind       { return KindTransform }
func (q Transform) Source() string { return q.From }

// Range enumerates integers from Max down to Min inclusive that are
// divisible by Divisor, optionally strictly below Below and strictly above
// Above. It reads no dataset.
type Range struct {
	Divisor int
	Max     int
	Min     int
	Below   *int // nil = no ceiling
	Above   *int // nil = no floor
}

func (Range) queryNode()     {}
func (Range) Kind() Kind     { return KindRange }
func (Range) Source() string { return "" }

// Equals matches records whose Field strictly equals Value.
type Equals struct {
	Field string
	Value record.Value
}

func (Equals) predicateNode() {}

// And matches records satisfying every predicate. Empty And matches all.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Eq builds an Equals predicate.
func Eq(field string, value record.Value) Equals {
	return Equals{Field: field, Value: value}
}

// AllOf builds the predicate for a list of conditions: nil for none, the
// single predicate for one, And otherwise.
func AllOf(preds ...Predicate) Predicate {
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return And{Predicates: preds}
	}
}

// IntPtr returns a pointer to n, for Range bounds.
func IntPtr(n int) *int {
	return &n
}

// Deref returns the value form of a query node.
func Deref(q Query) Query {
	switch v := q.(type) {
	case *Find:
		return *v
	case *Filter:
		return *v
	case *Aggregate:
		return *v
	case *Transform:
		return *v
	case *Range:
		return *v
	default:
		return q
	}
}

// DerefPredicate returns the value form of a predicate node.
func DerefPredicate(p Predicate) Predicate {
	switch v := p.(type) {
	case *Equals:
		return *v
	case *And:
		return *v
	default:
		return p
	}
}

// Matches evaluates p against rec. A nil predicate matches everything.
func Matches(p Predicate, rec record.Record) bool {
	switch pred := DerefPredicate(p).(type) {
	case nil:
		return true
	case Equals:
		return rec[pred.Field] == pred.Value
	case And:
		for _, sub := range pred.Predicates {
			if !Matches(sub, rec) {
				return false
			}
		}
		return true
	default:
		panic(fmt.Sprintf("queryir: unknown predicate type %T", p))
	}
}

// SingleEquals returns p as an Equals when it is exactly one equality
// condition, so backends can use a key lookup instead of a scan.
func SingleEquals(p Predicate) (Equals, bool) {
	switch pred := DerefPredicate(p).(type) {
	case Equals:
		return pred, true
	case And:
		if len(pred.Predicates) == 1 {
			return SingleEquals(pred.Predicates[0])
		}
	}
	return Equals{}, false
}
