package queryir

import (
	"fmt"
	"strings"

	"github.com/roach88/tabula/internal/record"
)

// ValidationError lists every problem found in a query.
type ValidationError struct {
	Query    Kind
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s query: %s", e.Query, strings.Join(e.Problems, "; "))
}

// Validate checks a query against the schemas of the known datasets.
//
// It reports unknown datasets, unknown fields, nil comparison values,
// unknown or non-numeric aggregations, duplicate groups and missing
// transforms. Fields are not
// checked against a dataset with an empty schema: an empty dataset knows no
// fields, and every query over it has an empty or zero result anyway.
//
// Returns nil or a *ValidationError. Validate is a pure function.
func Validate(q Query, schemas map[string]record.Schema) error {
	if q == nil {
		return &ValidationError{Query: "unknown", Problems: []string{"nil query"}}
	}

	v := &validator{}
	switch query := Deref(q).(type) {
	case Find:
		if s, ok := v.source(query.From, schemas); ok {
			v.validatePredicate(query.Where, s)
		}
	case Filter:
		if s, ok := v.source(query.From, schemas); ok {
			v.validatePredicate(query.Where, s)
		}
	case Aggregate:
		if s, ok := v.source(query.From, schemas); ok {
			v.validateAggregate(query, s)
		}
	case Transform:
		v.source(query.From, schemas)
		if query.Fn == nil {
			v.addProblem("transform function is required")
		}
	case Range:
		// Every combination of bounds is well defined.
	default:
		v.addProblem("unknown query type %T", q)
	}

	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Query: q.Kind(), Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

// source resolves the schema of a dataset.
func (v *validator) source(name string, schemas map[string]record.Schema) (record.Schema, bool) {
	if name == "" {
		v.addProblem("dataset name is required")
		return record.Schema{}, false
	}
	s, ok := schemas[name]
	if !ok {
		v.addProblem("unknown dataset %q", name)
		return record.Schema{}, false
	}
	return s, true
}

// field checks that a field exists, unless the schema is empty.
func (v *validator) field(name, role string, s record.Schema) (record.Kind, bool) {
	if name == "" {
		v.addProblem("%s field is required", role)
		return "", false
	}
	if s.IsEmpty() {
		return "", false
	}
	k, ok := s.Lookup(name)
	if !ok {
		v.addProblem("unknown %s field %q (have %s)", role, name, strings.Join(s.Names(), ", "))
		return "", false
	}
	return k, true
}

func (v *validator) validatePredicate(p Predicate, s record.Schema) {
	switch pred := DerefPredicate(p).(type) {
	case nil:
	case Equals:
		v.field(pred.Field, "where", s)
		if pred.Value == nil {
			v.addProblem("where field %q compared to nil", pred.Field)
		}
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, s)
		}
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) validateAggregate(q Aggregate, s record.Schema) {
	v.field(q.GroupBy, "group", s)

	if !q.Func.Valid() {
		v.addProblem("unknown aggregate function %q", q.Func)
	}
	if q.Func.OrDefault() != AggCount {
		if k, ok := v.field(q.Value, "value", s); ok && k != record.KindNumber {
			v.addProblem("value field %q is %s, want number", q.Value, k)
		}
	}

	seen := make(map[record.Value]bool, len(q.Groups))
	for i, g := range q.Groups {
		if g == nil {
			v.addProblem("group %d is nil", i)
			continue
		}
		if seen[g] {
			v.addProblem("duplicate group %s %q", g.Kind(), g.String())
		}
		seen[g] = true
	}
}
