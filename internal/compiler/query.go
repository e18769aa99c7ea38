package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/record"
)

// NamedQuery is a compiled query with its declared name.
type NamedQuery struct {
	Name  string
	Query queryir.Query
}

// queryKinds lists the kind keys a query struct may declare.
var queryKinds = []queryir.Kind{
	queryir.KindFind,
	queryir.KindFilter,
	queryir.KindAggregate,
	queryir.KindTransform,
	queryir.KindRange,
}

// CompileQuery parses a CUE value into a query.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the query struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`query: fantasia: filter: { from: "livros", where: categoria: "fantasia" }`)
//	q, err := CompileQuery(v.LookupPath(cue.ParsePath("query.fantasia")))
func CompileQuery(v cue.Value) (*NamedQuery, error) {
	nq := &NamedQuery{}

	// Parse query name from struct label (the path selector)
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		nq.Name = strings.Trim(labels[len(labels)-1].String(), `"`)
	}

	q, err := compileQuery(v)
	if err != nil {
		if ce, ok := err.(*CompileError); ok {
			ce.Query = nq.Name
		}
		return nil, err
	}
	nq.Query = q
	return nq, nil
}

func compileQuery(v cue.Value) (queryir.Query, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	var kind queryir.Kind
	var body cue.Value
	for _, k := range queryKinds {
		kv := v.LookupPath(cue.ParsePath(string(k)))
		if !kv.Exists() {
			continue
		}
		if kind != "" {
			return nil, &CompileError{
				Field:   string(k),
				Message: fmt.Sprintf("query declares both %s and %s", kind, k),
				Pos:     kv.Pos(),
			}
		}
		kind, body = k, kv
	}

	switch kind {
	case queryir.KindFind:
		from, where, err := parseSelection(body)
		if err != nil {
			return nil, err
		}
		return queryir.Find{From: from, Where: where}, nil
	case queryir.KindFilter:
		from, where, err := parseSelection(body)
		if err != nil {
			return nil, err
		}
		return queryir.Filter{From: from, Where: where}, nil
	case queryir.KindAggregate:
		return parseAggregate(body)
	case queryir.KindTransform:
		return parseTransform(body)
	case queryir.KindRange:
		return parseRange(body)
	default:
		return nil, &CompileError{
			Field:   "kind",
			Message: "query must declare one of find, filter, aggregate, transform, range",
			Pos:     v.Pos(),
		}
	}
}

// parseSelection parses the from and where fields of find and filter.
func parseSelection(v cue.Value) (string, queryir.Predicate, error) {
	from, err := requiredString(v, "from")
	if err != nil {
		return "", nil, err
	}

	whereVal := v.LookupPath(cue.ParsePath("where"))
	if !whereVal.Exists() {
		return from, nil, nil // where is optional
	}

	iter, err := whereVal.Fields()
	if err != nil {
		return "", nil, formatCUEError(err)
	}

	var preds []queryir.Predicate
	for iter.Next() {
		value, err := scalar(iter.Value(), "where."+iter.Label())
		if err != nil {
			return "", nil, err
		}
		preds = append(preds, queryir.Eq(iter.Label(), value))
	}
	return from, queryir.AllOf(preds...), nil
}

func parseAggregate(v cue.Value) (queryir.Query, error) {
	q := queryir.Aggregate{}
	var err error

	if q.From, err = requiredString(v, "from"); err != nil {
		return nil, err
	}
	if q.GroupBy, err = requiredString(v, "group_by"); err != nil {
		return nil, err
	}

	if fnVal := v.LookupPath(cue.ParsePath("reduce")); fnVal.Exists() {
		fn, err := fnVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		q.Func = queryir.AggFunc(fn)
		if !q.Func.Valid() {
			return nil, &CompileError{
				Field:   "reduce",
				Message: fmt.Sprintf("unknown aggregate function %q", fn),
				Pos:     fnVal.Pos(),
			}
		}
	}

	// value is optional for count only
	if q.Func.OrDefault() == queryir.AggCount {
		if valueVal := v.LookupPath(cue.ParsePath("value")); valueVal.Exists() {
			if q.Value, err = valueVal.String(); err != nil {
				return nil, formatCUEError(err)
			}
		}
	} else if q.Value, err = requiredString(v, "value"); err != nil {
		return nil, err
	}

	groupsVal := v.LookupPath(cue.ParsePath("groups"))
	if !groupsVal.Exists() {
		return nil, &CompileError{
			Field:   "groups",
			Message: "groups is required",
			Pos:     v.Pos(),
		}
	}
	iter, err := groupsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	q.Groups = []record.Value{}
	for i := 0; iter.Next(); i++ {
		g, err := scalar(iter.Value(), fmt.Sprintf("groups[%d]", i))
		if err != nil {
			return nil, err
		}
		q.Groups = append(q.Groups, g)
	}

	return q, nil
}

func parseTransform(v cue.Value) (queryir.Query, error) {
	from, err := requiredString(v, "from")
	if err != nil {
		return nil, err
	}
	// out is incomplete until a record is filled in, so presence is checked
	// on the struct's arcs rather than through lookup.
	for _, field := range []string{"row", "out"} {
		if !hasField(v, field) {
			return nil, &CompileError{
				Field:   field,
				Message: field + " is required",
				Pos:     v.Pos(),
			}
		}
	}
	return queryir.Transform{From: from, Fn: newCUETransform(v)}, nil
}

func parseRange(v cue.Value) (queryir.Query, error) {
	q := queryir.Range{}
	var err error

	if q.Divisor, err = requiredInt(v, "divisor"); err != nil {
		return nil, err
	}
	if q.Max, err = requiredInt(v, "max"); err != nil {
		return nil, err
	}
	if q.Min, err = requiredInt(v, "min"); err != nil {
		return nil, err
	}
	if q.Below, err = optionalInt(v, "below"); err != nil {
		return nil, err
	}
	if q.Above, err = optionalInt(v, "above"); err != nil {
		return nil, err
	}
	return q, nil
}

func hasField(v cue.Value, name string) bool {
	iter, err := v.Fields(cue.All())
	if err != nil {
		return false
	}
	for iter.Next() {
		if iter.Selector().String() == name {
			return true
		}
	}
	return false
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return "", &CompileError{
			Field:   field,
			Message: field + " must not be empty",
			Pos:     fv.Pos(),
		}
	}
	return s, nil
}

func requiredInt(v cue.Value, field string) (int, error) {
	n, err := optionalInt(v, field)
	if err != nil {
		return 0, err
	}
	if n == nil {
		return 0, &CompileError{
			Field:   field,
			Message: field + " is required",
			Pos:     v.Pos(),
		}
	}
	return *n, nil
}

func optionalInt(v cue.Value, field string) (*int, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return nil, nil
	}
	n, err := fv.Int64()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "must be an integer",
			Pos:     fv.Pos(),
		}
	}
	return queryir.IntPtr(int(n)), nil
}

// scalar converts a concrete CUE string, number or bool to a record value.
func scalar(v cue.Value, field string) (record.Value, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	switch v.Kind() {
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return record.String(s), nil
	case cue.IntKind, cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return record.Number(f), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return record.Bool(b), nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("must be a string, number or bool, got %v", v.Kind()),
			Pos:     v.Pos(),
		}
	}
}
