package harness

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/roach88/tabula/internal/record"
)

// numberTolerance is the relative tolerance for comparing numbers.
// SQLite's AVG and TOTAL may sum in a different order than Go does.
const numberTolerance = 1e-9

// canonicalData converts v to plain JSON values through canonical JSON,
// so expected and observed data are compared in the same form.
func canonicalData(v any) (any, error) {
	b, err := record.MarshalCanonical(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// expectedData builds the plain data a check expects, in the shape
// engine.Result.Data produces for the matching kind.
func expectedData(c *Check) (kind string, data any) {
	switch {
	case c.Absent:
		return "find", nil
	case c.Record != nil:
		return "find", c.Record
	case c.Rows != nil:
		rows := make([]any, len(c.Rows))
		for i, r := range c.Rows {
			rows[i] = r
		}
		return "filter", rows
	case c.Groups != nil:
		groups := make([]any, len(c.Groups))
		for i, g := range c.Groups {
			groups[i] = map[string]any{"group": g.Group, "value": g.Value}
		}
		return "aggregate", groups
	case c.Values != nil:
		return "transform", c.Values
	case c.Numbers != nil:
		return "range", c.Numbers
	default:
		return "", nil
	}
}

// approxEqual compares plain JSON values, allowing numberTolerance
// between numbers.
func approxEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case float64:
		bv, ok := b.(float64)
		if !ok {
			return false
		}
		scale := math.Max(1, math.Max(math.Abs(av), math.Abs(bv)))
		return math.Abs(av-bv) <= numberTolerance*scale
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !approxEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !approxEqual(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// describe renders plain data for error messages.
func describe(v any) string {
	b, err := record.MarshalCanonical(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
