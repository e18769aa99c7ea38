package compiler

import (
	"fmt"
	"math"
	"sync"

	"cuelang.org/go/cue"

	"github.com/roach88/tabula/internal/record"
)

var (
	rowPath = cue.ParsePath("row")
	outPath = cue.ParsePath("out")
)

// cueTransform evaluates a transform's out expression per record.
//
// Thread-safety: evaluation is serialized; CUE values are not safe for
// concurrent use.
type cueTransform struct {
	mu sync.Mutex
	v  cue.Value
}

func newCUETransform(v cue.Value) *cueTransform {
	return &cueTransform{v: v}
}

// Apply fills row with rec and returns the concrete value of out.
func (t *cueTransform) Apply(rec record.Record) (record.Value, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	filled := t.v.FillPath(rowPath, rowValue(rec))
	if err := filled.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	out := filled.LookupPath(outPath)
	if err := out.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	switch out.Kind() {
	case cue.StringKind:
		s, err := out.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return record.String(s), nil
	case cue.IntKind:
		n, err := out.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return record.Number(float64(n)), nil
	case cue.FloatKind:
		f, err := out.Float64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return record.Number(f), nil
	case cue.BoolKind:
		b, err := out.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return record.Bool(b), nil
	default:
		return nil, &CompileError{
			Field:   "out",
			Message: fmt.Sprintf("must evaluate to a string, number or bool, got %v", out.Kind()),
			Pos:     out.Pos(),
		}
	}
}

// maxExactInt is the largest magnitude below which every integer is exact
// in a float64.
const maxExactInt = 1 << 53

// rowValue converts a record for FillPath. Integral numbers become CUE ints
// so that integer operators (div, mod) apply to them.
func rowValue(rec record.Record) map[string]any {
	row := make(map[string]any, len(rec))
	for k, v := range rec {
		switch val := v.(type) {
		case record.Number:
			f := float64(val)
			if f == math.Trunc(f) && math.Abs(f) < maxExactInt {
				row[k] = int64(f)
			} else {
				row[k] = f
			}
		default:
			row[k] = record.Native(v)
		}
	}
	return row
}
