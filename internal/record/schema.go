package record

import (
	"errors"
	"fmt"
)

// ErrHeterogeneous is returned when records in one sequence do not share
// the same fields and kinds.
var ErrHeterogeneous = errors.New("records do not share one schema")

// FieldDef names one column and its kind.
type FieldDef struct {
	Name string `json:"name" yaml:"name"`
	Kind Kind   `json:"kind" yaml:"kind"`
}

// Schema is the ordered field list shared by every record of a sequence.
// The zero Schema belongs to an empty sequence and knows no fields.
type Schema struct {
	Fields []FieldDef `json:"fields" yaml:"fields"`
}

// InferSchema derives the schema from the first record and checks that every
// other record has exactly the same fields with the same kinds.
// Fields are ordered canonically (see Record.SortedKeys).
func InferSchema(records []Record) (Schema, error) {
	if len(records) == 0 {
		return Schema{}, nil
	}

	first := records[0]
	var s Schema
	for _, k := range first.SortedKeys() {
		s.Fields = append(s.Fields, FieldDef{Name: k, Kind: first[k].Kind()})
	}

	for i, rec := range records[1:] {
		if err := s.check(rec); err != nil {
			return Schema{}, fmt.Errorf("record %d: %w", i+1, err)
		}
	}
	return s, nil
}

func (s Schema) check(rec Record) error {
	if len(rec) != len(s.Fields) {
		return fmt.Errorf("%w: has %d fields, want %d", ErrHeterogeneous, len(rec), len(s.Fields))
	}
	for _, f := range s.Fields {
		v, ok := rec[f.Name]
		if !ok {
			return fmt.Errorf("%w: missing field %q", ErrHeterogeneous, f.Name)
		}
		if v.Kind() != f.Kind {
			return fmt.Errorf("%w: field %q is %s, want %s", ErrHeterogeneous, f.Name, v.Kind(), f.Kind)
		}
	}
	return nil
}

// IsEmpty reports whether the schema knows no fields.
func (s Schema) IsEmpty() bool {
	return len(s.Fields) == 0
}

// Lookup returns the kind of a field and whether the field exists.
func (s Schema) Lookup(name string) (Kind, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Kind, true
		}
	}
	return "", false
}

// Names returns the field names in schema order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
