package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Record is one row: a mapping from field name to scalar Value.
type Record map[string]Value

// FromMap converts a decoded YAML or JSON object into a Record.
func FromMap(m map[string]any) (Record, error) {
	rec := make(Record, len(m))
	for k, v := range m {
		val, err := FromNative(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		rec[k] = val
	}
	return rec, nil
}

// Get returns the value of a field and whether it is set.
func (r Record) Get(field string) (Value, bool) {
	v, ok := r[field]
	return v, ok
}

// Field returns a key-extraction function for use with package table.
// A missing field extracts as nil, which equals no Value.
func Field(name string) func(Record) Value {
	return func(r Record) Value { return r[name] }
}

// NumberField returns a value-extraction function for aggregation.
// Fields that are missing or not numbers extract as 0.
func NumberField(name string) func(Record) float64 {
	return func(r Record) float64 {
		if n, ok := r[name].(Number); ok {
			return float64(n)
		}
		return 0
	}
}

// Native converts the record into a map of plain Go values.
func (r Record) Native() map[string]any {
	m := make(map[string]any, len(r))
	for k, v := range r {
		m[k] = Native(v)
	}
	return m
}

// SortedKeys returns field names in canonical order (UTF-16 code units,
// as RFC 8785 requires). Go's native string order is UTF-8 and differs
// for characters outside the BMP.
func (r Record) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}

// MarshalJSON implements json.Marshaler with sorted keys.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := json.Marshal(Native(r[k]))
		if n, ok := r[k].(Number); ok {
			valBytes, err = n.MarshalJSON()
		}
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, rejecting non-scalar fields.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	rec, err := FromMap(raw)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}
