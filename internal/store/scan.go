package store

import (
	"context"
	"fmt"

	"github.com/roach88/tabula/internal/record"
)

// QueryRecords runs a compiled SELECT whose columns are the schema fields, in
// schema order, and converts each row back to a record.
// Returns an empty slice (not nil) when no row matches.
func (s *Store) QueryRecords(ctx context.Context, schema record.Schema, query string, args ...any) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	n := len(schema.Fields)
	dest := make([]any, n)
	ptrs := make([]any, n)
	for i := range dest {
		ptrs[i] = &dest[i]
	}

	records := []record.Record{}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec := make(record.Record, n)
		for i, f := range schema.Fields {
			v, err := scanValue(f.Kind, dest[i])
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			rec[f.Name] = v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// QueryGroups runs a compiled aggregate returning (ord, result) rows and
// returns the results in row order.
func (s *Store) QueryGroups(ctx context.Context, query string, args ...any) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	results := []float64{}
	for rows.Next() {
		var ord int
		var result float64
		if err := rows.Scan(&ord, &result); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate groups: %w", err)
	}
	return results, nil
}

// QueryInts runs a query with one integer column.
func (s *Store) QueryInts(ctx context.Context, query string, args ...any) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ints: %w", err)
	}
	defer rows.Close()

	out := []int{}
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan int: %w", err)
		}
		out = append(out, int(n))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ints: %w", err)
	}
	return out, nil
}

// scanValue converts a driver value back to the kind recorded in the schema.
// Bools come back as integers.
func scanValue(kind record.Kind, src any) (record.Value, error) {
	switch kind {
	case record.KindString:
		switch v := src.(type) {
		case string:
			return record.String(v), nil
		case []byte:
			return record.String(string(v)), nil
		}
	case record.KindNumber:
		switch v := src.(type) {
		case float64:
			return record.Number(v), nil
		case int64:
			return record.Number(float64(v)), nil
		}
	case record.KindBool:
		switch v := src.(type) {
		case int64:
			return record.Bool(v != 0), nil
		case bool:
			return record.Bool(v), nil
		}
	}
	return nil, fmt.Errorf("cannot read %T as %s", src, kind)
}
