package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/querysql"
	"github.com/roach88/tabula/internal/record"
	"github.com/roach88/tabula/internal/store"
	"github.com/roach88/tabula/internal/table"
)

// SQLBackend compiles queries with querysql and runs them on a store.
//
// Empty datasets have no table; queries over them are answered without SQL.
//
// Thread-safety: SQLBackend is not safe for concurrent use.
type SQLBackend struct {
	store *store.Store
}

// NewSQLBackend creates a SQLBackend over st. The backend does not own st.
func NewSQLBackend(st *store.Store) *SQLBackend {
	return &SQLBackend{store: st}
}

// OpenSQLBackend opens a private in-memory store and a backend over it.
// The returned close function closes the store.
func OpenSQLBackend() (*SQLBackend, func() error, error) {
	st, err := store.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open sql backend: %w", err)
	}
	return NewSQLBackend(st), st.Close, nil
}

// Name implements Backend.
func (b *SQLBackend) Name() string { return "sql" }

// Load implements Backend.
func (b *SQLBackend) Load(ctx context.Context, datasets ...*record.Dataset) error {
	for _, ds := range datasets {
		if err := b.store.LoadDataset(ctx, ds); err != nil {
			return err
		}
	}
	return nil
}

// Schemas implements Backend.
func (b *SQLBackend) Schemas(ctx context.Context) (map[string]record.Schema, error) {
	return b.store.Schemas(ctx)
}

// Find implements Backend.
func (b *SQLBackend) Find(ctx context.Context, q queryir.Find) (table.Optional[record.Record], error) {
	schema, err := b.schema(ctx, q.From)
	if err != nil || schema.IsEmpty() {
		return table.None[record.Record](), err
	}

	records, err := b.queryRecords(ctx, q, schema)
	if err != nil {
		return table.None[record.Record](), err
	}
	if len(records) == 0 {
		return table.None[record.Record](), nil
	}
	return table.Some(records[0]), nil
}

// Filter implements Backend.
func (b *SQLBackend) Filter(ctx context.Context, q queryir.Filter) ([]record.Record, error) {
	schema, err := b.schema(ctx, q.From)
	if err != nil {
		return nil, err
	}
	if schema.IsEmpty() {
		return []record.Record{}, nil
	}
	return b.queryRecords(ctx, q, schema)
}

// Aggregate implements Backend.
func (b *SQLBackend) Aggregate(ctx context.Context, q queryir.Aggregate) ([]float64, error) {
	schema, err := b.schema(ctx, q.From)
	if err != nil {
		return nil, err
	}
	if schema.IsEmpty() {
		return make([]float64, len(q.Groups)), nil
	}

	sql, params, err := b.compiler(q.From, schema).Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile aggregate: %w", err)
	}
	results, err := b.store.QueryGroups(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	if len(results) != len(q.Groups) {
		return nil, fmt.Errorf("aggregate returned %d groups, want %d", len(results), len(q.Groups))
	}
	return results, nil
}

// Range implements Backend.
func (b *SQLBackend) Range(ctx context.Context, q queryir.Range) ([]int, error) {
	sql, params, err := querysql.NewSQLCompiler(nil).Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile range: %w", err)
	}
	return b.store.QueryInts(ctx, sql, params...)
}

// Rows implements Backend.
func (b *SQLBackend) Rows(ctx context.Context, dataset string) ([]record.Record, error) {
	schema, err := b.schema(ctx, dataset)
	if err != nil {
		return nil, err
	}
	if schema.IsEmpty() {
		return []record.Record{}, nil
	}

	sql, params, err := b.compiler(dataset, schema).CompileRows(dataset)
	if err != nil {
		return nil, fmt.Errorf("compile rows: %w", err)
	}
	return b.store.QueryRecords(ctx, schema, sql, params...)
}

func (b *SQLBackend) schema(ctx context.Context, dataset string) (record.Schema, error) {
	schema, err := b.store.Schema(ctx, dataset)
	if errors.Is(err, store.ErrUnknownDataset) {
		return record.Schema{}, fmt.Errorf("%w: %q", ErrUnknownDataset, dataset)
	}
	return schema, err
}

func (b *SQLBackend) compiler(dataset string, schema record.Schema) *querysql.SQLCompiler {
	return querysql.NewSQLCompiler(map[string]record.Schema{dataset: schema})
}

func (b *SQLBackend) queryRecords(ctx context.Context, q queryir.Query, schema record.Schema) ([]record.Record, error) {
	sql, params, err := b.compiler(q.Source(), schema).Compile(q)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", q.Kind(), err)
	}
	return b.store.QueryRecords(ctx, schema, sql, params...)
}
