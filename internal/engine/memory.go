package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/record"
	"github.com/roach88/tabula/internal/table"
)

// MemoryBackend answers queries with package table over records held in
// memory.
//
// Thread-safety: MemoryBackend is safe for concurrent use. Loaded records
// are never modified.
type MemoryBackend struct {
	mu       sync.RWMutex
	datasets map[string]*record.Dataset
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{datasets: make(map[string]*record.Dataset)}
}

// Name implements Backend.
func (b *MemoryBackend) Name() string { return "memory" }

// Load implements Backend. Either every dataset is added or none is.
func (b *MemoryBackend) Load(_ context.Context, datasets ...*record.Dataset) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[string]bool, len(datasets))
	for _, ds := range datasets {
		if ds == nil || ds.Name == "" {
			return fmt.Errorf("load dataset: name is required")
		}
		if _, dup := b.datasets[ds.Name]; dup || seen[ds.Name] {
			return fmt.Errorf("load dataset %q: already loaded", ds.Name)
		}
		seen[ds.Name] = true
	}
	for _, ds := range datasets {
		b.datasets[ds.Name] = ds
	}
	return nil
}

// Schemas implements Backend.
func (b *MemoryBackend) Schemas(_ context.Context) (map[string]record.Schema, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	schemas := make(map[string]record.Schema, len(b.datasets))
	for name, ds := range b.datasets {
		schemas[name] = ds.Schema
	}
	return schemas, nil
}

// Find implements Backend. A single equality is a FindOne key lookup.
func (b *MemoryBackend) Find(_ context.Context, q queryir.Find) (table.Optional[record.Record], error) {
	records, err := b.records(q.From)
	if err != nil {
		return table.None[record.Record](), err
	}

	if eq, ok := queryir.SingleEquals(q.Where); ok {
		return table.FindOne(records, record.Field(eq.Field), eq.Value), nil
	}
	for _, rec := range records {
		if queryir.Matches(q.Where, rec) {
			return table.Some(rec), nil
		}
	}
	return table.None[record.Record](), nil
}

// Filter implements Backend. A single equality is a FilterBy key filter.
func (b *MemoryBackend) Filter(_ context.Context, q queryir.Filter) ([]record.Record, error) {
	records, err := b.records(q.From)
	if err != nil {
		return nil, err
	}

	if eq, ok := queryir.SingleEquals(q.Where); ok {
		return table.FilterBy(records, record.Field(eq.Field), eq.Value), nil
	}
	return table.Where(records, func(rec record.Record) bool {
		return queryir.Matches(q.Where, rec)
	}), nil
}

// Aggregate implements Backend with table.AggregateBy.
func (b *MemoryBackend) Aggregate(_ context.Context, q queryir.Aggregate) ([]float64, error) {
	records, err := b.records(q.From)
	if err != nil {
		return nil, err
	}
	reduce, ok := Reducer(q.Func)
	if !ok {
		return nil, fmt.Errorf("unsupported aggregate function %q", q.Func)
	}

	byGroup := table.AggregateBy(records, record.Field(q.GroupBy), record.NumberField(q.Value), q.Groups, reduce)

	out := make([]float64, len(q.Groups))
	for i, g := range q.Groups {
		out[i] = byGroup[g]
	}
	return out, nil
}

// Range implements Backend with table.RangeDivisibleBy.
func (b *MemoryBackend) Range(_ context.Context, q queryir.Range) ([]int, error) {
	var opts []table.RangeOption
	if q.Below != nil {
		opts = append(opts, table.Below(*q.Below))
	}
	if q.Above != nil {
		opts = append(opts, table.Above(*q.Above))
	}
	return table.RangeDivisibleBy(q.Divisor, q.Max, q.Min, opts...), nil
}

// Rows implements Backend.
func (b *MemoryBackend) Rows(_ context.Context, dataset string) ([]record.Record, error) {
	records, err := b.records(dataset)
	if err != nil {
		return nil, err
	}
	out := make([]record.Record, len(records))
	copy(out, records)
	return out, nil
}

func (b *MemoryBackend) records(name string) ([]record.Record, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ds, ok := b.datasets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDataset, name)
	}
	return ds.Records, nil
}
