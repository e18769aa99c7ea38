package engine

import (
	"context"
	"errors"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/record"
	"github.com/roach88/tabula/internal/table"
)

// ErrUnknownDataset is returned by a Backend asked about a dataset it does
// not hold.
var ErrUnknownDataset = errors.New("unknown dataset")

// Backend holds datasets and answers queries over them.
//
// Implementations must return records in dataset order and aggregate
// results aligned with the declared groups. Queries reaching a Backend have
// passed queryir.Validate against its Schemas.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Load adds datasets. Names must be unique across all loads.
	Load(ctx context.Context, datasets ...*record.Dataset) error

	// Schemas returns the schema of every loaded dataset by name.
	Schemas(ctx context.Context) (map[string]record.Schema, error)

	Find(ctx context.Context, q queryir.Find) (table.Optional[record.Record], error)
	Filter(ctx context.Context, q queryir.Filter) ([]record.Record, error)

	// Aggregate returns one result per q.Groups entry, in the same order.
	Aggregate(ctx context.Context, q queryir.Aggregate) ([]float64, error)

	Range(ctx context.Context, q queryir.Range) ([]int, error)

	// Rows returns every record of a dataset in order.
	Rows(ctx context.Context, dataset string) ([]record.Record, error)
}

// Reducer returns the table reducer implementing an aggregate function.
func Reducer(fn queryir.AggFunc) (table.Reducer, bool) {
	switch fn.OrDefault() {
	case queryir.AggAvg:
		return table.Average, true
	case queryir.AggSum:
		return table.Sum, true
	case queryir.AggCount:
		return table.Count, true
	case queryir.AggMin:
		return table.Min, true
	case queryir.AggMax:
		return table.Max, true
	default:
		return nil, false
	}
}
