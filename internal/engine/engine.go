package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/record"
	"github.com/roach88/tabula/internal/table"
)

// Engine validates queries and dispatches them to a Backend.
//
// Thread-safety: Execute is as safe for concurrent use as the backend.
type Engine struct {
	backend Backend
	runIDs  RunIDGenerator
	clock   *Clock
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithBackend sets the backend. Default: an empty MemoryBackend.
func WithBackend(b Backend) Option {
	return func(e *Engine) {
		e.backend = b
	}
}

// WithRunIDGenerator sets the run ID generator. Default: UUIDv7Generator.
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.runIDs = g
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		backend: NewMemoryBackend(),
		runIDs:  UUIDv7Generator{},
		clock:   NewClock(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Backend returns the engine's backend.
func (e *Engine) Backend() Backend {
	return e.backend
}

// Load adds datasets to the backend.
func (e *Engine) Load(ctx context.Context, datasets ...*record.Dataset) error {
	if err := e.backend.Load(ctx, datasets...); err != nil {
		return fmt.Errorf("load datasets into %s backend: %w", e.backend.Name(), err)
	}
	return nil
}

// Group is one aggregate result.
type Group struct {
	Key   record.Value `json:"group"`
	Value float64      `json:"value"`
}

// Result is the outcome of one query. Exactly one of Record, Rows, Groups,
// Values and Numbers is populated, selected by Kind.
type Result struct {
	RunID   string
	Seq     int64
	Kind    queryir.Kind
	Backend string

	Record  table.Optional[record.Record] // find
	Rows    []record.Record               // filter
	Groups  []Group                       // aggregate, in declaration order
	Values  []record.Value                // transform
	Numbers []int                         // range
}

// Data returns the populated field as plain data for canonical JSON: an
// absent find is nil, and aggregate groups are {group, value} objects.
func (r *Result) Data() any {
	switch r.Kind {
	case queryir.KindFind:
		if rec, ok := r.Record.Get(); ok {
			return rec
		}
		return nil
	case queryir.KindFilter:
		return r.Rows
	case queryir.KindAggregate:
		out := make([]any, len(r.Groups))
		for i, g := range r.Groups {
			out[i] = map[string]any{"group": g.Key, "value": record.Number(g.Value)}
		}
		return out
	case queryir.KindTransform:
		out := make([]any, len(r.Values))
		for i, v := range r.Values {
			out[i] = v
		}
		return out
	case queryir.KindRange:
		return r.Numbers
	default:
		return nil
	}
}

// Execute runs one query.
//
// Errors are *QueryError. A find with no match is not an error: the
// Result's Record is absent.
func (e *Engine) Execute(ctx context.Context, q queryir.Query) (*Result, error) {
	runID := e.runIDs.Generate()
	if q == nil {
		return nil, newQueryError(ErrCodeInvalidQuery, nil, runID, "nil query", nil)
	}
	q = queryir.Deref(q)

	res := &Result{
		RunID:   runID,
		Seq:     e.clock.Next(),
		Kind:    q.Kind(),
		Backend: e.backend.Name(),
	}
	log := e.logger.With("run_id", runID, "kind", res.Kind, "backend", res.Backend)

	schemas, err := e.backend.Schemas(ctx)
	if err != nil {
		return nil, newQueryError(ErrCodeBackendFailed, q, runID, "read schemas", err)
	}
	if src := q.Source(); src != "" {
		if _, ok := schemas[src]; !ok {
			return nil, newQueryError(ErrCodeUnknownDataset, q, runID, fmt.Sprintf("dataset %q is not loaded", src), nil)
		}
	}
	if err := queryir.Validate(q, schemas); err != nil {
		return nil, newQueryError(ErrCodeInvalidQuery, q, runID, "validation failed", err)
	}

	log.Debug("executing query", "dataset", q.Source())

	if err := e.dispatch(ctx, q, res); err != nil {
		log.Debug("query failed", "error", err)
		return nil, err
	}
	return res, nil
}

func (e *Engine) dispatch(ctx context.Context, q queryir.Query, res *Result) error {
	var err error
	switch query := q.(type) {
	case queryir.Find:
		res.Record, err = e.backend.Find(ctx, query)
	case queryir.Filter:
		res.Rows, err = e.backend.Filter(ctx, query)
	case queryir.Aggregate:
		var values []float64
		values, err = e.backend.Aggregate(ctx, query)
		if err == nil {
			res.Groups = make([]Group, len(query.Groups))
			for i, g := range query.Groups {
				res.Groups[i] = Group{Key: g, Value: values[i]}
			}
		}
	case queryir.Transform:
		return e.transform(ctx, query, res)
	case queryir.Range:
		res.Numbers, err = e.backend.Range(ctx, query)
	default:
		return newQueryError(ErrCodeInvalidQuery, q, res.RunID, fmt.Sprintf("unsupported query type %T", q), nil)
	}
	if err != nil {
		return newQueryError(ErrCodeBackendFailed, q, res.RunID, e.backend.Name()+" backend failed", err)
	}
	return nil
}

// transform applies the query's Transformer to every row. Rows come from
// the backend; the transform itself always runs here.
func (e *Engine) transform(ctx context.Context, q queryir.Transform, res *Result) error {
	rows, err := e.backend.Rows(ctx, q.From)
	if err != nil {
		return newQueryError(ErrCodeBackendFailed, q, res.RunID, e.backend.Name()+" backend failed", err)
	}

	values, err := table.TryTransformEach(rows, q.Fn.Apply)
	if err != nil {
		return newQueryError(ErrCodeTransformFailed, q, res.RunID, "transform failed", err)
	}
	res.Values = values
	return nil
}
