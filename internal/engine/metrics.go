package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/record"
	"github.com/roach88/tabula/internal/table"
)

// Metrics holds the query metrics of one registry.
type Metrics struct {
	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec
}

// NewMetrics creates the query metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tabula",
				Name:      "queries_total",
				Help:      "Total number of backend queries",
			},
			[]string{"kind", "backend", "status"},
		),
		QueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tabula",
				Name:      "query_duration_seconds",
				Help:      "Backend query duration in seconds",
				Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"kind", "backend"},
		),
	}
	for _, c := range []prometheus.Collector{m.QueriesTotal, m.QueryDuration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// InstrumentedBackend records a count and a duration for every query it
// forwards to the wrapped Backend. Rows is labelled "rows".
type InstrumentedBackend struct {
	Backend
	metrics *Metrics
}

// Instrument wraps b with metrics.
func Instrument(b Backend, m *Metrics) *InstrumentedBackend {
	return &InstrumentedBackend{Backend: b, metrics: m}
}

func (b *InstrumentedBackend) observe(kind string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	name := b.Backend.Name()
	b.metrics.QueriesTotal.WithLabelValues(kind, name, status).Inc()
	b.metrics.QueryDuration.WithLabelValues(kind, name).Observe(time.Since(start).Seconds())
}

// Find implements Backend.
func (b *InstrumentedBackend) Find(ctx context.Context, q queryir.Find) (table.Optional[record.Record], error) {
	start := time.Now()
	res, err := b.Backend.Find(ctx, q)
	b.observe(string(queryir.KindFind), start, err)
	return res, err
}

// Filter implements Backend.
func (b *InstrumentedBackend) Filter(ctx context.Context, q queryir.Filter) ([]record.Record, error) {
	start := time.Now()
	res, err := b.Backend.Filter(ctx, q)
	b.observe(string(queryir.KindFilter), start, err)
	return res, err
}

// Aggregate implements Backend.
func (b *InstrumentedBackend) Aggregate(ctx context.Context, q queryir.Aggregate) ([]float64, error) {
	start := time.Now()
	res, err := b.Backend.Aggregate(ctx, q)
	b.observe(string(queryir.KindAggregate), start, err)
	return res, err
}

// Range implements Backend.
func (b *InstrumentedBackend) Range(ctx context.Context, q queryir.Range) ([]int, error) {
	start := time.Now()
	res, err := b.Backend.Range(ctx, q)
	b.observe(string(queryir.KindRange), start, err)
	return res, err
}

// Rows implements Backend.
func (b *InstrumentedBackend) Rows(ctx context.Context, dataset string) ([]record.Record, error) {
	start := time.Now()
	res, err := b.Backend.Rows(ctx, dataset)
	b.observe("rows", start, err)
	return res, err
}
