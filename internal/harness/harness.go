package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/roach88/tabula/internal/compiler"
	"github.com/roach88/tabula/internal/engine"
	"github.com/roach88/tabula/internal/record"
	"github.com/roach88/tabula/internal/testutil"
)

// Harness runs checks against one engine per backend.
type Harness struct {
	queries *compiler.LoadResult
	engines []*engine.Engine
}

// observation is one backend's answer to a check.
type observation struct {
	backend string
	kind    string
	data    any
	code    string
	err     error
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs on a fresh memory backend and a fresh in-memory SQLite
// backend with a fixed run ID and discarded logs. Every check must match its
// expectation on both backends, and the backends must agree with each other.
//
// An error is returned only when the scenario cannot be set up: its queries
// fail to compile or its datasets fail to load.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	queries, errs := compiler.LoadQueries(scenario.Queries)
	if len(errs) > 0 {
		return nil, fmt.Errorf("failed to compile queries: %w", errors.Join(errs...))
	}

	datasets, err := scenarioDatasets(scenario)
	if err != nil {
		return nil, fmt.Errorf("failed to load datasets: %w", err)
	}

	sqlBackend, closeSQL, err := engine.OpenSQLBackend()
	if err != nil {
		return nil, err
	}
	defer closeSQL()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests
	runIDs := testutil.NewFixedRunIDGenerator(scenario.RunID)

	h := &Harness{queries: queries}
	for _, b := range []engine.Backend{engine.NewMemoryBackend(), sqlBackend} {
		eng := engine.New(
			engine.WithBackend(b),
			engine.WithRunIDGenerator(runIDs),
			engine.WithLogger(logger),
		)
		if err := eng.Load(ctx, datasets...); err != nil {
			return nil, fmt.Errorf("failed to load datasets: %w", err)
		}
		h.engines = append(h.engines, eng)
	}

	result := NewResult()
	for i := range scenario.Checks {
		h.runCheck(ctx, i, &scenario.Checks[i], result)
	}
	return result, nil
}

// scenarioDatasets builds the inline datasets, sorted by name, followed by
// the dataset files.
func scenarioDatasets(s *Scenario) ([]*record.Dataset, error) {
	names := make([]string, 0, len(s.Datasets))
	for name := range s.Datasets {
		names = append(names, name)
	}
	sort.Strings(names)

	datasets := make([]*record.Dataset, 0, len(names))
	for _, name := range names {
		ds, err := record.FromMaps(name, s.Datasets[name])
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, ds)
	}

	if len(s.DatasetFiles) > 0 {
		files, err := record.LoadDatasets(s.DatasetFiles...)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, files...)
	}
	return datasets, nil
}

// runCheck evaluates one check on every engine.
func (h *Harness) runCheck(ctx context.Context, index int, c *Check, result *Result) {
	label := fmt.Sprintf("checks[%d] %s", index, c.Query)

	nq, ok := h.queries.Lookup(c.Query)
	if !ok {
		result.AddCheck(CheckResult{Query: c.Query})
		result.AddError(fmt.Sprintf("%s: unknown query (have %v)", label, h.queries.Names()))
		return
	}

	observed := make([]observation, len(h.engines))
	for i, eng := range h.engines {
		observed[i] = observe(ctx, eng, nq)
	}

	primary := observed[0]
	result.AddCheck(CheckResult{
		Query: c.Query,
		Kind:  primary.kind,
		Data:  primary.data,
		Error: primary.code,
	})

	for _, obs := range observed {
		if msg := expect(c, obs); msg != "" {
			result.AddError(fmt.Sprintf("%s [%s]: %s", label, obs.backend, msg))
		}
	}

	for _, obs := range observed[1:] {
		if obs.code != primary.code || !approxEqual(obs.data, primary.data) {
			result.AddError(fmt.Sprintf("%s: backends disagree: %s=%s %s=%s",
				label, primary.backend, summary(primary), obs.backend, summary(obs)))
		}
	}
}

// observe executes the query and converts its result to plain data.
func observe(ctx context.Context, eng *engine.Engine, nq compiler.NamedQuery) observation {
	obs := observation{
		backend: eng.Backend().Name(),
		kind:    string(nq.Query.Kind()),
	}

	res, err := eng.Execute(ctx, nq.Query)
	if err != nil {
		obs.err = err
		obs.code = string(engine.ErrorCode(err))
		if obs.code == "" {
			obs.code = "ERROR"
		}
		return obs
	}

	data, err := canonicalData(res.Data())
	if err != nil {
		obs.err = fmt.Errorf("result is not canonical JSON: %w", err)
		obs.code = "ERROR"
		return obs
	}
	obs.data = data
	return obs
}

// expect compares one observation against the check and returns a
// failure message, or "" when it matches.
func expect(c *Check, obs observation) string {
	if c.Error != "" {
		if obs.code != c.Error {
			return fmt.Sprintf("expected error %s, got %s", c.Error, summary(obs))
		}
		return ""
	}
	if obs.err != nil {
		return fmt.Sprintf("unexpected error: %v", obs.err)
	}

	kind, want := expectedData(c)
	if kind != obs.kind {
		return fmt.Sprintf("check expects a %s result but query is a %s", kind, obs.kind)
	}
	wantData, err := canonicalData(want)
	if err != nil {
		return fmt.Sprintf("invalid expectation: %v", err)
	}
	if !approxEqual(obs.data, wantData) {
		return fmt.Sprintf("got %s, want %s", describe(obs.data), describe(wantData))
	}
	return ""
}

func summary(obs observation) string {
	if obs.code != "" {
		return "error " + obs.code
	}
	return describe(obs.data)
}
