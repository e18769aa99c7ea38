package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/tabula/internal/record"
)

// Snapshot captures the observed results of a scenario execution.
// All fields use canonical JSON serialization for deterministic comparison.
type Snapshot struct {
	ScenarioName string        `json:"scenario_name"`
	Checks       []CheckResult `json:"checks"`
}

// toCanonicalMap converts a Snapshot to a map[string]any for canonical JSON
// serialization, which only handles records, values and plain data.
func (s *Snapshot) toCanonicalMap() map[string]any {
	checks := make([]any, len(s.Checks))
	for i, c := range s.Checks {
		m := map[string]any{
			"query": c.Query,
			"kind":  c.Kind,
			"data":  c.Data,
		}
		if c.Error != "" {
			m["error"] = c.Error
		}
		checks[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"checks":        checks,
	}
}

// SnapshotJSON renders the canonical snapshot of a result.
func SnapshotJSON(scenarioName string, result *Result) ([]byte, error) {
	snapshot := Snapshot{ScenarioName: scenarioName, Checks: result.Checks}
	return record.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its results against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the results don't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	return AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an already computed result against a golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	snapshotJSON, err := SnapshotJSON(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, snapshotJSON)
	return nil
}
