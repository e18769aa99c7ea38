package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tabula/internal/record"
)

// Scenario defines a conformance test scenario: a directory of CUE queries,
// the datasets they read, and the expected result of each named query.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Queries is the directory of CUE query files.
	// Relative paths are resolved against the scenario file location.
	Queries string `yaml:"queries"`

	// Datasets holds inline datasets, keyed by dataset name.
	Datasets map[string][]map[string]any `yaml:"datasets,omitempty"`

	// DatasetFiles lists dataset files or directories to load.
	// Relative paths are resolved against the scenario file location.
	DatasetFiles []string `yaml:"dataset_files,omitempty"`

	// Checks are evaluated in order, each on every backend.
	Checks []Check `yaml:"checks"`

	// RunID is an optional fixed run ID for deterministic output.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Check runs one named query and states exactly one expectation.
//
// A nil slice means "not stated"; an explicit `[]` expects an empty result.
type Check struct {
	// Query is the name of a query in the scenario's CUE directory.
	Query string `yaml:"query"`

	// Absent expects a find with no match.
	Absent bool `yaml:"absent,omitempty"`

	// Record expects a find returning this record.
	Record map[string]any `yaml:"record,omitempty"`

	// Rows expects a filter returning these records in order.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// Groups expects an aggregate returning these groups in order.
	Groups []GroupExpect `yaml:"groups,omitempty"`

	// Values expects a transform returning these values in order.
	Values []any `yaml:"values,omitempty"`

	// Numbers expects a range returning these integers in order.
	Numbers []int `yaml:"numbers,omitempty"`

	// Error expects the query to fail with this error code
	// (e.g. "UNKNOWN_DATASET", "TRANSFORM_FAILED").
	Error string `yaml:"error,omitempty"`
}

// GroupExpect is one expected aggregate group.
type GroupExpect struct {
	Group any     `yaml:"group"`
	Value float64 `yaml:"value"`
}

// expectations returns the names of the expectations the check states.
func (c *Check) expectations() []string {
	var names []string
	if c.Absent {
		names = append(names, "absent")
	}
	if c.Record != nil {
		names = append(names, "record")
	}
	if c.Rows != nil {
		names = append(names, "rows")
	}
	if c.Groups != nil {
		names = append(names, "groups")
	}
	if c.Values != nil {
		names = append(names, "values")
	}
	if c.Numbers != nil {
		names = append(names, "numbers")
	}
	if c.Error != "" {
		names = append(names, "error")
	}
	return names
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// Relative paths in the scenario are resolved against the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the queries directory and dataset files relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	// Resolve paths BEFORE validation
	if scenario.Queries != "" && !filepath.IsAbs(scenario.Queries) && basePath != "" {
		scenario.Queries = filepath.Join(basePath, scenario.Queries)
	}
	for i, p := range scenario.DatasetFiles {
		if !filepath.IsAbs(p) && basePath != "" {
			scenario.DatasetFiles[i] = filepath.Join(basePath, p)
		}
	}

	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario document without resolving or
// validating paths.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every .yaml and .yml file in dir, sorted by name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Queries == "" {
		return fmt.Errorf("queries directory is required")
	}
	if info, err := os.Stat(s.Queries); err != nil || !info.IsDir() {
		return fmt.Errorf("queries directory not found: %s", s.Queries)
	}

	for _, p := range s.DatasetFiles {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return fmt.Errorf("dataset file not found: %s", p)
		}
	}

	if len(s.Checks) == 0 {
		return fmt.Errorf("checks list is required and must be non-empty")
	}

	for i := range s.Checks {
		if err := validateCheck(i, &s.Checks[i]); err != nil {
			return err
		}
	}
	return nil
}

// validateCheck requires a query name and exactly one expectation.
func validateCheck(index int, c *Check) error {
	if c.Query == "" {
		return fmt.Errorf("checks[%d]: query is required", index)
	}

	switch exp := c.expectations(); len(exp) {
	case 0:
		return fmt.Errorf("checks[%d]: one of absent, record, rows, groups, values, numbers or error is required", index)
	case 1:
	default:
		return fmt.Errorf("checks[%d]: only one expectation allowed, got %v", index, exp)
	}

	if c.Record != nil {
		if _, err := record.FromMap(c.Record); err != nil {
			return fmt.Errorf("checks[%d].record: %w", index, err)
		}
	}
	for j, row := range c.Rows {
		if _, err := record.FromMap(row); err != nil {
			return fmt.Errorf("checks[%d].rows[%d]: %w", index, j, err)
		}
	}
	return nil
}
