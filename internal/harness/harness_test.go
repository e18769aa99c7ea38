package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	queriesDir = "../../testdata/queries"
	dataDir    = "../../testdata/data"
)

func TestRun_TestdataScenarios(t *testing.T) {
	scenarios, err := LoadScenarios(scenariosDir)
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
			assert.Empty(t, result.Errors)
			assert.Len(t, result.Checks, len(s.Checks))
		})
	}
}

func TestRun_ReportsMismatch(t *testing.T) {
	s := &Scenario{
		Name:         "mismatch",
		Description:  "wrong expected numbers",
		Queries:      queriesDir,
		DatasetFiles: []string{filepath.Join(dataDir, "livros.yaml")},
		Checks: []Check{
			{Query: "divisiveisPor3", Numbers: []int{18, 15}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	// One failure per backend; the backends still agree with each other
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "checks[0] divisiveisPor3 [memory]")
	assert.Contains(t, result.Errors[0], "got [18,15,12], want [18,15]")
	assert.Contains(t, result.Errors[1], "[sql]")
}

func TestRun_KindMismatch(t *testing.T) {
	s := &Scenario{
		Name:         "kind",
		Description:  "rows expected from a find",
		Queries:      queriesDir,
		DatasetFiles: []string{filepath.Join(dataDir, "livros.yaml")},
		Checks: []Check{
			{Query: "livroInexistente", Rows: []map[string]any{}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "expects a filter result but query is a find")
}

func TestRun_UnexpectedError(t *testing.T) {
	s := &Scenario{
		Name:        "missing-data",
		Description: "dataset was never loaded",
		Queries:     queriesDir,
		Checks: []Check{
			{Query: "livrosFantasia", Rows: []map[string]any{}},
			{Query: "livroInexistente", Error: "TRANSFORM_FAILED"},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Checks, 2)
	assert.Equal(t, "UNKNOWN_DATASET", result.Checks[0].Error)
	assert.Nil(t, result.Checks[0].Data)

	joined := ""
	for _, e := range result.Errors {
		joined += e + "\n"
	}
	assert.Contains(t, joined, "unexpected error: UNKNOWN_DATASET")
	assert.Contains(t, joined, "expected error TRANSFORM_FAILED, got error UNKNOWN_DATASET")
}

func TestRun_UnknownQuery(t *testing.T) {
	s := &Scenario{
		Name:        "unknown-query",
		Description: "check names a query that does not exist",
		Queries:     queriesDir,
		Checks:      []Check{{Query: "nope", Absent: true}},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "checks[0] nope: unknown query")
}

func TestRun_InlineDatasets(t *testing.T) {
	s := &Scenario{
		Name:        "inline",
		Description: "datasets declared in the scenario",
		Queries:     queriesDir,
		Datasets: map[string][]map[string]any{
			"pessoas": {
				{"nome": "Davi", "idade": 20, "sexo": "M"},
				{"nome": "Eva", "idade": 22, "sexo": "F"},
				{"nome": "Fábio", "idade": 30, "sexo": "M"},
			},
		},
		Checks: []Check{
			{Query: "mediaIdadePorSexo", Groups: []GroupExpect{
				{Group: "M", Value: 25},
				{Group: "F", Value: 22},
			}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_NumberTolerance(t *testing.T) {
	s := &Scenario{
		Name:        "tolerance",
		Description: "averages within tolerance",
		Queries:     queriesDir,
		Datasets: map[string][]map[string]any{
			"pessoas": {
				{"nome": "a", "idade": 0.1, "sexo": "M"},
				{"nome": "b", "idade": 0.2, "sexo": "M"},
				{"nome": "c", "idade": 0.3, "sexo": "F"},
			},
		},
		Checks: []Check{
			{Query: "mediaIdadePorSexo", Groups: []GroupExpect{
				{Group: "M", Value: 0.15},
				{Group: "F", Value: 0.3},
			}},
		},
	}

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_SetupErrors(t *testing.T) {
	t.Run("queries fail to compile", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "q.cue"), []byte(`query: bad: find: where: x: 1`), 0o644))

		_, err := Run(&Scenario{Name: "n", Queries: dir, Checks: []Check{{Query: "bad", Absent: true}}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to compile queries")
	})

	t.Run("heterogeneous inline dataset", func(t *testing.T) {
		_, err := Run(&Scenario{
			Name:    "n",
			Queries: queriesDir,
			Datasets: map[string][]map[string]any{
				"livros": {{"ano": 1997}, {"ano": "1954"}},
			},
			Checks: []Check{{Query: "livroInexistente", Absent: true}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load datasets")
	})
}

func TestApproxEqual(t *testing.T) {
	assert.True(t, approxEqual(0.1+0.2, 0.3))
	assert.True(t, approxEqual(1e12+1e-4, 1e12))
	assert.False(t, approxEqual(1.0, 1.001))
	assert.False(t, approxEqual("1", 1.0))
	assert.False(t, approxEqual(true, 1.0))
	assert.True(t, approxEqual(nil, nil))
	assert.False(t, approxEqual(nil, []any{}))
	assert.True(t, approxEqual([]any{1.0, "a"}, []any{1.0, "a"}))
	assert.False(t, approxEqual([]any{1.0}, []any{1.0, 2.0}))
	assert.True(t, approxEqual(map[string]any{"a": 1.0}, map[string]any{"a": 1.0}))
	assert.False(t, approxEqual(map[string]any{"a": 1.0}, map[string]any{"b": 1.0}))
}
