package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Livros(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenariosDir, "livros.yaml"))
	require.NoError(t, err)

	// First run with -update to create golden file:
	//   go test ./internal/harness -run TestRunWithGolden_Livros -update
	require.NoError(t, RunWithGolden(t, s))
}

func TestSnapshotJSON_Deterministic(t *testing.T) {
	s, err := LoadScenario(filepath.Join(scenariosDir, "numeros.yaml"))
	require.NoError(t, err)

	first, err := Run(s)
	require.NoError(t, err)
	second, err := Run(s)
	require.NoError(t, err)

	a, err := SnapshotJSON(s.Name, first)
	require.NoError(t, err)
	b, err := SnapshotJSON(s.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
	assert.Contains(t, string(a), `"query":"divisiveisPor8"`)
	assert.Contains(t, string(a), `"error":"TRANSFORM_FAILED"`)
}

func TestSnapshotJSON_OmitsEmptyError(t *testing.T) {
	result := NewResult()
	result.AddCheck(CheckResult{Query: "q", Kind: "range", Data: []any{3.0}})

	b, err := SnapshotJSON("s", result)
	require.NoError(t, err)
	assert.Equal(t, `{"checks":[{"data":[3],"kind":"range","query":"q"}],"scenario_name":"s"}`, string(b))
}
