package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/record"
	"github.com/roach88/tabula/internal/testutil"
)

func TestValidateCommand_Valid(t *testing.T) {
	out, err := execute(t, "validate", testQueriesDir)
	require.NoError(t, err)
	assert.Equal(t, "✓ All 11 query(ies) valid\n", out)
}

func TestValidateCommand_ValidJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", testQueriesDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
}

func TestValidateCommand_WithData(t *testing.T) {
	out, err := execute(t, "validate", testQueriesDir, "--data", testDataDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, `INVALID_QUERY: livrosRevistas: unknown dataset "revistas"`)
	assert.Contains(t, out, `INVALID_QUERY: mediaVazia: unknown dataset "vazio"`)
	assert.NotContains(t, out, "livrosFantasia")
}

func TestValidateCommand_WithDataJSON(t *testing.T) {
	out, err := execute(t, "--format", "json", "validate", testQueriesDir, "--data", testDataDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 2)
	assert.Equal(t, "livrosRevistas", resp.Data.Errors[0].Query)
	assert.Equal(t, "mediaVazia", resp.Data.Errors[1].Query)
	assert.Equal(t, "INVALID_QUERY", resp.Error.Code)
}

func TestValidateCommand_CompileErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bad.cue"), `package queries

query: mediaSemFuncao: aggregate: {
	from:     "pessoas"
	group_by: "sexo"
	value:    "idade"
	groups: ["M"]
	reduce:   "mediana"
}
`)

	out, err := execute(t, "validate", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E006")
	assert.Contains(t, out, `unknown aggregate function "mediana"`)
}

func TestValidateCommand_MissingDirectory(t *testing.T) {
	out, err := execute(t, "validate", "/nonexistent/queries")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E005]")
}

func TestValidateCommand_NoCUEFiles(t *testing.T) {
	out, err := execute(t, "validate", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E003]")
}

func TestValidateQuery(t *testing.T) {
	schemas := map[string]record.Schema{"livros": testutil.Livros(t).Schema}

	issues := validateQuery("ok", queryir.Filter{From: "livros", Where: queryir.Eq("categoria", record.String("fantasia"))}, schemas)
	assert.Empty(t, issues)

	issues = validateQuery("ruim", queryir.Filter{From: "livros", Where: queryir.Eq("editora", record.String("Rocco"))}, schemas)
	require.NotEmpty(t, issues)
	assert.Equal(t, "ruim", issues[0].Query)
	assert.Equal(t, "INVALID_QUERY", issues[0].Code)
	assert.Contains(t, issues[0].Message, `unknown where field "editora"`)
}
