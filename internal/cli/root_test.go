package cli

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	assert.Equal(t, "tabula", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)
}

func TestRootCommand_Subcommands(t *testing.T) {
	cmd := NewRootCommand()

	for _, name := range []string{"find", "filter", "aggregate", "range", "run", "test", "compile", "validate"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	tests := []struct {
		name string
		def  string
	}{
		{"verbose", "false"},
		{"format", "text"},
		{"backend", "memory"},
	}
	for _, tt := range tests {
		flag := cmd.PersistentFlags().Lookup(tt.name)
		require.NotNil(t, flag, "missing flag --%s", tt.name)
		assert.Equal(t, tt.def, flag.DefValue)
	}
	assert.Equal(t, "v", cmd.PersistentFlags().Lookup("verbose").Shorthand)
}

func TestRootCommand_FlagValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "invalid format",
			args:    []string{"--format", "xml", "range", "--divisor", "2", "--max", "4", "--min", "0"},
			wantErr: `invalid format "xml"`,
		},
		{
			name:    "invalid backend",
			args:    []string{"--backend", "postgres", "range", "--divisor", "2", "--max", "4", "--min", "0"},
			wantErr: `invalid backend "postgres"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestRootCommand_ValidFlags(t *testing.T) {
	for _, format := range ValidFormats {
		for _, backend := range ValidBackends {
			out, err := execute(t, "--format", format, "--backend", backend, "range", "--divisor", "2", "--max", "4", "--min", "0")
			require.NoError(t, err, "format=%s backend=%s", format, backend)
			assert.NotEmpty(t, out)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	cmd := &cobra.Command{}
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	f := newFormatter(&RootOptions{Format: "json", Verbose: true}, cmd)
	assert.Equal(t, "json", f.Format)
	assert.True(t, f.Verbose)

	f.VerboseLog("hello %d", 1)
	assert.Empty(t, stdout.String())
	assert.Equal(t, "hello 1\n", stderr.String())
}
