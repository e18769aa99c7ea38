package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/querysql"
	"github.com/roach88/tabula/internal/record"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*QueryOptions
	Output string // output file path
}

// CompiledQuery is the SQL form of one named query.
type CompiledQuery struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	SQL    string `json:"sql,omitempty"`
	Params []any  `json:"params,omitempty"`
	Note   string `json:"note,omitempty"`
	Error  string `json:"error,omitempty"`
}

// CompilationResult holds the compiled queries.
type CompilationResult struct {
	Queries []CompiledQuery `json:"queries"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{QueryOptions: &QueryOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "compile <queries-dir>",
		Short: "Compile CUE queries to SQL",
		Long: `Compile the CUE queries of a directory to the parameterized SQL the sql
backend runs.

Dataset schemas come from --data. Transforms compile to the row scan of
their source; the transform itself runs in process.

Example:
  tabula compile ./queries --data ./data
  tabula compile ./queries --data ./data -o queries.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	addDataFlag(cmd, opts.QueryOptions)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, queriesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadQueries(queriesDir)
	if loadResult == nil && len(loadErrors) > 0 {
		return reportError(formatter, loadErrors[0])
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, queriesDir)
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	datasets, err := LoadData(opts.Data)
	if err != nil {
		return reportError(formatter, err)
	}
	schemas := make(map[string]record.Schema, len(datasets))
	for _, ds := range datasets {
		schemas[ds.Name] = ds.Schema
	}

	sqlc := querysql.NewSQLCompiler(schemas)
	result := &CompilationResult{Queries: make([]CompiledQuery, 0, len(loadResult.Queries))}
	failed := 0
	for _, nq := range loadResult.Queries {
		formatter.VerboseLog("Compiling query: %s", nq.Name)
		cq := compileToSQL(sqlc, nq.Name, nq.Query)
		if cq.Error != "" {
			failed++
		}
		result.Queries = append(result.Queries, cq)
	}

	if opts.Output != "" {
		if err := writeCompiledToFile(result, opts.Output); err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)})
		}
	}

	if err := outputCompileResult(formatter, result, failed, opts.Output); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%d query(ies) did not compile to SQL", failed))
	}
	return nil
}

// compileToSQL compiles one query. Transforms compile to their row scan.
func compileToSQL(sqlc *querysql.SQLCompiler, name string, q queryir.Query) CompiledQuery {
	cq := CompiledQuery{Name: name, Kind: string(q.Kind())}

	var sql string
	var params []any
	var err error
	if t, ok := queryir.Deref(q).(queryir.Transform); ok {
		sql, params, err = sqlc.CompileRows(t.From)
		cq.Note = "transform applied in process to each row"
	} else {
		sql, params, err = sqlc.Compile(q)
	}
	if err != nil {
		cq.Error = err.Error()
		cq.Note = ""
		return cq
	}
	cq.SQL = sql
	cq.Params = params
	return cq
}

// outputCompileResult outputs the compiled queries.
func outputCompileResult(formatter *OutputFormatter, result *CompilationResult, failed int, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Compiled %d of %d query(ies)\n\n", len(result.Queries)-failed, len(result.Queries))
	for _, cq := range result.Queries {
		fmt.Fprintf(w, "%s (%s)\n", cq.Name, cq.Kind)
		if cq.Error != "" {
			fmt.Fprintf(w, "  ✗ %s\n\n", cq.Error)
			continue
		}
		fmt.Fprintf(w, "  %s\n", cq.SQL)
		if len(cq.Params) > 0 {
			fmt.Fprintf(w, "  params: %v\n", cq.Params)
		}
		if cq.Note != "" {
			fmt.Fprintf(w, "  note: %s\n", cq.Note)
		}
		fmt.Fprintln(w)
	}

	if outputFile != "" {
		fmt.Fprintf(w, "Wrote compiled queries to %s\n", outputFile)
	}
	return nil
}

// outputCompileErrors outputs multiple compilation errors.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			code, message := parseLoadError(err)
			cliErrors[i] = CLIError{Code: code, Message: message}
		}

		response := CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Compilation errors are command-level errors (exit code 2)
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		code, message := parseLoadError(err)
		if le, ok := err.(*LoadError); ok && le.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n", le.Pos.Filename(), le.Pos.Line(), le.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", code, message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// parseLoadError extracts error code and message from an error.
func parseLoadError(err error) (string, string) {
	if le, ok := err.(*LoadError); ok {
		return le.Code, le.Message
	}
	return ErrCodeGeneric, err.Error()
}

// writeCompiledToFile writes the compilation result to a file as indented JSON.
func writeCompiledToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling compiled queries: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
