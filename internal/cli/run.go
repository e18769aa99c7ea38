package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/tabula/internal/compiler"
	"github.com/roach88/tabula/internal/engine"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*QueryOptions
	Queries    []string // query names; empty runs all
	MetricsOut string   // Prometheus textfile path
}

// QueryRun is the outcome of one named query in a run.
type QueryRun struct {
	Query   string    `json:"query"`
	Kind    string    `json:"kind"`
	TraceID string    `json:"trace_id,omitempty"`
	Seq     int64     `json:"seq,omitempty"`
	Data    any       `json:"data"`
	Error   *CLIError `json:"error,omitempty"`

	result *engine.Result
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{QueryOptions: &QueryOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "run <queries-dir>",
		Short: "Run the CUE queries of a directory",
		Long: `Compile the CUE queries of a directory and run them over the datasets.

Queries run in declaration order; --query selects some by name. With
--metrics-out, query counts and durations are written as a Prometheus
textfile after the run.

Example:
  tabula run ./queries --data ./data
  tabula run ./queries --data ./data --query livrosFantasia --backend sql
  tabula run ./queries --data ./data --metrics-out tabula.prom`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQueries(opts, args[0], cmd)
		},
	}

	addDataFlag(cmd, opts.QueryOptions)
	cmd.Flags().StringArrayVar(&opts.Queries, "query", nil, "query to run (repeatable; default all)")
	cmd.Flags().StringVar(&opts.MetricsOut, "metrics-out", "", "write Prometheus metrics to this file")

	return cmd
}

func runQueries(opts *RunOptions, queriesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	ctx := commandContext(cmd.Context())

	loadResult, loadErrors := LoadQueries(queriesDir)
	if len(loadErrors) > 0 {
		if len(loadErrors) == 1 {
			return reportError(formatter, loadErrors[0])
		}
		_ = formatter.Error(ErrCodeBuildFailed, joinLines(loadErrors), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(loadErrors)))
	}
	formatter.VerboseLog("Loaded %d query(ies) from %d CUE file(s)", len(loadResult.Queries), loadResult.FileCount)

	selected, err := selectQueries(loadResult, opts.Queries)
	if err != nil {
		return reportError(formatter, err)
	}

	reg := prometheus.NewRegistry()
	metrics, err := engine.NewMetrics(reg)
	if err != nil {
		return reportError(formatter, err)
	}

	sess, err := openSession(ctx, opts.RootOptions, opts.Data, metrics, cmd.ErrOrStderr())
	if err != nil {
		return reportError(formatter, err)
	}
	defer sess.Close()

	runs := make([]QueryRun, 0, len(selected))
	failed := 0
	for _, nq := range selected {
		run := QueryRun{Query: nq.Name, Kind: string(nq.Query.Kind())}
		res, err := sess.engine.Execute(ctx, nq.Query)
		if err != nil {
			failed++
			run.Error = queryCLIError(err)
			var qe *engine.QueryError
			if errors.As(err, &qe) {
				run.TraceID = qe.RunID
			}
		} else {
			run.TraceID = res.RunID
			run.Seq = res.Seq
			run.Data = res.Data()
			run.result = res
		}
		runs = append(runs, run)
	}

	if opts.MetricsOut != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsOut, reg); err != nil {
			return reportError(formatter, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing metrics: %v", err)})
		}
		formatter.VerboseLog("Wrote metrics to %s", opts.MetricsOut)
	}

	if err := outputRuns(formatter, runs, failed); err != nil {
		return err
	}
	if failed > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%d query(ies) failed", failed))
	}
	return nil
}

// selectQueries returns the named queries in the order given, or all
// queries in declaration order when no names are given.
func selectQueries(loadResult *compiler.LoadResult, names []string) ([]compiler.NamedQuery, error) {
	if len(names) == 0 {
		return loadResult.Queries, nil
	}
	selected := make([]compiler.NamedQuery, 0, len(names))
	for _, name := range names {
		nq, ok := loadResult.Lookup(name)
		if !ok {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("query %q not found (have %v)", name, loadResult.Names())}
		}
		selected = append(selected, nq)
	}
	return selected, nil
}

// queryCLIError converts a query error for JSON output.
func queryCLIError(err error) *CLIError {
	var qe *engine.QueryError
	if !errors.As(err, &qe) {
		return &CLIError{Code: ErrCodeGeneric, Message: err.Error()}
	}
	cliErr := &CLIError{Code: string(qe.Code), Message: qe.Message}
	if qe.Err != nil {
		cliErr.Details = qe.Err.Error()
	}
	return cliErr
}

// outputRuns writes the run results in the configured format.
func outputRuns(formatter *OutputFormatter, runs []QueryRun, failed int) error {
	if formatter.Format == "json" {
		response := CLIResponse{Status: "ok", Data: runs}
		if failed > 0 {
			response.Status = "error"
			response.Error = &CLIError{
				Code:    "E_QUERY_FAILED",
				Message: fmt.Sprintf("%d query(ies) failed", failed),
			}
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(response)
	}

	w := formatter.Writer
	for _, run := range runs {
		fmt.Fprintf(w, "== %s (%s)\n", run.Query, run.Kind)
		if run.Error != nil {
			fmt.Fprintf(w, "Error [%s]: %s\n", run.Error.Code, run.Error.Message)
			continue
		}
		for _, line := range resultLines(run.result) {
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Run Summary: %d succeeded, %d failed, %d total\n", len(runs)-failed, failed, len(runs))
	return nil
}
