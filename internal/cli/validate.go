package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/record"
)

// ValidationIssue is one problem found in a query.
type ValidationIssue struct {
	Query   string `json:"query,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <queries-dir>",
		Short: "Validate queries without running them",
		Long: `Validate the CUE queries of a directory without running them.

Every query must compile. With --data, each query is also checked against
the dataset schemas: its dataset must exist and its fields must exist with
the right kinds.

Example:
  tabula validate ./queries
  tabula validate ./queries --data ./data`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	addDataFlag(cmd, opts)

	return cmd
}

func runValidate(opts *QueryOptions, queriesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadQueries(queriesDir)
	if loadResult == nil && len(loadErrors) > 0 {
		var loadErr *LoadError
		if errors.As(loadErrors[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidateError(formatter, ErrCodeGeneric, loadErrors[0].Error(), nil)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, queriesDir)

	var issues []ValidationIssue
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			line := 0
			if loadErr.Pos.IsValid() {
				line = loadErr.Pos.Line()
			}
			issues = append(issues, ValidationIssue{Code: loadErr.Code, Message: loadErr.Message, Line: line})
		}
	}

	if len(opts.Data) > 0 {
		datasets, err := LoadData(opts.Data)
		if err != nil {
			return reportError(formatter, err)
		}
		schemas := make(map[string]record.Schema, len(datasets))
		for _, ds := range datasets {
			schemas[ds.Name] = ds.Schema
		}

		for _, nq := range loadResult.Queries {
			formatter.VerboseLog("Validating query: %s", nq.Name)
			issues = append(issues, validateQuery(nq.Name, nq.Query, schemas)...)
		}
	}

	if len(issues) > 0 {
		return outputValidationErrors(formatter, issues)
	}
	return outputValidateSuccess(formatter, len(loadResult.Queries))
}

// validateQuery checks one query against the schemas.
func validateQuery(name string, q queryir.Query, schemas map[string]record.Schema) []ValidationIssue {
	err := queryir.Validate(q, schemas)
	if err == nil {
		return nil
	}

	var verr *queryir.ValidationError
	if !errors.As(err, &verr) {
		return []ValidationIssue{{Query: name, Code: ErrCodeGeneric, Message: err.Error()}}
	}
	issues := make([]ValidationIssue, len(verr.Problems))
	for i, p := range verr.Problems {
		issues[i] = ValidationIssue{Query: name, Code: "INVALID_QUERY", Message: p}
	}
	return issues
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, count int) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintf(formatter.Writer, "✓ All %d query(ies) valid\n", count)
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Validation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: issues,
			},
			Error: &CLIError{
				Code:    issues[0].Code,
				Message: issues[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		if issue.Query != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", issue.Code, issue.Query, issue.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
