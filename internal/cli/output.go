package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/tabula/internal/engine"
	"github.com/roach88/tabula/internal/queryir"
	"github.com/roach88/tabula/internal/record"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Test failure (scenarios failed)
	ExitCommandError = 2 // Command error (invalid paths, bad flags, query errors, etc.)
)

// Error codes for CLI output. Query errors use the engine's codes
// (UNKNOWN_DATASET, INVALID_QUERY, ...).
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // Dataset or query load failed
	ErrCodeNotFound    = "E005" // Path or query not found
	ErrCodeBuildFailed = "E006" // CUE build or compile failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeBadFlag     = "E008" // Invalid flag value
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitCommandError if the error is not an
// ExitError, since cobra's own errors are flag and argument mistakes.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status  string      `json:"status"`             // "ok" or "error"
	Data    interface{} `json:"data,omitempty"`     // success payload
	Error   *CLIError   `json:"error,omitempty"`    // error details
	TraceID string      `json:"trace_id,omitempty"` // engine run ID
	Seq     int64       `json:"seq,omitempty"`      // position of the query in the command's run
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "UNKNOWN_DATASET", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
	return f.errorWithTrace(code, message, details, "")
}

func (f *OutputFormatter) errorWithTrace(code, message string, details interface{}, traceID string) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
			TraceID: traceID,
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Result outputs a query result. JSON output carries the run ID as trace_id
// and the engine sequence number as seq.
func (f *OutputFormatter) Result(res *engine.Result) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    res.Data(),
			TraceID: res.RunID,
			Seq:     res.Seq,
		})
	}

	for _, line := range resultLines(res) {
		fmt.Fprintln(f.Writer, line)
	}
	f.VerboseLog("run_id=%s seq=%d backend=%s", res.RunID, res.Seq, res.Backend)
	return nil
}

// QueryError outputs a failed query and returns the ExitError for it.
func (f *OutputFormatter) QueryError(err error) error {
	var qe *engine.QueryError
	if !errors.As(err, &qe) {
		_ = f.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "query failed", err)
	}

	var details interface{}
	if qe.Err != nil {
		details = qe.Err.Error()
	}
	_ = f.errorWithTrace(string(qe.Code), qe.Message, details, qe.RunID)
	return WrapExitError(ExitCommandError, "query failed", err)
}

// resultLines renders a result as text: a find prints its record or
// "absent", rows print one record per line, groups print "key<TAB>value",
// transforms print one value per line and ranges one integer per line.
func resultLines(res *engine.Result) []string {
	switch res.Kind {
	case queryir.KindFind:
		rec, ok := res.Record.Get()
		if !ok {
			return []string{"absent"}
		}
		return []string{recordText(rec)}
	case queryir.KindFilter:
		lines := make([]string, len(res.Rows))
		for i, rec := range res.Rows {
			lines[i] = recordText(rec)
		}
		return lines
	case queryir.KindAggregate:
		lines := make([]string, len(res.Groups))
		for i, g := range res.Groups {
			lines[i] = fmt.Sprintf("%s\t%s", g.Key, record.FormatNumber(g.Value))
		}
		return lines
	case queryir.KindTransform:
		lines := make([]string, len(res.Values))
		for i, v := range res.Values {
			lines[i] = v.String()
		}
		return lines
	case queryir.KindRange:
		lines := make([]string, len(res.Numbers))
		for i, n := range res.Numbers {
			lines[i] = fmt.Sprint(n)
		}
		return lines
	default:
		return nil
	}
}

// recordText renders a record as canonical JSON.
func recordText(rec record.Record) string {
	b, err := record.MarshalCanonical(rec)
	if err != nil {
		return fmt.Sprintf("%v", rec.Native())
	}
	return string(b)
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// joinLines joins error messages for a single-line CLI error.
func joinLines(errs []error) string {
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
