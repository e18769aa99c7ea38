package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cuelang.org/go/cue/token"

	"github.com/roach88/tabula/internal/compiler"
	"github.com/roach88/tabula/internal/engine"
	"github.com/roach88/tabula/internal/record"
)

// LoadError represents an error that occurred while loading queries,
// datasets or the backend.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadQueries compiles a directory of CUE queries.
//
// A nil result means the directory could not be read; otherwise the
// returned errors are compile errors of individual queries.
func LoadQueries(dir string) (*compiler.LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("queries directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing queries directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := compiler.FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	result, errs := compiler.LoadQueries(dir)
	converted := make([]error, len(errs))
	for i, err := range errs {
		converted[i] = convertCompileError(err)
	}
	if result == nil && len(converted) == 0 {
		converted = append(converted, &LoadError{Code: ErrCodeLoadFailed, Message: "no queries loaded"})
	}
	return result, converted
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		msg := compileErr.Message
		if compileErr.Query != "" {
			msg = fmt.Sprintf("%s.%s: %s", compileErr.Query, compileErr.Field, compileErr.Message)
		}
		return &LoadError{Code: ErrCodeBuildFailed, Message: msg, Pos: compileErr.Pos}
	}
	return &LoadError{Code: ErrCodeBuildFailed, Message: err.Error()}
}

// LoadData loads dataset files and directories.
func LoadData(paths []string) ([]*record.Dataset, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	datasets, err := record.LoadDatasets(paths...)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	return datasets, nil
}

// session is an engine with its datasets loaded.
type session struct {
	engine  *engine.Engine
	schemas map[string]record.Schema
	close   func() error
}

func (s *session) Close() error {
	return s.close()
}

// openBackend creates the backend selected by --backend. The sql backend
// runs on a private in-memory database that lives for one command.
func openBackend(opts *RootOptions) (engine.Backend, func() error, error) {
	switch opts.Backend {
	case "", "memory":
		return engine.NewMemoryBackend(), func() error { return nil }, nil
	case "sql":
		b, closeDB, err := engine.OpenSQLBackend()
		if err != nil {
			return nil, nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("failed to open database: %v", err)}
		}
		return b, closeDB, nil
	default:
		return nil, nil, &LoadError{Code: ErrCodeBadFlag, Message: fmt.Sprintf("invalid backend %q: must be one of %v", opts.Backend, ValidBackends)}
	}
}

// openSession opens the backend, optionally instruments it, and loads
// the datasets at dataPaths.
func openSession(ctx context.Context, opts *RootOptions, dataPaths []string, metrics *engine.Metrics, logOut io.Writer) (*session, error) {
	datasets, err := LoadData(dataPaths)
	if err != nil {
		return nil, err
	}

	backend, closeBackend, err := openBackend(opts)
	if err != nil {
		return nil, err
	}
	if metrics != nil {
		backend = engine.Instrument(backend, metrics)
	}

	logger := opts.newLogger(logOut)
	eng := engine.New(engine.WithBackend(backend), engine.WithLogger(logger))

	if err := eng.Load(ctx, datasets...); err != nil {
		closeBackend()
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}
	logger.Debug("datasets loaded", "count", len(datasets), "backend", backend.Name())

	schemas, err := backend.Schemas(ctx)
	if err != nil {
		closeBackend()
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading datasets: %v", err)}
	}

	return &session{engine: eng, schemas: schemas, close: closeBackend}, nil
}

// newLogger returns the slog text logger for a command: Info by default,
// Debug with --verbose.
func (o *RootOptions) newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// reportError outputs a LoadError (or any error) and returns the
// command-level ExitError for it.
func reportError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		_ = formatter.Error(loadErr.Code, loadErr.Message, nil)
	} else {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	}
	return WrapExitError(ExitCommandError, "command failed", err)
}

// commandContext returns the command's context, or Background in tests
// that call RunE without Execute.
func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
