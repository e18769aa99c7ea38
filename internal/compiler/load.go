package compiler

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// LoadResult contains the queries compiled from a directory.
type LoadResult struct {
	Queries   []NamedQuery // in declaration order
	FileCount int          // Number of CUE files found
}

// Lookup returns the query with the given name.
func (r *LoadResult) Lookup(name string) (NamedQuery, bool) {
	for _, q := range r.Queries {
		if q.Name == name {
			return q, true
		}
	}
	return NamedQuery{}, false
}

// Names returns the query names in declaration order.
func (r *LoadResult) Names() []string {
	names := make([]string, len(r.Queries))
	for i, q := range r.Queries {
		names[i] = q.Name
	}
	return names
}

// LoadQueries loads and compiles every query in a directory of CUE files.
// All compile errors are collected; the result holds the queries that did
// compile.
func LoadQueries(dir string) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("queries directory: %w", err)}
	}
	if !info.IsDir() {
		return nil, []error{fmt.Errorf("not a directory: %s", dir)}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{fmt.Errorf("scanning %s: %w", dir, err)}
	}
	if len(cueFiles) == 0 {
		return nil, []error{fmt.Errorf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{fmt.Errorf("no CUE instances loaded from %s", dir)}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{fmt.Errorf("loading CUE files: %w", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}

	queries, errs := CompileQueries(value)
	return &LoadResult{Queries: queries, FileCount: len(cueFiles)}, errs
}

// CompileString compiles queries from CUE source, for inline definitions.
func CompileString(src string) ([]NamedQuery, []error) {
	value := cuecontext.New().CompileString(src)
	if err := value.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	return CompileQueries(value)
}

// CompileQueries compiles every field of the top-level query struct.
func CompileQueries(value cue.Value) ([]NamedQuery, []error) {
	queriesVal := value.LookupPath(cue.ParsePath("query"))
	if !queriesVal.Exists() {
		return nil, []error{fmt.Errorf("no query struct found")}
	}

	iter, err := queriesVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var queries []NamedQuery
	var errs []error
	for iter.Next() {
		nq, err := CompileQuery(iter.Value())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		queries = append(queries, *nq)
	}
	if len(queries) == 0 && len(errs) == 0 {
		errs = append(errs, fmt.Errorf("query struct is empty"))
	}
	return queries, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
